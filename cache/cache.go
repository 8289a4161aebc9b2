package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/domino14/stackring/config"
	"github.com/domino14/stackring/retrograde"
)

// The cache holds large objects that are expensive to build and only live
// for the process, solved games being the main one. Nothing is written to
// disk.

type Cache[V any] struct {
	sync.Mutex
	objects map[string]V
}

type LoadFunc[V any] func(cfg *config.Config, key string) (V, error)

func New[V any]() *Cache[V] {
	return &Cache[V]{objects: make(map[string]V)}
}

func (c *Cache[V]) load(cfg *config.Config, key string, loadFunc LoadFunc[V]) (V, error) {
	log.Debug().Str("key", key).Msg("loading-into-cache")

	obj, err := loadFunc(cfg, key)
	if err != nil {
		return obj, err
	}
	c.objects[key] = obj
	return obj, nil
}

// Get returns the object stored under key, loading it first if needed. A
// failed load is not cached.
func (c *Cache[V]) Get(cfg *config.Config, key string, loadFunc LoadFunc[V]) (V, error) {
	c.Lock()
	defer c.Unlock()
	if obj, ok := c.objects[key]; ok {
		log.Debug().Str("key", key).Msg("cache-hit")
		return obj, nil
	}
	return c.load(cfg, key, loadFunc)
}

func (c *Cache[V]) Forget(key string) {
	c.Lock()
	defer c.Unlock()
	delete(c.objects, key)
}

// Solutions holds solved games by round budget.
var Solutions = New[*retrograde.Result]()

func SolutionKey(rounds int) string {
	return fmt.Sprintf("solution:rounds=%d", rounds)
}

// LoadSolution returns the solved game for the round budget in cfg, solving
// it on first use. progress may be nil.
func LoadSolution(ctx context.Context, cfg *config.Config,
	progress retrograde.ProgressFunc) (*retrograde.Result, error) {

	key := SolutionKey(cfg.GetInt(config.ConfigRounds))
	return Solutions.Get(cfg, key, func(cfg *config.Config, key string) (*retrograde.Result, error) {
		var s retrograde.Solver
		if err := s.Init(cfg); err != nil {
			return nil, err
		}
		s.SetProgressFunc(progress)
		return s.Solve(ctx)
	})
}
