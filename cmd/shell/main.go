package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/stackring/config"
	"github.com/domino14/stackring/shell"
)

var (
	GitVersion string
)

const banner = `
  stackring: eight columns, sixteen stones
`

func newLogger(debug bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// startCPUProfile returns the function that stops the profile, or a no-op
// when no profile was asked for.
func startCPUProfile(path string) func() {
	if path == "" {
		return func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("creating-cpu-profile")
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		log.Fatal().Err(err).Msg("starting-cpu-profile")
	}
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}
}

func writeMemProfile(path string) {
	if path == "" {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("creating-memory-profile")
		return
	}
	defer f.Close()
	memstats := &runtime.MemStats{}
	runtime.ReadMemStats(memstats)
	log.Info().Uint64("heap-alloc", memstats.HeapAlloc).Uint64("sys", memstats.Sys).
		Uint32("num-gc", memstats.NumGC).Msg("memory-stats")
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Error().Err(err).Msg("writing-memory-profile")
		return
	}
	log.Info().Str("path", path).Msg("wrote-memory-profile")
}

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	fmt.Print(banner + "\n")
	fmt.Println(GitVersion)

	cfg := config.DefaultConfig()
	args, err := cfg.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := newLogger(cfg.GetBool(config.ConfigDebug))
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	log.Debug().Msg("debug-logging-on")
	log.Info().Interface("config", cfg.SanitizedSettings()).Msg("loaded-config")

	stopCPUProfile := startCPUProfile(cfg.GetString(config.ConfigCPUProfile))

	done := make(chan struct{})
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("got-quit-signal")
		close(done)
	}()

	sc := shell.NewShellController(cfg, filepath.Dir(ex), GitVersion)
	if line := strings.TrimSpace(strings.Join(args, " ")); line == "" {
		go sc.Loop(sig)
		log.Debug().Msg("started-loop")
	} else {
		sc.Execute(sig, line)
		sig <- syscall.SIGINT
	}

	<-done

	stopCPUProfile()
	writeMemProfile(cfg.GetString(config.ConfigMemProfile))
	sc.Cleanup()
	log.Info().Msg("shutting-down")
}
