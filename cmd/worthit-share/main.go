package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"worthit/internal/config"
	"worthit/internal/invocationlock"
	"worthit/internal/logging"
	"worthit/internal/pipeline"
	"worthit/internal/preflight"
	"worthit/internal/services"
	"worthit/internal/videoid"
)

// worthit-share is the share-sheet entry point: invoked with one shared
// content reference, it runs a single analysis and prints a compact verdict.
// A duplicate invocation for the same video exits quietly without touching
// quota or cache.
func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: worthit-share [-config path] <shared reference>")
		return 2
	}

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Printf("load config: %v", err)
		return 1
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Printf("ensure directories: %v", err)
		return 1
	}

	logger, err := logging.NewFromConfig(cfg, "worthit-share.log")
	if err != nil {
		log.Printf("init logger: %v", err)
		return 1
	}
	preflight.Log(logger, preflight.RunAll(ctx, cfg))

	id, err := videoid.Resolve(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "worthit-share: %v\n", err)
		return 2
	}

	locks := invocationlock.NewManager(cfg.LockDir(), logger)
	lease, err := locks.TryAcquire(ctx, id.String(),
		time.Duration(cfg.Pipeline.LockTimeoutSeconds)*time.Second)
	if err != nil {
		if errors.Is(err, services.ErrLockHeld) {
			logger.Info("share already being processed, exiting",
				logging.String(logging.FieldVideoID, id.String()))
			return 0
		}
		logger.Error("acquire invocation lock", logging.Error(err))
		return 1
	}
	defer lease.Release()

	eng, err := newEngine(cfg, logger)
	if err != nil {
		logger.Error("bootstrap engine", logging.Error(err))
		return 1
	}
	defer eng.close()

	final, exitCode := awaitVerdict(eng.orch.Analyze(ctx, id.String(), pipeline.Options{}))
	if final != nil {
		printVerdict(os.Stdout, final)
	}
	return exitCode
}

// awaitVerdict drains the updates channel and keeps the terminal update.
func awaitVerdict(updates <-chan pipeline.Update) (*pipeline.Update, int) {
	var terminal *pipeline.Update
	for update := range updates {
		if update.State.Terminal() {
			u := update
			terminal = &u
		}
	}
	if terminal == nil {
		return nil, 1
	}
	switch terminal.State {
	case pipeline.StateReady:
		return terminal, 0
	case pipeline.StateDenied:
		return terminal, 0
	default:
		return terminal, 1
	}
}
