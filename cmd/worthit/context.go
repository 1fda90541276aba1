package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"worthit/internal/artifactcache"
	"worthit/internal/config"
	"worthit/internal/logging"
	"worthit/internal/pipeline"
	"worthit/internal/qa"
	"worthit/internal/quota"
	"worthit/internal/services/backend"
	"worthit/internal/state"
	"worthit/internal/timesaved"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cfg *config.Config) *slog.Logger {
	if c.verboseFlag == nil || !*c.verboseFlag {
		return logging.NewNop()
	}
	logger, err := logging.NewFromConfig(cfg, "worthit.log")
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// engine bundles the wired components a command operates on. It lives for
// the duration of one command invocation.
type engine struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *state.DB
	cache  *artifactcache.Cache
	guard  *quota.Guard
	ledger *timesaved.Ledger
	client *backend.Client
	orch   *pipeline.Orchestrator
	qa     *qa.Session
}

// withEngine wires the shared state database, cache, quota guard, backend
// client, and orchestrator, runs fn, and tears everything down afterwards.
func (c *commandContext) withEngine(cmd *cobra.Command, fn func(context.Context, *engine) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger := c.logger(cfg)

	db, err := state.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	cache := artifactcache.New(db, logger)
	ledger := timesaved.NewLedger(db, logger)
	guard := quota.NewGuard(db, ledger, cfg.Quota.DailyLimit, logger)
	client := backend.NewClient(backend.Config{
		BaseURL:          cfg.Backend.BaseURL,
		APIKey:           cfg.Backend.APIKey,
		TimeoutSeconds:   cfg.Backend.TimeoutSeconds,
		RetryMaxAttempts: cfg.Backend.RetryMaxAttempts,
		CommentLimit:     cfg.Backend.CommentLimit,
	})
	orch := pipeline.New(cfg, client, cache, guard, ledger, logger)
	defer orch.Close()

	eng := &engine{
		cfg:    cfg,
		logger: logger,
		db:     db,
		cache:  cache,
		guard:  guard,
		ledger: ledger,
		client: client,
		orch:   orch,
		qa:     qa.NewSession(cfg, client, cache, logger),
	}
	return fn(cmd.Context(), eng)
}
