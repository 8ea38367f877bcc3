package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"filingdesk/internal/backend"
	"filingdesk/internal/camera"
	"filingdesk/internal/config"
	"filingdesk/internal/locations"
	"filingdesk/internal/logging"
)

// openCamera is swapped out by tests.
var openCamera camera.Opener = camera.OpenGoCV

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
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

// fileLogger logs to the log file only, keeping stdout for command output
// and the terminal for the console.
func (c *commandContext) fileLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg, true)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) newClient(cfg *config.Config) *backend.Client {
	return backend.NewClient(cfg.Backend.BaseURL, cfg.RequestTimeout(), backend.WithLogger(c.fileLogger()))
}

func (c *commandContext) newStore(cfg *config.Config, client *backend.Client) *locations.Store {
	return locations.NewStore(client, locations.NewLayout(cfg.Layout), c.fileLogger(),
		locations.WithOrder(locations.NewOrder(cfg.Display.Language)))
}

// loadStore builds a store and performs the first load.
func (c *commandContext) loadStore(ctx context.Context, cfg *config.Config) (*locations.Store, error) {
	store := c.newStore(cfg, c.newClient(cfg))
	if err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("load locations: %w", err)
	}
	return store, nil
}

func (c *commandContext) newEngine(cfg *config.Config) *camera.Engine {
	return camera.NewEngine(cfg, c.fileLogger(), camera.WithOpener(openCamera))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func contextWithTimeout(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}
