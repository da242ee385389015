package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"promptindex/internal/config"
	"promptindex/internal/index"
	"promptindex/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) withStore(fn func(*config.Config, *index.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := index.Open(cfg)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}

// resolveEntry looks up an indexed record by numeric id or by file path.
func resolveEntry(ctx context.Context, store *index.Store, arg string) (*index.Entry, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, errors.New("record id or path is required")
	}
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		entry, err := store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return nil, fmt.Errorf("no indexed record with id %d", id)
		}
		return entry, nil
	}
	path, err := config.ExpandPath(arg)
	if err != nil {
		return nil, err
	}
	entry, err := store.GetByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("no indexed record for %s (run promptindex scan first)", path)
	}
	return entry, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

