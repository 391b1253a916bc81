package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"autotagger/internal/config"
	"autotagger/internal/fileutil"
	"autotagger/internal/logging"
	"autotagger/internal/prompt"
	"autotagger/internal/services"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	logger      *slog.Logger
	logCloser   io.Closer
	lock        *fileutil.DirLock
	consoleImpl *prompt.Console
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
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
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// start prepares a workflow invocation: run id on the context, logger, the
// directory lock and the console.
func (c *commandContext) start(cmd *cobra.Command, dir string) (context.Context, *slog.Logger, *prompt.Console, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	ctx := services.WithRunID(cmd.Context(), uuid.NewString())

	if c.logger == nil {
		logger, closer, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init logging: %w", err)
		}
		c.logger, c.logCloser = logger, closer
	}
	logger := logging.WithContext(ctx, c.logger)

	lock, err := fileutil.LockDir(dir)
	if err != nil {
		if errors.Is(err, fileutil.ErrLocked) {
			return nil, nil, nil, fmt.Errorf("%s: %w", dir, err)
		}
		return nil, nil, nil, fmt.Errorf("lock %s: %w", dir, err)
	}
	c.lock = lock

	c.consoleImpl = prompt.New(ctx,
		prompt.WithOutput(cmd.OutOrStdout()),
		prompt.WithPager(cfg.Interaction.PagerBinary),
		prompt.WithLogger(logger),
	)
	logger.Debug("run started", logging.String(logging.FieldEventType, "run_start"), logging.String("dir", dir))
	return ctx, logger, c.consoleImpl, nil
}

func (c *commandContext) close() error {
	var errs []error
	if c.consoleImpl != nil {
		c.consoleImpl.Close()
		c.consoleImpl = nil
	}
	if c.lock != nil {
		errs = append(errs, c.lock.Unlock())
		c.lock = nil
	}
	if c.logCloser != nil {
		errs = append(errs, c.logCloser.Close())
		c.logCloser = nil
	}
	return errors.Join(errs...)
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
