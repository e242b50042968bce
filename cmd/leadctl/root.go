package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xavierca1/leadbase/internal/bootstrap"
	"github.com/xavierca1/leadbase/internal/config"
)

type cli struct {
	verbose bool
	logger  *zap.Logger
	app     *bootstrap.App
	owned   bool
}

// newRootCmd builds the command tree. A non-nil app is used as is, which
// lets tests run commands against a shared in-memory store.
func newRootCmd(app *bootstrap.App) *cobra.Command {
	c := &cli{app: app}

	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Deduplicate lead lists and track which campaigns reached whom",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.teardown()
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		c.ingestCmd(),
		c.searchCmd(),
		c.exportCmd(),
		c.deleteCmd(),
		c.notesCmd(),
		c.tagCmd(),
		c.campaignsCmd(),
		c.statsCmd(),
		c.historyCmd(),
		c.purgeCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	if c.app != nil {
		c.logger = c.app.Logger
		return nil
	}

	cfg, err := config.Load()
	var missing *config.ConfigError
	if errors.As(err, &missing) {
		return fmt.Errorf("setup required: set %s (or LEADBASE_STORE_DRIVER=memory)", strings.Join(missing.Missing, " and "))
	}
	if err != nil {
		return err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if c.verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	c.logger, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	c.app, err = bootstrap.Open(ctxOf(cmd), cfg, c.logger)
	if err != nil {
		return err
	}
	c.owned = true
	return nil
}

func (c *cli) teardown() {
	if c.owned && c.app != nil {
		c.app.Close()
		c.app = nil
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
