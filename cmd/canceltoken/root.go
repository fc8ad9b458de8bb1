package main

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type rootOptions struct {
	development bool
	verbosity   int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	c := &cobra.Command{
		Use:          "canceltoken",
		Short:        "Benchmark and stress the cancellation token",
		SilenceUsage: true,
	}

	c.PersistentFlags().BoolVar(&opts.development, "dev", false, "Use human-readable development logging")
	c.PersistentFlags().IntVarP(&opts.verbosity, "verbosity", "v", 0, "Log verbosity; 1 logs every token transition")

	c.AddCommand(benchCmd())
	c.AddCommand(stressCmd(opts))
	return c
}

// logger builds a zap-backed logr.Logger. logr V-levels map to negative zap levels.
func (o *rootOptions) logger() (logr.Logger, func(), error) {
	cfg := zap.NewProductionConfig()
	if o.development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-o.verbosity))

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), func() {}, fmt.Errorf("building logger: %w", err)
	}
	return zapr.NewLogger(zl), func() { _ = zl.Sync() }, nil
}
