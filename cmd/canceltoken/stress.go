package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/randomizedcoder/canceltoken/internal/stress"
)

func stressCmd(root *rootOptions) *cobra.Command {
	var configPath string
	var rounds int
	cfg := stress.DefaultConfig()

	c := &cobra.Command{
		Use:   "stress",
		Short: "Race registrations against cancel/complete and verify delivery",
		RunE: func(c *cobra.Command, _ []string) error {
			if configPath != "" {
				loaded, err := stress.LoadConfig(configPath)
				if err != nil {
					return err
				}
				applyOverrides(c, &loaded, cfg)
				cfg = loaded
			}
			return runStress(c, root, cfg, rounds)
		},
	}

	c.Flags().StringVar(&configPath, "config", "", "Path to a YAML stress config; flags override its values")
	c.Flags().IntVar(&rounds, "rounds", 10, "number of independent runs")
	c.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "goroutines registering callbacks")
	c.Flags().IntVar(&cfg.CallbacksPerWorker, "callbacks", cfg.CallbacksPerWorker, "callbacks registered per worker")
	c.Flags().IntVar(&cfg.Transitioners, "transitioners", cfg.Transitioners, "goroutines calling cancel/complete")
	c.Flags().IntVar(&cfg.TransitionAfter, "transition-after", cfg.TransitionAfter, "registrations to wait for before transitioning")
	c.Flags().StringVar((*string)(&cfg.Outcome), "outcome", string(cfg.Outcome), "cancel, complete or race")
	c.Flags().Uint64Var(&cfg.Shards, "shards", cfg.Shards, "fan-in ring shards")
	c.Flags().Uint64Var(&cfg.RingCapacity, "ring-capacity", cfg.RingCapacity, "fan-in ring capacity")
	return c
}

// applyOverrides copies explicitly set flags from flagged onto loaded.
func applyOverrides(c *cobra.Command, loaded *stress.Config, flagged stress.Config) {
	set := func(name string, apply func()) {
		if c.Flags().Changed(name) {
			apply()
		}
	}
	set("workers", func() { loaded.Workers = flagged.Workers })
	set("callbacks", func() { loaded.CallbacksPerWorker = flagged.CallbacksPerWorker })
	set("transitioners", func() { loaded.Transitioners = flagged.Transitioners })
	set("transition-after", func() { loaded.TransitionAfter = flagged.TransitionAfter })
	set("outcome", func() { loaded.Outcome = flagged.Outcome })
	set("shards", func() { loaded.Shards = flagged.Shards })
	set("ring-capacity", func() { loaded.RingCapacity = flagged.RingCapacity })
}

func runStress(c *cobra.Command, root *rootOptions, cfg stress.Config, rounds int) error {
	log, flush, err := root.logger()
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt)
	defer stop()

	log.Info("starting stress", "rounds", rounds, "workers", cfg.Workers,
		"callbacks", cfg.Total(), "outcome", cfg.Outcome)

	tally := map[string]int{}
	for i := 0; i < rounds; i++ {
		report, err := stress.Run(ctx, cfg, log.WithValues("round", i))
		if err != nil {
			return fmt.Errorf("round %d: %w", i, err)
		}
		if err := report.Verify(); err != nil {
			return fmt.Errorf("round %d: %w", i, err)
		}
		tally[report.Status.String()]++
	}

	printTally(c.OutOrStdout(), rounds, tally)
	return nil
}

func printTally(w io.Writer, rounds int, tally map[string]int) {
	fmt.Fprintf(w, "%d rounds passed\n", rounds)
	for _, status := range []string{"canceled", "completed"} {
		fmt.Fprintf(w, "  %-10s %d\n", status+":", tally[status])
	}
}
