package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/randomizedcoder/canceltoken/internal/cancel"
)

func benchCmd() *cobra.Command {
	var iterations, fanOut int
	c := &cobra.Command{
		Use:   "bench",
		Short: "Compare cancellation checks and measure cancel fan-out",
		RunE: func(c *cobra.Command, _ []string) error {
			if iterations < 1 || fanOut < 1 {
				return fmt.Errorf("-n and --fan-out must be positive")
			}
			runBench(c.OutOrStdout(), iterations, fanOut)
			return nil
		},
	}

	c.Flags().IntVarP(&iterations, "iterations", "n", 10_000_000, "number of iterations")
	c.Flags().IntVar(&fanOut, "fan-out", 64, "callbacks per token in the fan-out benchmark")
	return c
}

// lockedFlag is the naive mutex-guarded flag the token's lock-free read replaces.
type lockedFlag struct {
	mu        sync.Mutex
	cancelled bool
}

func (l *lockedFlag) Done() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancelled
}

func perOp(d time.Duration, n int) float64 {
	return float64(d.Nanoseconds()) / float64(n)
}

func runBench(w io.Writer, iterations, fanOut int) {
	fmt.Fprintf(w, "Benchmarking cancellation check (%d iterations)\n", iterations)
	fmt.Fprintln(w, "─────────────────────────────────────────────────")

	// Context-based cancellation
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()
	start := time.Now()
	for i := 0; i < iterations; i++ {
		select {
		case <-ctx.Done():
		default:
		}
	}
	ctxDur := time.Since(start)

	// Mutex-guarded flag
	locked := &lockedFlag{}
	start = time.Now()
	for i := 0; i < iterations; i++ {
		_ = locked.Done()
	}
	lockedDur := time.Since(start)

	// Token fast path
	tok := cancel.New()
	start = time.Now()
	for i := 0; i < iterations; i++ {
		_ = tok.Done()
	}
	tokDur := time.Since(start)

	ctxPerOp := perOp(ctxDur, iterations)
	lockedPerOp := perOp(lockedDur, iterations)
	tokPerOp := perOp(tokDur, iterations)

	fmt.Fprintf(w, "\nResults:\n")
	fmt.Fprintf(w, "  Context:  %v (%.2f ns/op)\n", ctxDur, ctxPerOp)
	fmt.Fprintf(w, "  Mutex:    %v (%.2f ns/op)\n", lockedDur, lockedPerOp)
	fmt.Fprintf(w, "  Token:    %v (%.2f ns/op)\n", tokDur, tokPerOp)
	fmt.Fprintf(w, "\n  Speedup vs context:  %.2fx\n", ctxPerOp/tokPerOp)

	// Fan-out: register fanOut callbacks, then cancel
	rounds := iterations / fanOut
	if rounds == 0 {
		rounds = 1
	}
	fired := 0
	cb := func() { fired++ }
	start = time.Now()
	for i := 0; i < rounds; i++ {
		t := cancel.New()
		for j := 0; j < fanOut; j++ {
			t.OnCancel(cb)
		}
		t.Cancel()
	}
	fanDur := time.Since(start)

	fmt.Fprintf(w, "\nFan-out (%d tokens x %d callbacks, %d fired):\n", rounds, fanOut, fired)
	fmt.Fprintf(w, "  Total:        %v\n", fanDur)
	fmt.Fprintf(w, "  Per token:    %.2f ns\n", perOp(fanDur, rounds))
	fmt.Fprintf(w, "  Per callback: %.2f ns\n", perOp(fanDur, rounds*fanOut))
}
