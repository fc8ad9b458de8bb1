// Package stress hammers a single shared cancellation token from many
// goroutines and checks that every callback was delivered exactly once on
// cancel and never on complete.
//
// Fired callbacks report their ID into a sharded lock-free MPSC ring that a
// single consumer drains, so the tally itself needs no locking.
package stress

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	ring "github.com/randomizedcoder/go-lock-free-ring"
	"golang.org/x/sync/errgroup"

	"github.com/randomizedcoder/canceltoken/internal/cancel"
)

var (
	// ErrDuplicateFire means some callback ran more than once.
	ErrDuplicateFire = errors.New("callback fired more than once")
	// ErrLostCallback means a canceled token failed to run a registered callback.
	ErrLostCallback = errors.New("registered callback never fired")
	// ErrFiredAfterComplete means a completed token ran a callback.
	ErrFiredAfterComplete = errors.New("callback fired on completed token")
)

// Report summarizes one Run.
type Report struct {
	Status     cancel.Status
	Registered int
	Fired      int
	Duplicates int
	Missing    int
	Elapsed    time.Duration
}

// Verify returns an error describing the first violated delivery guarantee.
func (r Report) Verify() error {
	if r.Duplicates > 0 {
		return fmt.Errorf("%w: %d callbacks", ErrDuplicateFire, r.Duplicates)
	}
	switch r.Status {
	case cancel.Canceled:
		if r.Missing > 0 {
			return fmt.Errorf("%w: %d of %d callbacks", ErrLostCallback, r.Missing, r.Registered)
		}
	case cancel.Completed:
		if r.Fired > 0 {
			return fmt.Errorf("%w: %d callbacks", ErrFiredAfterComplete, r.Fired)
		}
	}
	return nil
}

// Run executes one stress run described by cfg.
//
// Canceling ctx makes workers stop registering early; the transitioners still
// run, and Run returns the partial report along with the context error.
func Run(ctx context.Context, cfg Config, log logr.Logger) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}

	fanIn, err := ring.NewShardedRing(cfg.RingCapacity, cfg.Shards)
	if err != nil {
		return Report{}, fmt.Errorf("creating fan-in ring: %w", err)
	}

	tok := cancel.New(cancel.WithLogger(log), cancel.WithName("stress"))
	log = log.WithValues("token", tok.ID())

	total := cfg.Total()
	registered := make([]bool, total)
	seen := make([]int, total)
	var registeredN atomic.Int64

	emit := func(id int) {
		for !fanIn.Write(uint64(id)%cfg.Shards, id) {
			runtime.Gosched()
		}
	}

	stop := make(chan struct{})
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		for {
			if v, ok := fanIn.TryRead(); ok {
				seen[v.(int)]++
				continue
			}
			select {
			case <-stop:
				for {
					v, ok := fanIn.TryRead()
					if !ok {
						return
					}
					seen[v.(int)]++
				}
			default:
				runtime.Gosched()
			}
		}
	}()

	start := time.Now()
	gate := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)

	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			<-gate
			for j := 0; j < cfg.CallbacksPerWorker; j++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				id := w*cfg.CallbacksPerWorker + j
				registered[id] = true
				tok.OnCancel(func() { emit(id) })
				registeredN.Add(1)
			}
			return nil
		})
	}

	for i := 0; i < cfg.Transitioners; i++ {
		transition := tok.Cancel
		if cfg.Outcome == OutcomeComplete || (cfg.Outcome == OutcomeRace && i%2 == 1) {
			transition = tok.Complete
		}
		g.Go(func() error {
			<-gate
			for registeredN.Load() < int64(cfg.TransitionAfter) && gctx.Err() == nil {
				runtime.Gosched()
			}
			transition()
			return nil
		})
	}

	close(gate)
	runErr := g.Wait()
	close(stop)
	<-consumerDone

	report := Report{
		Status:  tok.Status(),
		Elapsed: time.Since(start),
	}
	for id := range seen {
		report.Fired += seen[id]
		if seen[id] > 1 {
			report.Duplicates++
		}
		if registered[id] {
			report.Registered++
			if seen[id] == 0 {
				report.Missing++
			}
		}
	}

	log.Info("stress run finished",
		"status", report.Status,
		"registered", report.Registered,
		"fired", report.Fired,
		"elapsed", report.Elapsed)

	if runErr != nil {
		return report, fmt.Errorf("stress run interrupted: %w", runErr)
	}
	return report, nil
}
