package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/usecase"
	"github.com/secmon-lab/docqa/pkg/utils/errutil"
	"github.com/secmon-lab/docqa/pkg/utils/logging"
)

// Setuper runs one setup pass
type Setuper interface {
	Setup(ctx context.Context, runID string) (*usecase.SetupResult, error)
}

// ReingestWorker re-runs setup in the background so changed documents are
// picked up without a restart.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Upsert overwrites by record ID, so overlapping runs on several instances stay correct
type ReingestWorker struct {
	setup      Setuper
	interval   time.Duration
	runOnStart bool
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// Option configures ReingestWorker
type Option func(*ReingestWorker)

// WithRunOnStart runs a setup pass immediately when the worker starts
func WithRunOnStart(enabled bool) Option {
	return func(w *ReingestWorker) {
		w.runOnStart = enabled
	}
}

// NewReingestWorker creates a worker running setup every interval. A zero
// interval disables the periodic run.
func NewReingestWorker(setup Setuper, interval time.Duration, opts ...Option) *ReingestWorker {
	w := &ReingestWorker{
		setup:    setup,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the background loop. It does not block server startup.
func (w *ReingestWorker) Start(ctx context.Context) error {
	if w.interval < 0 {
		return goerr.New("reingest interval must not be negative", goerr.V("interval", w.interval))
	}
	logging.Default().Info("Reingest worker starting",
		"interval", w.interval.String(),
		"run_on_start", w.runOnStart)

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *ReingestWorker) Stop() {
	logging.Default().Info("Reingest worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Reingest worker stopped")
}

func (w *ReingestWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if w.runOnStart {
		w.reingest(ctx)
	}

	if w.interval == 0 {
		select {
		case <-w.stopCh:
		case <-ctx.Done():
		}
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.reingest(ctx)

		case <-w.stopCh:
			logging.Default().Info("Reingest worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("Reingest worker context cancelled")
			return
		}
	}
}

// reingest performs one setup pass. Failures are reported and retried at the
// next tick.
func (w *ReingestWorker) reingest(ctx context.Context) {
	startTime := time.Now()
	runID := usecase.NewRunID()
	ctx = logging.With(ctx, logging.From(ctx).With("run_id", runID))

	result, err := w.setup.Setup(ctx, runID)
	if err != nil {
		_ = errutil.Handle(ctx, err, "reingest failed (will retry next interval)")
		return
	}

	logging.From(ctx).Info("Reingest completed",
		"documents", result.Documents,
		"chunks", result.Chunks,
		"batches", result.Batches,
		"duration", time.Since(startTime).String())
}
