package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/training-procurement/internal/application/dispatcher"
	"github.com/garyjia/training-procurement/internal/domain/entity"
	"github.com/garyjia/training-procurement/internal/domain/event"
	"github.com/garyjia/training-procurement/internal/metrics"
)

// Scanner finds cross-entity mismatches
type Scanner interface {
	Scan(ctx context.Context) ([]entity.Inconsistency, error)
}

// ReconciliationConfig holds configuration for the reconciliation worker
type ReconciliationConfig struct {
	Interval    time.Duration
	ScanTimeout time.Duration
}

// DefaultReconciliationConfig returns default configuration
func DefaultReconciliationConfig() ReconciliationConfig {
	return ReconciliationConfig{
		Interval:    5 * time.Minute,
		ScanTimeout: 30 * time.Second,
	}
}

// ReconciliationWorker periodically scans for inconsistencies and reports them.
// It never modifies workflow data.
type ReconciliationWorker struct {
	config     ReconciliationConfig
	scanner    Scanner
	dispatcher dispatcher.Dispatcher
	logger     *zap.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	lastScan  time.Time
	lastFound int
}

// NewReconciliationWorker creates a new reconciliation worker
func NewReconciliationWorker(config ReconciliationConfig, scanner Scanner, d dispatcher.Dispatcher, logger *zap.Logger) *ReconciliationWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultReconciliationConfig().Interval
	}
	if config.ScanTimeout <= 0 {
		config.ScanTimeout = DefaultReconciliationConfig().ScanTimeout
	}
	return &ReconciliationWorker{
		config:     config,
		scanner:    scanner,
		dispatcher: d,
		logger:     logger,
	}
}

// Name returns the worker name for identification
func (w *ReconciliationWorker) Name() string {
	return "ReconciliationWorker"
}

// Start launches the scan loop
func (w *ReconciliationWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return fmt.Errorf("reconciliation worker already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	w.logger.Info("ReconciliationWorker started", zap.Duration("interval", w.config.Interval))
	go w.loop(loopCtx, w.done)
	return nil
}

// Stop cancels the loop and waits for an in-flight scan to finish
func (w *ReconciliationWorker) Stop() error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func (w *ReconciliationWorker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error("Reconciliation pass failed", zap.Error(err))
			}
		}
	}
}

// RunOnce performs a single reconciliation pass and reports every finding
func (w *ReconciliationWorker) RunOnce(ctx context.Context) ([]entity.Inconsistency, error) {
	scanCtx, cancel := context.WithTimeout(ctx, w.config.ScanTimeout)
	defer cancel()

	start := time.Now()
	found, err := w.scanner.Scan(scanCtx)
	metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	for _, inc := range found {
		w.report(ctx, inc)
	}

	w.mu.Lock()
	w.lastScan = start
	w.lastFound = len(found)
	w.mu.Unlock()

	w.logger.Info("Reconciliation pass finished",
		zap.Int("inconsistencies", len(found)),
		zap.Duration("elapsed", time.Since(start)))
	return found, nil
}

func (w *ReconciliationWorker) report(ctx context.Context, inc entity.Inconsistency) {
	w.logger.Warn("Inconsistency detected",
		zap.String("kind", inc.Kind),
		zap.Int64("purchase_order_id", inc.PurchaseOrderID),
		zap.Int64("request_id", inc.RequestID),
		zap.Int64("invoice_id", inc.InvoiceID),
		zap.String("detail", inc.Detail))
	metrics.Inconsistencies.WithLabelValues(inc.Kind).Inc()

	if w.dispatcher == nil {
		return
	}
	payload := map[string]interface{}{
		"kind":   inc.Kind,
		"detail": inc.Detail,
	}
	if inc.RequestID != 0 {
		payload["request_id"] = inc.RequestID
	}
	if inc.InvoiceID != 0 {
		payload["invoice_id"] = inc.InvoiceID
	}
	w.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeInconsistencyDetected, entity.EntityPurchaseOrder, inc.PurchaseOrderID, payload))
}

// LastScan returns when the last successful pass started and how many findings it produced
func (w *ReconciliationWorker) LastScan() (time.Time, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastScan, w.lastFound
}
