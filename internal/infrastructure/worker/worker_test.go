package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/training-procurement/internal/application/dispatcher"
	"github.com/garyjia/training-procurement/internal/domain/entity"
	"github.com/garyjia/training-procurement/internal/domain/event"
)

type stubWorker struct {
	name     string
	startErr error
	stopErr  error
	log      *[]string
}

func (s *stubWorker) Start(ctx context.Context) error {
	*s.log = append(*s.log, "start "+s.name)
	return s.startErr
}

func (s *stubWorker) Stop() error {
	*s.log = append(*s.log, "stop "+s.name)
	return s.stopErr
}

func (s *stubWorker) Name() string { return s.name }

func TestManager_Lifecycle(t *testing.T) {
	var log []string
	m := NewManager(zap.NewNop())
	m.Register(&stubWorker{name: "a", log: &log})
	m.Register(&stubWorker{name: "broken", startErr: errors.New("boom"), log: &log})
	m.Register(&stubWorker{name: "b", log: &log})
	assert.Equal(t, 3, m.Count())

	require.NoError(t, m.StartAll(context.Background()))
	assert.True(t, m.IsRunning())
	assert.ErrorIs(t, m.StartAll(context.Background()), ErrAlreadyRunning)

	require.NoError(t, m.StopAll())
	assert.False(t, m.IsRunning())
	assert.Equal(t, []string{"start a", "start broken", "start b", "stop b", "stop a"}, log)

	require.NoError(t, m.StopAll())
}

func TestManager_StopError(t *testing.T) {
	var log []string
	m := NewManager(zap.NewNop())
	m.Register(&stubWorker{name: "a", stopErr: errors.New("stuck"), log: &log})

	require.NoError(t, m.StartAll(context.Background()))
	assert.ErrorContains(t, m.StopAll(), "[a]")
}

type stubScanner struct {
	found []entity.Inconsistency
	err   error
}

func (s *stubScanner) Scan(ctx context.Context) ([]entity.Inconsistency, error) {
	return s.found, s.err
}

func TestReconciliationWorker_RunOnce(t *testing.T) {
	d := dispatcher.NewDispatcher()
	var mu sync.Mutex
	var got []*event.Event
	d.Subscribe(event.TypeInconsistencyDetected, func(ctx context.Context, evt *event.Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, evt)
		return nil
	})

	scanner := &stubScanner{found: []entity.Inconsistency{
		{Kind: entity.InconsistencyAssignedWithoutRequest, PurchaseOrderID: 4, Detail: "no request"},
		{Kind: entity.InconsistencyApprovedWithoutForward, PurchaseOrderID: 5, RequestID: 9, InvoiceID: 12},
	}}
	w := NewReconciliationWorker(ReconciliationConfig{}, scanner, d, zap.NewNop())

	found, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, found, 2)
	require.NoError(t, d.Close())

	require.Len(t, got, 2)
	byEntity := map[int64]*event.Event{}
	for _, evt := range got {
		byEntity[evt.EntityID] = evt
	}
	assert.Equal(t, entity.InconsistencyAssignedWithoutRequest, byEntity[4].GetPayloadString("kind"))
	assert.NotContains(t, byEntity[4].Payload, "invoice_id")
	assert.Equal(t, int64(12), byEntity[5].GetPayloadInt("invoice_id"))

	_, n := w.LastScan()
	assert.Equal(t, 2, n)
}

func TestReconciliationWorker_ScanError(t *testing.T) {
	w := NewReconciliationWorker(ReconciliationConfig{}, &stubScanner{err: errors.New("locked")}, nil, zap.NewNop())

	_, err := w.RunOnce(context.Background())
	assert.ErrorContains(t, err, "locked")
	last, _ := w.LastScan()
	assert.True(t, last.IsZero())
}

func TestReconciliationWorker_Loop(t *testing.T) {
	scanner := &countingScanner{}
	w := NewReconciliationWorker(ReconciliationConfig{Interval: 5 * time.Millisecond}, scanner, nil, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))
	assert.Eventually(t, func() bool { return scanner.calls() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

type countingScanner struct {
	mu sync.Mutex
	n  int
}

func (c *countingScanner) Scan(ctx context.Context) ([]entity.Inconsistency, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return nil, nil
}

func (c *countingScanner) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
