package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/training-procurement/internal/domain/entity"
	domainwf "github.com/garyjia/training-procurement/internal/domain/workflow"
)

func TestPurchaseOrderTransitions(t *testing.T) {
	tests := []struct {
		name    string
		policy  AssignmentPolicy
		from    entity.POStatus
		trigger domainwf.Trigger
		want    entity.POStatus
		wantErr bool
	}{
		{"assign pending", PolicySingleActive, entity.POStatusPending, domainwf.TriggerAssign, entity.POStatusAssigned, false},
		{"accept assigned", PolicySingleActive, entity.POStatusAssigned, domainwf.TriggerAccept, entity.POStatusAccepted, false},
		{"reject assigned", PolicySingleActive, entity.POStatusAssigned, domainwf.TriggerReject, entity.POStatusRejected, false},
		{"complete accepted", PolicySingleActive, entity.POStatusAccepted, domainwf.TriggerComplete, entity.POStatusCompleted, false},
		{"invoice completed", PolicySingleActive, entity.POStatusCompleted, domainwf.TriggerInvoice, entity.POStatusInvoiced, false},
		{"assign twice", PolicySingleActive, entity.POStatusAssigned, domainwf.TriggerAssign, "", true},
		{"reassign rejected forbidden", PolicySingleActive, entity.POStatusRejected, domainwf.TriggerAssign, "", true},
		{"reassign rejected allowed", PolicyAllowReassign, entity.POStatusRejected, domainwf.TriggerAssign, entity.POStatusAssigned, false},
		{"complete before accept", PolicySingleActive, entity.POStatusAssigned, domainwf.TriggerComplete, "", true},
		{"invoiced is terminal", PolicyAllowReassign, entity.POStatusInvoiced, domainwf.TriggerAssign, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(nil, WithAssignmentPolicy(tt.policy))
			got, err := e.NextPOStatus(context.Background(), tt.from, tt.trigger)
			if tt.wantErr {
				assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrainingRequestTransitions(t *testing.T) {
	e := NewEngine(nil)
	ctx := context.Background()

	got, err := e.NextRequestStatus(ctx, entity.RequestStatusSent, domainwf.TriggerAccept)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusAccepted, got)

	got, err = e.NextRequestStatus(ctx, entity.RequestStatusSent, domainwf.TriggerReject)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusRejected, got)

	got, err = e.NextRequestStatus(ctx, entity.RequestStatusAccepted, domainwf.TriggerComplete)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusCompleted, got)

	_, err = e.NextRequestStatus(ctx, entity.RequestStatusSent, domainwf.TriggerComplete)
	assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)

	_, err = e.NextRequestStatus(ctx, entity.RequestStatusRejected, domainwf.TriggerAccept)
	assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)

	_, err = e.NextRequestStatus(ctx, entity.RequestStatus("Lost"), domainwf.TriggerAccept)
	assert.ErrorIs(t, err, domainwf.ErrInvalidState)
}

func TestInvoiceTransitions(t *testing.T) {
	e := NewEngine(nil)
	ctx := context.Background()

	got, err := e.NextInvoiceStatus(ctx, entity.InvoiceTypeTrainerToAdmin, entity.InvoiceStatusPending, domainwf.TriggerApprove)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusApproved, got)

	_, err = e.NextInvoiceStatus(ctx, entity.InvoiceTypeTrainerToAdmin, entity.InvoiceStatusPending, domainwf.TriggerPay)
	assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)

	got, err = e.NextInvoiceStatus(ctx, entity.InvoiceTypeTrainerToAdmin, entity.InvoiceStatusApproved, domainwf.TriggerPay)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPaid, got)

	got, err = e.NextInvoiceStatus(ctx, entity.InvoiceTypeAdminToClient, entity.InvoiceStatusPending, domainwf.TriggerPay)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPaid, got)

	_, err = e.NextInvoiceStatus(ctx, entity.InvoiceTypeAdminToClient, entity.InvoiceStatusPending, domainwf.TriggerApprove)
	assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)

	_, err = e.NextInvoiceStatus(ctx, entity.InvoiceTypeAdminToClient, entity.InvoiceStatusPaid, domainwf.TriggerPay)
	assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)

	_, err = e.NextInvoiceStatus(ctx, entity.InvoiceType("refund"), entity.InvoiceStatusPending, domainwf.TriggerPay)
	assert.ErrorIs(t, err, domainwf.ErrInvalidState)
}

func TestInvoiceTransitions_TrainerDirectPay(t *testing.T) {
	e := NewEngine(nil, WithTrainerDirectPay(true))

	got, err := e.NextInvoiceStatus(context.Background(), entity.InvoiceTypeTrainerToAdmin, entity.InvoiceStatusPending, domainwf.TriggerPay)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPaid, got)

	got, err = e.NextInvoiceStatus(context.Background(), entity.InvoiceTypeTrainerToAdmin, entity.InvoiceStatusPending, domainwf.TriggerApprove)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusApproved, got)
}

type memHistory struct {
	rows      []*entity.StatusTransition
	createErr error
}

func (m *memHistory) Create(ctx context.Context, row *entity.StatusTransition) error {
	if m.createErr != nil {
		return m.createErr
	}
	row.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, row)
	return nil
}

func (m *memHistory) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.StatusTransition, error) {
	var out []*entity.StatusTransition
	for _, r := range m.rows {
		if r.EntityType == entityType && r.EntityID == entityID {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestEngine_RecordAndHistory(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	h := &memHistory{}
	e := NewEngine(h, WithClock(func() time.Time { return fixed }))
	admin := entity.Identity{UserID: 1, Role: entity.RoleAdmin}

	require.NoError(t, e.Record(context.Background(), entity.EntityPurchaseOrder, 7, "Pending", "Assigned", domainwf.TriggerAssign, admin))
	require.NoError(t, e.Record(context.Background(), entity.EntityInvoice, 7, "", "Pending", domainwf.TriggerInvoice, admin))

	rows, err := e.History(context.Background(), entity.EntityPurchaseOrder, 7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Pending", rows[0].PreviousStatus)
	assert.Equal(t, "Assigned", rows[0].NewStatus)
	assert.Equal(t, "ASSIGN", rows[0].Trigger)
	assert.Equal(t, entity.RoleAdmin, rows[0].ActorRole)
	assert.Equal(t, fixed, rows[0].OccurredAt)

	h.createErr = errors.New("disk full")
	err = e.Record(context.Background(), entity.EntityPurchaseOrder, 7, "Assigned", "Accepted", domainwf.TriggerAccept, admin)
	assert.ErrorContains(t, err, "disk full")
}

type recordingTx struct {
	calls      int
	rolledBack bool
}

func (r *recordingTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	if err := fn(ctx); err != nil {
		r.rolledBack = true
		return err
	}
	return nil
}

func TestUnitOfWork_Sequential(t *testing.T) {
	var ran []string
	step := func(name string, err error) Step {
		return Step{Name: name, Run: func(ctx context.Context) error {
			ran = append(ran, name)
			return err
		}}
	}
	boom := errors.New("write failed")

	t.Run("all steps succeed", func(t *testing.T) {
		ran = nil
		err := NewUnitOfWork().Execute(context.Background(), "assign", entity.EntityPurchaseOrder, 1,
			step("update_po", nil), step("create_request", nil))
		require.NoError(t, err)
		assert.Equal(t, []string{"update_po", "create_request"}, ran)
	})

	t.Run("first step fails cleanly", func(t *testing.T) {
		ran = nil
		err := NewUnitOfWork().Execute(context.Background(), "assign", entity.EntityPurchaseOrder, 1,
			step("update_po", boom), step("create_request", nil))
		require.ErrorIs(t, err, boom)
		var pf *PartialFailureError
		assert.False(t, errors.As(err, &pf))
		assert.Equal(t, []string{"update_po"}, ran)
	})

	t.Run("second step fails partially", func(t *testing.T) {
		ran = nil
		err := NewUnitOfWork().Execute(context.Background(), "assign", entity.EntityPurchaseOrder, 1,
			step("update_po", nil), step("create_request", boom), step("never", nil))

		var pf *PartialFailureError
		require.True(t, errors.As(err, &pf))
		assert.Equal(t, "assign", pf.Operation)
		assert.Equal(t, []string{"update_po"}, pf.Completed)
		assert.Equal(t, "create_request", pf.Failed)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"update_po", "create_request"}, ran)
	})

	t.Run("cancellation aborts pending steps", func(t *testing.T) {
		ran = nil
		ctx, cancel := context.WithCancel(context.Background())
		cancelling := Step{Name: "update_po", Run: func(ctx context.Context) error {
			ran = append(ran, "update_po")
			cancel()
			return nil
		}}

		err := NewUnitOfWork().Execute(ctx, "assign", entity.EntityPurchaseOrder, 1,
			cancelling, step("create_request", nil))

		var pf *PartialFailureError
		require.True(t, errors.As(err, &pf))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, []string{"update_po"}, ran)
	})
}

func TestUnitOfWork_Atomic(t *testing.T) {
	tx := &recordingTx{}
	u := NewUnitOfWork(WithAtomicWrites(tx))
	boom := errors.New("write failed")

	assert.True(t, u.Atomic())

	err := u.Execute(context.Background(), "forward", entity.EntityInvoice, 2,
		Step{Name: "approve", Run: func(ctx context.Context) error { return nil }},
		Step{Name: "create_client_invoice", Run: func(ctx context.Context) error { return boom }},
	)

	require.ErrorIs(t, err, boom)
	var pf *PartialFailureError
	assert.False(t, errors.As(err, &pf))
	assert.Equal(t, 1, tx.calls)
	assert.True(t, tx.rolledBack)
}
