package workflow

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/domain/entity"
)

type listOnly[T any] struct {
	rows []*T
	err  error
}

func (l *listOnly[T]) Create(ctx context.Context, row *T) error          { return errors.New("read only") }
func (l *listOnly[T]) GetByID(ctx context.Context, id int64) (*T, error) { return nil, nil }
func (l *listOnly[T]) List(ctx context.Context, filter port.Filter) ([]*T, error) {
	return l.rows, l.err
}

type poRows struct{ listOnly[entity.PurchaseOrder] }

func (poRows) Patch(ctx context.Context, id int64, patch entity.PurchaseOrderPatch) error {
	return errors.New("read only")
}

type requestRows struct{ listOnly[entity.TrainingRequest] }

func (requestRows) Patch(ctx context.Context, id int64, patch entity.TrainingRequestPatch) error {
	return errors.New("read only")
}

type invoiceRows struct{ listOnly[entity.Invoice] }

func (invoiceRows) Patch(ctx context.Context, id int64, patch entity.InvoicePatch) error {
	return errors.New("read only")
}

func trainerID(id int64) *int64 { return &id }

func kinds(found []entity.Inconsistency) []string {
	out := make([]string, 0, len(found))
	for _, f := range found {
		out = append(out, f.Kind)
	}
	sort.Strings(out)
	return out
}

func TestReconciler_Consistent(t *testing.T) {
	approved := time.Now()
	pos := &poRows{listOnly[entity.PurchaseOrder]{rows: []*entity.PurchaseOrder{
		{ID: 1, Status: entity.POStatusPending},
		{ID: 2, Status: entity.POStatusAssigned, AssignedTrainerID: trainerID(1)},
		{ID: 3, Status: entity.POStatusInvoiced, AssignedTrainerID: trainerID(1)},
		{ID: 4, Status: entity.POStatusAssigned, AssignedTrainerID: trainerID(2)},
	}}}
	reqs := &requestRows{listOnly[entity.TrainingRequest]{rows: []*entity.TrainingRequest{
		{ID: 10, PurchaseOrderID: 2, Status: entity.RequestStatusSent},
		{ID: 11, PurchaseOrderID: 3, Status: entity.RequestStatusCompleted},
		{ID: 12, PurchaseOrderID: 4, Status: entity.RequestStatusRejected},
		{ID: 13, PurchaseOrderID: 4, Status: entity.RequestStatusSent},
	}}}
	invs := &invoiceRows{listOnly[entity.Invoice]{rows: []*entity.Invoice{
		{ID: 20, Type: entity.InvoiceTypeTrainerToAdmin, PurchaseOrderID: 3, TrainingRequestID: 11, ApprovedAt: &approved},
		{ID: 21, Type: entity.InvoiceTypeAdminToClient, PurchaseOrderID: 3, TrainingRequestID: 11},
	}}}

	found, err := NewReconciler(pos, reqs, invs).Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestReconciler_DetectsEveryKind(t *testing.T) {
	approved := time.Now()
	pos := &poRows{listOnly[entity.PurchaseOrder]{rows: []*entity.PurchaseOrder{
		{ID: 1, Status: entity.POStatusAssigned, AssignedTrainerID: trainerID(1)},
		{ID: 2, Status: entity.POStatusAssigned, AssignedTrainerID: trainerID(1)},
		{ID: 3, Status: entity.POStatusInvoiced, AssignedTrainerID: trainerID(1)},
		{ID: 4, Status: entity.POStatusPending, AssignedTrainerID: trainerID(1)},
		{ID: 5, Status: entity.POStatusCompleted, AssignedTrainerID: trainerID(1)},
	}}}
	reqs := &requestRows{listOnly[entity.TrainingRequest]{rows: []*entity.TrainingRequest{
		{ID: 10, PurchaseOrderID: 2, Status: entity.RequestStatusAccepted},
		{ID: 11, PurchaseOrderID: 3, Status: entity.RequestStatusCompleted},
		{ID: 12, PurchaseOrderID: 5, Status: entity.RequestStatusCompleted},
	}}}
	invs := &invoiceRows{listOnly[entity.Invoice]{rows: []*entity.Invoice{
		{ID: 20, Type: entity.InvoiceTypeTrainerToAdmin, PurchaseOrderID: 5, TrainingRequestID: 12, ApprovedAt: &approved},
	}}}

	found, err := NewReconciler(pos, reqs, invs).Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		entity.InconsistencyApprovedWithoutForward,
		entity.InconsistencyAssignedWithoutRequest,
		entity.InconsistencyAssignedWithoutRequest,
		entity.InconsistencyAssignmentFieldsMismatch,
		entity.InconsistencyInvoicedWithoutInvoice,
		entity.InconsistencyRequestStatusMismatch,
	}, kinds(found))

	for _, f := range found {
		if f.Kind == entity.InconsistencyApprovedWithoutForward {
			assert.Equal(t, int64(20), f.InvoiceID)
			assert.Equal(t, int64(5), f.PurchaseOrderID)
		}
		if f.Kind == entity.InconsistencyRequestStatusMismatch {
			assert.Equal(t, int64(10), f.RequestID)
		}
	}
}

func TestReconciler_ListError(t *testing.T) {
	pos := &poRows{listOnly[entity.PurchaseOrder]{}}
	reqs := &requestRows{listOnly[entity.TrainingRequest]{err: errors.New("disk I/O error")}}
	invs := &invoiceRows{listOnly[entity.Invoice]{}}

	_, err := NewReconciler(pos, reqs, invs).Scan(context.Background())
	assert.ErrorContains(t, err, "disk I/O error")
}
