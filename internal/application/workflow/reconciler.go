package workflow

import (
	"context"
	"fmt"

	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/domain/entity"
)

// Reconciler cross-checks purchase orders, requests and invoices.
// It only reports; nothing is written back.
type Reconciler struct {
	poRepo      port.PurchaseOrderRepository
	requestRepo port.TrainingRequestRepository
	invoiceRepo port.InvoiceRepository
}

// NewReconciler creates a reconciler over the three workflow repositories
func NewReconciler(poRepo port.PurchaseOrderRepository, requestRepo port.TrainingRequestRepository, invoiceRepo port.InvoiceRepository) *Reconciler {
	return &Reconciler{poRepo: poRepo, requestRepo: requestRepo, invoiceRepo: invoiceRepo}
}

// Scan runs one reconciliation pass and returns every mismatch found
func (r *Reconciler) Scan(ctx context.Context) ([]entity.Inconsistency, error) {
	pos, err := r.poRepo.List(ctx, port.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}
	requests, err := r.requestRepo.List(ctx, port.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list training requests: %w", err)
	}
	invoices, err := r.invoiceRepo.List(ctx, port.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	// Only the newest request speaks for a PO; older ones may be rejected leftovers of a reassignment.
	latest := make(map[int64]*entity.TrainingRequest)
	for _, req := range requests {
		if cur, ok := latest[req.PurchaseOrderID]; !ok || req.ID > cur.ID {
			latest[req.PurchaseOrderID] = req
		}
	}

	trainerInvoiced := make(map[int64]bool)
	clientInvoiced := make(map[int64]bool)
	for _, inv := range invoices {
		switch inv.Type {
		case entity.InvoiceTypeTrainerToAdmin:
			trainerInvoiced[inv.PurchaseOrderID] = true
		case entity.InvoiceTypeAdminToClient:
			clientInvoiced[inv.TrainingRequestID] = true
		}
	}

	var found []entity.Inconsistency
	for _, po := range pos {
		req := latest[po.ID]

		if !po.IsAssignmentConsistent() {
			found = append(found, entity.Inconsistency{
				Kind:            entity.InconsistencyAssignmentFieldsMismatch,
				PurchaseOrderID: po.ID,
				Detail:          fmt.Sprintf("status %s with assigned trainer set=%t", po.Status, po.AssignedTrainerID != nil),
			})
		}

		if po.Status == entity.POStatusAssigned && (req == nil || req.Status != entity.RequestStatusSent) {
			found = append(found, entity.Inconsistency{
				Kind:            entity.InconsistencyAssignedWithoutRequest,
				PurchaseOrderID: po.ID,
				Detail:          "purchase order is Assigned but has no Sent request",
			})
		}

		if req != nil && !requestMatchesPO(req.Status, po.Status) {
			found = append(found, entity.Inconsistency{
				Kind:            entity.InconsistencyRequestStatusMismatch,
				PurchaseOrderID: po.ID,
				RequestID:       req.ID,
				Detail:          fmt.Sprintf("request is %s but purchase order is %s", req.Status, po.Status),
			})
		}

		if po.Status == entity.POStatusInvoiced && !trainerInvoiced[po.ID] {
			found = append(found, entity.Inconsistency{
				Kind:            entity.InconsistencyInvoicedWithoutInvoice,
				PurchaseOrderID: po.ID,
				Detail:          "purchase order is Invoiced but has no trainer invoice",
			})
		}
	}

	for _, inv := range invoices {
		if inv.Type != entity.InvoiceTypeTrainerToAdmin || inv.ApprovedAt == nil {
			continue
		}
		if !clientInvoiced[inv.TrainingRequestID] {
			found = append(found, entity.Inconsistency{
				Kind:            entity.InconsistencyApprovedWithoutForward,
				PurchaseOrderID: inv.PurchaseOrderID,
				RequestID:       inv.TrainingRequestID,
				InvoiceID:       inv.ID,
				Detail:          "trainer invoice approved but no client invoice exists",
			})
		}
	}

	return found, nil
}

// requestMatchesPO reports whether a PO status agrees with its newest request.
// A Sent request is covered by the Assigned check.
func requestMatchesPO(req entity.RequestStatus, po entity.POStatus) bool {
	switch req {
	case entity.RequestStatusAccepted:
		return po == entity.POStatusAccepted
	case entity.RequestStatusRejected:
		return po == entity.POStatusRejected
	case entity.RequestStatusCompleted:
		return po == entity.POStatusCompleted || po == entity.POStatusInvoiced
	default:
		return true
	}
}
