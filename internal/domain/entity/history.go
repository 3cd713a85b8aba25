package entity

import "time"

// StatusTransition is the audit trail row written for every workflow status change
type StatusTransition struct {
	ID             int64     `json:"id"`
	EntityType     string    `json:"entity_type"`
	EntityID       int64     `json:"entity_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Trigger        string    `json:"trigger"`
	ActorID        int64     `json:"actor_id"`
	ActorRole      Role      `json:"actor_role"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Inconsistency is a cross-entity mismatch found by reconciliation
type Inconsistency struct {
	Kind            string `json:"kind"`
	PurchaseOrderID int64  `json:"purchase_order_id"`
	RequestID       int64  `json:"request_id,omitempty"`
	InvoiceID       int64  `json:"invoice_id,omitempty"`
	Detail          string `json:"detail"`
}

// Inconsistency kinds
const (
	InconsistencyAssignedWithoutRequest   = "ASSIGNED_WITHOUT_REQUEST"
	InconsistencyRequestStatusMismatch    = "REQUEST_STATUS_MISMATCH"
	InconsistencyApprovedWithoutForward   = "APPROVED_WITHOUT_CLIENT_INVOICE"
	InconsistencyInvoicedWithoutInvoice   = "INVOICED_WITHOUT_TRAINER_INVOICE"
	InconsistencyAssignmentFieldsMismatch = "ASSIGNMENT_FIELDS_MISMATCH"
)
