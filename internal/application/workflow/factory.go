package workflow

import (
	"fmt"

	"github.com/garyjia/training-procurement/internal/domain/entity"
	domainwf "github.com/garyjia/training-procurement/internal/domain/workflow"
)

// AssignmentPolicy decides whether a purchase order can be handed to another trainer
type AssignmentPolicy string

const (
	// PolicySingleActive assigns only from Pending; a PO never has two trainers
	PolicySingleActive AssignmentPolicy = "single_active"
	// PolicyAllowReassign also permits Rejected -> Assigned
	PolicyAllowReassign AssignmentPolicy = "allow_reassign"
)

// IsValid returns true for known policies
func (p AssignmentPolicy) IsValid() bool {
	return p == PolicySingleActive || p == PolicyAllowReassign
}

// BuildPurchaseOrderStateMachine creates the PO lifecycle machine:
// Pending -> Assigned -> {Accepted | Rejected}, Accepted -> Completed -> Invoiced
func BuildPurchaseOrderStateMachine(initial entity.POStatus, policy AssignmentPolicy) (domainwf.StateMachine[entity.POStatus], error) {
	b := domainwf.NewBuilder[entity.POStatus]()

	b.Configure(entity.POStatusPending).
		Permit(domainwf.TriggerAssign, entity.POStatusAssigned)

	b.Configure(entity.POStatusAssigned).
		Permit(domainwf.TriggerAccept, entity.POStatusAccepted).
		Permit(domainwf.TriggerReject, entity.POStatusRejected)

	b.Configure(entity.POStatusAccepted).
		Permit(domainwf.TriggerComplete, entity.POStatusCompleted)

	b.Configure(entity.POStatusCompleted).
		Permit(domainwf.TriggerInvoice, entity.POStatusInvoiced)

	if policy == PolicyAllowReassign {
		b.Configure(entity.POStatusRejected).
			Permit(domainwf.TriggerAssign, entity.POStatusAssigned)
	}

	// Invoiced is terminal; Rejected is terminal under single_active

	return b.Build(initial)
}

// BuildTrainingRequestStateMachine creates the request lifecycle machine:
// Sent -> {Accepted | Rejected}, Accepted -> Completed
func BuildTrainingRequestStateMachine(initial entity.RequestStatus) (domainwf.StateMachine[entity.RequestStatus], error) {
	b := domainwf.NewBuilder[entity.RequestStatus]()

	b.Configure(entity.RequestStatusSent).
		Permit(domainwf.TriggerAccept, entity.RequestStatusAccepted).
		Permit(domainwf.TriggerReject, entity.RequestStatusRejected)

	b.Configure(entity.RequestStatusAccepted).
		Permit(domainwf.TriggerComplete, entity.RequestStatusCompleted)

	return b.Build(initial)
}

// BuildInvoiceStateMachine creates the machine for one invoice type.
// Trainer invoices are approved before payment unless directPay is set.
// Client invoices are issued by the admin already reviewed, so they can be
// paid from Pending.
func BuildInvoiceStateMachine(invoiceType entity.InvoiceType, initial entity.InvoiceStatus, directPay bool) (domainwf.StateMachine[entity.InvoiceStatus], error) {
	b := domainwf.NewBuilder[entity.InvoiceStatus]()

	switch invoiceType {
	case entity.InvoiceTypeTrainerToAdmin:
		pending := b.Configure(entity.InvoiceStatusPending).
			Permit(domainwf.TriggerApprove, entity.InvoiceStatusApproved)
		if directPay {
			pending.Permit(domainwf.TriggerPay, entity.InvoiceStatusPaid)
		}
		b.Configure(entity.InvoiceStatusApproved).
			Permit(domainwf.TriggerPay, entity.InvoiceStatusPaid)
	case entity.InvoiceTypeAdminToClient:
		b.Configure(entity.InvoiceStatusPending).
			Permit(domainwf.TriggerPay, entity.InvoiceStatusPaid)
		b.Configure(entity.InvoiceStatusApproved).
			Permit(domainwf.TriggerPay, entity.InvoiceStatusPaid)
	default:
		return nil, fmt.Errorf("%w: invoice type %q", domainwf.ErrInvalidState, invoiceType)
	}

	return b.Build(initial)
}
