package event

// Type identifies the type of domain event
type Type string

const (
	TypePurchaseOrderSubmitted Type = "purchase_order.submitted"
	TypeTrainerAssigned        Type = "trainer.assigned"
	TypeRequestResponded       Type = "request.responded"
	TypeRequestCompleted       Type = "request.completed"
	TypeInvoiceFiled           Type = "invoice.filed"
	TypeInvoiceForwarded       Type = "invoice.forwarded"
	TypeInvoicePaid            Type = "invoice.paid"
	TypePartialFailure         Type = "partial_failure.detected"
	TypeInconsistencyDetected  Type = "inconsistency.detected"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypePurchaseOrderSubmitted,
		TypeTrainerAssigned,
		TypeRequestResponded,
		TypeRequestCompleted,
		TypeInvoiceFiled,
		TypeInvoiceForwarded,
		TypeInvoicePaid,
		TypePartialFailure,
		TypeInconsistencyDetected:
		return true
	default:
		return false
	}
}

// IsOperational reports whether the event should reach an operator rather than a user
func (t Type) IsOperational() bool {
	return t == TypePartialFailure || t == TypeInconsistencyDetected
}
