package entity

// POStatus is the lifecycle status of a PurchaseOrder
type POStatus string

const (
	POStatusPending   POStatus = "Pending"
	POStatusAssigned  POStatus = "Assigned"
	POStatusAccepted  POStatus = "Accepted"
	POStatusRejected  POStatus = "Rejected"
	POStatusCompleted POStatus = "Completed"
	POStatusInvoiced  POStatus = "Invoiced"
)

var validPOStatuses = map[POStatus]bool{
	POStatusPending:   true,
	POStatusAssigned:  true,
	POStatusAccepted:  true,
	POStatusRejected:  true,
	POStatusCompleted: true,
	POStatusInvoiced:  true,
}

// IsValid returns true if the status is a known PO status
func (s POStatus) IsValid() bool {
	return validPOStatuses[s]
}

// String returns the string representation of the status
func (s POStatus) String() string {
	return string(s)
}

// HasAssignedTrainer reports whether a PO in this status must carry an assigned trainer
func (s POStatus) HasAssignedTrainer() bool {
	return s.IsValid() && s != POStatusPending
}

// RequestStatus is the lifecycle status of a TrainingRequest
type RequestStatus string

const (
	RequestStatusSent      RequestStatus = "Sent"
	RequestStatusAccepted  RequestStatus = "Accepted"
	RequestStatusRejected  RequestStatus = "Rejected"
	RequestStatusCompleted RequestStatus = "Completed"
)

var validRequestStatuses = map[RequestStatus]bool{
	RequestStatusSent:      true,
	RequestStatusAccepted:  true,
	RequestStatusRejected:  true,
	RequestStatusCompleted: true,
}

// IsValid returns true if the status is a known request status
func (s RequestStatus) IsValid() bool {
	return validRequestStatuses[s]
}

// String returns the string representation of the status
func (s RequestStatus) String() string {
	return string(s)
}

// IsActive reports whether the request still occupies its purchase order
func (s RequestStatus) IsActive() bool {
	return s == RequestStatusSent || s == RequestStatusAccepted || s == RequestStatusCompleted
}

// InvoiceStatus is the lifecycle status of an Invoice
type InvoiceStatus string

const (
	InvoiceStatusPending  InvoiceStatus = "Pending"
	InvoiceStatusApproved InvoiceStatus = "Approved"
	InvoiceStatusPaid     InvoiceStatus = "Paid"
)

var validInvoiceStatuses = map[InvoiceStatus]bool{
	InvoiceStatusPending:  true,
	InvoiceStatusApproved: true,
	InvoiceStatusPaid:     true,
}

// IsValid returns true if the status is a known invoice status
func (s InvoiceStatus) IsValid() bool {
	return validInvoiceStatuses[s]
}

// String returns the string representation of the status
func (s InvoiceStatus) String() string {
	return string(s)
}

// InvoiceType identifies which hop of the billing chain an invoice belongs to
type InvoiceType string

const (
	InvoiceTypeTrainerToAdmin InvoiceType = "trainer-to-admin"
	InvoiceTypeAdminToClient  InvoiceType = "admin-to-client"
)

// IsValid returns true if the type is a known invoice type
func (t InvoiceType) IsValid() bool {
	return t == InvoiceTypeTrainerToAdmin || t == InvoiceTypeAdminToClient
}

// Role is the immutable role of a User
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTrainer Role = "trainer"
	RoleClient  Role = "client"
)

// IsValid returns true if the role is known
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleTrainer || r == RoleClient
}

// Availability of a trainer
type Availability string

const (
	AvailabilityAvailable Availability = "Available"
	AvailabilityBusy      Availability = "Busy"
	AvailabilityOnLeave   Availability = "On Leave"
)

// IsValid returns true if the availability value is known
func (a Availability) IsValid() bool {
	return a == AvailabilityAvailable || a == AvailabilityBusy || a == AvailabilityOnLeave
}

// Entity type names used by the status history
const (
	EntityPurchaseOrder   = "purchase_order"
	EntityTrainingRequest = "training_request"
	EntityInvoice         = "invoice"
)
