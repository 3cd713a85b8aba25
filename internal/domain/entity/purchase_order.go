package entity

import "time"

// PurchaseOrder represents a client's request for a training engagement
type PurchaseOrder struct {
	ID                  int64     `json:"id"`
	ClientID            int64     `json:"client_id"`
	ClientName          string    `json:"client_name"`
	CompanyName         string    `json:"company_name"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone"`
	TrainingRequirement string    `json:"training_requirement"`
	Technology          string    `json:"technology"`
	Duration            string    `json:"duration"`
	ExpectedStartDate   string    `json:"expected_start_date"`
	Budget              float64   `json:"budget"`
	Status              POStatus  `json:"status"`
	AssignedTrainerID   *int64    `json:"assigned_trainer_id,omitempty"`
	AssignedTrainerName *string   `json:"assigned_trainer_name,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// IsAssignmentConsistent checks that a trainer is assigned exactly when the status requires one
func (po *PurchaseOrder) IsAssignmentConsistent() bool {
	return (po.AssignedTrainerID != nil) == po.Status.HasAssignedTrainer()
}

// PurchaseOrderPatch carries the fields a workflow step may change on a PO.
// Nil fields are left untouched.
type PurchaseOrderPatch struct {
	Status              *POStatus
	AssignedTrainerID   *int64
	AssignedTrainerName *string
}
