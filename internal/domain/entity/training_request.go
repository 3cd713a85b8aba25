package entity

import "time"

// TrainingRequest represents one trainer's assignment to a purchase order
type TrainingRequest struct {
	ID              int64         `json:"id"`
	PurchaseOrderID int64         `json:"purchase_order_id"`
	TrainerID       int64         `json:"trainer_id"`
	TrainerName     string        `json:"trainer_name"`
	ClientName      string        `json:"client_name"`
	Technology      string        `json:"technology"`
	Duration        string        `json:"duration"`
	Budget          float64       `json:"budget"`
	Status          RequestStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
}

// TrainingRequestPatch carries the fields a workflow step may change on a request
type TrainingRequestPatch struct {
	Status      *RequestStatus
	CompletedAt *time.Time
}
