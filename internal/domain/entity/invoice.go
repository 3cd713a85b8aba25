package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is one hop of the two-step billing chain.
// Trainer invoices bill the admin for the training amount; client invoices
// are derived from an approved trainer invoice plus the admin's commission.
type Invoice struct {
	ID                int64         `json:"id"`
	Type              InvoiceType   `json:"type"`
	PurchaseOrderID   int64         `json:"purchase_order_id"`
	TrainingRequestID int64         `json:"training_request_id"`
	Technology        string        `json:"technology"`
	Duration          string        `json:"duration"`
	TrainerID         *int64        `json:"trainer_id,omitempty"`
	TrainerName       string        `json:"trainer_name,omitempty"`
	ClientID          *int64        `json:"client_id,omitempty"`
	ClientName        string        `json:"client_name,omitempty"`
	TrainingAmount    float64       `json:"training_amount"`
	CommissionPercent *float64      `json:"commission_percent,omitempty"`
	CommissionAmount  *float64      `json:"commission_amount,omitempty"`
	TotalAmount       float64       `json:"total_amount"`
	Status            InvoiceStatus `json:"status"`
	CreatedAt         time.Time     `json:"created_at"`
	ApprovedAt        *time.Time    `json:"approved_at,omitempty"`
	PaidAt            *time.Time    `json:"paid_at,omitempty"`
}

// InvoicePatch carries the fields a workflow step may change on an invoice
type InvoicePatch struct {
	Status     *InvoiceStatus
	ApprovedAt *time.Time
	PaidAt     *time.Time
}

// AmountScale is the number of decimal places kept on monetary amounts
const AmountScale = 2

// Commission is the result of applying a commission percentage to a training amount
type Commission struct {
	Percent float64
	Amount  float64
	Total   float64
}

// ComputeCommission derives the admin-to-client amounts from a trainer amount.
// The commission is rounded half away from zero to AmountScale decimals, so
// integer inputs never pick up float artifacts.
func ComputeCommission(trainingAmount, percent float64) Commission {
	base := decimal.NewFromFloat(trainingAmount)
	commission := base.Mul(decimal.NewFromFloat(percent)).Div(decimal.NewFromInt(100)).Round(AmountScale)
	total := base.Add(commission)

	return Commission{
		Percent: percent,
		Amount:  commission.InexactFloat64(),
		Total:   total.InexactFloat64(),
	}
}
