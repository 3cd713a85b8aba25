package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/domain/entity"
)

// RecentLimit is the number of newest items shown on a dashboard
const RecentLimit = 5

// Dashboard is the role-specific summary shown after login.
// Only the counters relevant to the caller's role are populated.
type Dashboard struct {
	Role entity.Role `json:"role"`

	TotalPurchaseOrders    int `json:"total_purchase_orders,omitempty"`
	PendingPurchaseOrders  int `json:"pending_purchase_orders,omitempty"`
	AcceptedPurchaseOrders int `json:"accepted_purchase_orders,omitempty"`

	SentRequests     int `json:"sent_requests,omitempty"`
	AcceptedRequests int `json:"accepted_requests,omitempty"`
	RejectedRequests int `json:"rejected_requests,omitempty"`

	RecentPurchaseOrders []*entity.PurchaseOrder   `json:"recent_purchase_orders,omitempty"`
	RecentRequests       []*entity.TrainingRequest `json:"recent_requests,omitempty"`
}

// InvoiceTotals sums the invoices visible to the caller
type InvoiceTotals struct {
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// DashboardService derives read-only summaries from the entity store
type DashboardService interface {
	Summary(ctx context.Context, identity entity.Identity) (*Dashboard, error)
	InvoiceTotals(ctx context.Context, identity entity.Identity, status entity.InvoiceStatus) (*InvoiceTotals, error)
}

type dashboardServiceImpl struct {
	poRepo      port.PurchaseOrderRepository
	requestRepo port.TrainingRequestRepository
	trainerRepo port.TrainerRepository
	invoices    InvoiceService
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	poRepo port.PurchaseOrderRepository,
	requestRepo port.TrainingRequestRepository,
	trainerRepo port.TrainerRepository,
	invoices InvoiceService,
) DashboardService {
	return &dashboardServiceImpl{
		poRepo:      poRepo,
		requestRepo: requestRepo,
		trainerRepo: trainerRepo,
		invoices:    invoices,
	}
}

func (s *dashboardServiceImpl) Summary(ctx context.Context, identity entity.Identity) (*Dashboard, error) {
	d := &Dashboard{Role: identity.Role}

	switch identity.Role {
	case entity.RoleAdmin:
		pos, err := s.poRepo.List(ctx, port.Filter{})
		if err != nil {
			return nil, fmt.Errorf("list purchase orders: %w", err)
		}
		reqs, err := s.requestRepo.List(ctx, port.Filter{port.FieldStatus: entity.RequestStatusSent})
		if err != nil {
			return nil, fmt.Errorf("list requests: %w", err)
		}
		d.TotalPurchaseOrders = len(pos)
		d.PendingPurchaseOrders = countPOs(pos, entity.POStatusPending)
		d.AcceptedPurchaseOrders = countPOs(pos, entity.POStatusAccepted)
		d.SentRequests = len(reqs)
		d.RecentPurchaseOrders = newest(pos, RecentLimit)

	case entity.RoleClient:
		pos, err := s.poRepo.List(ctx, port.Filter{port.FieldClientID: identity.UserID})
		if err != nil {
			return nil, fmt.Errorf("list purchase orders of client %d: %w", identity.UserID, err)
		}
		d.TotalPurchaseOrders = len(pos)
		d.PendingPurchaseOrders = countPOs(pos, entity.POStatusPending, entity.POStatusAssigned)
		d.AcceptedPurchaseOrders = countPOs(pos, entity.POStatusAccepted)
		d.RecentPurchaseOrders = newest(pos, RecentLimit)

	case entity.RoleTrainer:
		trainer, err := callerTrainer(ctx, s.trainerRepo, identity)
		if err != nil {
			return nil, err
		}
		reqs, err := s.requestRepo.List(ctx, port.Filter{port.FieldTrainerID: trainer.ID})
		if err != nil {
			return nil, fmt.Errorf("list requests of trainer %d: %w", trainer.ID, err)
		}
		for _, r := range reqs {
			switch r.Status {
			case entity.RequestStatusSent:
				d.SentRequests++
			case entity.RequestStatusAccepted:
				d.AcceptedRequests++
			case entity.RequestStatusRejected:
				d.RejectedRequests++
			}
		}
		d.RecentRequests = newest(reqs, RecentLimit)

	default:
		return nil, requireRole(identity, entity.RoleAdmin, entity.RoleClient, entity.RoleTrainer)
	}

	return d, nil
}

func (s *dashboardServiceImpl) InvoiceTotals(ctx context.Context, identity entity.Identity, status entity.InvoiceStatus) (*InvoiceTotals, error) {
	invoices, err := s.invoices.List(ctx, identity, InvoiceQuery{Status: status})
	if err != nil {
		return nil, err
	}

	sum := decimal.Zero
	for _, inv := range invoices {
		sum = sum.Add(decimal.NewFromFloat(inv.TotalAmount))
	}
	return &InvoiceTotals{
		Count:       len(invoices),
		TotalAmount: sum.Round(entity.AmountScale).InexactFloat64(),
	}, nil
}

func countPOs(pos []*entity.PurchaseOrder, statuses ...entity.POStatus) int {
	n := 0
	for _, po := range pos {
		for _, st := range statuses {
			if po.Status == st {
				n++
				break
			}
		}
	}
	return n
}

// newest returns up to limit items from an insertion-ordered slice, newest first
func newest[T any](items []T, limit int) []T {
	if len(items) < limit {
		limit = len(items)
	}
	out := make([]T, 0, limit)
	for i := len(items) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, items[i])
	}
	return out
}
