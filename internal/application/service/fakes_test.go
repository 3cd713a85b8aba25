package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/domain/entity"
)

// memStore is an in-memory entity store behind all repository ports.
// failOn injects an error into a named write, e.g. "requests.create".
type memStore struct {
	mu       sync.Mutex
	pos      []*entity.PurchaseOrder
	requests []*entity.TrainingRequest
	invoices []*entity.Invoice
	trainers []*entity.Trainer
	users    []*entity.User
	history  []*entity.StatusTransition
	failOn   map[string]error
	writes   []string
}

func newMemStore() *memStore {
	return &memStore{failOn: map[string]error{}}
}

func (m *memStore) hit(op string) error {
	m.writes = append(m.writes, op)
	return m.failOn[op]
}

func matchInt(filter port.Filter, field port.Field, v int64) bool {
	want, ok := filter[field]
	if !ok {
		return true
	}
	return want == v
}

func matchIntPtr(filter port.Filter, field port.Field, v *int64) bool {
	want, ok := filter[field]
	if !ok {
		return true
	}
	return v != nil && want == *v
}

func matchString(filter port.Filter, field port.Field, v string) bool {
	want, ok := filter[field]
	if !ok {
		return true
	}
	return fmt.Sprint(want) == v
}

// purchase orders

type memPORepo struct{ *memStore }

func (r memPORepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("pos.create"); err != nil {
		return err
	}
	po.ID = int64(len(r.pos) + 1)
	po.CreatedAt = time.Now()
	cp := *po
	r.pos = append(r.pos, &cp)
	return nil
}

func (r memPORepo) GetByID(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, po := range r.pos {
		if po.ID == id {
			cp := *po
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memPORepo) List(ctx context.Context, filter port.Filter) ([]*entity.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entity.PurchaseOrder{}
	for _, po := range r.pos {
		if matchInt(filter, port.FieldClientID, po.ClientID) &&
			matchIntPtr(filter, port.FieldAssignedTrainerID, po.AssignedTrainerID) &&
			matchString(filter, port.FieldStatus, po.Status.String()) {
			cp := *po
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memPORepo) Patch(ctx context.Context, id int64, patch entity.PurchaseOrderPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("pos.patch"); err != nil {
		return err
	}
	for _, po := range r.pos {
		if po.ID == id {
			if patch.Status != nil {
				po.Status = *patch.Status
			}
			if patch.AssignedTrainerID != nil {
				po.AssignedTrainerID = patch.AssignedTrainerID
			}
			if patch.AssignedTrainerName != nil {
				po.AssignedTrainerName = patch.AssignedTrainerName
			}
			return nil
		}
	}
	return errors.New("no such purchase order")
}

// training requests

type memRequestRepo struct{ *memStore }

func (r memRequestRepo) Create(ctx context.Context, req *entity.TrainingRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("requests.create"); err != nil {
		return err
	}
	req.ID = int64(len(r.requests) + 1)
	req.CreatedAt = time.Now()
	cp := *req
	r.requests = append(r.requests, &cp)
	return nil
}

func (r memRequestRepo) GetByID(ctx context.Context, id int64) (*entity.TrainingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.ID == id {
			cp := *req
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memRequestRepo) List(ctx context.Context, filter port.Filter) ([]*entity.TrainingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entity.TrainingRequest{}
	for _, req := range r.requests {
		if matchInt(filter, port.FieldTrainerID, req.TrainerID) &&
			matchInt(filter, port.FieldPurchaseOrderID, req.PurchaseOrderID) &&
			matchString(filter, port.FieldStatus, req.Status.String()) {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memRequestRepo) Patch(ctx context.Context, id int64, patch entity.TrainingRequestPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("requests.patch"); err != nil {
		return err
	}
	for _, req := range r.requests {
		if req.ID == id {
			if patch.Status != nil {
				req.Status = *patch.Status
			}
			if patch.CompletedAt != nil {
				req.CompletedAt = patch.CompletedAt
			}
			return nil
		}
	}
	return errors.New("no such request")
}

// invoices

type memInvoiceRepo struct{ *memStore }

func (r memInvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("invoices.create"); err != nil {
		return err
	}
	inv.ID = int64(len(r.invoices) + 1)
	inv.CreatedAt = time.Now()
	cp := *inv
	r.invoices = append(r.invoices, &cp)
	return nil
}

func (r memInvoiceRepo) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.ID == id {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memInvoiceRepo) List(ctx context.Context, filter port.Filter) ([]*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entity.Invoice{}
	for _, inv := range r.invoices {
		if matchString(filter, port.FieldType, string(inv.Type)) &&
			matchIntPtr(filter, port.FieldTrainerID, inv.TrainerID) &&
			matchIntPtr(filter, port.FieldClientID, inv.ClientID) &&
			matchInt(filter, port.FieldTrainingRequestID, inv.TrainingRequestID) &&
			matchString(filter, port.FieldStatus, inv.Status.String()) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memInvoiceRepo) Patch(ctx context.Context, id int64, patch entity.InvoicePatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("invoices.patch"); err != nil {
		return err
	}
	for _, inv := range r.invoices {
		if inv.ID == id {
			if patch.Status != nil {
				inv.Status = *patch.Status
			}
			if patch.ApprovedAt != nil {
				inv.ApprovedAt = patch.ApprovedAt
			}
			if patch.PaidAt != nil {
				inv.PaidAt = patch.PaidAt
			}
			return nil
		}
	}
	return errors.New("no such invoice")
}

// trainers

type memTrainerRepo struct{ *memStore }

func (r memTrainerRepo) Create(ctx context.Context, t *entity.Trainer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = int64(len(r.trainers) + 1)
	cp := *t
	r.trainers = append(r.trainers, &cp)
	return nil
}

func (r memTrainerRepo) GetByID(ctx context.Context, id int64) (*entity.Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.trainers {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memTrainerRepo) GetByUserID(ctx context.Context, userID int64) (*entity.Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.trainers {
		if t.UserID == userID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memTrainerRepo) List(ctx context.Context, filter port.Filter) ([]*entity.Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entity.Trainer{}
	for _, t := range r.trainers {
		if matchInt(filter, port.FieldUserID, t.UserID) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memTrainerRepo) Update(ctx context.Context, t *entity.Trainer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.trainers {
		if existing.ID == t.ID {
			cp := *t
			r.trainers[i] = &cp
			return nil
		}
	}
	return errors.New("no such trainer")
}

// users

type memUserRepo struct{ *memStore }

func (r memUserRepo) Create(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = int64(len(r.users) + 1)
	cp := *u
	r.users = append(r.users, &cp)
	return nil
}

func (r memUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memUserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// history

type memHistoryRepo struct{ *memStore }

func (r memHistoryRepo) Create(ctx context.Context, row *entity.StatusTransition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row.ID = int64(len(r.history) + 1)
	cp := *row
	r.history = append(r.history, &cp)
	return nil
}

func (r memHistoryRepo) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.StatusTransition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entity.StatusTransition{}
	for _, row := range r.history {
		if row.EntityType == entityType && row.EntityID == entityID {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

// nopLogger discards log output
type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// plainHasher stores passwords with a fixed prefix
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

// memSessions issues sequential tokens
type memSessions struct {
	mu     sync.Mutex
	tokens map[string]entity.Identity
}

func (s *memSessions) Issue(ctx context.Context, identity entity.Identity) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		s.tokens = map[string]entity.Identity{}
	}
	token := fmt.Sprintf("token-%d", len(s.tokens)+1)
	s.tokens[token] = identity
	return token, nil
}

func (s *memSessions) Resolve(ctx context.Context, token string) (entity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[token]
	if !ok {
		return entity.Identity{}, entity.ErrUnauthenticated
	}
	return id, nil
}

func (s *memSessions) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}
