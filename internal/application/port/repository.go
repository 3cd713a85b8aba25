package port

import (
	"context"
	"errors"

	"github.com/garyjia/training-procurement/internal/domain/entity"
)

// ErrUnknownFilterField is returned when a List filter names a field outside the whitelist
var ErrUnknownFilterField = errors.New("unknown filter field")

// Field names a top-level attribute that List may filter on
type Field string

const (
	FieldClientID          Field = "client_id"
	FieldTrainerID         Field = "trainer_id"
	FieldAssignedTrainerID Field = "assigned_trainer_id"
	FieldType              Field = "type"
	FieldUserID            Field = "user_id"
	FieldPurchaseOrderID   Field = "purchase_order_id"
	FieldTrainingRequestID Field = "training_request_id"
	FieldStatus            Field = "status"
)

// Filter is a conjunction of equality conditions. An empty filter matches everything.
type Filter map[Field]interface{}

// Where returns a copy of the filter with one more condition
func (f Filter) Where(field Field, value interface{}) Filter {
	out := make(Filter, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out[field] = value
	return out
}

// PurchaseOrderRepository defines persistence operations for PurchaseOrder.
// GetByID returns (nil, nil) when the record does not exist.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *entity.PurchaseOrder) error
	GetByID(ctx context.Context, id int64) (*entity.PurchaseOrder, error)
	List(ctx context.Context, filter Filter) ([]*entity.PurchaseOrder, error)
	Patch(ctx context.Context, id int64, patch entity.PurchaseOrderPatch) error
}

// TrainingRequestRepository defines persistence operations for TrainingRequest
type TrainingRequestRepository interface {
	Create(ctx context.Context, req *entity.TrainingRequest) error
	GetByID(ctx context.Context, id int64) (*entity.TrainingRequest, error)
	List(ctx context.Context, filter Filter) ([]*entity.TrainingRequest, error)
	Patch(ctx context.Context, id int64, patch entity.TrainingRequestPatch) error
}

// InvoiceRepository defines persistence operations for both invoice types
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id int64) (*entity.Invoice, error)
	List(ctx context.Context, filter Filter) ([]*entity.Invoice, error)
	Patch(ctx context.Context, id int64, patch entity.InvoicePatch) error
}

// TrainerRepository defines persistence operations for trainer profiles
type TrainerRepository interface {
	Create(ctx context.Context, trainer *entity.Trainer) error
	GetByID(ctx context.Context, id int64) (*entity.Trainer, error)
	GetByUserID(ctx context.Context, userID int64) (*entity.Trainer, error)
	List(ctx context.Context, filter Filter) ([]*entity.Trainer, error)
	Update(ctx context.Context, trainer *entity.Trainer) error
}

// UserRepository defines persistence operations for credential records
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
}

// StatusTransitionRepository stores the append-only status history
type StatusTransitionRepository interface {
	Create(ctx context.Context, transition *entity.StatusTransition) error
	ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.StatusTransition, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
