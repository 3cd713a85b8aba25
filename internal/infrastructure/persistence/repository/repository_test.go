package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/domain/entity"
	"github.com/garyjia/training-procurement/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/training-procurement/pkg/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(context.Background(), database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).RunMigrations(filepath.Join("..", "..", "..", "..", "migrations")))
	return db
}

func seedTrainer(t *testing.T, db *database.DB) *entity.Trainer {
	t.Helper()
	ctx := context.Background()
	users := NewUserRepository(db.DB, zap.NewNop())
	u := &entity.User{Username: "tom", PasswordHash: "x", Role: entity.RoleTrainer, Name: "Tom"}
	require.NoError(t, users.Create(ctx, u))

	tr := &entity.Trainer{
		UserID:         u.ID,
		Name:           "Tom",
		Email:          "tom@example.com",
		Expertise:      []string{"Go", "Kubernetes"},
		Certifications: []string{"CKA"},
		Availability:   entity.AvailabilityAvailable,
	}
	require.NoError(t, NewTrainerRepository(db.DB, zap.NewNop()).Create(ctx, tr))
	return tr
}

func newPO(clientID int64) *entity.PurchaseOrder {
	return &entity.PurchaseOrder{
		ClientID:            clientID,
		ClientName:          "Acme Buyer",
		CompanyName:         "Acme",
		Email:               "buyer@acme.io",
		Phone:               "+1 555 123 4567",
		TrainingRequirement: "Go bootcamp",
		Technology:          "Go",
		Duration:            "5 days",
		ExpectedStartDate:   "2026-07-01",
		Budget:              10000,
		Status:              entity.POStatusPending,
	}
}

func TestPurchaseOrderRepository_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewPurchaseOrderRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	first := newPO(10)
	require.NoError(t, repo.Create(ctx, first))
	second := newPO(11)
	require.NoError(t, repo.Create(ctx, second))
	assert.Equal(t, first.ID+1, second.ID)
	assert.False(t, first.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go bootcamp", got.TrainingRequirement)
	assert.Nil(t, got.AssignedTrainerID)

	missing, err := repo.GetByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	status := entity.POStatusAssigned
	trainerID := int64(3)
	name := "Tom"
	require.NoError(t, repo.Patch(ctx, first.ID, entity.PurchaseOrderPatch{
		Status: &status, AssignedTrainerID: &trainerID, AssignedTrainerName: &name,
	}))

	got, err = repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusAssigned, got.Status)
	require.NotNil(t, got.AssignedTrainerID)
	assert.Equal(t, int64(3), *got.AssignedTrainerID)
	assert.Equal(t, "Go", got.Technology, "patch leaves other fields untouched")

	byClient, err := repo.List(ctx, port.Filter{port.FieldClientID: int64(11)})
	require.NoError(t, err)
	require.Len(t, byClient, 1)
	assert.Equal(t, second.ID, byClient[0].ID)

	byStatus, err := repo.List(ctx, port.Filter{port.FieldStatus: entity.POStatusAssigned})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID, "insertion order")

	_, err = repo.List(ctx, port.Filter{"budget": 10000})
	assert.ErrorIs(t, err, port.ErrUnknownFilterField)

	var nerr *entity.NotFoundError
	assert.True(t, errors.As(repo.Patch(ctx, 999, entity.PurchaseOrderPatch{Status: &status}), &nerr))
}

func TestTrainingRequestAndInvoiceRepositories(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	tr := seedTrainer(t, db)

	pos := NewPurchaseOrderRepository(db.DB, zap.NewNop())
	po := newPO(10)
	require.NoError(t, pos.Create(ctx, po))

	reqs := NewTrainingRequestRepository(db.DB, zap.NewNop())
	req := &entity.TrainingRequest{
		PurchaseOrderID: po.ID,
		TrainerID:       tr.ID,
		TrainerName:     tr.Name,
		ClientName:      po.ClientName,
		Technology:      po.Technology,
		Duration:        po.Duration,
		Budget:          po.Budget,
		Status:          entity.RequestStatusSent,
	}
	require.NoError(t, reqs.Create(ctx, req))

	done := entity.RequestStatusCompleted
	completedAt := time.Date(2026, 7, 6, 17, 0, 0, 0, time.UTC)
	require.NoError(t, reqs.Patch(ctx, req.ID, entity.TrainingRequestPatch{Status: &done, CompletedAt: &completedAt}))

	got, err := reqs.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, completedAt.Equal(*got.CompletedAt))

	mine, err := reqs.List(ctx, port.Filter{port.FieldTrainerID: tr.ID, port.FieldPurchaseOrderID: po.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	invoices := NewInvoiceRepository(db.DB, zap.NewNop())
	trainerInv := &entity.Invoice{
		Type:              entity.InvoiceTypeTrainerToAdmin,
		PurchaseOrderID:   po.ID,
		TrainingRequestID: req.ID,
		TrainerID:         &tr.ID,
		TrainerName:       tr.Name,
		TrainingAmount:    10000,
		TotalAmount:       10000,
		Status:            entity.InvoiceStatusPending,
	}
	require.NoError(t, invoices.Create(ctx, trainerInv))

	c := entity.ComputeCommission(10000, 10)
	clientID := int64(10)
	clientInv := &entity.Invoice{
		Type:              entity.InvoiceTypeAdminToClient,
		PurchaseOrderID:   po.ID,
		TrainingRequestID: req.ID,
		ClientID:          &clientID,
		ClientName:        po.ClientName,
		TrainingAmount:    10000,
		CommissionPercent: &c.Percent,
		CommissionAmount:  &c.Amount,
		TotalAmount:       c.Total,
		Status:            entity.InvoiceStatusPending,
	}
	require.NoError(t, invoices.Create(ctx, clientInv))

	loaded, err := invoices.GetByID(ctx, clientInv.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.CommissionAmount)
	assert.Equal(t, 1000.0, *loaded.CommissionAmount)
	assert.Equal(t, 11000.0, loaded.TotalAmount)
	assert.Nil(t, loaded.TrainerID)

	trainerSet, err := invoices.List(ctx, port.Filter{
		port.FieldTrainerID: tr.ID,
		port.FieldType:      entity.InvoiceTypeTrainerToAdmin,
	})
	require.NoError(t, err)
	require.Len(t, trainerSet, 1)
	assert.Equal(t, trainerInv.ID, trainerSet[0].ID)

	paid := entity.InvoiceStatusPaid
	paidAt := time.Now().UTC()
	require.NoError(t, invoices.Patch(ctx, clientInv.ID, entity.InvoicePatch{Status: &paid, PaidAt: &paidAt}))
	loaded, err = invoices.GetByID(ctx, clientInv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPaid, loaded.Status)
	assert.NotNil(t, loaded.PaidAt)
	assert.Nil(t, loaded.ApprovedAt)
}

func TestTrainerRepository_Lists(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewTrainerRepository(db.DB, zap.NewNop())
	tr := seedTrainer(t, db)

	got, err := repo.GetByUserID(ctx, tr.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Kubernetes"}, got.Expertise)
	assert.Equal(t, []string{"CKA"}, got.Certifications)

	got.AddCertification("CKAD")
	got.Expertise = nil
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"CKA", "CKAD"}, got.Certifications)
	assert.Empty(t, got.Expertise)

	none, err := repo.GetByUserID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestStatusTransitionRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewStatusTransitionRepository(db.DB, zap.NewNop())

	for _, to := range []string{"Pending", "Assigned"} {
		require.NoError(t, repo.Create(ctx, &entity.StatusTransition{
			EntityType: entity.EntityPurchaseOrder,
			EntityID:   1,
			NewStatus:  to,
			Trigger:    "ASSIGN",
			ActorID:    1,
			ActorRole:  entity.RoleAdmin,
		}))
	}
	require.NoError(t, repo.Create(ctx, &entity.StatusTransition{
		EntityType: entity.EntityInvoice, EntityID: 1, NewStatus: "Pending", Trigger: "INVOICE", ActorRole: entity.RoleTrainer,
	}))

	rows, err := repo.ListByEntity(ctx, entity.EntityPurchaseOrder, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Pending", rows[0].NewStatus)
	assert.Equal(t, "Assigned", rows[1].NewStatus)
	assert.Equal(t, entity.RoleAdmin, rows[1].ActorRole)
}

func TestTransactionRollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	tx := sqlite.NewDB(db.DB, zap.NewNop())
	repo := NewPurchaseOrderRepository(db.DB, zap.NewNop())

	boom := errors.New("second write failed")
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, newPO(10)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all, "insert inside the failed transaction is rolled back")

	require.NoError(t, tx.WithTransaction(ctx, func(ctx context.Context) error {
		return repo.Create(ctx, newPO(10))
	}))
	all, err = repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUserRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db.DB, zap.NewNop())

	u := &entity.User{Username: "ada", PasswordHash: "h", Role: entity.RoleAdmin, Name: "Ada"}
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.GetByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, entity.RoleAdmin, got.Role)

	assert.Error(t, repo.Create(ctx, &entity.User{Username: "ada", PasswordHash: "h", Role: entity.RoleAdmin, Name: "Dup"}))

	none, err := repo.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, none)
}
