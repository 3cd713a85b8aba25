package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeCommission(t *testing.T) {
	tests := []struct {
		name           string
		amount         float64
		percent        float64
		wantCommission float64
		wantTotal      float64
	}{
		{"ten percent", 10000, 10, 1000, 11000},
		{"fifteen percent", 5000, 15, 750, 5750},
		{"zero commission", 4200, 0, 0, 4200},
		{"full commission", 300, 100, 300, 600},
		{"rounds half up", 333.33, 12.5, 41.67, 375},
		{"fractional percent", 1999.99, 7.25, 145, 2144.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeCommission(tt.amount, tt.percent)
			assert.Equal(t, tt.percent, got.Percent)
			assert.Equal(t, tt.wantCommission, got.Amount)
			assert.Equal(t, tt.wantTotal, got.Total)
		})
	}
}

func TestPurchaseOrder_IsAssignmentConsistent(t *testing.T) {
	trainerID := int64(3)

	tests := []struct {
		name    string
		status  POStatus
		trainer *int64
		want    bool
	}{
		{"pending without trainer", POStatusPending, nil, true},
		{"pending with trainer", POStatusPending, &trainerID, false},
		{"assigned with trainer", POStatusAssigned, &trainerID, true},
		{"assigned without trainer", POStatusAssigned, nil, false},
		{"invoiced with trainer", POStatusInvoiced, &trainerID, true},
		{"rejected keeps trainer", POStatusRejected, &trainerID, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			po := &PurchaseOrder{Status: tt.status, AssignedTrainerID: tt.trainer}
			assert.Equal(t, tt.want, po.IsAssignmentConsistent())
		})
	}
}

func TestStatusEnums(t *testing.T) {
	assert.True(t, POStatusInvoiced.IsValid())
	assert.False(t, POStatus("Cancelled").IsValid())
	assert.True(t, RequestStatusSent.IsActive())
	assert.False(t, RequestStatusRejected.IsActive())
	assert.False(t, InvoiceStatus("Void").IsValid())
	assert.True(t, InvoiceTypeAdminToClient.IsValid())
	assert.False(t, Role("root").IsValid())
	assert.True(t, AvailabilityOnLeave.IsValid())
}

func TestTrainer_Certifications(t *testing.T) {
	tr := &Trainer{Certifications: []string{"CKA"}}

	assert.True(t, tr.AddCertification("AWS SAA"))
	assert.False(t, tr.AddCertification("CKA"))
	assert.Equal(t, []string{"CKA", "AWS SAA"}, tr.Certifications)

	assert.True(t, tr.RemoveCertification("CKA"))
	assert.False(t, tr.RemoveCertification("CKA"))
	assert.Equal(t, []string{"AWS SAA"}, tr.Certifications)
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError()
	assert.False(t, verr.HasErrors())

	verr.Add("phone", "invalid phone")
	verr.Add("email", "invalid email")
	verr.Add("email", "second message ignored")

	assert.True(t, verr.HasErrors())
	assert.Equal(t, []string{"email", "phone"}, verr.FieldNames())
	assert.Equal(t, "validation failed: email: invalid email; phone: invalid phone", verr.Error())

	var target *ValidationError
	assert.True(t, errors.As(error(verr), &target))
}

func TestIdentityRoles(t *testing.T) {
	u := &User{ID: 9, Role: RoleTrainer, Name: "Dana"}
	id := u.Identity()

	assert.Equal(t, int64(9), id.UserID)
	assert.True(t, id.IsTrainer())
	assert.False(t, id.IsAdmin())
	assert.False(t, id.IsClient())
}
