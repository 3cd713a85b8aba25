package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"submitted", TypePurchaseOrderSubmitted, true},
		{"assigned", TypeTrainerAssigned, true},
		{"forwarded", TypeInvoiceForwarded, true},
		{"partial failure", TypePartialFailure, true},
		{"unknown", Type("po.exploded"), false},
		{"empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.eventType.IsValid())
		})
	}
}

func TestType_IsOperational(t *testing.T) {
	assert.True(t, TypePartialFailure.IsOperational())
	assert.True(t, TypeInconsistencyDetected.IsOperational())
	assert.False(t, TypeInvoicePaid.IsOperational())
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent(TypeTrainerAssigned, "purchase_order", 42, map[string]interface{}{
		"trainer_id": int64(7),
	})

	require.NotNil(t, evt)
	assert.NotEmpty(t, evt.ID)
	assert.NotEmpty(t, evt.CorrelationID)
	assert.NotEqual(t, evt.ID, evt.CorrelationID)
	assert.Equal(t, "purchase_order", evt.EntityType)
	assert.Equal(t, int64(42), evt.EntityID)
	assert.Equal(t, int64(7), evt.GetPayloadInt("trainer_id"))
	assert.False(t, evt.Timestamp.IsZero())
}

func TestNewEvent_NilPayload(t *testing.T) {
	evt := NewEvent(TypeInvoicePaid, "invoice", 1, nil)
	require.NotNil(t, evt.Payload)

	evt2 := evt.WithPayload("k", "v")
	assert.Equal(t, "v", evt2.GetPayloadString("k"))
}

func TestEvent_CorrelationChain(t *testing.T) {
	first := NewEvent(TypeRequestCompleted, "training_request", 1, nil)
	second := NewEventWithCorrelation(TypeTrainerAssigned, "purchase_order", 9, nil, first.CorrelationID)

	assert.Equal(t, first.CorrelationID, second.CorrelationID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestEvent_CopiesAreIndependent(t *testing.T) {
	original := NewEvent(TypeInvoiceFiled, "invoice", 3, map[string]interface{}{"step": 1})

	withActor := original.WithActor(11)
	modified := withActor.WithPayload("step", 2)

	assert.Equal(t, int64(0), original.ActorID)
	assert.Equal(t, int64(11), modified.ActorID)
	assert.Equal(t, int64(1), original.GetPayloadInt("step"))
	assert.Equal(t, int64(1), withActor.GetPayloadInt("step"))
	assert.Equal(t, int64(2), modified.GetPayloadInt("step"))
	assert.Equal(t, original.ID, modified.ID)
}

func TestEvent_PayloadAccessors(t *testing.T) {
	evt := NewEvent(TypeInvoiceForwarded, "invoice", 5, map[string]interface{}{
		"amount":  5750.0,
		"count":   3,
		"label":   "ok",
		"nothing": nil,
	})

	assert.Equal(t, 5750.0, evt.GetPayloadFloat("amount"))
	assert.Equal(t, 3.0, evt.GetPayloadFloat("count"))
	assert.Equal(t, int64(5750), evt.GetPayloadInt("amount"))
	assert.Equal(t, "ok", evt.GetPayloadString("label"))
	assert.Equal(t, "", evt.GetPayloadString("amount"))
	assert.Equal(t, int64(0), evt.GetPayloadInt("nothing"))
	assert.Equal(t, 0.0, evt.GetPayloadFloat("missing"))
}
