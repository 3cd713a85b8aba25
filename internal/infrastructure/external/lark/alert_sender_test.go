package lark

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	idType, id, msgType, content string
	err                          error
}

func (r *recordingSender) SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error) {
	r.idType, r.id, r.msgType, r.content = receiveIDType, receiveID, msgType, content
	return "om_1", r.err
}

func TestAlertSender_SendAlert(t *testing.T) {
	rec := &recordingSender{}
	a := NewAlertSender(rec, "oc_ops", zap.NewNop())

	err := a.SendAlert(context.Background(), "Partial failure", []string{`operation: "assign"`, "failed_step: create_training_request"})
	require.NoError(t, err)

	assert.Equal(t, "chat_id", rec.idType)
	assert.Equal(t, "oc_ops", rec.id)
	assert.Equal(t, "text", rec.msgType)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(rec.content), &body))
	assert.Equal(t, "[Partial failure]\noperation: \"assign\"\nfailed_step: create_training_request", body["text"])
}

func TestAlertSender_Errors(t *testing.T) {
	rec := &recordingSender{err: errors.New("rate limited")}

	err := NewAlertSender(rec, "oc_ops", zap.NewNop()).SendAlert(context.Background(), "x", nil)
	assert.ErrorContains(t, err, "rate limited")

	err = NewAlertSender(rec, "", zap.NewNop()).SendAlert(context.Background(), "x", nil)
	assert.Error(t, err)
}
