package lark

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/training-procurement/internal/application/port"
)

// messageSender is the part of SDKClient the alert sender needs
type messageSender interface {
	SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error)
}

// AlertSender implements port.AlertSender by posting text messages to a Lark group chat
type AlertSender struct {
	sender messageSender
	chatID string
	logger *zap.Logger
}

// NewAlertSender creates an alert sender posting to chatID
func NewAlertSender(sender messageSender, chatID string, logger *zap.Logger) *AlertSender {
	return &AlertSender{
		sender: sender,
		chatID: chatID,
		logger: logger,
	}
}

// SendAlert posts title followed by one line per entry
func (a *AlertSender) SendAlert(ctx context.Context, title string, lines []string) error {
	if a.chatID == "" {
		return fmt.Errorf("chatID cannot be empty")
	}
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}

	text := "[" + title + "]"
	if len(lines) > 0 {
		text += "\n" + strings.Join(lines, "\n")
	}
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal alert content: %w", err)
	}

	messageID, err := a.sender.SendMessage(ctx, "chat_id", a.chatID, "text", string(content))
	if err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}

	a.logger.Info("Alert sent", zap.String("title", title), zap.String("message_id", messageID))
	return nil
}

// Verify interface compliance
var _ port.AlertSender = (*AlertSender)(nil)
