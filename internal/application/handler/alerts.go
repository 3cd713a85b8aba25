package handler

import (
	"context"
	"fmt"
	"sort"

	"github.com/garyjia/training-procurement/internal/application/dispatcher"
	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/domain/event"
)

// OperatorAlerts forwards operational events to an AlertSender
type OperatorAlerts struct {
	sender port.AlertSender
	logger dispatcher.Logger
}

// NewOperatorAlerts creates the alert forwarder
func NewOperatorAlerts(sender port.AlertSender, logger dispatcher.Logger) *OperatorAlerts {
	return &OperatorAlerts{sender: sender, logger: logger}
}

// Register subscribes the forwarder to every operational event type
func (h *OperatorAlerts) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypePartialFailure, "operator-alert-partial-failure", h.Handle)
	d.SubscribeNamed(event.TypeInconsistencyDetected, "operator-alert-inconsistency", h.Handle)
}

// Handle sends one alert per event
func (h *OperatorAlerts) Handle(ctx context.Context, evt *event.Event) error {
	if !evt.Type.IsOperational() {
		return nil
	}

	title := "Partial failure"
	if evt.Type == event.TypeInconsistencyDetected {
		title = "Inconsistency detected"
	}

	lines := []string{fmt.Sprintf("%s #%d", evt.EntityType, evt.EntityID)}
	keys := make([]string, 0, len(evt.Payload))
	for k := range evt.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, evt.Payload[k]))
	}

	if err := h.sender.SendAlert(ctx, title, lines); err != nil {
		h.logger.Error("Failed to forward operator alert", "event_id", evt.ID, "type", evt.Type, "error", err)
		return err
	}
	return nil
}

// AuditLog writes every domain event to the application log
type AuditLog struct {
	logger dispatcher.Logger
}

// NewAuditLog creates the audit log handler
func NewAuditLog(logger dispatcher.Logger) *AuditLog {
	return &AuditLog{logger: logger}
}

// Register subscribes the audit log to the workflow event types
func (h *AuditLog) Register(d dispatcher.Dispatcher) {
	for _, t := range []event.Type{
		event.TypePurchaseOrderSubmitted,
		event.TypeTrainerAssigned,
		event.TypeRequestResponded,
		event.TypeRequestCompleted,
		event.TypeInvoiceFiled,
		event.TypeInvoiceForwarded,
		event.TypeInvoicePaid,
	} {
		d.SubscribeNamed(t, "audit-log", h.Handle)
	}
}

// Handle logs the event
func (h *AuditLog) Handle(ctx context.Context, evt *event.Event) error {
	h.logger.Info("Domain event",
		"event_id", evt.ID,
		"type", evt.Type,
		"entity_type", evt.EntityType,
		"entity_id", evt.EntityID,
		"actor_id", evt.ActorID,
	)
	return nil
}
