package dispatcher

import (
	"context"

	"github.com/garyjia/training-procurement/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo pairs a handler with the name it was registered under
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}
