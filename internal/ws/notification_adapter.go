package ws

import (
	"context"
	"errors"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
)

// NotifierAdapter доставляет доменные уведомления подключённым участникам через Hub.
type NotifierAdapter struct {
	hub *Hub
}

func NewNotifierAdapter(hub *Hub) *NotifierAdapter {
	return &NotifierAdapter{hub: hub}
}

// Notify реализует repository.Notifier.
func (a *NotifierAdapter) Notify(ctx context.Context, n repository.Notification) error {
	data := map[string]interface{}{
		"payload":     n.Payload,
		"occurred_at": n.OccurredAt,
	}
	var errs []error
	for _, accountID := range n.Recipients {
		if err := a.hub.BroadcastToAccount(ctx, accountID, n.Event, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
