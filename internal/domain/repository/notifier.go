package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventProducerVerified = "producer_verified"
	EventEscrowResolved   = "escrow_resolved"
	EventDisputeCreated   = "dispute_created"
	EventDisputeResolved  = "dispute_resolved"
)

// Notification событие для внешних получателей (webhook, websocket).
type Notification struct {
	Event      string                 `json:"event"`
	Recipients []uuid.UUID            `json:"recipients"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Notifier доставка уведомлений. Ошибка доставки не должна отменять бизнес-операцию.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
