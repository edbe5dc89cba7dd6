package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
)

type DisputeRepository interface {
	Create(ctx context.Context, dispute *entity.Dispute) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Dispute, error)
	List(ctx context.Context, filter DisputeFilter) ([]*entity.Dispute, error)
	// HasActiveForPurchase есть ли по покупке спор в статусе open или under_review.
	HasActiveForPurchase(ctx context.Context, purchaseID uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, dispute *entity.Dispute, expected valueobject.DisputeStatus) error
}

type DisputeFilter struct {
	Status      valueobject.DisputeStatus
	DisputeType valueobject.DisputeType
	// AccountID ограничивает выборку спорами, где аккаунт заявитель или ответчик.
	AccountID *uuid.UUID
	Limit     int
	Offset    int
}
