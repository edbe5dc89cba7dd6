package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
)

type EscrowRepository interface {
	Create(ctx context.Context, escrow *entity.EscrowTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.EscrowTransaction, error)
	FindByPurchaseID(ctx context.Context, purchaseID uuid.UUID) (*entity.EscrowTransaction, error)
	List(ctx context.Context, filter EscrowFilter) ([]*entity.EscrowTransaction, error)
	// ListDueForAutoRelease held-сделки с наступившим сроком автоосвобождения и без активного спора.
	ListDueForAutoRelease(ctx context.Context, now time.Time, limit int) ([]*entity.EscrowTransaction, error)
	// CountActiveByAccount число сделок в pending/held, где аккаунт покупатель или продавец.
	CountActiveByAccount(ctx context.Context, accountID uuid.UUID) (int, error)
	// UpdateStatus compare-and-swap по статусу: при расхождении возвращает ErrConcurrentUpdate.
	UpdateStatus(ctx context.Context, escrow *entity.EscrowTransaction, expected valueobject.EscrowStatus) error
}

type EscrowFilter struct {
	AccountID *uuid.UUID
	Status    valueobject.EscrowStatus
	Limit     int
	Offset    int
}
