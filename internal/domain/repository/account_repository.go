package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
)

type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)
	// Save сохраняет поля доверия и верификации.
	Save(ctx context.Context, account *entity.Account) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TrustAuditRepository журнал ручных изменений доверия.
type TrustAuditRepository interface {
	Create(ctx context.Context, override *entity.TrustOverride) error
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*entity.TrustOverride, error)
}
