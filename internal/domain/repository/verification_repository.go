package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
)

type VerificationRequestRepository interface {
	// Create возвращает Conflict, если по паре (аккаунт, PRO) уже есть pending-заявка.
	Create(ctx context.Context, req *entity.VerificationRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.VerificationRequest, error)
	FindPending(ctx context.Context, accountID uuid.UUID, pro valueobject.ProType) (*entity.VerificationRequest, error)
	List(ctx context.Context, filter VerificationRequestFilter) ([]*entity.VerificationRequest, error)
	CountPendingByAccount(ctx context.Context, accountID uuid.UUID) (int, error)
	// UpdateStatus обновляет заявку только если её статус в хранилище равен expected.
	UpdateStatus(ctx context.Context, req *entity.VerificationRequest, expected valueobject.VerificationRequestStatus) error
}

type VerificationRequestFilter struct {
	Status    valueobject.VerificationRequestStatus
	AccountID *uuid.UUID
	Limit     int
	Offset    int
}
