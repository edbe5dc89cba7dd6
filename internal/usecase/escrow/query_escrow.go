package escrow

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

type GetEscrowUseCase struct {
	deps Deps
}

func NewGetEscrowUseCase(deps Deps) *GetEscrowUseCase {
	return &GetEscrowUseCase{deps: deps.withDefaults()}
}

// Execute возвращает escrow участнику сделки или администратору.
func (uc *GetEscrowUseCase) Execute(ctx context.Context, escrowID, accountID uuid.UUID, isAdmin bool) (*entity.EscrowTransaction, error) {
	escrow, err := uc.deps.Escrows.FindByID(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !escrow.IsParticipant(accountID) {
		return nil, apperror.ErrForbidden
	}
	return escrow, nil
}

type ListEscrowsUseCase struct {
	deps Deps
}

func NewListEscrowsUseCase(deps Deps) *ListEscrowsUseCase {
	return &ListEscrowsUseCase{deps: deps.withDefaults()}
}

func (uc *ListEscrowsUseCase) Execute(ctx context.Context, accountID uuid.UUID, status string) ([]*entity.EscrowTransaction, error) {
	filter := repository.EscrowFilter{AccountID: &accountID, Limit: 100}
	if status != "" {
		s, err := valueobject.NewEscrowStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = s
	}
	return uc.deps.Escrows.List(ctx, filter)
}
