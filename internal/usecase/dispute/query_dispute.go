package dispute

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

type ListFilterInput struct {
	Status      string
	DisputeType string
	Limit       int
	Offset      int
}

type ListDisputesUseCase struct {
	deps Deps
}

func NewListDisputesUseCase(deps Deps) *ListDisputesUseCase {
	return &ListDisputesUseCase{deps: deps.withDefaults()}
}

func (uc *ListDisputesUseCase) Execute(ctx context.Context, input ListFilterInput) ([]*entity.Dispute, error) {
	filter := repository.DisputeFilter{Limit: input.Limit, Offset: input.Offset}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if input.Status != "" {
		s, err := valueobject.NewDisputeStatus(input.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = s
	}
	if input.DisputeType != "" {
		t, err := valueobject.NewDisputeType(input.DisputeType)
		if err != nil {
			return nil, err
		}
		filter.DisputeType = t
	}
	return uc.deps.Disputes.List(ctx, filter)
}

type ListAccountDisputesUseCase struct {
	deps Deps
}

func NewListAccountDisputesUseCase(deps Deps) *ListAccountDisputesUseCase {
	return &ListAccountDisputesUseCase{deps: deps.withDefaults()}
}

func (uc *ListAccountDisputesUseCase) Execute(ctx context.Context, accountID uuid.UUID) ([]*entity.Dispute, error) {
	return uc.deps.Disputes.List(ctx, repository.DisputeFilter{AccountID: &accountID, Limit: 100})
}

type GetDisputeUseCase struct {
	deps Deps
}

func NewGetDisputeUseCase(deps Deps) *GetDisputeUseCase {
	return &GetDisputeUseCase{deps: deps.withDefaults()}
}

func (uc *GetDisputeUseCase) Execute(ctx context.Context, disputeID, accountID uuid.UUID, isAdmin bool) (*entity.Dispute, error) {
	dispute, err := uc.deps.Disputes.FindByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !dispute.IsParticipant(accountID) {
		return nil, apperror.ErrForbidden
	}
	return dispute, nil
}
