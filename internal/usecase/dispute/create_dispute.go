package dispute

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/beatmarket-backend/internal/validation"
)

type CreateDisputeInput struct {
	PurchaseID    uuid.UUID
	ComplainantID uuid.UUID
	RespondentID  uuid.UUID
	DisputeType   string
	Description   string
	Evidence      *string
}

type CreateDisputeUseCase struct {
	deps Deps
}

func NewCreateDisputeUseCase(deps Deps) *CreateDisputeUseCase {
	return &CreateDisputeUseCase{deps: deps.withDefaults()}
}

func (uc *CreateDisputeUseCase) Execute(ctx context.Context, input CreateDisputeInput) (*entity.Dispute, error) {
	disputeType, err := valueobject.NewDisputeType(input.DisputeType)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateDisputeDescription(input.Description); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidateEvidence(input.Evidence); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	dispute, err := entity.NewDispute(input.PurchaseID, input.ComplainantID, input.RespondentID, disputeType, input.Description, input.Evidence, uc.deps.Now())
	if err != nil {
		return nil, err
	}

	if _, err := uc.deps.Accounts.FindByID(ctx, input.RespondentID); err != nil {
		return nil, err
	}

	// Если покупка защищена escrow, спорить могут только её стороны.
	held, err := uc.deps.Escrows.FindByPurchaseID(ctx, input.PurchaseID)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}
	if held != nil && !(held.IsParticipant(input.ComplainantID) && held.IsParticipant(input.RespondentID)) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "спор может открыть только сторона сделки против другой стороны")
	}

	if err := uc.deps.Disputes.Create(ctx, dispute); err != nil {
		return nil, err
	}

	uc.deps.Metrics.ObserveDisputeTransition(string(dispute.Status))
	uc.deps.Log.WithFields(logrus.Fields{
		"dispute_id":   dispute.ID,
		"purchase_id":  dispute.PurchaseID,
		"dispute_type": dispute.DisputeType,
	}).Info("спор открыт")

	uc.deps.notify(ctx, repository.Notification{
		Event:      repository.EventDisputeCreated,
		Recipients: []uuid.UUID{dispute.RespondentID},
		Payload: map[string]interface{}{
			"dispute_id":   dispute.ID,
			"purchase_id":  dispute.PurchaseID,
			"dispute_type": dispute.DisputeType,
		},
		OccurredAt: dispute.CreatedAt,
	})
	return dispute, nil
}
