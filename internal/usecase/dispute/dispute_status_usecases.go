package dispute

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/beatmarket-backend/internal/usecase/escrow"
	"github.com/ignatzorin/beatmarket-backend/internal/validation"
)

type StartReviewUseCase struct {
	deps Deps
}

func NewStartReviewUseCase(deps Deps) *StartReviewUseCase {
	return &StartReviewUseCase{deps: deps.withDefaults()}
}

func (uc *StartReviewUseCase) Execute(ctx context.Context, disputeID uuid.UUID) (*entity.Dispute, error) {
	return uc.deps.move(ctx, disputeID, func(d *entity.Dispute) error {
		return d.StartReview(uc.deps.Now())
	})
}

type CloseDisputeUseCase struct {
	deps Deps
}

func NewCloseDisputeUseCase(deps Deps) *CloseDisputeUseCase {
	return &CloseDisputeUseCase{deps: deps.withDefaults()}
}

func (uc *CloseDisputeUseCase) Execute(ctx context.Context, disputeID uuid.UUID) (*entity.Dispute, error) {
	return uc.deps.move(ctx, disputeID, func(d *entity.Dispute) error {
		return d.Close(uc.deps.Now())
	})
}

// move загружает спор, применяет переход и сохраняет его с проверкой исходного статуса.
func (d Deps) move(ctx context.Context, disputeID uuid.UUID, apply func(*entity.Dispute) error) (*entity.Dispute, error) {
	dispute, err := d.Disputes.FindByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	expected := dispute.Status
	if err := apply(dispute); err != nil {
		return nil, err
	}
	if err := d.Disputes.UpdateStatus(ctx, dispute, expected); err != nil {
		return nil, err
	}
	d.Metrics.ObserveDisputeTransition(string(dispute.Status))
	d.Log.WithFields(logrus.Fields{
		"dispute_id": dispute.ID,
		"from":       expected,
		"to":         dispute.Status,
	}).Info("статус спора изменён")
	return dispute, nil
}

type ResolveInput struct {
	DisputeID  uuid.UUID
	Resolution string
	ResolvedBy uuid.UUID
	// Outcome в чью пользу решён спор: none, buyer (возврат) или seller (освобождение).
	Outcome string
}

type ResolveResult struct {
	Dispute *entity.Dispute            `json:"dispute"`
	Escrow  *entity.EscrowTransaction  `json:"escrow,omitempty"`
	Outcome valueobject.DisputeOutcome `json:"outcome"`
}

type ResolveDisputeUseCase struct {
	deps Deps
}

func NewResolveDisputeUseCase(deps Deps) *ResolveDisputeUseCase {
	return &ResolveDisputeUseCase{deps: deps.withDefaults()}
}

// Execute фиксирует решение, затем отдельным шагом завершает escrow покупки и
// пересчитывает доверие ответчика. Если escrow завершить не удалось, спор остаётся
// разрешённым: возвращается результат и ошибка escrow.
func (uc *ResolveDisputeUseCase) Execute(ctx context.Context, input ResolveInput) (*ResolveResult, error) {
	outcome, err := valueobject.NewDisputeOutcome(input.Outcome)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateResolution(input.Resolution); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	dispute, err := uc.deps.move(ctx, input.DisputeID, func(d *entity.Dispute) error {
		return d.Resolve(input.Resolution, input.ResolvedBy, uc.deps.Now())
	})
	if err != nil {
		return nil, err
	}

	result := &ResolveResult{Dispute: dispute, Outcome: outcome}
	escrowErr := uc.settleEscrow(ctx, result)
	uc.recalculateRespondent(ctx, dispute.RespondentID)

	uc.deps.notify(ctx, repository.Notification{
		Event:      repository.EventDisputeResolved,
		Recipients: []uuid.UUID{dispute.ComplainantID, dispute.RespondentID},
		Payload: map[string]interface{}{
			"dispute_id":  dispute.ID,
			"purchase_id": dispute.PurchaseID,
			"resolution":  *dispute.Resolution,
			"outcome":     outcome,
		},
		OccurredAt: *dispute.ResolvedAt,
	})

	if escrowErr != nil {
		return result, escrowErr
	}
	return result, nil
}

func (uc *ResolveDisputeUseCase) settleEscrow(ctx context.Context, result *ResolveResult) error {
	var action valueobject.EscrowAction
	switch result.Outcome {
	case valueobject.DisputeOutcomeBuyer:
		action = valueobject.EscrowActionRefund
	case valueobject.DisputeOutcomeSeller:
		action = valueobject.EscrowActionRelease
	default:
		return nil
	}

	held, err := uc.deps.Escrows.FindByPurchaseID(ctx, result.Dispute.PurchaseID)
	if apperror.IsNotFound(err) {
		uc.deps.Log.WithField("dispute_id", result.Dispute.ID).Info("покупка без escrow, средства не перемещаются")
		return nil
	}
	if err != nil {
		return escrowFailed(err)
	}

	settled, err := uc.deps.Escrow.Execute(ctx, escrow.TransitionInput{
		EscrowID: held.ID,
		Action:   action,
		Actor:    escrow.Actor{Kind: escrow.ActorDispute, AccountID: *result.Dispute.ResolvedBy},
	})
	if err != nil {
		uc.deps.Log.WithFields(logrus.Fields{
			"dispute_id": result.Dispute.ID,
			"escrow_id":  held.ID,
			"action":     action,
		}).WithError(err).Error("спор разрешён, но escrow не завершён")
		return escrowFailed(err)
	}
	result.Escrow = settled
	return nil
}

// escrowFailed сохраняет код исходной ошибки, чтобы HTTP-статус остался прежним.
func escrowFailed(err error) error {
	code := apperror.ErrCodeInternal
	if appErr, ok := apperror.As(err); ok {
		code = appErr.Code
	}
	wrapped := apperror.Wrap(err, code, "спор разрешён, но escrow не завершён")
	if appErr, ok := apperror.As(err); ok {
		wrapped.Details = appErr.Details
	}
	return wrapped
}

func (uc *ResolveDisputeUseCase) recalculateRespondent(ctx context.Context, accountID uuid.UUID) {
	log := uc.deps.Log.WithField("account_id", accountID)
	account, err := uc.deps.Accounts.FindByID(ctx, accountID)
	if err != nil {
		log.WithError(err).Warn("не удалось загрузить ответчика для пересчёта доверия")
		return
	}
	updated, result, err := uc.deps.Engine.Recalculate(account)
	if err != nil {
		log.WithError(err).Warn("не удалось пересчитать доверие ответчика")
		return
	}
	if err := uc.deps.Accounts.Save(ctx, updated); err != nil {
		log.WithError(err).Warn("не удалось сохранить пересчитанное доверие ответчика")
		return
	}
	uc.deps.Metrics.ObserveTrustRecomputation(string(result.VerificationBadge))
}
