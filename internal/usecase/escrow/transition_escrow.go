package escrow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

// ActorKind кто инициирует переход.
type ActorKind string

const (
	ActorBuyer   ActorKind = "buyer"
	ActorAdmin   ActorKind = "admin"
	ActorSystem  ActorKind = "system"
	ActorDispute ActorKind = "dispute"
)

type Actor struct {
	Kind      ActorKind
	AccountID uuid.UUID
}

type TransitionInput struct {
	EscrowID uuid.UUID
	Action   valueobject.EscrowAction
	Actor    Actor
}

type TransitionEscrowUseCase struct {
	deps Deps
}

func NewTransitionEscrowUseCase(deps Deps) *TransitionEscrowUseCase {
	return &TransitionEscrowUseCase{deps: deps.withDefaults()}
}

// Execute выполняет release или refund. Порядок проверок: допустимость перехода,
// права инициатора, затем compare-and-swap по статусу в хранилище.
func (uc *TransitionEscrowUseCase) Execute(ctx context.Context, input TransitionInput) (*entity.EscrowTransaction, error) {
	target, err := input.Action.Target()
	if err != nil {
		return nil, err
	}

	escrow, err := uc.deps.Escrows.FindByID(ctx, input.EscrowID)
	if err != nil {
		return nil, err
	}
	if !escrow.Status.CanTransitionTo(target) {
		return nil, apperror.InvalidTransition("escrow", string(escrow.Status), string(target))
	}

	now := uc.deps.Now()
	if err := uc.authorize(ctx, escrow, input, now); err != nil {
		return nil, err
	}

	expected := escrow.Status
	if err := escrow.Apply(input.Action, now); err != nil {
		return nil, err
	}
	if err := uc.deps.Escrows.UpdateStatus(ctx, escrow, expected); err != nil {
		return nil, err
	}

	uc.deps.Metrics.ObserveEscrowTransition(string(input.Action), string(input.Actor.Kind))
	uc.deps.Log.WithFields(logrus.Fields{
		"escrow_id": escrow.ID,
		"action":    input.Action,
		"actor":     input.Actor.Kind,
		"status":    escrow.Status,
	}).Info("escrow завершён")

	uc.notifyResolved(ctx, escrow, input.Actor)
	return escrow, nil
}

func (uc *TransitionEscrowUseCase) authorize(ctx context.Context, escrow *entity.EscrowTransaction, input TransitionInput, now time.Time) error {
	switch input.Actor.Kind {
	case ActorAdmin, ActorDispute:
		return nil

	case ActorBuyer:
		if input.Actor.AccountID != escrow.BuyerID {
			return apperror.New(apperror.ErrCodeForbidden, "управлять escrow может только покупатель")
		}
		if input.Action == valueobject.EscrowActionRefund && !escrow.ReleaseConditions.AllowsRefund {
			return apperror.New(apperror.ErrCodeForbidden, "условия сделки не допускают возврат по инициативе покупателя")
		}
		return nil

	case ActorSystem:
		if input.Action != valueobject.EscrowActionRelease {
			return apperror.New(apperror.ErrCodeForbidden, "автоматически возможно только освобождение средств")
		}
		if !escrow.AutoReleaseDue(now) {
			return apperror.New(apperror.ErrCodeForbidden, "срок автоосвобождения ещё не наступил")
		}
		active, err := uc.deps.Disputes.HasActiveForPurchase(ctx, escrow.PurchaseID)
		if err != nil {
			return err
		}
		if active {
			return apperror.New(apperror.ErrCodeConflict, "по покупке открыт спор")
		}
		return nil
	}
	return apperror.ErrForbidden
}

// notifyResolved уведомление best-effort: ошибка только логируется.
func (uc *TransitionEscrowUseCase) notifyResolved(ctx context.Context, escrow *entity.EscrowTransaction, actor Actor) {
	if uc.deps.Notifier == nil {
		return
	}
	err := uc.deps.Notifier.Notify(ctx, repository.Notification{
		Event:      repository.EventEscrowResolved,
		Recipients: []uuid.UUID{escrow.BuyerID, escrow.SellerID},
		Payload: map[string]interface{}{
			"escrow_id":   escrow.ID,
			"purchase_id": escrow.PurchaseID,
			"status":      escrow.Status,
			"amount":      escrow.Amount.StringFixed(2),
			"buyer_id":    escrow.BuyerID,
			"seller_id":   escrow.SellerID,
			"actor":       actor.Kind,
		},
		OccurredAt: escrow.UpdatedAt,
	})
	if err != nil {
		uc.deps.Metrics.ObserveNotificationFailure("escrow")
		uc.deps.Log.WithField("escrow_id", escrow.ID).WithError(err).Warn("не удалось отправить уведомление о завершении escrow")
	}
}
