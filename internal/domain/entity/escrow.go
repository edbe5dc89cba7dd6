package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

// ReleaseConditions условия освобождения средств, задаются при создании escrow.
// RequiresDeliveryConfirmation только сохраняется и отдаётся клиенту: события
// подтверждения доставки в системе нет, поэтому на автоосвобождение флаг не влияет.
type ReleaseConditions struct {
	AutoReleaseAfterDays         int  `json:"autoReleaseAfterDays"`
	RequiresDeliveryConfirmation bool `json:"requiresDeliveryConfirmation"`
	AllowsRefund                 bool `json:"allowsRefund"`
}

// DefaultReleaseConditions используются, если покупатель не передал свои.
func DefaultReleaseConditions() ReleaseConditions {
	return ReleaseConditions{
		AutoReleaseAfterDays:         7,
		RequiresDeliveryConfirmation: true,
		AllowsRefund:                 true,
	}
}

// EscrowTransaction защищённая сделка для дорогих покупок.
type EscrowTransaction struct {
	ID                uuid.UUID                `json:"id"`
	PurchaseID        uuid.UUID                `json:"purchase_id"`
	BuyerID           uuid.UUID                `json:"buyer_id"`
	SellerID          uuid.UUID                `json:"seller_id"`
	Amount            decimal.Decimal          `json:"amount"`
	Status            valueobject.EscrowStatus `json:"status"`
	ReleaseConditions ReleaseConditions        `json:"release_conditions"`
	HeldAt            *time.Time               `json:"held_at,omitempty"`
	ReleasedAt        *time.Time               `json:"released_at,omitempty"`
	RefundedAt        *time.Time               `json:"refunded_at,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

// NewEscrowTransaction создаёт escrow в статусе held. Суммы ниже порога в escrow не попадают.
func NewEscrowTransaction(purchaseID, buyerID, sellerID uuid.UUID, amount decimal.Decimal, conditions *ReleaseConditions, now time.Time) (*EscrowTransaction, error) {
	if purchaseID == uuid.Nil || buyerID == uuid.Nil || sellerID == uuid.Nil {
		return nil, apperror.Validation("покупка, покупатель и продавец обязательны")
	}
	if buyerID == sellerID {
		return nil, apperror.Validation("покупатель и продавец должны различаться")
	}
	if !valueobject.QualifiesForEscrow(amount) {
		return nil, apperror.Validation("escrow доступен только для покупок от " + valueobject.EscrowFloor.StringFixed(2))
	}

	cond := DefaultReleaseConditions()
	if conditions != nil {
		if conditions.AutoReleaseAfterDays < 0 {
			return nil, apperror.Validation("срок автоосвобождения не может быть отрицательным")
		}
		cond = *conditions
	}

	return &EscrowTransaction{
		ID:                uuid.New(),
		PurchaseID:        purchaseID,
		BuyerID:           buyerID,
		SellerID:          sellerID,
		Amount:            amount,
		Status:            valueobject.EscrowStatusHeld,
		ReleaseConditions: cond,
		HeldAt:            &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// IsParticipant проверяет, является ли аккаунт стороной сделки.
func (e *EscrowTransaction) IsParticipant(accountID uuid.UUID) bool {
	return e.BuyerID == accountID || e.SellerID == accountID
}

// Hold подтверждает резервирование средств (pending -> held).
func (e *EscrowTransaction) Hold(now time.Time) error {
	if !e.Status.CanTransitionTo(valueobject.EscrowStatusHeld) {
		return apperror.InvalidTransition("escrow", string(e.Status), string(valueobject.EscrowStatusHeld))
	}
	e.Status = valueobject.EscrowStatusHeld
	e.HeldAt = &now
	e.UpdatedAt = now
	return nil
}

// Apply выполняет release или refund. Из терминального статуса переходов нет,
// и ровно одна из меток releasedAt/refundedAt выставляется при выходе из held.
func (e *EscrowTransaction) Apply(action valueobject.EscrowAction, now time.Time) error {
	target, err := action.Target()
	if err != nil {
		return err
	}
	if !e.Status.CanTransitionTo(target) {
		return apperror.InvalidTransition("escrow", string(e.Status), string(target))
	}

	e.Status = target
	e.UpdatedAt = now
	switch target {
	case valueobject.EscrowStatusReleased:
		e.ReleasedAt = &now
	case valueobject.EscrowStatusRefunded:
		e.RefundedAt = &now
	}
	return nil
}

// AutoReleaseAt момент, после которого escrow можно освободить автоматически.
// Возвращает false, если автоосвобождение выключено или средства ещё не удержаны.
func (e *EscrowTransaction) AutoReleaseAt() (time.Time, bool) {
	if e.HeldAt == nil || e.ReleaseConditions.AutoReleaseAfterDays <= 0 {
		return time.Time{}, false
	}
	return e.HeldAt.AddDate(0, 0, e.ReleaseConditions.AutoReleaseAfterDays), true
}

// AutoReleaseDue сообщает, наступил ли срок автоосвобождения.
func (e *EscrowTransaction) AutoReleaseDue(now time.Time) bool {
	if e.Status != valueobject.EscrowStatusHeld {
		return false
	}
	at, ok := e.AutoReleaseAt()
	return ok && !now.Before(at)
}

func (e *EscrowTransaction) Clone() *EscrowTransaction {
	if e == nil {
		return nil
	}
	c := *e
	c.HeldAt = cloneTime(e.HeldAt)
	c.ReleasedAt = cloneTime(e.ReleasedAt)
	c.RefundedAt = cloneTime(e.RefundedAt)
	return &c
}
