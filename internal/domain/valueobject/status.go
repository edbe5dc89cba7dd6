package valueobject

import "github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"

type EscrowStatus string

const (
	EscrowStatusPending  EscrowStatus = "pending"
	EscrowStatusHeld     EscrowStatus = "held"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"
)

var escrowTransitions = map[EscrowStatus][]EscrowStatus{
	EscrowStatusPending:  {EscrowStatusHeld},
	EscrowStatusHeld:     {EscrowStatusReleased, EscrowStatusRefunded},
	EscrowStatusReleased: {},
	EscrowStatusRefunded: {},
}

func (s EscrowStatus) IsValid() bool {
	_, ok := escrowTransitions[s]
	return ok
}

// IsTerminal сообщает, что из статуса нет исходящих переходов.
func (s EscrowStatus) IsTerminal() bool {
	return s == EscrowStatusReleased || s == EscrowStatusRefunded
}

func (s EscrowStatus) CanTransitionTo(next EscrowStatus) bool {
	return contains(escrowTransitions[s], next)
}

func NewEscrowStatus(status string) (EscrowStatus, error) {
	s := EscrowStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус escrow")
	}
	return s, nil
}

// EscrowAction действие над escrow, запрашиваемое вызывающей стороной.
type EscrowAction string

const (
	EscrowActionRelease EscrowAction = "release"
	EscrowActionRefund  EscrowAction = "refund"
)

// Target возвращает статус, в который переводит действие.
func (a EscrowAction) Target() (EscrowStatus, error) {
	switch a {
	case EscrowActionRelease:
		return EscrowStatusReleased, nil
	case EscrowActionRefund:
		return EscrowStatusRefunded, nil
	}
	return "", apperror.Validation("некорректное действие над escrow")
}

type DisputeStatus string

const (
	DisputeStatusOpen        DisputeStatus = "open"
	DisputeStatusUnderReview DisputeStatus = "under_review"
	DisputeStatusResolved    DisputeStatus = "resolved"
	DisputeStatusClosed      DisputeStatus = "closed"
)

var disputeTransitions = map[DisputeStatus][]DisputeStatus{
	DisputeStatusOpen:        {DisputeStatusUnderReview, DisputeStatusResolved},
	DisputeStatusUnderReview: {DisputeStatusResolved},
	DisputeStatusResolved:    {DisputeStatusClosed},
	DisputeStatusClosed:      {},
}

func (s DisputeStatus) IsValid() bool {
	_, ok := disputeTransitions[s]
	return ok
}

// IsActive сообщает, что спор ещё не разрешён.
func (s DisputeStatus) IsActive() bool {
	return s == DisputeStatusOpen || s == DisputeStatusUnderReview
}

func (s DisputeStatus) CanTransitionTo(next DisputeStatus) bool {
	return contains(disputeTransitions[s], next)
}

func NewDisputeStatus(status string) (DisputeStatus, error) {
	s := DisputeStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус спора")
	}
	return s, nil
}

type DisputeType string

const (
	DisputeTypeCopyright DisputeType = "copyright"
	DisputeTypeQuality   DisputeType = "quality"
	DisputeTypeDelivery  DisputeType = "delivery"
	DisputeTypeRefund    DisputeType = "refund"
)

func (t DisputeType) IsValid() bool {
	switch t {
	case DisputeTypeCopyright, DisputeTypeQuality, DisputeTypeDelivery, DisputeTypeRefund:
		return true
	}
	return false
}

func NewDisputeType(raw string) (DisputeType, error) {
	t := DisputeType(raw)
	if !t.IsValid() {
		return "", apperror.Validation("некорректный тип спора")
	}
	return t, nil
}

// DisputeOutcome определяет, чью сторону приняло решение по спору.
type DisputeOutcome string

const (
	DisputeOutcomeNone   DisputeOutcome = "none"
	DisputeOutcomeBuyer  DisputeOutcome = "buyer"
	DisputeOutcomeSeller DisputeOutcome = "seller"
)

func NewDisputeOutcome(raw string) (DisputeOutcome, error) {
	if raw == "" {
		return DisputeOutcomeNone, nil
	}
	o := DisputeOutcome(raw)
	switch o {
	case DisputeOutcomeNone, DisputeOutcomeBuyer, DisputeOutcomeSeller:
		return o, nil
	}
	return "", apperror.Validation("некорректный исход спора")
}

type VerificationRequestStatus string

const (
	VerificationRequestPending  VerificationRequestStatus = "pending"
	VerificationRequestApproved VerificationRequestStatus = "approved"
	VerificationRequestRejected VerificationRequestStatus = "rejected"
)

func (s VerificationRequestStatus) IsValid() bool {
	switch s {
	case VerificationRequestPending, VerificationRequestApproved, VerificationRequestRejected:
		return true
	}
	return false
}

func NewVerificationRequestStatus(raw string) (VerificationRequestStatus, error) {
	s := VerificationRequestStatus(raw)
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус заявки")
	}
	return s, nil
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
