package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

// Dispute жалоба по покупке.
type Dispute struct {
	ID            uuid.UUID                 `json:"id"`
	PurchaseID    uuid.UUID                 `json:"purchase_id"`
	ComplainantID uuid.UUID                 `json:"complainant_id"`
	RespondentID  uuid.UUID                 `json:"respondent_id"`
	DisputeType   valueobject.DisputeType   `json:"dispute_type"`
	Description   string                    `json:"description"`
	Evidence      *string                   `json:"evidence,omitempty"`
	Status        valueobject.DisputeStatus `json:"status"`
	Resolution    *string                   `json:"resolution,omitempty"`
	ResolvedBy    *uuid.UUID                `json:"resolved_by,omitempty"`
	ResolvedAt    *time.Time                `json:"resolved_at,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

func NewDispute(purchaseID, complainantID, respondentID uuid.UUID, disputeType valueobject.DisputeType, description string, evidence *string, now time.Time) (*Dispute, error) {
	if purchaseID == uuid.Nil || complainantID == uuid.Nil || respondentID == uuid.Nil {
		return nil, apperror.Validation("покупка, заявитель и ответчик обязательны")
	}
	if complainantID == respondentID {
		return nil, apperror.Validation("нельзя открыть спор против самого себя")
	}
	if !disputeType.IsValid() {
		return nil, apperror.Validation("некорректный тип спора")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperror.Validation("описание спора обязательно")
	}
	if evidence != nil && strings.TrimSpace(*evidence) == "" {
		evidence = nil
	}

	return &Dispute{
		ID:            uuid.New(),
		PurchaseID:    purchaseID,
		ComplainantID: complainantID,
		RespondentID:  respondentID,
		DisputeType:   disputeType,
		Description:   description,
		Evidence:      evidence,
		Status:        valueobject.DisputeStatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (d *Dispute) IsParticipant(accountID uuid.UUID) bool {
	return d.ComplainantID == accountID || d.RespondentID == accountID
}

// StartReview переводит спор на рассмотрение.
func (d *Dispute) StartReview(now time.Time) error {
	return d.moveTo(valueobject.DisputeStatusUnderReview, now)
}

// Resolve записывает решение. Resolution и ResolvedBy выставляются только вместе.
func (d *Dispute) Resolve(resolution string, resolvedBy uuid.UUID, now time.Time) error {
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		return apperror.Validation("текст решения обязателен")
	}
	if resolvedBy == uuid.Nil {
		return apperror.Validation("не указан, кто разрешил спор")
	}
	if err := d.moveTo(valueobject.DisputeStatusResolved, now); err != nil {
		return err
	}

	d.Resolution = &resolution
	d.ResolvedBy = &resolvedBy
	d.ResolvedAt = &now
	return nil
}

// Close закрывает разрешённый спор.
func (d *Dispute) Close(now time.Time) error {
	return d.moveTo(valueobject.DisputeStatusClosed, now)
}

func (d *Dispute) moveTo(target valueobject.DisputeStatus, now time.Time) error {
	if !d.Status.CanTransitionTo(target) {
		return apperror.InvalidTransition("dispute", string(d.Status), string(target))
	}
	d.Status = target
	d.UpdatedAt = now
	return nil
}

func (d *Dispute) Clone() *Dispute {
	if d == nil {
		return nil
	}
	c := *d
	c.Evidence = cloneString(d.Evidence)
	c.Resolution = cloneString(d.Resolution)
	if d.ResolvedBy != nil {
		v := *d.ResolvedBy
		c.ResolvedBy = &v
	}
	c.ResolvedAt = cloneTime(d.ResolvedAt)
	return &c
}
