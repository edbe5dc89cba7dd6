package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

// VerificationRequest заявка на подтверждение членства в PRO.
type VerificationRequest struct {
	ID                  uuid.UUID                             `json:"id"`
	AccountID           uuid.UUID                             `json:"account_id"`
	ProType             valueobject.ProType                   `json:"pro_type"`
	MemberNumber        string                                `json:"member_number"`
	EvidenceDocumentRef string                                `json:"evidence_document_ref"`
	DocumentType        string                                `json:"document_type"`
	Status              valueobject.VerificationRequestStatus `json:"status"`
	AdminNotes          *string                               `json:"admin_notes,omitempty"`
	ReviewerID          *uuid.UUID                            `json:"reviewer_id,omitempty"`
	ReviewedAt          *time.Time                            `json:"reviewed_at,omitempty"`
	CreatedAt           time.Time                             `json:"created_at"`
}

func NewVerificationRequest(accountID uuid.UUID, pro valueobject.ProType, memberNumber, evidenceRef, documentType string, now time.Time) (*VerificationRequest, error) {
	if !pro.IsValid() {
		return nil, apperror.Validation("неизвестная PRO-организация")
	}
	memberNumber = strings.TrimSpace(memberNumber)
	if memberNumber == "" {
		return nil, apperror.Validation("номер участника обязателен")
	}
	if strings.TrimSpace(evidenceRef) == "" {
		return nil, apperror.Validation("подтверждающий документ обязателен")
	}

	return &VerificationRequest{
		ID:                  uuid.New(),
		AccountID:           accountID,
		ProType:             pro,
		MemberNumber:        memberNumber,
		EvidenceDocumentRef: evidenceRef,
		DocumentType:        documentType,
		Status:              valueobject.VerificationRequestPending,
		CreatedAt:           now,
	}, nil
}

// Approve фиксирует одобрение. Терминальный статус выставляется один раз.
func (r *VerificationRequest) Approve(reviewerID uuid.UUID, notes string, now time.Time) error {
	return r.review(valueobject.VerificationRequestApproved, reviewerID, notes, now)
}

func (r *VerificationRequest) Reject(reviewerID uuid.UUID, notes string, now time.Time) error {
	return r.review(valueobject.VerificationRequestRejected, reviewerID, notes, now)
}

func (r *VerificationRequest) review(target valueobject.VerificationRequestStatus, reviewerID uuid.UUID, notes string, now time.Time) error {
	if r.Status != valueobject.VerificationRequestPending {
		return apperror.InvalidTransition("verification_request", string(r.Status), string(target))
	}
	if reviewerID == uuid.Nil {
		return apperror.Validation("не указан проверяющий")
	}

	r.Status = target
	r.ReviewerID = &reviewerID
	r.ReviewedAt = &now
	if notes = strings.TrimSpace(notes); notes != "" {
		r.AdminNotes = &notes
	}
	return nil
}
