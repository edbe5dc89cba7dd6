package verification

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/beatmarket-backend/internal/validation"
)

type SubmitRequestInput struct {
	AccountID    uuid.UUID
	ProType      string
	MemberNumber string
	EvidenceRef  string
	DocumentType string
}

type SubmitRequestUseCase struct {
	deps Deps
}

func NewSubmitRequestUseCase(deps Deps) *SubmitRequestUseCase {
	return &SubmitRequestUseCase{deps: deps.withDefaults()}
}

// Execute создаёт pending-заявку. Вторая pending-заявка на ту же PRO отклоняется с Conflict.
func (uc *SubmitRequestUseCase) Execute(ctx context.Context, input SubmitRequestInput) (*entity.VerificationRequest, error) {
	pro, err := valueobject.NewProType(input.ProType)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateMemberNumber(input.MemberNumber); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	if _, err := uc.deps.Accounts.FindByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	existing, err := uc.deps.Requests.FindPending(ctx, input.AccountID, pro)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "заявка на верификацию в "+string(pro)+" уже ожидает проверки")
	}

	req, err := entity.NewVerificationRequest(input.AccountID, pro, input.MemberNumber, input.EvidenceRef, input.DocumentType, uc.deps.Now())
	if err != nil {
		return nil, err
	}

	if err := uc.deps.Requests.Create(ctx, req); err != nil {
		return nil, err
	}

	uc.deps.Metrics.ObserveVerificationRequest(string(valueobject.VerificationRequestPending))
	uc.deps.Log.WithFields(logrus.Fields{
		"account_id": req.AccountID,
		"request_id": req.ID,
		"pro_type":   req.ProType,
	}).Info("заявка на PRO-верификацию создана")
	return req, nil
}
