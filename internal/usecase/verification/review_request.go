package verification

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
)

type ApproveResult struct {
	Request *entity.VerificationRequest `json:"request"`
	Account *entity.Account             `json:"account"`
}

type ApproveRequestUseCase struct {
	deps Deps
}

func NewApproveRequestUseCase(deps Deps) *ApproveRequestUseCase {
	return &ApproveRequestUseCase{deps: deps.withDefaults()}
}

// Execute одобряет заявку и в той же транзакции применяет верификацию к аккаунту.
func (uc *ApproveRequestUseCase) Execute(ctx context.Context, requestID, reviewerID uuid.UUID, notes string) (*ApproveResult, error) {
	var result ApproveResult

	err := uc.deps.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		req, err := uc.deps.Requests.FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		if err := req.Approve(reviewerID, notes, uc.deps.Now()); err != nil {
			return err
		}

		account, err := uc.deps.Accounts.FindByID(ctx, req.AccountID)
		if err != nil {
			return err
		}
		updated, err := uc.deps.Engine.RecordVerificationApproval(account, req.ProType, req.MemberNumber)
		if err != nil {
			return err
		}

		if err := uc.deps.Requests.UpdateStatus(ctx, req, valueobject.VerificationRequestPending); err != nil {
			return err
		}
		if err := uc.deps.Accounts.Save(ctx, updated); err != nil {
			return err
		}

		result = ApproveResult{Request: req, Account: updated}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.deps.Metrics.ObserveVerificationRequest(string(valueobject.VerificationRequestApproved))
	uc.deps.Metrics.ObserveTrustRecomputation(string(result.Account.VerificationBadge))
	uc.deps.Log.WithFields(logrus.Fields{
		"account_id":  result.Account.ID,
		"request_id":  result.Request.ID,
		"reviewer_id": reviewerID,
		"trust_score": result.Account.TrustScore,
	}).Info("PRO-верификация одобрена")

	uc.deps.notify(ctx, repository.Notification{
		Event:      repository.EventProducerVerified,
		Recipients: []uuid.UUID{result.Account.ID},
		Payload: map[string]interface{}{
			"pro_type":           result.Request.ProType,
			"trust_score":        result.Account.TrustScore,
			"verification_badge": result.Account.VerificationBadge,
			"is_verified":        result.Account.IsVerified,
		},
		OccurredAt: uc.deps.Now(),
	})
	return &result, nil
}

type RejectRequestUseCase struct {
	deps Deps
}

func NewRejectRequestUseCase(deps Deps) *RejectRequestUseCase {
	return &RejectRequestUseCase{deps: deps.withDefaults()}
}

// Execute отклоняет заявку. Аккаунт не меняется.
func (uc *RejectRequestUseCase) Execute(ctx context.Context, requestID, reviewerID uuid.UUID, notes string) (*entity.VerificationRequest, error) {
	req, err := uc.deps.Requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := req.Reject(reviewerID, notes, uc.deps.Now()); err != nil {
		return nil, err
	}
	if err := uc.deps.Requests.UpdateStatus(ctx, req, valueobject.VerificationRequestPending); err != nil {
		return nil, err
	}

	uc.deps.Metrics.ObserveVerificationRequest(string(valueobject.VerificationRequestRejected))
	uc.deps.Log.WithFields(logrus.Fields{
		"request_id":  req.ID,
		"reviewer_id": reviewerID,
	}).Info("PRO-верификация отклонена")
	return req, nil
}
