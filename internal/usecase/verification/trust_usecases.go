package verification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/beatmarket-backend/internal/validation"
)

// TrustStatus публичное представление доверия, без номеров участника PRO.
type TrustStatus struct {
	AccountID          uuid.UUID                      `json:"account_id"`
	Username           string                         `json:"username"`
	TrustScore         int                            `json:"trust_score"`
	VerificationBadge  valueobject.Badge              `json:"verification_badge"`
	IsVerified         bool                           `json:"is_verified"`
	VerificationMethod valueobject.VerificationMethod `json:"verification_method,omitempty"`
	VerificationDate   *time.Time                     `json:"verification_date,omitempty"`
}

func newTrustStatus(a *entity.Account) *TrustStatus {
	return &TrustStatus{
		AccountID:          a.ID,
		Username:           a.Username,
		TrustScore:         a.TrustScore,
		VerificationBadge:  a.VerificationBadge,
		IsVerified:         a.IsVerified,
		VerificationMethod: a.VerificationMethod,
		VerificationDate:   a.VerificationDate,
	}
}

type GetStatusUseCase struct {
	deps Deps
}

func NewGetStatusUseCase(deps Deps) *GetStatusUseCase {
	return &GetStatusUseCase{deps: deps.withDefaults()}
}

func (uc *GetStatusUseCase) Execute(ctx context.Context, accountID uuid.UUID) (*TrustStatus, error) {
	account, err := uc.deps.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return newTrustStatus(account), nil
}

type RecalculateTrustUseCase struct {
	deps Deps
}

func NewRecalculateTrustUseCase(deps Deps) *RecalculateTrustUseCase {
	return &RecalculateTrustUseCase{deps: deps.withDefaults()}
}

// Execute пересчитывает доверие по возрасту аккаунта и способу верификации и сохраняет результат.
func (uc *RecalculateTrustUseCase) Execute(ctx context.Context, accountID uuid.UUID) (*TrustStatus, error) {
	account, err := uc.deps.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	updated, result, err := uc.deps.Engine.Recalculate(account)
	if err != nil {
		return nil, err
	}
	if err := uc.deps.Accounts.Save(ctx, updated); err != nil {
		return nil, err
	}

	uc.deps.Metrics.ObserveTrustRecomputation(string(result.VerificationBadge))
	return newTrustStatus(updated), nil
}

type AdminOverrideInput struct {
	AccountID uuid.UUID
	AdminID   uuid.UUID
	Score     int
	Badge     string
	Reason    string
}

type AdminOverrideTrustUseCase struct {
	deps Deps
}

func NewAdminOverrideTrustUseCase(deps Deps) *AdminOverrideTrustUseCase {
	return &AdminOverrideTrustUseCase{deps: deps.withDefaults()}
}

// Execute ручная установка доверия. Запись аудита сохраняется в той же транзакции,
// что и аккаунт. Следующий пересчёт перекрывает ручное значение.
func (uc *AdminOverrideTrustUseCase) Execute(ctx context.Context, input AdminOverrideInput) (*entity.Account, *entity.TrustOverride, error) {
	badge, err := valueobject.NewBadge(input.Badge)
	if err != nil {
		return nil, nil, err
	}
	if err := validation.ValidateOverrideReason(input.Reason); err != nil {
		return nil, nil, apperror.Validation(err.Error())
	}

	var (
		updated *entity.Account
		audit   *entity.TrustOverride
	)
	err = uc.deps.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		account, err := uc.deps.Accounts.FindByID(ctx, input.AccountID)
		if err != nil {
			return err
		}
		updated, audit, err = uc.deps.Engine.AdminOverrideTrust(account, input.AdminID, input.Score, badge, input.Reason)
		if err != nil {
			return err
		}
		if err := uc.deps.Accounts.Save(ctx, updated); err != nil {
			return err
		}
		return uc.deps.Audits.Create(ctx, audit)
	})
	if err != nil {
		return nil, nil, err
	}

	uc.deps.Metrics.ObserveTrustOverride()
	uc.deps.Log.WithFields(logrus.Fields{
		"account_id":     audit.AccountID,
		"admin_id":       audit.AdminID,
		"previous_score": audit.PreviousScore,
		"new_score":      audit.NewScore,
		"new_badge":      audit.NewBadge,
		"reason":         audit.Reason,
	}).Warn("доверие установлено администратором вручную")
	return updated, audit, nil
}

type ListRequestsUseCase struct {
	deps Deps
}

func NewListRequestsUseCase(deps Deps) *ListRequestsUseCase {
	return &ListRequestsUseCase{deps: deps.withDefaults()}
}

func (uc *ListRequestsUseCase) Execute(ctx context.Context, filter repository.VerificationRequestFilter) ([]*entity.VerificationRequest, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperror.Validation("некорректный статус заявки")
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	return uc.deps.Requests.List(ctx, filter)
}

type ListOverridesUseCase struct {
	deps Deps
}

func NewListOverridesUseCase(deps Deps) *ListOverridesUseCase {
	return &ListOverridesUseCase{deps: deps.withDefaults()}
}

func (uc *ListOverridesUseCase) Execute(ctx context.Context, accountID uuid.UUID) ([]*entity.TrustOverride, error) {
	return uc.deps.Audits.ListByAccount(ctx, accountID)
}

// GetRequestUseCase заявка по ID для админки (просмотр документа).
type GetRequestUseCase struct {
	deps Deps
}

func NewGetRequestUseCase(deps Deps) *GetRequestUseCase {
	return &GetRequestUseCase{deps: deps.withDefaults()}
}

func (uc *GetRequestUseCase) Execute(ctx context.Context, requestID uuid.UUID) (*entity.VerificationRequest, error) {
	return uc.deps.Requests.FindByID(ctx, requestID)
}
