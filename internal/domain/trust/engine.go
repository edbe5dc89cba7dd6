// Package trust вычисляет уровень доверия к участнику маркетплейса и бейдж верификации.
//
// Все функции пакета чистые: результат зависит только от снимка аккаунта и текущего
// времени, сохранение выполняет вызывающая сторона.
package trust

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

const (
	// VerificationThreshold минимальный балл, с которого аккаунт считается верифицированным.
	VerificationThreshold = 40

	MinScore = 0
	MaxScore = 100

	proBaseScore = 50
)

// Result производное состояние доверия.
type Result struct {
	TrustScore        int               `json:"trust_score"`
	VerificationBadge valueobject.Badge `json:"verification_badge"`
	IsVerified        bool              `json:"is_verified"`
}

// Engine считает доверие относительно часов now.
type Engine struct {
	now func() time.Time
}

func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// ComputeTrustScore считает балл, бейдж и флаг верификации для аккаунта.
func (e *Engine) ComputeTrustScore(account *entity.Account) (Result, error) {
	return Compute(account.CreatedAt, account.VerificationMethod, e.now())
}

// RecordVerificationApproval применяет одобренное членство в PRO и пересчитывает доверие.
// Исходный аккаунт не меняется: возвращается обновлённая копия.
func (e *Engine) RecordVerificationApproval(account *entity.Account, pro valueobject.ProType, memberNumber string) (*entity.Account, error) {
	if !pro.IsValid() {
		return nil, apperror.Validation("неизвестная PRO-организация: допустимы ascap, bmi, sesac")
	}
	memberNumber = strings.TrimSpace(memberNumber)
	if memberNumber == "" {
		return nil, apperror.Validation("номер участника обязателен")
	}

	now := e.now()
	updated := account.Clone()
	updated.VerificationMethod = pro.Method()
	updated.SetMemberNumber(pro, memberNumber)
	updated.VerificationDate = &now
	result, err := Compute(updated.CreatedAt, updated.VerificationMethod, now)
	if err != nil {
		return nil, err
	}
	Apply(updated, result)
	updated.UpdatedAt = now
	return updated, nil
}

// Recalculate возвращает копию аккаунта с актуальным производным состоянием.
// Исходный аккаунт не меняется, в том числе при ошибке.
func (e *Engine) Recalculate(account *entity.Account) (*entity.Account, Result, error) {
	result, err := e.ComputeTrustScore(account)
	if err != nil {
		return nil, Result{}, err
	}
	updated := account.Clone()
	Apply(updated, result)
	updated.UpdatedAt = e.now()
	return updated, result, nil
}

// AdminOverrideTrust ручная установка балла и бейджа администратором. Бейдж может
// не соответствовать баллу, но IsVerified всегда выводится из балла.
// Вызывающая сторона обязана сохранить возвращённую запись аудита.
func (e *Engine) AdminOverrideTrust(account *entity.Account, adminID uuid.UUID, score int, badge valueobject.Badge, reason string) (*entity.Account, *entity.TrustOverride, error) {
	if adminID == uuid.Nil {
		return nil, nil, apperror.Validation("не указан администратор")
	}
	if score < MinScore || score > MaxScore {
		return nil, nil, apperror.Validation("балл доверия должен быть в диапазоне 0..100")
	}
	if !badge.IsValid() {
		return nil, nil, apperror.Validation("некорректный бейдж верификации")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, nil, apperror.Validation("причина ручной установки обязательна")
	}

	now := e.now()
	audit := &entity.TrustOverride{
		ID:            uuid.New(),
		AccountID:     account.ID,
		AdminID:       adminID,
		PreviousScore: account.TrustScore,
		PreviousBadge: account.VerificationBadge,
		NewScore:      score,
		NewBadge:      badge,
		Reason:        reason,
		CreatedAt:     now,
	}

	updated := account.Clone()
	updated.TrustScore = score
	updated.VerificationBadge = badge
	updated.IsVerified = score >= VerificationThreshold
	updated.UpdatedAt = now
	return updated, audit, nil
}

// Compute суммирует вклад возраста аккаунта и способа верификации.
// Неизвестный способ верификации возвращается как ValidationError, а не считается нулём.
func Compute(createdAt time.Time, method valueobject.VerificationMethod, now time.Time) (Result, error) {
	if !method.IsValid() {
		return Result{}, apperror.Validation("неизвестный способ верификации: " + string(method))
	}
	score := clamp(ageContribution(AccountAgeDays(createdAt, now)) + methodContribution(method))
	return Result{
		TrustScore:        score,
		VerificationBadge: BadgeFor(score),
		IsVerified:        score >= VerificationThreshold,
	}, nil
}

// Apply переносит результат расчёта в аккаунт.
func Apply(account *entity.Account, r Result) {
	account.TrustScore = r.TrustScore
	account.VerificationBadge = r.VerificationBadge
	account.IsVerified = r.IsVerified
}

// AccountAgeDays полных суток с момента регистрации; дата из будущего даёт ноль.
func AccountAgeDays(createdAt, now time.Time) int {
	if createdAt.After(now) {
		return 0
	}
	return int(now.Sub(createdAt) / (24 * time.Hour))
}

// BadgeFor ступенчатая функция балла, пороги проверяются от старшего.
func BadgeFor(score int) valueobject.Badge {
	switch {
	case score >= 80:
		return valueobject.BadgeElite
	case score >= 60:
		return valueobject.BadgePremium
	case score >= VerificationThreshold:
		return valueobject.BadgeVerified
	default:
		return valueobject.BadgeUnverified
	}
}

func ageContribution(days int) int {
	switch {
	case days > 365:
		return 20
	case days > 180:
		return 15
	case days > 90:
		return 10
	case days > 30:
		return 5
	default:
		return 0
	}
}

// PRO-членство и ручные способы взаимоисключающие: для PRO фиксированная база без надбавок.
func methodContribution(method valueobject.VerificationMethod) int {
	switch method {
	case valueobject.VerificationMethodIdentity:
		return 30
	case valueobject.VerificationMethodPortfolio:
		return 20
	case valueobject.VerificationMethodReferences:
		return 10
	}
	if method.IsPRO() {
		return proBaseScore
	}
	return 0
}

func clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
