package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

// Account участник маркетплейса, для которого считается уровень доверия.
type Account struct {
	ID                 uuid.UUID                      `json:"id"`
	Email              string                         `json:"email"`
	Username           string                         `json:"username"`
	PasswordHash       string                         `json:"-"`
	Role               valueobject.Role               `json:"role"`
	VerificationMethod valueobject.VerificationMethod `json:"verification_method,omitempty"`
	VerificationDate   *time.Time                     `json:"verification_date,omitempty"`
	ASCAPMemberNumber  *string                        `json:"ascap_member_number,omitempty"`
	BMIMemberNumber    *string                        `json:"bmi_member_number,omitempty"`
	SESACMemberNumber  *string                        `json:"sesac_member_number,omitempty"`
	TrustScore         int                            `json:"trust_score"`
	VerificationBadge  valueobject.Badge              `json:"verification_badge"`
	IsVerified         bool                           `json:"is_verified"`
	CreatedAt          time.Time                      `json:"created_at"`
	UpdatedAt          time.Time                      `json:"updated_at"`
}

// NewAccount создаёт аккаунт в начальном состоянии доверия: 0 баллов, без бейджа.
func NewAccount(email, username, passwordHash string, role valueobject.Role, now time.Time) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperror.Validation("email обязателен")
	}
	if strings.TrimSpace(username) == "" {
		return nil, apperror.Validation("имя пользователя обязательно")
	}
	if role == "" {
		role = valueobject.RoleUser
	}
	if !role.IsValid() {
		return nil, apperror.Validation("некорректная роль")
	}

	return &Account{
		ID:                uuid.New(),
		Email:             email,
		Username:          username,
		PasswordHash:      passwordHash,
		Role:              role,
		TrustScore:        0,
		VerificationBadge: valueobject.BadgeUnverified,
		IsVerified:        false,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func (a *Account) IsAdmin() bool {
	return a.Role == valueobject.RoleAdmin
}

// MemberNumber возвращает номер участника для указанной PRO-организации.
func (a *Account) MemberNumber(pro valueobject.ProType) *string {
	switch pro {
	case valueobject.ProTypeASCAP:
		return a.ASCAPMemberNumber
	case valueobject.ProTypeBMI:
		return a.BMIMemberNumber
	case valueobject.ProTypeSESAC:
		return a.SESACMemberNumber
	}
	return nil
}

// SetMemberNumber записывает номер в слот своей PRO. Остальные слоты не трогаются.
func (a *Account) SetMemberNumber(pro valueobject.ProType, number string) {
	n := number
	switch pro {
	case valueobject.ProTypeASCAP:
		a.ASCAPMemberNumber = &n
	case valueobject.ProTypeBMI:
		a.BMIMemberNumber = &n
	case valueobject.ProTypeSESAC:
		a.SESACMemberNumber = &n
	}
}

// Clone возвращает копию, которую можно менять без влияния на исходный снимок.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.VerificationDate = cloneTime(a.VerificationDate)
	c.ASCAPMemberNumber = cloneString(a.ASCAPMemberNumber)
	c.BMIMemberNumber = cloneString(a.BMIMemberNumber)
	c.SESACMemberNumber = cloneString(a.SESACMemberNumber)
	return &c
}

// TrustOverride запись аудита ручной установки доверия администратором.
type TrustOverride struct {
	ID            uuid.UUID         `json:"id"`
	AccountID     uuid.UUID         `json:"account_id"`
	AdminID       uuid.UUID         `json:"admin_id"`
	PreviousScore int               `json:"previous_score"`
	PreviousBadge valueobject.Badge `json:"previous_badge"`
	NewScore      int               `json:"new_score"`
	NewBadge      valueobject.Badge `json:"new_badge"`
	Reason        string            `json:"reason"`
	CreatedAt     time.Time         `json:"created_at"`
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
