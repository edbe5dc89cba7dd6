package valueobject

import (
	"strings"

	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

// VerificationMethod способ верификации аккаунта. Пустое значение означает отсутствие верификации.
type VerificationMethod string

const (
	VerificationMethodNone       VerificationMethod = ""
	VerificationMethodIdentity   VerificationMethod = "identity"
	VerificationMethodPortfolio  VerificationMethod = "portfolio"
	VerificationMethodReferences VerificationMethod = "references"
	VerificationMethodASCAP      VerificationMethod = "ascap"
	VerificationMethodBMI        VerificationMethod = "bmi"
	VerificationMethodSESAC      VerificationMethod = "sesac"
)

func (m VerificationMethod) IsValid() bool {
	switch m {
	case VerificationMethodNone, VerificationMethodIdentity, VerificationMethodPortfolio,
		VerificationMethodReferences, VerificationMethodASCAP, VerificationMethodBMI, VerificationMethodSESAC:
		return true
	}
	return false
}

// IsPRO сообщает, что метод является членством в PRO-организации.
func (m VerificationMethod) IsPRO() bool {
	return ProType(m).IsValid()
}

func NewVerificationMethod(raw string) (VerificationMethod, error) {
	m := VerificationMethod(strings.ToLower(strings.TrimSpace(raw)))
	if m == "none" {
		return VerificationMethodNone, nil
	}
	if !m.IsValid() {
		return "", apperror.Validation("некорректный способ верификации")
	}
	return m, nil
}

// ProType организация по защите исполнительских прав (ASCAP, BMI, SESAC).
type ProType string

const (
	ProTypeASCAP ProType = "ascap"
	ProTypeBMI   ProType = "bmi"
	ProTypeSESAC ProType = "sesac"
)

func (p ProType) IsValid() bool {
	switch p {
	case ProTypeASCAP, ProTypeBMI, ProTypeSESAC:
		return true
	}
	return false
}

func (p ProType) Method() VerificationMethod {
	return VerificationMethod(p)
}

// NewProType нормализует регистр, как это делали клиенты исторически ("BMI" == "bmi").
func NewProType(raw string) (ProType, error) {
	p := ProType(strings.ToLower(strings.TrimSpace(raw)))
	if !p.IsValid() {
		return "", apperror.Validation("неизвестная PRO-организация: допустимы ascap, bmi, sesac")
	}
	return p, nil
}

type Badge string

const (
	BadgeUnverified Badge = "unverified"
	BadgeVerified   Badge = "verified"
	BadgePremium    Badge = "premium"
	BadgeElite      Badge = "elite"
)

func (b Badge) IsValid() bool {
	switch b {
	case BadgeUnverified, BadgeVerified, BadgePremium, BadgeElite:
		return true
	}
	return false
}

func NewBadge(raw string) (Badge, error) {
	b := Badge(raw)
	if !b.IsValid() {
		return "", apperror.Validation("некорректный бейдж верификации")
	}
	return b, nil
}

type Role string

const (
	RoleUser     Role = "user"
	RoleProducer Role = "producer"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleProducer, RoleAdmin:
		return true
	}
	return false
}
