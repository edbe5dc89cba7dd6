package entity_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

func TestNewAccount_StartsUnverified(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	a, err := entity.NewAccount(" Producer@Example.com ", "producer", "hash", "", now)
	require.NoError(t, err)

	assert.Equal(t, "producer@example.com", a.Email)
	assert.Equal(t, valueobject.RoleUser, a.Role)
	assert.Equal(t, 0, a.TrustScore)
	assert.Equal(t, valueobject.BadgeUnverified, a.VerificationBadge)
	assert.False(t, a.IsVerified)
	assert.Equal(t, now, a.CreatedAt)

	_, err = entity.NewAccount("x@example.com", "x", "hash", valueobject.Role("root"), now)
	assert.True(t, apperror.IsValidation(err))
}

func TestAccount_MemberNumberSlots(t *testing.T) {
	a := &entity.Account{ID: uuid.New()}
	a.SetMemberNumber(valueobject.ProTypeBMI, "BMI-1")
	a.SetMemberNumber(valueobject.ProTypeASCAP, "ASCAP-9")

	require.NotNil(t, a.MemberNumber(valueobject.ProTypeBMI))
	assert.Equal(t, "BMI-1", *a.MemberNumber(valueobject.ProTypeBMI))
	assert.Equal(t, "ASCAP-9", *a.MemberNumber(valueobject.ProTypeASCAP))
	assert.Nil(t, a.MemberNumber(valueobject.ProTypeSESAC))

	clone := a.Clone()
	*clone.BMIMemberNumber = "changed"
	assert.Equal(t, "BMI-1", *a.BMIMemberNumber)
}

func TestVerificationRequest_ReviewOnce(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	req, err := entity.NewVerificationRequest(uuid.New(), valueobject.ProTypeSESAC, " 123 ", "evidence/a.pdf", "application/pdf", now)
	require.NoError(t, err)
	assert.Equal(t, "123", req.MemberNumber)
	assert.Equal(t, valueobject.VerificationRequestPending, req.Status)

	reviewer := uuid.New()
	require.NoError(t, req.Approve(reviewer, "checked with SESAC", now))
	assert.Equal(t, valueobject.VerificationRequestApproved, req.Status)
	assert.Equal(t, reviewer, *req.ReviewerID)

	err = req.Reject(reviewer, "", now)
	assert.True(t, apperror.IsInvalidTransition(err))
	assert.Equal(t, valueobject.VerificationRequestApproved, req.Status)

	_, err = entity.NewVerificationRequest(uuid.New(), valueobject.ProTypeBMI, "", "doc", "image/png", now)
	assert.True(t, apperror.IsValidation(err))
	_, err = entity.NewVerificationRequest(uuid.New(), valueobject.ProType("prs"), "1", "doc", "image/png", now)
	assert.True(t, apperror.IsValidation(err))
}
