package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

func TestEscrowStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to EscrowStatus
		allowed  bool
	}{
		{EscrowStatusPending, EscrowStatusHeld, true},
		{EscrowStatusPending, EscrowStatusReleased, false},
		{EscrowStatusHeld, EscrowStatusReleased, true},
		{EscrowStatusHeld, EscrowStatusRefunded, true},
		{EscrowStatusReleased, EscrowStatusRefunded, false},
		{EscrowStatusRefunded, EscrowStatusReleased, false},
		{EscrowStatusReleased, EscrowStatusHeld, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, EscrowStatusReleased.IsTerminal())
	assert.True(t, EscrowStatusRefunded.IsTerminal())
	assert.False(t, EscrowStatusHeld.IsTerminal())
}

func TestDisputeStatus_Transitions(t *testing.T) {
	assert.True(t, DisputeStatusOpen.CanTransitionTo(DisputeStatusUnderReview))
	assert.True(t, DisputeStatusOpen.CanTransitionTo(DisputeStatusResolved))
	assert.True(t, DisputeStatusUnderReview.CanTransitionTo(DisputeStatusResolved))
	assert.True(t, DisputeStatusResolved.CanTransitionTo(DisputeStatusClosed))

	assert.False(t, DisputeStatusOpen.CanTransitionTo(DisputeStatusClosed))
	assert.False(t, DisputeStatusResolved.CanTransitionTo(DisputeStatusResolved))
	assert.False(t, DisputeStatusClosed.CanTransitionTo(DisputeStatusOpen))

	assert.True(t, DisputeStatusUnderReview.IsActive())
	assert.False(t, DisputeStatusResolved.IsActive())
}

func TestEscrowAction_Target(t *testing.T) {
	target, err := EscrowActionRelease.Target()
	require.NoError(t, err)
	assert.Equal(t, EscrowStatusReleased, target)

	target, err = EscrowActionRefund.Target()
	require.NoError(t, err)
	assert.Equal(t, EscrowStatusRefunded, target)

	_, err = EscrowAction("cancel").Target()
	assert.True(t, apperror.IsValidation(err))
}

func TestNewDisputeType(t *testing.T) {
	for _, raw := range []string{"copyright", "quality", "delivery", "refund"} {
		got, err := NewDisputeType(raw)
		require.NoError(t, err)
		assert.Equal(t, DisputeType(raw), got)
	}

	_, err := NewDisputeType("fraud")
	assert.True(t, apperror.IsValidation(err))
}

func TestNewDisputeOutcome_DefaultsToNone(t *testing.T) {
	got, err := NewDisputeOutcome("")
	require.NoError(t, err)
	assert.Equal(t, DisputeOutcomeNone, got)

	_, err = NewDisputeOutcome("both")
	assert.Error(t, err)
}

func TestNewProType_NormalizesCase(t *testing.T) {
	got, err := NewProType(" BMI ")
	require.NoError(t, err)
	assert.Equal(t, ProTypeBMI, got)
	assert.True(t, got.Method().IsPRO())

	_, err = NewProType("gema")
	assert.True(t, apperror.IsValidation(err))
}

func TestVerificationMethod(t *testing.T) {
	assert.False(t, VerificationMethodIdentity.IsPRO())
	assert.True(t, VerificationMethodSESAC.IsPRO())

	m, err := NewVerificationMethod("none")
	require.NoError(t, err)
	assert.Equal(t, VerificationMethodNone, m)

	_, err = NewVerificationMethod("passport")
	assert.Error(t, err)
}

func TestQualifiesForEscrow(t *testing.T) {
	below, err := NewAmount("99.99")
	require.NoError(t, err)
	exact, err := NewAmount("100.00")
	require.NoError(t, err)

	assert.False(t, QualifiesForEscrow(below))
	assert.True(t, QualifiesForEscrow(exact))
	assert.True(t, QualifiesForEscrow(decimal.NewFromInt(250)))

	_, err = NewAmount("-5")
	assert.True(t, apperror.IsValidation(err))
	_, err = NewAmount("abc")
	assert.True(t, apperror.IsValidation(err))
}
