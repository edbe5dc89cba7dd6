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

var disputeNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newOpenDispute(t *testing.T) *entity.Dispute {
	t.Helper()
	d, err := entity.NewDispute(uuid.New(), uuid.New(), uuid.New(), valueobject.DisputeTypeQuality, "mix is clipping", nil, disputeNow)
	require.NoError(t, err)
	return d
}

func TestNewDispute_Validation(t *testing.T) {
	purchase, a, b := uuid.New(), uuid.New(), uuid.New()

	_, err := entity.NewDispute(purchase, a, b, valueobject.DisputeType("fraud"), "text", nil, disputeNow)
	assert.True(t, apperror.IsValidation(err))

	_, err = entity.NewDispute(purchase, a, b, valueobject.DisputeTypeDelivery, "   ", nil, disputeNow)
	assert.True(t, apperror.IsValidation(err))

	_, err = entity.NewDispute(purchase, a, a, valueobject.DisputeTypeDelivery, "text", nil, disputeNow)
	assert.True(t, apperror.IsValidation(err))

	blank := " "
	d, err := entity.NewDispute(purchase, a, b, valueobject.DisputeTypeCopyright, "sample not cleared", &blank, disputeNow)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DisputeStatusOpen, d.Status)
	assert.Nil(t, d.Evidence)
}

func TestDispute_ResolveFromOpenAndUnderReview(t *testing.T) {
	admin := uuid.New()

	d := newOpenDispute(t)
	require.NoError(t, d.Resolve("refund issued", admin, disputeNow.Add(time.Hour)))
	assert.Equal(t, valueobject.DisputeStatusResolved, d.Status)

	d = newOpenDispute(t)
	require.NoError(t, d.StartReview(disputeNow))
	resolvedAt := disputeNow.Add(2 * time.Hour)
	require.NoError(t, d.Resolve("seller keeps funds", admin, resolvedAt))

	require.NotNil(t, d.Resolution)
	require.NotNil(t, d.ResolvedBy)
	assert.Equal(t, "seller keeps funds", *d.Resolution)
	assert.Equal(t, admin, *d.ResolvedBy)
	assert.Equal(t, resolvedAt, *d.ResolvedAt)
	assert.Equal(t, resolvedAt, d.UpdatedAt)
}

func TestDispute_EmptyResolutionLeavesStateUnchanged(t *testing.T) {
	d := newOpenDispute(t)
	require.NoError(t, d.StartReview(disputeNow))
	snapshot := d.Clone()

	err := d.Resolve("  ", uuid.New(), disputeNow.Add(time.Hour))
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, snapshot, d)
	assert.Equal(t, valueobject.DisputeStatusUnderReview, d.Status)

	err = d.Resolve("ok", uuid.Nil, disputeNow.Add(time.Hour))
	assert.True(t, apperror.IsValidation(err))
	assert.Nil(t, d.Resolution)
	assert.Nil(t, d.ResolvedBy)
}

func TestDispute_DoubleResolve(t *testing.T) {
	d := newOpenDispute(t)
	require.NoError(t, d.Resolve("first", uuid.New(), disputeNow))
	snapshot := d.Clone()

	err := d.Resolve("second", uuid.New(), disputeNow.Add(time.Hour))
	assert.True(t, apperror.IsInvalidTransition(err))
	assert.Equal(t, snapshot, d)
}

func TestDispute_Close(t *testing.T) {
	d := newOpenDispute(t)
	assert.True(t, apperror.IsInvalidTransition(d.Close(disputeNow)))

	require.NoError(t, d.Resolve("done", uuid.New(), disputeNow))
	require.NoError(t, d.Close(disputeNow.Add(time.Minute)))
	assert.Equal(t, valueobject.DisputeStatusClosed, d.Status)

	assert.True(t, apperror.IsInvalidTransition(d.StartReview(disputeNow)))
}
