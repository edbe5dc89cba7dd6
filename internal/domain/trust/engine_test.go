package trust

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

var fixedNow = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func daysAgo(n int) time.Time {
	return fixedNow.Add(-time.Duration(n) * 24 * time.Hour)
}

func TestCompute_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		createdAt  time.Time
		method     valueobject.VerificationMethod
		wantScore  int
		wantBadge  valueobject.Badge
		wantVerify bool
	}{
		{"age and identity", daysAgo(400), valueobject.VerificationMethodIdentity, 50, valueobject.BadgeVerified, true},
		{"age and PRO", daysAgo(40), valueobject.VerificationMethodBMI, 55, valueobject.BadgeVerified, true},
		{"new unverified", fixedNow, valueobject.VerificationMethodNone, 0, valueobject.BadgeUnverified, false},
		{"old account only", daysAgo(1000), valueobject.VerificationMethodNone, 20, valueobject.BadgeUnverified, false},
		{"old PRO member", daysAgo(366), valueobject.VerificationMethodASCAP, 70, valueobject.BadgePremium, true},
		{"portfolio half year", daysAgo(181), valueobject.VerificationMethodPortfolio, 35, valueobject.BadgeUnverified, false},
		{"references quarter", daysAgo(91), valueobject.VerificationMethodReferences, 20, valueobject.BadgeUnverified, false},
		{"sesac young", daysAgo(10), valueobject.VerificationMethodSESAC, 50, valueobject.BadgeVerified, true},
		{"future created at", fixedNow.Add(72 * time.Hour), valueobject.VerificationMethodIdentity, 30, valueobject.BadgeUnverified, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.createdAt, tt.method, fixedNow)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, got.TrustScore)
			assert.Equal(t, tt.wantBadge, got.VerificationBadge)
			assert.Equal(t, tt.wantVerify, got.IsVerified)
		})
	}
}

func TestAgeBands_AreExclusiveAndStrict(t *testing.T) {
	tests := []struct {
		days int
		want int
	}{
		{0, 0}, {30, 0}, {31, 5}, {90, 5}, {91, 10}, {180, 10}, {181, 15}, {365, 15}, {366, 20}, {5000, 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ageContribution(tt.days), "days=%d", tt.days)
	}
}

func TestCompute_UnknownMethodIsValidationError(t *testing.T) {
	for _, method := range []valueobject.VerificationMethod{"passport", "BMI", " bmi"} {
		got, err := Compute(daysAgo(400), method, fixedNow)
		assert.True(t, apperror.IsValidation(err), "method=%q", method)
		assert.Equal(t, Result{}, got)
	}
}

func TestRecalculate_UnknownMethodLeavesAccountUntouched(t *testing.T) {
	engine := NewEngine(fixedClock)
	account := &entity.Account{
		ID:                 uuid.New(),
		CreatedAt:          daysAgo(400),
		VerificationMethod: valueobject.VerificationMethod("passport"),
		TrustScore:         70,
		VerificationBadge:  valueobject.BadgePremium,
		IsVerified:         true,
	}

	updated, _, err := engine.Recalculate(account)
	assert.True(t, apperror.IsValidation(err))
	assert.Nil(t, updated)
	assert.Equal(t, 70, account.TrustScore)
	assert.Equal(t, valueobject.BadgePremium, account.VerificationBadge)
}

func TestAccountAgeDays_FloorsPartialDays(t *testing.T) {
	assert.Equal(t, 30, AccountAgeDays(fixedNow.Add(-(30*24*time.Hour + 23*time.Hour)), fixedNow))
	assert.Equal(t, 0, AccountAgeDays(fixedNow.Add(time.Hour), fixedNow))
}

func TestBadgeFor_IsStepFunction(t *testing.T) {
	prev := valueobject.BadgeUnverified
	rank := map[valueobject.Badge]int{
		valueobject.BadgeUnverified: 0,
		valueobject.BadgeVerified:   1,
		valueobject.BadgePremium:    2,
		valueobject.BadgeElite:      3,
	}
	for score := MinScore; score <= MaxScore; score++ {
		badge := BadgeFor(score)
		assert.Equal(t, badge, BadgeFor(score))
		assert.GreaterOrEqual(t, rank[badge], rank[prev], "score=%d", score)
		assert.Equal(t, score >= VerificationThreshold, badge != valueobject.BadgeUnverified, "score=%d", score)
		prev = badge
	}

	assert.Equal(t, valueobject.BadgeVerified, BadgeFor(40))
	assert.Equal(t, valueobject.BadgeUnverified, BadgeFor(39))
	assert.Equal(t, valueobject.BadgePremium, BadgeFor(60))
	assert.Equal(t, valueobject.BadgeElite, BadgeFor(80))
}

func TestCompute_IsDeterministic(t *testing.T) {
	created := daysAgo(200)
	first, err := Compute(created, valueobject.VerificationMethodPortfolio, fixedNow)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		got, err := Compute(created, valueobject.VerificationMethodPortfolio, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestIsVerified_MatchesThresholdForEveryInput(t *testing.T) {
	methods := []valueobject.VerificationMethod{
		valueobject.VerificationMethodNone, valueobject.VerificationMethodIdentity, valueobject.VerificationMethodPortfolio,
		valueobject.VerificationMethodReferences, valueobject.VerificationMethodASCAP,
	}
	for _, m := range methods {
		for _, days := range []int{0, 31, 91, 181, 366} {
			r, err := Compute(daysAgo(days), m, fixedNow)
			require.NoError(t, err)
			assert.Equal(t, r.TrustScore >= VerificationThreshold, r.IsVerified)
			assert.GreaterOrEqual(t, r.TrustScore, MinScore)
			assert.LessOrEqual(t, r.TrustScore, MaxScore)
		}
	}
}

func TestRecordVerificationApproval(t *testing.T) {
	engine := NewEngine(fixedClock)
	account := &entity.Account{
		ID:                 uuid.New(),
		CreatedAt:          daysAgo(40),
		VerificationMethod: valueobject.VerificationMethodIdentity,
		VerificationBadge:  valueobject.BadgeUnverified,
	}

	updated, err := engine.RecordVerificationApproval(account, valueobject.ProTypeBMI, " 555-01 ")
	require.NoError(t, err)

	assert.Equal(t, valueobject.VerificationMethodBMI, updated.VerificationMethod)
	require.NotNil(t, updated.BMIMemberNumber)
	assert.Equal(t, "555-01", *updated.BMIMemberNumber)
	require.NotNil(t, updated.VerificationDate)
	assert.Equal(t, fixedNow, *updated.VerificationDate)
	assert.Equal(t, 55, updated.TrustScore)
	assert.Equal(t, valueobject.BadgeVerified, updated.VerificationBadge)
	assert.True(t, updated.IsVerified)

	assert.Equal(t, valueobject.VerificationMethodIdentity, account.VerificationMethod)
	assert.Nil(t, account.BMIMemberNumber)
}

func TestRecordVerificationApproval_IsIdempotent(t *testing.T) {
	engine := NewEngine(fixedClock)
	account := &entity.Account{ID: uuid.New(), CreatedAt: daysAgo(200)}

	first, err := engine.RecordVerificationApproval(account, valueobject.ProTypeASCAP, "A-1")
	require.NoError(t, err)
	second, err := engine.RecordVerificationApproval(first, valueobject.ProTypeASCAP, "A-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRecordVerificationApproval_LatestProWins(t *testing.T) {
	engine := NewEngine(fixedClock)
	account := &entity.Account{ID: uuid.New(), CreatedAt: daysAgo(10)}

	withBMI, err := engine.RecordVerificationApproval(account, valueobject.ProTypeBMI, "B-1")
	require.NoError(t, err)
	withSESAC, err := engine.RecordVerificationApproval(withBMI, valueobject.ProTypeSESAC, "S-1")
	require.NoError(t, err)

	assert.Equal(t, valueobject.VerificationMethodSESAC, withSESAC.VerificationMethod)
	assert.Equal(t, "B-1", *withSESAC.BMIMemberNumber)
	assert.Equal(t, "S-1", *withSESAC.SESACMemberNumber)
}

func TestRecordVerificationApproval_Validation(t *testing.T) {
	engine := NewEngine(fixedClock)
	account := &entity.Account{ID: uuid.New(), CreatedAt: daysAgo(10)}

	_, err := engine.RecordVerificationApproval(account, valueobject.ProType("identity"), "1")
	assert.True(t, apperror.IsValidation(err))

	_, err = engine.RecordVerificationApproval(account, valueobject.ProTypeBMI, "  ")
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, valueobject.VerificationMethodNone, account.VerificationMethod)
}

func TestAdminOverrideTrust(t *testing.T) {
	engine := NewEngine(fixedClock)
	admin := uuid.New()
	account := &entity.Account{ID: uuid.New(), CreatedAt: daysAgo(10), TrustScore: 0, VerificationBadge: valueobject.BadgeUnverified}

	updated, audit, err := engine.AdminOverrideTrust(account, admin, 35, valueobject.BadgeElite, "label partner")
	require.NoError(t, err)

	assert.Equal(t, 35, updated.TrustScore)
	assert.Equal(t, valueobject.BadgeElite, updated.VerificationBadge)
	assert.False(t, updated.IsVerified)
	assert.Equal(t, admin, audit.AdminID)
	assert.Equal(t, 0, audit.PreviousScore)
	assert.Equal(t, valueobject.BadgeUnverified, audit.PreviousBadge)
	assert.Equal(t, fixedNow, audit.CreatedAt)

	recalculated, result, err := engine.Recalculate(updated)
	require.NoError(t, err)
	assert.Equal(t, 0, result.TrustScore)
	assert.Equal(t, valueobject.BadgeUnverified, recalculated.VerificationBadge)
}

func TestAdminOverrideTrust_Validation(t *testing.T) {
	engine := NewEngine(fixedClock)
	account := &entity.Account{ID: uuid.New()}

	_, _, err := engine.AdminOverrideTrust(account, uuid.New(), 101, valueobject.BadgeElite, "x")
	assert.True(t, apperror.IsValidation(err))
	_, _, err = engine.AdminOverrideTrust(account, uuid.New(), 50, valueobject.Badge("gold"), "x")
	assert.True(t, apperror.IsValidation(err))
	_, _, err = engine.AdminOverrideTrust(account, uuid.New(), 50, valueobject.BadgeVerified, " ")
	assert.True(t, apperror.IsValidation(err))
	_, _, err = engine.AdminOverrideTrust(account, uuid.Nil, 50, valueobject.BadgeVerified, "x")
	assert.True(t, apperror.IsValidation(err))
}
