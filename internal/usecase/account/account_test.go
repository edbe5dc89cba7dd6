package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/infrastructure/persistence/memory"
	"github.com/ignatzorin/beatmarket-backend/internal/logger"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/beatmarket-backend/internal/service"
	"github.com/ignatzorin/beatmarket-backend/internal/usecase/account"
)

var now = time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

const password = "Secret123"

func newDeps() (account.Deps, *memory.Store) {
	store := memory.NewStore()
	tokens := service.NewTokenManager("access", "refresh", time.Minute, time.Hour).
		WithClock(func() time.Time { return now })
	return account.Deps{
		Accounts:   store.Accounts(),
		Requests:   store.Requests(),
		Escrows:    store.Escrows(),
		Tx:         store.Transactor(),
		Tokens:     tokens,
		Log:        logger.Discard(),
		Now:        func() time.Time { return now },
		BcryptCost: bcrypt.MinCost,
	}, store
}

func register(t *testing.T, deps account.Deps, email, role string) *account.AuthResult {
	t.Helper()
	res, err := account.NewRegisterUseCase(deps).Execute(context.Background(), account.RegisterInput{
		Email:    email,
		Password: password,
		Username: "beat_maker",
		Role:     role,
	})
	require.NoError(t, err)
	return res
}

func TestRegister_StartsWithZeroTrust(t *testing.T) {
	deps, _ := newDeps()
	res := register(t, deps, " Producer@Example.com ", "producer")

	assert.Equal(t, "producer@example.com", res.Account.Email)
	assert.Equal(t, valueobject.RoleProducer, res.Account.Role)
	assert.Equal(t, 0, res.Account.TrustScore)
	assert.Equal(t, valueobject.BadgeUnverified, res.Account.VerificationBadge)
	assert.False(t, res.Account.IsVerified)
	assert.NotEqual(t, password, res.Account.PasswordHash)
	assert.NotEmpty(t, res.Tokens.AccessToken)

	accountID, role, err := deps.Tokens.ParseAccess(res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.Account.ID, accountID)
	assert.Equal(t, "producer", role)
}

func TestRegister_Validation(t *testing.T) {
	deps, _ := newDeps()
	uc := account.NewRegisterUseCase(deps)

	tests := []struct {
		name  string
		input account.RegisterInput
	}{
		{"bad email", account.RegisterInput{Email: "nope", Password: password, Username: "beat_maker"}},
		{"weak password", account.RegisterInput{Email: "a@example.com", Password: "secret", Username: "beat_maker"}},
		{"bad username", account.RegisterInput{Email: "a@example.com", Password: password, Username: "x"}},
		{"admin role", account.RegisterInput{Email: "a@example.com", Password: password, Username: "beat_maker", Role: "admin"}},
		{"unknown role", account.RegisterInput{Email: "a@example.com", Password: password, Username: "beat_maker", Role: "label"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tt.input)
			assert.True(t, apperror.IsValidation(err), "%v", err)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	deps, _ := newDeps()
	register(t, deps, "producer@example.com", "")

	_, err := account.NewRegisterUseCase(deps).Execute(context.Background(), account.RegisterInput{
		Email: "PRODUCER@example.com", Password: password, Username: "other_one",
	})
	assert.True(t, apperror.IsConflict(err))
}

func TestLogin(t *testing.T) {
	deps, _ := newDeps()
	registered := register(t, deps, "producer@example.com", "")
	uc := account.NewLoginUseCase(deps)

	res, err := uc.Execute(context.Background(), "producer@example.com", password)
	require.NoError(t, err)
	assert.Equal(t, registered.Account.ID, res.Account.ID)

	_, err = uc.Execute(context.Background(), "producer@example.com", "Wrong1234")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = uc.Execute(context.Background(), "ghost@example.com", password)
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	deps, store := newDeps()
	registered := register(t, deps, "producer@example.com", "")
	uc := account.NewRefreshUseCase(deps)

	pair, err := uc.Execute(context.Background(), registered.Tokens.RefreshToken)
	require.NoError(t, err)
	accountID, _, err := deps.Tokens.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.Account.ID, accountID)

	_, err = uc.Execute(context.Background(), registered.Tokens.AccessToken)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.ErrCodeUnauthorized, appErr.Code)

	require.NoError(t, store.Accounts().Delete(context.Background(), registered.Account.ID))
	_, err = uc.Execute(context.Background(), registered.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func deleteInput(id uuid.UUID) account.DeleteAccountInput {
	return account.DeleteAccountInput{
		AccountID:        id,
		Password:         password,
		ConfirmationText: account.DeleteConfirmation,
		Reason:           "leaving the marketplace",
	}
}

func TestDeleteAccount_Succeeds(t *testing.T) {
	deps, store := newDeps()
	registered := register(t, deps, "producer@example.com", "")

	require.NoError(t, account.NewDeleteAccountUseCase(deps).Execute(context.Background(), deleteInput(registered.Account.ID)))

	_, err := store.Accounts().FindByID(context.Background(), registered.Account.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDeleteAccount_Guards(t *testing.T) {
	deps, _ := newDeps()
	registered := register(t, deps, "producer@example.com", "")
	uc := account.NewDeleteAccountUseCase(deps)

	in := deleteInput(registered.Account.ID)
	in.ConfirmationText = "delete my account permanently"
	assert.True(t, apperror.IsValidation(uc.Execute(context.Background(), in)))

	in = deleteInput(registered.Account.ID)
	in.Reason = "bye"
	assert.True(t, apperror.IsValidation(uc.Execute(context.Background(), in)))

	in = deleteInput(registered.Account.ID)
	in.Password = "Wrong1234"
	assert.ErrorIs(t, uc.Execute(context.Background(), in), apperror.ErrInvalidCredentials)

	assert.True(t, apperror.IsNotFound(uc.Execute(context.Background(), deleteInput(uuid.New()))))
}

func TestDeleteAccount_AdminCannotSelfDelete(t *testing.T) {
	deps, store := newDeps()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	admin, err := entity.NewAccount("admin@example.com", "admin", string(hash), valueobject.RoleAdmin, now)
	require.NoError(t, err)
	require.NoError(t, store.Accounts().Create(context.Background(), admin))

	err = account.NewDeleteAccountUseCase(deps).Execute(context.Background(), deleteInput(admin.ID))
	assert.True(t, apperror.IsForbidden(err))
}

func TestDeleteAccount_PendingRequestBlocks(t *testing.T) {
	deps, store := newDeps()
	registered := register(t, deps, "producer@example.com", "producer")

	req, err := entity.NewVerificationRequest(registered.Account.ID, valueobject.ProTypeBMI, "B-1", "evidence/b.pdf", "application/pdf", now)
	require.NoError(t, err)
	require.NoError(t, store.Requests().Create(context.Background(), req))

	err = account.NewDeleteAccountUseCase(deps).Execute(context.Background(), deleteInput(registered.Account.ID))
	require.True(t, apperror.IsConflict(err))
	appErr, _ := apperror.As(err)
	assert.Equal(t, "1", appErr.Details["pending_requests"])

	_, err = store.Accounts().FindByID(context.Background(), registered.Account.ID)
	assert.NoError(t, err)
}

func TestDeleteAccount_HeldEscrowBlocks(t *testing.T) {
	deps, store := newDeps()
	seller := register(t, deps, "seller@example.com", "producer")
	buyer := register(t, deps, "buyer@example.com", "")

	escrow, err := entity.NewEscrowTransaction(uuid.New(), buyer.Account.ID, seller.Account.ID, decimal.NewFromInt(150), nil, now)
	require.NoError(t, err)
	require.NoError(t, store.Escrows().Create(context.Background(), escrow))

	uc := account.NewDeleteAccountUseCase(deps)
	assert.True(t, apperror.IsConflict(uc.Execute(context.Background(), deleteInput(seller.Account.ID))))
	assert.True(t, apperror.IsConflict(uc.Execute(context.Background(), deleteInput(buyer.Account.ID))))

	require.NoError(t, escrow.Apply(valueobject.EscrowActionRelease, now))
	require.NoError(t, store.Escrows().UpdateStatus(context.Background(), escrow, valueobject.EscrowStatusHeld))
	assert.NoError(t, uc.Execute(context.Background(), deleteInput(seller.Account.ID)))
}
