package account

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/beatmarket-backend/internal/service"
	"github.com/ignatzorin/beatmarket-backend/internal/validation"
)

type RegisterInput struct {
	Email    string
	Password string
	Username string
	Role     string
}

// AuthResult аккаунт и выданная пара токенов.
type AuthResult struct {
	Account *entity.Account    `json:"account"`
	Tokens  *service.TokenPair `json:"tokens"`
}

type RegisterUseCase struct {
	deps Deps
}

func NewRegisterUseCase(deps Deps) *RegisterUseCase {
	return &RegisterUseCase{deps: deps.withDefaults()}
}

// Execute регистрирует аккаунт с нулевым доверием и сразу выдаёт токены.
// Роль admin через регистрацию не выдаётся.
func (uc *RegisterUseCase) Execute(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidatePassword(input.Password); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	username := strings.TrimSpace(input.Username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	role := valueobject.Role(strings.ToLower(strings.TrimSpace(input.Role)))
	if role == "" {
		role = valueobject.RoleUser
	}
	if role == valueobject.RoleAdmin {
		return nil, apperror.Validation("роль admin недоступна при регистрации")
	}

	existing, err := uc.deps.Accounts.FindByEmail(ctx, email)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "аккаунт с таким email уже существует")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), uc.deps.BcryptCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обработать пароль")
	}

	account, err := entity.NewAccount(email, username, string(hash), role, uc.deps.Now())
	if err != nil {
		return nil, err
	}
	if err := uc.deps.Accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	tokens, err := uc.deps.Tokens.GeneratePair(account.ID, string(account.Role))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токены")
	}

	uc.deps.Log.WithFields(logrus.Fields{
		"account_id": account.ID,
		"role":       account.Role,
	}).Info("аккаунт зарегистрирован")
	return &AuthResult{Account: account, Tokens: tokens}, nil
}
