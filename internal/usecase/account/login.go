package account

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/beatmarket-backend/internal/service"
)

type LoginUseCase struct {
	deps Deps
}

func NewLoginUseCase(deps Deps) *LoginUseCase {
	return &LoginUseCase{deps: deps.withDefaults()}
}

// Execute проверяет пароль. Неизвестный email и неверный пароль неразличимы для клиента.
func (uc *LoginUseCase) Execute(ctx context.Context, email, password string) (*AuthResult, error) {
	account, err := uc.deps.Accounts.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		uc.deps.Log.WithField("account_id", account.ID).Debug("неверный пароль")
		return nil, apperror.ErrInvalidCredentials
	}

	tokens, err := uc.deps.Tokens.GeneratePair(account.ID, string(account.Role))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токены")
	}
	return &AuthResult{Account: account, Tokens: tokens}, nil
}

type RefreshUseCase struct {
	deps Deps
}

func NewRefreshUseCase(deps Deps) *RefreshUseCase {
	return &RefreshUseCase{deps: deps.withDefaults()}
}

// Execute выдаёт новую пару по refresh токену. Роль берётся из текущего состояния аккаунта.
func (uc *RefreshUseCase) Execute(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	accountID, err := uc.deps.Tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "недействительный refresh токен")
	}

	account, err := uc.deps.Accounts.FindByID(ctx, accountID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}

	tokens, err := uc.deps.Tokens.GeneratePair(account.ID, string(account.Role))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токены")
	}
	return tokens, nil
}
