package account

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/beatmarket-backend/internal/validation"
)

// DeleteConfirmation фраза, которую пользователь вводит вручную.
const DeleteConfirmation = "DELETE MY ACCOUNT PERMANENTLY"

type DeleteAccountInput struct {
	AccountID        uuid.UUID
	Password         string
	ConfirmationText string
	Reason           string
}

type DeleteAccountUseCase struct {
	deps Deps
}

func NewDeleteAccountUseCase(deps Deps) *DeleteAccountUseCase {
	return &DeleteAccountUseCase{deps: deps.withDefaults()}
}

// Execute удаляет аккаунт без незавершённых заявок и сделок.
// Проверки и удаление выполняются в одной транзакции.
func (uc *DeleteAccountUseCase) Execute(ctx context.Context, input DeleteAccountInput) error {
	if input.ConfirmationText != DeleteConfirmation {
		return apperror.Validation("для удаления введите фразу " + DeleteConfirmation)
	}
	if err := validation.ValidateDeletionReason(input.Reason); err != nil {
		return apperror.Validation(err.Error())
	}

	return uc.deps.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		account, err := uc.deps.Accounts.FindByID(ctx, input.AccountID)
		if err != nil {
			return err
		}

		if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)) != nil {
			return apperror.ErrInvalidCredentials
		}
		if account.IsAdmin() {
			return apperror.New(apperror.ErrCodeForbidden, "администратор не может удалить свой аккаунт")
		}

		pending, err := uc.deps.Requests.CountPendingByAccount(ctx, account.ID)
		if err != nil {
			return err
		}
		if pending > 0 {
			conflict := apperror.New(apperror.ErrCodeConflict, "есть заявки на верификацию в ожидании")
			conflict.Details = map[string]string{"pending_requests": strconv.Itoa(pending)}
			return conflict
		}

		active, err := uc.deps.Escrows.CountActiveByAccount(ctx, account.ID)
		if err != nil {
			return err
		}
		if active > 0 {
			conflict := apperror.New(apperror.ErrCodeConflict, "есть незавершённые escrow-сделки")
			conflict.Details = map[string]string{"active_escrows": strconv.Itoa(active)}
			return conflict
		}

		if err := uc.deps.Accounts.Delete(ctx, account.ID); err != nil {
			return err
		}

		uc.deps.Log.WithFields(logrus.Fields{
			"account_id": account.ID,
			"reason":     input.Reason,
		}).Info("аккаунт удалён")
		return nil
	})
}
