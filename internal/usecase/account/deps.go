// Package account регистрация, вход и удаление аккаунта.
package account

import (
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/logger"
	"github.com/ignatzorin/beatmarket-backend/internal/service"
)

type Deps struct {
	Accounts repository.AccountRepository
	Requests repository.VerificationRequestRepository
	Escrows  repository.EscrowRepository
	Tx       repository.Transactor
	Tokens   *service.TokenManager
	Log      logrus.FieldLogger
	Now      func() time.Time
	// BcryptCost 0 означает bcrypt.DefaultCost.
	BcryptCost int
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.BcryptCost == 0 {
		d.BcryptCost = bcrypt.DefaultCost
	}
	d.Log = logger.OrDefault(d.Log)
	return d
}
