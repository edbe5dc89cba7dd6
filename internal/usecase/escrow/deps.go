// Package escrow сценарии защищённых сделок: создание, release/refund и автоосвобождение.
package escrow

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/logger"
	"github.com/ignatzorin/beatmarket-backend/internal/metrics"
)

type Deps struct {
	Accounts repository.AccountRepository
	Escrows  repository.EscrowRepository
	Disputes repository.DisputeRepository
	Notifier repository.Notifier
	Metrics  *metrics.MarketplaceMetrics
	Log      logrus.FieldLogger
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	d.Log = logger.OrDefault(d.Log)
	return d
}
