// Package dispute сценарии споров по покупкам.
package dispute

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/trust"
	"github.com/ignatzorin/beatmarket-backend/internal/logger"
	"github.com/ignatzorin/beatmarket-backend/internal/metrics"
	"github.com/ignatzorin/beatmarket-backend/internal/usecase/escrow"
)

// EscrowTransitioner переход escrow, которым спор завершает сделку.
type EscrowTransitioner interface {
	Execute(ctx context.Context, input escrow.TransitionInput) (*entity.EscrowTransaction, error)
}

type Deps struct {
	Disputes repository.DisputeRepository
	Escrows  repository.EscrowRepository
	Accounts repository.AccountRepository
	Escrow   EscrowTransitioner
	Engine   *trust.Engine
	Notifier repository.Notifier
	Metrics  *metrics.MarketplaceMetrics
	Log      logrus.FieldLogger
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Engine == nil {
		d.Engine = trust.NewEngine(d.Now)
	}
	d.Log = logger.OrDefault(d.Log)
	return d
}

func (d Deps) notify(ctx context.Context, n repository.Notification) {
	if d.Notifier == nil {
		return
	}
	if err := d.Notifier.Notify(ctx, n); err != nil {
		d.Metrics.ObserveNotificationFailure("dispute")
		d.Log.WithField("event", n.Event).WithError(err).Warn("не удалось отправить уведомление по спору")
	}
}
