// Package verification сценарии PRO-верификации и управления доверием.
package verification

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/trust"
	"github.com/ignatzorin/beatmarket-backend/internal/logger"
	"github.com/ignatzorin/beatmarket-backend/internal/metrics"
)

// Deps общие зависимости сценариев пакета.
type Deps struct {
	Accounts repository.AccountRepository
	Requests repository.VerificationRequestRepository
	Audits   repository.TrustAuditRepository
	Tx       repository.Transactor
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

// notify best-effort: ошибка доставки логируется и считается, но не возвращается.
func (d Deps) notify(ctx context.Context, n repository.Notification) {
	if d.Notifier == nil {
		return
	}
	if err := d.Notifier.Notify(ctx, n); err != nil {
		d.Metrics.ObserveNotificationFailure("verification")
		d.Log.WithField("event", n.Event).WithError(err).Warn("не удалось отправить уведомление о верификации")
	}
}
