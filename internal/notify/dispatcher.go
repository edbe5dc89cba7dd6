package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/goroutine"
	"github.com/ignatzorin/beatmarket-backend/internal/logger"
	"github.com/ignatzorin/beatmarket-backend/internal/metrics"
)

// Sink получатель событий с именем для логов и метрик.
type Sink interface {
	repository.Notifier
	Name() string
}

// Dispatcher рассылает событие во все sink'и. Ошибки доставки логируются и
// считаются в метриках, но никогда не возвращаются вызывающей стороне.
type Dispatcher struct {
	sinks   []Sink
	log     logrus.FieldLogger
	metrics *metrics.MarketplaceMetrics
	timeout time.Duration

	async    bool
	inflight sync.WaitGroup
}

func NewDispatcher(log logrus.FieldLogger, m *metrics.MarketplaceMetrics, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks:   sinks,
		log:     logger.OrDefault(log),
		metrics: m,
		timeout: 10 * time.Second,
	}
}

// Async переводит доставку в фоновые горутины: медленный webhook не задерживает
// HTTP-ответ. Дождаться отправки можно через Wait.
func (d *Dispatcher) Async() *Dispatcher {
	d.async = true
	return d
}

// Wait блокирует до завершения фоновых доставок или отмены ctx.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Notify реализует repository.Notifier и всегда возвращает nil.
func (d *Dispatcher) Notify(ctx context.Context, n repository.Notification) error {
	// Отмена запроса клиента не должна обрывать доставку уже совершённого перехода.
	ctx = context.WithoutCancel(ctx)
	if !d.async {
		d.deliver(ctx, n)
		return nil
	}

	d.inflight.Add(1)
	goroutine.NewRecoveryHandler(d.log).SafeGo(func() {
		defer d.inflight.Done()
		d.deliver(ctx, n)
	})
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, n repository.Notification) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	for _, sink := range d.sinks {
		if err := sink.Notify(ctx, n); err != nil {
			d.metrics.ObserveNotificationFailure(sink.Name())
			d.log.WithFields(logrus.Fields{
				"sink":  sink.Name(),
				"event": n.Event,
			}).WithError(err).Warn("не удалось доставить уведомление")
		}
	}
}
