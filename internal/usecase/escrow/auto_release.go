package escrow

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

const defaultAutoReleaseBatch = 100

// AutoReleaser освобождает held-сделки, у которых истёк срок autoReleaseAfterDays
// и по покупке нет активного спора.
type AutoReleaser struct {
	deps       Deps
	transition *TransitionEscrowUseCase
	batch      int
}

func NewAutoReleaser(deps Deps) *AutoReleaser {
	deps = deps.withDefaults()
	return &AutoReleaser{
		deps:       deps,
		transition: NewTransitionEscrowUseCase(deps),
		batch:      defaultAutoReleaseBatch,
	}
}

// RunOnce один проход. Ошибка по отдельной сделке не прерывает проход.
func (r *AutoReleaser) RunOnce(ctx context.Context) (int, error) {
	due, err := r.deps.Escrows.ListDueForAutoRelease(ctx, r.deps.Now(), r.batch)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, e := range due {
		if ctx.Err() != nil {
			return released, ctx.Err()
		}
		_, err := r.transition.Execute(ctx, TransitionInput{
			EscrowID: e.ID,
			Action:   valueobject.EscrowActionRelease,
			Actor:    Actor{Kind: ActorSystem},
		})
		switch {
		case err == nil:
			released++
		case apperror.IsConflict(err), apperror.IsInvalidTransition(err), apperror.IsForbidden(err):
			// сделку успели завершить или по ней открыли спор
			r.deps.Log.WithField("escrow_id", e.ID).WithError(err).Debug("автоосвобождение пропущено")
		default:
			r.deps.Log.WithField("escrow_id", e.ID).WithError(err).Warn("ошибка автоосвобождения escrow")
		}
	}
	return released, nil
}

// Run запускает проходы с интервалом до отмены ctx.
func (r *AutoReleaser) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.deps.Log.WithField("interval", interval.String()).Info("автоосвобождение escrow запущено")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.RunOnce(ctx)
			if err != nil && ctx.Err() == nil {
				r.deps.Log.WithError(err).Error("проход автоосвобождения завершился с ошибкой")
				continue
			}
			if n > 0 {
				r.deps.Log.WithFields(logrus.Fields{"released": n}).Info("escrow освобождены автоматически")
			}
		}
	}
}
