package escrow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/infrastructure/persistence/memory"
	"github.com/ignatzorin/beatmarket-backend/internal/logger"
	"github.com/ignatzorin/beatmarket-backend/internal/metrics"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/beatmarket-backend/internal/usecase/escrow"
)

var start = time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, n repository.Notification) error {
	return m.Called(ctx, n).Error(0)
}

type fixture struct {
	store    *memory.Store
	deps     escrow.Deps
	notifier *mockNotifier
	metrics  *metrics.MarketplaceMetrics
	clock    *time.Time
	buyer    *entity.Account
	seller   *entity.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()

	buyer, err := entity.NewAccount("buyer@example.com", "buyer", "hash", valueobject.RoleUser, start)
	require.NoError(t, err)
	seller, err := entity.NewAccount("seller@example.com", "seller", "hash", valueobject.RoleProducer, start)
	require.NoError(t, err)
	require.NoError(t, store.Accounts().Create(ctx, buyer))
	require.NoError(t, store.Accounts().Create(ctx, seller))

	clock := start
	f := &fixture{
		store:    store,
		notifier: new(mockNotifier),
		metrics:  metrics.New(prometheus.NewRegistry()),
		clock:    &clock,
		buyer:    buyer,
		seller:   seller,
	}
	f.deps = escrow.Deps{
		Accounts: store.Accounts(),
		Escrows:  store.Escrows(),
		Disputes: store.Disputes(),
		Notifier: f.notifier,
		Metrics:  f.metrics,
		Log:      logger.Discard(),
		Now:      func() time.Time { return *f.clock },
	}
	return f
}

func (f *fixture) advance(d time.Duration) { *f.clock = f.clock.Add(d) }

func (f *fixture) create(t *testing.T, amount string, cond *entity.ReleaseConditions) *entity.EscrowTransaction {
	t.Helper()
	e, err := escrow.NewCreateEscrowUseCase(f.deps).Execute(context.Background(), escrow.CreateEscrowInput{
		PurchaseID:        uuid.New(),
		BuyerID:           f.buyer.ID,
		SellerID:          f.seller.ID,
		Amount:            decimal.RequireFromString(amount),
		ReleaseConditions: cond,
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) transition(e *entity.EscrowTransaction, action valueobject.EscrowAction, actor escrow.Actor) (*entity.EscrowTransaction, error) {
	return escrow.NewTransitionEscrowUseCase(f.deps).Execute(context.Background(), escrow.TransitionInput{
		EscrowID: e.ID,
		Action:   action,
		Actor:    actor,
	})
}

func (f *fixture) buyerActor() escrow.Actor {
	return escrow.Actor{Kind: escrow.ActorBuyer, AccountID: f.buyer.ID}
}

func TestCreateEscrow_Floor(t *testing.T) {
	f := newFixture(t)
	uc := escrow.NewCreateEscrowUseCase(f.deps)

	_, err := uc.Execute(context.Background(), escrow.CreateEscrowInput{
		PurchaseID: uuid.New(), BuyerID: f.buyer.ID, SellerID: f.seller.ID, Amount: decimal.RequireFromString("99.99"),
	})
	assert.True(t, apperror.IsValidation(err))

	e := f.create(t, "100.00", nil)
	assert.Equal(t, valueobject.EscrowStatusHeld, e.Status)
	assert.Equal(t, entity.DefaultReleaseConditions(), e.ReleaseConditions)
}

func TestCreateEscrow_OnePerPurchaseAndKnownParties(t *testing.T) {
	f := newFixture(t)
	uc := escrow.NewCreateEscrowUseCase(f.deps)
	e := f.create(t, "300", nil)

	_, err := uc.Execute(context.Background(), escrow.CreateEscrowInput{
		PurchaseID: e.PurchaseID, BuyerID: f.buyer.ID, SellerID: f.seller.ID, Amount: decimal.NewFromInt(300),
	})
	assert.True(t, apperror.IsConflict(err))

	_, err = uc.Execute(context.Background(), escrow.CreateEscrowInput{
		PurchaseID: uuid.New(), BuyerID: f.buyer.ID, SellerID: uuid.New(), Amount: decimal.NewFromInt(300),
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestTransitionEscrow_FullLifecycle(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, "250", nil)

	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n repository.Notification) bool {
		return n.Event == repository.EventEscrowResolved &&
			n.Payload["amount"] == "250.00" &&
			len(n.Recipients) == 2
	})).Return(nil).Once()

	f.advance(time.Hour)
	released, err := f.transition(e, valueobject.EscrowActionRelease, f.buyerActor())
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusReleased, released.Status)
	require.NotNil(t, released.ReleasedAt)
	assert.Equal(t, start.Add(time.Hour), *released.ReleasedAt)

	_, err = f.transition(e, valueobject.EscrowActionRefund, escrow.Actor{Kind: escrow.ActorAdmin})
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))

	stored, _ := f.store.Escrows().FindByID(context.Background(), e.ID)
	assert.Equal(t, valueobject.EscrowStatusReleased, stored.Status)
	assert.Nil(t, stored.RefundedAt)
	f.notifier.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EscrowTransitionsVec().WithLabelValues("release", "buyer")))
}

// staleEscrows отдаёт снимок escrow, прочитанный до чужого перехода.
type staleEscrows struct {
	repository.EscrowRepository
	snapshot *entity.EscrowTransaction
}

func (r *staleEscrows) FindByID(ctx context.Context, id uuid.UUID) (*entity.EscrowTransaction, error) {
	return r.snapshot.Clone(), nil
}

func TestTransitionEscrow_StaleSnapshotIsConflict(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
	e := f.create(t, "300", nil)

	snapshot, err := f.store.Escrows().FindByID(context.Background(), e.ID)
	require.NoError(t, err)

	_, err = f.transition(e, valueobject.EscrowActionRelease, f.buyerActor())
	require.NoError(t, err)

	staleDeps := f.deps
	staleDeps.Escrows = &staleEscrows{EscrowRepository: f.store.Escrows(), snapshot: snapshot}
	_, err = escrow.NewTransitionEscrowUseCase(staleDeps).Execute(context.Background(), escrow.TransitionInput{
		EscrowID: e.ID,
		Action:   valueobject.EscrowActionRefund,
		Actor:    escrow.Actor{Kind: escrow.ActorAdmin},
	})
	assert.True(t, apperror.IsConflict(err), "%v", err)
	assert.ErrorIs(t, err, apperror.ErrConcurrentUpdate)

	stored, err := f.store.Escrows().FindByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusReleased, stored.Status)
	assert.Nil(t, stored.RefundedAt)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.EscrowTransitionsVec().WithLabelValues("refund", "admin")))
}

func TestTransitionEscrow_ConcurrentReleaseAndRefund(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
	admin := escrow.Actor{Kind: escrow.ActorAdmin}

	for i := 0; i < 20; i++ {
		e := f.create(t, "300", nil)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for j, action := range []valueobject.EscrowAction{valueobject.EscrowActionRelease, valueobject.EscrowActionRefund} {
			wg.Add(1)
			go func(j int, action valueobject.EscrowAction) {
				defer wg.Done()
				_, errs[j] = f.transition(e, action, admin)
			}(j, action)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.True(t, apperror.IsConflict(err) || apperror.IsInvalidTransition(err), "%v", err)
		}
		assert.Equal(t, 1, succeeded)

		stored, err := f.store.Escrows().FindByID(context.Background(), e.ID)
		require.NoError(t, err)
		assert.True(t, stored.Status.IsTerminal())
		assert.False(t, stored.ReleasedAt != nil && stored.RefundedAt != nil)
	}
}

func TestTransitionEscrow_TerminalRejectsEveryActor(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
	e := f.create(t, "150", nil)
	_, err := f.transition(e, valueobject.EscrowActionRefund, escrow.Actor{Kind: escrow.ActorAdmin})
	require.NoError(t, err)

	actors := []escrow.Actor{f.buyerActor(), {Kind: escrow.ActorAdmin}, {Kind: escrow.ActorDispute}, {Kind: escrow.ActorSystem}}
	for _, actor := range actors {
		for _, action := range []valueobject.EscrowAction{valueobject.EscrowActionRelease, valueobject.EscrowActionRefund} {
			_, err := f.transition(e, action, actor)
			assert.True(t, apperror.IsInvalidTransition(err), "%s by %s", action, actor.Kind)
		}
	}
}

func TestTransitionEscrow_ActorRules(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	e := f.create(t, "500", nil)
	_, err := f.transition(e, valueobject.EscrowActionRelease, escrow.Actor{Kind: escrow.ActorBuyer, AccountID: f.seller.ID})
	assert.True(t, apperror.IsForbidden(err), "seller cannot release")

	_, err = f.transition(e, valueobject.EscrowActionRefund, escrow.Actor{Kind: escrow.ActorSystem})
	assert.True(t, apperror.IsForbidden(err), "system cannot refund")

	_, err = f.transition(e, valueobject.EscrowActionRelease, escrow.Actor{Kind: escrow.ActorSystem})
	assert.True(t, apperror.IsForbidden(err), "auto-release not due")

	_, err = f.transition(e, valueobject.EscrowActionRefund, escrow.Actor{Kind: "stranger"})
	assert.True(t, apperror.IsForbidden(err))

	refunded, err := f.transition(e, valueobject.EscrowActionRefund, f.buyerActor())
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusRefunded, refunded.Status)
}

func TestTransitionEscrow_BuyerRefundNeedsAllowsRefund(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
	e := f.create(t, "500", &entity.ReleaseConditions{AutoReleaseAfterDays: 7, AllowsRefund: false})

	_, err := f.transition(e, valueobject.EscrowActionRefund, f.buyerActor())
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.transition(e, valueobject.EscrowActionRefund, escrow.Actor{Kind: escrow.ActorDispute})
	require.NoError(t, err)
}

func TestTransitionEscrow_NotifierFailureIsLoggedOnly(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(assert.AnError)
	e := f.create(t, "500", nil)

	released, err := f.transition(e, valueobject.EscrowActionRelease, escrow.Actor{Kind: escrow.ActorAdmin})
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusReleased, released.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.NotificationFailuresVec().WithLabelValues("escrow")))
}

func TestAutoReleaser_RunOnce(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	due := f.create(t, "200", nil)
	disputed := f.create(t, "200", nil)
	manual := f.create(t, "200", &entity.ReleaseConditions{AutoReleaseAfterDays: 0, AllowsRefund: true})
	later := f.create(t, "200", &entity.ReleaseConditions{AutoReleaseAfterDays: 30, AllowsRefund: true})

	d, err := entity.NewDispute(disputed.PurchaseID, f.buyer.ID, f.seller.ID, valueobject.DisputeTypeDelivery, "не получил файлы", nil, start)
	require.NoError(t, err)
	require.NoError(t, f.store.Disputes().Create(ctx, d))

	releaser := escrow.NewAutoReleaser(f.deps)

	n, err := releaser.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	f.advance(7 * 24 * time.Hour)
	n, err = releaser.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	statusOf := func(e *entity.EscrowTransaction) valueobject.EscrowStatus {
		stored, err := f.store.Escrows().FindByID(ctx, e.ID)
		require.NoError(t, err)
		return stored.Status
	}
	assert.Equal(t, valueobject.EscrowStatusReleased, statusOf(due))
	assert.Equal(t, valueobject.EscrowStatusHeld, statusOf(disputed))
	assert.Equal(t, valueobject.EscrowStatusHeld, statusOf(manual))
	assert.Equal(t, valueobject.EscrowStatusHeld, statusOf(later))

	n, err = releaser.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EscrowTransitionsVec().WithLabelValues("release", "system")))
}

func TestAutoReleaser_RunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		escrow.NewAutoReleaser(f.deps).Run(ctx, 5*time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("auto releaser did not stop")
	}
}

func TestGetAndListEscrows(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, "300", nil)
	ctx := context.Background()

	got, err := escrow.NewGetEscrowUseCase(f.deps).Execute(ctx, e.ID, f.seller.ID, false)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	_, err = escrow.NewGetEscrowUseCase(f.deps).Execute(ctx, e.ID, uuid.New(), false)
	assert.True(t, apperror.IsForbidden(err))

	_, err = escrow.NewGetEscrowUseCase(f.deps).Execute(ctx, e.ID, uuid.New(), true)
	require.NoError(t, err)

	list, err := escrow.NewListEscrowsUseCase(f.deps).Execute(ctx, f.buyer.ID, "held")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = escrow.NewListEscrowsUseCase(f.deps).Execute(ctx, f.buyer.ID, "frozen")
	assert.True(t, apperror.IsValidation(err))
}
