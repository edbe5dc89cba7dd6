// Package memory хранилище в памяти с теми же гарантиями, что и PostgreSQL-адаптеры:
// NotFound для отсутствующих строк, уникальность pending-заявки и compare-and-swap по статусу.
// Используется в тестах и для локального запуска без базы.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
)

type Store struct {
	mu        sync.RWMutex
	txMu      sync.Mutex
	accounts  map[uuid.UUID]*entity.Account
	requests  map[uuid.UUID]*entity.VerificationRequest
	escrows   map[uuid.UUID]*entity.EscrowTransaction
	disputes  map[uuid.UUID]*entity.Dispute
	overrides []*entity.TrustOverride
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]*entity.Account),
		requests: make(map[uuid.UUID]*entity.VerificationRequest),
		escrows:  make(map[uuid.UUID]*entity.EscrowTransaction),
		disputes: make(map[uuid.UUID]*entity.Dispute),
	}
}

func (s *Store) Accounts() *AccountRepository { return &AccountRepository{s: s} }

func (s *Store) Requests() *VerificationRequestRepository {
	return &VerificationRequestRepository{s: s}
}

func (s *Store) Escrows() *EscrowRepository { return &EscrowRepository{s: s} }

func (s *Store) Disputes() *DisputeRepository { return &DisputeRepository{s: s} }

func (s *Store) Audits() *TrustAuditRepository { return &TrustAuditRepository{s: s} }

func (s *Store) Transactor() *Transactor { return &Transactor{s: s} }

type snapshot struct {
	accounts  map[uuid.UUID]*entity.Account
	requests  map[uuid.UUID]*entity.VerificationRequest
	escrows   map[uuid.UUID]*entity.EscrowTransaction
	disputes  map[uuid.UUID]*entity.Dispute
	overrides []*entity.TrustOverride
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		accounts:  make(map[uuid.UUID]*entity.Account, len(s.accounts)),
		requests:  make(map[uuid.UUID]*entity.VerificationRequest, len(s.requests)),
		escrows:   make(map[uuid.UUID]*entity.EscrowTransaction, len(s.escrows)),
		disputes:  make(map[uuid.UUID]*entity.Dispute, len(s.disputes)),
		overrides: append([]*entity.TrustOverride(nil), s.overrides...),
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.requests {
		snap.requests[k] = v
	}
	for k, v := range s.escrows {
		snap.escrows[k] = v
	}
	for k, v := range s.disputes {
		snap.disputes[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = snap.accounts
	s.requests = snap.requests
	s.escrows = snap.escrows
	s.disputes = snap.disputes
	s.overrides = snap.overrides
}

// Transactor сериализует транзакции и откатывает изменения при ошибке.
// Хранимые значения не мутируются на месте, поэтому снимка указателей достаточно.
type Transactor struct {
	s *Store
}

type txKey struct{}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	snap := t.s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}
