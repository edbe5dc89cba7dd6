package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

type AccountRepository struct {
	s *Store
}

func (r *AccountRepository) Create(ctx context.Context, account *entity.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Email == account.Email {
			return apperror.New(apperror.ErrCodeConflict, "аккаунт с таким email уже существует")
		}
	}
	r.s.accounts[account.ID] = account.Clone()
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, apperror.ErrAccountNotFound
	}
	return a.Clone(), nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.accounts {
		if a.Email == email {
			return a.Clone(), nil
		}
	}
	return nil, apperror.ErrAccountNotFound
}

func (r *AccountRepository) Save(ctx context.Context, account *entity.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accounts[account.ID]; !ok {
		return apperror.ErrAccountNotFound
	}
	r.s.accounts[account.ID] = account.Clone()
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accounts[id]; !ok {
		return apperror.ErrAccountNotFound
	}
	delete(r.s.accounts, id)
	for reqID, req := range r.s.requests {
		if req.AccountID == id {
			delete(r.s.requests, reqID)
		}
	}
	return nil
}

type TrustAuditRepository struct {
	s *Store
}

func (r *TrustAuditRepository) Create(ctx context.Context, override *entity.TrustOverride) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v := *override
	r.s.overrides = append(r.s.overrides, &v)
	return nil
}

func (r *TrustAuditRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*entity.TrustOverride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.TrustOverride
	for i := len(r.s.overrides) - 1; i >= 0; i-- {
		if o := r.s.overrides[i]; o.AccountID == accountID {
			v := *o
			out = append(out, &v)
		}
	}
	return out, nil
}

type VerificationRequestRepository struct {
	s *Store
}

func cloneRequest(r *entity.VerificationRequest) *entity.VerificationRequest {
	c := *r
	if r.AdminNotes != nil {
		v := *r.AdminNotes
		c.AdminNotes = &v
	}
	if r.ReviewerID != nil {
		v := *r.ReviewerID
		c.ReviewerID = &v
	}
	if r.ReviewedAt != nil {
		v := *r.ReviewedAt
		c.ReviewedAt = &v
	}
	return &c
}

func (r *VerificationRequestRepository) Create(ctx context.Context, req *entity.VerificationRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.requests {
		if existing.AccountID == req.AccountID && existing.ProType == req.ProType &&
			existing.Status == valueobject.VerificationRequestPending {
			return apperror.New(apperror.ErrCodeConflict, "заявка на верификацию уже ожидает проверки")
		}
	}
	r.s.requests[req.ID] = cloneRequest(req)
	return nil
}

func (r *VerificationRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.VerificationRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, apperror.ErrVerificationRequestNotFound
	}
	return cloneRequest(req), nil
}

func (r *VerificationRequestRepository) FindPending(ctx context.Context, accountID uuid.UUID, pro valueobject.ProType) (*entity.VerificationRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, req := range r.s.requests {
		if req.AccountID == accountID && req.ProType == pro && req.Status == valueobject.VerificationRequestPending {
			return cloneRequest(req), nil
		}
	}
	return nil, apperror.ErrVerificationRequestNotFound
}

func (r *VerificationRequestRepository) List(ctx context.Context, filter repository.VerificationRequestFilter) ([]*entity.VerificationRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.VerificationRequest
	for _, req := range r.s.requests {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.AccountID != nil && req.AccountID != *filter.AccountID {
			continue
		}
		out = append(out, cloneRequest(req))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *VerificationRequestRepository) CountPendingByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, req := range r.s.requests {
		if req.AccountID == accountID && req.Status == valueobject.VerificationRequestPending {
			n++
		}
	}
	return n, nil
}

func (r *VerificationRequestRepository) UpdateStatus(ctx context.Context, req *entity.VerificationRequest, expected valueobject.VerificationRequestStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.requests[req.ID]
	if !ok {
		return apperror.ErrVerificationRequestNotFound
	}
	if current.Status != expected {
		return apperror.ErrConcurrentUpdate
	}
	r.s.requests[req.ID] = cloneRequest(req)
	return nil
}

type EscrowRepository struct {
	s *Store
}

func (r *EscrowRepository) Create(ctx context.Context, escrow *entity.EscrowTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.escrows {
		if e.PurchaseID == escrow.PurchaseID {
			return apperror.New(apperror.ErrCodeConflict, "escrow для этой покупки уже существует")
		}
	}
	r.s.escrows[escrow.ID] = escrow.Clone()
	return nil
}

func (r *EscrowRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.EscrowTransaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.escrows[id]
	if !ok {
		return nil, apperror.ErrEscrowNotFound
	}
	return e.Clone(), nil
}

func (r *EscrowRepository) FindByPurchaseID(ctx context.Context, purchaseID uuid.UUID) (*entity.EscrowTransaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.escrows {
		if e.PurchaseID == purchaseID {
			return e.Clone(), nil
		}
	}
	return nil, apperror.ErrEscrowNotFound
}

func (r *EscrowRepository) List(ctx context.Context, filter repository.EscrowFilter) ([]*entity.EscrowTransaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.EscrowTransaction
	for _, e := range r.s.escrows {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.AccountID != nil && !e.IsParticipant(*filter.AccountID) {
			continue
		}
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *EscrowRepository) ListDueForAutoRelease(ctx context.Context, now time.Time, limit int) ([]*entity.EscrowTransaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.EscrowTransaction
	for _, e := range r.s.escrows {
		if !e.AutoReleaseDue(now) || r.s.hasActiveDispute(e.PurchaseID) {
			continue
		}
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HeldAt.Before(*out[j].HeldAt) })
	return paginate(out, limit, 0), nil
}

func (r *EscrowRepository) CountActiveByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, e := range r.s.escrows {
		if e.IsParticipant(accountID) && !e.Status.IsTerminal() {
			n++
		}
	}
	return n, nil
}

func (r *EscrowRepository) UpdateStatus(ctx context.Context, escrow *entity.EscrowTransaction, expected valueobject.EscrowStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.escrows[escrow.ID]
	if !ok {
		return apperror.ErrEscrowNotFound
	}
	if current.Status != expected {
		return apperror.ErrConcurrentUpdate
	}
	r.s.escrows[escrow.ID] = escrow.Clone()
	return nil
}

type DisputeRepository struct {
	s *Store
}

func (r *DisputeRepository) Create(ctx context.Context, dispute *entity.Dispute) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.disputes[dispute.ID] = dispute.Clone()
	return nil
}

func (r *DisputeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Dispute, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.disputes[id]
	if !ok {
		return nil, apperror.ErrDisputeNotFound
	}
	return d.Clone(), nil
}

func (r *DisputeRepository) List(ctx context.Context, filter repository.DisputeFilter) ([]*entity.Dispute, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Dispute
	for _, d := range r.s.disputes {
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if filter.DisputeType != "" && d.DisputeType != filter.DisputeType {
			continue
		}
		if filter.AccountID != nil && !d.IsParticipant(*filter.AccountID) {
			continue
		}
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *DisputeRepository) HasActiveForPurchase(ctx context.Context, purchaseID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.hasActiveDispute(purchaseID), nil
}

func (r *DisputeRepository) UpdateStatus(ctx context.Context, dispute *entity.Dispute, expected valueobject.DisputeStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.disputes[dispute.ID]
	if !ok {
		return apperror.ErrDisputeNotFound
	}
	if current.Status != expected {
		return apperror.ErrConcurrentUpdate
	}
	r.s.disputes[dispute.ID] = dispute.Clone()
	return nil
}

// hasActiveDispute вызывается под s.mu.
func (s *Store) hasActiveDispute(purchaseID uuid.UUID) bool {
	for _, d := range s.disputes {
		if d.PurchaseID == purchaseID && d.Status.IsActive() {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

var (
	_ repository.AccountRepository             = (*AccountRepository)(nil)
	_ repository.TrustAuditRepository          = (*TrustAuditRepository)(nil)
	_ repository.VerificationRequestRepository = (*VerificationRequestRepository)(nil)
	_ repository.EscrowRepository              = (*EscrowRepository)(nil)
	_ repository.DisputeRepository             = (*DisputeRepository)(nil)
	_ repository.Transactor                    = (*Transactor)(nil)
)
