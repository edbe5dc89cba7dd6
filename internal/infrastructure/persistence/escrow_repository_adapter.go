package persistence

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

// releaseConditionsJSON хранит условия освобождения в колонке JSONB.
type releaseConditionsJSON entity.ReleaseConditions

func (c releaseConditionsJSON) Value() (driver.Value, error) {
	return json.Marshal(entity.ReleaseConditions(c))
}

func (c *releaseConditionsJSON) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*c = releaseConditionsJSON(entity.DefaultReleaseConditions())
		return nil
	default:
		return errors.New("release_conditions: неподдерживаемый тип")
	}
	var out entity.ReleaseConditions
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("release_conditions: %w", err)
	}
	*c = releaseConditionsJSON(out)
	return nil
}

type escrowRow struct {
	ID                uuid.UUID             `db:"id"`
	PurchaseID        uuid.UUID             `db:"purchase_id"`
	BuyerID           uuid.UUID             `db:"buyer_id"`
	SellerID          uuid.UUID             `db:"seller_id"`
	Amount            decimal.Decimal       `db:"amount"`
	Status            string                `db:"status"`
	ReleaseConditions releaseConditionsJSON `db:"release_conditions"`
	HeldAt            *time.Time            `db:"held_at"`
	ReleasedAt        *time.Time            `db:"released_at"`
	RefundedAt        *time.Time            `db:"refunded_at"`
	CreatedAt         time.Time             `db:"created_at"`
	UpdatedAt         time.Time             `db:"updated_at"`
}

func newEscrowRow(e *entity.EscrowTransaction) escrowRow {
	return escrowRow{
		ID:                e.ID,
		PurchaseID:        e.PurchaseID,
		BuyerID:           e.BuyerID,
		SellerID:          e.SellerID,
		Amount:            e.Amount,
		Status:            string(e.Status),
		ReleaseConditions: releaseConditionsJSON(e.ReleaseConditions),
		HeldAt:            e.HeldAt,
		ReleasedAt:        e.ReleasedAt,
		RefundedAt:        e.RefundedAt,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func (r escrowRow) toEntity() *entity.EscrowTransaction {
	return &entity.EscrowTransaction{
		ID:                r.ID,
		PurchaseID:        r.PurchaseID,
		BuyerID:           r.BuyerID,
		SellerID:          r.SellerID,
		Amount:            r.Amount,
		Status:            valueobject.EscrowStatus(r.Status),
		ReleaseConditions: entity.ReleaseConditions(r.ReleaseConditions),
		HeldAt:            r.HeldAt,
		ReleasedAt:        r.ReleasedAt,
		RefundedAt:        r.RefundedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

const escrowColumns = `id, purchase_id, buyer_id, seller_id, amount, status, release_conditions,
	held_at, released_at, refunded_at, created_at, updated_at`

type EscrowRepositoryAdapter struct {
	db *sqlx.DB
}

func NewEscrowRepositoryAdapter(db *sqlx.DB) *EscrowRepositoryAdapter {
	return &EscrowRepositoryAdapter{db: db}
}

func (r *EscrowRepositoryAdapter) Create(ctx context.Context, escrow *entity.EscrowTransaction) error {
	query := `
		INSERT INTO escrow_transactions (` + escrowColumns + `)
		VALUES (:id, :purchase_id, :buyer_id, :seller_id, :amount, :status, :release_conditions,
			:held_at, :released_at, :refunded_at, :created_at, :updated_at)
	`
	_, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, newEscrowRow(escrow))
	return mapError(err, nil, "escrow для этой покупки уже существует", "не удалось создать escrow")
}

func (r *EscrowRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.EscrowTransaction, error) {
	return r.findOne(ctx, `SELECT `+escrowColumns+` FROM escrow_transactions WHERE id = $1`, id)
}

func (r *EscrowRepositoryAdapter) FindByPurchaseID(ctx context.Context, purchaseID uuid.UUID) (*entity.EscrowTransaction, error) {
	return r.findOne(ctx, `SELECT `+escrowColumns+` FROM escrow_transactions WHERE purchase_id = $1`, purchaseID)
}

func (r *EscrowRepositoryAdapter) findOne(ctx context.Context, query string, arg interface{}) (*entity.EscrowTransaction, error) {
	var row escrowRow
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, arg); err != nil {
		return nil, mapError(err, apperror.ErrEscrowNotFound, "", "не удалось получить escrow")
	}
	return row.toEntity(), nil
}

func (r *EscrowRepositoryAdapter) List(ctx context.Context, filter repository.EscrowFilter) ([]*entity.EscrowTransaction, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrow_transactions WHERE 1=1`
	var args []interface{}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		query += fmt.Sprintf(" AND (buyer_id = $%d OR seller_id = $%d)", len(args), len(args))
	}
	query += " ORDER BY created_at DESC"
	query, args = pageClause(query, args, filter.Limit, filter.Offset)

	return r.selectMany(ctx, query, args...)
}

// ListDueForAutoRelease срок считается от held_at; autoReleaseAfterDays <= 0 отключает автоосвобождение.
func (r *EscrowRepositoryAdapter) ListDueForAutoRelease(ctx context.Context, now time.Time, limit int) ([]*entity.EscrowTransaction, error) {
	query := `
		SELECT ` + escrowColumns + ` FROM escrow_transactions e
		WHERE e.status = 'held'
		  AND e.held_at IS NOT NULL
		  AND (e.release_conditions->>'autoReleaseAfterDays')::int > 0
		  AND e.held_at + make_interval(days => (e.release_conditions->>'autoReleaseAfterDays')::int) <= $1
		  AND NOT EXISTS (
			SELECT 1 FROM disputes d
			WHERE d.purchase_id = e.purchase_id AND d.status IN ('open', 'under_review')
		  )
		ORDER BY e.held_at`
	query, args := pageClause(query, []interface{}{now}, limit, 0)
	return r.selectMany(ctx, query, args...)
}

func (r *EscrowRepositoryAdapter) CountActiveByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	var n int
	err := conn(ctx, r.db).GetContext(ctx, &n, `
		SELECT COUNT(*) FROM escrow_transactions
		WHERE (buyer_id = $1 OR seller_id = $1) AND status IN ('pending', 'held')
	`, accountID)
	if err != nil {
		return 0, mapError(err, nil, "", "не удалось посчитать escrow")
	}
	return n, nil
}

func (r *EscrowRepositoryAdapter) UpdateStatus(ctx context.Context, escrow *entity.EscrowTransaction, expected valueobject.EscrowStatus) error {
	return guardedUpdate(ctx, conn(ctx, r.db), "escrow_transactions", escrow.ID, apperror.ErrEscrowNotFound, `
		UPDATE escrow_transactions
		SET status = $3, held_at = $4, released_at = $5, refunded_at = $6, updated_at = $7
		WHERE id = $1 AND status = $2
	`, escrow.ID, string(expected), string(escrow.Status), escrow.HeldAt, escrow.ReleasedAt, escrow.RefundedAt, escrow.UpdatedAt)
}

func (r *EscrowRepositoryAdapter) selectMany(ctx context.Context, query string, args ...interface{}) ([]*entity.EscrowTransaction, error) {
	var rows []escrowRow
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(err, nil, "", "не удалось получить список escrow")
	}
	out := make([]*entity.EscrowTransaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

var _ repository.EscrowRepository = (*EscrowRepositoryAdapter)(nil)
