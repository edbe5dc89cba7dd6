package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

type disputeRow struct {
	ID            uuid.UUID  `db:"id"`
	PurchaseID    uuid.UUID  `db:"purchase_id"`
	ComplainantID uuid.UUID  `db:"complainant_id"`
	RespondentID  uuid.UUID  `db:"respondent_id"`
	DisputeType   string     `db:"dispute_type"`
	Description   string     `db:"description"`
	Evidence      *string    `db:"evidence"`
	Status        string     `db:"status"`
	Resolution    *string    `db:"resolution"`
	ResolvedBy    *uuid.UUID `db:"resolved_by"`
	ResolvedAt    *time.Time `db:"resolved_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (r disputeRow) toEntity() *entity.Dispute {
	return &entity.Dispute{
		ID:            r.ID,
		PurchaseID:    r.PurchaseID,
		ComplainantID: r.ComplainantID,
		RespondentID:  r.RespondentID,
		DisputeType:   valueobject.DisputeType(r.DisputeType),
		Description:   r.Description,
		Evidence:      r.Evidence,
		Status:        valueobject.DisputeStatus(r.Status),
		Resolution:    r.Resolution,
		ResolvedBy:    r.ResolvedBy,
		ResolvedAt:    r.ResolvedAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

const disputeColumns = `id, purchase_id, complainant_id, respondent_id, dispute_type, description, evidence,
	status, resolution, resolved_by, resolved_at, created_at, updated_at`

type DisputeRepositoryAdapter struct {
	db *sqlx.DB
}

func NewDisputeRepositoryAdapter(db *sqlx.DB) *DisputeRepositoryAdapter {
	return &DisputeRepositoryAdapter{db: db}
}

func (r *DisputeRepositoryAdapter) Create(ctx context.Context, d *entity.Dispute) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO disputes (`+disputeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		d.ID, d.PurchaseID, d.ComplainantID, d.RespondentID, string(d.DisputeType), d.Description, d.Evidence,
		string(d.Status), d.Resolution, d.ResolvedBy, d.ResolvedAt, d.CreatedAt, d.UpdatedAt,
	)
	return mapError(err, nil, "", "не удалось создать спор")
}

func (r *DisputeRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Dispute, error) {
	var row disputeRow
	if err := conn(ctx, r.db).GetContext(ctx, &row, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id); err != nil {
		return nil, mapError(err, apperror.ErrDisputeNotFound, "", "не удалось получить спор")
	}
	return row.toEntity(), nil
}

func (r *DisputeRepositoryAdapter) List(ctx context.Context, filter repository.DisputeFilter) ([]*entity.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE 1=1`
	var args []interface{}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.DisputeType != "" {
		args = append(args, string(filter.DisputeType))
		query += fmt.Sprintf(" AND dispute_type = $%d", len(args))
	}
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		query += fmt.Sprintf(" AND (complainant_id = $%d OR respondent_id = $%d)", len(args), len(args))
	}
	query += " ORDER BY created_at DESC"
	query, args = pageClause(query, args, filter.Limit, filter.Offset)

	var rows []disputeRow
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(err, nil, "", "не удалось получить список споров")
	}
	out := make([]*entity.Dispute, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *DisputeRepositoryAdapter) HasActiveForPurchase(ctx context.Context, purchaseID uuid.UUID) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM disputes WHERE purchase_id = $1 AND status IN ('open', 'under_review'))
	`, purchaseID)
	if err != nil {
		return false, mapError(err, nil, "", "не удалось проверить споры по покупке")
	}
	return exists, nil
}

func (r *DisputeRepositoryAdapter) UpdateStatus(ctx context.Context, d *entity.Dispute, expected valueobject.DisputeStatus) error {
	return guardedUpdate(ctx, conn(ctx, r.db), "disputes", d.ID, apperror.ErrDisputeNotFound, `
		UPDATE disputes
		SET status = $3, resolution = $4, resolved_by = $5, resolved_at = $6, updated_at = $7
		WHERE id = $1 AND status = $2
	`, d.ID, string(expected), string(d.Status), d.Resolution, d.ResolvedBy, d.ResolvedAt, d.UpdatedAt)
}

var _ repository.DisputeRepository = (*DisputeRepositoryAdapter)(nil)
