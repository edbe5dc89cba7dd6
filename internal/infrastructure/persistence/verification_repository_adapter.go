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

type verificationRequestRow struct {
	ID                  uuid.UUID  `db:"id"`
	AccountID           uuid.UUID  `db:"account_id"`
	ProType             string     `db:"pro_type"`
	MemberNumber        string     `db:"member_number"`
	EvidenceDocumentRef string     `db:"evidence_document_ref"`
	DocumentType        string     `db:"document_type"`
	Status              string     `db:"status"`
	AdminNotes          *string    `db:"admin_notes"`
	ReviewerID          *uuid.UUID `db:"reviewer_id"`
	ReviewedAt          *time.Time `db:"reviewed_at"`
	CreatedAt           time.Time  `db:"created_at"`
}

func (r verificationRequestRow) toEntity() *entity.VerificationRequest {
	return &entity.VerificationRequest{
		ID:                  r.ID,
		AccountID:           r.AccountID,
		ProType:             valueobject.ProType(r.ProType),
		MemberNumber:        r.MemberNumber,
		EvidenceDocumentRef: r.EvidenceDocumentRef,
		DocumentType:        r.DocumentType,
		Status:              valueobject.VerificationRequestStatus(r.Status),
		AdminNotes:          r.AdminNotes,
		ReviewerID:          r.ReviewerID,
		ReviewedAt:          r.ReviewedAt,
		CreatedAt:           r.CreatedAt,
	}
}

const verificationRequestColumns = `id, account_id, pro_type, member_number, evidence_document_ref, document_type,
	status, admin_notes, reviewer_id, reviewed_at, created_at`

type VerificationRequestRepositoryAdapter struct {
	db *sqlx.DB
}

func NewVerificationRequestRepositoryAdapter(db *sqlx.DB) *VerificationRequestRepositoryAdapter {
	return &VerificationRequestRepositoryAdapter{db: db}
}

// Create уникальность pending-заявки обеспечивает частичный индекс verification_requests_one_pending.
func (r *VerificationRequestRepositoryAdapter) Create(ctx context.Context, req *entity.VerificationRequest) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO verification_requests (`+verificationRequestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		req.ID, req.AccountID, string(req.ProType), req.MemberNumber, req.EvidenceDocumentRef, req.DocumentType,
		string(req.Status), req.AdminNotes, req.ReviewerID, req.ReviewedAt, req.CreatedAt,
	)
	return mapError(err, nil, "заявка на верификацию уже ожидает проверки", "не удалось создать заявку")
}

func (r *VerificationRequestRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.VerificationRequest, error) {
	var row verificationRequestRow
	err := conn(ctx, r.db).GetContext(ctx, &row, `SELECT `+verificationRequestColumns+` FROM verification_requests WHERE id = $1`, id)
	if err != nil {
		return nil, mapError(err, apperror.ErrVerificationRequestNotFound, "", "не удалось получить заявку")
	}
	return row.toEntity(), nil
}

func (r *VerificationRequestRepositoryAdapter) FindPending(ctx context.Context, accountID uuid.UUID, pro valueobject.ProType) (*entity.VerificationRequest, error) {
	var row verificationRequestRow
	err := conn(ctx, r.db).GetContext(ctx, &row, `
		SELECT `+verificationRequestColumns+` FROM verification_requests
		WHERE account_id = $1 AND pro_type = $2 AND status = 'pending'
	`, accountID, string(pro))
	if err != nil {
		return nil, mapError(err, apperror.ErrVerificationRequestNotFound, "", "не удалось получить заявку")
	}
	return row.toEntity(), nil
}

func (r *VerificationRequestRepositoryAdapter) List(ctx context.Context, filter repository.VerificationRequestFilter) ([]*entity.VerificationRequest, error) {
	query := `SELECT ` + verificationRequestColumns + ` FROM verification_requests WHERE 1=1`
	var args []interface{}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		query += fmt.Sprintf(" AND account_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	query, args = pageClause(query, args, filter.Limit, filter.Offset)

	var rows []verificationRequestRow
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(err, nil, "", "не удалось получить список заявок")
	}
	out := make([]*entity.VerificationRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *VerificationRequestRepositoryAdapter) CountPendingByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	var n int
	err := conn(ctx, r.db).GetContext(ctx, &n,
		`SELECT COUNT(*) FROM verification_requests WHERE account_id = $1 AND status = 'pending'`, accountID)
	if err != nil {
		return 0, mapError(err, nil, "", "не удалось посчитать заявки")
	}
	return n, nil
}

func (r *VerificationRequestRepositoryAdapter) UpdateStatus(ctx context.Context, req *entity.VerificationRequest, expected valueobject.VerificationRequestStatus) error {
	return guardedUpdate(ctx, conn(ctx, r.db), "verification_requests", req.ID, apperror.ErrVerificationRequestNotFound, `
		UPDATE verification_requests
		SET status = $3, admin_notes = $4, reviewer_id = $5, reviewed_at = $6
		WHERE id = $1 AND status = $2
	`, req.ID, string(expected), string(req.Status), req.AdminNotes, req.ReviewerID, req.ReviewedAt)
}

var _ repository.VerificationRequestRepository = (*VerificationRequestRepositoryAdapter)(nil)
