package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

type accountRow struct {
	ID                 uuid.UUID  `db:"id"`
	Email              string     `db:"email"`
	Username           string     `db:"username"`
	PasswordHash       string     `db:"password_hash"`
	Role               string     `db:"role"`
	VerificationMethod string     `db:"verification_method"`
	VerificationDate   *time.Time `db:"verification_date"`
	ASCAPMemberNumber  *string    `db:"ascap_member_number"`
	BMIMemberNumber    *string    `db:"bmi_member_number"`
	SESACMemberNumber  *string    `db:"sesac_member_number"`
	TrustScore         int        `db:"trust_score"`
	VerificationBadge  string     `db:"verification_badge"`
	IsVerified         bool       `db:"is_verified"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

func newAccountRow(a *entity.Account) accountRow {
	return accountRow{
		ID:                 a.ID,
		Email:              a.Email,
		Username:           a.Username,
		PasswordHash:       a.PasswordHash,
		Role:               string(a.Role),
		VerificationMethod: string(a.VerificationMethod),
		VerificationDate:   a.VerificationDate,
		ASCAPMemberNumber:  a.ASCAPMemberNumber,
		BMIMemberNumber:    a.BMIMemberNumber,
		SESACMemberNumber:  a.SESACMemberNumber,
		TrustScore:         a.TrustScore,
		VerificationBadge:  string(a.VerificationBadge),
		IsVerified:         a.IsVerified,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

// toEntity не пропускает строки с неизвестными значениями перечислений:
// иначе пересчёт доверия молча занизил бы балл.
func (r accountRow) toEntity() (*entity.Account, error) {
	method := valueobject.VerificationMethod(r.VerificationMethod)
	if !method.IsValid() {
		err := apperror.Validation("неизвестный способ верификации в записи аккаунта")
		err.Details = map[string]string{"account_id": r.ID.String(), "verification_method": r.VerificationMethod}
		return nil, err
	}
	badge := valueobject.Badge(r.VerificationBadge)
	if !badge.IsValid() {
		err := apperror.Validation("неизвестный бейдж верификации в записи аккаунта")
		err.Details = map[string]string{"account_id": r.ID.String(), "verification_badge": r.VerificationBadge}
		return nil, err
	}
	return &entity.Account{
		ID:                 r.ID,
		Email:              r.Email,
		Username:           r.Username,
		PasswordHash:       r.PasswordHash,
		Role:               valueobject.Role(r.Role),
		VerificationMethod: method,
		VerificationDate:   r.VerificationDate,
		ASCAPMemberNumber:  r.ASCAPMemberNumber,
		BMIMemberNumber:    r.BMIMemberNumber,
		SESACMemberNumber:  r.SESACMemberNumber,
		TrustScore:         r.TrustScore,
		VerificationBadge:  badge,
		IsVerified:         r.IsVerified,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}, nil
}

const accountColumns = `id, email, username, password_hash, role, verification_method, verification_date,
	ascap_member_number, bmi_member_number, sesac_member_number, trust_score, verification_badge,
	is_verified, created_at, updated_at`

type AccountRepositoryAdapter struct {
	db *sqlx.DB
}

func NewAccountRepositoryAdapter(db *sqlx.DB) *AccountRepositoryAdapter {
	return &AccountRepositoryAdapter{db: db}
}

func (r *AccountRepositoryAdapter) Create(ctx context.Context, account *entity.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES (:id, :email, :username, :password_hash, :role, :verification_method, :verification_date,
			:ascap_member_number, :bmi_member_number, :sesac_member_number, :trust_score, :verification_badge,
			:is_verified, :created_at, :updated_at)
	`
	_, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, newAccountRow(account))
	return mapError(err, nil, "аккаунт с таким email уже существует", "не удалось создать аккаунт")
}

func (r *AccountRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	var row accountRow
	err := conn(ctx, r.db).GetContext(ctx, &row, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	if err != nil {
		return nil, mapError(err, apperror.ErrAccountNotFound, "", "не удалось получить аккаунт")
	}
	return row.toEntity()
}

func (r *AccountRepositoryAdapter) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var row accountRow
	err := conn(ctx, r.db).GetContext(ctx, &row, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	if err != nil {
		return nil, mapError(err, apperror.ErrAccountNotFound, "", "не удалось получить аккаунт")
	}
	return row.toEntity()
}

// Save обновляет только поля доверия и верификации.
func (r *AccountRepositoryAdapter) Save(ctx context.Context, account *entity.Account) error {
	query := `
		UPDATE accounts
		SET verification_method = :verification_method, verification_date = :verification_date,
		    ascap_member_number = :ascap_member_number, bmi_member_number = :bmi_member_number,
		    sesac_member_number = :sesac_member_number, trust_score = :trust_score,
		    verification_badge = :verification_badge, is_verified = :is_verified, updated_at = :updated_at
		WHERE id = :id
	`
	res, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, newAccountRow(account))
	if err != nil {
		return mapError(err, nil, "", "не удалось сохранить аккаунт")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить результат обновления")
	}
	if rows == 0 {
		return apperror.ErrAccountNotFound
	}
	return nil
}

// Delete заявки и журнал доверия удаляются каскадно.
func (r *AccountRepositoryAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return mapError(err, nil, "", "не удалось удалить аккаунт")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить результат удаления")
	}
	if rows == 0 {
		return apperror.ErrAccountNotFound
	}
	return nil
}

type trustOverrideRow struct {
	ID            uuid.UUID `db:"id"`
	AccountID     uuid.UUID `db:"account_id"`
	AdminID       uuid.UUID `db:"admin_id"`
	PreviousScore int       `db:"previous_score"`
	PreviousBadge string    `db:"previous_badge"`
	NewScore      int       `db:"new_score"`
	NewBadge      string    `db:"new_badge"`
	Reason        string    `db:"reason"`
	CreatedAt     time.Time `db:"created_at"`
}

type TrustAuditRepositoryAdapter struct {
	db *sqlx.DB
}

func NewTrustAuditRepositoryAdapter(db *sqlx.DB) *TrustAuditRepositoryAdapter {
	return &TrustAuditRepositoryAdapter{db: db}
}

func (r *TrustAuditRepositoryAdapter) Create(ctx context.Context, o *entity.TrustOverride) error {
	query := `
		INSERT INTO trust_overrides (id, account_id, admin_id, previous_score, previous_badge, new_score, new_badge, reason, created_at)
		VALUES (:id, :account_id, :admin_id, :previous_score, :previous_badge, :new_score, :new_badge, :reason, :created_at)
	`
	_, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, trustOverrideRow{
		ID:            o.ID,
		AccountID:     o.AccountID,
		AdminID:       o.AdminID,
		PreviousScore: o.PreviousScore,
		PreviousBadge: string(o.PreviousBadge),
		NewScore:      o.NewScore,
		NewBadge:      string(o.NewBadge),
		Reason:        o.Reason,
		CreatedAt:     o.CreatedAt,
	})
	return mapError(err, nil, "", "не удалось записать аудит доверия")
}

func (r *TrustAuditRepositoryAdapter) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*entity.TrustOverride, error) {
	var rows []trustOverrideRow
	err := conn(ctx, r.db).SelectContext(ctx, &rows, `
		SELECT id, account_id, admin_id, previous_score, previous_badge, new_score, new_badge, reason, created_at
		FROM trust_overrides WHERE account_id = $1 ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, mapError(err, nil, "", "не удалось получить аудит доверия")
	}

	out := make([]*entity.TrustOverride, 0, len(rows))
	for _, row := range rows {
		out = append(out, &entity.TrustOverride{
			ID:            row.ID,
			AccountID:     row.AccountID,
			AdminID:       row.AdminID,
			PreviousScore: row.PreviousScore,
			PreviousBadge: valueobject.Badge(row.PreviousBadge),
			NewScore:      row.NewScore,
			NewBadge:      valueobject.Badge(row.NewBadge),
			Reason:        row.Reason,
			CreatedAt:     row.CreatedAt,
		})
	}
	return out, nil
}

var (
	_ repository.AccountRepository    = (*AccountRepositoryAdapter)(nil)
	_ repository.TrustAuditRepository = (*TrustAuditRepositoryAdapter)(nil)
	_ repository.Transactor           = (*TxManager)(nil)
)
