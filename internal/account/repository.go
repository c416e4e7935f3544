// AngelaMos | 2026
// repository.go

package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/history"
)

const accountColumns = `
	id, entity_type, owner_user_id, status, is_verified, admin_notes,
	application_date, payment_receipt_ref, status_message, renewal_date,
	tier_name, created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByRef(ctx context.Context, ref Ref) (*Account, error)
	GetForUpdate(ctx context.Context, ref Ref) (*Account, error)
	GetByOwner(ctx context.Context, ownerID string, t history.TargetType) (*Account, error)
	Update(ctx context.Context, a *Account) error
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, a *Account) error {
	query := `
		INSERT INTO accounts (id, entity_type, owner_user_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		a.ID,
		string(a.Type),
		a.OwnerUserID,
		string(a.Status),
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create account: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

func (r *repository) GetByRef(ctx context.Context, ref Ref) (*Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts
		WHERE id = $1 AND entity_type = $2`

	return r.get(ctx, "get account", query, ref.ID, string(ref.Type))
}

// GetForUpdate must run inside a transaction. The row stays locked until
// that transaction ends.
func (r *repository) GetForUpdate(ctx context.Context, ref Ref) (*Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts
		WHERE id = $1 AND entity_type = $2
		FOR UPDATE`

	return r.get(ctx, "lock account", query, ref.ID, string(ref.Type))
}

func (r *repository) GetByOwner(
	ctx context.Context,
	ownerID string,
	t history.TargetType,
) (*Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts
		WHERE owner_user_id = $1 AND entity_type = $2`

	return r.get(ctx, "get account by owner", query, ownerID, string(t))
}

func (r *repository) get(
	ctx context.Context,
	op, query string,
	args ...any,
) (*Account, error) {
	var a Account
	err := r.db.GetContext(ctx, &a, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &a, nil
}

// Update writes every moderation-owned column. owner_user_id and
// entity_type are never part of the SET list.
func (r *repository) Update(ctx context.Context, a *Account) error {
	query := `
		UPDATE accounts
		SET status = $3,
		    is_verified = $4,
		    admin_notes = $5,
		    application_date = $6,
		    payment_receipt_ref = $7,
		    status_message = $8,
		    renewal_date = $9,
		    tier_name = $10,
		    updated_at = NOW()
		WHERE id = $1 AND entity_type = $2
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &a.UpdatedAt, query,
		a.ID,
		string(a.Type),
		string(a.Status),
		a.IsVerified,
		a.AdminNotes,
		a.ApplicationDate,
		a.PaymentReceiptRef,
		a.StatusMessage,
		a.RenewalDate,
		a.TierName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update account: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}

	return nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	query := `SELECT status, COUNT(*) AS total FROM accounts GROUP BY status`

	var rows []struct {
		Status Status `db:"status"`
		Total  int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count accounts: %w", err)
	}

	counts := make(map[Status]int, len(allStatuses))
	for _, s := range allStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
