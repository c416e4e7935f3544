// AngelaMos | 2026
// repository.go

package history

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
)

// Repository is append-only.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	ListFor(
		ctx context.Context,
		targetID string,
		targetType TargetType,
		params ListParams,
	) ([]Entry, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Append(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO membership_history
			(id, target_id, target_type, action, details, action_date)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)`

	details := "{}"
	if len(e.Details) > 0 {
		details = string(e.Details)
	}

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.TargetID,
		string(e.TargetType),
		e.Action,
		details,
		e.ActionDate,
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	return nil
}

func (r *repository) ListFor(
	ctx context.Context,
	targetID string,
	targetType TargetType,
	params ListParams,
) ([]Entry, int, error) {
	params.Normalize()

	countQuery := `
		SELECT COUNT(*) FROM membership_history
		WHERE target_id = $1 AND target_type = $2`

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, targetID, string(targetType)); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	query := `
		SELECT id, target_id, target_type, action, details, action_date
		FROM membership_history
		WHERE target_id = $1 AND target_type = $2
		ORDER BY action_date DESC, id DESC
		LIMIT $3 OFFSET $4`

	entries := []Entry{}
	err := r.db.SelectContext(ctx, &entries, query,
		targetID,
		string(targetType),
		params.PageSize,
		params.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}

	return entries, total, nil
}
