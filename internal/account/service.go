// AngelaMos | 2026
// service.go

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/auth"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/history"
)

type Service struct {
	repo      Repository
	ledger    history.Repository
	coord     *Coordinator
	lifecycle *Lifecycle
}

func NewService(
	repo Repository,
	ledger history.Repository,
	coord *Coordinator,
	lifecycle *Lifecycle,
) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledger,
		coord:     coord,
		lifecycle: lifecycle,
	}
}

// Provision creates the draft account for a practitioner or clinic owner
// unless one already exists. It runs on the caller's transaction so the
// user row and the account row commit together.
func (s *Service) Provision(
	ctx context.Context,
	tx core.DBTX,
	userID string,
	role auth.Role,
) error {
	if !role.OwnsAccount() {
		return nil
	}

	t, err := TypeForRole(role)
	if err != nil {
		return err
	}

	repo := NewRepository(tx)
	_, err = repo.GetByOwner(ctx, userID, t)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, core.ErrNotFound):
		return fmt.Errorf("provision account: %w", err)
	}

	a := &Account{
		ID:          uuid.New().String(),
		Type:        t,
		OwnerUserID: userID,
		Status:      StatusDraft,
	}
	if err := repo.Create(ctx, a); err != nil {
		return fmt.Errorf("provision account: %w", err)
	}
	return nil
}

func (s *Service) Get(
	ctx context.Context,
	p auth.Principal,
	ref Ref,
) (*Account, error) {
	a, err := s.repo.GetByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireOwnerOrAdmin(p, a.OwnerUserID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) GetMine(ctx context.Context, p auth.Principal) (*Account, error) {
	t, err := TypeForRole(p.Role)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByOwner(ctx, p.UserID, t)
}

func (s *Service) History(
	ctx context.Context,
	p auth.Principal,
	ref Ref,
	params history.ListParams,
) ([]history.Entry, int, error) {
	if _, err := s.Get(ctx, p, ref); err != nil {
		return nil, 0, err
	}
	return s.ledger.ListFor(ctx, ref.ID, ref.Type, params)
}

func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *Service) Apply(
	ctx context.Context,
	p auth.Principal,
	in ApplyInput,
) (*Outcome, error) {
	t, err := TypeForRole(p.Role)
	if err != nil {
		return nil, core.NewRuleError(core.ErrForbidden, "only practitioners and clinic owners can apply")
	}

	mine, err := s.repo.GetByOwner(ctx, p.UserID, t)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, p, EventApply, mine.Ref(), func(cur *Account) (*Transition, error) {
		return s.lifecycle.Apply(p, cur, in)
	})
}

func (s *Service) Approve(
	ctx context.Context,
	p auth.Principal,
	ref Ref,
	notes string,
) (*Outcome, error) {
	return s.run(ctx, p, EventApprove, ref, func(cur *Account) (*Transition, error) {
		return s.lifecycle.Approve(p, cur, notes)
	})
}

func (s *Service) Reject(
	ctx context.Context,
	p auth.Principal,
	ref Ref,
	notes string,
) (*Outcome, error) {
	return s.run(ctx, p, EventReject, ref, func(cur *Account) (*Transition, error) {
		return s.lifecycle.Reject(p, cur, notes)
	})
}

func (s *Service) SetStatus(
	ctx context.Context,
	p auth.Principal,
	ref Ref,
	status Status,
	notes string,
) (*Outcome, error) {
	return s.run(ctx, p, EventSetStatus, ref, func(cur *Account) (*Transition, error) {
		return s.lifecycle.SetStatus(p, cur, status, notes)
	})
}

func (s *Service) Annotate(
	ctx context.Context,
	p auth.Principal,
	ref Ref,
	in AnnotateInput,
) (*Outcome, error) {
	return s.run(ctx, p, EventAnnotate, ref, func(cur *Account) (*Transition, error) {
		return s.lifecycle.Annotate(p, cur, in)
	})
}

func (s *Service) Renew(
	ctx context.Context,
	p auth.Principal,
	ref Ref,
	until *time.Time,
) (*Outcome, error) {
	return s.run(ctx, p, EventRenew, ref, func(cur *Account) (*Transition, error) {
		return s.lifecycle.Renew(p, cur, until)
	})
}

func (s *Service) run(
	ctx context.Context,
	p auth.Principal,
	event Event,
	ref Ref,
	decide DecideFunc,
) (*Outcome, error) {
	ctx, span := core.StartSpan(ctx, "account."+string(event),
		attribute.String("account.ref", ref.String()),
		attribute.String("principal.role", string(p.Role)),
	)

	outcome, err := s.coord.Commit(ctx, ref, decide)
	core.RecordTransition(string(event), outcomeLabel(outcome, err))

	if errors.Is(err, core.ErrPersistence) {
		slog.ErrorContext(ctx, "lifecycle commit failed",
			"event", event,
			"account", ref.String(),
			"actor", p.UserID,
			"error", err,
		)
	}
	core.EndSpan(span, err)

	return outcome, err
}

func outcomeLabel(o *Outcome, err error) string {
	switch {
	case err == nil && o != nil:
		return o.Result.String()
	case errors.Is(err, core.ErrPersistence):
		return "persistence"
	case errors.Is(err, core.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, core.ErrForbidden):
		return "forbidden"
	case errors.Is(err, core.ErrValidation):
		return "validation"
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
