// AngelaMos | 2026
// coordinator.go

package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/history"
)

type Result int

const (
	ResultSuccess Result = iota + 1
	ResultNoChange
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultNoChange:
		return "no_change"
	default:
		return "unknown"
	}
}

func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Result) UnmarshalText(b []byte) error {
	switch string(b) {
	case "success":
		*r = ResultSuccess
	case "no_change":
		*r = ResultNoChange
	default:
		return fmt.Errorf("unknown result %q", b)
	}
	return nil
}

type Outcome struct {
	Result  Result
	Account *Account
	Entry   *history.Entry
}

// DecideFunc receives a private copy of the locked row.
type DecideFunc func(current *Account) (*Transition, error)

// Coordinator commits an account mutation and its ledger entry as one unit.
type Coordinator struct {
	db core.Beginner
}

func NewCoordinator(db core.Beginner) *Coordinator {
	return &Coordinator{db: db}
}

// Commit locks the account, asks decide for the transition and writes it.
// Rule errors from decide and ErrNotFound are returned unchanged after the
// rollback. Every other failure is reported as core.ErrPersistence.
func (c *Coordinator) Commit(
	ctx context.Context,
	ref Ref,
	decide DecideFunc,
) (*Outcome, error) {
	var (
		outcome  *Outcome
		passthru error
	)

	err := core.InTx(ctx, c.db, func(tx *sqlx.Tx) error {
		accounts := NewRepository(tx)

		current, err := accounts.GetForUpdate(ctx, ref)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				passthru = err
			}
			return err
		}

		tr, err := decide(current.Clone())
		if err != nil {
			passthru = err
			return err
		}

		next := tr.Next
		if next.ID != current.ID || next.Type != current.Type ||
			next.OwnerUserID != current.OwnerUserID {
			passthru = core.NewRuleError(core.ErrForbidden, "account identity and ownership are immutable")
			return passthru
		}

		if !differs(current, next) {
			outcome = &Outcome{Result: ResultNoChange, Account: current}
			return nil
		}

		if err := accounts.Update(ctx, next); err != nil {
			return err
		}

		if tr.Entry != nil {
			if err := history.NewRepository(tx).Append(ctx, tr.Entry); err != nil {
				return err
			}
		}

		outcome = &Outcome{Result: ResultSuccess, Account: next, Entry: tr.Entry}
		return nil
	})
	if err != nil {
		// InTx hands back fn's error untouched only when the rollback
		// succeeded.
		if passthru != nil && err == passthru { //nolint:errorlint // identity check
			return nil, passthru
		}
		return nil, fmt.Errorf("commit %s: %w: %w", ref, core.ErrPersistence, err)
	}

	return outcome, nil
}
