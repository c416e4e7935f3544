// AngelaMos | 2026
// lifecycle.go

package account

import (
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/auth"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/history"
)

type Event string

const (
	EventApply     Event = "apply"
	EventApprove   Event = "approve"
	EventReject    Event = "reject"
	EventSetStatus Event = "set_status"
	EventAnnotate  Event = "annotate"
	EventRenew     Event = "renew"
)

const (
	msgAwaitingReview = "awaiting review"
	msgApproved       = "approved"
	msgRejected       = "rejected"
)

// Transition is the outcome of a lifecycle decision. Entry is nil when the
// event writes nothing to the ledger.
type Transition struct {
	Event Event
	Next  *Account
	Entry *history.Entry
}

type ApplyInput struct {
	PaymentReceiptRef string
	TierName          string
}

type AnnotateInput struct {
	Notes    *string
	Verified *bool
}

type LifecycleOption func(*Lifecycle)

func WithLifecycleClock(now func() time.Time) LifecycleOption {
	return func(l *Lifecycle) {
		l.now = now
	}
}

// Lifecycle holds the moderation rules. Every method is a pure decision over
// the principal and the current account; nothing is written here.
type Lifecycle struct {
	renewalPeriod time.Duration
	now           func() time.Time
}

func NewLifecycle(renewalPeriod time.Duration, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{
		renewalPeriod: renewalPeriod,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Lifecycle) Apply(
	p auth.Principal,
	cur *Account,
	in ApplyInput,
) (*Transition, error) {
	if p.UserID != cur.OwnerUserID {
		return nil, core.NewRuleError(core.ErrForbidden, "only the account owner may apply")
	}
	if err := auth.Authorize(p, auth.NewRoleSet(ownerRoleFor(cur.Type)), cur.OwnerUserID); err != nil {
		return nil, core.NewRuleError(core.ErrForbidden, "role may not apply for a %s account", strings.ToLower(string(cur.Type)))
	}

	switch cur.Status {
	case StatusDraft, StatusRejected:
	case StatusPendingApproval:
		return nil, core.NewRuleError(core.ErrInvalidTransition, "an application is already pending review")
	case StatusLive:
		return nil, core.NewRuleError(core.ErrInvalidTransition, "cannot apply for an account that is already live")
	default:
		return nil, core.NewRuleError(core.ErrInvalidTransition, "cannot apply from status %q", cur.Status)
	}

	receipt := strings.TrimSpace(in.PaymentReceiptRef)
	tier := strings.TrimSpace(in.TierName)
	if receipt == "" {
		return nil, core.NewRuleError(core.ErrValidation, "payment receipt reference is required")
	}
	if tier == "" {
		return nil, core.NewRuleError(core.ErrValidation, "tier name is required")
	}

	now := l.now()
	next := cur.Clone()
	next.Status = StatusPendingApproval
	next.ApplicationDate = &now
	next.PaymentReceiptRef = receipt
	next.StatusMessage = msgAwaitingReview
	next.TierName = tier

	return l.transition(EventApply, cur, next, history.ActionApplied, history.Details{
		PreviousStatus: string(cur.Status),
		NewStatus:      string(next.Status),
		OwnerID:        p.UserID,
		ReceiptRef:     receipt,
		TierName:       tier,
	})
}

func (l *Lifecycle) Approve(
	p auth.Principal,
	cur *Account,
	notes string,
) (*Transition, error) {
	if err := requireModerator(p); err != nil {
		return nil, err
	}
	if cur.Status != StatusPendingApproval {
		return nil, core.NewRuleError(core.ErrInvalidTransition, "cannot approve an account that is not pending review")
	}

	now := l.now()
	next := cur.Clone()
	next.Status = StatusLive
	next.IsVerified = true
	next.StatusMessage = msgApproved
	if next.RenewalDate == nil {
		renewal := now.Add(l.renewalPeriod)
		next.RenewalDate = &renewal
	}
	setNotes(next, notes)

	return l.transition(EventApprove, cur, next, history.ActionApproved, moderationDetails(p, cur, next, notes))
}

func (l *Lifecycle) Reject(
	p auth.Principal,
	cur *Account,
	notes string,
) (*Transition, error) {
	if err := requireModerator(p); err != nil {
		return nil, err
	}
	if cur.Status != StatusPendingApproval {
		return nil, core.NewRuleError(core.ErrInvalidTransition, "cannot reject an account that is not pending review")
	}

	next := cur.Clone()
	next.Status = StatusRejected
	next.StatusMessage = msgRejected
	setNotes(next, notes)

	return l.transition(EventReject, cur, next, history.ActionRejected, moderationDetails(p, cur, next, notes))
}

// SetStatus is the admin correction path. It bypasses the review guard, never
// touches the renewal date, and logs only when the status actually moves.
func (l *Lifecycle) SetStatus(
	p auth.Principal,
	cur *Account,
	status Status,
	notes string,
) (*Transition, error) {
	if err := requireModerator(p); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, core.NewRuleError(core.ErrValidation, "unknown status %q", status)
	}

	next := cur.Clone()
	next.Status = status
	setNotes(next, notes)

	if status == cur.Status {
		return &Transition{Event: EventSetStatus, Next: next}, nil
	}

	return l.transition(EventSetStatus, cur, next, history.ActionStatusChanged, moderationDetails(p, cur, next, notes))
}

func (l *Lifecycle) Annotate(
	p auth.Principal,
	cur *Account,
	in AnnotateInput,
) (*Transition, error) {
	if err := requireModerator(p); err != nil {
		return nil, err
	}

	next := cur.Clone()
	if in.Notes != nil {
		next.AdminNotes = clonePtr(in.Notes)
	}
	if in.Verified != nil {
		next.IsVerified = *in.Verified
	}

	return &Transition{Event: EventAnnotate, Next: next}, nil
}

// Renew extends the membership of a live account. Without an explicit date
// the period is added to the later of now and the current renewal date.
func (l *Lifecycle) Renew(
	p auth.Principal,
	cur *Account,
	until *time.Time,
) (*Transition, error) {
	if err := requireModerator(p); err != nil {
		return nil, err
	}
	if cur.Status != StatusLive {
		return nil, core.NewRuleError(core.ErrInvalidTransition, "cannot renew an account that is not live")
	}

	now := l.now()

	var renewal time.Time
	if until != nil {
		if !until.After(now) {
			return nil, core.NewRuleError(core.ErrValidation, "renewal date must be in the future")
		}
		renewal = *until
	} else {
		base := now
		if cur.RenewalDate != nil && cur.RenewalDate.After(base) {
			base = *cur.RenewalDate
		}
		renewal = base.Add(l.renewalPeriod)
	}

	next := cur.Clone()
	next.RenewalDate = &renewal

	return l.transition(EventRenew, cur, next, history.ActionRenewed, history.Details{
		PreviousStatus: string(cur.Status),
		NewStatus:      string(next.Status),
		AdminID:        p.UserID,
		RenewalDate:    &renewal,
	})
}

func (l *Lifecycle) transition(
	event Event,
	cur, next *Account,
	action string,
	details history.Details,
) (*Transition, error) {
	entry, err := history.NewEntry(cur.ID, cur.Type, action, details, l.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", event, err)
	}
	return &Transition{Event: event, Next: next, Entry: entry}, nil
}

func requireModerator(p auth.Principal) error {
	if err := auth.RequireAdmin(p); err != nil {
		return core.NewRuleError(core.ErrForbidden, "only administrators may moderate accounts")
	}
	return nil
}

func setNotes(a *Account, notes string) {
	if notes = strings.TrimSpace(notes); notes != "" {
		a.AdminNotes = &notes
	}
}

func moderationDetails(p auth.Principal, cur, next *Account, notes string) history.Details {
	return history.Details{
		PreviousStatus: string(cur.Status),
		NewStatus:      string(next.Status),
		AdminID:        p.UserID,
		Notes:          strings.TrimSpace(notes),
	}
}
