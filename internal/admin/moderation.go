// AngelaMos | 2026
// moderation.go

package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/account"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/auth"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
)

// Moderator is satisfied by *account.Service.
type Moderator interface {
	Approve(ctx context.Context, p auth.Principal, ref account.Ref, notes string) (*account.Outcome, error)
	Reject(ctx context.Context, p auth.Principal, ref account.Ref, notes string) (*account.Outcome, error)
	SetStatus(
		ctx context.Context,
		p auth.Principal,
		ref account.Ref,
		status account.Status,
		notes string,
	) (*account.Outcome, error)
	Annotate(ctx context.Context, p auth.Principal, ref account.Ref, in account.AnnotateInput) (*account.Outcome, error)
	Renew(ctx context.Context, p auth.Principal, ref account.Ref, until *time.Time) (*account.Outcome, error)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	var req account.ModerationRequest
	h.moderate(w, r, &req, func(ctx context.Context, p auth.Principal, ref account.Ref) (*account.Outcome, error) {
		return h.moderator.Approve(ctx, p, ref, req.Notes)
	})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var req account.ModerationRequest
	h.moderate(w, r, &req, func(ctx context.Context, p auth.Principal, ref account.Ref) (*account.Outcome, error) {
		return h.moderator.Reject(ctx, p, ref, req.Notes)
	})
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req account.SetStatusRequest
	h.moderate(w, r, &req, func(ctx context.Context, p auth.Principal, ref account.Ref) (*account.Outcome, error) {
		return h.moderator.SetStatus(ctx, p, ref, req.Status, req.Notes)
	})
}

func (h *Handler) Annotate(w http.ResponseWriter, r *http.Request) {
	var req account.AnnotateRequest
	h.moderate(w, r, &req, func(ctx context.Context, p auth.Principal, ref account.Ref) (*account.Outcome, error) {
		return h.moderator.Annotate(ctx, p, ref, account.AnnotateInput{
			Notes:    req.Notes,
			Verified: req.IsVerified,
		})
	})
}

func (h *Handler) Renew(w http.ResponseWriter, r *http.Request) {
	var req account.RenewRequest
	h.moderate(w, r, &req, func(ctx context.Context, p auth.Principal, ref account.Ref) (*account.Outcome, error) {
		return h.moderator.Renew(ctx, p, ref, req.Until)
	})
}

type moderateFunc func(ctx context.Context, p auth.Principal, ref account.Ref) (*account.Outcome, error)

// moderate decodes and validates req, then runs fn. An empty body is
// accepted for actions whose fields are all optional. NoChange is a 200
// like any other result.
func (h *Handler) moderate(w http.ResponseWriter, r *http.Request, req any, fn moderateFunc) {
	if h.moderator == nil {
		core.NotFound(w, "route")
		return
	}

	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	ref, err := account.RefFromRequest(r)
	if err != nil {
		account.WriteError(w, err)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	outcome, err := fn(r.Context(), p, ref)
	if err != nil {
		account.WriteError(w, err)
		return
	}

	core.OK(w, account.ToOutcomeResponse(outcome, true))
}
