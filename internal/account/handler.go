// AngelaMos | 2026
// handler.go

package account

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/auth"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/history"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/accounts", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.GetMine)
		r.Post("/me/apply", h.Apply)
		r.Get("/{type}/{id}", h.Get)
		r.Get("/{type}/{id}/history", h.History)
	})
}

func (h *Handler) GetMine(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	a, err := h.service.GetMine(r.Context(), p)
	if err != nil {
		WriteError(w, err)
		return
	}

	core.OK(w, ToAccountResponse(a, p.IsAdmin()))
}

func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	outcome, err := h.service.Apply(r.Context(), p, ApplyInput{
		PaymentReceiptRef: req.PaymentReceiptRef,
		TierName:          req.TierName,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	core.OK(w, ToOutcomeResponse(outcome, false))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	ref, err := RefFromRequest(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	a, err := h.service.Get(r.Context(), p, ref)
	if err != nil {
		WriteError(w, err)
		return
	}

	core.OK(w, ToAccountResponse(a, p.IsAdmin()))
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	ref, err := RefFromRequest(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	params := history.ListParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 50),
	}
	params.Normalize()

	entries, total, err := h.service.History(r.Context(), p, ref, params)
	if err != nil {
		WriteError(w, err)
		return
	}

	core.Paginated(
		w,
		history.ToEntryResponseList(entries),
		params.Page,
		params.PageSize,
		total,
	)
}

// RefFromRequest reads {type} and {id} from the route. The type is matched
// case-insensitively.
func RefFromRequest(r *http.Request) (Ref, error) {
	t, err := history.ParseTargetType(strings.ToUpper(chi.URLParam(r, "type")))
	if err != nil {
		return Ref{}, core.NewRuleError(core.ErrValidation, "account type must be THERAPIST or CLINIC")
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		return Ref{}, core.NewRuleError(core.ErrValidation, "account id is required")
	}

	return Ref{Type: t, ID: id}, nil
}

// WriteError maps lifecycle and guard failures onto the response envelope.
// Rule messages are echoed, store internals are not.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrPersistence):
		core.InternalServerError(w, err)
	case errors.Is(err, core.ErrInvalidTransition):
		core.JSONError(w, core.TransitionError(core.RuleMessage(err)))
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, ruleMessageOr(err, "insufficient permissions"))
	case errors.Is(err, core.ErrValidation):
		core.BadRequest(w, ruleMessageOr(err, "invalid request"))
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "account")
	default:
		core.InternalServerError(w, err)
	}
}

func ruleMessageOr(err error, fallback string) string {
	var rule *core.RuleError
	if errors.As(err, &rule) {
		return rule.Message
	}
	return fallback
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
