// AngelaMos | 2026
// auth.go

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/auth"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
)

// Authenticate resolves the bearer token into a Principal and stores it on
// the request context. With no roles given any authenticated caller passes.
func Authenticate(
	authn *auth.Authenticator,
	roles ...auth.Role,
) func(http.Handler) http.Handler {
	required := auth.NewRoleSet(roles...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := authn.Authenticate(r.Header.Get("Authorization"), required)
			if err != nil {
				handleAuthError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAdmin authenticates and admits ADMIN only.
func RequireAdmin(authn *auth.Authenticator) func(http.Handler) http.Handler {
	return Authenticate(authn, auth.RoleAdmin)
}

// handleAuthError answers with a generic message. The failure reason goes
// to the log and the auth failure counter only.
func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	aerr, ok := auth.AsAuthError(err)
	if !ok {
		core.JSONError(w, core.TokenInvalidError())
		return
	}

	core.RecordAuthFailure(aerr.Reason)
	slog.DebugContext(r.Context(), "request not authenticated",
		"kind", aerr.Kind.String(),
		"reason", aerr.Reason,
		"path", r.URL.Path,
		"request_id", GetRequestID(r.Context()),
	)

	switch {
	case aerr.Kind == auth.Forbidden:
		core.JSONError(w, core.ForbiddenError(""))
	case aerr.Reason == auth.CodecExpired.String():
		core.JSONError(w, core.TokenExpiredError())
	case aerr.Cause != nil:
		core.JSONError(w, core.TokenInvalidError())
	default:
		core.JSONError(w, core.UnauthorizedError(""))
	}
}
