// AngelaMos | 2026
// authenticator.go

package auth

import (
	"errors"
	"strings"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
)

type AuthErrorKind int

const (
	Unauthenticated AuthErrorKind = iota + 1
	Forbidden
)

func (k AuthErrorKind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// AuthError keeps "bad or missing credential" apart from "valid credential,
// wrong role". Reason and Cause are for logs.
type AuthError struct {
	Kind   AuthErrorKind
	Reason string
	Cause  error
}

func (e *AuthError) Error() string {
	return e.Kind.String() + ": " + e.Reason
}

func (e *AuthError) Unwrap() []error {
	sentinel := core.ErrUnauthorized
	if e.Kind == Forbidden {
		sentinel = core.ErrForbidden
	}
	if e.Cause == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Cause}
}

func AsAuthError(err error) (*AuthError, bool) {
	var aerr *AuthError
	if errors.As(err, &aerr) {
		return aerr, true
	}
	return nil, false
}

// TokenParser is satisfied by *Codec.
type TokenParser interface {
	Parse(raw string) (*SessionClaims, error)
}

type Authenticator struct {
	parser TokenParser
}

func NewAuthenticator(parser TokenParser) *Authenticator {
	return &Authenticator{parser: parser}
}

// Authenticate turns an Authorization header value into a Principal. An
// empty required set accepts any authenticated role.
func (a *Authenticator) Authenticate(
	header string,
	required RoleSet,
) (Principal, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Principal{}, &AuthError{Kind: Unauthenticated, Reason: "header missing"}
	}

	scheme, token, found := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return Principal{}, &AuthError{Kind: Unauthenticated, Reason: "bad scheme"}
	}

	claims, err := a.parser.Parse(token)
	if err != nil {
		reason := "invalid"
		if cerr, ok := AsCodecError(err); ok {
			reason = cerr.Kind.String()
		}
		return Principal{}, &AuthError{
			Kind:   Unauthenticated,
			Reason: reason,
			Cause:  err,
		}
	}

	p := claims.Principal()
	if !required.Empty() && !required.Has(p.Role) {
		return Principal{}, &AuthError{Kind: Forbidden, Reason: "role not allowed"}
	}

	return p, nil
}
