// AngelaMos | 2026
// codec.go

package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/config"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
)

const (
	dataClaim       = "data"
	minSecretLength = 32
)

// SessionClaims are the business claims carried in the "data" object of a
// session token, plus the registered claims the codec fills in.
type SessionClaims struct {
	UserID    string
	Email     string
	Role      Role
	Name      string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (c *SessionClaims) Principal() Principal {
	return Principal{
		UserID: c.UserID,
		Role:   c.Role,
		Name:   c.Name,
		Email:  c.Email,
	}
}

type CodecErrorKind int

const (
	CodecMalformed CodecErrorKind = iota + 1
	CodecExpired
	CodecNotYetValid
	CodecSignatureInvalid
	CodecInvalid
)

func (k CodecErrorKind) String() string {
	switch k {
	case CodecMalformed:
		return "malformed"
	case CodecExpired:
		return "expired"
	case CodecNotYetValid:
		return "not_yet_valid"
	case CodecSignatureInvalid:
		return "signature_invalid"
	case CodecInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// CodecError is the tagged failure returned by Codec.Parse. Reason is meant
// for logs only.
type CodecError struct {
	Kind   CodecErrorKind
	Reason string
}

func (e *CodecError) Error() string {
	if e.Reason == "" {
		return "token " + e.Kind.String()
	}
	return "token " + e.Kind.String() + ": " + e.Reason
}

func (e *CodecError) Unwrap() error {
	if e.Kind == CodecExpired {
		return core.ErrTokenExpired
	}
	return core.ErrTokenInvalid
}

func codecErr(kind CodecErrorKind, format string, args ...any) *CodecError {
	return &CodecError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

type CodecOption func(*Codec)

// WithCodecClock overrides the time source used for iat, exp and the
// validity checks.
func WithCodecClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

// Codec issues and verifies HS256 session tokens with one process-wide
// secret. It is safe for concurrent use.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewCodec(cfg config.JWTConfig, opts ...CodecOption) (*Codec, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf(
			"jwt secret must be at least %d bytes",
			minSecretLength,
		)
	}

	c := &Codec{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.AccessTokenExpire,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DefaultTTL is the configured session lifetime.
func (c *Codec) DefaultTTL() time.Duration {
	return c.ttl
}

func (c *Codec) Issue(claims SessionClaims, ttl time.Duration) (string, error) {
	if claims.UserID == "" {
		return "", fmt.Errorf("issue token: missing user id: %w", core.ErrValidation)
	}
	if !claims.Role.Valid() {
		return "", fmt.Errorf("issue token: bad role: %w", core.ErrValidation)
	}
	if ttl < 0 {
		return "", fmt.Errorf("issue token: negative ttl: %w", core.ErrValidation)
	}

	now := c.now()

	token, err := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(c.issuer).
		Audience([]string{c.audience}).
		Subject(claims.UserID).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Claim(dataClaim, map[string]any{
			"userId": claims.UserID,
			"email":  claims.Email,
			"role":   string(claims.Role),
			"name":   claims.Name,
		}).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), c.secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return string(signed), nil
}

// Parse decodes and verifies raw. Time bounds are checked before the
// signature, so an expired token reports Expired even when forged.
func (c *Codec) Parse(raw string) (*SessionClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, codecErr(CodecMalformed, "empty token")
	}

	token, err := jwt.ParseInsecure([]byte(raw))
	if err != nil {
		return nil, codecErr(CodecMalformed, "decode: %v", err)
	}

	if cerr := c.checkTimes(token); cerr != nil {
		return nil, cerr
	}

	if _, err := jws.Verify([]byte(raw), jws.WithKey(jwa.HS256(), c.secret)); err != nil {
		return nil, codecErr(CodecSignatureInvalid, "verify: %v", err)
	}

	if iss, _ := token.Issuer(); iss != c.issuer {
		return nil, codecErr(CodecInvalid, "issuer %q", iss)
	}
	if aud, _ := token.Audience(); !slices.Contains(aud, c.audience) {
		return nil, codecErr(CodecInvalid, "audience %v", aud)
	}

	return extractClaims(token)
}

func (c *Codec) checkTimes(token jwt.Token) *CodecError {
	now := c.now()

	exp, ok := token.Expiration()
	if !ok {
		return codecErr(CodecInvalid, "missing exp")
	}
	if !now.Before(exp) {
		return codecErr(CodecExpired, "expired at %s", exp.UTC().Format(time.RFC3339))
	}

	if iat, ok := token.IssuedAt(); ok && now.Before(iat) {
		return codecErr(CodecNotYetValid, "issued at %s", iat.UTC().Format(time.RFC3339))
	}
	if nbf, ok := token.NotBefore(); ok && now.Before(nbf) {
		return codecErr(CodecNotYetValid, "not before %s", nbf.UTC().Format(time.RFC3339))
	}

	return nil
}

func extractClaims(token jwt.Token) (*SessionClaims, error) {
	var data map[string]any
	if err := token.Get(dataClaim, &data); err != nil {
		return nil, codecErr(CodecMalformed, "data claim: %v", err)
	}

	str := func(key string) string {
		s, _ := data[key].(string)
		return s
	}

	userID := str("userId")
	if userID == "" {
		return nil, codecErr(CodecMalformed, "data.userId missing")
	}
	if sub, ok := token.Subject(); ok && sub != userID {
		return nil, codecErr(CodecInvalid, "subject does not match data.userId")
	}

	role, err := ParseRole(str("role"))
	if err != nil {
		return nil, codecErr(CodecInvalid, "role: %v", err)
	}

	claims := &SessionClaims{
		UserID: userID,
		Email:  str("email"),
		Role:   role,
		Name:   str("name"),
	}
	claims.TokenID, _ = token.JwtID()
	claims.IssuedAt, _ = token.IssuedAt()
	claims.ExpiresAt, _ = token.Expiration()

	return claims, nil
}

// AsCodecError unwraps err into a *CodecError when it is one.
func AsCodecError(err error) (*CodecError, bool) {
	var cerr *CodecError
	if errors.As(err, &cerr) {
		return cerr, true
	}
	return nil, false
}
