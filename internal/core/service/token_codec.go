package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/revtrack/revenue-tracker/pkg/rbac"
	"github.com/revtrack/revenue-tracker/pkg/sessiontoken"
)

// Verification failure kinds. Verify wraps exactly one of them.
var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
)

const defaultTokenTTL = 24 * time.Hour

// ExtraClaims are the non-registered claims embedded at issuance so clients
// can render an identity without another round trip.
type ExtraClaims struct {
	Email          string
	Name           string
	Role           rbac.Role
	AffiliationIDs []string
}

// TokenCodec signs and verifies HS256 session tokens with a shared secret.
// It holds no mutable state after construction.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

// CodecOption tunes a TokenCodec at construction.
type CodecOption func(*TokenCodec)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) { c.now = now }
}

// WithLeeway tolerates clock skew on expiry checks. Zero by default.
func WithLeeway(d time.Duration) CodecOption {
	return func(c *TokenCodec) {
		if d > 0 {
			c.leeway = d
		}
	}
}

// NewTokenCodec copies secret so later mutation by the caller has no effect.
func NewTokenCodec(secret []byte, ttl time.Duration, opts ...CodecOption) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token codec: empty signing secret")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	c := &TokenCodec{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the validity window of issued tokens.
func (c *TokenCodec) TTL() time.Duration { return c.ttl }

// Issue signs a token for accountID valid for the configured window.
func (c *TokenCodec) Issue(accountID string, extra ExtraClaims) (string, error) {
	if accountID == "" {
		return "", errors.New("token codec: empty account id")
	}
	now := c.now()
	claims := sessiontoken.Claims{
		Email:          extra.Email,
		Name:           extra.Name,
		Role:           extra.Role,
		AffiliationIDs: extra.AffiliationIDs,
		IssuedAtMillis: now.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    sessiontoken.Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and expiry. It never returns claims together
// with an error.
func (c *TokenCodec) Verify(token string) (*sessiontoken.Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessiontoken.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(c.now),
	)

	claims := &sessiontoken.Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if !parsed.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, ErrTokenMalformed
	}
	if claims.IssuedAtMillis != 0 && claims.IssuedAtMillis/1000 != claims.IssuedAt.Unix() {
		return nil, fmt.Errorf("%w: iat_ms disagrees with iat", ErrTokenMalformed)
	}
	return claims, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

// TokenErrorKind names the failure kind of a Verify error for logs and metrics.
func TokenErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenSignature):
		return "invalid_signature"
	case errors.Is(err, ErrTokenMalformed):
		return "malformed"
	default:
		return "unknown"
	}
}
