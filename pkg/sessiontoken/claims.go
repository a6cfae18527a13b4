// Package sessiontoken defines the wire payload of a session token, shared by
// the API (which signs and verifies it) and clients (which only decode it).
package sessiontoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/revtrack/revenue-tracker/pkg/rbac"
)

// Issuer is stamped into every token and required on verification.
const Issuer = "revenue-tracker"

// Claims is the signed session payload. The subject is the account id.
type Claims struct {
	Email          string    `json:"email,omitempty"`
	Name           string    `json:"name,omitempty"`
	Role           rbac.Role `json:"role,omitempty"`
	AffiliationIDs []string  `json:"affiliation_ids,omitempty"`
	// IssuedAtMillis repeats iat in Unix milliseconds. iat alone is whole
	// seconds, too coarse to order issuance against a password change.
	IssuedAtMillis int64 `json:"iat_ms,omitempty"`
	jwt.RegisteredClaims
}

// AccountID returns the account the token was issued for.
func (c *Claims) AccountID() string { return c.Subject }

// IssuedTime is the most precise issuance instant the token carries.
func (c *Claims) IssuedTime() time.Time {
	if c.IssuedAtMillis > 0 {
		return time.UnixMilli(c.IssuedAtMillis)
	}
	if c.IssuedAt != nil {
		return c.IssuedAt.Time
	}
	return time.Time{}
}

var ErrUndecodable = errors.New("session token undecodable")

// DecodeUnverified reads the payload of token without checking its signature
// or expiry. The result is advisory: it may drive UI decisions but must never
// be treated as proof of identity. Only the API's access guard is authoritative.
func DecodeUnverified(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrUndecodable)
	}
	return claims, nil
}
