package domain

import (
	"time"

	"github.com/revtrack/revenue-tracker/pkg/rbac"
)

// Account models an identity that can sign in to the tracker.
// The persistence layer owns it; the auth core only reads it, except for
// password changes which go through AccountRepository.UpdatePassword.
type Account struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	Role              rbac.Role `json:"role"`
	AffiliationIDs    []string  `json:"affiliation_ids,omitempty"`
	PasswordHash      string    `json:"-"`
	PasswordChangedAt time.Time `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// PublicAccount is the projection of an Account that may leave the server.
// It has no credential material at all.
type PublicAccount struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           rbac.Role `json:"role"`
	AffiliationIDs []string  `json:"affiliation_ids"`
}

// Public returns the client-safe projection of a.
func (a *Account) Public() PublicAccount {
	ids := make([]string, len(a.AffiliationIDs))
	copy(ids, a.AffiliationIDs)
	return PublicAccount{
		ID:             a.ID,
		Email:          a.Email,
		Name:           a.Name,
		Role:           a.Role,
		AffiliationIDs: ids,
	}
}

// SupersededAt reports whether a session issued at issuedAt predates the
// account's last password change. Both sides compare at millisecond
// granularity, the precision the account store keeps.
func (a *Account) SupersededAt(issuedAt time.Time) bool {
	if a.PasswordChangedAt.IsZero() {
		return false
	}
	changed := a.PasswordChangedAt.Truncate(time.Millisecond)
	return changed.After(issuedAt.Truncate(time.Millisecond))
}
