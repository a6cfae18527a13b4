package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/revtrack/revenue-tracker/internal/core/domain"
	"github.com/revtrack/revenue-tracker/internal/core/ports"
)

// dummyHash is compared against when the identifier is unknown so a miss
// costs one bcrypt comparison, same as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("revenue-tracker/no-such-account"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
})

// CredentialVerifier checks a login credential against the stored account.
type CredentialVerifier struct {
	repo ports.AccountRepository
}

func NewCredentialVerifier(repo ports.AccountRepository) *CredentialVerifier {
	return &CredentialVerifier{repo: repo}
}

// Verify returns the account when secret matches its stored hash. Unknown
// identifiers and wrong secrets both yield domain.ErrAuthenticationFailed.
// Repository failures other than not-found are returned wrapped.
func (v *CredentialVerifier) Verify(ctx context.Context, identifier, secret string) (*domain.Account, error) {
	identifier = normalizeEmail(identifier)
	if identifier == "" || secret == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(secret))
		return nil, domain.ErrAuthenticationFailed
	}

	account, err := v.repo.FindByEmail(ctx, identifier)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(secret))
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAuthenticationFailed
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(secret)); err != nil {
		return nil, domain.ErrAuthenticationFailed
	}
	return account, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
