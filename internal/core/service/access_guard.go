package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/revtrack/revenue-tracker/internal/core/domain"
	"github.com/revtrack/revenue-tracker/pkg/sessiontoken"
)

// GuardState is a step of the per-request authentication walk.
type GuardState int

const (
	StateUnauthenticated GuardState = iota
	StateTokenExtracted
	StateTokenVerified
	StateIdentityResolved
	StateAuthorized
)

func (s GuardState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateTokenExtracted:
		return "token_extracted"
	case StateTokenVerified:
		return "token_verified"
	case StateIdentityResolved:
		return "identity_resolved"
	case StateAuthorized:
		return "authorized"
	default:
		return fmt.Sprintf("guard_state(%d)", int(s))
	}
}

// DenialKind says why the guard refused a request. It is for logs and
// metrics only; clients always see the same unauthorized response.
type DenialKind string

const (
	DenialNoCredential      DenialKind = "no_credential_supplied"
	DenialSessionInvalid    DenialKind = "session_invalid"
	DenialAccountGone       DenialKind = "account_gone"
	DenialSessionSuperseded DenialKind = "session_superseded"
)

// Denial is returned by AccessGuard.Check when a request must not proceed.
type Denial struct {
	Kind DenialKind
	At   GuardState
	Err  error
}

func (d *Denial) Error() string {
	if d.Err != nil {
		return fmt.Sprintf("access denied (%s at %s): %v", d.Kind, d.At, d.Err)
	}
	return fmt.Sprintf("access denied (%s at %s)", d.Kind, d.At)
}

func (d *Denial) Unwrap() error { return d.Err }

// AsDenial extracts a Denial from err.
func AsDenial(err error) (*Denial, bool) {
	var d *Denial
	ok := errors.As(err, &d)
	return d, ok
}

// CredentialSource is the raw material a request offers for authentication.
type CredentialSource struct {
	Authorization string
	Cookie        string
}

// Token picks the bearer token from the Authorization header, falling back to
// the session cookie.
func (s CredentialSource) Token() (string, bool) {
	if token, ok := bearerToken(s.Authorization); ok {
		return token, true
	}
	if c := strings.TrimSpace(s.Cookie); c != "" {
		return c, true
	}
	return "", false
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// TokenVerifier is the part of TokenCodec the guard depends on.
type TokenVerifier interface {
	Verify(token string) (*sessiontoken.Claims, error)
}

// AccountFinder resolves the account a verified token names.
type AccountFinder interface {
	FindByID(ctx context.Context, id string) (*domain.Account, error)
}

// ResolvedIdentity is the request-scoped result of a successful check. It
// must not outlive the request.
type ResolvedIdentity struct {
	Account *domain.Account
	Claims  *sessiontoken.Claims
}

// AccessGuard authenticates requests. It keeps no per-request state between
// calls and is safe for concurrent use.
type AccessGuard struct {
	tokens   TokenVerifier
	accounts AccountFinder
}

func NewAccessGuard(tokens TokenVerifier, accounts AccountFinder) *AccessGuard {
	return &AccessGuard{tokens: tokens, accounts: accounts}
}

// Check walks Unauthenticated → TokenExtracted → TokenVerified →
// IdentityResolved → Authorized. A refusal is reported as *Denial; any other
// error is an infrastructure failure while resolving the account.
//
// Check does not look at roles. Callers that restrict by role apply
// rbac.Allows to the resolved account afterwards.
func (g *AccessGuard) Check(ctx context.Context, src CredentialSource) (*ResolvedIdentity, error) {
	var (
		state   = StateUnauthenticated
		token   string
		claims  *sessiontoken.Claims
		account *domain.Account
	)

	for {
		switch state {
		case StateUnauthenticated:
			t, ok := src.Token()
			if !ok {
				return nil, &Denial{Kind: DenialNoCredential, At: state}
			}
			token, state = t, StateTokenExtracted

		case StateTokenExtracted:
			c, err := g.tokens.Verify(token)
			if err != nil {
				return nil, &Denial{Kind: DenialSessionInvalid, At: state, Err: err}
			}
			claims, state = c, StateTokenVerified

		case StateTokenVerified:
			a, err := g.accounts.FindByID(ctx, claims.AccountID())
			if err != nil {
				if errors.Is(err, domain.ErrAccountNotFound) {
					return nil, &Denial{Kind: DenialAccountGone, At: state, Err: err}
				}
				return nil, fmt.Errorf("resolve account: %w", err)
			}
			account, state = a, StateIdentityResolved

		case StateIdentityResolved:
			if account.SupersededAt(claims.IssuedTime()) {
				return nil, &Denial{Kind: DenialSessionSuperseded, At: state}
			}
			state = StateAuthorized

		case StateAuthorized:
			return &ResolvedIdentity{Account: account, Claims: claims}, nil
		}
	}
}
