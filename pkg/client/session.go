// Package client holds the client-side session lifecycle shared by the web
// console and mobile builds: token persistence, bootstrap, decode, expiry and
// the navigation guard.
//
// Decoding here is advisory. The client reads its own stored token without
// verifying the signature so it can render and gate UI; the API's access
// guard remains the only authority on whether a session is valid.
package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/revtrack/revenue-tracker/pkg/rbac"
	"github.com/revtrack/revenue-tracker/pkg/sessiontoken"
)

var (
	// ErrAuthenticationFailed is returned for every unsuccessful login: bad
	// credential, network failure, timeout or an unusable server answer.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrLoginCancelled is returned by a login that resolved after Logout.
	ErrLoginCancelled = errors.New("login cancelled by logout")

	errTokenExpired = errors.New("session token expired")
)

const defaultLoginTimeout = 15 * time.Second

// State is the coarse auth state UI code renders from.
type State int

const (
	StateLoading State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Decision is the outcome of a navigation guard.
type Decision int

const (
	DecisionAllow Decision = iota
	// DecisionWait means the identity is still resolving; show a loading state.
	DecisionWait
	DecisionRedirectLogin
	DecisionForbidden
)

// Identity is the client's view of who is signed in, derived only from the
// token payload.
type Identity struct {
	ID             string
	Email          string
	Name           string
	Role           rbac.Role
	AffiliationIDs []string
	ExpiresAt      time.Time
}

func (i *Identity) clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	c.AffiliationIDs = append([]string(nil), i.AffiliationIDs...)
	return &c
}

func (i *Identity) expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Session owns the persisted token and the in-memory identity slot.
// All methods are safe for concurrent use.
type Session struct {
	store        TokenStore
	auth         Authenticator
	log          zerolog.Logger
	now          func() time.Time
	loginTimeout time.Duration

	mu       sync.Mutex
	resolved bool
	pending  int
	identity *Identity
	token    string
	// version changes on every login commit and logout; logouts only on logout.
	version uint64
	logouts uint64
}

// SessionOption configures a Session.
type SessionOption func(*Session)

func WithLogger(log zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = log }
}

func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithLoginTimeout bounds logins whose context carries no deadline.
func WithLoginTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.loginTimeout = d }
}

// NewSession returns a session in StateLoading; call Bootstrap to resolve it.
func NewSession(store TokenStore, auth Authenticator, opts ...SessionOption) *Session {
	s := &Session{
		store:        store,
		auth:         auth,
		log:          zerolog.Nop(),
		now:          time.Now,
		loginTimeout: defaultLoginTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bootstrap restores the session from the persisted token. A token that does
// not decode or has expired is removed from storage and nil is returned.
func (s *Session) Bootstrap(ctx context.Context) *Identity {
	return s.reload(ctx)
}

// Refresh re-derives the identity from whatever token is persisted now,
// without contacting the server.
func (s *Session) Refresh(ctx context.Context) *Identity {
	return s.reload(ctx)
}

func (s *Session) reload(ctx context.Context) *Identity {
	s.mu.Lock()
	version := s.version
	s.pending++
	s.mu.Unlock()

	token, loadErr := s.store.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	s.resolved = true

	if s.version != version {
		// A login or logout committed while we were reading; it wins.
		return s.currentLocked()
	}
	if loadErr != nil {
		s.log.Warn().Err(loadErr).Msg("session store unreadable, starting signed out")
		s.resetLocked()
		return nil
	}
	if token == "" {
		s.resetLocked()
		return nil
	}

	id, err := decodeIdentity(token, s.now())
	if err != nil {
		s.log.Info().Err(err).Msg("discarding persisted session")
		s.resetLocked()
		s.clearStoreLocked(ctx)
		return nil
	}
	s.identity, s.token = id, token
	return id.clone()
}

// Login exchanges the credential for a token, persists it and returns the
// decoded identity. On failure the previous session, if any, is untouched.
// If Logout runs while the login is in flight, the late result is dropped and
// ErrLoginCancelled is returned.
func (s *Session) Login(ctx context.Context, identifier, secret string) (*Identity, error) {
	if _, ok := ctx.Deadline(); !ok && s.loginTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.loginTimeout)
		defer cancel()
	}

	s.mu.Lock()
	logouts := s.logouts
	s.pending++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.pending--
		s.mu.Unlock()
	}()

	token, err := s.auth.Login(ctx, identifier, secret)
	if err != nil {
		s.log.Info().Err(err).Msg("login failed")
		return nil, ErrAuthenticationFailed
	}
	id, err := decodeIdentity(token, s.now())
	if err != nil {
		s.log.Warn().Err(err).Msg("login returned an unusable token")
		return nil, ErrAuthenticationFailed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logouts != logouts {
		return nil, ErrLoginCancelled
	}
	if err := s.store.Save(context.WithoutCancel(ctx), token); err != nil {
		s.log.Error().Err(err).Msg("failed to persist session")
		return nil, ErrAuthenticationFailed
	}
	s.identity, s.token = id, token
	s.resolved = true
	s.version++
	return id.clone(), nil
}

// Logout clears the persisted token and the identity. It never fails and may
// be called any number of times.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logouts++
	s.version++
	s.resolved = true
	s.resetLocked()
	s.clearStoreLocked(context.Background())
}

// State reports loading while bootstrap, refresh or login is in flight.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.resolved || s.pending > 0 {
		return StateLoading
	}
	if s.currentLocked() == nil {
		return StateAnonymous
	}
	return StateAuthenticated
}

// Identity returns a copy of the current identity, or nil when signed out or
// the token has expired.
func (s *Session) Identity() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

// Token returns the raw token for attaching to API requests.
func (s *Session) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentLocked() == nil {
		return "", false
	}
	return s.token, true
}

// Authorize sets the bearer header on req when a session is present.
func (s *Session) Authorize(req *http.Request) bool {
	token, ok := s.Token()
	if ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ok
}

// Guard decides whether navigation to a screen requiring one of required may
// proceed. It uses rbac.Allows, the same function the API enforces with.
func (s *Session) Guard(required ...rbac.Role) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.resolved || s.pending > 0 {
		return DecisionWait
	}
	id := s.currentLocked()
	if id == nil {
		return DecisionRedirectLogin
	}
	if !rbac.Allows(id.Role, rbac.NewSet(required...)) {
		return DecisionForbidden
	}
	return DecisionAllow
}

// currentLocked drops an expired identity before returning a copy.
func (s *Session) currentLocked() *Identity {
	if s.identity == nil {
		return nil
	}
	if s.identity.expired(s.now()) {
		s.resetLocked()
		s.version++
		s.clearStoreLocked(context.Background())
		return nil
	}
	return s.identity.clone()
}

func (s *Session) resetLocked() {
	s.identity = nil
	s.token = ""
}

func (s *Session) clearStoreLocked(ctx context.Context) {
	if err := s.store.Clear(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear persisted session")
	}
}

func decodeIdentity(token string, now time.Time) (*Identity, error) {
	claims, err := sessiontoken.DecodeUnverified(token)
	if err != nil {
		return nil, err
	}
	id := &Identity{
		ID:             claims.AccountID(),
		Email:          claims.Email,
		Name:           claims.Name,
		Role:           claims.Role,
		AffiliationIDs: append([]string(nil), claims.AffiliationIDs...),
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	if id.expired(now) {
		return nil, errTokenExpired
	}
	return id, nil
}
