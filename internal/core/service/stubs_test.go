package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/revtrack/revenue-tracker/internal/core/domain"
	"github.com/revtrack/revenue-tracker/pkg/rbac"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type stubAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	seq      int
	findErr  error
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	c.AffiliationIDs = append([]string(nil), a.AffiliationIDs...)
	return &c
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, a := range r.accounts {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == account.Email {
			return nil, domain.ErrAccountExists
		}
	}
	c := cloneAccount(account)
	if c.ID == "" {
		r.seq++
		c.ID = "acc-" + strconv.Itoa(r.seq)
	}
	r.accounts[c.ID] = c
	return cloneAccount(c), nil
}

func (r *stubAccountRepo) UpdatePassword(_ context.Context, id, hash string, changedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.PasswordHash = hash
	a.PasswordChangedAt = changedAt
	return nil
}

func (r *stubAccountRepo) delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, id)
}

// seed stores an account with a cheap hash of password.
func (r *stubAccountRepo) seed(t *testing.T, id, email, password string, role rbac.Role) *domain.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	a := &domain.Account{ID: id, Email: email, Name: "Test " + id, Role: role, PasswordHash: string(hash)}
	r.mu.Lock()
	r.accounts[id] = a
	r.mu.Unlock()
	return cloneAccount(a)
}

type stubLimiter struct {
	mu       sync.Mutex
	max      int
	attempts map[string]int
	err      error
}

func newStubLimiter(max int) *stubLimiter {
	return &stubLimiter{max: max, attempts: make(map[string]int)}
}

func (l *stubLimiter) Acquire(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	l.attempts[id]++
	return l.attempts[id] <= l.max, nil
}

func (l *stubLimiter) Reset(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, id)
	return nil
}

type recordingAudit struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (r *recordingAudit) Record(e domain.AuthEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingAudit) types() []domain.AuthEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuthEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// fixedClock returns a controllable time source.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errBackend = errors.New("backend unavailable")
