package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/revtrack/revenue-tracker/internal/core/domain"
	"github.com/revtrack/revenue-tracker/internal/core/ports"
	"github.com/revtrack/revenue-tracker/pkg/rbac"
)

type authFixture struct {
	repo    *stubAccountRepo
	limiter *stubLimiter
	audit   *recordingAudit
	clock   *fixedClock
	codec   *TokenCodec
	svc     *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		repo:    newStubAccountRepo(),
		limiter: newStubLimiter(3),
		audit:   &recordingAudit{},
		clock:   &fixedClock{now: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)},
	}
	f.codec = newTestCodec(t, f.clock)
	f.svc = NewAuthService(f.repo, f.codec, zerolog.Nop(),
		WithLoginLimiter(f.limiter),
		WithAuditRecorder(f.audit),
		WithServiceClock(f.clock.Now),
	)
	return f
}

func TestAuthService_LoginRoundTrip(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.seed(t, "u1", "u1@example.com", "correct-horse", rbac.RoleAdmin)

	res, err := f.svc.Login(context.Background(), "  U1@Example.com ", "correct-horse")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.User.ID != "u1" || res.User.Role != rbac.RoleAdmin {
		t.Fatalf("unexpected user %+v", res.User)
	}

	claims, err := f.codec.Verify(res.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.AccountID() != "u1" {
		t.Fatalf("expected subject u1, got %q", claims.AccountID())
	}
	if got := f.audit.types(); len(got) != 1 || got[0] != domain.EventLoginSucceeded {
		t.Fatalf("unexpected audit trail %v", got)
	}
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.seed(t, "u1", "u1@example.com", "correct-horse", rbac.RoleUser)

	_, unknownErr := f.svc.Login(context.Background(), "nobody@example.com", "correct-horse")
	_, wrongErr := f.svc.Login(context.Background(), "u1@example.com", "wrong-secret")

	if !errors.Is(unknownErr, domain.ErrAuthenticationFailed) || !errors.Is(wrongErr, domain.ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed for both, got %v and %v", unknownErr, wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("failure messages differ: %q vs %q", unknownErr, wrongErr)
	}
}

func TestAuthService_LoginRepositoryFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.findErr = errBackend

	_, err := f.svc.Login(context.Background(), "u1@example.com", "whatever")
	if !errors.Is(err, errBackend) {
		t.Fatalf("expected backend error to surface, got %v", err)
	}
	if errors.Is(err, domain.ErrAuthenticationFailed) {
		t.Fatalf("infrastructure failure must not look like a bad credential")
	}
}

func TestAuthService_LoginThrottled(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.seed(t, "u1", "u1@example.com", "correct-horse", rbac.RoleUser)

	for i := 0; i < 3; i++ {
		if _, err := f.svc.Login(context.Background(), "u1@example.com", "nope"); !errors.Is(err, domain.ErrAuthenticationFailed) {
			t.Fatalf("attempt %d: expected ErrAuthenticationFailed, got %v", i, err)
		}
	}
	if _, err := f.svc.Login(context.Background(), "u1@example.com", "correct-horse"); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}

	types := f.audit.types()
	if types[len(types)-1] != domain.EventLoginThrottled {
		t.Fatalf("expected throttled event last, got %v", types)
	}
}

func TestAuthService_LoginResetsFailures(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.seed(t, "u1", "u1@example.com", "correct-horse", rbac.RoleUser)

	_, _ = f.svc.Login(context.Background(), "u1@example.com", "nope")
	if _, err := f.svc.Login(context.Background(), "u1@example.com", "correct-horse"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if n := f.limiter.attempts["u1@example.com"]; n != 0 {
		t.Fatalf("expected attempts reset, got %d", n)
	}
}

func TestAuthService_LimiterOutageDoesNotBlockLogin(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.seed(t, "u1", "u1@example.com", "correct-horse", rbac.RoleUser)
	f.limiter.err = errBackend

	if _, err := f.svc.Login(context.Background(), "u1@example.com", "correct-horse"); err != nil {
		t.Fatalf("expected login to proceed without limiter, got %v", err)
	}
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture(t)

	acc, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Email:    "Lead@Example.com",
		Name:     "Lead",
		Password: "long-enough",
		Role:     rbac.RoleLead,
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if acc.Email != "lead@example.com" {
		t.Fatalf("expected normalized email, got %q", acc.Email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte("long-enough")); err != nil {
		t.Fatalf("stored hash does not match: %v", err)
	}

	_, err = f.svc.Register(context.Background(), ports.RegisterInput{
		Email: "lead@example.com", Password: "long-enough", Role: rbac.RoleLead,
	})
	if !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	f := newAuthFixture(t)
	cases := map[string]ports.RegisterInput{
		"bad email":      {Email: "not-an-email", Password: "long-enough", Role: rbac.RoleUser},
		"short password": {Email: "a@example.com", Password: "short", Role: rbac.RoleUser},
		"unknown role":   {Email: "a@example.com", Password: "long-enough", Role: rbac.Role("root")},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := f.svc.Register(context.Background(), in); !errors.Is(err, domain.ErrInvalidAccount) {
				t.Fatalf("expected ErrInvalidAccount, got %v", err)
			}
		})
	}
}

func TestAuthService_ChangePasswordSupersedesEarlierTokens(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.seed(t, "u1", "u1@example.com", "correct-horse", rbac.RoleAdmin)
	guard := NewAccessGuard(f.codec, f.repo)

	res, err := f.svc.Login(context.Background(), "u1@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	f.clock.Advance(2 * time.Second)
	if err := f.svc.ChangePassword(context.Background(), "u1", "correct-horse", "battery-staple"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}

	_, err = guard.Check(context.Background(), CredentialSource{Authorization: "Bearer " + res.Token})
	d, ok := AsDenial(err)
	if !ok || d.Kind != DenialSessionSuperseded {
		t.Fatalf("expected superseded denial, got %v", err)
	}

	f.clock.Advance(time.Second)
	fresh, err := f.svc.Login(context.Background(), "u1@example.com", "battery-staple")
	if err != nil {
		t.Fatalf("Login with new password returned error: %v", err)
	}
	if _, err := guard.Check(context.Background(), CredentialSource{Authorization: "Bearer " + fresh.Token}); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}
}

func TestAuthService_ChangePasswordWrongCurrent(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.seed(t, "u1", "u1@example.com", "correct-horse", rbac.RoleUser)

	err := f.svc.ChangePassword(context.Background(), "u1", "guess", "battery-staple")
	if !errors.Is(err, domain.ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
	acc, _ := f.repo.FindByID(context.Background(), "u1")
	if !acc.PasswordChangedAt.IsZero() {
		t.Fatalf("password must not change on wrong current secret")
	}
}
