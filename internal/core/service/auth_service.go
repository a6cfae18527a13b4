package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/revtrack/revenue-tracker/internal/core/domain"
	"github.com/revtrack/revenue-tracker/internal/core/ports"
)

const minPasswordLength = 8

// AuthService issues sessions and manages account credentials.
// Login is the only code path that mints tokens.
type AuthService struct {
	repo     ports.AccountRepository
	verifier *CredentialVerifier
	codec    *TokenCodec
	limiter  ports.LoginLimiter
	audit    ports.AuditRecorder
	log      zerolog.Logger
	now      func() time.Time
}

// AuthOption configures optional AuthService collaborators.
type AuthOption func(*AuthService)

// WithLoginLimiter enables failed-login throttling.
func WithLoginLimiter(l ports.LoginLimiter) AuthOption {
	return func(s *AuthService) { s.limiter = l }
}

// WithAuditRecorder routes authentication outcomes to an audit sink.
func WithAuditRecorder(r ports.AuditRecorder) AuthOption {
	return func(s *AuthService) {
		if r != nil {
			s.audit = r
		}
	}
}

// WithServiceClock overrides the time source used for password-change stamps.
func WithServiceClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(repo ports.AccountRepository, codec *TokenCodec, log zerolog.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		repo:     repo,
		verifier: NewCredentialVerifier(repo),
		codec:    codec,
		audit:    ports.NopAuditRecorder{},
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies the credential and returns a fresh token plus the public
// account projection. Every credential failure is domain.ErrAuthenticationFailed.
func (s *AuthService) Login(ctx context.Context, identifier, secret string) (*ports.LoginResult, error) {
	identifier = normalizeEmail(identifier)

	if s.limiter != nil && identifier != "" {
		allowed, err := s.limiter.Acquire(ctx, identifier)
		if err != nil {
			s.log.Warn().Err(err).Msg("login limiter unavailable, continuing")
		} else if !allowed {
			s.record(domain.AuthEvent{Type: domain.EventLoginThrottled, Identifier: identifier})
			return nil, domain.ErrTooManyAttempts
		}
	}

	account, err := s.verifier.Verify(ctx, identifier, secret)
	if err != nil {
		if errors.Is(err, domain.ErrAuthenticationFailed) {
			s.recordFailure(identifier)
			return nil, domain.ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	token, err := s.codec.Issue(account.ID, ExtraClaims{
		Email:          account.Email,
		Name:           account.Name,
		Role:           account.Role,
		AffiliationIDs: account.AffiliationIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, identifier); err != nil {
			s.log.Warn().Err(err).Msg("failed to reset login attempts")
		}
	}
	s.record(domain.AuthEvent{Type: domain.EventLoginSucceeded, AccountID: account.ID, Identifier: identifier})
	s.log.Info().Str("account_id", account.ID).Str("role", account.Role.String()).Msg("session issued")

	return &ports.LoginResult{Token: token, User: account.Public()}, nil
}

func (s *AuthService) recordFailure(identifier string) {
	s.record(domain.AuthEvent{Type: domain.EventLoginFailed, Identifier: identifier})
	s.log.Info().Msg("login rejected")
}

// Register creates an account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	email := normalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email", domain.ErrInvalidAccount)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password too short", domain.ErrInvalidAccount)
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: role", domain.ErrInvalidAccount)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	account := &domain.Account{
		Email:          email,
		Name:           in.Name,
		Role:           in.Role,
		AffiliationIDs: in.AffiliationIDs,
		PasswordHash:   string(hash),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("account_id", created.ID).Str("role", created.Role.String()).Msg("account registered")
	return created, nil
}

// ChangePassword replaces the account's password. Tokens issued before the
// change stop passing the access guard.
func (s *AuthService) ChangePassword(ctx context.Context, accountID, currentSecret, newSecret string) error {
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(currentSecret)) != nil {
		return domain.ErrAuthenticationFailed
	}
	if len(newSecret) < minPasswordLength {
		return fmt.Errorf("%w: password too short", domain.ErrInvalidAccount)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newSecret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, accountID, string(hash), s.now().UTC()); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.record(domain.AuthEvent{Type: domain.EventPasswordChanged, AccountID: accountID})
	s.log.Info().Str("account_id", accountID).Msg("password changed, earlier sessions superseded")
	return nil
}

func (s *AuthService) record(e domain.AuthEvent) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.now().UTC()
	}
	s.audit.Record(e)
}
