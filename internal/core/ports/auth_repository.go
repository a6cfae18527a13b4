package ports

import (
	"context"
	"time"

	"github.com/revtrack/revenue-tracker/internal/core/domain"
)

// AccountRepository defines the persistence operations the auth core needs.
// Lookups return domain.ErrAccountNotFound when nothing matches.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error
}

// LoginLimiter counts login attempts per identifier.
type LoginLimiter interface {
	// Acquire consumes one attempt and reports whether identifier is still
	// within its budget for the current window. Counting and checking are one
	// atomic step, so concurrent attempts cannot overshoot the budget.
	Acquire(ctx context.Context, identifier string) (bool, error)
	// Reset clears the count after a successful login.
	Reset(ctx context.Context, identifier string) error
}
