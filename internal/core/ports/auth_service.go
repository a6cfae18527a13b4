package ports

import (
	"context"

	"github.com/revtrack/revenue-tracker/internal/core/domain"
	"github.com/revtrack/revenue-tracker/pkg/rbac"
)

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Email          string
	Name           string
	Password       string
	Role           rbac.Role
	AffiliationIDs []string
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token string               `json:"token"`
	User  domain.PublicAccount `json:"user"`
}

// AuthService is the only component allowed to mint session tokens.
type AuthService interface {
	Login(ctx context.Context, identifier, secret string) (*LoginResult, error)
	Register(ctx context.Context, in RegisterInput) (*domain.Account, error)
	ChangePassword(ctx context.Context, accountID, currentSecret, newSecret string) error
}
