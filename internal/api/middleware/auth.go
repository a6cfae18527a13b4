package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/revtrack/revenue-tracker/internal/api/metrics"
	"github.com/revtrack/revenue-tracker/internal/core/domain"
	"github.com/revtrack/revenue-tracker/internal/core/ports"
	"github.com/revtrack/revenue-tracker/internal/core/service"
)

const (
	identityKey = "identity"

	// DefaultCookieName is the session cookie consulted when no bearer header is sent.
	DefaultCookieName = "session_token"
)

// Guard is satisfied by *service.AccessGuard.
type Guard interface {
	Check(ctx context.Context, src service.CredentialSource) (*service.ResolvedIdentity, error)
}

// AuthConfig wires the Auth middleware.
type AuthConfig struct {
	Guard      Guard
	CookieName string
	Audit      ports.AuditRecorder
	Logger     zerolog.Logger
}

// Auth runs the access guard for every request. Any denial becomes the same
// 401 response; the denial kind only reaches logs, metrics and the audit trail.
func Auth(cfg AuthConfig) echo.MiddlewareFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.Audit == nil {
		cfg.Audit = ports.NopAuditRecorder{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			src := service.CredentialSource{
				Authorization: c.Request().Header.Get(echo.HeaderAuthorization),
			}
			if cookie, err := c.Cookie(cfg.CookieName); err == nil {
				src.Cookie = cookie.Value
			}

			identity, err := cfg.Guard.Check(c.Request().Context(), src)
			if err != nil {
				denial, ok := service.AsDenial(err)
				if !ok {
					return err
				}
				reportDenial(cfg, c, denial)
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}

			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

func reportDenial(cfg AuthConfig, c echo.Context, d *service.Denial) {
	tokenErr := ""
	if d.Kind == service.DenialSessionInvalid {
		tokenErr = service.TokenErrorKind(d.Err)
	}
	metrics.AccessDeniedTotal.WithLabelValues(string(d.Kind), tokenErr).Inc()

	evt := cfg.Logger.Info().
		Str("kind", string(d.Kind)).
		Str("state", d.At.String()).
		Str("method", c.Request().Method).
		Str("path", c.Path())
	if tokenErr != "" {
		evt = evt.Str("token_error", tokenErr)
	}
	evt.Msg("access denied")

	cfg.Audit.Record(domain.AuthEvent{
		ID:         uuid.NewString(),
		Type:       domain.EventAccessDenied,
		Reason:     string(d.Kind),
		Path:       c.Path(),
		RemoteIP:   c.RealIP(),
		OccurredAt: time.Now().UTC(),
	})
}

// IdentityFrom returns the identity the Auth middleware attached to c.
func IdentityFrom(c echo.Context) (*service.ResolvedIdentity, bool) {
	id, ok := c.Get(identityKey).(*service.ResolvedIdentity)
	return id, ok && id != nil && id.Account != nil
}
