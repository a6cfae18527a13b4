package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/revtrack/revenue-tracker/internal/api/metrics"
	"github.com/revtrack/revenue-tracker/internal/core/domain"
	"github.com/revtrack/revenue-tracker/internal/core/ports"
	"github.com/revtrack/revenue-tracker/pkg/rbac"
)

// CookieConfig controls the session cookie set on login.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieConfig
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, cookie CookieConfig, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie, log: log}
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Secret     string `json:"secret"     validate:"required"`
}

type registerRequest struct {
	Email          string   `json:"email"           validate:"required,email"`
	Name           string   `json:"name"            validate:"required"`
	Password       string   `json:"password"        validate:"required,min=8"`
	Role           string   `json:"role"            validate:"required,oneof=admin lead user"`
	AffiliationIDs []string `json:"affiliation_ids"`
}

type changePasswordRequest struct {
	CurrentSecret string `json:"current_secret" validate:"required"`
	NewSecret     string `json:"new_secret"     validate:"required,min=8"`
}

// Login authenticates a credential and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credential"
// @Success      200   {object}  ports.LoginResult
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	result, err := h.authService.Login(c.Request().Context(), req.Identifier, req.Secret)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAuthenticationFailed):
			metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "authentication failed"})
		case errors.Is(err, domain.ErrTooManyAttempts):
			metrics.LoginAttemptsTotal.WithLabelValues("throttled").Inc()
			return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "too many attempts, try again later"})
		}
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	c.SetCookie(h.sessionCookie(result.Token, h.cookie.MaxAge))
	return c.JSON(http.StatusOK, result)
}

// Logout clears the session cookie. Tokens are stateless, so bearer holders
// simply discard theirs.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.sessionCookie("", -1))
	return c.NoContent(http.StatusNoContent)
}

// Me returns the account the current session resolves to.
//
// @Summary      Current account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.PublicAccount
// @Failure      401  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account.Public())
}

// ChangePassword replaces the caller's password and supersedes every session
// issued before it, including the one used for this request.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  changePasswordRequest  true  "Current and new secret"
// @Success      204
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /auth/password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	err = h.authService.ChangePassword(c.Request().Context(), account.ID, req.CurrentSecret, req.NewSecret)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAuthenticationFailed):
			return c.JSON(http.StatusForbidden, errorResponse{Error: "current secret does not match"})
		case errors.Is(err, domain.ErrInvalidAccount):
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return err
	}

	c.SetCookie(h.sessionCookie("", -1))
	return c.NoContent(http.StatusNoContent)
}

// Register creates a new account. Admin only.
//
// @Summary      Create account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  domain.PublicAccount
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /accounts [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	role, _ := rbac.Parse(req.Role)
	account, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:          req.Email,
		Name:           req.Name,
		Password:       req.Password,
		Role:           role,
		AffiliationIDs: req.AffiliationIDs,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAccountExists):
			return c.JSON(http.StatusConflict, errorResponse{Error: "account already exists"})
		case errors.Is(err, domain.ErrInvalidAccount):
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return err
	}

	return c.JSON(http.StatusCreated, account.Public())
}

func (h *AuthHandler) sessionCookie(value string, maxAge time.Duration) *http.Cookie {
	name := h.cookie.Name
	if name == "" {
		name = "session_token"
	}
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		ck.MaxAge = -1
	} else if maxAge > 0 {
		ck.MaxAge = int(maxAge.Seconds())
	}
	return ck
}
