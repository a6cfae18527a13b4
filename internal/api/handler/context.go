package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/revtrack/revenue-tracker/internal/api/middleware"
	"github.com/revtrack/revenue-tracker/internal/core/domain"
)

// errorResponse is the standard error envelope returned on 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// currentAccount returns the account resolved by the Auth middleware for this
// request. A missing identity means the route was mounted without Auth.
func currentAccount(c echo.Context) (*domain.Account, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return identity.Account, nil
}
