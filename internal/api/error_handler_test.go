package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/revtrack/revenue-tracker/internal/core/domain"
	"github.com/revtrack/revenue-tracker/internal/core/service"
)

func TestHTTPErrorHandler_Mapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("login: %w", domain.ErrAuthenticationFailed), http.StatusUnauthorized},
		{&service.Denial{Kind: service.DenialSessionSuperseded}, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrAccountExists, http.StatusConflict},
		{domain.ErrTooManyAttempts, http.StatusTooManyRequests},
		{echo.NewHTTPError(http.StatusTeapot, "brew"), http.StatusTeapot},
		{errors.New("dial tcp 10.0.0.3:27017: connection refused"), http.StatusInternalServerError},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		h(tc.err, c)
		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
	}
}

func TestHTTPErrorHandler_DoesNotLeakInternals(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("mongo: secret connection string"), c)
	if strings.Contains(rec.Body.String(), "mongo") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	NewHTTPErrorHandler(zerolog.Nop())(&service.Denial{Kind: service.DenialAccountGone}, c)
	if strings.Contains(rec.Body.String(), "account_gone") {
		t.Fatalf("denial kind leaked: %s", rec.Body.String())
	}
}
