package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/revtrack/revenue-tracker/internal/api/handler"
	"github.com/revtrack/revenue-tracker/internal/api/middleware"
	"github.com/revtrack/revenue-tracker/internal/core/ports"
	"github.com/revtrack/revenue-tracker/pkg/rbac"

	_ "github.com/revtrack/revenue-tracker/docs"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	DB          *mongo.Database
	Redis       *redis.Client
	AuthService ports.AuthService
	Guard       middleware.Guard
	Audit       ports.AuditRecorder
	Cookie      handler.CookieConfig
	Logger      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.AuthService, d.Cookie, d.Logger)
	reportHandler := handler.NewReportHandler()
	healthHandler := handler.NewHealthHandler(d.DB, d.Redis)

	requireSession := middleware.Auth(middleware.AuthConfig{
		Guard:      d.Guard,
		CookieName: d.Cookie.Name,
		Audit:      d.Audit,
		Logger:     d.Logger,
	})

	// --- Public routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)

	// --- Authenticated routes ---
	authed := e.Group("", requireSession)
	authed.GET("/auth/me", authHandler.Me, middleware.RBAC())
	authed.POST("/auth/password", authHandler.ChangePassword, middleware.RBAC())
	authed.POST("/accounts", authHandler.Register, middleware.RBAC(rbac.RoleAdmin))
	authed.GET("/reports/scope", reportHandler.Scope, middleware.RBAC(rbac.RoleAdmin, rbac.RoleLead))

	// --- Operations (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Info().
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
