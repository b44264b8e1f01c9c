package router

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"vending/docs"
	"vending/internal/auth"
	"vending/internal/config"
	"vending/internal/handler"
	"vending/internal/model"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	guard *auth.Guard,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	productHandler *handler.ProductHandler,
) {
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Validator = NewValidator()

	e.Use(middleware.RequestID())
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.ContextTimeout(cfg.RequestTimeout))
	}

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api/v1")
	secured := guard.Middleware()
	buyer := auth.RequireRole(model.RoleBuyer)
	seller := auth.RequireRole(model.RoleSeller)

	// Auth routes
	api.POST("/auth/login", authHandler.Login, loginRateLimiter(cfg.LoginRateLimit))
	api.POST("/auth/logout/all", authHandler.LogoutAll, secured)

	// User routes
	api.POST("/user", authHandler.Register)
	api.GET("/user", userHandler.Profile, secured)
	api.PUT("/user", userHandler.Update, secured)
	api.DELETE("/user", userHandler.Delete, secured)
	api.POST("/user/deposit", userHandler.Deposit, secured, buyer)
	api.POST("/user/reset", userHandler.Reset, secured, buyer)

	// Product routes
	api.GET("/products", productHandler.List)
	api.GET("/products/:id", productHandler.Get)
	api.POST("/products", productHandler.Create, secured, seller)
	api.POST("/products/buy", productHandler.Buy, secured, buyer)
	api.PUT("/products/:id", productHandler.Update, secured, seller)
	api.DELETE("/products/:id", productHandler.Delete, secured, seller)
}

// loginRateLimiter limits login attempts per client IP. perMinute <= 0 disables it.
func loginRateLimiter(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60),
		Burst:     perMinute,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many login attempts, try again later")
		},
	})
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := logrus.WithFields(logrus.Fields{
				"request_id": v.RequestID,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"remote_ip":  v.RemoteIP,
			})
			switch {
			case v.Status >= http.StatusInternalServerError:
				entry.WithError(v.Error).Error("request failed")
			case v.Error != nil:
				entry.WithError(v.Error).Info("request rejected")
			default:
				entry.Info("request")
			}
			return nil
		},
	})
}
