package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/LeslieKogi/sunrise-backend/internal/metrics"
	"github.com/LeslieKogi/sunrise-backend/internal/service"
)

type Services struct {
	Flavours *service.FlavourService
	Orders   *service.OrderService
	Auth     *service.AuthService
}

// RouterConfig tunes the middleware chain. RateLimitRPS <= 0 disables rate
// limiting and a nil Metrics leaves /metrics unmounted.
type RouterConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	Metrics        *metrics.ServerMetrics
}

func rateLimiter(rps float64, burst int) echo.MiddlewareFunc {
	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(rps),
				Burst:     burst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return errorJSON(c, http.StatusForbidden, "rate limiter error")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return errorJSON(c, http.StatusTooManyRequests, "rate limit exceeded")
		},
	}
	return middleware.RateLimiterWithConfig(limiterConfig)
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := logger.Info()
			if v.Status >= http.StatusInternalServerError {
				evt = logger.Error().Err(v.Error)
			}
			if claims, ok := AdminClaims(c); ok {
				evt = evt.Str("admin", claims.Username)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

// NewRouter wires the middleware chain and every route of the API.
func NewRouter(svc Services, cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestLogger())
	e.Use(middleware.CORS())
	if cfg.Metrics != nil {
		e.Use(cfg.Metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(cfg.Metrics.Handler()))
	}

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Sunrise Yogurt API is running!"})
	})

	apiGroup := e.Group("/api")
	if cfg.RateLimitRPS > 0 {
		apiGroup.Use(rateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	apiGroup.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": "sunrise-backend",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	flavourHandler := NewFlavourHandler(svc.Flavours)
	orderHandler := NewOrderHandler(svc.Orders)
	authHandler := NewAuthHandler(svc.Auth)
	admin := RequireAdmin(svc.Auth)

	apiGroup.POST("/admin/login", authHandler.Login)

	apiGroup.GET("/flavours", flavourHandler.ListFlavours)
	apiGroup.GET("/flavours/all", flavourHandler.ListAllFlavours, admin)
	apiGroup.GET("/flavours/:id", flavourHandler.GetFlavour)
	apiGroup.POST("/flavours", flavourHandler.CreateFlavour, admin)
	apiGroup.PUT("/flavours/:id", flavourHandler.UpdateFlavour, admin)
	apiGroup.DELETE("/flavours/:id", flavourHandler.DeleteFlavour, admin)

	apiGroup.POST("/orders", orderHandler.CreateOrder)
	apiGroup.GET("/orders/:order_number", orderHandler.GetOrder)
	apiGroup.GET("/orders", orderHandler.ListOrders, admin)
	apiGroup.PUT("/orders/:id", orderHandler.UpdateOrder, admin)
	apiGroup.DELETE("/orders/:id", orderHandler.CancelOrder, admin)

	apiGroup.GET("/stats", orderHandler.Stats, admin)

	return e
}
