package http

import (
	"log/slog"

	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/geocoder89/rentalhub/internal/http/handlers"
	"github.com/geocoder89/rentalhub/internal/http/middlewares"
	"github.com/geocoder89/rentalhub/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps carries everything the router mounts. Nil Prom disables /metrics.
type Deps struct {
	Log         *slog.Logger
	Prom        *observability.Prom
	ServiceName string
	Production  bool

	CORSOrigins  []string
	MaxBodyBytes int64

	Auth        *middlewares.AuthMiddleware
	RateLimiter *middlewares.RateLimiter

	Health    *handlers.HealthHandler
	Accounts  *handlers.AuthHandler
	Favorites *handlers.FavoritesHandler
	Providers *handlers.ProvidersHandler
	Bookings  *handlers.BookingsHandler
	Reminders *handlers.AdminRemindersHandler
}

func NewRouter(d Deps) *gin.Engine {
	if d.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers.RegisterValidators()

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(d.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders(d.Production))
	r.Use(middlewares.CORSMiddleware(d.CORSOrigins))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(d.Prom.Handler()))
	}

	r.GET("/healthz", d.Health.Healthz)
	r.GET("/readyz", d.Health.Readyz)

	api := r.Group("/api/v1")
	api.Use(middlewares.MaxBodyBytes(d.MaxBodyBytes))
	api.Use(middlewares.RequireJSON())
	if d.RateLimiter != nil {
		api.Use(d.RateLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	}

	requireAuth := d.Auth.RequireAuth()
	adminOnly := d.Auth.RequireRole(user.RoleAdmin)
	anyRole := d.Auth.RequireRole(user.RoleUser, user.RoleAdmin)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", d.Accounts.Register)
		authGroup.POST("/login", d.Accounts.Login)
		authGroup.GET("/logout", d.Accounts.Logout)
		authGroup.POST("/forgotpassword", d.Accounts.ForgotPassword)
		authGroup.PUT("/resetpassword/:resettoken", d.Accounts.ResetPassword)
		authGroup.GET("/me", requireAuth, d.Accounts.Me)

		authGroup.GET("/favorites", requireAuth, d.Favorites.List)
		authGroup.POST("/favorites/:id", requireAuth, d.Favorites.Add)
		authGroup.DELETE("/favorites/:id", requireAuth, d.Favorites.Remove)
	}

	providers := api.Group("/providers")
	{
		providers.GET("", d.Providers.List)
		providers.GET("/:id", d.Providers.Get)
		providers.POST("", requireAuth, adminOnly, d.Providers.Create)
		providers.PUT("/:id", requireAuth, adminOnly, d.Providers.Update)
		providers.DELETE("/:id", requireAuth, adminOnly, d.Providers.Delete)

		providers.GET("/:id/bookings", requireAuth, anyRole, d.Bookings.List)
		providers.POST("/:id/bookings", requireAuth, anyRole, d.Bookings.Create)
	}

	bookings := api.Group("/bookings", requireAuth, anyRole)
	{
		bookings.GET("", d.Bookings.List)
		bookings.GET("/:id", d.Bookings.Get)
		bookings.PUT("/:id", d.Bookings.Update)
		bookings.DELETE("/:id", d.Bookings.Delete)
	}

	if d.Reminders != nil {
		admin := api.Group("/admin", requireAuth, adminOnly)
		admin.POST("/reminders/sweep", d.Reminders.Sweep)
		admin.GET("/reminders/status", d.Reminders.Status)
	}

	return r
}
