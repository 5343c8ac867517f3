// Package router wires every HTTP route and the global middleware chain.
package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"natours/internal/config"
	"natours/internal/domain/entity"
	authhandler "natours/internal/feature/auth/transport/handler"
	bookinghandler "natours/internal/feature/bookings/transport/handler"
	reviewhandler "natours/internal/feature/reviews/transport/handler"
	tourhandler "natours/internal/feature/tours/transport/handler"
	userhandler "natours/internal/feature/users/transport/handler"
	viewhandler "natours/internal/feature/views/transport/handler"
	"natours/internal/platform/apperr"
	"natours/internal/platform/http/handler"
	"natours/internal/platform/http/middleware"
	jwtmw "natours/internal/platform/jwt"
	"natours/internal/platform/metrics"
	"natours/internal/shared/ratelimiter"
)

// Route policies.
var (
	adminOnly       = entity.NewRoleSet(entity.RoleAdmin)
	tourEditors     = entity.NewRoleSet(entity.RoleAdmin, entity.RoleLeadGuide)
	tourStaff       = entity.NewRoleSet(entity.RoleAdmin, entity.RoleLeadGuide, entity.RoleGuide)
	reviewAuthors   = entity.NewRoleSet(entity.RoleUser)
	reviewModerator = entity.NewRoleSet(entity.RoleUser, entity.RoleAdmin)
	bookingStaff    = entity.NewRoleSet(entity.RoleAdmin, entity.RoleLeadGuide)
)

// whitelist は重複を許すクエリパラメータ。
var whitelist = []string{"duration", "ratingsQuantity", "ratingsAverage", "maxGroupSize", "difficulty", "price"}

// Handlers groups the feature handlers.
type Handlers struct {
	Auth     *authhandler.AuthHandler
	Users    *userhandler.UserHandler
	Tours    *tourhandler.TourHandler
	Reviews  *reviewhandler.ReviewHandler
	Bookings *bookinghandler.BookingHandler
	Views    *viewhandler.ViewHandler
}

// Deps are the shared components the middleware chain needs.
type Deps struct {
	Config   *config.Config
	Logger   *slog.Logger
	Guard    *jwtmw.Guard
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
	Counter  ratelimiter.Counter
	Ready    map[string]handler.Check
}

// NewRouter builds the engine. Middleware order matters: the request id and
// logger wrap everything, ErrorHandler sits outside Recovery so panics are
// rendered like any other error.
func NewRouter(h Handlers, d Deps) *gin.Engine {
	cfg := d.Config
	middleware.RegisterJSONFieldNames()

	r := gin.New()
	r.Use(
		middleware.RequestIDMiddleware(),
		middleware.LoggingMiddleware(d.Logger),
		d.Metrics.Middleware(),
		middleware.ErrorHandler(middleware.ErrorHandlerConfig{
			Development: !cfg.IsProduction(),
			RenderPage:  h.Views.RenderError,
		}),
		middleware.Recovery(),
		middleware.SecurityHeadersMiddleware(cfg.IsProduction()),
		cors.New(corsConfig(cfg.CORSAllowedOrigins)),
		middleware.BodyLimit(cfg.BodyLimit),
		middleware.ParameterPollution(whitelist...),
	)

	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.GET("/readyz", handler.Ready(d.Ready))
	r.GET("/metrics", gin.WrapH(metrics.Handler(d.Gatherer)))

	views := r.Group("/", d.Guard.IsLoggedIn())
	{
		views.GET("/", h.Views.Overview)
		views.GET("/tour/:slug", h.Views.Tour)
		views.GET("/login", h.Views.Login)
	}
	r.GET("/me", d.Guard.Protect(), h.Views.Account)

	api := r.Group("/api", middleware.RateLimitMiddleware(d.Counter, int64(cfg.RateLimitMax)))
	v1 := api.Group("/v1")

	protect := d.Guard.Protect()
	restrict := jwtmw.RestrictTo

	tours := v1.Group("/tours")
	{
		tours.GET("", h.Tours.List)
		tours.GET("/top-5-cheap", tourhandler.AliasTopTours, h.Tours.List)
		tours.GET("/tour-stats", h.Tours.Stats)
		tours.GET("/monthly-plan/:year", protect, restrict(tourStaff), h.Tours.MonthlyPlan)
		tours.GET("/tours-within/:distance/center/:latlng/unit/:unit", h.Tours.Within)
		tours.GET("/distances/:latlng/unit/:unit", h.Tours.Distances)
		tours.GET("/:id", h.Tours.Get)
		tours.POST("", protect, restrict(tourEditors), h.Tours.Create)
		tours.PATCH("/:id", protect, restrict(tourEditors), h.Tours.Update)
		tours.DELETE("/:id", protect, restrict(adminOnly), h.Tours.Delete)

		tours.GET("/:id/reviews", protect, h.Reviews.List)
		tours.POST("/:id/reviews", protect, restrict(reviewAuthors), h.Reviews.Create)
	}

	users := v1.Group("/users")
	{
		users.POST("/signup", h.Auth.Signup)
		users.POST("/login", middleware.NewLoginThrottle(cfg.LoginRatePerMinute).Middleware(), h.Auth.Login)
		users.GET("/logout", h.Auth.Logout)
		users.POST("/forgotPassword", h.Auth.ForgotPassword)
		users.PATCH("/resetPassword/:token", h.Auth.ResetPassword)

		me := users.Group("", protect)
		me.PATCH("/updateMyPassword", h.Auth.UpdatePassword)
		me.GET("/me", h.Users.GetMe)
		me.PATCH("/updateMe", h.Users.UpdateMe)
		me.DELETE("/deleteMe", h.Users.DeleteMe)

		admin := users.Group("", protect, restrict(adminOnly))
		admin.GET("", h.Users.List)
		admin.GET("/:id", h.Users.Get)
		admin.PATCH("/:id", h.Users.Update)
		admin.DELETE("/:id", h.Users.Delete)
	}

	reviews := v1.Group("/reviews", protect)
	{
		reviews.GET("", h.Reviews.List)
		reviews.GET("/:id", h.Reviews.Get)
		reviews.POST("", restrict(reviewAuthors), h.Reviews.Create)
		reviews.PATCH("/:id", restrict(reviewModerator), h.Reviews.Update)
		reviews.DELETE("/:id", restrict(reviewModerator), h.Reviews.Delete)
	}

	bookings := v1.Group("/bookings", protect)
	{
		bookings.GET("/my-bookings", h.Bookings.Mine)

		staff := bookings.Group("", restrict(bookingStaff))
		staff.GET("", h.Bookings.List)
		staff.POST("", h.Bookings.Create)
		staff.GET("/:id", h.Bookings.Get)
		staff.PATCH("/:id", h.Bookings.Update)
		staff.DELETE("/:id", h.Bookings.Delete)
	}

	r.NoRoute(func(c *gin.Context) {
		_ = c.Error(notFound(c.Request.URL.Path))
	})

	return r
}

func notFound(path string) error {
	return apperr.New(apperr.ErrNotFound, fmt.Sprintf("Can't find %s on this server!", path))
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
