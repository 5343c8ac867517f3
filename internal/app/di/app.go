package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"natours/internal/app/router"
	"natours/internal/config"
	authadapters "natours/internal/feature/auth/adapters"
	authhandler "natours/internal/feature/auth/transport/handler"
	authusecase "natours/internal/feature/auth/usecase"
	bookingadapters "natours/internal/feature/bookings/adapters"
	bookinghandler "natours/internal/feature/bookings/transport/handler"
	bookingusecase "natours/internal/feature/bookings/usecase"
	reviewadapters "natours/internal/feature/reviews/adapters"
	reviewhandler "natours/internal/feature/reviews/transport/handler"
	reviewusecase "natours/internal/feature/reviews/usecase"
	touradapters "natours/internal/feature/tours/adapters"
	tourhandler "natours/internal/feature/tours/transport/handler"
	tourusecase "natours/internal/feature/tours/usecase"
	userhandler "natours/internal/feature/users/transport/handler"
	userusecase "natours/internal/feature/users/usecase"
	viewhandler "natours/internal/feature/views/transport/handler"
	"natours/internal/platform/email"
	"natours/internal/platform/http/handler"
	jwtmw "natours/internal/platform/jwt"
	"natours/internal/platform/metrics"
)

// Infra holds the connections the application runs on. Redis may be nil.
type Infra struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// NewEngine builds every repository, usecase and handler and returns the router.
func NewEngine(cfg *config.Config, in Infra) (*gin.Engine, error) {
	logger := in.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := metrics.NewCollector(in.Registry)

	// Repository
	userRepo := authadapters.NewUserRepository(in.DB)
	tourRepo := NewTourRepository(in.Redis, cfg.CacheTTL, touradapters.NewTourRepository(in.DB), collector)
	reviewRepo := reviewadapters.NewReviewRepository(in.DB)
	bookingRepo := bookingadapters.NewBookingRepository(in.DB)

	transport, err := NewMailTransport(cfg)
	if err != nil {
		return nil, err
	}
	mailer, err := email.NewMailer(transport, cfg.EmailFromName, cfg.EmailFrom, email.WithMetrics(collector))
	if err != nil {
		return nil, err
	}

	tokens := jwtmw.NewTokenService(cfg.JWTSecret, cfg.JWTExpiresIn)
	guard := jwtmw.NewGuard(tokens, userRepo)

	// Usecase
	authUC := authusecase.NewAuthUsecase(userRepo, tokens, jwtmw.HashForLookup, mailer, cfg.BcryptCost)
	userUC := userusecase.NewUserUsecase(userRepo)
	tourUC := tourusecase.NewTourUsecase(tourRepo)
	reviewUC := reviewusecase.NewReviewUsecase(reviewRepo, tourRepo)
	bookingUC := bookingusecase.NewBookingUsecase(bookingRepo, tourRepo, userRepo, collector)

	// Handler
	views, err := viewhandler.NewViewHandler(tourUC)
	if err != nil {
		return nil, err
	}
	handlers := router.Handlers{
		Auth: authhandler.NewAuthHandler(authUC, authhandler.CookieConfig{
			TTL:    cfg.JWTCookieExpiresIn,
			Secure: cfg.IsProduction(),
		}),
		Users:    userhandler.NewUserHandler(userUC),
		Tours:    tourhandler.NewTourHandler(tourUC),
		Reviews:  reviewhandler.NewReviewHandler(reviewUC),
		Bookings: bookinghandler.NewBookingHandler(bookingUC),
		Views:    views,
	}

	return router.NewRouter(handlers, router.Deps{
		Config:   cfg,
		Logger:   logger,
		Guard:    guard,
		Metrics:  collector,
		Gatherer: in.Registry,
		Counter:  NewRateCounter(in.Redis, cfg.RateLimitWindow),
		Ready:    readinessChecks(in),
	}), nil
}

func readinessChecks(in Infra) map[string]handler.Check {
	checks := map[string]handler.Check{
		"database": func(ctx context.Context) error {
			sqlDB, err := in.DB.DB()
			if err != nil {
				return fmt.Errorf("get sql.DB: %w", err)
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if in.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return in.Redis.Ping(ctx).Err()
		}
	}
	return checks
}
