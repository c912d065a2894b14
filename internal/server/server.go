package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"xcar/internal/config"
	custommiddleware "xcar/internal/middleware"
	"xcar/internal/repository"
	"xcar/internal/service"
	"xcar/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deps are the stores the API serves from.
type Deps struct {
	Cars  repository.CarRepository
	Users repository.UserRepository
	// Redis enables rate limiting on the auth routes when set.
	Redis *redis.Client
	// Health reports backing store status for /health.
	Health func() map[string]string
	// Closers run on Close, in order.
	Closers []func() error
}

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	closers []func() error
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.Env == "development"))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		if deps.Health != nil {
			for k, v := range deps.Health() {
				status["store_"+k] = v
			}
		}
		custommiddleware.RespondWithJSON(w, http.StatusOK, status)
	})

	// Initialize services
	carService := service.NewCarService(deps.Cars)
	userService := service.NewUserService(
		deps.Users,
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessExpiry)*time.Minute,
	)

	// Initialize handlers
	carHandler := transport.NewCarHandler(carService, logger)
	authHandler := transport.NewAuthHandler(userService, logger)

	var carGuards []func(http.Handler) http.Handler
	if cfg.Catalog.ProtectMutations {
		carGuards = append(carGuards,
			custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger),
			custommiddleware.RequireAdmin(logger),
		)
	}

	var authLimits []func(http.Handler) http.Handler
	if deps.Redis != nil {
		authLimits = append(authLimits,
			custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.AuthRateLimit, logger),
		)
	}

	// Register routes
	carHandler.RegisterRoutes(router, carGuards...)
	authHandler.RegisterRoutes(router, authLimits...)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:  cfg,
		logger:  logger,
		closers: deps.Closers,
	}

	logger.Info("Routes registered",
		zap.Bool("protect_mutations", cfg.Catalog.ProtectMutations),
		zap.Bool("rate_limit", deps.Redis != nil),
	)

	return server
}

// Close releases the store connections.
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	var errs []error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			s.logger.Error("Failed to close resource", zap.Error(err))
			errs = append(errs, err)
		}
	}

	_ = s.logger.Sync()
	return errors.Join(errs...)
}
