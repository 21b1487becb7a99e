package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/minli-dev/minli/internal/app/service"
	inthttp "github.com/minli-dev/minli/internal/http/handler"
	"github.com/minli-dev/minli/internal/http/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies bundles everything the HTTP server serves with.
type Dependencies struct {
	Logger    *zap.Logger
	Redis     *redis.Client
	Redirects *service.RedirectService
	Links     service.LinkService
	Secret    []byte
	BaseURL   string
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default routes.
func New(deps Dependencies) *Server {
	app := fiber.New()

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) registerMiddleware() {
	logger := s.deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Logger(logger))
	s.app.Use(middleware.Recovery(logger))
	s.app.Use(middleware.CORS())
	if s.deps.Redis != nil {
		s.app.Use(middleware.RateLimit(s.deps.Redis, middleware.DefaultRateLimitConfig(), logger))
	}
}

func (s *Server) registerRoutes() {
	apiHandler := inthttp.NewAPIHandler(inthttp.APIDeps{
		Logger:      s.deps.Logger,
		LinkService: s.deps.Links,
		BaseURL:     s.deps.BaseURL,
	})
	apiHandler.Register(s.app)

	// Registered last: /:code is the catch-all for short codes.
	redirectHandler := inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger:    s.deps.Logger,
		Redirects: s.deps.Redirects,
		Secret:    s.deps.Secret,
	})
	redirectHandler.Register(s.app)
}
