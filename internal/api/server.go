// Package api serves projects over HTTP and provides a client for it.
package api

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/example/s2c/internal/store"
)

// Default server settings.
const (
	DefaultAddr         = "127.0.0.1:7420"
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	AppName             = "s2c"
)

// Option configures a Server.
type Option func(*Server)

// WithTimeouts sets the read and write timeouts.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) { s.readTimeout, s.writeTimeout = read, write }
}

// WithRequestLog toggles the request logger.
func WithRequestLog(on bool) Option { return func(s *Server) { s.requestLog = on } }

// Server is the project API.
type Server struct {
	app          *fiber.App
	store        *store.Store
	readTimeout  time.Duration
	writeTimeout time.Duration
	requestLog   bool
}

// New builds the server and registers its routes.
func New(st *store.Store, opts ...Option) *Server {
	s := &Server{
		store:        st,
		readTimeout:  DefaultReadTimeout,
		writeTimeout: DefaultWriteTimeout,
		requestLog:   true,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		AppName:      AppName,
	})
	s.app.Use(recover.New())
	if s.requestLog {
		s.app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}

	s.app.Get("/health/live", s.live)
	s.app.Get("/health/ready", s.ready)
	s.app.Get("/health/startup", s.startup)

	api := s.app.Group("/api")
	api.Get("/projects", s.listProjects)
	api.Post("/projects", s.createProject)
	api.Get("/projects/:id", s.getProject)
	api.Put("/projects/:id", s.saveProject)
	api.Delete("/projects/:id", s.deleteProject)
	api.Get("/projects/:id/frames/:n/snapshot.png", s.frameSnapshot)
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	return s.app.Listen(addr)
}

// Shutdown stops the listener.
func (s *Server) Shutdown() error { return s.app.Shutdown() }
