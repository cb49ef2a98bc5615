package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/logger"
	"github.com/kbukum/asrkit/observability"
	"github.com/kbukum/asrkit/server/endpoint"
	"github.com/kbukum/asrkit/server/middleware"
)

// Server is the asrkit HTTP API: a gin engine behind the standard middleware
// stack, served over HTTP/1.1 and cleartext HTTP/2.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	handler    http.Handler
	config     Config
	log        *logger.Logger

	mu   sync.Mutex
	addr string
}

// New creates a Server. cfg defaults are applied.
func New(cfg Config, log *logger.Logger) *Server {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("server")

	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(func(c *gin.Context) {
		RespondWithError(c, errors.NotFound("route", c.Request.URL.Path))
	})
	engine.NoMethod(func(c *gin.Context) {
		RespondWithError(c, errors.New(errors.ErrCodeMethodNotAllowed,
			fmt.Sprintf("%s is not allowed on %s", c.Request.Method, c.Request.URL.Path),
			http.StatusMethodNotAllowed))
	})

	mux := http.NewServeMux()
	mux.Handle("/", engine)

	handler := middleware.Chain(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.CORS(cfg.CORS),
		middleware.BodySizeLimit(cfg.maxBodyBytes()),
		middleware.RequestLogger(log),
		middleware.RateLimit(cfg.RateLimit),
	)(mux)

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          time.Duration(cfg.IdleTimeout) * time.Second,
	}

	s := &Server{
		engine:  engine,
		mux:     mux,
		handler: handler,
		config:  cfg,
		log:     log,
		addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           h2c.NewHandler(handler, h2s),
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:       time.Duration(cfg.IdleTimeout) * time.Second,
	}
	return s
}

// GinEngine returns the gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handler returns the full handler including middleware, for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Handle mounts an http.Handler next to gin on the root mux.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.log.Debug("handler mounted", logger.Fields("pattern", pattern))
}

// Start binds the port and serves in the background. It returns once the
// listener is bound. With a TLS certificate configured the server speaks
// HTTPS and negotiates HTTP/2 over ALPN.
func (s *Server) Start(_ context.Context) error {
	var tlsCfg *tls.Config
	if s.config.TLS.ServesTLS() {
		var err error
		if tlsCfg, err = s.config.TLS.BuildServer(); err != nil {
			return err
		}
		s.httpServer.TLSConfig = tlsCfg
	}

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return errors.IO("listen on", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.addr = listener.Addr().String()
	s.mu.Unlock()

	go func() {
		var err error
		if tlsCfg != nil {
			err = s.httpServer.ServeTLS(listener, "", "")
		} else {
			err = s.httpServer.Serve(listener)
		}
		if err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	for _, r := range s.Routes() {
		s.log.Debug("route", logger.Fields("method", r.Method, logger.FieldPath, r.Path, "handler", r.Handler))
	}
	s.log.Info("HTTP server started", logger.Fields("addr", s.Addr(), "tls", tlsCfg != nil))
	return nil
}

// Stop shuts the server down, waiting up to 10 seconds for requests in
// flight.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// Run starts the server and blocks until ctx is canceled, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop(context.WithoutCancel(ctx))
}

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// RegisterSystemEndpoints adds /health, /alive and /version.
func (s *Server) RegisterSystemEndpoints(service string, checkers ...observability.HealthChecker) {
	s.engine.GET("/health", endpoint.Health(service, checkers...))
	s.engine.GET("/alive", endpoint.Liveness(service))
	s.engine.GET("/version", endpoint.Version())
}
