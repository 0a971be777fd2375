// Package server implements the planning service: a health probe and a
// streaming plan endpoint that relays the agents' progress as NDJSON.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/engine"
	"github.com/hupe1980/tourmesh/logging"
	"github.com/hupe1980/tourmesh/tour"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AgentFactory builds the lead agent for a conversation.
type AgentFactory interface {
	NewAgent(history []core.Message) (*tour.Agent, error)
}

// Options configures a Server.
type Options struct {
	// MaxConcurrentPlans bounds concurrently running plans. 0 means unlimited.
	MaxConcurrentPlans int

	// MaxModelCalls bounds model calls per plan request. 0 means unlimited.
	MaxModelCalls int

	// Logger receives process logs. Defaults to NoOp.
	Logger logging.Logger

	// Journal receives the lifecycle lines. Defaults to NoOp.
	Journal logging.Logger

	// Registry collects the service metrics. Defaults to a fresh registry.
	Registry *prometheus.Registry
}

// Server is the planning service.
type Server struct {
	echo    *echo.Echo
	factory AgentFactory
	engine  *engine.Engine
	metrics *Metrics
	logger  logging.Logger
	journal logging.Logger
}

// New creates a Server serving plans built by factory.
func New(factory AgentFactory, optFns ...func(o *Options)) *Server {
	opts := Options{
		MaxConcurrentPlans: 10,
		Logger:             logging.NoOpLogger{},
		Journal:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.Journal == nil {
		opts.Journal = logging.NoOpLogger{}
	}

	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	s := &Server{
		echo:    echo.New(),
		factory: factory,
		metrics: NewMetrics(opts.Registry),
		logger:  opts.Logger,
		journal: opts.Journal,
	}

	callbacks := engine.NewCallbackManager()
	callbacks.RegisterCallback(engine.NewFunctionCallback(engine.CallbackBeforeTool, s.countToolCalls))
	callbacks.RegisterCallback(engine.NewLoggingCallback(engine.CallbackOnError, opts.Logger))

	s.engine = engine.New(func(o *engine.Options) {
		o.Config.MaxConcurrentInvocations = opts.MaxConcurrentPlans
		o.Config.MaxModelCalls = opts.MaxModelCalls
		o.Logger = opts.Logger
		o.Callbacks = callbacks
	})

	s.routes(opts.Registry)

	return s
}

func (s *Server) routes(reg *prometheus.Registry) {
	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info("http.request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
			)
			return nil
		},
	}))

	e.GET("/health", s.health)
	e.POST("/plan", s.plan)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
}

// Handler returns the HTTP handler of the service.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("server.start", "address", addr)

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", addr, err)
	}

	return nil
}

// Shutdown stops accepting requests and waits for running plans.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}

	req := c.Request()
	s.logger.Warn("http.error", "status", code, "method", req.Method, "path", req.URL.Path, "error", err.Error())

	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}

func (s *Server) countToolCalls(_ context.Context, cc *engine.CallbackContext) error {
	for _, fc := range cc.Event.GetFunctionCalls() {
		s.metrics.toolCalls.WithLabelValues(fc.Name).Inc()
	}
	return nil
}
