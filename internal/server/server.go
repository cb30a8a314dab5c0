// Package server exposes the greeting trigger over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/NivBraz/greeting-service/internal/models"
	"github.com/NivBraz/greeting-service/pkg/logger"
)

// Dispatcher hands a message to the pipeline without waiting for it.
type Dispatcher interface {
	Dispatch(ctx context.Context, message string) bool
}

type Server struct {
	message    string
	dispatcher Dispatcher
	logger     logger.Logger
	limiter    *rate.Limiter

	corsOrigins []string
	tracing     bool
	registerer  prometheus.Registerer
	requests    *prometheus.CounterVec
}

type Option func(*Server)

func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithRateLimit caps greeting requests at rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithCORSAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithTracing wraps the handler with otelhttp.
func WithTracing(enabled bool) Option {
	return func(s *Server) {
		s.tracing = enabled
	}
}

// WithRegisterer registers request metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Server) {
		s.registerer = reg
	}
}

func New(message string, d Dispatcher, opts ...Option) *Server {
	s := &Server{
		message:    message,
		dispatcher: d,
		logger:     logger.NewNoopLogger(),
		limiter:    rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registerer != nil {
		s.requests = promauto.With(s.registerer).NewCounterVec(prometheus.CounterOpts{
			Namespace: "greeting",
			Name:      "http_requests_total",
			Help:      "The total number of HTTP requests by handler, status code and method.",
		}, []string{"handler", "code", "method"})
	}
	return s
}

// Handler returns the HTTP handler serving /greeting and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /greeting", s.instrument("greeting", http.HandlerFunc(s.greeting)))
	mux.HandleFunc("GET /healthz", s.healthz)

	var handler http.Handler = mux
	if len(s.corsOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead},
		}).Handler(handler)
	}
	if s.tracing {
		handler = otelhttp.NewHandler(handler, "greeting-service")
	}
	return handler
}

func (s *Server) instrument(name string, h http.Handler) http.Handler {
	if s.requests == nil {
		return h
	}
	return promhttp.InstrumentHandlerCounter(s.requests.MustCurryWith(prometheus.Labels{"handler": name}), h)
}

func (s *Server) greeting(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		return
	}

	message := s.message
	// The response does not depend on whether the pipeline accepted the message.
	s.dispatcher.Dispatch(r.Context(), message)

	writeJSON(w, http.StatusOK, models.Greeting{Message: message})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "SERVING"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Timeouts configures the underlying http.Server.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Shutdown time.Duration
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully within the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, t Timeouts) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener, t)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener, t Timeouts) error {
	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  t.Read,
		WriteTimeout: t.Write,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.String("addr", listener.Addr().String()))
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), t.Shutdown)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("HTTP server shut down.")
	return <-errCh
}
