package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-client/internal/config"
	"chat-client/internal/observability"
	"chat-client/internal/telemetry"
)

// Server is the thin edge in front of the messaging backend: it forwards
// /api/* REST traffic and relays /cable websocket traffic, adding request
// ids, metrics, tracing and audit events. It holds no chat state.
type Server struct {
	cfg      config.ProxyConfig
	logger   zerolog.Logger
	emitter  *telemetry.AuditEmitter
	upstream *url.URL
	forward  *httputil.ReverseProxy
	engine   *gin.Engine
}

// New constructs the proxy server.
func New(cfg config.ProxyConfig, emitter *telemetry.AuditEmitter, logger zerolog.Logger) (*Server, error) {
	upstream, err := url.Parse(cfg.UpstreamURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		emitter:  emitter,
		upstream: upstream,
	}

	s.forward = httputil.NewSingleHostReverseProxy(upstream)
	s.forward.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn().Err(err).Str("path", r.URL.Path).Msg("upstream unreachable")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream unreachable"}`))
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		RequestIDMiddleware(),
		observability.HTTPMetricsMiddleware(),
		otelgin.Middleware("chat-proxy"),
	)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.Any("/api/*path", s.handleAPI)
	engine.GET("/cable", s.handleCable)

	s.engine = engine
	return s, nil
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("listen", s.cfg.Listen).Str("upstream", s.upstream.String()).Msg("proxy listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// handleAPI forwards a REST call to the upstream, auditing the session
// endpoints on the way through.
func (s *Server) handleAPI(c *gin.Context) {
	requestID := RequestIDFromGin(c)

	path := c.Param("path")
	if strings.HasSuffix(path, "/auth/login") || strings.HasSuffix(path, "/auth/logout") {
		action := "login"
		if strings.HasSuffix(path, "/auth/logout") {
			action = "logout"
		}
		s.logger.Info().
			Str("request_id", requestID).
			Str("ip", observability.IPFromRequest(c.Request)).
			Str("device_id", observability.DeviceIDFromRequest(c.Request)).
			Msg(action + " request proxied")
		s.emitter.Emit(c.Request.Context(), "INFO", action+" request proxied", requestID, nil)
	}

	s.forward.ServeHTTP(c.Writer, c.Request)
}

// RequestIDMiddleware assigns a request id when the client did not send one
// and reflects it on the response.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Request.Header.Set("X-Request-Id", requestID)
		c.Writer.Header().Set("X-Request-Id", requestID)
		c.Next()
	}
}

// RequestIDFromGin returns the request id assigned by the middleware.
func RequestIDFromGin(c *gin.Context) string {
	if val, ok := c.Get("request_id"); ok {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return observability.RequestIDFromRequest(c.Request)
}
