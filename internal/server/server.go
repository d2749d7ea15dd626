package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jonathan/job-board/internal/config"
	"github.com/jonathan/job-board/internal/metrics"
	"github.com/jonathan/job-board/internal/server/middleware"
	"github.com/jonathan/job-board/internal/server/ratelimit"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// APIBasePath is where the versioned API is mounted.
const APIBasePath = "/api/v1"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Options holds the collaborators a Server is built from.
type Options struct {
	Config    *config.Config
	DB        DBClient
	JWT       *config.JWTConfig
	Password  *config.PasswordConfig
	RateLimit *ratelimit.Config
	Logger    *logrus.Logger
	Metrics   *metrics.Metrics

	// OnShutdown runs after the HTTP server has drained, e.g. to close the pool.
	OnShutdown func()
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	cfg         *config.Config
	db          DBClient
	logger      *logrus.Logger
	metrics     *metrics.Metrics
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	onShutdown  func()

	userService        *UserService
	jobService         *JobService
	applicationService *ApplicationService
}

// New creates a new server instance
func New(opts Options) (*Server, error) {
	if opts.Config == nil || opts.DB == nil || opts.JWT == nil || opts.Password == nil {
		return nil, fmt.Errorf("server: config, database, JWT and password settings are required")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	s := &Server{
		cfg:         opts.Config,
		db:          opts.DB,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		rateLimiter: ratelimit.NewLimiter(opts.RateLimit),
		jwtService:  NewJWTService(opts.JWT),
		onShutdown:  opts.OnShutdown,
	}

	s.userService = NewUserService(s.db, opts.Password, s.jwtService, s.logger, s.metrics)
	s.userService.RequireEmailVerification = opts.Config.RequireEmailVerification
	s.jobService = NewJobService(s.db, s.logger, s.metrics)
	s.applicationService = NewApplicationService(s.db, s.logger, s.metrics)

	s.httpServer = &http.Server{
		Addr:         opts.Config.Addr(),
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) routes() http.Handler {
	auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	api := http.NewServeMux()

	// Users
	api.HandleFunc("POST /users/signup", s.handleSignup)
	api.HandleFunc("POST /users/login", s.handleLogin)
	api.HandleFunc("POST /users/refresh", s.handleRefresh)
	api.HandleFunc("GET /users/verify-email", s.handleVerifyEmail)
	api.HandleFunc("POST /users/resend-verification", s.handleResendVerification)
	api.Handle("GET /users/me", protected(s.handleMe))
	api.Handle("GET /users/{id}", protected(s.handleGetUser))
	api.Handle("PUT /users/{id}", protected(s.handleUpdateUser))
	api.Handle("DELETE /users/{id}", protected(s.handleDeactivateUser))
	api.Handle("POST /users/{id}/change-password", protected(s.handleChangePassword))

	// Jobs
	api.Handle("POST /jobs", protected(s.handleCreateJob))
	api.Handle("POST /jobs/{$}", protected(s.handleCreateJob))
	api.HandleFunc("GET /jobs", s.handleListJobs)
	api.HandleFunc("GET /jobs/{$}", s.handleListJobs)
	api.Handle("GET /jobs/my-jobs", protected(s.handleListMyJobs))
	api.HandleFunc("GET /jobs/{id}", s.handleGetJob)
	api.Handle("PUT /jobs/{id}", protected(s.handleUpdateJob))
	api.Handle("DELETE /jobs/{id}", protected(s.handleDeleteJob))

	// Applications
	api.Handle("POST /applications", protected(s.handleSubmitApplication))
	api.Handle("POST /applications/{$}", protected(s.handleSubmitApplication))
	api.Handle("GET /applications/my-applications", protected(s.handleListMyApplications))
	api.Handle("GET /applications/job/{job_id}", protected(s.handleListJobApplications))
	api.Handle("GET /applications/{id}", protected(s.handleGetApplication))
	api.Handle("PUT /applications/{id}/status", protected(s.handleUpdateApplicationStatus))
	api.Handle("DELETE /applications/{id}", protected(s.handleWithdrawApplication))
	api.HandleFunc("/", s.routeFallback(api))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.Handle(APIBasePath+"/", http.StripPrefix(APIBasePath, api))
	mux.HandleFunc("/", s.routeFallback(mux))

	// CORS sits outside the limiter so preflights are free and 429s stay readable.
	return s.withCORS(s.withRateLimit(s.withLogging(s.metrics.InstrumentHandler(mux))))
}

var routeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

// routeFallback answers requests no route matched. A path that is served under other
// methods gets 405 with an Allow header; anything else is a JSON 404.
func (s *Server) routeFallback(mux *http.ServeMux) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var allow []string
		for _, method := range routeMethods {
			if method == r.Method {
				continue
			}
			alt := *r
			alt.Method = method
			if _, pattern := mux.Handler(&alt); strings.HasPrefix(pattern, method+" ") {
				allow = append(allow, method)
			}
		}
		if len(allow) == 0 {
			s.handleNotFound(w, r)
			return
		}
		w.Header().Set("Allow", strings.Join(allow, ", "))
		s.errorResponse(w, http.StatusMethodNotAllowed, KindMethodNotAllowed, "method "+r.Method+" not allowed")
	}
}

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts down
// gracefully within 30 seconds.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.WithField("addr", s.httpServer.Addr).Info("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()

	s.rateLimiter.Stop()
	if s.onShutdown != nil {
		s.onShutdown()
	}
	s.logger.Info("server stopped")
	return err
}

// withCORS adds CORS headers for the configured origins
func (s *Server) withCORS(next http.Handler) http.Handler {
	allowAny := false
	allowed := make(map[string]bool, len(s.cfg.AllowedOrigins))
	for _, origin := range s.cfg.AllowedOrigins {
		if origin == "*" {
			allowAny = true
		}
		allowed[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case allowAny:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, clientID, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging emits one log entry per request
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		entry := s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_addr": r.RemoteAddr,
		})
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			entry.Debug("request completed")
			return
		}
		entry.Info("request completed")
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	s.errorResponse(w, http.StatusNotFound, KindNotFound, "route not found")
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, kind, message string) {
	s.jsonResponse(w, status, map[string]string{"error": kind, "message": message})
}

// writeError maps err to its kind and status. Internal errors are logged and replaced
// by a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := ErrorKind(err)
	status := HTTPStatus(err)

	entry := s.logger.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path, "kind": kind})
	switch kind {
	case KindInternal:
		entry.WithError(err).Error("request failed")
	case KindAuthentication, KindAuthorization:
		entry.WithError(err).Debug("request rejected")
	}

	s.errorResponse(w, status, kind, publicMessage(err))
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; forwarded headers are not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, clientID string, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}

	retryAfter := int(info.RetryAfter.Round(time.Second).Seconds())
	if info.RetryAfter > 0 && retryAfter == 0 {
		retryAfter = 1
	}
	if retryAfter > 0 {
		response["retry_after"] = retryAfter
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
	}

	s.logger.WithFields(logrus.Fields{
		"client": clientID,
		"method": r.Method,
		"path":   r.URL.Path,
		"limit":  info.Limit,
	}).Warn("rate limit exceeded")

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
