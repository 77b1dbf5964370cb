// Package server provides the HireTree HTTP API: job clipping, the job
// pipeline, resumes and skill profiles, and session auth.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/hiretree/internal/config"
	"github.com/jonathan/hiretree/internal/ingestion"
	"github.com/jonathan/hiretree/internal/server/middleware"
	"github.com/jonathan/hiretree/internal/server/ratelimit"
	"github.com/jonathan/hiretree/internal/store"
)

const (
	maxJSONBytes   = 1 << 20
	maxUploadBytes = 10 << 20
)

// Deps are the stores and collaborators the server is built from. Stores,
// users and tokens are required; the rest have defaults.
type Deps struct {
	Jobs    *store.JobStore
	Resumes *store.ResumeStore
	Users   *UserService
	Tokens  *JWTService

	JobParser ingestion.JobParser      // default ingestion.HeuristicParser
	Documents ingestion.DocumentParser // default ingestion.NoDocumentParser
	Scorer    ingestion.MatchScorer    // default ingestion.OverlapScorer
	Limiter   *ratelimit.Limiter       // default ratelimit.LoadConfig()
	Logger    *slog.Logger
}

// Server represents the HTTP server
type Server struct {
	cfg        *config.ServerConfig
	httpServer *http.Server
	handler    http.Handler

	jobs      *store.JobStore
	resumes   *store.ResumeStore
	jobParser ingestion.JobParser
	documents ingestion.DocumentParser
	scorer    ingestion.MatchScorer

	auth        *AuthHandler
	rateLimiter *ratelimit.Limiter
	validate    *validator.Validate
	logger      *slog.Logger
	now         func() time.Time
}

// New wires the routes and middleware.
func New(cfg *config.ServerConfig, deps Deps) (*Server, error) {
	if deps.Jobs == nil || deps.Resumes == nil {
		return nil, errors.New("server: job and resume stores are required")
	}
	if deps.Users == nil || deps.Tokens == nil {
		return nil, errors.New("server: user and token services are required")
	}
	if deps.JobParser == nil {
		deps.JobParser = ingestion.HeuristicParser{}
	}
	if deps.Documents == nil {
		deps.Documents = ingestion.NoDocumentParser{}
	}
	if deps.Scorer == nil {
		deps.Scorer = ingestion.OverlapScorer{}
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewLimiter(ratelimit.LoadConfig())
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Server{
		cfg:         cfg,
		jobs:        deps.Jobs,
		resumes:     deps.Resumes,
		jobParser:   deps.JobParser,
		documents:   deps.Documents,
		scorer:      deps.Scorer,
		rateLimiter: deps.Limiter,
		validate:    validator.New(),
		logger:      deps.Logger,
		now:         time.Now,
	}
	s.auth = NewAuthHandler(deps.Users, deps.Tokens, cfg.SecureCookies)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/clip", s.handleClip)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("PATCH /api/jobs/{id}", s.handleUpdateJob)

	mux.HandleFunc("GET /api/cv", s.handleGetProfile)
	mux.HandleFunc("POST /api/cv", s.handleUploadCV)
	mux.HandleFunc("PATCH /api/cv/skills/{name}", s.handlePatchProfileSkill)
	mux.HandleFunc("POST /api/profile/manual", s.handleManualProfile)
	mux.HandleFunc("POST /api/profile/refine", s.handleRefineProfile)

	mux.HandleFunc("GET /api/resumes", s.handleListResumes)
	mux.HandleFunc("POST /api/resumes", s.handleCreateResume)
	mux.HandleFunc("PATCH /api/resumes/{id}", s.handleUpdateResume)
	mux.HandleFunc("DELETE /api/resumes/{id}", s.handleDeleteResume)
	mux.HandleFunc("PATCH /api/resumes/{id}/skills/{name}", s.handlePatchResumeSkill)

	requireAuth := middleware.AuthMiddleware(deps.Tokens.AsTokenValidator())
	mux.HandleFunc("POST /api/auth/register", s.auth.Register)
	mux.HandleFunc("POST /api/auth/login", s.auth.Login)
	mux.HandleFunc("POST /api/auth/logout", s.auth.Logout)
	mux.Handle("GET /api/auth/me", requireAuth(http.HandlerFunc(s.auth.Me)))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.ParserTimeout + 30*time.Second, // uploads wait on the parser
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	defer s.rateLimiter.Stop()

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		errc <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// withCORS allows credentialed requests from the configured origins.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (slices.Contains(s.cfg.CORSOrigins, origin) || slices.Contains(s.cfg.CORSOrigins, "*")) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging logs one line per request.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.LogAttrs(r.Context(), level, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes {"error", "detail"} so both client conventions can read it.
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message, "detail": message})
}

// writeError maps err to a status. Internal failures are logged, not echoed.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := HTTPStatus(err)
	if code == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		errorResponse(w, code, "internal server error")
		return
	}
	errorResponse(w, code, err.Error())
}

// decodeJSON reads a size-limited JSON body. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// extractClientID uses the peer address. Forwarded headers are not trusted.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 with the retry hint.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	retry := int(info.RetryAfter.Round(time.Second).Seconds())
	if info.RetryAfter > 0 && retry == 0 {
		retry = 1
	}
	if retry > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retry))
	}
	s.logger.WarnContext(r.Context(), "rate limit exceeded",
		"client", extractClientID(r), "path", r.URL.Path, "limit", info.Limit)

	jsonResponse(w, http.StatusTooManyRequests, map[string]any{
		"error":       "rate_limit_exceeded",
		"detail":      "Rate limit exceeded. Please try again later.",
		"limit":       info.Limit,
		"remaining":   info.Remaining,
		"reset_at":    info.ResetTime.Format(time.RFC3339),
		"retry_after": retry,
	})
}
