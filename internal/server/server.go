// Package server provides the cleanops HTTP REST API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/config"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/jonathan/cleanops/internal/logging"
	"github.com/jonathan/cleanops/internal/pdf"
	"github.com/jonathan/cleanops/internal/reporting"
	"github.com/jonathan/cleanops/internal/scheduling"
	"github.com/jonathan/cleanops/internal/server/middleware"
	"github.com/jonathan/cleanops/internal/server/ratelimit"
	"github.com/jonathan/cleanops/internal/storage"
	"github.com/jonathan/cleanops/internal/timetrack"
	"github.com/jonathan/cleanops/internal/types"
	"go.uber.org/zap"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	store       Store
	logger      *zap.SugaredLogger
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler
	schedule    *scheduling.Manager
	timer       *timetrack.Tracker
	reports     *reporting.Pipeline
	resolver    storage.URLResolver
	now         func() time.Time
	closers     []func() error
}

// Deps are the collaborators of a Server. Store, JWT and Password are required;
// everything else has a default.
type Deps struct {
	Store         Store
	Resolver      storage.URLResolver
	PDF           reporting.PDFRenderer
	JWT           *config.JWTConfig
	Password      *config.PasswordConfig
	RateLimit     *ratelimit.Config
	Schedule      scheduling.Config
	PortalBaseURL string
	Port          int
	Now           func() time.Time
	Logger        *zap.SugaredLogger
}

// New connects to the database and object storage described by cfg and builds a
// Server around them.
func New(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*Server, error) {
	logger = logging.OrNop(logger)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	resolver, closeResolver, err := storage.NewResolver(ctx, cfg.StorageConfig())
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create storage resolver: %w", err)
	}

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		database.Close()
		_ = closeResolver()
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		database.Close()
		_ = closeResolver()
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}

	s, err := NewWithDeps(Deps{
		Store:         database,
		Resolver:      resolver,
		PDF:           pdf.NewRenderer(cfg.PDFConfig(), logger),
		JWT:           jwtConfig,
		Password:      passwordConfig,
		RateLimit:     ratelimit.LoadConfig(),
		Schedule:      cfg.SchedulingConfig(),
		PortalBaseURL: cfg.PortalBaseURL,
		Port:          cfg.Port,
		Logger:        logger,
	})
	if err != nil {
		database.Close()
		_ = closeResolver()
		return nil, err
	}
	s.closers = append(s.closers, closeResolver, func() error {
		database.Close()
		return nil
	})
	return s, nil
}

// NewWithDeps builds a Server from explicit collaborators.
func NewWithDeps(d Deps) (*Server, error) {
	if d.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if d.JWT == nil || d.Password == nil {
		return nil, errors.New("server: JWT and password configs are required")
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.RateLimit == nil {
		d.RateLimit = ratelimit.DefaultConfig()
	}
	logger := logging.OrNop(d.Logger)

	s := &Server{
		store:       d.Store,
		logger:      logger,
		rateLimiter: ratelimit.NewLimiter(d.RateLimit),
		jwtService:  NewJWTService(d.JWT),
		userService: NewUserService(d.Store, d.Password, logger),
		schedule:    scheduling.NewManager(d.Store, d.Schedule, logger),
		timer:       timetrack.NewTracker(d.Store, d.Now, logger),
		resolver:    d.Resolver,
		now:         d.Now,
	}
	if s.resolver == nil {
		s.resolver = &storage.BaseURLResolver{}
	}
	s.reports = reporting.NewPipeline(d.Store, s.resolver, reporting.Options{
		PortalBaseURL: d.PortalBaseURL,
		PDF:           d.PDF,
		Now:           d.Now,
	}, logger)
	s.authHandler = NewAuthHandler(s.userService, s.jwtService, logger)

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(s.routes())))

	port := d.Port
	if port == 0 {
		port = config.DefaultPort
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // PDF rendering runs inside the request
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// routes registers every endpoint. /v1 routes other than register and login
// require a bearer token.
func (s *Server) routes() http.Handler {
	api := http.NewServeMux()

	// Account
	api.HandleFunc("GET /v1/users/me", s.handleGetMe)
	api.HandleFunc("PUT /v1/users/me/password", s.handleUpdatePassword)

	// Clients
	api.HandleFunc("GET /v1/clients", s.handleListClients)
	api.HandleFunc("POST /v1/clients", s.handleCreateClient)
	api.HandleFunc("GET /v1/clients/{id}", s.handleGetClient)
	api.HandleFunc("PUT /v1/clients/{id}", s.handleUpdateClient)
	api.HandleFunc("DELETE /v1/clients/{id}", s.handleDeleteClient)

	// Recurring job definitions
	api.HandleFunc("GET /v1/recurring-jobs", s.handleListRecurringJobs)
	api.HandleFunc("POST /v1/recurring-jobs", s.handleCreateRecurringJob)
	api.HandleFunc("GET /v1/recurring-jobs/{id}", s.handleGetRecurringJob)
	api.HandleFunc("PATCH /v1/recurring-jobs/{id}", s.handleUpdateRecurringJob)
	api.HandleFunc("DELETE /v1/recurring-jobs/{id}", s.handleDeleteRecurringJob)
	api.HandleFunc("POST /v1/recurring-jobs/{id}/active", s.handleSetRecurringJobActive)
	api.HandleFunc("POST /v1/recurring-jobs/{id}/generate", s.handleGenerateInstances)
	api.HandleFunc("GET /v1/recurring-jobs/{id}/instances", s.handleListInstances)
	api.HandleFunc("GET /v1/recurring-jobs/{id}/instances/{instance_id}/{direction}", s.handleNavigateInstances)

	// Jobs
	api.HandleFunc("GET /v1/jobs", s.handleListJobs)
	api.HandleFunc("POST /v1/jobs", s.handleCreateJob)
	api.HandleFunc("GET /v1/jobs/{id}", s.handleGetJob)
	api.HandleFunc("PUT /v1/jobs/{id}", s.handleUpdateJob)
	api.HandleFunc("DELETE /v1/jobs/{id}", s.handleDeleteJob)
	api.HandleFunc("POST /v1/jobs/{id}/status", s.handleTransitionStatus)
	api.HandleFunc("POST /v1/jobs/{id}/timer/start", s.handleStartTimer)
	api.HandleFunc("POST /v1/jobs/{id}/timer/stop", s.handleStopTimer)

	// Job children
	api.HandleFunc("GET /v1/jobs/{id}/tasks", s.handleListTasks)
	api.HandleFunc("POST /v1/jobs/{id}/tasks", s.handleCreateTask)
	api.HandleFunc("PUT /v1/tasks/{id}", s.handleUpdateTask)
	api.HandleFunc("DELETE /v1/tasks/{id}", s.handleDeleteTask)
	api.HandleFunc("GET /v1/jobs/{id}/photos", s.handleListPhotos)
	api.HandleFunc("POST /v1/jobs/{id}/photos", s.handleCreatePhoto)
	api.HandleFunc("DELETE /v1/photos/{id}", s.handleDeletePhoto)
	api.HandleFunc("GET /v1/jobs/{id}/notes", s.handleListNotes)
	api.HandleFunc("POST /v1/jobs/{id}/notes", s.handleCreateNote)
	api.HandleFunc("DELETE /v1/notes/{id}", s.handleDeleteNote)

	// Reports
	api.HandleFunc("GET /v1/jobs/{id}/report", s.handleGetReport)
	api.HandleFunc("GET /v1/jobs/{id}/report.html", s.handleReportHTML)
	api.HandleFunc("GET /v1/jobs/{id}/report.pdf", s.handleReportPDF)
	api.HandleFunc("PUT /v1/jobs/{id}/report/photos/{photo_id}", s.handleUpdatePhotoSelection)
	api.HandleFunc("PUT /v1/jobs/{id}/report/tasks/{task_id}", s.handleUpdateTaskSelection)
	api.HandleFunc("GET /v1/report-configuration", s.handleGetReportConfiguration)
	api.HandleFunc("PUT /v1/report-configuration", s.handleSaveReportConfiguration)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /v1/auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /v1/auth/login", s.authHandler.Login)
	mux.HandleFunc("GET /portal/{token}", s.handlePortal)
	mux.HandleFunc("GET /portal/{token}/jobs/{job_id}/report", s.handlePortalReport)
	mux.Handle("/v1/", middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(api))
	return mux
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM, then
// shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Infow("Server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		s.Close()
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.logger.Infow("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.Close()
	s.logger.Infow("Server stopped")
	return nil
}

// Close stops the rate limiter and releases the store and storage clients.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			s.logger.Warnw("Failed to release resource", "error", err)
		}
	}
	s.closers = nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
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
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		s.logger.Infow("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"remote", r.RemoteAddr,
			"duration", time.Since(start),
		)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			s.logger.Warnw("Health check failed", "error", err)
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warnw("Error encoding JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// serviceError maps err to a status code and writes it. Server-side failures are
// logged with the request path.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Errorw("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	s.errorResponse(w, status, clientMessage(err, status))
}

// decodeRequest reads a JSON body into req and validates it. It writes a 400 and
// returns false on failure.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request, req types.Validatable) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := types.Check(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "validation error: "+types.ValidationMessage(err))
		return false
	}
	return true
}

// currentUser returns the authenticated user ID or writes a 401.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// pathID parses the named path value as a UUID or writes a 400.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
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
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	s.logger.Warnw("Rate limit exceeded",
		"client", s.extractClientID(r),
		"method", r.Method,
		"path", r.URL.Path,
		"limit", info.Limit,
		"reset_at", info.ResetTime.Format(time.RFC3339),
	)

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
