package server

import (
	"context"
	"sync"
	"time"

	"resumetailor/internal/config"
	"resumetailor/internal/errors"
	"resumetailor/internal/events"
	"resumetailor/internal/export"
	"resumetailor/internal/observability"
	"resumetailor/internal/tailoring"
)

// CreateSessionResponse is returned when a session is opened
type CreateSessionResponse struct {
	ID string `json:"id"`
}

// AnalyzeRequest starts the full tailoring workflow for a session
type AnalyzeRequest struct {
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
	JobTitle       string `json:"jobTitle,omitempty"`
	CompanyName    string `json:"companyName,omitempty"`
	Industry       string `json:"industry,omitempty"`
}

// ResumeRequest carries edited resume text
type ResumeRequest struct {
	Text string `json:"text"`
}

// AcceptedResponse acknowledges work that continues in the background
type AcceptedResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// HealthReporter exposes the remote client's circuit breaker state
type HealthReporter interface {
	IsHealthy() bool
	GetCircuitBreakerStats() map[string]any
}

// Dependencies are the collaborators shared by every session
type Dependencies struct {
	Analyzer      tailoring.Analyzer
	Health        HealthReporter
	Exporter      export.Exporter
	Publisher     events.Publisher
	Observability *observability.ObservabilityManager
	Clock         tailoring.Clock
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config
	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Sessions *SessionStore
	Logger   *errors.Logger

	deps Dependencies
	om   *observability.ObservabilityManager

	// ctx outlives requests; background workflows and debounced re-scores use it
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates a new Server from the application configuration
func NewServer(appCfg *config.Config, version string, deps Dependencies, logger *errors.Logger) (*Server, error) {
	if deps.Analyzer == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "server requires an analyzer", nil)
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	om := deps.Observability
	if om == nil {
		var err error
		om, err = observability.NewObservabilityManager(observability.ObservabilityConfig{}, appCfg, logger)
		if err != nil {
			return nil, err
		}
	}
	if deps.Publisher == nil {
		deps.Publisher = events.Nop{}
	}

	cfg := appCfg.Server

	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLS,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      &cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
		deps:           deps,
		om:             om,
		ctx:            ctx,
		cancel:         cancel,
	}
	s.Sessions = NewSessionStore(cfg.SessionTTL, s.newController, om, logger)
	return s, nil
}

// newController opens a tailoring session bound to the server's dependencies
func (s *Server) newController(id string) (*tailoring.Controller, error) {
	return tailoring.New(tailoring.Options{
		SessionID:     id,
		Analyzer:      s.deps.Analyzer,
		Exporter:      s.deps.Exporter,
		Publisher:     events.Multi{s.deps.Publisher, observability.NewEventMetrics(s.om)},
		Clock:         s.deps.Clock,
		DebounceDelay: s.AppConfig.Session.DebounceDelay,
		Logger:        s.Logger,
		BaseContext:   s.ctx,
	})
}

// background runs a session workflow that outlives its request
func (s *Server) background(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

// Wait blocks until background workflows have finished
func (s *Server) Wait() {
	s.wg.Wait()
}

// Close cancels background work, waits for it and closes every session
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
	s.Sessions.Close()
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}
}
