// Package remote talks to the three hosted analysis functions: benchmark
// synthesis, resume scoring and gap-checklist generation.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"resumetailor/internal/auth"
	"resumetailor/internal/config"
	"resumetailor/internal/errors"
	"resumetailor/internal/types"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const maxResponseBytes = 10 << 20

// Payload keys of the response envelopes
const (
	payloadBenchmark      = "benchmark"
	payloadScoreBreakdown = "scoreBreakdown"
	payloadGapChecklist   = "gapChecklist"
)

// TokenSource supplies the access token sent with every call
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// OperationTracker records metrics around a remote operation
type OperationTracker interface {
	TrackRemoteOperation(ctx context.Context, operation string, fn func(context.Context) error) error
}

type operation struct {
	name    string
	path    string
	timeout time.Duration
	breaker *CircuitBreaker
}

// Client calls the remote analysis functions
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	tokens     TokenSource
	tracker    OperationTracker
	logger     *errors.Logger
	ops        map[string]*operation
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for requests
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTracker records every call through the given tracker
func WithTracker(t OperationTracker) Option {
	return func(c *Client) { c.tracker = t }
}

// NewClient creates a client for the configured analysis endpoints
func NewClient(cfg *config.Config, tokens TokenSource, logger *errors.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "remote client requires configuration", nil)
	}
	if tokens == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "remote client requires a token source", nil)
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.Remote.BaseURL, "/"),
		anonKey: cfg.Remote.AnonKey,
		// No client-wide timeout: per-operation deadlines are applied through the context.
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		tokens:     tokens,
		logger:     logger,
		ops:        make(map[string]*operation, 3),
	}
	for _, opCfg := range []config.OperationConfig{cfg.GetBenchmarkConfig(), cfg.GetScoreConfig(), cfg.GetGapsConfig()} {
		op := &operation{
			name:    opCfg.Name,
			path:    strings.TrimLeft(opCfg.Path, "/"),
			breaker: NewCircuitBreaker(opCfg, logger),
		}
		if opCfg.Timeout != nil {
			op.timeout = *opCfg.Timeout
		}
		c.ops[op.name] = op
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SynthesizeBenchmark builds the ideal-candidate profile for a job description
func (c *Client) SynthesizeBenchmark(ctx context.Context, req *types.BenchmarkRequest) (*types.BenchmarkCandidate, types.Metrics, error) {
	return call[types.BenchmarkCandidate](c, ctx, config.OperationBenchmark, payloadBenchmark, req,
		attribute.Int("input.job_length", len(req.JobDescription)),
		attribute.Bool("input.has_title", req.JobTitle != ""),
	)
}

// ScoreResume scores resume text against a benchmark
func (c *Client) ScoreResume(ctx context.Context, req *types.ScoreRequest) (*types.MatchScoreBreakdown, types.Metrics, error) {
	return call[types.MatchScoreBreakdown](c, ctx, config.OperationScore, payloadScoreBreakdown, req,
		attribute.Int("input.resume_length", len(req.ResumeText)),
	)
}

// GenerateGapChecklist derives the remediation checklist for a score breakdown
func (c *Client) GenerateGapChecklist(ctx context.Context, req *types.GapChecklistRequest) (*types.GapChecklist, types.Metrics, error) {
	return call[types.GapChecklist](c, ctx, config.OperationGaps, payloadGapChecklist, req,
		attribute.Int("input.resume_length", len(req.ResumeText)),
		attribute.Int("input.overall_score", req.ScoreBreakdown.OverallScore),
	)
}

// GetCircuitBreakerStats returns breaker statistics per operation
func (c *Client) GetCircuitBreakerStats() map[string]any {
	stats := make(map[string]any, len(c.ops))
	for name, op := range c.ops {
		stats[name] = op.breaker.GetStats()
	}
	return stats
}

// IsHealthy reports whether every operation's breaker is closed
func (c *Client) IsHealthy() bool {
	for _, op := range c.ops {
		if !op.breaker.IsHealthy() {
			return false
		}
	}
	return true
}

// envelope is the decoded response body shared by all operations
type envelope struct {
	Success *bool         `json:"success"`
	Error   string        `json:"error"`
	Metrics types.Metrics `json:"metrics"`
	payload json.RawMessage
}

// call runs one remote operation with tracing, metrics and breaker protection
func call[Out any](c *Client, ctx context.Context, opName, payloadKey string, body any, attrs ...attribute.KeyValue) (*Out, types.Metrics, error) {
	op, ok := c.ops[opName]
	if !ok {
		return nil, nil, errors.NewInternalError(errors.ErrCodeUnexpected, "Unknown remote operation: "+opName, nil)
	}

	tracer := otel.Tracer("resumetailor.remote")
	ctx, span := tracer.Start(ctx, "remote."+opName)
	defer span.End()
	span.SetAttributes(attribute.String("remote.operation", opName), attribute.String("remote.path", op.path))
	span.SetAttributes(attrs...)

	// Tokens are resolved before anything touches the network.
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		if _, ok := errors.As(err); !ok {
			err = errors.NewAuthError(errors.ErrCodeNoActiveSession, auth.MsgNotAuthenticated, err)
		}
		return nil, nil, err
	}

	var env *envelope
	run := func(ctx context.Context) error {
		var runErr error
		env, runErr = op.breaker.Execute(func() (*envelope, error) {
			return c.post(ctx, op, token, payloadKey, body)
		})
		return runErr
	}
	if c.tracker != nil {
		err = c.tracker.TrackRemoteOperation(ctx, opName, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		err = breakerError(err, opName)
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		c.logger.LogError(err, "Remote operation failed", "operation", opName)
		return nil, nil, err
	}

	out := new(Out)
	if err := json.Unmarshal(env.payload, out); err != nil {
		appErr := errors.NewRemoteError(errors.ErrCodeRemoteBadResponse,
			fmt.Sprintf("Failed to parse %s from remote response", payloadKey), err)
		span.RecordError(appErr)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, nil, appErr
	}

	if len(env.Metrics) > 0 {
		c.logger.Debug("Remote operation metrics", "operation", opName, "metrics", env.Metrics)
	}
	span.SetAttributes(attribute.Bool("success", true))
	return out, env.Metrics, nil
}

func breakerError(err error, opName string) error {
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.NewRemoteError(errors.ErrCodeCircuitOpen,
			"Analysis service is temporarily unavailable. Please try again shortly.", err).
			WithContext("operation", opName)
	}
	return err
}

// post sends the request and turns the response into an envelope or an error
func (c *Client) post(ctx context.Context, op *operation, token, payloadKey string, body any) (*envelope, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "Failed to encode request", err)
	}

	if op.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, op.timeout)
		defer cancel()
	}

	url := c.baseURL + "/" + op.path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "Failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}

	c.logger.Debug("Calling remote operation", "operation", op.name, "url", url, "request_bytes", len(raw))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, networkError(err, op.name)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, networkError(err, op.name)
	}
	return decodeEnvelope(resp.StatusCode, data, op.name, payloadKey)
}

func networkError(err error, opName string) error {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.NewNetworkError(errors.ErrCodeNetworkTimeout,
			fmt.Sprintf("The %s request timed out", opName), err).WithContext("operation", opName)
	}
	return errors.NewNetworkError(errors.ErrCodeRemoteFailed,
		fmt.Sprintf("Failed to reach the %s service", opName), err).WithContext("operation", opName)
}

func decodeEnvelope(status int, data []byte, opName, payloadKey string) (*envelope, error) {
	fields := map[string]json.RawMessage{}
	decodeErr := json.Unmarshal(data, &fields)

	env := &envelope{}
	if decodeErr == nil {
		if v, ok := fields["success"]; ok {
			_ = json.Unmarshal(v, &env.Success)
		}
		if v, ok := fields["error"]; ok {
			env.Error = errorText(v)
		}
		if v, ok := fields["metrics"]; ok {
			_ = json.Unmarshal(v, &env.Metrics)
		}
		env.payload = fields[payloadKey]
	}

	if status < 200 || status > 299 {
		message := env.Error
		if message == "" {
			message = fmt.Sprintf("Remote service returned status %d", status)
		}
		return nil, errors.NewRemoteError(errors.ErrCodeRemoteFailed, message, nil).
			WithContext("status", status).
			WithContext("operation", opName)
	}

	if decodeErr != nil {
		return nil, errors.NewRemoteError(errors.ErrCodeRemoteBadResponse, "Remote service returned an unreadable response", decodeErr).
			WithContext("status", status).
			WithContext("operation", opName)
	}

	if env.Error != "" || (env.Success != nil && !*env.Success) {
		message := env.Error
		if message == "" {
			message = fmt.Sprintf("Remote %s request failed", opName)
		}
		return nil, errors.NewRemoteError(errors.ErrCodeRemoteFailed, message, nil).
			WithContext("status", status).
			WithContext("operation", opName)
	}

	if len(env.payload) == 0 || string(env.payload) == "null" {
		return nil, errors.NewRemoteError(errors.ErrCodeRemoteBadResponse,
			fmt.Sprintf("Remote service returned no %s", payloadKey), nil).
			WithContext("status", status).
			WithContext("operation", opName)
	}
	return env, nil
}

// errorText reads the error field, which some functions send as an object with a message
func errorText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}
	return ""
}
