package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"resumetailor/internal/errors"
)

// healthHandler reports service health including the remote circuit breakers
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":   "healthy",
		"service":  "resumetailor",
		"version":  s.Version,
		"sessions": s.Sessions.Len(),
	}

	status := http.StatusOK
	if s.deps.Health != nil {
		response["circuit_breakers"] = s.deps.Health.GetCircuitBreakerStats()
		if !s.deps.Health.IsHealthy() {
			response["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	s.writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumetailor",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"session_ttl":            s.AppConfig.Server.SessionTTL.String(),
			"active_sessions":        s.Sessions.Len(),
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.LogError(err, "Failed to encode response")
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: error, Message: message})
}

// writeAppError maps an application error onto an HTTP status and body
func writeAppError(w http.ResponseWriter, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		writeErrorResponse(w, "Internal error", errors.UserMessage(err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(appErr))
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   string(appErr.Type),
		Message: appErr.Message,
		Code:    appErr.Code,
	})
}

func statusFor(err *errors.AppError) int {
	switch err.Code {
	case errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeCircuitOpen:
		return http.StatusServiceUnavailable
	case errors.ErrCodeNetworkTimeout:
		return http.StatusGatewayTimeout
	}

	switch err.Type {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeAuth:
		return http.StatusUnauthorized
	case errors.ErrorTypeRemote, errors.ErrorTypeNetwork:
		return http.StatusBadGateway
	case errors.ErrorTypeConfig:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
