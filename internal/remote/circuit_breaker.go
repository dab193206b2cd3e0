package remote

import (
	"fmt"

	"resumetailor/internal/config"
	"resumetailor/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker guards one remote operation. A nil breaker passes calls straight through.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[*envelope]
}

// NewCircuitBreaker creates a circuit breaker for an operation, or nil when disabled
func NewCircuitBreaker(op config.OperationConfig, logger *errors.Logger) *CircuitBreaker {
	cfg := op.CircuitBreaker
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("remote-%s", op.Name),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureThreshold
		},
		IsSuccessful: countsAsHealthy,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				"name", name,
				"operation", op.Name,
				"from", from.String(),
				"to", to.String(),
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker[*envelope](settings)}
}

// countsAsHealthy keeps rejected requests (4xx, explicit error bodies) from tripping the breaker;
// only transport failures, 5xx responses and unreadable bodies count against the service.
func countsAsHealthy(err error) bool {
	if err == nil {
		return true
	}
	appErr, ok := errors.As(err)
	if !ok || appErr.Type != errors.ErrorTypeRemote || appErr.Code != errors.ErrCodeRemoteFailed {
		return false
	}
	status, _ := appErr.Context["status"].(int)
	return status < 500
}

// Execute runs fn under circuit breaker protection
func (cb *CircuitBreaker) Execute(fn func() (*envelope, error)) (*envelope, error) {
	if cb == nil || cb.cb == nil {
		return fn()
	}
	return cb.cb.Execute(fn)
}

// GetStats returns circuit breaker statistics
func (cb *CircuitBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (cb *CircuitBreaker) IsHealthy() bool {
	if cb == nil || cb.cb == nil {
		return true
	}
	return cb.cb.State() == gobreaker.StateClosed
}
