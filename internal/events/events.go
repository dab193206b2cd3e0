// Package events publishes tailoring session progress to observers.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"resumetailor/internal/config"
	"resumetailor/internal/errors"
	"resumetailor/internal/types"
)

// Type identifies what happened to a session
type Type string

const (
	TypePhaseChanged      Type = "phase_changed"
	TypeAnalysisCompleted Type = "analysis_completed"
	TypeRescoreCompleted  Type = "rescore_completed"
	TypeGapApplied        Type = "gap_applied"
	TypeFailed            Type = "failed"
	TypeExported          Type = "exported"
	TypeReset             Type = "reset"
)

// Event is one session update
type Event struct {
	SessionID    string      `json:"sessionId"`
	Type         Type        `json:"type"`
	Phase        types.Phase `json:"phase"`
	Error        string      `json:"error,omitempty"`
	OverallScore *int        `json:"overallScore,omitempty"`
	GapID        string      `json:"gapId,omitempty"`
	At           time.Time   `json:"at"`
}

// Publisher delivers session events
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// New builds the publisher selected by the events configuration
func New(cfg config.EventsConfig, logger *errors.Logger) (Publisher, error) {
	switch cfg.Mode {
	case "", "none":
		return Nop{}, nil
	case "log":
		return NewLogPublisher(logger), nil
	case "amqp":
		return NewAMQPPublisher(cfg.AMQP, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, fmt.Sprintf("unknown events mode: %s", cfg.Mode), nil)
	}
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// LogPublisher writes events to the structured log
type LogPublisher struct {
	logger *errors.Logger
}

// NewLogPublisher creates a publisher that logs at info level
func NewLogPublisher(logger *errors.Logger) *LogPublisher {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	args := []any{"session_id", event.SessionID, "event", event.Type, "phase", event.Phase}
	if event.Error != "" {
		args = append(args, "error", event.Error)
	}
	if event.OverallScore != nil {
		args = append(args, "overall_score", *event.OverallScore)
	}
	if event.GapID != "" {
		args = append(args, "gap_id", event.GapID)
	}
	p.logger.Info("Session event", args...)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Recorder keeps events in memory; the CLI watch command and tests read them back
type Recorder struct {
	mu     sync.Mutex
	events []Event
	notify chan Event
}

// NewRecorder creates a recorder. When buffer is positive, events are also
// delivered on the channel returned by C, dropping them if it is full.
func NewRecorder(buffer int) *Recorder {
	r := &Recorder{}
	if buffer > 0 {
		r.notify = make(chan Event, buffer)
	}
	return r
}

func (r *Recorder) Publish(ctx context.Context, event Event) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	if r.notify != nil {
		select {
		case r.notify <- event:
		default:
		}
	}
	return nil
}

// C returns the notification channel, nil when unbuffered
func (r *Recorder) C() <-chan Event {
	return r.notify
}

// Events returns a copy of everything published so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Phases returns the phase of every phase_changed event in order
func (r *Recorder) Phases() []types.Phase {
	var phases []types.Phase
	for _, e := range r.Events() {
		if e.Type == TypePhaseChanged {
			phases = append(phases, e.Phase)
		}
	}
	return phases
}

func (r *Recorder) Close() error { return nil }

// Multi fans an event out to several publishers, returning the first error
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m Multi) Close() error {
	var first error
	for _, p := range m {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
