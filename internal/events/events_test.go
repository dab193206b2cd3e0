package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"resumetailor/internal/config"
	"resumetailor/internal/errors"
	"resumetailor/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelectsPublisher(t *testing.T) {
	p, err := New(config.EventsConfig{Mode: "none"}, nil)
	require.NoError(t, err)
	assert.IsType(t, Nop{}, p)

	p, err = New(config.EventsConfig{Mode: "log"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogPublisher{}, p)

	_, err = New(config.EventsConfig{Mode: "amqp"}, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = New(config.EventsConfig{Mode: "kafka"}, nil)
	assert.Error(t, err)
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(errors.NewLoggerWithWriter(&buf, slog.LevelInfo))
	score := 81
	require.NoError(t, p.Publish(context.Background(), Event{
		SessionID:    "s-1",
		Type:         TypeRescoreCompleted,
		Phase:        types.PhaseIdle,
		OverallScore: &score,
	}))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "s-1", entry["session_id"])
	assert.Equal(t, "rescore_completed", entry["event"])
	assert.Equal(t, float64(81), entry["overall_score"])
	assert.NotContains(t, entry, "error")
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(1)
	ctx := context.Background()
	require.NoError(t, r.Publish(ctx, Event{Type: TypePhaseChanged, Phase: types.PhaseAnalyzing}))
	require.NoError(t, r.Publish(ctx, Event{Type: TypeFailed, Phase: types.PhaseIdle}))
	require.NoError(t, r.Publish(ctx, Event{Type: TypePhaseChanged, Phase: types.PhaseIdle}))

	assert.Len(t, r.Events(), 3)
	assert.Equal(t, []types.Phase{types.PhaseAnalyzing, types.PhaseIdle}, r.Phases())

	first := <-r.C()
	assert.Equal(t, types.PhaseAnalyzing, first.Phase)
	select {
	case e := <-r.C():
		t.Fatalf("expected overflow to be dropped, got %v", e)
	default:
	}
}

func TestMultiPublishesToAll(t *testing.T) {
	a, b := NewRecorder(0), NewRecorder(0)
	m := Multi{a, b}
	require.NoError(t, m.Publish(context.Background(), Event{Type: TypeReset}))
	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
	assert.NoError(t, m.Close())
}

func TestAMQPMessage(t *testing.T) {
	assert.Equal(t, "session.abc", routingKey("session", "abc"))
	assert.Equal(t, "abc", routingKey("", "abc"))

	at := time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)
	msg, err := message(Event{SessionID: "abc", Type: TypeExported, Phase: types.PhaseIdle, At: at})
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "exported", msg.Type)
	assert.Equal(t, at, msg.Timestamp)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "abc", decoded.SessionID)
	assert.Nil(t, decoded.OverallScore)
}
