package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"resumetailor/internal/config"
	"resumetailor/internal/errors"
	"resumetailor/internal/events"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cliResume = "Jane Doe\nPlatform Engineer\n\nExperience:\n• Built Go services handling 10k requests per second\n• Led the migration to containers\n\nSkills:\nGo\nPostgreSQL\n"
	cliJob    = "Senior Platform Engineer to run Go services on Kubernetes at scale."
)

// fakeRemote serves the three analysis endpoints; each score call adds 5 points
func fakeRemote(t *testing.T) *httptest.Server {
	t.Helper()
	var scores int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/synthesize-benchmark":
			_, _ = io.WriteString(w, `{"success":true,"benchmark":{"roleTitle":"Senior Platform Engineer","level":"senior","coreSkills":[{"name":"Kubernetes","criticality":"must-have"}]}}`)
		case "/score-resume-match":
			n := atomic.AddInt32(&scores, 1)
			score := 60 + 5*int(n)
			_, _ = io.WriteString(w, `{"success":true,"scoreBreakdown":{"overallScore":`+strconv.Itoa(score)+`}}`)
		case "/generate-gap-checklist":
			_, _ = io.WriteString(w, `{"success":true,"gapChecklist":{"gaps":[{"id":"gap-k8s","type":"keyword","severity":"high","action":"Add Kubernetes","actionType":"add","suggestedKeyword":"Kubernetes"}]}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testRuntimeConfig(baseURL, exportDir string) *config.Config {
	return &config.Config{
		Remote: config.RemoteConfig{
			BaseURL:   baseURL,
			Benchmark: config.OperationConfig{Path: "synthesize-benchmark"},
			Score:     config.OperationConfig{Path: "score-resume-match"},
			Gaps:      config.OperationConfig{Path: "generate-gap-checklist"},
		},
		Auth:    config.AuthConfig{Mode: "static", AccessToken: "session-token"},
		Session: config.SessionConfig{DebounceDelay: time.Hour},
		Export:  config.ExportConfig{Mode: "file", Dir: exportDir},
		Events:  config.EventsConfig{Mode: "none"},
	}
}

func TestRunTailorSessionAppliesGapsAndExports(t *testing.T) {
	srv := fakeRemote(t)
	exportDir := t.TempDir()
	rt, err := newRuntime(context.Background(), testRuntimeConfig(srv.URL, exportDir), errors.NewNopLogger())
	require.NoError(t, err)
	defer rt.Close()

	var notices bytes.Buffer
	state, err := runTailorSession(context.Background(), rt,
		tailorInput{Resume: cliResume, JobDescription: cliJob},
		tailorRunOptions{Apply: []string{"gap-k8s", "missing"}, Export: true},
		&notices)
	require.NoError(t, err)

	assert.Empty(t, state.Error)
	require.NotNil(t, state.ScoreBreakdown)
	assert.Equal(t, 70, state.ScoreBreakdown.OverallScore)
	assert.Contains(t, state.Resume, "• Kubernetes")

	require.Contains(t, notices.String(), "Exported tailored-senior-platform-engineer-")
	entries, err := os.ReadDir(exportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".txt"))
}

func TestRunTailorSessionReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"Failed to synthesize benchmark"}`)
	}))
	defer srv.Close()

	rt, err := newRuntime(context.Background(), testRuntimeConfig(srv.URL, t.TempDir()), errors.NewNopLogger())
	require.NoError(t, err)
	defer rt.Close()

	state, err := runTailorSession(context.Background(), rt,
		tailorInput{Resume: cliResume, JobDescription: cliJob}, tailorRunOptions{Export: true}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "Failed to synthesize benchmark", state.Error)
	assert.Nil(t, state.Benchmark)
}

func TestNewRuntimeRejectsUnknownModes(t *testing.T) {
	cfg := testRuntimeConfig("http://localhost", t.TempDir())
	cfg.Export.Mode = "ftp"
	_, err := newRuntime(context.Background(), cfg, errors.NewNopLogger())
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	cfg = testRuntimeConfig("http://localhost", t.TempDir())
	cfg.Auth.Mode = "vault"
	_, err = newRuntime(context.Background(), cfg, errors.NewNopLogger())
	assert.Error(t, err)
}

func TestReportEvents(t *testing.T) {
	updates := make(chan events.Event, 3)
	score := 77
	updates <- events.Event{Type: events.TypePhaseChanged}
	updates <- events.Event{Type: events.TypeRescoreCompleted, OverallScore: &score}
	updates <- events.Event{Type: events.TypeFailed, Error: "Failed to score resume"}

	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- reportEvents(ctx, updates, &out) }()

	require.Eventually(t, func() bool { return len(updates) == 0 }, time.Second, 5*time.Millisecond)
	// Give the loop a moment to print the last event it received.
	time.Sleep(20 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Contains(t, out.String(), "Re-scored: 77/100")
	assert.Contains(t, out.String(), "Re-score failed: Failed to score resume")
	assert.Contains(t, out.String(), "Stopped watching")
}

func TestApplyServeFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().StringP("port", "p", "", "")
	cmd.Flags().String("host", "", "")
	cmd.Flags().String("tls-mode", "", "")
	cmd.Flags().String("cert-file", "", "")
	cmd.Flags().String("key-file", "", "")
	cmd.Flags().String("ca-file", "", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--port", "9999", "--tls-mode", "server"}))

	cfg := config.ServerConfig{Host: "localhost", Port: "8080", TLS: config.TLSConfig{Mode: "disabled"}}
	applyServeFlags(cmd, &cfg)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "server", cfg.TLS.Mode)
}

func TestEffectiveDebounce(t *testing.T) {
	assert.Equal(t, 2*time.Second, effectiveDebounce(0))
	assert.Equal(t, time.Second, effectiveDebounce(time.Second))
}
