package export

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"resumetailor/internal/config"
	"resumetailor/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExporter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	exp := NewFileExporter(dir, nil)

	location, err := exp.Export(context.Background(), "tailored-sre-2025-01-02.txt", []byte("resume body"))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(location))
	assert.Equal(t, "tailored-sre-2025-01-02.txt", filepath.Base(location))

	content, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "resume body", string(content))
}

func TestFileExporterKeepsInsideDir(t *testing.T) {
	dir := t.TempDir()
	location, err := NewFileExporter(dir, nil).Export(context.Background(), "../../escape.txt", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.txt"), location)
}

func TestFileExporterCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFileExporter(t.TempDir(), nil).Export(ctx, "a.txt", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSelectsExporter(t *testing.T) {
	exp, err := New(context.Background(), config.ExportConfig{Mode: "file", Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileExporter{}, exp)

	_, err = New(context.Background(), config.ExportConfig{Mode: "s3"}, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = New(context.Background(), config.ExportConfig{Mode: "ftp"}, nil)
	assert.Error(t, err)
}

func TestS3ExporterUploads(t *testing.T) {
	var mu sync.Mutex
	var method, path, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		method, path, contentType = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		mu.Unlock()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exp, err := NewS3Exporter(context.Background(), config.S3Config{
		Bucket:       "resumes",
		Region:       "auto",
		Endpoint:     srv.URL,
		AccessKey:    "access",
		SecretKey:    "secret",
		Prefix:       "exports/",
		UsePathStyle: true,
	}, nil)
	require.NoError(t, err)

	location, err := exp.Export(context.Background(), "tailored-sre-2025-01-02.txt", []byte("resume body"))
	require.NoError(t, err)
	assert.Equal(t, "s3://resumes/exports/tailored-sre-2025-01-02.txt", location)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/resumes/exports/tailored-sre-2025-01-02.txt", path)
	assert.Equal(t, "text/plain; charset=utf-8", contentType)
}

func TestS3ExporterFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	exp, err := NewS3Exporter(context.Background(), config.S3Config{
		Bucket: "resumes", Region: "auto", Endpoint: srv.URL,
		AccessKey: "access", SecretKey: "secret", UsePathStyle: true,
	}, nil)
	require.NoError(t, err)

	_, err = exp.Export(context.Background(), "a.txt", []byte("x"))
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeExportFailed, appErr.Code)
}
