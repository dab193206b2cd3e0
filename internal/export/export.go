// Package export writes tailored resume text to its destination.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"resumetailor/internal/config"
	"resumetailor/internal/errors"
)

// Exporter stores an exported resume and reports where it went
type Exporter interface {
	Export(ctx context.Context, filename string, content []byte) (string, error)
}

// New builds the exporter selected by the export configuration
func New(ctx context.Context, cfg config.ExportConfig, logger *errors.Logger) (Exporter, error) {
	switch cfg.Mode {
	case "", "file":
		return NewFileExporter(cfg.Dir, logger), nil
	case "s3":
		return NewS3Exporter(ctx, cfg.S3, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, fmt.Sprintf("unknown export mode: %s", cfg.Mode), nil)
	}
}

// FileExporter writes exports into a local directory
type FileExporter struct {
	dir    string
	logger *errors.Logger
}

// NewFileExporter creates an exporter rooted at dir; empty means the working directory
func NewFileExporter(dir string, logger *errors.Logger) *FileExporter {
	if dir == "" {
		dir = "."
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &FileExporter{dir: dir, logger: logger}
}

func (e *FileExporter) Export(ctx context.Context, filename string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dir, 0750); err != nil {
		return "", errors.NewIOError(errors.ErrCodeExportFailed,
			fmt.Sprintf("Cannot create directory: %s", e.dir), err)
	}

	path := filepath.Join(e.dir, filepath.Base(filename))
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", errors.NewIOError(errors.ErrCodeExportFailed,
			fmt.Sprintf("Cannot write file: %s", path), err)
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	e.logger.Info("Resume exported", "file", path, "bytes", len(content))
	return path, nil
}
