package auth

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"resumetailor/internal/errors"
	"resumetailor/internal/watch"
)

// FileSession serves a token read from disk and reloads it when the file changes
type FileSession struct {
	mu      sync.RWMutex
	path    string
	token   string
	leeway  time.Duration
	now     func() time.Time
	watcher *watch.FileWatcher
	logger  *errors.Logger
}

// NewFileSession reads the token file and starts watching it for rotations
func NewFileSession(path string, leeway time.Duration, logger *errors.Logger) (*FileSession, error) {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	fs := &FileSession{path: path, leeway: leeway, now: time.Now, logger: logger}
	if err := fs.reload(); err != nil {
		return nil, err
	}

	fs.watcher = watch.New([]string{path}, 0, func(string) {
		if err := fs.reload(); err != nil {
			fs.logger.LogError(err, "Failed to reload session token")
			return
		}
		fs.logger.Info("Session token reloaded", "file", path)
	}, logger)
	if err := fs.watcher.Start(); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to watch session token file", err).
			WithContext("file", path)
	}
	return fs, nil
}

func (fs *FileSession) reload() error {
	raw, err := os.ReadFile(fs.path)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read session token file", err).
			WithContext("file", fs.path)
	}
	fs.mu.Lock()
	fs.token = strings.TrimSpace(string(raw))
	fs.mu.Unlock()
	return nil
}

func (fs *FileSession) AccessToken(ctx context.Context) (string, error) {
	fs.mu.RLock()
	token := fs.token
	fs.mu.RUnlock()
	return checkToken(token, fs.leeway, fs.now())
}

// Close stops watching the token file
func (fs *FileSession) Close() error {
	if fs.watcher == nil {
		return nil
	}
	return fs.watcher.Stop()
}
