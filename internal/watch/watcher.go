package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"resumetailor/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceDelay coalesces the burst of events editors emit on a single save
const DefaultDebounceDelay = 100 * time.Millisecond

// FileWatcher watches a set of files and calls onChange once per burst of edits
type FileWatcher struct {
	mu sync.Mutex

	files       []string
	lastModTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer
	pending       map[string]struct{}

	stopChan   chan struct{}
	changeChan chan struct{}
	done       chan struct{}

	onChange func(path string)
	logger   *errors.Logger

	running bool
}

// New creates a file watcher; it does nothing until Start is called
func New(files []string, debounceDelay time.Duration, onChange func(path string), logger *errors.Logger) *FileWatcher {
	if debounceDelay <= 0 {
		debounceDelay = DefaultDebounceDelay
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	cleaned := make([]string, 0, len(files))
	for _, file := range files {
		if file != "" {
			cleaned = append(cleaned, filepath.Clean(file))
		}
	}

	return &FileWatcher{
		files:         cleaned,
		lastModTime:   make(map[string]time.Time),
		debounceDelay: debounceDelay,
		pending:       make(map[string]struct{}),
		stopChan:      make(chan struct{}),
		changeChan:    make(chan struct{}, 1),
		done:          make(chan struct{}),
		onChange:      onChange,
		logger:        logger,
	}
}

// Start begins watching the files
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.running {
		return fmt.Errorf("file watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	fw.fsWatcher = watcher

	for _, file := range fw.files {
		if stat, err := os.Stat(file); err == nil {
			fw.lastModTime[file] = stat.ModTime()
		}
		// Watching the directory also catches editors that save via rename.
		dir := filepath.Dir(file)
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	fw.running = true
	go fw.watchLoop()

	fw.logger.Info("File watcher started", "files", fw.files, "debounce_delay", fw.debounceDelay)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = false
	close(fw.stopChan)
	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}
	err := fw.fsWatcher.Close()
	fw.mu.Unlock()

	<-fw.done
	if err != nil {
		fw.logger.LogError(err, "Failed to close file system watcher")
	}
	return err
}

// Files returns the watched file paths
func (fw *FileWatcher) Files() []string {
	return append([]string(nil), fw.files...)
}

func (fw *FileWatcher) watchLoop() {
	defer close(fw.done)

	for {
		select {
		case event, ok := <-fw.fsWatcher.Events:
			if !ok {
				return
			}
			if file, watched := fw.match(event); watched {
				fw.schedule(file)
			}

		case err, ok := <-fw.fsWatcher.Errors:
			if !ok {
				return
			}
			fw.logger.LogError(err, "File watcher error")

		case <-fw.changeChan:
			for _, file := range fw.drainPending() {
				if fw.hasFileChanged(file) {
					fw.logger.Debug("Watched file changed", "file", file)
					fw.onChange(file)
				}
			}

		case <-fw.stopChan:
			return
		}
	}
}

// match reports which watched file an event refers to, if any
func (fw *FileWatcher) match(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return "", false
	}
	name := filepath.Clean(event.Name)
	for _, file := range fw.files {
		if name == file {
			return file, true
		}
	}
	return "", false
}

// schedule restarts the debounce timer for a burst of events
func (fw *FileWatcher) schedule(file string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.running {
		return
	}
	fw.pending[file] = struct{}{}
	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}
	fw.debounceTimer = time.AfterFunc(fw.debounceDelay, func() {
		select {
		case fw.changeChan <- struct{}{}:
		default:
		}
	})
}

func (fw *FileWatcher) drainPending() []string {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	files := make([]string, 0, len(fw.pending))
	for _, file := range fw.files {
		if _, ok := fw.pending[file]; ok {
			files = append(files, file)
		}
	}
	clear(fw.pending)
	return files
}

// hasFileChanged compares the modification time against the last seen one
func (fw *FileWatcher) hasFileChanged(file string) bool {
	stat, err := os.Stat(file)
	if err != nil {
		return false
	}
	lastMod, exists := fw.lastModTime[file]
	if !exists || !stat.ModTime().Equal(lastMod) {
		fw.lastModTime[file] = stat.ModTime()
		return true
	}
	return false
}
