package tasks

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"startrails/internal/fsutil"
)

// FileSystemEvent represents a settled change to an image file.
type FileSystemEvent struct {
	Path      string    `json:"path"`
	Operation string    `json:"operation"` // "created", "modified"
	Time      time.Time `json:"time"`
	Size      int64     `json:"size"`
}

// FileSystemWatcher monitors directories for new frames. Events for one path are
// debounced so a file is reported once the camera has stopped writing it.
type FileSystemWatcher struct {
	watcher   *fsnotify.Watcher
	Events    chan FileSystemEvent
	watchDirs []string
	debounce  time.Duration
	log       *slog.Logger

	mu       sync.Mutex
	pending  map[string]*time.Timer
	done     chan struct{}
	stopOnce sync.Once
}

// NewFileSystemWatcher creates a new filesystem watcher
func NewFileSystemWatcher(watchPaths []string, debounce time.Duration, log *slog.Logger) (*FileSystemWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	return &FileSystemWatcher{
		watcher:   watcher,
		Events:    make(chan FileSystemEvent, 100),
		watchDirs: watchPaths,
		debounce:  debounce,
		log:       log,
		pending:   make(map[string]*time.Timer),
		done:      make(chan struct{}),
	}, nil
}

// Start begins monitoring the configured directories
func (fsw *FileSystemWatcher) Start() error {
	for _, dir := range fsw.watchDirs {
		if err := fsw.watcher.Add(dir); err != nil {
			return err
		}
		fsw.log.Info("watching directory", "dir", dir)
	}

	go fsw.processEvents()
	return nil
}

// Stop stops the filesystem watcher. Events is left open; pending timers are dropped
// and settled events still waiting for a reader are discarded.
func (fsw *FileSystemWatcher) Stop() error {
	var err error
	fsw.stopOnce.Do(func() {
		close(fsw.done)
		fsw.mu.Lock()
		for p, t := range fsw.pending {
			t.Stop()
			delete(fsw.pending, p)
		}
		fsw.mu.Unlock()
		err = fsw.watcher.Close()
	})
	return err
}

func (fsw *FileSystemWatcher) processEvents() {
	for {
		select {
		case event, ok := <-fsw.watcher.Events:
			if !ok {
				return
			}

			var operation string
			switch {
			case event.Op&fsnotify.Create == fsnotify.Create:
				operation = "created"
			case event.Op&fsnotify.Write == fsnotify.Write:
				operation = "modified"
			default:
				continue
			}

			if !fsutil.IsImageFile(event.Name) {
				continue
			}
			fsw.schedule(event.Name, operation)

		case err, ok := <-fsw.watcher.Errors:
			if !ok {
				return
			}
			fsw.log.Warn("filesystem watcher error", "error", err)

		case <-fsw.done:
			return
		}
	}
}

// schedule (re)arms the debounce timer of path.
func (fsw *FileSystemWatcher) schedule(path, operation string) {
	fsw.mu.Lock()
	defer fsw.mu.Unlock()

	if t, ok := fsw.pending[path]; ok {
		t.Stop()
	}
	fsw.pending[path] = time.AfterFunc(fsw.debounce, func() {
		fsw.mu.Lock()
		delete(fsw.pending, path)
		fsw.mu.Unlock()

		var size int64
		if st, err := os.Stat(path); err == nil {
			size = st.Size()
		}
		ev := FileSystemEvent{Path: path, Operation: operation, Time: time.Now(), Size: size}
		// Blocks until the consumer catches up or the watcher stops.
		select {
		case fsw.Events <- ev:
		case <-fsw.done:
		}
	})
}
