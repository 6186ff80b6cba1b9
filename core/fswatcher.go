package core

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for more changes before reloading
const DefaultDebounce = 250 * time.Millisecond

// Reloader is what the FileWatcher triggers after a burst of changes
type Reloader interface {
	Reload() error
}

// FileWatchEventType represents the type of file system event
type FileWatchEventType int

const (
	FileCreated FileWatchEventType = iota
	FileModified
	FileDeleted
	DirCreated
	DirDeleted
)

// String returns a string representation of the event type
func (t FileWatchEventType) String() string {
	switch t {
	case FileCreated:
		return "FileCreated"
	case FileModified:
		return "FileModified"
	case FileDeleted:
		return "FileDeleted"
	case DirCreated:
		return "DirCreated"
	case DirDeleted:
		return "DirDeleted"
	default:
		return "Unknown"
	}
}

// FileWatchEvent represents a file system change relevant to the site
type FileWatchEvent struct {
	Type  FileWatchEventType
	Path  string // relative to the watched root
	IsDir bool
	Time  time.Time
}

// FileWatcher watches the site directory and reloads the content after changes settle
type FileWatcher struct {
	mu          sync.RWMutex
	reloader    Reloader
	watcher     *fsnotify.Watcher
	watchedDirs map[string]bool
	rootPath    string
	running     bool
	debounce    time.Duration
	timer       *time.Timer
	pending     []FileWatchEvent
	onReload    func([]FileWatchEvent, error)
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// Creates a new file watcher that calls reloader.Reload after changes
func NewFileWatcher(reloader Reloader) (*FileWatcher, error) {
	if reloader == nil {
		return nil, fmt.Errorf("reloader cannot be nil")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &FileWatcher{
		reloader:    reloader,
		watcher:     watcher,
		watchedDirs: make(map[string]bool),
		debounce:    DefaultDebounce,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// SetDebounce changes the quiet period before a reload. Call before Start.
func (fw *FileWatcher) SetDebounce(d time.Duration) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if d > 0 {
		fw.debounce = d
	}
}

// OnReload registers a callback invoked after every reload with the events that caused it
func (fw *FileWatcher) OnReload(fn func(events []FileWatchEvent, err error)) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.onReload = fn
}

// Returns true if a path should be ignored (hidden files, symlinks, editor temp files)
func IgnoreFile(path string, info os.FileInfo) bool {
	if info == nil {
		return true
	}

	baseName := filepath.Base(path)

	if strings.HasPrefix(baseName, ".") {
		return true
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return true
	}

	for _, suffix := range []string{".bak", ".tmp", "~", ".swp", ".lock"} {
		if strings.HasSuffix(baseName, suffix) {
			return true
		}
	}

	return false
}

// ignoreName applies the name based rules of IgnoreFile to a path that may no longer exist
func ignoreName(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	for _, suffix := range []string{".bak", ".tmp", "~", ".swp", ".lock"} {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}

func (fw *FileWatcher) addDirectoryWatch(dirPath string) error {
	return filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			Warn("error walking path %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil || (path != dirPath && IgnoreFile(path, info)) {
			return filepath.SkipDir
		}

		if err := fw.watcher.Add(path); err != nil {
			Warn("failed to watch directory %s: %v", path, err)
			return nil
		}

		fw.mu.Lock()
		fw.watchedDirs[path] = true
		fw.mu.Unlock()

		Debug("watching directory: %s", path)
		return nil
	})
}

func (fw *FileWatcher) removeDirectoryWatch(dirPath string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for watchedDir := range fw.watchedDirs {
		if watchedDir == dirPath || strings.HasPrefix(watchedDir, dirPath+string(filepath.Separator)) {
			// fsnotify drops watches of removed directories itself
			_ = fw.watcher.Remove(watchedDir)
			delete(fw.watchedDirs, watchedDir)
			Debug("stopped watching directory: %s", watchedDir)
		}
	}
}

// Starts the file watcher
func (fw *FileWatcher) Start(rootPath string) error {
	if rootPath == "" {
		return fmt.Errorf("root path cannot be empty")
	}

	if info, err := os.Stat(rootPath); err != nil {
		return fmt.Errorf("failed to access root path %s: %w", rootPath, err)
	} else if !info.IsDir() {
		return fmt.Errorf("root path %s is not a directory", rootPath)
	}

	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return ErrWatcherRunning
	}
	fw.running = true
	fw.rootPath = rootPath
	fw.mu.Unlock()

	if err := fw.addDirectoryWatch(rootPath); err != nil {
		fw.mu.Lock()
		fw.running = false
		fw.mu.Unlock()
		return fmt.Errorf("failed to add initial directory watches: %w", err)
	}

	fw.wg.Add(1)
	go fw.processWatcherEvents()

	Info("file watcher started, watching: %s", rootPath)
	return nil
}

// Stops the file watcher. A pending reload is discarded.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return ErrWatcherNotRunning
	}
	fw.running = false
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.mu.Unlock()

	fw.cancel()
	err := fw.watcher.Close()
	fw.wg.Wait()

	Info("file watcher stopped")
	return err
}

func (fw *FileWatcher) processWatcherEvents() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if e, ok := fw.classify(event); ok {
				RecordFileWatcherEvent()
				fw.schedule(e)
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			Error("file watcher error: %v", err)
		}
	}
}

// classify turns an fsnotify event into a site event, updating the watch set for directories
func (fw *FileWatcher) classify(event fsnotify.Event) (FileWatchEvent, bool) {
	if ignoreName(event.Name) {
		return FileWatchEvent{}, false
	}

	relPath, err := filepath.Rel(fw.rootPath, event.Name)
	if err != nil {
		Warn("failed to get relative path for %s: %v", event.Name, err)
		return FileWatchEvent{}, false
	}
	out := FileWatchEvent{Path: filepath.ToSlash(relPath), Time: time.Now()}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Lstat(event.Name)
		if err != nil || IgnoreFile(event.Name, info) {
			return FileWatchEvent{}, false
		}
		if info.IsDir() {
			if err := fw.addDirectoryWatch(event.Name); err != nil {
				Warn("failed to watch new directory %s: %v", event.Name, err)
			}
			out.Type, out.IsDir = DirCreated, true
		} else {
			out.Type = FileCreated
		}
	case event.Has(fsnotify.Write):
		out.Type = FileModified
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		fw.mu.RLock()
		wasDir := fw.watchedDirs[event.Name]
		fw.mu.RUnlock()
		if wasDir {
			fw.removeDirectoryWatch(event.Name)
			out.Type, out.IsDir = DirDeleted, true
		} else {
			out.Type = FileDeleted
		}
	default:
		return FileWatchEvent{}, false
	}

	Debug("file watcher event %s: %s", out.Type, out.Path)
	return out, true
}

// schedule queues an event and (re)arms the debounce timer
func (fw *FileWatcher) schedule(event FileWatchEvent) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.running {
		return
	}

	fw.pending = append(fw.pending, event)
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, fw.flush)
}

func (fw *FileWatcher) flush() {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return
	}
	events := fw.pending
	fw.pending = nil
	callback := fw.onReload
	fw.mu.Unlock()

	if len(events) == 0 {
		return
	}

	Info("reloading after %d file change(s)", len(events))
	err := fw.reloader.Reload()
	if err != nil {
		Error("reload failed: %v", err)
	}
	if callback != nil {
		callback(events, err)
	}
}

// returns whether the file watcher is currently running
func (fw *FileWatcher) IsRunning() bool {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return fw.running
}

// returns the currently watched directories, sorted
func (fw *FileWatcher) GetWatchedDirectories() []string {
	fw.mu.RLock()
	defer fw.mu.RUnlock()

	dirs := make([]string, 0, len(fw.watchedDirs))
	for dir := range fw.watchedDirs {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}
