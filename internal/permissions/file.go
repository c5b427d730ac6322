package permissions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// fileDocument is the on-disk layout of a permissions file:
//
//	defaults:
//	  - town.use
//	subjects:
//	  console: ["*"]
//	  discord:1234: [town.admin]
type fileDocument struct {
	Defaults []string            `yaml:"defaults,omitempty"`
	Subjects map[string][]string `yaml:"subjects,omitempty"`
}

// FileStore is a Store backed by a YAML file. Changes made through the store
// are written back immediately; Watch picks up edits made by hand.
type FileStore struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	mem      *MemoryStore
	defaults []string
	writeMu  sync.Mutex

	watchMu       sync.Mutex
	watcher       *fsnotify.Watcher
	watchCancel   context.CancelFunc
	watchWg       sync.WaitGroup
	watchDebounce time.Duration
	onReload      func()
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFileLogger sets the logger used for reload warnings.
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDebounce sets how long Watch waits after the last change before
// reloading.
func WithDebounce(d time.Duration) FileOption {
	return func(s *FileStore) {
		s.watchDebounce = d
	}
}

// WithReloadHook registers a function called after every successful reload
// triggered by Watch.
func WithReloadHook(fn func()) FileOption {
	return func(s *FileStore) {
		s.onReload = fn
	}
}

// OpenFile loads the permissions file at path. A missing file yields an
// empty store; the file is created on the first write.
func OpenFile(path string, opts ...FileOption) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("permissions file path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve permissions path: %w", err)
	}
	s := &FileStore{
		path:          abs,
		logger:        slog.Default(),
		mem:           NewMemoryStore(),
		watchDebounce: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "permissions", "path", abs)
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the absolute file path.
func (s *FileStore) Path() string {
	return s.path
}

// Reload re-reads the file, replacing the in-memory state. It waits for any
// Grant or Revoke in progress so their changes are on disk first.
func (s *FileStore) Reload() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		data = nil
	} else if err != nil {
		return fmt.Errorf("read permissions file: %w", err)
	}

	var doc fileDocument
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse permissions file: %w", err)
		}
	}

	mem := NewMemoryStore()
	ctx := context.Background()
	for subject, nodes := range doc.Subjects {
		for _, node := range nodes {
			if err := mem.Grant(ctx, subject, node); err != nil {
				return fmt.Errorf("subject %q: %w", subject, err)
			}
		}
	}

	s.mu.Lock()
	s.mem = mem
	s.defaults = append([]string(nil), doc.Defaults...)
	s.mu.Unlock()
	return nil
}

// Defaults returns the nodes granted to every subject.
func (s *FileStore) Defaults() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.defaults...)
}

// Grant implements Store.
func (s *FileStore) Grant(ctx context.Context, subject, node string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	mem := s.mem
	s.mu.RUnlock()
	if err := mem.Grant(ctx, subject, node); err != nil {
		return err
	}
	return s.save(ctx)
}

// Revoke implements Store.
func (s *FileStore) Revoke(ctx context.Context, subject, node string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	mem := s.mem
	s.mu.RUnlock()
	if err := mem.Revoke(ctx, subject, node); err != nil {
		return err
	}
	return s.save(ctx)
}

// Nodes implements Store.
func (s *FileStore) Nodes(ctx context.Context, subject string) ([]string, error) {
	s.mu.RLock()
	mem := s.mem
	s.mu.RUnlock()
	return mem.Nodes(ctx, subject)
}

// save writes the current state to a temporary file and renames it over
// the original. Callers hold writeMu.
func (s *FileStore) save(ctx context.Context) error {
	s.mu.RLock()
	mem := s.mem
	doc := fileDocument{
		Defaults: append([]string(nil), s.defaults...),
		Subjects: make(map[string][]string),
	}
	s.mu.RUnlock()
	for _, subject := range mem.Subjects() {
		nodes, err := mem.Nodes(ctx, subject)
		if err != nil {
			return err
		}
		doc.Subjects[subject] = nodes
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encode permissions file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create permissions dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".permissions-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write permissions file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write permissions file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace permissions file: %w", err)
	}
	return nil
}

// Watch reloads the file whenever it changes on disk until ctx is done or
// Close is called. Calling Watch twice is a no-op.
func (s *FileStore) Watch(ctx context.Context) error {
	s.watchMu.Lock()
	if s.watcher != nil {
		s.watchMu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.watchMu.Unlock()
		return err
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		s.watchMu.Unlock()
		watcher.Close()
		return fmt.Errorf("watch permissions dir: %w", err)
	}
	s.watcher = watcher
	watchCtx, cancel := context.WithCancel(ctx)
	s.watchCancel = cancel
	s.watchMu.Unlock()

	s.watchWg.Add(1)
	go s.watchLoop(watchCtx, watcher)
	return nil
}

// Close stops any active watcher.
func (s *FileStore) Close() error {
	s.watchMu.Lock()
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	watcher := s.watcher
	s.watcher = nil
	s.watchMu.Unlock()

	if watcher != nil {
		_ = watcher.Close()
	}
	s.watchWg.Wait()
	return nil
}

func (s *FileStore) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer s.watchWg.Done()

	debounce := s.watchDebounce
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	var mu sync.Mutex
	var timer *time.Timer
	scheduleReload := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			if err := s.Reload(); err != nil {
				s.logger.Warn("permissions reload failed", "error", err)
				return
			}
			s.logger.Info("permissions reloaded")
			if s.onReload != nil {
				s.onReload()
			}
		})
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				scheduleReload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("permissions watch error", "error", err)
		}
	}
}
