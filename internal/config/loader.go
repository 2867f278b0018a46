package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"keycast/internal/logging"
)

// debounceDelay coalesces the burst of events an editor save produces.
const debounceDelay = 100 * time.Millisecond

// Loader handles configuration loading, watching, and hot-reloading.
type Loader struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	config   *Config
	onChange []func(old, new *Config)

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	errChan chan error
	done    chan struct{}
}

// NewLoader creates a loader for path. An empty path uses ConfigPath.
func NewLoader(path string, logger *slog.Logger) *Loader {
	if path == "" {
		path = ConfigPath()
	}
	if logger == nil {
		logger = logging.Default().WithComponent("config")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		path:    path,
		logger:  logger,
		errChan: make(chan error, 1),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Path returns the watched file.
func (l *Loader) Path() string {
	return l.path
}

// Load reads, migrates and validates the configuration file.
func (l *Loader) Load() (*Config, error) {
	cfg, err := Load(l.path)
	if err != nil {
		return nil, err
	}
	for _, w := range ValidateConfigAll(cfg).Warnings() {
		l.logger.Warn("config warning", "field", w.Field, "message", w.Message)
	}

	l.mu.Lock()
	l.config = cfg
	l.mu.Unlock()
	return cfg, nil
}

// Config returns the current configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config
}

// Watch starts watching the configuration file. Valid changes replace the
// current configuration and are passed to the OnChange callbacks; invalid
// ones are reported on Errors and the previous configuration stays.
func (l *Loader) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// The directory is watched so that replace-by-rename saves are seen.
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		watcher.Close()
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	l.watcher = watcher

	go l.watchLoop()
	return nil
}

func (l *Loader) watchLoop() {
	defer close(l.done)
	defer logging.RecoverGoroutine(l.logger, "config watcher")

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-l.ctx.Done():
			return

		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(l.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, l.reload)

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.report(err)
		}
	}
}

func (l *Loader) report(err error) {
	l.logger.Warn("config reload failed", "path", l.path, "error", err)
	select {
	case l.errChan <- err:
	default:
	}
}

func (l *Loader) reload() {
	if l.ctx.Err() != nil {
		return
	}
	newCfg, err := Load(l.path)
	if err != nil {
		l.report(fmt.Errorf("reload config: %w", err))
		return
	}

	l.mu.Lock()
	oldCfg := l.config
	l.config = newCfg
	callbacks := append([]func(old, new *Config){}, l.onChange...)
	l.mu.Unlock()

	l.logger.Info("config reloaded", "path", l.path)
	for _, cb := range callbacks {
		cb(oldCfg, newCfg)
	}
}

// OnChange registers a callback invoked after each successful reload with
// the previous and the new configuration.
func (l *Loader) OnChange(cb func(old, new *Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, cb)
}

// Errors returns a channel for receiving errors that occur during watching.
func (l *Loader) Errors() <-chan error {
	return l.errChan
}

// Close stops the watcher and releases resources.
func (l *Loader) Close() error {
	l.cancel()
	if l.watcher == nil {
		return nil
	}
	err := l.watcher.Close()
	<-l.done
	return err
}

// LoadOrCreate loads the configuration from path, writing the defaults
// there first if the file does not exist. The boolean reports creation.
func LoadOrCreate(path string) (*Config, bool, error) {
	if path == "" {
		path = ConfigPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := SaveConfig(cfg, path); err != nil {
			return nil, false, fmt.Errorf("create default config: %w", err)
		}
		return cfg, true, nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, false, err
	}
	return cfg, false, nil
}
