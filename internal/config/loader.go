package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ErrRejected marks a reload that failed validation or was refused by an
// OnChange callback. The previous config stays current.
var ErrRejected = errors.New("config rejected")

// Loader reads a YAML config file and watches it for changes.
type Loader struct {
	path     string
	reloadMu sync.Mutex
	mu       sync.RWMutex
	current  *RuleConfig
	onChange []func(*RuleConfig) error
}

// NewLoader creates a Loader and performs the initial load. An invalid config
// is an error.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Config returns the current (latest) configuration.
func (l *Loader) Config() *RuleConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked with every valid reloaded config.
// A callback error rejects the reload.
func (l *Loader) OnChange(fn func(*RuleConfig) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file changes.
// The directory is watched rather than the file so editors that replace the
// file on save are picked up. Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	dir := filepath.Dir(l.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", dir, err)
	}
	target := filepath.Clean(l.path)

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						slog.Warn("config reload failed, keeping previous config", "path", l.path, "err", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the config file. The new config
// becomes current only after it validates and every callback accepts it.
func (l *Loader) Reload() (*RuleConfig, error) {
	l.reloadMu.Lock()
	defer l.reloadMu.Unlock()

	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.mu.RLock()
	callbacks := make([]func(*RuleConfig) error, len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.RUnlock()
	for _, fn := range callbacks {
		if err := fn(cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRejected, err)
		}
	}
	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
	return cfg, nil
}

func (l *Loader) load() (*RuleConfig, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	if cfg.Codebook != "" && !filepath.IsAbs(cfg.Codebook) {
		cfg.Codebook = filepath.Join(filepath.Dir(l.path), cfg.Codebook)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRejected, l.path, err)
	}
	return cfg, nil
}

// Parse decodes YAML config bytes and applies defaults.
func Parse(data []byte) (*RuleConfig, error) {
	var cfg RuleConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *RuleConfig) {
	e := &cfg.Engine
	if e.DocumentWorkers == 0 {
		e.DocumentWorkers = 8
	}
	if e.QueueDepth == 0 {
		e.QueueDepth = 1000
	}
	if e.DocumentTimeoutMs == 0 {
		e.DocumentTimeoutMs = 10000
	}
	if e.AnchorQualityThreshold == 0 {
		e.AnchorQualityThreshold = 0.95
	}
	if e.RateLimitRPS == 0 {
		e.RateLimitRPS = 20
	}
	if e.RateLimitBurst == 0 {
		e.RateLimitBurst = 40
	}
	if e.MaxBatchSize == 0 {
		e.MaxBatchSize = 50
	}
	for i := range cfg.Questions {
		q := &cfg.Questions[i]
		q.Period = Period(strings.ToUpper(strings.TrimSpace(string(q.Period))))
		if q.Period == "" {
			q.Period = PeriodAll
		}
	}
}
