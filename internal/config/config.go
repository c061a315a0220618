// Package config persists user preferences as a flat JSON object.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
)

const appName = "adboss"

// Keys understood by the application. Unknown keys are kept as they are.
const (
	KeyADBPath             = "adb_path"
	KeyRefreshInterval     = "refresh_interval"     // ms
	KeyDevicePollInterval  = "device_poll_interval" // ms
	KeyLogcatMaxLines      = "logcat_max_lines"
	KeyLogcatFlushInterval = "logcat_flush_interval" // ms
	KeyLogcatCeiling       = "logcat_ceiling_factor"
	KeyShellHistoryMax     = "shell_history_max"
	KeyThemeMode           = "theme_mode" // "system", "light" or "dark"
	KeyLanguage            = "language"
	KeyLastDevice          = "last_device_serial"
	KeyLastLocalPath       = "last_local_path"
	KeyLastRemotePath      = "last_remote_path"
	KeyLogLevel            = "log_level"
)

var defaults = map[string]any{
	KeyADBPath:             "",
	KeyRefreshInterval:     5000,
	KeyDevicePollInterval:  3000,
	KeyLogcatMaxLines:      5000,
	KeyLogcatFlushInterval: 50,
	KeyLogcatCeiling:       4,
	KeyShellHistoryMax:     100,
	KeyThemeMode:           "system",
	KeyLanguage:            "en",
	KeyLastDevice:          "",
	KeyLastLocalPath:       "",
	KeyLastRemotePath:      "/sdcard/",
	KeyLogLevel:            "info",
}

// Default returns the built-in value for key, or nil.
func Default(key string) any { return defaults[key] }

// Path returns the full path to the JSON config file.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "config.json"), nil
}

// Store is a key-value view of the config file. It is safe for concurrent
// use; every Set is written through to disk.
type Store struct {
	path string
	log  zerolog.Logger

	mu       sync.RWMutex
	values   map[string]any
	lastSave time.Time

	watchMu sync.Mutex
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
}

// Load opens the store at the default path.
func Load(log zerolog.Logger) (*Store, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}
	return Open(p, log)
}

// Open reads the config file at path. A missing file yields an empty store;
// a corrupt one is an error, but the returned store is still usable with
// defaults.
func Open(path string, log zerolog.Logger) (*Store, error) {
	s := &Store{path: path, log: log, values: map[string]any{}}
	if err := s.Reload(); err != nil {
		return s, err
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

// Reload replaces the in-memory values with the file contents.
func (s *Store) Reload() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// no config yet
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	values := map[string]any{}
	if err := json.Unmarshal(b, &values); err != nil {
		return fmt.Errorf("parse config %s: %w", s.path, err)
	}
	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

// Get returns the stored value for key, or def when it is absent.
func (s *Store) Get(key string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

// Set stores value and saves the file.
func (s *Store) Set(key string, value any) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return s.Save()
}

// Save writes the config to disk, creating the directory as needed.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	s.lastSave = time.Now()
	return nil
}

// String returns key as a string, falling back to its default.
func (s *Store) String(key string) string {
	v, err := cast.ToStringE(s.Get(key, defaults[key]))
	if err != nil {
		return cast.ToString(defaults[key])
	}
	return v
}

// Int returns key as an int, falling back to its default when the stored
// value cannot be converted.
func (s *Store) Int(key string) int {
	v, err := cast.ToIntE(s.Get(key, defaults[key]))
	if err != nil {
		s.log.Debug().Str("key", key).Err(err).Msg("config value ignored")
		return cast.ToInt(defaults[key])
	}
	return v
}

func (s *Store) Bool(key string) bool {
	v, err := cast.ToBoolE(s.Get(key, defaults[key]))
	if err != nil {
		return cast.ToBool(defaults[key])
	}
	return v
}

// Millis reads an interval stored in milliseconds. Non-positive values fall
// back to the default.
func (s *Store) Millis(key string) time.Duration {
	ms := s.Int(key)
	if ms <= 0 {
		ms = cast.ToInt(defaults[key])
	}
	return time.Duration(ms) * time.Millisecond
}

const (
	watchDebounce = 300 * time.Millisecond
	// writes this close to our own Save are not reported
	selfWriteWindow = 500 * time.Millisecond
)

// Watch reloads the store when another process changes the file and then
// calls onChange. The containing directory is watched so editors that
// replace the file are noticed too.
func (s *Store) Watch(onChange func()) error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if s.watcher != nil {
		return errors.New("config already watched")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch config: %w", err)
	}
	s.watcher = w
	s.stopCh = make(chan struct{})
	go s.watch(w, s.stopCh, onChange)
	s.log.Debug().Str("path", s.path).Msg("watching config")
	return nil
}

// StopWatching ends a Watch. It is safe to call when not watching.
func (s *Store) StopWatching() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if s.watcher == nil {
		return
	}
	close(s.stopCh)
	_ = s.watcher.Close()
	s.watcher = nil
}

func (s *Store) watch(w *fsnotify.Watcher, stop <-chan struct{}, onChange func()) {
	var debounce *time.Timer
	fire := func() {
		s.mu.RLock()
		own := time.Since(s.lastSave) < selfWriteWindow
		s.mu.RUnlock()
		if own {
			return
		}
		if err := s.Reload(); err != nil {
			s.log.Warn().Err(err).Msg("config reload failed")
			return
		}
		s.log.Info().Str("path", s.path).Msg("config reloaded")
		if onChange != nil {
			onChange()
		}
	}
	for {
		select {
		case <-stop:
			if debounce != nil {
				debounce.Stop()
			}
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, fire)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.log.Error().Err(err).Msg("config watcher error")
		}
	}
}
