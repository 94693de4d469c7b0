package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dshills/texona/internal/config/loader"
	"github.com/dshills/texona/internal/config/watcher"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "TEXONA_"

// Config provides unified access to texona settings.
//
// Sources are merged in increasing priority: built-in defaults, the config
// file (TOML or YAML), TEXONA_* environment variables and explicit
// overrides such as command-line flags.
type Config struct {
	mu sync.RWMutex

	merged map[string]any

	file      string
	fsys      loader.FileSystem
	envPrefix string
	environ   []string
	overrides map[string]any

	watcher *watcher.Watcher

	// configErrors stores type errors encountered by section accessors.
	configErrors map[string]error
}

// Option configures a Config instance.
type Option func(*Config)

// WithFile sets the config file path. A missing file is not an error.
func WithFile(path string) Option {
	return func(c *Config) {
		c.file = path
	}
}

// WithFileSystem sets the file system the config file is read from.
func WithFileSystem(fsys loader.FileSystem) Option {
	return func(c *Config) {
		c.fsys = fsys
	}
}

// WithEnvPrefix changes the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// WithEnviron reads environment settings from a fixed list of KEY=VALUE
// pairs instead of the process environment.
func WithEnviron(environ []string) Option {
	return func(c *Config) {
		c.environ = environ
	}
}

// WithOverride sets a value that takes precedence over every other source.
func WithOverride(path string, value any) Option {
	return func(c *Config) {
		if c.overrides == nil {
			c.overrides = make(map[string]any)
		}
		_ = setPath(c.overrides, path, value)
	}
}

// New creates a Config holding the built-in defaults.
func New(opts ...Option) *Config {
	c := &Config{
		merged:    defaultConfig(),
		fsys:      loader.DefaultFS(),
		envPrefix: EnvPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads every source and replaces the merged configuration.
// The result is validated; on error the previous configuration is kept.
func (c *Config) Load(_ context.Context) error {
	merged := defaultConfig()

	if c.file != "" {
		fileConfig, err := loader.ForPath(c.fsys, c.file).Load()
		if err != nil {
			return err
		}
		merged = loader.DeepMerge(merged, fileConfig)
	}

	var env *loader.EnvLoader
	if c.environ != nil {
		env = loader.NewEnvLoaderWithEnviron(c.envPrefix, c.environ)
	} else {
		env = loader.NewEnvLoader(c.envPrefix)
	}
	envConfig, err := env.Load()
	if err != nil {
		return fmt.Errorf("loading environment: %w", err)
	}
	merged = loader.DeepMerge(merged, envConfig)
	merged = loader.DeepMerge(merged, c.overrides)

	if err := validate(merged); err != nil {
		return err
	}

	c.mu.Lock()
	c.merged = merged
	c.configErrors = nil
	c.mu.Unlock()
	return nil
}

// File returns the config file path, or "" when none is configured.
func (c *Config) File() string {
	return c.file
}

// Watch reloads the configuration whenever the config file changes and
// then calls onReload with the reload result. It returns a function that
// stops watching.
func (c *Config) Watch(ctx context.Context, onReload func(error), opts ...watcher.Option) (func(), error) {
	if c.file == "" {
		return func() {}, nil
	}

	w := watcher.New(opts...)
	if err := w.Watch(c.file); err != nil {
		return nil, fmt.Errorf("watching %s: %w", c.file, err)
	}
	w.OnChange(func(watcher.Event) {
		err := c.Load(ctx)
		if onReload != nil {
			onReload(err)
		}
	})
	w.Start()

	c.mu.Lock()
	c.watcher = w
	c.mu.Unlock()
	return w.Stop, nil
}

// Close stops any file watcher started by Watch.
func (c *Config) Close() {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()
	if w != nil {
		w.Stop()
	}
}

// Get returns the value at the given path from the merged configuration.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return getPath(c.merged, path)
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetInt returns an integer value at the given path.
func (c *Config) GetInt(path string) (int, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	n, ok := toInt(v)
	if !ok {
		return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
	}
	return n, nil
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// GetFloat returns a float64 value at the given path.
func (c *Config) GetFloat(path string) (float64, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, &TypeError{Path: path, Expected: "float64", Actual: typeName(v)}
	}
	return f, nil
}

// GetStringSlice returns a string slice at the given path.
func (c *Config) GetStringSlice(path string) ([]string, error) {
	v, ok := c.Get(path)
	if !ok {
		return nil, ErrSettingNotFound
	}
	s, ok := toStringSlice(v)
	if !ok {
		return nil, &TypeError{Path: path, Expected: "[]string", Actual: typeName(v)}
	}
	return s, nil
}

// Set sets a value at the given path. The change is lost on the next Load.
func (c *Config) Set(path string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return setPath(c.merged, path, value)
}

// Merged returns a copy of the merged configuration.
func (c *Config) Merged() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.Clone(c.merged)
}

// DefaultPath returns the default config file location,
// $XDG_CONFIG_HOME/texona/config.toml.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "texona", "config.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "texona", "config.toml")
}

// defaultDataPath returns the default project database location.
func defaultDataPath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "texona", "texona.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "texona", "texona.db")
}

// defaultConfig returns the default configuration values.
func defaultConfig() map[string]any {
	return map[string]any{
		"history": map[string]any{
			"maxEntries":    int64(0),
			"workspaceName": "clip",
		},
		"thumbnail": map[string]any{
			"enabled": true,
			"format":  "png",
			"quality": 0.8,
			"scale":   0.3,
		},
		"canvas": map[string]any{
			"width":           int64(1200),
			"height":          int64(800),
			"workspaceWidth":  int64(900),
			"workspaceHeight": int64(1200),
			"background":      "",
		},
		"storage": map[string]any{
			"path":        defaultDataPath(),
			"busyTimeout": int64(5000),
		},
		"logging": map[string]any{
			"level":  "info",
			"format": "text",
		},
		"script": map[string]any{
			"timeout": "5s",
		},
	}
}

// getPath retrieves a value from a nested map using a dot-separated path.
func getPath(m map[string]any, path string) (any, bool) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, false
	}

	current := any(m)
	for _, part := range parts {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = cm[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// setPath sets a value in a nested map using a dot-separated path.
func setPath(m map[string]any, path string, value any) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return ErrInvalidPath
	}

	current := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part]
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		nextMap, ok := next.(map[string]any)
		if !ok {
			return ErrInvalidPath
		}
		current = nextMap
	}

	current[parts[len(parts)-1]] = value
	return nil
}

// splitPath splits a dot-separated path into parts, dropping empty ones.
func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			if i > start {
				parts = append(parts, path[start:i])
			}
			start = i + 1
		}
	}
	return parts
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toStringSlice(v any) ([]string, bool) {
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...), true
	case []any:
		result := make([]string, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			result[i] = s
		}
		return result, true
	default:
		return nil, false
	}
}

// typeName returns the type name for error messages.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case string:
		return "string"
	case int, int64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []any:
		return "[]any"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}
