package config

import (
	"errors"
	"maps"
	"time"
)

// Section accessor methods return snapshot structs. Mutating the returned
// struct does not modify the underlying configuration.

// HistoryConfig holds undo/redo settings.
type HistoryConfig struct {
	// MaxEntries bounds the snapshot log; 0 means unlimited.
	MaxEntries int

	// Keys is the extra property allow-list; nil selects the canvas default.
	Keys []string

	// WorkspaceName is the name of the artboard object.
	WorkspaceName string
}

// ThumbnailConfig holds thumbnail export settings.
type ThumbnailConfig struct {
	Enabled bool

	// Format is "png" or "jpeg".
	Format string

	// Quality is the encoder quality in (0, 1].
	Quality float64

	// Scale multiplies the workspace size.
	Scale float64
}

// CanvasConfig holds the drawing surface size and seed workspace.
type CanvasConfig struct {
	Width           int
	Height          int
	WorkspaceWidth  int
	WorkspaceHeight int
	Background      string
}

// StorageConfig holds project database settings.
type StorageConfig struct {
	// Path is the SQLite database file.
	Path string

	// BusyTimeout is the SQLite busy timeout in milliseconds.
	BusyTimeout int
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string

	// Format is "text" or "json".
	Format string

	// File is a log file path; empty logs to stderr.
	File string
}

// ScriptConfig holds Lua scripting settings.
type ScriptConfig struct {
	// Timeout bounds a single script run.
	Timeout time.Duration
}

// History returns the history settings.
func (c *Config) History() HistoryConfig {
	h := HistoryConfig{
		MaxEntries:    c.getIntOr("history.maxEntries", 0),
		WorkspaceName: c.getStringOr("history.workspaceName", "clip"),
	}
	if _, ok := c.Get("history.keys"); ok {
		h.Keys = c.getStringSliceOr("history.keys", nil)
	}
	return h
}

// Thumbnail returns the thumbnail settings.
func (c *Config) Thumbnail() ThumbnailConfig {
	return ThumbnailConfig{
		Enabled: c.getBoolOr("thumbnail.enabled", true),
		Format:  c.getStringOr("thumbnail.format", "png"),
		Quality: c.getFloatOr("thumbnail.quality", 0.8),
		Scale:   c.getFloatOr("thumbnail.scale", 0.3),
	}
}

// Canvas returns the canvas settings.
func (c *Config) Canvas() CanvasConfig {
	return CanvasConfig{
		Width:           c.getIntOr("canvas.width", 1200),
		Height:          c.getIntOr("canvas.height", 800),
		WorkspaceWidth:  c.getIntOr("canvas.workspaceWidth", 900),
		WorkspaceHeight: c.getIntOr("canvas.workspaceHeight", 1200),
		Background:      c.getStringOr("canvas.background", ""),
	}
}

// Storage returns the storage settings.
func (c *Config) Storage() StorageConfig {
	return StorageConfig{
		Path:        c.getStringOr("storage.path", defaultDataPath()),
		BusyTimeout: c.getIntOr("storage.busyTimeout", 5000),
	}
}

// Logging returns the logging settings.
func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{
		Level:  c.getStringOr("logging.level", "info"),
		Format: c.getStringOr("logging.format", "text"),
		File:   c.getStringOr("logging.file", ""),
	}
}

// Script returns the scripting settings.
func (c *Config) Script() ScriptConfig {
	d, err := time.ParseDuration(c.getStringOr("script.timeout", "5s"))
	if err != nil {
		c.recordConfigError("script.timeout", err)
		d = 5 * time.Second
	}
	return ScriptConfig{Timeout: d}
}

// These methods only return the default for ErrSettingNotFound.
// Type errors are recorded and return the default.

func (c *Config) getStringOr(path string, defaultValue string) string {
	v, err := c.GetString(path)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getIntOr(path string, defaultValue int) int {
	v, err := c.GetInt(path)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getBoolOr(path string, defaultValue bool) bool {
	v, err := c.GetBool(path)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getFloatOr(path string, defaultValue float64) float64 {
	v, err := c.GetFloat(path)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getStringSliceOr(path string, defaultValue []string) []string {
	v, err := c.GetStringSlice(path)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			c.recordConfigError(path, err)
		}
		return append([]string(nil), defaultValue...)
	}
	return v
}

// recordConfigError stores the first error seen for each path.
func (c *Config) recordConfigError(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.configErrors == nil {
		c.configErrors = make(map[string]error)
	}
	if _, exists := c.configErrors[path]; !exists {
		c.configErrors[path] = err
	}
}

// ConfigErrors returns configuration errors recorded by section accessors.
func (c *Config) ConfigErrors() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.configErrors == nil {
		return nil
	}
	return maps.Clone(c.configErrors)
}
