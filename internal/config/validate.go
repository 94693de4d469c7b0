package config

import (
	"errors"
	"slices"
	"time"
)

var (
	thumbnailFormats = []string{"png", "jpeg"}
	logLevels        = []string{"debug", "info", "warn", "error"}
	logFormats       = []string{"text", "json"}
)

// Validate checks the current merged configuration.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return validate(c.merged)
}

// validate returns every problem found in a merged configuration, joined.
func validate(m map[string]any) error {
	var errs []error
	add := func(path, msg string, v any, code ValidationErrorCode) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v, Code: code})
	}

	intAtLeast := func(path string, lo int) {
		v, ok := getPath(m, path)
		if !ok {
			return
		}
		n, ok := toInt(v)
		switch {
		case !ok:
			add(path, "must be an integer", v, ErrCodeTypeMismatch)
		case n < lo:
			add(path, "out of range", v, ErrCodeOutOfRange)
		}
	}
	floatIn := func(path string, lo, hi float64) {
		v, ok := getPath(m, path)
		if !ok {
			return
		}
		f, ok := toFloat(v)
		switch {
		case !ok:
			add(path, "must be a number", v, ErrCodeTypeMismatch)
		case f <= lo || f > hi:
			add(path, "out of range", v, ErrCodeOutOfRange)
		}
	}
	oneOf := func(path string, allowed []string) {
		v, ok := getPath(m, path)
		if !ok {
			return
		}
		s, ok := v.(string)
		switch {
		case !ok:
			add(path, "must be a string", v, ErrCodeTypeMismatch)
		case !slices.Contains(allowed, s):
			add(path, "must be one of "+joinQuoted(allowed), v, ErrCodeInvalidEnum)
		}
	}
	nonEmpty := func(path string) {
		v, ok := getPath(m, path)
		if s, isString := v.(string); !ok || !isString || s == "" {
			add(path, "must be a non-empty string", v, ErrCodeRequiredMissing)
		}
	}

	intAtLeast("history.maxEntries", 0)
	nonEmpty("history.workspaceName")
	if v, ok := getPath(m, "history.keys"); ok {
		if _, ok := toStringSlice(v); !ok {
			add("history.keys", "must be a list of strings", v, ErrCodeTypeMismatch)
		}
	}

	oneOf("thumbnail.format", thumbnailFormats)
	floatIn("thumbnail.quality", 0, 1)
	floatIn("thumbnail.scale", 0, 10)

	intAtLeast("canvas.width", 1)
	intAtLeast("canvas.height", 1)
	intAtLeast("canvas.workspaceWidth", 1)
	intAtLeast("canvas.workspaceHeight", 1)

	nonEmpty("storage.path")
	intAtLeast("storage.busyTimeout", 0)

	oneOf("logging.level", logLevels)
	oneOf("logging.format", logFormats)

	if v, ok := getPath(m, "script.timeout"); ok {
		s, isString := v.(string)
		if d, err := time.ParseDuration(s); !isString || err != nil || d <= 0 {
			add("script.timeout", "must be a positive duration", v, ErrCodeOutOfRange)
		}
	}

	return errors.Join(errs...)
}

func joinQuoted(values []string) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += `"` + v + `"`
	}
	return out
}
