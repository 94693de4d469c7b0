// Package config provides the configuration system for texona.
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Overrides (CLI flags)   │  ← Highest priority
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← TEXONA_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← ~/.config/texona/config.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// The config file may be TOML or YAML, chosen by extension:
//
//	[history]
//	maxEntries = 100
//	keys = ["name", "linkData"]
//
//	[thumbnail]
//	format = "png"
//	quality = 0.8
//	scale = 0.3
//
// Environment variables map onto paths by section and camel-cased setting,
// so TEXONA_HISTORY_MAX_ENTRIES sets history.maxEntries. TEXONA_DB and
// TEXONA_LOG_LEVEL are shorthands for storage.path and logging.level.
//
// Typed sections are read through accessors:
//
//	cfg := config.New(config.WithFile(path))
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//	maxEntries := cfg.History().MaxEntries
package config
