// Package config provides centralized configuration constants for CreditDesk.
// All default values should be defined here to ensure a single source of truth.
package config

import "time"

// Backend defaults
const (
	// DefaultBaseURL is the backend the CLI talks to when none is configured
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeoutSeconds bounds a single backend call
	DefaultTimeoutSeconds = 30
)

// Polling defaults, matching the refresh cadence of the web views
const (
	DefaultBankerInterval = 15 * time.Second
	DefaultClientInterval = 20 * time.Second

	// DefaultFocusMinGap rate limits refreshes triggered by terminal focus
	DefaultFocusMinGap = 2 * time.Second
)

// Rendering defaults
const (
	// DefaultMaxItems bounds each level of the generic payload dump
	DefaultMaxItems = 8

	// DefaultCacheSize is the number of normalized explanations kept in memory
	DefaultCacheSize = 256
)

// File names under the config directory
const (
	ConfigFileName   = "config.yaml"
	SessionFileName  = "session.json"
	SnapshotFileName = "snapshots.db"
	PolicyDirName    = "policies"
)
