/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package types

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose  bool           `mapstructure:"verbose"`
	Config   string         `mapstructure:"config"`
	API      APIConfig      `mapstructure:"api" validate:"required"`
	Poll     PollConfig     `mapstructure:"poll" validate:"required"`
	Render   RenderConfig   `mapstructure:"render"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Session  SessionConfig  `mapstructure:"session" validate:"required"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Policy   PolicyConfig   `mapstructure:"policy"`
}

// APIConfig holds the backend connection settings
type APIConfig struct {
	BaseURL        string `mapstructure:"baseURL" validate:"required,url"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds" validate:"min=1,max=600"`
}

// PollConfig controls how often list and detail views refresh
type PollConfig struct {
	BankerIntervalSeconds int `mapstructure:"bankerIntervalSeconds" validate:"min=1,max=3600"`
	ClientIntervalSeconds int `mapstructure:"clientIntervalSeconds" validate:"min=1,max=3600"`
	// FocusMinGapMillis is the minimum delay between two focus-triggered refreshes
	FocusMinGapMillis int `mapstructure:"focusMinGapMillis" validate:"min=0"`
}

// RenderConfig holds display settings
type RenderConfig struct {
	// MaxItems bounds each level of the generic payload dump
	MaxItems int    `mapstructure:"maxItems" validate:"omitempty,min=1,max=1000"`
	Output   string `mapstructure:"output" validate:"omitempty,oneof=text json yaml"`
}

// CacheConfig sizes the explanation cache
type CacheConfig struct {
	Size int `mapstructure:"size" validate:"omitempty,min=1"`
}

// SessionConfig locates the persisted login
type SessionConfig struct {
	File string `mapstructure:"file" validate:"required"`
}

// SnapshotConfig locates the offline snapshot database
type SnapshotConfig struct {
	Path    string `mapstructure:"path"`
	Enabled bool   `mapstructure:"enabled"`
}

// PolicyConfig locates user decision policies
type PolicyConfig struct {
	Dir     string `mapstructure:"dir"`
	Enabled bool   `mapstructure:"enabled"`
}
