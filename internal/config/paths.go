package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// GetGlobalConfigDir returns the path to the global configuration directory (~/.creditdesk).
// This is the source of truth for where global config lives.
// It's a variable to allow overriding in tests.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".creditdesk"), nil
}

// resolve returns the configured path for key, or name inside the global
// config directory.
func resolve(key, name string) string {
	if key != "" {
		if path := viper.GetString(key); path != "" {
			return path
		}
	}
	dir, err := GetGlobalConfigDir()
	if err != nil {
		return filepath.Join(".creditdesk", name)
	}
	return filepath.Join(dir, name)
}

// GetSessionPath returns the file holding the persisted login.
func GetSessionPath() string {
	return resolve("session.file", SessionFileName)
}

// GetSnapshotPath returns the path to the offline snapshot database.
// Resolution order (first match wins):
// 1. Explicit config via "snapshot.path" (Viper/env/flag)
// 2. XDG_DATA_HOME/creditdesk/snapshots.db (if XDG_DATA_HOME is set)
// 3. Global fallback: ~/.creditdesk/snapshots.db
func GetSnapshotPath() string {
	if path := viper.GetString("snapshot.path"); path != "" {
		return path
	}
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "creditdesk", SnapshotFileName)
	}
	return resolve("", SnapshotFileName)
}

// GetPolicyDir returns the directory user decision policies are loaded from.
// A local ./.creditdesk/policies wins over the global one so a team can
// version its policies next to its scripts.
func GetPolicyDir() string {
	if path := viper.GetString("policy.dir"); path != "" {
		return path
	}
	local := filepath.Join(".creditdesk", PolicyDirName)
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return local
	}
	return resolve("", PolicyDirName)
}
