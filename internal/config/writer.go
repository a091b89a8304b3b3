package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// SetGlobalValue writes a dotted key (e.g. "api.baseURL") into the global
// config.yaml, keeping every other setting in place.
func SetGlobalValue(fs afero.Fs, key string, value any) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("config key cannot be empty")
	}
	dir, err := GetGlobalConfigDir()
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	path := filepath.Join(dir, ConfigFileName)

	doc := map[string]any{}
	if data, err := afero.ReadFile(fs, path); err == nil && len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	setNested(doc, strings.Split(key, "."), value)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	header := []byte("# CreditDesk Global Configuration\n")
	if err := afero.WriteFile(fs, path, append(header, out...), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func setNested(doc map[string]any, parts []string, value any) {
	if len(parts) == 1 {
		doc[parts[0]] = value
		return
	}
	child, ok := doc[parts[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		doc[parts[0]] = child
	}
	setNested(child, parts[1:], value)
}
