package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// PolicyFile represents a loaded Rego policy file.
type PolicyFile struct {
	// Path is the path to the policy file.
	Path string `json:"path"`
	// Name is the base name of the file without extension.
	Name string `json:"name"`
	// Content is the raw Rego source code.
	Content string `json:"content"`
}

// Loader scans and loads .rego policy files from the configured directory.
// It uses an afero.Fs interface for filesystem operations, enabling
// easy testing with in-memory filesystems.
type Loader struct {
	fs      afero.Fs
	baseDir string
}

// NewLoader creates a new policy loader using the provided filesystem.
func NewLoader(fs afero.Fs, baseDir string) *Loader {
	return &Loader{
		fs:      fs,
		baseDir: baseDir,
	}
}

// LoadAll loads all .rego policy files below the configured directory,
// sorted by path. A missing directory yields no policies.
func (l *Loader) LoadAll() ([]*PolicyFile, error) {
	exists, err := afero.DirExists(l.fs, l.baseDir)
	if err != nil {
		return nil, fmt.Errorf("check policies directory: %w", err)
	}
	if !exists {
		return nil, nil
	}

	var policies []*PolicyFile
	err = afero.Walk(l.fs, l.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".rego") {
			return nil
		}
		content, err := afero.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("load policy %s: %w", path, err)
		}
		policies = append(policies, &PolicyFile{
			Path:    path,
			Name:    strings.TrimSuffix(filepath.Base(path), ".rego"),
			Content: string(content),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk policies directory: %w", err)
	}

	sort.Slice(policies, func(i, j int) bool { return policies[i].Path < policies[j].Path })
	return policies, nil
}
