package policy

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_LoadAll(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/p/b.rego", []byte("package b"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/p/a.rego", []byte("package a"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/p/nested/c.rego", []byte("package c"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/p/README.md", []byte("# policies"), 0o644))

	policies, err := NewLoader(fs, "/p").LoadAll()
	require.NoError(t, err)
	require.Len(t, policies, 3)

	assert.Equal(t, "a", policies[0].Name)
	assert.Equal(t, "package a", policies[0].Content)
	assert.Equal(t, "b", policies[1].Name)
	assert.Equal(t, "c", policies[2].Name)
}

func TestLoader_MissingDir(t *testing.T) {
	policies, err := NewLoader(afero.NewMemMapFs(), "/nowhere").LoadAll()
	require.NoError(t, err)
	assert.Nil(t, policies)
}
