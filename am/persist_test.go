package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/ziwei/errors"
)

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)

	require.NoError(t, WriteDefault(path, false))
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	err = WriteDefault(path, false)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
	assert.NoFileExists(t, path+".back1")
}

func TestWriteDefaultForceRotatesBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	for _, content := range []string{"# one\n", "# two\n", "# three\n", "# four\n"} {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		require.NoError(t, WriteDefault(path, true))
	}

	read := func(p string) string {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		return string(data)
	}
	assert.Equal(t, "# four\n", read(path+".back1"))
	assert.Equal(t, "# three\n", read(path+".back2"))
	assert.Equal(t, "# two\n", read(path+".back3"))
	assert.NoFileExists(t, path+".back4")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultRulesPath, cfg.Rules.Path)
}

func TestMarshal(t *testing.T) {
	data, err := Marshal(DefaultConfig())
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "[rules]")
	assert.Contains(t, out, "ziwei_rules.json")
	assert.Contains(t, out, "show_details = false")
}
