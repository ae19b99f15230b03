package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults When File Missing", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), DefaultFile))
		assert.Error(t, err, "an explicitly named file must exist")

		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(t.TempDir()))
		t.Cleanup(func() { _ = os.Chdir(wd) })

		cfg, err = Load("")
		require.NoError(t, err)
		assert.False(t, cfg.Recursive)
		assert.Equal(t, 0, cfg.RefactorAttempts)
		assert.Equal(t, []string{"black"}, cfg.Formatter)
	})

	t.Run("YAML File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pystrict.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`recursive: true
refactor_attempts: 3
custom_modules:
  - mypkg
  - tools
`), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.True(t, cfg.Recursive)
		assert.Equal(t, 3, cfg.RefactorAttempts)
		assert.Equal(t, []string{"mypkg", "tools"}, cfg.CustomModules)
		assert.Equal(t, []string{"black"}, cfg.Formatter, "unset keys keep their defaults")
	})

	t.Run("Environment Overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pystrict.yaml")
		require.NoError(t, os.WriteFile(path, []byte("custom_modules: [filebased]\n"), 0o644))

		t.Setenv("PYSTRICT_CUSTOM_MODULES", "alpha, beta")
		t.Setenv("PYSTRICT_FORMATTER", "ruff format")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "beta"}, cfg.CustomModules)
		assert.Equal(t, []string{"ruff", "format"}, cfg.Formatter)
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pystrict.yaml")
		require.NoError(t, os.WriteFile(path, []byte("refactor_attempts: [unclosed"), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.RefactorAttempts = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Autoformat = true
	cfg.Formatter = nil
	assert.Error(t, cfg.Validate())
}
