package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/ark/pkg/ark/config"
	"github.com/jamesainslie/ark/pkg/ark/logging"
)

// setFlag overrides a viper key for one test. Keys bound to cobra flags
// cannot be reset with viper.Reset without losing the binding, so the
// previous value is written back instead.
func setFlag(t *testing.T, key string, value any) {
	t.Helper()
	old := viper.Get(key)
	viper.Set(key, value)
	t.Cleanup(func() { viper.Set(key, old) })
}

// isolateHome points HOME and XDG_CONFIG_HOME at a temp dir and clears the
// loaded configuration.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	oldFile := cfgFile
	appConfig = nil
	t.Cleanup(func() {
		cfgFile = oldFile
		appConfig = nil
		_ = logging.Close()
	})
	return home
}

// writeConfigFile writes content to a config file under dir and selects it
// with --config.
func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "ark.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	cfgFile = path
	return path
}

// loadTestConfig loads content as an explicit config file.
func loadTestConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	home := isolateHome(t)
	writeConfigFile(t, home, content)
	cfg, err := config.LoadFile(cfgFile)
	require.NoError(t, err)
	return cfg
}
