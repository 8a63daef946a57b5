package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuimath/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	game, err := cfg.GameConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultDurationSeconds, game.DurationSeconds)
	assert.Equal(t, model.DefaultOperationConfig(), game.Ranges)
	assert.False(t, game.ConfirmSkip)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	require.Error(t, err)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeFile(t, "config.toml", `
[game]
duration = 60
operations = ["add", "÷"]
confirm-skip = true

[ranges.divide]
term2 = [2, 9]

[ranges.add]
term1 = [10, 20]
term2 = [5, 6]

[storage]
backend = "SQLite"
path = "/tmp/results.db"

[log]
level = "debug"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	game, err := cfg.GameConfig()
	require.NoError(t, err)
	assert.Equal(t, 60, game.DurationSeconds)
	assert.True(t, game.ConfirmSkip)
	assert.Equal(t, []model.Operation{model.Add, model.Divide}, game.Ranges.Operations())
	assert.Equal(t, model.OperandRange{Min: 10, Max: 20}, game.Ranges[model.Add].Term1)
	assert.Equal(t, model.OperandRange{Min: 5, Max: 6}, game.Ranges[model.Add].Term2)
	assert.Equal(t, model.OperandRange{Min: 1, Max: 100}, game.Ranges[model.Divide].Term1)
	assert.Equal(t, model.OperandRange{Min: 2, Max: 9}, game.Ranges[model.Divide].Term2)

	backend, err := cfg.StorageBackend()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", backend)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "config.toml", "[game]\nduraton = 5\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game.duraton")
}

func TestGameConfigRejectsBadRanges(t *testing.T) {
	var cfg FileConfig
	_, err := toml.Decode("[ranges.add]\nterm1 = [1, 2, 3]\n", &cfg)
	require.NoError(t, err)
	_, err = cfg.GameConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ranges.add.term1")

	cfg = FileConfig{Ranges: map[string]RangeSection{"modulo": {Term1: []int{1, 2}}}}
	_, err = cfg.GameConfig()
	require.Error(t, err)
}

func TestGameConfigRejectsEmptyOperations(t *testing.T) {
	cfg := FileConfig{Game: GameSection{Operations: []string{}}}
	_, err := cfg.GameConfig()
	require.Error(t, err)
}

func TestParseOperationList(t *testing.T) {
	ops, err := ParseOperationList("mul, add,×")
	require.NoError(t, err)
	assert.Equal(t, []model.Operation{model.Multiply, model.Add}, ops)

	_, err = ParseOperationList("pow")
	require.Error(t, err)
	_, err = ParseOperationList(" , ")
	require.Error(t, err)
}

func TestStorageBackendInvalid(t *testing.T) {
	backend := "csv"
	cfg := FileConfig{Storage: StorageSection{Backend: &backend}}
	_, err := cfg.StorageBackend()
	require.Error(t, err)
}

func TestResolveSettingsLayers(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv(EnvStore, "")
	t.Setenv(EnvStorePath, "")
	t.Setenv(EnvLogLevel, "")

	s, err := ResolveSettings(FileConfig{})
	require.NoError(t, err)
	assert.Equal(t, "xlsx", s.StoreBackend)
	assert.Equal(t, DefaultLogLevel, s.LogLevel)
	assert.Equal(t, filepath.Join("/data", "tuimath", "arithmetic_game_results.xlsx"), s.ResolvedStorePath())

	backend := "sqlite"
	level := "warn"
	fc := FileConfig{Storage: StorageSection{Backend: &backend}, Log: LogSection{Level: &level}}
	s, err = ResolveSettings(fc)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", s.StoreBackend)
	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, filepath.Join("/data", "tuimath", "tuimath.db"), s.ResolvedStorePath())

	t.Setenv(EnvStore, "xlsx")
	t.Setenv(EnvStorePath, "/elsewhere/r.xlsx")
	t.Setenv(EnvLogLevel, "error")
	s, err = ResolveSettings(fc)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", s.StoreBackend)
	assert.Equal(t, "/elsewhere/r.xlsx", s.ResolvedStorePath())
	assert.Equal(t, "error", s.LogLevel)

	t.Setenv(EnvStore, "csv")
	_, err = ResolveSettings(fc)
	require.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	path := writeFile(t, ".env", "TUIMATH_LOG_LEVEL=debug\nTUIMATH_STORE_PATH=/from/file.xlsx\n")
	t.Setenv(EnvLogLevel, "")
	require.NoError(t, os.Unsetenv(EnvLogLevel))
	t.Setenv(EnvStorePath, "/already/set.xlsx")

	require.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env"), "", path))
	assert.Equal(t, "debug", os.Getenv(EnvLogLevel))
	assert.Equal(t, "/already/set.xlsx", os.Getenv(EnvStorePath))
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")

	assert.Equal(t, filepath.Join("/cfg", "tuimath", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/cfg", "tuimath", ".env"), DefaultEnvPath())
	assert.Equal(t, filepath.Join("/data", "tuimath", "tuimath.db"), DefaultDBPath())
	assert.Equal(t, filepath.Join("/state", "tuimath", "tuimath.log"), DefaultLogPath())
}

func TestDefaultTemplateDecodes(t *testing.T) {
	var cfg FileConfig
	meta, err := toml.Decode(DefaultTemplate(), &cfg)
	require.NoError(t, err)
	assert.Empty(t, meta.Undecoded())

	game, err := cfg.GameConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultDurationSeconds, game.DurationSeconds)
	assert.Contains(t, DefaultTemplate(), "[ranges.multiply]")
}
