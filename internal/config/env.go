package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/verte-zerg/tuimath/internal/store"
)

// Environment variables that override config file values.
const (
	EnvStore     = "TUIMATH_STORE"
	EnvStorePath = "TUIMATH_STORE_PATH"
	EnvLogLevel  = "TUIMATH_LOG_LEVEL"
)

// LoadEnv loads the .env files that exist. Variables already present in the
// environment win over file values.
func LoadEnv(paths ...string) error {
	var existing []string
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to stat env file: %w", err)
		}
		existing = append(existing, path)
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Settings are the resolved storage and logging values.
type Settings struct {
	StoreBackend string
	StorePath    string
	LogLevel     string
}

// ResolveSettings layers defaults, the config file and the environment.
func ResolveSettings(fc FileConfig) (Settings, error) {
	s := Settings{StoreBackend: store.BackendXLSX, LogLevel: DefaultLogLevel}

	backend, err := fc.StorageBackend()
	if err != nil {
		return Settings{}, err
	}
	if backend != "" {
		s.StoreBackend = backend
	}
	if fc.Storage.Path != nil {
		s.StorePath = strings.TrimSpace(*fc.Storage.Path)
	}
	if fc.Log.Level != nil {
		s.LogLevel = strings.TrimSpace(*fc.Log.Level)
	}

	if v, ok := lookupEnv(EnvStore); ok {
		backend, err := FileConfig{Storage: StorageSection{Backend: &v}}.StorageBackend()
		if err != nil {
			return Settings{}, fmt.Errorf("%s: %w", EnvStore, err)
		}
		s.StoreBackend = backend
	}
	if v, ok := lookupEnv(EnvStorePath); ok {
		s.StorePath = v
	}
	if v, ok := lookupEnv(EnvLogLevel); ok {
		s.LogLevel = v
	}
	return s, nil
}

// ResolvedStorePath returns StorePath or the backend's default file.
func (s Settings) ResolvedStorePath() string {
	if s.StorePath != "" {
		return s.StorePath
	}
	return DefaultStorePath(s.StoreBackend)
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
