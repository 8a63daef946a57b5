// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/tuimath/internal/model"
	"github.com/verte-zerg/tuimath/internal/store"
)

// Defaults applied when neither the config file nor flags set a value.
const (
	DefaultDurationSeconds = 120
	DefaultLogLevel        = "info"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Game    GameSection             `toml:"game"`
	Ranges  map[string]RangeSection `toml:"ranges"`
	Storage StorageSection          `toml:"storage"`
	Log     LogSection              `toml:"log"`
}

// GameSection maps session settings.
type GameSection struct {
	Duration    *int     `toml:"duration"`
	Operations  []string `toml:"operations"`
	ConfirmSkip *bool    `toml:"confirm-skip"`
}

// RangeSection holds the [min, max] bounds of both operands of one operation.
type RangeSection struct {
	Term1 []int `toml:"term1"`
	Term2 []int `toml:"term2"`
}

// StorageSection selects the persistence backend.
type StorageSection struct {
	Backend *string `toml:"backend"`
	Path    *string `toml:"path"`
}

// LogSection maps logging settings.
type LogSection struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// GameConfig merges the file's game settings over the defaults. The result
// is not validated; see quiz.ValidateConfig.
func (c FileConfig) GameConfig() (model.GameConfig, error) {
	cfg := model.GameConfig{
		DurationSeconds: DefaultDurationSeconds,
		Ranges:          model.DefaultOperationConfig(),
	}
	if c.Game.Duration != nil {
		cfg.DurationSeconds = *c.Game.Duration
	}
	if c.Game.ConfirmSkip != nil {
		cfg.ConfirmSkip = *c.Game.ConfirmSkip
	}
	for name, section := range c.Ranges {
		op, err := model.ParseOperation(name)
		if err != nil {
			return model.GameConfig{}, fmt.Errorf("invalid [ranges.%s]: %w", name, err)
		}
		ranges := cfg.Ranges[op]
		if section.Term1 != nil {
			if ranges.Term1, err = rangeFromPair(section.Term1); err != nil {
				return model.GameConfig{}, fmt.Errorf("invalid ranges.%s.term1: %w", name, err)
			}
		}
		if section.Term2 != nil {
			if ranges.Term2, err = rangeFromPair(section.Term2); err != nil {
				return model.GameConfig{}, fmt.Errorf("invalid ranges.%s.term2: %w", name, err)
			}
		}
		cfg.Ranges[op] = ranges
	}
	if c.Game.Operations != nil {
		ops, err := parseOperations(c.Game.Operations)
		if err != nil {
			return model.GameConfig{}, fmt.Errorf("invalid game.operations: %w", err)
		}
		cfg.Ranges = Restrict(cfg.Ranges, ops)
	}
	return cfg, nil
}

// ParseOperationList parses a comma-separated list such as "add,÷".
func ParseOperationList(s string) ([]model.Operation, error) {
	return parseOperations(strings.Split(s, ","))
}

func parseOperations(names []string) ([]model.Operation, error) {
	seen := map[model.Operation]bool{}
	var ops []model.Operation
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		op, err := model.ParseOperation(name)
		if err != nil {
			return nil, err
		}
		if !seen[op] {
			seen[op] = true
			ops = append(ops, op)
		}
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("no operations listed")
	}
	return ops, nil
}

// Restrict keeps only the listed operations of ranges.
func Restrict(ranges model.OperationConfig, ops []model.Operation) model.OperationConfig {
	out := model.OperationConfig{}
	for _, op := range ops {
		if r, ok := ranges[op]; ok {
			out[op] = r
		}
	}
	return out
}

func rangeFromPair(pair []int) (model.OperandRange, error) {
	if len(pair) != 2 {
		return model.OperandRange{}, fmt.Errorf("expected [min, max], got %d values", len(pair))
	}
	return model.OperandRange{Min: pair[0], Max: pair[1]}, nil
}

// StorageBackend returns the configured backend, or "" when unset.
func (c FileConfig) StorageBackend() (string, error) {
	if c.Storage.Backend == nil {
		return "", nil
	}
	backend := strings.ToLower(strings.TrimSpace(*c.Storage.Backend))
	if !store.ValidBackend(backend) {
		return "", fmt.Errorf("invalid storage.backend %q", *c.Storage.Backend)
	}
	return backend, nil
}

// DefaultStorePath returns the default file for a backend.
func DefaultStorePath(backend string) string {
	if strings.EqualFold(strings.TrimSpace(backend), store.BackendSQLite) {
		return DefaultDBPath()
	}
	return DefaultWorkbookPath()
}

// DefaultTemplate is written by `tuimath config` when no file exists.
func DefaultTemplate() string {
	defaults := model.DefaultOperationConfig()
	var b strings.Builder
	fmt.Fprintf(&b, `# tuimath configuration
# Uncomment a value to enable it. CLI flags override config values.

[game]
# duration = %d                 # Session length in seconds
# operations = ["add", "subtract", "multiply", "divide"]
# confirm-skip = false           # Ask once more before recording a wrong answer
`, DefaultDurationSeconds)
	for _, op := range model.AllOperations {
		r := defaults[op]
		fmt.Fprintf(&b, "\n# [ranges.%s]\n# term1 = [%d, %d]\n# term2 = [%d, %d]\n",
			op, r.Term1.Min, r.Term1.Max, r.Term2.Min, r.Term2.Max)
	}
	fmt.Fprintf(&b, `
[storage]
# backend = %q                 # xlsx or sqlite
# path = ""                      # Defaults to the XDG data directory

[log]
# level = %q                   # debug, info, warn or error
`, store.BackendXLSX, DefaultLogLevel)
	return b.String()
}
