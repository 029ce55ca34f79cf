// Package config loads cwlforge settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/petal-labs/cwlforge/cwl"
	"github.com/petal-labs/cwlforge/encode"
	"github.com/petal-labs/cwlforge/store"
)

const defaultConfigFile = "config.toml"

// Config holds cwlforge settings.
type Config struct {
	// Format is the default output format: "json" or "yaml".
	// Default: "json"
	Format string `toml:"format,omitempty"`

	// Store selects the descriptor store backend: "file" or "sqlite".
	// Default: "file"
	Store string `toml:"store,omitempty"`

	// StorePath overrides the store location. Empty uses ~/.cwlforge/.
	StorePath string `toml:"store_path,omitempty"`

	// OTLPEndpoint is an OTLP/HTTP collector URL for build traces.
	// Empty disables export.
	OTLPEndpoint string `toml:"otlp_endpoint,omitempty"`

	// Engine is the scripting engine declared for expressions.
	Engine Engine `toml:"engine"`
}

// Engine configures the expression engine requirement.
type Engine struct {
	ID    string `toml:"id,omitempty"`
	Image string `toml:"image,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Format: string(encode.FormatJSON),
		Store:  string(store.KindFile),
		Engine: Engine{
			ID:    cwl.DefaultEngineID,
			Image: cwl.DefaultEngineImage,
		},
	}
}

// DefaultPath returns ~/.cwlforge/config.toml.
func DefaultPath() (string, error) {
	dir, err := store.DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, defaultConfigFile), nil
}

// Load reads the config file at path over the defaults. A missing file yields
// the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config: %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if _, err := encode.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}
	switch store.Kind(c.Store) {
	case store.KindFile, store.KindSQLite:
	default:
		return fmt.Errorf("invalid store %q (want file or sqlite)", c.Store)
	}
	if strings.TrimSpace(c.Engine.ID) == "" {
		return errors.New("engine id is required")
	}
	if strings.TrimSpace(c.Engine.Image) == "" {
		return errors.New("engine image is required")
	}
	return nil
}

// DescriptorOptions returns the builder options implied by the config.
func (c *Config) DescriptorOptions() []cwl.Option {
	return []cwl.Option{cwl.WithEngine(c.Engine.ID, c.Engine.Image)}
}
