// Package loader reads tool recipes in YAML, TOML or JSON and replays them
// into cwl descriptors.
package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// SourceFormat identifies the encoding of a recipe file.
type SourceFormat string

const (
	SourceJSON SourceFormat = "json"
	SourceYAML SourceFormat = "yaml"
	SourceTOML SourceFormat = "toml"
)

// DetectFormat picks the recipe encoding from the file extension:
// .yaml/.yml -> YAML, .toml -> TOML, anything else -> JSON.
func DetectFormat(path string) SourceFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return SourceYAML
	case ".toml":
		return SourceTOML
	default:
		return SourceJSON
	}
}

// toJSON converts recipe bytes to JSON. YAML and TOML are decoded into
// generic maps and re-marshaled, so a single set of json tags describes the
// recipe in every format.
func toJSON(data []byte, format SourceFormat) ([]byte, error) {
	switch format {
	case SourceYAML:
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
		return json.Marshal(raw)
	case SourceTOML:
		var raw map[string]any
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing TOML: %w", err)
		}
		return json.Marshal(raw)
	default:
		if !json.Valid(bytes.TrimSpace(data)) {
			var v any
			err := json.Unmarshal(data, &v)
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
		return data, nil
	}
}
