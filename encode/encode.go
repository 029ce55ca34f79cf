// Package encode turns pruned cwl document trees into JSON or YAML text.
package encode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/petal-labs/cwlforge/cwl"
)

// Format identifies an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates and canonicalizes a format name. "yml" is accepted.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("encode: unknown format %q (want json or yaml)", raw)
	}
}

// Options control encoding.
type Options struct {
	Format Format
	// Compact disables JSON indentation.
	Compact bool
}

// Descriptor prunes d and encodes it.
func Descriptor(d *cwl.Descriptor, opts Options) ([]byte, error) {
	return Tree(d.Document(), opts)
}

// Tree encodes a document tree. The tree is pruned first; pruning an
// already pruned tree is a no-op.
func Tree(doc *cwl.Map, opts Options) ([]byte, error) {
	doc = cwl.PruneMap(doc)
	switch opts.Format {
	case FormatJSON, "":
		return JSON(doc, !opts.Compact)
	case FormatYAML:
		return YAML(doc)
	default:
		return nil, fmt.Errorf("encode: unknown format %q", opts.Format)
	}
}

// JSON encodes doc with key order preserved and a trailing newline.
func JSON(doc *cwl.Map, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode: json: %w", err)
	}
	return buf.Bytes(), nil
}

// YAML encodes doc as JSON, then re-encodes the JSON as block-style YAML.
// Key order survives because yaml.Node keeps mapping order.
func YAML(doc *cwl.Map) ([]byte, error) {
	data, err := JSON(doc, false)
	if err != nil {
		return nil, err
	}
	return yamlFromJSON(data)
}

// Raw re-encodes an already encoded JSON document, such as a stored one, in
// the requested format. Key order is kept.
func Raw(data []byte, opts Options) ([]byte, error) {
	switch opts.Format {
	case FormatJSON, "":
		var buf bytes.Buffer
		var err error
		if opts.Compact {
			err = json.Compact(&buf, data)
		} else {
			err = json.Indent(&buf, data, "", "  ")
		}
		if err != nil {
			return nil, fmt.Errorf("encode: json: %w", err)
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	case FormatYAML:
		return yamlFromJSON(data)
	default:
		return nil, fmt.Errorf("encode: unknown format %q", opts.Format)
	}
}

func yamlFromJSON(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("encode: yaml: %w", err)
	}
	resetStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("encode: yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode: yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// resetStyle drops the JSON flow and quoting styles so the encoder picks YAML defaults.
func resetStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		resetStyle(c)
	}
}
