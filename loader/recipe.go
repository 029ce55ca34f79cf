package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Recipe declares one tool descriptor. Fields map one-to-one onto the cwl
// builder operations.
type Recipe struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Author      *string `json:"author,omitempty"`
	Version     *string `json:"version,omitempty"`
	Description *string `json:"description,omitempty"`

	// BaseCommand is a command line string or a list of tokens.
	BaseCommand any `json:"baseCommand,omitempty"`
	Stdin       any `json:"stdin,omitempty"`
	Stdout      any `json:"stdout,omitempty"`

	Engine  *EngineSpec  `json:"engine,omitempty"`
	Docker  *DockerSpec  `json:"docker,omitempty"`
	Compute *ComputeSpec `json:"compute,omitempty"`

	Inputs       []InputSpec      `json:"inputs,omitempty"`
	Outputs      []OutputSpec     `json:"outputs,omitempty"`
	Arguments    []ArgumentSpec   `json:"arguments,omitempty"`
	Requirements []map[string]any `json:"requirements,omitempty"`

	SuccessCodes       []int `json:"successCodes,omitempty"`
	TemporaryFailCodes []int `json:"temporaryFailCodes,omitempty"`
}

// EngineSpec overrides the scripting engine declared for expressions.
type EngineSpec struct {
	ID    string `json:"id"`
	Image string `json:"image"`
}

// DockerSpec adds a container hint.
type DockerSpec struct {
	Pull    string  `json:"pull"`
	ImageID *string `json:"imageId,omitempty"`
}

// ComputeSpec adds sizing hints. Missing cpu and mem take the builder defaults.
type ComputeSpec struct {
	CPU      any    `json:"cpu,omitempty"`
	Memory   any    `json:"mem,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// InputSpec declares an input port. Required defaults to true.
type InputSpec struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Required    *bool   `json:"required,omitempty"`
	Label       *string `json:"label,omitempty"`
	Description *string `json:"description,omitempty"`
	Prefix      *string `json:"prefix,omitempty"`
	Separate    *bool   `json:"separate,omitempty"`
	Position    *int    `json:"position,omitempty"`
	CmdInclude  *bool   `json:"cmdInclude,omitempty"`
	ValueFrom   any     `json:"valueFrom,omitempty"`
}

// OutputSpec declares an output port. Required defaults to true.
type OutputSpec struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Glob        any      `json:"glob"`
	Required    *bool    `json:"required,omitempty"`
	Label       *string  `json:"label,omitempty"`
	Description *string  `json:"description,omitempty"`
	FileTypes   []string `json:"fileTypes,omitempty"`
}

// ArgumentSpec declares a command-line argument.
type ArgumentSpec struct {
	ValueFrom any     `json:"valueFrom"`
	Prefix    *string `json:"prefix,omitempty"`
	Separate  *bool   `json:"separate,omitempty"`
	Position  *int    `json:"position,omitempty"`
}

// Parse decodes recipe bytes; the format comes from the path extension. Keys
// must match the recipe field names exactly, including case.
func Parse(data []byte, path string) (*Recipe, error) {
	jsonData, err := toJSON(data, DetectFormat(path))
	if err != nil {
		return nil, err
	}

	var raw any
	if err := json.Unmarshal(jsonData, &raw); err != nil {
		return nil, fmt.Errorf("decoding recipe: %w", err)
	}
	if err := checkKeys(raw, recipeType, ""); err != nil {
		return nil, fmt.Errorf("decoding recipe: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	var r Recipe
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding recipe: %w", err)
	}
	return &r, nil
}

// Load reads and decodes a recipe file.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path from caller
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return Parse(data, path)
}
