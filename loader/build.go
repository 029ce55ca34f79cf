package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/petal-labs/cwlforge/cwl"
)

// Build replays a recipe into a new descriptor. Recipe settings such as the
// engine override the options passed in. Errors name the offending recipe path.
func Build(r *Recipe, opts ...cwl.Option) (*cwl.Descriptor, error) {
	if r == nil {
		return nil, fmt.Errorf("recipe is nil")
	}

	opts = append([]cwl.Option{}, opts...)
	if r.Author != nil {
		opts = append(opts, cwl.WithAuthor(*r.Author))
	}
	if r.Version != nil {
		opts = append(opts, cwl.WithVersion(*r.Version))
	}
	if r.Description != nil {
		opts = append(opts, cwl.WithDescription(*r.Description))
	}
	if r.Engine != nil {
		opts = append(opts, cwl.WithEngine(r.Engine.ID, r.Engine.Image))
	}

	d, err := cwl.New(r.ID, r.Label, opts...)
	if err != nil {
		return nil, err
	}

	if r.BaseCommand != nil {
		text, err := commandText(r.BaseCommand)
		if err != nil {
			return nil, fmt.Errorf("baseCommand: %w", err)
		}
		if err := d.SetBaseCommand(text); err != nil {
			return nil, fmt.Errorf("baseCommand: %w", err)
		}
	}

	for i, in := range r.Inputs {
		if err := d.AddInputPort(in.params()); err != nil {
			return nil, fmt.Errorf("inputs[%d]: %w", i, err)
		}
	}
	for i, out := range r.Outputs {
		if err := d.AddOutputPort(out.params()); err != nil {
			return nil, fmt.Errorf("outputs[%d]: %w", i, err)
		}
	}
	for i, arg := range r.Arguments {
		if err := d.AddArgument(arg.params()); err != nil {
			return nil, fmt.Errorf("arguments[%d]: %w", i, err)
		}
	}

	if r.Docker != nil {
		if err := d.AddContainerHint(r.Docker.Pull, optOf(r.Docker.ImageID)); err != nil {
			return nil, fmt.Errorf("docker: %w", err)
		}
	}
	if r.Compute != nil {
		err := d.AddComputeHints(cwl.ComputeHints{
			CPU:      r.Compute.CPU,
			Memory:   r.Compute.Memory,
			Instance: r.Compute.Instance,
		})
		if err != nil {
			return nil, fmt.Errorf("compute: %w", err)
		}
	}

	if r.Stdin != nil {
		if err := d.SetStdin(r.Stdin); err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
	}
	if r.Stdout != nil {
		if err := d.SetStdout(r.Stdout); err != nil {
			return nil, fmt.Errorf("stdout: %w", err)
		}
	}

	d.AddSuccessCodes(r.SuccessCodes...)
	d.AddTemporaryFailCodes(r.TemporaryFailCodes...)

	for i, raw := range r.Requirements {
		req, err := requirementOf(raw)
		if err != nil {
			return nil, fmt.Errorf("requirements[%d]: %w", i, err)
		}
		if _, err := d.AddRequirement(req); err != nil {
			return nil, fmt.Errorf("requirements[%d]: %w", i, err)
		}
	}

	return d, nil
}

// LoadDescriptor reads a recipe file and builds its descriptor.
func LoadDescriptor(path string, opts ...cwl.Option) (*cwl.Descriptor, error) {
	r, err := Load(path)
	if err != nil {
		return nil, err
	}
	d, err := Build(r, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func (s InputSpec) params() cwl.InputParams {
	p := cwl.InputParams{
		ID:          s.ID,
		Type:        s.Type,
		Required:    boolOr(s.Required, true),
		Label:       optOf(s.Label),
		Description: optOf(s.Description),
		Prefix:      optOf(s.Prefix),
		Separate:    optOf(s.Separate),
		Position:    optOf(s.Position),
		CmdInclude:  optOf(s.CmdInclude),
	}
	if s.ValueFrom != nil {
		p.ValueFrom = cwl.Some(s.ValueFrom)
	}
	return p
}

func (s OutputSpec) params() cwl.OutputParams {
	p := cwl.OutputParams{
		ID:          s.ID,
		Type:        s.Type,
		Glob:        s.Glob,
		Required:    boolOr(s.Required, true),
		Label:       optOf(s.Label),
		Description: optOf(s.Description),
	}
	if s.FileTypes != nil {
		p.FileTypes = cwl.Some(s.FileTypes)
	}
	return p
}

func (s ArgumentSpec) params() cwl.ArgumentParams {
	return cwl.ArgumentParams{
		ValueFrom: s.ValueFrom,
		Prefix:    optOf(s.Prefix),
		Separate:  optOf(s.Separate),
		Position:  optOf(s.Position),
	}
}

// requirementOf turns a {class: ..., key: value} map into a capability.
// Attribute keys other than class are emitted in sorted order.
func requirementOf(raw map[string]any) (cwl.Capability, error) {
	class, _ := raw["class"].(string)
	if strings.TrimSpace(class) == "" {
		return cwl.Capability{}, fmt.Errorf("class is required")
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		if k != "class" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	c := cwl.Capability{Class: class}
	for _, k := range keys {
		c.Attrs = append(c.Attrs, cwl.Field{Key: k, Value: raw[k]})
	}
	return c, nil
}

// commandText accepts a command line string or a list of tokens.
func commandText(v any) (string, error) {
	switch c := v.(type) {
	case string:
		return c, nil
	case []any:
		tokens := make([]string, 0, len(c))
		for _, t := range c {
			s, ok := t.(string)
			if !ok {
				return "", fmt.Errorf("token %v is not a string", t)
			}
			tokens = append(tokens, s)
		}
		return strings.Join(tokens, " "), nil
	default:
		return "", fmt.Errorf("unsupported type %T", v)
	}
}

func optOf[T any](p *T) cwl.Opt[T] {
	if p == nil {
		return cwl.None[T]()
	}
	return cwl.Some(*p)
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
