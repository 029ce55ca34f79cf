package cwl

import "strings"

// InputParams are the caller-supplied fields of an input port.
type InputParams struct {
	ID          string
	Type        string
	Required    bool
	Label       Opt[string]
	Description Opt[string]
	// Prefix, when set, creates the input binding.
	Prefix Opt[string]
	// Separate defaults to true.
	Separate Opt[bool]
	Position Opt[int]
	// CmdInclude defaults to true.
	CmdInclude Opt[bool]
	// ValueFrom is classified; it may be a literal or an expression.
	ValueFrom Opt[any]
}

// OutputParams are the caller-supplied fields of an output port.
type OutputParams struct {
	ID          string
	Type        string
	Glob        any
	Required    bool
	Label       Opt[string]
	Description Opt[string]
	FileTypes   Opt[[]string]
}

// ArgumentParams are the caller-supplied fields of a command-line argument.
type ArgumentParams struct {
	ValueFrom any
	Prefix    Opt[string]
	// Separate defaults to false.
	Separate Opt[bool]
	// Position defaults to 0.
	Position Opt[int]
}

// InputBinding maps an input port onto command-line tokens.
type InputBinding struct {
	Prefix     string
	Separate   bool
	Position   Opt[int]
	CmdInclude bool
}

// InputPort is one input of the tool.
type InputPort struct {
	ID          string
	Type        List
	Required    bool
	Label       Opt[string]
	Description Opt[string]
	Binding     Opt[InputBinding]
	ValueFrom   Opt[any]
}

// OutputBinding describes how an output is collected.
type OutputBinding struct {
	Glob any
}

// OutputPort is one output of the tool.
type OutputPort struct {
	ID          string
	Type        List
	Required    bool
	Label       Opt[string]
	Description Opt[string]
	Binding     OutputBinding
	FileTypes   Opt[[]string]
}

// Argument is a command-line token not bound to a port.
type Argument struct {
	ValueFrom any
	Prefix    Opt[string]
	Separate  bool
	Position  int
}

// newInputPort builds an input port. The bool result reports whether a field was
// classified as an expression; registering the engine is left to the descriptor.
func newInputPort(p InputParams, c Classifier) (InputPort, bool, error) {
	const op = "AddInputPort"
	if strings.TrimSpace(p.ID) == "" {
		return InputPort{}, false, opError(op, "id", ErrEmptyID)
	}
	typ, err := wrapType(p.Type, p.Required)
	if err != nil {
		return InputPort{}, false, opError(op, "type", err)
	}
	port := InputPort{
		ID:          NormalizeID(p.ID),
		Type:        typ,
		Required:    p.Required,
		Label:       p.Label,
		Description: p.Description,
	}
	if prefix, ok := p.Prefix.Get(); ok {
		port.Binding = Some(InputBinding{
			Prefix:     prefix,
			Separate:   p.Separate.OrElse(true),
			Position:   p.Position,
			CmdInclude: p.CmdInclude.OrElse(true),
		})
	}
	dynamic := false
	if v, ok := p.ValueFrom.Get(); ok {
		if v == nil {
			return InputPort{}, false, opError(op, "valueFrom", ErrNilValue)
		}
		var val any
		val, dynamic = c.Classify(v)
		port.ValueFrom = Some(val)
	}
	return port, dynamic, nil
}

func newOutputPort(p OutputParams, c Classifier) (OutputPort, bool, error) {
	const op = "AddOutputPort"
	if strings.TrimSpace(p.ID) == "" {
		return OutputPort{}, false, opError(op, "id", ErrEmptyID)
	}
	if isBlank(p.Glob) {
		return OutputPort{}, false, opError(op, "glob", ErrMissingGlob)
	}
	typ, err := wrapType(p.Type, p.Required)
	if err != nil {
		return OutputPort{}, false, opError(op, "type", err)
	}
	glob, dynamic := c.Classify(p.Glob)
	port := OutputPort{
		ID:          NormalizeID(p.ID),
		Type:        typ,
		Required:    p.Required,
		Label:       p.Label,
		Description: p.Description,
		Binding:     OutputBinding{Glob: glob},
	}
	if ft, ok := p.FileTypes.Get(); ok {
		port.FileTypes = Some(append([]string{}, ft...))
	}
	return port, dynamic, nil
}

func newArgument(p ArgumentParams, c Classifier) (Argument, bool, error) {
	if p.ValueFrom == nil {
		return Argument{}, false, opError("AddArgument", "valueFrom", ErrNilValue)
	}
	val, dynamic := c.Classify(p.ValueFrom)
	return Argument{
		ValueFrom: val,
		Prefix:    p.Prefix,
		Separate:  p.Separate.OrElse(false),
		Position:  p.Position.OrElse(0),
	}, dynamic, nil
}

func (p InputPort) node() *Map {
	m := NewMap(
		Field{Key: keyID, Value: p.ID},
		Field{Key: keyType, Value: cloneNode(p.Type)},
		Field{Key: keyLabel, Value: p.Label.node()},
		Field{Key: keyDescription, Value: p.Description.node()},
	)
	if b, ok := p.Binding.Get(); ok {
		m.Set(keyInputBinding, b.node())
	} else {
		m.Set(keyInputBinding, Unset)
	}
	if v, ok := p.ValueFrom.Get(); ok {
		m.Set(keyValueFrom, valueNode(v))
	} else {
		m.Set(keyValueFrom, Unset)
	}
	return m
}

func (b InputBinding) node() *Map {
	return NewMap(
		Field{Key: keyPrefix, Value: b.Prefix},
		Field{Key: keySeparate, Value: b.Separate},
		Field{Key: keyPosition, Value: b.Position.node()},
		Field{Key: keyCmdInclude, Value: b.CmdInclude},
	)
}

func (p OutputPort) node() *Map {
	m := NewMap(
		Field{Key: keyID, Value: p.ID},
		Field{Key: keyType, Value: cloneNode(p.Type)},
		Field{Key: keyLabel, Value: p.Label.node()},
		Field{Key: keyDescription, Value: p.Description.node()},
		Field{Key: keyOutputBinding, Value: NewMap(Field{Key: keyGlob, Value: valueNode(p.Binding.Glob)})},
	)
	if ft, ok := p.FileTypes.Get(); ok {
		m.Set(keyFileTypes, append([]string{}, ft...))
	} else {
		m.Set(keyFileTypes, Unset)
	}
	return m
}

func (a Argument) node() *Map {
	return NewMap(
		Field{Key: keyValueFrom, Value: valueNode(a.ValueFrom)},
		Field{Key: keyPrefix, Value: a.Prefix.node()},
		Field{Key: keySeparate, Value: a.Separate},
		Field{Key: keyPosition, Value: a.Position},
	)
}

// valueNode renders a classified value.
func valueNode(v any) any {
	if e, ok := v.(Expression); ok {
		return e.node()
	}
	return v
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
