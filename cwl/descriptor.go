package cwl

import (
	"fmt"
	"strings"
)

// DefaultVersion is the format version tag of new descriptors.
const DefaultVersion = "cwl:draft-2"

// Option configures a Descriptor at construction.
type Option func(*Descriptor)

// WithAuthor sets the author.
func WithAuthor(author string) Option {
	return func(d *Descriptor) { d.author = Some(author) }
}

// WithVersion overrides DefaultVersion.
func WithVersion(version string) Option {
	return func(d *Descriptor) { d.version = Some(version) }
}

// WithDescription sets the description.
func WithDescription(desc string) Option {
	return func(d *Descriptor) { d.description = Some(desc) }
}

// WithEngine sets the scripting engine id and the container image providing it.
// Empty arguments keep the defaults.
func WithEngine(id, image string) Option {
	return func(d *Descriptor) {
		if id != "" {
			d.engineID = id
		}
		if image != "" {
			d.engineImage = image
		}
	}
}

// Descriptor is a command-line tool document under construction. It is
// append-only: operations add ports, arguments and hints but never remove them.
// A Descriptor is not safe for concurrent use.
type Descriptor struct {
	id          string
	label       string
	author      Opt[string]
	version     Opt[string]
	description Opt[string]
	class       string

	baseCommand Opt[[]string]
	inputs      []InputPort
	outputs     []OutputPort
	arguments   []Argument
	stdin       Opt[any]
	stdout      Opt[any]

	hints              []Capability
	requirements       requirementRegistry
	successCodes       []int
	temporaryFailCodes []int

	engineID    string
	engineImage string
	exprs       []ExpressionRef
}

// New creates a descriptor with identity and metadata.
func New(id, label string, opts ...Option) (*Descriptor, error) {
	if strings.TrimSpace(id) == "" {
		return nil, opError("New", "id", ErrEmptyID)
	}
	d := &Descriptor{
		id:                 id,
		label:              label,
		version:            Some(DefaultVersion),
		class:              ClassCommandLineTool,
		inputs:             []InputPort{},
		outputs:            []OutputPort{},
		arguments:          []Argument{},
		hints:              []Capability{},
		requirements:       newRequirementRegistry(),
		successCodes:       []int{},
		temporaryFailCodes: []int{},
		engineID:           DefaultEngineID,
		engineImage:        DefaultEngineImage,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Descriptor) classifier() Classifier {
	return Classifier{Engine: d.engineID}
}

// registerExpression records an expression found at path, registering the
// engine requirement first.
func (d *Descriptor) registerExpression(path string, v any) {
	e, ok := v.(Expression)
	if !ok {
		return
	}
	d.requirements.ensure(ExpressionEngineRequirement(d.engineID, d.engineImage))
	d.exprs = append(d.exprs, ExpressionRef{Path: path, Expression: e})
}

// SetBaseCommand splits text on whitespace and replaces the base command.
func (d *Descriptor) SetBaseCommand(text string) error {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return opError("SetBaseCommand", "", ErrEmptyBaseCommand)
	}
	d.baseCommand = Some(tokens)
	return nil
}

// AddInputPort appends an input port.
func (d *Descriptor) AddInputPort(p InputParams) error {
	port, dynamic, err := newInputPort(p, d.classifier())
	if err != nil {
		return err
	}
	if d.hasPort(port.ID) {
		return opError("AddInputPort", "id", fmt.Errorf("%w: %s", ErrDuplicatePort, port.ID))
	}
	if dynamic {
		v, _ := port.ValueFrom.Get()
		d.registerExpression(fmt.Sprintf("%s[%d].%s", keyInputs, len(d.inputs), keyValueFrom), v)
	}
	d.inputs = append(d.inputs, port)
	return nil
}

// AddOutputPort appends an output port.
func (d *Descriptor) AddOutputPort(p OutputParams) error {
	port, dynamic, err := newOutputPort(p, d.classifier())
	if err != nil {
		return err
	}
	if d.hasPort(port.ID) {
		return opError("AddOutputPort", "id", fmt.Errorf("%w: %s", ErrDuplicatePort, port.ID))
	}
	if dynamic {
		d.registerExpression(fmt.Sprintf("%s[%d].%s.%s", keyOutputs, len(d.outputs), keyOutputBinding, keyGlob), port.Binding.Glob)
	}
	d.outputs = append(d.outputs, port)
	return nil
}

// AddArgument appends a command-line argument.
func (d *Descriptor) AddArgument(p ArgumentParams) error {
	arg, dynamic, err := newArgument(p, d.classifier())
	if err != nil {
		return err
	}
	if dynamic {
		d.registerExpression(fmt.Sprintf("%s[%d].%s", keyArguments, len(d.arguments), keyValueFrom), arg.ValueFrom)
	}
	d.arguments = append(d.arguments, arg)
	return nil
}

// AddContainerHint appends a DockerRequirement hint.
func (d *Descriptor) AddContainerHint(image string, imageID Opt[string]) error {
	if strings.TrimSpace(image) == "" {
		return opError("AddContainerHint", "image", ErrEmptyImage)
	}
	d.hints = append(d.hints, DockerRequirement(image, imageID))
	return nil
}

// AddCPUHint appends a CPU sizing hint. The value may be an expression.
func (d *Descriptor) AddCPUHint(value any) error {
	return d.addValueHint("AddCPUHint", ClassCPURequirement, value)
}

// AddMemoryHint appends a memory sizing hint. The value may be an expression.
func (d *Descriptor) AddMemoryHint(value any) error {
	return d.addValueHint("AddMemoryHint", ClassMemRequirement, value)
}

func (d *Descriptor) addValueHint(op, class string, value any) error {
	if value == nil {
		return opError(op, "value", ErrNilValue)
	}
	val, dynamic := d.classifier().Classify(value)
	if dynamic {
		d.registerExpression(fmt.Sprintf("%s[%d].%s", keyHints, len(d.hints), keyValue), val)
	}
	d.hints = append(d.hints, Capability{
		Class: class,
		Attrs: []Field{{Key: keyValue, Value: val}},
	})
	return nil
}

// AddInstanceHint appends an instance-type hint. The value is never classified.
func (d *Descriptor) AddInstanceHint(value string) error {
	if strings.TrimSpace(value) == "" {
		return opError("AddInstanceHint", "value", ErrNilValue)
	}
	d.hints = append(d.hints, Capability{
		Class: ClassAWSInstanceType,
		Attrs: []Field{{Key: keyValue, Value: value}},
	})
	return nil
}

// ComputeHints groups the sizing hints. Nil CPU and Memory take the defaults.
type ComputeHints struct {
	CPU      any
	Memory   any
	Instance string
}

// Default sizing used by AddComputeHints.
const (
	DefaultCPU    = 1
	DefaultMemory = 1000
)

// AddComputeHints appends CPU and memory hints, and an instance hint when one is given.
func (d *Descriptor) AddComputeHints(h ComputeHints) error {
	cpu, mem := h.CPU, h.Memory
	if cpu == nil {
		cpu = DefaultCPU
	}
	if mem == nil {
		mem = DefaultMemory
	}
	// Validate everything before the first append.
	if h.Instance != "" && strings.TrimSpace(h.Instance) == "" {
		return opError("AddComputeHints", "instance", ErrNilValue)
	}
	if err := d.AddCPUHint(cpu); err != nil {
		return err
	}
	if err := d.AddMemoryHint(mem); err != nil {
		return err
	}
	if h.Instance != "" {
		return d.AddInstanceHint(h.Instance)
	}
	return nil
}

// SetStdin sets the file streamed to standard input. The value may be an expression.
func (d *Descriptor) SetStdin(value any) error {
	val, err := d.streamValue("SetStdin", keyStdin, value)
	if err != nil {
		return err
	}
	d.stdin = Some(val)
	return nil
}

// SetStdout sets the file capturing standard output. The value may be an expression.
func (d *Descriptor) SetStdout(value any) error {
	val, err := d.streamValue("SetStdout", keyStdout, value)
	if err != nil {
		return err
	}
	d.stdout = Some(val)
	return nil
}

func (d *Descriptor) streamValue(op, key string, value any) (any, error) {
	if isBlank(value) {
		return nil, opError(op, "value", ErrNilValue)
	}
	val, dynamic := d.classifier().Classify(value)
	if dynamic {
		d.registerExpression(key, val)
	}
	return val, nil
}

// AddSuccessCodes appends exit codes treated as success.
func (d *Descriptor) AddSuccessCodes(codes ...int) {
	d.successCodes = append(d.successCodes, codes...)
}

// AddTemporaryFailCodes appends exit codes treated as temporary failure.
func (d *Descriptor) AddTemporaryFailCodes(codes ...int) {
	d.temporaryFailCodes = append(d.temporaryFailCodes, codes...)
}

// AddRequirement registers a requirement unless one with the same class exists.
// It reports whether the requirement was added. An ExpressionEngineRequirement
// must carry the descriptor's engine id.
func (d *Descriptor) AddRequirement(c Capability) (bool, error) {
	if c.Class == ClassExpressionEngineRequirement {
		if id, _ := c.Attr(keyID); id != d.engineID {
			return false, opError("AddRequirement", "id", fmt.Errorf("%w: %v, want %s", ErrEngineMismatch, id, d.engineID))
		}
	}
	return d.requirements.ensure(c), nil
}

func (d *Descriptor) hasPort(id string) bool {
	for _, p := range d.inputs {
		if p.ID == id {
			return true
		}
	}
	for _, p := range d.outputs {
		if p.ID == id {
			return true
		}
	}
	return false
}

// ID returns the descriptor identifier.
func (d *Descriptor) ID() string { return d.id }

// Label returns the descriptor label.
func (d *Descriptor) Label() string { return d.label }

// Version returns the format version tag.
func (d *Descriptor) Version() string { return d.version.OrElse("") }

// EngineID returns the scripting engine referenced by expressions.
func (d *Descriptor) EngineID() string { return d.engineID }

// BaseCommand returns the base command tokens, or nil if never set.
func (d *Descriptor) BaseCommand() []string {
	tokens, _ := d.baseCommand.Get()
	return append([]string(nil), tokens...)
}

// Inputs returns the input ports in order.
func (d *Descriptor) Inputs() []InputPort { return append([]InputPort{}, d.inputs...) }

// Outputs returns the output ports in order.
func (d *Descriptor) Outputs() []OutputPort { return append([]OutputPort{}, d.outputs...) }

// Arguments returns the arguments in order.
func (d *Descriptor) Arguments() []Argument { return append([]Argument{}, d.arguments...) }

// Hints returns the hints in order.
func (d *Descriptor) Hints() []Capability { return append([]Capability{}, d.hints...) }

// Requirements returns the requirements in registration order.
func (d *Descriptor) Requirements() []Capability { return d.requirements.list() }

// HasRequirement reports whether a requirement of the given class is registered.
func (d *Descriptor) HasRequirement(class string) bool { return d.requirements.has(class) }

// Stdin returns the stdin value, possibly an Expression.
func (d *Descriptor) Stdin() Opt[any] { return d.stdin }

// Stdout returns the stdout value, possibly an Expression.
func (d *Descriptor) Stdout() Opt[any] { return d.stdout }

// Expressions returns every classified expression with its document path, in
// the order the fields were added.
func (d *Descriptor) Expressions() []ExpressionRef {
	return append([]ExpressionRef{}, d.exprs...)
}

// Tree renders the descriptor as a document tree. Fields never set hold Unset.
// The tree is a copy; changing it does not affect the descriptor.
func (d *Descriptor) Tree() *Map {
	inputs := make(List, len(d.inputs))
	for i, p := range d.inputs {
		inputs[i] = p.node()
	}
	outputs := make(List, len(d.outputs))
	for i, p := range d.outputs {
		outputs[i] = p.node()
	}
	args := make(List, len(d.arguments))
	for i, a := range d.arguments {
		args[i] = a.node()
	}
	reqs := d.requirements.list()
	requirements := make(List, len(reqs))
	for i, r := range reqs {
		requirements[i] = r.node()
	}
	hints := make(List, len(d.hints))
	for i, h := range d.hints {
		hints[i] = h.node()
	}

	var baseCommand any = Unset
	if tokens, ok := d.baseCommand.Get(); ok {
		baseCommand = append([]string{}, tokens...)
	}

	return NewMap(
		Field{Key: keyID, Value: d.id},
		Field{Key: keyAuthor, Value: d.author.node()},
		Field{Key: keyVersion, Value: d.version.node()},
		Field{Key: keyDescription, Value: d.description.node()},
		Field{Key: keyLabel, Value: d.label},
		Field{Key: keyClass, Value: d.class},
		Field{Key: keyInputs, Value: inputs},
		Field{Key: keyOutputs, Value: outputs},
		Field{Key: keyArguments, Value: args},
		Field{Key: keyStdout, Value: streamNode(d.stdout)},
		Field{Key: keyStdin, Value: streamNode(d.stdin)},
		Field{Key: keyBaseCommand, Value: baseCommand},
		Field{Key: keyRequirements, Value: requirements},
		Field{Key: keySuccessCodes, Value: append([]int{}, d.successCodes...)},
		Field{Key: keyTemporaryFailCodes, Value: append([]int{}, d.temporaryFailCodes...)},
		Field{Key: keyHints, Value: hints},
	)
}

// Document returns the pruned document tree, ready for encoding.
func (d *Descriptor) Document() *Map {
	return PruneMap(d.Tree())
}

func streamNode(o Opt[any]) any {
	v, ok := o.Get()
	if !ok {
		return Unset
	}
	return valueNode(v)
}
