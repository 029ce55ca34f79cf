package cwl

// Default scripting engine registered when a field is classified as an expression.
const (
	DefaultEngineID    = "#cwl-js-engine"
	DefaultEngineImage = "rabix/js-engine"
)

// Capability is a discriminated record {class, attributes...} used for both
// hints and requirements.
type Capability struct {
	Class string
	// Attrs follow class in the emitted record, in order.
	Attrs []Field
}

func (c Capability) node() *Map {
	m := NewMap(Field{Key: keyClass, Value: c.Class})
	for _, f := range c.Attrs {
		m.Set(f.Key, valueNode(cloneNode(f.Value)))
	}
	return m
}

// Attr returns the value of a named attribute.
func (c Capability) Attr(key string) (any, bool) {
	for _, f := range c.Attrs {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// ExpressionEngineRequirement declares the scripting engine with the container
// image that provides it.
func ExpressionEngineRequirement(engineID, image string) Capability {
	return Capability{
		Class: ClassExpressionEngineRequirement,
		Attrs: []Field{
			{Key: keyID, Value: engineID},
			{Key: keyRequirements, Value: List{
				DockerRequirement(image, None[string]()).node(),
			}},
		},
	}
}

// DockerRequirement declares a container image.
func DockerRequirement(image string, imageID Opt[string]) Capability {
	return Capability{
		Class: ClassDockerRequirement,
		Attrs: []Field{
			{Key: keyDockerPull, Value: image},
			{Key: keyDockerImageID, Value: imageID.node()},
		},
	}
}

// requirementRegistry holds requirements keyed by class. Registration is
// idempotent and the first registration of a class keeps its position.
type requirementRegistry struct {
	entries []Capability
	index   map[string]int
}

func newRequirementRegistry() requirementRegistry {
	return requirementRegistry{index: make(map[string]int)}
}

// ensure appends c unless its class is already registered. It reports whether c was added.
func (r *requirementRegistry) ensure(c Capability) bool {
	if _, ok := r.index[c.Class]; ok {
		return false
	}
	r.index[c.Class] = len(r.entries)
	r.entries = append(r.entries, c)
	return true
}

func (r *requirementRegistry) has(class string) bool {
	_, ok := r.index[class]
	return ok
}

func (r *requirementRegistry) list() []Capability {
	out := make([]Capability, len(r.entries))
	copy(out, r.entries)
	return out
}
