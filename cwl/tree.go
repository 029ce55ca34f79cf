package cwl

import (
	"bytes"
	"encoding/json"
	"errors"
)

// UnsetValue is the type of Unset.
type UnsetValue struct{}

// Unset marks a document field that was never set. It is distinct from nil,
// zero and empty values so that Prune removes only fields the caller never touched.
var Unset = UnsetValue{}

var errUnpruned = errors.New("cwl: document contains unset fields, prune before encoding")

// MarshalJSON refuses to encode an unset marker.
func (UnsetValue) MarshalJSON() ([]byte, error) {
	return nil, errUnpruned
}

// Field is one key/value pair of a Map.
type Field struct {
	Key   string
	Value any
}

// List is a sequence node of the document tree.
type List []any

// Map is an ordered record node of the document tree. Key order is emission order.
type Map struct {
	fields []Field
}

// NewMap returns a Map with the given fields, in order.
func NewMap(fields ...Field) *Map {
	m := &Map{fields: make([]Field, 0, len(fields))}
	for _, f := range fields {
		m.Set(f.Key, f.Value)
	}
	return m
}

// Set assigns key. A new key is appended; an existing key keeps its position.
func (m *Map) Set(key string, value any) *Map {
	for i := range m.fields {
		if m.fields[i].Key == key {
			m.fields[i].Value = value
			return m
		}
	}
	m.fields = append(m.fields, Field{Key: key, Value: value})
	return m
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	for _, f := range m.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present, including keys holding Unset.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.fields))
	for i, f := range m.fields {
		keys[i] = f.Key
	}
	return keys
}

// Fields returns a copy of the fields in order.
func (m *Map) Fields() []Field {
	if m == nil {
		return nil
	}
	out := make([]Field, len(m.fields))
	copy(out, m.fields)
	return out
}

// Len returns the number of fields.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.fields)
}

// MarshalJSON encodes the map as a JSON object preserving key order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalRaw(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalRaw(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalRaw encodes v without HTML escaping so scripts such as "a && b" stay readable.
func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// cloneNode deep-copies maps and lists, keeping Unset markers in place.
func cloneNode(v any) any {
	switch n := v.(type) {
	case *Map:
		if n == nil {
			return n
		}
		out := &Map{fields: make([]Field, len(n.fields))}
		for i, f := range n.fields {
			out.fields[i] = Field{Key: f.Key, Value: cloneNode(f.Value)}
		}
		return out
	case List:
		out := make(List, len(n))
		for i, item := range n {
			out[i] = cloneNode(item)
		}
		return out
	case []string:
		return append([]string{}, n...)
	case []int:
		return append([]int{}, n...)
	default:
		return v
	}
}
