package cwl

import "slices"

// Prune returns a copy of the tree with every Unset field removed, recursively
// through maps and lists. Set values are kept even when they are false, zero or
// empty. The input is never modified, and Prune(Prune(t)) equals Prune(t).
func Prune(v any) any {
	switch n := v.(type) {
	case *Map:
		return pruneMap(n)
	case List:
		out := make(List, 0, len(n))
		for _, item := range n {
			if _, unset := item.(UnsetValue); unset {
				continue
			}
			out = append(out, Prune(item))
		}
		return out
	case []string:
		return slices.Clone(n)
	case []int:
		return slices.Clone(n)
	default:
		return v
	}
}

// PruneMap is Prune for a document root.
func PruneMap(m *Map) *Map {
	return pruneMap(m)
}

func pruneMap(m *Map) *Map {
	if m == nil {
		return nil
	}
	out := &Map{fields: make([]Field, 0, len(m.fields))}
	for _, f := range m.fields {
		if _, unset := f.Value.(UnsetValue); unset {
			continue
		}
		out.fields = append(out.fields, Field{Key: f.Key, Value: Prune(f.Value)})
	}
	return out
}
