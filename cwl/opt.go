package cwl

// Opt is a field that is either unset or holds a value. The zero value is unset.
// Fields left unset render as Unset in the document tree and are removed by Prune;
// a set zero value (false, 0, "") is kept.
type Opt[T any] struct {
	val T
	ok  bool
}

// Some returns a set Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{val: v, ok: true}
}

// None returns an unset Opt.
func None[T any]() Opt[T] {
	return Opt[T]{}
}

// Get returns the value and whether it was set.
func (o Opt[T]) Get() (T, bool) {
	return o.val, o.ok
}

// IsSet reports whether a value was set.
func (o Opt[T]) IsSet() bool {
	return o.ok
}

// OrElse returns the value if set, otherwise def.
func (o Opt[T]) OrElse(def T) T {
	if o.ok {
		return o.val
	}
	return def
}

// node returns the tree value for this field.
func (o Opt[T]) node() any {
	if !o.ok {
		return Unset
	}
	return o.val
}
