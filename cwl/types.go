package cwl

import (
	"fmt"
	"regexp"
	"strings"
)

// Primitive type names accepted by ParseType.
const (
	TypeNull    = "null"
	TypeBoolean = "boolean"
	TypeInt     = "int"
	TypeLong    = "long"
	TypeFloat   = "float"
	TypeDouble  = "double"
	TypeString  = "string"
	TypeFile    = "File"
)

var primitiveTypes = map[string]bool{
	TypeBoolean: true,
	TypeInt:     true,
	TypeLong:    true,
	TypeFloat:   true,
	TypeDouble:  true,
	TypeString:  true,
	TypeFile:    true,
}

// refTypePattern matches a reference to a schema defined elsewhere, e.g. "#Sample".
var refTypePattern = regexp.MustCompile(`^#[A-Za-z_][A-Za-z0-9_.-]*$`)

// ParseType parses a concrete type name. "T[]" becomes an array schema whose
// items are T; nesting is allowed ("File[][]").
func ParseType(raw string) (any, error) {
	t := strings.TrimSpace(raw)
	if t == "" {
		return nil, fmt.Errorf("%w: type is empty", ErrInvalidType)
	}
	if inner, ok := strings.CutSuffix(t, "[]"); ok {
		items, err := ParseType(inner)
		if err != nil {
			return nil, err
		}
		return NewMap(
			Field{Key: keyType, Value: "array"},
			Field{Key: keyItems, Value: items},
		), nil
	}
	if t == TypeNull {
		return nil, fmt.Errorf("%w: %q is not a concrete type", ErrInvalidType, raw)
	}
	if primitiveTypes[t] || refTypePattern.MatchString(t) {
		return t, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidType, raw)
}

// wrapType applies the optionality rule: [T] when required, ["null", T] otherwise.
func wrapType(raw string, required bool) (List, error) {
	t, err := ParseType(raw)
	if err != nil {
		return nil, err
	}
	if required {
		return List{t}, nil
	}
	return List{TypeNull, t}, nil
}
