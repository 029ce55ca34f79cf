package cwl

import (
	"fmt"
	"strings"
)

// expressionMarkers trigger classification as a dynamic expression: string
// quoting and the engine sigil. A period triggers it only as member access.
const expressionMarkers = `'$`

// Expression is a value evaluated by the scripting engine at execution time.
type Expression struct {
	// Engine references the ExpressionEngineRequirement id.
	Engine string
	// Script is the original value, string or number.
	Script any
}

func (e Expression) node() *Map {
	return NewMap(
		Field{Key: keyClass, Value: ClassExpression},
		Field{Key: keyEngine, Value: e.Engine},
		Field{Key: keyScript, Value: e.Script},
	)
}

// IsDynamic reports whether the textual form of v contains a quote, a '$' or a
// member access such as "inputs.size". A period between an operand and a name
// counts; one in "*.txt" or "0.5" does not.
func IsDynamic(v any) bool {
	text := fmt.Sprint(v)
	if strings.ContainsAny(text, expressionMarkers) {
		return true
	}
	for i := 1; i+1 < len(text); i++ {
		if text[i] == '.' && isOperandEnd(text[i-1]) && isNameStart(text[i+1]) {
			return true
		}
	}
	return false
}

func isNameStart(c byte) bool {
	return c == '_' || c == '$' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isOperandEnd(c byte) bool {
	return isNameStart(c) || ('0' <= c && c <= '9') || c == ')' || c == ']'
}

// Classifier decides literal versus expression for scalar field values.
type Classifier struct {
	Engine string
}

// Classify returns an Expression for dynamic values and v unchanged otherwise.
// The second result reports whether v was dynamic.
// An Expression passed in keeps its script and is bound to the classifier's
// engine, so every expression references the one registered requirement.
func (c Classifier) Classify(v any) (any, bool) {
	if e, ok := v.(Expression); ok {
		e.Engine = c.Engine
		return e, true
	}
	if !IsDynamic(v) {
		return v, false
	}
	return Expression{Engine: c.Engine, Script: v}, true
}

// ExpressionRef locates one classified expression in a descriptor.
type ExpressionRef struct {
	// Path is the document path, e.g. "outputs[0].outputBinding.glob".
	Path       string
	Expression Expression
}
