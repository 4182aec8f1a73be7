package sigh

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Runtime value representation:
//
//   Int, Float, Bool: int64, float64, bool
//   String:           string
//   null:             Null
//   arrays:           []any
//   matrices:         [][]any
//   structs:          map[string]any
//   functions:        the *FunDeclaration itself (or *SyntheticDeclaration)
//   constructors:     Constructor
//   types:            the *StructDeclaration
//   wildcard:         Symbolic

// NullValue is the runtime null; Null is its only value.
type NullValue struct{}

var Null = NullValue{}

// SymbolicValue is the runtime wildcard element bound to "_" inside a
// case statement; Symbolic is its only value.
type SymbolicValue struct{}

var Symbolic = SymbolicValue{}

// Constructor wraps a struct declaration used as a constructor value.
type Constructor struct {
	Decl *StructDeclaration
}

// ConvertToString renders a runtime value the way print does. The
// wildcard renders as "\f", which is also its in-band encoding inside
// pattern strings built by concatenation.
func ConvertToString(v any) string {
	switch val := v.(type) {
	case NullValue:
		return "null"
	case SymbolicValue:
		return "\f"
	case []any:
		return sliceString(val)
	case [][]any:
		parts := make([]string, len(val))
		for i, row := range val {
			parts[i] = sliceString(row)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *FunDeclaration:
		return val.Name
	case *StructDeclaration:
		return val.Name
	case *SyntheticDeclaration:
		return val.Name
	case Constructor:
		return "$" + val.Decl.Name
	case map[string]any:
		return structString(val)
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return floatString(val)
	case string:
		return val
	}
	return fmt.Sprintf("%v", v)
}

func sliceString(vs []any) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = ConvertToString(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func structString(fields map[string]any) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + ConvertToString(fields[name])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// floatString renders a float with at least one decimal, so that 2.0
// prints as "2.0" rather than "2".
func floatString(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !math.IsInf(v, 0) && !math.IsNaN(v) {
		s += ".0"
	}
	return s
}

// structuralEquals is the equality of primitive-typed values.
func structuralEquals(a, b any) bool {
	switch av := a.(type) {
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case NullValue:
		_, ok := b.(NullValue)
		return ok
	case SymbolicValue:
		_, ok := b.(SymbolicValue)
		return ok
	}
	return false
}

// referenceEquals is the equality of reference-typed values: identity
// for structs and arrays, value equality for strings and null (which
// have no usable identity in Go).
func referenceEquals(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case NullValue:
		_, ok := b.(NullValue)
		return ok
	case map[string]any:
		bv, ok := b.(map[string]any)
		return ok && reflect.ValueOf(av).Pointer() == reflect.ValueOf(bv).Pointer()
	case []any:
		bv, ok := b.([]any)
		return ok && len(av) == len(bv) && (len(av) == 0 || &av[0] == &bv[0])
	case [][]any:
		bv, ok := b.([][]any)
		return ok && len(av) == len(bv) && (len(av) == 0 || &av[0] == &bv[0])
	case *FunDeclaration:
		return a == b
	case *StructDeclaration:
		return a == b
	case *SyntheticDeclaration:
		return a == b
	case Constructor:
		bv, ok := b.(Constructor)
		return ok && av.Decl == bv.Decl
	}
	return false
}

// convertAssigned applies the numeric conversion on assignment: when
// the target's component type is Float, Int values (and Int elements of
// one- and two-dimensional arrays) convert to floats.
func convertAssigned(value any, target Type) any {
	if al, ok := target.(ArrayLike); ok && isFloat(al.ComponentType()) {
		switch arr := value.(type) {
		case [][]any:
			out := make([][]any, len(arr))
			for i, row := range arr {
				out[i] = floatRow(row)
			}
			return out
		case []any:
			return floatRow(arr)
		}
		return value
	}
	if iv, ok := value.(int64); ok && isFloat(target) {
		return float64(iv)
	}
	return value
}

func floatRow(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if iv, ok := v.(int64); ok {
			out[i] = float64(iv)
		} else {
			out[i] = v
		}
	}
	return out
}
