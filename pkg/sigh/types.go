package sigh

import "fmt"

// Type is an inhabitant of the language's type universe.
//
// Equality is dispatched on the receiver: SymbolicType equals every
// type, and ArrayType/MatType recognize each other through the
// Array(Array(T)) == Mat(T) equivalence.
type Type interface {
	Name() string
	IsPrimitive() bool
	IsReference() bool
	IsArrayLike() bool
	Equals(other Type) bool
}

// ArrayLike is the shared capability of Array and Mat types.
type ArrayLike interface {
	Type
	ComponentType() Type
}

// ---------------------------------------------------------------------------
// Primitives

type IntType struct{}
type FloatType struct{}
type BoolType struct{}
type StringType struct{}
type VoidType struct{}
type NullType struct{}
type TypeType struct{}

var (
	IntT    = IntType{}
	FloatT  = FloatType{}
	BoolT   = BoolType{}
	StringT = StringType{}
	VoidT   = VoidType{}
	NullT   = NullType{}
	TypeT   = TypeType{}
)

func (IntType) Name() string    { return "Int" }
func (FloatType) Name() string  { return "Float" }
func (BoolType) Name() string   { return "Bool" }
func (StringType) Name() string { return "String" }
func (VoidType) Name() string   { return "Void" }
func (NullType) Name() string   { return "Null" }
func (TypeType) Name() string   { return "Type" }

func (IntType) IsPrimitive() bool    { return true }
func (FloatType) IsPrimitive() bool  { return true }
func (BoolType) IsPrimitive() bool   { return true }
func (StringType) IsPrimitive() bool { return false }
func (VoidType) IsPrimitive() bool   { return true }
func (NullType) IsPrimitive() bool   { return false }
func (TypeType) IsPrimitive() bool   { return false }

func (t IntType) IsReference() bool    { return false }
func (t FloatType) IsReference() bool  { return false }
func (t BoolType) IsReference() bool   { return false }
func (t StringType) IsReference() bool { return true }
func (t VoidType) IsReference() bool   { return false }
func (t NullType) IsReference() bool   { return true }
func (t TypeType) IsReference() bool   { return true }

func (IntType) IsArrayLike() bool    { return false }
func (FloatType) IsArrayLike() bool  { return false }
func (BoolType) IsArrayLike() bool   { return false }
func (StringType) IsArrayLike() bool { return false }
func (VoidType) IsArrayLike() bool   { return false }
func (NullType) IsArrayLike() bool   { return false }
func (TypeType) IsArrayLike() bool   { return false }

func (t IntType) Equals(o Type) bool    { _, ok := o.(IntType); return ok }
func (t FloatType) Equals(o Type) bool  { _, ok := o.(FloatType); return ok }
func (t BoolType) Equals(o Type) bool   { _, ok := o.(BoolType); return ok }
func (t StringType) Equals(o Type) bool { _, ok := o.(StringType); return ok }
func (t VoidType) Equals(o Type) bool   { _, ok := o.(VoidType); return ok }
func (t NullType) Equals(o Type) bool   { _, ok := o.(NullType); return ok }
func (t TypeType) Equals(o Type) bool   { _, ok := o.(TypeType); return ok }

// ---------------------------------------------------------------------------
// Array-like types

// ArrayType is an ordered sequence with component type Component.
type ArrayType struct {
	Component Type
}

func NewArrayType(component Type) ArrayType { return ArrayType{Component: component} }

func (t ArrayType) Name() string        { return t.Component.Name() + "[]" }
func (t ArrayType) IsPrimitive() bool   { return false }
func (t ArrayType) IsReference() bool   { return true }
func (t ArrayType) IsArrayLike() bool   { return true }
func (t ArrayType) ComponentType() Type { return t.Component }

// Equals treats Array(Array(T)) and Mat(T) as the same type, which is
// how matrices and two-dimensional arrays interoperate during typing.
func (t ArrayType) Equals(o Type) bool {
	switch other := o.(type) {
	case ArrayType:
		return t.Component.Equals(other.Component)
	case MatType:
		inner, ok := t.Component.(ArrayType)
		return ok && inner.Component.Equals(other.Component)
	}
	return false
}

// MatType is a two-dimensional matrix with a non-array-like component.
type MatType struct {
	Component Type
}

func NewMatType(component Type) MatType { return MatType{Component: component} }

func (t MatType) Name() string        { return "Mat#" + t.Component.Name() }
func (t MatType) IsPrimitive() bool   { return false }
func (t MatType) IsReference() bool   { return true }
func (t MatType) IsArrayLike() bool   { return true }
func (t MatType) ComponentType() Type { return t.Component }

func (t MatType) Equals(o Type) bool {
	switch other := o.(type) {
	case MatType:
		return t.Component.Equals(other.Component)
	case ArrayType:
		inner, ok := other.Component.(ArrayType)
		return ok && t.Component.Equals(inner.Component)
	}
	return false
}

// ---------------------------------------------------------------------------
// Struct, function, generic, symbolic

// StructType is the type of instances of a declared struct.
type StructType struct {
	Decl *StructDeclaration
}

func (t StructType) Name() string      { return t.Decl.Name }
func (t StructType) IsPrimitive() bool { return false }
func (t StructType) IsReference() bool { return true }
func (t StructType) IsArrayLike() bool { return false }
func (t StructType) Equals(o Type) bool {
	other, ok := o.(StructType)
	return ok && t.Decl == other.Decl
}

// FunType is a function signature.
type FunType struct {
	ReturnType Type
	ParamTypes []Type
}

func (t FunType) Name() string {
	params := ""
	for i, p := range t.ParamTypes {
		if i > 0 {
			params += ", "
		}
		params += p.Name()
	}
	return fmt.Sprintf("(%s) -> %s", params, t.ReturnType.Name())
}
func (t FunType) IsPrimitive() bool { return false }
func (t FunType) IsReference() bool { return true }
func (t FunType) IsArrayLike() bool { return false }
func (t FunType) Equals(o Type) bool {
	other, ok := o.(FunType)
	if !ok || len(t.ParamTypes) != len(other.ParamTypes) {
		return false
	}
	if !t.ReturnType.Equals(other.ReturnType) {
		return false
	}
	for i, p := range t.ParamTypes {
		if !p.Equals(other.ParamTypes[i]) {
			return false
		}
	}
	return true
}

// GenericType is a named type variable. Resolution is bound on first
// use during a call and must be reset at every call entry.
type GenericType struct {
	GenericName string
	Resolution  Type
}

// GenericUnknown is the sentinel for a generic that could not be
// resolved during typing.
var GenericUnknown = &GenericType{GenericName: "unknown"}

func NewGenericType(name string) *GenericType { return &GenericType{GenericName: name} }

func (t *GenericType) Name() string {
	if t.Resolution == nil {
		return fmt.Sprintf("%s (Generic)", t.GenericName)
	}
	return fmt.Sprintf("%s (%s)", t.GenericName, t.Resolution.Name())
}
func (t *GenericType) IsPrimitive() bool { return false }
func (t *GenericType) IsReference() bool { return true }
func (t *GenericType) IsArrayLike() bool { return false }

// Equals compares generics by name only.
func (t *GenericType) Equals(o Type) bool {
	other, ok := o.(*GenericType)
	return ok && t.GenericName == other.GenericName
}

// Solve binds the generic to res if it is still unbound, reporting
// whether the binding took place.
func (t *GenericType) Solve(res Type) bool {
	if t.Resolution == nil {
		t.Resolution = res
		return true
	}
	return false
}

// Reset clears the binding; called at the start of every call.
func (t *GenericType) Reset() { t.Resolution = nil }

// SymbolicType is the type of the wildcard element "_"; it equals every
// type so that wildcard patterns type-check against any subject.
type SymbolicType struct{}

var SymbolicT = SymbolicType{}

func (SymbolicType) Name() string       { return "Sym" }
func (SymbolicType) IsPrimitive() bool  { return true }
func (SymbolicType) IsReference() bool  { return false }
func (SymbolicType) IsArrayLike() bool  { return false }
func (SymbolicType) Equals(o Type) bool { return o != nil }

// ---------------------------------------------------------------------------
// Relations

// IsAssignableTo reports whether a value of type a can be assigned to a
// location of type b.
func IsAssignableTo(a, b Type) bool {
	if a == Type(GenericUnknown) || b == Type(GenericUnknown) {
		return true
	}
	if _, ok := a.(SymbolicType); ok {
		return true
	}
	if isVoid(a) || isVoid(b) {
		return false
	}

	if isInt(a) && isFloat(b) {
		return true
	}

	if at, ok := a.(ArrayType); ok {
		bt, ok := b.(ArrayType)
		return ok && IsAssignableTo(at.Component, bt.Component)
	}
	if at, ok := a.(MatType); ok {
		bt, ok := b.(MatType)
		return ok && IsAssignableTo(at.Component, bt.Component)
	}

	if _, ok := a.(NullType); ok && b.IsReference() {
		return true
	}
	return a.Equals(b)
}

// IsComparableTo reports whether == and != make sense between a and b.
func IsComparableTo(a, b Type) bool {
	if isVoid(a) || isVoid(b) {
		return false
	}
	if a.IsArrayLike() || b.IsArrayLike() {
		return false
	}
	return a.IsReference() && b.IsReference() ||
		a.Equals(b) ||
		isInt(a) && isFloat(b) ||
		isFloat(a) && isInt(b)
}

// IsArrayLikeComparableTo reports whether the element-wise operators
// make sense between a and b.
func IsArrayLikeComparableTo(a, b Type) bool {
	if isVoid(a) || isVoid(b) {
		return false
	}
	if a.IsArrayLike() && b.IsArrayLike() {
		ac, bc := a.(ArrayLike).ComponentType(), b.(ArrayLike).ComponentType()
		if !(isNumeric(ac) || isString(ac)) || !(isNumeric(bc) || isString(bc)) {
			return false
		}
		return IsComparableTo(ac, bc)
	}
	if a.IsArrayLike() || b.IsArrayLike() {
		return isInt(a) || isInt(b) ||
			isFloat(a) || isFloat(b) ||
			isString(a) || isString(b)
	}
	return false
}

// CommonSupertype returns the least common supertype of a and b, or nil
// if none exists.
func CommonSupertype(a, b Type) Type {
	if isVoid(a) || isVoid(b) {
		return nil
	}
	if IsAssignableTo(a, b) {
		return b
	}
	if IsAssignableTo(b, a) {
		return a
	}
	return nil
}

func isInt(t Type) bool    { _, ok := t.(IntType); return ok }
func isFloat(t Type) bool  { _, ok := t.(FloatType); return ok }
func isString(t Type) bool { _, ok := t.(StringType); return ok }
func isVoid(t Type) bool   { _, ok := t.(VoidType); return ok }
func isBool(t Type) bool   { _, ok := t.(BoolType); return ok }
func isNumeric(t Type) bool {
	return isInt(t) || isFloat(t)
}
