package sigh

import (
	"math"
)

// Arithmetic, comparison, broadcasting and element-wise dispatch.
//
// Operands classify as numeric-only, array-like-only or mixed based on
// their static types (with generics unwrapped to their per-call
// resolution). Element-wise operations normalize both sides to
// two-dimensional form, which is why a one-dimensional array combined
// with a scalar produces a matrix.

func (i *Interpreter) binaryExpression(node *BinaryExpression) (any, error) {
	// both operands must not be evaluated for the short-circuit operators
	switch node.Operator {
	case OpAnd:
		return i.booleanOp(node, true)
	case OpOr:
		return i.booleanOp(node, false)
	}

	left, err := i.eval(node.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.eval(node.Right)
	if err != nil {
		return nil, err
	}

	leftType := i.operandType(node.Left, left)
	rightType := i.operandType(node.Right, right)

	// string concatenation wins over the numeric classification
	if node.Operator == OpAdd && (isString(leftType) || isString(rightType)) {
		return ConvertToString(left) + ConvertToString(right), nil
	}

	floating := isFloat(leftType) || isFloat(rightType)
	numeric := floating || isInt(leftType) || isInt(rightType)
	arraylike := leftType.IsArrayLike() || rightType.IsArrayLike()

	insideTypes := [2]Type{leftType, rightType}
	if al, ok := leftType.(ArrayLike); ok {
		insideTypes[0] = al.ComponentType()
	}
	if al, ok := rightType.(ArrayLike); ok {
		insideTypes[1] = al.ComponentType()
	}

	switch {
	case numeric && !arraylike:
		return i.numericOp(node, floating, left, right)
	case arraylike && !numeric:
		return i.arrayLikeOp(node, insideTypes, left, right)
	case numeric && arraylike:
		return i.mixedOp(node, insideTypes, left, right)
	}

	switch node.Operator {
	case OpEquality:
		return valuesEqual(leftType, left, right), nil
	case OpNotEquals:
		return !valuesEqual(leftType, left, right), nil
	}
	return nil, NewRuntimeError(node, "invalid operator %s for these operands", node.Operator)
}

// operandType resolves an operand's static type, unwrapping a generic
// to its call-time resolution; when no static information survives
// (nested unresolved generics), the value's own shape decides.
func (i *Interpreter) operandType(node Expression, value any) Type {
	typ := i.reactor.GetType(node, "type")
	if generic, ok := typ.(*GenericType); ok {
		typ = generic.Resolution
	}
	if typ == nil {
		typ = dynamicType(value)
	}
	return typ
}

func dynamicType(value any) Type {
	switch v := value.(type) {
	case int64:
		return IntT
	case float64:
		return FloatT
	case bool:
		return BoolT
	case string:
		return StringT
	case []any:
		if len(v) == 0 {
			return NewArrayType(IntT)
		}
		return NewArrayType(dynamicType(v[0]))
	case [][]any:
		if len(v) == 0 || len(v[0]) == 0 {
			return NewMatType(IntT)
		}
		return NewMatType(dynamicType(v[0][0]))
	}
	return NullT
}

func valuesEqual(leftType Type, left, right any) bool {
	if leftType.IsPrimitive() {
		return structuralEquals(left, right)
	}
	return referenceEquals(left, right)
}

func (i *Interpreter) booleanOp(node *BinaryExpression, isAnd bool) (any, error) {
	left, err := i.evalBool(node.Left)
	if err != nil {
		return nil, err
	}
	if isAnd && !left {
		return false, nil
	}
	if !isAnd && left {
		return true, nil
	}
	return i.evalBool(node.Right)
}

// ---------------------------------------------------------------------------
// Scalar arithmetic

func (i *Interpreter) numericOp(node *BinaryExpression, floating bool, left, right any) (any, error) {
	if floating {
		fl, fr := asFloat(left), asFloat(right)
		switch node.Operator {
		case OpMultiply:
			return fl * fr, nil
		case OpDivide:
			return fl / fr, nil
		case OpRemainder:
			return math.Mod(fl, fr), nil
		case OpAdd:
			return fl + fr, nil
		case OpSubtract:
			return fl - fr, nil
		case OpGreater:
			return fl > fr, nil
		case OpLower:
			return fl < fr, nil
		case OpGreaterEqual:
			return fl >= fr, nil
		case OpLowerEqual:
			return fl <= fr, nil
		case OpEquality:
			return fl == fr, nil
		case OpNotEquals:
			return fl != fr, nil
		}
		return nil, NewRuntimeError(node, "invalid operator %s for numeric operands", node.Operator)
	}

	il, ir := asInt(left), asInt(right)
	switch node.Operator {
	case OpMultiply:
		return il * ir, nil
	case OpDivide:
		if ir == 0 {
			return nil, NewRuntimeError(node, "division by zero")
		}
		return il / ir, nil
	case OpRemainder:
		if ir == 0 {
			return nil, NewRuntimeError(node, "division by zero")
		}
		return il % ir, nil
	case OpAdd:
		return il + ir, nil
	case OpSubtract:
		return il - ir, nil
	case OpGreater:
		return il > ir, nil
	case OpLower:
		return il < ir, nil
	case OpGreaterEqual:
		return il >= ir, nil
	case OpLowerEqual:
		return il <= ir, nil
	case OpEquality:
		return il == ir, nil
	case OpNotEquals:
		return il != ir, nil
	}
	return nil, NewRuntimeError(node, "invalid operator %s for numeric operands", node.Operator)
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

// ---------------------------------------------------------------------------
// Shapes

func arrayLikeShape(v any) [2]int {
	switch arr := v.(type) {
	case [][]any:
		if len(arr) == 0 {
			return [2]int{0, 0}
		}
		return [2]int{len(arr), len(arr[0])}
	case []any:
		return [2]int{1, len(arr)}
	}
	return [2]int{0, 0}
}

// toMatrix lifts a one-dimensional array to a single-row matrix.
func toMatrix(v any) [][]any {
	switch arr := v.(type) {
	case [][]any:
		return arr
	case []any:
		return [][]any{arr}
	}
	return nil
}

func newMatrix(rows, cols int) [][]any {
	m := make([][]any, rows)
	for i := range m {
		m[i] = make([]any, cols)
	}
	return m
}

// ---------------------------------------------------------------------------
// Element-wise dispatch

func (i *Interpreter) arrayLikeOp(node *BinaryExpression, insideTypes [2]Type, left, right any) (any, error) {
	tleft, tright := toMatrix(left), toMatrix(right)
	if tleft == nil || tright == nil {
		return nil, NewRuntimeError(node, "%s applied to a non-array-like value", node.Operator)
	}

	switch {
	case node.Operator.IsArithmetic():
		return i.applyOperationForAll(node, insideTypes, tleft, tright)
	case node.Operator.IsComparison() || node.Operator.IsEquality():
		return nil, NewRuntimeError(node,
			"%s is not a valid operator for array-like values", node.Operator)
	}

	switch node.Operator {
	case OpAllEqual, OpAllNotEqual, OpAllLower, OpAllLowerEqual, OpAllGreater, OpAllGreaterEqual:
		return i.applyComparisonForAll(node, insideTypes, tleft, tright)
	case OpOneEqual, OpOneNotEqual, OpOneLower, OpOneLowerEqual, OpOneGreater, OpOneGreaterEqual:
		return i.applyComparisonForOne(node, insideTypes, tleft, tright)
	}
	return nil, NewRuntimeError(node, "invalid operator %s for array-like values", node.Operator)
}

// mixedOp broadcasts the scalar side to the array-like side's shape and
// re-dispatches on the element-wise path.
func (i *Interpreter) mixedOp(node *BinaryExpression, insideTypes [2]Type, left, right any) (any, error) {
	if isScalarNumber(left) {
		shape := arrayLikeShape(right)
		return i.arrayLikeOp(node, insideTypes, broadcastScalar(left, shape), right)
	}
	shape := arrayLikeShape(left)
	return i.arrayLikeOp(node, insideTypes, left, broadcastScalar(right, shape))
}

func isScalarNumber(v any) bool {
	switch v.(type) {
	case int64, float64:
		return true
	}
	return false
}

// broadcastScalar expands a scalar to a uniformly-filled matrix.
func broadcastScalar(v any, shape [2]int) [][]any {
	m := newMatrix(shape[0], shape[1])
	for i := range m {
		for j := range m[i] {
			m[i][j] = v
		}
	}
	return m
}

// ---------------------------------------------------------------------------
// Element-wise arithmetic

func (i *Interpreter) applyOperationForAll(node *BinaryExpression, insideTypes [2]Type, tleft, tright [][]any) (any, error) {
	shape1 := arrayLikeShape(tleft)
	shape2 := arrayLikeShape(tright)

	if node.Operator == OpDotProduct {
		if shape1[1] != shape2[0] {
			return nil, NewRuntimeError(node, "Invalid shape for dot product: %v and %v", shape1, shape2)
		}
	} else if shape1 != shape2 {
		return nil, NewRuntimeError(node, "Operands must be the same size: %v != %v", shape1, shape2)
	}

	// operate in floats as soon as either side's declared component is Float
	floating := isFloat(insideTypes[0]) || isFloat(insideTypes[1])

	rep := newMatrix(shape1[0], shape2[1])
	for r := 0; r < shape1[0]; r++ {
		for c := 0; c < shape2[1]; c++ {
			if node.Operator == OpDotProduct {
				sum := 0.0
				for k := 0; k < shape1[1]; k++ {
					sum += cellFloat(tleft[r][k]) * cellFloat(tright[k][c])
				}
				if floating {
					rep[r][c] = sum
				} else {
					rep[r][c] = int64(sum)
				}
				continue
			}

			if floating {
				fl, fr := cellFloat(tleft[r][c]), cellFloat(tright[r][c])
				switch node.Operator {
				case OpMultiply:
					rep[r][c] = fl * fr
				case OpDivide:
					rep[r][c] = fl / fr
				case OpRemainder:
					rep[r][c] = math.Mod(fl, fr)
				case OpAdd:
					rep[r][c] = fl + fr
				case OpSubtract:
					rep[r][c] = fl - fr
				}
				continue
			}

			il, ir := cellInt(tleft[r][c]), cellInt(tright[r][c])
			switch node.Operator {
			case OpMultiply:
				rep[r][c] = il * ir
			case OpDivide:
				if ir == 0 {
					return nil, NewRuntimeError(node, "division by zero")
				}
				rep[r][c] = il / ir
			case OpRemainder:
				if ir == 0 {
					return nil, NewRuntimeError(node, "division by zero")
				}
				rep[r][c] = il % ir
			case OpAdd:
				rep[r][c] = il + ir
			case OpSubtract:
				rep[r][c] = il - ir
			}
		}
	}
	return rep, nil
}

func cellFloat(v any) float64 { return asFloat(v) }

func cellInt(v any) int64 { return asInt(v) }

// ---------------------------------------------------------------------------
// Element-wise predicates

// cellCompare evaluates one element-wise pair. The result is
// (equal, less); ordering over strings is a run-time fault.
func cellCompare(node *BinaryExpression, insideTypes [2]Type, left, right any, needOrder bool) (equal, less bool, err error) {
	if isString(insideTypes[0]) || isString(insideTypes[1]) {
		if needOrder {
			return false, false, NewRuntimeError(node,
				"%s is not defined for String components", node.Operator)
		}
		ls, _ := left.(string)
		rs, _ := right.(string)
		return ls == rs, false, nil
	}

	if isInt(insideTypes[0]) && isInt(insideTypes[1]) {
		il, ir := cellInt(left), cellInt(right)
		return il == ir, il < ir, nil
	}
	fl, fr := cellFloat(left), cellFloat(right)
	return fl == fr, fl < fr, nil
}

// applyComparisonForOne returns true as soon as any element-wise pair
// satisfies the predicate.
func (i *Interpreter) applyComparisonForOne(node *BinaryExpression, insideTypes [2]Type, tleft, tright [][]any) (any, error) {
	shape1 := arrayLikeShape(tleft)
	shape2 := arrayLikeShape(tright)
	if shape1 != shape2 {
		return nil, NewRuntimeError(node, "Operands must be the same size: %v != %v", shape1, shape2)
	}

	needOrder := node.Operator != OpOneEqual && node.Operator != OpOneNotEqual

	for r := 0; r < shape1[0]; r++ {
		for c := 0; c < shape1[1]; c++ {
			equal, less, err := cellCompare(node, insideTypes, tleft[r][c], tright[r][c], needOrder)
			if err != nil {
				return nil, err
			}
			var hit bool
			switch node.Operator {
			case OpOneEqual:
				hit = equal
			case OpOneNotEqual:
				hit = !equal
			case OpOneLower:
				hit = less
			case OpOneLowerEqual:
				hit = less || equal
			case OpOneGreater:
				hit = !less && !equal
			case OpOneGreaterEqual:
				hit = !less
			}
			if hit {
				return true, nil
			}
		}
	}
	return false, nil
}

// applyComparisonForAll returns false as soon as any element-wise pair
// violates the predicate.
func (i *Interpreter) applyComparisonForAll(node *BinaryExpression, insideTypes [2]Type, tleft, tright [][]any) (any, error) {
	shape1 := arrayLikeShape(tleft)
	shape2 := arrayLikeShape(tright)
	if shape1 != shape2 {
		return nil, NewRuntimeError(node, "Operands must be the same size: %v != %v", shape1, shape2)
	}

	needOrder := node.Operator != OpAllEqual && node.Operator != OpAllNotEqual

	for r := 0; r < shape1[0]; r++ {
		for c := 0; c < shape1[1]; c++ {
			equal, less, err := cellCompare(node, insideTypes, tleft[r][c], tright[r][c], needOrder)
			if err != nil {
				return nil, err
			}
			var ok bool
			switch node.Operator {
			case OpAllEqual:
				ok = equal
			case OpAllNotEqual:
				ok = !equal
			case OpAllLower:
				ok = less
			case OpAllLowerEqual:
				ok = less || equal
			case OpAllGreater:
				ok = !less && !equal
			case OpAllGreaterEqual:
				ok = !less
			}
			if !ok {
				return false, nil
			}
		}
	}
	return true, nil
}
