package sigh

import "fmt"

// Typing of binary expressions. Arithmetic over array-likes lifts the
// scalar promotion rules component-wise; Mat dominates Array in the
// result shape except that Array op Array stays Array.

func (a *Analysis) binaryExpression(node *BinaryExpression) {
	a.r.Rule(Attr(node, "type")).
		Using(Attr(node.Left, "type"), Attr(node.Right, "type")).
		By(func(rc *RuleContext) {
			left := rc.GetType(0)
			right := rc.GetType(1)

			_, leftGeneric := left.(*GenericType)
			_, rightGeneric := right.(*GenericType)
			if leftGeneric || rightGeneric {
				// Generic operands resolve at call time; the static
				// result is the generic itself when both sides agree,
				// or the unresolved sentinel.
				switch {
				case left.Equals(right):
					rc.Set(0, left)
				case right.Equals(left):
					rc.Set(0, right)
				default:
					rc.Set(0, GenericUnknown)
				}
				return
			}

			switch {
			case node.Operator == OpAdd && (isString(left) || isString(right)):
				rc.Set(0, StringT)
			case node.Operator.IsArithmetic():
				a.binaryArithmetic(rc, node, left, right)
			case node.Operator.IsComparison():
				a.binaryComparison(rc, node, left, right)
			case node.Operator.IsArrayLikeComparison():
				a.arrayLikeComparison(rc, node, left, right)
			case node.Operator.IsLogic():
				a.binaryLogic(rc, node, left, right)
			case node.Operator.IsEquality():
				a.binaryEquality(rc, node, left, right)
			case node.Operator.IsArrayLikeEquality():
				a.binaryArrayLikeEquality(rc, node, left, right)
			}
		})
}

// promoteComponent implements the scalar promotion rule for numeric
// component types: Int with Int stays Int, any Float involvement gives
// Float, anything else is rejected.
func promoteComponent(left, right Type) (Type, bool) {
	if !isNumeric(left) || !isNumeric(right) {
		return nil, false
	}
	if isInt(left) && isInt(right) {
		return IntT, true
	}
	return FloatT, true
}

func (a *Analysis) binaryArithmetic(rc *RuleContext, node *BinaryExpression, left, right Type) {
	fail := func() {
		rc.Error(fmt.Sprintf("Trying to %s %s with %s",
			node.Operator.word(), left.Name(), right.Name()), node)
	}

	switch lt := left.(type) {
	case IntType, FloatType:
		switch rt := right.(type) {
		case IntType, FloatType:
			component, _ := promoteComponent(left, right)
			rc.Set(0, component)
		case ArrayType:
			component, ok := promoteComponent(left, rt.Component)
			if !ok {
				fail()
				return
			}
			rc.Set(0, NewArrayType(component))
		case MatType:
			component, ok := promoteComponent(left, rt.Component)
			if !ok {
				fail()
				return
			}
			rc.Set(0, NewMatType(component))
		default:
			fail()
		}

	case MatType:
		switch rt := right.(type) {
		case MatType:
			component, ok := promoteComponent(lt.Component, rt.Component)
			if !ok {
				fail()
				return
			}
			rc.Set(0, NewMatType(component))
		case ArrayType:
			component, ok := promoteComponent(lt.Component, rt.Component)
			if !ok {
				fail()
				return
			}
			rc.Set(0, NewMatType(component))
		case IntType, FloatType:
			component, ok := promoteComponent(lt.Component, right)
			if !ok {
				fail()
				return
			}
			rc.Set(0, NewMatType(component))
		default:
			fail()
		}

	case ArrayType:
		switch rt := right.(type) {
		case ArrayType:
			component, ok := promoteComponent(lt.Component, rt.Component)
			if !ok {
				fail()
				return
			}
			rc.Set(0, NewArrayType(component))
		case MatType:
			component, ok := promoteComponent(lt.Component, rt.Component)
			if !ok {
				fail()
				return
			}
			rc.Set(0, NewMatType(component))
		case IntType, FloatType:
			component, ok := promoteComponent(lt.Component, right)
			if !ok {
				fail()
				return
			}
			rc.Set(0, NewArrayType(component))
		default:
			fail()
		}

	default:
		fail()
	}
}

func (a *Analysis) binaryComparison(rc *RuleContext, node *BinaryExpression, left, right Type) {
	rc.Set(0, BoolT)

	if !isNumeric(left) {
		rc.ErrorFor("Attempting to perform arithmetic comparison on non-numeric type: "+left.Name(),
			node.Left)
	}
	if !isNumeric(right) {
		rc.ErrorFor("Attempting to perform arithmetic comparison on non-numeric type: "+right.Name(),
			node.Right)
	}
}

func (a *Analysis) arrayLikeComparison(rc *RuleContext, node *BinaryExpression, left, right Type) {
	rc.Set(0, BoolT)

	check := func(t Type, operand Expression) {
		al, ok := t.(ArrayLike)
		if !ok || !isNumeric(al.ComponentType()) {
			rc.ErrorFor("Attempting to perform element-wise comparison on non-array-like type: "+t.Name(),
				operand)
		}
	}
	check(left, node.Left)
	check(right, node.Right)
}

func (a *Analysis) binaryEquality(rc *RuleContext, node *BinaryExpression, left, right Type) {
	rc.Set(0, BoolT)

	if !IsComparableTo(left, right) {
		rc.ErrorFor(fmt.Sprintf("Trying to compare incomparable types %s and %s",
			left.Name(), right.Name()), node)
	}
}

func (a *Analysis) binaryArrayLikeEquality(rc *RuleContext, node *BinaryExpression, left, right Type) {
	rc.Set(0, BoolT)

	if !IsArrayLikeComparableTo(left, right) {
		rc.ErrorFor(fmt.Sprintf("Trying to compare incomparable types %s and %s",
			left.Name(), right.Name()), node)
	}
}

func (a *Analysis) binaryLogic(rc *RuleContext, node *BinaryExpression, left, right Type) {
	rc.Set(0, BoolT)

	if !isBool(left) {
		rc.ErrorFor("Attempting to perform binary logic on non-boolean type: "+left.Name(),
			node.Left)
	}
	if !isBool(right) {
		rc.ErrorFor("Attempting to perform binary logic on non-boolean type: "+right.Name(),
			node.Right)
	}
}

// word returns the operator's verb for arithmetic error messages.
func (op BinaryOperator) word() string {
	switch op {
	case OpMultiply:
		return "multiply"
	case OpDivide:
		return "divide"
	case OpRemainder:
		return "remainder"
	case OpAdd:
		return "add"
	case OpSubtract:
		return "subtract"
	case OpDotProduct:
		return "dot-multiply"
	}
	return op.String()
}
