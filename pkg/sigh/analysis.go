package sigh

import (
	"fmt"
)

// Analysis registers the semantic rules for an AST onto a reactor. It
// walks the tree in pre-order to build scopes and attach rules, and in
// post-order to pop scopes; the reactor then runs the rules to a
// fixpoint.
//
// Attributes established:
//   - every expression node: "type"
//   - every type-denoting node: "value" (the Type it denotes)
//   - every declaration: "type" (plus "declared" for structs and
//     synthetic type declarations)
//   - references: "decl" and "scope"
//   - blocks, ifs and returns: "returns"
//   - scope-introducing nodes: "scope"
type Analysis struct {
	r *Reactor

	scope            *Scope
	rootScope        *RootScope
	inferenceContext Node
}

// NewAnalysis creates an analysis targeting the given reactor.
func NewAnalysis(r *Reactor) *Analysis {
	return &Analysis{r: r}
}

// Analyze walks the AST, registering every semantic rule, and runs the
// reactor. Errors are left on the reactor.
func Analyze(r *Reactor, root *Root) {
	a := NewAnalysis(r)
	a.Walk(root)
	r.Run()
}

// Walk dispatches the pre-visit handler for node, walks its children in
// field order, then runs the post-visit handler.
func (a *Analysis) Walk(node Node) {
	if node == nil {
		return
	}

	switch n := node.(type) {
	case *IntLiteral:
		a.r.Set(n, "type", IntT)
	case *FloatLiteral:
		a.r.Set(n, "type", FloatT)
	case *StringLiteral:
		a.r.Set(n, "type", StringT)

	case *Reference:
		a.reference(n)

	case *ConstructorRef:
		a.constructorRef(n)
		a.Walk(n.Ref)

	case *ArrayLiteral:
		a.arrayLiteral(n)
		for _, c := range n.Components {
			a.Walk(c)
		}

	case *MatrixLiteral:
		a.matrixLiteral(n)
		for _, c := range n.Components {
			a.Walk(c)
		}

	case *MatrixGenerator:
		a.matrixGenerator(n)
		a.Walk(n.Filler)
		for _, s := range n.Shape {
			a.Walk(s)
		}

	case *Paren:
		a.r.Rule(Attr(n, "type")).Using(Attr(n.Inner, "type")).By(CopyFirst)
		a.Walk(n.Inner)

	case *FieldAccess:
		a.fieldAccess(n)
		a.Walk(n.Stem)

	case *ArrayAccess:
		a.arrayAccess(n)
		a.Walk(n.Array)
		a.Walk(n.Index)

	case *SlicingAccess:
		a.slicingAccess(n)
		a.Walk(n.Array)
		a.Walk(n.StartIndex)
		a.Walk(n.EndIndex)

	case *FunCall:
		a.funCall(n)
		a.Walk(n.Function)
		for _, arg := range n.Arguments {
			a.Walk(arg)
		}

	case *UnaryExpression:
		a.unaryExpression(n)
		a.Walk(n.Operand)

	case *BinaryExpression:
		a.binaryExpression(n)
		a.Walk(n.Left)
		a.Walk(n.Right)

	case *Assignment:
		a.assignment(n)
		a.Walk(n.Left)
		a.Walk(n.Right)

	case *SimpleTypeNode:
		a.simpleType(n)
	case *ArrayTypeNode:
		a.arrayType(n)
		a.Walk(n.ComponentType)
	case *MatrixTypeNode:
		a.matrixType(n)
		a.Walk(n.ComponentType)

	case *Root:
		a.root(n)
		for _, s := range n.Statements {
			a.Walk(s)
		}
		a.popScope()

	case *Block:
		a.block(n)
		for _, s := range n.Statements {
			a.Walk(s)
		}
		a.popScope()

	case *VarDeclaration:
		a.varDecl(n)
		a.Walk(n.Type)
		a.Walk(n.Initializer)

	case *FieldDeclaration:
		a.fieldDecl(n)
		a.Walk(n.Type)

	case *Parameter:
		a.parameter(n)
		a.Walk(n.Type)

	case *FunDeclaration:
		a.funDecl(n)
		for _, p := range n.Parameters {
			a.Walk(p)
		}
		a.Walk(n.ReturnType)
		a.Walk(n.Body)
		a.popScope()

	case *StructDeclaration:
		a.structDecl(n)
		for _, f := range n.Fields {
			a.Walk(f)
		}

	case *ExpressionStatement:
		a.Walk(n.Expression)

	case *If:
		a.ifStmt(n)
		a.Walk(n.Condition)
		a.Walk(n.TrueStatement)
		a.Walk(n.FalseStatement)

	case *While:
		a.whileStmt(n)
		a.Walk(n.Condition)
		a.Walk(n.Body)

	case *Return:
		a.returnStmt(n)
		a.Walk(n.Expression)

	case *Case:
		a.caseStmt(n)
		a.Walk(n.Element)
		for _, b := range n.Bodies {
			a.Walk(b)
		}
		a.Walk(n.DefaultBlock)
		a.popScope()

	case *CaseBody:
		a.Walk(n.Pattern)
		a.Walk(n.Statements)
	}
}

func (a *Analysis) popScope() {
	a.scope = a.scope.Parent
}

// ---------------------------------------------------------------------------
// Expressions

func (a *Analysis) reference(node *Reference) {
	scope := a.scope

	// Try to look up immediately. This must succeed for variables, but
	// not necessarily for functions or types; resolving now lets us
	// report variables used before their declaration.
	if ctx := scope.Lookup(node.Name); ctx != nil {
		a.r.Set(node, "decl", ctx.Declaration)
		a.r.Set(node, "scope", ctx.Scope)
		a.r.Rule(Attr(node, "type")).
			Using(Attr(ctx.Declaration, "type")).
			By(CopyFirst)
		return
	}

	// Re-lookup after the scopes have been fully built.
	a.r.Rule(Attr(node, "decl"), Attr(node, "scope")).By(func(rc *RuleContext) {
		ctx := scope.Lookup(node.Name)
		if ctx == nil {
			rc.ErrorFor("Could not resolve: "+node.Name, node,
				Attr(node, "decl"), Attr(node, "scope"), Attr(node, "type"))
			return
		}
		rc.Set(1, ctx.Scope)
		rc.Set(0, ctx.Declaration)

		if _, isVar := ctx.Declaration.(*VarDeclaration); isVar {
			rc.ErrorFor("Variable used before declaration: "+node.Name,
				node, Attr(node, "type"))
			return
		}
		a.r.Rule(Attr(node, "type")).
			Using(Attr(ctx.Declaration, "type")).
			By(CopyFirst)
	})
}

func (a *Analysis) constructorRef(node *ConstructorRef) {
	a.r.Rule().Using(Attr(node.Ref, "decl")).By(func(rc *RuleContext) {
		decl, ok := rc.Get(0).(*StructDeclaration)
		if !ok {
			rc.ErrorFor(fmt.Sprintf(
				"Applying the constructor operator ($) to non-struct reference for: %s",
				node.Ref.Name), node, Attr(node, "type"))
			return
		}

		deps := make([]Attribute, len(decl.Fields)+1)
		deps[0] = Attr(decl, "declared")
		for i, field := range decl.Fields {
			deps[i+1] = Attr(field, "type")
		}

		a.r.Rule(Attr(node, "type")).Using(deps...).By(func(rc *RuleContext) {
			structType := rc.GetType(0)
			params := make([]Type, len(deps)-1)
			for i := range params {
				params[i] = rc.GetType(i + 1)
			}
			rc.Set(0, FunType{ReturnType: structType, ParamTypes: params})
		})
	})
}

func (a *Analysis) arrayLiteral(node *ArrayLiteral) {
	if len(node.Components) == 0 { // []
		// An empty array has no intrinsic type; it inherits it from the
		// inference context.
		context := a.inferenceContext

		switch ctx := context.(type) {
		case *VarDeclaration:
			a.r.Rule(Attr(node, "type")).Using(Attr(ctx, "type")).By(CopyFirst)
		case *SymbolicVarDeclaration:
			a.r.Rule(Attr(node, "type")).Using(Attr(ctx, "type")).By(CopyFirst)
		case *FunCall:
			a.r.Rule(Attr(node, "type")).
				Using(Attr(ctx.Function, "type"), Attr(node, "index")).
				By(func(rc *RuleContext) {
					funType, ok := rc.Get(0).(FunType)
					if !ok {
						return
					}
					index := rc.Get(1).(int)
					if index < len(funType.ParamTypes) {
						rc.Set(0, funType.ParamTypes[index])
					}
				})
		case *Case:
			a.r.Rule(Attr(node, "type")).Using(Attr(ctx, "type")).By(CopyFirst)
		}
		return
	}

	deps := make([]Attribute, len(node.Components))
	for i, c := range node.Components {
		deps[i] = Attr(c, "type")
	}

	a.r.Rule(Attr(node, "type")).Using(deps...).By(func(rc *RuleContext) {
		var supertype Type
		for i := range deps {
			typ := rc.GetType(i)
			if isVoid(typ) {
				rc.ErrorFor("Void-valued expression in array literal", node.Components[i])
				continue
			}
			if supertype == nil {
				supertype = typ
				continue
			}
			supertype = CommonSupertype(supertype, typ)
			if supertype == nil {
				rc.Error("Could not find common supertype in array literal.", node)
				return
			}
		}
		if supertype == nil {
			rc.Error("Could not find common supertype in array literal: all members have Void type.", node)
			return
		}
		rc.Set(0, NewArrayType(supertype))
	})
}

func (a *Analysis) matrixLiteral(node *MatrixLiteral) {
	if len(node.Components) == 0 {
		a.r.Error(NewSemanticError("Cannot create empty matrix", node, PhaseSemantic))
		return
	}

	width := -1
	for _, row := range node.Components {
		if width == -1 {
			width = len(row.Components)
		} else if width != len(row.Components) {
			a.r.Error(NewSemanticError("Matrices must have constant line lengths", node, PhaseSemantic))
		}
	}

	deps := make([]Attribute, len(node.Components))
	for i, row := range node.Components {
		deps[i] = Attr(row, "type")
	}

	a.r.Rule(Attr(node, "type")).Using(deps...).By(func(rc *RuleContext) {
		var supertype Type
		for i := range deps {
			typ := rc.GetType(i)
			if supertype == nil {
				supertype = typ
				continue
			}
			supertype = CommonSupertype(supertype, typ)
			if supertype == nil {
				rc.Error("Could not find common supertype in matrix literal.", node)
				return
			}
		}
		rowType, ok := supertype.(ArrayType)
		if !ok {
			rc.Error("Could not find common supertype in matrix literal.", node)
			return
		}
		rc.Set(0, NewMatType(rowType.Component))
	})
}

func (a *Analysis) matrixGenerator(node *MatrixGenerator) {
	a.r.Rule().
		Using(Attr(node.Shape[0], "type"), Attr(node.Shape[1], "type")).
		By(func(rc *RuleContext) {
			if len(node.Shape) > 2 {
				rc.Error(fmt.Sprintf(
					"Too many arguments for matrix generator, expected 1 or 2 but got %d",
					len(node.Shape)), node)
			}
			if !isInt(rc.GetType(0)) || !isInt(rc.GetType(1)) {
				rc.Error("Invalid shape type", node)
			}
		})

	a.r.Rule(Attr(node, "type")).
		Using(Attr(node.Filler, "type")).
		By(func(rc *RuleContext) {
			filler := rc.GetType(0)
			if filler.IsArrayLike() {
				rc.Error("Invalid filler type", node)
				return
			}
			rc.Set(0, NewMatType(filler))
		})
}

func (a *Analysis) fieldAccess(node *FieldAccess) {
	a.r.Rule().Using(Attr(node.Stem, "type")).By(func(rc *RuleContext) {
		typ := rc.GetType(0)

		if _, ok := typ.(ArrayType); ok {
			if node.FieldName == "length" {
				a.r.Rule(Attr(node, "type")).By(func(rr *RuleContext) { rr.Set(0, IntT) })
			} else {
				rc.ErrorFor("Trying to access a non-length field on an array", node, Attr(node, "type"))
			}
			return
		}

		if _, ok := typ.(MatType); ok {
			if node.FieldName == "shape" {
				a.r.Rule(Attr(node, "type")).By(func(rr *RuleContext) { rr.Set(0, NewArrayType(IntT)) })
			} else {
				rc.ErrorFor("Trying to access an unknown field on a matrix", node, Attr(node, "type"))
			}
			return
		}

		structType, ok := typ.(StructType)
		if !ok {
			rc.ErrorFor("Trying to access a field on an expression of type "+typ.Name(),
				node, Attr(node, "type"))
			return
		}

		for _, field := range structType.Decl.Fields {
			if field.Name == node.FieldName {
				a.r.Rule(Attr(node, "type")).Using(Attr(field, "type")).By(CopyFirst)
				return
			}
		}
		rc.ErrorFor(fmt.Sprintf("Trying to access missing field %s on struct %s",
			node.FieldName, structType.Decl.Name), node, Attr(node, "type"))
	})
}

func (a *Analysis) arrayAccess(node *ArrayAccess) {
	a.r.Rule().Using(Attr(node.Index, "type")).By(func(rc *RuleContext) {
		if !isInt(rc.GetType(0)) {
			rc.Error("Indexing an array using a non-Int-valued expression", node.Index)
		}
	})

	a.r.Rule(Attr(node, "type")).Using(Attr(node.Array, "type")).By(func(rc *RuleContext) {
		switch typ := rc.GetType(0).(type) {
		case ArrayType:
			rc.Set(0, typ.Component)
		case MatType:
			rc.Set(0, NewArrayType(typ.Component))
		default:
			rc.Error("Trying to index a non-array expression of type "+typ.Name(), node)
		}
	})
}

func (a *Analysis) slicingAccess(node *SlicingAccess) {
	a.r.Rule().Using(Attr(node.StartIndex, "type")).By(func(rc *RuleContext) {
		if !isInt(rc.GetType(0)) {
			rc.Error("Slicing an array at start using a non-Int-valued expression", node.StartIndex)
		}
	})
	a.r.Rule().Using(Attr(node.EndIndex, "type")).By(func(rc *RuleContext) {
		if !isInt(rc.GetType(0)) {
			rc.Error("Slicing an array at end using a non-Int-valued expression", node.EndIndex)
		}
	})

	a.r.Rule(Attr(node, "type")).Using(Attr(node.Array, "type")).By(func(rc *RuleContext) {
		switch typ := rc.GetType(0).(type) {
		case ArrayType:
			rc.Set(0, NewArrayType(typ.Component))
		case MatType:
			rc.Set(0, NewMatType(typ.Component))
		default:
			rc.Error("Trying to slice an invalid type: "+typ.Name(), node)
		}
	})
}

func (a *Analysis) funCall(node *FunCall) {
	a.inferenceContext = node

	deps := make([]Attribute, len(node.Arguments)+1)
	deps[0] = Attr(node.Function, "type")
	for i, arg := range node.Arguments {
		deps[i+1] = Attr(arg, "type")
		a.r.Set(arg, "index", i)
	}

	a.r.Rule(Attr(node, "type")).Using(deps...).By(func(rc *RuleContext) {
		funType, ok := rc.Get(0).(FunType)
		if !ok {
			rc.Error(fmt.Sprintf("trying to call a non-function expression: %s", node.Function), node.Function)
			return
		}

		params := funType.ParamTypes
		args := node.Arguments

		if len(params) != len(args) {
			rc.ErrorFor(fmt.Sprintf("wrong number of arguments, expected %d but got %d",
				len(params), len(args)), node)
		}

		checked := min(len(params), len(args))
		vectorized := false

		for i := 0; i < checked; i++ {
			argType := rc.GetType(i + 1)
			paramType := params[i]
			if _, isGeneric := paramType.(*GenericType); isGeneric {
				paramType = argType
			}
			if isVectorizedArgument(argType, paramType) {
				vectorized = true
				continue
			}
			if !IsAssignableTo(argType, paramType) {
				rc.ErrorFor(fmt.Sprintf(
					"incompatible argument provided for argument %d: expected %s but got %s",
					i, paramType.Name(), argType.Name()), args[i])
			}
		}

		if vectorized {
			rc.Set(0, NewMatType(funType.ReturnType))
		} else {
			rc.Set(0, funType.ReturnType)
		}
	})
}

// isVectorizedArgument reports whether an array-like argument of type a
// triggers vectorization against a scalar parameter of type b.
func isVectorizedArgument(a, b Type) bool {
	if b.IsArrayLike() {
		return false
	}
	if al, ok := a.(ArrayLike); ok {
		return IsAssignableTo(al.ComponentType(), b)
	}
	return false
}

func (a *Analysis) unaryExpression(node *UnaryExpression) {
	// there is only NOT
	a.r.Set(node, "type", BoolT)

	a.r.Rule().Using(Attr(node.Operand, "type")).By(func(rc *RuleContext) {
		if !isBool(rc.GetType(0)) {
			rc.Error("Trying to negate type: "+rc.GetType(0).Name(), node)
		}
	})
}

func (a *Analysis) assignment(node *Assignment) {
	a.r.Rule(Attr(node, "type")).
		Using(Attr(node.Left, "type"), Attr(node.Right, "type")).
		By(func(rc *RuleContext) {
			left := rc.GetType(0)
			right := rc.GetType(1)

			// the type of the assignment is the left-side type
			rc.Set(0, left)

			switch node.Left.(type) {
			case *Reference, *FieldAccess, *ArrayAccess, *SlicingAccess:
				if !IsAssignableTo(right, left) {
					rc.ErrorFor("Trying to assign a value to a non-compatible lvalue.", node)
				}
			default:
				rc.ErrorFor("Trying to assign to a non-lvalue expression.", node.Left)
			}
		})
}

// ---------------------------------------------------------------------------
// Type nodes

func (a *Analysis) simpleType(node *SimpleTypeNode) {
	scope := a.scope
	context := a.inferenceContext

	a.r.Rule().By(func(rc *RuleContext) {
		// type declarations may occur after use
		ctx := scope.Lookup(node.Name)

		if ctx == nil {
			// Inside a function declaration, an unresolved simple type
			// becomes a fresh generic, declared in the function's scope
			// so later occurrences of the same name share it.
			if _, inFun := context.(*FunDeclaration); inFun {
				generic := NewGenericType(node.Name)
				a.r.Rule(Attr(node, "value")).By(func(rr *RuleContext) { rr.Set(0, generic) })

				typeDecl := &SyntheticDeclaration{Name: node.Name, Kind: KindType}
				typeDecl.Span = node.GetSpan()
				scope.Declare(node.Name, typeDecl)

				a.r.Rule(Attr(typeDecl, "declared"), Attr(typeDecl, "type")).By(func(rr *RuleContext) {
					rr.Set(0, generic)
					rr.Set(1, TypeT)
				})
			} else {
				rc.ErrorFor("could not resolve: "+node.Name, node, Attr(node, "value"))
			}
			return
		}

		decl := ctx.Declaration
		if !isTypeDecl(decl) {
			rc.ErrorFor(fmt.Sprintf(
				"%s did not resolve to a type declaration but to a %s declaration",
				node.Name, decl.DeclaredThing()), node, Attr(node, "value"))
			return
		}

		a.r.Rule(Attr(node, "value")).Using(Attr(decl, "declared")).By(CopyFirst)
	})
}

func (a *Analysis) arrayType(node *ArrayTypeNode) {
	a.r.Rule(Attr(node, "value")).
		Using(Attr(node.ComponentType, "value")).
		By(func(rc *RuleContext) {
			rc.Set(0, NewArrayType(rc.GetType(0)))
		})
}

func (a *Analysis) matrixType(node *MatrixTypeNode) {
	a.r.Rule(Attr(node, "value")).
		Using(Attr(node.ComponentType, "value")).
		By(func(rc *RuleContext) {
			component := rc.GetType(0)
			if component.IsArrayLike() {
				rc.Error("Cannot declare a matrix of type "+component.Name(), node)
				return
			}
			rc.Set(0, NewMatType(component))
		})
}

func isTypeDecl(decl Declaration) bool {
	if _, ok := decl.(*StructDeclaration); ok {
		return true
	}
	synthetic, ok := decl.(*SyntheticDeclaration)
	return ok && synthetic.Kind == KindType
}

// ---------------------------------------------------------------------------
// Scopes & declarations

func (a *Analysis) root(node *Root) {
	a.rootScope = NewRootScope(node, a.r)
	a.scope = a.rootScope.Scope
	a.r.Set(node, "scope", a.rootScope)
}

func (a *Analysis) block(node *Block) {
	a.scope = NewScope(node, a.scope)
	a.r.Set(node, "scope", a.scope)

	deps := returnsDependencies(node.Statements)
	a.r.Rule(Attr(node, "returns")).Using(deps...).By(func(rc *RuleContext) {
		for i := range deps {
			if rc.Get(i).(bool) {
				rc.Set(0, true)
				return
			}
		}
		rc.Set(0, false)
	})
}

func (a *Analysis) varDecl(node *VarDeclaration) {
	a.inferenceContext = node

	a.scope.Declare(node.Name, node)
	a.r.Set(node, "scope", a.scope)

	a.r.Rule(Attr(node, "type")).Using(Attr(node.Type, "value")).By(CopyFirst)

	a.r.Rule().
		Using(Attr(node.Type, "value"), Attr(node.Initializer, "type")).
		By(func(rc *RuleContext) {
			expected := rc.GetType(0)
			actual := rc.GetType(1)
			if !IsAssignableTo(actual, expected) {
				rc.Error(fmt.Sprintf(
					"incompatible initializer type provided for variable `%s`: expected %s but got %s",
					node.Name, expected.Name(), actual.Name()), node.Initializer)
			}
		})
}

func (a *Analysis) fieldDecl(node *FieldDeclaration) {
	a.r.Rule(Attr(node, "type")).Using(Attr(node.Type, "value")).By(CopyFirst)
}

func (a *Analysis) parameter(node *Parameter) {
	a.r.Set(node, "scope", a.scope)
	a.scope.Declare(node.Name, node) // scope pushed by FunDeclaration

	a.r.Rule(Attr(node, "type")).Using(Attr(node.Type, "value")).By(CopyFirst)
}

func (a *Analysis) funDecl(node *FunDeclaration) {
	a.inferenceContext = node
	a.scope.Declare(node.Name, node)
	a.scope = NewScope(node, a.scope)
	a.r.Set(node, "scope", a.scope)

	deps := make([]Attribute, len(node.Parameters)+1)
	deps[0] = Attr(node.ReturnType, "value")
	for i, param := range node.Parameters {
		deps[i+1] = Attr(param, "type")
	}

	a.r.Rule().Using(deps...).By(func(rc *RuleContext) {
		retType, isGeneric := rc.GetType(0).(*GenericType)
		if !isGeneric {
			return
		}
		for i := range node.Parameters {
			if retType.Equals(rc.GetType(i + 1)) {
				return
			}
		}
		rc.Error("Generic return type should be declared in parameters", node)
	})

	a.r.Rule(Attr(node, "type")).Using(deps...).By(func(rc *RuleContext) {
		paramTypes := make([]Type, len(node.Parameters))
		for i := range paramTypes {
			paramTypes[i] = rc.GetType(i + 1)
		}
		rc.Set(0, FunType{ReturnType: rc.GetType(0), ParamTypes: paramTypes})
	})

	a.r.Rule().
		Using(Attr(node.Body, "returns"), Attr(node.ReturnType, "value")).
		By(func(rc *RuleContext) {
			returns := rc.Get(0).(bool)
			returnType := rc.GetType(1)
			if !returns && !isVoid(returnType) {
				rc.Error("Missing return in function.", node)
			}
			// NOTE: the returned value's presence & type is checked in returnStmt.
		})
}

func (a *Analysis) structDecl(node *StructDeclaration) {
	a.scope.Declare(node.Name, node)
	a.r.Set(node, "type", TypeT)
	a.r.Set(node, "declared", StructType{Decl: node})
}

// ---------------------------------------------------------------------------
// Other statements

func (a *Analysis) ifStmt(node *If) {
	a.r.Rule().Using(Attr(node.Condition, "type")).By(func(rc *RuleContext) {
		if !isBool(rc.GetType(0)) {
			rc.Error("If statement with a non-boolean condition of type: "+rc.GetType(0).Name(),
				node.Condition)
		}
	})

	deps := returnsDependencies([]Statement{node.TrueStatement, node.FalseStatement})
	a.r.Rule(Attr(node, "returns")).Using(deps...).By(func(rc *RuleContext) {
		if len(deps) != 2 {
			rc.Set(0, false)
			return
		}
		rc.Set(0, rc.Get(0).(bool) && rc.Get(1).(bool))
	})
}

func (a *Analysis) whileStmt(node *While) {
	a.r.Rule().Using(Attr(node.Condition, "type")).By(func(rc *RuleContext) {
		if !isBool(rc.GetType(0)) {
			rc.Error("While statement with a non-boolean condition of type: "+rc.GetType(0).Name(),
				node.Condition)
		}
	})
}

func (a *Analysis) caseStmt(node *Case) {
	a.inferenceContext = node

	a.scope = NewScope(node, a.scope)
	a.r.Set(node, "scope", a.scope)

	decl := &SymbolicVarDeclaration{}
	decl.Span = node.GetSpan()
	a.scope.Declare(SymbolicName, decl)
	a.r.Set(decl, "type", SymbolicT)

	if ref, ok := node.Element.(*Reference); ok && ref.Name == SymbolicName {
		a.r.Error(NewSemanticError("Cannot use case on variable named '_'", node, PhaseSemantic))
		return
	}

	for _, body := range node.Bodies {
		a.checkConsecutiveWildcards(body.Pattern)
	}

	deps := make([]Attribute, len(node.Bodies)+1)
	deps[0] = Attr(node.Element, "type")
	for i, body := range node.Bodies {
		deps[i+1] = Attr(body.Pattern, "type")
	}

	a.r.Rule(Attr(node, "type")).Using(deps...).By(func(rc *RuleContext) {
		subject := rc.GetType(0)
		for i := range node.Bodies {
			if !rc.GetType(i + 1).Equals(subject) {
				rc.ErrorFor(fmt.Sprintf("Cannot compare %s and %s",
					subject.Name(), rc.GetType(i+1).Name()), node)
			}
		}
		rc.Set(0, subject)
	})
}

// checkConsecutiveWildcards rejects patterns with two adjacent "_"
// elements, whose matching behavior would be undefined.
func (a *Analysis) checkConsecutiveWildcards(pattern Expression) {
	components := patternComponents(pattern)
	if components == nil {
		return
	}
	previous := false
	for _, c := range components {
		ref, ok := c.(*Reference)
		wildcard := ok && ref.Name == SymbolicName
		if wildcard && previous {
			a.r.Error(NewSemanticError("Consecutive wildcards in pattern", pattern, PhaseSemantic))
			return
		}
		previous = wildcard
		a.checkConsecutiveWildcards(c)
	}
}

func patternComponents(pattern Expression) []Expression {
	switch n := pattern.(type) {
	case *ArrayLiteral:
		return n.Components
	case *MatrixLiteral:
		components := make([]Expression, len(n.Components))
		for i, row := range n.Components {
			components[i] = row
		}
		return components
	}
	return nil
}

func (a *Analysis) returnStmt(node *Return) {
	a.r.Set(node, "returns", true)

	function := a.currentFunction()
	if function == nil { // top-level return
		return
	}

	if node.Expression == nil {
		a.r.Rule().Using(Attr(function.ReturnType, "value")).By(func(rc *RuleContext) {
			if !isVoid(rc.GetType(0)) {
				rc.Error("Return without value in a function with a return type.", node)
			}
		})
		return
	}

	a.r.Rule().
		Using(Attr(function.ReturnType, "value"), Attr(node.Expression, "type")).
		By(func(rc *RuleContext) {
			formal := rc.GetType(0)
			actual := rc.GetType(1)
			if isVoid(formal) {
				rc.Error("Return with value in a Void function.", node)
			} else if !IsAssignableTo(actual, formal) {
				rc.ErrorFor(fmt.Sprintf(
					"Incompatible return type, expected %s but got %s",
					formal.Name(), actual.Name()), node.Expression)
			}
		})
}

func (a *Analysis) currentFunction() *FunDeclaration {
	for scope := a.scope; scope != nil; scope = scope.Parent {
		if fun, ok := scope.Node.(*FunDeclaration); ok {
			return fun
		}
	}
	return nil
}

func isReturnContainer(node Statement) bool {
	switch node.(type) {
	case *Block, *If, *Return:
		return true
	}
	return false
}

// returnsDependencies collects the attributes needed to compute the
// "returns" attribute of a statement's parent.
func returnsDependencies(children []Statement) []Attribute {
	var deps []Attribute
	for _, child := range children {
		if child == nil || !isReturnContainer(child) {
			continue
		}
		deps = append(deps, Attr(child, "returns"))
	}
	return deps
}
