package sigh

import (
	"errors"
	"fmt"
	"io"
	"os"

	pkgerrors "github.com/pkg/errors"
)

// Interpreter is a tree-walking evaluator over an analyzed AST. It
// consults the reactor for the attributes established by the semantic
// analysis ("type", "decl", "scope") and must only run when the
// analysis produced no errors.
type Interpreter struct {
	reactor *Reactor

	storage     *ScopeStorage
	rootScope   *RootScope
	rootStorage *ScopeStorage

	out io.Writer
}

func NewInterpreter(reactor *Reactor) *Interpreter {
	return &Interpreter{reactor: reactor, out: os.Stdout}
}

// SetOutput redirects the print builtin; the default is stdout.
func (i *Interpreter) SetOutput(w io.Writer) { i.out = w }

// Interpret evaluates the script and returns the value of its implicit
// top-level return, or nil. Run-time faults surface as *RuntimeError.
func (i *Interpreter) Interpret(root *Root) (value any, err error) {
	defer func() {
		i.storage = nil
		if r := recover(); r != nil {
			value = nil
			err = pkgerrors.Errorf("internal error while executing script: %v", r)
		}
	}()

	i.rootScope = i.reactor.Get(root, "scope").(*RootScope)
	i.storage = NewScopeStorage(i.rootScope.Scope, nil)
	i.rootStorage = i.storage
	i.storage.InitRoot(i.rootScope)

	for _, stmt := range root.Statements {
		if _, err := i.eval(stmt); err != nil {
			var ret returnSignal
			if errors.As(err, &ret) {
				// returning from the main script is allowed
				return ret.value, nil
			}
			return nil, err
		}
	}
	return nil, nil
}

func (i *Interpreter) eval(node Node) (any, error) {
	switch n := node.(type) {
	case *IntLiteral:
		return n.Value, nil
	case *FloatLiteral:
		return n.Value, nil
	case *StringLiteral:
		return n.Value, nil
	case *Paren:
		return i.eval(n.Inner)

	case *Reference:
		return i.reference(n)
	case *ConstructorRef:
		return i.constructorRef(n)
	case *ArrayLiteral:
		return i.arrayLiteral(n)
	case *MatrixLiteral:
		return i.matrixLiteral(n)
	case *MatrixGenerator:
		return i.matrixGenerator(n)
	case *FieldAccess:
		return i.fieldAccess(n)
	case *ArrayAccess:
		return i.arrayAccess(n)
	case *SlicingAccess:
		return i.slicingAccess(n)
	case *FunCall:
		return i.funCall(n)
	case *UnaryExpression:
		return i.unaryExpression(n)
	case *BinaryExpression:
		return i.binaryExpression(n)
	case *Assignment:
		return i.assignment(n)

	case *Block:
		return i.block(n)
	case *VarDeclaration:
		return i.varDecl(n)
	case *ExpressionStatement:
		_, err := i.eval(n.Expression) // discard value
		return nil, err
	case *If:
		return i.ifStmt(n)
	case *While:
		return i.whileStmt(n)
	case *Case:
		return i.caseStmt(n)
	case *Return:
		return i.returnStmt(n)

	case *FunDeclaration, *StructDeclaration:
		return nil, nil // declarations evaluate to nothing
	}
	return nil, nil
}

// evalBool evaluates a condition known by analysis to be boolean.
func (i *Interpreter) evalBool(node Expression) (bool, error) {
	v, err := i.eval(node)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, NewRuntimeError(node, "condition did not evaluate to a boolean")
	}
	return b, nil
}

// ---------------------------------------------------------------------------
// Statements

func (i *Interpreter) block(node *Block) (any, error) {
	scope := i.reactor.Get(node, "scope").(*Scope)
	i.storage = NewScopeStorage(scope, i.storage)
	for _, stmt := range node.Statements {
		if _, err := i.eval(stmt); err != nil {
			return nil, err
		}
	}
	i.storage = i.storage.Parent
	return nil, nil
}

func (i *Interpreter) varDecl(node *VarDeclaration) (any, error) {
	scope := i.reactor.Get(node, "scope").(*Scope)
	value, err := i.eval(node.Initializer)
	if err != nil {
		return nil, err
	}
	i.assign(scope, node.Name, value, i.reactor.GetType(node, "type"))
	return nil, nil
}

// assign writes a value into storage, applying the Int-to-Float
// conversion mandated by the target's declared type.
func (i *Interpreter) assign(scope *Scope, name string, value any, target Type) {
	i.storage.Set(scope, name, convertAssigned(value, target))
}

func (i *Interpreter) ifStmt(node *If) (any, error) {
	cond, err := i.evalBool(node.Condition)
	if err != nil {
		return nil, err
	}
	if cond {
		return nil, second(i.eval(node.TrueStatement))
	}
	if node.FalseStatement != nil {
		return nil, second(i.eval(node.FalseStatement))
	}
	return nil, nil
}

func (i *Interpreter) whileStmt(node *While) (any, error) {
	for {
		cond, err := i.evalBool(node.Condition)
		if err != nil {
			return nil, err
		}
		if !cond {
			return nil, nil
		}
		if _, err := i.eval(node.Body); err != nil {
			return nil, err
		}
	}
}

func (i *Interpreter) returnStmt(node *Return) (any, error) {
	if node.Expression == nil {
		return nil, returnSignal{}
	}
	value, err := i.eval(node.Expression)
	if err != nil {
		return nil, err
	}
	return nil, returnSignal{value: value}
}

// ---------------------------------------------------------------------------
// References, calls, structs

func (i *Interpreter) reference(node *Reference) (any, error) {
	scope := i.reactor.Get(node, "scope").(*Scope)
	decl := i.reactor.Get(node, "decl").(Declaration)

	storage := i.storage
	if scope == i.rootScope.Scope {
		storage = i.rootStorage
	}

	switch d := decl.(type) {
	case *VarDeclaration, *Parameter:
		return storage.Get(scope, node.Name), nil
	case *SyntheticDeclaration:
		if d.Kind == KindVariable {
			return storage.Get(scope, node.Name), nil
		}
	case *SymbolicVarDeclaration:
		return i.storage.Get(scope, SymbolicName), nil
	}
	return decl, nil // structure or function
}

func (i *Interpreter) constructorRef(node *ConstructorRef) (any, error) {
	ref, err := i.eval(node.Ref)
	if err != nil {
		return nil, err
	}
	// guaranteed a struct declaration by the semantic analysis
	return Constructor{Decl: ref.(*StructDeclaration)}, nil
}

func (i *Interpreter) funCall(node *FunCall) (any, error) {
	callee, err := i.eval(node.Function)
	if err != nil {
		return nil, err
	}

	args := make([]any, len(node.Arguments))
	argTypes := make([]Type, len(node.Arguments))
	for idx, arg := range node.Arguments {
		if args[idx], err = i.eval(arg); err != nil {
			return nil, err
		}
		argTypes[idx] = i.reactor.GetType(arg, "type")
	}

	switch fn := callee.(type) {
	case NullValue:
		return nil, NewRuntimeError(node, "calling a null function")
	case *SyntheticDeclaration:
		return i.builtin(node, fn.Name, args)
	case Constructor:
		return buildStruct(fn.Decl, args), nil
	case *FunDeclaration:
		return i.userCall(node, fn, args, argTypes)
	}
	return nil, NewRuntimeError(node, "calling a non-function value")
}

func (i *Interpreter) userCall(node *FunCall, decl *FunDeclaration, args []any, argTypes []Type) (any, error) {
	paramTypes := make([]Type, len(decl.Parameters))
	for idx, param := range decl.Parameters {
		paramTypes[idx] = i.reactor.GetType(param.Type, "value")
	}

	// Generic bindings are per-call: reset before binding so nothing
	// bleeds across invocations.
	for _, pt := range paramTypes {
		if generic, ok := pt.(*GenericType); ok {
			generic.Reset()
		}
	}
	for idx, pt := range paramTypes {
		generic, ok := pt.(*GenericType)
		if !ok {
			continue
		}
		if !generic.Solve(argTypes[idx]) && !generic.Resolution.Equals(argTypes[idx]) {
			return nil, NewRuntimeError(node,
				"Generic type conflict: %s is %s but got %s",
				generic.GenericName, generic.Resolution.Name(), argTypes[idx].Name())
		}
	}

	vectorized := false
	var shape [2]int
	for idx := range args {
		if isVectorizedValue(args[idx], paramTypes[idx]) {
			vectorized = true
			shape = arrayLikeShape(args[idx])
		}
	}

	if vectorized {
		return i.vectorizedFunExec(node, args, shape, decl)
	}
	return i.funExec(args, decl)
}

// isVectorizedValue reports whether an argument value triggers
// vectorized dispatch against its parameter's declared type.
func isVectorizedValue(arg any, paramType Type) bool {
	if _, ok := paramType.(*GenericType); ok {
		return false
	}
	if paramType.IsArrayLike() {
		return false
	}
	switch arg.(type) {
	case []any, [][]any:
		return true
	}
	return false
}

func (i *Interpreter) funExec(args []any, decl *FunDeclaration) (any, error) {
	oldStorage := i.storage
	scope := i.reactor.Get(decl, "scope").(*Scope)
	i.storage = NewScopeStorage(scope, i.storage)

	for idx, param := range decl.Parameters {
		i.storage.Set(scope, param.Name, args[idx])
	}

	_, err := i.eval(decl.Body)
	i.storage = oldStorage
	if err != nil {
		var ret returnSignal
		if errors.As(err, &ret) {
			return ret.value, nil
		}
		return nil, err
	}
	return nil, nil
}

// vectorizedFunExec evaluates the body once per cell of the target
// shape, with scalars broadcast and array-like arguments required to
// share the shape, assembling the results into a matrix.
func (i *Interpreter) vectorizedFunExec(node *FunCall, args []any, shape [2]int, decl *FunDeclaration) (any, error) {
	cells := make([][][]any, len(args))
	for idx, arg := range args {
		expanded, err := broadcastArg(node, arg, shape)
		if err != nil {
			return nil, err
		}
		cells[idx] = expanded
	}

	result := newMatrix(shape[0], shape[1])
	scope := i.reactor.Get(decl, "scope").(*Scope)

	for row := 0; row < shape[0]; row++ {
		for col := 0; col < shape[1]; col++ {
			oldStorage := i.storage
			i.storage = NewScopeStorage(scope, i.storage)
			for idx, param := range decl.Parameters {
				i.storage.Set(scope, param.Name, cells[idx][row][col])
			}

			_, err := i.eval(decl.Body)
			i.storage = oldStorage
			if err != nil {
				var ret returnSignal
				if !errors.As(err, &ret) {
					return nil, err
				}
				result[row][col] = ret.value
			}
		}
	}
	return result, nil
}

// broadcastArg expands one argument to the vectorization shape.
func broadcastArg(node *FunCall, arg any, shape [2]int) ([][]any, error) {
	switch arg.(type) {
	case []any, [][]any:
		if arrayLikeShape(arg) != shape {
			return nil, NewRuntimeError(node,
				"Arguments of vectorized function should be of same shape: %v != %v",
				arrayLikeShape(arg), shape)
		}
		return toMatrix(arg), nil
	}
	expanded := newMatrix(shape[0], shape[1])
	for row := range expanded {
		for col := range expanded[row] {
			expanded[row][col] = arg
		}
	}
	return expanded, nil
}

func (i *Interpreter) builtin(node *FunCall, name string, args []any) (any, error) {
	// print is the only builtin at the moment
	if name != "print" {
		return nil, NewRuntimeError(node, "unknown builtin function %s", name)
	}
	out := ConvertToString(args[0])
	fmt.Fprintln(i.out, out)
	return out, nil
}

func buildStruct(decl *StructDeclaration, args []any) map[string]any {
	instance := make(map[string]any, len(decl.Fields))
	for idx, field := range decl.Fields {
		instance[field.Name] = args[idx]
	}
	return instance
}

// ---------------------------------------------------------------------------
// Literals, accesses

func (i *Interpreter) arrayLiteral(node *ArrayLiteral) (any, error) {
	values := make([]any, len(node.Components))
	for idx, c := range node.Components {
		v, err := i.eval(c)
		if err != nil {
			return nil, err
		}
		values[idx] = v
	}
	return values, nil
}

func (i *Interpreter) matrixLiteral(node *MatrixLiteral) (any, error) {
	rows := make([][]any, len(node.Components))
	for idx, row := range node.Components {
		v, err := i.arrayLiteral(row)
		if err != nil {
			return nil, err
		}
		rows[idx] = v.([]any)
	}
	return rows, nil
}

func (i *Interpreter) matrixGenerator(node *MatrixGenerator) (any, error) {
	rows, err := i.evalInt(node.Shape[0])
	if err != nil {
		return nil, err
	}
	cols, err := i.evalInt(node.Shape[1])
	if err != nil {
		return nil, err
	}
	if rows <= 0 || cols <= 0 {
		return nil, NewRuntimeError(node,
			"Invalid shape argument when initializing a matrix: [%d, %d]", rows, cols)
	}

	result := newMatrix(int(rows), int(cols))
	for r := range result {
		for c := range result[r] {
			// the filler re-evaluates per cell, like any generator
			v, err := i.eval(node.Filler)
			if err != nil {
				return nil, err
			}
			result[r][c] = v
		}
	}
	return result, nil
}

func (i *Interpreter) evalInt(node Expression) (int64, error) {
	v, err := i.eval(node)
	if err != nil {
		return 0, err
	}
	iv, ok := v.(int64)
	if !ok {
		return 0, NewRuntimeError(node, "expected an Int value")
	}
	return iv, nil
}

func (i *Interpreter) fieldAccess(node *FieldAccess) (any, error) {
	stem, err := i.eval(node.Stem)
	if err != nil {
		return nil, err
	}
	switch v := stem.(type) {
	case NullValue:
		return nil, NewRuntimeError(node, "accessing field of null object")
	case map[string]any:
		return v[node.FieldName], nil
	case [][]any:
		return []any{int64(len(v)), int64(len(v[0]))}, nil
	case []any:
		return int64(len(v)), nil
	}
	return nil, NewRuntimeError(node, "accessing field on an invalid value")
}

// getIndex evaluates an index expression and validates its range.
func (i *Interpreter) getIndex(node Expression) (int, error) {
	idx, err := i.evalInt(node)
	if err != nil {
		return 0, err
	}
	if idx < 0 {
		return 0, NewRuntimeError(node, "Negative index: %d", idx)
	}
	return int(idx), nil
}

// getEndIndex is like getIndex but lets -1 through, meaning "to end".
func (i *Interpreter) getEndIndex(node Expression) (int, error) {
	idx, err := i.evalInt(node)
	if err != nil {
		return 0, err
	}
	if idx == -1 {
		return -1, nil
	}
	if idx < 0 {
		return 0, NewRuntimeError(node, "Negative index: %d", idx)
	}
	return int(idx), nil
}

func (i *Interpreter) arrayAccess(node *ArrayAccess) (any, error) {
	target, err := i.eval(node.Array)
	if err != nil {
		return nil, err
	}
	idx, err := i.getIndex(node.Index)
	if err != nil {
		return nil, err
	}
	switch arr := target.(type) {
	case NullValue:
		return nil, NewRuntimeError(node, "indexing null array")
	case []any:
		if idx >= len(arr) {
			return nil, NewRuntimeError(node, "Index %d out of bounds for length %d", idx, len(arr))
		}
		return arr[idx], nil
	case [][]any:
		if idx >= len(arr) {
			return nil, NewRuntimeError(node, "Index %d out of bounds for length %d", idx, len(arr))
		}
		return arr[idx], nil
	}
	return nil, NewRuntimeError(node, "indexing a non-array value")
}

func (i *Interpreter) slicingAccess(node *SlicingAccess) (any, error) {
	start, err := i.getIndex(node.StartIndex)
	if err != nil {
		return nil, err
	}
	end, err := i.getEndIndex(node.EndIndex)
	if err != nil {
		return nil, err
	}
	if end != -1 && start > end {
		return nil, NewRuntimeError(node, "index %d should be smaller than %d", start, end)
	}

	target, err := i.eval(node.Array)
	if err != nil {
		return nil, err
	}

	switch arr := target.(type) {
	case NullValue:
		return nil, NewRuntimeError(node, "indexing null array")

	case [][]any:
		if end > len(arr) {
			return nil, NewRuntimeError(node,
				"index %d should be smaller than the number of lines in the matrix: %d", end, len(arr))
		}
		if end == -1 {
			end = len(arr)
		}
		if start > end {
			return nil, NewRuntimeError(node, "index %d should be smaller than %d", start, end)
		}
		result := make([][]any, end-start)
		for row := start; row < end; row++ {
			result[row-start] = append([]any(nil), arr[row]...)
		}
		return result, nil

	case []any:
		if end > len(arr) {
			return nil, NewRuntimeError(node,
				"index %d should be smaller than the array length: %d", end, len(arr))
		}
		if end == -1 {
			end = len(arr)
		}
		if start > end {
			return nil, NewRuntimeError(node, "index %d should be smaller than %d", start, end)
		}
		result := make([]any, end-start)
		copy(result, arr[start:end])
		return result, nil
	}
	return nil, NewRuntimeError(node, "Tried to slice an invalid value (%s)", node.Array)
}

// ---------------------------------------------------------------------------
// Assignment

func (i *Interpreter) assignment(node *Assignment) (any, error) {
	switch left := node.Left.(type) {
	case *Reference:
		scope := i.reactor.Get(left, "scope").(*Scope)
		rvalue, err := i.eval(node.Right)
		if err != nil {
			return nil, err
		}
		i.assign(scope, left.Name, rvalue, i.reactor.GetType(node, "type"))
		return rvalue, nil

	case *ArrayAccess:
		target, err := i.eval(left.Array)
		if err != nil {
			return nil, err
		}
		idx, err := i.getIndex(left.Index)
		if err != nil {
			return nil, err
		}
		rvalue, err := i.eval(node.Right)
		if err != nil {
			return nil, err
		}
		switch arr := target.(type) {
		case NullValue:
			return nil, NewRuntimeError(node, "indexing null array")
		case []any:
			if idx >= len(arr) {
				return nil, NewRuntimeError(node, "Index %d out of bounds for length %d", idx, len(arr))
			}
			arr[idx] = rvalue
		case [][]any:
			if idx >= len(arr) {
				return nil, NewRuntimeError(node, "Index %d out of bounds for length %d", idx, len(arr))
			}
			row, ok := rvalue.([]any)
			if !ok {
				return nil, NewRuntimeError(node, "assigning a non-array value to a matrix row")
			}
			arr[idx] = row
		default:
			return nil, NewRuntimeError(node, "indexing a non-array value")
		}
		return rvalue, nil

	case *SlicingAccess:
		return i.sliceAssignment(node, left)

	case *FieldAccess:
		object, err := i.eval(left.Stem)
		if err != nil {
			return nil, err
		}
		if _, isNull := object.(NullValue); isNull {
			return nil, NewRuntimeError(node, "accessing field of null object")
		}
		instance, ok := object.(map[string]any)
		if !ok {
			return nil, NewRuntimeError(node, "assigning a field on a non-struct value")
		}
		rvalue, err := i.eval(node.Right)
		if err != nil {
			return nil, err
		}
		instance[left.FieldName] = rvalue
		return rvalue, nil
	}
	return nil, NewRuntimeError(node, "assigning to a non-lvalue expression")
}

// sliceAssignment copies the right-hand array into the target range;
// the target's length never changes, and the source length must equal
// the range length.
func (i *Interpreter) sliceAssignment(node *Assignment, left *SlicingAccess) (any, error) {
	start, err := i.getIndex(left.StartIndex)
	if err != nil {
		return nil, err
	}
	end, err := i.getEndIndex(left.EndIndex)
	if err != nil {
		return nil, err
	}
	if end != -1 && start > end {
		return nil, NewRuntimeError(node, "index %d should be smaller than %d", start, end)
	}

	target, err := i.eval(left.Array)
	if err != nil {
		return nil, err
	}
	rvalue, err := i.eval(node.Right)
	if err != nil {
		return nil, err
	}

	switch arr := target.(type) {
	case NullValue:
		return nil, NewRuntimeError(node, "indexing null array")

	case []any:
		if end == -1 {
			end = len(arr)
		}
		if end > len(arr) {
			return nil, NewRuntimeError(node,
				"index %d should be smaller than the array length: %d", end, len(arr))
		}
		source, ok := rvalue.([]any)
		if !ok {
			return nil, NewRuntimeError(node, "assigning a non-array value to an array slice")
		}
		if len(source) != end-start {
			return nil, NewRuntimeError(node,
				"slice assignment length mismatch: expected %d values but got %d",
				end-start, len(source))
		}
		copy(arr[start:end], source)
		return target, nil

	case [][]any:
		if end == -1 {
			end = len(arr)
		}
		if end > len(arr) {
			return nil, NewRuntimeError(node,
				"index %d should be smaller than the number of lines in the matrix: %d", end, len(arr))
		}
		source, ok := rvalue.([][]any)
		if !ok {
			return nil, NewRuntimeError(node, "assigning a non-matrix value to a matrix slice")
		}
		if len(source) != end-start {
			return nil, NewRuntimeError(node,
				"slice assignment length mismatch: expected %d rows but got %d",
				end-start, len(source))
		}
		copy(arr[start:end], source)
		return target, nil
	}
	return nil, NewRuntimeError(node, "slicing a non-array value")
}

// ---------------------------------------------------------------------------
// Unary

func (i *Interpreter) unaryExpression(node *UnaryExpression) (any, error) {
	// there is only NOT
	operand, err := i.evalBool(node.Operand)
	if err != nil {
		return nil, err
	}
	return !operand, nil
}

func second(_ any, err error) error { return err }
