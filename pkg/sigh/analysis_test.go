package sigh

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// analyze parses and analyzes source, returning the accumulated
// semantic errors.
func analyze(t *testing.T, source string) []*SemanticError {
	t.Helper()
	program, err := Load("<test>", source)
	require.NoError(t, err, "parse error in %q", source)
	return program.Errors()
}

func checkSemanticError(t *testing.T, source, fragment string) {
	t.Helper()
	errs := analyze(t, source)
	require.NotEmpty(t, errs, "expected a semantic error in %q", source)
	for _, e := range errs {
		if strings.Contains(strings.ToLower(e.Message), strings.ToLower(fragment)) {
			return
		}
	}
	t.Errorf("no error matching %q in %q; got %v", fragment, source, errs)
}

func checkClean(t *testing.T, source string) {
	t.Helper()
	errs := analyze(t, source)
	assert.Empty(t, errs, "unexpected semantic errors in %q", source)
}

func TestNameResolutionErrors(t *testing.T) {
	checkSemanticError(t, "return x", "could not resolve")
	checkSemanticError(t, "x = 2", "could not resolve")
	checkSemanticError(t, "var y: Unknown = 1", "could not resolve")
	checkSemanticError(t, "return x; var x: Int = 1", "used before declaration")
}

func TestTypingErrors(t *testing.T) {
	checkSemanticError(t, "var x: Int = true", "incompatible initializer")
	checkSemanticError(t, `var x: Int = "s"`, "incompatible initializer")
	checkSemanticError(t, "if (1) return 1", "non-boolean condition")
	checkSemanticError(t, "while (1) {}", "non-boolean condition")
	checkSemanticError(t, "return !1", "negate")
	checkSemanticError(t, `return true + 1`, "add")
	checkSemanticError(t, `return 1 < "a"`, "non-numeric")
	checkSemanticError(t, `return [1, 2] > 2`, "non-numeric")
	checkSemanticError(t, `return [[1, 2, 3]] >> 2`, "non-array-like")
	checkSemanticError(t, `return [1, 2] == [1, 2]`, "incomparable")
	checkSemanticError(t, `return true && 1`, "non-boolean")
	checkSemanticError(t, `return [1, 2][true]`, "non-Int-valued")
	checkSemanticError(t, `return [1, 2][1:true]`, "non-Int-valued")
	checkSemanticError(t, `return 1[0]`, "non-array")
	checkSemanticError(t, `return 1[0:1]`, "invalid type")
	checkSemanticError(t, "return [[1, 2], [3]]", "constant line lengths")
	checkSemanticError(t, "return [1](true, 2)", "shape type")
	checkSemanticError(t, "return [[1, 2]](2, 2)", "filler type")
	checkSemanticError(t, "var m: Mat#Bool = [[1]]", "incompatible initializer")
	checkSemanticError(t,
		"fun f(x: Int): Int { return x } return f(1, 2)",
		"wrong number of arguments")
	checkSemanticError(t,
		"fun f(x: Int): Int { return x } return f(true)",
		"incompatible argument")
	checkSemanticError(t, "return f()", "could not resolve")
	checkSemanticError(t, "var x: Int = 1; return x()", "non-function")
}

func TestStructuralErrors(t *testing.T) {
	checkSemanticError(t, "fun f(): Int {}", "missing return")
	checkSemanticError(t, "fun f(): Int { if (true) return 1 }", "missing return")
	checkSemanticError(t, "1 = 2", "non-lvalue")
	checkSemanticError(t, "fun f() { return 1 }", "void function")
	checkSemanticError(t, "fun f(): Int { return }", "without value")
	checkSemanticError(t,
		"struct P { var x: Int } return $P(1).y",
		"missing field")
	checkSemanticError(t, "return [1, 2].shape", "non-length field")
	checkSemanticError(t, "return [[1, 2]].length", "unknown field")
	checkSemanticError(t, "return 1.length", "field on an expression")
	checkSemanticError(t, "var x: Int = 1; return $x(1)", "non-struct")
}

func TestGenericErrors(t *testing.T) {
	checkSemanticError(t, "fun f(x: Int): T { return x }",
		"generic return type")
	checkClean(t, "fun f(x: T): T { return x }")
	checkClean(t, "fun f(x: T, y: U): U { return y }")
}

func TestCaseErrors(t *testing.T) {
	checkSemanticError(t, "case _ { 1 : {return 1}, default : {return 2}}",
		"variable named '_'")
	checkSemanticError(t, `case 2 { "a" : {return 1}, default : {return 2}}`,
		"cannot compare")
	checkSemanticError(t,
		"case [1, 2] { [_, _] : {return 1}, default : {return 2}}",
		"consecutive wildcards")
	checkClean(t,
		"case [1, 2] { [_, 2] : {return 1}, default : {return 2}}")
}

func TestReturnCoverage(t *testing.T) {
	checkClean(t, "fun f(): Int { if (true) return 1 else return 2 }")
	checkClean(t, "fun f(): Int { { return 1 } }")
	checkClean(t, "fun f() {}")
	checkSemanticError(t, "fun f(): Int { while (true) return 1 }", "missing return")
}

func TestAnalysisAttributes(t *testing.T) {
	program, err := Load("<test>", "var x: Int = 1; return x + 1")
	require.NoError(t, err)
	require.Empty(t, program.Errors())

	root := program.Root
	decl := root.Statements[0].(*VarDeclaration)
	ret := root.Statements[1].(*Return)

	assert.Equal(t, IntT, program.Reactor.GetType(decl, "type"))
	assert.Equal(t, IntT, program.Reactor.GetType(ret.Expression, "type"))

	binary := ret.Expression.(*BinaryExpression)
	ref := binary.Left.(*Reference)
	assert.Equal(t, decl, program.Reactor.Get(ref, "decl"))
	assert.NotNil(t, program.Reactor.Get(ref, "scope"))
	assert.Equal(t, true, program.Reactor.Get(ret, "returns"))
}

func TestForwardFunctionReference(t *testing.T) {
	checkClean(t, "return g(); fun g(): Int { return 1 }")
}
