package sigh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func literalNode(v int64) *IntLiteral {
	return &IntLiteral{Value: v}
}

func TestReactorFiresWhenInputsArrive(t *testing.T) {
	r := NewReactor()
	a := literalNode(1)
	b := literalNode(2)

	r.Rule(Attr(b, "type")).Using(Attr(a, "type")).By(CopyFirst)

	r.Run()
	assert.False(t, r.Has(b, "type"), "rule must not fire before its input")

	r.Set(a, "type", IntT)
	r.Run()
	require.True(t, r.Has(b, "type"))
	assert.Equal(t, IntT, r.GetType(b, "type"))
}

func TestReactorImmediateRule(t *testing.T) {
	r := NewReactor()
	a := literalNode(1)

	fired := false
	r.Rule().By(func(rc *RuleContext) { fired = true })
	_ = a
	r.Run()
	assert.True(t, fired, "rules with no inputs fire during Run")
}

func TestReactorDynamicRules(t *testing.T) {
	r := NewReactor()
	a := literalNode(1)
	b := literalNode(2)
	c := literalNode(3)

	// a rule that registers another rule while firing, with an input
	// that is already available
	r.Set(a, "type", IntT)
	r.Rule().Using(Attr(a, "type")).By(func(rc *RuleContext) {
		r.Rule(Attr(c, "type")).Using(Attr(b, "type")).By(CopyFirst)
	})
	r.Set(b, "type", FloatT)
	r.Run()

	require.True(t, r.Has(c, "type"))
	assert.Equal(t, FloatT, r.GetType(c, "type"))
}

func TestReactorWriteOnce(t *testing.T) {
	r := NewReactor()
	a := literalNode(1)
	r.Set(a, "type", IntT)
	assert.Panics(t, func() { r.Set(a, "type", FloatT) })
}

func TestReactorMissingAttribute(t *testing.T) {
	r := NewReactor()
	a := literalNode(1)
	assert.Panics(t, func() { r.Get(a, "type") })
	assert.False(t, r.Has(a, "type"))
}

func TestReactorErrorsAccumulate(t *testing.T) {
	r := NewReactor()
	a := literalNode(1)
	b := literalNode(2)

	r.Set(a, "type", IntT)
	r.Rule().Using(Attr(a, "type")).By(func(rc *RuleContext) {
		rc.Error("first problem", a)
	})
	r.Rule().Using(Attr(a, "type")).By(func(rc *RuleContext) {
		rc.ErrorFor("second problem", b, Attr(b, "type"))
	})
	r.Run()

	require.Len(t, r.Errors(), 2)
	assert.Equal(t, PhaseSemantic, r.Errors()[0].Phase)
	assert.False(t, r.Has(b, "type"), "errored outputs stay unset")
}

func TestReactorMultiOutputRule(t *testing.T) {
	r := NewReactor()
	a := literalNode(1)

	r.Rule(Attr(a, "decl"), Attr(a, "scope")).By(func(rc *RuleContext) {
		rc.Set(0, "the-decl")
		rc.Set(1, "the-scope")
	})
	r.Run()

	assert.Equal(t, "the-decl", r.Get(a, "decl"))
	assert.Equal(t, "the-scope", r.Get(a, "scope"))
}

func TestReactorChainedDependencies(t *testing.T) {
	r := NewReactor()
	nodes := []*IntLiteral{literalNode(0), literalNode(1), literalNode(2), literalNode(3)}

	// a chain of copy rules registered before any value exists
	for i := 1; i < len(nodes); i++ {
		r.Rule(Attr(nodes[i], "type")).Using(Attr(nodes[i-1], "type")).By(CopyFirst)
	}
	r.Set(nodes[0], "type", StringT)
	r.Run()

	for _, n := range nodes {
		assert.Equal(t, StringT, r.GetType(n, "type"))
	}
}
