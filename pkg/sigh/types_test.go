package sigh

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeEquality(t *testing.T) {
	t.Run("primitives", func(t *testing.T) {
		assert.True(t, IntT.Equals(IntT))
		assert.False(t, IntT.Equals(FloatT))
		assert.True(t, StringT.Equals(StringT))
	})

	t.Run("arrays and matrices", func(t *testing.T) {
		assert.True(t, NewArrayType(IntT).Equals(NewArrayType(IntT)))
		assert.False(t, NewArrayType(IntT).Equals(NewArrayType(FloatT)))
		assert.True(t, NewMatType(IntT).Equals(NewMatType(IntT)))

		// the Array(Array(T)) == Mat(T) equivalence, both ways
		twoD := NewArrayType(NewArrayType(IntT))
		assert.True(t, twoD.Equals(NewMatType(IntT)))
		assert.True(t, NewMatType(IntT).Equals(twoD))
		assert.False(t, NewArrayType(IntT).Equals(NewMatType(IntT)))
		assert.False(t, NewArrayType(NewArrayType(IntT)).Equals(NewMatType(FloatT)))
	})

	t.Run("symbolic equals everything", func(t *testing.T) {
		assert.True(t, SymbolicT.Equals(IntT))
		assert.True(t, SymbolicT.Equals(NewMatType(FloatT)))
		assert.True(t, SymbolicT.Equals(SymbolicT))
	})

	t.Run("generics compare by name", func(t *testing.T) {
		a := NewGenericType("T")
		b := NewGenericType("T")
		c := NewGenericType("U")
		assert.True(t, a.Equals(b))
		assert.False(t, a.Equals(c))

		b.Resolution = IntT
		assert.True(t, a.Equals(b), "resolution does not affect equality")
	})
}

func TestGenericResolution(t *testing.T) {
	g := NewGenericType("T")
	assert.True(t, g.Solve(IntT))
	assert.False(t, g.Solve(FloatT), "second solve must not rebind")
	assert.Equal(t, Type(IntT), g.Resolution)
	g.Reset()
	assert.Nil(t, g.Resolution)
	assert.True(t, g.Solve(FloatT))
}

func TestAssignability(t *testing.T) {
	assert.True(t, IsAssignableTo(IntT, FloatT))
	assert.False(t, IsAssignableTo(FloatT, IntT))
	assert.True(t, IsAssignableTo(IntT, IntT))

	assert.True(t, IsAssignableTo(NullT, StringT))
	assert.True(t, IsAssignableTo(NullT, NewArrayType(IntT)))
	assert.False(t, IsAssignableTo(NullT, IntT))

	assert.True(t, IsAssignableTo(NewArrayType(IntT), NewArrayType(FloatT)))
	assert.False(t, IsAssignableTo(NewArrayType(FloatT), NewArrayType(IntT)))
	assert.True(t, IsAssignableTo(NewMatType(IntT), NewMatType(FloatT)))

	assert.False(t, IsAssignableTo(VoidT, IntT))
	assert.False(t, IsAssignableTo(IntT, VoidT))

	assert.True(t, IsAssignableTo(SymbolicT, NewMatType(IntT)))
	assert.True(t, IsAssignableTo(GenericUnknown, IntT))
	assert.True(t, IsAssignableTo(IntT, GenericUnknown))
}

func TestCommonSupertype(t *testing.T) {
	assert.Equal(t, Type(FloatT), CommonSupertype(IntT, FloatT))
	assert.Equal(t, Type(FloatT), CommonSupertype(FloatT, IntT))
	assert.Equal(t, Type(IntT), CommonSupertype(IntT, IntT))
	assert.Nil(t, CommonSupertype(IntT, BoolT))
	assert.Nil(t, CommonSupertype(VoidT, IntT))

	// assignability implies supertype (spec invariant)
	pairs := [][2]Type{
		{IntT, FloatT},
		{NullT, StringT},
		{NewArrayType(IntT), NewArrayType(FloatT)},
	}
	for _, pair := range pairs {
		if IsAssignableTo(pair[0], pair[1]) {
			assert.Equal(t, pair[1], CommonSupertype(pair[0], pair[1]))
		}
	}
}

func TestComparability(t *testing.T) {
	assert.True(t, IsComparableTo(IntT, FloatT))
	assert.True(t, IsComparableTo(FloatT, IntT))
	assert.True(t, IsComparableTo(StringT, StringT))
	assert.True(t, IsComparableTo(NullT, StringT), "references compare by identity")
	assert.False(t, IsComparableTo(IntT, BoolT))
	assert.False(t, IsComparableTo(NewArrayType(IntT), NewArrayType(IntT)),
		"array-likes use the element-wise operators")

	assert.True(t, IsArrayLikeComparableTo(NewArrayType(IntT), NewMatType(FloatT)))
	assert.True(t, IsArrayLikeComparableTo(NewArrayType(StringT), NewArrayType(StringT)))
	assert.False(t, IsArrayLikeComparableTo(NewArrayType(BoolT), NewArrayType(BoolT)))
	assert.False(t, IsArrayLikeComparableTo(IntT, BoolT))
}

func TestTypeNames(t *testing.T) {
	assert.Equal(t, "Int[]", NewArrayType(IntT).Name())
	assert.Equal(t, "Mat#Float", NewMatType(FloatT).Name())
	assert.Equal(t, "Float[][]", NewArrayType(NewArrayType(FloatT)).Name())
	assert.Equal(t, "(Int, Float) -> Bool",
		FunType{ReturnType: BoolT, ParamTypes: []Type{IntT, FloatT}}.Name())
	assert.Equal(t, "T (Generic)", NewGenericType("T").Name())
	assert.Equal(t, "T (Int)", (&GenericType{GenericName: "T", Resolution: IntT}).Name())
}
