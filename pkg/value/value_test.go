package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBorrowDiscipline(t *testing.T) {
	v := Vec([]Value{Int(1), Int(2)})
	cell := v.Cell()

	r1, err := cell.Ref()
	require.NoError(t, err)
	r2, err := cell.Ref()
	require.NoError(t, err)

	_, err = cell.Mut()
	require.ErrorIs(t, err, ErrNotAccessibleMut)

	r1.Release()
	r2.Release()

	m, err := cell.Mut()
	require.NoError(t, err)

	_, err = cell.Ref()
	require.ErrorIs(t, err, ErrNotAccessibleRef)

	m.Release()
	require.False(t, cell.Outstanding())
}

func TestTakeOwnershipRequiresSoleStrongRef(t *testing.T) {
	v := String("hello")
	cloned := v.Clone()

	_, err := v.Cell().TakeOwnership()
	require.ErrorIs(t, err, ErrNotAccessibleMut)

	cloned.Drop()
	data, err := v.Cell().TakeOwnership()
	require.NoError(t, err)
	require.Equal(t, "hello", data)
}

func TestEqualityIsStructural(t *testing.T) {
	a := Vec([]Value{Int(1), String("x")})
	b := Vec([]Value{Int(1), String("x")})
	require.True(t, Equal(a, b))

	c := Vec([]Value{Int(1), String("y")})
	require.False(t, Equal(a, c))
}

func TestNaNNeverEqual(t *testing.T) {
	nan := Float(nan())
	require.False(t, Equal(nan, nan))
}

func TestCrossKindCompareFails(t *testing.T) {
	_, err := Compare(Int(1), Float(1))
	require.ErrorIs(t, err, ErrUnsupportedCompare)
}

func nan() float64 {
	var zero float64
	return zero / zero
}
