package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuantityFromString(t *testing.T) {
	q, err := NewQuantityFromString("1000.5")
	require.NoError(t, err)
	assert.Equal(t, "1000.5", q.String())

	_, err = NewQuantityFromString("not a number")
	assert.Error(t, err)
}

func TestQuantityExactComparison(t *testing.T) {
	// 0.1 + 0.2 must equal 0.3 exactly, no float tolerance.
	a := MustQuantity("0.1")
	b := MustQuantity("0.2")
	assert.True(t, a.Add(b).Equal(MustQuantity("0.3")))

	// Filling the remaining balance to the last digit is not an overshoot.
	invoiced := MustQuantity("1000")
	already := MustQuantity("999.999")
	requested := MustQuantity("0.001")
	assert.False(t, already.Add(requested).GreaterThan(invoiced))

	// The smallest overshoot is.
	assert.True(t, already.Add(MustQuantity("0.002")).GreaterThan(invoiced))
}

func TestSumQuantities(t *testing.T) {
	total := SumQuantities(
		MustQuantity("10.25"),
		MustQuantity("0.75"),
		MustQuantity("4"),
	)
	assert.True(t, total.Equal(MustQuantity("15")))

	assert.True(t, SumQuantities().Equal(ZeroQuantity()))
}

func TestNewQuantityFromInt(t *testing.T) {
	assert.True(t, NewQuantityFromInt(42).Equal(MustQuantity("42")))
}

func TestMustQuantityPanics(t *testing.T) {
	assert.Panics(t, func() { MustQuantity("12,5") })
}
