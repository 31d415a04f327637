// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Quantity represents a physical quantity with full precision.
// Uses decimal.Decimal so reconciliation comparisons are exact:
// a request that fills the remaining balance to the last digit is
// accepted, any overshoot is rejected. No float tolerance anywhere.
type Quantity = decimal.Decimal

// Money represents a monetary value with full precision.
type Money = decimal.Decimal

// NewQuantityFromString parses a quantity from its decimal string form.
// This is the preferred constructor for values crossing the API boundary.
func NewQuantityFromString(s string) (Quantity, error) {
	return decimal.NewFromString(s)
}

// MustQuantity parses a quantity string, panics on error.
// Use only for constants and tests.
func MustQuantity(s string) Quantity {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewQuantityFromInt creates a Quantity from an integer count.
func NewQuantityFromInt(n int64) Quantity {
	return decimal.NewFromInt(n)
}

// ZeroQuantity returns the zero quantity.
func ZeroQuantity() Quantity {
	return decimal.Zero
}

// SumQuantities adds a series of quantities exactly.
func SumQuantities(qs ...Quantity) Quantity {
	total := decimal.Zero
	for _, q := range qs {
		total = total.Add(q)
	}
	return total
}
