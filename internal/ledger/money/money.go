// Package money implements the kernel's fixed-scale decimal arithmetic.
//
// Every monetary value in the ledger carries exactly six fractional digits
// (QUANTA = 10^-6). Any operation that can introduce additional fractional
// digits, division above all, is brought back down to QUANTA by truncation
// toward zero, never rounding; division truncates in one step rather than
// rounding at a finer scale first.
package money

import "github.com/shopspring/decimal"

// Scale is the number of fractional digits every amount is quantized to.
const Scale = 6

// Zero is the additive identity, already quantized.
var Zero = Amount{decimal.Zero}

// Amount is a monetary value quantized to Scale fractional digits.
type Amount struct {
	d decimal.Decimal
}

// New builds an Amount from an int64 major unit count (e.g. New(100) == 100.000000).
func New(i int64) Amount {
	return Amount{decimal.New(i, 0)}.Quantize()
}

// NewFromString parses a decimal string and quantizes it.
func NewFromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, err
	}
	return Amount{d}.Quantize(), nil
}

// FromDecimal wraps a shopspring/decimal.Decimal, quantizing it.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d}.Quantize()
}

// Decimal exposes the underlying decimal.Decimal, e.g. for persistence marshaling.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// Quantize truncates a to Scale fractional digits, toward zero.
func (a Amount) Quantize() Amount {
	return Amount{a.d.Truncate(Scale)}
}

func (a Amount) Add(b Amount) Amount {
	return Amount{a.d.Add(b.d)}.Quantize()
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{a.d.Sub(b.d)}.Quantize()
}

// Mul multiplies two amounts, quantizing the product.
func (a Amount) Mul(b Amount) Amount {
	return Amount{a.d.Mul(b.d)}.Quantize()
}

// Div divides a by b, truncating the quotient toward zero at Scale digits
// in a single step (no intermediate rounding that could carry into the last
// kept digit). Panics if b is zero.
func (a Amount) Div(b Amount) Amount {
	q, _ := a.d.QuoRem(b.d, Scale)
	return Amount{q}
}

// IsZero reports whether a is exactly zero.
func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// IsPositive reports whether a > 0.
func (a Amount) IsPositive() bool {
	return a.d.IsPositive()
}

// IsNegative reports whether a < 0.
func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

// Cmp compares a and b: -1, 0, or 1.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

func (a Amount) GreaterThan(b Amount) bool {
	return a.d.GreaterThan(b.d)
}

func (a Amount) LessThan(b Amount) bool {
	return a.d.LessThan(b.d)
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max0 returns a if positive, else Zero.
func Max0(a Amount) Amount {
	if a.IsNegative() {
		return Zero
	}
	return a
}

func (a Amount) String() string {
	return a.d.StringFixed(Scale)
}

// Neg returns -a.
func (a Amount) Neg() Amount {
	return Amount{a.d.Neg()}
}
