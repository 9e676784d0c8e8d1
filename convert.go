package tickloop

import (
	"math"
	"math/bits"

	"golang.org/x/exp/constraints"
)

// gcd returns the greatest common divisor of a and b.
func gcd[T constraints.Unsigned](a, b T) T {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// mulDivFloor computes (a*b)/den with a 128-bit intermediate, rounding down.
// ok is false when den is zero or the quotient does not fit in a uint64; the
// result is exact otherwise, regardless of whether a*b overflows 64 bits.
func mulDivFloor(a, b, den uint64) (q uint64, ok bool) {
	hi, lo := bits.Mul64(a, b)
	if den == 0 || hi >= den {
		return 0, false
	}
	q, _ = bits.Div64(hi, lo, den)
	return q, true
}

// mulDivCeil is mulDivFloor rounding up.
func mulDivCeil(a, b, den uint64) (q uint64, ok bool) {
	hi, lo := bits.Mul64(a, b)
	if den == 0 || hi >= den {
		return 0, false
	}
	var r uint64
	q, r = bits.Div64(hi, lo, den)
	if r != 0 {
		if q == math.MaxUint64 {
			return 0, false
		}
		q++
	}
	return q, true
}
