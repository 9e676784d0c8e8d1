package tickloop

import (
	"math"
	"math/bits"
	"strconv"
	"time"
)

// Duration is an unsigned tick count, the difference between two
// [Instant] values.
//
// The zero value is a zero-length duration. Durations never wrap and never
// saturate: the unchecked constructors, accessors, and arithmetic methods
// panic when a result cannot be represented, and each has a Checked variant
// that reports failure instead.
//
// Unit conversions depend on the tick frequency of the registered [Driver].
// Conversion factors are reduced by their greatest common divisor and the
// multiply/divide is performed with a 128-bit intermediate, so results are
// exact for every representable input.
type Duration struct {
	ticks uint64
}

var (
	// MinDuration is the smallest value representable by Duration.
	MinDuration = Duration{ticks: 0}
	// MaxDuration is the largest value representable by Duration.
	MaxDuration = Duration{ticks: math.MaxUint64}
)

// Ticks creates a duration from a raw tick count.
func Ticks(ticks uint64) Duration {
	return Duration{ticks: ticks}
}

// Secs creates a duration from the specified number of seconds.
// Panics when the result overflows the tick range.
func Secs(secs uint64) Duration {
	d, ok := CheckedSecs(secs)
	if !ok {
		panic(`tickloop: overflow converting seconds to ticks`)
	}
	return d
}

// Millis creates a duration from the specified number of milliseconds,
// rounding up. Panics when the result overflows the tick range.
func Millis(millis uint64) Duration {
	d, ok := CheckedMillis(millis)
	if !ok {
		panic(`tickloop: overflow converting milliseconds to ticks`)
	}
	return d
}

// Micros creates a duration from the specified number of microseconds,
// rounding up. Panics when the result overflows the tick range.
// NOTE: Delays this small may be inaccurate at low tick frequencies.
func Micros(micros uint64) Duration {
	d, ok := CheckedMicros(micros)
	if !ok {
		panic(`tickloop: overflow converting microseconds to ticks`)
	}
	return d
}

// Nanos creates a duration from the specified number of nanoseconds,
// rounding up. Panics when the result overflows the tick range.
// NOTE: Delays this small may be inaccurate at low tick frequencies.
func Nanos(nanos uint64) Duration {
	d, ok := CheckedNanos(nanos)
	if !ok {
		panic(`tickloop: overflow converting nanoseconds to ticks`)
	}
	return d
}

// MillisFloor creates a duration from the specified number of milliseconds,
// rounding down. Panics when the result overflows the tick range.
func MillisFloor(millis uint64) Duration {
	d, ok := CheckedMillisFloor(millis)
	if !ok {
		panic(`tickloop: overflow converting milliseconds to ticks`)
	}
	return d
}

// MicrosFloor creates a duration from the specified number of microseconds,
// rounding down. Panics when the result overflows the tick range.
func MicrosFloor(micros uint64) Duration {
	d, ok := CheckedMicrosFloor(micros)
	if !ok {
		panic(`tickloop: overflow converting microseconds to ticks`)
	}
	return d
}

// CheckedSecs creates a duration from the specified number of seconds.
// ok is false when the result overflows the tick range.
func CheckedSecs(secs uint64) (d Duration, ok bool) {
	hi, lo := bits.Mul64(secs, getTimebase().freq)
	if hi != 0 {
		return Duration{}, false
	}
	return Duration{ticks: lo}, true
}

// CheckedMillis creates a duration from the specified number of
// milliseconds, rounding up. ok is false when the result overflows the tick
// range.
func CheckedMillis(millis uint64) (d Duration, ok bool) {
	tb := getTimebase()
	ticks, ok := mulDivCeil(millis, tb.msNum, tb.msDen)
	return Duration{ticks: ticks}, ok
}

// CheckedMicros creates a duration from the specified number of
// microseconds, rounding up. ok is false when the result overflows the tick
// range.
func CheckedMicros(micros uint64) (d Duration, ok bool) {
	tb := getTimebase()
	ticks, ok := mulDivCeil(micros, tb.usNum, tb.usDen)
	return Duration{ticks: ticks}, ok
}

// CheckedNanos creates a duration from the specified number of nanoseconds,
// rounding up. ok is false when the result overflows the tick range.
func CheckedNanos(nanos uint64) (d Duration, ok bool) {
	tb := getTimebase()
	ticks, ok := mulDivCeil(nanos, tb.nsNum, tb.nsDen)
	return Duration{ticks: ticks}, ok
}

// CheckedMillisFloor is CheckedMillis rounding down.
func CheckedMillisFloor(millis uint64) (d Duration, ok bool) {
	tb := getTimebase()
	ticks, ok := mulDivFloor(millis, tb.msNum, tb.msDen)
	return Duration{ticks: ticks}, ok
}

// CheckedMicrosFloor is CheckedMicros rounding down.
func CheckedMicrosFloor(micros uint64) (d Duration, ok bool) {
	tb := getTimebase()
	ticks, ok := mulDivFloor(micros, tb.usNum, tb.usDen)
	return Duration{ticks: ticks}, ok
}

// Hz creates a duration corresponding to the period of the specified
// frequency. Rounds to nearest.
//
// NOTE: An hz at or above the driver tick frequency clamps the result to 1
// tick. Doing so will not deadlock, but will certainly not produce the
// desired period. Panics when hz is zero.
func Hz(hz uint64) Duration {
	if hz == 0 {
		panic(`tickloop: zero hz`)
	}
	freq := getTimebase().freq
	if hz >= freq {
		return Duration{ticks: 1}
	}
	sum, carry := bits.Add64(freq, hz/2, 0)
	if carry != 0 {
		panic(`tickloop: overflow converting hz to ticks`)
	}
	return Duration{ticks: sum / hz}
}

// FromStd converts a standard library duration, rounding up to the next
// tick. Conversion is via whole microseconds. ok is false when d is
// negative or the result overflows the tick range.
func FromStd(d time.Duration) (Duration, bool) {
	if d < 0 {
		return Duration{}, false
	}
	return CheckedMicros(uint64(d / time.Microsecond))
}

// Ticks returns the raw tick count.
func (x Duration) Ticks() uint64 {
	return x.ticks
}

// Secs converts the duration to seconds, rounding down.
func (x Duration) Secs() uint64 {
	return x.ticks / getTimebase().freq
}

// Millis converts the duration to milliseconds, rounding down.
// Panics when the result overflows; see Std for a checked conversion out of
// the tick domain.
func (x Duration) Millis() uint64 {
	tb := getTimebase()
	millis, ok := mulDivFloor(x.ticks, tb.msDen, tb.msNum)
	if !ok {
		panic(`tickloop: overflow converting ticks to milliseconds`)
	}
	return millis
}

// Micros converts the duration to microseconds, rounding down.
// Panics when the result overflows.
func (x Duration) Micros() uint64 {
	tb := getTimebase()
	micros, ok := mulDivFloor(x.ticks, tb.usDen, tb.usNum)
	if !ok {
		panic(`tickloop: overflow converting ticks to microseconds`)
	}
	return micros
}

// Nanos converts the duration to nanoseconds, rounding down.
// Panics when the result overflows.
func (x Duration) Nanos() uint64 {
	tb := getTimebase()
	nanos, ok := mulDivFloor(x.ticks, tb.nsDen, tb.nsNum)
	if !ok {
		panic(`tickloop: overflow converting ticks to nanoseconds`)
	}
	return nanos
}

// Std converts the duration to a standard library duration, via whole
// microseconds, rounding down. ok is false when the result overflows
// [time.Duration].
func (x Duration) Std() (time.Duration, bool) {
	tb := getTimebase()
	micros, ok := mulDivFloor(x.ticks, tb.usDen, tb.usNum)
	if !ok || micros > math.MaxInt64/uint64(time.Microsecond) {
		return 0, false
	}
	return time.Duration(micros) * time.Microsecond, true
}

// Add returns x+y. Panics on overflow.
func (x Duration) Add(y Duration) Duration {
	d, ok := x.CheckedAdd(y)
	if !ok {
		panic(`tickloop: overflow when adding durations`)
	}
	return d
}

// Sub returns x-y. Panics on underflow.
func (x Duration) Sub(y Duration) Duration {
	d, ok := x.CheckedSub(y)
	if !ok {
		panic(`tickloop: overflow when subtracting durations`)
	}
	return d
}

// Mul returns x*n. Panics on overflow.
func (x Duration) Mul(n uint64) Duration {
	d, ok := x.CheckedMul(n)
	if !ok {
		panic(`tickloop: overflow when multiplying duration by scalar`)
	}
	return d
}

// Div returns x/n. Panics when n is zero.
func (x Duration) Div(n uint64) Duration {
	d, ok := x.CheckedDiv(n)
	if !ok {
		panic(`tickloop: divide by zero when dividing duration by scalar`)
	}
	return d
}

// CheckedAdd returns x+y, or ok false on overflow.
func (x Duration) CheckedAdd(y Duration) (d Duration, ok bool) {
	sum, carry := bits.Add64(x.ticks, y.ticks, 0)
	return Duration{ticks: sum}, carry == 0
}

// CheckedSub returns x-y, or ok false on underflow.
func (x Duration) CheckedSub(y Duration) (d Duration, ok bool) {
	diff, borrow := bits.Sub64(x.ticks, y.ticks, 0)
	return Duration{ticks: diff}, borrow == 0
}

// CheckedMul returns x*n, or ok false on overflow.
func (x Duration) CheckedMul(n uint64) (d Duration, ok bool) {
	hi, lo := bits.Mul64(x.ticks, n)
	return Duration{ticks: lo}, hi == 0
}

// CheckedDiv returns x/n, or ok false when n is zero.
func (x Duration) CheckedDiv(n uint64) (d Duration, ok bool) {
	if n == 0 {
		return Duration{}, false
	}
	return Duration{ticks: x.ticks / n}, true
}

// Compare returns -1 when x is shorter than y, 0 when equal, and +1 when
// longer. Duration fields are unexported, so relational operators are
// unavailable; this is the ordering primitive.
func (x Duration) Compare(y Duration) int {
	switch {
	case x.ticks < y.ticks:
		return -1
	case x.ticks > y.ticks:
		return 1
	default:
		return 0
	}
}

// String implements [fmt.Stringer].
func (x Duration) String() string {
	return strconv.FormatUint(x.ticks, 10) + " ticks"
}
