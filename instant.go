package tickloop

import (
	"math"
	"strconv"
)

// Instant is a monotonic tick timestamp. The epoch is defined by the
// registered [Driver]; instants from different drivers are not comparable.
//
// Like [Duration], instants never wrap: arithmetic panics when the result
// cannot be represented, and Checked variants report failure instead.
type Instant struct {
	ticks uint64
}

// MaxInstant is the largest representable instant. It is useful as a
// "never" sentinel deadline.
var MaxInstant = Instant{ticks: math.MaxUint64}

// Now returns the current time per the registered driver.
func Now() Instant {
	return getTimebase().driver.Now()
}

// InstantFromTicks creates an instant from a raw tick count since the
// driver epoch.
func InstantFromTicks(ticks uint64) Instant {
	return Instant{ticks: ticks}
}

// InstantFromSecs creates an instant from seconds since the driver epoch.
// Panics when the result overflows the tick range.
func InstantFromSecs(secs uint64) Instant {
	d, ok := CheckedSecs(secs)
	if !ok {
		panic(`tickloop: overflow converting seconds to ticks`)
	}
	return Instant{ticks: d.ticks}
}

// InstantFromMillis creates an instant from milliseconds since the driver
// epoch, rounding down. Panics when the result overflows the tick range.
func InstantFromMillis(millis uint64) Instant {
	tb := getTimebase()
	ticks, ok := mulDivFloor(millis, tb.msNum, tb.msDen)
	if !ok {
		panic(`tickloop: overflow converting milliseconds to ticks`)
	}
	return Instant{ticks: ticks}
}

// InstantFromMicros creates an instant from microseconds since the driver
// epoch, rounding down. Panics when the result overflows the tick range.
func InstantFromMicros(micros uint64) Instant {
	tb := getTimebase()
	ticks, ok := mulDivFloor(micros, tb.usNum, tb.usDen)
	if !ok {
		panic(`tickloop: overflow converting microseconds to ticks`)
	}
	return Instant{ticks: ticks}
}

// Ticks returns the tick count since the driver epoch.
func (x Instant) Ticks() uint64 {
	return x.ticks
}

// Secs returns seconds since the driver epoch, rounding down.
func (x Instant) Secs() uint64 {
	return x.ticks / getTimebase().freq
}

// Millis returns milliseconds since the driver epoch, rounding down.
// Panics when the result overflows.
func (x Instant) Millis() uint64 {
	tb := getTimebase()
	millis, ok := mulDivFloor(x.ticks, tb.msDen, tb.msNum)
	if !ok {
		panic(`tickloop: overflow converting ticks to milliseconds`)
	}
	return millis
}

// Micros returns microseconds since the driver epoch, rounding down.
// Panics when the result overflows.
func (x Instant) Micros() uint64 {
	tb := getTimebase()
	micros, ok := mulDivFloor(x.ticks, tb.usDen, tb.usNum)
	if !ok {
		panic(`tickloop: overflow converting ticks to microseconds`)
	}
	return micros
}

// Add returns the instant advanced by d. Panics on overflow.
func (x Instant) Add(d Duration) Instant {
	i, ok := x.CheckedAdd(d)
	if !ok {
		panic(`tickloop: overflow when adding duration to instant`)
	}
	return i
}

// Sub returns the instant moved back by d. Panics on underflow.
func (x Instant) Sub(d Duration) Instant {
	i, ok := x.CheckedSub(d)
	if !ok {
		panic(`tickloop: overflow when subtracting duration from instant`)
	}
	return i
}

// CheckedAdd returns the instant advanced by d, or ok false on overflow.
func (x Instant) CheckedAdd(d Duration) (i Instant, ok bool) {
	s, ok := Duration{ticks: x.ticks}.CheckedAdd(d)
	return Instant{ticks: s.ticks}, ok
}

// CheckedSub returns the instant moved back by d, or ok false on underflow.
func (x Instant) CheckedSub(d Duration) (i Instant, ok bool) {
	s, ok := Duration{ticks: x.ticks}.CheckedSub(d)
	return Instant{ticks: s.ticks}, ok
}

// DurationSince returns the duration elapsed from earlier to x.
// Panics when earlier is after x; time never flows backwards here, so a
// negative result is a caller bug, not a recoverable condition.
func (x Instant) DurationSince(earlier Instant) Duration {
	d, ok := x.CheckedDurationSince(earlier)
	if !ok {
		panic(`tickloop: negative duration between instants`)
	}
	return d
}

// CheckedDurationSince returns the duration elapsed from earlier to x, or
// ok false when earlier is after x.
func (x Instant) CheckedDurationSince(earlier Instant) (d Duration, ok bool) {
	if earlier.ticks > x.ticks {
		return Duration{}, false
	}
	return Duration{ticks: x.ticks - earlier.ticks}, true
}

// Elapsed returns the duration since x. Panics when x is in the future.
func (x Instant) Elapsed() Duration {
	return Now().DurationSince(x)
}

// Before reports whether x is earlier than y.
func (x Instant) Before(y Instant) bool {
	return x.ticks < y.ticks
}

// After reports whether x is later than y.
func (x Instant) After(y Instant) bool {
	return x.ticks > y.ticks
}

// Equal reports whether x and y are the same instant.
func (x Instant) Equal(y Instant) bool {
	return x.ticks == y.ticks
}

// Compare returns -1 when x is before y, 0 when equal, and +1 when after.
func (x Instant) Compare(y Instant) int {
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
func (x Instant) String() string {
	return strconv.FormatUint(x.ticks, 10) + " ticks"
}
