package tickloop

import (
	"sync/atomic"
)

// Driver provides the time base: a monotonic tick counter and a deadline
// wake facility. Exactly one driver is active per process, registered via
// [SetDriver] before any time operation.
//
// Implementations own their deadline bookkeeping. Multiple outstanding
// schedules must be supported; scheduling the same waker twice should keep
// the earlier deadline, but delivering a spurious (early or duplicate) wake
// is always permitted, as wakers and futures tolerate it. A deadline at or
// before Now may invoke the waker synchronously from ScheduleWake.
type Driver interface {
	// Frequency returns the tick rate in ticks per second. It must be
	// nonzero and constant for the life of the driver.
	Frequency() uint64
	// Now returns the current monotonic tick count as an Instant.
	Now() Instant
	// ScheduleWake arranges for w.Wake to be invoked once Now() >= at.
	// It must be safe to call from any goroutine, including from a poll.
	ScheduleWake(at Instant, w Waker)
}

// timebase is the resolved driver plus conversion factors, derived once at
// registration. Each factor pair is reduced by gcd(frequency, unit), which
// keeps the intermediate products small for the common frequencies.
type timebase struct {
	driver Driver
	freq   uint64
	// ticks-per-unit fractions, reduced: freq/g over unit/g.
	msNum, msDen uint64
	usNum, usDen uint64
	nsNum, nsDen uint64
}

var driverTimebase atomic.Pointer[timebase]

// SetDriver registers the process-wide time driver. It must be called
// before any time operation; operations without a registered driver panic.
//
// The tick frequency is captured here and treated as fixed for the life of
// the process. Replacing the driver is supported so tests can install a
// [MockDriver], but mixing instants obtained under different drivers
// produces garbage.
func SetDriver(d Driver) {
	if d == nil {
		panic(`tickloop: nil time driver`)
	}
	freq := d.Frequency()
	if freq == 0 {
		panic(`tickloop: time driver reports zero frequency`)
	}
	tb := &timebase{driver: d, freq: freq}
	g := gcd(freq, uint64(1_000))
	tb.msNum, tb.msDen = freq/g, 1_000/g
	g = gcd(freq, uint64(1_000_000))
	tb.usNum, tb.usDen = freq/g, 1_000_000/g
	g = gcd(freq, uint64(1_000_000_000))
	tb.nsNum, tb.nsDen = freq/g, 1_000_000_000/g
	driverTimebase.Store(tb)
}

func getTimebase() *timebase {
	tb := driverTimebase.Load()
	if tb == nil {
		panic(`tickloop: no time driver configured`)
	}
	return tb
}

// Frequency returns the registered driver's tick rate in ticks per second.
func Frequency() uint64 {
	return getTimebase().freq
}

func scheduleWake(at Instant, w Waker) {
	getTimebase().driver.ScheduleWake(at, w)
}
