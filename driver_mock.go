package tickloop

import (
	"cmp"
	"math/bits"
	"slices"
	"sync"
)

// MockDriver is a deterministic [Driver] for tests: time stands still until
// the test advances it, and due wakers fire synchronously from Advance, in
// deadline order.
//
// Schedules deduplicate per waker with the earliest deadline winning, which
// mirrors how a production deadline queue treats a task that re-registers.
type MockDriver struct {
	mu     sync.Mutex
	freq   uint64
	now    uint64
	scheds []mockSchedule
}

type mockSchedule struct {
	at uint64
	w  Waker
}

// NewMockDriver creates a mock driver at the given tick frequency, with
// Now starting at zero. Panics when frequency is zero.
func NewMockDriver(frequency uint64) *MockDriver {
	if frequency == 0 {
		panic(`tickloop: zero mock driver frequency`)
	}
	return &MockDriver{freq: frequency}
}

// Frequency implements [Driver].
func (x *MockDriver) Frequency() uint64 {
	return x.freq
}

// Now implements [Driver].
func (x *MockDriver) Now() Instant {
	x.mu.Lock()
	defer x.mu.Unlock()
	return Instant{ticks: x.now}
}

// ScheduleWake implements [Driver]. A deadline at or before the current
// mock time wakes synchronously.
func (x *MockDriver) ScheduleWake(at Instant, w Waker) {
	x.mu.Lock()
	if at.ticks <= x.now {
		x.mu.Unlock()
		w.Wake()
		return
	}
	if w.task == nil || !w.task.markTimerQueued() {
		// Some entry for this waker may already exist; keep the earliest.
		for i := range x.scheds {
			if x.scheds[i].w == w {
				if at.ticks < x.scheds[i].at {
					x.scheds[i].at = at.ticks
				}
				x.mu.Unlock()
				return
			}
		}
	}
	x.scheds = append(x.scheds, mockSchedule{at: at.ticks, w: w})
	x.mu.Unlock()
}

// Advance moves the mock time forward by d and fires every schedule that
// became due, earliest deadline first. Panics when the tick counter would
// overflow.
func (x *MockDriver) Advance(d Duration) {
	x.mu.Lock()
	now, carry := bits.Add64(x.now, d.ticks, 0)
	if carry != 0 {
		x.mu.Unlock()
		panic(`tickloop: mock driver time overflow`)
	}
	due := x.advanceLocked(now)
	x.mu.Unlock()
	fireSchedules(due)
}

// SetNow moves the mock time to the given instant and fires every schedule
// that became due, earliest deadline first. Panics when at is earlier than
// the current mock time.
func (x *MockDriver) SetNow(at Instant) {
	x.mu.Lock()
	if at.ticks < x.now {
		x.mu.Unlock()
		panic(`tickloop: mock driver time moved backwards`)
	}
	due := x.advanceLocked(at.ticks)
	x.mu.Unlock()
	fireSchedules(due)
}

// advanceLocked sets the time and extracts due schedules, sorted by
// deadline (stable, so equal deadlines fire in registration order). The
// timer bit is cleared here, under the lock, together with the entry
// removal: a concurrent ScheduleWake that still saw the bit set would
// otherwise append a second entry for the same waker.
func (x *MockDriver) advanceLocked(now uint64) []mockSchedule {
	x.now = now
	var due []mockSchedule
	kept := x.scheds[:0]
	for _, s := range x.scheds {
		if s.at <= now {
			if s.w.task != nil {
				s.w.task.clearTimerQueued()
			}
			due = append(due, s)
		} else {
			kept = append(kept, s)
		}
	}
	x.scheds = kept
	slices.SortStableFunc(due, func(a, b mockSchedule) int {
		return cmp.Compare(a.at, b.at)
	})
	return due
}

// fireSchedules wakes outside the driver lock: a woken task may poll on
// another goroutine and re-enter ScheduleWake immediately.
func fireSchedules(due []mockSchedule) {
	for _, s := range due {
		s.w.Wake()
	}
}
