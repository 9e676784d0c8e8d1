package tickloop

import (
	"runtime"
)

// Timer is a future that completes once a deadline passes.
//
// The first poll always suspends, registering (deadline, waker) with the
// driver, even when the deadline is already in the past; the driver then
// wakes the task (possibly synchronously) and the next poll observes
// Now() >= deadline and completes. The unconditional first yield keeps a
// task full of expired timers cooperative.
type Timer struct {
	_ [0]func()

	at      Instant
	yielded bool
}

// After returns a timer that completes d from now.
func After(d Duration) *Timer {
	return At(Now().Add(d))
}

// At returns a timer that completes at the given instant.
func At(at Instant) *Timer {
	return &Timer{at: at}
}

// Deadline returns the instant the timer completes at.
func (x *Timer) Deadline() Instant {
	return x.at
}

// Poll implements [Future].
func (x *Timer) Poll(w Waker) Poll {
	if x.yielded && !Now().Before(x.at) {
		return Ready
	}
	scheduleWake(x.at, w)
	x.yielded = true
	return Pending
}

// Ticker is a future that completes repeatedly with a fixed period.
//
// Each completion advances the deadline by exactly one period from the
// previous deadline, not from the time the completion was observed, so a
// slow consumer accumulates no drift: the schedule stays T0+P, T0+2P, ...
// A consumer that falls more than a period behind sees a burst of
// immediate completions until it catches up.
type Ticker struct {
	_ [0]func()

	at     Instant
	period Duration
}

// Every returns a ticker whose first completion is period from now.
// Panics when period is zero, which could never make progress usefully.
func Every(period Duration) *Ticker {
	if period.ticks == 0 {
		panic(`tickloop: zero ticker period`)
	}
	return &Ticker{at: Now().Add(period), period: period}
}

// Deadline returns the instant of the next completion.
func (x *Ticker) Deadline() Instant {
	return x.at
}

// Poll implements [Future]. Unlike [Timer] there is no forced first yield:
// a ticker that is already behind completes immediately.
func (x *Ticker) Poll(w Waker) Poll {
	if !Now().Before(x.at) {
		x.at = x.at.Add(x.period)
		return Ready
	}
	scheduleWake(x.at, w)
	return Pending
}

// Reset restarts the schedule: the next completion is one period from now.
func (x *Ticker) Reset() {
	x.at = Now().Add(x.period)
}

// ResetAt moves the next completion to the given instant; subsequent
// completions follow at period spacing from it.
func (x *Ticker) ResetAt(at Instant) {
	x.at = at
}

// ResetAfter moves the next completion to d from now; subsequent
// completions follow at period spacing from it.
func (x *Ticker) ResetAfter(d Duration) {
	x.at = Now().Add(d)
}

// BlockFor busy-waits until d has elapsed, yielding the processor between
// checks. For hosts that cannot block; inside a task prefer [Timer], which
// suspends instead of burning the executor.
func BlockFor(d Duration) {
	deadline := Now().Add(d)
	for Now().Before(deadline) {
		runtime.Gosched()
	}
}
