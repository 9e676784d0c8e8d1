package tickloop

// Timeout races an inner future against a deadline. The outcomes are
// mutually exclusive: exactly one of the inner result or the timeout is
// observed, and once resolved neither side is polled again.
//
// The inner future is polled first on every pass, so a result that is
// available by the time the deadline fires still wins.
type Timeout struct {
	_ [0]func()

	inner Future
	timer Timer
	err   error
	done  bool
}

// WithTimeout races f against a deadline d from now.
func WithTimeout(f Future, d Duration) *Timeout {
	return WithDeadline(f, Now().Add(d))
}

// WithDeadline races f against the given deadline.
func WithDeadline(f Future, at Instant) *Timeout {
	if f == nil {
		panic(`tickloop: nil future`)
	}
	return &Timeout{inner: f, timer: Timer{at: at}}
}

// Poll implements [Future].
func (x *Timeout) Poll(w Waker) Poll {
	if x.done {
		return Ready
	}
	if x.inner.Poll(w) == Ready {
		x.done = true
		return Ready
	}
	if x.timer.Poll(w) == Ready {
		x.done, x.err = true, ErrTimeout
		return Ready
	}
	return Pending
}

// Err reports the race outcome: nil when the inner future completed, or
// ErrTimeout when the deadline won. Meaningful only after Poll has
// returned Ready; before that it is always nil.
func (x *Timeout) Err() error {
	return x.err
}
