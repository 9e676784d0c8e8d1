package tickloop

// Poll is the outcome of polling a [Future].
type Poll uint8

const (
	// Pending indicates the future has not completed. The future must have
	// arranged for the supplied [Waker] to be invoked once it can make
	// progress, or it will never be polled again.
	Pending Poll = iota
	// Ready indicates the future has completed. It will not be polled again
	// by the executor.
	Ready
)

// String returns a human-readable representation of the poll outcome.
func (p Poll) String() string {
	switch p {
	case Pending:
		return "Pending"
	case Ready:
		return "Ready"
	default:
		return "Unknown"
	}
}

// Future is a unit of cooperatively scheduled work.
//
// Poll either completes (Ready) or stashes w somewhere the next wake can
// reach and returns Pending. Implementations must tolerate spurious polls:
// a poll may occur with none of the futures' registered wake sources having
// fired, in which case the correct behavior is to re-register and return
// Pending again.
//
// Poll is only ever invoked by the executor goroutine, one task at a time,
// so implementations need no internal synchronization for state the future
// alone owns. Values shared with waker-invoking code are the exception and
// must be synchronized by the implementation.
type Future interface {
	Poll(w Waker) Poll
}

// FutureFunc adapts a function to the [Future] interface.
type FutureFunc func(w Waker) Poll

// Poll implements [Future].
func (f FutureFunc) Poll(w Waker) Poll { return f(w) }

// Yield returns a future that suspends exactly once before completing.
//
// It wakes itself immediately, so the task lands on the next drain pass.
// Useful for breaking up long-running computations so other tasks get a
// chance to run.
func Yield() Future { return new(yieldFuture) }

type yieldFuture struct {
	done bool
}

func (x *yieldFuture) Poll(w Waker) Poll {
	if x.done {
		return Ready
	}
	x.done = true
	w.Wake()
	return Pending
}
