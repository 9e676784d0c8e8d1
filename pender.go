package tickloop

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"
)

// Pender is the executor's sleep/wake bridge, the one piece that differs
// per hosting environment.
//
// Notify may be called from any goroutine and any context; implementations
// must be non-blocking and must not allocate. Wait is called only by the
// executor's own consumer (Run) and may block.
//
// The contract is level-triggered: a Notify delivered while nobody is
// waiting must cause the next Wait to return immediately. Collapsing any
// number of Notify calls into a single Wait return is expected; the
// executor drains the whole run queue per wake.
type Pender interface {
	Notify()
	Wait(ctx context.Context) error
}

// ChanPender is the default pender: a one-slot channel. Suited to ordinary
// goroutine-hosted executors.
type ChanPender struct {
	ch chan struct{}
}

// NewChanPender creates a ChanPender.
func NewChanPender() *ChanPender {
	return &ChanPender{ch: make(chan struct{}, 1)}
}

// Notify implements [Pender]. Non-blocking: the buffered slot holds the
// level, and an already-pending notify is collapsed.
func (x *ChanPender) Notify() {
	select {
	case x.ch <- struct{}{}:
	default:
	}
}

// Wait implements [Pender].
func (x *ChanPender) Wait(ctx context.Context) error {
	select {
	case <-x.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

const (
	// spinYieldBudget bounds the Gosched-only phase of SpinPender.Wait
	// before it backs off to short sleeps.
	spinYieldBudget = 64
	// spinSleepInterval is the backoff sleep once the yield budget is spent.
	spinSleepInterval = 50 * time.Microsecond
)

// SpinPender is a busy-wait pender built on a single atomic flag, in the
// manner of signal-flag executors on bare-metal targets. Notify is one
// atomic store, making it the cheapest wake path available; Wait burns CPU.
//
// The zero value is ready to use.
type SpinPender struct {
	flag atomic.Bool
}

// NewSpinPender creates a SpinPender.
func NewSpinPender() *SpinPender {
	return new(SpinPender)
}

// Notify implements [Pender].
func (x *SpinPender) Notify() {
	x.flag.Store(true)
}

// Wait implements [Pender]. Spins with [runtime.Gosched], degrading to
// short sleeps after spinYieldBudget iterations.
func (x *SpinPender) Wait(ctx context.Context) error {
	for i := 0; ; i++ {
		if x.flag.Swap(false) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if i < spinYieldBudget {
			runtime.Gosched()
		} else {
			time.Sleep(spinSleepInterval)
		}
	}
}

// CallbackPender forwards Notify to a host callback, for executors embedded
// in a foreign event loop: the callback posts a job that calls
// [Executor.Step], and nobody ever calls Run.
type CallbackPender struct {
	fn func()
}

// NewCallbackPender creates a CallbackPender. The callback is invoked from
// arbitrary goroutines, possibly concurrently, and must not block.
func NewCallbackPender(fn func()) *CallbackPender {
	if fn == nil {
		panic(`tickloop: nil pender callback`)
	}
	return &CallbackPender{fn: fn}
}

// Notify implements [Pender].
func (x *CallbackPender) Notify() {
	x.fn()
}

// Wait implements [Pender]. Always fails with ErrPenderUnsupported; drive
// the executor with [Executor.Step] instead.
func (x *CallbackPender) Wait(context.Context) error {
	return ErrPenderUnsupported
}
