package tickloop

import (
	"container/heap"
	"fmt"
	"math"
	"sync"
	"time"
)

// DefaultSystemFrequency is the SystemDriver tick rate used when the
// requested frequency is zero: one tick per microsecond.
const DefaultSystemFrequency = 1_000_000

// SystemDriver is a [Driver] backed by the host monotonic clock.
//
// Ticks count from a wall-clock anchor captured at construction; Now is
// time.Since(anchor) converted to ticks, so it inherits the runtime's
// monotonic clock guarantees. Deadlines go into a min-heap serviced by one
// goroutine, started lazily on the first schedule, which sleeps until the
// earliest deadline and fires due wakers.
type SystemDriver struct {
	freq   uint64
	anchor time.Time

	mu   sync.Mutex
	heap schedHeap

	kick      chan struct{}
	stop      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

type schedEntry struct {
	at uint64
	w  Waker
}

// schedHeap is a deadline min-heap, earliest at the root.
type schedHeap []schedEntry

func (h schedHeap) Len() int           { return len(h) }
func (h schedHeap) Less(i, j int) bool { return h[i].at < h[j].at }
func (h schedHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *schedHeap) Push(v any) {
	*h = append(*h, v.(schedEntry))
}

func (h *schedHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// NewSystemDriver creates a system driver at the given tick frequency.
// A zero frequency selects DefaultSystemFrequency; frequencies above 1GHz
// are rejected, as they exceed the host clock's resolution.
func NewSystemDriver(frequency uint64) (*SystemDriver, error) {
	if frequency == 0 {
		frequency = DefaultSystemFrequency
	}
	if frequency > 1_000_000_000 {
		return nil, fmt.Errorf("tickloop: system driver frequency %d exceeds 1GHz", frequency)
	}
	return &SystemDriver{
		freq:   frequency,
		anchor: time.Now(),
		kick:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}, nil
}

// Frequency implements [Driver].
func (x *SystemDriver) Frequency() uint64 {
	return x.freq
}

// Now implements [Driver].
func (x *SystemDriver) Now() Instant {
	return Instant{ticks: x.nowTicks()}
}

func (x *SystemDriver) nowTicks() uint64 {
	elapsed := time.Since(x.anchor) // monotonic
	// Cannot overflow: freq <= 1e9, so ticks <= elapsed nanoseconds.
	ticks, _ := mulDivFloor(uint64(elapsed), x.freq, 1_000_000_000)
	return ticks
}

// ScheduleWake implements [Driver]. A deadline at or before now wakes
// synchronously. After Close, schedules are dropped.
func (x *SystemDriver) ScheduleWake(at Instant, w Waker) {
	if at.ticks <= x.nowTicks() {
		w.Wake()
		return
	}
	x.mu.Lock()
	select {
	case <-x.stop:
		x.mu.Unlock()
		return
	default:
	}
	if w.task == nil || !w.task.markTimerQueued() {
		// Some entry for this waker may already exist; keep the earliest.
		for i := range x.heap {
			if x.heap[i].w == w {
				if at.ticks < x.heap[i].at {
					x.heap[i].at = at.ticks
					heap.Fix(&x.heap, i)
				}
				x.mu.Unlock()
				return
			}
		}
	}
	heap.Push(&x.heap, schedEntry{at: at.ticks, w: w})
	x.mu.Unlock()

	x.startOnce.Do(func() {
		go x.run()
	})
	select {
	case x.kick <- struct{}{}:
	default:
	}
}

// Close stops the deadline goroutine. Idempotent. Outstanding schedules
// are dropped, so Close belongs in tests and whole-process teardown only;
// a live executor's timers would otherwise hang.
func (x *SystemDriver) Close() error {
	x.stopOnce.Do(func() {
		close(x.stop)
	})
	return nil
}

// sleepFor converts a tick delta to a host sleep, rounding up so the
// deadline has passed when the sleep ends. Far-off deadlines are clamped;
// the loop re-arms in bounded chunks.
func (x *SystemDriver) sleepFor(deltaTicks uint64) time.Duration {
	nanos, ok := mulDivCeil(deltaTicks, 1_000_000_000, x.freq)
	if !ok || nanos > math.MaxInt64 {
		return time.Hour
	}
	return time.Duration(nanos)
}

// run services the deadline heap until Close.
func (x *SystemDriver) run() {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	var due []schedEntry
	for {
		now := x.nowTicks()
		var wait time.Duration
		waitValid := false

		x.mu.Lock()
		for len(x.heap) > 0 && x.heap[0].at <= now {
			e := heap.Pop(&x.heap).(schedEntry)
			// Clear the timer bit together with the entry removal, still
			// under the lock: a concurrent ScheduleWake that saw the bit
			// set would otherwise push a second entry for the same waker.
			if e.w.task != nil {
				e.w.task.clearTimerQueued()
			}
			due = append(due, e)
		}
		if len(x.heap) > 0 {
			wait = x.sleepFor(x.heap[0].at - now)
			waitValid = true
		}
		x.mu.Unlock()

		if len(due) > 0 {
			// Fire outside the lock; a woken task may re-enter
			// ScheduleWake immediately.
			for i := range due {
				due[i].w.Wake()
			}
			due = due[:0]
			continue
		}

		if !waitValid {
			select {
			case <-x.kick:
			case <-x.stop:
				return
			}
			continue
		}

		timer.Reset(wait)
		select {
		case <-timer.C:
		case <-x.kick:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-x.stop:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			return
		}
	}
}
