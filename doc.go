// Package tickloop provides a cooperative task executor with an
// allocation-free scheduling hot path, paired with a monotonic tick-based
// time subsystem whose unit conversions are overflow-safe for arbitrary
// tick frequencies.
//
// # Architecture
//
// An [Executor] owns a fixed pool of task slots and one intrusive lock-free
// run queue. [Spawner.Spawn] claims a slot for a [Future] and enqueues its
// first poll; the executor drains the queue in passes, polling each task
// once per pass. A pending future stashes its [Waker]; invoking the waker,
// from any goroutine, re-enqueues the task and wakes the executor through
// its [Pender] when the queue was empty. Nothing on the spawn/wake/poll
// cycle allocates.
//
// The time subsystem counts ticks of a process-wide [Driver] registered via
// [SetDriver]. [Duration] and [Instant] are unsigned tick counts whose unit
// conversions reduce the frequency/unit fraction by its greatest common
// divisor and multiply in 128 bits, so results are exact: arithmetic never
// wraps and never saturates, it either succeeds, fails a Checked variant,
// or panics. [Timer], [Ticker], and [Timeout] are futures over driver
// deadlines.
//
// # Hosting
//
// The [Pender] is the only environment-specific piece:
//   - [ChanPender] (default): the executor runs on its own goroutine via
//     [Executor.Run].
//   - [CallbackPender]: the executor is embedded in a host event loop,
//     which calls [Executor.Step] whenever the callback fires.
//   - [SpinPender]: busy-wait flag, for latency-critical or restricted
//     hosts.
//   - [EventfdPender] (Linux): wakes via eventfd write, safe from signal
//     handlers and C callbacks.
//
// # Thread Safety
//
//   - [Spawner.Spawn] and [Waker.Wake] are safe from any goroutine and are
//     lock-free.
//   - Polling is single-consumer: one Run loop or Step caller at a time,
//     enforced by the executor state machine.
//   - Futures are polled only by the executor goroutine and need no
//     internal synchronization for state they alone own.
//
// # Usage
//
//	tickloop.SetDriver(tickloop.NewMockDriver(1_000))
//
//	ex, err := tickloop.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = ex.Run(ctx, func(sp tickloop.Spawner) {
//	    var t *tickloop.Timer
//	    sp.MustSpawn(tickloop.FutureFunc(func(w tickloop.Waker) tickloop.Poll {
//	        if t == nil {
//	            t = tickloop.After(tickloop.Millis(100))
//	        }
//	        if t.Poll(w) == tickloop.Pending {
//	            return tickloop.Pending
//	        }
//	        fmt.Println("tick")
//	        return tickloop.Ready
//	    }))
//	})
//
// # Failure Model
//
// Capacity exhaustion is an error ([ErrSpawnBusy]), contract violations are
// panics, and arithmetic that cannot represent its result is a panic unless
// the Checked variant was used. A future that panics mid-poll is logged,
// completed, and released; the executor survives.
package tickloop
