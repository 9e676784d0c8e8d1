package tickloop

import "errors"

// Standard errors.
var (
	// ErrExecutorRunning is returned when Run or Step is called while another
	// consumer is already driving the executor.
	ErrExecutorRunning = errors.New("tickloop: executor is already running")

	// ErrExecutorClosed is returned when operations are attempted on an
	// executor that has been closed.
	ErrExecutorClosed = errors.New("tickloop: executor has been closed")

	// ErrReentrantRun is returned when Run or Step is called from within a
	// task polled by the same executor.
	ErrReentrantRun = errors.New("tickloop: cannot call Run or Step from within a task")

	// ErrSpawnBusy is returned by Spawner.Spawn when every task slot is in
	// use. Spawns are never queued; retry after a task completes, or size the
	// pool with WithTaskCapacity.
	ErrSpawnBusy = errors.New("tickloop: spawn failed: no free task slot")

	// ErrTimeout is reported by Timeout.Err when the deadline won the race.
	ErrTimeout = errors.New("tickloop: timeout")

	// ErrPenderUnsupported is returned by Pender.Wait implementations that
	// cannot block, such as CallbackPender. Drive those executors with Step.
	ErrPenderUnsupported = errors.New("tickloop: pender does not support blocking wait")
)
