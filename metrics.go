package tickloop

import (
	"sync/atomic"
)

// Metrics tracks executor counters. All counters are atomic and the
// methods are safe from any goroutine; collection is enabled per executor
// via WithMetrics, and Executor.Metrics returns nil otherwise.
//
// The counters live on the spawn/wake/poll paths, so they are plain
// increments with no locks and no allocation.
type Metrics struct {
	_ [0]func()

	spawns        atomic.Uint64
	spawnFailures atomic.Uint64
	polls         atomic.Uint64
	completions   atomic.Uint64
	panics        atomic.Uint64
	wakes         atomic.Uint64
	notifies      atomic.Uint64
	drains        atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	// Spawns counts successful task spawns.
	Spawns uint64
	// SpawnFailures counts spawns rejected for capacity or closure.
	SpawnFailures uint64
	// Polls counts future polls.
	Polls uint64
	// Completions counts tasks that finished (including panics).
	Completions uint64
	// Panics counts futures that panicked during a poll.
	Panics uint64
	// Wakes counts effective wakes, i.e. those that enqueued a task.
	// No-op wakes (dormant or already-queued tasks) are not counted.
	Wakes uint64
	// Notifies counts pender notifications, one per empty-to-non-empty
	// queue transition.
	Notifies uint64
	// DrainPasses counts non-empty drain passes.
	DrainPasses uint64
}

// Snapshot returns a point-in-time copy of the counters. Nil-safe: a nil
// receiver yields a zero snapshot, so call sites need no metrics-enabled
// checks.
func (x *Metrics) Snapshot() MetricsSnapshot {
	if x == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		Spawns:        x.spawns.Load(),
		SpawnFailures: x.spawnFailures.Load(),
		Polls:         x.polls.Load(),
		Completions:   x.completions.Load(),
		Panics:        x.panics.Load(),
		Wakes:         x.wakes.Load(),
		Notifies:      x.notifies.Load(),
		DrainPasses:   x.drains.Load(),
	}
}
