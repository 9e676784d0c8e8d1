package tickloop

import (
	"sync/atomic"
)

// ExecutorState represents the current state of an executor.
//
// State Machine:
//
//	StateIdle (0) → StateDraining       [Run() / Step()]
//	StateDraining → StateWaiting        [no runnable tasks, via CAS]
//	StateDraining → StateIdle           [Step() completes, via CAS]
//	StateWaiting → StateDraining        [pender wake, via CAS]
//	StateIdle → StateClosed             [Close() before any Run]
//	StateDraining → StateClosing        [Close()]
//	StateWaiting → StateClosing         [Close()]
//	StateClosing → StateClosed          [Run()/Step() observes close]
//	StateClosed → (terminal)
//
// State Transition Rules:
//   - Use tryTransition (CAS) for the reversible states (Draining, Waiting)
//   - Use store only for the irreversible final state (Closed)
type ExecutorState uint64

const (
	// StateIdle indicates the executor has been created but no consumer is
	// driving it.
	StateIdle ExecutorState = iota
	// StateDraining indicates the executor is actively polling tasks.
	StateDraining
	// StateWaiting indicates the executor is blocked in the pender waiting
	// for a wake.
	StateWaiting
	// StateClosing indicates Close has been called but the consumer has not
	// yet observed it.
	StateClosing
	// StateClosed indicates the executor is fully stopped.
	StateClosed
)

// String returns a human-readable representation of the state.
func (s ExecutorState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateDraining:
		return "Draining"
	case StateWaiting:
		return "Waiting"
	case StateClosing:
		return "Closing"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// fastState is a lock-free state machine with cache-line padding.
//
// PERFORMANCE: Pure atomic CAS operations, no mutex. The padding prevents
// false sharing with the run queue head, which is written by producers.
type fastState struct { // betteralign:ignore
	_ [sizeOfCacheLine]byte                      // Cache line padding (before value) //nolint:unused
	v atomic.Uint64                              // State value
	_ [sizeOfCacheLine - sizeOfAtomicUint64]byte // Pad to complete cache line //nolint:unused
}

// load returns the current state atomically.
func (x *fastState) load() ExecutorState {
	return ExecutorState(x.v.Load())
}

// store atomically stores a new state.
// WARNING: No transition validation; reserved for irreversible states.
func (x *fastState) store(state ExecutorState) {
	x.v.Store(uint64(state))
}

// tryTransition attempts to atomically transition from one state to another.
// Returns true if the transition was successful.
func (x *fastState) tryTransition(from, to ExecutorState) bool {
	return x.v.CompareAndSwap(uint64(from), uint64(to))
}

// transitionAny attempts to transition from any of the given source states
// to the target. Returns true if the transition was successful.
func (x *fastState) transitionAny(validFrom []ExecutorState, to ExecutorState) bool {
	for _, from := range validFrom {
		if x.v.CompareAndSwap(uint64(from), uint64(to)) {
			return true
		}
	}
	return false
}
