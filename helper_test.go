package tickloop

import (
	"runtime"
	"testing"
	"time"
)

// setMockDriver installs a fresh MockDriver as the process-wide time
// driver. Tests share the driver registration, so anything that touches the
// time subsystem must install its own driver and must not run in parallel.
func setMockDriver(t *testing.T, frequency uint64) *MockDriver {
	t.Helper()
	d := NewMockDriver(frequency)
	SetDriver(d)
	return d
}

// mustPanic asserts that fn panics with exactly the given value.
func mustPanic(t *testing.T, want string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic %q, got none", want)
		}
		s, ok := r.(string)
		if !ok || s != want {
			t.Fatalf("panic = %v, want %q", r, want)
		}
	}()
	fn()
}

// waitForState spins until the executor reaches the given state.
func waitForState(t *testing.T, x *Executor, want ExecutorState) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for x.State() != want {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for executor state %v (currently %v)", want, x.State())
		default:
			runtime.Gosched()
		}
	}
}
