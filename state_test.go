package tickloop

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestExecutorState_String(t *testing.T) {
	tests := []struct {
		state ExecutorState
		want  string
	}{
		{StateIdle, "Idle"},
		{StateDraining, "Draining"},
		{StateWaiting, "Waiting"},
		{StateClosing, "Closing"},
		{StateClosed, "Closed"},
		{ExecutorState(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("ExecutorState(%d).String() = %q, want %q", uint64(tt.state), got, tt.want)
		}
	}
}

func Test_fastState_ZeroValueIsIdle(t *testing.T) {
	var s fastState
	if got := s.load(); got != StateIdle {
		t.Errorf("zero fastState = %v, want Idle", got)
	}
}

func Test_fastState_tryTransition(t *testing.T) {
	var s fastState
	if !s.tryTransition(StateIdle, StateDraining) {
		t.Fatal("Idle→Draining failed on idle state")
	}
	if s.tryTransition(StateIdle, StateDraining) {
		t.Fatal("Idle→Draining succeeded twice")
	}
	if got := s.load(); got != StateDraining {
		t.Fatalf("state = %v, want Draining", got)
	}
	if !s.tryTransition(StateDraining, StateWaiting) {
		t.Fatal("Draining→Waiting failed")
	}
	s.store(StateClosed)
	if got := s.load(); got != StateClosed {
		t.Fatalf("state = %v, want Closed", got)
	}
}

func Test_fastState_transitionAny(t *testing.T) {
	var s fastState
	s.store(StateWaiting)
	if !s.transitionAny([]ExecutorState{StateDraining, StateWaiting}, StateClosing) {
		t.Fatal("transitionAny failed from Waiting")
	}
	if got := s.load(); got != StateClosing {
		t.Fatalf("state = %v, want Closing", got)
	}
	if s.transitionAny([]ExecutorState{StateDraining, StateWaiting}, StateClosing) {
		t.Fatal("transitionAny succeeded from Closing")
	}
}

// Test_fastState_ConcurrentTransition verifies CAS exclusivity: many
// goroutines race the same transition and exactly one wins.
func Test_fastState_ConcurrentTransition(t *testing.T) {
	const goroutines = 32
	var s fastState
	var wins atomic.Int32
	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer done.Done()
			start.Wait()
			if s.tryTransition(StateIdle, StateDraining) {
				wins.Add(1)
			}
		}()
	}
	start.Done()
	done.Wait()
	if got := wins.Load(); got != 1 {
		t.Fatalf("transition won by %d goroutines, want 1", got)
	}
	if got := s.load(); got != StateDraining {
		t.Fatalf("state = %v, want Draining", got)
	}
}
