package tickloop

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// TestPender_LevelTriggered verifies the core pender contract for every
// in-package implementation that supports Wait: a notify delivered while
// nobody waits causes the next wait to return immediately, and any number of
// notifies collapse into one.
func TestPender_LevelTriggered(t *testing.T) {
	penders := []struct {
		name string
		p    Pender
	}{
		{"ChanPender", NewChanPender()},
		{"SpinPender", NewSpinPender()},
	}
	for _, tt := range penders {
		t.Run(tt.name, func(t *testing.T) {
			tt.p.Notify()
			tt.p.Notify()
			tt.p.Notify()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tt.p.Wait(ctx); err != nil {
				t.Fatalf("Wait after Notify = %v", err)
			}

			// The level was consumed; with no further notify the next wait
			// must block until the context expires.
			shortCtx, shortCancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer shortCancel()
			if err := tt.p.Wait(shortCtx); !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("Wait without Notify = %v, want DeadlineExceeded", err)
			}
		})
	}
}

func TestPender_WaitCancelled(t *testing.T) {
	penders := []struct {
		name string
		p    Pender
	}{
		{"ChanPender", NewChanPender()},
		{"SpinPender", NewSpinPender()},
	}
	for _, tt := range penders {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			if err := tt.p.Wait(ctx); !errors.Is(err, context.Canceled) {
				t.Fatalf("Wait = %v, want Canceled", err)
			}
		})
	}
}

// TestPender_NotifyUnblocksWaiter covers the blocking side: a waiter parked
// before the notify arrives must wake.
func TestPender_NotifyUnblocksWaiter(t *testing.T) {
	penders := []struct {
		name string
		p    Pender
	}{
		{"ChanPender", NewChanPender()},
		{"SpinPender", NewSpinPender()},
	}
	for _, tt := range penders {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			waited := make(chan error, 1)
			go func() { waited <- tt.p.Wait(ctx) }()

			time.Sleep(time.Millisecond)
			tt.p.Notify()

			select {
			case err := <-waited:
				if err != nil {
					t.Fatalf("Wait = %v", err)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("waiter never woke")
			}
		})
	}
}

func TestSpinPender_ZeroValue(t *testing.T) {
	var p SpinPender
	p.Notify()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("Wait = %v", err)
	}
}

func TestCallbackPender(t *testing.T) {
	var calls atomic.Int32
	p := NewCallbackPender(func() { calls.Add(1) })

	p.Notify()
	p.Notify()
	if got := calls.Load(); got != 2 {
		t.Fatalf("callback invoked %d times, want 2", got)
	}

	if err := p.Wait(context.Background()); !errors.Is(err, ErrPenderUnsupported) {
		t.Fatalf("Wait = %v, want ErrPenderUnsupported", err)
	}
}

func TestNewCallbackPender_NilPanics(t *testing.T) {
	mustPanic(t, `tickloop: nil pender callback`, func() {
		NewCallbackPender(nil)
	})
}

// TestPender_NotifyDoesNotAllocate pins the non-allocating notify contract;
// wakers call Notify from the hot path.
func TestPender_NotifyDoesNotAllocate(t *testing.T) {
	var n atomic.Int64
	penders := []struct {
		name string
		p    Pender
	}{
		{"ChanPender", NewChanPender()},
		{"SpinPender", NewSpinPender()},
		{"CallbackPender", NewCallbackPender(func() { n.Add(1) })},
	}
	for _, tt := range penders {
		t.Run(tt.name, func(t *testing.T) {
			if allocs := testing.AllocsPerRun(1000, tt.p.Notify); allocs > 0 {
				t.Fatalf("Notify allocates %f objects/op", allocs)
			}
		})
	}
}
