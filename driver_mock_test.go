package tickloop

import (
	"sync"
	"testing"
)

func TestNewMockDriver_ZeroFrequencyPanics(t *testing.T) {
	mustPanic(t, `tickloop: zero mock driver frequency`, func() {
		NewMockDriver(0)
	})
}

func TestMockDriver_NowAndAdvance(t *testing.T) {
	d := NewMockDriver(1000)
	if got := d.Frequency(); got != 1000 {
		t.Fatalf("Frequency = %d", got)
	}
	if got := d.Now().Ticks(); got != 0 {
		t.Fatalf("initial Now = %d", got)
	}
	d.Advance(Ticks(5))
	if got := d.Now().Ticks(); got != 5 {
		t.Fatalf("Now after Advance(5) = %d", got)
	}
	d.SetNow(InstantFromTicks(100))
	if got := d.Now().Ticks(); got != 100 {
		t.Fatalf("Now after SetNow(100) = %d", got)
	}
	// Setting the current time again is a no-op, not backwards movement.
	d.SetNow(InstantFromTicks(100))

	mustPanic(t, `tickloop: mock driver time moved backwards`, func() {
		d.SetNow(InstantFromTicks(50))
	})
	d.SetNow(MaxInstant)
	mustPanic(t, `tickloop: mock driver time overflow`, func() {
		d.Advance(Ticks(1))
	})
}

// TestMockDriver_FiresInDeadlineOrder registers three deadlines out of order
// and advances past all of them at once; tasks must complete earliest first.
func TestMockDriver_FiresInDeadlineOrder(t *testing.T) {
	d := setMockDriver(t, 1000)
	x, err := New()
	if err != nil {
		t.Fatal(err)
	}

	var order []uint64
	spawnTimerTask := func(deadline uint64) {
		timer := At(InstantFromTicks(deadline))
		x.Spawner().MustSpawn(FutureFunc(func(w Waker) Poll {
			if timer.Poll(w) == Pending {
				return Pending
			}
			order = append(order, deadline)
			return Ready
		}))
	}
	spawnTimerTask(30)
	spawnTimerTask(10)
	spawnTimerTask(20)

	if _, err := x.Step(); err != nil { // all three register
		t.Fatal(err)
	}

	d.Advance(Ticks(100))
	if _, err := x.Step(); err != nil {
		t.Fatal(err)
	}

	if len(order) != 3 || order[0] != 10 || order[1] != 20 || order[2] != 30 {
		t.Fatalf("completion order = %v, want [10 20 30]", order)
	}
}

// TestMockDriver_EqualDeadlinesFireInRegistrationOrder relies on the stable
// sort: ties break toward the earlier registration.
func TestMockDriver_EqualDeadlinesFireInRegistrationOrder(t *testing.T) {
	d := setMockDriver(t, 1000)
	x, err := New()
	if err != nil {
		t.Fatal(err)
	}

	var order []string
	spawnNamed := func(name string) {
		timer := At(InstantFromTicks(10))
		x.Spawner().MustSpawn(FutureFunc(func(w Waker) Poll {
			if timer.Poll(w) == Pending {
				return Pending
			}
			order = append(order, name)
			return Ready
		}))
	}
	spawnNamed("a")
	spawnNamed("b")

	if _, err := x.Step(); err != nil {
		t.Fatal(err)
	}
	d.Advance(Ticks(10))
	if _, err := x.Step(); err != nil {
		t.Fatal(err)
	}

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("completion order = %v, want [a b]", order)
	}
}

// TestMockDriver_KeepsEarliestDeadline re-schedules the same waker with a
// different deadline; the driver must hold a single entry at the minimum.
func TestMockDriver_KeepsEarliestDeadline(t *testing.T) {
	d := setMockDriver(t, 1000)
	x, err := New()
	if err != nil {
		t.Fatal(err)
	}

	h := x.Spawner().MustSpawn(pendingForever)
	if _, err := x.Step(); err != nil { // park the task
		t.Fatal(err)
	}
	w := h.Waker()

	d.ScheduleWake(InstantFromTicks(50), w)
	d.ScheduleWake(InstantFromTicks(30), w) // earlier: entry moves up
	d.ScheduleWake(InstantFromTicks(80), w) // later: ignored

	d.mu.Lock()
	entries, at := len(d.scheds), d.scheds[0].at
	d.mu.Unlock()
	if entries != 1 || at != 30 {
		t.Fatalf("entries=%d at=%d, want one entry at 30", entries, at)
	}

	d.Advance(Ticks(30))
	if polled, _ := x.Step(); !polled {
		t.Fatal("waker did not fire at the earliest deadline")
	}
}

// TestMockDriver_PastDeadlineWakesSynchronously schedules at the current
// time; the wake must happen inside ScheduleWake with nothing retained.
func TestMockDriver_PastDeadlineWakesSynchronously(t *testing.T) {
	d := setMockDriver(t, 1000)
	x, err := New()
	if err != nil {
		t.Fatal(err)
	}

	h := x.Spawner().MustSpawn(pendingForever)
	if _, err := x.Step(); err != nil {
		t.Fatal(err)
	}

	d.ScheduleWake(d.Now(), h.Waker())

	d.mu.Lock()
	entries := len(d.scheds)
	d.mu.Unlock()
	if entries != 0 {
		t.Fatalf("driver retained %d entries for a due deadline", entries)
	}
	if polled, _ := x.Step(); !polled {
		t.Fatal("synchronous wake did not enqueue the task")
	}
}

// TestMockDriver_ConcurrentAdvanceReschedule races ScheduleWake against
// Advance for a single waker. The task's timer bit and the driver's entry
// list must move together under the driver lock; otherwise a re-schedule
// that lands between an entry's removal and its bit clearing appends a
// duplicate. At quiesce the driver holds at most one entry for the waker,
// and the bit matches.
func TestMockDriver_ConcurrentAdvanceReschedule(t *testing.T) {
	d := setMockDriver(t, 1000)
	x, err := New()
	if err != nil {
		t.Fatal(err)
	}

	h := x.Spawner().MustSpawn(pendingForever)
	if _, err := x.Step(); err != nil { // park the task
		t.Fatal(err)
	}
	w := h.Waker()

	const rounds = 500
	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(2)
	go func() {
		defer done.Done()
		start.Wait()
		for range rounds {
			d.ScheduleWake(d.Now().Add(Ticks(2)), w)
		}
	}()
	go func() {
		defer done.Done()
		start.Wait()
		for range rounds {
			d.Advance(Ticks(1))
		}
	}()
	start.Done()
	done.Wait()

	d.mu.Lock()
	entries := 0
	for i := range d.scheds {
		if d.scheds[i].w == w {
			entries++
		}
	}
	bit := w.task.state.Load()&taskTimerQueued != 0
	d.mu.Unlock()

	if entries > 1 {
		t.Fatalf("driver holds %d entries for one waker", entries)
	}
	if bit != (entries == 1) {
		t.Fatalf("timer bit %v with %d entries", bit, entries)
	}
}

// TestMockDriver_ZeroWaker accepts and fires wakerless schedules without
// panicking; the zero waker is a no-op.
func TestMockDriver_ZeroWaker(t *testing.T) {
	d := NewMockDriver(1000)
	d.ScheduleWake(InstantFromTicks(10), Waker{})
	d.ScheduleWake(InstantFromTicks(10), Waker{})
	d.Advance(Ticks(10))
	if got := d.Now().Ticks(); got != 10 {
		t.Fatalf("Now = %d", got)
	}
}
