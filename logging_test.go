package tickloop

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// captureLogger returns a debug-level JSON logger writing each event to the
// returned buffer as a single line, with no time field, so output is
// deterministic.
func captureLogger() (*logiface.Logger[logiface.Event], *bytes.Buffer) {
	var buf bytes.Buffer
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(&buf),
			stumpy.WithTimeField(``),
		),
		stumpy.L.WithLevel(logiface.LevelDebug),
	).Logger()
	return logger, &buf
}

func TestLogging_SpawnEvents(t *testing.T) {
	logger, buf := captureLogger()
	x, err := New(WithLogger(logger), WithTaskCapacity(1))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := x.Spawner().Spawn(pendingForever); err != nil {
		t.Fatalf("spawn failed: %v", err)
	}
	if _, err := x.Spawner().Spawn(pendingForever); !errors.Is(err, ErrSpawnBusy) {
		t.Fatalf("expected ErrSpawnBusy, got %v", err)
	}

	got := buf.String()
	want := `{"lvl":"debug","slot":0,"msg":"task spawned"}` + "\n" +
		`{"lvl":"debug","capacity":1,"msg":"spawn failed: no free task slot"}` + "\n"
	if got != want {
		t.Errorf("unexpected log output\ngot:  %q\nwant: %q", got, want)
	}
}

func TestLogging_RunLifecycle(t *testing.T) {
	logger, buf := captureLogger()
	x, err := New(WithLogger(logger), WithTaskCapacity(4))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := x.Run(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	got := buf.String()
	want := `{"lvl":"info","tasks":4,"msg":"executor running"}` + "\n" +
		`{"lvl":"info","msg":"executor stopped"}` + "\n"
	if got != want {
		t.Errorf("unexpected log output\ngot:  %q\nwant: %q", got, want)
	}
}

func TestLogging_TaskPanic(t *testing.T) {
	logger, buf := captureLogger()
	x, err := New(WithLogger(logger), WithTaskCapacity(1))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := x.Spawner().Spawn(FutureFunc(func(Waker) Poll {
		panic(`boom`)
	})); err != nil {
		t.Fatalf("spawn failed: %v", err)
	}
	if polled, err := x.Step(); err != nil || !polled {
		t.Fatalf("step: polled=%v err=%v", polled, err)
	}

	got := buf.String()
	// The stack trace is not deterministic, so match around it.
	if !strings.Contains(got, `{"lvl":"err","slot":0,"panic":"boom","stack":"goroutine`) {
		t.Errorf("missing panic event prefix: %q", got)
	}
	if !strings.Contains(got, `"msg":"task panicked"}`+"\n") {
		t.Errorf("missing panic event message: %q", got)
	}
}

func TestLogging_DebugSuppressedAtDefaultLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := stumpy.L.New(stumpy.L.WithStumpy(
		stumpy.WithWriter(&buf),
		stumpy.WithTimeField(``),
	)).Logger()
	x, err := New(WithLogger(logger), WithTaskCapacity(1))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := x.Spawner().Spawn(pendingForever); err != nil {
		t.Fatalf("spawn failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected spawn debug event to be filtered, got %q", buf.String())
	}
}
