//go:build linux

package tickloop

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// EventfdPender blocks on a Linux eventfd. Notify is a single 8-byte write,
// which is async-signal-safe and allocation-free, so it is usable from the
// most restrictive contexts the platform has to offer (signal handlers,
// C callbacks). The kernel counter accumulates notifies; one read collapses
// them all, giving the level-triggered behavior Pender requires.
type EventfdPender struct {
	fd        int
	closeOnce sync.Once
}

// NewEventfdPender creates an EventfdPender.
func NewEventfdPender() (*EventfdPender, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("tickloop: create eventfd: %w", err)
	}
	return &EventfdPender{fd: fd}, nil
}

// Notify implements [Pender].
func (x *EventfdPender) Notify() {
	// PERFORMANCE: Native endianness, no binary.LittleEndian overhead
	var one uint64 = 1
	buf := (*[8]byte)(unsafe.Pointer(&one))[:]
	_, _ = unix.Write(x.fd, buf)
}

// Wait implements [Pender]. The read blocks until the counter is nonzero
// and does not observe ctx directly; the executor arranges a Notify on
// context cancellation, after which the context error is surfaced by the
// run loop.
func (x *EventfdPender) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf [8]byte
	for {
		_, err := unix.Read(x.fd, buf[:])
		if err == unix.EINTR {
			continue
		}
		return err
	}
}

// Close releases the eventfd. Waking a closed pender is a no-op at the
// write; a blocked Wait returns an error.
func (x *EventfdPender) Close() (err error) {
	x.closeOnce.Do(func() {
		err = unix.Close(x.fd)
	})
	return
}
