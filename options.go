package tickloop

import (
	"fmt"

	"github.com/joeycumines/logiface"
)

// executorOptions holds configuration options for Executor creation.
type executorOptions struct {
	taskCapacity   int
	pender         Pender
	logger         *logiface.Logger[logiface.Event]
	metricsEnabled bool
}

// --- Executor Options ---

// ExecutorOption configures an Executor instance.
type ExecutorOption interface {
	applyExecutor(*executorOptions) error
}

// executorOptionImpl implements ExecutorOption.
type executorOptionImpl struct {
	applyExecutorFunc func(*executorOptions) error
}

func (x *executorOptionImpl) applyExecutor(opts *executorOptions) error {
	return x.applyExecutorFunc(opts)
}

// WithTaskCapacity sets the size of the fixed task slot pool. Spawns beyond
// the capacity fail with ErrSpawnBusy until slots free up. The default is
// DefaultTaskCapacity.
func WithTaskCapacity(n int) ExecutorOption {
	return &executorOptionImpl{func(opts *executorOptions) error {
		if n <= 0 {
			return fmt.Errorf("tickloop: task capacity must be positive, got %d", n)
		}
		opts.taskCapacity = n
		return nil
	}}
}

// WithPender sets the sleep/wake bridge. The default is a [ChanPender].
// See [SpinPender], [CallbackPender], and the platform penders for the
// other hosting styles.
func WithPender(p Pender) ExecutorOption {
	return &executorOptionImpl{func(opts *executorOptions) error {
		if p == nil {
			return fmt.Errorf("tickloop: nil pender")
		}
		opts.pender = p
		return nil
	}}
}

// WithLogger sets the executor's logger. Events cover lifecycle, spawn
// failures, and task panics; the poll and wake hot paths never log. A nil
// logger is valid and disables logging, which is also the default.
func WithLogger(logger *logiface.Logger[logiface.Event]) ExecutorOption {
	return &executorOptionImpl{func(opts *executorOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithMetrics enables runtime metrics collection on the Executor.
// When enabled, counters can be accessed via Executor.Metrics().
// The overhead is a handful of atomic increments per spawn/wake/poll.
func WithMetrics(enabled bool) ExecutorOption {
	return &executorOptionImpl{func(opts *executorOptions) error {
		opts.metricsEnabled = enabled
		return nil
	}}
}

// resolveExecutorOptions applies ExecutorOption instances to executorOptions.
func resolveExecutorOptions(opts []ExecutorOption) (*executorOptions, error) {
	cfg := &executorOptions{
		taskCapacity: DefaultTaskCapacity, // default
	}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyExecutor(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
