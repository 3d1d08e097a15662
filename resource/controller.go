// Package resource tracks global limits: resident tree memory, load
// concurrency, and persistence IO throughput. All Controller methods are
// safe for concurrent use and become no-ops on a nil receiver.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MemoryBudgetBytes is the soft budget for resident tree memory.
	// If 0, usage is tracked but OverBudget never reports true.
	MemoryBudgetBytes int64

	// MaxConcurrentLoads is the maximum number of trees decoded from
	// storage at the same time. If 0, defaults to 4.
	MaxConcurrentLoads int64

	// IOLimitBytesPerSec is the maximum persistence IO throughput.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages global resources (memory, load concurrency, IO).
type Controller struct {
	cfg Config

	// Memory
	memUsed atomic.Int64

	// Concurrency
	loadSem *semaphore.Weighted

	// IO
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentLoads <= 0 {
		cfg.MaxConcurrentLoads = 4
	}

	c := &Controller{
		cfg:     cfg,
		loadSem: semaphore.NewWeighted(cfg.MaxConcurrentLoads),
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// ReserveMemory records bytes as resident. Reservations always succeed;
// the budget is soft and callers reconcile through OverBudget.
func (c *Controller) ReserveMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	c.memUsed.Add(bytes)
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryBudget returns the configured memory budget in bytes (0 if unlimited).
func (c *Controller) MemoryBudget() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryBudgetBytes
}

// OverBudget reports whether current usage exceeds the configured budget.
// Always false when no budget is configured.
func (c *Controller) OverBudget() bool {
	if c == nil || c.cfg.MemoryBudgetBytes <= 0 {
		return false
	}
	return c.memUsed.Load() > c.cfg.MemoryBudgetBytes
}

// AcquireLoad reserves a tree-load slot.
// Blocks if all slots are busy.
func (c *Controller) AcquireLoad(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.loadSem.Acquire(ctx, 1)
}

// ReleaseLoad releases a tree-load slot.
func (c *Controller) ReleaseLoad() {
	if c == nil {
		return
	}
	c.loadSem.Release(1)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than the limiter's burst are split so WaitN never
// rejects them outright.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}

	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := bytes
		if n > burst {
			n = burst
		}
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}

	return nil
}
