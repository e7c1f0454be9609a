package governor

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
)

// MemorySampler reports system memory usage in bytes.
type MemorySampler interface {
	Sample(ctx context.Context) (used, total uint64, err error)
}

// SystemSampler samples virtual memory of the host.
type SystemSampler struct{}

// Sample implements MemorySampler.
func (SystemSampler) Sample(ctx context.Context) (uint64, uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read memory stats: %w", err)
	}
	return vm.Used, vm.Total, nil
}

// Logger is the subset of the application logger used by the governor.
type Logger interface {
	Warn(format string, v ...any)
}

// Governor pauses candidate generation while memory usage is above a threshold.
type Governor struct {
	sampler   MemorySampler
	logger    Logger
	threshold float64
	interval  time.Duration
}

// New creates a governor that halts callers while used/total exceeds threshold,
// resampling every interval.
func New(sampler MemorySampler, logger Logger, threshold float64, interval time.Duration) *Governor {
	return &Governor{
		sampler:   sampler,
		logger:    logger,
		threshold: threshold,
		interval:  interval,
	}
}

// WaitForPressureRelief blocks while memory pressure is above the threshold.
// A failed sample is treated as no pressure.
func (g *Governor) WaitForPressureRelief(ctx context.Context) error {
	for {
		used, total, err := g.sampler.Sample(ctx)
		if err != nil || total == 0 || float64(used)/float64(total) <= g.threshold {
			return ctx.Err()
		}

		g.logger.Warn("Halting processing while keys are checked (memory %.0f%% used)",
			100*float64(used)/float64(total))

		timer := time.NewTimer(g.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
