package runner

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// DefaultSampleDelay is how long CPU usage is observed after launch.
const DefaultSampleDelay = 100 * time.Millisecond

// Usage is a single resource reading for a process.
type Usage struct {
	CPUPercent float64
	MemoryMB   float64
}

// Sampler takes one resource reading of a running process.
// ok is false when the process was gone or could not be inspected.
type Sampler interface {
	Sample(ctx context.Context, pid int) (u Usage, ok bool)
}

// ProcessSampler reads usage from the OS process table.
type ProcessSampler struct {
	Delay time.Duration
}

// NewProcessSampler returns a sampler that observes CPU for delay. A non-positive delay uses DefaultSampleDelay.
func NewProcessSampler(delay time.Duration) *ProcessSampler {
	if delay <= 0 {
		delay = DefaultSampleDelay
	}
	return &ProcessSampler{Delay: delay}
}

func (s *ProcessSampler) Sample(ctx context.Context, pid int) (Usage, bool) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return Usage{}, false
	}

	cpuPercent, err := p.PercentWithContext(ctx, s.Delay)
	if err != nil {
		return Usage{}, false
	}

	memInfo, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return Usage{}, false
	}

	return Usage{
		CPUPercent: cpuPercent,
		MemoryMB:   float64(memInfo.RSS) / 1024 / 1024,
	}, true
}
