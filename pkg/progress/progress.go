package progress

import (
	"time"

	"github.com/screa/partial-key-cracker/pkg/types"
)

// Sink receives progress samples.
type Sink interface {
	Report(s types.Sample)
}

// Reporter turns processed-key counts into throughput and coverage samples.
// It is not safe for concurrent use; the verification loop owns it.
type Reporter struct {
	total     uint64
	lastTime  time.Time
	lastCount uint64
	sinks     []Sink
}

// NewReporter creates a reporter for a search space of total keys, starting
// its first interval at start.
func NewReporter(total uint64, start time.Time, sinks ...Sink) *Reporter {
	return &Reporter{
		total:    total,
		lastTime: start,
		sinks:    sinks,
	}
}

// Tick computes a sample for count at now, forwards it to the sinks and makes
// it the reference point for the next tick.
func (r *Reporter) Tick(now time.Time, count uint64) types.Sample {
	s := types.Sample{
		Time:  now,
		Count: count,
		Total: r.total,
	}
	if r.total > 0 {
		s.Percent = 100 * float64(count) / float64(r.total)
	}

	// Whole seconds only; a sub-second or backwards tick carries no rate.
	if d := now.Sub(r.lastTime); d >= time.Second && count >= r.lastCount {
		s.Rate = (count - r.lastCount) / uint64(d/time.Second)
		s.HasRate = true
	}

	r.lastTime = now
	r.lastCount = count

	for _, sink := range r.sinks {
		sink.Report(s)
	}
	return s
}
