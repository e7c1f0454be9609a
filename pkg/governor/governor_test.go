package governor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSampler struct {
	mu      sync.Mutex
	samples [][2]uint64 // used, total
	calls   int
	err     error
}

func (f *fakeSampler) Sample(context.Context) (uint64, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, 0, f.err
	}
	s := f.samples[min(f.calls, len(f.samples)-1)]
	f.calls++
	return s[0], s[1], nil
}

type countingLogger struct {
	mu    sync.Mutex
	warns int
}

func (l *countingLogger) Warn(string, ...any) {
	l.mu.Lock()
	l.warns++
	l.mu.Unlock()
}

func TestWaitForPressureRelief(t *testing.T) {
	tests := []struct {
		name      string
		samples   [][2]uint64
		wantCalls int
	}{
		{name: "no pressure", samples: [][2]uint64{{50, 100}}, wantCalls: 1},
		{name: "exactly at threshold", samples: [][2]uint64{{80, 100}}, wantCalls: 1},
		{name: "pressure relieved", samples: [][2]uint64{{95, 100}, {90, 100}, {40, 100}}, wantCalls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler := &fakeSampler{samples: tt.samples}
			logger := &countingLogger{}
			g := New(sampler, logger, 0.8, time.Millisecond)

			if err := g.WaitForPressureRelief(context.Background()); err != nil {
				t.Fatalf("WaitForPressureRelief() error = %v", err)
			}
			if sampler.calls != tt.wantCalls {
				t.Errorf("sampled %d times, want %d", sampler.calls, tt.wantCalls)
			}
			if logger.warns != tt.wantCalls-1 {
				t.Errorf("logged %d warnings, want %d", logger.warns, tt.wantCalls-1)
			}
		})
	}
}

func TestWaitForPressureReliefCancelled(t *testing.T) {
	sampler := &fakeSampler{samples: [][2]uint64{{99, 100}}}
	g := New(sampler, &countingLogger{}, 0.8, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := g.WaitForPressureRelief(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForPressureRelief() error = %v, want deadline exceeded", err)
	}
}

func TestWaitForPressureReliefSamplerError(t *testing.T) {
	sampler := &fakeSampler{err: errors.New("unavailable")}
	g := New(sampler, &countingLogger{}, 0.8, time.Hour)
	if err := g.WaitForPressureRelief(context.Background()); err != nil {
		t.Errorf("WaitForPressureRelief() error = %v, want nil", err)
	}
}
