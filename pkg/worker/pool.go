package worker

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/screa/partial-key-cracker/pkg/types"
)

var errMatchFound = errors.New("match found")

// Partition is a half-open range [Start, End) of the candidate list
type Partition struct {
	Start int
	End   int
}

// Len returns the number of candidates in the partition
func (p Partition) Len() int {
	return p.End - p.Start
}

// Split divides total candidates into contiguous partitions of total/workers
// each, the last one absorbing the remainder. Fewer partitions are returned
// when there are fewer candidates than workers.
func Split(total, workers int) []Partition {
	if total <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	per := total / workers
	parts := make([]Partition, workers)
	for i := range parts {
		parts[i] = Partition{Start: i * per, End: (i + 1) * per}
	}
	parts[len(parts)-1].End = total
	return parts
}

// Pool runs one worker goroutine per partition
type Pool struct {
	workers  int
	config   *types.WorkerConfig
	verifier Verifier
	governor Governor
	logger   Logger
}

// NewPool creates a pool of the given size
func NewPool(workers int, config *types.WorkerConfig, verifier Verifier, governor Governor, logger Logger) *Pool {
	return &Pool{
		workers:  workers,
		config:   config,
		verifier: verifier,
		governor: governor,
		logger:   logger,
	}
}

// Run processes all candidates and waits for every worker. It returns the
// first match in known-target mode; the remaining workers are stopped.
func (p *Pool) Run(ctx context.Context, candidates [][]byte) (*types.Result, error) {
	g, ctx := errgroup.WithContext(ctx)

	var (
		once  sync.Once
		found *types.Result
	)

	for id, part := range Split(len(candidates), p.workers) {
		keys := candidates[part.Start:part.End]
		w := NewWorker(id, p.config, p.verifier, p.governor, p.logger)
		g.Go(func() error {
			result, err := w.Process(ctx, keys)
			if err != nil {
				return err
			}
			if result != nil {
				once.Do(func() { found = result })
				return errMatchFound
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, errMatchFound) {
		return nil, err
	}
	return found, nil
}
