package worker

import (
	"context"
	"time"

	"github.com/screa/partial-key-cracker/internal/crypto"
	"github.com/screa/partial-key-cracker/pkg/types"
)

// Verifier accepts derived candidates. It is implemented by verifier.Actor.
type Verifier interface {
	TrySubmit(req *types.VerificationRequest) bool
	Count(ctx context.Context, skipped bool) error
}

// Governor throttles generation under memory pressure.
type Governor interface {
	WaitForPressureRelief(ctx context.Context) error
}

// Logger is the subset of the application logger used by workers.
type Logger interface {
	Warn(format string, v ...any)
	Found(format string, v ...any)
}

// Worker derives addresses for one partition of the candidate list
type Worker struct {
	id       int
	config   *types.WorkerConfig
	verifier Verifier
	governor Governor
	logger   Logger
}

// NewWorker creates a new worker instance
func NewWorker(id int, config *types.WorkerConfig, verifier Verifier, governor Governor, logger Logger) *Worker {
	return &Worker{
		id:       id,
		config:   config,
		verifier: verifier,
		governor: governor,
		logger:   logger,
	}
}

// Process derives every key in keys. With a known target it compares locally
// and returns the matching key; otherwise each derived key is queued for a
// balance check. A nil result with a nil error means the partition is done.
func (w *Worker) Process(ctx context.Context, keys [][]byte) (*types.Result, error) {
	for i, key := range keys {
		// sampling memory is expensive, do it less frequently
		if (i+1)%w.config.MemoryCheckEvery == 0 {
			if err := w.governor.WaitForPressureRelief(ctx); err != nil {
				return nil, err
			}
		}

		addr, err := crypto.DeriveAddress(key)
		if err != nil {
			// the all-zero key and keys past the curve order have no address
			if err := w.verifier.Count(ctx, true); err != nil {
				return nil, err
			}
			continue
		}

		if w.config.Target != nil {
			if addr == *w.config.Target {
				w.logger.Found("Found a key! %x %s", key, crypto.ChecksumAddress(addr))
				return &types.Result{
					PrivateKey: key,
					Address:    addr,
					Attempts:   uint64(i + 1),
				}, nil
			}
			if err := w.verifier.Count(ctx, false); err != nil {
				return nil, err
			}
			continue
		}

		if err := w.submit(ctx, &types.VerificationRequest{PrivateKey: key, Address: addr}); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// submit blocks until the verifier accepts req, sleeping while its mailbox is full.
func (w *Worker) submit(ctx context.Context, req *types.VerificationRequest) error {
	for !w.verifier.TrySubmit(req) {
		w.logger.Warn("backpressure! worker %d waiting %v for the balance checker", w.id, w.config.BackpressureSleep)

		timer := time.NewTimer(w.config.BackpressureSleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}
