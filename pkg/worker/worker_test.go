package worker

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/screa/partial-key-cracker/internal/crypto"
	"github.com/screa/partial-key-cracker/pkg/keyspace"
	"github.com/screa/partial-key-cracker/pkg/types"
)

type fakeVerifier struct {
	mu        sync.Mutex
	rejects   int // rejections left before accepting again
	submitted []*types.VerificationRequest
	counts    int
	skipped   int
}

func (f *fakeVerifier) TrySubmit(req *types.VerificationRequest) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rejects > 0 {
		f.rejects--
		return false
	}
	f.submitted = append(f.submitted, req)
	return true
}

func (f *fakeVerifier) Count(ctx context.Context, skipped bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts++
	if skipped {
		f.skipped++
	}
	return ctx.Err()
}

type fakeGovernor struct {
	mu    sync.Mutex
	calls int
}

func (g *fakeGovernor) WaitForPressureRelief(ctx context.Context) error {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	return ctx.Err()
}

type fakeLogger struct {
	mu    sync.Mutex
	warns int
	found int
}

func (l *fakeLogger) Warn(string, ...any) {
	l.mu.Lock()
	l.warns++
	l.mu.Unlock()
}

func (l *fakeLogger) Found(string, ...any) {
	l.mu.Lock()
	l.found++
	l.mu.Unlock()
}

func firstByteKey(b byte) []byte {
	key := make([]byte, crypto.PrivateKeyLen)
	key[0] = b
	return key
}

func TestWorkerKnownTargetMatch(t *testing.T) {
	target, err := crypto.DeriveAddress(firstByteKey(1))
	if err != nil {
		t.Fatal(err)
	}
	config := &types.WorkerConfig{Target: &target, MemoryCheckEvery: 10000}
	v := &fakeVerifier{}
	logger := &fakeLogger{}
	w := NewWorker(0, config, v, &fakeGovernor{}, logger)

	candidates := keyspace.Enumerate(make([]byte, 32), 0, 1)
	result, err := w.Process(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result == nil {
		t.Fatal("Process() found no match")
	}
	if !bytes.Equal(result.PrivateKey, firstByteKey(1)) || result.Address != target {
		t.Errorf("unexpected result %x %s", result.PrivateKey, result.Address.Hex())
	}
	// the all-zero key is skipped, the match itself is not counted
	if v.counts != 1 || v.skipped != 1 {
		t.Errorf("counts = %d (skipped %d), want 1 (1)", v.counts, v.skipped)
	}
	if result.Attempts != 2 || logger.found != 1 {
		t.Errorf("attempts = %d, found lines = %d", result.Attempts, logger.found)
	}
}

func TestWorkerSubmitsForBalanceCheck(t *testing.T) {
	config := &types.WorkerConfig{MemoryCheckEvery: 100, BackpressureSleep: time.Millisecond}
	v := &fakeVerifier{rejects: 3}
	gov := &fakeGovernor{}
	logger := &fakeLogger{}
	w := NewWorker(0, config, v, gov, logger)

	candidates := keyspace.Enumerate(make([]byte, 32), 31, 32)
	result, err := w.Process(context.Background(), candidates)
	if err != nil || result != nil {
		t.Fatalf("Process() = %v, %v", result, err)
	}
	if len(v.submitted) != 255 || v.skipped != 1 {
		t.Errorf("submitted %d, skipped %d; want 255 and 1", len(v.submitted), v.skipped)
	}
	if logger.warns != 3 {
		t.Errorf("backpressure warnings = %d, want 3", logger.warns)
	}
	if gov.calls != 2 {
		t.Errorf("governor consulted %d times, want 2", gov.calls)
	}
	// requests leave in candidate order
	for i := 1; i < len(v.submitted); i++ {
		if v.submitted[i].PrivateKey[31] != v.submitted[i-1].PrivateKey[31]+1 {
			t.Fatalf("request %d out of order", i)
		}
	}
}

func TestWorkerBackpressureCancelled(t *testing.T) {
	config := &types.WorkerConfig{MemoryCheckEvery: 100, BackpressureSleep: time.Hour}
	v := &fakeVerifier{rejects: 1}
	w := NewWorker(0, config, v, &fakeGovernor{}, &fakeLogger{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := w.Process(ctx, [][]byte{firstByteKey(1)})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Process() error = %v, want deadline exceeded", err)
	}
}
