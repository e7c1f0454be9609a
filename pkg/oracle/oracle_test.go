package oracle

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type fakeReader struct {
	balance  *big.Int
	err      error
	delay    time.Duration
	deadline bool
	closed   bool
}

func (f *fakeReader) BalanceAt(ctx context.Context, _ common.Address, block *big.Int) (*big.Int, error) {
	_, f.deadline = ctx.Deadline()
	if block != nil {
		return nil, errors.New("expected latest block")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.balance, f.err
}

func (f *fakeReader) Close() { f.closed = true }

func TestGetBalance(t *testing.T) {
	reader := &fakeReader{balance: big.NewInt(42)}
	c := newClient(reader, "http://node", time.Second, 0)

	got, err := c.GetBalance(context.Background(), common.Address{})
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	if got.Int64() != 42 {
		t.Errorf("GetBalance() = %s, want 42", got)
	}
	if !reader.deadline {
		t.Error("query ran without a deadline")
	}

	c.Close()
	if !reader.closed {
		t.Error("Close() did not close the rpc client")
	}
}

func TestGetBalanceTimeout(t *testing.T) {
	reader := &fakeReader{balance: big.NewInt(0), delay: time.Second}
	c := newClient(reader, "http://node", 10*time.Millisecond, 0)

	_, err := c.GetBalance(context.Background(), common.Address{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("GetBalance() error = %v, want deadline exceeded", err)
	}
}

func TestGetBalanceRateLimited(t *testing.T) {
	reader := &fakeReader{balance: big.NewInt(0)}
	c := newClient(reader, "http://node", time.Second, 20)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.GetBalance(context.Background(), common.Address{}); err != nil {
			t.Fatal(err)
		}
	}
	// 20 rps spaces requests 50ms apart
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("3 requests took %v, expected rate limiting", elapsed)
	}
}
