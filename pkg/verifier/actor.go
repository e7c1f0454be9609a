package verifier

import (
	"context"
	"math/big"
	"math/rand"
	"time"

	"github.com/screa/partial-key-cracker/internal/crypto"
	"github.com/screa/partial-key-cracker/pkg/oracle"
	"github.com/screa/partial-key-cracker/pkg/progress"
	"github.com/screa/partial-key-cracker/pkg/types"
)

// Logger is the subset of the application logger used by the actor.
type Logger interface {
	Printf(format string, v ...any)
	Found(format string, v ...any)
}

// Options tunes the actor.
type Options struct {
	MailboxCapacity int
	MaxInFlight     int
	TickInterval    time.Duration
	// RetryDelay picks the wait before a failed query is resent.
	RetryDelay func() time.Duration
}

// DefaultOptions returns the mailbox, concurrency and retry settings used by the CLI.
func DefaultOptions() Options {
	return Options{
		MailboxCapacity: 1000,
		MaxInFlight:     64,
		TickInterval:    5 * time.Second,
		RetryDelay:      Jitter(10 * time.Second),
	}
}

// Jitter returns a delay picker sampling uniformly from [0, bound).
func Jitter(bound time.Duration) func() time.Duration {
	return func() time.Duration {
		return time.Duration(rand.Int63n(int64(bound)))
	}
}

// count reports a candidate resolved without a balance check.
type count struct {
	skipped bool
}

type queryResult struct {
	req     *types.VerificationRequest
	balance *big.Int
	err     error
}

// Actor owns the search state and verifies candidates against a balance
// oracle. Messages are handled one at a time by Run; balance queries run in
// the background and report back through the same loop.
type Actor struct {
	oracle   oracle.BalanceOracle
	logger   Logger
	reporter *progress.Reporter
	opts     Options
	total    uint64

	mailbox chan *types.VerificationRequest
	counts  chan count
	results chan queryResult

	// owned by Run
	processed uint64
	skipped   uint64
	retries   uint64
	inFlight  int
}

// New creates an actor for a search space of total candidates.
func New(o oracle.BalanceOracle, total uint64, logger Logger, reporter *progress.Reporter, opts Options) *Actor {
	def := DefaultOptions()
	if opts.MailboxCapacity <= 0 {
		opts.MailboxCapacity = def.MailboxCapacity
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = def.MaxInFlight
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = def.TickInterval
	}
	if opts.RetryDelay == nil {
		opts.RetryDelay = def.RetryDelay
	}
	return &Actor{
		oracle:   o,
		logger:   logger,
		reporter: reporter,
		opts:     opts,
		total:    total,
		mailbox:  make(chan *types.VerificationRequest, opts.MailboxCapacity),
		counts:   make(chan count, opts.MailboxCapacity),
		results:  make(chan queryResult, opts.MaxInFlight),
	}
}

// TrySubmit queues req for a balance check. It returns false without blocking
// when the mailbox is full.
func (a *Actor) TrySubmit(req *types.VerificationRequest) bool {
	select {
	case a.mailbox <- req:
		return true
	default:
		return false
	}
}

// Count records a candidate that was resolved by the caller. Skipped marks
// candidates that could not be derived. Counts are accepted even while the
// oracle is saturated.
func (a *Actor) Count(ctx context.Context, skipped bool) error {
	select {
	case a.counts <- count{skipped: skipped}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes the mailbox until a funded key is found, every candidate has
// been accounted for, or ctx is cancelled. It returns the funded key if any.
func (a *Actor) Run(ctx context.Context) (*types.Result, error) {
	a.logger.Printf("Balance checking event loop started")

	ticker := time.NewTicker(a.opts.TickInterval)
	defer ticker.Stop()

	for a.processed < a.total {
		// Stop taking new requests while the oracle is saturated; the mailbox
		// then fills up and producers back off.
		mailbox := a.mailbox
		if a.inFlight >= a.opts.MaxInFlight {
			mailbox = nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case req := <-mailbox:
			a.check(ctx, req)
		case c := <-a.counts:
			a.processed++
			if c.skipped {
				a.skipped++
			}
		case res := <-a.results:
			if found := a.resolve(ctx, res); found != nil {
				return found, nil
			}
		case now := <-ticker.C:
			a.reporter.Tick(now, a.processed)
		}
	}

	a.reporter.Tick(time.Now(), a.processed)
	return nil, nil
}

// Stats returns the verification counters. Call it after Run has returned.
func (a *Actor) Stats() types.Stats {
	return types.Stats{
		Processed: a.processed,
		Skipped:   a.skipped,
		Retries:   a.retries,
	}
}

func (a *Actor) check(ctx context.Context, req *types.VerificationRequest) {
	a.inFlight++
	go func() {
		balance, err := a.oracle.GetBalance(ctx, req.Address)
		// results has room for every in-flight query
		a.results <- queryResult{req: req, balance: balance, err: err}
	}()
}

func (a *Actor) resolve(ctx context.Context, res queryResult) *types.Result {
	a.inFlight--

	if res.err != nil {
		a.retries++
		res.req.Attempts++
		a.retry(ctx, res.req, a.opts.RetryDelay())
		return nil
	}

	if res.balance != nil && res.balance.Sign() != 0 {
		a.logger.Found("Found a key! %x %s", res.req.PrivateKey, crypto.ChecksumAddress(res.req.Address))
		return &types.Result{
			PrivateKey: res.req.PrivateKey,
			Address:    res.req.Address,
			Balance:    res.balance,
			Attempts:   a.processed + 1,
		}
	}

	a.processed++
	return nil
}

// retry resends req to the mailbox after delay.
func (a *Actor) retry(ctx context.Context, req *types.VerificationRequest, delay time.Duration) {
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}
		select {
		case a.mailbox <- req:
		case <-ctx.Done():
		}
	}()
}
