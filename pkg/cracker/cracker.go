package cracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/screa/partial-key-cracker/internal/config"
	"github.com/screa/partial-key-cracker/internal/logger"
	"github.com/screa/partial-key-cracker/pkg/governor"
	"github.com/screa/partial-key-cracker/pkg/keyspace"
	"github.com/screa/partial-key-cracker/pkg/oracle"
	"github.com/screa/partial-key-cracker/pkg/progress"
	"github.com/screa/partial-key-cracker/pkg/types"
	"github.com/screa/partial-key-cracker/pkg/verifier"
	"github.com/screa/partial-key-cracker/pkg/worker"
)

// ErrNoOracle is returned when a full node check is configured without an oracle.
var ErrNoOracle = errors.New("balance oracle required when checking against a full node")

// Cracker coordinates candidate generation and verification
type Cracker struct {
	config  *config.Config
	logger  *logger.Logger
	oracle  oracle.BalanceOracle
	sampler governor.MemorySampler
	sinks   []progress.Sink
	stats   types.Stats
	done    chan struct{}
	once    sync.Once
}

// NewCracker creates a new cracker instance. o may be nil when a known public
// key is configured. Extra sinks receive progress samples next to the log.
func NewCracker(cfg *config.Config, log *logger.Logger, o oracle.BalanceOracle, sampler governor.MemorySampler, sinks ...progress.Sink) *Cracker {
	return &Cracker{
		config:  cfg,
		logger:  log,
		oracle:  o,
		sampler: sampler,
		sinks:   sinks,
		done:    make(chan struct{}),
	}
}

type outcome struct {
	result *types.Result
	err    error
}

// Run enumerates the search space and verifies every candidate. It returns the
// discovered key, nil when the whole space holds no match, or an error when
// the configuration is unusable or the run was stopped.
func (c *Cracker) Run(ctx context.Context) (*types.Result, error) {
	start := time.Now()

	template, err := c.config.GetKey()
	if err != nil {
		return nil, err
	}
	wcfg := &types.WorkerConfig{
		MemoryCheckEvery:  c.config.MemoryCheckEvery,
		BackpressureSleep: c.config.BackpressureSleep,
	}
	if c.config.RemoteCheck() {
		if c.oracle == nil {
			return nil, ErrNoOracle
		}
	} else {
		target, err := c.config.GetKnownAddress()
		if err != nil {
			return nil, err
		}
		wcfg.Target = &target
	}

	total := c.Total()
	c.logger.Printf("Working to generate %d keys and check them for funds", total)

	candidates := keyspace.Enumerate(template, c.config.StartByte(), c.config.EndByte())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	sinks := append([]progress.Sink{progress.NewLogSink(c.logger)}, c.sinks...)
	reporter := progress.NewReporter(total, start, sinks...)
	actor := verifier.New(c.oracle, total, c.logger, reporter, verifier.Options{
		MailboxCapacity: c.config.MailboxCapacity,
		MaxInFlight:     c.config.MaxInFlight,
		TickInterval:    time.Duration(c.config.LogInterval) * time.Second,
		RetryDelay:      verifier.Jitter(c.config.RetryMaxDelay),
	})
	gov := governor.New(c.sampler, c.logger, c.config.MemoryThreshold, c.config.MemoryPollInterval)
	pool := worker.NewPool(c.config.WorkerCount(), wcfg, actor, gov, c.logger)

	actorDone := make(chan outcome, 1)
	poolDone := make(chan outcome, 1)
	go func() {
		r, err := actor.Run(ctx)
		actorDone <- outcome{r, err}
	}()
	go func() {
		r, err := pool.Run(ctx, candidates)
		poolDone <- outcome{r, err}
	}()

	var poolRes, actorRes outcome
	for pending := 2; pending > 0; pending-- {
		select {
		case poolRes = <-poolDone:
			if poolRes.err != nil || poolRes.result != nil {
				cancel()
				continue
			}
			c.logger.Printf("%d keys generated", len(candidates))
		case actorRes = <-actorDone:
			if actorRes.err != nil || actorRes.result != nil {
				cancel()
			}
		}
	}
	c.stats = actor.Stats()

	for _, res := range []outcome{poolRes, actorRes} {
		if res.result != nil {
			res.result.Duration = time.Since(start)
			return res.result, nil
		}
	}
	for _, res := range []outcome{poolRes, actorRes} {
		if res.err != nil {
			return nil, res.err
		}
	}
	return nil, nil
}

// Stop stops the search
func (c *Cracker) Stop() {
	c.once.Do(func() { close(c.done) })
}

// Stats returns the verification counters of the last run
func (c *Cracker) Stats() types.Stats {
	return c.stats
}

// Total returns the size of the configured search space
func (c *Cracker) Total() uint64 {
	return keyspace.Size(c.config.ScratchBytes()).Uint64()
}
