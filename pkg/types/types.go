package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Result represents a discovered key
type Result struct {
	PrivateKey []byte
	Address    common.Address
	Balance    *big.Int // nil when matched against a known public key
	Attempts   uint64   // candidates examined by the stage that found it
	Duration   time.Duration
}

// VerificationRequest is a derived key waiting for a balance check
type VerificationRequest struct {
	PrivateKey []byte
	Address    common.Address
	Attempts   int // failed balance queries so far
}

// WorkerConfig contains configuration shared read-only by all workers
type WorkerConfig struct {
	Target            *common.Address // nil when verifying against a full node
	MemoryCheckEvery  int
	BackpressureSleep time.Duration
}

// Sample is a single progress measurement
type Sample struct {
	Time    time.Time
	Count   uint64
	Total   uint64
	Rate    uint64 // keys per second, valid only when HasRate is set
	HasRate bool
	Percent float64
}

// Stats summarises the verification stage
type Stats struct {
	Processed uint64
	Skipped   uint64
	Retries   uint64
}
