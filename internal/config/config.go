package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/screa/partial-key-cracker/internal/crypto"
)

// EnvPrefix is the prefix of environment variables read by LoadEnv.
const EnvPrefix = "KEYCRACK"

// MaxScratchBytes bounds the unknown region; every candidate is held in memory
// before the search starts.
const MaxScratchBytes = 3

// Errors
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")

	ErrKeyTooShort     = fmt.Errorf("%w: key must be padded with zeros to at least %d bytes", ErrInvalidConfiguration, crypto.PrivateKeyLen)
	ErrInvalidKey      = fmt.Errorf("%w: key is not valid hex", ErrInvalidConfiguration)
	ErrInvalidOffsets  = fmt.Errorf("%w: start index must be below end index and inside the key", ErrInvalidConfiguration)
	ErrScratchTooLarge = fmt.Errorf("%w: unknown region larger than %d bytes", ErrInvalidConfiguration, MaxScratchBytes)
	ErrModeConflict    = fmt.Errorf("%w: --known-public-key and --fullnode are mutually exclusive", ErrInvalidConfiguration)
	ErrNoMode          = fmt.Errorf("%w: must specify either --known-public-key or --fullnode", ErrInvalidConfiguration)
	ErrInvalidTarget   = fmt.Errorf("%w: known public key is not a valid address", ErrInvalidConfiguration)
	ErrInvalidTuning   = fmt.Errorf("%w: tuning values must be positive and the memory threshold in (0,1]", ErrInvalidConfiguration)
)

// Config holds the application configuration
type Config struct {
	Key          string `envconfig:"KEY"`
	StartIndex   int    `envconfig:"START_INDEX"` // hex-character index into Key
	EndIndex     int    `envconfig:"END_INDEX"`   // hex-character index into Key
	KnownAddress string `envconfig:"KNOWN_PUBLIC_KEY"`
	FullNode     string `envconfig:"FULLNODE"`

	Workers     int    `envconfig:"WORKERS"`
	LogFile     string `envconfig:"LOG_FILE"`
	LogInterval int    `envconfig:"LOG_INTERVAL"` // Logging interval in seconds
	ProgressBar bool   `envconfig:"PROGRESS_BAR"`

	MailboxCapacity    int           `envconfig:"MAILBOX_CAPACITY"`
	BackpressureSleep  time.Duration `envconfig:"BACKPRESSURE_SLEEP"`
	RetryMaxDelay      time.Duration `envconfig:"RETRY_MAX_DELAY"`
	MemoryThreshold    float64       `envconfig:"MEMORY_THRESHOLD"`
	MemoryPollInterval time.Duration `envconfig:"MEMORY_POLL_INTERVAL"`
	MemoryCheckEvery   int           `envconfig:"MEMORY_CHECK_EVERY"`
	RPCTimeout         time.Duration `envconfig:"RPC_TIMEOUT"`
	MaxInFlight        int           `envconfig:"MAX_IN_FLIGHT"`
	MaxRPS             int           `envconfig:"MAX_RPS"` // 0 disables the limit
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		LogInterval:        5,
		MailboxCapacity:    1000,
		BackpressureSleep:  5 * time.Second,
		RetryMaxDelay:      10 * time.Second,
		MemoryThreshold:    0.8,
		MemoryPollInterval: 5 * time.Second,
		MemoryCheckEvery:   10000,
		RPCTimeout:         time.Second,
		MaxInFlight:        64,
	}
}

// LoadEnv applies an optional .env file and KEYCRACK_* environment variables
// on top of the current values.
func (c *Config) LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.KnownAddress != "" && c.FullNode != "" {
		return ErrModeConflict
	}
	if c.KnownAddress == "" && c.FullNode == "" {
		return ErrNoMode
	}

	key, err := c.GetKey()
	if err != nil {
		return err
	}
	start, end := c.StartByte(), c.EndByte()
	if c.StartIndex < 0 || start >= end || end > len(key) {
		return ErrInvalidOffsets
	}
	if end-start > MaxScratchBytes {
		return ErrScratchTooLarge
	}

	if c.KnownAddress != "" {
		if _, err := c.GetKnownAddress(); err != nil {
			return err
		}
	}

	if c.MailboxCapacity <= 0 || c.MaxInFlight <= 0 || c.MemoryCheckEvery <= 0 ||
		c.LogInterval <= 0 || c.RetryMaxDelay <= 0 || c.RPCTimeout <= 0 || c.MaxRPS < 0 ||
		c.BackpressureSleep <= 0 || c.MemoryPollInterval <= 0 ||
		c.MemoryThreshold <= 0 || c.MemoryThreshold > 1 {
		return ErrInvalidTuning
	}
	return nil
}

// RemoteCheck reports whether candidates are verified against a full node.
func (c *Config) RemoteCheck() bool {
	return c.FullNode != ""
}

// GetKey decodes the key template
func (c *Config) GetKey() ([]byte, error) {
	key, err := crypto.DecodeHex(c.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(key) < crypto.PrivateKeyLen {
		return nil, fmt.Errorf("%w (got %d bytes)", ErrKeyTooShort, len(key))
	}
	return key, nil
}

// GetKnownAddress parses the known public key
func (c *Config) GetKnownAddress() (common.Address, error) {
	addr, err := crypto.ParseAddress(c.KnownAddress)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	return addr, nil
}

// StartByte returns the first unknown byte offset
func (c *Config) StartByte() int {
	return c.StartIndex / 2
}

// EndByte returns the end (exclusive) of the unknown byte region
func (c *Config) EndByte() int {
	return c.EndIndex / 2
}

// ScratchBytes returns the length of the unknown region in bytes
func (c *Config) ScratchBytes() int {
	return c.EndByte() - c.StartByte()
}

// WorkerCount returns the number of generation workers. A full node check is
// bound by the remote oracle, so a single generator is used unless explicitly set.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	if c.RemoteCheck() {
		return 1
	}
	return runtime.NumCPU()
}

// GetModeDescription returns a human-readable description of the verification mode
func (c *Config) GetModeDescription() string {
	if c.RemoteCheck() {
		return "balance check via " + c.FullNode
	}
	return "known public key " + c.KnownAddress
}
