package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/screa/partial-key-cracker/internal/config"
	"github.com/screa/partial-key-cracker/internal/crypto"
	logpkg "github.com/screa/partial-key-cracker/internal/logger"
	crackerpkg "github.com/screa/partial-key-cracker/pkg/cracker"
	"github.com/screa/partial-key-cracker/pkg/governor"
	"github.com/screa/partial-key-cracker/pkg/keyspace"
	"github.com/screa/partial-key-cracker/pkg/oracle"
	"github.com/screa/partial-key-cracker/pkg/progress"
	"github.com/screa/partial-key-cracker/pkg/types"
)

var (
	cfg    = config.NewConfig()
	logger *logpkg.Logger
)

func main() {
	if err := cfg.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var rootCmd = &cobra.Command{
		Use:   "partial-key-cracker",
		Short: "Recover an Ethereum private key with a few unknown bytes",
		Long: `Exhaustively searches the unknown bytes of a partially known private key.
Candidates are compared against a known public key, or checked for funds
through a full node when no public key is known.`,
		Run: runCracker,
	}

	rootCmd.Flags().StringVarP(&cfg.Key, "key", "k", cfg.Key, "The partial private key to crack, padded to full length with zeros (hex)")
	rootCmd.Flags().IntVarP(&cfg.StartIndex, "start-index", "s", cfg.StartIndex, "The starting location of the unknown part of the key (hex characters)")
	rootCmd.Flags().IntVarP(&cfg.EndIndex, "end-index", "e", cfg.EndIndex, "The ending location of the unknown part of the key (hex characters)")
	rootCmd.Flags().StringVarP(&cfg.KnownAddress, "known-public-key", "p", cfg.KnownAddress, "A known public key to compare against, removes the need for a full node and is much faster")
	rootCmd.Flags().StringVarP(&cfg.FullNode, "fullnode", "f", cfg.FullNode, "The full node used to check the balance if no public key is known")
	rootCmd.Flags().IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "Number of worker goroutines (default: all CPUs, or 1 with --fullnode)")
	rootCmd.Flags().StringVarP(&cfg.LogFile, "log-file", "l", cfg.LogFile, "Log file for progress tracking (default: stdout)")
	rootCmd.Flags().IntVarP(&cfg.LogInterval, "log-interval", "i", cfg.LogInterval, "Progress interval in seconds")
	rootCmd.Flags().BoolVarP(&cfg.ProgressBar, "progress-bar", "b", cfg.ProgressBar, "Show a progress bar on stderr")
	rootCmd.Flags().IntVar(&cfg.MailboxCapacity, "mailbox-capacity", cfg.MailboxCapacity, "Balance checks queued before generation backs off")
	rootCmd.Flags().IntVar(&cfg.MaxInFlight, "max-in-flight", cfg.MaxInFlight, "Concurrent balance queries against the full node")
	rootCmd.Flags().IntVar(&cfg.MaxRPS, "max-rps", cfg.MaxRPS, "Maximum balance queries per second (0: unlimited)")
	rootCmd.Flags().DurationVar(&cfg.RPCTimeout, "rpc-timeout", cfg.RPCTimeout, "Timeout of a single balance query")
	rootCmd.Flags().DurationVar(&cfg.RetryMaxDelay, "retry-max-delay", cfg.RetryMaxDelay, "Upper bound of the random delay before a failed query is retried")
	rootCmd.Flags().Float64Var(&cfg.MemoryThreshold, "memory-threshold", cfg.MemoryThreshold, "Memory usage ratio above which generation pauses")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCracker(cmd *cobra.Command, args []string) {
	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	// Setup logging
	setupLogging()
	logger.Printf("Starting partial key cracker with %d workers...", cfg.WorkerCount())
	logger.Printf("Mode: %s", cfg.GetModeDescription())
	logger.Printf("Unknown bytes: [%d, %d)", cfg.StartByte(), cfg.EndByte())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var balances oracle.BalanceOracle
	if cfg.RemoteCheck() {
		client, err := oracle.Dial(ctx, cfg.FullNode, cfg.RPCTimeout, cfg.MaxRPS)
		if err != nil {
			logger.Printf("Error: %v", err)
			os.Exit(1)
		}
		defer client.Close()
		balances = client
	}

	var sinks []progress.Sink
	var bar *progress.BarSink
	if cfg.ProgressBar {
		bar = progress.NewBarSink(os.Stderr, keyspace.Size(cfg.ScratchBytes()).Uint64())
		sinks = append(sinks, bar)
	}

	cracker := crackerpkg.NewCracker(cfg, logger, balances, governor.SystemSampler{}, sinks...)

	// Set up signal handling for Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Println("\nReceived interrupt signal (Ctrl+C). Stopping...")
		cracker.Stop()
	}()

	result, err := cracker.Run(ctx)
	if bar != nil {
		bar.Finish()
	}
	stats := cracker.Stats()
	logger.Printf("Checked %d keys (%d underivable, %d balance query retries)", stats.Processed, stats.Skipped, stats.Retries)

	switch {
	case errors.Is(err, context.Canceled):
		logger.Println("Search stopped by user.")
	case err != nil:
		logger.Printf("Error: %v", err)
		os.Exit(1)
	case result != nil:
		reportFound(result)
	default:
		logger.Println("Search space exhausted, no match found.")
	}
}

func reportFound(result *types.Result) {
	logger.Found("Found a key!")
	logger.Found("Private key: %x", result.PrivateKey)
	logger.Found("Address: %s", crypto.ChecksumAddress(result.Address))
	if result.Balance != nil {
		logger.Found("Balance: %s wei", result.Balance)
	}
	logger.Printf("Attempts: %d", result.Attempts)
	logger.Printf("Duration: %v", result.Duration)

	// Calculate rate safely
	rate := 0.0
	if result.Duration.Seconds() > 0 {
		rate = float64(result.Attempts) / result.Duration.Seconds()
	}
	logger.Printf("Rate: %.2f keys/sec", rate)
}

func setupLogging() {
	if cfg.LogFile != "" {
		// Log to file
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		logger = logpkg.NewWriter(file)
		logger.SetFlags(log.LstdFlags | log.Lmicroseconds)
	} else {
		// Log to stdout
		logger = logpkg.New()
		logger.SetFlags(log.LstdFlags)
	}
}
