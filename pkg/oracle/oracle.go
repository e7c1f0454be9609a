package oracle

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/ratelimit"
)

// BalanceOracle answers whether an address holds funds.
// Implementations must be side-effect free so failed queries can be retried.
type BalanceOracle interface {
	GetBalance(ctx context.Context, addr common.Address) (*big.Int, error)
}

// balanceReader is the part of ethclient.Client the oracle needs.
type balanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	Close()
}

// Client queries account balances from a full node over JSON-RPC.
type Client struct {
	rpc     balanceReader
	url     string
	timeout time.Duration
	limiter ratelimit.Limiter
}

// Dial connects to the full node at url. Each query is bounded by timeout;
// maxRPS caps the request rate, 0 leaves it unlimited.
func Dial(ctx context.Context, url string, timeout time.Duration, maxRPS int) (*Client, error) {
	rpc, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to full node %s: %w", url, err)
	}
	return newClient(rpc, url, timeout, maxRPS), nil
}

func newClient(rpc balanceReader, url string, timeout time.Duration, maxRPS int) *Client {
	limiter := ratelimit.NewUnlimited()
	if maxRPS > 0 {
		limiter = ratelimit.New(maxRPS, ratelimit.WithoutSlack)
	}
	return &Client{
		rpc:     rpc,
		url:     url,
		timeout: timeout,
		limiter: limiter,
	}
}

// GetBalance returns the latest balance of addr in wei.
func (c *Client) GetBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	c.limiter.Take()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	balance, err := c.rpc.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance of %s: %w", addr.Hex(), err)
	}
	return balance, nil
}

// URL returns the full node endpoint.
func (c *Client) URL() string {
	return c.url
}

// Close releases the underlying connection.
func (c *Client) Close() {
	c.rpc.Close()
}
