package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

type chainIDClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// DefaultBackOff retries the readiness probe for up to maxWait.
func DefaultBackOff(maxWait time.Duration) backoff.BackOff {
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(250*time.Millisecond),
		backoff.WithMaxInterval(5*time.Second),
		backoff.WithMaxElapsedTime(maxWait),
	)
}

// Dial connects to rpcURL and blocks until the node answers eth_chainId.
func Dial(ctx context.Context, rpcURL string, b backoff.BackOff, logger *zap.Logger) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}

	if err := waitUntilClientReady(ctx, client, b, logger); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("Connected to RPC node", zap.String("url", rpcURL))
	return client, nil
}

func waitUntilClientReady(ctx context.Context, client chainIDClient, b backoff.BackOff, logger *zap.Logger) error {
	return backoff.RetryNotify(
		func() error {
			_, err := client.ChainID(ctx)
			if err != nil {
				return fmt.Errorf("node isn't ready: %w", err)
			}
			return nil
		},
		backoff.WithContext(b, ctx),
		func(err error, next time.Duration) {
			logger.Debug("Waiting for RPC node", zap.Error(err), zap.Duration("retryIn", next))
		},
	)
}

// FetchChainID returns the network chain ID reported by the node.
func FetchChainID(ctx context.Context, client chainIDClient) (*uint256.Int, error) {
	id, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain ID: %w", err)
	}

	chainID, overflow := uint256.FromBig(id)
	if overflow {
		return nil, fmt.Errorf("chain ID %s does not fit in 256 bits", id)
	}
	return chainID, nil
}
