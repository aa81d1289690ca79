package chain

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// Client is a thin adapter over Solana JSON-RPC for the balance-lookup
// collaborator used by the slow-drain poller.
type Client struct {
	rpc    *rpc.Client
	logger *zap.Logger
}

func NewClient(rpcURL string, logger *zap.Logger) *Client {
	return &Client{
		rpc:    rpc.New(rpcURL),
		logger: logger.Named("chain_client"),
	}
}

// LargestHolderBalance returns the raw balance of the largest holder
// account of the mint, in base units. A mint with no holder accounts
// reports zero, which the poller treats as fully drained.
func (c *Client) LargestHolderBalance(ctx context.Context, mint string) (uint64, error) {
	pk, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return 0, fmt.Errorf("invalid mint %q: %w", mint, err)
	}

	result, err := c.rpc.GetTokenLargestAccounts(ctx, pk, rpc.CommitmentConfirmed)
	if err != nil {
		c.logger.Debug("GetTokenLargestAccounts error",
			zap.String("mint", mint),
			zap.Error(err))
		return 0, err
	}
	if result == nil || len(result.Value) == 0 {
		return 0, nil
	}

	balance, err := strconv.ParseUint(result.Value[0].Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse holder balance: %w", err)
	}
	return balance, nil
}

// ValidMint reports whether s parses as a Solana account address of
// plausible mint length.
func ValidMint(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	_, err := solana.PublicKeyFromBase58(s)
	return err == nil
}
