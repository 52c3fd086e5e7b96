package main

import (
	"context"
	"fmt"

	"orderhash/internal/chain"
	"orderhash/internal/limitorder"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Compare local digests of the example orders with the deployed router",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.verify(cmd.Context(), cmd)
		},
	}
}

type comparison struct {
	name   string
	local  func(*limitorder.Hasher) (ethcommon.Hash, error)
	remote func(context.Context, chain.Oracle) (ethcommon.Hash, error)
}

var comparisons = []comparison{
	{
		name: limitorder.LimitOrderTypeName,
		local: func(h *limitorder.Hasher) (ethcommon.Hash, error) {
			return h.LimitOrderHash(limitorder.ExampleLimitOrder())
		},
		remote: func(ctx context.Context, o chain.Oracle) (ethcommon.Hash, error) {
			return o.LimitOrderHash(ctx, limitorder.ExampleLimitOrder())
		},
	},
	{
		name: limitorder.MultiLimitOrderTypeName,
		local: func(h *limitorder.Hasher) (ethcommon.Hash, error) {
			return h.MultiLimitOrderHash(limitorder.ExampleMultiLimitOrder())
		},
		remote: func(ctx context.Context, o chain.Oracle) (ethcommon.Hash, error) {
			return o.MultiLimitOrderHash(ctx, limitorder.ExampleMultiLimitOrder())
		},
	},
}

func (a *app) verify(ctx context.Context, cmd *cobra.Command) error {
	client, chainID, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	router := a.cfg.Router()
	hasher, err := limitorder.NewHasher(chainID, router)
	if err != nil {
		return err
	}
	oracle, err := chain.NewRouterClient(router, client, a.logger)
	if err != nil {
		return err
	}

	return runComparisons(ctx, cmd, hasher, oracle, a.logger)
}

func runComparisons(ctx context.Context, cmd *cobra.Command, hasher *limitorder.Hasher, oracle chain.Oracle, logger *zap.Logger) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "domain separator: %s\n", hasher.DomainSeparator())

	mismatches := 0
	for _, c := range comparisons {
		local, err := c.local(hasher)
		if err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
		remote, err := c.remote(ctx, oracle)
		if err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}

		status := "match"
		if local != remote {
			status = "MISMATCH"
			mismatches++
			logger.Warn("Order hash mismatch",
				zap.String("type", c.name),
				zap.Stringer("local", local),
				zap.Stringer("router", remote))
		}
		fmt.Fprintf(out, "%s\n  local:  %s\n  router: %s\n  %s\n", c.name, local, remote, status)
	}

	if mismatches > 0 {
		return fmt.Errorf("%d of %d order hashes differ from the router", mismatches, len(comparisons))
	}
	return nil
}
