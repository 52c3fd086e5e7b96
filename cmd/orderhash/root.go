package main

import (
	"context"
	"fmt"

	"orderhash/internal/chain"
	"orderhash/internal/config"
	"orderhash/internal/logging"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries the resolved configuration and logger to the subcommands.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cfg, loadErr := config.Load()
	if loadErr != nil {
		// reported once a command runs, so --help still works
		cfg = &config.Config{}
	}

	rootCmd := &cobra.Command{
		Use:          "orderhash",
		Short:        "EIP-712 order hashing for the limit order router",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if loadErr != nil {
				return fmt.Errorf("failed to load config: %w", loadErr)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := logging.New(cfg.Debug)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	cfg.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newServeCmd(a),
		newVerifyCmd(a),
		newHashCmd(a),
	)
	return rootCmd
}

// connect dials the configured node and resolves the domain chain ID. A
// configured chain ID wins over the node's, with a warning if they differ.
func (a *app) connect(ctx context.Context) (*ethclient.Client, *uint256.Int, error) {
	client, err := chain.Dial(ctx, a.cfg.RPCURL, chain.DefaultBackOff(a.cfg.RPCWait), a.logger)
	if err != nil {
		return nil, nil, err
	}

	nodeChainID, err := chain.FetchChainID(ctx, client)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	if a.cfg.ChainID == 0 {
		return client, nodeChainID, nil
	}

	chainID := uint256.NewInt(a.cfg.ChainID)
	if !chainID.Eq(nodeChainID) {
		a.logger.Warn("Configured chain ID differs from the node",
			zap.Uint64("configured", a.cfg.ChainID),
			zap.Stringer("node", nodeChainID))
	}
	return client, chainID, nil
}
