package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"orderhash/internal/eip712"
	"orderhash/internal/limitorder"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

func newHashCmd(a *app) *cobra.Command {
	var printTypedData bool

	cmd := &cobra.Command{
		Use:   "hash [typed-data.json]",
		Short: "Hash an eth_signTypedData_v4 payload read from a file or stdin",
		Long: "Hash an eth_signTypedData_v4 payload read from a file or stdin.\n" +
			"With --example, print the typed data of the example limit order for the configured domain instead.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if printTypedData {
				return a.printExample(cmd)
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return hashTypedData(cmd, in)
		},
	}
	cmd.Flags().BoolVar(&printTypedData, "example", false, "Print the example limit order as typed data")
	return cmd
}

func hashTypedData(cmd *cobra.Command, in io.Reader) error {
	td, err := eip712.DecodeTypedData(in)
	if err != nil {
		return err
	}

	hash, err := td.Hash()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), hash.Hex())
	return nil
}

func (a *app) printExample(cmd *cobra.Command) error {
	chainID := a.cfg.ChainID
	if chainID == 0 {
		chainID = limitorder.LocalChainID
	}

	hasher, err := limitorder.NewHasher(uint256.NewInt(chainID), a.cfg.Router())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(hasher.LimitOrderTypedData(limitorder.ExampleLimitOrder()))
}
