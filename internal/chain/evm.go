package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"orderhash/internal/limitorder"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// ABI fragment containing only the two order hash views of the router
const routerABI = `[
  {
    "type": "function",
    "name": "getLimitOrderHash",
    "inputs": [
      {
        "name": "order",
        "type": "tuple",
        "internalType": "struct OdosLimitOrderRouter.LimitOrder",
        "components": [
          {
            "name": "input",
            "type": "tuple",
            "internalType": "struct OdosLimitOrderRouter.TokenInfo",
            "components": [
              {"name": "tokenAddress", "type": "address", "internalType": "address"},
              {"name": "tokenAmount", "type": "uint256", "internalType": "uint256"}
            ]
          },
          {
            "name": "output",
            "type": "tuple",
            "internalType": "struct OdosLimitOrderRouter.TokenInfo",
            "components": [
              {"name": "tokenAddress", "type": "address", "internalType": "address"},
              {"name": "tokenAmount", "type": "uint256", "internalType": "uint256"}
            ]
          },
          {"name": "expiry", "type": "uint256", "internalType": "uint256"},
          {"name": "salt", "type": "uint256", "internalType": "uint256"},
          {"name": "referralCode", "type": "uint32", "internalType": "uint32"},
          {"name": "partiallyFillable", "type": "bool", "internalType": "bool"}
        ]
      }
    ],
    "outputs": [
      {"name": "hash", "type": "bytes32", "internalType": "bytes32"}
    ],
    "stateMutability": "view"
  },
  {
    "type": "function",
    "name": "getMultiLimitOrderHash",
    "inputs": [
      {
        "name": "order",
        "type": "tuple",
        "internalType": "struct OdosLimitOrderRouter.MultiLimitOrder",
        "components": [
          {
            "name": "inputs",
            "type": "tuple[]",
            "internalType": "struct OdosLimitOrderRouter.TokenInfo[]",
            "components": [
              {"name": "tokenAddress", "type": "address", "internalType": "address"},
              {"name": "tokenAmount", "type": "uint256", "internalType": "uint256"}
            ]
          },
          {
            "name": "outputs",
            "type": "tuple[]",
            "internalType": "struct OdosLimitOrderRouter.TokenInfo[]",
            "components": [
              {"name": "tokenAddress", "type": "address", "internalType": "address"},
              {"name": "tokenAmount", "type": "uint256", "internalType": "uint256"}
            ]
          },
          {"name": "expiry", "type": "uint256", "internalType": "uint256"},
          {"name": "salt", "type": "uint256", "internalType": "uint256"},
          {"name": "referralCode", "type": "uint32", "internalType": "uint32"},
          {"name": "partiallyFillable", "type": "bool", "internalType": "bool"}
        ]
      }
    ],
    "outputs": [
      {"name": "hash", "type": "bytes32", "internalType": "bytes32"}
    ],
    "stateMutability": "view"
  }
]`

const (
	limitOrderHashMethod      = "getLimitOrderHash"
	multiLimitOrderHashMethod = "getMultiLimitOrderHash"
)

// --- Go types matching the Solidity structs, with `abi` tags for packing ---
type abiTokenInfo struct {
	TokenAddress common.Address `abi:"tokenAddress"`
	TokenAmount  *big.Int       `abi:"tokenAmount"`
}

type abiLimitOrder struct {
	Input             abiTokenInfo `abi:"input"`
	Output            abiTokenInfo `abi:"output"`
	Expiry            *big.Int     `abi:"expiry"`
	Salt              *big.Int     `abi:"salt"`
	ReferralCode      uint32       `abi:"referralCode"`
	PartiallyFillable bool         `abi:"partiallyFillable"`
}

type abiMultiLimitOrder struct {
	Inputs            []abiTokenInfo `abi:"inputs"`
	Outputs           []abiTokenInfo `abi:"outputs"`
	Expiry            *big.Int       `abi:"expiry"`
	Salt              *big.Int       `abi:"salt"`
	ReferralCode      uint32         `abi:"referralCode"`
	PartiallyFillable bool           `abi:"partiallyFillable"`
}

// Oracle returns the order hashes a deployed router computes on-chain.
type Oracle interface {
	LimitOrderHash(ctx context.Context, order limitorder.LimitOrder) (common.Hash, error)
	MultiLimitOrderHash(ctx context.Context, order limitorder.MultiLimitOrder) (common.Hash, error)
}

// RouterClient calls the router's hash views through eth_call.
type RouterClient struct {
	address  common.Address
	contract *bind.BoundContract
	logger   *zap.Logger
}

var _ Oracle = (*RouterClient)(nil)

func NewRouterClient(address common.Address, caller bind.ContractCaller, logger *zap.Logger) (*RouterClient, error) {
	parsedABI, err := abi.JSON(strings.NewReader(routerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}

	return &RouterClient{
		address:  address,
		contract: bind.NewBoundContract(address, parsedABI, caller, nil, nil),
		logger:   logger,
	}, nil
}

func (c *RouterClient) Address() common.Address { return c.address }

// LimitOrderHash calls getLimitOrderHash on the router
func (c *RouterClient) LimitOrderHash(ctx context.Context, order limitorder.LimitOrder) (common.Hash, error) {
	arg, err := toABILimitOrder(order)
	if err != nil {
		return common.Hash{}, err
	}
	return c.callHash(ctx, limitOrderHashMethod, arg)
}

// MultiLimitOrderHash calls getMultiLimitOrderHash on the router
func (c *RouterClient) MultiLimitOrderHash(ctx context.Context, order limitorder.MultiLimitOrder) (common.Hash, error) {
	arg, err := toABIMultiLimitOrder(order)
	if err != nil {
		return common.Hash{}, err
	}
	return c.callHash(ctx, multiLimitOrderHashMethod, arg)
}

func (c *RouterClient) callHash(ctx context.Context, method string, arg any) (common.Hash, error) {
	var out []any
	err := c.contract.Call(
		&bind.CallOpts{Context: ctx},
		&out,
		method,
		arg,
	)
	if err != nil {
		c.logger.Error("Router call failed",
			zap.String("method", method),
			zap.Stringer("router", c.address),
			zap.Error(err))
		return common.Hash{}, fmt.Errorf("%s: %w", method, err)
	}
	if len(out) != 1 {
		return common.Hash{}, fmt.Errorf("%s: expected 1 output, got %d", method, len(out))
	}

	hash, ok := out[0].([32]byte)
	if !ok {
		return common.Hash{}, errors.New("failed to unpack order hash")
	}

	c.logger.Debug("Router call succeeded",
		zap.String("method", method),
		zap.Stringer("hash", common.Hash(hash)))
	return common.Hash(hash), nil
}

func toABITokenInfo(t limitorder.TokenInfo, field string) (abiTokenInfo, error) {
	if t.TokenAddress == nil {
		return abiTokenInfo{}, fmt.Errorf("missing %s.tokenAddress", field)
	}
	amount, err := toBig(t.TokenAmount, field+".tokenAmount")
	if err != nil {
		return abiTokenInfo{}, err
	}
	return abiTokenInfo{TokenAddress: *t.TokenAddress, TokenAmount: amount}, nil
}

func toABITokenInfos(tokens []limitorder.TokenInfo, field string) ([]abiTokenInfo, error) {
	out := make([]abiTokenInfo, len(tokens))
	for i, t := range tokens {
		converted, err := toABITokenInfo(t, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}

func toABILimitOrder(o limitorder.LimitOrder) (abiLimitOrder, error) {
	input, err := toABITokenInfo(o.Input, "input")
	if err != nil {
		return abiLimitOrder{}, err
	}
	output, err := toABITokenInfo(o.Output, "output")
	if err != nil {
		return abiLimitOrder{}, err
	}
	expiry, err := toBig(o.Expiry, "expiry")
	if err != nil {
		return abiLimitOrder{}, err
	}
	salt, err := toBig(o.Salt, "salt")
	if err != nil {
		return abiLimitOrder{}, err
	}
	if o.ReferralCode == nil {
		return abiLimitOrder{}, fmt.Errorf("missing referralCode")
	}
	if o.PartiallyFillable == nil {
		return abiLimitOrder{}, fmt.Errorf("missing partiallyFillable")
	}

	return abiLimitOrder{
		Input:             input,
		Output:            output,
		Expiry:            expiry,
		Salt:              salt,
		ReferralCode:      *o.ReferralCode,
		PartiallyFillable: *o.PartiallyFillable,
	}, nil
}

func toABIMultiLimitOrder(o limitorder.MultiLimitOrder) (abiMultiLimitOrder, error) {
	if o.Inputs == nil || o.Outputs == nil {
		return abiMultiLimitOrder{}, fmt.Errorf("missing inputs or outputs")
	}
	inputs, err := toABITokenInfos(o.Inputs, "inputs")
	if err != nil {
		return abiMultiLimitOrder{}, err
	}
	outputs, err := toABITokenInfos(o.Outputs, "outputs")
	if err != nil {
		return abiMultiLimitOrder{}, err
	}
	expiry, err := toBig(o.Expiry, "expiry")
	if err != nil {
		return abiMultiLimitOrder{}, err
	}
	salt, err := toBig(o.Salt, "salt")
	if err != nil {
		return abiMultiLimitOrder{}, err
	}
	if o.ReferralCode == nil {
		return abiMultiLimitOrder{}, fmt.Errorf("missing referralCode")
	}
	if o.PartiallyFillable == nil {
		return abiMultiLimitOrder{}, fmt.Errorf("missing partiallyFillable")
	}

	return abiMultiLimitOrder{
		Inputs:            inputs,
		Outputs:           outputs,
		Expiry:            expiry,
		Salt:              salt,
		ReferralCode:      *o.ReferralCode,
		PartiallyFillable: *o.PartiallyFillable,
	}, nil
}

func toBig(v *uint256.Int, field string) (*big.Int, error) {
	if v == nil {
		return nil, fmt.Errorf("missing %s", field)
	}
	return v.ToBig(), nil
}
