package limitorder

import (
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// EIP712 domain of the Odos limit order router
const (
	DomainName    = "OdosLimitOrderRouter"
	DomainVersion = "1"
)

// Primary type names
const (
	TokenInfoTypeName       = "TokenInfo"
	LimitOrderTypeName      = "LimitOrder"
	MultiLimitOrderTypeName = "MultiLimitOrder"
)

// LocalChainID is the chain ID of a local hardhat/anvil node.
const LocalChainID uint64 = 31337

// Router deployments by chain ID
var routerContracts = map[uint64]string{
	LocalChainID: "0x5FbDB2315678afecb367f032d93F642f64180aa3", // first deployment from the default dev account
}

// RouterContract returns the limit order router address for the given chain ID
func RouterContract(chainID uint64) (ethcommon.Address, error) {
	contractAddress, exists := routerContracts[chainID]
	if !exists {
		return ethcommon.Address{}, fmt.Errorf("unsupported chain ID: %d", chainID)
	}

	return ethcommon.HexToAddress(contractAddress), nil
}
