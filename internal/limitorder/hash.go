package limitorder

import (
	"encoding/hex"
	"fmt"
	"strings"

	"orderhash/internal/eip712"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// NewDomain returns the router's EIP712 domain on the given chain
func NewDomain(chainID *uint256.Int, router ethcommon.Address) eip712.Domain {
	return eip712.NewDomain(DomainName, DomainVersion, chainID, router)
}

// Hasher computes router order hashes for one chain and router deployment.
type Hasher struct {
	single *eip712.Hasher
	multi  *eip712.Hasher
}

func NewHasher(chainID *uint256.Int, router ethcommon.Address) (*Hasher, error) {
	if chainID == nil {
		return nil, fmt.Errorf("chain ID is required")
	}

	domain := NewDomain(chainID, router)
	single, err := eip712.NewHasher(domain, LimitOrderSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to build limit order hasher: %w", err)
	}
	multi, err := eip712.NewHasher(domain, MultiLimitOrderSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to build multi limit order hasher: %w", err)
	}

	return &Hasher{single: single, multi: multi}, nil
}

func (h *Hasher) Domain() eip712.Domain { return h.single.Domain() }

func (h *Hasher) DomainSeparator() ethcommon.Hash { return h.single.DomainSeparator() }

// LimitOrderHash computes the digest the router's getLimitOrderHash returns
func (h *Hasher) LimitOrderHash(order LimitOrder) (ethcommon.Hash, error) {
	return h.single.Hash(LimitOrderTypeName, order.Message())
}

// MultiLimitOrderHash computes the digest the router's getMultiLimitOrderHash returns
func (h *Hasher) MultiLimitOrderHash(order MultiLimitOrder) (ethcommon.Hash, error) {
	return h.multi.Hash(MultiLimitOrderTypeName, order.Message())
}

// LimitOrderTypedData builds the eth_signTypedData_v4 payload a wallet signs for order
func (h *Hasher) LimitOrderTypedData(order LimitOrder) eip712.TypedData {
	return buildTypedData(h.Domain(), LimitOrderSchema, LimitOrderTypeName, order.Message())
}

// MultiLimitOrderTypedData builds the eth_signTypedData_v4 payload a wallet signs for order
func (h *Hasher) MultiLimitOrderTypedData(order MultiLimitOrder) eip712.TypedData {
	return buildTypedData(h.Domain(), MultiLimitOrderSchema, MultiLimitOrderTypeName, order.Message())
}

func buildTypedData(domain eip712.Domain, schema *eip712.Schema, primaryType string, message map[string]any) eip712.TypedData {
	return eip712.TypedData{
		Types:       schema.APITypes(domain),
		PrimaryType: primaryType,
		Domain:      domain,
		Message:     message,
	}
}

// ParseOrderHash decodes a 0x-prefixed or bare 32-byte hex order hash
func ParseOrderHash(s string) (ethcommon.Hash, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 != 0 {
		return ethcommon.Hash{}, fmt.Errorf("hex must have even length")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ethcommon.Hash{}, err
	}
	if len(b) != ethcommon.HashLength {
		return ethcommon.Hash{}, fmt.Errorf("expected %d bytes, got %d", ethcommon.HashLength, len(b))
	}
	return ethcommon.BytesToHash(b), nil
}
