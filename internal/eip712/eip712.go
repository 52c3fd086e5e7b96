// Package eip712 implements structured-data hashing as defined by EIP-712:
// canonical type signatures, recursive struct encoding and the
// domain-separated signing digest.
package eip712

import (
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// digestPrefix is the "\x19\x01" prefix of the EIP-712 signing pre-image.
var digestPrefix = []byte{0x19, 0x01}

// Hasher binds a domain and a schema. The domain separator is computed once
// at construction; a Hasher is safe for concurrent use.
type Hasher struct {
	domain    Domain
	separator ethcommon.Hash
	schema    *Schema
}

// NewHasher validates domain and precomputes its separator.
func NewHasher(domain Domain, schema *Schema) (*Hasher, error) {
	if schema == nil {
		return nil, schemaErrorf("", "nil schema")
	}
	separator, err := domain.Separator()
	if err != nil {
		return nil, fmt.Errorf("failed to compute domain separator: %w", err)
	}
	return &Hasher{
		domain:    domain,
		separator: separator,
		schema:    schema,
	}, nil
}

func (h *Hasher) Domain() Domain { return h.domain }
func (h *Hasher) DomainSeparator() ethcommon.Hash { return h.separator }
func (h *Hasher) Schema() *Schema { return h.schema }

// HashStruct returns hashStruct(primaryType, value) under the hasher's schema.
func (h *Hasher) HashStruct(primaryType string, value map[string]any) (ethcommon.Hash, error) {
	return h.schema.HashStruct(primaryType, value)
}

// Encode returns the 66-byte pre-image 0x1901 ++ domainSeparator ++ hashStruct.
func (h *Hasher) Encode(primaryType string, value map[string]any) ([]byte, error) {
	structHash, err := h.schema.HashStruct(primaryType, value)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(digestPrefix)+2*ethcommon.HashLength)
	out = append(out, digestPrefix...)
	out = append(out, h.separator[:]...)
	out = append(out, structHash[:]...)
	return out, nil
}

// Hash returns the EIP-712 digest of value as primaryType.
func (h *Hasher) Hash(primaryType string, value map[string]any) (ethcommon.Hash, error) {
	preimage, err := h.Encode(primaryType, value)
	if err != nil {
		return ethcommon.Hash{}, err
	}
	return crypto.Keccak256Hash(preimage), nil
}

// Hash is a one-shot helper for callers that do not reuse a Hasher.
func Hash(domain Domain, schema *Schema, primaryType string, value map[string]any) (ethcommon.Hash, error) {
	h, err := NewHasher(domain, schema)
	if err != nil {
		return ethcommon.Hash{}, err
	}
	return h.Hash(primaryType, value)
}
