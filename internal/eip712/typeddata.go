package eip712

import (
	"encoding/json"
	"fmt"
	"io"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// TypedData is the eth_signTypedData_v4 payload.
type TypedData struct {
	Types       apitypes.Types `json:"types"`
	PrimaryType string         `json:"primaryType,omitempty"`
	Domain      Domain         `json:"domain"`
	Message     map[string]any `json:"message"`
}

// DecodeTypedData reads a JSON payload, keeping numbers as json.Number so
// that large integers survive decoding.
func DecodeTypedData(r io.Reader) (TypedData, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var td TypedData
	if err := dec.Decode(&td); err != nil {
		return TypedData{}, fmt.Errorf("failed to decode typed data: %w", err)
	}
	return td, nil
}

// Schema parses the payload types. When the payload declares EIP712Domain it
// must list exactly the fields present in Domain, in canonical order.
func (td TypedData) Schema() (*Schema, error) {
	if declared, ok := td.Types[DomainTypeName]; ok {
		if err := checkDomainType(declared, td.Domain.Fields()); err != nil {
			return nil, err
		}
	}
	return ParseSchema(td.Types)
}

// Hash computes the digest of the payload. An empty PrimaryType is inferred
// from the schema.
func (td TypedData) Hash() (ethcommon.Hash, error) {
	_, digest, err := td.Digest()
	return digest, err
}

// Digest is like Hash but also returns the primary type the payload was
// hashed as.
func (td TypedData) Digest() (string, ethcommon.Hash, error) {
	schema, err := td.Schema()
	if err != nil {
		return "", ethcommon.Hash{}, err
	}

	primaryType := td.PrimaryType
	if primaryType == "" {
		if primaryType, err = schema.PrimaryType(); err != nil {
			return "", ethcommon.Hash{}, err
		}
	}

	digest, err := Hash(td.Domain, schema, primaryType, td.Message)
	if err != nil {
		return "", ethcommon.Hash{}, err
	}
	return primaryType, digest, nil
}

func checkDomainType(declared []apitypes.Type, want []Field) error {
	if len(declared) != len(want) {
		return schemaErrorf(DomainTypeName, "declares %d fields, domain has %d", len(declared), len(want))
	}
	for i, f := range declared {
		if f.Name != want[i].Name || f.Type != want[i].Type.String() {
			return schemaErrorf(DomainTypeName, "field %d is %q %s, domain expects %q %s",
				i, f.Name, f.Type, want[i].Name, want[i].Type)
		}
	}
	return nil
}
