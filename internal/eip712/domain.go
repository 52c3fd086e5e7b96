package eip712

import (
	"encoding/json"
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Domain is the EIP712Domain record. Only the fields that are set take part
// in the domain type: empty strings and nil pointers are omitted, matching
// how contracts leave unused domain fields out of their separator.
//
// An empty Name or Version is therefore indistinguishable from an absent one.
// Encoders that keep any non-null field, such as ethers' TypedDataEncoder,
// include name:"" in the domain type and produce a different separator; such
// domains cannot be expressed here.
type Domain struct {
	Name              string             `json:"name,omitempty"`
	Version           string             `json:"version,omitempty"`
	ChainID           *uint256.Int       `json:"chainId,omitempty"`
	VerifyingContract *ethcommon.Address `json:"verifyingContract,omitempty"`
	Salt              *ethcommon.Hash    `json:"salt,omitempty"`
}

// NewDomain returns a domain with all four commonly used fields set.
func NewDomain(name, version string, chainID *uint256.Int, verifyingContract ethcommon.Address) Domain {
	return Domain{
		Name:              name,
		Version:           version,
		ChainID:           new(uint256.Int).Set(chainID),
		VerifyingContract: &verifyingContract,
	}
}

// Fields returns the EIP712Domain field list for the fields present in d, in
// the canonical order name, version, chainId, verifyingContract, salt.
func (d Domain) Fields() []Field {
	fields := make([]Field, 0, 5)
	if d.Name != "" {
		fields = append(fields, Field{Name: "name", Type: String()})
	}
	if d.Version != "" {
		fields = append(fields, Field{Name: "version", Type: String()})
	}
	if d.ChainID != nil {
		fields = append(fields, Field{Name: "chainId", Type: Uint(256)})
	}
	if d.VerifyingContract != nil {
		fields = append(fields, Field{Name: "verifyingContract", Type: Address()})
	}
	if d.Salt != nil {
		fields = append(fields, Field{Name: "salt", Type: FixedBytes(32)})
	}
	return fields
}

// Message returns the domain as a value tree for the EIP712Domain type.
func (d Domain) Message() map[string]any {
	msg := make(map[string]any, 5)
	if d.Name != "" {
		msg["name"] = d.Name
	}
	if d.Version != "" {
		msg["version"] = d.Version
	}
	if d.ChainID != nil {
		msg["chainId"] = d.ChainID
	}
	if d.VerifyingContract != nil {
		msg["verifyingContract"] = *d.VerifyingContract
	}
	if d.Salt != nil {
		msg["salt"] = *d.Salt
	}
	return msg
}

// Separator computes hashStruct(EIP712Domain, d).
func (d Domain) Separator() (ethcommon.Hash, error) {
	s := &Schema{types: map[string][]Field{DomainTypeName: d.Fields()}}
	return s.HashStruct(DomainTypeName, d.Message())
}

// UnmarshalJSON accepts chainId as a JSON number or a decimal/hex string.
func (d *Domain) UnmarshalJSON(input []byte) error {
	var raw struct {
		Name              string             `json:"name"`
		Version           string             `json:"version"`
		ChainID           json.RawMessage    `json:"chainId"`
		VerifyingContract *ethcommon.Address `json:"verifyingContract"`
		Salt              *ethcommon.Hash    `json:"salt"`
	}
	if err := json.Unmarshal(input, &raw); err != nil {
		return err
	}

	*d = Domain{
		Name:              raw.Name,
		Version:           raw.Version,
		VerifyingContract: raw.VerifyingContract,
		Salt:              raw.Salt,
	}
	if len(raw.ChainID) > 0 && string(raw.ChainID) != "null" {
		chainID := new(uint256.Int)
		if err := chainID.UnmarshalJSON(raw.ChainID); err != nil {
			return fmt.Errorf("invalid chainId: %w", err)
		}
		d.ChainID = chainID
	}
	return nil
}
