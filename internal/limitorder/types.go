package limitorder

import (
	"orderhash/internal/eip712"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// TokenInfoType defines the TokenInfo type structure for EIP712
var TokenInfoType = eip712.TypeDef{
	Name: TokenInfoTypeName,
	Fields: []eip712.Field{
		{Name: "tokenAddress", Type: eip712.Address()},
		{Name: "tokenAmount", Type: eip712.Uint(256)},
	},
}

// LimitOrderType defines the single leg LimitOrder type structure for EIP712
var LimitOrderType = eip712.TypeDef{
	Name: LimitOrderTypeName,
	Fields: []eip712.Field{
		{Name: "input", Type: eip712.Struct(TokenInfoTypeName)},
		{Name: "output", Type: eip712.Struct(TokenInfoTypeName)},
		{Name: "expiry", Type: eip712.Uint(256)},
		{Name: "salt", Type: eip712.Uint(256)},
		{Name: "referralCode", Type: eip712.Uint(32)},
		{Name: "partiallyFillable", Type: eip712.Bool()},
	},
}

// MultiLimitOrderType defines the MultiLimitOrder type structure for EIP712
var MultiLimitOrderType = eip712.TypeDef{
	Name: MultiLimitOrderTypeName,
	Fields: []eip712.Field{
		{Name: "inputs", Type: eip712.ArrayOf(eip712.Struct(TokenInfoTypeName))},
		{Name: "outputs", Type: eip712.ArrayOf(eip712.Struct(TokenInfoTypeName))},
		{Name: "expiry", Type: eip712.Uint(256)},
		{Name: "salt", Type: eip712.Uint(256)},
		{Name: "referralCode", Type: eip712.Uint(32)},
		{Name: "partiallyFillable", Type: eip712.Bool()},
	},
}

var (
	LimitOrderSchema      = eip712.MustSchema(TokenInfoType, LimitOrderType)
	MultiLimitOrderSchema = eip712.MustSchema(TokenInfoType, MultiLimitOrderType)
)

/*
Solidity Equivalent:

	struct TokenInfo {
		address tokenAddress;
		uint256 tokenAmount;
	}
*/
type TokenInfo struct {
	TokenAddress *ethcommon.Address `json:"tokenAddress"`
	TokenAmount  *uint256.Int       `json:"tokenAmount"`
}

/*
Solidity Equivalent:

	struct LimitOrder {
		TokenInfo input;
		TokenInfo output;
		uint256 expiry;
		uint256 salt;
		uint32 referralCode;
		bool partiallyFillable;
	}
*/
type LimitOrder struct {
	Input             TokenInfo    `json:"input"`
	Output            TokenInfo    `json:"output"`
	Expiry            *uint256.Int `json:"expiry"`
	Salt              *uint256.Int `json:"salt"`
	ReferralCode      *uint32      `json:"referralCode"`
	PartiallyFillable *bool        `json:"partiallyFillable"`
}

/*
Solidity Equivalent:

	struct MultiLimitOrder {
		TokenInfo[] inputs;
		TokenInfo[] outputs;
		uint256 expiry;
		uint256 salt;
		uint32 referralCode;
		bool partiallyFillable;
	}
*/
type MultiLimitOrder struct {
	Inputs            []TokenInfo  `json:"inputs"`
	Outputs           []TokenInfo  `json:"outputs"`
	Expiry            *uint256.Int `json:"expiry"`
	Salt              *uint256.Int `json:"salt"`
	ReferralCode      *uint32      `json:"referralCode"`
	PartiallyFillable *bool        `json:"partiallyFillable"`
}

// Message converts t into an EIP712 value tree. Unset fields are left out so
// that encoding reports them as missing instead of hashing a zero value.
func (t TokenInfo) Message() map[string]any {
	msg := make(map[string]any, 2)
	if t.TokenAddress != nil {
		msg["tokenAddress"] = *t.TokenAddress
	}
	setUint(msg, "tokenAmount", t.TokenAmount)
	return msg
}

func (o LimitOrder) Message() map[string]any {
	msg := map[string]any{
		"input":  o.Input.Message(),
		"output": o.Output.Message(),
	}
	setUint(msg, "expiry", o.Expiry)
	setUint(msg, "salt", o.Salt)
	setFlags(msg, o.ReferralCode, o.PartiallyFillable)
	return msg
}

// Message converts o into an EIP712 value tree. A nil token list is missing,
// an empty one hashes as an empty array.
func (o MultiLimitOrder) Message() map[string]any {
	msg := make(map[string]any, 6)
	if o.Inputs != nil {
		msg["inputs"] = tokenMessages(o.Inputs)
	}
	if o.Outputs != nil {
		msg["outputs"] = tokenMessages(o.Outputs)
	}
	setUint(msg, "expiry", o.Expiry)
	setUint(msg, "salt", o.Salt)
	setFlags(msg, o.ReferralCode, o.PartiallyFillable)
	return msg
}

func tokenMessages(tokens []TokenInfo) []any {
	out := make([]any, len(tokens))
	for i, t := range tokens {
		out[i] = t.Message()
	}
	return out
}

func setUint(msg map[string]any, key string, v *uint256.Int) {
	if v != nil {
		msg[key] = v
	}
}

func setFlags(msg map[string]any, referralCode *uint32, partiallyFillable *bool) {
	if referralCode != nil {
		msg["referralCode"] = *referralCode
	}
	if partiallyFillable != nil {
		msg["partiallyFillable"] = *partiallyFillable
	}
}
