package eip712

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

const etherMailJSON = `{
  "types": {
    "EIP712Domain": [
      {"name": "name", "type": "string"},
      {"name": "version", "type": "string"},
      {"name": "chainId", "type": "uint256"},
      {"name": "verifyingContract", "type": "address"}
    ],
    "Person": [
      {"name": "name", "type": "string"},
      {"name": "wallet", "type": "address"}
    ],
    "Mail": [
      {"name": "from", "type": "Person"},
      {"name": "to", "type": "Person"},
      {"name": "contents", "type": "string"}
    ]
  },
  "primaryType": "Mail",
  "domain": {
    "name": "Ether Mail",
    "version": "1",
    "chainId": 1,
    "verifyingContract": "0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC"
  },
  "message": {
    "from": {"name": "Cow", "wallet": "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"},
    "to": {"name": "Bob", "wallet": "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB"},
    "contents": "Hello, Bob!"
  }
}`

func TestDecodeTypedDataMail(t *testing.T) {
	td, err := DecodeTypedData(strings.NewReader(etherMailJSON))
	require.NoError(t, err)
	require.Equal(t, "Mail", td.PrimaryType)
	require.Equal(t, uint256.NewInt(1), td.Domain.ChainID)

	digest, err := td.Hash()
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0xbe609aee343fb3c4b28e1df9e632fca64fcfaede20f02e86244efddf30957bd2"), digest)

	td.PrimaryType = ""
	inferred, err := td.Hash()
	require.NoError(t, err)
	require.Equal(t, digest, inferred)

	primaryType, inferred, err := td.Digest()
	require.NoError(t, err)
	require.Equal(t, "Mail", primaryType)
	require.Equal(t, digest, inferred)

	delete(td.Message, "contents")
	_, _, err = td.Digest()
	require.True(t, IsSchemaError(err))
}

func TestDecodeTypedDataHexChainID(t *testing.T) {
	payload := strings.Replace(etherMailJSON, `"chainId": 1,`, `"chainId": "0x1",`, 1)
	td, err := DecodeTypedData(strings.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(1), td.Domain.ChainID)

	_, err = DecodeTypedData(strings.NewReader(strings.Replace(etherMailJSON, `"chainId": 1,`, `"chainId": "one",`, 1)))
	require.Error(t, err)
}

func TestTypedDataRejectsMismatchedDomainType(t *testing.T) {
	for _, tc := range []struct {
		desc string
		from string
		to   string
	}{
		{
			desc: "missing field",
			from: `{"name": "chainId", "type": "uint256"},`,
			to:   ``,
		},
		{
			desc: "wrong type",
			from: `{"name": "chainId", "type": "uint256"}`,
			to:   `{"name": "chainId", "type": "uint64"}`,
		},
		{
			desc: "wrong order",
			from: `{"name": "name", "type": "string"},
      {"name": "version", "type": "string"},`,
			to: `{"name": "version", "type": "string"},
      {"name": "name", "type": "string"},`,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			payload := strings.Replace(etherMailJSON, tc.from, tc.to, 1)
			require.NotEqual(t, etherMailJSON, payload)

			td, err := DecodeTypedData(strings.NewReader(payload))
			require.NoError(t, err)
			_, err = td.Hash()
			require.True(t, IsSchemaError(err), "expected SchemaError, got %v", err)
		})
	}
}

func TestTypedDataWithoutDomainType(t *testing.T) {
	td, err := DecodeTypedData(strings.NewReader(etherMailJSON))
	require.NoError(t, err)
	delete(td.Types, DomainTypeName)

	digest, err := td.Hash()
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0xbe609aee343fb3c4b28e1df9e632fca64fcfaede20f02e86244efddf30957bd2"), digest)
}

var orderTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"TokenInfo": {
		{Name: "tokenAddress", Type: "address"},
		{Name: "tokenAmount", Type: "uint256"},
	},
	"LimitOrder": {
		{Name: "input", Type: "TokenInfo"},
		{Name: "output", Type: "TokenInfo"},
		{Name: "expiry", Type: "uint256"},
		{Name: "salt", Type: "uint256"},
		{Name: "referralCode", Type: "uint32"},
		{Name: "partiallyFillable", Type: "bool"},
	},
	"MultiLimitOrder": {
		{Name: "inputs", Type: "TokenInfo[]"},
		{Name: "outputs", Type: "TokenInfo[]"},
		{Name: "expiry", Type: "uint256"},
		{Name: "salt", Type: "uint256"},
		{Name: "referralCode", Type: "uint32"},
		{Name: "partiallyFillable", Type: "bool"},
	},
}

func tokenInfo(addr, amount string) map[string]any {
	return map[string]any{"tokenAddress": addr, "tokenAmount": amount}
}

// Checks the digest against go-ethereum's own typed data hasher.
func TestTypedDataMatchesGeth(t *testing.T) {
	const router = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

	for _, tc := range []struct {
		desc        string
		primaryType string
		message     map[string]any
		want        common.Hash
	}{
		{
			desc:        "limit order",
			primaryType: "LimitOrder",
			message: map[string]any{
				"input":             tokenInfo("0xa0Cb889707d426A7A386870A03bc70d1b0697598", "2001000000000000000000"),
				"output":            tokenInfo("0xc7183455a4C133Ae270771860664b6B7ec320bB1", "2001000000"),
				"expiry":            "86401",
				"salt":              "1",
				"referralCode":      "0",
				"partiallyFillable": false,
			},
			want: common.HexToHash("0x6552eb5c2d86a37e4a4b6bfb62906f32bf24608d48529f26e05f70f17ce9ffc4"),
		},
		{
			desc:        "multi limit order",
			primaryType: "MultiLimitOrder",
			message: map[string]any{
				"inputs": []any{
					tokenInfo("0xa0Cb889707d426A7A386870A03bc70d1b0697598", "1999000000000000000000"),
					tokenInfo("0x1d1499e622D69689cdf9004d05Ec547d650Ff211", "2001000000000000000000"),
				},
				"outputs": []any{
					tokenInfo("0xc7183455a4C133Ae270771860664b6B7ec320bB1", "2002000000"),
					tokenInfo("0xA4AD4f68d0b91CFD19687c881e50f3A00242828c", "1998000000000000000000"),
				},
				"expiry":            "86401",
				"salt":              "1",
				"referralCode":      "0",
				"partiallyFillable": false,
			},
			want: common.HexToHash("0x212d60fe3be515b1ea80a56d596d5c719b7b1c68d06d2da0f0216dcabb45c57c"),
		},
		{
			desc:        "multi limit order without legs",
			primaryType: "MultiLimitOrder",
			message: map[string]any{
				"inputs":            []any{},
				"outputs":           []any{},
				"expiry":            "86401",
				"salt":              "1",
				"referralCode":      "0",
				"partiallyFillable": false,
			},
			want: common.HexToHash("0xe9c3830359d501bf1a9ac774ae8a5bb8ff135072c9e146eeaba2341cb18be754"),
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			gethDigest, _, err := apitypes.TypedDataAndHash(apitypes.TypedData{
				Types:       orderTypes,
				PrimaryType: tc.primaryType,
				Domain: apitypes.TypedDataDomain{
					Name:              "OdosLimitOrderRouter",
					Version:           "1",
					ChainId:           math.NewHexOrDecimal256(31337),
					VerifyingContract: router,
				},
				Message: tc.message,
			})
			require.NoError(t, err)

			td := TypedData{
				Types:       orderTypes,
				PrimaryType: tc.primaryType,
				Domain:      NewDomain("OdosLimitOrderRouter", "1", uint256.NewInt(31337), common.HexToAddress(router)),
				Message:     tc.message,
			}
			digest, err := td.Hash()
			require.NoError(t, err)

			require.Equal(t, common.BytesToHash(gethDigest), digest)
			require.Equal(t, tc.want, digest)
		})
	}
}
