package eip712

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

// keccak256 of zero bytes.
var emptyHash = common.HexToHash("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")

func mailDomain() Domain {
	return NewDomain("Ether Mail", "1", uint256.NewInt(1), common.HexToAddress("0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC"))
}

func mailMessage() map[string]any {
	return map[string]any{
		"from": map[string]any{
			"name":   "Cow",
			"wallet": "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826",
		},
		"to": map[string]any{
			"name":   "Bob",
			"wallet": "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB",
		},
		"contents": "Hello, Bob!",
	}
}

func TestEtherMailVectors(t *testing.T) {
	h, err := NewHasher(mailDomain(), MustSchema(personType, mailType))
	require.NoError(t, err)

	require.Equal(t,
		common.HexToHash("0xf2cee375fa42b42143804025fc449deafd50cc031ca257e0b194a650a912090f"),
		h.DomainSeparator())

	structHash, err := h.HashStruct("Mail", mailMessage())
	require.NoError(t, err)
	require.Equal(t,
		common.HexToHash("0xc52c0ee5d84264471806290a3f2c4cecfc5490626bf912d01f240d7a274b371e"),
		structHash)

	digest, err := h.Hash("Mail", mailMessage())
	require.NoError(t, err)
	require.Equal(t,
		common.HexToHash("0xbe609aee343fb3c4b28e1df9e632fca64fcfaede20f02e86244efddf30957bd2"),
		digest)

	preimage, err := h.Encode("Mail", mailMessage())
	require.NoError(t, err)
	require.Len(t, preimage, 66)
	require.Equal(t, []byte{0x19, 0x01}, preimage[:2])
	require.Equal(t, digest, crypto.Keccak256Hash(preimage))
}

func TestDomainTypeHash(t *testing.T) {
	d := mailDomain()
	s := &Schema{types: map[string][]Field{DomainTypeName: d.Fields()}}

	encoded, err := s.EncodeType(DomainTypeName)
	require.NoError(t, err)
	require.Equal(t, "EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)", encoded)

	typeHash, err := s.TypeHash(DomainTypeName)
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0x8b73c3c69bb8fe3d512ecc4cf759cc79239f7b179b0ffacaa9a75d522b39400f"), typeHash)
}

func TestDomainFieldsOmitUnset(t *testing.T) {
	d := Domain{Name: "Obol", ChainID: uint256.NewInt(5)}
	require.Equal(t, []Field{
		{Name: "name", Type: String()},
		{Name: "chainId", Type: Uint(256)},
	}, d.Fields())
	require.Len(t, d.Message(), 2)

	salt := common.HexToHash("0x01")
	d.Salt = &salt
	require.Equal(t, "salt", d.Fields()[2].Name)
	require.Equal(t, FixedBytes(32), d.Fields()[2].Type)
}

func TestDomainEmptyStringsAreAbsent(t *testing.T) {
	withEmpty := Domain{Name: "", Version: "", ChainID: uint256.NewInt(1)}
	without := Domain{ChainID: uint256.NewInt(1)}
	require.Equal(t, without.Fields(), withEmpty.Fields())

	a, err := withEmpty.Separator()
	require.NoError(t, err)
	b, err := without.Separator()
	require.NoError(t, err)
	require.Equal(t, b, a)
}

func TestHashDeterministic(t *testing.T) {
	schema := MustSchema(personType, mailType)
	first, err := Hash(mailDomain(), schema, "Mail", mailMessage())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Hash(mailDomain(), schema, "Mail", mailMessage())
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestHashDomainSensitivity(t *testing.T) {
	schema := MustSchema(personType, mailType)
	base, err := Hash(mailDomain(), schema, "Mail", mailMessage())
	require.NoError(t, err)

	otherContract := common.HexToAddress("0x0000000000000000000000000000000000000001")
	for _, tc := range []struct {
		desc   string
		mutate func(*Domain)
	}{
		{"name", func(d *Domain) { d.Name = "Ether Mail 2" }},
		{"version", func(d *Domain) { d.Version = "2" }},
		{"chainId", func(d *Domain) { d.ChainID = uint256.NewInt(2) }},
		{"verifyingContract", func(d *Domain) { d.VerifyingContract = &otherContract }},
		{"drop version", func(d *Domain) { d.Version = "" }},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			d := mailDomain()
			tc.mutate(&d)
			got, err := Hash(d, schema, "Mail", mailMessage())
			require.NoError(t, err)
			require.NotEqual(t, base, got)
		})
	}
}

func TestHashFieldOrderSensitivity(t *testing.T) {
	reorderedMail := TypeDef{Name: "Mail", Fields: []Field{
		{Name: "to", Type: Struct("Person")},
		{Name: "from", Type: Struct("Person")},
		{Name: "contents", Type: String()},
	}}

	a, err := Hash(mailDomain(), MustSchema(personType, mailType), "Mail", mailMessage())
	require.NoError(t, err)
	b, err := Hash(mailDomain(), MustSchema(personType, reorderedMail), "Mail", mailMessage())
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestHashInsertionOrderIndependence(t *testing.T) {
	a, err := Hash(mailDomain(), MustSchema(personType, mailType), "Mail", mailMessage())
	require.NoError(t, err)
	b, err := Hash(mailDomain(), MustSchema(mailType, personType), "Mail", mailMessage())
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestArrayEncoding(t *testing.T) {
	schema := MustSchema(
		personType,
		TypeDef{Name: "Group", Fields: []Field{
			{Name: "members", Type: ArrayOf(Struct("Person"))},
			{Name: "ids", Type: FixedArrayOf(Uint(64), 3)},
		}},
	)

	members := []any{mailMessage()["from"], mailMessage()["to"]}
	ids := []uint64{1, 2, 3}

	encoded, err := schema.EncodeData("Group", map[string]any{"members": members, "ids": ids})
	require.NoError(t, err)
	require.Len(t, encoded, 96)

	var concat []byte
	for _, m := range members {
		h, err := schema.HashStruct("Person", m.(map[string]any))
		require.NoError(t, err)
		concat = append(concat, h[:]...)
	}
	require.Equal(t, crypto.Keccak256(concat), encoded[32:64])

	var idWords []byte
	for _, id := range ids {
		idWords = append(idWords, common.BigToHash(new(big.Int).SetUint64(id)).Bytes()...)
	}
	require.Equal(t, crypto.Keccak256(idWords), encoded[64:96])
}

func TestEmptyArrayEncodesAsHashOfNothing(t *testing.T) {
	schema := MustSchema(personType, TypeDef{Name: "Group", Fields: []Field{
		{Name: "members", Type: ArrayOf(Struct("Person"))},
	}})

	encoded, err := schema.EncodeData("Group", map[string]any{"members": []any{}})
	require.NoError(t, err)
	require.Equal(t, emptyHash.Bytes(), encoded[32:])
}

func TestNestedStructRecursion(t *testing.T) {
	schema := MustSchema(personType, mailType)

	encoded, err := schema.EncodeData("Mail", mailMessage())
	require.NoError(t, err)
	require.Len(t, encoded, 4*32)

	fromHash, err := schema.HashStruct("Person", mailMessage()["from"].(map[string]any))
	require.NoError(t, err)
	require.Equal(t, fromHash.Bytes(), encoded[32:64])

	contents := crypto.Keccak256([]byte("Hello, Bob!"))
	require.Equal(t, contents, encoded[96:128])
}

func TestPrimitiveEncoding(t *testing.T) {
	schema := MustSchema(TypeDef{Name: "All", Fields: []Field{
		{Name: "a", Type: Address()},
		{Name: "b", Type: Bool()},
		{Name: "u", Type: Uint(32)},
		{Name: "i", Type: Int(8)},
		{Name: "f", Type: FixedBytes(4)},
		{Name: "d", Type: Bytes()},
	}})

	addr := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	encoded, err := schema.EncodeData("All", map[string]any{
		"a": addr,
		"b": true,
		"u": uint32(86401),
		"i": -1,
		"f": "0xdeadbeef",
		"d": []byte{},
	})
	require.NoError(t, err)

	word := func(i int) []byte { return encoded[32*(i+1) : 32*(i+2)] }
	require.Equal(t, common.LeftPadBytes(addr.Bytes(), 32), word(0))
	require.Equal(t, common.LeftPadBytes([]byte{1}, 32), word(1))
	require.Equal(t, common.LeftPadBytes(big.NewInt(86401).Bytes(), 32), word(2))
	require.Equal(t, common.MaxHash.Bytes(), word(3))
	require.Equal(t, common.RightPadBytes([]byte{0xde, 0xad, 0xbe, 0xef}, 32), word(4))
	require.Equal(t, emptyHash.Bytes(), word(5))
}

func TestIntegerValueForms(t *testing.T) {
	schema := MustSchema(TypeDef{Name: "N", Fields: []Field{{Name: "v", Type: Uint(256)}}})
	want, err := schema.HashStruct("N", map[string]any{"v": big.NewInt(2001000000)})
	require.NoError(t, err)

	for _, v := range []any{
		uint256.NewInt(2001000000),
		"2001000000",
		"0x7744d640",
		json.Number("2001000000"),
		float64(2001000000),
		int64(2001000000),
		uint64(2001000000),
	} {
		got, err := schema.HashStruct("N", map[string]any{"v": v})
		require.NoError(t, err, "%T", v)
		require.Equal(t, want, got, "%T", v)
	}
}

func TestSignedIntegerBounds(t *testing.T) {
	schema := MustSchema(TypeDef{Name: "S", Fields: []Field{{Name: "v", Type: Int(8)}}})

	for _, ok := range []any{-128, 127, 0, "-5"} {
		_, err := schema.EncodeData("S", map[string]any{"v": ok})
		require.NoError(t, err, "%v", ok)
	}
	for _, bad := range []any{-129, 128, "--5"} {
		_, err := schema.EncodeData("S", map[string]any{"v": bad})
		require.True(t, IsSchemaError(err), "%v", bad)
	}

	encoded, err := schema.EncodeData("S", map[string]any{"v": -128})
	require.NoError(t, err)
	want := common.MaxHash
	want[31] = 0x80
	require.Equal(t, want.Bytes(), encoded[32:])
}

func TestEncodeDataRejectsNonConformingValues(t *testing.T) {
	schema := MustSchema(
		TypeDef{Name: "TokenInfo", Fields: []Field{
			{Name: "tokenAddress", Type: Address()},
			{Name: "tokenAmount", Type: Uint(256)},
		}},
		TypeDef{Name: "Order", Fields: []Field{
			{Name: "inputs", Type: FixedArrayOf(Struct("TokenInfo"), 1)},
			{Name: "salt", Type: Uint(256)},
			{Name: "referralCode", Type: Uint(32)},
			{Name: "partiallyFillable", Type: Bool()},
			{Name: "tag", Type: FixedBytes(4)},
		}},
	)

	valid := func() map[string]any {
		return map[string]any{
			"inputs": []any{map[string]any{
				"tokenAddress": "0xa0Cb889707d426A7A386870A03bc70d1b0697598",
				"tokenAmount":  "2001000000000000000000",
			}},
			"salt":              1,
			"referralCode":      0,
			"partiallyFillable": false,
			"tag":               "0x01020304",
		}
	}
	_, err := schema.HashStruct("Order", valid())
	require.NoError(t, err)

	for _, tc := range []struct {
		desc   string
		path   string
		mutate func(map[string]any)
	}{
		{"missing field", "Order.salt", func(m map[string]any) { delete(m, "salt") }},
		{"extra field", "Order", func(m map[string]any) { m["nonce"] = 1 }},
		{"uint32 overflow", "Order.referralCode", func(m map[string]any) { m["referralCode"] = uint64(1) << 32 }},
		{"negative uint", "Order.salt", func(m map[string]any) { m["salt"] = -1 }},
		{"fractional number", "Order.salt", func(m map[string]any) { m["salt"] = 1.5 }},
		{"non numeric string", "Order.salt", func(m map[string]any) { m["salt"] = "one" }},
		{"empty string", "Order.salt", func(m map[string]any) { m["salt"] = "" }},
		{"nil integer", "Order.salt", func(m map[string]any) { m["salt"] = (*big.Int)(nil) }},
		{"bool as string", "Order.partiallyFillable", func(m map[string]any) { m["partiallyFillable"] = "false" }},
		{"bytes4 too short", "Order.tag", func(m map[string]any) { m["tag"] = "0x0102" }},
		{"fixed array arity", "Order.inputs", func(m map[string]any) { m["inputs"] = []any{} }},
		{"array as struct", "Order.inputs", func(m map[string]any) { m["inputs"] = map[string]any{} }},
		{"short address", "Order.inputs[0].tokenAddress", func(m map[string]any) {
			m["inputs"].([]any)[0].(map[string]any)["tokenAddress"] = "0xa0Cb889707d426A7A386870A03bc70d1b06975"
		}},
		{"bad checksum", "Order.inputs[0].tokenAddress", func(m map[string]any) {
			m["inputs"].([]any)[0].(map[string]any)["tokenAddress"] = "0xA0Cb889707d426A7A386870A03bc70d1b0697598"
		}},
		{"missing nested field", "Order.inputs[0].tokenAmount", func(m map[string]any) {
			delete(m["inputs"].([]any)[0].(map[string]any), "tokenAmount")
		}},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			v := valid()
			tc.mutate(v)
			_, err := schema.HashStruct("Order", v)
			require.Error(t, err)

			var se *SchemaError
			require.ErrorAs(t, err, &se)
			require.Equal(t, tc.path, se.Path)
		})
	}
}

func TestAddressForms(t *testing.T) {
	schema := MustSchema(TypeDef{Name: "A", Fields: []Field{{Name: "v", Type: Address()}}})
	addr := common.HexToAddress("0xa0Cb889707d426A7A386870A03bc70d1b0697598")
	want, err := schema.HashStruct("A", map[string]any{"v": addr})
	require.NoError(t, err)

	for _, v := range []any{
		&addr,
		addr.Bytes(),
		"0xa0cb889707d426a7a386870a03bc70d1b0697598",
		"0xA0CB889707D426A7A386870A03BC70D1B0697598",
		"0xa0Cb889707d426A7A386870A03bc70d1b0697598",
	} {
		got, err := schema.HashStruct("A", map[string]any{"v": v})
		require.NoError(t, err, "%v", v)
		require.Equal(t, want, got)
	}

	_, err = schema.HashStruct("A", map[string]any{"v": "a0cb889707d426a7a386870a03bc70d1b0697598"})
	require.True(t, IsSchemaError(err))
}

func TestHashUnknownPrimaryType(t *testing.T) {
	_, err := Hash(mailDomain(), MustSchema(personType, mailType), "Letter", mailMessage())
	require.True(t, IsSchemaError(err))

	_, err = NewHasher(mailDomain(), nil)
	require.True(t, IsSchemaError(err))
}
