package eip712

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// EncodeData returns typeHash(name) followed by the 32-byte encoding of every
// field of value, in declaration order.
func (s *Schema) EncodeData(name string, value map[string]any) ([]byte, error) {
	return s.encodeData(name, value, name)
}

// HashStruct returns keccak256(EncodeData(name, value)).
func (s *Schema) HashStruct(name string, value map[string]any) (ethcommon.Hash, error) {
	encoded, err := s.encodeData(name, value, name)
	if err != nil {
		return ethcommon.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

func (s *Schema) encodeData(name string, value map[string]any, path string) ([]byte, error) {
	fields, ok := s.types[name]
	if !ok {
		return nil, schemaErrorf(path, "undefined type %q", name)
	}
	if value == nil {
		return nil, schemaErrorf(path, "missing value for struct %s", name)
	}

	for key := range value {
		if !hasField(fields, key) {
			return nil, schemaErrorf(path, "unexpected field %q for struct %s", key, name)
		}
	}

	typeHash, err := s.TypeHash(name)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 32*(len(fields)+1))
	out = append(out, typeHash[:]...)
	for _, f := range fields {
		fieldPath := path + "." + f.Name
		v, present := value[f.Name]
		if !present {
			return nil, schemaErrorf(fieldPath, "missing field")
		}
		word, err := s.encodeField(f.Type, v, fieldPath)
		if err != nil {
			return nil, err
		}
		out = append(out, word[:]...)
	}
	return out, nil
}

func hasField(fields []Field, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// encodeField produces the 32-byte slot for a single value of type t.
func (s *Schema) encodeField(t TypeRef, v any, path string) (ethcommon.Hash, error) {
	switch t.Kind {
	case KindStruct:
		m, ok := asStruct(v)
		if !ok {
			return ethcommon.Hash{}, mismatch(path, t, v)
		}
		return s.hashStructAt(t.Name, m, path)

	case KindArray:
		return s.encodeArray(t, v, path)

	case KindString:
		str, ok := v.(string)
		if !ok {
			return ethcommon.Hash{}, mismatch(path, t, v)
		}
		return crypto.Keccak256Hash([]byte(str)), nil

	case KindBytes:
		b, err := toBytes(v)
		if err != nil {
			return ethcommon.Hash{}, schemaErrorf(path, "bytes: %v", err)
		}
		return crypto.Keccak256Hash(b), nil

	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return ethcommon.Hash{}, mismatch(path, t, v)
		}
		var word ethcommon.Hash
		if b {
			word[31] = 1
		}
		return word, nil

	case KindAddress:
		addr, err := toAddress(v)
		if err != nil {
			return ethcommon.Hash{}, schemaErrorf(path, "address: %v", err)
		}
		return ethcommon.BytesToHash(addr.Bytes()), nil

	case KindFixedBytes:
		b, err := toBytes(v)
		if err != nil {
			return ethcommon.Hash{}, schemaErrorf(path, "%s: %v", t, err)
		}
		if len(b) != t.Size {
			return ethcommon.Hash{}, schemaErrorf(path, "%s: got %d bytes", t, len(b))
		}
		var word ethcommon.Hash
		copy(word[:], b)
		return word, nil

	case KindUint:
		n, err := toBigInt(v)
		if err != nil {
			return ethcommon.Hash{}, schemaErrorf(path, "%s: %v", t, err)
		}
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return ethcommon.Hash{}, schemaErrorf(path, "value %s out of range for %s", n, t)
		}
		u, _ := uint256.FromBig(n)
		return ethcommon.Hash(u.Bytes32()), nil

	case KindInt:
		n, err := toBigInt(v)
		if err != nil {
			return ethcommon.Hash{}, schemaErrorf(path, "%s: %v", t, err)
		}
		magnitude := n
		if n.Sign() < 0 {
			magnitude = new(big.Int).Not(n) // -n-1
		}
		if magnitude.BitLen() > t.Size-1 {
			return ethcommon.Hash{}, schemaErrorf(path, "value %s out of range for %s", n, t)
		}
		return ethcommon.BytesToHash(ethmath.U256Bytes(new(big.Int).Set(n))), nil

	default:
		return ethcommon.Hash{}, schemaErrorf(path, "unsupported type %s", t)
	}
}

func (s *Schema) hashStructAt(name string, value map[string]any, path string) (ethcommon.Hash, error) {
	encoded, err := s.encodeData(name, value, path)
	if err != nil {
		return ethcommon.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

// encodeArray hashes the concatenation of the element encodings. An empty
// array therefore encodes as keccak256 of zero bytes.
func (s *Schema) encodeArray(t TypeRef, v any, path string) (ethcommon.Hash, error) {
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return ethcommon.Hash{}, mismatch(path, t, v)
	}
	if t.Length != DynamicLength && rv.Len() != t.Length {
		return ethcommon.Hash{}, schemaErrorf(path, "%s: got %d elements", t, rv.Len())
	}

	buf := make([]byte, 0, 32*rv.Len())
	for i := 0; i < rv.Len(); i++ {
		word, err := s.encodeField(*t.Elem, rv.Index(i).Interface(), path+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return ethcommon.Hash{}, err
		}
		buf = append(buf, word[:]...)
	}
	return crypto.Keccak256Hash(buf), nil
}

func mismatch(path string, t TypeRef, v any) *SchemaError {
	return schemaErrorf(path, "cannot encode %T as %s", v, t)
}

func asStruct(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, m != nil
	default:
		return nil, false
	}
}

func toAddress(v any) (ethcommon.Address, error) {
	switch a := v.(type) {
	case ethcommon.Address:
		return a, nil
	case *ethcommon.Address:
		if a == nil {
			return ethcommon.Address{}, errNilValue
		}
		return *a, nil
	case [20]byte:
		return ethcommon.Address(a), nil
	case []byte:
		if len(a) != ethcommon.AddressLength {
			return ethcommon.Address{}, fmt.Errorf("got %d bytes", len(a))
		}
		return ethcommon.BytesToAddress(a), nil
	case string:
		if !strings.HasPrefix(a, "0x") && !strings.HasPrefix(a, "0X") {
			return ethcommon.Address{}, fmt.Errorf("%q is missing the 0x prefix", a)
		}
		if !ethcommon.IsHexAddress(a) {
			return ethcommon.Address{}, fmt.Errorf("%q is not a 20-byte hex address", a)
		}
		addr := ethcommon.HexToAddress(a)
		// Mixed case means the caller supplied an EIP-55 checksum.
		body := a[2:]
		if strings.ToLower(body) != body && strings.ToUpper(body) != body && addr.Hex()[2:] != body {
			return ethcommon.Address{}, fmt.Errorf("%q has an invalid checksum", a)
		}
		return addr, nil
	default:
		return ethcommon.Address{}, fmt.Errorf("unsupported value type %T", v)
	}
}

func toBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case ethcommon.Hash:
		return b.Bytes(), nil
	case *ethcommon.Hash:
		if b == nil {
			return nil, errNilValue
		}
		return b.Bytes(), nil
	case hexutil.Bytes:
		return b, nil
	case string:
		decoded, err := hexutil.Decode(b)
		if err != nil {
			return nil, fmt.Errorf("%q: %v", b, err)
		}
		return decoded, nil
	}

	// [N]byte arrays
	rv := reflect.ValueOf(v)
	if v != nil && rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		out := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(out), rv)
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

// maxSafeFloat is the largest integer a float64 holds without loss.
const maxSafeFloat = 1 << 53

func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, errNilValue
		}
		return n, nil
	case *uint256.Int:
		if n == nil {
			return nil, errNilValue
		}
		return n.ToBig(), nil
	case uint256.Int:
		return n.ToBig(), nil
	case *ethmath.HexOrDecimal256:
		if n == nil {
			return nil, errNilValue
		}
		return (*big.Int)(n), nil
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case json.Number:
		return parseInteger(string(n))
	case string:
		return parseInteger(n)
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > maxSafeFloat {
			return nil, fmt.Errorf("%v is not an exact integer", n)
		}
		return big.NewInt(int64(n)), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// parseInteger accepts decimal or 0x-prefixed hex, optionally negative.
func parseInteger(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || digits == "0x" || strings.HasPrefix(digits, "-") {
		return nil, fmt.Errorf("%q is not an integer", s)
	}

	n, ok := ethmath.ParseBig256(digits)
	if !ok {
		return nil, fmt.Errorf("%q is not a 256-bit integer", s)
	}
	if neg {
		n = new(big.Int).Neg(n)
	}
	return n, nil
}
