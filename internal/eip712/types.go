package eip712

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the variant held by a TypeRef.
type Kind int

const (
	KindInvalid Kind = iota
	KindAddress
	KindBool
	KindUint
	KindInt
	KindFixedBytes
	KindBytes
	KindString
	KindStruct
	KindArray
)

// DynamicLength marks an array TypeRef without a fixed length (T[]).
const DynamicLength = -1

// TypeRef is a reference to a field type: a primitive, a named struct or an
// array wrapping another TypeRef.
type TypeRef struct {
	Kind Kind
	// Size is the bit width of intN/uintN or the byte length of bytesN.
	Size int
	// Name is the struct type name for KindStruct.
	Name string
	// Elem and Length describe KindArray. Length is DynamicLength for T[].
	Elem   *TypeRef
	Length int
}

func Address() TypeRef { return TypeRef{Kind: KindAddress} }
func Bool() TypeRef { return TypeRef{Kind: KindBool} }
func String() TypeRef { return TypeRef{Kind: KindString} }
func Bytes() TypeRef { return TypeRef{Kind: KindBytes} }
func Uint(bits int) TypeRef { return TypeRef{Kind: KindUint, Size: bits} }
func Int(bits int) TypeRef { return TypeRef{Kind: KindInt, Size: bits} }

// FixedBytes returns bytesN.
func FixedBytes(n int) TypeRef { return TypeRef{Kind: KindFixedBytes, Size: n} }

// Struct references a struct type defined in the same schema.
func Struct(name string) TypeRef { return TypeRef{Kind: KindStruct, Name: name} }

// ArrayOf returns elem[].
func ArrayOf(elem TypeRef) TypeRef {
	return TypeRef{Kind: KindArray, Elem: &elem, Length: DynamicLength}
}

// FixedArrayOf returns elem[n].
func FixedArrayOf(elem TypeRef, n int) TypeRef {
	return TypeRef{Kind: KindArray, Elem: &elem, Length: n}
}

// String renders the canonical Solidity spelling used in type signatures.
func (t TypeRef) String() string {
	switch t.Kind {
	case KindAddress:
		return "address"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindUint:
		return "uint" + strconv.Itoa(t.Size)
	case KindInt:
		return "int" + strconv.Itoa(t.Size)
	case KindFixedBytes:
		return "bytes" + strconv.Itoa(t.Size)
	case KindStruct:
		return t.Name
	case KindArray:
		if t.Elem == nil {
			return "<invalid>[]"
		}
		if t.Length == DynamicLength {
			return t.Elem.String() + "[]"
		}
		return t.Elem.String() + "[" + strconv.Itoa(t.Length) + "]"
	default:
		return "<invalid>"
	}
}

// base strips every array layer and returns the innermost element type.
func (t TypeRef) base() TypeRef {
	for t.Kind == KindArray && t.Elem != nil {
		t = *t.Elem
	}
	return t
}

// check validates the primitive parameters of t. Struct names are resolved
// by the schema, not here.
func (t TypeRef) check() error {
	switch t.Kind {
	case KindAddress, KindBool, KindString, KindBytes:
		return nil
	case KindUint, KindInt:
		if t.Size < 8 || t.Size > 256 || t.Size%8 != 0 {
			return fmt.Errorf("invalid integer width %d", t.Size)
		}
		return nil
	case KindFixedBytes:
		if t.Size < 1 || t.Size > 32 {
			return fmt.Errorf("invalid bytes length %d", t.Size)
		}
		return nil
	case KindStruct:
		if !isIdentifier(t.Name) {
			return fmt.Errorf("invalid struct type name %q", t.Name)
		}
		return nil
	case KindArray:
		if t.Elem == nil {
			return fmt.Errorf("array type without element type")
		}
		if t.Length != DynamicLength && t.Length < 0 {
			return fmt.Errorf("invalid array length %d", t.Length)
		}
		return t.Elem.check()
	default:
		return fmt.Errorf("unknown type kind %d", t.Kind)
	}
}

// ParseType parses a Solidity type string such as "uint256", "TokenInfo[]"
// or "bytes32[2][]". Any identifier that is not a primitive is taken as a
// struct reference.
func ParseType(s string) (TypeRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeRef{}, fmt.Errorf("empty type")
	}

	if strings.HasSuffix(s, "]") {
		open := strings.LastIndexByte(s, '[')
		if open <= 0 {
			return TypeRef{}, fmt.Errorf("malformed array type %q", s)
		}
		elem, err := ParseType(s[:open])
		if err != nil {
			return TypeRef{}, err
		}
		lengthStr := s[open+1 : len(s)-1]
		if lengthStr == "" {
			return ArrayOf(elem), nil
		}
		n, err := strconv.Atoi(lengthStr)
		if err != nil || n < 0 || strconv.Itoa(n) != lengthStr {
			return TypeRef{}, fmt.Errorf("malformed array length in %q", s)
		}
		return FixedArrayOf(elem, n), nil
	}

	var t TypeRef
	switch {
	case s == "address":
		t = Address()
	case s == "bool":
		t = Bool()
	case s == "string":
		t = String()
	case s == "bytes":
		t = Bytes()
	case strings.HasPrefix(s, "uint") && isDigits(s[4:]):
		n, _ := strconv.Atoi(s[4:])
		t = Uint(n)
	case strings.HasPrefix(s, "int") && isDigits(s[3:]):
		n, _ := strconv.Atoi(s[3:])
		t = Int(n)
	case strings.HasPrefix(s, "bytes") && isDigits(s[5:]):
		n, _ := strconv.Atoi(s[5:])
		t = FixedBytes(n)
	default:
		t = Struct(s)
	}
	if err := t.check(); err != nil {
		return TypeRef{}, fmt.Errorf("type %q: %w", s, err)
	}
	// The signature embeds the spelling verbatim, so aliases such as "uint"
	// or "uint08" would hash differently from their canonical form.
	if t.String() != s {
		return TypeRef{}, fmt.Errorf("type %q is not in canonical form", s)
	}
	return t, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
