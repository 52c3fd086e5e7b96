package eip712

import (
	"sort"
	"strings"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// DomainTypeName is the reserved name of the built-in domain struct.
const DomainTypeName = "EIP712Domain"

// Field is a named, typed member of a struct type.
type Field struct {
	Name string
	Type TypeRef
}

// TypeDef declares a struct type. The order of Fields is significant.
type TypeDef struct {
	Name   string
	Fields []Field
}

// Schema is an immutable, validated set of struct type definitions. It is
// safe for concurrent use.
type Schema struct {
	types map[string][]Field

	// type name -> ethcommon.Hash
	typeHashes sync.Map
}

// NewSchema validates defs and builds a Schema. The order in which the
// definitions are passed does not matter; a definition's field order does.
func NewSchema(defs ...TypeDef) (*Schema, error) {
	types := make(map[string][]Field, len(defs))
	for _, def := range defs {
		if err := checkTypeName(def.Name); err != nil {
			return nil, err
		}
		if _, exists := types[def.Name]; exists {
			return nil, schemaErrorf(def.Name, "duplicate type definition")
		}

		seen := make(map[string]struct{}, len(def.Fields))
		fields := make([]Field, len(def.Fields))
		for i, f := range def.Fields {
			path := def.Name + "." + f.Name
			if !isIdentifier(f.Name) {
				return nil, schemaErrorf(def.Name, "invalid field name %q", f.Name)
			}
			if _, dup := seen[f.Name]; dup {
				return nil, schemaErrorf(path, "duplicate field")
			}
			seen[f.Name] = struct{}{}
			if err := f.Type.check(); err != nil {
				return nil, schemaErrorf(path, "%v", err)
			}
			fields[i] = Field{Name: f.Name, Type: cloneType(f.Type)}
		}
		types[def.Name] = fields
	}

	s := &Schema{types: types}
	if err := s.checkReferences(); err != nil {
		return nil, err
	}
	if err := s.checkCycles(); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseSchema builds a Schema from the loosely typed form used by
// eth_signTypedData_v4 payloads. An EIP712Domain entry is ignored here; see
// TypedData for how it is checked against the domain.
func ParseSchema(types apitypes.Types) (*Schema, error) {
	names := make([]string, 0, len(types))
	for name := range types {
		if name != DomainTypeName {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	defs := make([]TypeDef, 0, len(names))
	for _, name := range names {
		def := TypeDef{Name: name, Fields: make([]Field, 0, len(types[name]))}
		for _, f := range types[name] {
			t, err := ParseType(f.Type)
			if err != nil {
				return nil, schemaErrorf(name+"."+f.Name, "%v", err)
			}
			def.Fields = append(def.Fields, Field{Name: f.Name, Type: t})
		}
		defs = append(defs, def)
	}
	return NewSchema(defs...)
}

// MustSchema is like NewSchema but panics on error. It is meant for schemas
// declared as package-level variables.
func MustSchema(defs ...TypeDef) *Schema {
	s, err := NewSchema(defs...)
	if err != nil {
		panic(err)
	}
	return s
}

func checkTypeName(name string) error {
	if name == DomainTypeName {
		return schemaErrorf(name, "type name is reserved")
	}
	t, err := ParseType(name)
	if err != nil || t.Kind != KindStruct {
		return schemaErrorf(name, "invalid struct type name")
	}
	return nil
}

func cloneType(t TypeRef) TypeRef {
	if t.Elem != nil {
		elem := cloneType(*t.Elem)
		t.Elem = &elem
	}
	return t
}

func (s *Schema) checkReferences() error {
	for name, fields := range s.types {
		for _, f := range fields {
			base := f.Type.base()
			if base.Kind != KindStruct {
				continue
			}
			if _, ok := s.types[base.Name]; !ok {
				return schemaErrorf(name+"."+f.Name, "undefined type %q", base.Name)
			}
		}
	}
	return nil
}

func (s *Schema) checkCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(s.types))

	var visit func(name string, trail []string) error
	visit = func(name string, trail []string) error {
		switch state[name] {
		case visiting:
			return schemaErrorf(name, "cyclic struct reference %s", strings.Join(append(trail, name), " -> "))
		case done:
			return nil
		}
		state[name] = visiting
		for _, f := range s.types[name] {
			base := f.Type.base()
			if base.Kind != KindStruct {
				continue
			}
			if err := visit(base.Name, append(trail, name)); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	for _, name := range s.Names() {
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the defined type names in lexicographic order.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.types))
	for name := range s.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fields returns a copy of the declared fields of name.
func (s *Schema) Fields(name string) ([]Field, bool) {
	fields, ok := s.types[name]
	if !ok {
		return nil, false
	}
	out := make([]Field, len(fields))
	copy(out, fields)
	return out, true
}

// PrimaryType infers the root type: the single type that no other type
// references.
func (s *Schema) PrimaryType() (string, error) {
	referenced := make(map[string]struct{}, len(s.types))
	for _, fields := range s.types {
		for _, f := range fields {
			if base := f.Type.base(); base.Kind == KindStruct {
				referenced[base.Name] = struct{}{}
			}
		}
	}

	var roots []string
	for _, name := range s.Names() {
		if _, ok := referenced[name]; !ok {
			roots = append(roots, name)
		}
	}
	switch len(roots) {
	case 0:
		return "", schemaErrorf("", "no primary type")
	case 1:
		return roots[0], nil
	default:
		return "", schemaErrorf("", "ambiguous primary type, candidates: %s", strings.Join(roots, ", "))
	}
}

// dependencies returns every struct type transitively referenced by name,
// excluding name itself, sorted lexicographically.
func (s *Schema) dependencies(name string) []string {
	found := map[string]struct{}{name: {}}
	stack := []string{name}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, f := range s.types[cur] {
			base := f.Type.base()
			if base.Kind != KindStruct {
				continue
			}
			if _, ok := found[base.Name]; ok {
				continue
			}
			found[base.Name] = struct{}{}
			stack = append(stack, base.Name)
		}
	}

	deps := make([]string, 0, len(found)-1)
	for dep := range found {
		if dep != name {
			deps = append(deps, dep)
		}
	}
	sort.Strings(deps)
	return deps
}

func writeSignature(b *strings.Builder, name string, fields []Field) {
	b.WriteString(name)
	b.WriteByte('(')
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.Type.String())
		b.WriteByte(' ')
		b.WriteString(f.Name)
	}
	b.WriteByte(')')
}

// EncodeType returns the full type string of name: its own signature
// followed by the signatures of all referenced types in name order.
func (s *Schema) EncodeType(name string) (string, error) {
	fields, ok := s.types[name]
	if !ok {
		return "", schemaErrorf(name, "undefined type")
	}

	var b strings.Builder
	writeSignature(&b, name, fields)
	for _, dep := range s.dependencies(name) {
		writeSignature(&b, dep, s.types[dep])
	}
	return b.String(), nil
}

// TypeHash returns keccak256(EncodeType(name)).
func (s *Schema) TypeHash(name string) (ethcommon.Hash, error) {
	if cached, ok := s.typeHashes.Load(name); ok {
		return cached.(ethcommon.Hash), nil
	}

	encoded, err := s.EncodeType(name)
	if err != nil {
		return ethcommon.Hash{}, err
	}
	hash := crypto.Keccak256Hash([]byte(encoded))
	s.typeHashes.Store(name, hash)
	return hash, nil
}

// APITypes renders the schema in eth_signTypedData_v4 form, including the
// EIP712Domain entry for domain.
func (s *Schema) APITypes(domain Domain) apitypes.Types {
	out := make(apitypes.Types, len(s.types)+1)
	out[DomainTypeName] = toAPIFields(domain.Fields())
	for name, fields := range s.types {
		out[name] = toAPIFields(fields)
	}
	return out
}

func toAPIFields(fields []Field) []apitypes.Type {
	out := make([]apitypes.Type, len(fields))
	for i, f := range fields {
		out[i] = apitypes.Type{Name: f.Name, Type: f.Type.String()}
	}
	return out
}
