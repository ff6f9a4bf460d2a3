// Package hash computes the deterministic 64-bit content hash of a schema.
//
// The hash is taken over semantic content only: position markers are never
// read, ordered containers (Fields, enum variants) contribute their length
// and elements in declaration order, and unordered containers (attribute
// sets, edge endpoint sets) are sorted by their canonical textual key
// before being fed in - so a schema hashes identically regardless of which
// order attributes or endpoints were written in source.
//
// The pipeline builds a canonical intermediate tree with a fixed field
// order, encodes it deterministically with the CBOR canonical options,
// then hashes the bytes: BLAKE2b-256 truncated to the first 8 bytes,
// read little-endian, to satisfy the 64-bit requirement.
package hash

import (
	"encoding/binary"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/aledsdavies/typedgraph/schema/ast"
)

// canonical* types are the intermediate tree that actually gets encoded.
// Field order here is part of the wire contract: changing it changes every
// hash ever computed, so it must never be reordered casually.

type canonicalSchema struct {
	Statements []canonicalStatement `cbor:"1,keyasint"`
}

type canonicalStatement struct {
	Kind       string              `cbor:"1,keyasint"`
	Name       string              `cbor:"2,keyasint"`
	Visibility int                 `cbor:"3,keyasint"`
	Attributes []canonicalAttr     `cbor:"4,keyasint"`
	Fields     []canonicalField    `cbor:"5,keyasint"`
	Endpoints  []canonicalEndpoint `cbor:"6,keyasint"`
	TypeParams []string            `cbor:"8,keyasint"`
	Variants   []canonicalVariant  `cbor:"9,keyasint"`
}

type canonicalAttr struct {
	Name  string `cbor:"1,keyasint"`
	Value string `cbor:"2,keyasint"`
}

type canonicalField struct {
	Name       string        `cbor:"1,keyasint"`
	Type       canonicalType `cbor:"2,keyasint"`
	Visibility int           `cbor:"3,keyasint"`
	Attributes []canonicalAttr `cbor:"4,keyasint"`
}

type canonicalType struct {
	Kind     int             `cbor:"1,keyasint"`
	Name     string          `cbor:"2,keyasint"`
	Args     []canonicalType `cbor:"3,keyasint"`
	Optional bool            `cbor:"4,keyasint"`
}

type canonicalEndpoint struct {
	Source        string `cbor:"1,keyasint"`
	Target        string `cbor:"2,keyasint"`
	QuantOutKind  int    `cbor:"3,keyasint"`
	QuantOutMin   int    `cbor:"4,keyasint"`
	QuantOutMax   int    `cbor:"5,keyasint"`
	QuantInKind   int    `cbor:"6,keyasint"`
	QuantInMin    int    `cbor:"7,keyasint"`
	QuantInMax    int    `cbor:"8,keyasint"`
	RenameTag     string `cbor:"9,keyasint"`
}

type canonicalVariant struct {
	Name   string           `cbor:"1,keyasint"`
	Fields []canonicalField `cbor:"2,keyasint"`
	HasFields bool          `cbor:"3,keyasint"`
}

func toCanonicalAttrs(s ast.AttributeSet) []canonicalAttr {
	items := s.Items()
	out := make([]canonicalAttr, len(items))
	for i, a := range items {
		out[i] = canonicalAttr{Name: a.Name, Value: a.Value}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name+"="+out[i].Value < out[j].Name+"="+out[j].Value
	})
	return out
}

func toCanonicalType(t ast.TypeTerm) canonicalType {
	args := make([]canonicalType, len(t.Args))
	for i, a := range t.Args {
		args[i] = toCanonicalType(a)
	}
	return canonicalType{Kind: int(t.Kind), Name: t.Name, Args: args, Optional: t.Optional}
}

func toCanonicalFields(f *ast.Fields) []canonicalField {
	if f == nil {
		return nil
	}
	out := make([]canonicalField, f.Len())
	for i := 0; i < f.Len(); i++ {
		fld := f.At(i)
		out[i] = canonicalField{
			Name:       fld.Name,
			Type:       toCanonicalType(fld.Type),
			Visibility: int(fld.Visibility),
			Attributes: toCanonicalAttrs(fld.Attributes),
		}
	}
	return out
}

func toCanonicalEndpoints(eps []ast.Endpoint) []canonicalEndpoint {
	out := make([]canonicalEndpoint, len(eps))
	for i, e := range eps {
		out[i] = canonicalEndpoint{
			Source:       e.Source,
			Target:       e.Target,
			QuantOutKind: int(e.QuantifierOut.Kind),
			QuantOutMin:  e.QuantifierOut.Min,
			QuantOutMax:  e.QuantifierOut.Max,
			QuantInKind:  int(e.QuantifierIn.Kind),
			QuantInMin:   e.QuantifierIn.Min,
			QuantInMax:   e.QuantifierIn.Max,
			RenameTag:    e.RenameTag,
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source+"->"+out[i].Target+"#"+out[i].RenameTag < out[j].Source+"->"+out[j].Target+"#"+out[j].RenameTag })
	return out
}

func toCanonicalStatement(st ast.Statement) canonicalStatement {
	switch n := st.(type) {
	case *ast.NodeDecl:
		return canonicalStatement{
			Kind: "node", Name: n.Name, Visibility: int(n.Visibility),
			Attributes: toCanonicalAttrs(n.Attributes), Fields: toCanonicalFields(n.Fields),
			TypeParams: append([]string(nil), n.TypeParameters...),
		}
	case *ast.EdgeDecl:
		return canonicalStatement{
			Kind: "edge", Name: n.Name, Visibility: int(n.Visibility),
			Attributes: toCanonicalAttrs(n.Attributes), Fields: toCanonicalFields(n.Fields),
			Endpoints:  toCanonicalEndpoints(n.Endpoints),
			TypeParams: append([]string(nil), n.TypeParameters...),
		}
	case *ast.StructDecl:
		return canonicalStatement{
			Kind: "struct", Name: n.Name, Visibility: int(n.Visibility),
			Attributes: toCanonicalAttrs(n.Attributes), Fields: toCanonicalFields(n.Fields),
			TypeParams: append([]string(nil), n.TypeParameters...),
		}
	case *ast.EnumDecl:
		variants := make([]canonicalVariant, len(n.Variants))
		for i, v := range n.Variants {
			variants[i] = canonicalVariant{
				Name: v.Name, Fields: toCanonicalFields(v.Fields), HasFields: v.Fields != nil,
			}
		}
		return canonicalStatement{
			Kind: "enum", Name: n.Name, Visibility: int(n.Visibility),
			Attributes: toCanonicalAttrs(n.Attributes), Variants: variants,
			TypeParams: append([]string(nil), n.TypeParameters...),
		}
	case *ast.ImportDecl:
		return canonicalStatement{Kind: "import", Name: n.Name}
	default:
		panic("hash: unknown statement kind")
	}
}

// Compute returns the deterministic 64-bit content hash of schema,
// ignoring the existing Hash field (callers assign the result themselves).
func Compute(schema *ast.Schema) (uint64, error) {
	cs := canonicalSchema{Statements: make([]canonicalStatement, len(schema.Statements))}
	for i, st := range schema.Statements {
		cs.Statements[i] = toCanonicalStatement(st)
	}

	encoded, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return 0, err
	}
	data, err := encoded.Marshal(cs)
	if err != nil {
		return 0, err
	}

	sum := blake2b.Sum256(data)
	return binary.LittleEndian.Uint64(sum[:8]), nil
}
