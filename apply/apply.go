// Package apply replays a ChangeSet against a schema to produce the next
// version. Application is hash-gated: the ChangeSet records the hash it
// expects to find on the input schema, and the hash it expects to produce
// on the output, so a ChangeSet built against one fork of a schema's
// history can never be silently replayed against another.
package apply

import (
	"github.com/aledsdavies/typedgraph/changeset"
	"github.com/aledsdavies/typedgraph/internal/xerrors"
	"github.com/aledsdavies/typedgraph/schema/ast"
	"github.com/aledsdavies/typedgraph/schema/hash"
)

// Apply replays cs against schema and returns the resulting schema. The
// result has its own statement list, but it shares the declaration values
// with schema: field, variant and endpoint edits modify those declarations
// in place, so callers that need schema unchanged must clone it first.
func Apply(cs *changeset.ChangeSet, schema *ast.Schema) (*ast.Schema, error) {
	actualHash, err := hash.Compute(schema)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindIO, "computing input schema hash", err)
	}
	if actualHash != cs.OldHash {
		return nil, xerrors.New(xerrors.KindIncompatibleVersion,
			"changeset was built against a different schema version").
			WithContext("expected", cs.OldHash).WithContext("actual", actualHash)
	}

	out := &ast.Schema{Version: cs.NewVersion, Statements: append([]ast.Statement(nil), schema.Statements...)}

	for _, ch := range cs.Changes {
		if err := applyOne(out, ch); err != nil {
			return nil, err
		}
	}

	newHash, err := hash.Compute(out)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindIO, "computing output schema hash", err)
	}
	if newHash != cs.NewHash {
		return nil, xerrors.New(xerrors.KindUpdateFailed,
			"applying changeset did not reproduce the recorded target hash").
			WithContext("expected", cs.NewHash).WithContext("actual", newHash)
	}
	out.Hash = newHash
	return out, nil
}

func applyOne(s *ast.Schema, ch changeset.SingleChange) error {
	switch c := ch.(type) {
	case changeset.AddedNode:
		s.Statements = append(s.Statements, c.Decl)
	case changeset.AddedEdge:
		s.Statements = append(s.Statements, c.Decl)
	case changeset.AddedStruct:
		s.Statements = append(s.Statements, c.Decl)
	case changeset.AddedEnum:
		s.Statements = append(s.Statements, c.Decl)
	case changeset.AddedImport:
		s.Statements = append(s.Statements, c.Decl)

	case changeset.RemovedDecl:
		if !removeStatement(s, c.Name) {
			return unknownDecl(c.Name)
		}

	case changeset.RenamedDecl:
		st, idx := findStatement(s, c.OldName)
		if st == nil {
			return unknownDecl(c.OldName)
		}
		renamed := renameStatement(st, c.NewName)
		s.Statements[idx] = renamed

	case changeset.EditedVisibility:
		return applyEditedVisibility(s, c)
	case changeset.EditedType:
		return applyEditedType(s, c)

	case changeset.AddedField:
		return applyFieldsEdit(s, c.Decl, c.Path, func(f *ast.Fields) error {
			f.Insert(c.Index, c.Field)
			return nil
		})
	case changeset.RemovedField:
		return applyFieldsEdit(s, c.Decl, c.Path, func(f *ast.Fields) error {
			idx, ok := f.IndexOf(c.Name)
			if !ok {
				return unknownField(c.Decl, c.Name)
			}
			f.Remove(idx)
			return nil
		})
	case changeset.RenamedField:
		return applyFieldsEdit(s, c.Decl, c.Path, func(f *ast.Fields) error {
			idx, ok := f.IndexOf(c.OldName)
			if !ok {
				return unknownField(c.Decl, c.OldName)
			}
			fl := f.At(idx)
			fl.Name = c.NewName
			f.Set(idx, fl)
			return nil
		})

	case changeset.AddedVariant:
		return applyEnumEdit(s, c.Decl, func(e *ast.EnumDecl) error {
			e.Variants = insertVariant(e.Variants, c.Index, c.Variant)
			return nil
		})
	case changeset.RemovedVariant:
		return applyEnumEdit(s, c.Decl, func(e *ast.EnumDecl) error {
			i := variantIndex(e.Variants, c.Name)
			if i < 0 {
				return unknownField(c.Decl, c.Name)
			}
			e.Variants = append(e.Variants[:i], e.Variants[i+1:]...)
			return nil
		})
	case changeset.RenamedVariant:
		return applyEnumEdit(s, c.Decl, func(e *ast.EnumDecl) error {
			i := variantIndex(e.Variants, c.OldName)
			if i < 0 {
				return unknownField(c.Decl, c.OldName)
			}
			e.Variants[i].Name = c.NewName
			return nil
		})

	case changeset.AddedEndpoint:
		return applyEdgeEdit(s, c.Decl, func(e *ast.EdgeDecl) error {
			e.Endpoints = append(e.Endpoints, c.Endpoint)
			return nil
		})
	case changeset.RemovedEndpoint:
		return applyEdgeEdit(s, c.Decl, func(e *ast.EdgeDecl) error {
			e.Endpoints = removeEndpoint(e.Endpoints, c.Source, c.Target)
			return nil
		})
	case changeset.EditedEndpoint:
		return applyEdgeEdit(s, c.Decl, func(e *ast.EdgeDecl) error {
			for i := range e.Endpoints {
				if e.Endpoints[i].Source == c.Source && e.Endpoints[i].Target == c.Target {
					e.Endpoints[i].QuantifierOut = c.NewQuantifierOut
					e.Endpoints[i].QuantifierIn = c.NewQuantifierIn
					e.Endpoints[i].RenameTag = c.NewRenameTag
				}
			}
			return nil
		})

	default:
		return xerrors.New(xerrors.KindUpdateFailed, "unrecognized change kind in changeset")
	}
	return nil
}

func unknownDecl(name string) error {
	return xerrors.New(xerrors.KindUpdateFailed, "changeset refers to unknown declaration").WithContext("name", name)
}

func unknownField(decl, name string) error {
	return xerrors.New(xerrors.KindUpdateFailed, "changeset refers to unknown field").
		WithContext("decl", decl).WithContext("field", name)
}

func findStatement(s *ast.Schema, name string) (ast.Statement, int) {
	for i, st := range s.Statements {
		if st.DeclName() == name {
			return st, i
		}
	}
	return nil, -1
}

func removeStatement(s *ast.Schema, name string) bool {
	_, idx := findStatement(s, name)
	if idx < 0 {
		return false
	}
	s.Statements = append(s.Statements[:idx], s.Statements[idx+1:]...)
	return true
}

func renameStatement(st ast.Statement, newName string) ast.Statement {
	switch n := st.(type) {
	case *ast.NodeDecl:
		cp := *n
		cp.Name = newName
		return &cp
	case *ast.EdgeDecl:
		cp := *n
		cp.Name = newName
		return &cp
	case *ast.StructDecl:
		cp := *n
		cp.Name = newName
		return &cp
	case *ast.EnumDecl:
		cp := *n
		cp.Name = newName
		return &cp
	case *ast.ImportDecl:
		cp := *n
		cp.Name = newName
		return &cp
	default:
		panic("apply: unknown statement kind")
	}
}

func applyEditedVisibility(s *ast.Schema, c changeset.EditedVisibility) error {
	if c.Path.Empty() {
		st, idx := findStatement(s, c.Decl)
		if st == nil {
			return unknownDecl(c.Decl)
		}
		s.Statements[idx] = withVisibility(st, c.New)
		return nil
	}
	return applyFieldsEdit(s, c.Decl, parentPath(c.Path), func(f *ast.Fields) error {
		name := lastSegment(c.Path)
		idx, ok := f.IndexOf(name)
		if !ok {
			return unknownField(c.Decl, name)
		}
		fl := f.At(idx)
		fl.Visibility = c.New
		f.Set(idx, fl)
		return nil
	})
}

func withVisibility(st ast.Statement, v ast.Visibility) ast.Statement {
	switch n := st.(type) {
	case *ast.NodeDecl:
		cp := *n
		cp.Visibility = v
		return &cp
	case *ast.EdgeDecl:
		cp := *n
		cp.Visibility = v
		return &cp
	case *ast.StructDecl:
		cp := *n
		cp.Visibility = v
		return &cp
	case *ast.EnumDecl:
		cp := *n
		cp.Visibility = v
		return &cp
	default:
		return st
	}
}

func applyEditedType(s *ast.Schema, c changeset.EditedType) error {
	return applyFieldsEdit(s, c.Decl, parentPath(c.Path), func(f *ast.Fields) error {
		name := lastSegment(c.Path)
		idx, ok := f.IndexOf(name)
		if !ok {
			return unknownField(c.Decl, name)
		}
		fl := f.At(idx)
		fl.Type = c.New
		f.Set(idx, fl)
		return nil
	})
}

func parentPath(p changeset.FieldPath) changeset.FieldPath {
	if len(p.Segments) == 0 {
		return p
	}
	return changeset.NewFieldPath(p.Segments[:len(p.Segments)-1]...)
}

func lastSegment(p changeset.FieldPath) string {
	if len(p.Segments) == 0 {
		return ""
	}
	return p.Segments[len(p.Segments)-1]
}

// applyFieldsEdit resolves path against decl's own Fields container (for
// node/struct/edge bodies) or, for a one-segment path, against an enum
// variant's payload fields, then invokes fn on the resolved container.
func applyFieldsEdit(s *ast.Schema, decl string, path changeset.FieldPath, fn func(*ast.Fields) error) error {
	st, idx := findStatement(s, decl)
	if st == nil {
		return unknownDecl(decl)
	}

	if len(path.Segments) == 0 {
		f := fieldsOf(st)
		if f == nil {
			return unknownDecl(decl)
		}
		return fn(f)
	}

	if e, ok := st.(*ast.EnumDecl); ok {
		variantName := path.Segments[0]
		for i := range e.Variants {
			if e.Variants[i].Name == variantName {
				if e.Variants[i].Fields == nil {
					e.Variants[i].Fields = ast.NewFields()
				}
				err := fn(e.Variants[i].Fields)
				s.Statements[idx] = e
				return err
			}
		}
		return unknownField(decl, variantName)
	}

	return unknownDecl(decl)
}

func fieldsOf(st ast.Statement) *ast.Fields {
	switch n := st.(type) {
	case *ast.NodeDecl:
		return n.Fields
	case *ast.EdgeDecl:
		return n.Fields
	case *ast.StructDecl:
		return n.Fields
	default:
		return nil
	}
}

func applyEnumEdit(s *ast.Schema, decl string, fn func(*ast.EnumDecl) error) error {
	st, idx := findStatement(s, decl)
	e, ok := st.(*ast.EnumDecl)
	if !ok {
		return unknownDecl(decl)
	}
	if err := fn(e); err != nil {
		return err
	}
	s.Statements[idx] = e
	return nil
}

func applyEdgeEdit(s *ast.Schema, decl string, fn func(*ast.EdgeDecl) error) error {
	st, idx := findStatement(s, decl)
	e, ok := st.(*ast.EdgeDecl)
	if !ok {
		return unknownDecl(decl)
	}
	if err := fn(e); err != nil {
		return err
	}
	s.Statements[idx] = e
	return nil
}

func variantIndex(variants []ast.EnumVariant, name string) int {
	for i, v := range variants {
		if v.Name == name {
			return i
		}
	}
	return -1
}

func insertVariant(variants []ast.EnumVariant, idx int, v ast.EnumVariant) []ast.EnumVariant {
	out := append(variants, ast.EnumVariant{})
	copy(out[idx+1:], out[idx:])
	out[idx] = v
	return out
}

func removeEndpoint(eps []ast.Endpoint, source, target string) []ast.Endpoint {
	for i, e := range eps {
		if e.Source == source && e.Target == target {
			return append(eps[:i], eps[i+1:]...)
		}
	}
	return eps
}
