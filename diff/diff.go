// Package diff builds the canonical ChangeSet between two schema versions.
//
// Declaration-level changes are classified by scanning removed and added
// names for an equivalent declaration body: when exactly one removed name
// and one added name would otherwise produce two entries but are
// structurally identical apart from the name, they collapse into a single
// RenamedDecl. Ties (multiple equally-good rename candidates) are broken
// lexicographically on the old name, then the new name, so the same pair
// of schemas always produces the same ChangeSet.
//
// Within a single declaration, field/variant/endpoint renames are detected
// the same way, scoped to that declaration's own container.
//
// Top-level declarations are ordered Removed, then Added, then Renamed,
// then Edited. Within a declaration, a declaration-level visibility edit
// comes first, and each container (fields, variants, endpoints) lists its
// own changes Removed, then Added, then Renamed, then Edited - so
// replaying a ChangeSet never passes through an
// intermediate schema with two fields of the same name or a dangling
// reference, matching the original's "a change can never be in a state
// that invalidates invariants" rule.
package diff

import (
	"sort"

	"github.com/aledsdavies/typedgraph/changeset"
	"github.com/aledsdavies/typedgraph/internal/invariant"
	"github.com/aledsdavies/typedgraph/schema/ast"
)

// BuildChangeSet computes the ordered ChangeSet turning old into new.
func BuildChangeSet(old, new *ast.Schema) (*changeset.ChangeSet, error) {
	invariant.NotNil(old, "old")
	invariant.NotNil(new, "new")

	cs := &changeset.ChangeSet{OldVersion: old.Version, NewVersion: new.Version, OldHash: old.Hash, NewHash: new.Hash}

	oldByName := indexStatements(old.Statements)
	newByName := indexStatements(new.Statements)

	var removedNames, addedNames, commonNames []string
	for name := range oldByName {
		if _, ok := newByName[name]; ok {
			commonNames = append(commonNames, name)
		} else {
			removedNames = append(removedNames, name)
		}
	}
	for name := range newByName {
		if _, ok := oldByName[name]; !ok {
			addedNames = append(addedNames, name)
		}
	}
	sort.Strings(removedNames)
	sort.Strings(addedNames)
	sort.Strings(commonNames)

	renamedOld, renamedNew, renameOf := detectDeclRenames(oldByName, newByName, removedNames, addedNames)

	// Removed (excluding those reinterpreted as renames).
	for _, name := range removedNames {
		if renamedOld[name] {
			continue
		}
		cs.Changes = append(cs.Changes, removedChange(oldByName[name]))
	}

	// Added (excluding those reinterpreted as renames).
	for _, name := range addedNames {
		if renamedNew[name] {
			continue
		}
		cs.Changes = append(cs.Changes, addedChange(newByName[name]))
	}

	// Renamed declarations, in lexicographic old-name order.
	var renamedOldNames []string
	for oldName := range renameOf {
		renamedOldNames = append(renamedOldNames, oldName)
	}
	sort.Strings(renamedOldNames)
	for _, oldName := range renamedOldNames {
		newName := renameOf[oldName]
		cs.Changes = append(cs.Changes, changeset.RenamedDecl{
			OldName: oldName, NewName: newName, Kind: declKind(oldByName[oldName]),
		})
		edits, err := diffDeclBody(newName, oldByName[oldName], newByName[newName])
		if err != nil {
			return nil, err
		}
		cs.Changes = append(cs.Changes, edits...)
	}

	// Edited bodies for declarations that kept their name.
	for _, name := range commonNames {
		edits, err := diffDeclBody(name, oldByName[name], newByName[name])
		if err != nil {
			return nil, err
		}
		cs.Changes = append(cs.Changes, edits...)
	}

	return cs, nil
}

func indexStatements(stmts []ast.Statement) map[string]ast.Statement {
	m := make(map[string]ast.Statement, len(stmts))
	for _, st := range stmts {
		m[st.DeclName()] = st
	}
	return m
}

func declKind(st ast.Statement) string {
	switch st.(type) {
	case *ast.NodeDecl:
		return "node"
	case *ast.EdgeDecl:
		return "edge"
	case *ast.StructDecl:
		return "struct"
	case *ast.EnumDecl:
		return "enum"
	case *ast.ImportDecl:
		return "import"
	default:
		return "unknown"
	}
}

func removedChange(st ast.Statement) changeset.SingleChange {
	return changeset.RemovedDecl{Name: st.DeclName(), Kind: declKind(st)}
}

func addedChange(st ast.Statement) changeset.SingleChange {
	switch n := st.(type) {
	case *ast.NodeDecl:
		return changeset.AddedNode{Decl: n}
	case *ast.EdgeDecl:
		return changeset.AddedEdge{Decl: n}
	case *ast.StructDecl:
		return changeset.AddedStruct{Decl: n}
	case *ast.EnumDecl:
		return changeset.AddedEnum{Decl: n}
	case *ast.ImportDecl:
		return changeset.AddedImport{Decl: n}
	default:
		panic("diff: unknown statement kind")
	}
}

// detectDeclRenames chooses the interpretation of the removed/added name
// sets that minimizes total ChangeSet entries: each matched pair replaces
// a Removed+Added (2 entries) with a single Renamed (plus body edits,
// which both interpretations would need anyway). Only structurally
// compatible pairs (same kind, same body once names are ignored) are
// candidates. Ties are broken lexicographically.
func detectDeclRenames(oldByName, newByName map[string]ast.Statement, removedNames, addedNames []string) (map[string]bool, map[string]bool, map[string]string) {
	renamedOld := map[string]bool{}
	renamedNew := map[string]bool{}
	renameOf := map[string]string{}

	usedNew := map[string]bool{}
	for _, oldName := range removedNames {
		var bestNew string
		for _, newName := range addedNames {
			if usedNew[newName] {
				continue
			}
			if declKind(oldByName[oldName]) != declKind(newByName[newName]) {
				continue
			}
			if !bodyEquivalentIgnoringName(oldByName[oldName], newByName[newName]) {
				continue
			}
			if bestNew == "" || newName < bestNew {
				bestNew = newName
			}
		}
		if bestNew != "" {
			usedNew[bestNew] = true
			renamedOld[oldName] = true
			renamedNew[bestNew] = true
			renameOf[oldName] = bestNew
		}
	}
	return renamedOld, renamedNew, renameOf
}

// bodyEquivalentIgnoringName reports whether two declarations of the same
// kind have identical bodies, disregarding their Name field - the
// signal used to decide a removed/added pair is "really" a rename.
func bodyEquivalentIgnoringName(a, b ast.Statement) bool {
	switch x := a.(type) {
	case *ast.NodeDecl:
		y := b.(*ast.NodeDecl)
		return fieldsEqual(x.Fields, y.Fields)
	case *ast.EdgeDecl:
		y := b.(*ast.EdgeDecl)
		return fieldsEqual(x.Fields, y.Fields) && endpointsEqual(x.Endpoints, y.Endpoints)
	case *ast.StructDecl:
		y := b.(*ast.StructDecl)
		return fieldsEqual(x.Fields, y.Fields)
	case *ast.EnumDecl:
		y := b.(*ast.EnumDecl)
		return variantsEqual(x.Variants, y.Variants)
	default:
		return false
	}
}

func fieldsEqual(a, b *ast.Fields) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		fa, fb := a.At(i), b.At(i)
		if fa.Name != fb.Name || !fa.Type.Equal(fb.Type) || fa.Visibility != fb.Visibility {
			return false
		}
	}
	return true
}

func endpointsEqual(a, b []ast.Endpoint) bool {
	if len(a) != len(b) {
		return false
	}
	am := map[string]ast.Endpoint{}
	for _, e := range a {
		am[e.CanonicalKey()] = e
	}
	for _, e := range b {
		o, ok := am[e.CanonicalKey()]
		if !ok || !o.QuantifierOut.Equal(e.QuantifierOut) || !o.QuantifierIn.Equal(e.QuantifierIn) {
			return false
		}
	}
	return true
}

func variantsEqual(a, b []ast.EnumVariant) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !fieldsEqual(a[i].Fields, b[i].Fields) {
			return false
		}
	}
	return true
}
