package diff

import (
	"sort"

	"github.com/aledsdavies/typedgraph/changeset"
	"github.com/aledsdavies/typedgraph/internal/xerrors"
	"github.com/aledsdavies/typedgraph/schema/ast"
)

// diffDeclBody compares the bodies of two declarations known to share an
// identity (same name, or connected by a RenamedDecl entry already
// emitted by the caller) and returns the field/variant/endpoint/visibility
// edits between them: a declaration-level visibility edit first, then each
// container's edits in Removed/Added/Renamed/Edited order. A declaration
// whose kind differs between the two versions fails with
// KindUnsupportedChange.
func diffDeclBody(name string, oldSt, newSt ast.Statement) ([]changeset.SingleChange, error) {
	var changes []changeset.SingleChange

	if declKind(oldSt) != declKind(newSt) {
		return nil, xerrors.New(xerrors.KindUnsupportedChange, "declaration changed kind").
			WithContext("name", name).WithContext("old", declKind(oldSt)).WithContext("new", declKind(newSt))
	}

	if oldSt.DeclVisibility() != newSt.DeclVisibility() {
		changes = append(changes, changeset.EditedVisibility{
			Decl: name, Old: oldSt.DeclVisibility(), New: newSt.DeclVisibility(),
		})
	}

	switch o := oldSt.(type) {
	case *ast.NodeDecl:
		n := newSt.(*ast.NodeDecl)
		changes = append(changes, diffFields(name, changeset.FieldPath{}, o.Fields, n.Fields)...)
	case *ast.StructDecl:
		n := newSt.(*ast.StructDecl)
		changes = append(changes, diffFields(name, changeset.FieldPath{}, o.Fields, n.Fields)...)
	case *ast.EdgeDecl:
		n := newSt.(*ast.EdgeDecl)
		changes = append(changes, diffFields(name, changeset.FieldPath{}, o.Fields, n.Fields)...)
		changes = append(changes, diffEndpoints(name, o.Endpoints, n.Endpoints)...)
	case *ast.EnumDecl:
		n := newSt.(*ast.EnumDecl)
		changes = append(changes, diffVariants(name, o.Variants, n.Variants)...)
	case *ast.ImportDecl:
		// import declarations have no addressable body beyond identity.
	}

	return changes, nil
}

func diffFields(decl string, path changeset.FieldPath, old, new *ast.Fields) []changeset.SingleChange {
	var out []changeset.SingleChange
	if old == nil && new == nil {
		return out
	}
	oldNames := fieldNameSet(old)
	newNames := fieldNameSet(new)

	var removed, added, common []string
	for n := range oldNames {
		if newNames[n] {
			common = append(common, n)
		} else {
			removed = append(removed, n)
		}
	}
	for n := range newNames {
		if !oldNames[n] {
			added = append(added, n)
		}
	}
	sort.Strings(removed)
	sort.Strings(added)
	sort.Strings(common)

	renamedOld, renamedNew, renameOf := detectFieldRenames(old, new, removed, added)

	for _, n := range removed {
		if renamedOld[n] {
			continue
		}
		idx, _ := old.IndexOf(n)
		out = append(out, changeset.RemovedField{Decl: decl, Path: path, Index: idx, Name: n})
	}
	for _, n := range added {
		if renamedNew[n] {
			continue
		}
		idx, _ := new.IndexOf(n)
		f, _ := new.Get(n)
		out = append(out, changeset.AddedField{Decl: decl, Path: path, Index: idx, Field: f})
	}

	var renamedOldNames []string
	for o := range renameOf {
		renamedOldNames = append(renamedOldNames, o)
	}
	sort.Strings(renamedOldNames)
	for _, o := range renamedOldNames {
		n := renameOf[o]
		out = append(out, changeset.RenamedField{Decl: decl, Path: path, OldName: o, NewName: n})
		out = append(out, diffFieldEdit(decl, path, o, n, old, new)...)
	}

	for _, n := range common {
		out = append(out, diffFieldEdit(decl, path, n, n, old, new)...)
	}

	return out
}

func diffFieldEdit(decl string, path changeset.FieldPath, oldName, newName string, old, new *ast.Fields) []changeset.SingleChange {
	var out []changeset.SingleChange
	of, _ := old.Get(oldName)
	nf, _ := new.Get(newName)
	if !of.Type.Equal(nf.Type) {
		out = append(out, changeset.EditedType{Decl: decl, Path: appendPath(path, newName), Old: of.Type, New: nf.Type})
	}
	if of.Visibility != nf.Visibility {
		out = append(out, changeset.EditedVisibility{Decl: decl, Path: appendPath(path, newName), Old: of.Visibility, New: nf.Visibility})
	}
	return out
}

func appendPath(p changeset.FieldPath, seg string) changeset.FieldPath {
	return changeset.NewFieldPath(append(append([]string(nil), p.Segments...), seg)...)
}

func fieldNameSet(f *ast.Fields) map[string]bool {
	m := map[string]bool{}
	if f == nil {
		return m
	}
	for _, fl := range f.All() {
		m[fl.Name] = true
	}
	return m
}

func detectFieldRenames(old, new *ast.Fields, removed, added []string) (map[string]bool, map[string]bool, map[string]string) {
	renamedOld := map[string]bool{}
	renamedNew := map[string]bool{}
	renameOf := map[string]string{}
	usedNew := map[string]bool{}

	for _, o := range removed {
		of, _ := old.Get(o)
		var best string
		for _, n := range added {
			if usedNew[n] {
				continue
			}
			nf, _ := new.Get(n)
			if of.Type.Equal(nf.Type) && of.Visibility == nf.Visibility {
				if best == "" || n < best {
					best = n
				}
			}
		}
		if best != "" {
			usedNew[best] = true
			renamedOld[o] = true
			renamedNew[best] = true
			renameOf[o] = best
		}
	}
	return renamedOld, renamedNew, renameOf
}

func diffEndpoints(decl string, old, new []ast.Endpoint) []changeset.SingleChange {
	var out []changeset.SingleChange
	oldByKey := map[string]ast.Endpoint{}
	for _, e := range old {
		oldByKey[e.CanonicalKey()] = e
	}
	newByKey := map[string]ast.Endpoint{}
	for _, e := range new {
		newByKey[e.CanonicalKey()] = e
	}

	var removed, added, common []string
	for k := range oldByKey {
		if _, ok := newByKey[k]; ok {
			common = append(common, k)
		} else {
			removed = append(removed, k)
		}
	}
	for k := range newByKey {
		if _, ok := oldByKey[k]; !ok {
			added = append(added, k)
		}
	}
	sort.Strings(removed)
	sort.Strings(added)
	sort.Strings(common)

	for _, k := range removed {
		e := oldByKey[k]
		out = append(out, changeset.RemovedEndpoint{Decl: decl, Source: e.Source, Target: e.Target})
	}
	for _, k := range added {
		out = append(out, changeset.AddedEndpoint{Decl: decl, Endpoint: newByKey[k]})
	}
	for _, k := range common {
		o, n := oldByKey[k], newByKey[k]
		if !o.QuantifierOut.Equal(n.QuantifierOut) || !o.QuantifierIn.Equal(n.QuantifierIn) || o.RenameTag != n.RenameTag {
			out = append(out, changeset.EditedEndpoint{
				Decl: decl, Source: o.Source, Target: o.Target,
				OldQuantifierOut: o.QuantifierOut, NewQuantifierOut: n.QuantifierOut,
				OldQuantifierIn: o.QuantifierIn, NewQuantifierIn: n.QuantifierIn,
				OldRenameTag: o.RenameTag, NewRenameTag: n.RenameTag,
			})
		}
	}
	return out
}

func diffVariants(decl string, old, new []ast.EnumVariant) []changeset.SingleChange {
	var out []changeset.SingleChange
	oldByName := map[string]ast.EnumVariant{}
	oldIndex := map[string]int{}
	for i, v := range old {
		oldByName[v.Name] = v
		oldIndex[v.Name] = i
	}
	newByName := map[string]ast.EnumVariant{}
	newIndex := map[string]int{}
	for i, v := range new {
		newByName[v.Name] = v
		newIndex[v.Name] = i
	}

	var removed, added, common []string
	for n := range oldByName {
		if _, ok := newByName[n]; ok {
			common = append(common, n)
		} else {
			removed = append(removed, n)
		}
	}
	for n := range newByName {
		if _, ok := oldByName[n]; !ok {
			added = append(added, n)
		}
	}
	sort.Strings(removed)
	sort.Strings(added)
	sort.Strings(common)

	renamedOld := map[string]bool{}
	renamedNew := map[string]bool{}
	renameOf := map[string]string{}
	usedNew := map[string]bool{}
	for _, o := range removed {
		ov := oldByName[o]
		var best string
		for _, n := range added {
			if usedNew[n] {
				continue
			}
			nv := newByName[n]
			if fieldsEqual(ov.Fields, nv.Fields) {
				if best == "" || n < best {
					best = n
				}
			}
		}
		if best != "" {
			usedNew[best] = true
			renamedOld[o] = true
			renamedNew[best] = true
			renameOf[o] = best
		}
	}

	for _, n := range removed {
		if renamedOld[n] {
			continue
		}
		out = append(out, changeset.RemovedVariant{Decl: decl, Index: oldIndex[n], Name: n})
	}
	for _, n := range added {
		if renamedNew[n] {
			continue
		}
		out = append(out, changeset.AddedVariant{Decl: decl, Index: newIndex[n], Variant: newByName[n]})
	}
	var renamedOldNames []string
	for o := range renameOf {
		renamedOldNames = append(renamedOldNames, o)
	}
	sort.Strings(renamedOldNames)
	for _, o := range renamedOldNames {
		n := renameOf[o]
		out = append(out, changeset.RenamedVariant{Decl: decl, OldName: o, NewName: n})
		out = append(out, diffFields(decl, changeset.NewFieldPath(n), oldByName[o].Fields, newByName[n].Fields)...)
	}
	for _, n := range common {
		out = append(out, diffFields(decl, changeset.NewFieldPath(n), oldByName[n].Fields, newByName[n].Fields)...)
	}
	return out
}
