// Package changeset defines the ChangeSet produced by the diff engine and
// replayed by the apply engine: a canonical, ordered list of SingleChange
// entries describing how one schema version becomes another.
package changeset

import "github.com/aledsdavies/typedgraph/schema/ast"

// FieldPath addresses a location inside a declaration for changes that
// touch a single field, enum variant, or edge endpoint rather than the
// whole declaration. An empty path means "the declaration itself".
type FieldPath struct {
	Segments []string
}

func NewFieldPath(segments ...string) FieldPath { return FieldPath{Segments: segments} }

func (p FieldPath) String() string {
	s := ""
	for i, seg := range p.Segments {
		if i > 0 {
			s += "."
		}
		s += seg
	}
	return s
}

func (p FieldPath) Empty() bool { return len(p.Segments) == 0 }

// SingleChange is the sealed union of individual schema edits. Only types
// declared in this package implement it.
type SingleChange interface {
	changeNode()
	// DeclName is the top-level declaration the change applies to.
	DeclName() string
}

// AddedNode / AddedEdge / AddedStruct / AddedEnum / AddedImport record a
// brand new top-level declaration.
type AddedNode struct{ Decl *ast.NodeDecl }
type AddedEdge struct{ Decl *ast.EdgeDecl }
type AddedStruct struct{ Decl *ast.StructDecl }
type AddedEnum struct{ Decl *ast.EnumDecl }
type AddedImport struct{ Decl *ast.ImportDecl }

func (AddedNode) changeNode()   {}
func (AddedEdge) changeNode()   {}
func (AddedStruct) changeNode() {}
func (AddedEnum) changeNode()   {}
func (AddedImport) changeNode() {}

func (c AddedNode) DeclName() string   { return c.Decl.Name }
func (c AddedEdge) DeclName() string   { return c.Decl.Name }
func (c AddedStruct) DeclName() string { return c.Decl.Name }
func (c AddedEnum) DeclName() string   { return c.Decl.Name }
func (c AddedImport) DeclName() string { return c.Decl.Name }

// RemovedDecl records the removal of a whole top-level declaration by name
// and kind (needed because apply replays against a schema that no longer
// has the original node to introspect).
type RemovedDecl struct {
	Name string
	Kind string // "node", "edge", "struct", "enum", "import"
}

func (RemovedDecl) changeNode()        {}
func (c RemovedDecl) DeclName() string { return c.Name }

// RenamedDecl records a top-level declaration keeping its identity (and
// its fields) but changing name - the diff engine's rename-detection
// collapses what would otherwise be a Removed+Added pair into this.
type RenamedDecl struct {
	OldName string
	NewName string
	Kind    string
}

func (RenamedDecl) changeNode()        {}
func (c RenamedDecl) DeclName() string { return c.OldName }

// EditedVisibility changes a declaration's or field's visibility modifier.
type EditedVisibility struct {
	Decl  string
	Path  FieldPath
	Old   ast.Visibility
	New   ast.Visibility
}

func (EditedVisibility) changeNode()        {}
func (c EditedVisibility) DeclName() string { return c.Decl }

// EditedType changes the TypeTerm of a field addressed by Path.
type EditedType struct {
	Decl string
	Path FieldPath
	Old  ast.TypeTerm
	New  ast.TypeTerm
}

func (EditedType) changeNode()        {}
func (c EditedType) DeclName() string { return c.Decl }

// AddedField / RemovedField / RenamedField edit a Fields container nested
// inside a declaration (struct body, node body, edge body, enum variant
// payload) addressed by Path to the container's owner.
type AddedField struct {
	Decl  string
	Path  FieldPath
	Index int
	Field ast.Field
}
type RemovedField struct {
	Decl  string
	Path  FieldPath
	Index int
	Name  string
}
type RenamedField struct {
	Decl    string
	Path    FieldPath
	OldName string
	NewName string
}

func (AddedField) changeNode()          {}
func (RemovedField) changeNode()        {}
func (RenamedField) changeNode()        {}
func (c AddedField) DeclName() string   { return c.Decl }
func (c RemovedField) DeclName() string { return c.Decl }
func (c RenamedField) DeclName() string { return c.Decl }

// AddedVariant / RemovedVariant / RenamedVariant edit an EnumDecl's
// Variants list.
type AddedVariant struct {
	Decl    string
	Index   int
	Variant ast.EnumVariant
}
type RemovedVariant struct {
	Decl  string
	Index int
	Name  string
}
type RenamedVariant struct {
	Decl    string
	OldName string
	NewName string
}

func (AddedVariant) changeNode()          {}
func (RemovedVariant) changeNode()        {}
func (RenamedVariant) changeNode()        {}
func (c AddedVariant) DeclName() string   { return c.Decl }
func (c RemovedVariant) DeclName() string { return c.Decl }
func (c RenamedVariant) DeclName() string { return c.Decl }

// AddedEndpoint / RemovedEndpoint / EditedEndpoint edit an EdgeDecl's
// Endpoints set, addressed by the (Source, Target) pair that identifies
// an endpoint tuple.
type AddedEndpoint struct {
	Decl     string
	Endpoint ast.Endpoint
}
type RemovedEndpoint struct {
	Decl   string
	Source string
	Target string
}
type EditedEndpoint struct {
	Decl             string
	Source           string
	Target           string
	OldQuantifierOut ast.Quantifier
	NewQuantifierOut ast.Quantifier
	OldQuantifierIn  ast.Quantifier
	NewQuantifierIn  ast.Quantifier
	OldRenameTag     string
	NewRenameTag     string
}

func (AddedEndpoint) changeNode()      {}
func (RemovedEndpoint) changeNode()    {}
func (EditedEndpoint) changeNode()     {}
func (c AddedEndpoint) DeclName() string   { return c.Decl }
func (c RemovedEndpoint) DeclName() string { return c.Decl }
func (c EditedEndpoint) DeclName() string  { return c.Decl }

// ChangeSet is the canonical, ordered list of changes from one schema
// version to another, keyed to the schema hashes it connects. Order is
// part of its identity: the diff engine always emits Removed before
// Added before Edited within each container so apply never observes an
// intermediate state that violates uniqueness invariants.
type ChangeSet struct {
	OldVersion string
	NewVersion string
	OldHash    uint64
	NewHash    uint64
	Changes    []SingleChange
}
