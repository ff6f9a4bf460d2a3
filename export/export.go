// Package export defines the abstract visitor contract external code
// generators implement against, plus a GeneratedCode sink that collects
// their output and flushes it to disk atomically. typedgraph itself ships
// only one concrete Visitor - JSONExporter - as a structural reference
// implementation; target-language emitters live outside this module.
package export

import (
	"os"
	"path/filepath"

	"github.com/aledsdavies/typedgraph/internal/xerrors"
	"github.com/aledsdavies/typedgraph/schema/ast"
)

// Visitor is implemented by every code generator. Methods are called once
// per declaration in the schema's stored order; a generator that cares
// about cross-references should build its own index in VisitSchema.
type Visitor interface {
	VisitSchema(schema *ast.Schema, sink *GeneratedCode) error
	VisitNode(decl *ast.NodeDecl, sink *GeneratedCode) error
	VisitEdge(decl *ast.EdgeDecl, sink *GeneratedCode) error
	VisitStruct(decl *ast.StructDecl, sink *GeneratedCode) error
	VisitEnum(decl *ast.EnumDecl, sink *GeneratedCode) error
}

// Run drives v over every statement in schema in stored order, returning
// the accumulated sink.
func Run(v Visitor, schema *ast.Schema) (*GeneratedCode, error) {
	sink := NewGeneratedCode()
	if err := v.VisitSchema(schema, sink); err != nil {
		return nil, err
	}
	for _, st := range schema.Statements {
		var err error
		switch n := st.(type) {
		case *ast.NodeDecl:
			err = v.VisitNode(n, sink)
		case *ast.EdgeDecl:
			err = v.VisitEdge(n, sink)
		case *ast.StructDecl:
			err = v.VisitStruct(n, sink)
		case *ast.EnumDecl:
			err = v.VisitEnum(n, sink)
		}
		if err != nil {
			return nil, err
		}
	}
	return sink, nil
}

// GeneratedCode accumulates path -> text output from a Visitor. The last
// write to a given path wins; Flush writes every accumulated path to disk
// only after every write has succeeded, so a failing generator never
// leaves a partial output tree behind.
type GeneratedCode struct {
	files map[string]string
	order []string
}

func NewGeneratedCode() *GeneratedCode {
	return &GeneratedCode{files: make(map[string]string)}
}

// Write stores text under path, overwriting any prior write to that path.
func (g *GeneratedCode) Write(path, text string) {
	if _, exists := g.files[path]; !exists {
		g.order = append(g.order, path)
	}
	g.files[path] = text
}

func (g *GeneratedCode) Paths() []string { return append([]string(nil), g.order...) }
func (g *GeneratedCode) Content(path string) (string, bool) {
	t, ok := g.files[path]
	return t, ok
}

// Flush writes every accumulated file under dir, creating parent
// directories as needed.
func (g *GeneratedCode) Flush(dir string) error {
	for _, path := range g.order {
		full := filepath.Join(dir, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return xerrors.Wrap(xerrors.KindIO, "creating output directory", err)
		}
		if err := os.WriteFile(full, []byte(g.files[path]), 0o644); err != nil {
			return xerrors.Wrap(xerrors.KindIO, "writing generated file "+path, err)
		}
	}
	return nil
}
