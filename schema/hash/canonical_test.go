package hash_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/typedgraph/schema/ast"
	"github.com/aledsdavies/typedgraph/schema/hash"
)

func sampleSchema() *ast.Schema {
	fields := ast.NewFields()
	fields.Append(ast.Field{Name: "name", Type: ast.TypeTerm{Kind: ast.TypeKindPrimitive, Name: "string"}})
	return &ast.Schema{
		Version: "V1",
		Statements: []ast.Statement{
			&ast.NodeDecl{Name: "User", Fields: fields},
		},
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	a, err := hash.Compute(sampleSchema())
	require.NoError(t, err)
	b, err := hash.Compute(sampleSchema())
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestComputeIgnoresPosition(t *testing.T) {
	s1 := sampleSchema()
	s2 := sampleSchema()
	s2.Statements[0].(*ast.NodeDecl).Pos = ast.Position{Line: 99, Column: 42}

	h1, err := hash.Compute(s1)
	require.NoError(t, err)
	h2, err := hash.Compute(s2)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestComputeIgnoresAttributeOrder(t *testing.T) {
	fields := ast.NewFields()
	base := &ast.Schema{
		Version: "V1",
		Statements: []ast.Statement{
			&ast.NodeDecl{Name: "User", Fields: fields,
				Attributes: ast.NewAttributeSet(ast.Attribute{Name: "a"}, ast.Attribute{Name: "b"})},
		},
	}
	reordered := &ast.Schema{
		Version: "V1",
		Statements: []ast.Statement{
			&ast.NodeDecl{Name: "User", Fields: fields,
				Attributes: ast.NewAttributeSet(ast.Attribute{Name: "b"}, ast.Attribute{Name: "a"})},
		},
	}

	h1, err := hash.Compute(base)
	require.NoError(t, err)
	h2, err := hash.Compute(reordered)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestComputeDiffersOnFieldOrder(t *testing.T) {
	f1 := ast.NewFields()
	f1.Append(ast.Field{Name: "a", Type: ast.TypeTerm{Name: "string"}})
	f1.Append(ast.Field{Name: "b", Type: ast.TypeTerm{Name: "string"}})

	f2 := ast.NewFields()
	f2.Append(ast.Field{Name: "b", Type: ast.TypeTerm{Name: "string"}})
	f2.Append(ast.Field{Name: "a", Type: ast.TypeTerm{Name: "string"}})

	s1 := &ast.Schema{Version: "V1", Statements: []ast.Statement{&ast.NodeDecl{Name: "N", Fields: f1}}}
	s2 := &ast.Schema{Version: "V1", Statements: []ast.Statement{&ast.NodeDecl{Name: "N", Fields: f2}}}

	h1, err := hash.Compute(s1)
	require.NoError(t, err)
	h2, err := hash.Compute(s2)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}
