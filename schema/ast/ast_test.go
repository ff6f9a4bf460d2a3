package ast_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/typedgraph/schema/ast"
)

func strType(name string) ast.TypeTerm {
	return ast.TypeTerm{Kind: ast.TypeKindPrimitive, Name: name}
}

func TestFieldsAppendAndGet(t *testing.T) {
	f := ast.NewFields()
	f.Append(ast.Field{Name: "a", Type: strType("string")})
	f.Append(ast.Field{Name: "b", Type: strType("int")})

	require.Equal(t, 2, f.Len())
	v, ok := f.Get("b")
	require.True(t, ok)
	require.Equal(t, "int", v.Type.Name)
}

func TestFieldsAppendPanicsOnDuplicate(t *testing.T) {
	f := ast.NewFields()
	f.Append(ast.Field{Name: "a", Type: strType("string")})
	require.Panics(t, func() {
		f.Append(ast.Field{Name: "a", Type: strType("int")})
	})
}

func TestFieldsInsertShiftsIndices(t *testing.T) {
	f := ast.NewFields()
	f.Append(ast.Field{Name: "a", Type: strType("string")})
	f.Append(ast.Field{Name: "c", Type: strType("string")})
	f.Insert(1, ast.Field{Name: "b", Type: strType("string")})

	require.Equal(t, []string{"a", "b", "c"}, fieldNames(f))
	idx, ok := f.IndexOf("c")
	require.True(t, ok)
	require.Equal(t, 2, idx)
}

func TestFieldsRemoveShiftsIndicesDown(t *testing.T) {
	f := ast.NewFields()
	f.Append(ast.Field{Name: "a", Type: strType("string")})
	f.Append(ast.Field{Name: "b", Type: strType("string")})
	f.Append(ast.Field{Name: "c", Type: strType("string")})

	f.Remove(1)
	require.Equal(t, []string{"a", "c"}, fieldNames(f))
	idx, ok := f.IndexOf("c")
	require.True(t, ok)
	require.Equal(t, 1, idx)
	require.False(t, f.Has("b"))
}

func TestFieldsSetRenamesIndexEntry(t *testing.T) {
	f := ast.NewFields()
	f.Append(ast.Field{Name: "a", Type: strType("string")})
	f.Set(0, ast.Field{Name: "renamed", Type: strType("string")})

	require.False(t, f.Has("a"))
	require.True(t, f.Has("renamed"))
}

func TestSchemaLookupSkipsImports(t *testing.T) {
	schema := &ast.Schema{
		Statements: []ast.Statement{
			&ast.ImportDecl{Name: "Other"},
			&ast.NodeDecl{Name: "User", Fields: ast.NewFields()},
		},
	}
	_, ok := schema.Lookup("Other")
	require.False(t, ok)

	st, ok := schema.Lookup("User")
	require.True(t, ok)
	require.Equal(t, "User", st.DeclName())
	require.Equal(t, []string{"User"}, schema.Names())
}

func fieldNames(f *ast.Fields) []string {
	names := make([]string, f.Len())
	for i := 0; i < f.Len(); i++ {
		names[i] = f.At(i).Name
	}
	return names
}
