package diff_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/typedgraph/apply"
	"github.com/aledsdavies/typedgraph/changeset"
	"github.com/aledsdavies/typedgraph/diff"
	"github.com/aledsdavies/typedgraph/schema/ast"
	"github.com/aledsdavies/typedgraph/schema/hash"
)

func withHash(t *testing.T, s *ast.Schema) *ast.Schema {
	t.Helper()
	h, err := hash.Compute(s)
	require.NoError(t, err)
	s.Hash = h
	return s
}

func TestBuildChangeSetEmptyDiffOnIdenticalSchemas(t *testing.T) {
	s := withHash(t, &ast.Schema{Version: "V1", Statements: []ast.Statement{&ast.NodeDecl{Name: "User"}}})
	cs, err := diff.BuildChangeSet(s, s)
	require.NoError(t, err)
	require.Empty(t, cs.Changes)
}

func TestBuildChangeSetDetectsAddedNode(t *testing.T) {
	old := withHash(t, &ast.Schema{Version: "V1"})
	new := withHash(t, &ast.Schema{Version: "V2", Statements: []ast.Statement{&ast.NodeDecl{Name: "User"}}})

	cs, err := diff.BuildChangeSet(old, new)
	require.NoError(t, err)
	require.Len(t, cs.Changes, 1)
	added, ok := cs.Changes[0].(changeset.AddedNode)
	require.True(t, ok)
	require.Equal(t, "User", added.Decl.Name)
}

func TestBuildChangeSetDetectsRename(t *testing.T) {
	old := withHash(t, &ast.Schema{Version: "V1", Statements: []ast.Statement{&ast.NodeDecl{Name: "User"}}})
	new := withHash(t, &ast.Schema{Version: "V2", Statements: []ast.Statement{&ast.NodeDecl{Name: "Account"}}})

	cs, err := diff.BuildChangeSet(old, new)
	require.NoError(t, err)
	require.Len(t, cs.Changes, 1)
	renamed, ok := cs.Changes[0].(changeset.RenamedDecl)
	require.True(t, ok)
	require.Equal(t, "User", renamed.OldName)
	require.Equal(t, "Account", renamed.NewName)
}

func TestApplyRoundTripsDiff(t *testing.T) {
	oldFields := ast.NewFields()
	oldFields.Append(ast.Field{Name: "name", Type: ast.TypeTerm{Name: "string"}})
	old := withHash(t, &ast.Schema{Version: "V1", Statements: []ast.Statement{&ast.NodeDecl{Name: "User", Fields: oldFields}}})

	newFields := ast.NewFields()
	newFields.Append(ast.Field{Name: "name", Type: ast.TypeTerm{Name: "string"}})
	newFields.Append(ast.Field{Name: "age", Type: ast.TypeTerm{Name: "int"}})
	new := withHash(t, &ast.Schema{Version: "V2", Statements: []ast.Statement{&ast.NodeDecl{Name: "User", Fields: newFields}}})

	cs, err := diff.BuildChangeSet(old, new)
	require.NoError(t, err)

	applied, err := apply.Apply(cs, old)
	require.NoError(t, err)
	require.Equal(t, new.Hash, applied.Hash)
}

func TestApplyRejectsWrongBaseSchema(t *testing.T) {
	old := withHash(t, &ast.Schema{Version: "V1"})
	new := withHash(t, &ast.Schema{Version: "V2", Statements: []ast.Statement{&ast.NodeDecl{Name: "User"}}})
	cs, err := diff.BuildChangeSet(old, new)
	require.NoError(t, err)

	wrongBase := withHash(t, &ast.Schema{Version: "V1", Statements: []ast.Statement{&ast.NodeDecl{Name: "Other"}}})
	_, err = apply.Apply(cs, wrongBase)
	require.Error(t, err)
}
