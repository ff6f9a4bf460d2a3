package apply_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/typedgraph/apply"
	"github.com/aledsdavies/typedgraph/changeset"
	"github.com/aledsdavies/typedgraph/schema/ast"
	"github.com/aledsdavies/typedgraph/schema/hash"
)

func schemaWithUser() *ast.Schema {
	fields := ast.NewFields()
	fields.Append(ast.Field{Name: "name", Type: ast.TypeTerm{Kind: ast.TypeKindPrimitive, Name: "string"}})
	s := &ast.Schema{
		Version: "V1",
		Statements: []ast.Statement{
			&ast.NodeDecl{Name: "User", Fields: fields},
		},
	}
	h, err := hash.Compute(s)
	if err != nil {
		panic(err)
	}
	s.Hash = h
	return s
}

func TestApplyRejectsHashMismatch(t *testing.T) {
	s := schemaWithUser()
	cs := &changeset.ChangeSet{OldVersion: "V1", NewVersion: "V2", OldHash: 0, NewHash: 0}
	_, err := apply.Apply(cs, s)
	require.Error(t, err)
}

func TestApplyRenamesDeclaration(t *testing.T) {
	s := schemaWithUser()
	cs := &changeset.ChangeSet{
		OldVersion: "V1",
		NewVersion: "V2",
		OldHash:    s.Hash,
		Changes: []changeset.SingleChange{
			changeset.RenamedDecl{OldName: "User", NewName: "Account", Kind: "node"},
		},
	}
	renamed := &ast.Schema{Version: "V2", Statements: []ast.Statement{
		&ast.NodeDecl{Name: "Account", Fields: s.Statements[0].(*ast.NodeDecl).Fields},
	}}
	newHash, err := hash.Compute(renamed)
	require.NoError(t, err)
	cs.NewHash = newHash

	out, err := apply.Apply(cs, s)
	require.NoError(t, err)
	require.Len(t, out.Statements, 1)
	require.Equal(t, "Account", out.Statements[0].DeclName())
}

func TestApplyRemovesField(t *testing.T) {
	s := schemaWithUser()
	cs := &changeset.ChangeSet{
		OldVersion: "V1",
		NewVersion: "V2",
		OldHash:    s.Hash,
		Changes: []changeset.SingleChange{
			changeset.RemovedField{Decl: "User", Name: "name", Index: 0},
		},
	}
	emptyFields := ast.NewFields()
	expected := &ast.Schema{Version: "V2", Statements: []ast.Statement{
		&ast.NodeDecl{Name: "User", Fields: emptyFields},
	}}
	newHash, err := hash.Compute(expected)
	require.NoError(t, err)
	cs.NewHash = newHash

	out, err := apply.Apply(cs, s)
	require.NoError(t, err)
	require.Equal(t, 0, out.Statements[0].(*ast.NodeDecl).Fields.Len())
}

func TestApplyFailsOnTargetHashMismatch(t *testing.T) {
	s := schemaWithUser()
	cs := &changeset.ChangeSet{
		OldVersion: "V1",
		NewVersion: "V2",
		OldHash:    s.Hash,
		NewHash:    12345, // deliberately wrong
		Changes: []changeset.SingleChange{
			changeset.RemovedField{Decl: "User", Name: "name", Index: 0},
		},
	}
	_, err := apply.Apply(cs, s)
	require.Error(t, err)
}
