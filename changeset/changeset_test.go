package changeset_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/typedgraph/changeset"
)

func TestFieldPathStringJoinsSegmentsWithDot(t *testing.T) {
	p := changeset.NewFieldPath("Role", "since")
	require.Equal(t, "Role.since", p.String())
}

func TestFieldPathEmpty(t *testing.T) {
	require.True(t, changeset.NewFieldPath().Empty())
	require.False(t, changeset.NewFieldPath("a").Empty())
}

func TestSingleChangeDeclNameDispatchesAcrossKinds(t *testing.T) {
	var changes = []changeset.SingleChange{
		changeset.RemovedDecl{Name: "Foo", Kind: "node"},
		changeset.RenamedDecl{OldName: "Foo", NewName: "Bar", Kind: "node"},
		changeset.AddedField{Decl: "Foo", Index: 0},
		changeset.EditedVisibility{Decl: "Foo"},
	}
	for _, c := range changes {
		require.Equal(t, "Foo", c.DeclName())
	}
}
