package project_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/typedgraph/project"
)

func TestNewSeedsSingleSchema(t *testing.T) {
	dir := t.TempDir()
	p, err := project.New(dir, "")
	require.NoError(t, err)
	require.Equal(t, []string{"V0.0"}, p.Versions())
	require.Equal(t, []string{"V0.0"}, p.Heads())
}

func TestCopySchemaAutoRenamesOnCollision(t *testing.T) {
	dir := t.TempDir()
	p, err := project.New(dir, "V0.0")
	require.NoError(t, err)

	name, err := p.CopySchema("V0.0", "V0.0", true)
	require.NoError(t, err)
	require.NotEqual(t, "V0.0", name)
}

func TestCreateChangesetAndUpdateChangesets(t *testing.T) {
	dir := t.TempDir()
	p, err := project.New(dir, "V1")
	require.NoError(t, err)

	_, err = p.CopySchema("V1", "V2", false)
	require.NoError(t, err)

	cs, err := p.CreateChangeset("V1", "V2")
	require.NoError(t, err)
	require.Empty(t, cs.Changes)

	require.NoError(t, p.UpdateChangesets(true))
	require.NoError(t, p.CheckIntegrity())
}

func TestSchemaNotFoundReturnsError(t *testing.T) {
	dir := t.TempDir()
	p, err := project.New(dir, "V1.0")
	require.NoError(t, err)

	_, err = p.Schema("V1.1")
	require.Error(t, err)
}
