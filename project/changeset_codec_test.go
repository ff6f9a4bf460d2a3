package project_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/typedgraph/project"
)

func TestChangesetPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	p, err := project.New(dir, "V1")
	require.NoError(t, err)

	require.NoError(t, p.AddSchema("V2"))
	_, err = p.CreateChangeset("V1", "V2")
	require.NoError(t, err)

	reopened, err := project.Open(dir)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"V1", "V2"}, reopened.Versions())
	require.NoError(t, reopened.CheckIntegrity())
}
