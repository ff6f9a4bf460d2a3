package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/typedgraph/config"
	"github.com/aledsdavies/typedgraph/internal/xerrors"
)

func TestParseAppliesDirectoryDefaults(t *testing.T) {
	settings, err := config.Parse([]byte(`defaultTarget: "1.2.0"`))
	require.NoError(t, err)
	require.Equal(t, "schemas", settings.SchemasDir)
	require.Equal(t, "changesets", settings.ChangesetsDir)
}

func TestParseRejectsMissingDefaultTarget(t *testing.T) {
	_, err := config.Parse([]byte(`schemasDir: "schemas"`))
	require.Error(t, err)
	require.True(t, xerrors.Is(err, xerrors.KindConfigInvalid))
}

func TestParseRejectsNonSemverTarget(t *testing.T) {
	_, err := config.Parse([]byte(`defaultTarget: "not-a-version"`))
	require.Error(t, err)
	require.True(t, xerrors.Is(err, xerrors.KindConfigInvalid))
}

func TestParseHonorsExplicitDirectoriesAndExporters(t *testing.T) {
	data := []byte(`
defaultTarget: "2.0.0"
schemasDir: "custom-schemas"
changesetsDir: "custom-changesets"
exporters:
  - json
`)
	settings, err := config.Parse(data)
	require.NoError(t, err)
	require.Equal(t, "custom-schemas", settings.SchemasDir)
	require.Equal(t, "custom-changesets", settings.ChangesetsDir)
	require.Equal(t, []string{"json"}, settings.Exporters)
}
