package xerrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/typedgraph/internal/xerrors"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := xerrors.Wrap(xerrors.KindIO, "reading file", cause)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "boom")
}

func TestIsMatchesOnlyOutermostKind(t *testing.T) {
	inner := xerrors.New(xerrors.KindUnknownSchema, "no such schema")
	wrapped := xerrors.Wrap(xerrors.KindIO, "outer failure", inner)
	require.True(t, xerrors.Is(inner, xerrors.KindUnknownSchema))
	require.False(t, xerrors.Is(wrapped, xerrors.KindUnknownSchema))
}

func TestUnknownSchemaCarriesSuggestions(t *testing.T) {
	err := xerrors.UnknownSchema("V1.1", []string{"V1.0", "V2.0"})
	require.Equal(t, xerrors.KindUnknownSchema, err.Kind)
	require.Equal(t, []string{"V1.0", "V2.0"}, err.Context["suggestions"])
}

func TestWithContextChains(t *testing.T) {
	err := xerrors.New(xerrors.KindParse, "bad token").WithContext("line", 4).WithContext("col", 10)
	require.Equal(t, 4, err.Context["line"])
	require.Equal(t, 10, err.Context["col"])
}
