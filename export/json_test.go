package export_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/typedgraph/export"
	"github.com/aledsdavies/typedgraph/schema/ast"
)

func TestJSONExporterWritesOneFilePerSchema(t *testing.T) {
	fields := ast.NewFields()
	fields.Append(ast.Field{Name: "name", Type: ast.TypeTerm{Kind: ast.TypeKindPrimitive, Name: "string"}})
	schema := &ast.Schema{
		Version: "V1",
		Statements: []ast.Statement{
			&ast.NodeDecl{Name: "User", Fields: fields},
		},
	}

	exporter := &export.JSONExporter{}
	sink, err := export.Run(exporter, schema)
	require.NoError(t, err)
	require.Equal(t, []string{"V1.json"}, sink.Paths())

	content, ok := sink.Content("V1.json")
	require.True(t, ok)
	require.Contains(t, content, `"name": "User"`)
	require.Contains(t, content, `"name": "name"`)
}

func TestJSONExporterHonorsOutputPath(t *testing.T) {
	schema := &ast.Schema{Version: "V1"}
	exporter := &export.JSONExporter{OutputPath: "out/dump.json"}
	sink, err := export.Run(exporter, schema)
	require.NoError(t, err)
	require.Equal(t, []string{"out/dump.json"}, sink.Paths())
}

func TestGeneratedCodeFlushWritesToDisk(t *testing.T) {
	dir := t.TempDir()
	schema := &ast.Schema{Version: "V1"}
	exporter := &export.JSONExporter{}
	sink, err := export.Run(exporter, schema)
	require.NoError(t, err)
	require.NoError(t, sink.Flush(dir))

	_, err = os.Stat(filepath.Join(dir, "V1.json"))
	require.NoError(t, err)
}
