package parser_test

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/typedgraph/schema/ast"
	"github.com/aledsdavies/typedgraph/schema/hash"
	"github.com/aledsdavies/typedgraph/schema/parser"
	"github.com/aledsdavies/typedgraph/schema/printer"
)

// attrsEqual treats an AttributeSet as a set: source order is not
// semantic, so comparison sorts by CanonicalKey first.
func attrsEqual(a, b ast.AttributeSet) bool {
	ai, bi := a.Items(), b.Items()
	if len(ai) != len(bi) {
		return false
	}
	sort.Slice(ai, func(i, j int) bool { return ai[i].CanonicalKey() < ai[j].CanonicalKey() })
	sort.Slice(bi, func(i, j int) bool { return bi[i].CanonicalKey() < bi[j].CanonicalKey() })
	for i := range ai {
		if ai[i].Name != bi[i].Name || ai[i].Value != bi[i].Value {
			return false
		}
	}
	return true
}

func fieldEqual(a, b ast.Field) bool {
	return a.Name == b.Name && a.Type.Equal(b.Type) && a.Visibility == b.Visibility && attrsEqual(a.Attributes, b.Attributes)
}

// fieldsComparer lets cmp.Diff descend through *ast.Fields, whose backing
// slice and name index are unexported.
var fieldsComparer = cmp.Comparer(func(a, b *ast.Fields) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !fieldEqual(a.At(i), b.At(i)) {
			return false
		}
	}
	return true
})

var attrsComparer = cmp.Comparer(attrsEqual)

const sampleSource = `
pub node User {
  name: String,
  email: String?,
}

edge Follows(User-[one]->User[many] as followers) {
  since: U64,
}

enum Role {
  Admin,
  Member {
    since: U64,
  },
}
`

func TestParseRoundTrip(t *testing.T) {
	schema, err := parser.Parse("V1", sampleSource)
	require.NoError(t, err)
	require.Len(t, schema.Statements, 3)

	printed := printer.Print(schema)
	reparsed, err := parser.Parse("V1", printed)
	require.NoError(t, err)

	// Position markers are diagnostic only and not part of a schema's
	// identity, so the round-trip comparison ignores them.
	diff := cmp.Diff(schema.Statements, reparsed.Statements, cmpopts.IgnoreTypes(ast.Position{}), fieldsComparer, attrsComparer)
	require.Empty(t, diff)

	h1, err := hash.Compute(schema)
	require.NoError(t, err)
	h2, err := hash.Compute(reparsed)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestParseConsumesSchemaHashAttribute(t *testing.T) {
	schema, err := parser.Parse("V1", `#[hash = "00000000000000ff"]`+"\n"+sampleSource)
	require.NoError(t, err)
	require.Equal(t, uint64(0xff), schema.Hash)
}

func TestParseRejectsDuplicateField(t *testing.T) {
	_, err := parser.Parse("V1", `node User { name: String, name: String }`)
	require.Error(t, err)
}

func TestParseRejectsDuplicateDecl(t *testing.T) {
	_, err := parser.Parse("V1", `node User {} node User {}`)
	require.Error(t, err)
}

func TestParseAttributeWithoutValue(t *testing.T) {
	schema, err := parser.Parse("V1", `#[deprecated]
node User { name: String }`)
	require.NoError(t, err)
	n := schema.Statements[0].(*ast.NodeDecl)
	require.Equal(t, 1, n.Attributes.Len())
	require.Equal(t, "deprecated", n.Attributes.At(0).Name)
	require.Empty(t, n.Attributes.At(0).Value)
}

func TestParseEdgeEndpointTuple(t *testing.T) {
	schema, err := parser.Parse("V1", `edge Follows(User-[opt]->User[many] as followers) {}`)
	require.NoError(t, err)
	e := schema.Statements[0].(*ast.EdgeDecl)
	require.Len(t, e.Endpoints, 1)
	ep := e.Endpoints[0]
	require.Equal(t, "User", ep.Source)
	require.Equal(t, "User", ep.Target)
	require.Equal(t, ast.QuantifierOptional, ep.QuantifierOut.Kind)
	require.Equal(t, ast.QuantifierMany, ep.QuantifierIn.Kind)
	require.Equal(t, "followers", ep.RenameTag)
}

func TestParseGenericsOnNodeEdgeEnum(t *testing.T) {
	schema, err := parser.Parse("V1", `
node Box<T> { value: T }
edge Holds<T>(Box-[one]->Box[one]) {}
enum Maybe<T> { None, Some { value: T } }
`)
	require.NoError(t, err)
	require.Equal(t, []string{"T"}, schema.Statements[0].(*ast.NodeDecl).TypeParameters)
	require.Equal(t, []string{"T"}, schema.Statements[1].(*ast.EdgeDecl).TypeParameters)
	require.Equal(t, []string{"T"}, schema.Statements[2].(*ast.EnumDecl).TypeParameters)
}

func TestParseImportIsBareIdentifier(t *testing.T) {
	schema, err := parser.Parse("V1", `import OldType`)
	require.NoError(t, err)
	imp := schema.Statements[0].(*ast.ImportDecl)
	require.Equal(t, "OldType", imp.Name)
}
