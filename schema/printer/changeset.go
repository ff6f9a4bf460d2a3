package printer

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/typedgraph/changeset"
	"github.com/aledsdavies/typedgraph/schema/ast"
)

// PrintChangeset renders cs to the canonical .cbs text form: a
// `#[old_hash]`/`#[new_hash]` attribute pair, a `<old> => <new>` version
// header, then one marker-prefixed line per change (`*` added
// declaration, `+` added sub-entity, `-` removed, `~` renamed/edited).
func PrintChangeset(cs *changeset.ChangeSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#[old_hash = %q]\n", fmt.Sprintf("%016x", cs.OldHash))
	fmt.Fprintf(&b, "#[new_hash = %q]\n", fmt.Sprintf("%016x", cs.NewHash))
	fmt.Fprintf(&b, "%s => %s\n\n", cs.OldVersion, cs.NewVersion)
	for _, ch := range cs.Changes {
		printChange(&b, ch)
	}
	return b.String()
}

func declPath(decl string, path changeset.FieldPath) string {
	if path.Empty() {
		return decl
	}
	return decl + "." + path.String()
}

func visibilityLiteral(v ast.Visibility) string {
	switch v {
	case ast.VisibilityPublic:
		return "pub"
	case ast.VisibilityLocal:
		return "local"
	default:
		return "private"
	}
}

func tagLiteral(tag string) string {
	if tag == "" {
		return "_"
	}
	return tag
}

func printVariantSpec(v ast.EnumVariant) string {
	if v.Fields == nil {
		return v.Name
	}
	var b strings.Builder
	b.WriteString(v.Name)
	b.WriteString(" {\n")
	printFields(&b, v.Fields, 1)
	b.WriteString("}")
	return b.String()
}

func printChange(b *strings.Builder, ch changeset.SingleChange) {
	switch c := ch.(type) {
	case changeset.AddedNode:
		b.WriteString("* added ")
		printStatement(b, c.Decl, 0)
	case changeset.AddedEdge:
		b.WriteString("* added ")
		printStatement(b, c.Decl, 0)
	case changeset.AddedStruct:
		b.WriteString("* added ")
		printStatement(b, c.Decl, 0)
	case changeset.AddedEnum:
		b.WriteString("* added ")
		printStatement(b, c.Decl, 0)
	case changeset.AddedImport:
		b.WriteString("* added ")
		printStatement(b, c.Decl, 0)

	case changeset.RemovedDecl:
		fmt.Fprintf(b, "- decl %s %s\n", c.Kind, c.Name)
	case changeset.RenamedDecl:
		fmt.Fprintf(b, "~ renamed decl %s %s => %s\n", c.Kind, c.OldName, c.NewName)

	case changeset.EditedVisibility:
		fmt.Fprintf(b, "~ visibility %s %s => %s\n", declPath(c.Decl, c.Path), visibilityLiteral(c.Old), visibilityLiteral(c.New))
	case changeset.EditedType:
		fmt.Fprintf(b, "~ type %s %s => %s\n", declPath(c.Decl, c.Path), printType(c.Old), printType(c.New))

	case changeset.AddedField:
		fmt.Fprintf(b, "+ field %s @%d %s%s: %s\n", declPath(c.Decl, c.Path), c.Index, visibilityPrefix(c.Field.Visibility), c.Field.Name, printType(c.Field.Type))
	case changeset.RemovedField:
		fmt.Fprintf(b, "- field %s @%d %s\n", declPath(c.Decl, c.Path), c.Index, c.Name)
	case changeset.RenamedField:
		fmt.Fprintf(b, "~ renamed field %s %s => %s\n", declPath(c.Decl, c.Path), c.OldName, c.NewName)

	case changeset.AddedVariant:
		fmt.Fprintf(b, "+ variant %s @%d %s\n", c.Decl, c.Index, printVariantSpec(c.Variant))
	case changeset.RemovedVariant:
		fmt.Fprintf(b, "- variant %s @%d %s\n", c.Decl, c.Index, c.Name)
	case changeset.RenamedVariant:
		fmt.Fprintf(b, "~ renamed variant %s %s => %s\n", c.Decl, c.OldName, c.NewName)

	case changeset.AddedEndpoint:
		fmt.Fprintf(b, "+ endpoint %s %s\n", c.Decl, printEndpoint(c.Endpoint))
	case changeset.RemovedEndpoint:
		fmt.Fprintf(b, "- endpoint %s %s->%s\n", c.Decl, c.Source, c.Target)
	case changeset.EditedEndpoint:
		fmt.Fprintf(b, "~ endpoint %s %s->%s out %s => %s in %s => %s tag %s => %s\n",
			c.Decl, c.Source, c.Target,
			quantifierLiteral(c.OldQuantifierOut), quantifierLiteral(c.NewQuantifierOut),
			quantifierLiteral(c.OldQuantifierIn), quantifierLiteral(c.NewQuantifierIn),
			tagLiteral(c.OldRenameTag), tagLiteral(c.NewRenameTag))
	}
}
