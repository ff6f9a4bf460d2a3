// Package printer renders a schema/ast.Schema back to the canonical
// surface syntax: 2-space indentation, declarations in stored order, and a
// single schema-level `#[hash = "<16-hex>"]` attribute written as the file's
// first line. Printing a parsed schema and reparsing the result always
// yields a structurally identical tree - the round-trip property the codec
// exists to guarantee.
package printer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aledsdavies/typedgraph/schema/ast"
)

const indentUnit = "  "

// Print renders schema to its canonical textual form, beginning with the
// schema's content hash as a `#[hash = "..."]` attribute.
func Print(schema *ast.Schema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#[hash = %q]\n\n", fmt.Sprintf("%016x", schema.Hash))
	for i, st := range schema.Statements {
		if i > 0 {
			b.WriteString("\n")
		}
		printStatement(&b, st, 0)
	}
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat(indentUnit, depth))
}

func printAttributes(b *strings.Builder, attrs ast.AttributeSet, depth int) {
	items := attrs.Items()
	// sorted for determinism: attribute order in source is not semantic.
	sortAttrs(items)
	for _, a := range items {
		indent(b, depth)
		if a.Value == "" {
			fmt.Fprintf(b, "#[%s]\n", a.Name)
		} else {
			fmt.Fprintf(b, "#[%s = %q]\n", a.Name, a.Value)
		}
	}
}

func sortAttrs(items []ast.Attribute) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j-1].CanonicalKey() > items[j].CanonicalKey(); j-- {
			items[j-1], items[j] = items[j], items[j-1]
		}
	}
}

func visibilityPrefix(v ast.Visibility) string {
	s := v.String()
	if s == "" {
		return ""
	}
	return s + " "
}

func printStatement(b *strings.Builder, st ast.Statement, depth int) {
	switch n := st.(type) {
	case *ast.ImportDecl:
		indent(b, depth)
		fmt.Fprintf(b, "import %s\n", n.Name)
	case *ast.NodeDecl:
		printAttributes(b, n.Attributes, depth)
		indent(b, depth)
		header := fmt.Sprintf("%snode %s", visibilityPrefix(n.Visibility), n.Name)
		if len(n.TypeParameters) > 0 {
			header += "<" + strings.Join(n.TypeParameters, ", ") + ">"
		}
		fmt.Fprintf(b, "%s {\n", header)
		printFields(b, n.Fields, depth+1)
		indent(b, depth)
		b.WriteString("}\n")
	case *ast.StructDecl:
		printAttributes(b, n.Attributes, depth)
		indent(b, depth)
		header := fmt.Sprintf("%sstruct %s", visibilityPrefix(n.Visibility), n.Name)
		if len(n.TypeParameters) > 0 {
			header += "<" + strings.Join(n.TypeParameters, ", ") + ">"
		}
		fmt.Fprintf(b, "%s {\n", header)
		printFields(b, n.Fields, depth+1)
		indent(b, depth)
		b.WriteString("}\n")
	case *ast.EdgeDecl:
		printAttributes(b, n.Attributes, depth)
		indent(b, depth)
		header := fmt.Sprintf("%sedge %s", visibilityPrefix(n.Visibility), n.Name)
		if len(n.TypeParameters) > 0 {
			header += "<" + strings.Join(n.TypeParameters, ", ") + ">"
		}
		fmt.Fprintf(b, "%s(%s) {\n", header, printEndpoints(n.Endpoints))
		printFields(b, n.Fields, depth+1)
		indent(b, depth)
		b.WriteString("}\n")
	case *ast.EnumDecl:
		printAttributes(b, n.Attributes, depth)
		indent(b, depth)
		header := fmt.Sprintf("%senum %s", visibilityPrefix(n.Visibility), n.Name)
		if len(n.TypeParameters) > 0 {
			header += "<" + strings.Join(n.TypeParameters, ", ") + ">"
		}
		fmt.Fprintf(b, "%s {\n", header)
		for _, v := range n.Variants {
			indent(b, depth+1)
			if v.Fields == nil {
				fmt.Fprintf(b, "%s,\n", v.Name)
				continue
			}
			fmt.Fprintf(b, "%s {\n", v.Name)
			printFields(b, v.Fields, depth+2)
			indent(b, depth+1)
			b.WriteString("},\n")
		}
		indent(b, depth)
		b.WriteString("}\n")
	}
}

func printEndpoints(eps []ast.Endpoint) string {
	parts := make([]string, len(eps))
	for i, e := range eps {
		parts[i] = printEndpoint(e)
	}
	return strings.Join(parts, ", ")
}

func printEndpoint(e ast.Endpoint) string {
	s := fmt.Sprintf("%s-[%s]->%s[%s]", e.Source, quantifierLiteral(e.QuantifierOut), e.Target, quantifierLiteral(e.QuantifierIn))
	if e.RenameTag != "" {
		s += " as " + e.RenameTag
	}
	return s
}

func quantifierLiteral(q ast.Quantifier) string {
	switch q.Kind {
	case ast.QuantifierOptional:
		return "opt"
	case ast.QuantifierMany:
		return "many"
	case ast.QuantifierBounded:
		max := "*"
		if q.Max >= 0 {
			max = strconv.Itoa(q.Max)
		}
		return fmt.Sprintf("{%d,%s}", q.Min, max)
	default:
		return "one"
	}
}

func printFields(b *strings.Builder, fields *ast.Fields, depth int) {
	if fields == nil {
		return
	}
	for i := 0; i < fields.Len(); i++ {
		f := fields.At(i)
		printAttributes(b, f.Attributes, depth)
		indent(b, depth)
		fmt.Fprintf(b, "%s%s: %s,\n", visibilityPrefix(f.Visibility), f.Name, printType(f.Type))
	}
}

func printType(t ast.TypeTerm) string {
	s := t.Name
	if len(t.Args) > 0 {
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = printType(a)
		}
		s += "<" + strings.Join(parts, ", ") + ">"
	}
	if t.Optional {
		s += "?"
	}
	return s
}
