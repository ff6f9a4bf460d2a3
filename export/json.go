package export

import (
	"encoding/json"

	"github.com/aledsdavies/typedgraph/schema/ast"
)

// JSONExporter is the simplest possible Visitor: a structural dump of the
// schema to a single JSON file, useful for tests and for the CLI's own
// `export json` subcommand. Real target-language emitters live outside
// this module and implement Visitor the same way.
type JSONExporter struct {
	OutputPath string
}

type jsonSchema struct {
	Version string    `json:"version"`
	Hash    uint64    `json:"hash"`
	Nodes   []jsonDecl `json:"nodes,omitempty"`
	Edges   []jsonDecl `json:"edges,omitempty"`
	Structs []jsonDecl `json:"structs,omitempty"`
	Enums   []jsonDecl `json:"enums,omitempty"`
}

type jsonDecl struct {
	Name       string         `json:"name"`
	Visibility string         `json:"visibility,omitempty"`
	Fields     []jsonField    `json:"fields,omitempty"`
	Endpoints  []jsonEndpoint `json:"endpoints,omitempty"`
	Variants   []jsonVariant  `json:"variants,omitempty"`
}

type jsonField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type jsonEndpoint struct {
	Source        string `json:"source"`
	QuantifierOut string `json:"quantifierOut"`
	Target        string `json:"target"`
	QuantifierIn  string `json:"quantifierIn"`
	RenameTag     string `json:"renameTag,omitempty"`
}

type jsonVariant struct {
	Name   string      `json:"name"`
	Fields []jsonField `json:"fields,omitempty"`
}

func (e *JSONExporter) VisitSchema(schema *ast.Schema, sink *GeneratedCode) error {
	out := jsonSchema{Version: schema.Version, Hash: schema.Hash}
	for _, st := range schema.Statements {
		switch n := st.(type) {
		case *ast.NodeDecl:
			out.Nodes = append(out.Nodes, jsonDeclFromFields(n.Name, n.Visibility, n.Fields))
		case *ast.StructDecl:
			out.Structs = append(out.Structs, jsonDeclFromFields(n.Name, n.Visibility, n.Fields))
		case *ast.EdgeDecl:
			d := jsonDeclFromFields(n.Name, n.Visibility, n.Fields)
			d.Endpoints = jsonEndpoints(n.Endpoints)
			out.Edges = append(out.Edges, d)
		case *ast.EnumDecl:
			d := jsonDecl{Name: n.Name, Visibility: n.Visibility.String()}
			for _, v := range n.Variants {
				d.Variants = append(d.Variants, jsonVariant{Name: v.Name, Fields: jsonFields(v.Fields)})
			}
			out.Enums = append(out.Enums, d)
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	path := e.OutputPath
	if path == "" {
		path = schema.Version + ".json"
	}
	sink.Write(path, string(data)+"\n")
	return nil
}

func (e *JSONExporter) VisitNode(*ast.NodeDecl, *GeneratedCode) error     { return nil }
func (e *JSONExporter) VisitEdge(*ast.EdgeDecl, *GeneratedCode) error     { return nil }
func (e *JSONExporter) VisitStruct(*ast.StructDecl, *GeneratedCode) error { return nil }
func (e *JSONExporter) VisitEnum(*ast.EnumDecl, *GeneratedCode) error     { return nil }

func jsonDeclFromFields(name string, vis ast.Visibility, fields *ast.Fields) jsonDecl {
	return jsonDecl{Name: name, Visibility: vis.String(), Fields: jsonFields(fields)}
}

func jsonFields(fields *ast.Fields) []jsonField {
	if fields == nil {
		return nil
	}
	out := make([]jsonField, fields.Len())
	for i := 0; i < fields.Len(); i++ {
		f := fields.At(i)
		out[i] = jsonField{Name: f.Name, Type: f.Type.Name}
	}
	return out
}

func jsonEndpoints(eps []ast.Endpoint) []jsonEndpoint {
	out := make([]jsonEndpoint, len(eps))
	for i, e := range eps {
		out[i] = jsonEndpoint{
			Source:        e.Source,
			QuantifierOut: quantifierLabel(e.QuantifierOut),
			Target:        e.Target,
			QuantifierIn:  quantifierLabel(e.QuantifierIn),
			RenameTag:     e.RenameTag,
		}
	}
	return out
}

func quantifierLabel(q ast.Quantifier) string {
	switch q.Kind {
	case ast.QuantifierOptional:
		return "optional"
	case ast.QuantifierMany:
		return "many"
	case ast.QuantifierBounded:
		return "bounded"
	default:
		return "one"
	}
}
