package parser

import (
	"strconv"

	"github.com/aledsdavies/typedgraph/internal/lex"
	"github.com/aledsdavies/typedgraph/schema/ast"
)

// Parser is a straightforward recursive-descent parser over the lexer's
// pull-based token stream, one token of lookahead buffered at a time.
type Parser struct {
	input   string
	lx      *lex.Lexer
	tok     lex.Token
	peeked  *lex.Token
	context []string
}

// Parse parses a complete schema file. A leading schema-level
// `#[hash = "<16-hex>"]` attribute, if present, seeds schema.Hash; callers
// that need to detect drift between the declared and recomputed hash
// compare it against schema/hash.Compute themselves.
func Parse(version, input string) (*ast.Schema, error) {
	p := &Parser{input: input, lx: lex.New(input)}
	p.advance()

	schema := &ast.Schema{Version: version}
	p.skipComments()
	for _, a := range p.parseAttributes().Items() {
		if a.Name == "hash" {
			if h, err := strconv.ParseUint(a.Value, 16, 64); err == nil {
				schema.Hash = h
			}
		}
	}
	names := map[string]bool{}

	for p.tok.Kind != lex.TokenEOF {
		p.skipComments()
		if p.tok.Kind == lex.TokenEOF {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt.DeclName() != "" {
			if names[stmt.DeclName()] {
				return nil, p.errDuplicate("declaration", stmt.DeclName())
			}
			names[stmt.DeclName()] = true
		}
		schema.Statements = append(schema.Statements, stmt)
	}
	return schema, nil
}

func (p *Parser) current() lex.Token { return p.tok }

func (p *Parser) advance() {
	if p.peeked != nil {
		p.tok = *p.peeked
		p.peeked = nil
		return
	}
	p.tok = p.lx.Next()
}

func (p *Parser) peek() lex.Token {
	if p.peeked == nil {
		t := p.lx.Next()
		p.peeked = &t
	}
	return *p.peeked
}

func (p *Parser) skipComments() {
	for p.tok.Kind == lex.TokenLineComment || p.tok.Kind == lex.TokenDocComment {
		p.advance()
	}
}

func (p *Parser) contextChain() []string { return append([]string(nil), p.context...) }

func (p *Parser) pushContext(name string) { p.context = append(p.context, name) }
func (p *Parser) popContext()             { p.context = p.context[:len(p.context)-1] }

func (p *Parser) expectKeyword(kw string) error {
	if p.tok.Kind != lex.TokenKeyword || p.tok.Text != kw {
		return p.errExpectedKeyword(kw)
	}
	p.advance()
	return nil
}

func (p *Parser) expectIdent() (string, error) {
	if p.tok.Kind != lex.TokenIdent {
		return "", p.errExpected("identifier")
	}
	name := p.tok.Text
	p.advance()
	return name, nil
}

func (p *Parser) expect(kind lex.TokenKind, what string) error {
	if p.tok.Kind != kind {
		return p.errExpected(what)
	}
	p.advance()
	return nil
}

func (p *Parser) parseVisibility() ast.Visibility {
	if p.tok.Kind == lex.TokenKeyword && p.tok.Text == "pub" {
		p.advance()
		return ast.VisibilityPublic
	}
	if p.tok.Kind == lex.TokenKeyword && p.tok.Text == "local" {
		p.advance()
		return ast.VisibilityLocal
	}
	return ast.VisibilityPrivate
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	pos := ast.Position{Line: p.tok.Line, Column: p.tok.Column}
	attrs := p.parseAttributes()
	vis := p.parseVisibility()

	if p.tok.Kind != lex.TokenKeyword {
		return nil, p.errExpected("declaration keyword (node, edge, struct, enum, import)")
	}

	switch p.tok.Text {
	case "import":
		return p.parseImport(pos)
	case "node":
		return p.parseNode(pos, vis, attrs)
	case "edge":
		return p.parseEdge(pos, vis, attrs)
	case "struct":
		return p.parseStruct(pos, vis, attrs)
	case "enum":
		return p.parseEnum(pos, vis, attrs)
	default:
		return nil, p.errExpected("declaration keyword (node, edge, struct, enum, import)")
	}
}

// parseAttributes parses zero or more `#[name]` / `#[name = "value"]`
// annotations. A value may be a quoted string or a bare token (used by the
// hex hash literals `#[hash = "1a2b..."]` carries as a string and by
// changeset version markers that reuse this same grammar).
func (p *Parser) parseAttributes() ast.AttributeSet {
	var attrs []ast.Attribute
	for p.tok.Kind == lex.TokenHash && p.tok.Text == "#" {
		pos := ast.Position{Line: p.tok.Line, Column: p.tok.Column}
		p.advance()
		p.expect(lex.TokenLBracket, "[")
		name, _ := p.expectIdent()
		value := ""
		if p.tok.Kind == lex.TokenEquals {
			p.advance()
			if p.tok.Kind == lex.TokenString {
				value = unquote(p.tok.Text)
			} else {
				value = p.tok.Text
			}
			p.advance()
		}
		p.expect(lex.TokenRBracket, "]")
		attrs = append(attrs, ast.Attribute{Pos: pos, Name: name, Value: value})
		p.skipComments()
	}
	return ast.NewAttributeSet(attrs...)
}

func (p *Parser) parseImport(pos ast.Position) (ast.Statement, error) {
	if err := p.expectKeyword("import"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return &ast.ImportDecl{Pos: pos, Name: name}, nil
}

func (p *Parser) parseNode(pos ast.Position, vis ast.Visibility, attrs ast.AttributeSet) (ast.Statement, error) {
	if err := p.expectKeyword("node"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	p.pushContext(name)
	defer p.popContext()

	typeParams, err := p.parseTypeParameters()
	if err != nil {
		return nil, err
	}
	fields, err := p.parseFieldBlock()
	if err != nil {
		return nil, err
	}
	return &ast.NodeDecl{Pos: pos, Name: name, Visibility: vis, Attributes: attrs, TypeParameters: typeParams, Fields: fields}, nil
}

// parseTypeParameters parses an optional `<T, U>` generics clause shared by
// node, edge, struct, and enum declarations.
func (p *Parser) parseTypeParameters() ([]string, error) {
	var typeParams []string
	if p.tok.Kind == lex.TokenLAngle {
		p.advance()
		for p.tok.Kind != lex.TokenRAngle {
			tp, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			typeParams = append(typeParams, tp)
			if p.tok.Kind == lex.TokenComma {
				p.advance()
			}
		}
		p.advance() // >
	}
	return typeParams, nil
}

func (p *Parser) parseStruct(pos ast.Position, vis ast.Visibility, attrs ast.AttributeSet) (ast.Statement, error) {
	if err := p.expectKeyword("struct"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	p.pushContext(name)
	defer p.popContext()

	typeParams, err := p.parseTypeParameters()
	if err != nil {
		return nil, err
	}

	fields, err := p.parseFieldBlock()
	if err != nil {
		return nil, err
	}
	return &ast.StructDecl{Pos: pos, Name: name, Visibility: vis, Attributes: attrs, TypeParameters: typeParams, Fields: fields}, nil
}

// parseEdge parses `edge Name<T>(endpoint, endpoint, ...) { fields }` where
// each endpoint is a single source/target tuple (see parseEndpoint).
func (p *Parser) parseEdge(pos ast.Position, vis ast.Visibility, attrs ast.AttributeSet) (ast.Statement, error) {
	if err := p.expectKeyword("edge"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	p.pushContext(name)
	defer p.popContext()

	typeParams, err := p.parseTypeParameters()
	if err != nil {
		return nil, err
	}

	if err := p.expect(lex.TokenLParen, "("); err != nil {
		return nil, err
	}
	var endpoints []ast.Endpoint
	for p.tok.Kind != lex.TokenRParen {
		ep, err := p.parseEndpoint()
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, ep)
		if p.tok.Kind == lex.TokenComma {
			p.advance()
		}
	}
	if err := p.expect(lex.TokenRParen, ")"); err != nil {
		return nil, err
	}

	fields, err := p.parseFieldBlock()
	if err != nil {
		return nil, err
	}
	return &ast.EdgeDecl{Pos: pos, Name: name, Visibility: vis, Attributes: attrs, TypeParameters: typeParams, Endpoints: endpoints, Fields: fields}, nil
}

// parseEndpoint parses one `Source-[quant]->Target[quant]` tuple, with an
// optional trailing `as tag` rename clause.
func (p *Parser) parseEndpoint() (ast.Endpoint, error) {
	pos := ast.Position{Line: p.tok.Line, Column: p.tok.Column}
	source, err := p.expectIdent()
	if err != nil {
		return ast.Endpoint{}, err
	}
	if err := p.expect(lex.TokenMinus, "-"); err != nil {
		return ast.Endpoint{}, err
	}
	if err := p.expect(lex.TokenLBracket, "["); err != nil {
		return ast.Endpoint{}, err
	}
	qOut, err := p.parseQuantifier()
	if err != nil {
		return ast.Endpoint{}, err
	}
	if err := p.expect(lex.TokenRBracket, "]"); err != nil {
		return ast.Endpoint{}, err
	}
	if err := p.expect(lex.TokenArrow, "->"); err != nil {
		return ast.Endpoint{}, err
	}
	target, err := p.expectIdent()
	if err != nil {
		return ast.Endpoint{}, err
	}
	if err := p.expect(lex.TokenLBracket, "["); err != nil {
		return ast.Endpoint{}, err
	}
	qIn, err := p.parseQuantifier()
	if err != nil {
		return ast.Endpoint{}, err
	}
	if err := p.expect(lex.TokenRBracket, "]"); err != nil {
		return ast.Endpoint{}, err
	}
	tag := ""
	if p.tok.Kind == lex.TokenKeyword && p.tok.Text == "as" {
		p.advance()
		tag, err = p.expectIdent()
		if err != nil {
			return ast.Endpoint{}, err
		}
	}
	return ast.Endpoint{Pos: pos, Source: source, QuantifierOut: qOut, Target: target, QuantifierIn: qIn, RenameTag: tag}, nil
}

// parseQuantifier parses `one`, `opt`, `many`, or a `{min,max}` bound
// (max may be `*` for unbounded).
func (p *Parser) parseQuantifier() (ast.Quantifier, error) {
	if p.tok.Kind == lex.TokenLBrace {
		p.advance()
		if p.tok.Kind != lex.TokenNumber {
			return ast.Quantifier{}, p.errExpected("number")
		}
		min, _ := strconv.Atoi(p.tok.Text)
		p.advance()
		if err := p.expect(lex.TokenComma, ","); err != nil {
			return ast.Quantifier{}, err
		}
		max := -1
		if p.tok.Kind == lex.TokenNumber {
			max, _ = strconv.Atoi(p.tok.Text)
			p.advance()
		} else if p.tok.Kind == lex.TokenStar {
			p.advance()
		}
		if err := p.expect(lex.TokenRBrace, "}"); err != nil {
			return ast.Quantifier{}, err
		}
		return ast.Bounded(min, max), nil
	}
	word, err := p.expectIdent()
	if err != nil {
		return ast.Quantifier{}, err
	}
	switch word {
	case "one":
		return ast.One(), nil
	case "opt":
		return ast.Optional(), nil
	case "many":
		return ast.Many(), nil
	default:
		return ast.Quantifier{}, p.errExpected("quantifier (one, opt, many, or {min,max})")
	}
}

func (p *Parser) parseFieldBlock() (*ast.Fields, error) {
	if err := p.expect(lex.TokenLBrace, "{"); err != nil {
		return nil, err
	}
	fields := ast.NewFields()
	p.skipComments()
	for p.tok.Kind != lex.TokenRBrace {
		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		if fields.Has(f.Name) {
			return nil, p.errDuplicate("field", f.Name)
		}
		fields.Append(f)
		if p.tok.Kind == lex.TokenComma {
			p.advance()
		}
		p.skipComments()
	}
	if err := p.expect(lex.TokenRBrace, "}"); err != nil {
		return nil, err
	}
	return fields, nil
}

func (p *Parser) parseField() (ast.Field, error) {
	pos := ast.Position{Line: p.tok.Line, Column: p.tok.Column}
	attrs := p.parseAttributes()
	vis := p.parseVisibility()
	name, err := p.expectIdent()
	if err != nil {
		return ast.Field{}, err
	}
	if err := p.expect(lex.TokenColon, ":"); err != nil {
		return ast.Field{}, err
	}
	typ, err := p.parseType()
	if err != nil {
		return ast.Field{}, err
	}
	return ast.Field{Pos: pos, Name: name, Type: typ, Visibility: vis, Attributes: attrs}, nil
}

func (p *Parser) parseType() (ast.TypeTerm, error) {
	name, err := p.expectIdent()
	if err != nil {
		return ast.TypeTerm{}, err
	}
	var args []ast.TypeTerm
	if p.tok.Kind == lex.TokenLAngle {
		p.advance()
		for p.tok.Kind != lex.TokenRAngle {
			arg, err := p.parseType()
			if err != nil {
				return ast.TypeTerm{}, err
			}
			args = append(args, arg)
			if p.tok.Kind == lex.TokenComma {
				p.advance()
			}
		}
		p.advance()
	}
	optional := false
	if p.tok.Kind == lex.TokenQuestion {
		p.advance()
		optional = true
	}
	kind := ast.TypeKindNamed
	if len(args) > 0 {
		kind = ast.TypeKindGeneric
	} else if isPrimitiveType(name) {
		kind = ast.TypeKindPrimitive
	}
	return ast.TypeTerm{Kind: kind, Name: name, Args: args, Optional: optional}, nil
}

func (p *Parser) parseEnum(pos ast.Position, vis ast.Visibility, attrs ast.AttributeSet) (ast.Statement, error) {
	if err := p.expectKeyword("enum"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	p.pushContext(name)
	defer p.popContext()

	typeParams, err := p.parseTypeParameters()
	if err != nil {
		return nil, err
	}

	if err := p.expect(lex.TokenLBrace, "{"); err != nil {
		return nil, err
	}
	var variants []ast.EnumVariant
	seen := map[string]bool{}
	p.skipComments()
	for p.tok.Kind != lex.TokenRBrace {
		vpos := ast.Position{Line: p.tok.Line, Column: p.tok.Column}
		vname, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if seen[vname] {
			return nil, p.errDuplicate("variant", vname)
		}
		seen[vname] = true

		var fields *ast.Fields
		if p.tok.Kind == lex.TokenLBrace {
			fields, err = p.parseFieldBlock()
			if err != nil {
				return nil, err
			}
		}
		variants = append(variants, ast.EnumVariant{Pos: vpos, Name: vname, Fields: fields})
		if p.tok.Kind == lex.TokenComma {
			p.advance()
		}
		p.skipComments()
	}
	if err := p.expect(lex.TokenRBrace, "}"); err != nil {
		return nil, err
	}
	return &ast.EnumDecl{Pos: pos, Name: name, Visibility: vis, Attributes: attrs, TypeParameters: typeParams, Variants: variants}, nil
}

func isPrimitiveType(name string) bool {
	switch name {
	case "String", "Bool", "Usize", "Isize",
		"U8", "U16", "U32", "U64",
		"I8", "I16", "I32", "I64",
		"F32", "F64":
		return true
	default:
		return false
	}
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
