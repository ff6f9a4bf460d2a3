package parser

import (
	"strconv"
	"strings"

	"github.com/aledsdavies/typedgraph/changeset"
	"github.com/aledsdavies/typedgraph/internal/lex"
	"github.com/aledsdavies/typedgraph/schema/ast"
)

// ParseChangeset parses the canonical .cbs textual form: a
// `#[old_hash = "..."]` / `#[new_hash = "..."]` attribute pair, a
// `<old> => <new>` version header, then one marker-prefixed entry per
// line (`*` added declaration, `+` added sub-entity, `-` removed,
// `~` renamed/edited).
func ParseChangeset(input string) (*changeset.ChangeSet, error) {
	p := &Parser{input: input, lx: lex.New(input)}
	p.advance()
	p.skipComments()

	cs := &changeset.ChangeSet{}
	for _, a := range p.parseAttributes().Items() {
		switch a.Name {
		case "old_hash":
			if h, err := strconv.ParseUint(a.Value, 16, 64); err == nil {
				cs.OldHash = h
			}
		case "new_hash":
			if h, err := strconv.ParseUint(a.Value, 16, 64); err == nil {
				cs.NewHash = h
			}
		}
	}

	p.skipComments()
	oldVer, err := p.parseVersionToken()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lex.TokenFatArrow, "=>"); err != nil {
		return nil, err
	}
	newVer, err := p.parseVersionToken()
	if err != nil {
		return nil, err
	}
	cs.OldVersion, cs.NewVersion = oldVer, newVer

	p.skipComments()
	for p.tok.Kind != lex.TokenEOF {
		p.skipComments()
		if p.tok.Kind == lex.TokenEOF {
			break
		}
		ch, err := p.parseChangeEntry()
		if err != nil {
			return nil, err
		}
		cs.Changes = append(cs.Changes, ch)
		p.skipComments()
	}
	return cs, nil
}

// parseVersionToken greedily concatenates the ident/number/dot tokens that
// make up a version name like "V0.0", which the lexer otherwise splits
// into separate identifier, dot, and number tokens.
func (p *Parser) parseVersionToken() (string, error) {
	var sb strings.Builder
	for p.tok.Kind == lex.TokenIdent || p.tok.Kind == lex.TokenNumber || p.tok.Kind == lex.TokenDot || p.tok.Kind == lex.TokenKeyword {
		sb.WriteString(p.tok.Text)
		p.advance()
	}
	if sb.Len() == 0 {
		return "", p.errExpected("version token")
	}
	return sb.String(), nil
}

// parseWord accepts any bare word, whether the lexer classified it as an
// identifier or (because it collides with the .bs declaration grammar) a
// reserved keyword - the changeset grammar's own words (added, renamed,
// decl, field, ...) are never reserved, but decl kinds and visibility
// literals (node, edge, pub, local, ...) are.
func (p *Parser) parseWord() (string, error) {
	if p.tok.Kind != lex.TokenIdent && p.tok.Kind != lex.TokenKeyword {
		return "", p.errExpected("word")
	}
	w := p.tok.Text
	p.advance()
	return w, nil
}

func (p *Parser) expectWord(word string) error {
	w, err := p.parseWord()
	if err != nil {
		return err
	}
	if w != word {
		return p.errExpected("word " + word)
	}
	return nil
}

// parseDeclPath parses the top-level declaration name a change entry
// applies to, plus any dotted sub-path (e.g. a variant name) into it.
func (p *Parser) parseDeclPath() (string, changeset.FieldPath, error) {
	decl, err := p.expectIdent()
	if err != nil {
		return "", changeset.FieldPath{}, err
	}
	var segs []string
	for p.tok.Kind == lex.TokenDot {
		p.advance()
		seg, err := p.parseWord()
		if err != nil {
			return "", changeset.FieldPath{}, err
		}
		segs = append(segs, seg)
	}
	return decl, changeset.NewFieldPath(segs...), nil
}

func (p *Parser) parseIndex() (int, error) {
	if err := p.expect(lex.TokenAt, "@"); err != nil {
		return 0, err
	}
	if p.tok.Kind != lex.TokenNumber {
		return 0, p.errExpected("index number")
	}
	n, _ := strconv.Atoi(p.tok.Text)
	p.advance()
	return n, nil
}

func (p *Parser) parseVariantSpec() (ast.EnumVariant, error) {
	pos := ast.Position{Line: p.tok.Line, Column: p.tok.Column}
	name, err := p.expectIdent()
	if err != nil {
		return ast.EnumVariant{}, err
	}
	var fields *ast.Fields
	if p.tok.Kind == lex.TokenLBrace {
		fields, err = p.parseFieldBlock()
		if err != nil {
			return ast.EnumVariant{}, err
		}
	}
	return ast.EnumVariant{Pos: pos, Name: name, Fields: fields}, nil
}

// parseEndpointPair parses the `Source->Target` identity used by removal
// and edit entries, where quantifiers play no role in addressing.
func (p *Parser) parseEndpointPair() (string, string, error) {
	source, err := p.expectIdent()
	if err != nil {
		return "", "", err
	}
	if err := p.expect(lex.TokenArrow, "->"); err != nil {
		return "", "", err
	}
	target, err := p.expectIdent()
	if err != nil {
		return "", "", err
	}
	return source, target, nil
}

func (p *Parser) parseVisibilityLiteral() (ast.Visibility, error) {
	w, err := p.parseWord()
	if err != nil {
		return ast.VisibilityPrivate, err
	}
	switch w {
	case "pub":
		return ast.VisibilityPublic, nil
	case "local":
		return ast.VisibilityLocal, nil
	case "private":
		return ast.VisibilityPrivate, nil
	default:
		return ast.VisibilityPrivate, p.errExpected("visibility (pub, local, private)")
	}
}

// parseTagLiteral reads a rename tag, where `_` stands for "no tag".
func (p *Parser) parseTagLiteral() (string, error) {
	if p.tok.Kind == lex.TokenIdent && p.tok.Text == "_" {
		p.advance()
		return "", nil
	}
	return p.expectIdent()
}

func (p *Parser) parseChangeEntry() (changeset.SingleChange, error) {
	switch p.tok.Kind {
	case lex.TokenStar:
		p.advance()
		return p.parseAddedDecl()
	case lex.TokenPlus:
		p.advance()
		return p.parseAddedSub()
	case lex.TokenMinus:
		p.advance()
		return p.parseRemoved()
	case lex.TokenTilde:
		p.advance()
		return p.parseEdited()
	default:
		return nil, p.errExpected("change marker (*, +, -, ~)")
	}
}

func (p *Parser) parseAddedDecl() (changeset.SingleChange, error) {
	if err := p.expectWord("added"); err != nil {
		return nil, err
	}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	switch n := stmt.(type) {
	case *ast.NodeDecl:
		return changeset.AddedNode{Decl: n}, nil
	case *ast.EdgeDecl:
		return changeset.AddedEdge{Decl: n}, nil
	case *ast.StructDecl:
		return changeset.AddedStruct{Decl: n}, nil
	case *ast.EnumDecl:
		return changeset.AddedEnum{Decl: n}, nil
	case *ast.ImportDecl:
		return changeset.AddedImport{Decl: n}, nil
	default:
		return nil, p.errExpected("declaration")
	}
}

func (p *Parser) parseAddedSub() (changeset.SingleChange, error) {
	kind, err := p.parseWord()
	if err != nil {
		return nil, err
	}
	switch kind {
	case "field":
		decl, path, err := p.parseDeclPath()
		if err != nil {
			return nil, err
		}
		idx, err := p.parseIndex()
		if err != nil {
			return nil, err
		}
		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		return changeset.AddedField{Decl: decl, Path: path, Index: idx, Field: f}, nil
	case "variant":
		decl, _, err := p.parseDeclPath()
		if err != nil {
			return nil, err
		}
		idx, err := p.parseIndex()
		if err != nil {
			return nil, err
		}
		v, err := p.parseVariantSpec()
		if err != nil {
			return nil, err
		}
		return changeset.AddedVariant{Decl: decl, Index: idx, Variant: v}, nil
	case "endpoint":
		decl, _, err := p.parseDeclPath()
		if err != nil {
			return nil, err
		}
		ep, err := p.parseEndpoint()
		if err != nil {
			return nil, err
		}
		return changeset.AddedEndpoint{Decl: decl, Endpoint: ep}, nil
	default:
		return nil, p.errExpected("field, variant, or endpoint")
	}
}

func (p *Parser) parseRemoved() (changeset.SingleChange, error) {
	kind, err := p.parseWord()
	if err != nil {
		return nil, err
	}
	switch kind {
	case "decl":
		declKind, err := p.parseWord()
		if err != nil {
			return nil, err
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return changeset.RemovedDecl{Name: name, Kind: declKind}, nil
	case "field":
		decl, path, err := p.parseDeclPath()
		if err != nil {
			return nil, err
		}
		idx, err := p.parseIndex()
		if err != nil {
			return nil, err
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return changeset.RemovedField{Decl: decl, Path: path, Index: idx, Name: name}, nil
	case "variant":
		decl, _, err := p.parseDeclPath()
		if err != nil {
			return nil, err
		}
		idx, err := p.parseIndex()
		if err != nil {
			return nil, err
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return changeset.RemovedVariant{Decl: decl, Index: idx, Name: name}, nil
	case "endpoint":
		decl, _, err := p.parseDeclPath()
		if err != nil {
			return nil, err
		}
		source, target, err := p.parseEndpointPair()
		if err != nil {
			return nil, err
		}
		return changeset.RemovedEndpoint{Decl: decl, Source: source, Target: target}, nil
	default:
		return nil, p.errExpected("decl, field, variant, or endpoint")
	}
}

func (p *Parser) parseEdited() (changeset.SingleChange, error) {
	kind, err := p.parseWord()
	if err != nil {
		return nil, err
	}
	switch kind {
	case "renamed":
		return p.parseRenamed()
	case "visibility":
		decl, path, err := p.parseDeclPath()
		if err != nil {
			return nil, err
		}
		oldVis, err := p.parseVisibilityLiteral()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lex.TokenFatArrow, "=>"); err != nil {
			return nil, err
		}
		newVis, err := p.parseVisibilityLiteral()
		if err != nil {
			return nil, err
		}
		return changeset.EditedVisibility{Decl: decl, Path: path, Old: oldVis, New: newVis}, nil
	case "type":
		decl, path, err := p.parseDeclPath()
		if err != nil {
			return nil, err
		}
		oldType, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lex.TokenFatArrow, "=>"); err != nil {
			return nil, err
		}
		newType, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return changeset.EditedType{Decl: decl, Path: path, Old: oldType, New: newType}, nil
	case "endpoint":
		decl, _, err := p.parseDeclPath()
		if err != nil {
			return nil, err
		}
		source, target, err := p.parseEndpointPair()
		if err != nil {
			return nil, err
		}
		if err := p.expectWord("out"); err != nil {
			return nil, err
		}
		oldOut, err := p.parseQuantifier()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lex.TokenFatArrow, "=>"); err != nil {
			return nil, err
		}
		newOut, err := p.parseQuantifier()
		if err != nil {
			return nil, err
		}
		if err := p.expectWord("in"); err != nil {
			return nil, err
		}
		oldIn, err := p.parseQuantifier()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lex.TokenFatArrow, "=>"); err != nil {
			return nil, err
		}
		newIn, err := p.parseQuantifier()
		if err != nil {
			return nil, err
		}
		if err := p.expectWord("tag"); err != nil {
			return nil, err
		}
		oldTag, err := p.parseTagLiteral()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lex.TokenFatArrow, "=>"); err != nil {
			return nil, err
		}
		newTag, err := p.parseTagLiteral()
		if err != nil {
			return nil, err
		}
		return changeset.EditedEndpoint{
			Decl: decl, Source: source, Target: target,
			OldQuantifierOut: oldOut, NewQuantifierOut: newOut,
			OldQuantifierIn: oldIn, NewQuantifierIn: newIn,
			OldRenameTag: oldTag, NewRenameTag: newTag,
		}, nil
	default:
		return nil, p.errExpected("renamed, visibility, type, or endpoint")
	}
}

func (p *Parser) parseRenamed() (changeset.SingleChange, error) {
	sub, err := p.parseWord()
	if err != nil {
		return nil, err
	}
	switch sub {
	case "decl":
		declKind, err := p.parseWord()
		if err != nil {
			return nil, err
		}
		oldName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lex.TokenFatArrow, "=>"); err != nil {
			return nil, err
		}
		newName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return changeset.RenamedDecl{OldName: oldName, NewName: newName, Kind: declKind}, nil
	case "field":
		decl, path, err := p.parseDeclPath()
		if err != nil {
			return nil, err
		}
		oldName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lex.TokenFatArrow, "=>"); err != nil {
			return nil, err
		}
		newName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return changeset.RenamedField{Decl: decl, Path: path, OldName: oldName, NewName: newName}, nil
	case "variant":
		decl, _, err := p.parseDeclPath()
		if err != nil {
			return nil, err
		}
		oldName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lex.TokenFatArrow, "=>"); err != nil {
			return nil, err
		}
		newName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return changeset.RenamedVariant{Decl: decl, OldName: oldName, NewName: newName}, nil
	default:
		return nil, p.errExpected("decl, field, or variant")
	}
}
