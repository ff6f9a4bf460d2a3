// Package ast defines the in-memory schema model: node/edge/struct/enum
// declarations, their fields and attributes, and the ordered container
// types the diff and apply engines address by path.
//
// Position markers are attached to most nodes for diagnostics but are
// never read by Equal, the content hasher, or the diff engine - they are
// semantically inert, the Go equivalent of the original's Mark<I> wrapper.
package ast

// Position locates a node in its originating source file. It is purely
// diagnostic: no comparison or hash in this module ever looks at it.
type Position struct {
	Line   int
	Column int
}

// Visibility controls whether a declaration or field is exported across
// schema imports. The zero value is VisibilityPrivate (absent modifier).
type Visibility int

const (
	VisibilityPrivate Visibility = iota
	VisibilityPublic
	VisibilityLocal
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "pub"
	case VisibilityLocal:
		return "local"
	default:
		return ""
	}
}

// Attribute is a single `#[key = "value"]` or bare `#[key]` annotation.
type Attribute struct {
	Pos   Position
	Name  string
	Value string // empty when the attribute carries no value
}

// AttributeSet is an unordered collection of attributes attached to a
// declaration or field. Equality and hashing treat it as a set: callers
// must sort by CanonicalKey before feeding it to anything order-sensitive.
type AttributeSet struct {
	items []Attribute
}

func NewAttributeSet(attrs ...Attribute) AttributeSet {
	return AttributeSet{items: append([]Attribute(nil), attrs...)}
}

func (s AttributeSet) Len() int              { return len(s.items) }
func (s AttributeSet) At(i int) Attribute    { return s.items[i] }
func (s AttributeSet) Items() []Attribute    { return append([]Attribute(nil), s.items...) }

// CanonicalKey returns the text used to sort attributes (and to sort any
// other unordered set) into a deterministic order before hashing or
// printing. Two equal attributes always produce the same key.
func (a Attribute) CanonicalKey() string {
	return a.Name + "=" + a.Value
}

// Quantifier describes how many times an edge endpoint's node type may
// appear in a relationship.
type Quantifier struct {
	Kind QuantifierKind
	Min  int // only meaningful when Kind == QuantifierBounded
	Max  int // only meaningful when Kind == QuantifierBounded; -1 means unbounded
}

type QuantifierKind int

const (
	QuantifierOne QuantifierKind = iota
	QuantifierOptional
	QuantifierMany
	QuantifierBounded
)

func One() Quantifier      { return Quantifier{Kind: QuantifierOne} }
func Optional() Quantifier { return Quantifier{Kind: QuantifierOptional} }
func Many() Quantifier     { return Quantifier{Kind: QuantifierMany} }
func Bounded(min, max int) Quantifier {
	return Quantifier{Kind: QuantifierBounded, Min: min, Max: max}
}

func (q Quantifier) Equal(o Quantifier) bool {
	if q.Kind != o.Kind {
		return false
	}
	if q.Kind == QuantifierBounded {
		return q.Min == o.Min && q.Max == o.Max
	}
	return true
}

// Endpoint is a single source-to-target tuple of an edge declaration:
// the node type the edge travels out from, the node type it arrives at,
// how many times each side may participate, and an optional rename tag
// distinguishing multiple endpoints that share a source/target pair.
type Endpoint struct {
	Pos           Position
	Source        string
	QuantifierOut Quantifier
	Target        string
	QuantifierIn  Quantifier
	RenameTag     string // empty when no `as` clause is present
}

// CanonicalKey sorts endpoint sets deterministically by source, target,
// then rename tag - the combination that uniquely identifies an endpoint
// within a valid schema.
func (e Endpoint) CanonicalKey() string { return e.Source + "->" + e.Target + "#" + e.RenameTag }

// TypeKind distinguishes primitive field types from references to other
// declared types and from generic instantiations of them.
type TypeKind int

const (
	TypeKindPrimitive TypeKind = iota
	TypeKindNamed
	TypeKindGeneric
)

// TypeTerm is a field's type expression: a primitive name, a reference to
// a struct/enum/node declared elsewhere in the schema, or that reference
// instantiated with type arguments (itself TypeTerms).
type TypeTerm struct {
	Kind     TypeKind
	Name     string // primitive name or referenced declaration name
	Args     []TypeTerm
	Optional bool // trailing `?`
}

func (t TypeTerm) Equal(o TypeTerm) bool {
	if t.Kind != o.Kind || t.Name != o.Name || t.Optional != o.Optional {
		return false
	}
	if len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// Field is a single member of a struct, node, or enum variant payload.
type Field struct {
	Pos        Position
	Name       string
	Type       TypeTerm
	Visibility Visibility
	Attributes AttributeSet
}

// Fields is an ordered, name-addressable container: a parallel slice plus
// a name-to-index map. Order is semantically significant for the content
// hash and for FieldPath-based apply; lookup by name is O(1).
type Fields struct {
	items []Field
	index map[string]int
}

func NewFields() *Fields {
	return &Fields{index: make(map[string]int)}
}

// Append adds f to the end of the container. It panics if
// the name already exists - callers must check Has first when duplicates
// are a recoverable parse-time error rather than a programming bug.
func (f *Fields) Append(field Field) {
	if _, exists := f.index[field.Name]; exists {
		panic("ast: duplicate field name " + field.Name)
	}
	f.index[field.Name] = len(f.items)
	f.items = append(f.items, field)
}

func (f *Fields) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

func (f *Fields) Get(name string) (Field, bool) {
	i, ok := f.index[name]
	if !ok {
		return Field{}, false
	}
	return f.items[i], true
}

func (f *Fields) IndexOf(name string) (int, bool) {
	i, ok := f.index[name]
	return i, ok
}

func (f *Fields) At(i int) Field { return f.items[i] }
func (f *Fields) Len() int       { return len(f.items) }

// Set replaces the field at index i, keeping order and the name index in
// sync (the name itself may change, e.g. for a rename).
func (f *Fields) Set(i int, field Field) {
	old := f.items[i].Name
	if old != field.Name {
		delete(f.index, old)
		f.index[field.Name] = i
	}
	f.items[i] = field
}

// Insert places field at position i, shifting subsequent entries right.
func (f *Fields) Insert(i int, field Field) {
	if _, exists := f.index[field.Name]; exists {
		panic("ast: duplicate field name " + field.Name)
	}
	f.items = append(f.items, Field{})
	copy(f.items[i+1:], f.items[i:])
	f.items[i] = field
	for name, idx := range f.index {
		if idx >= i {
			f.index[name] = idx + 1
		}
	}
	f.index[field.Name] = i
}

// Remove deletes the field at index i, shifting subsequent entries left.
func (f *Fields) Remove(i int) {
	name := f.items[i].Name
	f.items = append(f.items[:i], f.items[i+1:]...)
	delete(f.index, name)
	for n, idx := range f.index {
		if idx > i {
			f.index[n] = idx - 1
		}
	}
}

func (f *Fields) All() []Field { return append([]Field(nil), f.items...) }

// Statement is the sealed union of top-level schema declarations. Only
// types defined in this package implement it - the private method pins
// the set shut the way the original's closed enum is pinned shut.
type Statement interface {
	statementNode()
	DeclName() string
	DeclVisibility() Visibility
	Position() Position
}

// NodeDecl declares a graph node type and its fields, optionally generic
// over one or more type parameters.
type NodeDecl struct {
	Pos            Position
	Name           string
	Visibility     Visibility
	Attributes     AttributeSet
	TypeParameters []string
	Fields         *Fields
	Comment        string
}

func (*NodeDecl) statementNode()                 {}
func (n *NodeDecl) DeclName() string              { return n.Name }
func (n *NodeDecl) DeclVisibility() Visibility    { return n.Visibility }
func (n *NodeDecl) Position() Position            { return n.Pos }

// EdgeDecl declares a graph edge type as a set of source/target endpoint
// tuples, plus its own fields. Optionally generic over type parameters.
type EdgeDecl struct {
	Pos            Position
	Name           string
	Visibility     Visibility
	Attributes     AttributeSet
	TypeParameters []string
	Endpoints      []Endpoint
	Fields         *Fields
	Comment        string
}

func (*EdgeDecl) statementNode()              {}
func (e *EdgeDecl) DeclName() string          { return e.Name }
func (e *EdgeDecl) DeclVisibility() Visibility { return e.Visibility }
func (e *EdgeDecl) Position() Position         { return e.Pos }

// StructDecl declares a reusable value type, optionally generic over one
// or more type parameters.
type StructDecl struct {
	Pos            Position
	Name           string
	Visibility     Visibility
	Attributes     AttributeSet
	TypeParameters []string
	Fields         *Fields
	Comment        string
}

func (*StructDecl) statementNode()               {}
func (s *StructDecl) DeclName() string            { return s.Name }
func (s *StructDecl) DeclVisibility() Visibility  { return s.Visibility }
func (s *StructDecl) Position() Position          { return s.Pos }

// EnumVariant is one alternative of an EnumDecl, optionally carrying a
// payload of fields (a tuple/struct-like variant) or none (a unit variant).
type EnumVariant struct {
	Pos    Position
	Name   string
	Fields *Fields // nil for a unit variant
}

// EnumDecl declares a closed set of variants, optionally generic over
// one or more type parameters.
type EnumDecl struct {
	Pos            Position
	Name           string
	Visibility     Visibility
	Attributes     AttributeSet
	TypeParameters []string
	Variants       []EnumVariant
	Comment        string
}

func (*EnumDecl) statementNode()              {}
func (e *EnumDecl) DeclName() string          { return e.Name }
func (e *EnumDecl) DeclVisibility() Visibility { return e.Visibility }
func (e *EnumDecl) Position() Position         { return e.Pos }

// ImportDecl brings a declaration named elsewhere into scope, by name.
type ImportDecl struct {
	Pos     Position
	Name    string
	Comment string
}

func (*ImportDecl) statementNode()              {}
func (i *ImportDecl) DeclName() string          { return i.Name }
func (i *ImportDecl) DeclVisibility() Visibility { return VisibilityPrivate }
func (i *ImportDecl) Position() Position         { return i.Pos }

// Schema is a complete, parsed schema file: its declared statements in
// source order plus their content hash (seeded by parser.Parse from a
// leading `#[hash = "..."]` attribute, or assigned by the caller from
// schema/hash.Compute; zero when neither has happened).
type Schema struct {
	Version    string
	Hash       uint64
	Statements []Statement
}

// Lookup finds a top-level declaration by name, ignoring ImportDecl
// entries (which name a declaration defined elsewhere rather than one
// declared in this schema).
func (s *Schema) Lookup(name string) (Statement, bool) {
	for _, st := range s.Statements {
		if _, isImport := st.(*ImportDecl); isImport {
			continue
		}
		if st.DeclName() == name {
			return st, true
		}
	}
	return nil, false
}

// Names returns the declared (non-import) names in source order.
func (s *Schema) Names() []string {
	var names []string
	for _, st := range s.Statements {
		if _, isImport := st.(*ImportDecl); isImport {
			continue
		}
		names = append(names, st.DeclName())
	}
	return names
}
