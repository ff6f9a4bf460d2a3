// Package project manages the on-disk version graph of schema files and
// the changesets connecting them: `schemas/<version>.bs` plus
// `changesets/<old>=<new>.cbs`, with an in-memory adjacency index kept in
// sync on every mutating operation.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/aledsdavies/typedgraph/apply"
	"github.com/aledsdavies/typedgraph/changeset"
	"github.com/aledsdavies/typedgraph/diff"
	"github.com/aledsdavies/typedgraph/internal/xerrors"
	"github.com/aledsdavies/typedgraph/schema/ast"
	"github.com/aledsdavies/typedgraph/schema/hash"
	"github.com/aledsdavies/typedgraph/schema/parser"
	"github.com/aledsdavies/typedgraph/schema/printer"
)

const (
	schemasDir    = "schemas"
	changesetsDir = "changesets"
	schemaExt     = ".bs"
	changesetExt  = ".cbs"
)

// Project holds every schema version and changeset under a root
// directory, plus the forward/backward adjacency derived from them.
type Project struct {
	Root string

	schemas    map[string]*ast.Schema
	changesets map[string]*changeset.ChangeSet // key: old=new
	forward    map[string][]string             // old -> []new
	backward   map[string][]string             // new -> []old
}

// New creates a project on disk at root with a single seed schema version.
func New(root, seedVersion string) (*Project, error) {
	if seedVersion == "" {
		seedVersion = "V0.0"
	}
	if err := os.MkdirAll(filepath.Join(root, schemasDir), 0o755); err != nil {
		return nil, xerrors.Wrap(xerrors.KindIO, "creating schemas directory", err)
	}
	if err := os.MkdirAll(filepath.Join(root, changesetsDir), 0o755); err != nil {
		return nil, xerrors.Wrap(xerrors.KindIO, "creating changesets directory", err)
	}

	p := &Project{Root: root, schemas: map[string]*ast.Schema{}, changesets: map[string]*changeset.ChangeSet{}, forward: map[string][]string{}, backward: map[string][]string{}}
	seed := &ast.Schema{Version: seedVersion}
	h, err := hash.Compute(seed)
	if err != nil {
		return nil, err
	}
	seed.Hash = h
	p.schemas[seedVersion] = seed
	if err := p.writeSchema(seed); err != nil {
		return nil, err
	}
	return p, nil
}

// Open loads an existing project from disk.
func Open(root string) (*Project, error) {
	p := &Project{Root: root, schemas: map[string]*ast.Schema{}, changesets: map[string]*changeset.ChangeSet{}, forward: map[string][]string{}, backward: map[string][]string{}}

	schemaFiles, err := filepath.Glob(filepath.Join(root, schemasDir, "*"+schemaExt))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindIO, "listing schemas", err)
	}
	for _, path := range schemaFiles {
		version := strings.TrimSuffix(filepath.Base(path), schemaExt)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.KindIO, "reading schema file", err)
		}
		schema, err := parser.Parse(version, string(data))
		if err != nil {
			return nil, xerrors.Wrap(xerrors.KindParse, "parsing schema "+version, err)
		}
		declared := schema.Hash
		h, err := hash.Compute(schema)
		if err != nil {
			return nil, err
		}
		if declared != 0 && declared != h {
			fmt.Fprintf(os.Stderr, "warning: schema %s declares hash %016x but content hashes to %016x; using the computed value\n", version, declared, h)
		}
		schema.Hash = h
		p.schemas[version] = schema
	}

	changesetFiles, err := filepath.Glob(filepath.Join(root, changesetsDir, "*"+changesetExt))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindIO, "listing changesets", err)
	}
	for _, path := range changesetFiles {
		old, new, ok := splitChangesetName(strings.TrimSuffix(filepath.Base(path), changesetExt))
		if !ok {
			continue
		}
		cs, err := loadChangeset(path, old, new)
		if err != nil {
			return nil, err
		}
		p.index(old, new, cs)
	}

	if err := p.CheckIntegrity(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Project) index(old, new string, cs *changeset.ChangeSet) {
	key := old + "=" + new
	p.changesets[key] = cs
	p.forward[old] = append(p.forward[old], new)
	p.backward[new] = append(p.backward[new], old)
}

// Schema returns the schema for version, with fuzzy-matched suggestions
// attached to the error when it does not exist.
func (p *Project) Schema(version string) (*ast.Schema, error) {
	if s, ok := p.schemas[version]; ok {
		return s, nil
	}
	return nil, xerrors.UnknownSchema(version, p.suggestNames(version))
}

func (p *Project) suggestNames(name string) []string {
	var names []string
	for v := range p.schemas {
		names = append(names, v)
	}
	sort.Strings(names)
	ranks := fuzzy.RankFindFold(name, names)
	sort.Sort(ranks)
	suggestions := make([]string, len(ranks))
	for i, r := range ranks {
		suggestions[i] = r.Target
	}
	return suggestions
}

// Heads returns every schema version that is not the old side of any
// changeset - the current tips of the version graph.
func (p *Project) Heads() []string {
	var heads []string
	for v := range p.schemas {
		if len(p.forward[v]) == 0 {
			heads = append(heads, v)
		}
	}
	sort.Strings(heads)
	return heads
}

// Versions returns every known schema version name, sorted.
func (p *Project) Versions() []string {
	var out []string
	for v := range p.schemas {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Roots returns every schema version with no incoming changeset - the
// starting points of the version graph.
func (p *Project) Roots() []string {
	var roots []string
	for v := range p.schemas {
		if len(p.backward[v]) == 0 {
			roots = append(roots, v)
		}
	}
	sort.Strings(roots)
	return roots
}

// Forward returns the versions directly reachable from version via a
// single recorded changeset, sorted.
func (p *Project) Forward(version string) []string {
	out := append([]string(nil), p.forward[version]...)
	sort.Strings(out)
	return out
}

// IsHead reports whether version has no outgoing changeset.
func (p *Project) IsHead(version string) bool {
	return len(p.forward[version]) == 0
}

// FindPath runs a breadth-first search over the forward adjacency from
// old to new, returning the sequence of changesets to replay, or nil if
// no path exists.
func (p *Project) FindPath(old, new string) []*changeset.ChangeSet {
	if old == new {
		return nil
	}
	type step struct {
		version string
		path    []string
	}
	visited := map[string]bool{old: true}
	queue := []step{{version: old, path: nil}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range p.forward[cur.version] {
			if next == new {
				fullPath := append(append([]string(nil), cur.path...), next)
				return p.resolvePath(old, fullPath)
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, step{version: next, path: append(append([]string(nil), cur.path...), next)})
			}
		}
	}
	return nil
}

func (p *Project) resolvePath(start string, versions []string) []*changeset.ChangeSet {
	var out []*changeset.ChangeSet
	prev := start
	for _, v := range versions {
		out = append(out, p.changesets[prev+"="+v])
		prev = v
	}
	return out
}

// AddSchema creates a brand-new named version with no declarations.
func (p *Project) AddSchema(version string) error {
	if _, exists := p.schemas[version]; exists {
		return xerrors.New(xerrors.KindNameTaken, "schema version already exists").WithContext("name", version)
	}
	s := &ast.Schema{Version: version}
	h, err := hash.Compute(s)
	if err != nil {
		return err
	}
	s.Hash = h
	p.schemas[version] = s
	return p.writeSchema(s)
}

// CopySchema duplicates the schema named from under a new name. When
// autoRename is true and to already exists, a bump of the name's trailing
// integer (falling back to a _copy suffix when the name has no trailing
// digits) is applied until a free name is found. No semver-aware bump is
// attempted.
func (p *Project) CopySchema(from, to string, autoRename bool) (string, error) {
	src, err := p.Schema(from)
	if err != nil {
		return "", err
	}
	target := to
	if autoRename {
		target = p.nextFreeName(to)
	} else if _, exists := p.schemas[target]; exists {
		return "", xerrors.New(xerrors.KindNameTaken, "schema version already exists").WithContext("name", target)
	}

	cp := &ast.Schema{Version: target, Statements: append([]ast.Statement(nil), src.Statements...)}
	h, err := hash.Compute(cp)
	if err != nil {
		return "", err
	}
	cp.Hash = h
	p.schemas[target] = cp
	if err := p.writeSchema(cp); err != nil {
		return "", err
	}
	return target, nil
}

// nextFreeName bumps name's trailing integer until an unused name is
// found, falling back to a "_copy" suffix loop.
func (p *Project) nextFreeName(name string) string {
	if _, exists := p.schemas[name]; !exists {
		return name
	}
	if bumped, ok := bumpTrailingNumber(name); ok {
		for {
			if _, exists := p.schemas[bumped]; !exists {
				return bumped
			}
			var ok2 bool
			bumped, ok2 = bumpTrailingNumber(bumped)
			if !ok2 {
				break
			}
		}
	}
	candidate := name + "_copy"
	for i := 1; ; i++ {
		if _, exists := p.schemas[candidate]; !exists {
			return candidate
		}
		candidate = fmt.Sprintf("%s_copy%d", name, i)
	}
}

var trailingNumberRe = regexp.MustCompile(`^(.*?)(\d+)$`)

func bumpTrailingNumber(name string) (string, bool) {
	m := trailingNumberRe.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s%d", m[1], n+1), true
}

// RenameSchema renames an existing schema version in place, updating
// every changeset that referenced the old name.
func (p *Project) RenameSchema(from, to string) error {
	s, err := p.Schema(from)
	if err != nil {
		return err
	}
	if _, exists := p.schemas[to]; exists {
		return xerrors.New(xerrors.KindNameTaken, "schema version already exists").WithContext("name", to)
	}

	delete(p.schemas, from)
	s.Version = to
	p.schemas[to] = s
	if err := os.Remove(p.schemaPath(from)); err != nil && !os.IsNotExist(err) {
		return xerrors.Wrap(xerrors.KindIO, "removing old schema file", err)
	}
	if err := p.writeSchema(s); err != nil {
		return err
	}

	for key, cs := range p.changesets {
		changed := false
		if cs.OldVersion == from {
			cs.OldVersion = to
			changed = true
		}
		if cs.NewVersion == from {
			cs.NewVersion = to
			changed = true
		}
		if changed {
			delete(p.changesets, key)
			if err := os.Remove(p.changesetPath(splitKeyOld(key), splitKeyNew(key))); err != nil && !os.IsNotExist(err) {
				return xerrors.Wrap(xerrors.KindIO, "removing old changeset file", err)
			}
			p.reindexChangeset(cs)
		}
	}

	p.forward, p.backward = map[string][]string{}, map[string][]string{}
	for _, cs := range p.changesets {
		p.forward[cs.OldVersion] = append(p.forward[cs.OldVersion], cs.NewVersion)
		p.backward[cs.NewVersion] = append(p.backward[cs.NewVersion], cs.OldVersion)
	}
	return nil
}

func (p *Project) reindexChangeset(cs *changeset.ChangeSet) error {
	p.changesets[cs.OldVersion+"="+cs.NewVersion] = cs
	return p.writeChangeset(cs)
}

// CreateChangeset builds and persists the ChangeSet between two existing
// schema versions by diffing them directly.
func (p *Project) CreateChangeset(old, new string) (*changeset.ChangeSet, error) {
	oldSchema, err := p.Schema(old)
	if err != nil {
		return nil, err
	}
	newSchema, err := p.Schema(new)
	if err != nil {
		return nil, err
	}
	cs, err := diff.BuildChangeSet(oldSchema, newSchema)
	if err != nil {
		return nil, err
	}
	p.index(old, new, cs)
	if err := p.writeChangeset(cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// UpdateChangesets recomputes changesets after their old-side schema has
// been edited in place. When all is false (the default), only changesets
// whose new_version is a current head are recomputed; when all is true,
// every changeset in the project is recomputed. This resolves a historical
// ambiguity between two earlier CLI implementations of the same flag by
// picking the all-changesets interpretation for all=true.
func (p *Project) UpdateChangesets(all bool) error {
	heads := map[string]bool{}
	for _, h := range p.Heads() {
		heads[h] = true
	}

	for key, cs := range p.changesets {
		if !all && !heads[cs.NewVersion] {
			continue
		}
		oldSchema, err := p.Schema(cs.OldVersion)
		if err != nil {
			return err
		}
		newSchema, err := p.Schema(cs.NewVersion)
		if err != nil {
			return err
		}
		updated, err := diff.BuildChangeSet(oldSchema, newSchema)
		if err != nil {
			return err
		}
		p.changesets[key] = updated
		if err := p.writeChangeset(updated); err != nil {
			return err
		}
	}
	return nil
}

// CheckIntegrity verifies every loaded changeset actually reproduces its
// recorded new-side hash when replayed from its recorded old-side schema,
// raising DivergentChangeset on the first mismatch.
func (p *Project) CheckIntegrity() error {
	for key, cs := range p.changesets {
		oldSchema, ok := p.schemas[cs.OldVersion]
		if !ok {
			continue
		}
		if _, err := apply.Apply(cs, oldSchema); err != nil {
			return xerrors.Wrap(xerrors.KindDivergentChangeset, "changeset "+key+" does not reproduce its recorded target", err)
		}
	}
	return nil
}

func (p *Project) schemaPath(version string) string {
	return filepath.Join(p.Root, schemasDir, version+schemaExt)
}

func (p *Project) changesetPath(old, new string) string {
	return filepath.Join(p.Root, changesetsDir, old+"="+new+changesetExt)
}

func (p *Project) writeSchema(s *ast.Schema) error {
	text := printer.Print(s)
	if err := os.WriteFile(p.schemaPath(s.Version), []byte(text), 0o644); err != nil {
		return xerrors.Wrap(xerrors.KindIO, "writing schema file", err)
	}
	return nil
}

func (p *Project) writeChangeset(cs *changeset.ChangeSet) error {
	data, err := encodeChangeset(cs)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.changesetPath(cs.OldVersion, cs.NewVersion), data, 0o644); err != nil {
		return xerrors.Wrap(xerrors.KindIO, "writing changeset file", err)
	}
	return nil
}

func splitChangesetName(name string) (old, new string, ok bool) {
	for i := 0; i < len(name); i++ {
		if name[i] == '=' {
			return name[:i], name[i+1:], true
		}
	}
	return "", "", false
}

func splitKeyOld(key string) string {
	old, _, _ := splitChangesetName(key)
	return old
}

func splitKeyNew(key string) string {
	_, new, _ := splitChangesetName(key)
	return new
}
