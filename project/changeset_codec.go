package project

import (
	"os"

	"github.com/aledsdavies/typedgraph/changeset"
	"github.com/aledsdavies/typedgraph/internal/xerrors"
	"github.com/aledsdavies/typedgraph/schema/parser"
	"github.com/aledsdavies/typedgraph/schema/printer"
)

// encodeChangeset renders cs to the canonical .cbs text form.
func encodeChangeset(cs *changeset.ChangeSet) ([]byte, error) {
	return []byte(printer.PrintChangeset(cs)), nil
}

// loadChangeset reads and parses a .cbs file, stamping the version pair
// the caller already knows from the file name.
func loadChangeset(path, old, new string) (*changeset.ChangeSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindIO, "reading changeset file", err)
	}
	cs, err := parser.ParseChangeset(string(data))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindParse, "parsing changeset file", err)
	}
	cs.OldVersion, cs.NewVersion = old, new
	return cs, nil
}
