// Package simtree reads and writes the ROOT trees of simulated resonance
// decays passed through the detector reconstruction.
package simtree

import (
	"context"
	"errors"
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"
)

// Object names inside a simulation file.
const (
	TreeName    = "Tree"
	RefHistName = "orig_pt"
)

var ErrNoEvents = errors.New("simulation file has no events")

// Source is a simulation file. Scan may be called concurrently: every call
// opens its own reader.
type Source struct {
	path    string
	entries int64
	ref     *hbook.H1D
}

// Open checks the tree of path and reads the generated pT spectrum.
func Open(path string) (*Source, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()

	t, err := tree(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if t.Entries() <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoEvents, path)
	}

	obj, err := f.Get(RefHistName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	h, ok := obj.(rhist.H1)
	if !ok {
		return nil, fmt.Errorf("%s: %s is a %T, not a 1D histogram", path, RefHistName, obj)
	}
	return &Source{path: path, entries: t.Entries(), ref: rootcnv.H1D(h)}, nil
}

func (s *Source) Path() string { return s.path }

// Entries is the number of events in the tree.
func (s *Source) Entries() int64 { return s.entries }

// Reference is the generated pT spectrum of the sample.
func (s *Source) Reference() *hbook.H1D { return s.ref }

// Scan decodes the events [beg, end) in order and calls fn for each. The
// event passed to fn is reused between calls.
func (s *Source) Scan(ctx context.Context, beg, end int64, fn func(*Event) error) error {
	f, err := groot.Open(s.path)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", s.path, err)
	}
	defer f.Close()

	t, err := tree(f)
	if err != nil {
		return err
	}

	var cols columns
	layout := cols.layout()
	rvars := make([]rtree.ReadVar, len(layout))
	for i, c := range layout {
		rvars[i] = rtree.ReadVar{Name: c.name, Value: c.value}
	}
	r, err := rtree.NewReader(t, rvars, rtree.WithRange(beg, end))
	if err != nil {
		return fmt.Errorf("could not create reader for %s: %w", s.path, err)
	}
	defer r.Close()

	var ev Event
	return r.Read(func(rtree.RCtx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		cols.decode(&ev)
		return fn(&ev)
	})
}

func tree(d riofs.Directory) (rtree.Tree, error) {
	obj, err := d.Get(TreeName)
	if err != nil {
		return nil, err
	}
	t, ok := obj.(rtree.Tree)
	if !ok {
		return nil, fmt.Errorf("%s is a %T, not a tree", TreeName, obj)
	}
	return t, nil
}
