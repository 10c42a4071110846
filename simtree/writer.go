package simtree

import (
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"
)

// Writer creates a simulation file in the layout Source reads.
type Writer struct {
	f    *groot.File
	w    rtree.Writer
	cols columns
	ref  *hbook.H1D
}

// Create opens a new simulation file. Every written event also fills ref
// with its generated pT.
func Create(path string, ref *hbook.H1D) (*Writer, error) {
	f, err := groot.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create %s: %w", path, err)
	}
	sw := &Writer{f: f, ref: ref}
	layout := sw.cols.layout()
	wvars := make([]rtree.WriteVar, len(layout))
	for i, c := range layout {
		wvars[i] = rtree.WriteVar{Name: c.name, Value: c.value}
		if c.count {
			wvars[i].Count = "nch"
		}
	}
	sw.w, err = rtree.NewWriter(f, TreeName, wvars)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not create tree in %s: %w", path, err)
	}
	return sw, nil
}

func (w *Writer) Write(ev *Event) error {
	w.cols.encode(ev)
	if _, err := w.w.Write(); err != nil {
		return fmt.Errorf("could not write event: %w", err)
	}
	w.ref.Fill(ev.TruePt, 1)
	return nil
}

// Close flushes the tree and stores the reference spectrum.
func (w *Writer) Close() error {
	if err := w.w.Close(); err != nil {
		w.f.Close()
		return fmt.Errorf("could not close tree: %w", err)
	}
	w.ref.Annotation()["name"] = RefHistName
	if err := w.f.Put(RefHistName, rootcnv.FromH1D(w.ref)); err != nil {
		w.f.Close()
		return fmt.Errorf("could not write %s: %w", RefHistName, err)
	}
	return w.f.Close()
}
