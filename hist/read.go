package hist

import (
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rbase"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"
)

// Output is a histogram file written by Accumulator.Write.
type Output struct {
	f   *groot.File
	dir riofs.Directory
}

func Open(path string) (*Output, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	return &Output{f: f, dir: riofs.Dir(f)}, nil
}

func (o *Output) Close() error { return o.f.Close() }

// H2D reads the histogram name of a centrality class.
func (o *Output) H2D(cbin, name string) (*hbook.H2D, error) {
	obj, err := o.dir.Get(cbin + "/" + name)
	if err != nil {
		return nil, err
	}
	h, ok := obj.(rhist.H2)
	if !ok {
		return nil, fmt.Errorf("%s/%s is a %T, not a 2D histogram", cbin, name, obj)
	}
	return rootcnv.H2D(h), nil
}

func (o *Output) TruePt() (*hbook.H1D, error) {
	obj, err := o.dir.Get(TruePtName)
	if err != nil {
		return nil, err
	}
	h, ok := obj.(rhist.H1)
	if !ok {
		return nil, fmt.Errorf("%s is a %T, not a 1D histogram", TruePtName, obj)
	}
	return rootcnv.H1D(h), nil
}

// Meta reads one of the strings stored next to the histograms.
func (o *Output) Meta(key string) (string, error) {
	obj, err := o.dir.Get(key)
	if err != nil {
		return "", err
	}
	s, ok := obj.(*rbase.ObjString)
	if !ok {
		return "", fmt.Errorf("%s is a %T, not a string", key, obj)
	}
	return s.String(), nil
}
