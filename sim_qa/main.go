package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"
	"os"

	"github.com/pkg/profile"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	phenix "github.com/Sergeyir/PairAnalysisPhenix-sub002"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/simtree"
)

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [options] <simulation-files>...

Plots the generated resonance pT next to the pT of the reconstructed tracks
(-kind pt) or the EMCal cluster energy of the reconstructed tracks
(-kind ecore).

options:
`, os.Args[0],
	)
	flag.PrintDefaults()
}

func main() {
	var (
		kind   = flag.String("kind", "pt", "plot kind: pt or ecore")
		title  = flag.String("title", "", "plot title")
		output = flag.String("output", "out.png", "output file")
		prof   = flag.Bool("profile", false, "write a CPU profile")
	)
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() < 1 {
		printUsage()
		log.Fatal("Invalid arguments")
	}
	if *prof {
		defer profile.Start(profile.ProfilePath(".")).Stop()
	}

	p := plot.New()
	p.Title.Text = *title
	p.X.Tick.Marker = phenix.PreciseTicks{NSuggestedTicks: 5}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Scale = plot.LogScale{}

	var hists []*hbook.H1D
	switch *kind {
	case "pt":
		p.X.Label.Text = "p_T (GeV)"
		for _, filename := range flag.Args() {
			hists = append(hists, makePtHists(filename)...)
		}
	case "ecore":
		p.X.Label.Text = "log_10{E core (MeV)}"
		for _, filename := range flag.Args() {
			hists = append(hists, makeEcoreHist(filename))
		}
	default:
		log.Fatalf("unknown plot kind %q", *kind)
	}

	for i, hist := range hists {
		lineColor := color.RGBA{A: 255}
		switch i {
		case 1:
			lineColor = color.RGBA{G: 255, A: 255}
		case 2:
			lineColor = color.RGBA{B: 255, A: 255}
		case 3:
			lineColor = color.RGBA{R: 255, B: 127, G: 127, A: 255}
		}

		h := hplot.NewH1D(hist, hplot.WithLogY(true))
		h.FillColor = nil
		h.LineStyle.Color = lineColor
		h.Infos.Style = hplot.HInfoNone

		p.Add(h)
		p.Legend.Add(hist.Name(), h)
	}
	p.Legend.Top = true

	if err := p.Save(6*vg.Inch, 4*vg.Inch, *output); err != nil {
		log.Fatal(err)
	}
}

// scan calls fn for every event of a simulation file.
func scan(filename string, fn func(*simtree.Event)) *simtree.Source {
	src, err := simtree.Open(filename)
	if err != nil {
		log.Fatal(err)
	}
	err = src.Scan(context.Background(), 0, src.Entries(), func(ev *simtree.Event) error {
		fn(ev)
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
	return src
}

func makePtHists(filename string) []*hbook.H1D {
	trackPtHist := hbook.NewH1D(50, 0, 10)
	trackPtHist.Annotation()["name"] = filename + " tracks"

	src := scan(filename, func(ev *simtree.Event) {
		for i := range ev.Tracks {
			if ev.Tracks[i].Charge != 0 {
				trackPtHist.Fill(ev.Tracks[i].Pt(), 1)
			}
		}
	})

	truePtHist := src.Reference()
	truePtHist.Annotation()["name"] = filename + " generated"
	return []*hbook.H1D{truePtHist, trackPtHist}
}

func makeEcoreHist(filename string) *hbook.H1D {
	hist := hbook.NewH1D(100, 0, 5)
	hist.Annotation()["name"] = filename

	scan(filename, func(ev *simtree.Event) {
		for i := range ev.Tracks {
			cl := &ev.Tracks[i].EMCal
			if cl.Hit && cl.Ecore > 0 {
				hist.Fill(math.Log10(cl.Ecore*1000), 1)
			}
		}
	})
	return hist
}
