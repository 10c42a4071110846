package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	phenix "github.com/Sergeyir/PairAnalysisPhenix-sub002"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/config"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/hist"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/pair"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/track"
)

var (
	cfgPath  = flag.String("config", "", "YAML configuration the histograms were filled with")
	kind     = flag.String("kind", "mass", "plot kind: mass, eff, map or spectrum")
	cbin     = flag.String("cbin", "MB", "centrality class")
	variant  = flag.String("variant", "", "weight variant suffix, e.g. acc_up (nominal when empty)")
	strategy = flag.String("strategy", "2pid", "strategy of the map plot")
	pTMin    = flag.Float64("minpt", 0, "minimum pair transverse momentum of the mass plot")
	pTMax    = flag.Float64("maxpt", 10, "maximum pair transverse momentum of the mass plot")
	mapMax   = flag.Float64("mapmax", 1, "upper limit of the map color scale")
	title    = flag.String("title", "", "plot title")
	output   = flag.String("output", "out.png", "output file")
)

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [options] <pair-eff-output-files>...

options:
`, os.Args[0],
	)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() < 1 {
		printUsage()
		log.Fatal("Invalid arguments")
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatal(err)
		}
	}
	v, err := track.ParseVariant(*variant)
	if err != nil {
		log.Fatal(err)
	}

	switch *kind {
	case "mass":
		plotHists(v, "Mass (GeV)", false, func(h *hbook.H2D) *hbook.H1D {
			return hist.ProjectMass(h, cfg.Binning, *pTMin, *pTMax)
		})
	case "spectrum":
		plotHists(v, "p_T (GeV)", true, func(h *hbook.H2D) *hbook.H1D {
			return hist.ProjectPt(h, cfg.Binning)
		})
	case "eff":
		plotEfficiency(cfg, v)
	case "map":
		s, err := pair.ParseStrategy(*strategy)
		if err != nil {
			log.Fatal(err)
		}
		if flag.NArg() != 1 {
			log.Fatal("the map plot takes one file")
		}
		plotMap(s, v, flag.Arg(0))
	default:
		log.Fatalf("unknown plot kind %q", *kind)
	}
}

func lineColor(i int) color.Color {
	switch i % 6 {
	case 1:
		return color.RGBA{G: 255, A: 255}
	case 2:
		return color.RGBA{B: 255, A: 255}
	case 3:
		return color.RGBA{R: 255, B: 127, G: 127, A: 255}
	case 4:
		return color.RGBA{R: 255, A: 255}
	case 5:
		return color.RGBA{R: 127, B: 255, A: 255}
	}
	return color.RGBA{A: 255}
}

func newPlot(xLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = *title
	p.X.Label.Text = xLabel
	p.X.Tick.Marker = phenix.PreciseTicks{NSuggestedTicks: 5}
	p.Y.Tick.Marker = phenix.PreciseTicks{NSuggestedTicks: 5}
	return p
}

// eachStrategy calls fn with the histogram of every strategy found in every
// file, numbering the curves in order.
func eachStrategy(v track.Variant, fn func(i int, label string, h *hbook.H2D, gen *hbook.H1D)) {
	i := 0
	for _, filename := range flag.Args() {
		out, err := hist.Open(filename)
		if err != nil {
			log.Fatal(err)
		}
		gen, err := out.TruePt()
		if err != nil {
			log.Fatal(err)
		}
		for s := pair.NoPID; s < pair.NStrategies; s++ {
			h, err := out.H2D(*cbin, s.HistName(v))
			if err != nil {
				continue
			}
			label := s.String()
			if flag.NArg() > 1 {
				label = filepath.Base(filename) + " " + label
			}
			fn(i, label, h, gen)
			i++
		}
		out.Close()
	}
	if i == 0 {
		log.Fatalf("no %s histograms in class %s", v, *cbin)
	}
}

func plotHists(v track.Variant, xLabel string, logY bool, project func(*hbook.H2D) *hbook.H1D) {
	p := newPlot(xLabel)
	if logY {
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
		p.Y.Scale = plot.LogScale{}
	}
	eachStrategy(v, func(i int, label string, h2 *hbook.H2D, _ *hbook.H1D) {
		h := hplot.NewH1D(project(h2), hplot.WithLogY(logY))
		h.FillColor = nil
		h.LineStyle.Color = lineColor(i)
		h.Infos.Style = hplot.HInfoNone
		p.Add(h)
		p.Legend.Add(label, h)
	})
	p.Legend.Top = true
	if err := p.Save(6*vg.Inch, 4*vg.Inch, *output); err != nil {
		log.Fatal(err)
	}
}

func plotEfficiency(cfg *config.Config, v track.Variant) {
	p := newPlot("p_T (GeV)")
	p.Y.Label.Text = "efficiency"
	eachStrategy(v, func(i int, label string, h *hbook.H2D, gen *hbook.H1D) {
		errPoints := hist.Efficiency(hist.ProjectPt(h, cfg.Binning), gen)
		xerr, err := plotter.NewXErrorBars(errPoints)
		if err != nil {
			log.Fatal(err)
		}
		yerr, err := plotter.NewYErrorBars(errPoints)
		if err != nil {
			log.Fatal(err)
		}
		points, err := plotter.NewScatter(errPoints.XYs)
		if err != nil {
			log.Fatal(err)
		}
		xerr.LineStyle.Color = lineColor(i)
		yerr.LineStyle.Color = lineColor(i)
		points.GlyphStyle.Color = lineColor(i)

		p.Add(xerr, yerr, points)
		p.Legend.Add(label, points)
	})
	p.Legend.Top = true
	if err := p.Save(6*vg.Inch, 4*vg.Inch, *output); err != nil {
		log.Fatal(err)
	}
}

// ratioGrid is the bin by bin ratio of two histograms with one binning.
type ratioGrid struct {
	num, den plotter.GridXYZ
}

func (g ratioGrid) Dims() (int, int) { return g.den.Dims() }
func (g ratioGrid) X(c int) float64  { return g.den.X(c) }
func (g ratioGrid) Y(r int) float64  { return g.den.Y(r) }

func (g ratioGrid) Z(c, r int) float64 {
	d := g.den.Z(c, r)
	if d <= 0 {
		return 0
	}
	return g.num.Z(c, r) / d
}

// plotMap draws the (pT, mass) map of a strategy relative to no-PID.
func plotMap(s pair.Strategy, v track.Variant, filename string) {
	out, err := hist.Open(filename)
	if err != nil {
		log.Fatal(err)
	}
	defer out.Close()
	num, err := out.H2D(*cbin, s.HistName(v))
	if err != nil {
		log.Fatal(err)
	}
	den, err := out.H2D(*cbin, pair.NoPID.HistName(v))
	if err != nil {
		log.Fatal(err)
	}

	p := newPlot("p_T (GeV)")
	p.Y.Label.Text = "Mass (GeV)"

	img := vgimg.New(670, 400)
	dc := draw.New(img)
	dc0 := draw.Crop(dc, 0, -70, 0, 0)
	dc1 := draw.Crop(dc, 620, 0, 0, 0)

	colorMap := moreland.ExtendedBlackBody()
	colorMap.SetMin(0)
	colorMap.SetMax(*mapMax)
	heatMap := plotter.NewHeatMap(ratioGrid{num: num.GridXYZ(), den: den.GridXYZ()}, colorMap.Palette(1000))
	heatMap.Min = 0
	heatMap.Max = *mapMax
	p.Add(heatMap)
	p.Draw(dc0)

	p = plot.New()
	colorBar := &plotter.ColorBar{ColorMap: colorMap}
	colorBar.Vertical = true
	p.Add(colorBar)
	p.HideX()
	p.Y.Padding = 0
	p.Draw(dc1)

	w, err := os.Create(*output)
	if err != nil {
		log.Fatal(err)
	}
	defer w.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err = png.WriteTo(w); err != nil {
		log.Fatal(err)
	}
}
