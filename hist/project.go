package hist

import (
	"math"

	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"

	"github.com/Sergeyir/PairAnalysisPhenix-sub002/config"
)

// ProjectMass sums the mass distributions of the pT bins whose centers lie
// in [ptLo, ptHi).
func ProjectMass(h *hbook.H2D, b config.Binning, ptLo, ptHi float64) *hbook.H1D {
	out := hbook.NewH1D(b.MassBins, b.MassMin, b.MassMax)
	g := h.GridXYZ()
	nx, ny := g.Dims()
	for i := 0; i < nx; i++ {
		if pt := g.X(i); pt < ptLo || pt >= ptHi {
			continue
		}
		for j := 0; j < ny; j++ {
			if w := g.Z(i, j); w != 0 {
				out.Fill(g.Y(j), w)
			}
		}
	}
	return out
}

// ProjectPt sums h over the mass axis.
func ProjectPt(h *hbook.H2D, b config.Binning) *hbook.H1D {
	out := hbook.NewH1D(b.PtBins, b.PtMin, b.PtMax)
	g := h.GridXYZ()
	nx, ny := g.Dims()
	for i := 0; i < nx; i++ {
		var sum float64
		for j := 0; j < ny; j++ {
			sum += g.Z(i, j)
		}
		if sum != 0 {
			out.Fill(g.X(i), sum)
		}
	}
	return out
}

// Efficiency divides reco by gen bin by bin. Both must share one binning.
// Bins without generated yield are left at zero.
func Efficiency(reco, gen *hbook.H1D) plotutil.ErrorPoints {
	n := gen.Len()
	points := make(plotter.XYs, n)
	xErrors := make(plotter.XErrors, n)
	yErrors := make(plotter.YErrors, n)
	binHalfWidth := (gen.XMax() - gen.XMin()) / float64(2*n)
	binSigma := binHalfWidth / math.Sqrt(3.)
	for i := range points {
		trueX, trueY := gen.XY(i)
		points[i].X = trueX + binHalfWidth
		xErrors[i].Low = binSigma
		xErrors[i].High = binSigma

		_, recoY := reco.XY(i)
		if trueY > 0 {
			eff := recoY / trueY
			points[i].Y = eff
			yErrors[i].Low = math.Sqrt(math.Max(0, 1-eff) * recoY / (trueY * trueY))
			yErrors[i].High = yErrors[i].Low
		}
	}
	return plotutil.ErrorPoints{XYs: points, XErrors: xErrors, YErrors: yErrors}
}
