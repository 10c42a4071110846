package track

import (
	"fmt"
	"math"
	"slices"

	"github.com/Sergeyir/PairAnalysisPhenix-sub002/config"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/deadarea"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/embed"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/pid"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/species"
)

// Classifier turns tracks of one expected daughter species into candidates.
// It is read-only after construction and safe for concurrent use.
type Classifier struct {
	expected species.Species
	nbins    int
	cuts     config.Cuts
	ptScale  float64
	oracle   deadarea.Oracle
	sys      *embed.Systematics

	tofe, tofw, emcal pid.Identifier
	calib             pid.EMCalCalib

	// DC-PC1 efficiency per centrality bin.
	e []float64

	// Detector efficiency over DC-PC1 per sector and bin, clamped to [0,1].
	ratio  [embed.NDetectors][embed.NSectors][]float64
	accVar [embed.NDetectors]float64
}

// NewClassifier prepares the per centrality class registration ratios of the
// expected species. A table that does not cover every centrality class, or a
// vanishing DC-PC1 efficiency, is a configuration error.
func NewClassifier(cfg *config.Config, expected species.Species, emb *embed.Embedding, sys *embed.Systematics, oracle deadarea.Oracle, ptDeviation float64) (*Classifier, error) {
	nbins := cfg.NCentrality()
	switch {
	case emb == nil || emb.Key != expected.Short:
		return nil, fmt.Errorf("%w: %s", embed.ErrMissingSpecies, expected.Short)
	case emb.NBins != nbins:
		return nil, fmt.Errorf("%w: %s table has %d centrality bins, want %d", embed.ErrShortRow, emb.Key, emb.NBins, nbins)
	case sys == nil:
		return nil, fmt.Errorf("%w: no systematics for %s", embed.ErrMissingFile, expected.Short)
	}
	if oracle == nil {
		oracle = deadarea.None{}
	}

	c := &Classifier{
		expected: expected,
		nbins:    nbins,
		cuts:     cfg.Cuts,
		ptScale:  1 + ptDeviation,
		oracle:   oracle,
		sys:      sys,
		tofe:     pid.Identifier{Res: cfg.M2.TOFe, NSigma: cfg.Cuts.M2Sigma},
		tofw:     pid.Identifier{Res: cfg.M2.TOFw, NSigma: cfg.Cuts.M2Sigma},
		emcal:    pid.Identifier{Res: cfg.M2.EMCal, NSigma: cfg.Cuts.M2Sigma},
		calib:    pid.EMCalCalib{Params: cfg.EMCalID, Legacy: cfg.EMCalIDLegacyFallthrough},
		e:        make([]float64, nbins),
	}

	for b := 0; b < nbins; b++ {
		e := emb.Weight(embed.DCPC1, 0, b)
		if !(e > 0) {
			return nil, fmt.Errorf("%w: %s dc_pc1 efficiency is %v in centrality bin %s", embed.ErrShortRow, emb.Key, e, cfg.Centrality[b])
		}
		c.e[b] = e
	}
	for det := embed.PC2; det < embed.NDetectors; det++ {
		for s := 0; s < det.Rows(); s++ {
			r := make([]float64, nbins)
			for b := range r {
				r[b] = clamp(emb.Weight(det, s, b) / c.e[b])
			}
			c.ratio[det][s] = r
		}
		c.accVar[det] = sys.AccVar(det)
	}
	return c, nil
}

// Expected returns the daughter species the classifier identifies.
func (c *Classifier) Expected() species.Species { return c.expected }

// Accept applies the baseline DC-PC1 quality, acceptance and dead area cuts.
func (c *Classifier) Accept(t *Track) bool {
	if t.Charge != c.expected.Charge {
		return false
	}
	if c.cuts.RequireTruthMatch && t.ParticleID != c.expected.ID {
		return false
	}
	if !slices.Contains(c.cuts.DCQuality, t.Quality) {
		return false
	}
	if math.Abs(t.Zed) >= c.cuts.MaxZed {
		return false
	}
	pt := t.Pt() * c.ptScale
	if pt < c.cuts.MinPt || pt > c.cuts.MaxPt {
		return false
	}
	return !c.oracle.DCPC1(t.Arm(), t.Board, t.Alpha)
}

// Labels evaluates the outer detectors of an accepted track. It also returns
// the TOF detector that registered the track (TOFe, TOFw, or DCPC1 if none).
func (c *Classifier) Labels(t *Track) (Labels, embed.Detector) {
	l := Labels{TOF: pid.Junk, EMC: pid.Junk, PC2: pid.Junk, PC3: pid.Junk}
	p := t.Mom * c.ptScale
	nsig := c.cuts.MatchSigma
	arm := t.Arm()

	if arm == West && t.PC2.Within(nsig) && !c.oracle.PC2(t.PC2.Z, t.PC2.Y) {
		l.PC2 = pid.NoPID
	}
	if t.PC3.Within(nsig) && !c.oracle.PC3(arm, t.PC3.Z, t.PC3.Y) {
		l.PC3 = pid.NoPID
	}

	tofDet := embed.DCPC1
	switch {
	case arm == East && t.TOFe.Within(nsig) && !c.oracle.TOFe(t.TOFe.Channel):
		m2 := pid.M2(p, t.TOFe.Time, t.TOFe.PathLen)
		l.TOF = c.tofe.Identify(p, m2, t.TOFe.PathLen, c.expected)
		tofDet = embed.TOFe
	case arm == West && t.TOFw.Within(nsig) && !c.oracle.TOFw(t.TOFw.Channel):
		m2 := pid.M2(p, t.TOFw.Time, t.TOFw.PathLen)
		l.TOF = c.tofw.Identify(p, m2, t.TOFw.PathLen, c.expected)
		tofDet = embed.TOFw
	}

	em := &t.EMCal
	if em.Within(nsig) && em.Ecore > c.cuts.MinEcore &&
		(em.Arm == East || em.Arm == West) &&
		em.Sector >= 0 && em.Sector < embed.NSectors &&
		!c.oracle.EMCal(em.Arm, em.Sector, em.YTower, em.ZTower) {
		m2 := pid.M2(p, em.Time, em.PathLen)
		l.EMC = c.emcal.Identify(p, m2, em.PathLen, c.expected)
	}
	return l, tofDet
}

// Classify appends the candidate of track t to set. It returns false, leaving
// set untouched, when the track fails the baseline cuts or no outer detector
// registered it.
func (c *Classifier) Classify(t *Track, index int, set *Set) bool {
	if !c.Accept(t) {
		return false
	}
	labels, tofDet := c.Labels(t)
	if labels.AllJunk() {
		return false
	}

	cand := set.slot(c.nbins)
	cand.Index = index
	cand.Charge = t.Charge
	cand.Expected = c.expected.ID
	cand.Mass = c.expected.Mass
	cand.Labels = labels

	p := t.Mom * c.ptScale
	pt := p * math.Sin(t.The0)
	cand.Px = pt * math.Cos(t.Phi0)
	cand.Py = pt * math.Sin(t.Phi0)
	cand.Pz = p * math.Cos(t.The0)
	cand.Phi = t.Phi
	cand.Alpha = t.Alpha
	cand.Zed = t.Zed

	c.weights(cand, t, p, tofDet)
	set.commit()
	return true
}

func (c *Classifier) weights(cand *Candidate, t *Track, p float64, tofDet embed.Detector) {
	l := cand.Labels
	emcDet := embed.EMCalArm(t.EMCal.Arm)
	sector := t.EMCal.Sector

	var emcID, m2Var float64
	if l.EMC == c.expected.ID {
		emcID = c.calib.Factor(p, c.expected.AbsID)
		m2Var = c.sys.M2EffVar(t.Charge, t.EMCal.Arm, sector)
	}

	for b := 0; b < c.nbins; b++ {
		w := Weights{E: c.e[b]}
		if l.TOF != pid.Junk {
			w.TOF = c.ratio[tofDet][0][b]
			if l.TOF == c.expected.ID {
				w.TOFID = w.TOF
			}
		}
		if l.EMC != pid.Junk {
			w.EMC = c.ratio[emcDet][sector][b]
			w.EMCID = w.EMC * emcID
		}
		if l.PC2 != pid.Junk {
			w.PC2 = c.ratio[embed.PC2][0][b]
		}
		if l.PC3 != pid.Junk {
			w.PC3 = c.ratio[embed.PC3][0][b]
		}

		cand.W[Nominal][b] = w
		cand.W[AccUp][b] = c.shiftAcc(w, tofDet, emcDet, +1)
		cand.W[AccDown][b] = c.shiftAcc(w, tofDet, emcDet, -1)

		up, down := w, w
		up.EMCID = math.Min(w.EMC, w.EMCID*(1+m2Var))
		down.EMCID = scale(w.EMCID, 1-m2Var)
		cand.W[PIDUp][b] = up
		cand.W[PIDDown][b] = down
	}
}

// shiftAcc scales registration and identification weights by (1 +/- acc_var)
// of their detector.
func (c *Classifier) shiftAcc(w Weights, tofDet, emcDet embed.Detector, sign float64) Weights {
	f := func(det embed.Detector) float64 { return 1 + sign*c.accVar[det] }
	w.TOF = scale(w.TOF, f(tofDet))
	w.TOFID = scale(w.TOFID, f(tofDet))
	w.EMC = scale(w.EMC, f(emcDet))
	w.EMCID = scale(w.EMCID, f(emcDet))
	w.PC2 = scale(w.PC2, f(embed.PC2))
	w.PC3 = scale(w.PC3, f(embed.PC3))
	return w
}

func scale(w, f float64) float64 { return clamp(w * f) }

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
