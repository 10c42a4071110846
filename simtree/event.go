package simtree

import (
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/track"
)

// Event is one simulated decay with its reconstructed tracks.
type Event struct {
	TruePt float64 // generated resonance pT
	TrueID int     // generated resonance PDG id
	BBCz   float64 // vertex position (cm)
	Tracks []track.Track
}

// missing marks a matching residual of a detector without a hit.
const missing = -9999

// columns is the flat layout of an event in the tree. Per-track branches are
// counted by nch.
type columns struct {
	nch    int32
	bbcz   float32
	origPt float32
	origID int32

	charge, quality, particleID []int32
	mom, the0, phi0, phi        []float32
	alpha, zed, board           []float32

	pc2SDPhi, pc2SDZ, pc2Z, pc2Y []float32
	pc3SDPhi, pc3SDZ, pc3Z, pc3Y []float32

	tofeSDPhi, tofeSDZ, tofeT, tofeL []float32
	tofeSlat                         []int32
	tofwSDPhi, tofwSDZ, tofwT, tofwL []float32
	tofwStrip                        []int32

	emcSDPhi, emcSDZ, emcT, emcL, emcEcore []float32
	emcArm, emcSect, emcY, emcZ           []int32
}

type column struct {
	name  string
	value any
	count bool
}

func (c *columns) layout() []column {
	return []column{
		{"nch", &c.nch, false},
		{"bbcz", &c.bbcz, false},
		{"orig_pt", &c.origPt, false},
		{"orig_id", &c.origID, false},

		{"charge", &c.charge, true},
		{"dcqual", &c.quality, true},
		{"particle_id", &c.particleID, true},
		{"mom", &c.mom, true},
		{"the0", &c.the0, true},
		{"phi0", &c.phi0, true},
		{"phi", &c.phi, true},
		{"alpha", &c.alpha, true},
		{"zed", &c.zed, true},
		{"board", &c.board, true},

		{"pc2sdphi", &c.pc2SDPhi, true},
		{"pc2sdz", &c.pc2SDZ, true},
		{"ppc2z", &c.pc2Z, true},
		{"ppc2y", &c.pc2Y, true},
		{"pc3sdphi", &c.pc3SDPhi, true},
		{"pc3sdz", &c.pc3SDZ, true},
		{"ppc3z", &c.pc3Z, true},
		{"ppc3y", &c.pc3Y, true},

		{"tofsdphi", &c.tofeSDPhi, true},
		{"tofsdz", &c.tofeSDZ, true},
		{"ttof", &c.tofeT, true},
		{"pltof", &c.tofeL, true},
		{"slat", &c.tofeSlat, true},
		{"tofwsdphi", &c.tofwSDPhi, true},
		{"tofwsdz", &c.tofwSDZ, true},
		{"ttofw", &c.tofwT, true},
		{"pltofw", &c.tofwL, true},
		{"striptofw", &c.tofwStrip, true},

		{"emcsdphi", &c.emcSDPhi, true},
		{"emcsdz", &c.emcSDZ, true},
		{"temc", &c.emcT, true},
		{"plemc", &c.emcL, true},
		{"ecore", &c.emcEcore, true},
		{"arm", &c.emcArm, true},
		{"sect", &c.emcSect, true},
		{"ysect", &c.emcY, true},
		{"zsect", &c.emcZ, true},
	}
}

func match(sdphi, sdz float32) track.Match {
	if sdphi <= missing || sdz <= missing {
		return track.Match{}
	}
	return track.Match{Hit: true, SDPhi: float64(sdphi), SDZ: float64(sdz)}
}

func (c *columns) decode(ev *Event) {
	ev.TruePt = float64(c.origPt)
	ev.TrueID = int(c.origID)
	ev.BBCz = float64(c.bbcz)

	n := int(c.nch)
	if cap(ev.Tracks) < n {
		ev.Tracks = make([]track.Track, n)
	}
	ev.Tracks = ev.Tracks[:n]
	for i := range ev.Tracks {
		ev.Tracks[i] = track.Track{
			Charge:     int(c.charge[i]),
			Mom:        float64(c.mom[i]),
			The0:       float64(c.the0[i]),
			Phi0:       float64(c.phi0[i]),
			Phi:        float64(c.phi[i]),
			Alpha:      float64(c.alpha[i]),
			Zed:        float64(c.zed[i]),
			Board:      float64(c.board[i]),
			Quality:    int(c.quality[i]),
			ParticleID: int(c.particleID[i]),
			PC2:        match(c.pc2SDPhi[i], c.pc2SDZ[i]),
			PC3:        match(c.pc3SDPhi[i], c.pc3SDZ[i]),
			TOFe: track.Timing{
				Match:   match(c.tofeSDPhi[i], c.tofeSDZ[i]),
				Channel: int(c.tofeSlat[i]),
				Time:    float64(c.tofeT[i]),
				PathLen: float64(c.tofeL[i]),
			},
			TOFw: track.Timing{
				Match:   match(c.tofwSDPhi[i], c.tofwSDZ[i]),
				Channel: int(c.tofwStrip[i]),
				Time:    float64(c.tofwT[i]),
				PathLen: float64(c.tofwL[i]),
			},
			EMCal: track.Cluster{
				Match:   match(c.emcSDPhi[i], c.emcSDZ[i]),
				Arm:     int(c.emcArm[i]),
				Sector:  int(c.emcSect[i]),
				YTower:  int(c.emcY[i]),
				ZTower:  int(c.emcZ[i]),
				Time:    float64(c.emcT[i]),
				PathLen: float64(c.emcL[i]),
				Ecore:   float64(c.emcEcore[i]),
			},
		}
		ev.Tracks[i].PC2.Z = float64(c.pc2Z[i])
		ev.Tracks[i].PC2.Y = float64(c.pc2Y[i])
		ev.Tracks[i].PC3.Z = float64(c.pc3Z[i])
		ev.Tracks[i].PC3.Y = float64(c.pc3Y[i])
	}
}

func (c *columns) encode(ev *Event) {
	n := len(ev.Tracks)
	c.nch = int32(n)
	c.bbcz = float32(ev.BBCz)
	c.origPt = float32(ev.TruePt)
	c.origID = int32(ev.TrueID)

	c.charge, c.quality, c.particleID = c.charge[:0], c.quality[:0], c.particleID[:0]
	c.mom, c.the0, c.phi0, c.phi = c.mom[:0], c.the0[:0], c.phi0[:0], c.phi[:0]
	c.alpha, c.zed, c.board = c.alpha[:0], c.zed[:0], c.board[:0]
	c.pc2SDPhi, c.pc2SDZ, c.pc2Z, c.pc2Y = c.pc2SDPhi[:0], c.pc2SDZ[:0], c.pc2Z[:0], c.pc2Y[:0]
	c.pc3SDPhi, c.pc3SDZ, c.pc3Z, c.pc3Y = c.pc3SDPhi[:0], c.pc3SDZ[:0], c.pc3Z[:0], c.pc3Y[:0]
	c.tofeSDPhi, c.tofeSDZ, c.tofeT, c.tofeL, c.tofeSlat = c.tofeSDPhi[:0], c.tofeSDZ[:0], c.tofeT[:0], c.tofeL[:0], c.tofeSlat[:0]
	c.tofwSDPhi, c.tofwSDZ, c.tofwT, c.tofwL, c.tofwStrip = c.tofwSDPhi[:0], c.tofwSDZ[:0], c.tofwT[:0], c.tofwL[:0], c.tofwStrip[:0]
	c.emcSDPhi, c.emcSDZ, c.emcT, c.emcL, c.emcEcore = c.emcSDPhi[:0], c.emcSDZ[:0], c.emcT[:0], c.emcL[:0], c.emcEcore[:0]
	c.emcArm, c.emcSect, c.emcY, c.emcZ = c.emcArm[:0], c.emcSect[:0], c.emcY[:0], c.emcZ[:0]

	for i := range ev.Tracks {
		t := &ev.Tracks[i]
		c.charge = append(c.charge, int32(t.Charge))
		c.quality = append(c.quality, int32(t.Quality))
		c.particleID = append(c.particleID, int32(t.ParticleID))
		c.mom = append(c.mom, float32(t.Mom))
		c.the0 = append(c.the0, float32(t.The0))
		c.phi0 = append(c.phi0, float32(t.Phi0))
		c.phi = append(c.phi, float32(t.Phi))
		c.alpha = append(c.alpha, float32(t.Alpha))
		c.zed = append(c.zed, float32(t.Zed))
		c.board = append(c.board, float32(t.Board))

		sdphi, sdz := residuals(t.PC2)
		c.pc2SDPhi = append(c.pc2SDPhi, sdphi)
		c.pc2SDZ = append(c.pc2SDZ, sdz)
		c.pc2Z = append(c.pc2Z, float32(t.PC2.Z))
		c.pc2Y = append(c.pc2Y, float32(t.PC2.Y))

		sdphi, sdz = residuals(t.PC3)
		c.pc3SDPhi = append(c.pc3SDPhi, sdphi)
		c.pc3SDZ = append(c.pc3SDZ, sdz)
		c.pc3Z = append(c.pc3Z, float32(t.PC3.Z))
		c.pc3Y = append(c.pc3Y, float32(t.PC3.Y))

		sdphi, sdz = residuals(t.TOFe.Match)
		c.tofeSDPhi = append(c.tofeSDPhi, sdphi)
		c.tofeSDZ = append(c.tofeSDZ, sdz)
		c.tofeT = append(c.tofeT, float32(t.TOFe.Time))
		c.tofeL = append(c.tofeL, float32(t.TOFe.PathLen))
		c.tofeSlat = append(c.tofeSlat, int32(t.TOFe.Channel))

		sdphi, sdz = residuals(t.TOFw.Match)
		c.tofwSDPhi = append(c.tofwSDPhi, sdphi)
		c.tofwSDZ = append(c.tofwSDZ, sdz)
		c.tofwT = append(c.tofwT, float32(t.TOFw.Time))
		c.tofwL = append(c.tofwL, float32(t.TOFw.PathLen))
		c.tofwStrip = append(c.tofwStrip, int32(t.TOFw.Channel))

		sdphi, sdz = residuals(t.EMCal.Match)
		c.emcSDPhi = append(c.emcSDPhi, sdphi)
		c.emcSDZ = append(c.emcSDZ, sdz)
		c.emcT = append(c.emcT, float32(t.EMCal.Time))
		c.emcL = append(c.emcL, float32(t.EMCal.PathLen))
		c.emcEcore = append(c.emcEcore, float32(t.EMCal.Ecore))
		c.emcArm = append(c.emcArm, int32(t.EMCal.Arm))
		c.emcSect = append(c.emcSect, int32(t.EMCal.Sector))
		c.emcY = append(c.emcY, int32(t.EMCal.YTower))
		c.emcZ = append(c.emcZ, int32(t.EMCal.ZTower))
	}
}

func residuals(m track.Match) (sdphi, sdz float32) {
	if !m.Hit {
		return missing, missing
	}
	return float32(m.SDPhi), float32(m.SDZ)
}
