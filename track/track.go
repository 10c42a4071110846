// Package track classifies reconstructed central arm tracks: which outer
// detectors registered the track, whether their m2 identifies the expected
// daughter, and with which probability each of this happens in every
// centrality class.
package track

import "math"

// Arms of the central spectrometer as seen from the DC azimuth.
const (
	East = 0
	West = 1
)

// ArmBoundary splits the DC azimuth between the west (below) and the east arm.
const ArmBoundary = 1.5

// Track holds the reconstructed quantities of one charged track.
type Track struct {
	Charge  int
	Mom     float64 // momentum magnitude at the vertex (GeV)
	The0    float64 // polar angle at the vertex
	Phi0    float64 // azimuth at the vertex
	Phi     float64 // azimuth at the DC reference radius
	Alpha   float64
	Zed     float64
	Board   float64
	Quality int

	// ParticleID is the Monte-Carlo species of the track.
	ParticleID int

	PC2   Match
	PC3   Match
	TOFe  Timing
	TOFw  Timing
	EMCal Cluster
}

// Match is the projection of a track onto a pad chamber.
type Match struct {
	Hit   bool
	SDPhi float64 // normalized azimuthal residual
	SDZ   float64 // normalized longitudinal residual
	Z, Y  float64 // hit position
}

func (m Match) Within(nsigma float64) bool {
	return m.Hit && math.Abs(m.SDPhi) < nsigma && math.Abs(m.SDZ) < nsigma
}

// Timing is a TOF hit: slat (TOFe) or strip (TOFw) with its flight time.
type Timing struct {
	Match
	Channel int
	Time    float64 // ns
	PathLen float64 // cm
}

// Cluster is an EMCal cluster matched to the track.
type Cluster struct {
	Match
	Arm, Sector    int
	YTower, ZTower int
	Time           float64 // ns
	PathLen        float64 // cm
	Ecore          float64 // GeV
}

// Arm returns East or West from the DC azimuth.
func (t *Track) Arm() int {
	if t.Phi < ArmBoundary {
		return West
	}
	return East
}

// Pt is the transverse momentum at the vertex.
func (t *Track) Pt() float64 { return t.Mom * math.Sin(t.The0) }
