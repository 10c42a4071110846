// Package deadarea answers whether a track hit falls into a dead or badly
// calibrated region of a central arm detector.
package deadarea

import "github.com/Sergeyir/PairAnalysisPhenix-sub002/config"

// Oracle reports true when the hit must be discarded.
type Oracle interface {
	DCPC1(arm int, board, alpha float64) bool
	PC2(z, y float64) bool
	PC3(arm int, z, y float64) bool
	TOFe(slat int) bool
	TOFw(strip int) bool
	EMCal(arm, sector, ytower, ztower int) bool
}

// None is an oracle with no dead areas.
type None struct{}

func (None) DCPC1(int, float64, float64) bool { return false }
func (None) PC2(float64, float64) bool        { return false }
func (None) PC3(int, float64, float64) bool   { return false }
func (None) TOFe(int) bool                    { return false }
func (None) TOFw(int) bool                    { return false }
func (None) EMCal(int, int, int, int) bool    { return false }

// Map is an oracle built from the rectangles and bad channel lists of a
// configuration. The PC2 sits in the west arm only.
type Map struct {
	dcpc1 []config.Rect
	pc2   []config.Rect
	pc3   []config.Rect
	slats map[int]bool
	strip map[int]bool
	tower map[config.Tower]bool
}

func NewMap(d config.DeadAreas) *Map {
	m := &Map{
		dcpc1: d.DCPC1,
		pc2:   d.PC2,
		pc3:   d.PC3,
		slats: make(map[int]bool, len(d.TOFeSlats)),
		strip: make(map[int]bool, len(d.TOFwStrips)),
		tower: make(map[config.Tower]bool, len(d.EMCal)),
	}
	for _, s := range d.TOFeSlats {
		m.slats[s] = true
	}
	for _, s := range d.TOFwStrips {
		m.strip[s] = true
	}
	for _, t := range d.EMCal {
		m.tower[t] = true
	}
	return m
}

func (m *Map) DCPC1(arm int, board, alpha float64) bool { return inside(m.dcpc1, arm, board, alpha) }
func (m *Map) PC2(z, y float64) bool                    { return inside(m.pc2, 1, z, y) }
func (m *Map) PC3(arm int, z, y float64) bool           { return inside(m.pc3, arm, z, y) }
func (m *Map) TOFe(slat int) bool                       { return m.slats[slat] }
func (m *Map) TOFw(strip int) bool                      { return m.strip[strip] }

func (m *Map) EMCal(arm, sector, ytower, ztower int) bool {
	return m.tower[config.Tower{Arm: arm, Sector: sector, Y: ytower, Z: ztower}]
}

func inside(rects []config.Rect, arm int, x, y float64) bool {
	for _, r := range rects {
		if r.Arm >= 0 && r.Arm != arm {
			continue
		}
		if x >= r.X0 && x < r.X1 && y >= r.Y0 && y < r.Y1 {
			return true
		}
	}
	return false
}

var (
	_ Oracle = None{}
	_ Oracle = (*Map)(nil)
)
