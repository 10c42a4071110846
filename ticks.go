package phenix

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

// PreciseTicks labels round multiples of a power of ten, about
// NSuggestedTicks of them over the axis, and adds unlabeled minor ticks
// in between. Tick values are computed from integers so labels carry no
// rounding noise.
type PreciseTicks struct {
	NSuggestedTicks int
}

func (t PreciseTicks) Ticks(min, max float64) []plot.Tick {
	n := t.NSuggestedTicks
	if n < 2 {
		n = 4
	}
	if !(max > min) {
		panic("phenix: illegal tick range")
	}

	mult, exp := majorStep(max-min, n)
	// Ticks sit on multiples of half a power of ten: value(i) = i * 10^exp / 2.
	value := func(i int64) float64 {
		if exp < 0 {
			return float64(i) / (2 * math.Pow10(-exp))
		}
		return float64(i) * math.Pow10(exp) / 2
	}
	scale := 2 / math.Pow10(exp)
	if exp < 0 {
		scale = 2 * math.Pow10(-exp)
	}
	majorUnits := int64(2 * mult)
	minorUnits := majorUnits / int64(minorDivisions(mult))

	var ticks []plot.Tick
	lo := int64(math.Ceil(min*scale - 1e-9))
	hi := int64(math.Floor(max*scale + 1e-9))
	for i := lo; i <= hi; i++ {
		switch {
		case i%majorUnits == 0:
			v := value(i)
			ticks = append(ticks, plot.Tick{Value: v, Label: strconv.FormatFloat(v, 'g', -1, 64)})
		case i%minorUnits == 0:
			ticks = append(ticks, plot.Tick{Value: value(i)})
		}
	}
	return ticks
}

// majorStep returns the major tick spacing as mult * 10^exp.
func majorStep(span float64, n int) (mult, exp int) {
	exp = int(math.Floor(math.Log10(span)))
	for span/math.Pow10(exp) < float64(n-1) {
		exp--
	}
	mult = int(span / math.Pow10(exp) / float64(n-1))
	switch mult {
	case 0:
		mult = 1
	case 7:
		mult = 6
	case 9:
		mult = 8
	}
	return mult, exp
}

func minorDivisions(mult int) int {
	switch mult {
	case 3, 6:
		return 3
	case 5:
		return 5
	}
	return 2
}
