package indicator

import (
	"math"

	"Spread_Hedger/internal/model"
)

// TrueRange of c given the previous close. The first bar uses high-low.
func TrueRange(c model.Candle, prevClose float64, hasPrev bool) float64 {
	tr := c.High - c.Low
	if !hasPrev {
		return tr
	}
	return math.Max(tr, math.Max(math.Abs(c.High-prevClose), math.Abs(c.Low-prevClose)))
}

// Choppiness is the choppiness index: high values mean a ranging market,
// low values a trending one.
type Choppiness struct {
	period    int
	trs       []float64
	highs     []float64
	lows      []float64
	prevClose float64
	hasPrev   bool
}

func NewChoppiness(period int) *Choppiness {
	return &Choppiness{period: period}
}

// Update returns false until period bars have been seen.
func (c *Choppiness) Update(bar model.Candle) (bool, float64) {
	c.trs = push(c.trs, TrueRange(bar, c.prevClose, c.hasPrev), c.period)
	c.highs = push(c.highs, bar.High, c.period)
	c.lows = push(c.lows, bar.Low, c.period)
	c.prevClose, c.hasPrev = bar.Close, true

	if len(c.trs) < c.period {
		return false, 0
	}

	var sumTR float64
	hh, ll := c.highs[0], c.lows[0]
	for i := range c.trs {
		sumTR += c.trs[i]
		hh = math.Max(hh, c.highs[i])
		ll = math.Min(ll, c.lows[i])
	}

	rng := hh - ll
	if rng == 0 {
		return true, 50
	}
	x := sumTR / rng
	if x <= 0 {
		return true, 0
	}
	return true, 100 * math.Log10(x) / math.Log10(float64(c.period))
}

func push(window []float64, v float64, size int) []float64 {
	window = append(window, v)
	if len(window) > size {
		window = window[1:]
	}
	return window
}
