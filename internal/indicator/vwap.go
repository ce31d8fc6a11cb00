package indicator

import (
	"time"

	"Spread_Hedger/internal/model"
)

// PriceSource picks the price of a bar that is weighted by its volume.
type PriceSource func(model.Candle) float64

func ClosePrice(c model.Candle) float64 { return c.Close }

func TypicalPrice(c model.Candle) float64 { return c.TypicalPrice() }

// VWAP is the session volume weighted average price; it resets when the
// calendar day of the bar changes.
type VWAP struct {
	src   PriceSource
	day   time.Time
	pv    float64
	vol   float64
	value float64
}

// NewVWAP weights each bar's close.
func NewVWAP() *VWAP {
	return NewVWAPOf(ClosePrice)
}

func NewVWAPOf(src PriceSource) *VWAP {
	if src == nil {
		src = ClosePrice
	}
	return &VWAP{src: src}
}

func (v *VWAP) Update(c model.Candle) float64 {
	y, m, d := c.Time.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, c.Time.Location())
	if !day.Equal(v.day) {
		v.day, v.pv, v.vol = day, 0, 0
	}
	v.pv += v.src(c) * c.Volume
	v.vol += c.Volume
	if v.vol == 0 {
		v.value = c.Close
	} else {
		v.value = v.pv / v.vol
	}
	return v.value
}
