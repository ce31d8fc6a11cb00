package indicator

import "Spread_Hedger/internal/model"

// Params selects the periods of the confluence indicators.
type Params struct {
	EMA        int
	RSI        int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	RSIKind    RSIKind
}

// Point is the indicator state after one bar.
type Point struct {
	Candle model.Candle
	EMA    float64
	RSI    float64
	MACD   MACDValue
}

// Series runs the confluence indicators over candles and returns one Point
// per bar.
func Series(candles []model.Candle, p Params) []Point {
	ema := NewEMA(p.EMA)
	rsi := newRSIOf(p.RSIKind, p.RSI)
	macd := NewMACD(p.MACDFast, p.MACDSlow, p.MACDSignal)

	out := make([]Point, len(candles))
	for i, c := range candles {
		out[i] = Point{
			Candle: c,
			EMA:    ema.Update(c.Close),
			RSI:    rsi.Update(c.Close),
			MACD:   macd.Update(c.Close),
		}
	}
	return out
}

// Last returns the final Point of Series, or false when candles is empty.
func Last(candles []model.Candle, p Params) (Point, bool) {
	if len(candles) == 0 {
		return Point{}, false
	}
	pts := Series(candles, p)
	return pts[len(pts)-1], true
}
