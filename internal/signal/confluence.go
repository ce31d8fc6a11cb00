package signal

import (
	"fmt"
	"strings"

	"Spread_Hedger/internal/indicator"
	"Spread_Hedger/internal/model"
)

// RSIMode selects which side of the RSI band confirms a trend entry.
type RSIMode int

const (
	// Pullback enters longs on a dip (RSI below oversold) inside an uptrend.
	Pullback RSIMode = iota
	// Momentum enters longs on strength (RSI above overbought).
	Momentum
)

// Confluence combines trend (EMA), momentum (MACD) and RSI into one signal.
type Confluence struct {
	Params     indicator.Params
	Overbought float64
	Oversold   float64
	Mode       RSIMode
}

// Reading is the indicator snapshot behind a signal.
type Reading struct {
	Direction model.Direction
	Close     float64
	EMA       float64
	RSI       float64
	MACD      float64
	Signal    float64
}

// Evaluate classifies one indicator point.
func (c Confluence) Evaluate(p indicator.Point) Reading {
	r := Reading{
		Close:  p.Candle.Close,
		EMA:    p.EMA,
		RSI:    p.RSI,
		MACD:   p.MACD.Line,
		Signal: p.MACD.Signal,
	}

	longRSI, shortRSI := r.RSI < c.Oversold, r.RSI > c.Overbought
	if c.Mode == Momentum {
		longRSI, shortRSI = r.RSI > c.Overbought, r.RSI < c.Oversold
	}

	switch {
	case r.Close > r.EMA && r.MACD > r.Signal && longRSI:
		r.Direction = model.Long
	case r.Close < r.EMA && r.MACD < r.Signal && shortRSI:
		r.Direction = model.Short
	}
	return r
}

// Latest evaluates the final bar of candles; ok is false without data.
func (c Confluence) Latest(candles []model.Candle) (Reading, bool) {
	p, ok := indicator.Last(candles, c.Params)
	if !ok {
		return Reading{}, false
	}
	return c.Evaluate(p), true
}

// Explain describes each leg of the confluence for a neutral reading.
func (r Reading) Explain(c Confluence) []string {
	var out []string
	if r.Close > r.EMA {
		out = append(out, "Trend: Bullish (Above EMA)")
	} else {
		out = append(out, "Trend: Bearish (Below EMA)")
	}

	switch {
	case r.RSI < c.Oversold:
		out = append(out, "RSI: Oversold (Good for Buy)")
	case r.RSI > c.Overbought:
		out = append(out, "RSI: Overbought (Good for Sell)")
	default:
		out = append(out, fmt.Sprintf("RSI: Neutral (%.2f)", r.RSI))
	}

	if r.MACD > r.Signal {
		out = append(out, "MACD: Bullish Cross")
	} else {
		out = append(out, "MACD: Bearish Cross")
	}
	return out
}

func (r Reading) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s close=%.2f ema=%.2f rsi=%.2f macd=%.2f/%.2f",
		r.Direction, r.Close, r.EMA, r.RSI, r.MACD, r.Signal)
	return b.String()
}
