package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"Spread_Hedger/internal/indicator"
	"Spread_Hedger/internal/model"
)

func point(close, ema, rsi, macd, sig float64) indicator.Point {
	return indicator.Point{
		Candle: model.Candle{Close: close},
		EMA:    ema,
		RSI:    rsi,
		MACD:   indicator.MACDValue{Line: macd, Signal: sig},
	}
}

func TestConfluenceEvaluate(t *testing.T) {
	pullback := Confluence{Overbought: 55, Oversold: 45, Mode: Pullback}
	momentum := Confluence{Overbought: 55, Oversold: 45, Mode: Momentum}

	tests := []struct {
		name string
		c    Confluence
		p    indicator.Point
		want model.Direction
	}{
		{"pullback long", pullback, point(101, 100, 40, 1, 0), model.Long},
		{"pullback short", pullback, point(99, 100, 60, -1, 0), model.Short},
		{"pullback rejects strong rsi long", pullback, point(101, 100, 60, 1, 0), model.Flat},
		{"momentum long", momentum, point(101, 100, 60, 1, 0), model.Long},
		{"momentum short", momentum, point(99, 100, 40, -1, 0), model.Short},
		{"macd disagrees", pullback, point(101, 100, 40, -1, 0), model.Flat},
		{"close on the ema", pullback, point(100, 100, 40, 1, 0), model.Flat},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.c.Evaluate(tc.p).Direction)
		})
	}
}

func TestReadingExplain(t *testing.T) {
	c := Confluence{Overbought: 55, Oversold: 45}
	r := c.Evaluate(point(101, 100, 50, -1, 0))
	assert.Equal(t, model.Flat, r.Direction)
	assert.Equal(t, []string{
		"Trend: Bullish (Above EMA)",
		"RSI: Neutral (50.00)",
		"MACD: Bearish Cross",
	}, r.Explain(c))
}

func TestConfluenceLatest(t *testing.T) {
	c := Confluence{Params: indicator.Params{EMA: 3, RSI: 2, MACDFast: 2, MACDSlow: 3, MACDSignal: 2}, Overbought: 55, Oversold: 45}
	_, ok := c.Latest(nil)
	assert.False(t, ok)

	r, ok := c.Latest([]model.Candle{{Close: 1}, {Close: 2}, {Close: 3}})
	assert.True(t, ok)
	assert.Equal(t, 3.0, r.Close)
}

func TestClassifyBuildup(t *testing.T) {
	assert.Equal(t, LongBuildup, ClassifyBuildup(100, 101, 10, 11))
	assert.Equal(t, ShortBuildup, ClassifyBuildup(100, 99, 10, 11))
	assert.Equal(t, LongUnwind, ClassifyBuildup(100, 99, 10, 9))
	assert.Equal(t, ShortCovering, ClassifyBuildup(100, 101, 10, 9))
	assert.Equal(t, Neutral, ClassifyBuildup(100, 100, 10, 11))
}

func TestPCR(t *testing.T) {
	assert.Equal(t, 0.0, PCR(100, 0))
	assert.Equal(t, 1.5, PCR(150, 100))
}

func TestClassifyRegime(t *testing.T) {
	assert.Equal(t, RegimeTrend, ClassifyRegime(30))
	assert.Equal(t, RegimeRange, ClassifyRegime(60))
	assert.Equal(t, RegimeUnknown, ClassifyRegime(50))
}
