package backtest

import (
	"Spread_Hedger/internal/config"
	"Spread_Hedger/internal/indicator"
	"Spread_Hedger/internal/model"
	sig "Spread_Hedger/internal/signal"
)

func defaultSessions() config.Sessions {
	return config.Sessions{
		{Start: 9*60 + 15, End: 11 * 60},
		{Start: 13 * 60, End: 15 * 60},
	}
}

// RSIScalpConfig buys deep oversold readings of a fast RSI.
type RSIScalpConfig struct {
	Period int
	Buy    float64 // enter long below
	Exit   float64 // close above
	Warmup int
}

func DefaultRSIScalpConfig() RSIScalpConfig {
	return RSIScalpConfig{Period: 5, Buy: 20, Exit: 80, Warmup: 5}
}

// RunRSIScalp is long only and trades around the clock.
func RunRSIScalp(candles []model.Candle, cfg RSIScalpConfig) Result {
	rsi := rsiSeries(candles, cfg.Period)
	return simulate("rsi_scalp", "R", candles, cfg.Warmup, model.ExitSignal, func(i int, pos model.Direction) model.Direction {
		switch {
		case pos == model.Flat && rsi[i] < cfg.Buy:
			return model.Long
		case pos == model.Long && rsi[i] > cfg.Exit:
			return model.Flat
		}
		return pos
	})
}

// BBReversionConfig fades closes outside the Bollinger bands in the
// direction of the slow EMA.
type BBReversionConfig struct {
	BBPeriod   int
	BBDev      float64
	RSI        int
	EMA        int
	Oversold   float64
	Overbought float64
	Sessions   config.Sessions // entries only
	Warmup     int
}

func DefaultBBReversionConfig() BBReversionConfig {
	return BBReversionConfig{
		BBPeriod:   20,
		BBDev:      2,
		RSI:        14,
		EMA:        200,
		Oversold:   30,
		Overbought: 70,
		Sessions:   defaultSessions(),
		Warmup:     200,
	}
}

// RunBBReversion buys below the lower band with an oversold RSI while above
// the EMA, sells the mirror image, and exits at the middle band.
func RunBBReversion(candles []model.Candle, cfg BBReversionConfig) (Result, error) {
	bands, err := bandSeries(candles, cfg.BBPeriod, cfg.BBDev)
	if err != nil {
		return Result{}, err
	}
	ema, rsi := emaSeries(candles, cfg.EMA), rsiSeries(candles, cfg.RSI)

	return simulate("bb_reversion", "B", candles, cfg.Warmup, model.ExitSignal, func(i int, pos model.Direction) model.Direction {
		b, c := bands[i], candles[i].Close
		if !b.ok {
			return pos
		}
		switch pos {
		case model.Long:
			if c >= b.Mid {
				return model.Flat
			}
			return pos
		case model.Short:
			if c <= b.Mid {
				return model.Flat
			}
			return pos
		}

		if !cfg.Sessions.Contains(candles[i].Time) {
			return model.Flat
		}
		switch {
		case c < b.Lower && rsi[i] < cfg.Oversold && c > ema[i]:
			return model.Long
		case c > b.Upper && rsi[i] > cfg.Overbought && c < ema[i]:
			return model.Short
		}
		return model.Flat
	}), nil
}

// VWAPFadeConfig sells a close that crosses back above the session VWAP.
type VWAPFadeConfig struct {
	EMA      int
	RSI      int
	RSIMax   float64
	Sessions config.Sessions // entries only
	Warmup   int
}

func DefaultVWAPFadeConfig() VWAPFadeConfig {
	return VWAPFadeConfig{EMA: 200, RSI: 14, RSIMax: 60, Sessions: defaultSessions(), Warmup: 200}
}

// RunVWAPFade shorts an upward VWAP cross while price is above the EMA and
// RSI has not yet run past RSIMax, and covers once the close drops below
// VWAP again.
func RunVWAPFade(candles []model.Candle, cfg VWAPFadeConfig) Result {
	vwap := make([]float64, len(candles))
	v := indicator.NewVWAP()
	for i, c := range candles {
		vwap[i] = v.Update(c)
	}
	ema, rsi := emaSeries(candles, cfg.EMA), rsiSeries(candles, cfg.RSI)

	return simulate("vwap_fade", "V", candles, cfg.Warmup, model.ExitSignal, func(i int, pos model.Direction) model.Direction {
		c := candles[i].Close
		if pos == model.Short {
			if c < vwap[i] {
				return model.Flat
			}
			return pos
		}
		if i == 0 || !cfg.Sessions.Contains(candles[i].Time) {
			return model.Flat
		}
		crossed := candles[i-1].Close < vwap[i-1] && c > vwap[i]
		if c > ema[i] && crossed && rsi[i] < cfg.RSIMax {
			return model.Short
		}
		return model.Flat
	})
}

// AdaptiveConfig switches between trend following and band reversion on
// the choppiness index.
type AdaptiveConfig struct {
	Chop       int
	Confluence sig.Confluence // EMA, RSI and MACD periods
	BBPeriod   int
	BBDev      float64
	Sessions   config.Sessions // entries only
	Warmup     int
}

func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		Chop: 14,
		Confluence: sig.Confluence{
			Params:     indicator.Params{EMA: 200, RSI: 14, MACDFast: 12, MACDSlow: 26, MACDSignal: 9},
			Overbought: 55,
			Oversold:   45,
			Mode:       sig.Pullback,
		},
		BBPeriod: 20,
		BBDev:    2,
		Sessions: defaultSessions(),
		Warmup:   200,
	}
}

// RunAdaptive classifies the regime on each flat in-session bar. In a trend
// it takes confluence pullbacks and exits on a MACD cross; in a range it
// trades the outer bands with RSI 30/70 and exits at the middle band.
func RunAdaptive(candles []model.Candle, cfg AdaptiveConfig) (Result, error) {
	bands, err := bandSeries(candles, cfg.BBPeriod, cfg.BBDev)
	if err != nil {
		return Result{}, err
	}
	points := indicator.Series(candles, cfg.Confluence.Params)
	chop := make([]float64, len(candles))
	chopOK := make([]bool, len(candles))
	ci := indicator.NewChoppiness(cfg.Chop)
	for i, c := range candles {
		chopOK[i], chop[i] = ci.Update(c)
	}

	regime := sig.RegimeUnknown
	return simulate("adaptive", "A", candles, cfg.Warmup, model.ExitSignal, func(i int, pos model.Direction) model.Direction {
		p, b := points[i], bands[i]
		c := p.Candle.Close

		if pos != model.Flat {
			switch regime {
			case sig.RegimeTrend:
				if (pos == model.Long && p.MACD.Line < p.MACD.Signal) || (pos == model.Short && p.MACD.Line > p.MACD.Signal) {
					return model.Flat
				}
			case sig.RegimeRange:
				if (pos == model.Long && c >= b.Mid) || (pos == model.Short && c <= b.Mid) {
					return model.Flat
				}
			}
			return pos
		}

		if !chopOK[i] || !b.ok || !cfg.Sessions.Contains(p.Candle.Time) {
			return model.Flat
		}
		switch regime = sig.ClassifyRegime(chop[i]); regime {
		case sig.RegimeTrend:
			return cfg.Confluence.Evaluate(p).Direction
		case sig.RegimeRange:
			switch {
			case c < b.Lower && p.RSI < 30:
				return model.Long
			case c > b.Upper && p.RSI > 70:
				return model.Short
			}
		}
		return model.Flat
	}), nil
}

type band struct {
	indicator.BollingerBandsStats
	ok bool
}

func bandSeries(candles []model.Candle, period int, dev float64) ([]band, error) {
	out := make([]band, len(candles))
	bb := indicator.NewBollingerBands(period, dev)
	for i, c := range candles {
		ok, s, err := bb.Update(c.Close)
		if err != nil {
			return nil, err
		}
		out[i] = band{BollingerBandsStats: s, ok: ok}
	}
	return out, nil
}

func emaSeries(candles []model.Candle, period int) []float64 {
	out := make([]float64, len(candles))
	e := indicator.NewEMA(period)
	for i, c := range candles {
		out[i] = e.Update(c.Close)
	}
	return out
}

func rsiSeries(candles []model.Candle, period int) []float64 {
	out := make([]float64, len(candles))
	r := indicator.NewRSI(period)
	for i, c := range candles {
		out[i] = r.Update(c.Close)
	}
	return out
}
