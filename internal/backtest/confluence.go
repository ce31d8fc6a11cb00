package backtest

import (
	"Spread_Hedger/internal/config"
	"Spread_Hedger/internal/indicator"
	"Spread_Hedger/internal/model"
	sig "Spread_Hedger/internal/signal"
	"Spread_Hedger/internal/strategy"
)

type ConfluenceConfig struct {
	Confluence sig.Confluence
	Sessions   config.Sessions
	// AllowShort opens shorts on bearish signals; otherwise a bearish
	// signal only closes a long.
	AllowShort bool
	// Warmup bars are skipped while the slow EMA settles.
	Warmup int
}

func DefaultConfluenceConfig() ConfluenceConfig {
	return ConfluenceConfig{
		Confluence: sig.Confluence{
			Params:     indicator.Params{EMA: 200, RSI: 14, MACDFast: 12, MACDSlow: 26, MACDSignal: 9},
			Overbought: 55,
			Oversold:   45,
			Mode:       sig.Pullback,
		},
		Sessions: config.Sessions{
			{Start: 9*60 + 15, End: 11 * 60},
			{Start: 13 * 60, End: 15 * 60},
		},
		Warmup: 200,
	}
}

// RunConfluence trades one futures unit on confluence signals. Orders
// decided on a bar fill at the next bar's open; P&L is in futures points.
// A position still open on the last bar is not counted.
func RunConfluence(candles []model.Candle, cfg ConfluenceConfig) Result {
	points := indicator.Series(candles, cfg.Confluence.Params)
	return simulate("confluence", "C", candles, cfg.Warmup, model.ExitReversal, func(i int, pos model.Direction) model.Direction {
		if !cfg.Sessions.Contains(candles[i].Time) {
			return pos
		}
		signal := cfg.Confluence.Evaluate(points[i]).Direction
		switch {
		case pos != model.Flat && signal == -pos:
			return model.Flat
		case pos == model.Flat && (signal == model.Long || (signal == model.Short && cfg.AllowShort)):
			return signal
		}
		return pos
	})
}

// OptionBuyReport converts a futures-point confluence run into ATM option
// buying.
type OptionBuyReport struct {
	Trades        int
	WinRate       float64
	FuturesPoints float64
	OptionPoints  float64
	PnL           float64
	ROI           float64
}

func OptionBuy(res Result, m strategy.OptionBuyModel) OptionBuyReport {
	n := len(res.Trades)
	futures := res.Summary.TotalPoints
	pnl := m.PnL(futures, n)
	return OptionBuyReport{
		Trades:        n,
		WinRate:       res.Summary.WinRate,
		FuturesPoints: futures,
		OptionPoints:  m.OptionPoints(futures, n),
		PnL:           pnl,
		ROI:           m.ROI(pnl),
	}
}
