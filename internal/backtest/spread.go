package backtest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"Spread_Hedger/internal/config"
	"Spread_Hedger/internal/data"
	"Spread_Hedger/internal/indicator"
	"Spread_Hedger/internal/model"
	sig "Spread_Hedger/internal/signal"
	"Spread_Hedger/internal/strategy"
)

// Result is the outcome of one backtest run.
type Result struct {
	Name           string
	Bars           int
	Trades         []model.TradeRecord
	InitialCapital decimal.Decimal
	FinalCapital   decimal.Decimal
	Summary        Summary
}

type SpreadConfig struct {
	LotSize        int
	InitialCapital decimal.Decimal
	Bar            time.Duration
	Warmup         int
	Model          strategy.SpreadModel
	Confluence     sig.Confluence
	RSIKind        indicator.RSIKind // overrides Confluence.Params.RSIKind
	Session        config.Session    // bars outside force-close the spread
	NoTrade        config.Session    // lunch window, closed at both ends
}

func DefaultSpreadConfig() SpreadConfig {
	return SpreadConfig{
		LotSize:        50,
		InitialCapital: decimal.NewFromInt(70000),
		Bar:            5 * time.Minute,
		Warmup:         200,
		Model:          strategy.DefaultSpreadModel(),
		Confluence: sig.Confluence{
			Params:     indicator.Params{EMA: 200, RSI: 14, MACDFast: 12, MACDSlow: 26, MACDSignal: 9},
			Overbought: 55,
			Oversold:   45,
			Mode:       sig.Momentum,
		},
		RSIKind: indicator.SMARSI,
		Session: config.Session{Start: 9*60 + 15, End: 15 * 60},
		NoTrade: config.Session{Start: 11 * 60, End: 13 * 60},
	}
}

type openSpread struct {
	kind  strategy.SpreadKind
	entry model.Candle
}

// RunSpread simulates bull call / bear put debit spreads on confluence
// signals using the synthetic delta/theta model.
func RunSpread(candles []model.Candle, cfg SpreadConfig) Result {
	bars := data.Resample(candles, cfg.Bar)
	params := cfg.Confluence.Params
	params.RSIKind = cfg.RSIKind
	points := indicator.Series(bars, params)

	res := Result{Name: "debit_spread", Bars: len(bars), InitialCapital: cfg.InitialCapital}
	capital := cfg.InitialCapital
	var pos *openSpread

	closeAt := func(bar model.Candle, reason model.ExitReason) {
		move := bar.Close - pos.entry.Close
		pts := cfg.Model.PnLPoints(pos.kind, move, reason == model.ExitEndOfDay)
		pnl := pts * float64(cfg.LotSize)
		capital = capital.Add(decimal.NewFromFloat(pnl))
		res.Trades = append(res.Trades, model.TradeRecord{
			ID:         fmt.Sprintf("S%04d", len(res.Trades)+1),
			Kind:       string(pos.kind),
			EntryTime:  pos.entry.Time,
			ExitTime:   bar.Time,
			EntryPrice: pos.entry.Close,
			ExitPrice:  bar.Close,
			Points:     pts,
			PnL:        pnl,
			Reason:     reason,
		})
		log.Debugf("[BACKTEST] %s closed %s pts=%.2f pnl=%.2f", pos.kind, reason, pts, pnl)
		pos = nil
	}

	for i := cfg.Warmup; i < len(bars); i++ {
		bar := bars[i]
		clock := config.ClockOf(bar.Time)

		if clock < cfg.Session.Start || clock > cfg.Session.End {
			if pos != nil {
				closeAt(bar, model.ExitEndOfDay)
			}
			continue
		}
		if clock >= cfg.NoTrade.Start && clock <= cfg.NoTrade.End {
			continue
		}

		dir := cfg.Confluence.Evaluate(points[i]).Direction
		switch {
		case pos == nil && dir != model.Flat:
			pos = &openSpread{kind: strategy.SpreadFor(dir), entry: bar}
		case pos != nil && dir == -pos.kind.Direction():
			closeAt(bar, model.ExitReversal)
		}
	}

	res.FinalCapital = capital
	res.Summary = Summarize(res.Trades)
	return res
}
