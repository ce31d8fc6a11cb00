package backtest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"Spread_Hedger/internal/config"
	"Spread_Hedger/internal/data"
	"Spread_Hedger/internal/model"
	"Spread_Hedger/internal/strategy"
)

type StraddleConfig struct {
	LotSize int
	Model   strategy.StraddleModel
	Session config.Session
	EntryAt config.Clock
	ExitAt  config.Clock
}

func DefaultStraddleConfig() StraddleConfig {
	return StraddleConfig{
		LotSize: 75,
		Model:   strategy.DefaultStraddleModel(),
		Session: config.Session{Start: 9*60 + 15, End: 15*60 + 30},
		EntryAt: 9*60 + 20,
		ExitAt:  15 * 60,
	}
}

// RunStraddle sells one ATM straddle a day at the open of the entry bar and
// holds it until the spot stop, the exit time or the last bar of the day.
func RunStraddle(candles []model.Candle, cfg StraddleConfig) Result {
	session := data.BetweenTime(candles, int(cfg.Session.Start), int(cfg.Session.End))
	days := data.GroupByDay(session)
	res := Result{Name: "short_straddle", Bars: len(session)}

	for _, day := range days {
		entryIdx := -1
		for i, c := range day.Candles {
			if config.ClockOf(c.Time) >= cfg.EntryAt {
				entryIdx = i
				break
			}
		}
		if entryIdx < 0 {
			continue
		}

		entryBar := day.Candles[entryIdx]
		entry := entryBar.Open
		upper, lower := cfg.Model.Stops(entry)

		var exit float64
		var exitTime = day.Candles[len(day.Candles)-1].Time
		reason := model.ExitEndOfDay
		for _, c := range day.Candles[entryIdx:] {
			if c.High >= upper {
				exit, exitTime, reason = upper, c.Time, model.ExitStopLoss
				break
			}
			if c.Low <= lower {
				exit, exitTime, reason = lower, c.Time, model.ExitStopLoss
				break
			}
			if config.ClockOf(c.Time) >= cfg.ExitAt {
				exit, exitTime, reason = c.Close, c.Time, model.ExitTime
				break
			}
		}
		if reason == model.ExitEndOfDay {
			exit = day.Candles[len(day.Candles)-1].Close
		}

		pts := cfg.Model.PnLPoints(entry, exit)
		res.Trades = append(res.Trades, model.TradeRecord{
			ID:         fmt.Sprintf("D%04d", len(res.Trades)+1),
			Kind:       "SHORT_STRADDLE",
			EntryTime:  entryBar.Time,
			ExitTime:   exitTime,
			EntryPrice: entry,
			ExitPrice:  exit,
			Points:     pts,
			PnL:        pts * float64(cfg.LotSize),
			Reason:     reason,
		})
	}

	res.Summary = Summarize(res.Trades)
	res.FinalCapital = decimal.NewFromFloat(res.Summary.TotalPnL)
	return res
}
