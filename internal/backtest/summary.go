package backtest

import (
	"github.com/montanaflynn/stats"

	"Spread_Hedger/internal/model"
)

// Summary aggregates closed trades.
type Summary struct {
	Trades      int
	Wins        int
	Losses      int
	WinRate     float64 // percent
	TotalPoints float64
	TotalPnL    float64
	AvgPnL      float64
	StdDev      float64
	MaxDrawdown float64 // largest peak-to-trough fall of cumulative pnl
}

func Summarize(trades []model.TradeRecord) Summary {
	s := Summary{Trades: len(trades)}
	if len(trades) == 0 {
		return s
	}

	pnl := make([]float64, len(trades))
	var equity, peak float64
	for i, t := range trades {
		pnl[i] = t.PnL
		s.TotalPoints += t.Points
		if t.Won() {
			s.Wins++
		} else {
			s.Losses++
		}

		equity += t.PnL
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > s.MaxDrawdown {
			s.MaxDrawdown = dd
		}
	}

	s.TotalPnL, _ = stats.Sum(pnl)
	s.AvgPnL, _ = stats.Mean(pnl)
	if len(pnl) > 1 {
		s.StdDev, _ = stats.StandardDeviationSample(pnl)
	}
	s.WinRate = float64(s.Wins) / float64(s.Trades) * 100
	return s
}
