package backtest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"Spread_Hedger/internal/model"
)

// rule looks at bar i with the current position and returns the position
// it wants to hold. Returning Flat closes an open position.
type rule func(i int, pos model.Direction) model.Direction

// simulate trades one futures unit on a rule. Orders decided on bar i fill
// at the open of bar i+1 and P&L is in futures points. Bars before warmup
// are never evaluated. An exit and a new entry never happen on the same
// bar, and a position still open on the last bar is not counted.
func simulate(name, prefix string, candles []model.Candle, warmup int, reason model.ExitReason, decide rule) Result {
	res := Result{Name: name, Bars: len(candles)}

	var dir model.Direction
	var entry model.Candle
	if warmup < 0 {
		warmup = 0
	}

	for i := warmup; i+1 < len(candles); i++ {
		want := decide(i, dir)
		fill := candles[i+1]

		if dir != model.Flat && want != dir {
			pts := (fill.Open - entry.Open) * dir.Sign()
			res.Trades = append(res.Trades, model.TradeRecord{
				ID:         fmt.Sprintf("%s%04d", prefix, len(res.Trades)+1),
				Kind:       dir.String(),
				EntryTime:  entry.Time,
				ExitTime:   fill.Time,
				EntryPrice: entry.Open,
				ExitPrice:  fill.Open,
				Points:     pts,
				PnL:        pts,
				Reason:     reason,
			})
			dir = model.Flat
			continue
		}

		if dir == model.Flat && want != model.Flat {
			dir, entry = want, fill
		}
	}

	res.Summary = Summarize(res.Trades)
	res.FinalCapital = decimal.NewFromFloat(res.Summary.TotalPnL)
	return res
}
