package model

import "time"

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitNone       ExitReason = ""
	ExitStopLoss   ExitReason = "STOP LOSS/TSL"
	ExitTakeProfit ExitReason = "TAKE PROFIT"
	ExitReversal   ExitReason = "REVERSAL"
	ExitSignal     ExitReason = "SIGNAL"
	ExitEndOfDay   ExitReason = "EOD"
	ExitTime       ExitReason = "TIME"
	ExitManual     ExitReason = "MANUAL"
)

// TradeRecord is one closed trade, as written to the results CSV.
type TradeRecord struct {
	ID         string     `csv:"id"`
	Kind       string     `csv:"type"`
	EntryTime  time.Time  `csv:"entry_time"`
	ExitTime   time.Time  `csv:"exit_time"`
	EntryPrice float64    `csv:"entry_price"`
	ExitPrice  float64    `csv:"exit_price"`
	Points     float64    `csv:"net_pts"`
	PnL        float64    `csv:"pnl"`
	Reason     ExitReason `csv:"reason"`
}

func (t TradeRecord) Won() bool {
	return t.PnL > 0
}
