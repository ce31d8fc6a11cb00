package hedger

import (
	"time"

	"Spread_Hedger/internal/model"
)

// EventBus topics published by the bot.
const (
	TopicTradeOpened = "trade.opened"
	TopicTradeClosed = "trade.closed"
)

type TradeOpened struct {
	ID         string
	Mode       Mode
	Kind       string
	Direction  model.Direction
	Underlying string
	Price      float64
	LongLeg    string
	ShortLeg   string // empty for option buying or when the hedge leg failed
	Qty        int
	DryRun     bool
	Time       time.Time
}

type TradeClosed struct {
	ID         string
	Mode       Mode
	Kind       string
	Direction  model.Direction
	Underlying string
	EntryPrice float64
	ExitPrice  float64
	Points     float64 // underlying points in the trade's favour
	EstPnL     float64 // option P&L estimate in rupees
	Reason     model.ExitReason
	LongLeg    string
	ShortLeg   string
	DryRun     bool
	OpenedAt   time.Time
	Time       time.Time
}

func (e TradeClosed) Record() model.TradeRecord {
	return model.TradeRecord{
		ID:         e.ID,
		Kind:       e.Kind,
		EntryTime:  e.OpenedAt,
		ExitTime:   e.Time,
		EntryPrice: e.EntryPrice,
		ExitPrice:  e.ExitPrice,
		Points:     e.Points,
		PnL:        e.EstPnL,
		Reason:     e.Reason,
	}
}
