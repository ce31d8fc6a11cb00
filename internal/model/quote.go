package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the latest market snapshot of one instrument.
type Quote struct {
	Symbol    string
	LTP       float64 // last traded price
	PrevClose float64
	OI        float64 // open interest
	Bid       float64
	Ask       float64
	Time      time.Time
}

// Change is LTP minus the previous close; zero when either is missing.
func (q Quote) Change() float64 {
	if q.LTP == 0 || q.PrevClose == 0 {
		return 0
	}
	return q.LTP - q.PrevClose
}

// ChangePercent is Change relative to the previous close.
func (q Quote) ChangePercent() float64 {
	if q.PrevClose == 0 {
		return 0
	}
	return q.Change() / q.PrevClose * 100
}

// Helper methods to convert to decimal for order fields
func (q Quote) LTPDecimal() decimal.Decimal {
	return decimal.NewFromFloat(q.LTP)
}

func (q Quote) BidDecimal() decimal.Decimal {
	return decimal.NewFromFloat(q.Bid)
}

func (q Quote) AskDecimal() decimal.Decimal {
	return decimal.NewFromFloat(q.Ask)
}
