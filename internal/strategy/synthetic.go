package strategy

import (
	"math"

	"Spread_Hedger/internal/model"
)

// SpreadKind is the debit spread opened for a signal direction.
type SpreadKind string

const (
	BullSpread SpreadKind = "BULL_SPREAD" // long ATM call, short OTM call
	BearSpread SpreadKind = "BEAR_SPREAD" // long ATM put, short OTM put
)

func SpreadFor(dir model.Direction) SpreadKind {
	if dir == model.Short {
		return BearSpread
	}
	return BullSpread
}

func (k SpreadKind) Direction() model.Direction {
	if k == BearSpread {
		return model.Short
	}
	return model.Long
}

// SpreadModel approximates debit spread P&L from the futures move using
// fixed leg deltas and a theta charge.
type SpreadModel struct {
	ATMDelta      float64
	OTMDelta      float64
	ThetaATM      float64 // points per day
	ThetaOTM      float64
	IntradayDecay float64 // charge for a same-session reversal exit
}

func DefaultSpreadModel() SpreadModel {
	return SpreadModel{
		ATMDelta:      0.50,
		OTMDelta:      0.30,
		ThetaATM:      5,
		ThetaOTM:      3,
		IntradayDecay: 0.5,
	}
}

// NetDelta of the long ATM / short OTM pair.
func (m SpreadModel) NetDelta() float64 {
	return m.ATMDelta - m.OTMDelta
}

// PnLPoints of a spread whose underlying moved by move. End-of-day exits
// pay a full day of net theta, reversal exits the intraday decay.
func (m SpreadModel) PnLPoints(kind SpreadKind, move float64, endOfDay bool) float64 {
	decay := m.IntradayDecay
	if endOfDay {
		decay = m.ThetaATM - m.ThetaOTM
	}
	long := kind.Direction().Sign() * move * m.ATMDelta
	short := -kind.Direction().Sign() * move * m.OTMDelta
	return long + short - decay
}

// StraddleModel prices a short ATM straddle as a share of spot and stops
// out on a spot move.
type StraddleModel struct {
	PremiumPct  float64
	StopLossPct float64
}

func DefaultStraddleModel() StraddleModel {
	return StraddleModel{PremiumPct: 0.008, StopLossPct: 0.004}
}

func (m StraddleModel) Premium(entry float64) float64 {
	return entry * m.PremiumPct
}

// Stops returns the upper and lower spot levels that stop the trade out.
func (m StraddleModel) Stops(entry float64) (float64, float64) {
	return entry * (1 + m.StopLossPct), entry * (1 - m.StopLossPct)
}

// PnLPoints is premium collected minus the absolute spot move.
func (m StraddleModel) PnLPoints(entry, exit float64) float64 {
	return m.Premium(entry) - math.Abs(exit-entry)
}

// OptionBuyModel converts futures points into ATM option points.
type OptionBuyModel struct {
	Delta           float64
	ThetaPenalty    float64 // points per trade for decay and slippage
	LotSize         int
	CapitalRequired float64
}

func DefaultOptionBuyModel() OptionBuyModel {
	return OptionBuyModel{
		Delta:           0.5,
		ThetaPenalty:    5,
		LotSize:         75,
		CapitalRequired: 15000,
	}
}

func (m OptionBuyModel) OptionPoints(futuresPoints float64, trades int) float64 {
	return futuresPoints*m.Delta - float64(trades)*m.ThetaPenalty
}

func (m OptionBuyModel) PnL(futuresPoints float64, trades int) float64 {
	return m.OptionPoints(futuresPoints, trades) * float64(m.LotSize)
}

// ROI in percent of the capital one lot needs.
func (m OptionBuyModel) ROI(pnl float64) float64 {
	if m.CapitalRequired == 0 {
		return 0
	}
	return pnl / m.CapitalRequired * 100
}
