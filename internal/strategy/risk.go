package strategy

import (
	"Spread_Hedger/internal/config"
	"Spread_Hedger/internal/model"
)

// RiskManager tracks stop loss, take profit and the trailing stop of an
// open position, all in underlying points.
type RiskManager struct {
	cfg config.RiskConfig

	dir        model.Direction
	entry      float64
	stopLoss   float64
	takeProfit float64
	extreme    float64 // best price seen since entry
}

func NewRiskManager(cfg config.RiskConfig) *RiskManager {
	return &RiskManager{cfg: cfg}
}

func (r *RiskManager) Open(dir model.Direction, price float64) {
	r.dir = dir
	r.entry = price
	r.extreme = price
	s := dir.Sign()
	r.stopLoss = price - s*r.cfg.StopLoss
	r.takeProfit = price + s*r.cfg.TakeProfit
}

func (r *RiskManager) Reset() {
	*r = RiskManager{cfg: r.cfg}
}

// Update feeds a new underlying price. It trails the stop once the best
// excursion reaches the activation distance; the stop only ever tightens.
func (r *RiskManager) Update(price float64) (model.ExitReason, bool) {
	if r.dir == model.Flat {
		return model.ExitNone, false
	}

	s := r.dir.Sign()
	if (price-r.extreme)*s > 0 {
		r.extreme = price
		if (r.extreme-r.entry)*s >= r.cfg.TSLActivation {
			trail := r.extreme - s*r.cfg.TSLTrail
			if (trail-r.stopLoss)*s > 0 {
				r.stopLoss = trail
			}
		}
	}

	switch {
	case (price-r.stopLoss)*s <= 0:
		return model.ExitStopLoss, true
	case (price-r.takeProfit)*s >= 0:
		return model.ExitTakeProfit, true
	}
	return model.ExitNone, false
}

type Levels struct {
	Direction  model.Direction
	Entry      float64
	StopLoss   float64
	TakeProfit float64
}

func (r *RiskManager) Levels() Levels {
	return Levels{Direction: r.dir, Entry: r.entry, StopLoss: r.stopLoss, TakeProfit: r.takeProfit}
}
