package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"Spread_Hedger/internal/config"
	"Spread_Hedger/internal/model"
)

func TestSpreadModel(t *testing.T) {
	m := DefaultSpreadModel()
	assert.InDelta(t, 0.2, m.NetDelta(), 1e-12)

	// +100 points: 50 - 30 = 20, minus 2 points of overnight theta
	assert.InDelta(t, 18.0, m.PnLPoints(BullSpread, 100, true), 1e-9)
	assert.InDelta(t, 19.5, m.PnLPoints(BullSpread, 100, false), 1e-9)
	assert.InDelta(t, -22.0, m.PnLPoints(BearSpread, 100, true), 1e-9)
	assert.InDelta(t, 19.5, m.PnLPoints(BearSpread, -100, false), 1e-9)

	assert.Equal(t, BearSpread, SpreadFor(model.Short))
	assert.Equal(t, model.Long, BullSpread.Direction())
}

func TestStraddleModel(t *testing.T) {
	m := DefaultStraddleModel()
	assert.InDelta(t, 200.0, m.Premium(25000), 1e-9)
	up, down := m.Stops(25000)
	assert.InDelta(t, 25100.0, up, 1e-9)
	assert.InDelta(t, 24900.0, down, 1e-9)
	assert.InDelta(t, 150.0, m.PnLPoints(25000, 24950), 1e-9)
}

func TestOptionBuyModel(t *testing.T) {
	m := DefaultOptionBuyModel()
	assert.InDelta(t, 150.0-50.0, m.OptionPoints(300, 10), 1e-9)
	assert.InDelta(t, 7500.0, m.PnL(300, 10), 1e-9)
	assert.InDelta(t, 50.0, m.ROI(7500), 1e-9)
}

func TestRiskManager(t *testing.T) {
	cfg := config.RiskConfig{StopLoss: 20, TakeProfit: 50, TSLActivation: 20, TSLTrail: 10}

	t.Run("flat never exits", func(t *testing.T) {
		r := NewRiskManager(cfg)
		_, exit := r.Update(100)
		assert.False(t, exit)
	})

	t.Run("long stop loss", func(t *testing.T) {
		r := NewRiskManager(cfg)
		r.Open(model.Long, 1000)
		_, exit := r.Update(990)
		assert.False(t, exit)
		reason, exit := r.Update(980)
		assert.True(t, exit)
		assert.Equal(t, model.ExitStopLoss, reason)
	})

	t.Run("long trailing stop", func(t *testing.T) {
		r := NewRiskManager(cfg)
		r.Open(model.Long, 1000)
		r.Update(1025)
		assert.Equal(t, 1015.0, r.Levels().StopLoss)

		r.Update(1018)
		assert.Equal(t, 1015.0, r.Levels().StopLoss, "stop never loosens")

		reason, exit := r.Update(1015)
		assert.True(t, exit)
		assert.Equal(t, model.ExitStopLoss, reason)
	})

	t.Run("short take profit", func(t *testing.T) {
		r := NewRiskManager(cfg)
		r.Open(model.Short, 1000)
		assert.Equal(t, Levels{Direction: model.Short, Entry: 1000, StopLoss: 1020, TakeProfit: 950}, r.Levels())

		r.Update(970)
		assert.Equal(t, 980.0, r.Levels().StopLoss)

		reason, exit := r.Update(950)
		assert.True(t, exit)
		assert.Equal(t, model.ExitTakeProfit, reason)
	})

	t.Run("below activation keeps the initial stop", func(t *testing.T) {
		r := NewRiskManager(cfg)
		r.Open(model.Long, 1000)
		r.Update(1019)
		assert.Equal(t, 980.0, r.Levels().StopLoss)
	})

	t.Run("reset", func(t *testing.T) {
		r := NewRiskManager(cfg)
		r.Open(model.Long, 1000)
		r.Reset()
		assert.Equal(t, model.Flat, r.Levels().Direction)
	})
}
