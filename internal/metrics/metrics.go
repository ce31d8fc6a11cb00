package metrics

import (
	"github.com/asaskevich/EventBus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"Spread_Hedger/internal/hedger"
)

var (
	TradesOpenedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spread_hedger_trades_opened_total",
		Help: "Positions opened by mode and kind",
	}, []string{"mode", "kind"})

	TradesClosedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spread_hedger_trades_closed_total",
		Help: "Positions closed by mode and exit reason",
	}, []string{"mode", "reason"})

	PositionOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spread_hedger_position_open",
		Help: "1 while a position is open",
	})

	RealizedPoints = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spread_hedger_realized_points",
		Help: "Sum of underlying points captured by closed trades",
	})

	EstimatedPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spread_hedger_estimated_pnl",
		Help: "Sum of estimated option P&L of closed trades",
	})

	TicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spread_hedger_ticks_total",
		Help: "Market data ticks received by source",
	}, []string{"source"})

	LastPrice = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "spread_hedger_last_price",
		Help: "Last traded price by symbol",
	}, []string{"symbol"})
)

func RecordOpened(e hedger.TradeOpened) {
	TradesOpenedTotal.WithLabelValues(string(e.Mode), e.Kind).Inc()
	PositionOpen.Set(1)
}

func RecordClosed(e hedger.TradeClosed) {
	reason := string(e.Reason)
	if reason == "" {
		reason = "unknown"
	}
	TradesClosedTotal.WithLabelValues(string(e.Mode), reason).Inc()
	PositionOpen.Set(0)
	RealizedPoints.Add(e.Points)
	EstimatedPnL.Add(e.EstPnL)
}

// RecordTick counts a tick from source and tracks its price.
func RecordTick(source, symbol string, price float64) {
	if source == "" {
		source = "unknown"
	}
	TicksTotal.WithLabelValues(source).Inc()
	if price > 0 {
		LastPrice.WithLabelValues(symbol).Set(price)
	}
}

// Subscribe keeps the trade metrics in step with the bot's events.
func Subscribe(bus EventBus.Bus) error {
	if err := bus.Subscribe(hedger.TopicTradeOpened, RecordOpened); err != nil {
		return err
	}
	return bus.Subscribe(hedger.TopicTradeClosed, RecordClosed)
}
