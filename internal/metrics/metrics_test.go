package metrics_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Spread_Hedger/internal/hedger"
	"Spread_Hedger/internal/metrics"
	"Spread_Hedger/internal/model"
)

func TestSubscribeTracksTrades(t *testing.T) {
	bus := EventBus.New()
	require.NoError(t, metrics.Subscribe(bus))

	opened := testutil.ToFloat64(metrics.TradesOpenedTotal.WithLabelValues("debit_spread", "BULL_SPREAD"))
	closed := testutil.ToFloat64(metrics.TradesClosedTotal.WithLabelValues("debit_spread", "TAKE PROFIT"))
	points := testutil.ToFloat64(metrics.RealizedPoints)

	bus.Publish(hedger.TopicTradeOpened, hedger.TradeOpened{Mode: hedger.ModeDebitSpread, Kind: "BULL_SPREAD"})
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PositionOpen))

	bus.Publish(hedger.TopicTradeClosed, hedger.TradeClosed{
		Mode: hedger.ModeDebitSpread, Kind: "BULL_SPREAD", Reason: model.ExitTakeProfit, Points: 50, EstPnL: 712.5,
	})

	assert.Equal(t, opened+1, testutil.ToFloat64(metrics.TradesOpenedTotal.WithLabelValues("debit_spread", "BULL_SPREAD")))
	assert.Equal(t, closed+1, testutil.ToFloat64(metrics.TradesClosedTotal.WithLabelValues("debit_spread", "TAKE PROFIT")))
	assert.Equal(t, points+50, testutil.ToFloat64(metrics.RealizedPoints))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PositionOpen))
}

func TestRecordTick(t *testing.T) {
	before := testutil.ToFloat64(metrics.TicksTotal.WithLabelValues("ws"))
	metrics.RecordTick("ws", "NIFTY30DEC25FUT", 26010.5)
	metrics.RecordTick("ws", "NIFTY30DEC25FUT", 0)

	assert.Equal(t, before+2, testutil.ToFloat64(metrics.TicksTotal.WithLabelValues("ws")))
	assert.Equal(t, 26010.5, testutil.ToFloat64(metrics.LastPrice.WithLabelValues("NIFTY30DEC25FUT")))
}

func TestExposition(t *testing.T) {
	metrics.RecordTick("fix", "X", 1)

	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), "spread_hedger_ticks_total"))
}
