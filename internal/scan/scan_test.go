package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"Spread_Hedger/internal/data"
	"Spread_Hedger/internal/indicator"
	"Spread_Hedger/internal/model"
	sig "Spread_Hedger/internal/signal"
)

var ist = time.FixedZone("IST", 5*3600+1800)

var conf = sig.Confluence{
	Params:     indicator.Params{EMA: 20, RSI: 14, MACDFast: 12, MACDSlow: 26, MACDSignal: 9},
	Overbought: 55,
	Oversold:   45,
	Mode:       sig.Pullback,
}

func rally(n int) []model.Candle {
	out := make([]model.Candle, n)
	start := time.Date(2025, time.December, 1, 9, 15, 0, 0, ist)
	for i := range out {
		px := 20000 + float64(i)
		out[i] = model.Candle{Time: start.Add(time.Duration(i) * time.Minute), Open: px - 1, High: px + 0.5, Low: px - 1, Close: px, Volume: 10}
	}
	return out
}

func TestTake(t *testing.T) {
	s, err := Take(rally(60), conf, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 60, s.Bars)
	assert.Equal(t, 20059.0, s.Reading.Close)
	assert.True(t, s.ChopOK)
	assert.Equal(t, sig.RegimeTrend, s.Regime)
	assert.True(t, s.BandsOK)
	assert.InDelta(t, 20049.5, s.Bands.Mid, 1e-9)
	assert.Less(t, s.VWAP, s.Reading.Close)
	assert.Equal(t, "2025-12-01 10:14", s.LastTime)

	lines := s.Lines(conf)
	assert.Contains(t, lines, "SIGNAL: NONE", "a straight rally is overbought, not a pullback")
	assert.Contains(t, lines, "  Trend: Bullish (Above EMA)")
}

func TestTakeShortSeries(t *testing.T) {
	s, err := Take(rally(5), conf, DefaultOptions())
	require.NoError(t, err)
	assert.False(t, s.ChopOK)
	assert.False(t, s.BandsOK)
	assert.Equal(t, sig.RegimeUnknown, s.Regime)

	_, err = Take(nil, conf, DefaultOptions())
	assert.ErrorIs(t, err, data.ErrNoData)
}

type fakeQuoter struct {
	mu     sync.Mutex
	quotes map[string][]model.Quote
	err    error
}

func (f *fakeQuoter) Quotes(_ context.Context, symbol, _ string) (model.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Quote{}, f.err
	}
	qs := f.quotes[symbol]
	if len(qs) == 0 {
		return model.Quote{Symbol: symbol}, nil
	}
	q := qs[0]
	if len(qs) > 1 {
		f.quotes[symbol] = qs[1:]
	}
	return q, nil
}

func TestOIMonitor(t *testing.T) {
	q := &fakeQuoter{quotes: map[string][]model.Quote{
		"NIFTY30DEC25FUT": {
			{LTP: 26010, OI: 1000},
			{LTP: 26030, OI: 1100},
			{LTP: 26020, OI: 1200},
		},
		"NIFTY30DEC2526000CE": {{OI: 400}},
		"NIFTY30DEC2526000PE": {{OI: 500}},
	}}
	m := NewOIMonitor(q, "NFO", "NIFTY30DEC25FUT", 50)

	atm, err := m.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 26000, atm)

	row, err := m.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sig.LongBuildup, row.Buildup)
	assert.InDelta(t, 1.25, row.PCR, 1e-9)

	row, err = m.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sig.ShortBuildup, row.Buildup)
	assert.Contains(t, row.String(), "Short Buildup (Bear)")
}

func TestOIMonitorStartErrors(t *testing.T) {
	_, err := NewOIMonitor(&fakeQuoter{quotes: map[string][]model.Quote{}}, "NFO", "NIFTY30DEC25FUT", 50).Start(context.Background())
	assert.Error(t, err, "zero price")

	boom := errors.New("down")
	_, err = NewOIMonitor(&fakeQuoter{err: boom}, "NFO", "NIFTY30DEC25FUT", 50).Start(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestOIMonitorRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := &fakeQuoter{quotes: map[string][]model.Quote{
		"NIFTY30DEC25FUT": {{LTP: 26010, OI: 1000}},
	}}
	m := NewOIMonitor(q, "NFO", "NIFTY30DEC25FUT", 50)
	_, err := m.Start(context.Background())
	require.NoError(t, err)

	var rows []OIRow
	err = m.Run(context.Background(), time.Millisecond, 3, func(r OIRow) { rows = append(rows, r) })
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, sig.Neutral, rows[2].Buildup)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Run(ctx, time.Millisecond, 0, func(OIRow) {}), context.Canceled)
}
