package data

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Spread_Hedger/internal/model"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func at(day, hour, min int) time.Time {
	return time.Date(2025, time.December, day, hour, min, 0, 0, ist)
}

func TestReadCandles(t *testing.T) {
	in := `datetime,open,high,low,close,volume
2025-12-01 09:16:00,101,103,100,102,20
2025-12-01 09:15:00,100,101,99,100.5,10
`
	candles, err := ReadCandles(strings.NewReader(in), ist)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, at(1, 9, 15), candles[0].Time)
	assert.Equal(t, 100.5, candles[0].Close)
	assert.Equal(t, 20.0, candles[1].Volume)
}

func TestReadCandlesEmpty(t *testing.T) {
	_, err := ReadCandles(strings.NewReader("datetime,open,high,low,close,volume\n"), ist)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestReadCandlesBadTimestamp(t *testing.T) {
	_, err := ReadCandles(strings.NewReader("datetime,open,high,low,close,volume\nyesterday,1,1,1,1,1\n"), ist)
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("1764560700", ist)
	require.NoError(t, err)
	assert.Equal(t, int64(1764560700), ts.Unix())

	ts, err = ParseTimestamp("2025-12-01T09:15:00+05:30", ist)
	require.NoError(t, err)
	assert.True(t, ts.Equal(at(1, 9, 15)))

	ts, err = ParseTimestamp("2025-12-01 09:15", ist)
	require.NoError(t, err)
	assert.True(t, ts.Equal(at(1, 9, 15)))
}

func TestSaveLoadCandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	in := []model.Candle{
		{Time: at(1, 9, 15), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 7},
		{Time: at(1, 9, 20), Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 3},
	}
	require.NoError(t, SaveCandles(path, in))

	out, err := LoadCandles(path, ist)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, out[1].Time.Equal(in[1].Time))
	assert.Equal(t, in[1].Close, out[1].Close)
}

func TestResample(t *testing.T) {
	var oneMin []model.Candle
	for i := 0; i < 10; i++ {
		p := float64(100 + i)
		oneMin = append(oneMin, model.Candle{Time: at(1, 9, 15+i), Open: p, High: p + 1, Low: p - 1, Close: p + 0.5, Volume: 1})
	}

	bars := Resample(oneMin, 5*time.Minute)
	require.Len(t, bars, 2)

	assert.Equal(t, at(1, 9, 15), bars[0].Time)
	assert.Equal(t, 100.0, bars[0].Open)
	assert.Equal(t, 105.0, bars[0].High)
	assert.Equal(t, 99.0, bars[0].Low)
	assert.Equal(t, 104.5, bars[0].Close)
	assert.Equal(t, 5.0, bars[0].Volume)

	assert.Equal(t, at(1, 9, 20), bars[1].Time)
	assert.Equal(t, 109.5, bars[1].Close)
}

func TestResampleSkipsGaps(t *testing.T) {
	bars := Resample([]model.Candle{
		{Time: at(1, 9, 15), Close: 1},
		{Time: at(1, 9, 31), Close: 2},
	}, 5*time.Minute)
	require.Len(t, bars, 2)
	assert.Equal(t, at(1, 9, 30), bars[1].Time)
}

func TestBetweenTime(t *testing.T) {
	candles := []model.Candle{
		{Time: at(1, 9, 10)},
		{Time: at(1, 9, 15)},
		{Time: at(1, 12, 0)},
		{Time: at(1, 15, 0)},
		{Time: at(1, 15, 5)},
	}
	out := BetweenTime(candles, 9*60+15, 15*60)
	require.Len(t, out, 3)
	assert.Equal(t, at(1, 9, 15), out[0].Time)
	assert.Equal(t, at(1, 15, 0), out[2].Time)
}

func TestGroupByDay(t *testing.T) {
	days := GroupByDay([]model.Candle{
		{Time: at(1, 9, 15)},
		{Time: at(1, 15, 0)},
		{Time: at(2, 9, 15)},
	})
	require.Len(t, days, 2)
	assert.Len(t, days[0].Candles, 2)
	assert.Equal(t, time.Date(2025, time.December, 2, 0, 0, 0, 0, ist), days[1].Date)
}

func TestQuoteStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewQuoteStore(ctx)

	store.Set(model.Quote{Symbol: "NIFTY30DEC25FUT", LTP: 26000, PrevClose: 25900, OI: 1000})
	store.Set(model.Quote{Symbol: "NIFTY30DEC25FUT", LTP: 26010})

	q, ok := store.Get("NIFTY30DEC25FUT")
	require.True(t, ok)
	assert.Equal(t, 26010.0, q.LTP)
	assert.Equal(t, 1000.0, q.OI)
	assert.Equal(t, 25900.0, q.PrevClose)

	_, ok = store.Get("BANKNIFTY30DEC25FUT")
	assert.False(t, ok)

	assert.Len(t, store.Snapshot(), 1)

	cancel()
	<-store.Done()
	_, ok = store.Get("NIFTY30DEC25FUT")
	assert.False(t, ok)
	assert.Nil(t, store.Snapshot())
}

type fakeResolver map[time.Month]string

func (f fakeResolver) ResolveFuture(_ context.Context, month time.Time) (string, error) {
	if s, ok := f[month.Month()]; ok {
		return s, nil
	}
	return "", assert.AnError
}

// fakeFetcher serves one 10:00 bar per day and tags Open with the
// contract it came from.
type fakeFetcher struct {
	codes map[string]float64
	calls []string
}

func (f *fakeFetcher) History(_ context.Context, symbol, _, _ string, start, end time.Time) ([]model.Candle, error) {
	f.calls = append(f.calls, symbol)
	var out []model.Candle
	for d := time.Date(2025, time.November, 1, 10, 0, 0, 0, ist); d.Before(time.Date(2025, time.December, 21, 0, 0, 0, 0, ist)); d = d.AddDate(0, 0, 1) {
		if d.Before(start) || !d.Before(end) {
			continue
		}
		out = append(out, model.Candle{Time: d, Open: f.codes[symbol], Close: float64(d.Day())})
	}
	return out, nil
}

func TestStitch(t *testing.T) {
	fetcher := &fakeFetcher{codes: map[string]float64{"NIFTY25NOV25FUT": 1, "NIFTY30DEC25FUT": 2}}
	resolver := fakeResolver{time.November: "NIFTY25NOV25FUT", time.December: "NIFTY30DEC25FUT"}

	candles, err := Stitch(context.Background(), fetcher, resolver, StitchRequest{
		Prefix: "NIFTY", Exchange: "NFO", Interval: "1m", Days: 40, Now: at(15, 10, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"NIFTY25NOV25FUT", "NIFTY30DEC25FUT"}, fetcher.calls)

	require.Len(t, candles, 41)
	assert.Equal(t, time.Date(2025, time.November, 5, 10, 0, 0, 0, ist), candles[0].Time)
	assert.Equal(t, at(15, 10, 0), candles[len(candles)-1].Time)

	for _, c := range candles {
		if c.Time.Month() == time.November && c.Time.Day() <= 25 {
			assert.Equal(t, 1.0, c.Open, c.Time.String())
		} else {
			assert.Equal(t, 2.0, c.Open, c.Time.String())
		}
	}
}

func TestStitchNoData(t *testing.T) {
	_, err := Stitch(context.Background(), &fakeFetcher{}, fakeResolver{}, StitchRequest{
		Prefix: "NIFTY", Days: 5, Now: at(15, 10, 0),
	})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestStitchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Stitch(ctx, &fakeFetcher{}, fakeResolver{}, StitchRequest{Prefix: "NIFTY", Days: 5, Now: at(15, 10, 0)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDedupeKeepsFirst(t *testing.T) {
	out := Dedupe([]model.Candle{
		{Time: at(2, 9, 15), Close: 3},
		{Time: at(1, 9, 15), Close: 1},
		{Time: at(1, 9, 15), Close: 2},
	})
	require.Len(t, out, 2)
	assert.Equal(t, 1.0, out[0].Close)
	assert.Equal(t, 3.0, out[1].Close)
}
