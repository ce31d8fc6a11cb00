package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Spread_Hedger/internal/data"
	"Spread_Hedger/internal/model"
	"Spread_Hedger/internal/openalgo"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return buf.String()
}

func TestCompare(t *testing.T) {
	out := execute(t, "compare", "--spot", "26010")
	for _, name := range []string{"bull_call_spread", "bear_put_spread", "short_straddle", "iron_butterfly", "calendar_spread"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "unbounded")
	assert.Contains(t, out, "earns decay")
	assert.Contains(t, out, "pays decay")

	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "calendar_spread") {
			assert.NotContains(t, line, "unbounded")
			assert.Contains(t, line, "true")
		}
	}
}

func TestBacktestStraddleFromCSV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "nifty.csv")
	out := filepath.Join(dir, "trades.csv")

	var candles []model.Candle
	start := time.Date(2025, time.December, 1, 9, 15, 0, 0, openalgo.IST)
	for i := 0; i <= 375; i++ {
		candles = append(candles, model.Candle{Time: start.Add(time.Duration(i) * time.Minute), Open: 20000, High: 20000, Low: 20000, Close: 20000})
	}
	require.NoError(t, data.SaveCandles(in, candles))

	report := execute(t, "backtest", "straddle", "--csv", in, "--out", out)
	assert.Contains(t, report, "short_straddle")
	assert.Contains(t, report, "TIME")

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "SHORT_STRADDLE")
}

func TestBacktestRSIScalpFromCSV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "nifty.csv")
	out := filepath.Join(dir, "trades.csv")

	closes := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 98, 96, 94, 92, 90, 93, 96, 99, 102, 105, 108, 111, 114, 114, 114}
	start := time.Date(2025, time.December, 1, 9, 15, 0, 0, openalgo.IST)
	var candles []model.Candle
	prev := closes[0]
	for i, c := range closes {
		candles = append(candles, model.Candle{Time: start.Add(time.Duration(i) * time.Minute), Open: prev, High: max(prev, c), Low: min(prev, c), Close: c})
		prev = c
	}
	require.NoError(t, data.SaveCandles(in, candles))

	report := execute(t, "backtest", "rsiscalp", "--csv", in, "--out", out)
	assert.Contains(t, report, "rsi_scalp")
	assert.Contains(t, report, "SIGNAL")

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "LONG")
}

func TestStreamingBrokerLTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": map[string]any{"ltp": 26100.5}})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	quotes := data.NewQuoteStore(ctx)
	b := &streamingBroker{Client: openalgo.New(srv.URL, "key"), quotes: quotes, maxAge: time.Minute}

	quotes.Set(model.Quote{Symbol: "NIFTY30DEC25FUT", LTP: 26000, Time: time.Now()})
	ltp, err := b.LTP(ctx, "NIFTY30DEC25FUT")
	require.NoError(t, err)
	assert.Equal(t, 26000.0, ltp, "fresh stream tick")

	quotes.Set(model.Quote{Symbol: "NIFTY30DEC25FUT", LTP: 26000, Time: time.Now().Add(-time.Hour)})
	ltp, err = b.LTP(ctx, "NIFTY30DEC25FUT")
	require.NoError(t, err)
	assert.Equal(t, 26100.5, ltp, "stale tick falls back to REST")
}

type lateResolver struct {
	ch  chan struct{}
	sym string
}

func (r *lateResolver) Resolved() <-chan struct{} { return r.ch }
func (r *lateResolver) Underlying() string { return r.sym }

func TestStreamWhenResolved(t *testing.T) {
	t.Run("starts once the contract resolves late", func(t *testing.T) {
		r := &lateResolver{ch: make(chan struct{})}
		started := make(chan string, 1)
		done := make(chan error, 1)
		go func() {
			done <- streamWhenResolved(context.Background(), r, func(_ context.Context, underlying string) error {
				started <- underlying
				return context.Canceled
			})
		}()

		select {
		case <-started:
			t.Fatal("stream started before resolution")
		case <-time.After(20 * time.Millisecond):
		}

		r.sym = "NIFTY30DEC25FUT"
		close(r.ch)
		assert.Equal(t, "NIFTY30DEC25FUT", <-started)
		assert.NoError(t, <-done)
	})

	t.Run("never starts when cancelled first", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := streamWhenResolved(ctx, &lateResolver{ch: make(chan struct{})}, func(context.Context, string) error {
			t.Fatal("unexpected start")
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("stream errors propagate", func(t *testing.T) {
		r := &lateResolver{ch: make(chan struct{}), sym: "NIFTY30DEC25FUT"}
		close(r.ch)
		err := streamWhenResolved(context.Background(), r, func(context.Context, string) error {
			return errors.New("dial refused")
		})
		assert.EqualError(t, err, "dial refused")
	})
}
