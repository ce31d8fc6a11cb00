package openalgo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Spread_Hedger/internal/data"
	"Spread_Hedger/internal/model"
)

// gateway routes /api/v1/<endpoint> to canned JSON bodies and records the
// decoded request payloads.
type gateway struct {
	responses map[string]string
	requests  map[string]map[string]any
}

func newGateway(t *testing.T, responses map[string]string) (*gateway, *Client) {
	g := &gateway{responses: responses, requests: map[string]map[string]any{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Path[len("/api/v1/"):]
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		g.requests[endpoint] = payload

		body, ok := g.responses[endpoint]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":"error","message":"unknown endpoint"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return g, New(srv.URL, "secret", WithMarket("NFO", "NIFTY"))
}

func TestHistoryList(t *testing.T) {
	g, c := newGateway(t, map[string]string{
		"history": `{"status":"success","data":[
			{"timestamp":1764560760,"open":2,"high":3,"low":1,"close":2.5,"volume":10},
			{"timestamp":1764560700,"open":1,"high":2,"low":0.5,"close":1.5,"volume":5}
		]}`,
	})

	start := time.Date(2025, time.December, 1, 0, 0, 0, 0, IST)
	candles, err := c.History(context.Background(), "NIFTY30DEC25FUT", "NFO", "1m", start, start.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, int64(1764560700), candles[0].Time.Unix())
	assert.Equal(t, 2.5, candles[1].Close)

	req := g.requests["history"]
	assert.Equal(t, "secret", req["apikey"])
	assert.Equal(t, "2025-12-01", req["start_date"])
	assert.Equal(t, "2025-12-02", req["end_date"])
	assert.Equal(t, "1m", req["interval"])
}

func TestHistoryWrappedShortKeys(t *testing.T) {
	_, c := newGateway(t, map[string]string{
		"history": `{"status":"success","data":{"candles":[
			{"t":"2025-12-01 09:15:00","o":"100","h":"101","l":"99","c":"100.5","v":"7"}
		]}}`,
	})

	candles, err := c.History(context.Background(), "X", "NFO", "1m", time.Now(), time.Now())
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, 100.5, candles[0].Close)
	assert.Equal(t, 7.0, candles[0].Volume)
	assert.Equal(t, 9, candles[0].Time.Hour())
}

func TestHistoryEmpty(t *testing.T) {
	_, c := newGateway(t, map[string]string{"history": `{"status":"success","data":[]}`})
	_, err := c.History(context.Background(), "X", "NFO", "1m", time.Now(), time.Now())
	assert.ErrorIs(t, err, data.ErrNoData)
}

func TestAPIError(t *testing.T) {
	_, c := newGateway(t, map[string]string{"quotes": `{"status":"error","message":"Invalid openalgo apikey"}`})

	_, err := c.Quotes(context.Background(), "X", "NFO")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "quotes", apiErr.Endpoint)
	assert.Contains(t, apiErr.Error(), "Invalid openalgo apikey")

	_, err = c.Funds(context.Background())
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.HTTPStatus)
}

func TestQuotesAndLTP(t *testing.T) {
	_, c := newGateway(t, map[string]string{
		"quotes": `{"status":"success","data":{"ltp":26010.5,"prev_close":25900,"oi":1200,"bid":26010,"ask":26011}}`,
	})

	q, err := c.Quotes(context.Background(), "NIFTY30DEC25FUT", "NFO")
	require.NoError(t, err)
	assert.Equal(t, "NIFTY30DEC25FUT", q.Symbol)
	assert.Equal(t, 1200.0, q.OI)
	assert.InDelta(t, 110.5, q.Change(), 1e-9)

	ltp, err := c.LTP(context.Background(), "NIFTY30DEC25FUT")
	require.NoError(t, err)
	assert.Equal(t, 26010.5, ltp)
}

func TestLTPZeroIsError(t *testing.T) {
	_, c := newGateway(t, map[string]string{"quotes": `{"status":"success","data":{"ltp":0}}`})
	_, err := c.LTP(context.Background(), "X")
	assert.Error(t, err)
}

func TestPlaceOrder(t *testing.T) {
	g, c := newGateway(t, map[string]string{"placeorder": `{"status":"success","orderid":"250101000001"}`})

	res, err := c.PlaceOrder(context.Background(), model.MarketOrder("NIFTY30DEC2526000CE", "NFO", model.Buy, 75))
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "250101000001", res.OrderID)

	req := g.requests["placeorder"]
	assert.Equal(t, "BUY", req["action"])
	assert.Equal(t, "75", req["quantity"])
	assert.Equal(t, "MARKET", req["pricetype"])
	assert.Equal(t, "MIS", req["product"])
}

func TestPlaceOrderRejected(t *testing.T) {
	_, c := newGateway(t, map[string]string{"placeorder": `{"status":"error","message":"margin shortfall"}`})

	res, err := c.PlaceOrder(context.Background(), model.MarketOrder("X", "NFO", model.Sell, 75))
	require.Error(t, err)
	assert.False(t, res.OK())
	assert.Contains(t, res.Message, "margin shortfall")
}

func TestFunds(t *testing.T) {
	_, c := newGateway(t, map[string]string{
		"funds": `{"status":"success","data":{"availablecash":"15000.50","collateral":"0.00","utiliseddebits":"120.25"}}`,
	})

	f, err := c.Funds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "15000.5", f.AvailableCash.String())
	assert.Equal(t, "120.25", f.Utilised.String())
}

func TestResolveFuture(t *testing.T) {
	g, c := newGateway(t, map[string]string{
		"search": `{"status":"success","data":[
			{"symbol":"BANKNIFTY30DEC25FUT","exchange":"NFO"},
			{"symbol":"NIFTYNXT5030DEC25FUT","exchange":"NFO"},
			{"symbol":"NIFTY30DEC25FUT","exchange":"NFO","lotsize":75}
		]}`,
	})

	sym, err := c.ResolveFuture(context.Background(), time.Date(2025, time.December, 10, 0, 0, 0, 0, IST))
	require.NoError(t, err)
	assert.Equal(t, "NIFTY30DEC25FUT", sym)
	assert.Equal(t, "NIFTY DEC 25", g.requests["search"]["query"])
}

func TestRateLimiterHonoursContext(t *testing.T) {
	_, c := newGateway(t, map[string]string{"funds": `{"status":"success","data":{}}`})
	WithRateLimit(0, 0)(c)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Funds(ctx)
	assert.Error(t, err)
}
