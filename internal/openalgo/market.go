package openalgo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"Spread_Hedger/internal/config"
	"Spread_Hedger/internal/data"
	"Spread_Hedger/internal/model"
	"Spread_Hedger/internal/options"
)

// IST is the exchange time zone; candle timestamps are reported in it.
var IST = config.IST

// History returns bars of symbol between start and end (dates, end
// exclusive on the gateway side).
func (c *Client) History(ctx context.Context, symbol, exchange, interval string, start, end time.Time) ([]model.Candle, error) {
	env, err := c.post(ctx, "history", map[string]any{
		"symbol":     symbol,
		"exchange":   exchange,
		"interval":   interval,
		"start_date": start.Format("2006-01-02"),
		"end_date":   end.Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}
	candles, err := parseCandles(env.Data)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}
	return candles, nil
}

// parseCandles accepts either a bare list or {"candles": [...]}, with short
// (o/h/l/c/v/t) or long column names.
func parseCandles(raw json.RawMessage) ([]model.Candle, error) {
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		var wrapped struct {
			Candles []map[string]any `json:"candles"`
		}
		if err2 := json.Unmarshal(raw, &wrapped); err2 != nil {
			return nil, fmt.Errorf("unexpected history payload: %w", err)
		}
		rows = wrapped.Candles
	}
	if len(rows) == 0 {
		return nil, data.ErrNoData
	}

	out := make([]model.Candle, 0, len(rows))
	for i, row := range rows {
		ts, err := parseTime(pick(row, "timestamp", "t", "time", "datetime", "date"))
		if err != nil {
			return nil, fmt.Errorf("candle %d: %w", i, err)
		}
		out = append(out, model.Candle{
			Time:   ts,
			Open:   number(pick(row, "open", "o")),
			High:   number(pick(row, "high", "h")),
			Low:    number(pick(row, "low", "l")),
			Close:  number(pick(row, "close", "c")),
			Volume: number(pick(row, "volume", "v")),
		})
	}
	return data.Dedupe(out), nil
}

func pick(row map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func number(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	case json.Number:
		f, _ := x.Float64()
		return f
	}
	return 0
}

// parseTime reads epoch seconds (milliseconds when large) or a datetime
// string.
func parseTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case float64:
		secs := int64(x)
		if math.Abs(x) > 1e12 {
			return time.UnixMilli(secs).In(IST), nil
		}
		return time.Unix(secs, 0).In(IST), nil
	case string:
		return data.ParseTimestamp(x, IST)
	}
	return time.Time{}, fmt.Errorf("missing timestamp")
}

type quoteDTO struct {
	LTP       float64 `json:"ltp"`
	PrevClose float64 `json:"prev_close"`
	OI        float64 `json:"oi"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
}

func (c *Client) Quotes(ctx context.Context, symbol, exchange string) (model.Quote, error) {
	env, err := c.post(ctx, "quotes", map[string]any{"symbol": symbol, "exchange": exchange})
	if err != nil {
		return model.Quote{}, err
	}
	var q quoteDTO
	if err := json.Unmarshal(env.Data, &q); err != nil {
		return model.Quote{}, fmt.Errorf("failed to decode quote of %s: %w", symbol, err)
	}
	return model.Quote{
		Symbol:    symbol,
		LTP:       q.LTP,
		PrevClose: q.PrevClose,
		OI:        q.OI,
		Bid:       q.Bid,
		Ask:       q.Ask,
		Time:      time.Now().In(IST),
	}, nil
}

type Instrument struct {
	Symbol         string  `json:"symbol"`
	BrokerSymbol   string  `json:"brsymbol"`
	Name           string  `json:"name"`
	Exchange       string  `json:"exchange"`
	Expiry         string  `json:"expiry"`
	Strike         float64 `json:"strike"`
	LotSize        int     `json:"lotsize"`
	InstrumentType string  `json:"instrumenttype"`
}

func (c *Client) Search(ctx context.Context, query, exchange string) ([]Instrument, error) {
	env, err := c.post(ctx, "search", map[string]any{"query": query, "exchange": exchange})
	if err != nil {
		return nil, err
	}
	var out []Instrument
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}
	return out, nil
}

// PlaceOrder submits a single-leg order. The gateway reports the order id
// at the top level of the response.
func (c *Client) PlaceOrder(ctx context.Context, order model.OrderRequest) (model.OrderResult, error) {
	payload := map[string]any{
		"symbol":    order.Symbol,
		"exchange":  order.Exchange,
		"action":    string(order.Side),
		"quantity":  strconv.Itoa(order.Quantity),
		"pricetype": order.PriceType,
		"product":   order.Product,
	}
	if order.Strategy != "" {
		payload["strategy"] = order.Strategy
	}
	env, err := c.post(ctx, "placeorder", payload)
	if err != nil {
		return model.OrderResult{Status: "error", Message: err.Error()}, err
	}
	id := env.OrderID
	if id == "" && len(env.Data) > 0 {
		var nested struct {
			OrderID string `json:"orderid"`
		}
		if json.Unmarshal(env.Data, &nested) == nil {
			id = nested.OrderID
		}
	}
	return model.OrderResult{OrderID: id, Status: env.Status, Message: env.Message}, nil
}

// Funds is the account margin summary; the gateway sends amounts as
// strings.
type Funds struct {
	AvailableCash decimal.Decimal `json:"availablecash"`
	Collateral    decimal.Decimal `json:"collateral"`
	Realized      decimal.Decimal `json:"m2mrealized"`
	Unrealized    decimal.Decimal `json:"m2munrealized"`
	Utilised      decimal.Decimal `json:"utiliseddebits"`
}

func (c *Client) Funds(ctx context.Context) (Funds, error) {
	env, err := c.post(ctx, "funds", nil)
	if err != nil {
		return Funds{}, err
	}
	var f Funds
	if err := json.Unmarshal(env.Data, &f); err != nil {
		return Funds{}, fmt.Errorf("failed to decode funds: %w", err)
	}
	return f, nil
}

// LTP is the last traded price of symbol on the configured exchange.
func (c *Client) LTP(ctx context.Context, symbol string) (float64, error) {
	q, err := c.Quotes(ctx, symbol, c.exchange)
	if err != nil {
		return 0, err
	}
	if q.LTP <= 0 {
		return 0, fmt.Errorf("no LTP for %s", symbol)
	}
	return q.LTP, nil
}

// Candles fetches the last days of 1-minute bars of symbol.
func (c *Client) Candles(ctx context.Context, symbol string, days int) ([]model.Candle, error) {
	now := time.Now().In(IST)
	return c.History(ctx, symbol, c.exchange, "1m", now.AddDate(0, 0, -days), now.AddDate(0, 0, 1))
}

// ResolveFuture searches the monthly futures contract of month.
func (c *Client) ResolveFuture(ctx context.Context, month time.Time) (string, error) {
	results, err := c.Search(ctx, options.MonthQuery(c.prefix, month), c.exchange)
	if err != nil {
		return "", err
	}
	symbols := make([]string, 0, len(results))
	for _, r := range results {
		symbols = append(symbols, r.Symbol)
	}
	return options.ResolveFuture(symbols, c.prefix, month)
}
