package model

import "strings"

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Opposite returns the side that closes a position opened with s.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderRequest is a single-leg order routed to the broker.
type OrderRequest struct {
	Symbol    string `json:"symbol"`
	Exchange  string `json:"exchange"`
	Side      Side   `json:"action"`
	Quantity  int    `json:"quantity"`
	PriceType string `json:"pricetype"`
	Product   string `json:"product"`
	Strategy  string `json:"strategy,omitempty"`
}

// MarketOrder builds an intraday (MIS) market order.
func MarketOrder(symbol, exchange string, side Side, qty int) OrderRequest {
	return OrderRequest{
		Symbol:    symbol,
		Exchange:  exchange,
		Side:      side,
		Quantity:  qty,
		PriceType: "MARKET",
		Product:   "MIS",
	}
}

type OrderResult struct {
	OrderID string `json:"orderid"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (r OrderResult) OK() bool {
	return strings.EqualFold(r.Status, "success")
}
