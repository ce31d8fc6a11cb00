package hedger

import (
	"context"
	"time"

	"Spread_Hedger/internal/model"
)

// OrderRouter places single-leg orders.
type OrderRouter interface {
	PlaceOrder(ctx context.Context, order model.OrderRequest) (model.OrderResult, error)
}

// Broker is the market data and order surface the bot trades through.
type Broker interface {
	OrderRouter
	LTP(ctx context.Context, symbol string) (float64, error)
	Candles(ctx context.Context, symbol string, days int) ([]model.Candle, error)
	ResolveFuture(ctx context.Context, month time.Time) (string, error)
}
