package fix

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/fix44/newordersingle"
	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"Spread_Hedger/internal/model"
)

var ErrNotLoggedOn = errors.New("fix session not logged on")

func fixSide(s model.Side) enum.Side {
	if s == model.Sell {
		return enum.Side_SELL
	}
	return enum.Side_BUY
}

// PlaceOrder sends a MARKET NewOrderSingle and waits for the execution
// report that fills or rejects it.
func (r *Router) PlaceOrder(ctx context.Context, order model.OrderRequest) (model.OrderResult, error) {
	r.mu.Lock()
	session := r.session
	r.mu.Unlock()
	if session == nil {
		return model.OrderResult{Status: "error", Message: ErrNotLoggedOn.Error()}, ErrNotLoggedOn
	}

	clOrdID := uuid.NewString()
	msg := newordersingle.New(
		field.NewClOrdID(clOrdID),
		field.NewSide(fixSide(order.Side)),
		field.NewTransactTime(time.Now()),
		field.NewOrdType(enum.OrdType_MARKET),
	)
	msg.Set(field.NewSymbol(order.Symbol))
	msg.Set(field.NewSecurityExchange(order.Exchange))
	msg.Set(field.NewOrderQty(decimal.NewFromInt(int64(order.Quantity)), 0))
	msg.Set(field.NewTimeInForce(enum.TimeInForce_DAY))

	done := make(chan model.OrderResult, 1)
	r.mu.Lock()
	r.pending[clOrdID] = done
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, clOrdID)
		r.mu.Unlock()
	}()

	if err := r.send(msg, *session); err != nil {
		log.Errorf("[FIX] SendOrder error: %v", err)
		return model.OrderResult{Status: "error", Message: err.Error()}, err
	}
	log.Infof("[FIX] Sent %s %s x%d ClOrdID=%s", order.Side, order.Symbol, order.Quantity, clOrdID)

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()
	select {
	case res := <-done:
		if !res.OK() {
			return res, fmt.Errorf("order %s rejected: %s", clOrdID, res.Message)
		}
		return res, nil
	case <-timer.C:
		return model.OrderResult{OrderID: clOrdID, Status: "error", Message: "no execution report"},
			fmt.Errorf("order %s: no execution report within %s", clOrdID, r.timeout)
	case <-ctx.Done():
		return model.OrderResult{OrderID: clOrdID, Status: "error", Message: ctx.Err().Error()}, ctx.Err()
	}
}

// onExecutionReport resolves the pending order on a terminal status.
func (r *Router) onExecutionReport(msg *quickfix.Message) {
	clOrdID, _ := msg.Body.GetString(quickfix.Tag(11))
	orderID, _ := msg.Body.GetString(quickfix.Tag(37))
	status, _ := msg.Body.GetString(quickfix.Tag(39))
	text, _ := msg.Body.GetString(quickfix.Tag(58))

	var res model.OrderResult
	switch enum.OrdStatus(status) {
	case enum.OrdStatus_FILLED:
		res = model.OrderResult{OrderID: orderID, Status: "success"}
	case enum.OrdStatus_REJECTED, enum.OrdStatus_CANCELED, enum.OrdStatus_EXPIRED:
		if text == "" {
			text = "order status " + status
		}
		res = model.OrderResult{OrderID: orderID, Status: "error", Message: text}
	default:
		log.Debugf("[FIX] ExecutionReport ClOrdID=%s OrdStatus=%s", clOrdID, status)
		return
	}

	r.mu.Lock()
	ch, ok := r.pending[clOrdID]
	r.mu.Unlock()
	if !ok {
		log.Warnf("[FIX] ExecutionReport for unknown ClOrdID=%s", clOrdID)
		return
	}
	select {
	case ch <- res:
	default:
	}
}

// LTP serves the last price seen on the market data feed.
func (r *Router) LTP(_ context.Context, symbol string) (float64, error) {
	if r.quotes == nil {
		return 0, fmt.Errorf("no quote store")
	}
	q, ok := r.quotes.Get(symbol)
	if !ok || q.LTP <= 0 {
		return 0, fmt.Errorf("no LTP for %s", symbol)
	}
	return q.LTP, nil
}
