package data

import (
	"context"

	"Spread_Hedger/internal/model"
)

type quoteRequest struct {
	quote   model.Quote
	symbol  string
	replyCh chan model.Quote
	snapCh  chan map[string]model.Quote
	action  string // "set", "get" or "snapshot"
}

// QuoteStore owns the latest quote per symbol. A single goroutine serves
// every read and write, so callers never share the map.
type QuoteStore struct {
	requests chan quoteRequest
	done     chan struct{}
}

func NewQuoteStore(ctx context.Context) *QuoteStore {
	s := &QuoteStore{
		requests: make(chan quoteRequest, 1000),
		done:     make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *QuoteStore) run(ctx context.Context) {
	defer close(s.done)
	quotes := make(map[string]model.Quote)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.requests:
			switch req.action {
			case "set":
				prev := quotes[req.quote.Symbol]
				q := req.quote
				// partial ticks only carry the fields that changed
				if q.LTP == 0 {
					q.LTP = prev.LTP
				}
				if q.OI == 0 {
					q.OI = prev.OI
				}
				if q.PrevClose == 0 {
					q.PrevClose = prev.PrevClose
				}
				if q.Bid == 0 {
					q.Bid = prev.Bid
				}
				if q.Ask == 0 {
					q.Ask = prev.Ask
				}
				quotes[q.Symbol] = q
			case "get":
				req.replyCh <- quotes[req.symbol]
			case "snapshot":
				snapshot := make(map[string]model.Quote, len(quotes))
				for k, v := range quotes {
					snapshot[k] = v
				}
				req.snapCh <- snapshot
			}
		}
	}
}

// Set stores q; it is dropped once the store has stopped.
func (s *QuoteStore) Set(q model.Quote) {
	select {
	case s.requests <- quoteRequest{quote: q, action: "set"}:
	case <-s.done:
	}
}

// Get returns the latest quote of symbol; ok is false when none is known.
func (s *QuoteStore) Get(symbol string) (model.Quote, bool) {
	ch := make(chan model.Quote, 1)
	select {
	case s.requests <- quoteRequest{symbol: symbol, replyCh: ch, action: "get"}:
	case <-s.done:
		return model.Quote{}, false
	}
	select {
	case q := <-ch:
		return q, q.Symbol != ""
	case <-s.done:
		return model.Quote{}, false
	}
}

func (s *QuoteStore) Snapshot() map[string]model.Quote {
	ch := make(chan map[string]model.Quote, 1)
	select {
	case s.requests <- quoteRequest{snapCh: ch, action: "snapshot"}:
	case <-s.done:
		return nil
	}
	select {
	case m := <-ch:
		return m
	case <-s.done:
		return nil
	}
}

// Done is closed when the store's goroutine has exited.
func (s *QuoteStore) Done() <-chan struct{} {
	return s.done
}
