package fix

import (
	"time"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/fix44/marketdataincrementalrefresh"
	"github.com/quickfixgo/fix44/marketdatasnapshotfullrefresh"
	"github.com/quickfixgo/quickfix"
	log "github.com/sirupsen/logrus"

	"Spread_Hedger/internal/model"
)

type mdEntry struct {
	Type   enum.MDEntryType
	Price  float64
	Size   float64
	Delete bool
}

// quoteFromEntries folds snapshot or incremental entries into a quote: the
// highest bid, the lowest offer and the last trade.
func quoteFromEntries(symbol string, entries []mdEntry) model.Quote {
	q := model.Quote{Symbol: symbol, Time: time.Now()}
	for _, e := range entries {
		if e.Delete || e.Price <= 0 {
			continue
		}
		switch e.Type {
		case enum.MDEntryType_BID:
			if e.Price > q.Bid {
				q.Bid = e.Price
			}
		case enum.MDEntryType_OFFER:
			if q.Ask == 0 || e.Price < q.Ask {
				q.Ask = e.Price
			}
		case enum.MDEntryType_TRADE:
			q.LTP = e.Price
		case enum.MDEntryType_OPEN_INTEREST:
			q.OI = e.Size
		}
	}
	return q
}

func (r *Router) onMarketData(msg *quickfix.Message, msgType string) {
	symbol, entries := parseEntries(msg, msgType)
	if symbol == "" || len(entries) == 0 {
		return
	}
	q := quoteFromEntries(symbol, entries)
	log.Debugf("[FIX] %s %s LTP=%.2f Bid=%.2f Ask=%.2f", msgType, symbol, q.LTP, q.Bid, q.Ask)
	if r.quotes != nil {
		r.quotes.Set(q)
	}
}

func parseEntries(msg *quickfix.Message, msgType string) (string, []mdEntry) {
	var symbol string
	var entries []mdEntry

	switch msgType {
	case "W":
		snap := marketdatasnapshotfullrefresh.FromMessage(msg)
		symField := new(field.SymbolField)
		if err := snap.Get(symField); err == nil {
			symbol = symField.Value()
		}
		group, err := snap.GetNoMDEntries()
		if err != nil {
			return symbol, nil
		}
		for i := 0; i < group.Len(); i++ {
			entry := group.Get(i)
			etype := new(field.MDEntryTypeField)
			price := new(field.MDEntryPxField)
			if entry.Get(etype) != nil || entry.Get(price) != nil {
				continue
			}
			e := mdEntry{Type: etype.Value()}
			e.Price, _ = price.Value().Float64()
			size := new(field.MDEntrySizeField)
			if entry.Get(size) == nil {
				e.Size, _ = size.Value().Float64()
			}
			entries = append(entries, e)
		}

	case "X":
		incr := marketdataincrementalrefresh.FromMessage(msg)
		group, err := incr.GetNoMDEntries()
		if err != nil {
			return "", nil
		}
		for i := 0; i < group.Len(); i++ {
			entry := group.Get(i)
			etype := new(field.MDEntryTypeField)
			price := new(field.MDEntryPxField)
			if entry.Get(etype) != nil || entry.Get(price) != nil {
				continue
			}
			if symbol == "" {
				var entrySym quickfix.FIXString
				if err := entry.GetField(quickfix.Tag(55), &entrySym); err == nil {
					symbol = entrySym.String()
				}
			}
			e := mdEntry{Type: etype.Value()}
			e.Price, _ = price.Value().Float64()
			action := new(field.MDUpdateActionField)
			if entry.Get(action) == nil && action.Value() == enum.MDUpdateAction_DELETE {
				e.Delete = true
			}
			entries = append(entries, e)
		}
	}
	return symbol, entries
}
