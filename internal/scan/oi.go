package scan

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"Spread_Hedger/internal/model"
	"Spread_Hedger/internal/options"
	sig "Spread_Hedger/internal/signal"
)

// Quoter fetches a snapshot quote.
type Quoter interface {
	Quotes(ctx context.Context, symbol, exchange string) (model.Quote, error)
}

// OIRow is one sample of the futures open interest monitor.
type OIRow struct {
	Time    time.Time
	Price   float64
	OI      float64
	Buildup sig.Buildup
	PCR     float64
}

func (r OIRow) String() string {
	return fmt.Sprintf("%s | %9.2f | %11.0f | %-22s | %.2f",
		r.Time.Format("15:04:05"), r.Price, r.OI, r.Buildup, r.PCR)
}

// OIMonitor compares successive quotes of a future and the put/call OI
// ratio at the strike that was ATM when it started.
type OIMonitor struct {
	quotes   Quoter
	exchange string
	future   string
	step     int

	ce, pe         string
	prevPx, prevOI float64
	now            func() time.Time
}

func NewOIMonitor(q Quoter, exchange, future string, step int) *OIMonitor {
	return &OIMonitor{quotes: q, exchange: exchange, future: future, step: step, now: time.Now}
}

// Start fixes the ATM strike and the baseline price and OI.
func (m *OIMonitor) Start(ctx context.Context) (int, error) {
	q, err := m.quotes.Quotes(ctx, m.future, m.exchange)
	if err != nil {
		return 0, err
	}
	if q.LTP <= 0 {
		return 0, fmt.Errorf("no price for %s", m.future)
	}
	if m.ce, err = options.OptionSymbol(m.future, q.LTP, model.Long, 0, m.step); err != nil {
		return 0, err
	}
	if m.pe, err = options.OptionSymbol(m.future, q.LTP, model.Short, 0, m.step); err != nil {
		return 0, err
	}
	m.prevPx, m.prevOI = q.LTP, q.OI
	return options.RoundStrike(q.LTP, m.step), nil
}

// Sample takes one reading and makes it the new baseline.
func (m *OIMonitor) Sample(ctx context.Context) (OIRow, error) {
	fut, err := m.quotes.Quotes(ctx, m.future, m.exchange)
	if err != nil {
		return OIRow{}, err
	}
	ce, err := m.quotes.Quotes(ctx, m.ce, m.exchange)
	if err != nil {
		return OIRow{}, err
	}
	pe, err := m.quotes.Quotes(ctx, m.pe, m.exchange)
	if err != nil {
		return OIRow{}, err
	}

	row := OIRow{
		Time:    m.now(),
		Price:   fut.LTP,
		OI:      fut.OI,
		Buildup: sig.ClassifyBuildup(m.prevPx, fut.LTP, m.prevOI, fut.OI),
		PCR:     sig.PCR(pe.OI, ce.OI),
	}
	m.prevPx, m.prevOI = fut.LTP, fut.OI
	return row, nil
}

// Run samples every interval until ctx ends or count rows were emitted
// (count <= 0 means no limit). Failed samples are logged and skipped.
func (m *OIMonitor) Run(ctx context.Context, interval time.Duration, count int, emit func(OIRow)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 0; count <= 0 || n < count; {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		row, err := m.Sample(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warnf("[OI] sample failed: %v", err)
			continue
		}
		emit(row)
		n++
	}
	return nil
}
