package data

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"Spread_Hedger/internal/model"
	"Spread_Hedger/internal/options"
)

// Fetcher downloads historical bars of one contract; end is exclusive.
type Fetcher interface {
	History(ctx context.Context, symbol, exchange, interval string, start, end time.Time) ([]model.Candle, error)
}

// Resolver finds the monthly futures contract trading in month.
type Resolver interface {
	ResolveFuture(ctx context.Context, month time.Time) (string, error)
}

type StitchRequest struct {
	Prefix   string
	Exchange string
	Interval string
	Days     int
	Now      time.Time
}

// monthsBetween lists the first day of every month touched by [start, end].
func monthsBetween(start, end time.Time) []time.Time {
	var out []time.Time
	m := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
	for !m.After(end) {
		out = append(out, m)
		m = m.AddDate(0, 1, 0)
	}
	return out
}

// Stitch builds a continuous series out of consecutive monthly futures
// contracts. Each contract covers the day after the previous expiry up to
// its own expiry, clipped to the requested window.
func Stitch(ctx context.Context, f Fetcher, r Resolver, req StitchRequest) ([]model.Candle, error) {
	end := req.Now
	start := end.AddDate(0, 0, -req.Days)
	loc := end.Location()

	log.Infof("[STITCH] last %d days (%s to %s)", req.Days, start.Format("2006-01-02"), end.Format("2006-01-02"))

	var all []model.Candle
	var lastExpiry time.Time

	for _, month := range monthsBetween(start, end) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		symbol, err := r.ResolveFuture(ctx, month)
		if err != nil {
			log.Warnf("[STITCH] skipping %s: %v", month.Format("Jan 2006"), err)
			continue
		}

		expiry, err := options.ParseFutureExpiry(symbol, req.Prefix)
		if err != nil {
			log.Warnf("[STITCH] skipping %s: %v", symbol, err)
			continue
		}
		expiry = time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, loc)

		fetchEnd := expiry.Add(24*time.Hour - time.Nanosecond)
		if end.Before(fetchEnd) {
			fetchEnd = end
		}
		fetchStart := start
		if !lastExpiry.IsZero() {
			if next := lastExpiry.AddDate(0, 0, 1); next.After(fetchStart) {
				fetchStart = next
			}
		}
		lastExpiry = expiry

		if !fetchStart.Before(fetchEnd) {
			continue
		}

		log.Infof("[STITCH] fetching %s:%s from %s to %s", req.Exchange, symbol, fetchStart.Format("2006-01-02"), fetchEnd.Format("2006-01-02"))
		candles, err := f.History(ctx, symbol, req.Exchange, req.Interval, fetchStart, fetchEnd.AddDate(0, 0, 1))
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			log.Warnf("[STITCH] error fetching %s: %v", symbol, err)
			continue
		}

		n := 0
		for _, c := range candles {
			if c.Time.Before(fetchStart) || c.Time.After(fetchEnd) {
				continue
			}
			all = append(all, c)
			n++
		}
		log.Infof("[STITCH]   -> got %d rows", n)
	}

	if len(all) == 0 {
		return nil, ErrNoData
	}
	out := Dedupe(all)
	log.Infof("[STITCH] total stitched data: %d rows", len(out))
	return out, nil
}

// Dedupe sorts candles by time and keeps the first bar of each timestamp.
func Dedupe(candles []model.Candle) []model.Candle {
	sort.SliceStable(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	out := candles[:0:0]
	for i, c := range candles {
		if i > 0 && c.Time.Equal(candles[i-1].Time) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Describe is a one-line summary used in logs and reports.
func Describe(candles []model.Candle) string {
	if len(candles) == 0 {
		return "no candles"
	}
	return fmt.Sprintf("%d candles %s .. %s", len(candles),
		candles[0].Time.Format("2006-01-02 15:04"), candles[len(candles)-1].Time.Format("2006-01-02 15:04"))
}
