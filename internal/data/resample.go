package data

import (
	"math"
	"time"

	"Spread_Hedger/internal/model"
)

// Resample aggregates candles into buckets of width d aligned to the
// clock: first open, max high, min low, last close, summed volume. Empty
// buckets produce no bar. Input must be sorted.
func Resample(candles []model.Candle, d time.Duration) []model.Candle {
	if d <= 0 || len(candles) == 0 {
		return candles
	}

	var out []model.Candle
	var cur model.Candle
	var bucket time.Time
	open := false

	for _, c := range candles {
		b := floorTime(c.Time, d)
		if !open || !b.Equal(bucket) {
			if open {
				out = append(out, cur)
			}
			bucket = b
			cur = model.Candle{Time: b, Open: c.Open, High: c.High, Low: c.Low, Close: c.Close, Volume: c.Volume}
			open = true
			continue
		}
		cur.High = math.Max(cur.High, c.High)
		cur.Low = math.Min(cur.Low, c.Low)
		cur.Close = c.Close
		cur.Volume += c.Volume
	}
	if open {
		out = append(out, cur)
	}
	return out
}

// floorTime truncates in t's own location so buckets follow exchange time.
func floorTime(t time.Time, d time.Duration) time.Time {
	_, offset := t.Zone()
	shift := time.Duration(offset) * time.Second
	return t.Add(shift).Truncate(d).Add(-shift)
}

// BetweenTime keeps candles whose wall clock lies in [start, end] minutes
// after midnight, inclusive at both ends.
func BetweenTime(candles []model.Candle, start, end int) []model.Candle {
	var out []model.Candle
	for _, c := range candles {
		m := c.Time.Hour()*60 + c.Time.Minute()
		if m >= start && m <= end {
			out = append(out, c)
		}
	}
	return out
}

// Day is the candles of one calendar date.
type Day struct {
	Date    time.Time
	Candles []model.Candle
}

// GroupByDay splits sorted candles by calendar date.
func GroupByDay(candles []model.Candle) []Day {
	var days []Day
	for _, c := range candles {
		y, m, d := c.Time.Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, c.Time.Location())
		if n := len(days); n > 0 && days[n-1].Date.Equal(date) {
			days[n-1].Candles = append(days[n-1].Candles, c)
			continue
		}
		days = append(days, Day{Date: date, Candles: []model.Candle{c}})
	}
	return days
}
