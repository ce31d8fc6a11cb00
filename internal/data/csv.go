package data

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"Spread_Hedger/internal/model"
)

var ErrNoData = errors.New("no candles")

type csvCandleDTO struct {
	Datetime string  `csv:"datetime"`
	Open     float64 `csv:"open"`
	High     float64 `csv:"high"`
	Low      float64 `csv:"low"`
	Close    float64 `csv:"close"`
	Volume   float64 `csv:"volume"`
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
}

// ParseTimestamp accepts unix seconds or one of the common datetime
// layouts; layouts without a zone are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).In(loc), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// ReadCandles parses a datetime,open,high,low,close,volume CSV and returns
// the candles sorted by time.
func ReadCandles(r io.Reader, loc *time.Location) ([]model.Candle, error) {
	var rows []csvCandleDTO
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal candles: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	out := make([]model.Candle, 0, len(rows))
	for i, row := range rows {
		ts, err := ParseTimestamp(row.Datetime, loc)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, model.Candle{
			Time:   ts,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func LoadCandles(path string, loc *time.Location) ([]model.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCandles(f, loc)
}

func SaveCandles(path string, candles []model.Candle) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows := make([]csvCandleDTO, 0, len(candles))
	for _, c := range candles {
		rows = append(rows, csvCandleDTO{
			Datetime: c.Time.Format("2006-01-02 15:04:05"),
			Open:     c.Open,
			High:     c.High,
			Low:      c.Low,
			Close:    c.Close,
			Volume:   c.Volume,
		})
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("failed to marshal candles: %w", err)
	}
	return nil
}
