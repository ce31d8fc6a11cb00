package model

import "time"

// Candle is one OHLCV bar of the underlying future.
type Candle struct {
	Time   time.Time `csv:"datetime"`
	Open   float64   `csv:"open"`
	High   float64   `csv:"high"`
	Low    float64   `csv:"low"`
	Close  float64   `csv:"close"`
	Volume float64   `csv:"volume"`
}

// TypicalPrice is (high + low + close) / 3.
func (c Candle) TypicalPrice() float64 {
	return (c.High + c.Low + c.Close) / 3.0
}
