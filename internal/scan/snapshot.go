package scan

import (
	"fmt"

	"Spread_Hedger/internal/data"
	"Spread_Hedger/internal/indicator"
	"Spread_Hedger/internal/model"
	sig "Spread_Hedger/internal/signal"
)

// Snapshot is the indicator picture of the last bar.
type Snapshot struct {
	Reading  sig.Reading
	Chop     float64
	ChopOK   bool
	Regime   sig.Regime
	Bands    indicator.BollingerBandsStats
	BandsOK  bool
	VWAP     float64
	Bars     int
	LastTime string
}

type Options struct {
	ChopPeriod int
	BBPeriod   int
	BBDev      float64
}

func DefaultOptions() Options {
	return Options{ChopPeriod: 14, BBPeriod: 20, BBDev: 2}
}

// Take evaluates the confluence signal and the regime indicators over
// candles. It fails on an empty series.
func Take(candles []model.Candle, conf sig.Confluence, opts Options) (Snapshot, error) {
	reading, ok := conf.Latest(candles)
	if !ok {
		return Snapshot{}, data.ErrNoData
	}

	s := Snapshot{Reading: reading, Regime: sig.RegimeUnknown, Bars: len(candles)}
	chop := indicator.NewChoppiness(opts.ChopPeriod)
	bb := indicator.NewBollingerBands(opts.BBPeriod, opts.BBDev)
	vwap := indicator.NewVWAP()
	for _, c := range candles {
		s.ChopOK, s.Chop = chop.Update(c)
		ok, bands, err := bb.Update(c.Close)
		if err != nil {
			return Snapshot{}, err
		}
		s.BandsOK, s.Bands = ok, bands
		s.VWAP = vwap.Update(c)
	}
	if s.ChopOK {
		s.Regime = sig.ClassifyRegime(s.Chop)
	}
	s.LastTime = candles[len(candles)-1].Time.Format("2006-01-02 15:04")
	return s, nil
}

// Lines renders the snapshot for the terminal; a flat reading lists why
// each leg of the confluence did not line up.
func (s Snapshot) Lines(conf sig.Confluence) []string {
	r := s.Reading
	out := []string{
		fmt.Sprintf("Bar: %s (%d bars)", s.LastTime, s.Bars),
		fmt.Sprintf("LTP: %.2f", r.Close),
		fmt.Sprintf("EMA(%d): %.2f", conf.Params.EMA, r.EMA),
		fmt.Sprintf("RSI(%d): %.2f", conf.Params.RSI, r.RSI),
		fmt.Sprintf("MACD: %.2f / Sig: %.2f", r.MACD, r.Signal),
		fmt.Sprintf("VWAP: %.2f", s.VWAP),
	}
	if s.BandsOK {
		out = append(out, fmt.Sprintf("BB: %.2f / %.2f / %.2f", s.Bands.Lower, s.Bands.Mid, s.Bands.Upper))
	}
	if s.ChopOK {
		out = append(out, fmt.Sprintf("Choppiness: %.2f (%s)", s.Chop, s.Regime))
	}

	if r.Direction != model.Flat {
		out = append(out, fmt.Sprintf("SIGNAL: %s", r.Direction))
		return out
	}
	out = append(out, "SIGNAL: NONE")
	for _, reason := range r.Explain(conf) {
		out = append(out, "  "+reason)
	}
	return out
}
