package signal

type Regime string

const (
	RegimeUnknown Regime = "UNKNOWN"
	RegimeTrend   Regime = "TREND"
	RegimeRange   Regime = "RANGE"
)

// ClassifyRegime maps a choppiness reading to a market regime.
func ClassifyRegime(chop float64) Regime {
	switch {
	case chop < 45:
		return RegimeTrend
	case chop > 55:
		return RegimeRange
	default:
		return RegimeUnknown
	}
}
