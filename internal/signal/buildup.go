package signal

// Buildup classifies the joint move of futures price and open interest.
type Buildup string

const (
	Neutral       Buildup = "Neutral"
	LongBuildup   Buildup = "Long Buildup (Bull)"
	ShortBuildup  Buildup = "Short Buildup (Bear)"
	LongUnwind    Buildup = "Long Unwind (Weak)"
	ShortCovering Buildup = "Short Covering (Bull)"
)

func ClassifyBuildup(prevPrice, price, prevOI, oi float64) Buildup {
	switch {
	case price > prevPrice && oi > prevOI:
		return LongBuildup
	case price < prevPrice && oi > prevOI:
		return ShortBuildup
	case price < prevPrice && oi < prevOI:
		return LongUnwind
	case price > prevPrice && oi < prevOI:
		return ShortCovering
	default:
		return Neutral
	}
}

// PCR is the put/call open interest ratio; zero when call OI is zero.
func PCR(putOI, callOI float64) float64 {
	if callOI <= 0 {
		return 0
	}
	return putOI / callOI
}
