package indicator

// EMA is an exponential moving average with alpha = 2/(period+1), seeded
// with the first value it sees (pandas ewm(span=period, adjust=False)).
type EMA struct {
	alpha  float64
	value  float64
	seeded bool
}

func NewEMA(period int) *EMA {
	return &EMA{alpha: 2.0 / (float64(period) + 1.0)}
}

// newWilder builds the com=period-1 smoothing used by RSI.
func newWilder(period int) *EMA {
	return &EMA{alpha: 1.0 / float64(period)}
}

func (e *EMA) Update(x float64) float64 {
	if !e.seeded {
		e.value = x
		e.seeded = true
		return e.value
	}
	e.value = e.alpha*x + (1-e.alpha)*e.value
	return e.value
}

func (e *EMA) Value() float64 {
	return e.value
}
