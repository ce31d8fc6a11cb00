package indicator

// RSI is the Wilder relative strength index, smoothing gains and losses
// with ewm(com=period-1, adjust=False).
type RSI struct {
	gain    *EMA
	loss    *EMA
	prev    float64
	hasPrev bool
	value   float64
}

func NewRSI(period int) *RSI {
	return &RSI{
		gain: newWilder(period),
		loss: newWilder(period),
	}
}

// Update returns 0 until the first price change is known.
func (r *RSI) Update(close float64) float64 {
	if !r.hasPrev {
		r.prev = close
		r.hasPrev = true
		return 0
	}
	delta := close - r.prev
	r.prev = close

	up, down := 0.0, 0.0
	if delta > 0 {
		up = delta
	} else {
		down = -delta
	}
	avgGain := r.gain.Update(up)
	avgLoss := r.loss.Update(down)

	switch {
	case avgLoss == 0 && avgGain == 0:
		r.value = 50
	case avgLoss == 0:
		r.value = 100
	default:
		rs := avgGain / avgLoss
		r.value = 100 - 100/(1+rs)
	}
	return r.value
}

func (r *RSI) Value() float64 {
	return r.value
}

// RSIKind picks how gains and losses are averaged.
type RSIKind int

const (
	// WilderRSI smooths with alpha 1/period.
	WilderRSI RSIKind = iota
	// SMARSI takes a plain rolling mean over the last period bars.
	SMARSI
)

func (k RSIKind) String() string {
	if k == SMARSI {
		return "sma"
	}
	return "wilder"
}

// ParseRSIKind accepts "wilder" or "sma".
func ParseRSIKind(s string) (RSIKind, bool) {
	switch s {
	case "wilder", "":
		return WilderRSI, true
	case "sma":
		return SMARSI, true
	}
	return WilderRSI, false
}

// RollingRSI averages gains and losses over a fixed window. The first bar
// has no change and counts as a zero gain and zero loss.
type RollingRSI struct {
	period  int
	gains   []float64
	losses  []float64
	prev    float64
	hasPrev bool
	value   float64
}

func NewSMARSI(period int) *RollingRSI {
	if period < 1 {
		period = 1
	}
	return &RollingRSI{period: period}
}

// Update returns 0 until period bars have been seen.
func (r *RollingRSI) Update(close float64) float64 {
	up, down := 0.0, 0.0
	if r.hasPrev {
		if delta := close - r.prev; delta > 0 {
			up = delta
		} else {
			down = -delta
		}
	}
	r.prev, r.hasPrev = close, true

	r.gains = append(r.gains, up)
	r.losses = append(r.losses, down)
	if len(r.gains) > r.period {
		r.gains = r.gains[1:]
		r.losses = r.losses[1:]
	}
	if len(r.gains) < r.period {
		return 0
	}

	var avgGain, avgLoss float64
	for i := range r.gains {
		avgGain += r.gains[i]
		avgLoss += r.losses[i]
	}
	avgGain /= float64(r.period)
	avgLoss /= float64(r.period)

	switch {
	case avgLoss == 0 && avgGain == 0:
		r.value = 50
	case avgLoss == 0:
		r.value = 100
	default:
		r.value = 100 - 100/(1+avgGain/avgLoss)
	}
	return r.value
}

func (r *RollingRSI) Value() float64 {
	return r.value
}

type rsiUpdater interface {
	Update(close float64) float64
}

func newRSIOf(kind RSIKind, period int) rsiUpdater {
	if kind == SMARSI {
		return NewSMARSI(period)
	}
	return NewRSI(period)
}
