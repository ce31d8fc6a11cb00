package indicator

type MACDValue struct {
	Line      float64
	Signal    float64
	Histogram float64
}

// MACD is EMA(fast) - EMA(slow) with an EMA(signal) of the difference.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA
	value  MACDValue
}

func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: NewEMA(signal),
	}
}

func (m *MACD) Update(close float64) MACDValue {
	line := m.fast.Update(close) - m.slow.Update(close)
	sig := m.signal.Update(line)
	m.value = MACDValue{Line: line, Signal: sig, Histogram: line - sig}
	return m.value
}

func (m *MACD) Value() MACDValue {
	return m.value
}
