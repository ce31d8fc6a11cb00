package options

// Greeks per one unit of the underlying. Theta is per calendar day, Vega
// per one volatility point.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
}

func (g Greeks) Add(o Greeks) Greeks {
	return Greeks{
		Delta: g.Delta + o.Delta,
		Gamma: g.Gamma + o.Gamma,
		Theta: g.Theta + o.Theta,
		Vega:  g.Vega + o.Vega,
	}
}

func (g Greeks) Scale(k float64) Greeks {
	return Greeks{
		Delta: g.Delta * k,
		Gamma: g.Gamma * k,
		Theta: g.Theta * k,
		Vega:  g.Vega * k,
	}
}
