package options

import "math"

// BlackScholes prices European options on the underlying.
type BlackScholes struct {
	Rate float64 // annual risk-free rate
	Vol  float64 // annual implied volatility
}

func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

func intrinsic(right Right, spot, strike float64) float64 {
	if right == Call {
		return math.Max(spot-strike, 0)
	}
	return math.Max(strike-spot, 0)
}

func (bs BlackScholes) d1d2(spot, strike, years float64) (float64, float64) {
	sq := bs.Vol * math.Sqrt(years)
	d1 := (math.Log(spot/strike) + (bs.Rate+0.5*bs.Vol*bs.Vol)*years) / sq
	return d1, d1 - sq
}

// Price of one option with years to expiry. At or past expiry the option
// is worth its intrinsic value.
func (bs BlackScholes) Price(right Right, spot, strike, years float64) float64 {
	if years <= 0 || bs.Vol <= 0 {
		return intrinsic(right, spot, strike)
	}
	d1, d2 := bs.d1d2(spot, strike, years)
	disc := strike * math.Exp(-bs.Rate*years)
	if right == Call {
		return spot*normCDF(d1) - disc*normCDF(d2)
	}
	return disc*normCDF(-d2) - spot*normCDF(-d1)
}

func (bs BlackScholes) Greeks(right Right, spot, strike, years float64) Greeks {
	if years <= 0 || bs.Vol <= 0 {
		var delta float64
		switch {
		case right == Call && spot > strike:
			delta = 1
		case right == Put && spot < strike:
			delta = -1
		}
		return Greeks{Delta: delta}
	}

	d1, d2 := bs.d1d2(spot, strike, years)
	sqrtT := math.Sqrt(years)
	disc := math.Exp(-bs.Rate * years)
	pdf := normPDF(d1)

	g := Greeks{
		Gamma: pdf / (spot * bs.Vol * sqrtT),
		Vega:  spot * pdf * sqrtT / 100,
	}
	decay := -spot * pdf * bs.Vol / (2 * sqrtT)
	if right == Call {
		g.Delta = normCDF(d1)
		g.Theta = (decay - bs.Rate*strike*disc*normCDF(d2)) / 365
	} else {
		g.Delta = normCDF(d1) - 1
		g.Theta = (decay + bs.Rate*strike*disc*normCDF(-d2)) / 365
	}
	return g
}
