package options

import (
	"fmt"
	"math"
	"sort"
)

// Leg is one option position inside a structure. Qty is positive for
// bought options and negative for sold ones.
type Leg struct {
	Right   Right
	Strike  float64
	Qty     int
	Days    float64 // days to this leg's expiry at entry
	Premium float64 // per unit, filled by Structure.Price
}

// Structure is a multi-leg options position.
type Structure struct {
	Name string
	Legs []Leg
}

func BullCallSpread(atm, width, days float64) Structure {
	return Structure{Name: "bull_call_spread", Legs: []Leg{
		{Right: Call, Strike: atm, Qty: 1, Days: days},
		{Right: Call, Strike: atm + width, Qty: -1, Days: days},
	}}
}

func BearPutSpread(atm, width, days float64) Structure {
	return Structure{Name: "bear_put_spread", Legs: []Leg{
		{Right: Put, Strike: atm, Qty: 1, Days: days},
		{Right: Put, Strike: atm - width, Qty: -1, Days: days},
	}}
}

func LongStraddle(atm, days float64) Structure {
	return Structure{Name: "long_straddle", Legs: []Leg{
		{Right: Call, Strike: atm, Qty: 1, Days: days},
		{Right: Put, Strike: atm, Qty: 1, Days: days},
	}}
}

func ShortStraddle(atm, days float64) Structure {
	return Structure{Name: "short_straddle", Legs: []Leg{
		{Right: Call, Strike: atm, Qty: -1, Days: days},
		{Right: Put, Strike: atm, Qty: -1, Days: days},
	}}
}

func ShortStrangle(atm, width, days float64) Structure {
	return Structure{Name: "short_strangle", Legs: []Leg{
		{Right: Call, Strike: atm + width, Qty: -1, Days: days},
		{Right: Put, Strike: atm - width, Qty: -1, Days: days},
	}}
}

// IronButterfly is a short straddle with long wings at atm±wing.
func IronButterfly(atm, wing, days float64) Structure {
	return Structure{Name: "iron_butterfly", Legs: []Leg{
		{Right: Call, Strike: atm, Qty: -1, Days: days},
		{Right: Put, Strike: atm, Qty: -1, Days: days},
		{Right: Call, Strike: atm + wing, Qty: 1, Days: days},
		{Right: Put, Strike: atm - wing, Qty: 1, Days: days},
	}}
}

// CalendarSpread sells the near expiry and buys the far one at one strike.
func CalendarSpread(atm float64, right Right, nearDays, farDays float64) Structure {
	return Structure{Name: "calendar_spread", Legs: []Leg{
		{Right: right, Strike: atm, Qty: -1, Days: nearDays},
		{Right: right, Strike: atm, Qty: 1, Days: farDays},
	}}
}

// Price fills every leg's premium from the model at spot.
func (s Structure) Price(bs BlackScholes, spot float64) Structure {
	legs := make([]Leg, len(s.Legs))
	for i, l := range s.Legs {
		l.Premium = bs.Price(l.Right, spot, l.Strike, l.Days/365)
		legs[i] = l
	}
	return Structure{Name: s.Name, Legs: legs}
}

// NetPremium is what the structure costs to open: positive for a debit,
// negative for a credit.
func (s Structure) NetPremium() float64 {
	var net float64
	for _, l := range s.Legs {
		net += float64(l.Qty) * l.Premium
	}
	return net
}

// horizon is the first expiry among the legs.
func (s Structure) horizon() float64 {
	h := math.Inf(1)
	for _, l := range s.Legs {
		h = math.Min(h, l.Days)
	}
	if math.IsInf(h, 1) {
		return 0
	}
	return h
}

// ValueAt is the P&L per unit at spot after elapsed days.
func (s Structure) ValueAt(bs BlackScholes, spot, elapsed float64) float64 {
	var pnl float64
	for _, l := range s.Legs {
		left := math.Max(l.Days-elapsed, 0)
		pnl += float64(l.Qty) * (bs.Price(l.Right, spot, l.Strike, left/365) - l.Premium)
	}
	return pnl
}

// PayoffAt is the P&L at the first leg expiry.
func (s Structure) PayoffAt(bs BlackScholes, spot float64) float64 {
	return s.ValueAt(bs, spot, s.horizon())
}

// Greeks sums the legs' sensitivities at spot.
func (s Structure) Greeks(bs BlackScholes, spot float64) Greeks {
	var g Greeks
	for _, l := range s.Legs {
		g = g.Add(bs.Greeks(l.Right, spot, l.Strike, l.Days/365).Scale(float64(l.Qty)))
	}
	return g
}

// Analysis summarises the expiry profile over a spot grid.
type Analysis struct {
	Name            string
	NetPremium      float64
	MaxProfit       float64
	MaxLoss         float64
	UnboundedProfit bool
	UnboundedLoss   bool
	Breakevens      []float64
	Greeks          Greeks
}

// Debit reports whether opening the structure costs premium.
func (a Analysis) Debit() bool {
	return a.NetPremium > 0
}

// DefinedRisk reports whether the loss is capped.
func (a Analysis) DefinedRisk() bool {
	return !a.UnboundedLoss
}

// tails reports whether the payoff keeps growing or falling past the
// outermost strikes. Far from the money every call moves one for one with
// the underlying and every put against it, so the slope of each tail is
// the net quantity of calls or puts, whatever the legs' expiries.
func (s Structure) tails() (unboundedProfit, unboundedLoss bool) {
	var calls, puts int
	for _, l := range s.Legs {
		if l.Right == Call {
			calls += l.Qty
		} else {
			puts += l.Qty
		}
	}
	return calls > 0 || puts > 0, calls < 0 || puts < 0
}

// Analyze scans spots in [spot·(1-span), spot·(1+span)] with steps points.
func (s Structure) Analyze(bs BlackScholes, spot, span float64, steps int) Analysis {
	if steps < 2 {
		steps = 2
	}
	lo, hi := spot*(1-span), spot*(1+span)
	dx := (hi - lo) / float64(steps-1)

	a := Analysis{
		Name:       s.Name,
		NetPremium: s.NetPremium(),
		MaxProfit:  math.Inf(-1),
		MaxLoss:    math.Inf(1),
		Greeks:     s.Greeks(bs, spot),
	}

	prevX, prevY := 0.0, 0.0
	for i := 0; i < steps; i++ {
		x := lo + float64(i)*dx
		y := s.PayoffAt(bs, x)
		a.MaxProfit = math.Max(a.MaxProfit, y)
		a.MaxLoss = math.Min(a.MaxLoss, y)
		if i > 0 && (prevY < 0) != (y < 0) && prevY != y {
			a.Breakevens = append(a.Breakevens, prevX+(0-prevY)*(x-prevX)/(y-prevY))
		}
		prevX, prevY = x, y
	}

	a.UnboundedProfit, a.UnboundedLoss = s.tails()

	sort.Float64s(a.Breakevens)
	return a
}

func (a Analysis) String() string {
	kind := "credit"
	if a.Debit() {
		kind = "debit"
	}
	return fmt.Sprintf("%s %s %.2f theta=%.2f vega=%.2f", a.Name, kind, math.Abs(a.NetPremium), a.Greeks.Theta, a.Greeks.Vega)
}

// Profile is the qualitative summary used when comparing hedges.
type Profile struct {
	Name        string
	Premium     string // "debit" or "credit"
	Theta       string // "earns decay", "pays decay" or "neutral"
	Vega        string // "long vol", "short vol" or "neutral"
	DefinedRisk bool
}

func signLabel(v, eps float64, pos, neg string) string {
	switch {
	case v > eps:
		return pos
	case v < -eps:
		return neg
	}
	return "neutral"
}

func (a Analysis) Profile() Profile {
	p := Profile{
		Name:        a.Name,
		Premium:     "credit",
		Theta:       signLabel(a.Greeks.Theta, 1e-6, "earns decay", "pays decay"),
		Vega:        signLabel(a.Greeks.Vega, 1e-6, "long vol", "short vol"),
		DefinedRisk: a.DefinedRisk(),
	}
	if a.Debit() {
		p.Premium = "debit"
	}
	return p
}
