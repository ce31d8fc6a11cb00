package model

// Direction is the side of a signal or position relative to the underlying.
type Direction int8

const (
	Flat  Direction = 0
	Long  Direction = 1
	Short Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return "FLAT"
	}
}

// Sign returns +1 for Long, -1 for Short and 0 when flat.
func (d Direction) Sign() float64 {
	return float64(d)
}
