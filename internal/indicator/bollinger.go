package indicator

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

type BollingerBands struct {
	period int
	dev    float64
	closes []float64
}

type BollingerBandsStats struct {
	Upper float64
	Mid   float64
	Lower float64
}

func NewBollingerBands(period int, dev float64) *BollingerBands {
	return &BollingerBands{period: period, dev: dev}
}

// Update returns false until period closes have been seen.
func (b *BollingerBands) Update(close float64) (bool, BollingerBandsStats, error) {
	b.closes = append(b.closes, close)
	if len(b.closes) > b.period {
		b.closes = b.closes[1:]
	}
	if len(b.closes) < b.period {
		return false, BollingerBandsStats{}, nil
	}

	mean, err := stats.Mean(b.closes)
	if err != nil {
		return false, BollingerBandsStats{}, fmt.Errorf("failed to calculate mean: %w", err)
	}
	sd, err := stats.StandardDeviationPopulation(b.closes)
	if err != nil {
		return false, BollingerBandsStats{}, fmt.Errorf("failed to calculate the standard deviation: %w", err)
	}

	return true, BollingerBandsStats{
		Upper: mean + b.dev*sd,
		Mid:   mean,
		Lower: mean - b.dev*sd,
	}, nil
}
