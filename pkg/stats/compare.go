package stats

import "go.uber.org/zap"

// StatsComparison maps a metric name to its percentage change against
// the previous period.
type StatsComparison map[string]float64

const fullIncrease = 100.0

// PercentChange computes (current − previous) / previous × 100. Growth
// from nothing counts as a flat 100%; no change from nothing is 0%.
func PercentChange(current float64, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return fullIncrease
		}

		return 0
	}

	return (current - previous) / previous * fullIncrease
}

// Comparator derives period-over-period deltas from two aggregates.
type Comparator struct {
	logger *zap.Logger
}

func NewComparator(logger *zap.Logger) *Comparator {
	return &Comparator{logger: logger}
}

// Compare produces the per-metric percentage changes between a current
// aggregate and its predecessor. Ranges of unequal length (possible for
// edge custom ranges) still compare, approximately, with a warning.
func (c *Comparator) Compare(current GeneralStats, previous GeneralStats) StatsComparison {
	if current.Range.Days() != previous.Range.Days() {
		c.logger.Warn("comparing date ranges of unequal length, percentages are approximate",
			zap.Int("current_days", current.Range.Days()),
			zap.Int("previous_days", previous.Range.Days()))
	}

	return StatsComparison{
		"totalDrinks":   PercentChange(float64(current.TotalDrinks), float64(previous.TotalDrinks)),
		"totalVolume":   PercentChange(current.TotalVolumeCl, previous.TotalVolumeCl),
		"totalAlcohol":  PercentChange(current.TotalAlcoholGrams, previous.TotalAlcoholGrams),
		"totalSessions": PercentChange(float64(current.TotalSessions), float64(previous.TotalSessions)),
		"uniqueDrinks":  PercentChange(float64(current.UniqueDrinks), float64(previous.UniqueDrinks)),
		"averagePerDay": PercentChange(current.AveragePerDay, previous.AveragePerDay),
		"soberDays":     PercentChange(float64(current.SoberDays), float64(previous.SoberDays)),
	}
}
