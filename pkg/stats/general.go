package stats

import (
	"time"

	"github.com/montanaflynn/stats"

	"droscher.com/SipGargoyle/pkg/model"
)

// GeneralStats are the aggregate figures for one date range.
type GeneralStats struct {
	Range             Range
	TotalDrinks       int
	TotalVolumeCl     float64
	TotalAlcoholGrams float64
	TotalSessions     int
	UniqueDrinks      int
	AveragePerDay     float64
	AveragePerWeek    float64
	CategoryCounts    map[string]int
	SoberDays         int

	MedianSessionMinutes  float64
	LongestSessionMinutes float64
}

const daysPerWeek = 7

// Aggregate computes general statistics over the entries of one range.
// Totals and the category distribution count every entry; session and
// sober-day figures only use entries with a parseable timestamp.
func Aggregate(entries []model.DrinkEntry, r Range, gap time.Duration) GeneralStats {
	result := GeneralStats{Range: r, CategoryCounts: make(map[string]int)}

	names := make(map[string]struct{})
	drinkDays := make(map[string]struct{})

	for index := range entries {
		entry := entries[index]

		result.TotalDrinks++
		result.TotalVolumeCl += EntryVolume(entry)
		result.TotalAlcoholGrams += EntryAlcoholGrams(entry)
		result.CategoryCounts[entry.Category.Name]++
		names[entry.Name] = struct{}{}

		if day, err := time.ParseInLocation(model.DateLayout, entry.Date, time.Local); err == nil && r.Contains(day) {
			drinkDays[entry.Date] = struct{}{}
		}
	}

	result.UniqueDrinks = len(names)

	days := r.Days()
	result.AveragePerDay = float64(result.TotalDrinks) / float64(days)

	// Extrapolating a weekly average from less than a week of data is
	// misleading; fall back to the raw total for short ranges.
	if days >= daysPerWeek {
		result.AveragePerWeek = result.AveragePerDay * daysPerWeek
	} else {
		result.AveragePerWeek = float64(result.TotalDrinks)
	}

	if sober := days - len(drinkDays); sober > 0 {
		result.SoberDays = sober
	}

	sessions := Sessions(entries, gap)
	result.TotalSessions = len(sessions)
	result.MedianSessionMinutes, result.LongestSessionMinutes = sessionDurations(sessions)

	return result
}

func sessionDurations(sessions []Session) (median float64, longest float64) {
	if len(sessions) == 0 {
		return 0, 0
	}

	minutes := make([]float64, 0, len(sessions))
	for _, session := range sessions {
		minutes = append(minutes, session.Duration().Minutes())
	}

	median, _ = stats.Median(minutes)
	longest, _ = stats.Max(minutes)

	return median, longest
}
