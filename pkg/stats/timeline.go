package stats

import (
	"sort"
	"time"

	"droscher.com/SipGargoyle/pkg/model"
)

// TimedEntry pairs a drink entry with its parsed consumption instant.
type TimedEntry struct {
	model.DrinkEntry
	At time.Time
}

// Chronological parses and sorts entries ascending by consumption time.
// Entries whose date or time does not parse are excluded; the second
// return value counts them so callers can log the skip.
func Chronological(entries []model.DrinkEntry) ([]TimedEntry, int) {
	timed := make([]TimedEntry, 0, len(entries))
	skipped := 0

	for index := range entries {
		at, err := entries[index].ConsumedAt()
		if err != nil {
			skipped++

			continue
		}

		timed = append(timed, TimedEntry{DrinkEntry: entries[index], At: at})
	}

	sort.SliceStable(timed, func(i, j int) bool { return timed[i].At.Before(timed[j].At) })

	return timed, skipped
}
