package stats

import (
	"time"

	"droscher.com/SipGargoyle/pkg/model"
)

// DefaultSessionGap is the inactivity threshold that separates two
// drinking sessions.
const DefaultSessionGap = 4 * time.Hour

// Session is a maximal run of entries with no inter-entry gap exceeding
// the threshold. Drinks are ordered ascending within the session.
type Session struct {
	Start  time.Time
	End    time.Time
	Drinks []model.DrinkEntry
}

// Duration is End minus Start; exactly zero for a single-drink session.
func (s Session) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Sessions segments entries into drinking sessions. Input order does not
// matter; entries without a parseable timestamp are left out. The result
// is ordered most recent first, which is what every consumer displays.
func Sessions(entries []model.DrinkEntry, gap time.Duration) []Session {
	if gap <= 0 {
		gap = DefaultSessionGap
	}

	timed, _ := Chronological(entries)

	var sessions []Session

	for _, entry := range timed {
		if len(sessions) == 0 || entry.At.Sub(sessions[len(sessions)-1].End) > gap {
			sessions = append(sessions, Session{
				Start:  entry.At,
				End:    entry.At,
				Drinks: []model.DrinkEntry{entry.DrinkEntry},
			})

			continue
		}

		current := &sessions[len(sessions)-1]
		current.End = entry.At
		current.Drinks = append(current.Drinks, entry.DrinkEntry)
	}

	for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}

	return sessions
}
