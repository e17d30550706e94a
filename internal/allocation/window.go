package allocation

import (
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Window is the half-open [Start, End) interval a flight occupies
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints do not count: a resource may depart the instant it lands.
func (w Window) Overlaps(o Window) bool {
	return o.Start.Before(w.End) && o.End.After(w.Start)
}

// BuildWindow composes a departure date and time-of-day with a route duration
// into the flight's occupied window. Departures are interpreted in UTC and
// must be strictly in the future relative to now.
func BuildWindow(departureDate, departureTime string, duration time.Duration, now time.Time) (Window, error) {
	day, err := time.ParseInLocation(dateLayout, departureDate, time.UTC)
	if err != nil {
		return Window{}, newError(CodeInvalidTimeInput, "invalid departure date %q, expected YYYY-MM-DD", departureDate)
	}

	tod, err := time.ParseInLocation(timeLayout, departureTime, time.UTC)
	if err != nil {
		return Window{}, newError(CodeInvalidTimeInput, "invalid departure time %q, expected HH:MM", departureTime)
	}

	start := day.Add(time.Duration(tod.Hour())*time.Hour + time.Duration(tod.Minute())*time.Minute)
	if !start.After(now) {
		return Window{}, newError(CodeInvalidTimeInput, "departure %s is not in the future", start.Format(time.RFC3339))
	}

	return Window{Start: start, End: start.Add(duration)}, nil
}
