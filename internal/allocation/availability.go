package allocation

import (
	"github.com/Ellibrinker/FlyTAU/internal/database"
)

// conflictingWindow scans a resource's existing non-cancelled flight windows
// and returns the first one overlapping the candidate, or nil when the
// resource is free. No turnaround padding is applied: back-to-back windows
// that merely touch are not a conflict.
func conflictingWindow(existing []database.FlightWindow, candidate Window) *database.FlightWindow {
	for i := range existing {
		w := Window{Start: existing[i].Start, End: existing[i].End}
		if w.Overlaps(candidate) {
			return &existing[i]
		}
	}
	return nil
}
