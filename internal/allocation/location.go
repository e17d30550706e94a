package allocation

import (
	"time"

	"github.com/Ellibrinker/FlyTAU/internal/database"
)

// lastKnownLocation returns the destination of the resource's most recently
// concluded flight whose window ends at or before the given instant. The
// second return is false when no prior flight exists, in which case the
// resource is assumed to still be at the home base.
func lastKnownLocation(flights []database.FlightWindow, before time.Time) (string, bool) {
	var (
		latest *database.FlightWindow
	)
	for i := range flights {
		if flights[i].End.After(before) {
			continue
		}
		if latest == nil || flights[i].End.After(latest.End) {
			latest = &flights[i]
		}
	}
	if latest == nil {
		return "", false
	}
	return latest.Destination, true
}
