package allocation

import (
	"github.com/Ellibrinker/FlyTAU/internal/database"
)

// Quota is the crew headcount an aircraft size dictates
type Quota struct {
	Pilots     int `json:"pilots"`
	Attendants int `json:"attendants"`
}

// QuotaFor maps aircraft size to the required crew headcount. The quota is
// size-based; flight duration only gates which aircraft are eligible.
func QuotaFor(size database.AircraftSize) Quota {
	if size == database.AircraftBig {
		return Quota{Pilots: 3, Attendants: 6}
	}
	return Quota{Pilots: 2, Attendants: 3}
}

// checkAircraftEligible enforces the size predicate: long-haul routes need a
// big aircraft; short-haul accepts any size.
func checkAircraftEligible(a *database.Aircraft, longHaul bool) error {
	if longHaul && a.Size != database.AircraftBig {
		return newResourceError(CodeIneligibleResource, a.ID.String(),
			"aircraft %s is too small: long-haul flights must use a big aircraft", a.TailNumber)
	}
	return nil
}

// checkCrewEligible enforces the role, manager-exclusion, and training
// predicates for a candidate crew slot. The manager check repeats the query
// site's filter because the source data allows the anomaly.
func checkCrewEligible(c *database.CrewMember, role database.CrewRole, longHaul bool) error {
	name := c.FirstName + " " + c.LastName

	if c.IsManager {
		return newResourceError(CodeIneligibleResource, c.ID.String(),
			"%s is a manager and cannot be assigned to a crew", name)
	}
	if c.Role != role {
		return newResourceError(CodeIneligibleResource, c.ID.String(),
			"%s cannot fill a %s slot: role is %s", name, roleLabel(role), roleLabel(c.Role))
	}
	if longHaul && !c.LongHaulTrained {
		return newResourceError(CodeIneligibleResource, c.ID.String(),
			"%s is not trained for long flights", name)
	}
	return nil
}

func roleLabel(r database.CrewRole) string {
	if r == database.RolePilot {
		return "pilot"
	}
	return "flight attendant"
}
