package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ellibrinker/FlyTAU/internal/database"
)

// Store is the persistence surface the engine validates against and writes
// through. *database.Repository satisfies every method except InTx, which the
// composition layer adapts so the commit and cancellation paths run inside a
// single serializable transaction.
type Store interface {
	GetRoute(ctx context.Context, origin, destination string) (*database.Route, error)
	ListAircraft(ctx context.Context) ([]database.Aircraft, error)
	GetAircraft(ctx context.Context, id uuid.UUID) (*database.Aircraft, error)
	ListCrew(ctx context.Context) ([]database.CrewMember, error)
	GetCrewMember(ctx context.Context, id uuid.UUID) (*database.CrewMember, error)
	AircraftFlightWindows(ctx context.Context, aircraftID uuid.UUID) ([]database.FlightWindow, error)
	CrewFlightWindows(ctx context.Context, crewID uuid.UUID) ([]database.FlightWindow, error)
	CountAircraftSeats(ctx context.Context, aircraftID uuid.UUID) (int, error)
	GetFlight(ctx context.Context, id uuid.UUID) (*database.Flight, error)
	CountAvailableSeats(ctx context.Context, flightID uuid.UUID) (int, error)

	InsertFlight(ctx context.Context, f *database.Flight) error
	InsertPricing(ctx context.Context, p database.FlightPricing) error
	InsertCrewAssignments(ctx context.Context, flightID uuid.UUID, crewIDs []uuid.UUID) error
	CopySeatInventory(ctx context.Context, flightID, aircraftID uuid.UUID) (int, error)

	MarkFlightCancelled(ctx context.Context, flightID uuid.UUID) error
	RefundActiveOrders(ctx context.Context, flightID uuid.UUID) (int64, error)
	ReleaseFlightSeats(ctx context.Context, flightID uuid.UUID) (int64, error)

	// InTx runs fn against a transaction-scoped store; fn's writes commit
	// atomically or not at all.
	InTx(ctx context.Context, fn func(Store) error) error
}

// Engine decides which aircraft and crew are eligible for a prospective
// flight and commits or reverses allocations.
type Engine struct {
	store        Store
	homeBase     string
	cancelNotice time.Duration
	now          func() time.Time
}

// NewEngine creates an allocation engine. homeBase is the airport every
// resource starts at before its first flight; cancelNotice is the minimum
// time before departure a cancellation is still allowed.
func NewEngine(store Store, homeBase string, cancelNotice time.Duration) *Engine {
	return &Engine{
		store:        store,
		homeBase:     homeBase,
		cancelNotice: cancelNotice,
		now:          time.Now,
	}
}

// WithClock overrides the engine clock, for tests
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// CandidateRequest proposes a route and departure for the list phase
type CandidateRequest struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departureDate"`
	DepartureTime string `json:"departureTime"`
}

// CandidateSet is the advisory result of the list phase: pools of aircraft
// and crew that are eligible, free, and correctly positioned for the window.
// It carries no commitment; the commit phase re-validates everything.
type CandidateSet struct {
	Window     Window                `json:"window"`
	LongHaul   bool                  `json:"longHaul"`
	Aircraft   []database.Aircraft   `json:"aircraft"`
	Pilots     []database.CrewMember `json:"pilots"`
	Attendants []database.CrewMember `json:"attendants"`
}

// ListCandidates computes the candidate pools for a proposed flight
func (e *Engine) ListCandidates(ctx context.Context, req CandidateRequest) (*CandidateSet, error) {
	route, err := e.store.GetRoute(ctx, req.Origin, req.Destination)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, newError(CodeRouteNotFound, "no route exists from %s to %s", req.Origin, req.Destination)
		}
		return nil, fmt.Errorf("route lookup: %w", err)
	}

	window, err := BuildWindow(req.DepartureDate, req.DepartureTime, route.Duration(), e.now())
	if err != nil {
		return nil, err
	}
	longHaul := route.LongHaul()

	set := &CandidateSet{Window: window, LongHaul: longHaul}

	fleet, err := e.store.ListAircraft(ctx)
	if err != nil {
		return nil, fmt.Errorf("aircraft listing: %w", err)
	}
	for i := range fleet {
		a := &fleet[i]
		if checkAircraftEligible(a, longHaul) != nil {
			continue
		}
		windows, err := e.store.AircraftFlightWindows(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("aircraft schedule: %w", err)
		}
		if e.fitsSchedule(windows, window, req.Origin) != nil {
			continue
		}
		set.Aircraft = append(set.Aircraft, *a)
	}

	crew, err := e.store.ListCrew(ctx)
	if err != nil {
		return nil, fmt.Errorf("crew listing: %w", err)
	}
	for i := range crew {
		c := &crew[i]
		if checkCrewEligible(c, c.Role, longHaul) != nil {
			continue
		}
		windows, err := e.store.CrewFlightWindows(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("crew schedule: %w", err)
		}
		if e.fitsSchedule(windows, window, req.Origin) != nil {
			continue
		}
		if c.Role == database.RolePilot {
			set.Pilots = append(set.Pilots, *c)
		} else {
			set.Attendants = append(set.Attendants, *c)
		}
	}

	return set, nil
}

// fitsSchedule combines the availability and location-continuity checks for
// one resource against one candidate window. The returned error carries the
// conflicting window or the last known location; callers listing candidates
// just discard it.
func (e *Engine) fitsSchedule(existing []database.FlightWindow, candidate Window, origin string) *scheduleViolation {
	if conflict := conflictingWindow(existing, candidate); conflict != nil {
		return &scheduleViolation{busy: conflict}
	}

	location, hasFlown := lastKnownLocation(existing, candidate.Start)
	if !hasFlown {
		location = e.homeBase
	}
	if location != origin {
		return &scheduleViolation{misplacedAt: location}
	}
	return nil
}

type scheduleViolation struct {
	busy        *database.FlightWindow
	misplacedAt string
}

// CreateFlightRequest is the commit-phase input: an explicit aircraft and
// crew selection plus pricing.
type CreateFlightRequest struct {
	Origin        string      `json:"origin"`
	DepartureDate string      `json:"departureDate"`
	DepartureTime string      `json:"departureTime"`
	Destination   string      `json:"destination"`
	AircraftID    uuid.UUID   `json:"aircraftId"`
	PilotIDs      []uuid.UUID `json:"pilotIds"`
	AttendantIDs  []uuid.UUID `json:"attendantIds"`
	RegularPrice  float64     `json:"regularPrice"`
	BusinessPrice *float64    `json:"businessPrice,omitempty"`
}

// CreateFlight re-validates the full selection server-side and commits the
// flight, its pricing, crew placements, and seat inventory as one atomic
// unit. Client-supplied candidate lists are never trusted.
func (e *Engine) CreateFlight(ctx context.Context, req CreateFlightRequest) (*database.Flight, error) {
	route, err := e.store.GetRoute(ctx, req.Origin, req.Destination)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, newError(CodeRouteNotFound, "no route exists from %s to %s", req.Origin, req.Destination)
		}
		return nil, fmt.Errorf("route lookup: %w", err)
	}

	window, err := BuildWindow(req.DepartureDate, req.DepartureTime, route.Duration(), e.now())
	if err != nil {
		return nil, err
	}
	longHaul := route.LongHaul()

	var created *database.Flight
	err = e.store.InTx(ctx, func(tx Store) error {
		aircraft, err := tx.GetAircraft(ctx, req.AircraftID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return newResourceError(CodeIneligibleResource, req.AircraftID.String(), "selected aircraft does not exist")
			}
			return fmt.Errorf("aircraft lookup: %w", err)
		}
		if err := checkAircraftEligible(aircraft, longHaul); err != nil {
			return err
		}

		quota := QuotaFor(aircraft.Size)
		if len(req.PilotIDs) != quota.Pilots {
			return newError(CodeQuotaMismatch,
				"a %s aircraft needs exactly %d pilots, got %d", aircraft.Size, quota.Pilots, len(req.PilotIDs))
		}
		if len(req.AttendantIDs) != quota.Attendants {
			return newError(CodeQuotaMismatch,
				"a %s aircraft needs exactly %d flight attendants, got %d", aircraft.Size, quota.Attendants, len(req.AttendantIDs))
		}
		if id, dup := firstDuplicate(req.PilotIDs, req.AttendantIDs); dup {
			return newResourceError(CodeQuotaMismatch, id.String(), "crew member selected more than once")
		}

		crewIDs := make([]uuid.UUID, 0, quota.Pilots+quota.Attendants)
		for _, id := range req.PilotIDs {
			if err := e.validateCrewSlot(ctx, tx, id, database.RolePilot, longHaul); err != nil {
				return err
			}
			crewIDs = append(crewIDs, id)
		}
		for _, id := range req.AttendantIDs {
			if err := e.validateCrewSlot(ctx, tx, id, database.RoleFlightAttendant, longHaul); err != nil {
				return err
			}
			crewIDs = append(crewIDs, id)
		}

		if req.RegularPrice <= 0 {
			return newError(CodePricingInvalid, "regular price must be positive")
		}
		hasBusiness := aircraft.Size == database.AircraftBig
		if hasBusiness && (req.BusinessPrice == nil || *req.BusinessPrice <= 0) {
			return newError(CodePricingInvalid, "business price is required for big aircraft and must be positive")
		}
		if !hasBusiness && req.BusinessPrice != nil {
			return newError(CodePricingInvalid, "business price is not applicable to a small aircraft")
		}

		aircraftWindows, err := tx.AircraftFlightWindows(ctx, aircraft.ID)
		if err != nil {
			return fmt.Errorf("aircraft schedule: %w", err)
		}
		if v := e.fitsSchedule(aircraftWindows, window, req.Origin); v != nil {
			return scheduleError("aircraft "+aircraft.TailNumber, aircraft.ID, v, req.Origin)
		}

		for _, id := range crewIDs {
			crewWindows, err := tx.CrewFlightWindows(ctx, id)
			if err != nil {
				return fmt.Errorf("crew schedule: %w", err)
			}
			if v := e.fitsSchedule(crewWindows, window, req.Origin); v != nil {
				return scheduleError("crew member "+id.String(), id, v, req.Origin)
			}
		}

		seatCount, err := tx.CountAircraftSeats(ctx, aircraft.ID)
		if err != nil {
			return fmt.Errorf("seat map lookup: %w", err)
		}
		if seatCount == 0 {
			return newResourceError(CodeInventoryMissing, aircraft.ID.String(),
				"aircraft %s has no seat map", aircraft.TailNumber)
		}

		flight := &database.Flight{
			AircraftID:    aircraft.ID,
			Origin:        req.Origin,
			Destination:   req.Destination,
			DepartureTime: window.Start,
			Status:        database.FlightStatusOpen,
		}
		if err := tx.InsertFlight(ctx, flight); err != nil {
			return newInternalError(err)
		}
		if err := tx.InsertPricing(ctx, database.FlightPricing{
			FlightID: flight.ID, Class: database.ClassRegular, Price: req.RegularPrice,
		}); err != nil {
			return newInternalError(err)
		}
		if hasBusiness {
			if err := tx.InsertPricing(ctx, database.FlightPricing{
				FlightID: flight.ID, Class: database.ClassBusiness, Price: *req.BusinessPrice,
			}); err != nil {
				return newInternalError(err)
			}
		}
		if err := tx.InsertCrewAssignments(ctx, flight.ID, crewIDs); err != nil {
			return newInternalError(err)
		}
		if _, err := tx.CopySeatInventory(ctx, flight.ID, aircraft.ID); err != nil {
			if errors.Is(err, database.ErrNoSeatMap) {
				return newResourceError(CodeInventoryMissing, aircraft.ID.String(),
					"aircraft %s has no seat map", aircraft.TailNumber)
			}
			return newInternalError(err)
		}

		created = flight
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (e *Engine) validateCrewSlot(ctx context.Context, tx Store, id uuid.UUID, role database.CrewRole, longHaul bool) error {
	member, err := tx.GetCrewMember(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return newResourceError(CodeIneligibleResource, id.String(), "selected crew member does not exist")
		}
		return fmt.Errorf("crew lookup: %w", err)
	}
	return checkCrewEligible(member, role, longHaul)
}

func scheduleError(label string, id uuid.UUID, v *scheduleViolation, origin string) error {
	if v.busy != nil {
		return newResourceError(CodeResourceUnavailable, id.String(),
			"%s is already assigned between %s and %s",
			label, v.busy.Start.Format(time.RFC3339), v.busy.End.Format(time.RFC3339))
	}
	return newResourceError(CodeResourceMisplaced, id.String(),
		"%s is not positioned at %s: last known location %s", label, origin, v.misplacedAt)
}

func firstDuplicate(groups ...[]uuid.UUID) (uuid.UUID, bool) {
	seen := make(map[uuid.UUID]struct{})
	for _, g := range groups {
		for _, id := range g {
			if _, ok := seen[id]; ok {
				return id, true
			}
			seen[id] = struct{}{}
		}
	}
	return uuid.Nil, false
}

// CancelResult reports what a cancellation cascade touched
type CancelResult struct {
	FlightID       uuid.UUID `json:"flightId"`
	OrdersRefunded int64     `json:"ordersRefunded"`
	SeatsReleased  int64     `json:"seatsReleased"`
}

// CancelFlight reverses a flight's resource claims: the flight becomes
// cancelled, active orders are force-cancelled with a full refund, and the
// seat inventory resets. The derived-status and notice-window gates are both
// evaluated inside the transaction to avoid racing concurrent bookings.
func (e *Engine) CancelFlight(ctx context.Context, flightID uuid.UUID) (*CancelResult, error) {
	var result *CancelResult
	err := e.store.InTx(ctx, func(tx Store) error {
		flight, err := tx.GetFlight(ctx, flightID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("flight %s: %w", flightID, database.ErrNotFound)
			}
			return fmt.Errorf("flight lookup: %w", err)
		}

		available, err := tx.CountAvailableSeats(ctx, flightID)
		if err != nil {
			return fmt.Errorf("seat count: %w", err)
		}

		now := e.now()
		switch status := flight.Derive(available, now); status {
		case database.DerivedOpen:
			// bookable and in the future, cancellation may proceed
		default:
			return newError(CodeCancellationNotAllowed, "flight cannot be cancelled: status is %s", status)
		}

		if flight.DepartureTime.Sub(now) < e.cancelNotice {
			return newError(CodeCancellationNotAllowed,
				"cannot cancel less than %d hours before departure", int(e.cancelNotice.Hours()))
		}

		if err := tx.MarkFlightCancelled(ctx, flightID); err != nil {
			return newInternalError(err)
		}
		refunded, err := tx.RefundActiveOrders(ctx, flightID)
		if err != nil {
			return newInternalError(err)
		}
		released, err := tx.ReleaseFlightSeats(ctx, flightID)
		if err != nil {
			return newInternalError(err)
		}

		result = &CancelResult{FlightID: flightID, OrdersRefunded: refunded, SeatsReleased: released}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
