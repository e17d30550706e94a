package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ellibrinker/FlyTAU/internal/database"
)

// fakeStore is an in-memory Store. InTx snapshots the state and restores it
// when the callback fails, mirroring a rolled-back transaction.
type fakeStore struct {
	routes   map[[2]string]database.Route
	aircraft map[uuid.UUID]database.Aircraft
	crew     map[uuid.UUID]database.CrewMember
	seatMaps map[uuid.UUID]int // aircraft -> physical seat count
	flights  map[uuid.UUID]*flightRecord

	failSeatCopy bool
}

type flightRecord struct {
	flight    database.Flight
	crewIDs   []uuid.UUID
	pricing   []database.FlightPricing
	total     int
	available int
	orders    []database.Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		routes:   make(map[[2]string]database.Route),
		aircraft: make(map[uuid.UUID]database.Aircraft),
		crew:     make(map[uuid.UUID]database.CrewMember),
		seatMaps: make(map[uuid.UUID]int),
		flights:  make(map[uuid.UUID]*flightRecord),
	}
}

func (s *fakeStore) addRoute(origin, destination string, minutes int) {
	s.routes[[2]string{origin, destination}] = database.Route{
		Origin: origin, Destination: destination, DurationMinutes: minutes,
	}
}

func (s *fakeStore) addAircraft(size database.AircraftSize, tail string, seats int) uuid.UUID {
	id := uuid.New()
	s.aircraft[id] = database.Aircraft{ID: id, TailNumber: tail, Manufacturer: "Boeing", Size: size}
	s.seatMaps[id] = seats
	return id
}

func (s *fakeStore) addCrew(role database.CrewRole, trained, manager bool) uuid.UUID {
	id := uuid.New()
	s.crew[id] = database.CrewMember{
		ID: id, FirstName: "Crew", LastName: id.String()[:8],
		Role: role, LongHaulTrained: trained, IsManager: manager,
	}
	return id
}

// seedFlight injects a flight record directly, bypassing engine validation
func (s *fakeStore) seedFlight(aircraftID uuid.UUID, origin, destination string, departure time.Time, status database.FlightStatus, crewIDs []uuid.UUID, available int) uuid.UUID {
	id := uuid.New()
	total := s.seatMaps[aircraftID]
	s.flights[id] = &flightRecord{
		flight: database.Flight{
			ID: id, AircraftID: aircraftID, Origin: origin, Destination: destination,
			DepartureTime: departure, Status: status,
		},
		crewIDs:   crewIDs,
		total:     total,
		available: available,
	}
	return id
}

func (s *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	for k, v := range s.routes {
		c.routes[k] = v
	}
	for k, v := range s.aircraft {
		c.aircraft[k] = v
	}
	for k, v := range s.crew {
		c.crew[k] = v
	}
	for k, v := range s.seatMaps {
		c.seatMaps[k] = v
	}
	for k, v := range s.flights {
		rec := *v
		rec.crewIDs = append([]uuid.UUID(nil), v.crewIDs...)
		rec.pricing = append([]database.FlightPricing(nil), v.pricing...)
		rec.orders = append([]database.Order(nil), v.orders...)
		c.flights[k] = &rec
	}
	c.failSeatCopy = s.failSeatCopy
	return c
}

func (s *fakeStore) restore(from *fakeStore) {
	s.routes = from.routes
	s.aircraft = from.aircraft
	s.crew = from.crew
	s.seatMaps = from.seatMaps
	s.flights = from.flights
}

func (s *fakeStore) InTx(ctx context.Context, fn func(Store) error) error {
	snapshot := s.clone()
	if err := fn(s); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

func (s *fakeStore) GetRoute(_ context.Context, origin, destination string) (*database.Route, error) {
	r, ok := s.routes[[2]string{origin, destination}]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &r, nil
}

func (s *fakeStore) ListAircraft(_ context.Context) ([]database.Aircraft, error) {
	var fleet []database.Aircraft
	for _, a := range s.aircraft {
		fleet = append(fleet, a)
	}
	return fleet, nil
}

func (s *fakeStore) GetAircraft(_ context.Context, id uuid.UUID) (*database.Aircraft, error) {
	a, ok := s.aircraft[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &a, nil
}

func (s *fakeStore) ListCrew(_ context.Context) ([]database.CrewMember, error) {
	var crew []database.CrewMember
	for _, c := range s.crew {
		if c.IsManager {
			continue
		}
		crew = append(crew, c)
	}
	return crew, nil
}

func (s *fakeStore) GetCrewMember(_ context.Context, id uuid.UUID) (*database.CrewMember, error) {
	c, ok := s.crew[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &c, nil
}

func (s *fakeStore) windowOf(rec *flightRecord) (database.FlightWindow, error) {
	route, ok := s.routes[[2]string{rec.flight.Origin, rec.flight.Destination}]
	if !ok {
		return database.FlightWindow{}, fmt.Errorf("no route for seeded flight")
	}
	return database.FlightWindow{
		FlightID:    rec.flight.ID,
		Origin:      rec.flight.Origin,
		Destination: rec.flight.Destination,
		Start:       rec.flight.DepartureTime,
		End:         rec.flight.DepartureTime.Add(route.Duration()),
	}, nil
}

func (s *fakeStore) AircraftFlightWindows(_ context.Context, aircraftID uuid.UUID) ([]database.FlightWindow, error) {
	var windows []database.FlightWindow
	for _, rec := range s.flights {
		if rec.flight.AircraftID != aircraftID || rec.flight.Status == database.FlightStatusCancelled {
			continue
		}
		w, err := s.windowOf(rec)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, nil
}

func (s *fakeStore) CrewFlightWindows(_ context.Context, crewID uuid.UUID) ([]database.FlightWindow, error) {
	var windows []database.FlightWindow
	for _, rec := range s.flights {
		if rec.flight.Status == database.FlightStatusCancelled {
			continue
		}
		for _, id := range rec.crewIDs {
			if id == crewID {
				w, err := s.windowOf(rec)
				if err != nil {
					return nil, err
				}
				windows = append(windows, w)
				break
			}
		}
	}
	return windows, nil
}

func (s *fakeStore) CountAircraftSeats(_ context.Context, aircraftID uuid.UUID) (int, error) {
	return s.seatMaps[aircraftID], nil
}

func (s *fakeStore) GetFlight(_ context.Context, id uuid.UUID) (*database.Flight, error) {
	rec, ok := s.flights[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	f := rec.flight
	return &f, nil
}

func (s *fakeStore) CountAvailableSeats(_ context.Context, flightID uuid.UUID) (int, error) {
	rec, ok := s.flights[flightID]
	if !ok {
		return 0, database.ErrNotFound
	}
	return rec.available, nil
}

func (s *fakeStore) InsertFlight(_ context.Context, f *database.Flight) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	s.flights[f.ID] = &flightRecord{flight: *f}
	return nil
}

func (s *fakeStore) InsertPricing(_ context.Context, p database.FlightPricing) error {
	rec, ok := s.flights[p.FlightID]
	if !ok {
		return database.ErrNotFound
	}
	rec.pricing = append(rec.pricing, p)
	return nil
}

func (s *fakeStore) InsertCrewAssignments(_ context.Context, flightID uuid.UUID, crewIDs []uuid.UUID) error {
	rec, ok := s.flights[flightID]
	if !ok {
		return database.ErrNotFound
	}
	rec.crewIDs = append(rec.crewIDs, crewIDs...)
	return nil
}

func (s *fakeStore) CopySeatInventory(_ context.Context, flightID, aircraftID uuid.UUID) (int, error) {
	if s.failSeatCopy {
		return 0, errors.New("simulated seat insert failure")
	}
	rec, ok := s.flights[flightID]
	if !ok {
		return 0, database.ErrNotFound
	}
	count := s.seatMaps[aircraftID]
	if count == 0 {
		return 0, database.ErrNoSeatMap
	}
	rec.total = count
	rec.available = count
	return count, nil
}

func (s *fakeStore) MarkFlightCancelled(_ context.Context, flightID uuid.UUID) error {
	rec, ok := s.flights[flightID]
	if !ok {
		return database.ErrNotFound
	}
	rec.flight.Status = database.FlightStatusCancelled
	return nil
}

func (s *fakeStore) RefundActiveOrders(_ context.Context, flightID uuid.UUID) (int64, error) {
	rec, ok := s.flights[flightID]
	if !ok {
		return 0, database.ErrNotFound
	}
	var touched int64
	for i := range rec.orders {
		switch rec.orders[i].Status {
		case database.OrderStatusActive, database.OrderStatusPaid:
			rec.orders[i].Status = database.OrderStatusSystemCancelled
			rec.orders[i].TotalPayment = 0
			touched++
		}
	}
	return touched, nil
}

func (s *fakeStore) ReleaseFlightSeats(_ context.Context, flightID uuid.UUID) (int64, error) {
	rec, ok := s.flights[flightID]
	if !ok {
		return 0, database.ErrNotFound
	}
	released := int64(rec.total)
	rec.available = rec.total
	return released, nil
}

var _ Store = (*fakeStore)(nil)
