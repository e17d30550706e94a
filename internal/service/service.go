package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ellibrinker/FlyTAU/internal/allocation"
	"github.com/Ellibrinker/FlyTAU/internal/database"
	"github.com/Ellibrinker/FlyTAU/internal/websocket"
)

var ErrNotFound = database.ErrNotFound

// SearchFlightsRequest is the open-flight search input
type SearchFlightsRequest struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departureDate"`
}

// FlightDetail is a flight with its read-time derived status
type FlightDetail struct {
	database.Flight
	DerivedStatus  database.DerivedStatus `json:"derivedStatus"`
	AvailableSeats int                    `json:"availableSeats"`
}

// AllocationService is the surface the HTTP layer consumes
type AllocationService interface {
	SearchFlights(ctx context.Context, req SearchFlightsRequest) ([]database.FlightListing, error)
	GetFlight(ctx context.Context, id uuid.UUID) (*FlightDetail, error)
	GetFlightSeats(ctx context.Context, id uuid.UUID) ([]database.FlightSeatView, error)
	ListFlights(ctx context.Context, filter database.FlightFilter) ([]database.Flight, error)
	ListCandidates(ctx context.Context, req allocation.CandidateRequest) (*allocation.CandidateSet, error)
	CreateFlight(ctx context.Context, req allocation.CreateFlightRequest) (*database.Flight, error)
	CancelFlight(ctx context.Context, id uuid.UUID) (*allocation.CancelResult, error)
}

type allocationServiceImpl struct {
	repo   *database.Repository
	engine *allocation.Engine
	hub    *websocket.Hub
}

// New wires the repository, engine, and event hub into the service
func New(repo *database.Repository, homeBase string, cancelNotice time.Duration, hub *websocket.Hub) AllocationService {
	engine := allocation.NewEngine(txStore{repo}, homeBase, cancelNotice)
	return &allocationServiceImpl{repo: repo, engine: engine, hub: hub}
}

// txStore adapts *database.Repository to allocation.Store: InTx rebinds the
// engine's store to a serializable transaction-scoped repository.
type txStore struct {
	*database.Repository
}

func (s txStore) InTx(ctx context.Context, fn func(allocation.Store) error) error {
	return s.Repository.WithSerializableTx(ctx, func(txRepo *database.Repository) error {
		return fn(txStore{txRepo})
	})
}

func (s *allocationServiceImpl) SearchFlights(ctx context.Context, req SearchFlightsRequest) ([]database.FlightListing, error) {
	if req.Origin == "" || req.Destination == "" {
		return nil, fmt.Errorf("origin and destination are required")
	}
	if req.Origin == req.Destination {
		return nil, fmt.Errorf("origin and destination cannot be the same")
	}
	day, err := time.ParseInLocation("2006-01-02", req.DepartureDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid departure date %q", req.DepartureDate)
	}

	if _, err := s.repo.GetRoute(ctx, req.Origin, req.Destination); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("no flights exist between %s and %s: %w", req.Origin, req.Destination, ErrNotFound)
		}
		return nil, err
	}

	listings, err := s.repo.SearchOpenFlights(ctx, req.Origin, req.Destination, day)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range listings {
		listings[i].DerivedStatus = listings[i].Derive(listings[i].AvailableSeats, now)
	}
	return listings, nil
}

func (s *allocationServiceImpl) GetFlight(ctx context.Context, id uuid.UUID) (*FlightDetail, error) {
	flight, err := s.repo.GetFlight(ctx, id)
	if err != nil {
		return nil, err
	}
	available, err := s.repo.CountAvailableSeats(ctx, id)
	if err != nil {
		return nil, err
	}
	return &FlightDetail{
		Flight:         *flight,
		DerivedStatus:  flight.Derive(available, time.Now()),
		AvailableSeats: available,
	}, nil
}

func (s *allocationServiceImpl) GetFlightSeats(ctx context.Context, id uuid.UUID) ([]database.FlightSeatView, error) {
	if _, err := s.repo.GetFlight(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetFlightSeats(ctx, id)
}

func (s *allocationServiceImpl) ListFlights(ctx context.Context, filter database.FlightFilter) ([]database.Flight, error) {
	return s.repo.ListFlights(ctx, filter)
}

func (s *allocationServiceImpl) ListCandidates(ctx context.Context, req allocation.CandidateRequest) (*allocation.CandidateSet, error) {
	return s.engine.ListCandidates(ctx, req)
}

func (s *allocationServiceImpl) CreateFlight(ctx context.Context, req allocation.CreateFlightRequest) (*database.Flight, error) {
	flight, err := s.engine.CreateFlight(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.hub != nil {
		s.hub.BroadcastFlightCreated(flight.ID.String(), flight.Origin, flight.Destination, flight.DepartureTime)
	}
	return flight, nil
}

func (s *allocationServiceImpl) CancelFlight(ctx context.Context, id uuid.UUID) (*allocation.CancelResult, error) {
	result, err := s.engine.CancelFlight(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.hub != nil {
		s.hub.BroadcastFlightCancelled(id.String(), result.SeatsReleased)
	}
	return result, nil
}
