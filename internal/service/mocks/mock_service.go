package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/Ellibrinker/FlyTAU/internal/allocation"
	"github.com/Ellibrinker/FlyTAU/internal/database"
	"github.com/Ellibrinker/FlyTAU/internal/service"
)

// MockAllocationService is a mock implementation of AllocationService
type MockAllocationService struct {
	mock.Mock
}

func (m *MockAllocationService) SearchFlights(ctx context.Context, req service.SearchFlightsRequest) ([]database.FlightListing, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.FlightListing), args.Error(1)
}

func (m *MockAllocationService) GetFlight(ctx context.Context, id uuid.UUID) (*service.FlightDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FlightDetail), args.Error(1)
}

func (m *MockAllocationService) GetFlightSeats(ctx context.Context, id uuid.UUID) ([]database.FlightSeatView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.FlightSeatView), args.Error(1)
}

func (m *MockAllocationService) ListFlights(ctx context.Context, filter database.FlightFilter) ([]database.Flight, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.Flight), args.Error(1)
}

func (m *MockAllocationService) ListCandidates(ctx context.Context, req allocation.CandidateRequest) (*allocation.CandidateSet, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*allocation.CandidateSet), args.Error(1)
}

func (m *MockAllocationService) CreateFlight(ctx context.Context, req allocation.CreateFlightRequest) (*database.Flight, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Flight), args.Error(1)
}

func (m *MockAllocationService) CancelFlight(ctx context.Context, id uuid.UUID) (*allocation.CancelResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*allocation.CancelResult), args.Error(1)
}
