package database

import (
	"time"

	"github.com/google/uuid"
)

// AircraftSize classifies an airframe; long-haul routes require big aircraft
// and the crew quota is derived from it.
type AircraftSize string

const (
	AircraftSmall AircraftSize = "small"
	AircraftBig   AircraftSize = "big"
)

// Aircraft represents an airframe in the registry
type Aircraft struct {
	ID           uuid.UUID    `json:"id"`
	TailNumber   string       `json:"tailNumber"`
	Manufacturer string       `json:"manufacturer"`
	Size         AircraftSize `json:"size"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// CrewRole is a closed set; a manager flag is carried separately because the
// upstream HR data allows a crew member to also hold a manager record.
type CrewRole string

const (
	RolePilot           CrewRole = "pilot"
	RoleFlightAttendant CrewRole = "flight_attendant"
)

// CrewMember represents a pilot or flight attendant in the registry
type CrewMember struct {
	ID              uuid.UUID `json:"id"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Role            CrewRole  `json:"role"`
	LongHaulTrained bool      `json:"longHaulTrained"`
	IsManager       bool      `json:"isManager"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Route maps an origin/destination pair to its flight duration
type Route struct {
	Origin          string `json:"origin"`
	Destination     string `json:"destination"`
	DurationMinutes int    `json:"durationMinutes"`
}

// Duration returns the route's flight time
func (r *Route) Duration() time.Duration {
	return time.Duration(r.DurationMinutes) * time.Minute
}

// LongHaul reports whether the route exceeds the six-hour threshold
func (r *Route) LongHaul() bool {
	return r.DurationMinutes > 360
}

// FlightStatus is the persisted status; the bookable state shown to callers
// is derived at read time (see DerivedStatus).
type FlightStatus string

const (
	FlightStatusOpen      FlightStatus = "open"
	FlightStatusCancelled FlightStatus = "cancelled"
)

// DerivedStatus is a flight's read-time classification, never persisted
type DerivedStatus string

const (
	DerivedOpen      DerivedStatus = "open"
	DerivedFull      DerivedStatus = "full"
	DerivedCompleted DerivedStatus = "completed"
	DerivedCancelled DerivedStatus = "cancelled"
)

// Flight represents a flight in the database
type Flight struct {
	ID            uuid.UUID    `json:"id"`
	AircraftID    uuid.UUID    `json:"aircraftId"`
	Origin        string       `json:"origin"`
	Destination   string       `json:"destination"`
	DepartureTime time.Time    `json:"departureTime"`
	Status        FlightStatus `json:"status"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// Derive classifies the flight for display and cancellation gating.
// Order matters: an explicitly cancelled flight stays cancelled even after
// its departure time passes.
func (f *Flight) Derive(availableSeats int, now time.Time) DerivedStatus {
	switch {
	case f.Status == FlightStatusCancelled:
		return DerivedCancelled
	case !f.DepartureTime.After(now):
		return DerivedCompleted
	case availableSeats == 0:
		return DerivedFull
	default:
		return DerivedOpen
	}
}

// PricingClass is a fare tier; every flight has a regular tier and big
// aircraft additionally carry a business tier.
type PricingClass string

const (
	ClassRegular  PricingClass = "regular"
	ClassBusiness PricingClass = "business"
)

// FlightPricing represents one fare tier of a flight
type FlightPricing struct {
	FlightID uuid.UUID    `json:"flightId"`
	Class    PricingClass `json:"class"`
	Price    float64      `json:"price"`
}

// Seat is one physical seat of an aircraft's seat map
type Seat struct {
	ID           uuid.UUID    `json:"id"`
	AircraftID   uuid.UUID    `json:"aircraftId"`
	RowNumber    int          `json:"row"`
	ColumnLetter string       `json:"column"`
	Class        PricingClass `json:"class"`
}

// SeatStatus represents the status of a flight seat
type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusBooked    SeatStatus = "booked"
)

// FlightSeat is the per-flight copy of a physical seat
type FlightSeat struct {
	ID       uuid.UUID  `json:"id"`
	FlightID uuid.UUID  `json:"flightId"`
	SeatID   uuid.UUID  `json:"seatId"`
	Status   SeatStatus `json:"status"`
}

// OrderStatus represents the status of a booking order
type OrderStatus string

const (
	OrderStatusActive            OrderStatus = "active"
	OrderStatusPaid              OrderStatus = "paid"
	OrderStatusCustomerCancelled OrderStatus = "customer_cancelled"
	OrderStatusSystemCancelled   OrderStatus = "system_cancelled"
)

// Order represents a booking created by the external checkout flow. The
// engine only reads its status and force-cancels it during a cascade.
type Order struct {
	ID           uuid.UUID   `json:"id"`
	FlightID     uuid.UUID   `json:"flightId"`
	Email        string      `json:"email"`
	Status       OrderStatus `json:"status"`
	TotalPayment float64     `json:"totalPayment"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// FlightWindow is a flight joined to its route duration, carrying the
// occupied [Start, End) interval for availability and location checks.
type FlightWindow struct {
	FlightID    uuid.UUID `json:"flightId"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// FlightListing is a flight with its fare tiers, as returned by the
// open-flight search.
type FlightListing struct {
	Flight
	DerivedStatus  DerivedStatus `json:"derivedStatus"`
	AvailableSeats int           `json:"availableSeats"`
	RegularPrice   float64       `json:"regularPrice"`
	BusinessPrice  *float64      `json:"businessPrice,omitempty"`
}

// FlightSeatView is a flight seat joined to its physical seat, the shape the
// checkout flow reads.
type FlightSeatView struct {
	ID           uuid.UUID    `json:"id"`
	FlightID     uuid.UUID    `json:"flightId"`
	SeatID       uuid.UUID    `json:"seatId"`
	RowNumber    int          `json:"row"`
	ColumnLetter string       `json:"column"`
	Class        PricingClass `json:"class"`
	Status       SeatStatus   `json:"status"`
}
