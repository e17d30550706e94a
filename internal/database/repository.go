package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrNestedTx  = errors.New("nested transaction")
	ErrNoSeatMap = errors.New("aircraft has no seat map")
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every query method
// works unchanged inside and outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles all database operations
type Repository struct {
	db   DBTX
	pool *pgxpool.Pool
}

// NewRepository creates a new repository backed by a connection pool
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

// WithSerializableTx runs fn against a transaction-scoped repository at
// serializable isolation. The transaction commits only if fn returns nil;
// any error rolls back every write fn performed.
func (r *Repository) WithSerializableTx(ctx context.Context, fn func(*Repository) error) error {
	if r.pool == nil {
		return ErrNestedTx
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Repository{db: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// --- Route Catalog ---

// GetRoute returns the route for an origin/destination pair
func (r *Repository) GetRoute(ctx context.Context, origin, destination string) (*Route, error) {
	query := `
		SELECT origin, destination, duration_minutes
		FROM routes
		WHERE origin = $1 AND destination = $2
	`

	var rt Route
	err := r.db.QueryRow(ctx, query, origin, destination).Scan(
		&rt.Origin, &rt.Destination, &rt.DurationMinutes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}

	return &rt, nil
}

// --- Aircraft / Crew registry reads ---

// ListAircraft returns every registered aircraft
func (r *Repository) ListAircraft(ctx context.Context) ([]Aircraft, error) {
	query := `
		SELECT id, tail_number, manufacturer, size, created_at
		FROM aircraft
		ORDER BY tail_number
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query aircraft: %w", err)
	}
	defer rows.Close()

	var fleet []Aircraft
	for rows.Next() {
		var a Aircraft
		if err := rows.Scan(&a.ID, &a.TailNumber, &a.Manufacturer, &a.Size, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan aircraft: %w", err)
		}
		fleet = append(fleet, a)
	}

	return fleet, rows.Err()
}

// GetAircraft returns an aircraft by ID
func (r *Repository) GetAircraft(ctx context.Context, id uuid.UUID) (*Aircraft, error) {
	query := `
		SELECT id, tail_number, manufacturer, size, created_at
		FROM aircraft
		WHERE id = $1
	`

	var a Aircraft
	err := r.db.QueryRow(ctx, query, id).Scan(&a.ID, &a.TailNumber, &a.Manufacturer, &a.Size, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get aircraft: %w", err)
	}

	return &a, nil
}

// ListCrew returns every crew member eligible to appear in a pool. Managers
// are filtered here and re-checked by the engine before commit.
func (r *Repository) ListCrew(ctx context.Context) ([]CrewMember, error) {
	query := `
		SELECT id, first_name, last_name, role, long_haul_trained, is_manager, created_at
		FROM crew_members
		WHERE NOT is_manager
		ORDER BY last_name, first_name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query crew: %w", err)
	}
	defer rows.Close()

	var crew []CrewMember
	for rows.Next() {
		var c CrewMember
		err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Role, &c.LongHaulTrained, &c.IsManager, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crew member: %w", err)
		}
		crew = append(crew, c)
	}

	return crew, rows.Err()
}

// GetCrewMember returns a crew member by ID
func (r *Repository) GetCrewMember(ctx context.Context, id uuid.UUID) (*CrewMember, error) {
	query := `
		SELECT id, first_name, last_name, role, long_haul_trained, is_manager, created_at
		FROM crew_members
		WHERE id = $1
	`

	var c CrewMember
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Role, &c.LongHaulTrained, &c.IsManager, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get crew member: %w", err)
	}

	return &c, nil
}

// --- Availability / location source data ---

// AircraftFlightWindows returns the occupied windows of every non-cancelled
// flight assigned to an aircraft, each joined to its route duration.
func (r *Repository) AircraftFlightWindows(ctx context.Context, aircraftID uuid.UUID) ([]FlightWindow, error) {
	query := `
		SELECT f.id, f.origin, f.destination, f.departure_time, r.duration_minutes
		FROM flights f
		JOIN routes r ON r.origin = f.origin AND r.destination = f.destination
		WHERE f.aircraft_id = $1 AND f.status <> 'cancelled'
		ORDER BY f.departure_time
	`

	rows, err := r.db.Query(ctx, query, aircraftID)
	if err != nil {
		return nil, fmt.Errorf("failed to query aircraft flights: %w", err)
	}
	defer rows.Close()

	return scanFlightWindows(rows)
}

// CrewFlightWindows returns the occupied windows of every non-cancelled
// flight a crew member is placed on.
func (r *Repository) CrewFlightWindows(ctx context.Context, crewID uuid.UUID) ([]FlightWindow, error) {
	query := `
		SELECT f.id, f.origin, f.destination, f.departure_time, r.duration_minutes
		FROM flights f
		JOIN flight_crew fc ON fc.flight_id = f.id
		JOIN routes r ON r.origin = f.origin AND r.destination = f.destination
		WHERE fc.crew_id = $1 AND f.status <> 'cancelled'
		ORDER BY f.departure_time
	`

	rows, err := r.db.Query(ctx, query, crewID)
	if err != nil {
		return nil, fmt.Errorf("failed to query crew flights: %w", err)
	}
	defer rows.Close()

	return scanFlightWindows(rows)
}

func scanFlightWindows(rows pgx.Rows) ([]FlightWindow, error) {
	var windows []FlightWindow
	for rows.Next() {
		var (
			w       FlightWindow
			minutes int
		)
		if err := rows.Scan(&w.FlightID, &w.Origin, &w.Destination, &w.Start, &minutes); err != nil {
			return nil, fmt.Errorf("failed to scan flight window: %w", err)
		}
		w.End = w.Start.Add(time.Duration(minutes) * time.Minute)
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// CountAircraftSeats returns the size of an aircraft's physical seat map
func (r *Repository) CountAircraftSeats(ctx context.Context, aircraftID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM seats WHERE aircraft_id = $1`, aircraftID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count aircraft seats: %w", err)
	}
	return count, nil
}

// --- Flight reads ---

// GetFlight returns a flight by ID
func (r *Repository) GetFlight(ctx context.Context, id uuid.UUID) (*Flight, error) {
	query := `
		SELECT id, aircraft_id, origin, destination, departure_time, status, created_at, updated_at
		FROM flights
		WHERE id = $1
	`

	var f Flight
	err := r.db.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.AircraftID, &f.Origin, &f.Destination,
		&f.DepartureTime, &f.Status, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get flight: %w", err)
	}

	return &f, nil
}

// CountAvailableSeats returns how many of a flight's seats are still open
func (r *Repository) CountAvailableSeats(ctx context.Context, flightID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM flight_seats WHERE flight_id = $1 AND status = 'available'
	`, flightID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count available seats: %w", err)
	}
	return count, nil
}

// GetFlightSeats returns a flight's seat inventory joined to the seat map
func (r *Repository) GetFlightSeats(ctx context.Context, flightID uuid.UUID) ([]FlightSeatView, error) {
	query := `
		SELECT fs.id, fs.flight_id, fs.seat_id, s.row_number, s.column_letter, s.class, fs.status
		FROM flight_seats fs
		JOIN seats s ON s.id = fs.seat_id
		WHERE fs.flight_id = $1
		ORDER BY s.row_number, s.column_letter
	`

	rows, err := r.db.Query(ctx, query, flightID)
	if err != nil {
		return nil, fmt.Errorf("failed to query flight seats: %w", err)
	}
	defer rows.Close()

	var seats []FlightSeatView
	for rows.Next() {
		var s FlightSeatView
		err := rows.Scan(&s.ID, &s.FlightID, &s.SeatID, &s.RowNumber, &s.ColumnLetter, &s.Class, &s.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flight seat: %w", err)
		}
		seats = append(seats, s)
	}

	return seats, rows.Err()
}

// SearchOpenFlights returns non-cancelled flights on a route departing within
// the given day, with fare tiers and remaining seat counts.
func (r *Repository) SearchOpenFlights(ctx context.Context, origin, destination string, day time.Time) ([]FlightListing, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	query := `
		SELECT f.id, f.aircraft_id, f.origin, f.destination, f.departure_time, f.status,
		       f.created_at, f.updated_at,
		       reg.price,
		       bus.price,
		       (SELECT COUNT(*) FROM flight_seats fs WHERE fs.flight_id = f.id AND fs.status = 'available')
		FROM flights f
		JOIN flight_pricing reg ON reg.flight_id = f.id AND reg.class = 'regular'
		LEFT JOIN flight_pricing bus ON bus.flight_id = f.id AND bus.class = 'business'
		WHERE f.origin = $1 AND f.destination = $2
		  AND f.departure_time >= $3 AND f.departure_time < $4
		  AND f.status = 'open'
		ORDER BY f.departure_time
	`

	rows, err := r.db.Query(ctx, query, origin, destination, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to search flights: %w", err)
	}
	defer rows.Close()

	var listings []FlightListing
	for rows.Next() {
		var l FlightListing
		err := rows.Scan(
			&l.ID, &l.AircraftID, &l.Origin, &l.Destination, &l.DepartureTime, &l.Status,
			&l.CreatedAt, &l.UpdatedAt, &l.RegularPrice, &l.BusinessPrice, &l.AvailableSeats,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flight listing: %w", err)
		}
		listings = append(listings, l)
	}

	return listings, rows.Err()
}

// FlightFilter narrows the administrative flight listing
type FlightFilter struct {
	Origin      string
	Destination string
	Day         *time.Time
	Status      FlightStatus
}

// ListFlights returns flights matching the filter, ordered by departure
func (r *Repository) ListFlights(ctx context.Context, filter FlightFilter) ([]Flight, error) {
	query := `
		SELECT id, aircraft_id, origin, destination, departure_time, status, created_at, updated_at
		FROM flights
		WHERE 1=1
	`
	var args []any

	if filter.Origin != "" {
		args = append(args, filter.Origin)
		query += fmt.Sprintf(" AND origin = $%d", len(args))
	}
	if filter.Destination != "" {
		args = append(args, filter.Destination)
		query += fmt.Sprintf(" AND destination = $%d", len(args))
	}
	if filter.Day != nil {
		dayStart := time.Date(filter.Day.Year(), filter.Day.Month(), filter.Day.Day(), 0, 0, 0, 0, time.UTC)
		args = append(args, dayStart)
		query += fmt.Sprintf(" AND departure_time >= $%d", len(args))
		args = append(args, dayStart.Add(24*time.Hour))
		query += fmt.Sprintf(" AND departure_time < $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query += " ORDER BY departure_time"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list flights: %w", err)
	}
	defer rows.Close()

	var flights []Flight
	for rows.Next() {
		var f Flight
		err := rows.Scan(&f.ID, &f.AircraftID, &f.Origin, &f.Destination,
			&f.DepartureTime, &f.Status, &f.CreatedAt, &f.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flight: %w", err)
		}
		flights = append(flights, f)
	}

	return flights, rows.Err()
}

// --- Allocation writes (run inside WithSerializableTx) ---

// InsertFlight creates the flight row
func (r *Repository) InsertFlight(ctx context.Context, f *Flight) error {
	query := `
		INSERT INTO flights (id, aircraft_id, origin, destination, departure_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx, query,
		f.ID, f.AircraftID, f.Origin, f.Destination, f.DepartureTime, f.Status,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert flight: %w", err)
	}

	return nil
}

// InsertPricing creates one fare tier for a flight
func (r *Repository) InsertPricing(ctx context.Context, p FlightPricing) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO flight_pricing (flight_id, class, price) VALUES ($1, $2, $3)
	`, p.FlightID, p.Class, p.Price)
	if err != nil {
		return fmt.Errorf("failed to insert pricing: %w", err)
	}
	return nil
}

// InsertCrewAssignments places the selected crew on a flight
func (r *Repository) InsertCrewAssignments(ctx context.Context, flightID uuid.UUID, crewIDs []uuid.UUID) error {
	for _, crewID := range crewIDs {
		_, err := r.db.Exec(ctx, `
			INSERT INTO flight_crew (flight_id, crew_id) VALUES ($1, $2)
		`, flightID, crewID)
		if err != nil {
			return fmt.Errorf("failed to insert crew assignment: %w", err)
		}
	}
	return nil
}

// CopySeatInventory materialises the aircraft's seat map as the flight's
// inventory and returns the number of seats created.
func (r *Repository) CopySeatInventory(ctx context.Context, flightID, aircraftID uuid.UUID) (int, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO flight_seats (flight_id, seat_id, status)
		SELECT $1, s.id, 'available'
		FROM seats s
		WHERE s.aircraft_id = $2
	`, flightID, aircraftID)
	if err != nil {
		return 0, fmt.Errorf("failed to copy seat inventory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrNoSeatMap
	}
	return int(tag.RowsAffected()), nil
}

// --- Cancellation writes (run inside WithSerializableTx) ---

// MarkFlightCancelled flips the persisted status to cancelled
func (r *Repository) MarkFlightCancelled(ctx context.Context, flightID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE flights SET status = 'cancelled', updated_at = NOW() WHERE id = $1
	`, flightID)
	if err != nil {
		return fmt.Errorf("failed to cancel flight: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RefundActiveOrders force-cancels every active or paid order on a flight
// with a full refund, and returns how many orders were touched.
func (r *Repository) RefundActiveOrders(ctx context.Context, flightID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE flight_orders
		SET status = 'system_cancelled', total_payment = 0
		WHERE flight_id = $1 AND status IN ('active', 'paid')
	`, flightID)
	if err != nil {
		return 0, fmt.Errorf("failed to refund orders: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ReleaseFlightSeats resets every seat of a flight to available
func (r *Repository) ReleaseFlightSeats(ctx context.Context, flightID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE flight_seats SET status = 'available' WHERE flight_id = $1
	`, flightID)
	if err != nil {
		return 0, fmt.Errorf("failed to release seats: %w", err)
	}
	return tag.RowsAffected(), nil
}
