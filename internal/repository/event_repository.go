package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// EventRepo manages persistence for events.  Seat inventory is the
// available_seats counter on the event row; it is only decremented inside
// the booking transaction.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning events and bookings.
func (r *EventRepo) DB() *sql.DB { return r.db }

const eventColumns = `id, title, description, event_date, event_time, venue, address,
	latitude, longitude, price, total_seats, available_seats, image_url, category,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Venue, &e.Address,
		&e.Latitude, &e.Longitude, &e.Price, &e.TotalSeats, &e.AvailableSeats,
		&e.ImageURL, &e.Category, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByID retrieves an event.  It returns ErrEventNotFound if there is no
// matching row.
func (r *EventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	return scanEvent(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDForUpdateTx reads the event row inside tx and locks it until the
// transaction ends.  Concurrent bookings for the same event serialise on
// this lock.
func (r *EventRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE id = ? FOR UPDATE`
	return scanEvent(tx.QueryRowContext(ctx, q, id))
}

// DecrementAvailableTx takes n seats off the event's inventory inside tx.
// The guard in the WHERE clause keeps available_seats from going negative.
func (r *EventRepo) DecrementAvailableTx(ctx context.Context, tx *sql.Tx, id string, n int) error {
	const q = `UPDATE events SET available_seats = available_seats - ?, updated_at = NOW()
	           WHERE id = ? AND available_seats >= ?`
	res, err := tx.ExecContext(ctx, q, n, id, n)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientSeats
	}
	return nil
}

// Create inserts an event.  An empty ID is filled with a new UUID.  Seat
// counts are stored as given; a zero AvailableSeats is a sold-out event.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	const q = `INSERT INTO events (id, title, description, event_date, event_time, venue, address,
	           latitude, longitude, price, total_seats, available_seats, image_url, category)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.Title, e.Description, e.Date, e.Time, e.Venue, e.Address,
		e.Latitude, e.Longitude, e.Price, e.TotalSeats, e.AvailableSeats, e.ImageURL, e.Category,
	)
	if err != nil {
		return err
	}
	got, err := r.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	*e = *got
	return nil
}

// Upsert inserts the event or overwrites its descriptive fields and
// inventory when the id already exists.  The seed command uses it.
func (r *EventRepo) Upsert(ctx context.Context, e *model.Event) error {
	if e.ID == "" {
		return r.Create(ctx, e)
	}
	const q = `INSERT INTO events (id, title, description, event_date, event_time, venue, address,
	           latitude, longitude, price, total_seats, available_seats, image_url, category)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE title = VALUES(title), description = VALUES(description),
	           event_date = VALUES(event_date), event_time = VALUES(event_time), venue = VALUES(venue),
	           address = VALUES(address), latitude = VALUES(latitude), longitude = VALUES(longitude),
	           price = VALUES(price), total_seats = VALUES(total_seats),
	           available_seats = VALUES(available_seats), image_url = VALUES(image_url),
	           category = VALUES(category)`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.Title, e.Description, e.Date, e.Time, e.Venue, e.Address,
		e.Latitude, e.Longitude, e.Price, e.TotalSeats, e.AvailableSeats, e.ImageURL, e.Category,
	)
	return err
}

// Update overwrites the descriptive fields and price of an event.  Seat
// counts are left alone: inventory only moves through bookings.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	const q = `UPDATE events SET title = ?, description = ?, event_date = ?, event_time = ?,
	           venue = ?, address = ?, latitude = ?, longitude = ?, price = ?, image_url = ?,
	           category = ?, updated_at = NOW()
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		e.Title, e.Description, e.Date, e.Time, e.Venue, e.Address,
		e.Latitude, e.Longitude, e.Price, e.ImageURL, e.Category, e.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Unchanged rows report zero too; tell them apart from a missing id.
		if _, err := r.GetByID(ctx, e.ID); err != nil {
			return err
		}
	}
	got, err := r.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	*e = *got
	return nil
}

// EventQuery defines filters and pagination for listing events.
type EventQuery struct {
	Search   string
	Category string
	Page     int
	PageSize int
}

// List returns one page of events ordered by date plus the total count
// matching the filters.
func (r *EventRepo) List(ctx context.Context, q EventQuery) ([]model.Event, int64, error) {
	where := []string{}
	args := []any{}
	if q.Search != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(venue) LIKE ?)")
		like := "%" + strings.ToLower(q.Search) + "%"
		args = append(args, like, like)
	}
	if q.Category != "" {
		where = append(where, "LOWER(category) = ?")
		args = append(args, strings.ToLower(q.Category))
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	dataSQL := `SELECT ` + eventColumns + ` FROM events WHERE ` + cond + `
		ORDER BY event_date ASC, event_time ASC, title ASC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Event, 0, q.PageSize)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
