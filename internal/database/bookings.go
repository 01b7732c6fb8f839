package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"roombot/internal/models"
)

// CreateBooking inserts a new interval after checking it is free. The check
// and the insert run in one immediate transaction so two concurrent calls
// cannot both pass the check; the unique start index backs it up. Returns
// ErrTimeOccupied on conflict and sets the item ID on success.
func (db *DB) CreateBooking(ctx context.Context, item *models.BookingItem) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback()

	end := item.End()
	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE start_time = ?
		   OR (start_time < ? AND end_time > ?)`,
		item.Start, end, item.Start,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("check interval: %w", err)
	}
	if count > 0 {
		return ErrTimeOccupied
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO bookings (start_time, end_time, description, owner_id)
		VALUES (?, ?, ?, ?)`,
		item.Start, end, item.Description, item.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("booking id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	item.ID = id
	return nil
}

// IsFree reports whether [start, start+duration) does not conflict with any
// stored interval.
func (db *DB) IsFree(ctx context.Context, start time.Time, duration time.Duration) (bool, error) {
	end := start.Add(duration)
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE start_time = ?
		   OR (start_time < ? AND end_time > ?)`,
		start, end, start,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check interval: %w", err)
	}
	return count == 0, nil
}

// FindBookingAt returns the item whose interval contains the instant
// (start <= t < end), or whose start equals it exactly. Nil when none.
func (db *DB) FindBookingAt(ctx context.Context, t time.Time) (*models.BookingItem, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, start_time, end_time, description, owner_id FROM bookings
		WHERE (start_time <= ? AND end_time > ?) OR start_time = ?
		LIMIT 1`,
		t, t, t,
	)
	item, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return item, nil
}

// RangeBookings returns items whose interval intersects [from, to), ordered
// by start ascending. A nil bound is unbounded on that side.
func (db *DB) RangeBookings(ctx context.Context, from, to *time.Time) ([]models.BookingItem, error) {
	query := `SELECT id, start_time, end_time, description, owner_id FROM bookings`
	var conds []string
	var args []interface{}
	if from != nil {
		conds = append(conds, "end_time > ?")
		args = append(args, *from)
	}
	if to != nil {
		conds = append(conds, "start_time < ?")
		args = append(args, *to)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY start_time ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("range bookings: %w", err)
	}
	defer rows.Close()

	var items []models.BookingItem
	for rows.Next() {
		item, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// DeleteBooking removes an item by ID and reports whether a row was deleted.
// The check-then-delete callers race safely: at most one delete wins.
func (db *DB) DeleteBooking(ctx context.Context, id int64) (bool, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM bookings WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete booking: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*models.BookingItem, error) {
	var item models.BookingItem
	var end time.Time
	if err := row.Scan(&item.ID, &item.Start, &end, &item.Description, &item.OwnerID); err != nil {
		return nil, err
	}
	item.Duration = end.Sub(item.Start)
	return &item, nil
}
