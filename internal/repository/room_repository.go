package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/lodge-operations/internal/model"
)

// RoomRepo provides data access to the rooms table.  The status
// column is a manual staff override; whether a room is occupied on a
// date is derived from reservations and exposed through ListFree.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomCols = `id, name, capacity, status, created_at, updated_at`

func scanRoom(row interface {
	Scan(dest ...interface{}) error
}) (*model.Room, error) {
	var rm model.Room
	if err := row.Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.Status, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		return nil, err
	}
	return &rm, nil
}

// ByID returns a room or ErrNotFound.
func (r *RoomRepo) ByID(ctx context.Context, id uint64) (*model.Room, error) {
	const q = `SELECT ` + roomCols + ` FROM rooms WHERE id = ?`
	rm, err := scanRoom(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rm, err
}

// ByName returns a room by its unique display name, or ErrNotFound.
func (r *RoomRepo) ByName(ctx context.Context, name string) (*model.Room, error) {
	const q = `SELECT ` + roomCols + ` FROM rooms WHERE name = ?`
	rm, err := scanRoom(r.db.QueryRowContext(ctx, q, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rm, err
}

// Create inserts a room.  A duplicate name returns ErrConflict.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	const q = `INSERT INTO rooms (name, capacity, status) VALUES (?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, rm.Name, rm.Capacity, rm.Status)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDupEntry {
			return ErrConflict
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM rooms WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, rm.ID).Scan(&rm.CreatedAt, &rm.UpdatedAt)
}

// Update overwrites a room's editable fields.  Renaming keeps the
// name unique; collisions return ErrConflict.
func (r *RoomRepo) Update(ctx context.Context, rm *model.Room) error {
	const q = `UPDATE rooms SET name = ?, capacity = ?, status = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, rm.Name, rm.Capacity, rm.Status, rm.ID)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDupEntry {
			return ErrConflict
		}
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a room.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all rooms ordered by name.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
	const q = `SELECT ` + roomCols + ` FROM rooms ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rm)
	}
	return items, rows.Err()
}

// ListFree returns rooms with no non-cancelled reservation overlapping
// [checkIn, checkOut), excluding the given reservation so that a stay
// being re-assigned does not block its own room.  Rooms under
// maintenance are filtered out; the caller surfaces the rest to staff
// as the free-room list.
func (r *RoomRepo) ListFree(ctx context.Context, checkIn, checkOut time.Time, excludeReservationID uint64) ([]model.Room, error) {
	const q = `SELECT ` + roomCols + ` FROM rooms rm
	           WHERE rm.status <> ?
	             AND NOT EXISTS (
	               SELECT 1 FROM reservations r
	               WHERE r.assigned_room = rm.name
	                 AND r.status <> ?
	                 AND r.id <> ?
	                 AND r.check_in < ? AND ? < r.check_out
	             )
	           ORDER BY rm.name`
	rows, err := r.db.QueryContext(ctx, q,
		model.RoomMaintenance, model.ReservationCancelled, excludeReservationID,
		checkOut.UTC().Format(dateFmt), checkIn.UTC().Format(dateFmt))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rm)
	}
	return items, rows.Err()
}
