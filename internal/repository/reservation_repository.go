package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/lodge-operations/internal/model"
)

// mysqlDupEntry is the MySQL error number for a unique-key violation.
const mysqlDupEntry = 1062

// dateFmt is how DATE columns are written; reads rely on
// parseTime=true in the DSN.
const dateFmt = "2006-01-02"

// ReservationRepo provides data access to the reservations and
// reservation_options tables.  Status transitions are performed as
// single conditional UPDATEs so that the status check and the write
// are one atomic statement; the DSN sets clientFoundRows=true so a
// matched-but-unchanged row still counts, and zero matched rows means
// the caller lost the race or requested an illegal move.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for transaction orchestration.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationCols = `id, external_number, guest_name, phone, check_in, check_out,
       product, amount, assigned_room, status, guest_token, checkout_checklist,
       created_at, updated_at`

func scanReservation(row interface {
	Scan(dest ...interface{}) error
}) (*model.Reservation, error) {
	var res model.Reservation
	var room, token sql.NullString
	var checklist []byte
	err := row.Scan(
		&res.ID, &res.ExternalNumber, &res.GuestName, &res.Phone,
		&res.CheckIn, &res.CheckOut, &res.Product, &res.Amount,
		&room, &res.Status, &token, &checklist,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if room.Valid {
		v := room.String
		res.AssignedRoom = &v
	}
	if token.Valid {
		v := token.String
		res.GuestToken = &v
	}
	if len(checklist) > 0 {
		res.Checklist = json.RawMessage(checklist)
	}
	res.Options = []model.StayOption{}
	return &res, nil
}

// ByID returns a reservation with its add-on options, or ErrNotFound.
func (r *ReservationRepo) ByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadOptions(ctx, []*model.Reservation{res}); err != nil {
		return nil, err
	}
	return res, nil
}

// ByExternalNumber returns the reservation imported under the given
// external booking number, or ErrNotFound.
func (r *ReservationRepo) ByExternalNumber(ctx context.Context, number string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE external_number = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadOptions(ctx, []*model.Reservation{res}); err != nil {
		return nil, err
	}
	return res, nil
}

// ByGuestToken resolves a guest portal token, or ErrNotFound.
func (r *ReservationRepo) ByGuestToken(ctx context.Context, token string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE guest_token = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadOptions(ctx, []*model.Reservation{res}); err != nil {
		return nil, err
	}
	return res, nil
}

// Create inserts a new reservation and its options, populating the
// generated id and timestamps on the provided record.  A duplicate
// external number returns ErrConflict.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO reservations
	           (external_number, guest_name, phone, check_in, check_out, product, amount, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		res.ExternalNumber, res.GuestName, res.Phone,
		res.CheckIn.UTC().Format(dateFmt), res.CheckOut.UTC().Format(dateFmt),
		res.Product, res.Amount, res.Status,
	)
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
	res.ID = uint64(id)

	if err := insertOptionsTx(ctx, tx, res.ID, res.Options); err != nil {
		return err
	}

	// Query back to populate timestamps and defaults.
	const sel = `SELECT created_at, updated_at FROM reservations WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt, &res.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func insertOptionsTx(ctx context.Context, tx *sql.Tx, reservationID uint64, options []model.StayOption) error {
	if len(options) == 0 {
		return nil
	}
	query := `INSERT INTO reservation_options (reservation_id, position, name, price) VALUES `
	args := make([]interface{}, 0, len(options)*4)
	for i, opt := range options {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, reservationID, i, opt.Name, opt.Price)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// UpdateBookingFields overwrites the fields a repeated import is
// allowed to change.  Status, room and guest token are deliberately
// not touched here.
func (r *ReservationRepo) UpdateBookingFields(ctx context.Context, id uint64, guestName, phone string, checkIn, checkOut time.Time, product string, amount int64, options []model.StayOption) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `UPDATE reservations
	           SET guest_name = ?, phone = ?, check_in = ?, check_out = ?, product = ?, amount = ?
	           WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, guestName, phone,
		checkIn.UTC().Format(dateFmt), checkOut.UTC().Format(dateFmt),
		product, amount, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reservation_options WHERE reservation_id = ?`, id); err != nil {
		return err
	}
	if err := insertOptionsTx(ctx, tx, id, options); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Assign sets the room, contact phone and ASSIGNED status iff the
// current status is in from.  The guest token is installed only when
// the column is still NULL, which keeps a token immutable across
// re-assignments.
func (r *ReservationRepo) Assign(ctx context.Context, id uint64, room, phone, token string, from []string) (bool, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(from)), ",")
	query := `UPDATE reservations
	          SET assigned_room = ?, phone = ?, guest_token = COALESCE(guest_token, NULLIF(?, '')), status = ?
	          WHERE id = ? AND status IN (` + placeholders + `)`
	args := []interface{}{room, phone, token, model.ReservationAssigned, id}
	for _, s := range from {
		args = append(args, s)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateStatusIf moves the reservation to target iff the current
// status is in from.  Returns false when zero rows matched.
func (r *ReservationRepo) UpdateStatusIf(ctx context.Context, id uint64, target string, from []string) (bool, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(from)), ",")
	query := `UPDATE reservations SET status = ? WHERE id = ? AND status IN (` + placeholders + `)`
	args := []interface{}{target, id}
	for _, s := range from {
		args = append(args, s)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CompleteCheckOut moves the reservation to CHECKED_OUT and stores the
// opaque checklist payload in the same statement.
func (r *ReservationRepo) CompleteCheckOut(ctx context.Context, id uint64, checklist json.RawMessage, from []string) (bool, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(from)), ",")
	query := `UPDATE reservations SET status = ?, checkout_checklist = ?
	          WHERE id = ? AND status IN (` + placeholders + `)`
	var payload interface{}
	if len(checklist) > 0 {
		payload = []byte(checklist)
	}
	args := []interface{}{model.ReservationCheckedOut, payload, id}
	for _, s := range from {
		args = append(args, s)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountOverlapping counts non-cancelled reservations other than
// excludeID assigned to room whose stay interval overlaps [checkIn,
// checkOut).  Cancelled reservations keep their room column for
// history but never occupy.
func (r *ReservationRepo) CountOverlapping(ctx context.Context, room string, checkIn, checkOut time.Time, excludeID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM reservations
	           WHERE assigned_room = ? AND status <> ? AND id <> ?
	             AND check_in < ? AND ? < check_out`
	var n int
	err := r.db.QueryRowContext(ctx, q, room, model.ReservationCancelled, excludeID,
		checkOut.UTC().Format(dateFmt), checkIn.UTC().Format(dateFmt)).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ReservationFilter narrows List results.  Zero values mean "no
// filter".  Date selects reservations whose stay covers the date.
type ReservationFilter struct {
	Status string
	Date   time.Time
	Query  string
	Page   int
	Limit  int
}

// List returns a page of reservations plus the total match count so
// the caller can paginate without a second round-trip.
func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if !f.Date.IsZero() {
		where = append(where, "check_in <= ? AND ? < check_out")
		d := f.Date.UTC().Format(dateFmt)
		args = append(args, d, d)
	}
	if f.Query != "" {
		where = append(where, "(guest_name LIKE ? OR external_number LIKE ?)")
		like := "%" + f.Query + "%"
		args = append(args, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	query := `SELECT ` + reservationCols + ` FROM reservations WHERE ` + cond +
		` ORDER BY check_in DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	// Pointers are taken only after the slice stops growing; appending
	// reallocates the backing array and would leave earlier pointers
	// stale.
	refs := make([]*model.Reservation, 0, len(items))
	for i := range items {
		refs = append(refs, &items[i])
	}
	if err := r.loadOptions(ctx, refs); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Delete removes a reservation and its options.  Deletion is an
// explicit admin action only; lifecycle transitions never delete.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM reservation_options WHERE reservation_id = ?`, id); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
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
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// loadOptions populates the Options slice for all given reservations
// in a single query, preserving booking order.
func (r *ReservationRepo) loadOptions(ctx context.Context, refs []*model.Reservation) error {
	if len(refs) == 0 {
		return nil
	}
	index := make(map[uint64]*model.Reservation, len(refs))
	ids := make([]interface{}, 0, len(refs))
	placeholders := make([]string, 0, len(refs))
	for _, res := range refs {
		index[res.ID] = res
		ids = append(ids, res.ID)
		placeholders = append(placeholders, "?")
	}
	query := `SELECT reservation_id, name, price FROM reservation_options
	          WHERE reservation_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY reservation_id, position`
	rows, err := r.db.QueryContext(ctx, query, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var rid uint64
		var opt model.StayOption
		if err := rows.Scan(&rid, &opt.Name, &opt.Price); err != nil {
			return err
		}
		if res, ok := index[rid]; ok {
			res.Options = append(res.Options, opt)
		}
	}
	return rows.Err()
}
