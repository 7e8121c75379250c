package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/lodge-operations/internal/model"
)

// OrderRepo provides data access to the orders and order_items
// tables.  An order always belongs to exactly one reservation and is
// never deleted; only its status moves, via a conditional UPDATE.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `id, reservation_id, order_type, total_amount, status,
       delivery_time, note, created_at, updated_at`

func scanOrder(row interface {
	Scan(dest ...interface{}) error
}) (*model.Order, error) {
	var o model.Order
	var delivery, note sql.NullString
	err := row.Scan(
		&o.ID, &o.ReservationID, &o.Type, &o.TotalAmount, &o.Status,
		&delivery, &note, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if delivery.Valid {
		v := delivery.String
		o.DeliveryTime = &v
	}
	if note.Valid {
		v := note.String
		o.Note = &v
	}
	o.Items = []model.OrderItem{}
	return &o, nil
}

// ByID returns an order with its line items, or ErrNotFound.
func (r *OrderRepo) ByID(ctx context.Context, id uint64) (*model.Order, error) {
	const q = `SELECT ` + orderCols + ` FROM orders WHERE id = ?`
	o, err := scanOrder(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, []*model.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// Create inserts an order and its line items in one transaction and
// populates the generated id and timestamps on the record.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
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

	const q = `INSERT INTO orders (reservation_id, order_type, total_amount, status, delivery_time, note)
	           VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, o.ReservationID, o.Type, o.TotalAmount, o.Status, o.DeliveryTime, o.Note)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)

	if len(o.Items) > 0 {
		query := `INSERT INTO order_items (order_id, position, item_id, name, quantity, unit_price) VALUES `
		args := make([]interface{}, 0, len(o.Items)*6)
		for i, item := range o.Items {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?, ?)"
			args = append(args, o.ID, i, item.ItemID, item.Name, item.Quantity, item.UnitPrice)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	const sel = `SELECT created_at, updated_at FROM orders WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, o.ID).Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UpdateStatusIf moves the order to target iff the current status is
// in from, and returns the status the order actually held at that
// moment.  The row is locked for the read and the write, so the
// returned old status is exact even under concurrent transitions.
// Returns false (and an empty old status) when the row is missing or
// the status check failed.
func (r *OrderRepo) UpdateStatusIf(ctx context.Context, id uint64, target string, from []string) (string, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ? FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	matched := false
	for _, s := range from {
		if s == current {
			matched = true
			break
		}
	}
	if !matched {
		return "", false, nil
	}
	if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, target, id); err != nil {
		return "", false, err
	}
	if err := tx.Commit(); err != nil {
		return "", false, err
	}
	committed = true
	return current, true, nil
}

// ListByReservation returns every order for a reservation, newest
// first, with line items populated.  Used both by the guest portal
// and as the stream snapshot.
func (r *OrderRepo) ListByReservation(ctx context.Context, reservationID uint64) ([]model.Order, error) {
	const q = `SELECT ` + orderCols + ` FROM orders WHERE reservation_id = ? ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Pointers are taken only after the slice stops growing; appending
	// reallocates the backing array and would leave earlier pointers
	// stale.
	refs := make([]*model.Order, 0, len(items))
	for i := range items {
		refs = append(refs, &items[i])
	}
	if err := r.loadItems(ctx, refs); err != nil {
		return nil, err
	}
	return items, nil
}

// OrderFilter narrows List results.  Zero values mean "no filter".
type OrderFilter struct {
	Status        string
	Type          string
	ReservationID uint64
	Page          int
	Limit         int
}

// List returns a page of orders plus the total match count.
func (r *OrderRepo) List(ctx context.Context, f OrderFilter) ([]model.Order, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Type != "" {
		where = append(where, "order_type = ?")
		args = append(args, f.Type)
	}
	if f.ReservationID != 0 {
		where = append(where, "reservation_id = ?")
		args = append(args, f.ReservationID)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE `+cond, args...).Scan(&total); err != nil {
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
	query := `SELECT ` + orderCols + ` FROM orders WHERE ` + cond + ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	refs := make([]*model.Order, 0, len(items))
	for i := range items {
		refs = append(refs, &items[i])
	}
	if err := r.loadItems(ctx, refs); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// loadItems populates line items for all given orders in one query,
// preserving line order.
func (r *OrderRepo) loadItems(ctx context.Context, refs []*model.Order) error {
	if len(refs) == 0 {
		return nil
	}
	index := make(map[uint64]*model.Order, len(refs))
	ids := make([]interface{}, 0, len(refs))
	placeholders := make([]string, 0, len(refs))
	for _, o := range refs {
		index[o.ID] = o
		ids = append(ids, o.ID)
		placeholders = append(placeholders, "?")
	}
	query := `SELECT order_id, item_id, name, quantity, unit_price FROM order_items
	          WHERE order_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY order_id, position`
	rows, err := r.db.QueryContext(ctx, query, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var oid uint64
		var item model.OrderItem
		if err := rows.Scan(&oid, &item.ItemID, &item.Name, &item.Quantity, &item.UnitPrice); err != nil {
			return err
		}
		if o, ok := index[oid]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}
