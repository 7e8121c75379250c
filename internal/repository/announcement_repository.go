package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/lodge-operations/internal/model"
)

// AnnouncementRepo provides data access to announcements and their
// per-reservation read receipts.  Receipts are append-only and
// idempotent on the (reservation, announcement) pair.
type AnnouncementRepo struct {
	db *sql.DB
}

// NewAnnouncementRepo returns a new AnnouncementRepo bound to the given database.
func NewAnnouncementRepo(db *sql.DB) *AnnouncementRepo { return &AnnouncementRepo{db: db} }

const announcementCols = `id, content, level, starts_at, ends_at, active, created_at, updated_at`

func scanAnnouncement(row interface {
	Scan(dest ...interface{}) error
}) (*model.Announcement, error) {
	var a model.Announcement
	var ends sql.NullTime
	if err := row.Scan(&a.ID, &a.Content, &a.Level, &a.StartsAt, &ends, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if ends.Valid {
		v := ends.Time
		a.EndsAt = &v
	}
	return &a, nil
}

// ByID returns an announcement or ErrNotFound.
func (r *AnnouncementRepo) ByID(ctx context.Context, id uint64) (*model.Announcement, error) {
	const q = `SELECT ` + announcementCols + ` FROM announcements WHERE id = ?`
	a, err := scanAnnouncement(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// Create inserts an announcement and populates the generated id and
// timestamps.
func (r *AnnouncementRepo) Create(ctx context.Context, a *model.Announcement) error {
	const q = `INSERT INTO announcements (content, level, starts_at, ends_at, active) VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, a.Content, a.Level, a.StartsAt, a.EndsAt, a.Active)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM announcements WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, a.ID).Scan(&a.CreatedAt, &a.UpdatedAt)
}

// Update overwrites an announcement's fields.
func (r *AnnouncementRepo) Update(ctx context.Context, a *model.Announcement) error {
	const q = `UPDATE announcements SET content = ?, level = ?, starts_at = ?, ends_at = ?, active = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, a.Content, a.Level, a.StartsAt, a.EndsAt, a.Active, a.ID)
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

// Delete removes an announcement and its receipts.
func (r *AnnouncementRepo) Delete(ctx context.Context, id uint64) error {
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
	if _, err := tx.ExecContext(ctx, `DELETE FROM announcement_reads WHERE announcement_id = ?`, id); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM announcements WHERE id = ?`, id)
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

// ListActive returns announcements currently visible to guests: the
// active flag is set and now falls inside [starts_at, ends_at), where
// a NULL ends_at means no end.
func (r *AnnouncementRepo) ListActive(ctx context.Context) ([]model.Announcement, error) {
	const q = `SELECT ` + announcementCols + ` FROM announcements
	           WHERE active = 1 AND starts_at <= UTC_TIMESTAMP()
	             AND (ends_at IS NULL OR UTC_TIMESTAMP() < ends_at)
	           ORDER BY starts_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Announcement, 0)
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// AnnouncementFilter narrows List results for the admin surface.
type AnnouncementFilter struct {
	Level string
	Query string
	Page  int
	Limit int
}

// List returns a page of announcements plus the total match count.
func (r *AnnouncementRepo) List(ctx context.Context, f AnnouncementFilter) ([]model.Announcement, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if f.Level != "" {
		where = append(where, "level = ?")
		args = append(args, f.Level)
	}
	if f.Query != "" {
		where = append(where, "content LIKE ?")
		args = append(args, "%"+f.Query+"%")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM announcements WHERE `+cond, args...).Scan(&total); err != nil {
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
	query := `SELECT ` + announcementCols + ` FROM announcements WHERE ` + cond +
		` ORDER BY starts_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := make([]model.Announcement, 0)
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// RecordRead appends a read receipt for the pair.  Repeats are
// harmless: the unique key on (reservation_id, announcement_id) turns
// a duplicate insert into a no-op that keeps the original read_at.
func (r *AnnouncementRepo) RecordRead(ctx context.Context, reservationID, announcementID uint64) error {
	const q = `INSERT INTO announcement_reads (reservation_id, announcement_id)
	           VALUES (?, ?)
	           ON DUPLICATE KEY UPDATE read_at = read_at`
	_, err := r.db.ExecContext(ctx, q, reservationID, announcementID)
	return err
}

// ListReads returns the read receipts recorded for a reservation.
func (r *AnnouncementRepo) ListReads(ctx context.Context, reservationID uint64) ([]model.ReadReceipt, error) {
	const q = `SELECT reservation_id, announcement_id, read_at FROM announcement_reads
	           WHERE reservation_id = ? ORDER BY read_at`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.ReadReceipt, 0)
	for rows.Next() {
		var rr model.ReadReceipt
		if err := rows.Scan(&rr.ReservationID, &rr.AnnouncementID, &rr.ReadAt); err != nil {
			return nil, err
		}
		items = append(items, rr)
	}
	return items, rows.Err()
}
