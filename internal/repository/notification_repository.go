package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/lodge-operations/internal/model"
)

// NotificationRepo provides data access to per-admin notifications and
// the per-type enable toggles.  Rows are written fire-and-forget after
// a state transition commits; a write failure here never fails the
// transition.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo returns a new NotificationRepo bound to the given database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

const notificationCols = `id, admin_id, notif_type, title, body, is_read, created_at`

// Create inserts a notification row for one admin.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	const q = `INSERT INTO notifications (admin_id, notif_type, title, body) VALUES (?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, n.AdminID, n.Type, n.Title, n.Body)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	const sel = `SELECT created_at FROM notifications WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, n.ID).Scan(&n.CreatedAt)
}

// ListByAdmin returns a page of the admin's notifications, newest
// first, plus the total count.  When unreadOnly is set, only unread
// rows are returned and counted.
func (r *NotificationRepo) ListByAdmin(ctx context.Context, adminID uint64, unreadOnly bool, page, limit int) ([]model.Notification, int, error) {
	cond := `admin_id = ?`
	args := []interface{}{adminID}
	if unreadOnly {
		cond += ` AND is_read = 0`
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	query := `SELECT ` + notificationCols + ` FROM notifications WHERE ` + cond +
		` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.AdminID, &n.Type, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// MarkRead flags one notification as read.  The admin id is part of
// the predicate so one admin cannot touch another's rows.
func (r *NotificationRepo) MarkRead(ctx context.Context, adminID, id uint64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND admin_id = ?`, id, adminID)
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

// MarkAllRead flags every unread notification for the admin.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, adminID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE admin_id = ? AND is_read = 0`, adminID)
	return err
}

// Delete removes one notification for the admin.
func (r *NotificationRepo) Delete(ctx context.Context, adminID, id uint64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = ? AND admin_id = ?`, id, adminID)
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

// Settings returns the admin's per-type toggles.  Types with no row
// default to enabled and are not included.
func (r *NotificationRepo) Settings(ctx context.Context, adminID uint64) ([]model.NotificationSetting, error) {
	const q = `SELECT admin_id, notif_type, enabled FROM notification_settings WHERE admin_id = ? ORDER BY notif_type`
	rows, err := r.db.QueryContext(ctx, q, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.NotificationSetting, 0)
	for rows.Next() {
		var s model.NotificationSetting
		if err := rows.Scan(&s.AdminID, &s.Type, &s.Enabled); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// UpsertSetting stores one toggle, overwriting a previous value.
func (r *NotificationRepo) UpsertSetting(ctx context.Context, s model.NotificationSetting) error {
	const q = `INSERT INTO notification_settings (admin_id, notif_type, enabled)
	           VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE enabled = VALUES(enabled)`
	_, err := r.db.ExecContext(ctx, q, s.AdminID, s.Type, s.Enabled)
	return err
}

// Enabled reports whether the admin receives the given notification
// type.  Absence of a row means enabled.
func (r *NotificationRepo) Enabled(ctx context.Context, adminID uint64, notifType string) (bool, error) {
	const q = `SELECT enabled FROM notification_settings WHERE admin_id = ? AND notif_type = ?`
	var enabled bool
	err := r.db.QueryRowContext(ctx, q, adminID, notifType).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return enabled, nil
}
