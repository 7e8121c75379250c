package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/lodge-operations/internal/model"
)

// AdminRepo provides data access to staff accounts.
type AdminRepo struct {
	db *sql.DB
}

// NewAdminRepo returns a new AdminRepo bound to the given database.
func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{db: db} }

// ByUsername returns an admin account or ErrNotFound.
func (r *AdminRepo) ByUsername(ctx context.Context, username string) (*model.Admin, error) {
	const q = `SELECT id, username, password_hash, created_at FROM admins WHERE username = ?`
	var a model.Admin
	err := r.db.QueryRowContext(ctx, q, username).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts an admin account.  A duplicate username returns
// ErrConflict.  Used by the startup bootstrap to seed the first
// account.
func (r *AdminRepo) Create(ctx context.Context, username, passwordHash string) (uint64, error) {
	const q = `INSERT INTO admins (username, password_hash) VALUES (?, ?)`
	result, err := r.db.ExecContext(ctx, q, username, passwordHash)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDupEntry {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListIDs returns every admin account id.  The notifier fans
// notification rows out across all accounts whose toggles allow the
// type.
func (r *AdminRepo) ListIDs(ctx context.Context) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM admins ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
