package model

import "time"

// Admin is a staff account.  Admins authenticate with a username and
// password and receive a bearer JWT; the admin ID from the token is
// threaded through every admin-facing call so that notification rows,
// settings and event audiences stay scoped per account.
type Admin struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
