package models

import "time"

// Reservation is a booking mirrored between the local store and the schedule provider.
type Reservation struct {
	ID          int64     `db:"id"`
	ProviderID  *int64    `db:"rubitime_id"` // nil until the provider accepts the record
	UserID      int64     `db:"user_id"`     // Telegram user id of the owner
	DateTime    time.Time `db:"scheduled_at"`
	Name        string    `db:"name"`
	Phone       string    `db:"phone"`
	Reminded24h bool      `db:"reminded_24h"`
	Reminded12h bool      `db:"reminded_12h"`
	Confirmed   bool      `db:"confirmed"`
	CreatedAt   time.Time `db:"created_at"`
}

// HasProviderID reports whether the reservation is known to the provider.
func (r Reservation) HasProviderID() bool {
	return r.ProviderID != nil && *r.ProviderID != 0
}
