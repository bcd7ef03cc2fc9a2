// Package models contains the data types shared by the booking bot packages.
package models

// Cooperator is a staff member who performs services.
type Cooperator struct {
	ID       int64     `db:"id"`        // Provider-side cooperator id
	BranchID int64     `db:"branch_id"` // Branch the cooperator works at
	Name     string    `db:"name"`      // Display name
	Services []Service `db:"-"`         // Services offered by the cooperator
}

// Service is a bookable offering tied to one cooperator.
type Service struct {
	ID           int64   `db:"id"`
	BranchID     int64   `db:"branch_id"`
	CooperatorID int64   `db:"cooperator_id"`
	Name         string  `db:"name"`
	Price        float64 `db:"price"`
	Duration     int     `db:"duration"` // minutes
}
