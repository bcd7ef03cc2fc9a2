package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/DenisKhanov/BookingBot/internal/booking/models"
	"github.com/sirupsen/logrus"
)

const reservationColumns = `id, rubitime_id, user_id, scheduled_at, name, phone,
	reminded_24h, reminded_12h, confirmed, created_at`

// ReservationRepository is the sqlx backed reservation store.
// All timestamps are written and returned in UTC.
type ReservationRepository struct {
	db *DB
}

// NewReservationRepository creates a ReservationRepository on top of db.
func NewReservationRepository(db *DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Insert stores a new reservation and sets its ID.
func (r *ReservationRepository) Insert(ctx context.Context, res *models.Reservation) error {
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now()
	}
	res.DateTime = res.DateTime.UTC()
	res.CreatedAt = res.CreatedAt.UTC()

	query := `INSERT INTO reservations
		(rubitime_id, user_id, scheduled_at, name, phone, reminded_24h, reminded_12h, confirmed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := []any{res.ProviderID, res.UserID, res.DateTime, res.Name, res.Phone,
		res.Reminded24h, res.Reminded12h, res.Confirmed, res.CreatedAt}

	if r.db.dialect.insertReturnID {
		if err := r.db.QueryRowxContext(ctx, r.db.Rebind(query+" RETURNING id"), args...).Scan(&res.ID); err != nil {
			return fmt.Errorf("failed to insert reservation: %w", err)
		}
		return nil
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to insert reservation: %w", err)
	}
	if res.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read reservation id: %w", err)
	}
	return nil
}

// FindByUser returns the user's reservations ordered by scheduled time.
func (r *ReservationRepository) FindByUser(ctx context.Context, userID int64) ([]models.Reservation, error) {
	query := r.db.Rebind(`SELECT ` + reservationColumns + ` FROM reservations
		WHERE user_id = ? ORDER BY scheduled_at, id`)
	return r.selectReservations(ctx, query, userID)
}

// FindByUserAndDateTime returns the user's reservation at exactly dt, or nil if there is none.
func (r *ReservationRepository) FindByUserAndDateTime(ctx context.Context, userID int64, dt time.Time) (*models.Reservation, error) {
	query := r.db.Rebind(`SELECT ` + reservationColumns + ` FROM reservations
		WHERE user_id = ? AND scheduled_at = ? ORDER BY id LIMIT 1`)
	return r.getReservation(ctx, query, userID, dt.UTC())
}

// FindByID returns the reservation with the given id, or nil if there is none.
func (r *ReservationRepository) FindByID(ctx context.Context, id int64) (*models.Reservation, error) {
	query := r.db.Rebind(`SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`)
	return r.getReservation(ctx, query, id)
}

// FindDueForReminder returns reservations within the next 24 hours that still miss a reminder.
func (r *ReservationRepository) FindDueForReminder(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	now = now.UTC()
	query := r.db.Rebind(`SELECT ` + reservationColumns + ` FROM reservations
		WHERE scheduled_at > ? AND scheduled_at <= ? AND (reminded_24h = ? OR reminded_12h = ?)
		ORDER BY scheduled_at, id`)
	return r.selectReservations(ctx, query, now, now.Add(24*time.Hour), false, false)
}

// FindDueForSync returns confirmed future reservations created at least grace ago.
func (r *ReservationRepository) FindDueForSync(ctx context.Context, now time.Time, grace time.Duration) ([]models.Reservation, error) {
	now = now.UTC()
	query := r.db.Rebind(`SELECT ` + reservationColumns + ` FROM reservations
		WHERE confirmed = ? AND rubitime_id IS NOT NULL AND scheduled_at > ? AND created_at <= ?
		ORDER BY scheduled_at, id`)
	return r.selectReservations(ctx, query, true, now, now.Add(-grace))
}

// Update overwrites the mutable fields of a reservation.
func (r *ReservationRepository) Update(ctx context.Context, res *models.Reservation) error {
	query := r.db.Rebind(`UPDATE reservations SET rubitime_id = ?, scheduled_at = ?, name = ?, phone = ?,
		reminded_24h = ?, reminded_12h = ?, confirmed = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, res.ProviderID, res.DateTime.UTC(), res.Name, res.Phone,
		res.Reminded24h, res.Reminded12h, res.Confirmed, res.ID)
	if err != nil {
		return fmt.Errorf("failed to update reservation %d: %w", res.ID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update reservation %d: %w", res.ID, models.ErrNotFound)
	}
	return nil
}

// UpdateReminderFlags persists the reminder flags of a batch in one transaction.
// Flags are only ever raised: a stored true is never reset to false.
func (r *ReservationRepository) UpdateReminderFlags(ctx context.Context, batch []models.Reservation) (err error) {
	if len(batch) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logrus.WithError(rbErr).Error("Failed to rollback reminder flags transaction")
			}
		}
	}()

	query := tx.Rebind(`UPDATE reservations
		SET reminded_24h = (reminded_24h OR ?), reminded_12h = (reminded_12h OR ?) WHERE id = ?`)
	for _, res := range batch {
		if _, err = tx.ExecContext(ctx, query, res.Reminded24h, res.Reminded12h, res.ID); err != nil {
			return fmt.Errorf("failed to update reminder flags of reservation %d: %w", res.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reminder flags: %w", err)
	}
	return nil
}

// Delete removes a reservation. Deleting a missing row is not an error.
func (r *ReservationRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM reservations WHERE id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete reservation %d: %w", id, err)
	}
	return nil
}

func (r *ReservationRepository) selectReservations(ctx context.Context, query string, args ...any) ([]models.Reservation, error) {
	var list []models.Reservation
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select reservations: %w", err)
	}
	for i := range list {
		toUTC(&list[i])
	}
	return list, nil
}

func (r *ReservationRepository) getReservation(ctx context.Context, query string, args ...any) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.db.GetContext(ctx, &res, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	toUTC(&res)
	return &res, nil
}

func toUTC(res *models.Reservation) {
	res.DateTime = res.DateTime.UTC()
	res.CreatedAt = res.CreatedAt.UTC()
}
