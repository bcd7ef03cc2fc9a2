package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/DenisKhanov/BookingBot/internal/booking/models"
	"github.com/sirupsen/logrus"
)

// SyncStore defines the reservation queries of the sync job.
type SyncStore interface {
	FindDueForSync(ctx context.Context, now time.Time, grace time.Duration) ([]models.Reservation, error)
	Delete(ctx context.Context, id int64) error
}

// RecordChecker looks a record up at the schedule provider.
type RecordChecker interface {
	GetRecord(ctx context.Context, providerID int64) error
}

// SyncJob drops local reservations whose provider record no longer exists.
type SyncJob struct {
	store    SyncStore
	provider RecordChecker
	grace    time.Duration
	now      func() time.Time
}

// NewSyncJob creates a SyncJob. Reservations younger than grace are skipped.
func NewSyncJob(store SyncStore, provider RecordChecker, grace time.Duration, now func() time.Time) *SyncJob {
	if now == nil {
		now = time.Now
	}
	return &SyncJob{
		store:    store,
		provider: provider,
		grace:    grace,
		now:      now,
	}
}

// Name identifies the job in logs.
func (j *SyncJob) Name() string {
	return "sync"
}

// RunOnce checks every upcoming reservation against the provider.
// Only an explicit rejection deletes a reservation; transport errors leave it for the next run.
func (j *SyncJob) RunOnce(ctx context.Context) error {
	due, err := j.store.FindDueForSync(ctx, j.now(), j.grace)
	if err != nil {
		return fmt.Errorf("failed to find reservations due for sync: %w", err)
	}

	removed := 0
	for _, r := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !r.HasProviderID() {
			continue
		}

		err = j.provider.GetRecord(ctx, *r.ProviderID)
		switch {
		case err == nil:
			continue
		case models.IsRejected(err):
			if err = j.store.Delete(ctx, r.ID); err != nil {
				logrus.WithError(err).Errorf("Failed to delete reservation %d", r.ID)
				continue
			}
			removed++
			logrus.Infof("Reservation %d removed: record %d no longer exists at provider", r.ID, *r.ProviderID)
		default:
			logrus.WithError(err).Warnf("Failed to check record %d of reservation %d", *r.ProviderID, r.ID)
		}
	}

	if removed > 0 {
		logrus.Infof("Sync removed %d of %d reservations", removed, len(due))
	}
	return nil
}
