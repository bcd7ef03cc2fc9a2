// Package jobs holds the periodic background work of the bot: reminders, provider sync and the cron runner.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/DenisKhanov/BookingBot/internal/booking/constant"
	"github.com/DenisKhanov/BookingBot/internal/booking/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	firstReminderLead  = 24 * time.Hour
	secondReminderLead = 12 * time.Hour
)

// ReminderStore defines the reservation queries of the reminder job.
type ReminderStore interface {
	FindDueForReminder(ctx context.Context, now time.Time) ([]models.Reservation, error)
	UpdateReminderFlags(ctx context.Context, batch []models.Reservation) error
}

// Notifier delivers a message to a user's private chat.
type Notifier interface {
	Send(ctx context.Context, chatID int64, reply models.Reply) error
}

// ReminderJob sends the 24h and 12h reminders of upcoming reservations.
type ReminderJob struct {
	store    ReminderStore
	notifier Notifier
	limiter  *rate.Limiter
	location *time.Location
	now      func() time.Time
}

// NewReminderJob creates a ReminderJob.
// Arguments:
//   - store: reservation store.
//   - notifier: chat transport.
//   - perSecond: upper bound of reminders sent per second, unlimited when not positive.
//   - location: time zone reminders show times in.
//   - now: clock, time.Now when nil.
//
// Returns a pointer to a ReminderJob.
func NewReminderJob(store ReminderStore, notifier Notifier, perSecond float64, location *time.Location, now func() time.Time) *ReminderJob {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if location == nil {
		location = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &ReminderJob{
		store:    store,
		notifier: notifier,
		limiter:  rate.NewLimiter(limit, 1),
		location: location,
		now:      now,
	}
}

// Name identifies the job in logs.
func (j *ReminderJob) Name() string {
	return "reminders"
}

// RunOnce sends every reminder that is due now.
// A flag is raised only after its message was delivered; failed sends are retried on the next run.
func (j *ReminderJob) RunOnce(ctx context.Context) error {
	now := j.now()
	due, err := j.store.FindDueForReminder(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to find reservations due for reminder: %w", err)
	}

	var reminded []models.Reservation
	for _, r := range due {
		lead := r.DateTime.Sub(now)
		var template string
		switch {
		case lead <= 0:
			continue
		case lead <= secondReminderLead && !r.Reminded12h:
			template = constant.MSG_REMINDER_12H
		case lead > secondReminderLead && lead <= firstReminderLead && !r.Reminded24h:
			template = constant.MSG_REMINDER_24H
		default:
			continue
		}

		if err = j.limiter.Wait(ctx); err != nil {
			logrus.WithError(err).Warn("Reminder run interrupted")
			break
		}
		text := fmt.Sprintf(template, r.DateTime.In(j.location).Format(models.DisplayLayout))
		if err = j.notifier.Send(ctx, r.UserID, models.Reply{Text: text}); err != nil {
			logrus.WithError(err).Debugf("Failed to send reminder for reservation %d", r.ID)
			continue
		}

		if template == constant.MSG_REMINDER_12H {
			// 24h-напоминание уже неактуально
			r.Reminded12h = true
			r.Reminded24h = true
		} else {
			r.Reminded24h = true
		}
		reminded = append(reminded, r)
	}

	if len(reminded) == 0 {
		return nil
	}
	if err = j.store.UpdateReminderFlags(ctx, reminded); err != nil {
		return fmt.Errorf("failed to save reminder flags: %w", err)
	}
	logrus.Infof("Sent %d reminders", len(reminded))
	return nil
}
