// Package service implements the booking conversation: the per-user state machine that walks a
// user from choosing a cooperator to a confirmed record, and the listing and cancellation of records.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/DenisKhanov/BookingBot/internal/booking/constant"
	"github.com/DenisKhanov/BookingBot/internal/booking/models"
	"github.com/DenisKhanov/BookingBot/internal/booking/session"
	"github.com/sirupsen/logrus"
)

// Directory defines the cached reads of cooperators and services.
type Directory interface {
	GetCooperators(ctx context.Context, force bool) ([]models.Cooperator, error)
	GetServicesByCooperator(ctx context.Context, cooperatorID int64, force bool) ([]models.Service, error)
}

// ScheduleProvider defines the schedule provider operations used by the conversation.
type ScheduleProvider interface {
	GetSchedule(ctx context.Context, cooperatorID, serviceID int64) (models.Schedule, error)
	CreateRecord(ctx context.Context, req models.RecordRequest) (int64, error)
	RemoveRecord(ctx context.Context, providerID int64) error
}

// ReservationStore defines the reservation persistence used by the conversation.
type ReservationStore interface {
	Insert(ctx context.Context, r *models.Reservation) error
	FindByUser(ctx context.Context, userID int64) ([]models.Reservation, error)
	FindByUserAndDateTime(ctx context.Context, userID int64, dt time.Time) (*models.Reservation, error)
	Delete(ctx context.Context, id int64) error
}

// Messenger delivers replies to a chat.
type Messenger interface {
	Send(ctx context.Context, chatID int64, reply models.Reply) error
}

// Options tunes the conversation.
type Options struct {
	PageSize        int            // dates per page
	WorkdayClose    time.Duration  // offset of the closing time from midnight
	DuplicateWindow time.Duration  // 0 matches the exact start time only
	CodeMaxAttempts int            // wrong codes allowed before the flow resets
	Location        *time.Location // business time zone
	Now             func() time.Time
	IsAdmin         func(userID int64) bool // may run /refresh
}

// BookingBot drives the booking conversation of every user.
type BookingBot struct {
	directory    Directory
	schedule     ScheduleProvider
	reservations ReservationStore
	confirmation *Confirmation
	messenger    Messenger
	sessions     *session.Store
	serializer   *session.Serializer
	opts         Options
}

// NewBookingBot creates a BookingBot.
// Arguments:
//   - directory: cached cooperators and services.
//   - schedule: schedule provider client.
//   - reservations: local reservation store.
//   - confirmation: SMS confirmation, may be nil to skip phone confirmation.
//   - messenger: chat transport for replies.
//   - opts: conversation settings.
//
// Returns a pointer to a BookingBot.
func NewBookingBot(directory Directory, schedule ScheduleProvider, reservations ReservationStore,
	confirmation *Confirmation, messenger Messenger, opts Options) *BookingBot {
	if opts.PageSize <= 0 {
		opts.PageSize = 7
	}
	if opts.WorkdayClose <= 0 {
		opts.WorkdayClose = 21 * time.Hour
	}
	if opts.CodeMaxAttempts <= 0 {
		opts.CodeMaxAttempts = 3
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IsAdmin == nil {
		opts.IsAdmin = func(int64) bool { return false }
	}
	return &BookingBot{
		directory:    directory,
		schedule:     schedule,
		reservations: reservations,
		confirmation: confirmation,
		messenger:    messenger,
		sessions:     session.NewStore(),
		serializer:   session.NewSerializer(),
		opts:         opts,
	}
}

// Dispatch queues msg behind the earlier messages of the same user.
// Messages of different users are processed concurrently.
// It returns false after Close.
func (b *BookingBot) Dispatch(ctx context.Context, msg models.IncomingMessage) bool {
	return b.serializer.Submit(msg.UserID, func() {
		b.Handle(ctx, msg)
	})
}

// Handle processes msg and sends the replies. Callers must not run it concurrently for one user.
func (b *BookingBot) Handle(ctx context.Context, msg models.IncomingMessage) {
	for _, reply := range b.Step(ctx, msg) {
		if err := b.messenger.Send(ctx, msg.ChatID, reply); err != nil {
			logrus.WithError(err).Errorf("Failed to send reply to chat %d", msg.ChatID)
		}
	}
}

// Step applies one message to the user's conversation and returns the replies.
func (b *BookingBot) Step(ctx context.Context, msg models.IncomingMessage) []models.Reply {
	current := b.sessions.Get(msg.UserID)
	next, replies := b.transition(ctx, msg.UserID, current, msg.Text)
	b.sessions.Put(msg.UserID, next)

	if current.Kind() != next.Kind() {
		logrus.WithFields(logrus.Fields{
			"user_id": msg.UserID,
			"from":    current.Kind().String(),
			"to":      next.Kind().String(),
		}).Debug("Conversation state changed")
	}
	return replies
}

// State returns the current conversation state of the user.
func (b *BookingBot) State(userID int64) session.State {
	return b.sessions.Get(userID)
}

// ActiveSessions returns the number of users in the middle of a conversation.
func (b *BookingBot) ActiveSessions() int {
	return b.sessions.Len()
}

// Close stops accepting messages and waits for the queued ones.
func (b *BookingBot) Close() {
	b.serializer.Close()
	logrus.Info("Booking bot stopped")
}

// transition is the state machine. Commands win over any state.
func (b *BookingBot) transition(ctx context.Context, userID int64, state session.State, text string) (session.State, []models.Reply) {
	if cmd := parseCommand(text); cmd != cmdNone {
		return b.handleCommand(ctx, userID, cmd)
	}

	input := normalizeInput(text)
	switch st := state.(type) {
	case session.SelectingCooperator:
		return b.selectCooperator(ctx, st, input)
	case session.SelectingService:
		return b.selectService(ctx, st, input)
	case session.SelectingDate:
		return b.selectDate(st, input)
	case session.SelectingTime:
		return b.selectTime(st, input)
	case session.EnteringName:
		return b.enterName(st, input)
	case session.EnteringPhone:
		return b.enterPhone(ctx, userID, st, input)
	case session.ConfirmingCode:
		return b.confirmCode(st, input)
	case session.ConfirmingCreate:
		return b.confirmCreate(ctx, userID, st, input)
	case session.Cancelling:
		return b.selectCancel(st, input)
	case session.ConfirmingCancel:
		return b.confirmCancel(ctx, st, input)
	}
	return session.Idle{}, []models.Reply{menuHintReply()}
}

// handleCommand aborts whatever the user was doing and starts the command.
func (b *BookingBot) handleCommand(ctx context.Context, userID int64, cmd command) (session.State, []models.Reply) {
	switch cmd {
	case cmdNewBooking:
		return b.startBooking(ctx)
	case cmdMyRecords:
		return b.listRecords(ctx, userID)
	case cmdCancel:
		return b.startCancel(ctx, userID)
	case cmdRefresh:
		if b.opts.IsAdmin(userID) {
			return b.refreshDirectory(ctx, userID)
		}
		return session.Idle{}, []models.Reply{menuHintReply()}
	}
	return session.Idle{}, []models.Reply{menuReply()}
}

// refreshDirectory drops the cached cooperator list and loads it again.
func (b *BookingBot) refreshDirectory(ctx context.Context, userID int64) (session.State, []models.Reply) {
	cooperators, err := b.directory.GetCooperators(ctx, true)
	if err != nil {
		logrus.WithError(err).Error("Failed to refresh cooperators")
		return session.Idle{}, []models.Reply{withMenu(constant.MSG_DIRECTORY_UNAVAILABLE)}
	}
	logrus.Infof("Directory refreshed by admin %d", userID)
	return session.Idle{}, []models.Reply{withMenu(fmt.Sprintf(constant.MSG_DIRECTORY_REFRESHED, len(cooperators)))}
}
