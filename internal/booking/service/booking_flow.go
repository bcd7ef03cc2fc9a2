package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/DenisKhanov/BookingBot/internal/booking/constant"
	"github.com/DenisKhanov/BookingBot/internal/booking/models"
	"github.com/DenisKhanov/BookingBot/internal/booking/phone"
	"github.com/DenisKhanov/BookingBot/internal/booking/session"
	"github.com/sirupsen/logrus"
)

var reClock = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// startBooking lists the cooperators and starts a new booking.
func (b *BookingBot) startBooking(ctx context.Context) (session.State, []models.Reply) {
	cooperators, err := b.directory.GetCooperators(ctx, false)
	if err != nil {
		logrus.WithError(err).Error("Failed to load cooperators")
		return session.Idle{}, []models.Reply{withMenu(constant.MSG_DIRECTORY_UNAVAILABLE)}
	}
	if len(cooperators) == 0 {
		return session.Idle{}, []models.Reply{withMenu(constant.MSG_NO_COOPERATORS)}
	}
	return session.SelectingCooperator{Cooperators: cooperators}, []models.Reply{cooperatorsReply(cooperators)}
}

func (b *BookingBot) selectCooperator(ctx context.Context, st session.SelectingCooperator, input string) (session.State, []models.Reply) {
	id, ok := parseOptionID(input)
	var chosen *models.Cooperator
	for i := range st.Cooperators {
		if ok && st.Cooperators[i].ID == id {
			chosen = &st.Cooperators[i]
			break
		}
	}
	if chosen == nil {
		return st, []models.Reply{cooperatorsReplyWithText(st.Cooperators, constant.MSG_WRONG_COOPERATOR)}
	}

	services, err := b.directory.GetServicesByCooperator(ctx, chosen.ID, false)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to load services of cooperator %d", chosen.ID)
		return session.Idle{}, []models.Reply{withMenu(constant.MSG_DIRECTORY_UNAVAILABLE)}
	}
	if len(services) == 0 {
		return st, []models.Reply{cooperatorsReplyWithText(st.Cooperators, constant.MSG_NO_SERVICES)}
	}
	return session.SelectingService{Cooperator: *chosen, Services: services}, []models.Reply{servicesReply(services)}
}

func (b *BookingBot) selectService(ctx context.Context, st session.SelectingService, input string) (session.State, []models.Reply) {
	id, ok := parseOptionID(input)
	var chosen *models.Service
	for i := range st.Services {
		if ok && st.Services[i].ID == id {
			chosen = &st.Services[i]
			break
		}
	}
	if chosen == nil {
		reply := servicesReply(st.Services)
		reply.Text = constant.MSG_WRONG_SERVICE
		return st, []models.Reply{reply}
	}

	schedule, err := b.schedule.GetSchedule(ctx, st.Cooperator.ID, chosen.ID)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to get schedule for cooperator %d service %d", st.Cooperator.ID, chosen.ID)
		return session.Idle{}, []models.Reply{withMenu(constant.MSG_SCHEDULE_UNAVAILABLE)}
	}
	if len(schedule.Dates()) == 0 {
		reply := servicesReply(st.Services)
		reply.Text = constant.MSG_NO_DATES
		return st, []models.Reply{reply}
	}

	next := session.NewSelectingDate(st.Cooperator, *chosen, schedule, b.opts.PageSize)
	return next, []models.Reply{datesReply(next)}
}

// selectDate handles page navigation and the choice of a date.
// Navigating past either end keeps the page and shows it again.
func (b *BookingBot) selectDate(st session.SelectingDate, input string) (session.State, []models.Reply) {
	switch input {
	case constant.BUTTON_TEXT_PREV_PAGE:
		next, _ := st.Turn(-1)
		return next, []models.Reply{datesReply(next)}
	case constant.BUTTON_TEXT_NEXT_PAGE:
		next, _ := st.Turn(1)
		return next, []models.Reply{datesReply(next)}
	}

	if !contains(st.Dates, input) {
		reply := datesReply(st)
		reply.Text = constant.MSG_WRONG_DATE
		return st, []models.Reply{reply}
	}

	times := st.Schedule.AvailableTimes(input)
	if len(times) == 0 {
		reply := datesReply(st)
		reply.Text = constant.MSG_NO_TIME
		return st, []models.Reply{reply}
	}
	return session.SelectingTime{
		Cooperator: st.Cooperator,
		Service:    st.Service,
		Date:       input,
		Times:      times,
	}, []models.Reply{timesReply(times)}
}

// selectTime accepts an offered HH:MM slot whose service ends by closing time.
func (b *BookingBot) selectTime(st session.SelectingTime, input string) (session.State, []models.Reply) {
	clock, ok := parseClock(input)
	if !ok {
		return st, []models.Reply{textReply(constant.MSG_WRONG_TIME_FORMAT)}
	}

	offered := false
	for _, t := range st.Times {
		if c, ok := parseClock(t); ok && c == clock {
			offered = true
			break
		}
	}
	if !offered {
		return st, []models.Reply{timesReplyWithText(st.Times, constant.MSG_TIME_UNAVAILABLE+strings.Join(st.Times, ", "))}
	}

	end := clock + time.Duration(st.Service.Duration)*time.Minute
	if end > b.opts.WorkdayClose {
		return st, []models.Reply{textReply(fmt.Sprintf(constant.MSG_SERVICE_TOO_LATE, formatClock(b.opts.WorkdayClose)))}
	}

	day, err := time.ParseInLocation(models.DateLayout, st.Date, b.opts.Location)
	if err != nil {
		logrus.WithError(err).Errorf("Schedule date %q is malformed", st.Date)
		return session.Idle{}, []models.Reply{withMenu(constant.MSG_SCHEDULE_UNAVAILABLE)}
	}
	startAt := time.Date(day.Year(), day.Month(), day.Day(),
		int(clock/time.Hour), int(clock%time.Hour/time.Minute), 0, 0, b.opts.Location)

	return session.EnteringName{Draft: session.Draft{
		Cooperator: st.Cooperator,
		Service:    st.Service,
		DateTime:   startAt,
	}}, []models.Reply{{Text: constant.MSG_ENTER_NAME, RemoveKeyboard: true}}
}

func (b *BookingBot) enterName(st session.EnteringName, input string) (session.State, []models.Reply) {
	if input == "" {
		return st, []models.Reply{textReply(constant.MSG_EMPTY_NAME)}
	}
	st.Draft.Name = input
	return session.EnteringPhone{Draft: st.Draft}, []models.Reply{textReply(constant.MSG_ENTER_PHONE)}
}

// enterPhone validates the phone, rejects a duplicate booking and, if enabled, sends the SMS code.
func (b *BookingBot) enterPhone(ctx context.Context, userID int64, st session.EnteringPhone, input string) (session.State, []models.Reply) {
	normalized, err := phone.Normalize(input)
	if err != nil {
		return st, []models.Reply{textReply(constant.MSG_WRONG_PHONE)}
	}
	draft := st.Draft
	draft.Phone = normalized

	duplicate, err := b.hasReservationAt(ctx, userID, draft.DateTime)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to check reservations of user %d", userID)
		return session.Idle{}, []models.Reply{withMenu(constant.MSG_GENERIC_ERROR)}
	}
	if duplicate {
		return session.Idle{}, []models.Reply{withMenu(constant.MSG_ALREADY_BOOKED)}
	}

	if !b.confirmation.Enabled() {
		return session.ConfirmingCreate{Draft: draft}, []models.Reply{confirmCreateReply(draft, b.opts.Location)}
	}
	code, err := b.confirmation.Issue(ctx, normalized)
	if err != nil {
		return session.Idle{}, []models.Reply{withMenu(constant.MSG_SMS_FAILED)}
	}
	return session.ConfirmingCode{Draft: draft, Code: code}, []models.Reply{textReply(constant.MSG_ENTER_CODE)}
}

// hasReservationAt reports whether the user already has a reservation starting within the duplicate window of dt.
func (b *BookingBot) hasReservationAt(ctx context.Context, userID int64, dt time.Time) (bool, error) {
	if b.opts.DuplicateWindow <= 0 {
		existing, err := b.reservations.FindByUserAndDateTime(ctx, userID, dt)
		return existing != nil, err
	}

	list, err := b.reservations.FindByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, r := range list {
		diff := r.DateTime.Sub(dt)
		if diff < 0 {
			diff = -diff
		}
		if diff <= b.opts.DuplicateWindow {
			return true, nil
		}
	}
	return false, nil
}

func (b *BookingBot) confirmCode(st session.ConfirmingCode, input string) (session.State, []models.Reply) {
	if b.confirmation.Verify(st.Code, input) {
		return session.ConfirmingCreate{Draft: st.Draft}, []models.Reply{confirmCreateReply(st.Draft, b.opts.Location)}
	}

	st.Attempts++
	if st.Attempts >= b.opts.CodeMaxAttempts {
		logrus.Warnf("Too many wrong confirmation codes for %s", st.Draft.Phone)
		return session.Idle{}, []models.Reply{withMenu(constant.MSG_CODE_ATTEMPTS_EXCEEDED)}
	}
	return st, []models.Reply{textReply(constant.MSG_WRONG_CODE)}
}

// confirmCreate books the slot at the provider, then stores the reservation locally.
// A local failure removes the provider record again.
func (b *BookingBot) confirmCreate(ctx context.Context, userID int64, st session.ConfirmingCreate, input string) (session.State, []models.Reply) {
	switch input {
	case constant.BUTTON_TEXT_NO:
		return session.Idle{}, []models.Reply{withMenu(constant.MSG_RECORD_DISCARDED)}
	case constant.BUTTON_TEXT_YES:
	default:
		return st, []models.Reply{{Text: constant.MSG_ANSWER_YES_NO, Keyboard: yesNoKeyboard()}}
	}

	d := st.Draft
	providerID, err := b.schedule.CreateRecord(ctx, models.RecordRequest{
		CooperatorID: d.Cooperator.ID,
		ServiceID:    d.Service.ID,
		DateTime:     d.DateTime,
		Name:         d.Name,
		Phone:        d.Phone,
	})
	if err != nil {
		logrus.WithError(err).Errorf("Failed to create record for user %d", userID)
		return session.Idle{}, []models.Reply{withMenu(providerFailureText(err, constant.MSG_PROVIDER_REJECTED))}
	}

	reservation := models.Reservation{
		ProviderID: &providerID,
		UserID:     userID,
		DateTime:   d.DateTime.UTC(),
		Name:       d.Name,
		Phone:      d.Phone,
		Confirmed:  true,
		CreatedAt:  b.opts.Now().UTC(),
	}
	if err = b.reservations.Insert(ctx, &reservation); err != nil {
		logrus.WithError(err).Errorf("Failed to save reservation of user %d, removing record %d", userID, providerID)
		if rmErr := b.schedule.RemoveRecord(ctx, providerID); rmErr != nil {
			logrus.WithError(rmErr).Errorf("Failed to remove orphaned record %d", providerID)
		}
		return session.Idle{}, []models.Reply{withMenu(constant.MSG_SAVE_FAILED)}
	}

	logrus.Infof("Reservation %d (record %d) created for user %d", reservation.ID, providerID, userID)
	return session.Idle{}, []models.Reply{createdReply(reservation, d, b.opts.Location)}
}

// parseClock parses H:MM or HH:MM into an offset from midnight.
func parseClock(s string) (time.Duration, bool) {
	m := reClock.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if h > 23 || minute > 59 {
		return 0, false
	}
	return time.Duration(h)*time.Hour + time.Duration(minute)*time.Minute, true
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cooperatorsReplyWithText(cooperators []models.Cooperator, text string) models.Reply {
	reply := cooperatorsReply(cooperators)
	reply.Text = text
	return reply
}

func timesReplyWithText(times []string, text string) models.Reply {
	reply := timesReply(times)
	reply.Text = text
	return reply
}
