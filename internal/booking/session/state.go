// Package session keeps per-user conversation state and serializes the work done for each user.
package session

import (
	"time"

	"github.com/DenisKhanov/BookingBot/internal/booking/models"
)

// Kind tags a conversation state.
type Kind int

const (
	KindIdle Kind = iota
	KindSelectingCooperator
	KindSelectingService
	KindSelectingDate
	KindSelectingTime
	KindEnteringName
	KindEnteringPhone
	KindConfirmingCode
	KindConfirmingCreate
	KindCancelling
	KindConfirmingCancel
)

var kindNames = [...]string{
	KindIdle:                "idle",
	KindSelectingCooperator: "selecting_cooperator",
	KindSelectingService:    "selecting_service",
	KindSelectingDate:       "selecting_date",
	KindSelectingTime:       "selecting_time",
	KindEnteringName:        "entering_name",
	KindEnteringPhone:       "entering_phone",
	KindConfirmingCode:      "confirming_code",
	KindConfirmingCreate:    "confirming_create",
	KindCancelling:          "cancelling",
	KindConfirmingCancel:    "confirming_cancel",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// State is one step of a conversation. Each implementation carries only the data its step needs.
type State interface {
	Kind() Kind
}

// Draft accumulates the choices of a booking conversation.
type Draft struct {
	Cooperator models.Cooperator
	Service    models.Service
	DateTime   time.Time // slot start in the business time zone
	Name       string
	Phone      string // canonical +7XXXXXXXXXX
}

type Idle struct{}

// SelectingCooperator waits for one of the listed cooperators.
type SelectingCooperator struct {
	Cooperators []models.Cooperator
}

// SelectingService waits for one of the cooperator's services.
type SelectingService struct {
	Cooperator models.Cooperator
	Services   []models.Service
}

// SelectingDate pages through the schedule dates.
type SelectingDate struct {
	Cooperator models.Cooperator
	Service    models.Service
	Schedule   models.Schedule
	Dates      []string // sorted schedule dates
	Page       int      // zero-based, always within [0, LastPage]
	PageSize   int
}

// SelectingTime waits for a slot of the chosen date.
type SelectingTime struct {
	Cooperator models.Cooperator
	Service    models.Service
	Date       string
	Times      []string // available HH:MM slots
}

type EnteringName struct {
	Draft Draft
}

type EnteringPhone struct {
	Draft Draft
}

// ConfirmingCode waits for the SMS code sent to Draft.Phone.
type ConfirmingCode struct {
	Draft    Draft
	Code     string
	Attempts int // failed attempts so far
}

type ConfirmingCreate struct {
	Draft Draft
}

// Cancelling holds the reservations listed when the cancellation started.
type Cancelling struct {
	Reservations []models.Reservation
}

type ConfirmingCancel struct {
	Reservation models.Reservation
}

func (Idle) Kind() Kind                { return KindIdle }
func (SelectingCooperator) Kind() Kind { return KindSelectingCooperator }
func (SelectingService) Kind() Kind    { return KindSelectingService }
func (SelectingDate) Kind() Kind       { return KindSelectingDate }
func (SelectingTime) Kind() Kind       { return KindSelectingTime }
func (EnteringName) Kind() Kind        { return KindEnteringName }
func (EnteringPhone) Kind() Kind       { return KindEnteringPhone }
func (ConfirmingCode) Kind() Kind      { return KindConfirmingCode }
func (ConfirmingCreate) Kind() Kind    { return KindConfirmingCreate }
func (Cancelling) Kind() Kind          { return KindCancelling }
func (ConfirmingCancel) Kind() Kind    { return KindConfirmingCancel }

// NewSelectingDate starts date selection on the first page.
func NewSelectingDate(c models.Cooperator, s models.Service, schedule models.Schedule, pageSize int) SelectingDate {
	if pageSize <= 0 {
		pageSize = 7
	}
	return SelectingDate{
		Cooperator: c,
		Service:    s,
		Schedule:   schedule,
		Dates:      schedule.Dates(),
		PageSize:   pageSize,
	}
}

// PageCount returns ceil(len(Dates) / PageSize).
func (s SelectingDate) PageCount() int {
	return (len(s.Dates) + s.PageSize - 1) / s.PageSize
}

// LastPage returns the index of the last page, 0 for an empty schedule.
func (s SelectingDate) LastPage() int {
	if n := s.PageCount(); n > 0 {
		return n - 1
	}
	return 0
}

// PageDates returns the dates of the current page.
func (s SelectingDate) PageDates() []string {
	start := s.Page * s.PageSize
	if start >= len(s.Dates) {
		return nil
	}
	end := start + s.PageSize
	if end > len(s.Dates) {
		end = len(s.Dates)
	}
	return s.Dates[start:end]
}

// HasPrev reports whether a previous page exists.
func (s SelectingDate) HasPrev() bool { return s.Page > 0 }

// HasNext reports whether a next page exists.
func (s SelectingDate) HasNext() bool { return s.Page < s.LastPage() }

// Turn moves the page by delta, clamped to [0, LastPage].
// It reports whether the page changed.
func (s SelectingDate) Turn(delta int) (SelectingDate, bool) {
	page := s.Page + delta
	if page < 0 {
		page = 0
	}
	if last := s.LastPage(); page > last {
		page = last
	}
	moved := page != s.Page
	s.Page = page
	return s, moved
}
