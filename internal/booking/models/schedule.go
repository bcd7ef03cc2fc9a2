package models

import (
	"sort"
	"time"
)

// Layouts used by the schedule provider.
const (
	DateLayout    = "2006-01-02"
	TimeLayout    = "15:04"
	RecordLayout  = "2006-01-02 15:04:05"
	DisplayLayout = "2006-01-02 15:04"
)

// Slot describes a single time slot of a schedule day.
type Slot struct {
	Available bool `json:"available"`
}

// Schedule maps a date (YYYY-MM-DD) to its time slots (HH:MM).
type Schedule map[string]map[string]Slot

// Dates returns the schedule dates in ascending order.
func (s Schedule) Dates() []string {
	dates := make([]string, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// AvailableTimes returns the available slot times of the date in ascending order.
func (s Schedule) AvailableTimes(date string) []string {
	var times []string
	for t, slot := range s[date] {
		if slot.Available {
			times = append(times, t)
		}
	}
	sort.Strings(times)
	return times
}

// RecordRequest is the payload of a create-record call.
type RecordRequest struct {
	CooperatorID int64
	ServiceID    int64
	DateTime     time.Time
	Name         string
	Phone        string
}
