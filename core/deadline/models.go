package deadline

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date form deadlines are exchanged in.
// No time component: all arithmetic is whole-day, local-time.
const DateLayout = "2006-01-02"

const (
	DefaultReminderDaysBefore = 7
	MinReminderDaysBefore     = 1
	MaxReminderDaysBefore     = 365
)

// TrackedDeadline is one (institution, deadline) pair the user chose to monitor.
type TrackedDeadline struct {
	DeadlineID         string `json:"deadlineId"`
	Title              string `json:"title"`
	Date               string `json:"date"` // DateLayout
	InstitutionID      int    `json:"institutionId"`
	InstitutionName    string `json:"institutionName"`
	InstitutionWebsite string `json:"institutionWebsite"`
	ReminderEnabled    bool   `json:"reminderEnabled"`
	ReminderDaysBefore int    `json:"reminderDaysBefore"`
}

// DateValue parses the deadline's calendar date in local time.
func (d TrackedDeadline) DateValue() (time.Time, error) {
	return time.ParseInLocation(DateLayout, d.Date, time.Local)
}

// SynthesizeID builds a stable DeadlineID for directory deadlines that do not
// carry their own id.
func SynthesizeID(institutionID int, title, date string) string {
	return fmt.Sprintf("%d-%s-%s", institutionID, title, date)
}

// UpdateTrackedDeadline defines a partial update; nil fields are left untouched.
// In particular disabling a reminder retains ReminderDaysBefore.
type UpdateTrackedDeadline struct {
	Title              *string `json:"title"`
	Date               *string `json:"date"`
	InstitutionName    *string `json:"institutionName"`
	InstitutionWebsite *string `json:"institutionWebsite"`
	ReminderEnabled    *bool   `json:"reminderEnabled"`
	ReminderDaysBefore *int    `json:"reminderDaysBefore"`
}
