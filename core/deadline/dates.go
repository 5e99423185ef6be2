package deadline

import (
	"math"
	"time"
)

// Status buckets a deadline by how far out it is.
type Status int

const (
	PastDue Status = iota
	DueToday
	DueSoon  // 1..7 days out
	Upcoming // 8..30 days out
	Future   // 31+ days out
)

func (s Status) String() string {
	switch s {
	case PastDue:
		return "past due"
	case DueToday:
		return "due today"
	case DueSoon:
		return "due soon"
	case Upcoming:
		return "upcoming"
	default:
		return "future"
	}
}

// ReminderEligibility is the derived reminder view of a tracked deadline at a
// given reference date. Never persisted.
type ReminderEligibility struct {
	DaysUntil int
	Due       bool
}

// DaysUntil returns the number of whole calendar days from reference to the
// deadline, both normalized to midnight local time. Negative values denote
// past-due deadlines; zero denotes due today.
func DaysUntil(deadlineDate, referenceDate time.Time) int {
	diff := midnight(deadlineDate).Sub(midnight(referenceDate))
	return int(math.Ceil(diff.Hours() / 24))
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Classify partitions the integer line into five contiguous bands.
func Classify(daysUntil int) Status {
	switch {
	case daysUntil < 0:
		return PastDue
	case daysUntil == 0:
		return DueToday
	case daysUntil <= 7:
		return DueSoon
	case daysUntil <= 30:
		return Upcoming
	default:
		return Future
	}
}

// Eligibility computes the reminder view of d at referenceDate.
// Due requires an exact match between days-until and ReminderDaysBefore: a
// reminder not checked on the matching day is permanently missed for that
// deadline, so any scheduler calling this must run at least once per calendar
// day to guarantee delivery.
func (d TrackedDeadline) Eligibility(referenceDate time.Time) (ReminderEligibility, error) {
	due, err := d.DateValue()
	if err != nil {
		return ReminderEligibility{}, err
	}
	days := DaysUntil(due, referenceDate)
	return ReminderEligibility{
		DaysUntil: days,
		Due:       d.ReminderEnabled && d.ReminderDaysBefore > 0 && days == d.ReminderDaysBefore && days > 0,
	}, nil
}

// ReminderDue reports whether a reminder should fire for d today.
// An unparsable date never fires.
func (d TrackedDeadline) ReminderDue(referenceDate time.Time) bool {
	el, err := d.Eligibility(referenceDate)
	if err != nil {
		return false
	}
	return el.Due
}
