// Package sprint implements the sprint settlement core: cycle boundary
// calculation, per-user plan/fact aggregation, the settlement engine and the
// daily scheduler that drives it.
package sprint

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownWeekday is returned when a group's start day is not one of the
// seven recognized weekday names.
var ErrUnknownWeekday = errors.New("unknown weekday name")

// weekdays maps the configured weekday names to time.Weekday. Group
// configuration uses the Russian names throughout.
var weekdays = map[string]time.Weekday{
	"понедельник": time.Monday,
	"вторник":     time.Tuesday,
	"среда":       time.Wednesday,
	"четверг":     time.Thursday,
	"пятница":     time.Friday,
	"суббота":     time.Saturday,
	"воскресенье": time.Sunday,
}

// KnownWeekday reports whether name is one of the seven recognized weekday
// names.
func KnownWeekday(name string) bool {
	_, ok := weekdays[name]
	return ok
}

// StartDate returns the most recent date (possibly asOf itself) whose
// weekday matches startDay. The result keeps asOf's location and is
// truncated to midnight.
func StartDate(startDay string, asOf time.Time) (time.Time, error) {
	target, ok := weekdays[startDay]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownWeekday, startDay)
	}

	day := midnight(asOf)
	back := (int(day.Weekday()) - int(target) + 7) % 7
	return day.AddDate(0, 0, -back), nil
}

// EndDate returns StartDate plus (duration - 1) days.
//
// Because the start is always recomputed relative to asOf and lies at most
// six days back, a duration above 7 yields an end date that asOf can never
// reach; such groups never hit a settlement boundary under this rule.
func EndDate(startDay string, duration int, asOf time.Time) (time.Time, error) {
	start, err := StartDate(startDay, asOf)
	if err != nil {
		return time.Time{}, err
	}
	return start.AddDate(0, 0, duration-1), nil
}

// midnight truncates t to the start of its calendar day.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// sameDate reports whether a and b fall on the same calendar day.
func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
