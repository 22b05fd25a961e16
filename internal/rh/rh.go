// Package rh holds the pure date arithmetic behind the retur harian
// lifecycle: when a product becomes due for return and when it expires.
package rh

import (
	"fmt"
	"math"
	"time"

	"github.com/rmaulana/rh-tracker-api/internal/model"
)

// Calendar anchors all day-granularity comparisons to a single timezone so
// that "today" and "once per day" mean the same thing at every call site.
type Calendar struct {
	loc *time.Location
}

func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{loc: loc}
}

// Location returns the calendar's timezone.
func (c Calendar) Location() *time.Location {
	return c.loc
}

// StartOfDay truncates t to midnight of its calendar day in the
// calendar's timezone.
func (c Calendar) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// ComputeStatus classifies a product's lifecycle state as of reference.
// Time-of-day is stripped from all three dates before comparison. The
// expiration check dominates: a product past both dates is expired, and a
// product whose rhDate is on or after its expirationDate jumps straight
// from safe to expired with no observable warning day.
func (c Calendar) ComputeStatus(reference, rhDate, expirationDate time.Time) model.ProductStatus {
	today := c.StartOfDay(reference)
	rh := c.StartOfDay(rhDate)
	exp := c.StartOfDay(expirationDate)

	if !today.Before(exp) {
		return model.ProductStatusExpired
	}
	if !today.Before(rh) {
		return model.ProductStatusWarning
	}
	return model.ProductStatusSafe
}

// DeriveRHDate returns expirationDate minus leadDays calendar days.
// Negative leadDays yields a date after expiration; validating lead time
// is the caller's concern.
func DeriveRHDate(expirationDate time.Time, leadDays int) time.Time {
	return expirationDate.AddDate(0, 0, -leadDays)
}

// DaysUntil counts whole calendar days from reference to date, negative
// when date has passed.
func (c Calendar) DaysUntil(reference, date time.Time) int {
	diff := c.StartOfDay(date).Sub(c.StartOfDay(reference))
	// Rounding absorbs DST transitions inside the interval.
	return int(math.Round(diff.Hours() / 24))
}

// FormatDate renders a date as dd-mm-yyyy for message bodies.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%02d-%02d-%04d", t.Day(), int(t.Month()), t.Year())
}

// StatusLabel is the Indonesian display label for a status.
func StatusLabel(status model.ProductStatus) string {
	switch status {
	case model.ProductStatusSafe:
		return "AMAN"
	case model.ProductStatusWarning:
		return "WAJIB RETUR"
	case model.ProductStatusExpired:
		return "JATUH RH"
	default:
		return "TIDAK DIKETAHUI"
	}
}
