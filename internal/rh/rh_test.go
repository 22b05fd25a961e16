package rh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmaulana/rh-tracker-api/internal/model"
)

func jakarta(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	return loc
}

func date(loc *time.Location, y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func TestComputeStatusBoundaries(t *testing.T) {
	loc := jakarta(t)
	cal := NewCalendar(loc)

	rhDate := date(loc, 2025, time.March, 10)
	expDate := date(loc, 2025, time.March, 24)

	tests := []struct {
		name      string
		reference time.Time
		want      model.ProductStatus
	}{
		{"day before rh date", date(loc, 2025, time.March, 9), model.ProductStatusSafe},
		{"on rh date", rhDate, model.ProductStatusWarning},
		{"between rh and expiration", date(loc, 2025, time.March, 17), model.ProductStatusWarning},
		{"day before expiration", date(loc, 2025, time.March, 23), model.ProductStatusWarning},
		{"on expiration date", expDate, model.ProductStatusExpired},
		{"after expiration", date(loc, 2025, time.April, 1), model.ProductStatusExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.ComputeStatus(tt.reference, rhDate, expDate))
		})
	}
}

func TestComputeStatusIgnoresTimeOfDay(t *testing.T) {
	loc := jakarta(t)
	cal := NewCalendar(loc)

	rhDate := date(loc, 2025, time.March, 10).Add(23*time.Hour + 59*time.Minute)
	expDate := date(loc, 2025, time.March, 24)

	// Reference late on March 9 is still the day before the RH date.
	reference := date(loc, 2025, time.March, 9).Add(23 * time.Hour)
	assert.Equal(t, model.ProductStatusSafe, cal.ComputeStatus(reference, rhDate, expDate))

	// One hour later it is March 10 and warning begins.
	assert.Equal(t, model.ProductStatusWarning, cal.ComputeStatus(reference.Add(time.Hour), rhDate, expDate))
}

func TestComputeStatusExpirationDominates(t *testing.T) {
	loc := jakarta(t)
	cal := NewCalendar(loc)

	// RH date after expiration: the product jumps from safe to expired
	// with no warning day.
	expDate := date(loc, 2025, time.June, 10)
	rhDate := date(loc, 2025, time.June, 15)

	assert.Equal(t, model.ProductStatusSafe, cal.ComputeStatus(date(loc, 2025, time.June, 9), rhDate, expDate))
	assert.Equal(t, model.ProductStatusExpired, cal.ComputeStatus(date(loc, 2025, time.June, 10), rhDate, expDate))
	assert.Equal(t, model.ProductStatusExpired, cal.ComputeStatus(date(loc, 2025, time.June, 16), rhDate, expDate))
}

func TestDeriveRHDate(t *testing.T) {
	loc := jakarta(t)
	exp := date(loc, 2025, time.March, 24)

	assert.Equal(t, date(loc, 2025, time.March, 10), DeriveRHDate(exp, 14))
	assert.Equal(t, exp, DeriveRHDate(exp, 0))
	// Month boundary.
	assert.Equal(t, date(loc, 2025, time.February, 27), DeriveRHDate(date(loc, 2025, time.March, 6), 7))
}

func TestDerivedRHDateEntersWarningExactlyLeadDaysEarly(t *testing.T) {
	loc := jakarta(t)
	cal := NewCalendar(loc)

	exp := date(loc, 2025, time.August, 20)
	lead := 14
	rhDate := DeriveRHDate(exp, lead)

	assert.Equal(t, model.ProductStatusSafe, cal.ComputeStatus(rhDate.AddDate(0, 0, -1), rhDate, exp))
	assert.Equal(t, model.ProductStatusWarning, cal.ComputeStatus(rhDate, rhDate, exp))
	assert.Equal(t, lead, cal.DaysUntil(rhDate, exp))
}

func TestStartOfDayUsesCalendarTimezone(t *testing.T) {
	loc := jakarta(t)
	cal := NewCalendar(loc)

	// 20:00 UTC on March 9 is already March 10 in Jakarta (UTC+7).
	utcEvening := time.Date(2025, time.March, 9, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, date(loc, 2025, time.March, 10), cal.StartOfDay(utcEvening))
}

func TestDaysUntil(t *testing.T) {
	loc := jakarta(t)
	cal := NewCalendar(loc)
	ref := date(loc, 2025, time.March, 10)

	assert.Equal(t, 0, cal.DaysUntil(ref, ref))
	assert.Equal(t, 5, cal.DaysUntil(ref, date(loc, 2025, time.March, 15)))
	assert.Equal(t, -3, cal.DaysUntil(ref, date(loc, 2025, time.March, 7)))
}

func TestFormatDate(t *testing.T) {
	loc := jakarta(t)
	assert.Equal(t, "05-03-2025", FormatDate(date(loc, 2025, time.March, 5)))
	assert.Equal(t, "24-12-2025", FormatDate(date(loc, 2025, time.December, 24)))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "AMAN", StatusLabel(model.ProductStatusSafe))
	assert.Equal(t, "WAJIB RETUR", StatusLabel(model.ProductStatusWarning))
	assert.Equal(t, "JATUH RH", StatusLabel(model.ProductStatusExpired))
	assert.Equal(t, "TIDAK DIKETAHUI", StatusLabel(model.ProductStatus("other")))
}
