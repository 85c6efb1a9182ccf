// Package dateutil provides the calendar arithmetic shared by the projection
// engine: elapsed time in fractional years, dependent ages, inflation factors
// and month stepping.
package dateutil

import (
	"math"
	"time"
)

const (
	// DaysPerYear is the mean length of a calendar year, used so elapsed
	// time is continuous rather than snapped to month counts.
	DaysPerYear = 365.25

	// DaysPerMonth is the mean length of a calendar month. Age-in-months
	// values depend on this exact constant; trigger firing is sensitive to
	// off-by-one month changes.
	DaysPerMonth = 30.44

	hoursPerDay = 24
)

// ElapsedYears returns the fractional number of years between from and to.
// Negative when to precedes from.
func ElapsedYears(from, to time.Time) float64 {
	return to.Sub(from).Hours() / hoursPerDay / DaysPerYear
}

// AgeInMonths returns the whole number of months between birth and asOf,
// counted in 30.44-day months. Negative for dates before birth (an unborn
// planned child).
func AgeInMonths(birth, asOf time.Time) int {
	days := asOf.Sub(birth).Hours() / hoursPerDay
	return int(math.Floor(days / DaysPerMonth))
}

// AgeInYears returns the whole-year age derived from AgeInMonths.
func AgeInYears(birth, asOf time.Time) int {
	months := AgeInMonths(birth, asOf)
	if months < 0 {
		return -1
	}
	return months / 12
}

// InflationFactor returns (1 + rate/100)^elapsedYears, the multiplier that
// turns today's money into nominal money elapsedYears into the future.
func InflationFactor(elapsedYears, annualRatePercent float64) float64 {
	return math.Pow(1+annualRatePercent/100, elapsedYears)
}

// FirstOfNextMonth returns midnight UTC on the first day of the calendar
// month following t.
func FirstOfNextMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

// SameCalendarMonth reports whether a and b fall in the same calendar month.
func SameCalendarMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// MonthsBetween returns the number of calendar months from from to to.
// Day-of-month is ignored; February to April is two months regardless of days.
func MonthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
