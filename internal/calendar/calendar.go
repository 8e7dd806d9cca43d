package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// BaseYear is the calendar year that YearsFrom2000 == 0 refers to.
	BaseYear = 2000
	// MaxYearsFrom2000 is the largest year offset the peripheral can hold.
	MaxYearsFrom2000 = 99

	// FirstEpoch is 2000-01-01 00:00:00 UTC.
	FirstEpoch int64 = 946684800
	// LastEpoch is 2099-12-31 23:59:59 UTC.
	LastEpoch int64 = 4102444799

	// Layout is the textual form accepted by Parse and produced by String.
	Layout = "2006-01-02 15:04:05"
)

var (
	// ErrInvalidDateTime is returned when a field is outside its calendar range.
	ErrInvalidDateTime = errors.New("invalid date-time")
	// ErrOutOfRange is returned when an epoch cannot be represented by the peripheral.
	ErrOutOfRange = errors.New("epoch outside peripheral range")
)

// DateTime mirrors the alarm and clock fields of the RTC peripheral.
type DateTime struct {
	// YearsFrom2000 is the two-digit year (0 means 2000).
	YearsFrom2000 int `yaml:"years_from_2000"`
	// Month is 1-12.
	Month int `yaml:"month"`
	// Day is 1-31, bounded by the month length.
	Day int `yaml:"day"`
	// Hour is 0-23.
	Hour int `yaml:"hour"`
	// Minute is 0-59.
	Minute int `yaml:"minute"`
	// Second is 0-59.
	Second int `yaml:"second"`
}

// Zero is the reset value of the peripheral's date-time registers.
func Zero() DateTime {
	return DateTime{Month: 1, Day: 1}
}

// Validate checks every field against the calendar and the peripheral range.
func (d DateTime) Validate() error {
	switch {
	case d.YearsFrom2000 < 0 || d.YearsFrom2000 > MaxYearsFrom2000:
		return fmt.Errorf("%w: year offset %d", ErrInvalidDateTime, d.YearsFrom2000)
	case d.Month < 1 || d.Month > 12:
		return fmt.Errorf("%w: month %d", ErrInvalidDateTime, d.Month)
	case d.Day < 1 || d.Day > daysIn(BaseYear+d.YearsFrom2000, d.Month):
		return fmt.Errorf("%w: day %d", ErrInvalidDateTime, d.Day)
	case d.Hour < 0 || d.Hour > 23:
		return fmt.Errorf("%w: hour %d", ErrInvalidDateTime, d.Hour)
	case d.Minute < 0 || d.Minute > 59:
		return fmt.Errorf("%w: minute %d", ErrInvalidDateTime, d.Minute)
	case d.Second < 0 || d.Second > 59:
		return fmt.Errorf("%w: second %d", ErrInvalidDateTime, d.Second)
	}

	return nil
}

// Time returns the date-time as a UTC time.Time without validating it.
func (d DateTime) Time() time.Time {
	return time.Date(
		BaseYear+d.YearsFrom2000,
		time.Month(d.Month),
		d.Day,
		d.Hour,
		d.Minute,
		d.Second,
		0,
		time.UTC,
	)
}

// String renders the date-time using Layout.
func (d DateTime) String() string {
	return d.Time().Format(Layout)
}

// ToEpoch converts calendar fields to seconds since the Unix epoch.
func ToEpoch(d DateTime) (int64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}

	return d.Time().Unix(), nil
}

// MustEpoch is like ToEpoch but panics on invalid input.
// It is meant for constants and tests.
func MustEpoch(d DateTime) int64 {
	epoch, err := ToEpoch(d)
	if err != nil {
		panic(err)
	}

	return epoch
}

// FromEpoch converts seconds since the Unix epoch to calendar fields.
func FromEpoch(epoch int64) (DateTime, error) {
	if epoch < FirstEpoch || epoch > LastEpoch {
		return DateTime{}, fmt.Errorf("%w: %d", ErrOutOfRange, epoch)
	}

	t := time.Unix(epoch, 0).UTC()
	offset := t.Year() - BaseYear

	return DateTime{
		YearsFrom2000: offset,
		Month:         int(t.Month()),
		Day:           t.Day(),
		Hour:          t.Hour(),
		Minute:        t.Minute(),
		Second:        t.Second(),
	}, nil
}

// FromTime converts a time.Time to calendar fields, normalizing it to UTC.
func FromTime(t time.Time) (DateTime, error) {
	return FromEpoch(t.Unix())
}

// Parse reads a date-time in Layout form (UTC).
func Parse(s string) (DateTime, error) {
	t, err := time.ParseInLocation(Layout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return DateTime{}, fmt.Errorf("%w: %w", ErrInvalidDateTime, err)
	}

	return FromTime(t)
}

// daysIn returns the number of days in the given month.
func daysIn(year, month int) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
