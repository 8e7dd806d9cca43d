// Package calendar converts between the RTC peripheral's calendar fields
// (two-digit year counted from 2000, month, day, hour, minute, second) and a
// linear epoch in seconds.
//
// Conversions are pure and done in UTC so that every valid date maps to
// exactly one epoch and back.
package calendar
