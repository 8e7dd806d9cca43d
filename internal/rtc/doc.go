// Package rtc describes the real-time-clock peripheral consumed by the
// scheduler and provides Soft, a simulated peripheral with a single
// date-time alarm register.
package rtc
