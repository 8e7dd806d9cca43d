// Package simulator runs rtcalarm-sim: a simulated RTC peripheral, the alarm
// scheduler bound to its interrupt, the event journal and the gRPC control plane.
//
// Alarms added over gRPC log their label and owner when they fire. Every
// scheduler event is written to the zap logger and to the journal.
package simulator
