// Package ctl implements the rtcalarm-ctl operations: adding, clearing and
// listing alarms on a running simulator, and reading its journal.
package ctl
