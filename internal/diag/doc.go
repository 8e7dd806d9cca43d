// Package diag carries reportable conditions out of the alarm dispatcher.
//
// The dispatcher runs without a caller to return errors to, so conditions such
// as "no pending alarm" or "interrupt fired but nothing matched" are reported
// as Events through an injected Sink.
package diag
