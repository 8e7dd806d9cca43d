// Package journal records scheduler dispatch and diagnostic events.
//
// Entries are CBOR-encoded with integer keys and appended to a single file on
// an afero filesystem. A journal is an audit trail of what the scheduler did in
// each simulator run; alarms themselves are never restored from it.
package journal
