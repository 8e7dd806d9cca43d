// Package alarm contains the core domain types of the scheduler.
//
// It defines Record (one scheduled callback held in a registry slot), Handle
// (the stable slot id returned to callers), TimeUnit for recurrence intervals,
// and Snapshot, a callback-free copy used for listings.
package alarm
