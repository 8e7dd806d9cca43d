// Package instance keeps a single simulator running per host by scanning the
// process table for another process with the same executable name.
package instance
