// Package config loads, validates and saves the YAML settings shared by the
// rtcalarm binaries: the simulator's listen address, journal location, log
// levels, registry capacity, RTC tick interval and the boot alarm table, and
// the client's call timeout.
package config
