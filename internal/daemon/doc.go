// Package daemon runs the long-lived helixio process: it holds the
// single-instance lock, serves the HTTP API, and schedules background
// similarity jobs.
package daemon
