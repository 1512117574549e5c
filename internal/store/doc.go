// Package store manages helixio persistence backed by SQLite: the local
// series library, cross-source mapping cache, series similarity table, and
// similarity job records.
package store
