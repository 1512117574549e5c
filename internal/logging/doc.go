// Package logging wraps log/slog with typed attribute helpers and the
// standardized field names used across helixio components.
package logging
