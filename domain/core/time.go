package core

import "time"

// Now returns the current time in UTC at microsecond precision, which both
// Postgres and SQLite round-trip exactly.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
