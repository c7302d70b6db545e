package timeutil

import "time"

func NowUnix() int64 {
	return time.Now().Unix()
}

// Now returns the current time in UTC truncated to microseconds, the
// precision postgres keeps for timestamptz.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
