package musicdb

import "time"

// appleEpoch is 1904-01-01 00:00:00 UTC.
var appleEpoch = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)

// AppleTime converts whole seconds since the Apple epoch.
// Zero means unset and yields the zero time.
func AppleTime(seconds uint32) time.Time {
	if seconds == 0 {
		return time.Time{}
	}
	return appleEpoch.Add(time.Duration(seconds) * time.Second)
}
