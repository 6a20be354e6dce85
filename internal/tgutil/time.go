package tgutil

import (
	"strconv"
	"time"
)

// East Africa Time for user-facing dates
var addisTZ *time.Location

func init() {
	var err error
	addisTZ, err = time.LoadLocation("Africa/Addis_Ababa")
	if err != nil {
		// Fallback to UTC+3 if timezone data is not available
		addisTZ = time.FixedZone("Africa/Addis_Ababa", 3*60*60)
	}
}

// Location returns the timezone used for displayed dates.
func Location() *time.Location {
	return addisTZ
}

// FormatDate formats a Unix timestamp as YYYY-MM-DD in East Africa Time.
// Returns "N/A" for 0.
func FormatDate(unix int64) string {
	if unix == 0 {
		return "N/A"
	}
	return time.Unix(unix, 0).In(addisTZ).Format(time.DateOnly)
}

// FormatExpiry describes when a listing closes relative to now.
//
// Example:
//
//	FormatExpiry(0, now)                -> ""
//	FormatExpiry(now+3 days, now)       -> "closes in 3 days (2026-03-13)"
//	FormatExpiry(now+5 hours, now)      -> "closes today"
func FormatExpiry(expiresAt int64, now time.Time) string {
	if expiresAt == 0 {
		return ""
	}
	remaining := time.Unix(expiresAt, 0).Sub(now)
	switch days := int(remaining.Hours() / 24); {
	case remaining <= 0:
		return "closed"
	case days == 0:
		return "closes today"
	case days == 1:
		return "closes tomorrow (" + FormatDate(expiresAt) + ")"
	default:
		return "closes in " + strconv.Itoa(days) + " days (" + FormatDate(expiresAt) + ")"
	}
}
