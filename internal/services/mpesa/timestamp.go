package mpesa

import "time"

// eatZone is the fixed UTC+3 offset (East Africa Time) Daraja timestamps are
// expressed in, independent of the host timezone.
var eatZone = time.FixedZone("EAT", 3*60*60)

const timestampLayout = "20060102150405"

// FormatTimestamp renders t as the vendor's 14-digit YYYYMMDDHHmmss string
// in East Africa Time.
func FormatTimestamp(t time.Time) string {
	return t.In(eatZone).Format(timestampLayout)
}

// ParseTimestamp converts a vendor 14-digit timestamp into a time.Time
// carrying the explicit +03:00 offset. Absent or malformed input falls back
// to now() so a bad callback field never blocks normalization.
func ParseTimestamp(s string, now func() time.Time) time.Time {
	if len(s) != 14 {
		return now()
	}
	t, err := time.ParseInLocation(timestampLayout, s, eatZone)
	if err != nil {
		return now()
	}
	return t
}
