package common

import "time"

// easternLocation is the America/New_York timezone which handles both
// EST (UTC-5) and EDT (UTC-4) automatically based on DST rules.
var easternLocation = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Fallback to EST fixed zone if tzdata is unavailable (e.g., minimal container)
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// TradingDate returns the US/Eastern calendar date for t as ISO-8601
// (YYYY-MM-DD). Snapshots are keyed by this value.
func TradingDate(t time.Time) string {
	return t.In(easternLocation).Format("2006-01-02")
}

// PreviousTradingDate returns the most recent weekday before t's US/Eastern
// date. Exchange holidays are not modelled; the upstream grouped aggregate
// simply returns no bars for a holiday and the caller steps back again.
func PreviousTradingDate(t time.Time) string {
	et := t.In(easternLocation)
	for {
		et = et.AddDate(0, 0, -1)
		wd := et.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			return et.Format("2006-01-02")
		}
	}
}

// IsMarketOpen returns true if the given time falls within US regular
// trading hours: 09:30–16:00 Eastern, Monday–Friday.
func IsMarketOpen(t time.Time) bool {
	et := t.In(easternLocation)
	weekday := et.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return false
	}
	hour, min, _ := et.Clock()
	minuteOfDay := hour*60 + min
	// 09:30 = 570, 16:00 = 960
	return minuteOfDay >= 570 && minuteOfDay < 960
}
