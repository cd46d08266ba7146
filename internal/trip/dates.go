package trip

import (
	"time"
)

// DateRange returns the calendar dates of the earliest and latest capture
// times among photos. When none has a timestamp both fall back to now's date.
func DateRange(photos []OrderedPhoto, now time.Time) (start, end time.Time) {
	var minT, maxT *time.Time
	for i := range photos {
		t := photos[i].Metadata.CapturedAt
		if t == nil {
			continue
		}
		if minT == nil || t.Before(*minT) {
			minT = t
		}
		if maxT == nil || t.After(*maxT) {
			maxT = t
		}
	}

	if minT == nil {
		d := dateOf(now)
		return d, d
	}
	return dateOf(*minT), dateOf(*maxT)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
