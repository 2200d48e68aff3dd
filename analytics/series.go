package analytics

import "time"

// dateLayout formats a calendar day for the time series.
const dateLayout = "2006-01-02"

// SeriesStart returns the local midnight that opens a window of `days`
// calendar days ending on now's day.
func SeriesStart(now time.Time, days int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))
}

// BucketDailyCounts groups borrow timestamps into calendar-day buckets for
// the last `days` days ending on now's day, oldest first. Day boundaries are
// local midnight in now's location. The result always has exactly `days`
// entries; days with no borrows appear with a zero count. Timestamps outside
// the window are ignored.
func BucketDailyCounts(borrowedAt []time.Time, days int, now time.Time) []DailyBorrowCount {
	loc := now.Location()
	start := SeriesStart(now, days)

	counts := make(map[string]int, days)
	for _, ts := range borrowedAt {
		local := ts.In(loc)
		y, m, d := local.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		if day.Before(start) || day.After(start.AddDate(0, 0, days-1)) {
			continue
		}
		counts[day.Format(dateLayout)]++
	}

	series := make([]DailyBorrowCount, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format(dateLayout)
		series = append(series, DailyBorrowCount{Date: date, Count: counts[date]})
	}
	return series
}
