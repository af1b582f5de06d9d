package charts

import (
	"sort"
	"time"

	"github.com/slidesmith/slidesmith/pkg/dataset"
)

// bucket is a time-series aggregation granularity.
type bucket string

const (
	bucketYearly    bucket = "yearly"
	bucketQuarterly bucket = "quarterly"
	bucketMonthly   bucket = "monthly"
	bucketWeekly    bucket = "weekly"
	bucketDaily     bucket = "daily"
)

// chooseBucket picks the aggregation granularity from the observed time
// span: yearly beyond two years, then quarterly, monthly, weekly, and
// daily under a month.
func chooseBucket(min, max time.Time) bucket {
	days := max.Sub(min).Hours() / 24
	switch {
	case days > 730:
		return bucketYearly
	case days > 365:
		return bucketQuarterly
	case days > 90:
		return bucketMonthly
	case days > 30:
		return bucketWeekly
	default:
		return bucketDaily
	}
}

// truncate maps a timestamp to the start of its bucket. Weeks start on
// Monday.
func (b bucket) truncate(t time.Time) time.Time {
	switch b {
	case bucketYearly:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	case bucketQuarterly:
		q := (int(t.Month())-1)/3*3 + 1
		return time.Date(t.Year(), time.Month(q), 1, 0, 0, 0, 0, t.Location())
	case bucketMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case bucketWeekly:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

// label renders a bucket start for axis ticks.
func (b bucket) label(t time.Time) string {
	switch b {
	case bucketYearly:
		return t.Format("2006")
	case bucketQuarterly, bucketMonthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// timePoint is one aggregated observation in a bucketed series.
type timePoint struct {
	At    time.Time
	Count int
}

// bucketCounts aggregates the date-coercible values of a column into
// occurrence counts per bucket, sorted by time. It returns false when
// fewer than two coercible values exist.
func bucketCounts(col *dataset.Column) ([]timePoint, bucket, bool) {
	var times []time.Time
	for _, v := range col.Values {
		if t, ok := v.AsTime(); ok {
			times = append(times, t)
		}
	}
	if len(times) < 2 {
		return nil, bucketDaily, false
	}

	min, max := times[0], times[0]
	for _, t := range times[1:] {
		if t.Before(min) {
			min = t
		}
		if t.After(max) {
			max = t
		}
	}
	b := chooseBucket(min, max)

	counts := make(map[time.Time]int)
	for _, t := range times {
		counts[b.truncate(t)]++
	}
	points := make([]timePoint, 0, len(counts))
	for at, n := range counts {
		points = append(points, timePoint{At: at, Count: n})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].At.Before(points[j].At) })
	return points, b, true
}
