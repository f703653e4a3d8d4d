// Package stats turns the sparse engagement histories stored on tracks and
// albums into the dense, fixed-length series the artist dashboard consumes.
package stats

import (
	"sort"
	"time"

	"github.com/justestif/go-stream-player/internal/timebucket"
)

// Series lengths per granularity: the last 30 days, 12 months, or 5 years.
const (
	DailyBuckets   = 30
	MonthlyBuckets = 12
	YearlyBuckets  = 5
)

// Point is one raw history observation: a day and the count it contributes.
type Point struct {
	Day   time.Time
	Count int
}

// Bucket is one element of a dense series.
type Bucket struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// SeriesLen returns the fixed series length for g.
func SeriesLen(g timebucket.Granularity) int {
	switch g {
	case timebucket.Monthly:
		return MonthlyBuckets
	case timebucket.Yearly:
		return YearlyBuckets
	default:
		return DailyBuckets
	}
}

// BuildSeries converts a sparse history into a dense series of SeriesLen(g)
// buckets ending at now's bucket, oldest first. Input points are truncated to
// their bucket and merged before the backward walk, so unsorted input and
// several points in the same bucket are both handled. Points older than the
// covered window are ignored, as are points in the future of now.
func BuildSeries(points []Point, now time.Time, g timebucket.Granularity) []Bucket {
	merged := mergePoints(points, g)

	n := SeriesLen(g)
	series := make([]Bucket, n)
	cursor := timebucket.Truncate(now, g)
	idx := len(merged) - 1

	for i := n - 1; i >= 0; i-- {
		for idx >= 0 && merged[idx].Day.After(cursor) {
			idx--
		}

		count := 0
		if idx >= 0 && merged[idx].Day.Equal(cursor) {
			count = merged[idx].Count
			idx--
		}

		series[i] = Bucket{Day: cursor, Count: count}
		cursor = timebucket.Step(cursor, g, -1)
	}

	return series
}

// mergePoints truncates every point to its bucket, sums points sharing a
// bucket, and returns the result sorted ascending by bucket.
func mergePoints(points []Point, g timebucket.Granularity) []Point {
	totals := make(map[time.Time]int, len(points))
	for _, p := range points {
		totals[timebucket.Truncate(p.Day, g)] += p.Count
	}

	merged := make([]Point, 0, len(totals))
	for day, count := range totals {
		merged = append(merged, Point{Day: day, Count: count})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Day.Before(merged[j].Day)
	})

	return merged
}
