package stats

import (
	"testing"
	"time"

	"github.com/justestif/go-stream-player/internal/timebucket"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildSeriesLengths(t *testing.T) {
	now := time.Date(2024, 7, 19, 15, 4, 0, 0, time.UTC)

	tests := []struct {
		granularity timebucket.Granularity
		want        int
	}{
		{timebucket.Daily, DailyBuckets},
		{timebucket.Monthly, MonthlyBuckets},
		{timebucket.Yearly, YearlyBuckets},
	}

	for _, tt := range tests {
		series := BuildSeries(nil, now, tt.granularity)
		if len(series) != tt.want {
			t.Errorf("%s: expected %d buckets, got %d", tt.granularity, tt.want, len(series))
		}
		for _, bucket := range series {
			if bucket.Count != 0 {
				t.Errorf("%s: empty history produced count %d at %v", tt.granularity, bucket.Count, bucket.Day)
			}
		}
	}
}

func TestBuildSeriesDailyWindow(t *testing.T) {
	now := time.Date(2024, 7, 19, 23, 59, 0, 0, time.UTC)

	points := []Point{
		{Day: day(2024, 6, 20), Count: 3}, // oldest bucket, 29 days back
		{Day: day(2024, 7, 18), Count: 5}, // yesterday
		{Day: day(2024, 5, 1), Count: 99}, // outside the window, ignored
	}

	series := BuildSeries(points, now, timebucket.Daily)

	if got := series[0].Day; !got.Equal(day(2024, 6, 20)) {
		t.Fatalf("expected series to start 29 days back at 2024-06-20, got %v", got)
	}
	if got := series[len(series)-1].Day; !got.Equal(day(2024, 7, 19)) {
		t.Fatalf("expected series to end today, got %v", got)
	}

	// Buckets advance one day at a time with no gaps.
	for i := 1; i < len(series); i++ {
		if want := series[i-1].Day.AddDate(0, 0, 1); !series[i].Day.Equal(want) {
			t.Fatalf("bucket %d: expected %v, got %v", i, want, series[i].Day)
		}
	}

	total := 0
	for _, bucket := range series {
		total += bucket.Count
		switch {
		case bucket.Day.Equal(day(2024, 6, 20)):
			if bucket.Count != 3 {
				t.Errorf("2024-06-20: expected 3, got %d", bucket.Count)
			}
		case bucket.Day.Equal(day(2024, 7, 18)):
			if bucket.Count != 5 {
				t.Errorf("2024-07-18: expected 5, got %d", bucket.Count)
			}
		default:
			if bucket.Count != 0 {
				t.Errorf("%v: expected gap to be zero, got %d", bucket.Day, bucket.Count)
			}
		}
	}
	if total != 8 {
		t.Errorf("expected out-of-window point dropped (total 8), got total %d", total)
	}
}

func TestBuildSeriesMonthlyMergesDays(t *testing.T) {
	now := time.Date(2024, 7, 19, 12, 0, 0, 0, time.UTC)

	// Three observations inside the same month land in one bucket.
	points := []Point{
		{Day: day(2024, 3, 1), Count: 1},
		{Day: day(2024, 3, 15), Count: 2},
		{Day: day(2024, 3, 31), Count: 4},
		{Day: day(2023, 8, 10), Count: 6}, // oldest covered month
	}

	series := BuildSeries(points, now, timebucket.Monthly)

	if got := series[0].Day; !got.Equal(day(2023, 8, 1)) {
		t.Fatalf("expected first bucket 2023-08, got %v", got)
	}
	if got := series[len(series)-1].Day; !got.Equal(day(2024, 7, 1)) {
		t.Fatalf("expected last bucket 2024-07, got %v", got)
	}

	for _, bucket := range series {
		switch {
		case bucket.Day.Equal(day(2024, 3, 1)):
			if bucket.Count != 7 {
				t.Errorf("2024-03: expected 7, got %d", bucket.Count)
			}
		case bucket.Day.Equal(day(2023, 8, 1)):
			if bucket.Count != 6 {
				t.Errorf("2023-08: expected 6, got %d", bucket.Count)
			}
		default:
			if bucket.Count != 0 {
				t.Errorf("%v: expected 0, got %d", bucket.Day, bucket.Count)
			}
		}
	}
}

func TestBuildSeriesYearly(t *testing.T) {
	now := time.Date(2024, 7, 19, 0, 0, 0, 0, time.UTC)

	points := []Point{
		{Day: day(2020, 12, 31), Count: 10},
		{Day: day(2024, 1, 1), Count: 1},
		{Day: day(2019, 6, 1), Count: 50}, // older than the 5-year window
	}

	series := BuildSeries(points, now, timebucket.Yearly)

	want := []Bucket{
		{Day: day(2020, 1, 1), Count: 10},
		{Day: day(2021, 1, 1), Count: 0},
		{Day: day(2022, 1, 1), Count: 0},
		{Day: day(2023, 1, 1), Count: 0},
		{Day: day(2024, 1, 1), Count: 1},
	}
	for i, bucket := range series {
		if !bucket.Day.Equal(want[i].Day) || bucket.Count != want[i].Count {
			t.Errorf("bucket %d: expected %+v, got %+v", i, want[i], bucket)
		}
	}
}

func TestBuildSeriesUnsortedInput(t *testing.T) {
	now := time.Date(2024, 7, 19, 0, 0, 0, 0, time.UTC)

	points := []Point{
		{Day: day(2024, 7, 18), Count: 2},
		{Day: day(2024, 7, 10), Count: 1},
		{Day: day(2024, 7, 18), Count: 3},
	}

	series := BuildSeries(points, now, timebucket.Daily)

	for _, bucket := range series {
		switch {
		case bucket.Day.Equal(day(2024, 7, 18)):
			if bucket.Count != 5 {
				t.Errorf("2024-07-18: expected merged count 5, got %d", bucket.Count)
			}
		case bucket.Day.Equal(day(2024, 7, 10)):
			if bucket.Count != 1 {
				t.Errorf("2024-07-10: expected 1, got %d", bucket.Count)
			}
		}
	}
}
