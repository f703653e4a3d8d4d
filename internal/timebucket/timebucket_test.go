package timebucket

import (
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	input := time.Date(2024, 7, 19, 15, 42, 31, 987654321, time.UTC)

	tests := []struct {
		name        string
		granularity Granularity
		input       time.Time
		want        time.Time
	}{
		{
			name:        "daily zeroes the clock",
			granularity: Daily,
			input:       input,
			want:        time.Date(2024, 7, 19, 0, 0, 0, 0, time.UTC),
		},
		{
			name:        "monthly resets to the first",
			granularity: Monthly,
			input:       input,
			want:        time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:        "yearly resets to january first",
			granularity: Yearly,
			input:       input,
			want:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:        "non-utc input is converted before truncation",
			granularity: Daily,
			input:       time.Date(2024, 7, 19, 1, 30, 0, 0, time.FixedZone("UTC+3", 3*3600)),
			want:        time.Date(2024, 7, 18, 0, 0, 0, 0, time.UTC),
		},
		{
			name:        "already truncated is a fixed point",
			granularity: Monthly,
			input:       time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			want:        time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.input, tt.granularity)
			if !got.Equal(tt.want) {
				t.Errorf("Truncate(%v, %v) = %v, want %v", tt.input, tt.granularity, got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("Truncate returned non-UTC location %v", got.Location())
			}
		})
	}
}

func TestStep(t *testing.T) {
	tests := []struct {
		name        string
		granularity Granularity
		input       time.Time
		delta       int
		want        time.Time
	}{
		{
			name:        "daily forward across month boundary",
			granularity: Daily,
			input:       time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			delta:       1,
			want:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:        "daily backward across year boundary",
			granularity: Daily,
			input:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			delta:       -1,
			want:        time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:        "jan 31 plus one month clamps to leap february",
			granularity: Monthly,
			input:       time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			delta:       1,
			want:        time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:        "jan 31 plus one month clamps to common february",
			granularity: Monthly,
			input:       time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
			delta:       1,
			want:        time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:        "mar 31 minus one month clamps to february",
			granularity: Monthly,
			input:       time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC),
			delta:       -1,
			want:        time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:        "monthly backward across year boundary",
			granularity: Monthly,
			input:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			delta:       -1,
			want:        time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:        "monthly backward more than a year",
			granularity: Monthly,
			input:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			delta:       -14,
			want:        time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:        "leap day minus one year clamps",
			granularity: Yearly,
			input:       time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			delta:       -1,
			want:        time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:        "yearly forward",
			granularity: Yearly,
			input:       time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			delta:       4,
			want:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Step(tt.input, tt.granularity, tt.delta)
			if !got.Equal(tt.want) {
				t.Errorf("Step(%v, %v, %d) = %v, want %v", tt.input, tt.granularity, tt.delta, got, tt.want)
			}
		})
	}
}

func TestStepIsInverseOnTruncatedBuckets(t *testing.T) {
	// Buckets produced by Truncate always have day 1 (monthly) or Jan 1
	// (yearly), so stepping forward then backward must return the start.
	start := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	for delta := 1; delta <= 24; delta++ {
		forward := Step(start, Monthly, delta)
		back := Step(forward, Monthly, -delta)
		if !back.Equal(start) {
			t.Fatalf("round trip by %d months: got %v, want %v", delta, back, start)
		}
	}
}
