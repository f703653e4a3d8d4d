package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/justestif/go-stream-player/internal/db"
)

type fakeEntityStore struct {
	entity db.Engageable
}

func (f *fakeEntityStore) FindEngageable(_ context.Context, ref db.EntityRef) (db.Engageable, error) {
	if f.entity == nil || f.entity.Ref() != ref {
		return nil, db.ErrNotFound
	}
	return f.entity, nil
}

func newTestService(entity db.Engageable, now time.Time) *Service {
	service := NewService(&fakeEntityStore{entity: entity}, zap.NewNop())
	service.now = func() time.Time { return now }
	return service
}

func TestDailyListens(t *testing.T) {
	now := time.Date(2024, 7, 19, 9, 0, 0, 0, time.UTC)
	track := &db.Track{
		ID:       "t1",
		Title:    "One",
		ArtistID: "a1",
		Listens: []db.ListenEntry{
			{Day: day(2024, 7, 17), Count: 4},
			{Day: day(2024, 7, 19), Count: 2},
		},
	}
	service := newTestService(track, now)

	series, err := service.Daily(context.Background(), track.Ref(), MetricListens)
	if err != nil {
		t.Fatalf("daily listens: %v", err)
	}
	if len(series) != DailyBuckets {
		t.Fatalf("expected %d buckets, got %d", DailyBuckets, len(series))
	}
	if last := series[len(series)-1]; last.Count != 2 {
		t.Errorf("today: expected 2, got %d", last.Count)
	}
	if prev := series[len(series)-3]; prev.Count != 4 {
		t.Errorf("two days back: expected 4, got %d", prev.Count)
	}
}

func TestMonthlyLikesSumEvents(t *testing.T) {
	now := time.Date(2024, 7, 19, 9, 0, 0, 0, time.UTC)
	album := &db.Album{
		ID:       "al1",
		Name:     "First",
		ArtistID: "a1",
		Likes: []db.LikeEntry{
			{Day: day(2024, 7, 2), UserID: "u1"},
			{Day: day(2024, 7, 2), UserID: "u2"},
			{Day: day(2024, 7, 15), UserID: "u3"},
			{Day: day(2024, 2, 1), UserID: "u4"},
		},
	}
	service := newTestService(album, now)

	series, err := service.Monthly(context.Background(), album.Ref(), MetricLikes)
	if err != nil {
		t.Fatalf("monthly likes: %v", err)
	}
	if len(series) != MonthlyBuckets {
		t.Fatalf("expected %d buckets, got %d", MonthlyBuckets, len(series))
	}
	if last := series[len(series)-1]; last.Count != 3 {
		t.Errorf("July: expected 3 likes, got %d", last.Count)
	}
	if feb := series[len(series)-6]; feb.Count != 1 {
		t.Errorf("February: expected 1 like, got %d", feb.Count)
	}
}

func TestYearlySeriesCoversFiveYears(t *testing.T) {
	now := time.Date(2024, 7, 19, 9, 0, 0, 0, time.UTC)
	track := &db.Track{
		ID:       "t1",
		Title:    "One",
		ArtistID: "a1",
		Listens: []db.ListenEntry{
			{Day: day(2021, 3, 3), Count: 7},
		},
	}
	service := newTestService(track, now)

	series, err := service.Yearly(context.Background(), track.Ref(), MetricListens)
	if err != nil {
		t.Fatalf("yearly listens: %v", err)
	}
	if len(series) != YearlyBuckets {
		t.Fatalf("expected %d buckets, got %d", YearlyBuckets, len(series))
	}
	if !series[0].Day.Equal(day(2020, 1, 1)) {
		t.Errorf("expected first bucket 2020, got %v", series[0].Day)
	}
	if series[1].Count != 7 {
		t.Errorf("2021: expected 7, got %d", series[1].Count)
	}
}

func TestUnknownMetric(t *testing.T) {
	track := &db.Track{ID: "t1", Title: "One", ArtistID: "a1"}
	service := newTestService(track, time.Now())

	_, err := service.Daily(context.Background(), track.Ref(), Metric("plays"))
	if !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestMissingEntity(t *testing.T) {
	service := newTestService(nil, time.Now())

	_, err := service.Daily(context.Background(), db.EntityRef{Kind: db.KindTrack, ID: "nope"}, MetricListens)
	if !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
