package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/justestif/go-stream-player/internal/db"
	"github.com/justestif/go-stream-player/internal/timebucket"
)

// Metric selects which engagement history a series is built from.
type Metric string

const (
	MetricListens Metric = "listens"
	MetricLikes   Metric = "likes"
)

// ErrUnknownMetric is returned for a metric other than listens or likes.
var ErrUnknownMetric = errors.New("unknown stats metric")

// EntityStore loads engagement-bearing entities.
type EntityStore interface {
	FindEngageable(ctx context.Context, ref db.EntityRef) (db.Engageable, error)
}

// Service answers the artist-facing stats queries.
type Service struct {
	store  EntityStore
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a stats Service backed by store.
func NewService(store EntityStore, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

// Daily returns the last 30 days of the metric, oldest first.
func (s *Service) Daily(ctx context.Context, ref db.EntityRef, metric Metric) ([]Bucket, error) {
	return s.series(ctx, ref, metric, timebucket.Daily)
}

// Monthly returns the last 12 months of the metric, oldest first.
func (s *Service) Monthly(ctx context.Context, ref db.EntityRef, metric Metric) ([]Bucket, error) {
	return s.series(ctx, ref, metric, timebucket.Monthly)
}

// Yearly returns the last 5 years of the metric, oldest first.
func (s *Service) Yearly(ctx context.Context, ref db.EntityRef, metric Metric) ([]Bucket, error) {
	return s.series(ctx, ref, metric, timebucket.Yearly)
}

func (s *Service) series(ctx context.Context, ref db.EntityRef, metric Metric, g timebucket.Granularity) ([]Bucket, error) {
	entity, err := s.store.FindEngageable(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("loading %s %s: %w", ref.Kind, ref.ID, err)
	}

	var points []Point
	switch metric {
	case MetricListens:
		points = listenPoints(entity.ListenHistory())
	case MetricLikes:
		points = likePoints(entity.LikeHistory())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}

	return BuildSeries(points, s.now().UTC(), g), nil
}

// listenPoints maps the pre-aggregated daily counts onto series points.
func listenPoints(history []db.ListenEntry) []Point {
	points := make([]Point, len(history))
	for i, entry := range history {
		points[i] = Point{Day: entry.Day, Count: entry.Count}
	}
	return points
}

// likePoints maps raw like events onto series points. Likes store one entry
// per liking user rather than a running count, so each event contributes one;
// BuildSeries sums events sharing a bucket.
func likePoints(history []db.LikeEntry) []Point {
	points := make([]Point, len(history))
	for i, entry := range history {
		points[i] = Point{Day: entry.Day, Count: 1}
	}
	return points
}
