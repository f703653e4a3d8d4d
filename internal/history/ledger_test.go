package history

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justestif/go-stream-player/internal/db"
)

// fakeStore mirrors the repository's cascade: deleting an entry also drops
// the context it owns.
type fakeStore struct {
	entries  []db.PlayHistory
	contexts map[uuid.UUID]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{contexts: make(map[uuid.UUID]bool)}
}

func (f *fakeStore) Insert(_ context.Context, entry *db.PlayHistory) error {
	f.entries = append(f.entries, *entry)
	f.contexts[entry.ContextID] = true
	return nil
}

func (f *fakeStore) CountForUser(_ context.Context, userID string) (int, error) {
	count := 0
	for _, entry := range f.entries {
		if entry.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) OldestForUser(_ context.Context, userID string) (*db.PlayHistory, error) {
	var oldest *db.PlayHistory
	for i := range f.entries {
		entry := &f.entries[i]
		if entry.UserID != userID {
			continue
		}
		if oldest == nil || entry.PlayedAt.Before(oldest.PlayedAt) {
			oldest = entry
		}
	}
	if oldest == nil {
		return nil, db.ErrNotFound
	}
	copied := *oldest
	return &copied, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	for i, entry := range f.entries {
		if entry.ID == id {
			delete(f.contexts, entry.ContextID)
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (f *fakeStore) ListForUser(_ context.Context, userID string, limit, offset int) ([]db.PlayHistory, error) {
	var mine []db.PlayHistory
	for _, entry := range f.entries {
		if entry.UserID == userID {
			mine = append(mine, entry)
		}
	}
	sort.Slice(mine, func(i, j int) bool {
		return mine[i].PlayedAt.After(mine[j].PlayedAt)
	})
	if offset >= len(mine) {
		return nil, nil
	}
	mine = mine[offset:]
	if len(mine) > limit {
		mine = mine[:limit]
	}
	return mine, nil
}

func newTestLedger(max int) (*Ledger, *fakeStore) {
	store := newFakeStore()
	ledger := NewLedger(store, max, zap.NewNop())
	return ledger, store
}

func TestRecordPlayEvictsOldestWithContext(t *testing.T) {
	ledger, store := newTestLedger(1)

	base := time.Date(2024, 7, 19, 10, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return base }

	firstContext := uuid.New()
	if err := ledger.RecordPlay(context.Background(), "u1", firstContext, "t1"); err != nil {
		t.Fatalf("first play: %v", err)
	}

	ledger.now = func() time.Time { return base.Add(time.Minute) }
	secondContext := uuid.New()
	if err := ledger.RecordPlay(context.Background(), "u1", secondContext, "t2"); err != nil {
		t.Fatalf("second play: %v", err)
	}

	if len(store.entries) != 1 {
		t.Fatalf("expected ledger capped at 1 entry, got %d", len(store.entries))
	}
	if store.entries[0].TrackID != "t2" {
		t.Errorf("expected newest entry kept, got %q", store.entries[0].TrackID)
	}
	if store.contexts[firstContext] {
		t.Error("expected evicted entry's context deleted")
	}
	if !store.contexts[secondContext] {
		t.Error("expected surviving entry's context kept")
	}
}

func TestRecordPlayBelowCapDoesNotEvict(t *testing.T) {
	ledger, store := newTestLedger(3)

	base := time.Date(2024, 7, 19, 10, 0, 0, 0, time.UTC)
	for i, trackID := range []string{"t1", "t2", "t3"} {
		offset := time.Duration(i) * time.Minute
		ledger.now = func() time.Time { return base.Add(offset) }
		if err := ledger.RecordPlay(context.Background(), "u1", uuid.New(), trackID); err != nil {
			t.Fatalf("play %s: %v", trackID, err)
		}
	}

	if len(store.entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(store.entries))
	}
	if len(store.contexts) != 3 {
		t.Errorf("expected 3 contexts, got %d", len(store.contexts))
	}
}

func TestLedgersAreIndependentPerUser(t *testing.T) {
	ledger, store := newTestLedger(1)

	if err := ledger.RecordPlay(context.Background(), "u1", uuid.New(), "t1"); err != nil {
		t.Fatalf("u1 play: %v", err)
	}
	if err := ledger.RecordPlay(context.Background(), "u2", uuid.New(), "t2"); err != nil {
		t.Fatalf("u2 play: %v", err)
	}

	if len(store.entries) != 2 {
		t.Errorf("expected one entry per user, got %d total", len(store.entries))
	}
}

func TestRecentPagination(t *testing.T) {
	ledger, _ := newTestLedger(25)

	base := time.Date(2024, 7, 19, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		offset := time.Duration(i) * time.Minute
		ledger.now = func() time.Time { return base.Add(offset) }
		trackID := "t" + string(rune('a'+i))
		if err := ledger.RecordPlay(context.Background(), "u1", uuid.New(), trackID); err != nil {
			t.Fatalf("play %d: %v", i, err)
		}
	}

	page, err := ledger.Recent(context.Background(), "u1", 0, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(page) != DefaultListLimit {
		t.Fatalf("expected default page of %d, got %d", DefaultListLimit, len(page))
	}
	// Newest first.
	for i := 1; i < len(page); i++ {
		if page[i].PlayedAt.After(page[i-1].PlayedAt) {
			t.Fatalf("page out of order at %d", i)
		}
	}

	rest, err := ledger.Recent(context.Background(), "u1", 10, 20)
	if err != nil {
		t.Fatalf("recent offset page: %v", err)
	}
	if len(rest) != 5 {
		t.Errorf("expected 5 remaining entries, got %d", len(rest))
	}

	clamped, err := ledger.Recent(context.Background(), "u1", 500, 0)
	if err != nil {
		t.Fatalf("recent clamped: %v", err)
	}
	if len(clamped) != 25 {
		t.Errorf("expected all 25 entries under the cap, got %d", len(clamped))
	}
}
