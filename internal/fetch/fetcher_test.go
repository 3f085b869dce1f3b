package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/themobileprof/paintrack-be/internal/store"
)

// blockingStore holds each FetchRange until released, so tests can
// control which load finishes first.
type blockingStore struct {
	store.LogStore
	calls   chan chan struct{}
	entries func(start time.Time) []store.PainLogEntry
}

func newBlockingStore() *blockingStore {
	return &blockingStore{calls: make(chan chan struct{}, 8)}
}

func (b *blockingStore) FetchRange(ctx context.Context, userID string, start, end time.Time) ([]store.PainLogEntry, error) {
	release := make(chan struct{})
	b.calls <- release
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-release:
	}
	if b.entries != nil {
		return b.entries(start), nil
	}
	return nil, nil
}

func waitCall(t *testing.T, b *blockingStore) chan struct{} {
	t.Helper()
	select {
	case release := <-b.calls:
		return release
	case <-time.After(2 * time.Second):
		t.Fatal("store was never queried")
		return nil
	}
}

func waitResult(t *testing.T, f *Fetcher) Result {
	t.Helper()
	select {
	case r := <-f.Results():
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no result delivered")
		return Result{}
	}
}

func TestNewRangeSupersedesInFlight(t *testing.T) {
	backing := newBlockingStore()
	backing.entries = func(start time.Time) []store.PainLogEntry {
		return []store.PainLogEntry{{UserID: "u1", LoggedAt: start}}
	}
	f := New(backing, nil, "u1")
	defer f.Close()

	dayA := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	dayB := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	f.SetRange(dayA, dayA.AddDate(0, 0, 7))
	releaseA := waitCall(t, backing)

	// The second request lands while the first is still loading.
	f.SetRange(dayB, dayB.AddDate(0, 0, 7))
	releaseB := waitCall(t, backing)

	// Even though A finishes first, only B may deliver.
	close(releaseA)
	close(releaseB)

	got := waitResult(t, f)
	if !got.Start.Equal(dayB) {
		t.Errorf("expected the newer range, got start=%v", got.Start)
	}

	select {
	case extra := <-f.Results():
		t.Errorf("superseded load delivered: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRefreshOnChangeEvent(t *testing.T) {
	mem := store.NewMemoryStore()
	f := New(mem, mem.Changes(), "u1")
	defer f.Close()

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f.SetRange(day, day.AddDate(0, 0, 1))
	first := waitResult(t, f)
	if len(first.Entries) != 0 {
		t.Fatalf("expected an empty range, got %d entries", len(first.Entries))
	}

	level := 5
	err := mem.SaveLog(context.Background(), &store.PainLogEntry{
		UserID:    "u1",
		LoggedAt:  day.Add(10 * time.Hour),
		PainLevel: &level,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	refreshed := waitResult(t, f)
	if len(refreshed.Entries) != 1 {
		t.Errorf("expected the refresh to pick up the new entry, got %d", len(refreshed.Entries))
	}
	if refreshed.Seq <= first.Seq {
		t.Errorf("expected a newer sequence, got %d after %d", refreshed.Seq, first.Seq)
	}
}

func TestChangeForOtherUserIgnored(t *testing.T) {
	mem := store.NewMemoryStore()
	f := New(mem, mem.Changes(), "u1")
	defer f.Close()

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f.SetRange(day, day.AddDate(0, 0, 1))
	waitResult(t, f)

	level := 5
	if err := mem.SaveLog(context.Background(), &store.PainLogEntry{
		UserID:    "u2",
		LoggedAt:  day.Add(10 * time.Hour),
		PainLevel: &level,
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	select {
	case r := <-f.Results():
		t.Errorf("unexpected refresh for another user's change: %+v", r)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebounceCollapsesBursts(t *testing.T) {
	backing := newBlockingStore()
	f := New(backing, nil, "u1", WithDebounce(50*time.Millisecond))
	defer f.Close()

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		f.SetRange(day.AddDate(0, 0, i), day.AddDate(0, 0, i+1))
	}

	// Only the last request of the burst survives its debounce window.
	release := waitCall(t, backing)
	close(release)
	got := waitResult(t, f)
	if !got.Start.Equal(day.AddDate(0, 0, 4)) {
		t.Errorf("expected the final range of the burst, got start=%v", got.Start)
	}

	select {
	case <-backing.calls:
		t.Error("an earlier burst member reached the store")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRefreshBeforeRangeIsNoop(t *testing.T) {
	backing := newBlockingStore()
	f := New(backing, nil, "u1")
	defer f.Close()

	f.Refresh()

	select {
	case <-backing.calls:
		t.Error("refresh without a range must not query")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	backing := newBlockingStore()
	f := New(backing, nil, "u1")

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f.SetRange(day, day.AddDate(0, 0, 1))
	release := waitCall(t, backing)
	f.Close()
	close(release)

	select {
	case r := <-f.Results():
		t.Errorf("closed fetcher delivered: %+v", r)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDoneClosesWithFetcher(t *testing.T) {
	f := New(newBlockingStore(), nil, "u1")

	select {
	case <-f.Done():
		t.Fatal("done closed before Close")
	default:
	}

	f.Close()
	f.Close() // idempotent

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed after Close")
	}
}
