package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"capturemoments/database"
	"capturemoments/models"
)

func TestBookingTransitionIsConditional(t *testing.T) {
	ctx := context.Background()
	repo := New().Bookings()
	if err := repo.Create(ctx, models.Booking{ID: "b1", Status: models.StatusPending}); err != nil {
		t.Fatal(err)
	}

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Transition(ctx, "b1", models.StatusPending, models.StatusConfirmed, nil)
			if err == nil {
				wins.Add(1)
			} else if !errors.Is(err, database.ErrStatusMismatch) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("expected exactly one transition, got %d", wins.Load())
	}

	b, _ := repo.GetByID(ctx, "b1")
	if b.Status != models.StatusConfirmed || b.Version != 1 {
		t.Fatalf("got status %s version %d", b.Status, b.Version)
	}

	if _, err := repo.Transition(ctx, "b1", models.StatusConfirmed, models.StatusPending, nil); !errors.Is(err, database.ErrStatusMismatch) {
		t.Fatalf("transition outside the table must fail, got %v", err)
	}
	if _, err := repo.Transition(ctx, "missing", models.StatusPending, models.StatusCancelled, nil); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBookingTransitionMutates(t *testing.T) {
	ctx := context.Background()
	repo := New().Bookings()
	_ = repo.Create(ctx, models.Booking{ID: "b1", Status: models.StatusPending})
	b, err := repo.Transition(ctx, "b1", models.StatusPending, models.StatusCancelled, func(b *models.Booking) {
		b.CancelReason = "client"
	})
	if err != nil {
		t.Fatal(err)
	}
	if b.CancelReason != "client" || b.Status != models.StatusCancelled {
		t.Fatalf("unexpected booking %+v", b)
	}
}

func TestSweepQueries(t *testing.T) {
	ctx := context.Background()
	repo := New().Bookings()
	base := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	_ = repo.Create(ctx, models.Booking{ID: "old-pending", Status: models.StatusPending, CreatedAt: base.Add(-time.Hour)})
	_ = repo.Create(ctx, models.Booking{ID: "new-pending", Status: models.StatusPending, CreatedAt: base})
	_ = repo.Create(ctx, models.Booking{ID: "done", Status: models.StatusConfirmed,
		Interval: models.Interval{Start: base.Add(-2 * time.Hour), End: base.Add(-time.Hour)}})
	_ = repo.Create(ctx, models.Booking{ID: "upcoming", Status: models.StatusConfirmed,
		Interval: models.Interval{Start: base.Add(time.Hour), End: base.Add(2 * time.Hour)}})

	pending, _ := repo.ListPendingBefore(ctx, base)
	if len(pending) != 1 || pending[0].ID != "old-pending" {
		t.Fatalf("pending sweep got %v", pending)
	}
	ended, _ := repo.ListConfirmedEndedBefore(ctx, base)
	if len(ended) != 1 || ended[0].ID != "done" {
		t.Fatalf("completion sweep got %v", ended)
	}
	active, _ := repo.ListActiveByProvider(ctx, "")
	if len(active) != 4 {
		t.Fatalf("expected 4 active bookings, got %d", len(active))
	}
}

func TestDemandBuckets(t *testing.T) {
	ctx := context.Background()
	log := New().Demand()
	day := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, bucket := range []time.Time{day, day, day.AddDate(0, 0, 1), day.AddDate(0, 0, 5)} {
		_ = log.Append(ctx, models.DemandSample{ID: string(rune('a' + i)), ProviderID: "p1", Bucket: bucket})
	}
	_ = log.Append(ctx, models.DemandSample{ID: "x", ProviderID: "p2", Bucket: day})

	got, err := log.CountInBuckets(ctx, "p1", day, day.AddDate(0, 0, 5))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Count != 2 || got[1].Count != 1 || !got[0].Bucket.Equal(day) {
		t.Fatalf("unexpected buckets %+v", got)
	}
}

func TestFeedbackOnePerBooking(t *testing.T) {
	ctx := context.Background()
	log := New().Feedback()
	if err := log.Append(ctx, models.FeedbackRecord{ID: "f1", BookingID: "b1", ProviderID: "p1"}); err != nil {
		t.Fatal(err)
	}
	if err := log.Append(ctx, models.FeedbackRecord{ID: "f2", BookingID: "b1", ProviderID: "p1"}); !errors.Is(err, database.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	ok, _ := log.ExistsForBooking(ctx, "b1")
	if !ok {
		t.Fatal("expected feedback to exist")
	}
}

func TestProviderFilters(t *testing.T) {
	ctx := context.Background()
	repo := New().Providers()
	_ = repo.Upsert(ctx, models.Provider{ID: "b", Active: true, Specializations: []string{"Wedding"}})
	_ = repo.Upsert(ctx, models.Provider{ID: "a", Active: true, Specializations: []string{"portrait"}})
	_ = repo.Upsert(ctx, models.Provider{ID: "c", Active: false, Specializations: []string{"wedding"}})

	all, _ := repo.ListActive(ctx, nil)
	if len(all) != 2 || all[0].ID != "a" {
		t.Fatalf("unexpected active providers %v", all)
	}
	wed, _ := repo.ListActive(ctx, []string{"wedding"})
	if len(wed) != 1 || wed[0].ID != "b" {
		t.Fatalf("unexpected tag filter result %v", wed)
	}
	if err := repo.UpdateRating(ctx, "zzz", 4, 1); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
