package slots

import (
	"context"
	"testing"
	"time"

	"capturemoments/models"
)

func TestOpenSlotsAcrossDays(t *testing.T) {
	s := newTestStore(models.Booking{
		ID: "b1", ProviderID: "p1", Interval: span(9, 0, 12, 0), Status: models.StatusPending,
	})
	r := models.Interval{Start: day(0, 0), End: day(0, 0).Add(72 * time.Hour)}
	got, err := s.ListOpenSlots(context.Background(), "p1", r)
	if err != nil {
		t.Fatal(err)
	}
	// first morning fully held, two more mornings of 6 slots each
	if len(got) != 12 {
		t.Fatalf("expected 12 slots, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Start.Before(got[i].Start) {
			t.Fatalf("slots out of order at %d: %v then %v", i, got[i-1], got[i])
		}
	}
	if !got[0].Start.Equal(day(9, 0).AddDate(0, 0, 1)) {
		t.Fatalf("first open slot %v", got[0])
	}
}

func TestOpenSlotsIsRestartableAndStopsEarly(t *testing.T) {
	s := newTestStore()
	seq, err := s.OpenSlots(context.Background(), "p1", span(0, 0, 23, 0))
	if err != nil {
		t.Fatal(err)
	}
	var first []models.Interval
	for slot := range seq {
		first = append(first, slot)
		if len(first) == 2 {
			break
		}
	}
	var all []models.Interval
	for slot := range seq {
		all = append(all, slot)
	}
	if len(first) != 2 || len(all) != 6 {
		t.Fatalf("first=%d all=%d", len(first), len(all))
	}
	if !first[0].Equal(all[0]) {
		t.Fatalf("restart did not begin from the first slot")
	}
}

func TestOverlappingWindowsDoNotDuplicateSlots(t *testing.T) {
	one := morningWindow("p1")
	two := morningWindow("p1")
	two.ID = "w2"
	two.StartMinute = 10 * 60
	two.EndMinute = 13 * 60
	s := NewStore(&stubBookings{}, stubWindows{"p1": {one, two}}, nil)
	got, err := s.ListOpenSlots(context.Background(), "p1", span(0, 0, 23, 0))
	if err != nil {
		t.Fatal(err)
	}
	// 09:00-13:00 in half hours
	if len(got) != 8 {
		t.Fatalf("expected 8 distinct slots, got %d: %v", len(got), got)
	}
}

func TestFirstOpen(t *testing.T) {
	s := newTestStore(models.Booking{
		ID: "b1", ProviderID: "p1", Interval: span(9, 30, 10, 0), Status: models.StatusConfirmed,
	})
	ctx := context.Background()

	cases := []struct {
		name string
		d    time.Duration
		want models.Interval
		ok   bool
	}{
		{"single slot", 0, span(9, 0, 9, 30), true},
		{"one hour skips the hole", time.Hour, span(10, 0, 11, 0), true},
		{"two hours", 2 * time.Hour, span(10, 0, 12, 0), true},
		{"too long", 3 * time.Hour, models.Interval{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok, err := s.FirstOpen(ctx, "p1", span(0, 0, 23, 0), tc.d)
			if err != nil {
				t.Fatal(err)
			}
			if ok != tc.ok || (ok && !got.Equal(tc.want)) {
				t.Fatalf("got %v %v, want %v %v", got, ok, tc.want, tc.ok)
			}
		})
	}
}
