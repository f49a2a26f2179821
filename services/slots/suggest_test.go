package slots

import (
	"context"
	"math"
	"testing"
	"time"

	"capturemoments/models"
)

func TestScoreStart(t *testing.T) {
	p := DefaultPreferences()
	monday := func(h int) time.Time { return time.Date(2030, 3, 4, h, 0, 0, 0, time.UTC) }
	saturday := func(h int) time.Time { return time.Date(2030, 3, 9, h, 0, 0, 0, time.UTC) }

	cases := []struct {
		name string
		at   time.Time
		want float64
	}{
		{"plain weekday", monday(9), 0.5},
		{"late morning", monday(11), 0.7},
		{"golden hour", monday(17), 0.8},
		{"too early", monday(7), 0.3},
		{"weekend golden hour", saturday(17), 0.9},
		{"weekend late night", saturday(21), 0.4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ScoreStart(p, tc.at); math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("score %v, want %v", got, tc.want)
			}
		})
	}

	p.BaseScore = 0.95
	if got := ScoreStart(p, saturday(17)); got != 1 {
		t.Fatalf("score should clamp at 1, got %v", got)
	}
	p.BaseScore = 0
	if got := ScoreStart(p, monday(6)); got != 0 {
		t.Fatalf("score should clamp at 0, got %v", got)
	}
}

func TestSuggestSkipsHeldAndRanks(t *testing.T) {
	s := newTestStore(models.Booking{
		ID: "b1", ProviderID: "p1", Interval: span(10, 0, 10, 30), Status: models.StatusConfirmed,
	})
	got, err := s.SuggestSlots(context.Background(), "p1", span(0, 0, 23, 0), time.Hour, DefaultPreferences())
	if err != nil {
		t.Fatal(err)
	}
	want := []time.Time{day(10, 30), day(11, 0), day(9, 0)}
	if len(got) != len(want) {
		t.Fatalf("expected %d suggestions, got %v", len(want), got)
	}
	for i, at := range want {
		if !got[i].Interval.Start.Equal(at) || got[i].Interval.Duration() != time.Hour {
			t.Fatalf("suggestion %d = %v, want start %v", i, got[i].Interval, at)
		}
		if got[i].Recommended {
			t.Fatalf("weekday scores should not be recommended: %+v", got[i])
		}
	}
}

func TestSuggestRecommendsWeekendMornings(t *testing.T) {
	s := newTestStore()
	sat := time.Date(2030, 3, 9, 0, 0, 0, 0, time.UTC)
	r := models.Interval{Start: sat, End: sat.Add(24 * time.Hour)}
	got, err := s.SuggestSlots(context.Background(), "p1", r, time.Hour, DefaultPreferences())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 suggestions, got %v", got)
	}
	for i, sg := range got {
		wantRec := i < 3
		if sg.Recommended != wantRec {
			t.Fatalf("suggestion %d %v recommended=%v", i, sg.Interval.Start, sg.Recommended)
		}
	}
	if !got[0].Interval.Start.Equal(sat.Add(10*time.Hour)) || !got[4].Interval.Start.Equal(sat.Add(9*time.Hour+30*time.Minute)) {
		t.Fatalf("unexpected order: %v", got)
	}
}
