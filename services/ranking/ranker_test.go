package ranking

import (
	"context"
	"errors"
	"testing"
	"time"

	"capturemoments/database/repository/memory"
	"capturemoments/models"
	"capturemoments/services/errs"
)

type stubSlots map[string]bool // provider id -> has an open slot

func (s stubSlots) FirstOpen(_ context.Context, providerID string, r models.Interval, d time.Duration) (models.Interval, bool, error) {
	if !s[providerID] {
		return models.Interval{}, false, nil
	}
	if d <= 0 {
		d = time.Hour
	}
	return models.Interval{Start: r.Start.Add(9 * time.Hour), End: r.Start.Add(9*time.Hour + d)}, true, nil
}

type stubQuoter struct{ err error }

func (q stubQuoter) Quote(_ context.Context, p models.Provider, iv models.Interval, _ models.Location) (models.Quote, error) {
	if q.err != nil {
		return models.Quote{}, q.err
	}
	return models.Quote{ProviderID: p.ID, Interval: iv, Price: p.HourlyRate * iv.Hours()}, nil
}

type stubTrends map[string]float64

func (s stubTrends) Trend(_ context.Context, providerID string) (float64, error) {
	if v, ok := s[providerID]; ok {
		return v, nil
	}
	return 0, errors.New("no trend")
}

func seed(t *testing.T) *memory.DB {
	t.Helper()
	ctx := context.Background()
	db := memory.New()
	for _, p := range []models.Provider{
		{ID: "a", Active: true, Rating: 4.8, HourlyRate: 100, Specializations: []string{"wedding"}},
		{ID: "b", Active: true, Rating: 3.9, HourlyRate: 100, Specializations: []string{"wedding"}},
		{ID: "inactive", Active: false, Rating: 5, HourlyRate: 50, Specializations: []string{"wedding"}},
		{ID: "booked-out", Active: true, Rating: 5, HourlyRate: 50, Specializations: []string{"wedding"}},
		{ID: "portrait-only", Active: true, Rating: 5, HourlyRate: 50, Specializations: []string{"portrait"}},
	} {
		if err := db.Providers().Upsert(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	return db
}

func TestRankerExcludesBeforeScoring(t *testing.T) {
	db := seed(t)
	slots := stubSlots{"a": true, "b": true, "inactive": true, "portrait-only": true}
	r := NewRanker(db.Providers(), slots, stubQuoter{}, stubTrends{"a": 0.6, "b": -0.2}, DefaultWeights(), nil)

	got, err := r.Rank(context.Background(), models.ClientQuery{Tags: []string{"wedding"}, Window: window, Duration: 2 * time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Provider.ID != "a" || got[1].Provider.ID != "b" {
		t.Fatalf("unexpected ranking %+v", got)
	}
	if got[0].NextSlot == nil || got[0].NextSlot.Duration() != 2*time.Hour || got[0].Quote == nil {
		t.Fatalf("missing slot or quote: %+v", got[0])
	}
}

func TestRankerDegradesWhenCollaboratorsFail(t *testing.T) {
	db := seed(t)
	r := NewRanker(db.Providers(), stubSlots{"a": true, "b": true}, stubQuoter{err: errors.New("redis down")}, stubTrends{}, DefaultWeights(), nil)

	got, err := r.Rank(context.Background(), models.ClientQuery{Tags: []string{"wedding"}, Window: window})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both candidates, got %d", len(got))
	}
	for _, rp := range got {
		if rp.Quote != nil || rp.Features.Sentiment != 0.5 || rp.Features.Price != 0.5 {
			t.Fatalf("expected neutral fallbacks, got %+v", rp)
		}
	}
	if got[0].Provider.ID != "a" {
		t.Fatalf("higher rating should still win, got %s", got[0].Provider.ID)
	}
}

func TestRankerRejectsBadWindow(t *testing.T) {
	r := NewRanker(memory.New().Providers(), stubSlots{}, nil, nil, DefaultWeights(), nil)
	_, err := r.Rank(context.Background(), models.ClientQuery{Window: models.Interval{Start: window.End, End: window.Start}})
	if !errs.Is(err, errs.KindInvalidInterval) {
		t.Fatalf("expected invalid interval, got %v", err)
	}
}
