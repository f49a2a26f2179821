package feedback

import (
	"math"
	"slices"
	"testing"
	"time"

	"capturemoments/models"
)

var now = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

func rec(score, rating float64, daysAgo int, topics ...string) models.FeedbackRecord {
	return models.FeedbackRecord{
		Score:     score,
		Rating:    rating,
		Category:  models.CategoryFor(score),
		Topics:    topics,
		CreatedAt: now.AddDate(0, 0, -daysAgo),
	}
}

const month = 30 * 24 * time.Hour

func TestSentimentTrend(t *testing.T) {
	if got := SentimentTrend(nil, now, month); got != 0 {
		t.Fatalf("no feedback should be neutral, got %v", got)
	}
	// same age: plain mean
	got := SentimentTrend([]models.FeedbackRecord{rec(0.6, 5, 0), rec(-0.2, 3, 0)}, now, month)
	if math.Abs(got-0.2) > 1e-9 {
		t.Fatalf("expected 0.2, got %v", got)
	}
	// a recent complaint outweighs an old compliment
	got = SentimentTrend([]models.FeedbackRecord{rec(0.8, 5, 120), rec(-0.8, 1, 1)}, now, month)
	if got >= 0 {
		t.Fatalf("expected recent negative to dominate, got %v", got)
	}
}

func TestSentimentTrendIsMonotonicInScores(t *testing.T) {
	base := []models.FeedbackRecord{rec(0.1, 4, 3), rec(-0.3, 2, 10), rec(0.5, 5, 40)}
	prev := SentimentTrend(base, now, month)
	for i := range base {
		bumped := slices.Clone(base)
		bumped[i].Score += 0.2
		if got := SentimentTrend(bumped, now, month); got < prev {
			t.Fatalf("raising record %d lowered the trend: %v < %v", i, got, prev)
		}
	}
}

func TestDecayedRating(t *testing.T) {
	rating, n := DecayedRating(nil, now, month)
	if rating != 0 || n != 0 {
		t.Fatalf("got %v %d", rating, n)
	}
	rating, n = DecayedRating([]models.FeedbackRecord{rec(0, 4, 0), rec(0, 5, 0)}, now, month)
	if rating != 4.5 || n != 2 {
		t.Fatalf("got %v %d", rating, n)
	}
	rating, _ = DecayedRating([]models.FeedbackRecord{rec(0, 5, 365), rec(0, 2, 0)}, now, month)
	if rating > 2.1 {
		t.Fatalf("old review should barely count, got %v", rating)
	}
}

func TestExtractTopics(t *testing.T) {
	cases := []struct {
		text string
		want []string
	}{
		{"Very Professional and creative, great value", []string{"quality", "pricing", "creativity"}},
		{"arrived late and never replied to contact", []string{"communication", "punctuality"}},
		{"lovely day", []string{"general"}},
		{"", []string{"general"}},
	}
	for _, tc := range cases {
		if got := ExtractTopics(tc.text); !slices.Equal(got, tc.want) {
			t.Errorf("%q: got %v want %v", tc.text, got, tc.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	records := []models.FeedbackRecord{
		rec(0.6, 5, 1, "quality", "creativity"),
		rec(-0.5, 2, 2, "quality"),
		rec(0.05, 4, 3, "pricing"),
	}
	got := Summarize("p1", records, now, month, 3*month)
	if got.Reviews != 3 || len(got.Topics) != 3 {
		t.Fatalf("unexpected summary %+v", got)
	}
	q := got.Topics[0]
	if q.Topic != "quality" || q.Count != 2 || q.Positive != 1 || q.Negative != 1 || q.AverageScore != 0.05 {
		t.Fatalf("unexpected quality insight %+v", q)
	}
	if got.Topics[1].Topic != "creativity" || got.Topics[2].Topic != "pricing" || got.Topics[2].Neutral != 1 {
		t.Fatalf("unexpected topic order %+v", got.Topics)
	}
}
