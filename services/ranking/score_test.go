package ranking

import (
	"math"
	"testing"
	"time"

	"capturemoments/models"
)

var window = models.Interval{
	Start: time.Date(2030, 3, 5, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2030, 3, 6, 0, 0, 0, 0, time.UTC),
}

func cand(id string, rating, trend, price float64, tags ...string) Candidate {
	return Candidate{
		Provider: models.Provider{ID: id, Rating: rating, Active: true, Specializations: tags},
		Trend:    trend,
		Quote:    &models.Quote{ProviderID: id, Price: price},
	}
}

func TestHigherRatingAndSentimentRanksFirst(t *testing.T) {
	q := models.ClientQuery{Tags: []string{"wedding"}, Window: window}
	got := Rank(q, []Candidate{
		cand("a", 4.8, 0.6, 150, "wedding"),
		cand("b", 3.9, -0.2, 150, "wedding"),
	}, DefaultWeights())
	if got[0].Provider.ID != "a" || got[0].Score <= got[1].Score {
		t.Fatalf("expected a above b, got %v (%v) then %v (%v)",
			got[0].Provider.ID, got[0].Score, got[1].Provider.ID, got[1].Score)
	}
}

func TestTieBreaksOnProviderID(t *testing.T) {
	q := models.ClientQuery{Window: window}
	got := Rank(q, []Candidate{
		cand("zeta", 4, 0, 100),
		cand("alpha", 4, 0, 100),
		cand("mid", 4, 0, 100),
	}, DefaultWeights())
	for i, want := range []string{"alpha", "mid", "zeta"} {
		if got[i].Provider.ID != want {
			t.Fatalf("position %d: got %s want %s", i, got[i].Provider.ID, want)
		}
	}
}

func TestRaisingSentimentNeverLowersPosition(t *testing.T) {
	base := []Candidate{
		cand("a", 4.5, 0.1, 120, "portrait"),
		cand("b", 4.0, 0.4, 100, "portrait"),
		cand("c", 3.5, -0.3, 90, "portrait", "event"),
		cand("d", 4.9, -0.8, 200, "event"),
	}
	q := models.ClientQuery{Tags: []string{"portrait"}, Window: window}
	position := func(cs []Candidate, id string) int {
		for i, r := range Rank(q, cs, DefaultWeights()) {
			if r.Provider.ID == id {
				return i
			}
		}
		return -1
	}
	for _, target := range []string{"a", "b", "c", "d"} {
		prev := position(base, target)
		for trend := -1.0; trend <= 1.0; trend += 0.1 {
			cs := make([]Candidate, len(base))
			copy(cs, base)
			for i := range cs {
				if cs[i].Provider.ID == target {
					cs[i].Trend = trend
				}
			}
			pos := position(cs, target)
			if trend > -1.0 && pos > prev {
				t.Fatalf("%s dropped from %d to %d when trend rose to %.1f", target, prev, pos, trend)
			}
			prev = pos
		}
	}
}

func TestJaccard(t *testing.T) {
	cases := []struct {
		req, offered []string
		want         float64
	}{
		{nil, []string{"x"}, 1},
		{[]string{"wedding"}, []string{"Wedding"}, 1},
		{[]string{"wedding", "event"}, []string{"wedding"}, 0.5},
		{[]string{"wedding"}, []string{"wedding", "portrait", "event"}, 1.0 / 3},
		{[]string{"wedding"}, []string{"portrait"}, 0},
	}
	for _, tc := range cases {
		if got := Jaccard(tc.req, tc.offered); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Jaccard(%v, %v) = %v, want %v", tc.req, tc.offered, got, tc.want)
		}
	}
}

func TestDistanceScore(t *testing.T) {
	lat, lng := 19.07, 72.87
	here := models.Location{Lat: &lat, Lng: &lng}
	if got := DistanceScore(here, here, 10); got != 1 {
		t.Fatalf("same point: %v", got)
	}
	if got := DistanceScore(models.Location{Region: "Pune"}, models.Location{Region: "pune"}, 10); got != 1 {
		t.Fatalf("same region: %v", got)
	}
	if got := DistanceScore(models.Location{Region: "pune"}, models.Location{Region: "delhi"}, 10); got != 0 {
		t.Fatalf("other region: %v", got)
	}
	if got := DistanceScore(models.Location{}, here, 10); got != 0.5 {
		t.Fatalf("unknown: %v", got)
	}
}

func TestPriceFeatureAndLimit(t *testing.T) {
	q := models.ClientQuery{Window: window, Limit: 2}
	noQuote := cand("c", 4, 0, 0)
	noQuote.Quote = nil
	got := Rank(q, []Candidate{cand("a", 4, 0, 100), cand("b", 4, 0, 200), noQuote}, DefaultWeights())
	if len(got) != 2 {
		t.Fatalf("limit not applied: %d", len(got))
	}
	if got[0].Provider.ID != "a" || got[0].Features.Price != 1 {
		t.Fatalf("cheapest should lead with price feature 1: %+v", got[0])
	}
	if got[1].Provider.ID != "c" || got[1].Features.Price != 0.5 {
		t.Fatalf("unquoted candidate should get neutral price feature: %+v", got[1])
	}
}
