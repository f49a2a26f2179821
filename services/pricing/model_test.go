package pricing

import (
	"math"
	"testing"
	"time"

	"capturemoments/models"
)

func ptr(f float64) *float64 { return &f }

// Tuesday in March: no calendar premium.
var weekday = models.Interval{
	Start: time.Date(2030, 3, 5, 10, 0, 0, 0, time.UTC),
	End:   time.Date(2030, 3, 5, 11, 0, 0, 0, time.UTC),
}

func provider(rate, rating float64) models.Provider {
	return models.Provider{ID: "p1", HourlyRate: rate, Rating: rating, Currency: "inr", Active: true}
}

func TestPriceIsDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	in := Inputs{
		Provider: provider(100, 4.2),
		Interval: weekday,
		Location: models.Location{Region: "Pune"},
		Demand:   DemandSnapshot{Current: 2, Baseline: 3},
	}
	first, _, f1 := Price(cfg, in)
	for i := 0; i < 100; i++ {
		got, _, f := Price(cfg, in)
		if got != first || f != f1 {
			t.Fatalf("run %d: %v %+v != %v %+v", i, got, f, first, f1)
		}
	}
}

func TestPriceStaysInBounds(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		name   string
		in     Inputs
		factor float64 // expected price / base when clamped, 0 otherwise
	}{
		{"quiet low rated", Inputs{Provider: provider(100, 0), Interval: weekday}, 0},
		{"heavy demand in mumbai on a weekend", Inputs{
			Provider: provider(100, 5),
			Interval: models.Interval{
				Start: time.Date(2030, 12, 7, 10, 0, 0, 0, time.UTC),
				End:   time.Date(2030, 12, 7, 11, 0, 0, 0, time.UTC),
			},
			Location: models.Location{Region: "Mumbai"},
			Demand:   DemandSnapshot{Current: 50, Baseline: 1},
		}, 2.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			price, base, f := Price(cfg, tc.in)
			if price < base*cfg.MinFactor || price > base*cfg.MaxFactor {
				t.Fatalf("price %v outside [%v, %v]", price, base*cfg.MinFactor, base*cfg.MaxFactor)
			}
			if tc.factor > 0 && (!f.Clamped || price != base*tc.factor) {
				t.Fatalf("expected clamp at %v x base, got %v (clamped=%v)", tc.factor, price, f.Clamped)
			}
		})
	}
}

func TestPriceClampsBelow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RatingBase, cfg.RatingSlope = 0.1, 0
	price, base, f := Price(cfg, Inputs{Provider: provider(200, 3), Interval: weekday})
	if !f.Clamped || price != base*cfg.MinFactor {
		t.Fatalf("expected floor clamp, got %v clamped=%v", price, f.Clamped)
	}
}

func TestBaseScalesWithHours(t *testing.T) {
	iv := models.Interval{Start: weekday.Start, End: weekday.Start.Add(150 * time.Minute)}
	_, base, _ := Price(DefaultConfig(), Inputs{Provider: provider(100, 0), Interval: iv})
	if base != 250 {
		t.Fatalf("expected base 250, got %v", base)
	}
}

func TestDemandMultiplierIsMonotonic(t *testing.T) {
	prev := DemandMultiplier(0, 4)
	if prev != 1 {
		t.Fatalf("no demand must be neutral, got %v", prev)
	}
	for c := 1; c < 50; c++ {
		m := DemandMultiplier(c, 4)
		if m <= prev {
			t.Fatalf("multiplier not increasing at %d: %v <= %v", c, m, prev)
		}
		prev = m
	}
	if got := DemandMultiplier(3, 0); math.IsInf(got, 0) || math.IsNaN(got) {
		t.Fatalf("zero baseline produced %v", got)
	}
}

func TestRatingMultiplier(t *testing.T) {
	cfg := DefaultConfig()
	cases := map[float64]float64{0: 0.9, 2.5: 1.15, 5: 1.4, 7: 1.4, -1: 0.9}
	for rating, want := range cases {
		if got := RatingMultiplier(cfg, rating); math.Abs(got-want) > 1e-9 {
			t.Errorf("rating %v: got %v want %v", rating, got, want)
		}
	}
}

func TestLocationMultiplier(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		name     string
		provider models.Location
		shoot    models.Location
		want     float64
	}{
		{"exact region", models.Location{}, models.Location{Region: "delhi"}, 1.4},
		{"region inside address", models.Location{}, models.Location{Region: "Bandra, Mumbai"}, 1.5},
		{"falls back to provider region", models.Location{Region: "chennai"}, models.Location{}, 1.2},
		{"unknown region", models.Location{}, models.Location{Region: "goa"}, 1},
		{"same spot", models.Location{Lat: ptr(18.52), Lng: ptr(73.85)}, models.Location{Region: "pune", Lat: ptr(18.52), Lng: ptr(73.85)}, 1.1},
		{"beyond travel cap", models.Location{Lat: ptr(19.07), Lng: ptr(72.87)}, models.Location{Lat: ptr(28.61), Lng: ptr(77.21)}, 1.1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := LocationMultiplier(cfg, tc.provider, tc.shoot); math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestCalendarMultiplier(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		day  time.Time
		want float64
	}{
		{time.Date(2030, 3, 5, 0, 0, 0, 0, time.UTC), 1},     // Tuesday
		{time.Date(2030, 3, 9, 0, 0, 0, 0, time.UTC), 1.2},   // Saturday
		{time.Date(2030, 6, 4, 0, 0, 0, 0, time.UTC), 1.15},  // June Tuesday
		{time.Date(2030, 12, 1, 0, 0, 0, 0, time.UTC), 1.35}, // December Sunday
	}
	for _, tc := range cases {
		if got := CalendarMultiplier(cfg, tc.day); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s: got %v want %v", tc.day.Format(time.DateOnly), got, tc.want)
		}
	}
}

func TestHaversine(t *testing.T) {
	// Mumbai to Delhi is roughly 1150 km.
	d := Haversine(19.07, 72.87, 28.61, 77.21)
	if d < 1100 || d > 1200 {
		t.Fatalf("unexpected distance %v", d)
	}
	if Haversine(10, 10, 10, 10) != 0 {
		t.Fatal("distance to self must be zero")
	}
}
