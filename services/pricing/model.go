package pricing

import (
	"math"
	"sort"
	"strings"
	"time"

	"capturemoments/config"
	"capturemoments/models"
)

// Config holds the pricing constants. Every multiplier below is a pure
// function of a Config and its explicit inputs.
type Config struct {
	MinFactor        float64
	MaxFactor        float64
	BaselineDays     int
	BucketSize       time.Duration
	RatingBase       float64
	RatingSlope      float64
	WeekendPremium   float64
	PeakMonthPremium float64
	PeakMonths       []time.Month
	TravelRate       float64
	TravelCapKm      float64
	Regions          map[string]float64
	QuoteTTL         time.Duration
}

func ConfigFrom(c config.Config) Config {
	months := make([]time.Month, 0, len(c.PeakMonths))
	for _, m := range c.PeakMonths {
		months = append(months, time.Month(m))
	}
	return Config{
		MinFactor:        c.PriceMinFactor,
		MaxFactor:        c.PriceMaxFactor,
		BaselineDays:     c.DemandBaselineDays,
		BucketSize:       time.Duration(c.DemandBucketHours) * time.Hour,
		RatingBase:       c.RatingMultBase,
		RatingSlope:      c.RatingMultSlope,
		WeekendPremium:   c.WeekendPremium,
		PeakMonthPremium: c.PeakMonthPremium,
		PeakMonths:       months,
		TravelRate:       c.TravelRate,
		TravelCapKm:      c.TravelCapKm,
		Regions:          c.RegionMultipliers,
		QuoteTTL:         c.QuoteTTL,
	}
}

// DefaultConfig mirrors the configuration defaults.
func DefaultConfig() Config {
	return Config{
		MinFactor:        0.7,
		MaxFactor:        2.0,
		BaselineDays:     28,
		BucketSize:       24 * time.Hour,
		RatingBase:       0.9,
		RatingSlope:      0.1,
		WeekendPremium:   0.2,
		PeakMonthPremium: 0.15,
		PeakMonths:       []time.Month{time.May, time.June, time.December},
		TravelRate:       0.1,
		TravelCapKm:      50,
		Regions: map[string]float64{
			"mumbai":    1.5,
			"delhi":     1.4,
			"bangalore": 1.3,
			"hyderabad": 1.2,
			"chennai":   1.2,
			"pune":      1.1,
		},
		QuoteTTL: 10 * time.Minute,
	}
}

// DemandSnapshot is the demand input to a quote: the attempt count in the
// requested bucket and the mean count per bucket over the baseline period.
type DemandSnapshot struct {
	Current  int
	Baseline float64
}

// Inputs is everything a quote depends on.
type Inputs struct {
	Provider models.Provider
	Interval models.Interval
	Location models.Location
	Demand   DemandSnapshot
}

// Price computes the quote breakdown. Identical inputs always give an
// identical result.
func Price(cfg Config, in Inputs) (amount, base float64, f models.PriceFactors) {
	base = in.Provider.HourlyRate * in.Interval.Hours()
	f = models.PriceFactors{
		Demand:   DemandMultiplier(in.Demand.Current, in.Demand.Baseline),
		Rating:   RatingMultiplier(cfg, in.Provider.Rating),
		Location: LocationMultiplier(cfg, in.Provider.Location, in.Location),
		Calendar: CalendarMultiplier(cfg, in.Interval.Start),
	}
	raw := base * f.Demand * f.Rating * f.Location * f.Calendar
	lo, hi := base*cfg.MinFactor, base*cfg.MaxFactor
	switch {
	case raw < lo:
		amount, f.Clamped = lo, true
	case raw > hi:
		amount, f.Clamped = hi, true
	default:
		amount = math.Round(raw*100) / 100
		amount = math.Min(math.Max(amount, lo), hi)
	}
	return amount, base, f
}

// DemandMultiplier is 1 + log1p(current/baseline). A baseline below one
// attempt per bucket is treated as one, so a quiet provider never divides by zero.
func DemandMultiplier(current int, baseline float64) float64 {
	if current <= 0 {
		return 1
	}
	return 1 + math.Log1p(float64(current)/math.Max(baseline, 1))
}

func RatingMultiplier(cfg Config, rating float64) float64 {
	rating = math.Min(math.Max(rating, 0), 5)
	return cfg.RatingBase + cfg.RatingSlope*rating
}

// LocationMultiplier looks up the shoot's region, falling back to the
// provider's, and adds a capped travel surcharge when both sides have coordinates.
func LocationMultiplier(cfg Config, provider, shoot models.Location) float64 {
	region := shoot.Region
	if region == "" {
		region = provider.Region
	}
	m := RegionMultiplier(cfg.Regions, region)
	if cfg.TravelCapKm > 0 && provider.HasCoordinates() && shoot.HasCoordinates() {
		d := Haversine(*provider.Lat, *provider.Lng, *shoot.Lat, *shoot.Lng)
		m *= 1 + cfg.TravelRate*math.Min(d, cfg.TravelCapKm)/cfg.TravelCapKm
	}
	return m
}

// RegionMultiplier matches the first table key contained in region, trying
// keys in lexical order; unknown regions are neutral.
func RegionMultiplier(table map[string]float64, region string) float64 {
	region = strings.ToLower(strings.TrimSpace(region))
	if region == "" {
		return 1
	}
	if m, ok := table[region]; ok {
		return m
	}
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.Contains(region, k) {
			return table[k]
		}
	}
	return 1
}

// CalendarMultiplier adds the weekend and peak-month premiums.
func CalendarMultiplier(cfg Config, start time.Time) float64 {
	m := 1.0
	if wd := start.Weekday(); wd == time.Saturday || wd == time.Sunday {
		m += cfg.WeekendPremium
	}
	for _, month := range cfg.PeakMonths {
		if start.Month() == month {
			m += cfg.PeakMonthPremium
			break
		}
	}
	return m
}

// Haversine returns the great-circle distance in kilometres.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// BucketOf truncates t to the start of its demand bucket in UTC.
func BucketOf(t time.Time, size time.Duration) time.Time {
	if size <= 0 {
		size = 24 * time.Hour
	}
	return t.UTC().Truncate(size)
}

// BaselineBuckets is how many buckets the rolling baseline averages over.
func (c Config) BaselineBuckets() int {
	size := c.BucketSize
	if size <= 0 {
		size = 24 * time.Hour
	}
	n := int(time.Duration(c.BaselineDays) * 24 * time.Hour / size)
	if n < 1 {
		return 1
	}
	return n
}
