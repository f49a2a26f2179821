package ranking

import (
	"math"
	"sort"
	"strings"

	"capturemoments/config"
	"capturemoments/models"
	"capturemoments/services/pricing"
)

// Weights scale each normalized feature. They need not sum to one.
type Weights struct {
	Specialization  float64
	Distance        float64
	Rating          float64
	Sentiment       float64
	Price           float64
	DistanceScaleKm float64
	Limit           int
}

func DefaultWeights() Weights {
	return Weights{
		Specialization:  3.0,
		Distance:        2.0,
		Rating:          2.5,
		Sentiment:       1.5,
		Price:           0.5,
		DistanceScaleKm: 10,
		Limit:           20,
	}
}

func WeightsFrom(c config.Config) Weights {
	return Weights{
		Specialization:  c.RankSpecializationWeight,
		Distance:        c.RankDistanceWeight,
		Rating:          c.RankRatingWeight,
		Sentiment:       c.RankSentimentWeight,
		Price:           c.RankPriceWeight,
		DistanceScaleKm: c.RankDistanceScaleKm,
		Limit:           c.RankLimit,
	}
}

// Score is the weighted sum of the features.
func Score(f models.RankFeatures, w Weights) float64 {
	return w.Specialization*f.Specialization +
		w.Distance*f.Distance +
		w.Rating*f.Rating +
		w.Sentiment*f.Sentiment +
		w.Price*f.Price
}

// Jaccard is |a ∩ b| / |a ∪ b| over case-folded tags. No requested tags
// matches everyone fully.
func Jaccard(requested, offered []string) float64 {
	if len(requested) == 0 {
		return 1
	}
	a := make(map[string]struct{}, len(requested))
	for _, t := range requested {
		a[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	union := len(a)
	inter := 0
	seen := make(map[string]struct{}, len(offered))
	for _, t := range offered {
		t = strings.ToLower(strings.TrimSpace(t))
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := a[t]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// DistanceScore is 1/(1+d/scale). Without coordinates on both sides it
// falls back to region equality: 1 for the same region, 0.5 when unknown.
func DistanceScore(client, provider models.Location, scaleKm float64) float64 {
	if client.HasCoordinates() && provider.HasCoordinates() {
		if scaleKm <= 0 {
			scaleKm = 10
		}
		d := pricing.Haversine(*client.Lat, *client.Lng, *provider.Lat, *provider.Lng)
		return 1 / (1 + d/scaleKm)
	}
	if client.Region != "" && provider.Region != "" {
		if strings.EqualFold(strings.TrimSpace(client.Region), strings.TrimSpace(provider.Region)) {
			return 1
		}
		return 0
	}
	return 0.5
}

func RatingScore(rating float64) float64 {
	return math.Max(0, math.Min(5, rating)) / 5
}

// SentimentScore maps a trend in [-1, 1] onto [0, 1].
func SentimentScore(trend float64) float64 {
	return (math.Max(-1, math.Min(1, trend)) + 1) / 2
}

// Candidate is an eligible provider with everything its score depends on.
type Candidate struct {
	Provider models.Provider
	Trend    float64
	NextSlot models.Interval
	Quote    *models.Quote // nil when pricing was unavailable
}

// Rank scores the candidates and orders them by descending score, breaking
// ties by ascending provider id. The cheapest quoted candidate gets a price
// feature of 1; unquoted candidates get 0.5.
func Rank(q models.ClientQuery, candidates []Candidate, w Weights) []models.RankedProvider {
	minPrice := math.Inf(1)
	for _, c := range candidates {
		if c.Quote != nil && c.Quote.Price > 0 {
			minPrice = math.Min(minPrice, c.Quote.Price)
		}
	}

	out := make([]models.RankedProvider, 0, len(candidates))
	for _, c := range candidates {
		f := models.RankFeatures{
			Specialization: Jaccard(q.Tags, c.Provider.Specializations),
			Distance:       DistanceScore(q.Location, c.Provider.Location, w.DistanceScaleKm),
			Rating:         RatingScore(c.Provider.Rating),
			Sentiment:      SentimentScore(c.Trend),
			Price:          0.5,
		}
		if c.Quote != nil && c.Quote.Price > 0 {
			f.Price = minPrice / c.Quote.Price
		}
		slot := c.NextSlot
		out = append(out, models.RankedProvider{
			Provider: c.Provider,
			Score:    Score(f, w),
			Features: f,
			NextSlot: &slot,
			Quote:    c.Quote,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Provider.ID < out[j].Provider.ID
	})

	limit := q.Limit
	if limit <= 0 {
		limit = w.Limit
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
