package feedback

import (
	"math"
	"sort"
	"strings"
	"time"

	"capturemoments/models"
)

// decayWeight halves every halfLife; records in the future weigh as now.
func decayWeight(created, now time.Time, halfLife time.Duration) float64 {
	if halfLife <= 0 {
		return 1
	}
	age := now.Sub(created)
	if age < 0 {
		age = 0
	}
	return math.Pow(0.5, float64(age)/float64(halfLife))
}

// SentimentTrend is the recency-weighted mean of feedback scores, in [-1, 1].
// No feedback is a neutral 0.
func SentimentTrend(records []models.FeedbackRecord, now time.Time, halfLife time.Duration) float64 {
	var sum, weights float64
	for _, r := range records {
		w := decayWeight(r.CreatedAt, now, halfLife)
		sum += w * r.Score
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return math.Max(-1, math.Min(1, sum/weights))
}

// DecayedRating recomputes a provider's star rating from the full log.
// It returns the rating rounded to two decimals and the number of reviews.
func DecayedRating(records []models.FeedbackRecord, now time.Time, halfLife time.Duration) (float64, int) {
	var sum, weights float64
	for _, r := range records {
		w := decayWeight(r.CreatedAt, now, halfLife)
		sum += w * r.Rating
		weights += w
	}
	if weights == 0 {
		return 0, 0
	}
	return math.Round(sum/weights*100) / 100, len(records)
}

var topicKeywords = []struct {
	topic string
	words []string
}{
	{"communication", []string{"communication", "responsive", "contact", "reply"}},
	{"quality", []string{"quality", "professional", "skill", "talent"}},
	{"punctuality", []string{"time", "punctual", "late", "early", "schedule"}},
	{"pricing", []string{"price", "cost", "expensive", "affordable", "value"}},
	{"creativity", []string{"creative", "artistic", "unique", "innovative"}},
}

const generalTopic = "general"

// ExtractTopics tags review text by keyword; text matching nothing is "general".
func ExtractTopics(text string) []string {
	text = strings.ToLower(text)
	var topics []string
	for _, k := range topicKeywords {
		for _, w := range k.words {
			if strings.Contains(text, w) {
				topics = append(topics, k.topic)
				break
			}
		}
	}
	if len(topics) == 0 {
		return []string{generalTopic}
	}
	return topics
}

// TopicInsight summarises the feedback tagged with one topic.
type TopicInsight struct {
	Topic        string  `json:"topic"`
	Count        int     `json:"count"`
	AverageScore float64 `json:"averageScore"`
	Positive     int     `json:"positive"`
	Neutral      int     `json:"neutral"`
	Negative     int     `json:"negative"`
}

// Insights is the provider-facing review summary.
type Insights struct {
	ProviderID     string         `json:"providerId"`
	Reviews        int            `json:"reviews"`
	Rating         float64        `json:"rating"`
	SentimentTrend float64        `json:"sentimentTrend"`
	Topics         []TopicInsight `json:"topics"`
}

// Summarize builds Insights from a provider's feedback log. Topics are
// ordered by count, then name.
func Summarize(providerID string, records []models.FeedbackRecord, now time.Time, sentimentHalfLife, ratingHalfLife time.Duration) Insights {
	out := Insights{
		ProviderID:     providerID,
		SentimentTrend: SentimentTrend(records, now, sentimentHalfLife),
	}
	out.Rating, out.Reviews = DecayedRating(records, now, ratingHalfLife)

	byTopic := make(map[string]*TopicInsight)
	sums := make(map[string]float64)
	for _, r := range records {
		for _, topic := range r.Topics {
			ti, ok := byTopic[topic]
			if !ok {
				ti = &TopicInsight{Topic: topic}
				byTopic[topic] = ti
			}
			ti.Count++
			sums[topic] += r.Score
			switch models.CategoryFor(r.Score) {
			case models.SentimentPositive:
				ti.Positive++
			case models.SentimentNegative:
				ti.Negative++
			default:
				ti.Neutral++
			}
		}
	}
	for topic, ti := range byTopic {
		ti.AverageScore = math.Round(sums[topic]/float64(ti.Count)*1000) / 1000
		out.Topics = append(out.Topics, *ti)
	}
	sort.Slice(out.Topics, func(i, j int) bool {
		if out.Topics[i].Count != out.Topics[j].Count {
			return out.Topics[i].Count > out.Topics[j].Count
		}
		return out.Topics[i].Topic < out.Topics[j].Topic
	})
	return out
}
