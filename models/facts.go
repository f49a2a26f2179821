package models

import "time"

// DemandSample records one booking attempt against a demand bucket.
// Samples are append-only.
type DemandSample struct {
	ID         string    `bson:"id" json:"id"`
	ProviderID string    `bson:"providerId" json:"providerId"`
	Region     string    `bson:"region,omitempty" json:"region,omitempty"`
	Bucket     time.Time `bson:"bucket" json:"bucket"` // start of the bucket containing the requested interval
	RecordedAt time.Time `bson:"recordedAt" json:"recordedAt"`
}

type SentimentCategory string

const (
	SentimentPositive SentimentCategory = "positive"
	SentimentNeutral  SentimentCategory = "neutral"
	SentimentNegative SentimentCategory = "negative"
)

// CategoryFor maps a polarity score to its category (|score| <= 0.1 is neutral).
func CategoryFor(score float64) SentimentCategory {
	switch {
	case score > 0.1:
		return SentimentPositive
	case score < -0.1:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// FeedbackRecord is a scored review of a completed booking. Append-only.
type FeedbackRecord struct {
	ID         string            `bson:"id" json:"id"`
	BookingID  string            `bson:"bookingId" json:"bookingId"`
	ProviderID string            `bson:"providerId" json:"providerId"`
	ClientID   string            `bson:"clientId" json:"clientId"`
	Rating     float64           `bson:"rating" json:"rating"` // 1-5 stars
	Score      float64           `bson:"score" json:"score"`   // -1..1 polarity
	Category   SentimentCategory `bson:"category" json:"category"`
	Topics     []string          `bson:"topics,omitempty" json:"topics,omitempty"`
	Text       string            `bson:"text,omitempty" json:"text,omitempty"`
	CreatedAt  time.Time         `bson:"createdAt" json:"createdAt"`
}
