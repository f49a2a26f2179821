package models

import "time"

// ClientQuery asks for providers matching tags with an open slot in Window.
type ClientQuery struct {
	ClientID string        `json:"clientId"`
	Tags     []string      `json:"tags"`
	Location Location      `json:"location"`
	Window   Interval      `json:"window"`
	Duration time.Duration `json:"duration"`
	Limit    int           `json:"limit,omitempty"`
}

// Quote is a computed price for a provider interval.
type Quote struct {
	ID              string       `json:"id"`
	ProviderID      string       `json:"providerId"`
	Interval        Interval     `json:"interval"`
	Location        Location     `json:"location"`
	BaseAmount      float64      `json:"baseAmount"`
	Price           float64      `json:"price"`
	Currency        string       `json:"currency"`
	Factors         PriceFactors `json:"factors"`
	SnapshotVersion int64        `json:"snapshotVersion"`
	ComputedAt      time.Time    `json:"computedAt"`
}

// PriceFactors is the multiplier breakdown behind a quote.
type PriceFactors struct {
	Demand   float64 `json:"demand"`
	Rating   float64 `json:"rating"`
	Location float64 `json:"location"`
	Calendar float64 `json:"calendar"`
	Clamped  bool    `json:"clamped"`
}

// RankedProvider is one entry of a recommendation list.
type RankedProvider struct {
	Provider Provider     `json:"provider"`
	Score    float64      `json:"score"`
	Features RankFeatures `json:"features"`
	NextSlot *Interval    `json:"nextSlot,omitempty"`
	Quote    *Quote       `json:"quote,omitempty"`
}

// RankFeatures are the normalized inputs to the ranking score, each in [0,1].
type RankFeatures struct {
	Specialization float64 `json:"specialization"`
	Distance       float64 `json:"distance"`
	Rating         float64 `json:"rating"`
	Sentiment      float64 `json:"sentiment"`
	Price          float64 `json:"price"`
}

// SuggestedSlot is an open interval scored by how good a time it is to shoot.
type SuggestedSlot struct {
	Interval    Interval `json:"interval"`
	Score       float64  `json:"score"`
	Recommended bool     `json:"recommended"`
}
