package models

import "time"

// Location is either a named region, a coordinate pair, or both.
type Location struct {
	Region string   `bson:"region,omitempty" json:"region,omitempty"`
	Lat    *float64 `bson:"lat,omitempty" json:"lat,omitempty"`
	Lng    *float64 `bson:"lng,omitempty" json:"lng,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lng != nil
}

// Provider is a photographer as supplied by the profile service.
type Provider struct {
	ID              string    `bson:"id" json:"id"`
	Name            string    `bson:"name" json:"name"`
	Specializations []string  `bson:"specializations" json:"specializations"` // e.g. "wedding", "portrait"
	Location        Location  `bson:"location" json:"location"`
	HourlyRate      float64   `bson:"hourlyRate" json:"hourlyRate"`
	Currency        string    `bson:"currency" json:"currency"`
	Rating          float64   `bson:"rating" json:"rating"` // 0-5, decayed moving average
	RatingCount     int       `bson:"ratingCount" json:"ratingCount"`
	Active          bool      `bson:"active" json:"active"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt,omitzero"`
}
