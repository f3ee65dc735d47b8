package domain

import (
	"time"

	"github.com/google/uuid"
)

// LocationSample is one reported position. Append-only.
type LocationSample struct {
	ID        string    `json:"id"`
	UserID    UserID    `json:"userId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLocationSample stamps a fresh id; a zero ts means now.
func NewLocationSample(user UserID, lat, lng, accuracy float64, ts time.Time) LocationSample {
	if ts.IsZero() {
		ts = time.Now()
	}
	return LocationSample{
		ID:        uuid.NewString(),
		UserID:    user,
		Latitude:  lat,
		Longitude: lng,
		Accuracy:  accuracy,
		Timestamp: ts.UTC(),
	}
}

// MemberLocation pairs a member with the most recent sample, if any.
type MemberLocation struct {
	UserID        UserID          `json:"userId"`
	Username      string          `json:"username"`
	Latest        *LocationSample `json:"lastLocation"`
	LocationCount int             `json:"locationCount"`
}
