package models

import "time"

// Position is a reference or device location. Accuracy is in meters; zero means the
// source did not report one.
type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// ValidCoordinates reports whether the position lies within [-90,90] x [-180,180].
func (p Position) ValidCoordinates() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}
