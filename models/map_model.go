package models

// MapView is the map viewport a client last showed: its center and zoom level.
type MapView struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
}

// DefaultMapView is centered on Mexico City at street-level zoom.
func DefaultMapView() MapView {
	return MapView{Latitude: 19.4326, Longitude: -99.1332, Zoom: 13}
}

// Valid reports whether the center is a valid coordinate and the zoom is positive.
func (m MapView) Valid() bool {
	return Position{Latitude: m.Latitude, Longitude: m.Longitude}.ValidCoordinates() && m.Zoom > 0
}
