package handlers

import (
	"trono-server/models"
	"trono-server/utils/format"
	"trono-server/utils/geo"
)

// POIView is a POI plus the display strings a client renders as-is.
type POIView struct {
	models.POI
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
	DistanceLabel  string   `json:"distance_label,omitempty"`
	PriceLabel     string   `json:"price_label"`
	RatingLabel    string   `json:"rating_label,omitempty"`
	ShortAddress   string   `json:"short_address"`
	FeaturedPhoto  string   `json:"featured_photo,omitempty"`
}

func newPOIView(poi models.POI, ref *models.Position, labels format.Labels) POIView {
	view := POIView{
		POI:           poi,
		ShortAddress:  format.FormatShortAddress(poi.Address, labels.NoAddress),
		FeaturedPhoto: poi.FeaturedPhoto(),
	}

	if poi.IsFree {
		view.PriceLabel = labels.Free
	} else {
		view.PriceLabel = format.FormatPrice(poi.Price, labels)
	}

	// A rating with no votes behind it is not shown.
	if poi.VoteCount > 0 {
		view.RatingLabel = format.FormatRating(poi.Rating)
	}

	if ref != nil {
		d := geo.Distance(ref.Latitude, ref.Longitude, poi.Latitude, poi.Longitude)
		view.DistanceMeters = &d
		view.DistanceLabel = format.FormatDistance(d)
	}
	return view
}

func newPOIViews(pois []models.POI, ref *models.Position, labels format.Labels) []POIView {
	views := make([]POIView, 0, len(pois))
	for _, poi := range pois {
		views = append(views, newPOIView(poi, ref, labels))
	}
	return views
}
