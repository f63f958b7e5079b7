package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"trono-server/middleware"
	"trono-server/models"
	"trono-server/services"
	"trono-server/utils/errors"
	"trono-server/utils/format"
)

type POIHandler struct {
	poiService *services.POIService
	ranker     *services.Ranker
	labels     format.Labels
}

type RankedPOIResponse struct {
	POIs     []POIView             `json:"pois"`
	Count    int                   `json:"count"`
	Lat      *float64              `json:"lat,omitempty"`
	Lon      *float64              `json:"lon,omitempty"`
	Filters  models.FilterCriteria `json:"filters"`
	Selected string                `json:"selected_poi,omitempty"`
}

func NewPOIHandler(poiService *services.POIService, ranker *services.Ranker, labels format.Labels) *POIHandler {
	return &POIHandler{poiService: poiService, ranker: ranker, labels: labels}
}

// GetPOIs ranks the verified POIs matching the query filters. lat and lon are optional
// but must come together; without them the store order is kept and no distances are shown.
func (h *POIHandler) GetPOIs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	ref, err := parseReference(q)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	criteria, err := parseCriteria(q)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	pois := h.ranker.Rank(h.poiService.Snapshot(), criteria, ref)

	response := RankedPOIResponse{
		POIs:    newPOIViews(pois, ref, h.labels),
		Count:   len(pois),
		Filters: criteria,
	}
	if ref != nil {
		response.Lat, response.Lon = &ref.Latitude, &ref.Longitude
	}
	middleware.WriteJSON(w, http.StatusOK, response)
}

// GetPOI returns a single POI, verified or not, with distance when lat and lon are given.
func (h *POIHandler) GetPOI(w http.ResponseWriter, r *http.Request) {
	ref, err := parseReference(r.URL.Query())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	poi, ok := h.poiService.Find(mux.Vars(r)["id"])
	if !ok {
		middleware.WriteError(w, errors.ErrNotFound)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, newPOIView(poi, ref, h.labels))
}

func parseReference(q url.Values) (*models.Position, error) {
	rawLat, rawLon := q.Get("lat"), q.Get("lon")
	if rawLat == "" && rawLon == "" {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return nil, errors.ErrInvalidInput.WithDetails("lat must be a number")
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return nil, errors.ErrInvalidInput.WithDetails("lon must be a number")
	}

	ref := &models.Position{Latitude: lat, Longitude: lon}
	if !ref.ValidCoordinates() {
		return nil, errors.ErrInvalidCoordinates
	}
	return ref, nil
}

// parseCriteria reads type (male, female or unisex; comma separated or repeated) and the
// tri-state facets.
// An absent or empty facet means "don't care".
func parseCriteria(q url.Values) (models.FilterCriteria, error) {
	var criteria models.FilterCriteria

	for _, raw := range q["type"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			amenity := models.Amenity(part)
			if !amenity.IsGender() {
				return models.FilterCriteria{}, errors.ErrInvalidFilter.WithDetails(fmt.Sprintf("type must be male, female or unisex, got %q", part))
			}
			criteria.Types = append(criteria.Types, amenity)
		}
	}

	facets := []struct {
		name string
		dst  *models.TriState
	}{
		{"accessible", &criteria.Accessible},
		{"baby_changing", &criteria.BabyChanging},
		{"paper", &criteria.Paper},
		{"soap", &criteria.Soap},
		{"sink", &criteria.Sink},
		{"free", &criteria.Free},
	}
	for _, f := range facets {
		state, err := models.ParseTriState(q.Get(f.name))
		if err != nil {
			return models.FilterCriteria{}, errors.ErrInvalidFilter.WithDetails(f.name + ": " + err.Error())
		}
		*f.dst = state
	}

	return criteria, nil
}
