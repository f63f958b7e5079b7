package handlers

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"trono-server/middleware"
	"trono-server/models"
	"trono-server/services"
	"trono-server/utils/errors"
	"trono-server/utils/format"
)

type UserHandler struct {
	sessionService *services.SessionService
	poiService     *services.POIService
	ranker         *services.Ranker
	labels         format.Labels
	logger         *slog.Logger
}

// PingRequest is either a fix or a device-side error report.
type PingRequest struct {
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	Accuracy  float64    `json:"accuracy"`
	Timestamp *time.Time `json:"timestamp"`
	Error     string     `json:"error"`
	Message   string     `json:"message"`
}

type PingResponse struct {
	Status    string           `json:"status"`
	SessionID string           `json:"session_id"`
	Location  *models.Position `json:"location,omitempty"`
}

type SelectRequest struct {
	POIID string `json:"poi_id"`
}

func NewUserHandler(
	sessionService *services.SessionService,
	poiService *services.POIService,
	ranker *services.Ranker,
	labels format.Labels,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		sessionService: sessionService,
		poiService:     poiService,
		ranker:         ranker,
		labels:         labels,
		logger:         logger,
	}
}

func sessionFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
	}
	return sessionID, ok
}

// PingLocation accepts a raw device fix, or a position error report, for the session.
// The response carries the stabilized location, which only moves on significant change.
func (h *UserHandler) PingLocation(w http.ResponseWriter, r *http.Request) {
	receivedAt := time.Now()
	sessionID, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var input PingRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	if input.Error != "" {
		code, err := services.ParsePositionErrorCode(input.Error)
		if err != nil {
			h.logger.WarnContext(r.Context(), "rejected position error report",
				slog.String("session", sessionID), slog.String("code", input.Error))
			middleware.WriteError(w, errors.ErrInvalidInput.WithDetails(err.Error()))
			return
		}
		h.sessionService.ReportError(r.Context(), sessionID, code, input.Message)
		middleware.WriteJSON(w, http.StatusAccepted, PingResponse{Status: "reported", SessionID: sessionID})
		return
	}

	if input.Latitude == nil || input.Longitude == nil {
		h.logger.WarnContext(r.Context(), "rejected ping without coordinates", slog.String("session", sessionID))
		middleware.WriteError(w, errors.ErrInvalidInput.WithDetails("latitude and longitude are required"))
		return
	}
	pos := models.Position{Latitude: *input.Latitude, Longitude: *input.Longitude, Accuracy: input.Accuracy}
	if input.Timestamp != nil {
		pos.Timestamp = *input.Timestamp
	}

	if err := h.sessionService.PingAt(r.Context(), sessionID, pos, receivedAt); err != nil {
		if stderrors.Is(err, services.ErrInvalidCoordinates) {
			h.logger.WarnContext(r.Context(), "rejected ping", slog.String("session", sessionID), slog.Any("error", err))
			middleware.WriteError(w, errors.ErrInvalidCoordinates)
			return
		}
		middleware.WriteError(w, err)
		return
	}

	response := PingResponse{Status: "success", SessionID: sessionID}
	if loc, ok := h.sessionService.Location(r.Context(), sessionID); ok {
		response.Location = &loc
	}
	middleware.WriteJSON(w, http.StatusOK, response)
}

// GetLocation returns the session's last accepted position, live or from the durable cache.
func (h *UserHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	loc, ok := h.sessionService.Location(r.Context(), sessionID)
	if !ok {
		middleware.WriteError(w, errors.ErrNoLocation)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, loc)
}

func (h *UserHandler) GetState(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.sessionService.State(sessionID))
}

// UpdateFilters replaces the session's filter criteria.
func (h *UserHandler) UpdateFilters(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var criteria models.FilterCriteria
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
		middleware.WriteError(w, errors.ErrInvalidFilter.WithDetails(err.Error()))
		return
	}
	for _, t := range criteria.Types {
		if !t.IsGender() {
			middleware.WriteError(w, errors.ErrInvalidFilter.WithDetails("type must be male, female or unisex, got "+string(t)))
			return
		}
	}

	h.sessionService.SetFilters(sessionID, criteria)
	middleware.WriteJSON(w, http.StatusOK, h.sessionService.State(sessionID))
}

// SelectPOI records the POI the user has open. An empty poi_id clears the selection.
func (h *UserHandler) SelectPOI(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var input SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	if input.POIID != "" {
		if _, found := h.poiService.Find(input.POIID); !found {
			middleware.WriteError(w, errors.ErrNotFound.WithDetails("unknown poi "+input.POIID))
			return
		}
	}

	h.sessionService.SetSelected(sessionID, input.POIID)
	middleware.WriteJSON(w, http.StatusOK, h.sessionService.State(sessionID))
}

// UpdateMapView records the viewport the client is showing.
func (h *UserHandler) UpdateMapView(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var view models.MapView
	if err := json.NewDecoder(r.Body).Decode(&view); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	if err := h.sessionService.SetMapView(sessionID, view); err != nil {
		h.logger.DebugContext(r.Context(), "rejected map view", slog.String("session", sessionID), slog.Any("error", err))
		middleware.WriteError(w, errors.ErrInvalidMapView.WithDetails(err.Error()))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.sessionService.State(sessionID))
}

// GetPOIs ranks POIs with the session's filters around its last accepted position.
// Until a position is known the list is unranked.
func (h *UserHandler) GetPOIs(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	state := h.sessionService.State(sessionID)
	var ref *models.Position
	if loc, ok := h.sessionService.Location(r.Context(), sessionID); ok {
		ref = &loc
	}

	pois := h.ranker.Rank(h.poiService.Snapshot(), state.Filters, ref)

	response := RankedPOIResponse{
		POIs:     newPOIViews(pois, ref, h.labels),
		Count:    len(pois),
		Filters:  state.Filters,
		Selected: state.SelectedPOI,
	}
	if ref != nil {
		response.Lat, response.Lon = &ref.Latitude, &ref.Longitude
	}
	middleware.WriteJSON(w, http.StatusOK, response)
}
