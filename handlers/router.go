package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trono-server/middleware"
)

type RouterConfig struct {
	AllowedOrigins []string
	Sessions       middleware.SessionParser
	Logger         *slog.Logger
}

func NewRouter(cfg RouterConfig, auth *AuthHandler, pois *POIHandler, user *UserHandler) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredLogger(cfg.Logger))
	r.Use(middleware.ErrorMiddleware(cfg.Logger))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// Session routes
	r.HandleFunc("/session", auth.CreateSession).Methods(http.MethodPost, http.MethodOptions)

	// POI routes
	r.HandleFunc("/pois", pois.GetPOIs).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/pois/{id}", pois.GetPOI).Methods(http.MethodGet, http.MethodOptions)

	// User routes
	userRouter := r.PathPrefix("/user").Subrouter()
	userRouter.Use(middleware.JWTMiddleware(cfg.Sessions))
	userRouter.HandleFunc("/ping", user.PingLocation).Methods(http.MethodPost, http.MethodOptions)
	userRouter.HandleFunc("/location", user.GetLocation).Methods(http.MethodGet, http.MethodOptions)
	userRouter.HandleFunc("/state", user.GetState).Methods(http.MethodGet, http.MethodOptions)
	userRouter.HandleFunc("/filters", user.UpdateFilters).Methods(http.MethodPut, http.MethodOptions)
	userRouter.HandleFunc("/selected", user.SelectPOI).Methods(http.MethodPut, http.MethodOptions)
	userRouter.HandleFunc("/map", user.UpdateMapView).Methods(http.MethodPut, http.MethodOptions)
	userRouter.HandleFunc("/pois", user.GetPOIs).Methods(http.MethodGet, http.MethodOptions)

	return r
}
