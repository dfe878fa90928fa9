package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lcalzada-xor/wsentry/internal/adapters/web/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()
	limit := middleware.RateLimitMiddleware(s.commandLimiter)

	api := r.PathPrefix("/api").Subrouter()

	// Queries
	api.HandleFunc("/state", s.MonitorHandler.HandleState).Methods(http.MethodGet)
	api.HandleFunc("/channels", s.MonitorHandler.HandleChannels).Methods(http.MethodGet)
	api.HandleFunc("/events", s.MonitorHandler.HandleEvents).Methods(http.MethodGet)
	api.HandleFunc("/direction", s.MonitorHandler.HandleDirection).Methods(http.MethodGet)
	api.HandleFunc("/stations/{bssid}/history", s.MonitorHandler.HandleStationHistory).Methods(http.MethodGet)
	api.HandleFunc("/report.pdf", s.ReportHandler.HandlePDF).Methods(http.MethodGet)

	// Commands
	api.HandleFunc("/snapshots", s.MonitorHandler.HandleIngestSnapshot).Methods(http.MethodPost)
	api.HandleFunc("/orientation", s.MonitorHandler.HandleOrientation).Methods(http.MethodPost)
	api.HandleFunc("/tracking", s.MonitorHandler.HandleStartTracking).Methods(http.MethodPost)
	api.HandleFunc("/tracking", s.MonitorHandler.HandleStopTracking).Methods(http.MethodDelete)
	api.Handle("/clear", limit(http.HandlerFunc(s.MonitorHandler.HandleClear))).Methods(http.MethodPost)

	r.HandleFunc("/ws", s.WSManager.HandleWebSocket)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
