package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/lcalzada-xor/wsentry/internal/core/domain"
	"github.com/lcalzada-xor/wsentry/internal/core/ports"
)

// maxBodyBytes limits request bodies to 1MB
const maxBodyBytes = 1 << 20

// MonitorHandler exposes the monitor commands and queries over HTTP.
type MonitorHandler struct {
	Service ports.Monitor
}

// NewMonitorHandler creates a new MonitorHandler
func NewMonitorHandler(service ports.Monitor) *MonitorHandler {
	return &MonitorHandler{
		Service: service,
	}
}

// HandleState returns the full monitor state.
func (h *MonitorHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.State())
}

// HandleChannels returns channel statistics, optionally filtered by ?band=.
func (h *MonitorHandler) HandleChannels(w http.ResponseWriter, r *http.Request) {
	stats := h.Service.ChannelStats()
	if band := r.URL.Query().Get("band"); band != "" {
		filtered := make([]domain.ChannelStats, 0, len(stats))
		for _, s := range stats {
			if string(s.Band) == band {
				filtered = append(filtered, s)
			}
		}
		stats = filtered
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"channels": stats,
	})
}

// HandleEvents returns the retained events, or only the active ones with ?active=true.
func (h *MonitorHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	var events []domain.AttackEvent
	if r.URL.Query().Get("active") == "true" {
		events = h.Service.State().Events
	} else {
		events = h.Service.Events()
	}
	if events == nil {
		events = []domain.AttackEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
	})
}

// HandleDirection returns the direction-finding state of the tracked station.
func (h *MonitorHandler) HandleDirection(w http.ResponseWriter, r *http.Request) {
	state := h.Service.State()
	if state.TrackedBSSID == "" {
		http.Error(w, domain.ErrNotTracking.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bssid":   state.TrackedBSSID,
		"azimuth": state.Azimuth,
		"profile": state.Profile,
		"bearing": state.Bearing,
	})
}

// HandleStationHistory returns the retained observations of one station.
func (h *MonitorHandler) HandleStationHistory(w http.ResponseWriter, r *http.Request) {
	bssid := mux.Vars(r)["bssid"]
	if !domain.IsValidBSSID(bssid) {
		http.Error(w, domain.ErrInvalidBSSID.Error(), http.StatusBadRequest)
		return
	}
	history := h.Service.StationHistory(bssid)
	if history == nil {
		history = []domain.NetworkObservation{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bssid":        domain.NormalizeBSSID(bssid),
		"observations": history,
	})
}

// HandleStartTracking selects the station used for direction finding.
func (h *MonitorHandler) HandleStartTracking(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req struct {
		BSSID string `json:"bssid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Service.StartTracking(req.BSSID); err != nil {
		if errors.Is(err, domain.ErrInvalidBSSID) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to start tracking: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"bssid": req.BSSID, "status": "tracking"})
}

// HandleStopTracking returns direction finding to idle.
func (h *MonitorHandler) HandleStopTracking(w http.ResponseWriter, r *http.Request) {
	h.Service.StopTracking()
	w.WriteHeader(http.StatusNoContent)
}

// HandleClear discards all monitor state.
func (h *MonitorHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.Service.ClearAll()
	w.WriteHeader(http.StatusNoContent)
}

// HandleOrientation pushes a compass azimuth.
func (h *MonitorHandler) HandleOrientation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req struct {
		Azimuth *float64 `json:"azimuth"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Azimuth == nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.Service.UpdateOrientation(*req.Azimuth); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// snapshotRequest is the wire form of an externally pushed scan. Channel and
// band are always derived from the frequency.
type snapshotRequest struct {
	Timestamp    time.Time `json:"timestamp"`
	Observations []struct {
		BSSID        string `json:"bssid"`
		SSID         string `json:"ssid"`
		RSSI         int    `json:"rssi"`
		Frequency    int    `json:"freq"`
		Capabilities string `json:"capabilities"`
	} `json:"observations"`
}

// HandleIngestSnapshot runs a pushed scan through the engine and returns the
// events it produced.
func (h *MonitorHandler) HandleIngestSnapshot(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	snapshot := domain.Snapshot{
		Observations: make([]domain.NetworkObservation, 0, len(req.Observations)),
		Timestamp:    ts,
		Source:       "http",
	}
	for _, o := range req.Observations {
		if !domain.IsValidBSSID(o.BSSID) {
			http.Error(w, domain.ErrInvalidBSSID.Error()+": "+o.BSSID, http.StatusBadRequest)
			return
		}
		snapshot.Observations = append(snapshot.Observations,
			domain.NewObservation(o.BSSID, o.SSID, o.RSSI, o.Frequency, o.Capabilities, ts))
	}

	events := h.Service.IngestSnapshot(r.Context(), snapshot)
	if events == nil {
		events = []domain.AttackEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
