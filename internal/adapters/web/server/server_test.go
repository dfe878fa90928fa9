package server_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/lcalzada-xor/wsentry/internal/adapters/web/server"
	"github.com/lcalzada-xor/wsentry/internal/adapters/web/websocket"
	"github.com/lcalzada-xor/wsentry/internal/core/domain"
	"github.com/lcalzada-xor/wsentry/internal/core/services/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) ExportIncidentReport(state domain.MonitorState, generatedAt time.Time) ([]byte, error) {
	args := m.Called(state, generatedAt)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

// setupServer builds a server around a real monitor and a mock renderer.
func setupServer(t *testing.T) (*server.Server, http.Handler, *monitor.Service, *MockRenderer) {
	t.Helper()
	svc := monitor.NewService(monitor.Config{})
	renderer := new(MockRenderer)
	srv := server.NewServer(":0", svc, renderer, []string{"http://localhost:8080"})
	return srv, server.SetupRoutes(srv), svc, renderer
}

func do(handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "10.0.0.1:4000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func evilTwinBody() map[string]interface{} {
	var obs []map[string]interface{}
	for i := 1; i <= 3; i++ {
		obs = append(obs, map[string]interface{}{
			"bssid": fmt.Sprintf("02:00:00:00:00:%02x", i), "ssid": "FreeWiFi", "rssi": -40 - i, "freq": 2437,
		})
	}
	for i := 0; i < 4; i++ {
		obs = append(obs, map[string]interface{}{
			"bssid": fmt.Sprintf("02:00:00:00:01:%02x", i), "ssid": "", "rssi": -70, "freq": 2437,
		})
	}
	return map[string]interface{}{"observations": obs}
}

func TestServer_IngestSnapshotAndQuery(t *testing.T) {
	_, handler, _, _ := setupServer(t)

	rec := do(handler, http.MethodPost, "/api/snapshots", evilTwinBody())
	require.Equal(t, http.StatusOK, rec.Code)

	var ingest struct {
		Events []domain.AttackEvent `json:"events"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ingest))
	require.Len(t, ingest.Events, 1)
	assert.Equal(t, domain.AttackEvilTwin, ingest.Events[0].Category)

	rec = do(handler, http.MethodGet, "/api/channels", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var channels struct {
		Channels []domain.ChannelStats `json:"channels"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&channels))
	require.Len(t, channels.Channels, 1)
	assert.Equal(t, 6, channels.Channels[0].Channel)
	assert.Equal(t, domain.Band24GHz, channels.Channels[0].Band)
	assert.Equal(t, 7, channels.Channels[0].NetworkCount)

	rec = do(handler, http.MethodGet, "/api/channels?band=5ghz", nil)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&channels))
	assert.Empty(t, channels.Channels)

	rec = do(handler, http.MethodGet, "/api/events?active=true", nil)
	var events struct {
		Events []domain.AttackEvent `json:"events"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&events))
	assert.Len(t, events.Events, 1)

	rec = do(handler, http.MethodGet, "/api/stations/02:00:00:00:00:01/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "FreeWiFi")

	rec = do(handler, http.MethodGet, "/api/stations/02-00-00-00-00-01/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		BSSID        string                      `json:"bssid"`
		Observations []domain.NetworkObservation `json:"observations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&history))
	assert.Equal(t, "02:00:00:00:00:01", history.BSSID)
	assert.Len(t, history.Observations, 1)
}

func TestServer_IngestSnapshotValidation(t *testing.T) {
	_, handler, _, _ := setupServer(t)

	rec := do(handler, http.MethodPost, "/api/snapshots", map[string]interface{}{
		"observations": []map[string]interface{}{{"bssid": "nope", "freq": 2412}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/snapshots", strings.NewReader("{"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(handler, http.MethodGet, "/api/snapshots", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Tracking(t *testing.T) {
	_, handler, svc, _ := setupServer(t)

	tests := []struct {
		name           string
		payload        interface{}
		expectedStatus int
	}{
		{"valid bssid", map[string]string{"bssid": "AA:BB:CC:DD:EE:01"}, http.StatusAccepted},
		{"invalid bssid", map[string]string{"bssid": "zz"}, http.StatusBadRequest},
		{"missing body", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(handler, http.MethodPost, "/api/tracking", tt.payload)
			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}

	require.NoError(t, svc.UpdateOrientation(45))
	rec := do(handler, http.MethodGet, "/api/direction", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"bssid":"aa:bb:cc:dd:ee:01"`)

	rec = do(handler, http.MethodDelete, "/api/tracking", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(handler, http.MethodGet, "/api/direction", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Orientation(t *testing.T) {
	_, handler, svc, _ := setupServer(t)

	rec := do(handler, http.MethodPost, "/api/orientation", map[string]float64{"azimuth": 400})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 40.0, svc.Azimuth())

	rec = do(handler, http.MethodPost, "/api/orientation", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ClearIsRateLimited(t *testing.T) {
	_, handler, svc, _ := setupServer(t)
	do(handler, http.MethodPost, "/api/snapshots", evilTwinBody())

	rec := do(handler, http.MethodPost, "/api/clear", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, svc.ChannelStats())
	assert.Empty(t, svc.Events())

	for i := 0; i < 9; i++ {
		do(handler, http.MethodPost, "/api/clear", nil)
	}
	rec = do(handler, http.MethodPost, "/api/clear", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestServer_ReportPDF(t *testing.T) {
	_, handler, _, renderer := setupServer(t)

	renderer.On("ExportIncidentReport", mock.Anything, mock.Anything).Return([]byte("%PDF-1.3 test"), nil).Once()
	rec := do(handler, http.MethodGet, "/api/report.pdf", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=wsentry-report-")
	assert.Equal(t, "%PDF-1.3 test", rec.Body.String())

	renderer.On("ExportIncidentReport", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()
	rec = do(handler, http.MethodGet, "/api/report.pdf", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	renderer.AssertExpectations(t)
}

func TestServer_Metrics(t *testing.T) {
	_, handler, _, _ := setupServer(t)
	rec := do(handler, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func readMessage(t *testing.T, conn *gorillaws.Conn, wantType string) websocket.WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg websocket.WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == wantType {
			return msg
		}
	}
}

func TestServer_WebSocketBroadcast(t *testing.T) {
	srv, handler, _, _ := setupServer(t)
	ts := httptest.NewServer(handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Greeting with the current state.
	readMessage(t, conn, websocket.TypeSnapshot)
	require.Eventually(t, func() bool { return srv.WSManager.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	body, _ := json.Marshal(evilTwinBody())
	resp, err := http.Post(ts.URL+"/api/snapshots", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()

	msg := readMessage(t, conn, websocket.TypeAttack)
	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(domain.AttackEvilTwin), payload["category"])

	resp, err = http.Post(ts.URL+"/api/clear", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	readMessage(t, conn, websocket.TypeCleared)
}

func TestServer_WebSocketRejectsForeignOrigin(t *testing.T) {
	_, handler, _, _ := setupServer(t)
	ts := httptest.NewServer(handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := gorillaws.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
