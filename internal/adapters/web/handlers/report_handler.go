package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lcalzada-xor/wsentry/internal/core/domain"
	"github.com/lcalzada-xor/wsentry/internal/core/ports"
)

// ReportRenderer turns a monitor state into a document.
type ReportRenderer interface {
	ExportIncidentReport(state domain.MonitorState, generatedAt time.Time) ([]byte, error)
}

// ReportHandler serves downloadable incident reports.
type ReportHandler struct {
	Service  ports.Monitor
	Renderer ReportRenderer
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service ports.Monitor, renderer ReportRenderer) *ReportHandler {
	return &ReportHandler{
		Service:  service,
		Renderer: renderer,
	}
}

// HandlePDF renders the current state as a PDF attachment.
func (h *ReportHandler) HandlePDF(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	data, err := h.Renderer.ExportIncidentReport(h.Service.State(), now)
	if err != nil {
		slog.Error("Report generation failed", "error", err)
		http.Error(w, "Failed to generate report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=wsentry-report-%s.pdf", now.Format("20060102-150405")))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
