package reporting

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/lcalzada-xor/wsentry/internal/core/domain"
)

// maxEventRows caps the events table; the newest events are kept.
const maxEventRows = 40

// PDFExporter renders monitor state as an incident report.
type PDFExporter struct {
	Title string
}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{Title: "Wireless Incident Report"}
}

// ExportIncidentReport renders channel statistics, attack events and the
// direction-finding state into a single PDF document.
func (e *PDFExporter) ExportIncidentReport(state domain.MonitorState, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(e.Title, false)
	pdf.AddPage()

	e.addHeader(pdf, generatedAt)
	e.addSummary(pdf, state)
	e.addChannels(pdf, state.Channels)
	e.addEvents(pdf, state.Events)
	e.addDirection(pdf, state)
	e.addFooter(pdf, generatedAt)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, generatedAt time.Time) {
	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(0, 51, 102) // Dark blue
	pdf.CellFormat(0, 14, e.Title, "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format("2006-01-02 15:04:05 MST")), "", 1, "L", false, 0, "")
	pdf.Ln(6)
}

// addSummary prints the headline numbers in two columns.
func (e *PDFExporter) addSummary(pdf *gofpdf.Fpdf, state domain.MonitorState) {
	sectionTitle(pdf, "Overview")

	networks, peak := 0, 0
	for _, ch := range state.Channels {
		networks += ch.NetworkCount
		if ch.SuspiciousScore > peak {
			peak = ch.SuspiciousScore
		}
	}
	pr, pg, pb := scoreColor(peak)

	stats := []struct {
		label string
		value string
		color []int
	}{
		{"Channels Monitored", fmt.Sprintf("%d", len(state.Channels)), []int{0, 102, 204}},
		{"Networks Visible", fmt.Sprintf("%d", networks), []int{0, 102, 204}},
		{"Active Events", fmt.Sprintf("%d", len(state.Events)), []int{220, 53, 69}},
		{"Peak Score", fmt.Sprintf("%d/%d", peak, domain.MaxSuspiciousScore), []int{pr, pg, pb}},
	}

	colWidth := 85.0
	for i, stat := range stats {
		x := 20.0
		if i%2 == 1 {
			x = 105.0
		}
		pdf.SetXY(x, pdf.GetY())

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(50, 7, stat.label+":", "", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(stat.color[0], stat.color[1], stat.color[2])
		pdf.CellFormat(colWidth-50, 7, stat.value, "", 0, "R", false, 0, "")

		if i%2 == 1 {
			pdf.Ln(7)
		}
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addChannels(pdf *gofpdf.Fpdf, channels []domain.ChannelStats) {
	sectionTitle(pdf, "Channel Activity")
	if len(channels) == 0 {
		emptyNote(pdf, "No channels observed")
		return
	}

	tableHeader(pdf, []column{
		{"Channel", 20, "C"}, {"Band", 25, "C"}, {"Networks", 25, "C"},
		{"Avg RSSI", 30, "C"}, {"Score", 30, "C"}, {"Error Pkts", 40, "C"},
	})

	pdf.SetFont("Arial", "", 9)
	for _, ch := range channels {
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", ch.Channel), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 7, ch.Band.Info().Label, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%d", ch.NetworkCount), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%d dBm", ch.AverageRSSI), "1", 0, "C", false, 0, "")

		r, g, b := scoreColor(ch.SuspiciousScore)
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(30, 7, fmt.Sprintf("%d", ch.SuspiciousScore), "1", 0, "C", false, 0, "")

		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(40, 7, fmt.Sprintf("%d", ch.ErrorPackets), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addEvents(pdf *gofpdf.Fpdf, events []domain.AttackEvent) {
	sectionTitle(pdf, "Attack Events")
	if len(events) == 0 {
		emptyNote(pdf, "No active attack events")
		return
	}

	// Newest first.
	sorted := append([]domain.AttackEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	if len(sorted) > maxEventRows {
		sorted = sorted[:maxEventRows]
	}

	cols := []column{
		{"Time", 22, "C"}, {"Attack", 36, "L"}, {"Ch", 12, "C"},
		{"Target", 40, "L"}, {"Signal", 20, "C"}, {"Conf.", 16, "C"}, {"Bearing", 24, "C"},
	}
	tableHeader(pdf, cols)

	pdf.SetFont("Arial", "", 9)
	for _, ev := range sorted {
		if pdf.GetY() > 270 {
			pdf.AddPage()
			tableHeader(pdf, cols)
			pdf.SetFont("Arial", "", 9)
		}
		info := ev.Category.Info()

		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(22, 7, ev.Timestamp.Format("15:04:05"), "1", 0, "C", false, 0, "")

		r, g, b := severityColor(info.Severity)
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(36, 7, info.DisplayName, "1", 0, "L", false, 0, "")

		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(12, 7, fmt.Sprintf("%d", ev.Channel), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 7, targetLabel(ev), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d dBm", ev.SignalStrength), "1", 0, "C", false, 0, "")
		pdf.CellFormat(16, 7, fmt.Sprintf("%d%%", ev.Confidence), "1", 0, "C", false, 0, "")
		pdf.CellFormat(24, 7, bearingLabel(ev.Bearing), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addDirection(pdf *gofpdf.Fpdf, state domain.MonitorState) {
	if state.TrackedBSSID == "" {
		return
	}
	if pdf.GetY() > 220 {
		pdf.AddPage()
	}
	sectionTitle(pdf, "Direction Finding")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 6, fmt.Sprintf("Tracked station: %s", state.TrackedBSSID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Estimated bearing: %s", bearingLabel(state.Bearing)), "", 1, "L", false, 0, "")

	if state.Profile == nil || state.Profile.IsEmpty() {
		emptyNote(pdf, "Not enough readings for a signal profile")
		return
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Strongest direction: %s", bearingLabel(state.Profile.SignalDirection)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	buckets := make([]int, 0, len(state.Profile.Buckets))
	for b := range state.Profile.Buckets {
		buckets = append(buckets, b)
	}
	sort.Ints(buckets)

	tableHeader(pdf, []column{{"Azimuth", 40, "C"}, {"Mean RSSI", 40, "C"}, {"Readings", 40, "C"}})
	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(60, 60, 60)
	for _, b := range buckets {
		pdf.CellFormat(40, 6, fmt.Sprintf("%d-%d deg", b, b+state.Profile.BucketWidth), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.1f dBm", state.Profile.Buckets[b]), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", state.Profile.Samples[b]), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(6)
}

func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, generatedAt time.Time) {
	pdf.SetY(-20)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(150, 150, 150)
	pdf.CellFormat(0, 5, fmt.Sprintf("wsentry heuristic report - %s - detections are indicative, not conclusive", generatedAt.Format("2006-01-02")), "", 0, "C", false, 0, "")
}

type column struct {
	title string
	width float64
	align string
}

func sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func emptyNote(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Arial", "I", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 7, text, "", 1, "L", false, 0, "")
	pdf.Ln(5)
}

func tableHeader(pdf *gofpdf.Fpdf, cols []column) {
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	for i, c := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		pdf.CellFormat(c.width, 8, c.title, "1", ln, c.align, true, 0, "")
	}
}

func targetLabel(ev domain.AttackEvent) string {
	if ev.TargetBSSID == "" {
		return "-"
	}
	return ev.TargetBSSID
}

func bearingLabel(bearing *float64) string {
	if bearing == nil {
		return "unknown"
	}
	return fmt.Sprintf("%.0f deg", *bearing)
}

// scoreColor returns RGB color based on a 0-100 suspicious score
func scoreColor(score int) (r, g, b int) {
	switch {
	case score >= 70:
		return 220, 53, 69 // Red
	case score >= 50:
		return 255, 149, 0 // Orange
	case score >= 30:
		return 255, 204, 0 // Yellow
	default:
		return 52, 199, 89 // Green
	}
}

// severityColor returns RGB color based on severity
func severityColor(severity domain.Severity) (r, g, b int) {
	switch severity {
	case domain.SeverityCritical:
		return 220, 53, 69 // Red
	case domain.SeverityHigh:
		return 255, 149, 0 // Orange
	case domain.SeverityMedium:
		return 255, 204, 0 // Yellow
	default:
		return 52, 199, 89 // Green
	}
}
