// Package report renders a user's health timeline as a PDF and emails it.
package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/signintech/gopdf"

	"careflow/internal/session"
)

// Store lists the health events that make up the report.
type Store interface {
	ListEvents(ctx context.Context, userID string, since time.Time) ([]session.HealthEvent, error)
}

// Sender delivers the rendered report.
type Sender interface {
	SendAttachment(to, subject, body, fileName string, fileData []byte) error
}

type Service struct {
	store  Store
	sender Sender
	logger *slog.Logger
}

func NewService(store Store, sender Sender, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, sender: sender, logger: logger}
}

// reportWindow is how far back the timeline reaches.
const reportWindow = 90 * 24 * time.Hour

var eventHeadings = map[session.EventType]string{
	session.EventSymptom:     "Symptom reported",
	session.EventOTC:         "OTC suggestion",
	session.EventDoctorVisit: "Doctor handoff",
	session.EventLab:         "Lab handoff",
	session.EventEmergency:   "Emergency escalation",
	session.EventMood:        "Mood check-in",
}

// EmailHealthReport renders the last 90 days of the user's health
// timeline as a PDF and emails it to the given address.
func (s *Service) EmailHealthReport(ctx context.Context, userID, toEmail string) error {
	events, err := s.store.ListEvents(ctx, userID, time.Now().Add(-reportWindow))
	if err != nil {
		return fmt.Errorf("load health events: %w", err)
	}

	data, err := renderPDF(userID, events)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	fileName := fmt.Sprintf("careflow_health_report_%s.pdf", time.Now().Format("2006-01-02"))
	body := "Hi,\n\nYour CareFlow health report for the last 90 days is attached.\n\n" +
		"This summary is for your records and is not a diagnosis.\n\n— CareFlow"
	if err := s.sender.SendAttachment(toEmail, "Your CareFlow health report", body, fileName, data); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	s.logger.Info("health report sent", "user_id", userID, "events", len(events))
	return nil
}

func renderPDF(userID string, events []session.HealthEvent) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	fontPaths := []string{
		"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	}
	var fontErr error
	fontLoaded := false
	for _, path := range fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("load report font (install ttf-dejavu): %w", fontErr)
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "CareFlow Health Report")
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 12); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Generated: %s", time.Now().Format("02 Jan 2006 15:04")))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("User: %s", userID))
	pdf.Br(25)

	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Timeline (last 90 days):")
	pdf.Br(15)

	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		pdf.Cell(nil, "- No health events recorded.")
		pdf.Br(15)
	}
	for _, e := range events {
		heading := eventHeadings[e.Type]
		if heading == "" {
			heading = string(e.Type)
		}
		line := fmt.Sprintf("- %s  [%s] %s", e.CreatedAt.Format("02 Jan 2006"), heading, e.Description)
		lines, _ := pdf.SplitText(line, 500)
		for _, l := range lines {
			pdf.Cell(nil, l)
			pdf.Br(12)
		}
		pdf.Br(5)
	}

	pdf.SetY(800)
	if err := pdf.SetFont("DejaVu", "", 9); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "CareFlow is not a substitute for professional medical care. In an emergency call 112.")

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
