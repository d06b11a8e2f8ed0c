package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/room-booking-api/internal/models"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
	"github.com/noah-isme/room-booking-api/pkg/export"
)

// Supported export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var bookingExportHeaders = []string{
	"Booking ID", "Room", "Requester", "Category", "Start", "End", "Status", "Purpose", "Lecturer", "Approvals",
}

type bookingLister interface {
	List(ctx context.Context, actor *models.JWTClaims) ([]models.BookingDetail, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Enabled  bool
	Location *time.Location
}

// ExportResult is a rendered report ready to be sent as an attachment.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
	Rows        int
}

// BookingExportService renders the booking list as a downloadable report.
type BookingExportService struct {
	bookings bookingLister
	csv      csvRenderer
	pdf      pdfRenderer
	cfg      ExportConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewBookingExportService constructs the service. Nil renderers fall back to
// the pkg/export implementations.
func NewBookingExportService(bookings bookingLister, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *BookingExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &BookingExportService{bookings: bookings, csv: csv, pdf: pdf, cfg: cfg, logger: logger, now: time.Now}
}

// Export renders every booking visible to an administrator in format.
func (s *BookingExportService) Export(ctx context.Context, actor *models.JWTClaims, format string) (*ExportResult, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "booking export is disabled")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.HasRole(models.RoleAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can export bookings")
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	bookings, err := s.bookings.List(ctx, actor)
	if err != nil {
		return nil, err
	}
	dataset := s.buildDataset(bookings)
	generated := s.now().In(s.cfg.Location)

	result := &ExportResult{
		Filename: fmt.Sprintf("bookings_%s.%s", generated.Format("20060102_150405"), format),
		Rows:     len(dataset.Rows),
	}
	switch format {
	case ExportFormatCSV:
		result.ContentType = "text/csv"
		result.Payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		result.ContentType = "application/pdf"
		result.Payload, err = s.pdf.Render(dataset, fmt.Sprintf("Room Bookings %s", generated.Format("2006-01-02 15:04")))
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render booking export")
	}

	s.logger.Info("booking export generated",
		zap.String("actor_id", actor.UserID),
		zap.String("format", format),
		zap.Int("rows", result.Rows),
	)
	return result, nil
}

func (s *BookingExportService) buildDataset(bookings []models.BookingDetail) export.Dataset {
	rows := make([]map[string]string, 0, len(bookings))
	for _, b := range bookings {
		room := b.RoomCode
		if b.RoomName != "" {
			room = strings.TrimSpace(b.RoomCode + " " + b.RoomName)
		}
		rows = append(rows, map[string]string{
			"Booking ID": b.ID,
			"Room":       room,
			"Requester":  b.RequesterName,
			"Category":   string(b.Category),
			"Start":      s.formatTime(b.StartAt),
			"End":        s.formatTime(b.EndAt),
			"Status":     string(b.Status),
			"Purpose":    deref(b.Purpose),
			"Lecturer":   deref(b.TeachingLecturer),
			"Approvals":  summariseApprovals(b.Approvals),
		})
	}
	return export.Dataset{Headers: bookingExportHeaders, Rows: rows}
}

func (s *BookingExportService) formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(s.cfg.Location).Format("2006-01-02 15:04")
}

// summariseApprovals renders approvals as "ROLE:STATUS" pairs in chain order.
func summariseApprovals(approvals []models.ApprovalDetail) string {
	parts := make([]string, 0, len(approvals))
	for _, a := range approvals {
		parts = append(parts, fmt.Sprintf("%s:%s", a.ApproverRole, a.Status))
	}
	return strings.Join(parts, ", ")
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
