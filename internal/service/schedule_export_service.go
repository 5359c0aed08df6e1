package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/cronosschool2025-afk/algoritmo/internal/models"
	"github.com/cronosschool2025-afk/algoritmo/pkg/export"
	appErrors "github.com/cronosschool2025-afk/algoritmo/pkg/errors"
	"github.com/cronosschool2025-afk/algoritmo/pkg/storage"
)

type exportSlotReader interface {
	ListBySchedule(ctx context.Context, scheduleID string, groupID string) ([]models.GeneratedScheduleSlot, error)
}

type exportScheduleReader interface {
	FindByID(ctx context.Context, id string) (*models.GeneratedSchedule, error)
}

// ScheduleExportService renders a generated schedule run into printable
// CSV/PDF artifacts: a file is written once and handed out through
// time-limited signed tokens rather than served directly.
type ScheduleExportService struct {
	slots     exportSlotReader
	schedules exportScheduleReader
	fileStore *storage.LocalStorage
	signer    *storage.SignedURLSigner
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewScheduleExportService wires the export pipeline.
func NewScheduleExportService(
	slots exportSlotReader,
	schedules exportScheduleReader,
	fileStore *storage.LocalStorage,
	signer *storage.SignedURLSigner,
	logger *zap.Logger,
) *ScheduleExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleExportService{
		slots:     slots,
		schedules: schedules,
		fileStore: fileStore,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

func (s *ScheduleExportService) buildDataset(ctx context.Context, scheduleID string) (export.Dataset, error) {
	if _, err := s.schedules.FindByID(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return export.Dataset{}, appErrors.Clone(appErrors.ErrNotFound, "generated schedule not found")
		}
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generated schedule")
	}

	slots, err := s.slots.ListBySchedule(ctx, scheduleID, "")
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generated schedule slots")
	}

	dataset := export.Dataset{
		Headers: []string{"group_id", "course_id", "professor_id", "room_id", "timeslot_id", "hour_key"},
	}
	for _, slot := range slots {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"group_id":     slot.GroupID,
			"course_id":    slot.CourseID,
			"professor_id": slot.ProfessorID,
			"room_id":      slot.RoomID,
			"timeslot_id":  strconv.Itoa(slot.TimeslotID),
			"hour_key":     slot.HourKey,
		})
	}
	return dataset, nil
}

// GenerateCSV renders a run's slots as CSV and returns a signed download token.
func (s *ScheduleExportService) GenerateCSV(ctx context.Context, scheduleID string) (string, time.Time, error) {
	dataset, err := s.buildDataset(ctx, scheduleID)
	if err != nil {
		return "", time.Time{}, err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	return s.persistAndSign(scheduleID, "csv", payload)
}

// GeneratePDF renders a run's slots as a printable PDF and returns a signed download token.
func (s *ScheduleExportService) GeneratePDF(ctx context.Context, scheduleID string) (string, time.Time, error) {
	dataset, err := s.buildDataset(ctx, scheduleID)
	if err != nil {
		return "", time.Time{}, err
	}
	payload, err := s.pdf.Render(dataset, "Generated Schedule")
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}
	return s.persistAndSign(scheduleID, "pdf", payload)
}

func (s *ScheduleExportService) persistAndSign(scheduleID, ext string, payload []byte) (string, time.Time, error) {
	if s.fileStore == nil || s.signer == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInternal, "export storage not configured")
	}
	filename := fmt.Sprintf("%s.%s", scheduleID, ext)
	relPath, err := s.fileStore.Save(filename, payload)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist export")
	}
	token, expiresAt, err := s.signer.Generate(scheduleID, relPath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export token")
	}
	return token, expiresAt, nil
}

// Resolve validates a signed export token and returns the backing file path.
func (s *ScheduleExportService) Resolve(token string) (string, error) {
	if s.signer == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "export storage not configured")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired export token")
	}
	return relPath, nil
}

// Open returns a readable handle for a resolved export file path.
func (s *ScheduleExportService) Open(relPath string) (io.ReadCloser, error) {
	if s.fileStore == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export storage not configured")
	}
	file, err := s.fileStore.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}
	return file, nil
}
