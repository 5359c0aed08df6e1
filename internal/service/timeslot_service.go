package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/cronosschool2025-afk/algoritmo/internal/models"
	appErrors "github.com/cronosschool2025-afk/algoritmo/pkg/errors"
)

type timeslotRepository interface {
	List(ctx context.Context, filter models.TimeslotFilter) ([]models.Timeslot, int, error)
	FindByID(ctx context.Context, id int) (*models.Timeslot, error)
	ListByWindow(ctx context.Context, startHour, endHour int) ([]models.Timeslot, error)
	ListAll(ctx context.Context) ([]models.Timeslot, error)
}

// TimeslotService exposes read access to the fixed timeslot grid. Timeslots
// are seeded once by installation tooling; there is deliberately no
// Create/Update/Delete surface here.
type TimeslotService struct {
	repo   timeslotRepository
	logger *zap.Logger
}

// NewTimeslotService constructs TimeslotService.
func NewTimeslotService(repo timeslotRepository, logger *zap.Logger) *TimeslotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeslotService{repo: repo, logger: logger}
}

// List returns timeslots with pagination metadata.
func (s *TimeslotService) List(ctx context.Context, filter models.TimeslotFilter) ([]models.Timeslot, *models.Pagination, error) {
	slots, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timeslots")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return slots, pagination, nil
}

// Get returns a timeslot by id.
func (s *TimeslotService) Get(ctx context.Context, id int) (*models.Timeslot, error) {
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timeslot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timeslot")
	}
	return slot, nil
}

// WindowForPlacement returns every timeslot valid for the scheduling core's
// placement window, used when constructing its Input Index.
func (s *TimeslotService) WindowForPlacement(ctx context.Context, startHour, endHour int) ([]models.Timeslot, error) {
	slots, err := s.repo.ListByWindow(ctx, startHour, endHour)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement window")
	}
	return slots, nil
}

// ListAll returns every configured timeslot, used to build the Input Index.
func (s *TimeslotService) ListAll(ctx context.Context) ([]models.Timeslot, error) {
	slots, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timeslots")
	}
	return slots, nil
}
