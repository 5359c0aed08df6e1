package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cronosschool2025-afk/algoritmo/internal/models"
	appErrors "github.com/cronosschool2025-afk/algoritmo/pkg/errors"
)

type professorRepository interface {
	List(ctx context.Context, filter models.ProfessorFilter) ([]models.Professor, int, error)
	FindByID(ctx context.Context, id string) (*models.Professor, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Create(ctx context.Context, professor *models.Professor) error
	Update(ctx context.Context, professor *models.Professor) error
	Delete(ctx context.Context, id string) error
	CountAssignments(ctx context.Context, professorID string) (int, error)
	Unavailability(ctx context.Context, professorID string) ([]int, error)
	ReplaceUnavailability(ctx context.Context, professorID string, timeslotIDs []int) error
	RoomForProfessor(ctx context.Context, professorID string) (string, error)
	SetRoomForProfessor(ctx context.Context, professorID, roomID string) error
}

// CreateProfessorRequest is the payload for creating a professor.
type CreateProfessorRequest struct {
	Name          string `json:"name" validate:"required"`
	MaxWeeklyLoad int    `json:"max_weekly_load" validate:"gte=0"`
}

// UpdateProfessorRequest is the payload for updating a professor.
type UpdateProfessorRequest struct {
	Name          string `json:"name" validate:"required"`
	MaxWeeklyLoad int    `json:"max_weekly_load" validate:"gte=0"`
}

// SetUnavailabilityRequest replaces a professor's unavailability set.
type SetUnavailabilityRequest struct {
	TimeslotIDs []int `json:"timeslot_ids"`
}

// AssignRoomRequest binds a professor to the room they teach in.
type AssignRoomRequest struct {
	RoomID string `json:"room_id" validate:"required"`
}

// ProfessorService orchestrates professor operations, including the
// unavailability set and professor-room map consumed by the scheduling
// core's Input Index.
type ProfessorService struct {
	repo      professorRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfessorService constructs a ProfessorService.
func NewProfessorService(repo professorRepository, validate *validator.Validate, logger *zap.Logger) *ProfessorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfessorService{repo: repo, validator: validate, logger: logger}
}

// List returns professors plus pagination data.
func (s *ProfessorService) List(ctx context.Context, filter models.ProfessorFilter) ([]models.Professor, *models.Pagination, error) {
	professors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list professors")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return professors, pagination, nil
}

// Get returns a professor by id.
func (s *ProfessorService) Get(ctx context.Context, id string) (*models.Professor, error) {
	professor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	return professor, nil
}

// Create registers a new professor record.
func (s *ProfessorService) Create(ctx context.Context, req CreateProfessorRequest) (*models.Professor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid professor payload")
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check professor name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "professor name already exists")
	}

	professor := &models.Professor{Name: strings.TrimSpace(req.Name), MaxWeeklyLoad: req.MaxWeeklyLoad}
	if err := s.repo.Create(ctx, professor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create professor")
	}
	return professor, nil
}

// Update modifies an existing professor.
func (s *ProfessorService) Update(ctx context.Context, id string, req UpdateProfessorRequest) (*models.Professor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid professor payload")
	}

	professor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check professor name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "professor name already exists")
	}

	professor.Name = strings.TrimSpace(req.Name)
	professor.MaxWeeklyLoad = req.MaxWeeklyLoad

	if err := s.repo.Update(ctx, professor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update professor")
	}
	return professor, nil
}

// Delete removes a professor, guarding against in-use assignments.
func (s *ProfessorService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	if count, err := s.repo.CountAssignments(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check professor assignments")
	} else if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "professor has course-group assignments")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete professor")
	}
	return nil
}

// Unavailability returns the set of timeslot ids the professor cannot teach.
func (s *ProfessorService) Unavailability(ctx context.Context, id string) ([]int, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	ids, err := s.repo.Unavailability(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor unavailability")
	}
	return ids, nil
}

// SetUnavailability overwrites a professor's unavailability set.
func (s *ProfessorService) SetUnavailability(ctx context.Context, id string, req SetUnavailabilityRequest) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.ReplaceUnavailability(ctx, id, req.TimeslotIDs); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set professor unavailability")
	}
	return nil
}

// AssignRoom binds a professor to the room they teach in — required for the
// professor to be schedulable by the generator.
func (s *ProfessorService) AssignRoom(ctx context.Context, id string, req AssignRoomRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room assignment payload")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetRoomForProfessor(ctx, id, req.RoomID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign professor room")
	}
	return nil
}
