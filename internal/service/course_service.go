package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cronosschool2025-afk/algoritmo/internal/models"
	appErrors "github.com/cronosschool2025-afk/algoritmo/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	CountAssignments(ctx context.Context, courseID string) (int, error)
	CountGeneratedScheduleSlots(ctx context.Context, courseID string) (int, error)
}

// CreateCourseRequest captures the creation payload for a course.
type CreateCourseRequest struct {
	Name             string `json:"name" validate:"required"`
	WeeklyHours      int    `json:"weekly_hours" validate:"required,gt=0"`
	MinBlockDuration int    `json:"min_block_duration" validate:"required,gt=0"`
	MaxBlockDuration int    `json:"max_block_duration" validate:"required,gtfield=MinBlockDuration"`
	RequiredRoomType string `json:"required_room_type"`
}

// UpdateCourseRequest modifies course fields.
type UpdateCourseRequest struct {
	Name             string `json:"name" validate:"required"`
	WeeklyHours      int    `json:"weekly_hours" validate:"required,gt=0"`
	MinBlockDuration int    `json:"min_block_duration" validate:"required,gt=0"`
	MaxBlockDuration int    `json:"max_block_duration" validate:"required,gtfield=MinBlockDuration"`
	RequiredRoomType string `json:"required_room_type"`
}

// CourseService coordinates course catalog operations.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// List returns courses with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
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
	return courses, pagination, nil
}

// Get returns a course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create adds a new course.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course name already exists")
	}

	course := &models.Course{
		Name:             req.Name,
		WeeklyHours:      req.WeeklyHours,
		MinBlockDuration: req.MinBlockDuration,
		MaxBlockDuration: req.MaxBlockDuration,
		RequiredRoomType: req.RequiredRoomType,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Update modifies a course record.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course name already exists")
	}

	course.Name = req.Name
	course.WeeklyHours = req.WeeklyHours
	course.MinBlockDuration = req.MinBlockDuration
	course.MaxBlockDuration = req.MaxBlockDuration
	course.RequiredRoomType = req.RequiredRoomType

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Delete removes a course, ensuring no assignments or generated schedules
// reference it first.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if count, err := s.repo.CountAssignments(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course assignments")
	} else if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "course has professor-group assignments")
	}

	if count, err := s.repo.CountGeneratedScheduleSlots(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course schedules")
	} else if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "course has generated schedules")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}
