package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cronosschool2025-afk/algoritmo/internal/models"
	appErrors "github.com/cronosschool2025-afk/algoritmo/pkg/errors"
)

type assignmentRepo interface {
	ListByProfessor(ctx context.Context, professorID string) ([]models.ProfessorCourseGroupAssignmentDetail, error)
	ListByTerm(ctx context.Context, termID string) ([]models.ProfessorCourseGroupAssignmentDetail, error)
	Exists(ctx context.Context, professorID, courseID, groupID, termID string) (bool, error)
	ExistsForGroupCourse(ctx context.Context, groupID, courseID, termID, excludeID string) (bool, error)
	Create(ctx context.Context, assignment *models.ProfessorCourseGroupAssignment) error
	Delete(ctx context.Context, professorID, assignmentID string) error
	CountByProfessorAndTerm(ctx context.Context, professorID, termID string) (int, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type groupReader interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

type termReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

// CreateAssignmentRequest describes the assignment creation payload.
type CreateAssignmentRequest struct {
	CourseID string `json:"course_id" validate:"required"`
	GroupID  string `json:"group_id" validate:"required"`
	TermID   string `json:"term_id" validate:"required"`
}

// AssignmentService binds professors to course-group pairs within a term:
// the (group, course) -> professor mapping must stay functional, so
// creating one where that pair is already assigned to a different
// professor in the same term is rejected.
type AssignmentService struct {
	professors  professorRepository
	courses     courseReader
	groups      groupReader
	terms       termReader
	assignments assignmentRepo
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(
	professors professorRepository,
	courses courseReader,
	groups groupReader,
	terms termReader,
	assignments assignmentRepo,
	validate *validator.Validate,
	logger *zap.Logger,
) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		professors:  professors,
		courses:     courses,
		groups:      groups,
		terms:       terms,
		assignments: assignments,
		validator:   validate,
		logger:      logger,
	}
}

// ListByProfessor returns assignments owned by a professor.
func (s *AssignmentService) ListByProfessor(ctx context.Context, professorID string) ([]models.ProfessorCourseGroupAssignmentDetail, error) {
	if _, err := s.professors.FindByID(ctx, professorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	assignments, err := s.assignments.ListByProfessor(ctx, professorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// ListByTerm returns every assignment scoped to a term.
func (s *AssignmentService) ListByTerm(ctx context.Context, termID string) ([]models.ProfessorCourseGroupAssignmentDetail, error) {
	if _, err := s.terms.FindByID(ctx, termID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	assignments, err := s.assignments.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list term assignments")
	}
	return assignments, nil
}

// Assign creates a new professor-course-group binding.
func (s *AssignmentService) Assign(ctx context.Context, professorID string, req CreateAssignmentRequest) (*models.ProfessorCourseGroupAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	if _, err := s.professors.FindByID(ctx, professorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}

	if err := s.ensureCourseGroupTerm(ctx, req.CourseID, req.GroupID, req.TermID); err != nil {
		return nil, err
	}

	exists, err := s.assignments.Exists(ctx, professorID, req.CourseID, req.GroupID, req.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "professor already assigned to this course and group")
	}

	functional, err := s.assignments.ExistsForGroupCourse(ctx, req.GroupID, req.CourseID, req.TermID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group-course assignment")
	}
	if functional {
		return nil, appErrors.Clone(appErrors.ErrConflict, "group-course pair already assigned to a different professor this term")
	}

	if err := s.ensureLoadCapacity(ctx, professorID, req.TermID); err != nil {
		return nil, err
	}

	assignment := &models.ProfessorCourseGroupAssignment{
		ProfessorID: professorID,
		CourseID:    req.CourseID,
		GroupID:     req.GroupID,
		TermID:      req.TermID,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// Remove deletes an assignment.
func (s *AssignmentService) Remove(ctx context.Context, professorID, assignmentID string) error {
	if _, err := s.professors.FindByID(ctx, professorID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	if err := s.assignments.Delete(ctx, professorID, assignmentID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

func (s *AssignmentService) ensureCourseGroupTerm(ctx context.Context, courseID, groupID, termID string) error {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if _, err := s.groups.FindByID(ctx, groupID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	if _, err := s.terms.FindByID(ctx, termID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return nil
}

func (s *AssignmentService) ensureLoadCapacity(ctx context.Context, professorID, termID string) error {
	professor, err := s.professors.FindByID(ctx, professorID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	if professor.MaxWeeklyLoad <= 0 {
		return nil
	}
	count, err := s.assignments.CountByProfessorAndTerm(ctx, professorID, termID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read assignment load")
	}
	if count >= professor.MaxWeeklyLoad {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "professor has reached weekly load limit")
	}
	return nil
}
