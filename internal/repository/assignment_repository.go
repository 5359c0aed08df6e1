package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cronosschool2025-afk/algoritmo/internal/models"
)

// AssignmentRepository persists professor-course-group assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListByProfessor returns assignments owned by a professor.
func (r *AssignmentRepository) ListByProfessor(ctx context.Context, professorID string) ([]models.ProfessorCourseGroupAssignmentDetail, error) {
	const query = `
SELECT a.id, a.professor_id, a.course_id, a.group_id, a.term_id, a.created_at,
       p.name AS professor_name, c.name AS course_name, g.name AS group_name, t.name AS term_name
FROM professor_course_group_assignments a
JOIN professors p ON p.id = a.professor_id
JOIN courses c ON c.id = a.course_id
JOIN groups g ON g.id = a.group_id
JOIN terms t ON t.id = a.term_id
WHERE a.professor_id = $1
ORDER BY t.start_date DESC, g.name ASC`
	var assignments []models.ProfessorCourseGroupAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, professorID); err != nil {
		return nil, fmt.Errorf("list professor assignments: %w", err)
	}
	return assignments, nil
}

// ListByTerm returns every assignment scoped to a term, the shape the
// scheduling core's Input Index is built from.
func (r *AssignmentRepository) ListByTerm(ctx context.Context, termID string) ([]models.ProfessorCourseGroupAssignmentDetail, error) {
	const query = `
SELECT a.id, a.professor_id, a.course_id, a.group_id, a.term_id, a.created_at,
       p.name AS professor_name, c.name AS course_name, g.name AS group_name, t.name AS term_name
FROM professor_course_group_assignments a
JOIN professors p ON p.id = a.professor_id
JOIN courses c ON c.id = a.course_id
JOIN groups g ON g.id = a.group_id
JOIN terms t ON t.id = a.term_id
WHERE a.term_id = $1
ORDER BY g.name ASC, c.name ASC`
	var assignments []models.ProfessorCourseGroupAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, termID); err != nil {
		return nil, fmt.Errorf("list term assignments: %w", err)
	}
	return assignments, nil
}

// Exists checks if the (professor, course, group, term) tuple already
// exists.
func (r *AssignmentRepository) Exists(ctx context.Context, professorID, courseID, groupID, termID string) (bool, error) {
	const query = `SELECT 1 FROM professor_course_group_assignments WHERE professor_id = $1 AND course_id = $2 AND group_id = $3 AND term_id = $4 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, professorID, courseID, groupID, termID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check professor assignment: %w", err)
	}
	return true, nil
}

// ExistsForGroupCourse checks whether (group, course) already has an
// assigned professor within a term — enforcing the functional-mapping
// invariant: at most one professor per (group, course) pair.
func (r *AssignmentRepository) ExistsForGroupCourse(ctx context.Context, groupID, courseID, termID, excludeID string) (bool, error) {
	query := `SELECT 1 FROM professor_course_group_assignments WHERE group_id = $1 AND course_id = $2 AND term_id = $3`
	args := []interface{}{groupID, courseID, termID}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check group-course assignment: %w", err)
	}
	return true, nil
}

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.ProfessorCourseGroupAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	const query = `INSERT INTO professor_course_group_assignments (id, professor_id, course_id, group_id, term_id, created_at)
		VALUES (:id, :professor_id, :course_id, :group_id, :term_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create professor assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment verifying ownership.
func (r *AssignmentRepository) Delete(ctx context.Context, professorID, assignmentID string) error {
	const query = `DELETE FROM professor_course_group_assignments WHERE id = $1 AND professor_id = $2`
	result, err := r.db.ExecContext(ctx, query, assignmentID, professorID)
	if err != nil {
		return fmt.Errorf("delete professor assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByProfessorAndTerm returns the number of assignments for a
// professor within a term.
func (r *AssignmentRepository) CountByProfessorAndTerm(ctx context.Context, professorID, termID string) (int, error) {
	const query = `SELECT COUNT(*) FROM professor_course_group_assignments WHERE professor_id = $1 AND term_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, professorID, termID); err != nil {
		return 0, fmt.Errorf("count professor assignments: %w", err)
	}
	return count, nil
}
