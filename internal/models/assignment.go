package models

import "time"

// ProfessorCourseGroupAssignment binds a (professor, course, group) triple
// within a term. The mapping (group, course) ->
// professor is required functional within a term: at most one professor
// per pair.
type ProfessorCourseGroupAssignment struct {
	ID          string    `db:"id" json:"id"`
	ProfessorID string    `db:"professor_id" json:"professor_id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	GroupID     string    `db:"group_id" json:"group_id"`
	TermID      string    `db:"term_id" json:"term_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ProfessorCourseGroupAssignmentDetail enriches an assignment row with
// descriptive fields for listing UIs.
type ProfessorCourseGroupAssignmentDetail struct {
	ProfessorCourseGroupAssignment
	ProfessorName string `db:"professor_name" json:"professor_name"`
	CourseName    string `db:"course_name" json:"course_name"`
	GroupName     string `db:"group_name" json:"group_name"`
	TermName      string `db:"term_name" json:"term_name"`
}
