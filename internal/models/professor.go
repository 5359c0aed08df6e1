package models

import "time"

// Professor is the persisted scheduler Professor: identity plus
// an informational max weekly load. The unavailability set lives in
// ProfessorUnavailability rows, not inline, so it can be queried and
// updated independently of the professor record.
type Professor struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	MaxWeeklyLoad int       `db:"max_weekly_load" json:"max_weekly_load"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ProfessorFilter captures filtering options for listing professors.
type ProfessorFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ProfessorUnavailability marks one timeslot at which a professor cannot
// teach.
type ProfessorUnavailability struct {
	ID          string `db:"id" json:"id"`
	ProfessorID string `db:"professor_id" json:"professor_id"`
	TimeslotID  int    `db:"timeslot_id" json:"timeslot_id"`
}
