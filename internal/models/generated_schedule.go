package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// GeneratedScheduleStatus represents lifecycle phases for a generation run.
type GeneratedScheduleStatus string

const (
	GeneratedScheduleStatusDraft     GeneratedScheduleStatus = "DRAFT"
	GeneratedScheduleStatusPublished GeneratedScheduleStatus = "PUBLISHED"
	GeneratedScheduleStatusArchived  GeneratedScheduleStatus = "ARCHIVED"
)

// GeneratedSchedule captures a versioned run of the scheduling core over a
// term. A run covers every group at once, so versioning is scoped to the
// term rather than to a single group.
type GeneratedSchedule struct {
	ID        string                  `db:"id" json:"id"`
	TermID    string                  `db:"term_id" json:"term_id"`
	Version   int                     `db:"version" json:"version"`
	Status    GeneratedScheduleStatus `db:"status" json:"status"`
	Meta      types.JSONText          `db:"meta" json:"meta"`
	CreatedAt time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt time.Time               `db:"updated_at" json:"updated_at"`
}

// GeneratedScheduleSlot is one placed hour inside a generation run: a group
// occupying a room for a course during a timeslot. HourKey preserves the
// opaque hour-slot identifier the scheduling core assigned internally
// (`G{group}_C{course}_B{block}_H{hour}`), useful for tracing a placement
// back to the block decomposition that produced it.
type GeneratedScheduleSlot struct {
	ID                  string    `db:"id" json:"id"`
	GeneratedScheduleID string    `db:"generated_schedule_id" json:"generated_schedule_id"`
	GroupID             string    `db:"group_id" json:"group_id"`
	CourseID            string    `db:"course_id" json:"course_id"`
	ProfessorID         string    `db:"professor_id" json:"professor_id"`
	RoomID              string    `db:"room_id" json:"room_id"`
	TimeslotID          int       `db:"timeslot_id" json:"timeslot_id"`
	HourKey             string    `db:"hour_key" json:"hour_key"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

// ScheduleDeficit records, for one (group, course) pair, how many weekly
// hours remained unplaced after the verification pass of a run.
type ScheduleDeficit struct {
	ID                  string    `db:"id" json:"id"`
	GeneratedScheduleID string    `db:"generated_schedule_id" json:"generated_schedule_id"`
	GroupID             string    `db:"group_id" json:"group_id"`
	CourseID            string    `db:"course_id" json:"course_id"`
	MissingHours        int       `db:"missing_hours" json:"missing_hours"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

// GeneratedScheduleSummary aggregates versions available for a term.
type GeneratedScheduleSummary struct {
	TermID    string                 `json:"term_id"`
	ActiveID  *string                `json:"active_id,omitempty"`
	Versions  []GeneratedScheduleMeta `json:"versions"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// GeneratedScheduleMeta represents lightweight metadata for list views.
type GeneratedScheduleMeta struct {
	ID            string                  `json:"id"`
	Version       int                     `json:"version"`
	Status        GeneratedScheduleStatus `json:"status"`
	DeficitCount  int                     `json:"deficit_count"`
	CreatedAt     time.Time               `json:"created_at"`
}
