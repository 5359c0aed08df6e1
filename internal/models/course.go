package models

import "time"

// Course is the persisted scheduler Course: a weekly hour load
// with block-duration bounds. A course is treated as a language course
// downstream iff its name contains "inglés"/"ingles" (see
// internal/scheduler.Course.IsLanguageCourse).
type Course struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	WeeklyHours      int       `db:"weekly_hours" json:"weekly_hours"`
	MinBlockDuration int       `db:"min_block_duration" json:"min_block_duration"`
	MaxBlockDuration int       `db:"max_block_duration" json:"max_block_duration"`
	RequiredRoomType string    `db:"required_room_type" json:"required_room_type"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures supported filters for listing courses.
type CourseFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
