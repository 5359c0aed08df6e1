package models

import "time"

// Group is a persisted student group (section) — the scheduler's Group
// entity, with the bookkeeping columns the rest of the
// scheduling domain needs (list filters, audit timestamps).
type Group struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Tutor     *string   `db:"tutor" json:"tutor,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GroupFilter defines filter criteria for listing groups.
type GroupFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
