package models

// Timeslot is the persisted scheduler Timeslot: its ID encodes
// `day_id*1000 + hour_of_day`. Timeslots are fixed and immutable for a run;
// only rows whose StartHour falls in [17, 22) are valid for placement.
type Timeslot struct {
	ID        int    `db:"id" json:"id"`
	DayID     int    `db:"day_id" json:"day_id"`
	DayLabel  string `db:"day_label" json:"day_label"`
	StartHour int    `db:"start_hour" json:"start_hour"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// TimeslotFilter captures filtering options for listing timeslots.
type TimeslotFilter struct {
	DayID     *int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
