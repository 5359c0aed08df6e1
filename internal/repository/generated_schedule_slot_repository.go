package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cronosschool2025-afk/algoritmo/internal/models"
)

// GeneratedScheduleSlotRepository manages placed-hour rows for a generated schedule run.
type GeneratedScheduleSlotRepository struct {
	db *sqlx.DB
}

// NewGeneratedScheduleSlotRepository builds the repository.
func NewGeneratedScheduleSlotRepository(db *sqlx.DB) *GeneratedScheduleSlotRepository {
	return &GeneratedScheduleSlotRepository{db: db}
}

func (r *GeneratedScheduleSlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// InsertBatch inserts the placed-hour rows produced by one generation run.
func (r *GeneratedScheduleSlotRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.GeneratedScheduleSlot) error {
	if len(slots) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO generated_schedule_slots (id, generated_schedule_id, group_id, course_id, professor_id, room_id, timeslot_id, hour_key, created_at)
VALUES (:id, :generated_schedule_id, :group_id, :course_id, :professor_id, :room_id, :timeslot_id, :hour_key, :created_at)`

	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, slot); err != nil {
			return fmt.Errorf("insert generated schedule slot: %w", err)
		}
	}
	return nil
}

// ListBySchedule returns slots ordered by timeslot for a run, optionally
// filtered to a single group.
func (r *GeneratedScheduleSlotRepository) ListBySchedule(ctx context.Context, scheduleID string, groupID string) ([]models.GeneratedScheduleSlot, error) {
	query := `SELECT id, generated_schedule_id, group_id, course_id, professor_id, room_id, timeslot_id, hour_key, created_at
FROM generated_schedule_slots WHERE generated_schedule_id = $1`
	args := []interface{}{scheduleID}
	if groupID != "" {
		query += " AND group_id = $2"
		args = append(args, groupID)
	}
	query += " ORDER BY timeslot_id ASC"

	var slots []models.GeneratedScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("list generated schedule slots: %w", err)
	}
	return slots, nil
}

// DeleteBySchedule removes all slots belonging to a run (used when a draft
// run is discarded).
func (r *GeneratedScheduleSlotRepository) DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID string) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM generated_schedule_slots WHERE generated_schedule_id = $1`, scheduleID); err != nil {
		return fmt.Errorf("delete generated schedule slots: %w", err)
	}
	return nil
}
