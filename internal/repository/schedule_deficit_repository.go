package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cronosschool2025-afk/algoritmo/internal/models"
)

// ScheduleDeficitRepository persists the deficit report a generation run
// surfaces when the verification pass cannot place every weekly hour.
type ScheduleDeficitRepository struct {
	db *sqlx.DB
}

// NewScheduleDeficitRepository builds the repository.
func NewScheduleDeficitRepository(db *sqlx.DB) *ScheduleDeficitRepository {
	return &ScheduleDeficitRepository{db: db}
}

func (r *ScheduleDeficitRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// InsertBatch records the deficits found for one generation run.
func (r *ScheduleDeficitRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, deficits []models.ScheduleDeficit) error {
	if len(deficits) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO schedule_deficits (id, generated_schedule_id, group_id, course_id, missing_hours, created_at)
VALUES (:id, :generated_schedule_id, :group_id, :course_id, :missing_hours, :created_at)`

	for i := range deficits {
		d := &deficits[i]
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, d); err != nil {
			return fmt.Errorf("insert schedule deficit: %w", err)
		}
	}
	return nil
}

// ListBySchedule returns every deficit recorded for a run.
func (r *ScheduleDeficitRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleDeficit, error) {
	const query = `SELECT id, generated_schedule_id, group_id, course_id, missing_hours, created_at
FROM schedule_deficits WHERE generated_schedule_id = $1 ORDER BY group_id ASC, course_id ASC`
	var deficits []models.ScheduleDeficit
	if err := r.db.SelectContext(ctx, &deficits, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule deficits: %w", err)
	}
	return deficits, nil
}

// DeleteBySchedule removes every deficit row belonging to a run (used when a
// draft run is discarded).
func (r *ScheduleDeficitRepository) DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID string) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM schedule_deficits WHERE generated_schedule_id = $1`, scheduleID); err != nil {
		return fmt.Errorf("delete schedule deficits: %w", err)
	}
	return nil
}

// CountBySchedule returns how many deficit rows a run produced.
func (r *ScheduleDeficitRepository) CountBySchedule(ctx context.Context, scheduleID string) (int, error) {
	const query = `SELECT COUNT(*) FROM schedule_deficits WHERE generated_schedule_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, scheduleID); err != nil {
		return 0, fmt.Errorf("count schedule deficits: %w", err)
	}
	return count, nil
}
