package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/cronosschool2025-afk/algoritmo/internal/models"
)

// GeneratedScheduleRepository persists versioned runs of the scheduling core.
type GeneratedScheduleRepository struct {
	db *sqlx.DB
}

// NewGeneratedScheduleRepository constructs the repository.
func NewGeneratedScheduleRepository(db *sqlx.DB) *GeneratedScheduleRepository {
	return &GeneratedScheduleRepository{db: db}
}

func (r *GeneratedScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a schedule run, assigning the next version for the term.
func (r *GeneratedScheduleRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.GeneratedSchedule) error {
	if schedule == nil {
		return fmt.Errorf("schedule payload is nil")
	}
	if schedule.TermID == "" {
		return fmt.Errorf("term_id is required")
	}
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.Status == "" {
		schedule.Status = models.GeneratedScheduleStatusDraft
	}
	if len(schedule.Meta) == 0 {
		schedule.Meta = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM generated_schedules WHERE term_id = $1`
	if err := sqlx.GetContext(ctx, target, &schedule.Version, nextVersionQuery, schedule.TermID); err != nil {
		return fmt.Errorf("compute next generated schedule version: %w", err)
	}

	const insertQuery = `
INSERT INTO generated_schedules (id, term_id, version, status, meta, created_at, updated_at)
VALUES (:id, :term_id, :version, :status, :meta, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, schedule); err != nil {
		return fmt.Errorf("insert generated schedule: %w", err)
	}
	return nil
}

// ListByTerm returns all runs for the provided term.
func (r *GeneratedScheduleRepository) ListByTerm(ctx context.Context, termID string) ([]models.GeneratedSchedule, error) {
	const query = `SELECT id, term_id, version, status, meta, created_at, updated_at
FROM generated_schedules WHERE term_id = $1 ORDER BY version DESC`
	var schedules []models.GeneratedSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, termID); err != nil {
		return nil, fmt.Errorf("list generated schedules: %w", err)
	}
	return schedules, nil
}

// FindByID loads a run by its identifier.
func (r *GeneratedScheduleRepository) FindByID(ctx context.Context, id string) (*models.GeneratedSchedule, error) {
	const query = `SELECT id, term_id, version, status, meta, created_at, updated_at FROM generated_schedules WHERE id = $1`
	var schedule models.GeneratedSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Delete removes a stored run.
func (r *GeneratedScheduleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM generated_schedules WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete generated schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("generated schedule rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStatus updates the status (and optionally meta) of a run.
func (r *GeneratedScheduleRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.GeneratedScheduleStatus, meta types.JSONText) error {
	target := r.exec(exec)
	now := time.Now().UTC()

	var (
		query string
		args  []interface{}
	)
	if len(meta) > 0 {
		query = `UPDATE generated_schedules SET status = $1, meta = $2, updated_at = $3 WHERE id = $4`
		args = []interface{}{status, meta, now, id}
	} else {
		query = `UPDATE generated_schedules SET status = $1, updated_at = $2 WHERE id = $3`
		args = []interface{}{status, now, id}
	}
	result, err := target.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update generated schedule status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("generated schedule status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
