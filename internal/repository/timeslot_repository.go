package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/cronosschool2025-afk/algoritmo/internal/models"
)

// TimeslotRepository handles persistence for fixed scheduling timeslots.
// Timeslots are seeded once per installation and rarely mutated afterward;
// the core's placement logic treats their IDs (day_id*1000 + start_hour) as
// stable keys.
type TimeslotRepository struct {
	db *sqlx.DB
}

// NewTimeslotRepository constructs a TimeslotRepository.
func NewTimeslotRepository(db *sqlx.DB) *TimeslotRepository {
	return &TimeslotRepository{db: db}
}

// List returns timeslots matching the filter, ordered by day then hour.
func (r *TimeslotRepository) List(ctx context.Context, filter models.TimeslotFilter) ([]models.Timeslot, int, error) {
	base := "FROM timeslots WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.DayID != nil {
		conditions = append(conditions, fmt.Sprintf("day_id = $%d", len(args)+1))
		args = append(args, *filter.DayID)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, day_id, day_label, start_hour, start_time, end_time %s ORDER BY day_id ASC, start_hour ASC LIMIT %d OFFSET %d", base, size, offset)
	var slots []models.Timeslot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timeslots: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timeslots: %w", err)
	}
	return slots, total, nil
}

// FindByID loads a single timeslot.
func (r *TimeslotRepository) FindByID(ctx context.Context, id int) (*models.Timeslot, error) {
	const query = `SELECT id, day_id, day_label, start_hour, start_time, end_time FROM timeslots WHERE id = $1`
	var slot models.Timeslot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListByWindow returns every timeslot whose start hour falls within
// [startHour, endHour), the valid placement window for the scheduling core.
func (r *TimeslotRepository) ListByWindow(ctx context.Context, startHour, endHour int) ([]models.Timeslot, error) {
	const query = `SELECT id, day_id, day_label, start_hour, start_time, end_time FROM timeslots WHERE start_hour >= $1 AND start_hour < $2 ORDER BY day_id ASC, start_hour ASC`
	var slots []models.Timeslot
	if err := r.db.SelectContext(ctx, &slots, query, startHour, endHour); err != nil {
		return nil, fmt.Errorf("list timeslots by window: %w", err)
	}
	return slots, nil
}

// ListAll returns every configured timeslot, used to build the Input Index.
func (r *TimeslotRepository) ListAll(ctx context.Context) ([]models.Timeslot, error) {
	const query = `SELECT id, day_id, day_label, start_hour, start_time, end_time FROM timeslots ORDER BY day_id ASC, start_hour ASC`
	var slots []models.Timeslot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list all timeslots: %w", err)
	}
	return slots, nil
}

// Seed inserts or refreshes the fixed timeslot grid, skipping rows whose ID
// already exists. Used by installation bootstrapping, not by request
// handlers.
func (r *TimeslotRepository) Seed(ctx context.Context, slots []models.Timeslot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed timeslots tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO timeslots (id, day_id, day_label, start_hour, start_time, end_time)
		VALUES (:id, :day_id, :day_label, :start_hour, :start_time, :end_time)
		ON CONFLICT (id) DO UPDATE SET day_label = EXCLUDED.day_label, start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time`
	for i := range slots {
		if _, err = tx.NamedExecContext(ctx, query, slots[i]); err != nil {
			return fmt.Errorf("seed timeslot %d: %w", slots[i].ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit seed timeslots tx: %w", err)
	}
	return nil
}
