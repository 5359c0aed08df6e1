package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cronosschool2025-afk/algoritmo/internal/models"
)

// ProfessorRepository manages persistence for professors.
type ProfessorRepository struct {
	db *sqlx.DB
}

// NewProfessorRepository constructs a ProfessorRepository.
func NewProfessorRepository(db *sqlx.DB) *ProfessorRepository {
	return &ProfessorRepository{db: db}
}

// List returns professors matching filters along with total count.
func (r *ProfessorRepository) List(ctx context.Context, filter models.ProfessorFilter) ([]models.Professor, int, error) {
	base := "FROM professors WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d)", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	allowedSorts := map[string]bool{"name": true, "max_weekly_load": true, "created_at": true, "updated_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, name, max_weekly_load, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)
	var professors []models.Professor
	if err := r.db.SelectContext(ctx, &professors, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list professors: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count professors: %w", err)
	}
	return professors, total, nil
}

// FindByID fetches a professor by ID.
func (r *ProfessorRepository) FindByID(ctx context.Context, id string) (*models.Professor, error) {
	const query = `SELECT id, name, max_weekly_load, created_at, updated_at FROM professors WHERE id = $1`
	var professor models.Professor
	if err := r.db.GetContext(ctx, &professor, query, id); err != nil {
		return nil, err
	}
	return &professor, nil
}

// ExistsByName checks if another professor uses the same name.
func (r *ProfessorRepository) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM professors WHERE LOWER(name) = LOWER($1)"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check professor name: %w", err)
	}
	return true, nil
}

// Create inserts a new professor record.
func (r *ProfessorRepository) Create(ctx context.Context, professor *models.Professor) error {
	if professor.ID == "" {
		professor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if professor.CreatedAt.IsZero() {
		professor.CreatedAt = now
	}
	professor.UpdatedAt = now

	const query = `INSERT INTO professors (id, name, max_weekly_load, created_at, updated_at) VALUES (:id, :name, :max_weekly_load, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, professor); err != nil {
		return fmt.Errorf("create professor: %w", err)
	}
	return nil
}

// Update modifies an existing professor record.
func (r *ProfessorRepository) Update(ctx context.Context, professor *models.Professor) error {
	professor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE professors SET name = :name, max_weekly_load = :max_weekly_load, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, professor); err != nil {
		return fmt.Errorf("update professor: %w", err)
	}
	return nil
}

// Delete removes a professor record.
func (r *ProfessorRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM professors WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete professor: %w", err)
	}
	return nil
}

// CountAssignments returns how many professor-course-group assignments
// reference the professor, used to guard deletion of an in-use professor.
func (r *ProfessorRepository) CountAssignments(ctx context.Context, professorID string) (int, error) {
	const query = `SELECT COUNT(*) FROM professor_course_group_assignments WHERE professor_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, professorID); err != nil {
		return 0, fmt.Errorf("count professor assignments: %w", err)
	}
	return count, nil
}

// Unavailability returns the set of timeslot ids at which the professor
// cannot teach.
func (r *ProfessorRepository) Unavailability(ctx context.Context, professorID string) ([]int, error) {
	const query = `SELECT timeslot_id FROM professor_unavailability WHERE professor_id = $1`
	var ids []int
	if err := r.db.SelectContext(ctx, &ids, query, professorID); err != nil {
		return nil, fmt.Errorf("list professor unavailability: %w", err)
	}
	return ids, nil
}

// ReplaceUnavailability overwrites a professor's unavailability set.
func (r *ProfessorRepository) ReplaceUnavailability(ctx context.Context, professorID string, timeslotIDs []int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unavailability tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM professor_unavailability WHERE professor_id = $1`, professorID); err != nil {
		return fmt.Errorf("clear professor unavailability: %w", err)
	}
	for _, slotID := range timeslotIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO professor_unavailability (id, professor_id, timeslot_id) VALUES ($1, $2, $3)`, uuid.NewString(), professorID, slotID); err != nil {
			return fmt.Errorf("insert professor unavailability: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unavailability tx: %w", err)
	}
	return nil
}

// RoomForProfessor returns the room id mapped to the professor, if any.
func (r *ProfessorRepository) RoomForProfessor(ctx context.Context, professorID string) (string, error) {
	const query = `SELECT room_id FROM professor_room_assignments WHERE professor_id = $1`
	var roomID string
	if err := r.db.GetContext(ctx, &roomID, query, professorID); err != nil {
		return "", err
	}
	return roomID, nil
}

// SetRoomForProfessor assigns (or replaces) the room mapped to a professor.
func (r *ProfessorRepository) SetRoomForProfessor(ctx context.Context, professorID, roomID string) error {
	const query = `INSERT INTO professor_room_assignments (professor_id, room_id) VALUES ($1, $2)
		ON CONFLICT (professor_id) DO UPDATE SET room_id = EXCLUDED.room_id`
	if _, err := r.db.ExecContext(ctx, query, professorID, roomID); err != nil {
		return fmt.Errorf("set professor room: %w", err)
	}
	return nil
}
