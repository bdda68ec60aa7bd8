package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-planner-api/internal/models"
	appErrors "github.com/noah-isme/exam-planner-api/pkg/errors"
)

// ClassroomRepository reads the persisted room inventory.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository constructs repository.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

const classroomColumns = `classroom_id, classroom_name, department_name, capacity, desks_per_row, desk_per_column, desk_structure`

// ListByDepartment returns the department's rooms ordered by capacity, the
// smallest first.
func (r *ClassroomRepository) ListByDepartment(ctx context.Context, departmentName string) ([]models.Classroom, error) {
	query := fmt.Sprintf(`SELECT %s FROM classrooms WHERE department_name = $1 ORDER BY capacity ASC, classroom_id ASC`, classroomColumns)
	var rooms []models.Classroom
	if err := r.db.SelectContext(ctx, &rooms, query, departmentName); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	return rooms, nil
}

// FindByID loads one room.
func (r *ClassroomRepository) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	query := fmt.Sprintf(`SELECT %s FROM classrooms WHERE classroom_id = $1`, classroomColumns)
	var room models.Classroom
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, fmt.Errorf("find classroom %s: %w", id, err)
	}
	return &room, nil
}

// Upsert inserts or updates a room record.
func (r *ClassroomRepository) Upsert(ctx context.Context, room *models.Classroom) error {
	const query = `
INSERT INTO classrooms (classroom_id, classroom_name, department_name, capacity, desks_per_row, desk_per_column, desk_structure)
VALUES (:classroom_id, :classroom_name, :department_name, :capacity, :desks_per_row, :desk_per_column, :desk_structure)
ON CONFLICT (classroom_id) DO UPDATE SET
	classroom_name = EXCLUDED.classroom_name,
	department_name = EXCLUDED.department_name,
	capacity = EXCLUDED.capacity,
	desks_per_row = EXCLUDED.desks_per_row,
	desk_per_column = EXCLUDED.desk_per_column,
	desk_structure = EXCLUDED.desk_structure`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("upsert classroom %s: %w", room.ID, err)
	}
	return nil
}

// Delete removes rooms by identifier.
func (r *ClassroomRepository) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM classrooms WHERE classroom_id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("build classroom delete: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete classrooms: %w", err)
	}
	return nil
}
