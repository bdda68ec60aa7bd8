package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-planner-api/internal/models"
	appErrors "github.com/noah-isme/exam-planner-api/pkg/errors"
)

// ExamScheduleRepository persists generated timetables with their blocks,
// room links, student links, and seating plans.
type ExamScheduleRepository struct {
	db *sqlx.DB
}

// NewExamScheduleRepository constructs repository.
func NewExamScheduleRepository(db *sqlx.DB) *ExamScheduleRepository {
	return &ExamScheduleRepository{db: db}
}

// SavedBlock bundles one exam block with its relations for persistence.
type SavedBlock struct {
	Block    models.ExamBlock
	Rooms    []models.ExamBlockRoom
	Students []models.ExamBlockStudent
	Seats    []models.ExamSeat
}

// Save writes the schedule header and every block inside one transaction, so
// a half-written timetable can never be observed.
func (r *ExamScheduleRepository) Save(ctx context.Context, schedule *models.ExamSchedule, blocks []SavedBlock) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save schedule: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const headerQuery = `
INSERT INTO exam_schedules (id, department_name, exam_type, start_date, end_date, status, created_by, created_at)
VALUES (:id, :department_name, :exam_type, :start_date, :end_date, :status, :created_by, :created_at)`
	if _, err := tx.NamedExecContext(ctx, headerQuery, schedule); err != nil {
		return fmt.Errorf("insert exam schedule: %w", err)
	}

	const blockQuery = `
INSERT INTO exam_blocks (id, schedule_id, course_id, course_name, class_year, exam_date, exam_start_time, exam_end_time, duration, instructor, student_count)
VALUES (:id, :schedule_id, :course_id, :course_name, :class_year, :exam_date, :exam_start_time, :exam_end_time, :duration, :instructor, :student_count)`
	const roomQuery = `INSERT INTO exam_block_rooms (exam_id, classroom_id) VALUES (:exam_id, :classroom_id)`
	const studentQuery = `INSERT INTO exam_block_students (exam_id, student_num) VALUES (:exam_id, :student_num)`
	const seatQuery = `
INSERT INTO exam_seating_plan (exam_id, classroom_id, student_num, row_number, column_number)
VALUES (:exam_id, :classroom_id, :student_num, :row_number, :column_number)`

	for i := range blocks {
		block := &blocks[i].Block
		if block.ID == "" {
			block.ID = uuid.NewString()
		}
		block.ScheduleID = schedule.ID
		if _, err := tx.NamedExecContext(ctx, blockQuery, block); err != nil {
			return fmt.Errorf("insert exam block %s: %w", block.CourseID, err)
		}
		for j := range blocks[i].Rooms {
			blocks[i].Rooms[j].BlockID = block.ID
		}
		for j := range blocks[i].Students {
			blocks[i].Students[j].BlockID = block.ID
		}
		for j := range blocks[i].Seats {
			blocks[i].Seats[j].BlockID = block.ID
		}
		if len(blocks[i].Rooms) > 0 {
			if _, err := tx.NamedExecContext(ctx, roomQuery, blocks[i].Rooms); err != nil {
				return fmt.Errorf("insert exam block rooms: %w", err)
			}
		}
		if len(blocks[i].Students) > 0 {
			if _, err := tx.NamedExecContext(ctx, studentQuery, blocks[i].Students); err != nil {
				return fmt.Errorf("insert exam block students: %w", err)
			}
		}
		if len(blocks[i].Seats) > 0 {
			if _, err := tx.NamedExecContext(ctx, seatQuery, blocks[i].Seats); err != nil {
				return fmt.Errorf("insert exam seating: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save schedule: %w", err)
	}
	return nil
}

// ListFilter narrows List results.
type ListFilter struct {
	DepartmentName string
	ExamType       string
	Page           int
	PageSize       int
}

// List returns schedule headers newest first with a total count.
func (r *ExamScheduleRepository) List(ctx context.Context, filter ListFilter) ([]models.ExamSchedule, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	where := ` WHERE 1=1`
	args := []interface{}{}
	if filter.DepartmentName != "" {
		args = append(args, filter.DepartmentName)
		where += fmt.Sprintf(" AND department_name = $%d", len(args))
	}
	if filter.ExamType != "" {
		args = append(args, filter.ExamType)
		where += fmt.Sprintf(" AND exam_type = $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM exam_schedules`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count exam schedules: %w", err)
	}

	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
	query := fmt.Sprintf(`SELECT id, department_name, exam_type, start_date, end_date, status, created_by, created_at
FROM exam_schedules%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	var schedules []models.ExamSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list exam schedules: %w", err)
	}
	return schedules, total, nil
}

// FindByID loads a schedule header.
func (r *ExamScheduleRepository) FindByID(ctx context.Context, id string) (*models.ExamSchedule, error) {
	const query = `SELECT id, department_name, exam_type, start_date, end_date, status, created_by, created_at
FROM exam_schedules WHERE id = $1`
	var schedule models.ExamSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam schedule not found")
		}
		return nil, fmt.Errorf("find exam schedule %s: %w", id, err)
	}
	return &schedule, nil
}

// Blocks loads every block of a schedule ordered by date and start time.
func (r *ExamScheduleRepository) Blocks(ctx context.Context, scheduleID string) ([]models.ExamBlock, error) {
	const query = `SELECT id, schedule_id, course_id, course_name, class_year, exam_date, exam_start_time, exam_end_time, duration, instructor, student_count
FROM exam_blocks WHERE schedule_id = $1 ORDER BY exam_date ASC, exam_start_time ASC, course_id ASC`
	var blocks []models.ExamBlock
	if err := r.db.SelectContext(ctx, &blocks, query, scheduleID); err != nil {
		return nil, fmt.Errorf("load exam blocks: %w", err)
	}
	return blocks, nil
}

// BlockRooms loads the room links of one block.
func (r *ExamScheduleRepository) BlockRooms(ctx context.Context, blockID string) ([]models.ExamBlockRoom, error) {
	const query = `SELECT exam_id, classroom_id FROM exam_block_rooms WHERE exam_id = $1 ORDER BY classroom_id ASC`
	var rooms []models.ExamBlockRoom
	if err := r.db.SelectContext(ctx, &rooms, query, blockID); err != nil {
		return nil, fmt.Errorf("load exam block rooms: %w", err)
	}
	return rooms, nil
}

// BlockSeats loads the persisted seating of one block.
func (r *ExamScheduleRepository) BlockSeats(ctx context.Context, blockID string) ([]models.ExamSeat, error) {
	const query = `SELECT exam_id, classroom_id, student_num, row_number, column_number
FROM exam_seating_plan WHERE exam_id = $1 ORDER BY classroom_id ASC, column_number ASC, row_number ASC`
	var seats []models.ExamSeat
	if err := r.db.SelectContext(ctx, &seats, query, blockID); err != nil {
		return nil, fmt.Errorf("load exam seating: %w", err)
	}
	return seats, nil
}

// Delete removes a schedule and its dependents rely on ON DELETE CASCADE.
func (r *ExamScheduleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM exam_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete exam schedule %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "exam schedule not found")
	}
	return nil
}
