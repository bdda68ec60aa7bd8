package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-planner-api/internal/models"
	"github.com/noah-isme/exam-planner-api/internal/timetable"
)

// RosterRepository reads courses, students, and enrollments.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// ListCourses returns the department's courses.
func (r *RosterRepository) ListCourses(ctx context.Context, departmentName string) ([]models.Course, error) {
	const query = `SELECT course_id, course_name, class_year, department_name, instructor
FROM courses WHERE department_name = $1 ORDER BY course_id ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, departmentName); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

type enrollmentRow struct {
	CourseID      string `db:"course_id"`
	StudentNumber string `db:"student_num"`
	FullName      string `db:"full_name"`
}

// LoadRoster assembles the scheduler's roster for a department: every course
// with its enrolled students joined in.
func (r *RosterRepository) LoadRoster(ctx context.Context, departmentName string) ([]timetable.RosterCourse, error) {
	courses, err := r.ListCourses(ctx, departmentName)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return nil, nil
	}

	const query = `
SELECT e.course_id, e.student_num, COALESCE(s.full_name, '') AS full_name
FROM enrollments e
JOIN courses c ON c.course_id = e.course_id
LEFT JOIN students s ON s.student_num = e.student_num
WHERE c.department_name = $1
ORDER BY e.course_id ASC, e.student_num ASC`
	var rows []enrollmentRow
	if err := r.db.SelectContext(ctx, &rows, query, departmentName); err != nil {
		return nil, fmt.Errorf("load enrollments: %w", err)
	}

	byCourse := make(map[string][]timetable.RosterStudent, len(courses))
	for _, row := range rows {
		byCourse[row.CourseID] = append(byCourse[row.CourseID], timetable.RosterStudent{
			ID:   row.StudentNumber,
			Name: row.FullName,
		})
	}

	roster := make([]timetable.RosterCourse, 0, len(courses))
	for _, course := range courses {
		roster = append(roster, timetable.RosterCourse{
			ID:       course.ID,
			Name:     course.Name,
			ClassTag: course.ClassYear,
			Students: byCourse[course.ID],
		})
	}
	return roster, nil
}

// InsertStudents bulk-inserts student records, ignoring duplicates.
func (r *RosterRepository) InsertStudents(ctx context.Context, students []models.Student) error {
	if len(students) == 0 {
		return nil
	}
	const query = `
INSERT INTO students (student_num, full_name)
VALUES (:student_num, :full_name)
ON CONFLICT (student_num) DO UPDATE SET full_name = EXCLUDED.full_name`
	if _, err := r.db.NamedExecContext(ctx, query, students); err != nil {
		return fmt.Errorf("insert students: %w", err)
	}
	return nil
}

// InsertEnrollments bulk-inserts course memberships, ignoring duplicates.
func (r *RosterRepository) InsertEnrollments(ctx context.Context, enrollments []models.Enrollment) error {
	if len(enrollments) == 0 {
		return nil
	}
	const query = `
INSERT INTO enrollments (course_id, student_num)
VALUES (:course_id, :student_num)
ON CONFLICT DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, enrollments); err != nil {
		return fmt.Errorf("insert enrollments: %w", err)
	}
	return nil
}

// InstructorByCourse returns the instructor map used when persisting blocks.
func (r *RosterRepository) InstructorByCourse(ctx context.Context, departmentName string) (map[string]*string, error) {
	courses, err := r.ListCourses(ctx, departmentName)
	if err != nil {
		return nil, err
	}
	instructors := make(map[string]*string, len(courses))
	for _, course := range courses {
		instructors[course.ID] = course.Instructor
	}
	return instructors, nil
}
