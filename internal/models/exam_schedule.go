package models

import "time"

// ExamSchedule is the persisted header of one saved timetable.
type ExamSchedule struct {
	ID             string    `db:"id" json:"id"`
	DepartmentName string    `db:"department_name" json:"department_name"`
	ExamType       string    `db:"exam_type" json:"exam_type"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	EndDate        time.Time `db:"end_date" json:"end_date"`
	Status         string    `db:"status" json:"status"`
	CreatedBy      string    `db:"created_by" json:"created_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ExamBlock is one course exam inside a saved schedule.
type ExamBlock struct {
	ID           string  `db:"id" json:"id"`
	ScheduleID   string  `db:"schedule_id" json:"schedule_id"`
	CourseID     string  `db:"course_id" json:"course_id"`
	CourseName   string  `db:"course_name" json:"course_name"`
	ClassYear    string  `db:"class_year" json:"class_year"`
	ExamDate     string  `db:"exam_date" json:"exam_date"`
	StartTime    string  `db:"exam_start_time" json:"exam_start_time"`
	EndTime      string  `db:"exam_end_time" json:"exam_end_time"`
	Duration     int     `db:"duration" json:"duration"`
	Instructor   *string `db:"instructor" json:"instructor,omitempty"`
	StudentCount int     `db:"student_count" json:"student_count"`
}

// ExamBlockRoom links a saved exam block to one of its rooms.
type ExamBlockRoom struct {
	BlockID     string `db:"exam_id" json:"exam_id"`
	ClassroomID string `db:"classroom_id" json:"classroom_id"`
}

// ExamBlockStudent links a saved exam block to an enrolled student.
type ExamBlockStudent struct {
	BlockID       string `db:"exam_id" json:"exam_id"`
	StudentNumber string `db:"student_num" json:"student_num"`
}

// ExamSeat is one occupied position of a saved seating plan. Coordinates are
// 1-based; unoccupied and corridor cells are not persisted, they are
// reconstructed from the room layout on read.
type ExamSeat struct {
	BlockID       string `db:"exam_id" json:"exam_id"`
	ClassroomID   string `db:"classroom_id" json:"classroom_id"`
	StudentNumber string `db:"student_num" json:"student_num"`
	RowNumber     int    `db:"row_number" json:"row_number"`
	ColumnNumber  int    `db:"column_number" json:"column_number"`
}
