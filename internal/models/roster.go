package models

// Course is a persisted course record with its teaching metadata.
type Course struct {
	ID             string  `db:"course_id" json:"course_id"`
	Name           string  `db:"course_name" json:"course_name"`
	ClassYear      string  `db:"class_year" json:"class_year"`
	DepartmentName string  `db:"department_name" json:"department_name"`
	Instructor     *string `db:"instructor" json:"instructor,omitempty"`
}

// Student is a persisted student record.
type Student struct {
	Number   string `db:"student_num" json:"student_num"`
	FullName string `db:"full_name" json:"full_name"`
}

// Enrollment links a student to a course.
type Enrollment struct {
	CourseID      string `db:"course_id" json:"course_id"`
	StudentNumber string `db:"student_num" json:"student_num"`
}
