package dto

import "github.com/noah-isme/exam-planner-api/internal/timetable"

// RosterStudentRequest is one enrolled student supplied inline.
type RosterStudentRequest struct {
	StudentNumber string `json:"studentNum" validate:"required"`
	FullName      string `json:"fullName"`
}

// RosterCourseRequest is one course with its enrollment supplied inline.
type RosterCourseRequest struct {
	CourseID  string                 `json:"courseId" validate:"required"`
	Name      string                 `json:"name" validate:"required"`
	ClassYear string                 `json:"classYear"`
	Students  []RosterStudentRequest `json:"students" validate:"dive"`
}

// RoomRequest is one room supplied inline, overriding the stored inventory.
type RoomRequest struct {
	RoomID         string `json:"roomId" validate:"required"`
	Name           string `json:"name"`
	Capacity       int    `json:"capacity" validate:"omitempty,min=1"`
	DesksPerRow    int    `json:"desksPerRow" validate:"omitempty,min=1"`
	DesksPerColumn int    `json:"desksPerColumn" validate:"omitempty,min=1"`
	DeskStructure  int    `json:"deskStructure" validate:"omitempty,min=1,max=4"`
}

// GenerateTimetableRequest instructs the planner to build an exam timetable
// proposal. Roster and rooms may be supplied inline; when omitted they are
// loaded for the department from storage.
type GenerateTimetableRequest struct {
	DepartmentName   string                `json:"departmentName" validate:"required"`
	ExamType         string                `json:"examType" validate:"required"`
	StartDate        string                `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate          string                `json:"endDate" validate:"required,datetime=2006-01-02"`
	ExcludedWeekdays []string              `json:"excludedWeekdays"`
	DayStart         string                `json:"dayStart" validate:"omitempty,datetime=15:04"`
	DayEnd           string                `json:"dayEnd" validate:"omitempty,datetime=15:04"`
	SlotsPerDay      int                   `json:"slotsPerDay" validate:"omitempty,min=1,max=8"`
	DefaultDuration  int                   `json:"defaultDuration" validate:"omitempty,min=10,max=480"`
	DurationOverride map[string]int        `json:"durationOverrides" validate:"omitempty,dive,min=10,max=480"`
	Gap              int                   `json:"gapMinutes" validate:"omitempty,min=0,max=480"`
	CheckConflicts   *bool                 `json:"checkConflicts"`
	AllowSharedSlots bool                  `json:"allowSharedSlots"`
	ExcludedCourses  []string              `json:"excludedCourses"`
	MaxRoomGroup     int                   `json:"maxRoomGroup" validate:"omitempty,min=1,max=5"`
	Seed             *int64                `json:"seed"`
	Roster           []RosterCourseRequest `json:"roster" validate:"omitempty,min=1,dive"`
	Rooms            []RoomRequest         `json:"rooms" validate:"omitempty,min=1,dive"`
}

// GenerateTimetableResponse returns the built proposal. The proposal is held
// server-side until its TTL expires so it can be saved by ID.
type GenerateTimetableResponse struct {
	ProposalID string            `json:"proposalId"`
	Result     *timetable.Result `json:"result"`
}

// SaveTimetableRequest persists a previously generated proposal.
type SaveTimetableRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
}

// SaveTimetableResponse identifies the persisted schedule.
type SaveTimetableResponse struct {
	ScheduleID string `json:"scheduleId"`
	Blocks     int    `json:"blocks"`
}

// ScheduleSummary is one saved schedule in list responses.
type ScheduleSummary struct {
	ID             string `json:"id"`
	DepartmentName string `json:"departmentName"`
	ExamType       string `json:"examType"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
	Status         string `json:"status"`
	Blocks         int    `json:"blocks"`
	CreatedAt      string `json:"createdAt"`
}

// ScheduleBlockResponse is one course exam of a saved schedule with its
// rooms and seating grids.
type ScheduleBlockResponse struct {
	CourseID     string                         `json:"courseId"`
	CourseName   string                         `json:"courseName"`
	ClassYear    string                         `json:"classYear"`
	ExamDate     string                         `json:"examDate"`
	StartTime    string                         `json:"startTime"`
	EndTime      string                         `json:"endTime"`
	Duration     int                            `json:"duration"`
	Instructor   *string                        `json:"instructor,omitempty"`
	StudentCount int                            `json:"studentCount"`
	Rooms        []string                       `json:"rooms"`
	SeatingPlan  map[string]*timetable.SeatGrid `json:"seatingPlan,omitempty"`
}

// ScheduleDetailResponse is one saved schedule fully reassembled.
type ScheduleDetailResponse struct {
	ScheduleSummary
	Schedule []ScheduleBlockResponse `json:"schedule"`
}

// ScheduleListQuery filters saved schedules.
type ScheduleListQuery struct {
	DepartmentName string `form:"departmentName" json:"departmentName"`
	ExamType       string `form:"examType" json:"examType"`
	Page           int    `form:"page" json:"page"`
	PageSize       int    `form:"pageSize" json:"pageSize"`
}
