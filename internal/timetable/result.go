package timetable

// Run statuses. A run degrades to StatusError when more than half the
// courses end up unplaced; anything unplaced short of that is StatusWarning,
// still usable but incomplete.
const (
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusError   = "error"
)

// Statistics summarises one scheduling run.
type Statistics struct {
	TotalCourses    int `json:"totalCourses"`
	PlacedCourses   int `json:"placedCourses"`
	UnplacedCourses int `json:"unplacedCourses"`
	TotalDays       int `json:"totalDays"`
	TotalSlots      int `json:"totalSlots"`
}

// Result is the complete outcome of one scheduling run: the committed
// schedule with seating attached, the courses that failed, and everything
// recoverable that went wrong along the way.
type Result struct {
	Status     string           `json:"status"`
	Schedule   []*Assignment    `json:"assignments"`
	Unplaced   []UnplacedCourse `json:"unplacedCourses,omitempty"`
	Warnings   []string         `json:"warnings,omitempty"`
	Errors     []string         `json:"errors,omitempty"`
	Statistics Statistics       `json:"statistics"`
}

func buildResult(assignments []*Assignment, unplaced []UnplacedCourse, warnings []string, days, slots int) *Result {
	res := &Result{
		Schedule: assignments,
		Unplaced: unplaced,
		Warnings: warnings,
		Statistics: Statistics{
			TotalCourses:    len(assignments) + len(unplaced),
			PlacedCourses:   len(assignments),
			UnplacedCourses: len(unplaced),
			TotalDays:       days,
			TotalSlots:      slots,
		},
	}
	switch {
	case res.Statistics.TotalCourses > 0 && res.Statistics.UnplacedCourses*2 > res.Statistics.TotalCourses:
		res.Status = StatusError
		res.Errors = append(res.Errors, "more than half of the courses could not be scheduled")
	case res.Statistics.UnplacedCourses > 0:
		res.Status = StatusWarning
	default:
		res.Status = StatusSuccess
	}
	return res
}
