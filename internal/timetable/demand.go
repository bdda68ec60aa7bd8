package timetable

import "sort"

// RosterStudent is one enrolled student as supplied by the roster collaborator.
type RosterStudent struct {
	ID   string `json:"studentId"`
	Name string `json:"name"`
}

// RosterCourse is one course with its enrollment as supplied by the roster
// collaborator.
type RosterCourse struct {
	ID       string          `json:"courseId"`
	Name     string          `json:"name"`
	ClassTag string          `json:"classYearTag"`
	Students []RosterStudent `json:"students"`
}

// Course is a schedulable exam demand record. Created once per run and never
// mutated afterwards.
type Course struct {
	ID               string   `json:"courseId"`
	Name             string   `json:"name"`
	ClassTag         string   `json:"classYearTag"`
	Duration         int      `json:"durationMinutes"`
	ExpectedStudents int      `json:"expectedStudents"`
	Students         []string `json:"students"`
}

// Student aggregates one person's course memberships across the roster.
type Student struct {
	ID      string   `json:"studentId"`
	Name    string   `json:"name"`
	Courses []string `json:"courses"`
}

// BuildDemand turns the roster into Course and Student records. Excluded
// courses are dropped entirely, students are deduplicated by identifier with
// their memberships unioned, and each course's expected count is floored at
// one so a degenerate course still receives a room.
func BuildDemand(cfg *Config, roster []RosterCourse) ([]*Course, []*Student) {
	students := make(map[string]*Student)
	courseStudents := make(map[string][]string)
	var order []string

	courses := make([]*Course, 0, len(roster))
	for _, rc := range roster {
		if cfg.IsExcluded(rc.Name) {
			continue
		}
		courses = append(courses, &Course{
			ID:       rc.ID,
			Name:     rc.Name,
			ClassTag: rc.ClassTag,
			Duration: cfg.EffectiveDuration(rc.Name),
		})
		for _, rs := range rc.Students {
			if rs.ID == "" {
				continue
			}
			st, ok := students[rs.ID]
			if !ok {
				st = &Student{ID: rs.ID, Name: rs.Name}
				students[rs.ID] = st
				order = append(order, rs.ID)
			}
			if !contains(st.Courses, rc.ID) {
				st.Courses = append(st.Courses, rc.ID)
				courseStudents[rc.ID] = append(courseStudents[rc.ID], rs.ID)
			}
		}
	}

	for _, course := range courses {
		enrolled := courseStudents[course.ID]
		sort.Strings(enrolled)
		course.Students = enrolled
		course.ExpectedStudents = len(enrolled)
		if course.ExpectedStudents < 1 {
			course.ExpectedStudents = 1
		}
	}

	result := make([]*Student, 0, len(order))
	for _, id := range order {
		result = append(result, students[id])
	}
	return courses, result
}

func contains(items []string, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}
