package timetable

import (
	"fmt"
	"math"
	"sort"
)

// Assignment is one committed placement: a course pinned to a slot and a
// room combination. Seating is attached after placement by the seating
// generator, keyed by room ID.
type Assignment struct {
	CourseID         string               `json:"courseId"`
	CourseName       string               `json:"courseName"`
	ClassTag         string               `json:"classTag,omitempty"`
	Day              string               `json:"day"`
	SlotIndex        int                  `json:"slotIndex"`
	SlotInDay        int                  `json:"slotInDay"`
	StartTime        string               `json:"startTime"`
	EndTime          string               `json:"endTime"`
	Rooms            Combination          `json:"rooms"`
	RoomIDs          []string             `json:"roomIds"`
	ExpectedStudents int                  `json:"expectedStudents"`
	Duration         int                  `json:"durationMinutes"`
	Relaxed          bool                 `json:"relaxed,omitempty"`
	Seating          map[string]*SeatGrid `json:"seating,omitempty"`

	students []string
}

// UnplacedCourse describes a course neither pass could schedule, with the
// rejection trail kept short enough to read.
type UnplacedCourse struct {
	CourseID         string   `json:"courseId"`
	CourseName       string   `json:"courseName"`
	ExpectedStudents int      `json:"expectedStudents"`
	Reasons          []string `json:"reasons"`
}

const maxRejectionReasons = 5

// Engine owns all occupancy state for one scheduling run. It is not safe for
// concurrent use; callers wanting parallelism must serialize mutations.
type Engine struct {
	cfg   *Config
	slots []Slot
	rooms []Room

	gapSlots int

	assignments  []*Assignment
	warnings     []string
	unplaced     []UnplacedCourse
	studentSlots map[string][]int
	classSlots   map[string][]int
	roomBusy     map[int]map[string]bool
	slotCourses  map[int][]*Assignment
	days         []string
}

// NewEngine prepares an engine over a normalized configuration, the global
// slot sequence, and the room inventory.
func NewEngine(cfg *Config, slots []Slot, rooms []Room) *Engine {
	gap := int(math.Ceil(float64(cfg.Gap) / float64(cfg.DefaultDuration)))
	if gap < 1 {
		gap = 1
	}
	e := &Engine{
		cfg:          cfg,
		slots:        slots,
		rooms:        rooms,
		gapSlots:     gap,
		studentSlots: make(map[string][]int),
		classSlots:   make(map[string][]int),
		roomBusy:     make(map[int]map[string]bool),
		slotCourses:  make(map[int][]*Assignment),
	}
	seen := make(map[string]bool)
	for _, s := range slots {
		if !seen[s.Day] {
			seen[s.Day] = true
			e.days = append(e.days, s.Day)
		}
	}
	return e
}

// Place schedules every course, strict pass first, then a relaxed retry for
// the leftovers. Course order is largest headcount first, ties broken by how
// many sibling courses share the class tag; remaining ties keep the caller's
// input order, which is how an injected shuffle seed takes effect.
func (e *Engine) Place(courses []*Course) ([]*Assignment, []UnplacedCourse, []string) {
	classCounts := make(map[string]int)
	for _, c := range courses {
		classCounts[c.ClassTag]++
	}
	ordered := make([]*Course, len(courses))
	copy(ordered, courses)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].ExpectedStudents != ordered[j].ExpectedStudents {
			return ordered[i].ExpectedStudents > ordered[j].ExpectedStudents
		}
		return classCounts[ordered[i].ClassTag] > classCounts[ordered[j].ClassTag]
	})

	var leftovers []*Course
	reasons := make(map[string][]string)
	for _, course := range ordered {
		if rej, ok := e.tryPlace(course, false); !ok {
			leftovers = append(leftovers, course)
			reasons[course.ID] = rej
		}
	}

	for _, course := range leftovers {
		rej, ok := e.tryPlace(course, true)
		if ok {
			e.warnings = append(e.warnings,
				fmt.Sprintf("'%s' placed only under relaxed rules", course.Name))
			continue
		}
		all := append(reasons[course.ID], rej...)
		if len(all) > maxRejectionReasons {
			all = append(all[:maxRejectionReasons],
				fmt.Sprintf("... and %d more rejections", len(all)-maxRejectionReasons))
		}
		e.unplaced = append(e.unplaced, UnplacedCourse{
			CourseID:         course.ID,
			CourseName:       course.Name,
			ExpectedStudents: course.ExpectedStudents,
			Reasons:          all,
		})
		e.warnings = append(e.warnings,
			fmt.Sprintf("'%s' could not be scheduled (%d students)", course.Name, course.ExpectedStudents))
	}

	return e.assignments, e.unplaced, e.warnings
}

// tryPlace walks the course's preferred days and each day's slots until a
// slot survives every check. It returns the rejection trail when nothing fit.
func (e *Engine) tryPlace(course *Course, relaxed bool) ([]string, bool) {
	var rejections []string
	for _, day := range e.dayPreferences(course.ClassTag) {
		for _, slot := range e.slots {
			if slot.Day != day {
				continue
			}
			if reason := e.checkSlot(course, slot, relaxed); reason != "" {
				rejections = append(rejections,
					fmt.Sprintf("%s slot %d: %s", slot.Day, slot.Index, reason))
				continue
			}
			combo, shortfall := e.pickRooms(course, slot.Index)
			if combo == nil {
				rejections = append(rejections,
					fmt.Sprintf("%s slot %d: no free room combination", slot.Day, slot.Index))
				continue
			}
			if shortfall > 0 {
				e.warnings = append(e.warnings, fmt.Sprintf(
					"'%s': best available rooms are %d seats short of %d students",
					course.Name, shortfall, course.ExpectedStudents))
			}
			e.commit(course, slot, combo, relaxed)
			return nil, true
		}
	}
	return rejections, false
}

// checkSlot applies the conflict rules. Empty return means the slot is
// acceptable; otherwise the reason it was rejected.
func (e *Engine) checkSlot(course *Course, slot Slot, relaxed bool) string {
	if !relaxed && e.classBusyOnDay(course.ClassTag, slot.Day) {
		return fmt.Sprintf("class %s already has an exam that day", course.ClassTag)
	}
	if e.cfg.CheckConflicts {
		if n := e.conflictingStudents(course, slot.Index); n > 0 {
			return fmt.Sprintf("%d students within the exam gap", n)
		}
	}
	occupants := e.slotCourses[slot.Index]
	if len(occupants) > 0 {
		if !e.cfg.AllowSharedSlots && !relaxed {
			return "slot already occupied and sharing is disabled"
		}
		// shared slots demand zero student overlap with every occupant
		for _, other := range occupants {
			if overlaps(course.Students, other.students) {
				return fmt.Sprintf("students overlap with '%s' in the same slot", other.CourseName)
			}
		}
	}
	return ""
}

func (e *Engine) classBusyOnDay(classTag, day string) bool {
	for _, idx := range e.classSlots[classTag] {
		if e.slots[idx].Day == day {
			return true
		}
	}
	return false
}

func (e *Engine) conflictingStudents(course *Course, slotIdx int) int {
	conflicting := 0
	for _, sid := range course.Students {
		for _, assigned := range e.studentSlots[sid] {
			if abs(assigned-slotIdx) <= e.gapSlots {
				conflicting++
				break
			}
		}
	}
	return conflicting
}

// pickRooms chooses the cheapest free room combination covering the course.
// When the full inventory cannot cover the headcount at all, the best free
// grouping is used anyway and the seat shortfall is returned.
func (e *Engine) pickRooms(course *Course, slotIdx int) (Combination, int) {
	busy := e.roomBusy[slotIdx]
	var free []Room
	for _, room := range e.rooms {
		if !busy[room.ID] {
			free = append(free, room)
		}
	}
	if len(free) == 0 {
		return nil, 0
	}
	if combos := Combinations(free, course.ExpectedStudents, e.cfg.MaxRoomGroup); len(combos) > 0 {
		return combos[0], 0
	}
	if len(Combinations(e.rooms, course.ExpectedStudents, e.cfg.MaxRoomGroup)) > 0 {
		// a later slot may have these rooms free
		return nil, 0
	}
	best := BestAvailable(free, e.cfg.MaxRoomGroup)
	return best, course.ExpectedStudents - best.TotalCapacity()
}

func (e *Engine) commit(course *Course, slot Slot, rooms Combination, relaxed bool) {
	a := &Assignment{
		CourseID:         course.ID,
		CourseName:       course.Name,
		ClassTag:         course.ClassTag,
		Day:              slot.Day,
		SlotIndex:        slot.Index,
		SlotInDay:        slot.InDay,
		StartTime:        slot.StartClock(),
		EndTime:          slot.EndClock(),
		Rooms:            rooms,
		RoomIDs:          rooms.IDs(),
		ExpectedStudents: course.ExpectedStudents,
		Duration:         course.Duration,
		Relaxed:          relaxed,
		students:         course.Students,
	}
	e.assignments = append(e.assignments, a)
	e.slotCourses[slot.Index] = append(e.slotCourses[slot.Index], a)
	e.classSlots[course.ClassTag] = append(e.classSlots[course.ClassTag], slot.Index)
	if e.cfg.CheckConflicts {
		for _, sid := range course.Students {
			e.studentSlots[sid] = append(e.studentSlots[sid], slot.Index)
		}
	}
	if e.roomBusy[slot.Index] == nil {
		e.roomBusy[slot.Index] = make(map[string]bool)
	}
	for _, room := range rooms {
		e.roomBusy[slot.Index][room.ID] = true
	}
}

// dayPreferences orders the calendar days least-used-first for the class,
// chronological within equal usage.
func (e *Engine) dayPreferences(classTag string) []string {
	counts := make(map[string]int)
	for _, idx := range e.classSlots[classTag] {
		counts[e.slots[idx].Day]++
	}
	ordered := make([]string, len(e.days))
	copy(ordered, e.days)
	sort.SliceStable(ordered, func(i, j int) bool {
		return counts[ordered[i]] < counts[ordered[j]]
	})
	return ordered
}

func overlaps(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if set[s] {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
