package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(days int) *Config {
	cfg := &Config{
		StartDate:      date(2026, time.October, 5),
		EndDate:        date(2026, time.October, 5+days-1),
		CheckConflicts: true,
	}
	cfg.Normalize()
	return cfg
}

func mustSlots(t *testing.T, cfg *Config) []Slot {
	t.Helper()
	slots, err := BuildSlots(cfg)
	require.NoError(t, err)
	return slots
}

func course(id, tag string, students ...string) *Course {
	n := len(students)
	if n < 1 {
		n = 1
	}
	return &Course{
		ID:               id,
		Name:             id,
		ClassTag:         tag,
		Duration:         DefaultDuration,
		ExpectedStudents: n,
		Students:         students,
	}
}

func TestPlaceSameClassNeverSharesADay(t *testing.T) {
	cfg := testConfig(2)
	rooms := []Room{{ID: "r1", Capacity: 10}, {ID: "r2", Capacity: 10}}
	engine := NewEngine(cfg, mustSlots(t, cfg), rooms)

	assignments, unplaced, _ := engine.Place([]*Course{
		course("math", "year-1", "s1"),
		course("physics", "year-1", "s2"),
	})
	require.Empty(t, unplaced)
	require.Len(t, assignments, 2)
	assert.NotEqual(t, assignments[0].Day, assignments[1].Day)
}

func TestPlaceStudentGapForcesDistantSlot(t *testing.T) {
	cfg := testConfig(1)
	rooms := []Room{{ID: "r1", Capacity: 10}, {ID: "r2", Capacity: 10}}
	engine := NewEngine(cfg, mustSlots(t, cfg), rooms)

	// shared student, different class years, one day with three slots:
	// gap of one slot index forbids adjacent sessions
	assignments, unplaced, _ := engine.Place([]*Course{
		course("math", "year-1", "shared"),
		course("biology", "year-2", "shared"),
	})
	require.Empty(t, unplaced)
	require.Len(t, assignments, 2)
	gap := assignments[0].SlotIndex - assignments[1].SlotIndex
	if gap < 0 {
		gap = -gap
	}
	assert.Greater(t, gap, 1)
}

func TestPlaceConflictCheckDisabledAllowsAdjacency(t *testing.T) {
	cfg := testConfig(1)
	cfg.CheckConflicts = false
	rooms := []Room{{ID: "r1", Capacity: 10}, {ID: "r2", Capacity: 10}}
	engine := NewEngine(cfg, mustSlots(t, cfg), rooms)

	assignments, unplaced, _ := engine.Place([]*Course{
		course("math", "year-1", "shared"),
		course("biology", "year-2", "shared"),
	})
	require.Empty(t, unplaced)
	require.Len(t, assignments, 2)
}

func TestPlaceRelaxedPassSharesDayForOverflowingClass(t *testing.T) {
	cfg := testConfig(1)
	rooms := []Room{{ID: "r1", Capacity: 10}, {ID: "r2", Capacity: 10}}
	engine := NewEngine(cfg, mustSlots(t, cfg), rooms)

	// both are year-1 but only one day exists: the strict pass can place one,
	// the relaxed pass must recover the other
	assignments, unplaced, warnings := engine.Place([]*Course{
		course("math", "year-1", "s1"),
		course("physics", "year-1", "s2"),
	})
	require.Empty(t, unplaced)
	require.Len(t, assignments, 2)

	relaxed := 0
	for _, a := range assignments {
		if a.Relaxed {
			relaxed++
		}
	}
	assert.Equal(t, 1, relaxed)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "relaxed")
}

func TestPlaceRelaxedPassRefusesStudentOverlapInSharedSlot(t *testing.T) {
	cfg := testConfig(1)
	cfg.CheckConflicts = false
	rooms := []Room{{ID: "r1", Capacity: 10}}

	// one room, one day: every course needs its own slot; four same-year
	// courses outnumber the three slots and the last shares a student with
	// every occupant, so it can never piggyback
	engine := NewEngine(cfg, mustSlots(t, cfg), rooms)
	assignments, unplaced, _ := engine.Place([]*Course{
		course("math", "year-1", "shared"),
		course("physics", "year-1", "shared"),
		course("chem", "year-1", "shared"),
		course("bio", "year-1", "shared"),
	})
	assert.Len(t, assignments, 3)
	require.Len(t, unplaced, 1)
	assert.Equal(t, "bio", unplaced[0].CourseID)
	assert.NotEmpty(t, unplaced[0].Reasons)
}

func TestPlaceRoomsNeverDoubleBookedInASlot(t *testing.T) {
	cfg := testConfig(1)
	cfg.CheckConflicts = false
	cfg.AllowSharedSlots = true
	rooms := []Room{{ID: "r1", Capacity: 10}, {ID: "r2", Capacity: 10}}
	engine := NewEngine(cfg, mustSlots(t, cfg), rooms)

	assignments, _, _ := engine.Place([]*Course{
		course("math", "year-1", "s1"),
		course("biology", "year-2", "s2"),
		course("history", "year-3", "s3"),
	})
	used := map[int]map[string]bool{}
	for _, a := range assignments {
		if used[a.SlotIndex] == nil {
			used[a.SlotIndex] = map[string]bool{}
		}
		for _, id := range a.Rooms.IDs() {
			assert.False(t, used[a.SlotIndex][id], "room %s double booked in slot %d", id, a.SlotIndex)
			used[a.SlotIndex][id] = true
		}
	}
}

func TestPlaceLargestCourseFirst(t *testing.T) {
	cfg := testConfig(2)
	rooms := []Room{{ID: "big", Capacity: 3}}
	engine := NewEngine(cfg, mustSlots(t, cfg), rooms)

	big := course("big-course", "year-1", "s1", "s2", "s3")
	small := course("small-course", "year-2", "s9")
	assignments, _, _ := engine.Place([]*Course{small, big})
	require.NotEmpty(t, assignments)
	assert.Equal(t, "big-course", assignments[0].CourseID)
}

func TestPlaceCapacityShortfallUsesBestRoomsAndWarns(t *testing.T) {
	cfg := testConfig(1)
	rooms := []Room{{ID: "only", Capacity: 2}}
	engine := NewEngine(cfg, mustSlots(t, cfg), rooms)

	assignments, unplaced, warnings := engine.Place([]*Course{
		course("huge", "year-1", "s1", "s2", "s3", "s4", "s5"),
	})
	require.Empty(t, unplaced)
	require.Len(t, assignments, 1)
	assert.Equal(t, []string{"only"}, assignments[0].Rooms.IDs())
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "3 seats short")
}

func TestPlaceIsDeterministicForFixedInput(t *testing.T) {
	build := func() []*Assignment {
		cfg := testConfig(3)
		rooms := []Room{{ID: "r1", Capacity: 30}, {ID: "r2", Capacity: 20}}
		engine := NewEngine(cfg, mustSlots(t, cfg), rooms)
		assignments, _, _ := engine.Place([]*Course{
			course("math", "year-1", "s1", "s2"),
			course("physics", "year-1", "s1", "s3"),
			course("biology", "year-2", "s2", "s3"),
		})
		return assignments
	}

	first := build()
	second := build()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].CourseID, second[i].CourseID)
		assert.Equal(t, first[i].SlotIndex, second[i].SlotIndex)
		assert.Equal(t, first[i].Rooms.IDs(), second[i].Rooms.IDs())
	}
}
