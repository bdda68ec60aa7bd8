package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/exam-planner-api/pkg/errors"
)

func runInput(days int) RunInput {
	return RunInput{
		Config: Config{
			StartDate:      date(2026, time.October, 5),
			EndDate:        date(2026, time.October, 5+days-1),
			CheckConflicts: true,
		},
		Roster: []RosterCourse{
			{ID: "c1", Name: "Math", ClassTag: "year-1", Students: []RosterStudent{
				{ID: "s1"}, {ID: "s2"},
			}},
			{ID: "c2", Name: "Physics", ClassTag: "year-2", Students: []RosterStudent{
				{ID: "s2"}, {ID: "s3"},
			}},
		},
		Rooms: []Room{
			{ID: "r1", Name: "Hall A", DesksPerRow: 4, DesksPerColumn: 3, DeskStructure: 2},
		},
	}
}

func TestRunFullPipeline(t *testing.T) {
	res, err := Run(runInput(2))
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	require.Len(t, res.Schedule, 2)
	assert.Equal(t, 2, res.Statistics.TotalCourses)
	assert.Equal(t, 2, res.Statistics.PlacedCourses)
	assert.Equal(t, 0, res.Statistics.UnplacedCourses)
	assert.Equal(t, 2, res.Statistics.TotalDays)
	assert.Equal(t, 6, res.Statistics.TotalSlots)

	for _, a := range res.Schedule {
		require.Len(t, a.Seating, 1)
		grid := a.Seating["r1"]
		require.NotNil(t, grid)
		assert.Len(t, grid.Students(), a.ExpectedStudents)
		assert.NotEmpty(t, a.StartTime)
		assert.NotEmpty(t, a.EndTime)
	}
}

func TestRunEmptyRosterIsFatal(t *testing.T) {
	in := runInput(2)
	in.Roster = nil

	_, err := Run(in)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInfeasible.Code, appErrors.FromError(err).Code)
}

func TestRunEmptyRoomsIsFatal(t *testing.T) {
	in := runInput(2)
	in.Rooms = nil

	_, err := Run(in)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInfeasible.Code, appErrors.FromError(err).Code)
}

func TestRunDegradesToErrorWhenMostCoursesFail(t *testing.T) {
	in := RunInput{
		Config: Config{
			StartDate:      date(2026, time.October, 5),
			EndDate:        date(2026, time.October, 5),
			CheckConflicts: true,
		},
		// five courses sharing one student on a single three-slot day: the
		// exam gap rule leaves room for at most two of them
		Roster: []RosterCourse{
			{ID: "c1", Name: "Math", ClassTag: "year-1", Students: []RosterStudent{{ID: "s1"}}},
			{ID: "c2", Name: "Physics", ClassTag: "year-1", Students: []RosterStudent{{ID: "s1"}}},
			{ID: "c3", Name: "Chemistry", ClassTag: "year-1", Students: []RosterStudent{{ID: "s1"}}},
			{ID: "c4", Name: "Biology", ClassTag: "year-1", Students: []RosterStudent{{ID: "s1"}}},
			{ID: "c5", Name: "History", ClassTag: "year-1", Students: []RosterStudent{{ID: "s1"}}},
		},
		Rooms: []Room{{ID: "r1", Capacity: 10}},
	}

	res, err := Run(in)
	require.NoError(t, err)
	assert.Equal(t, StatusError, res.Status)
	assert.NotEmpty(t, res.Errors)
	assert.NotEmpty(t, res.Unplaced)
}

func TestRunSeedShufflesTieOrderOnly(t *testing.T) {
	seed := int64(7)
	in := runInput(3)
	in.Seed = &seed

	first, err := Run(in)
	require.NoError(t, err)
	second, err := Run(in)
	require.NoError(t, err)

	require.Equal(t, len(first.Schedule), len(second.Schedule))
	for i := range first.Schedule {
		assert.Equal(t, first.Schedule[i].CourseID, second.Schedule[i].CourseID)
		assert.Equal(t, first.Schedule[i].SlotIndex, second.Schedule[i].SlotIndex)
	}
}

func TestRunExcludedCourseNotReportedUnplaced(t *testing.T) {
	in := runInput(2)
	in.Config.ExcludedCourses = []string{"Physics"}

	res, err := Run(in)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	require.Len(t, res.Schedule, 1)
	assert.Equal(t, "Math", res.Schedule[0].CourseName)
	assert.Equal(t, 1, res.Statistics.TotalCourses)
	assert.Empty(t, res.Unplaced)
}
