package timetable

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultAssignment(courseID string) *Assignment {
	rooms := Combination{{ID: "r1", Name: "Hall A", Capacity: 30}}
	return &Assignment{
		CourseID:         courseID,
		CourseName:       courseID,
		Day:              "2026-10-05",
		Rooms:            rooms,
		RoomIDs:          rooms.IDs(),
		ExpectedStudents: 10,
		Duration:         60,
	}
}

func TestBuildResultStatusValues(t *testing.T) {
	placed := []*Assignment{
		resultAssignment("c1"), resultAssignment("c2"),
		resultAssignment("c3"), resultAssignment("c4"),
	}
	missing := func(n int) []UnplacedCourse {
		out := make([]UnplacedCourse, n)
		for i := range out {
			out[i] = UnplacedCourse{CourseID: "u", ExpectedStudents: 5}
		}
		return out
	}

	tests := []struct {
		name     string
		placed   []*Assignment
		unplaced []UnplacedCourse
		want     string
	}{
		{"all placed", placed, nil, "success"},
		{"minority unplaced", placed, missing(1), "warning"},
		{"half unplaced", placed, missing(4), "warning"},
		{"majority unplaced", placed[:1], missing(4), "error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := buildResult(tc.placed, tc.unplaced, nil, 2, 6)
			assert.Equal(t, tc.want, res.Status)
		})
	}
}

func TestBuildResultMajorityUnplacedAddsError(t *testing.T) {
	res := buildResult(nil, []UnplacedCourse{{CourseID: "c1"}}, nil, 1, 3)
	require.Equal(t, StatusError, res.Status)
	require.NotEmpty(t, res.Errors)
}

func TestResultJSONContract(t *testing.T) {
	res := buildResult(
		[]*Assignment{resultAssignment("c1")},
		[]UnplacedCourse{{CourseID: "c2", CourseName: "Physics", ExpectedStudents: 5, Reasons: []string{"no free slot"}}},
		[]string{"note"},
		2, 6,
	)

	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &wire))

	assert.Contains(t, wire, "assignments")
	assert.Contains(t, wire, "unplacedCourses")
	assert.Contains(t, wire, "statistics")
	assert.NotContains(t, wire, "schedule")
	assert.NotContains(t, wire, "unplaced")

	var assignments []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(wire["assignments"], &assignments))
	require.Len(t, assignments, 1)
	assert.Contains(t, assignments[0], "roomIds")
	assert.Contains(t, assignments[0], "rooms")

	var roomIDs []string
	require.NoError(t, json.Unmarshal(assignments[0]["roomIds"], &roomIDs))
	assert.Equal(t, []string{"r1"}, roomIDs)
}
