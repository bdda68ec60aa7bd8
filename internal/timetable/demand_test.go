package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDemandDeduplicatesStudents(t *testing.T) {
	cfg := &Config{}
	cfg.Normalize()

	roster := []RosterCourse{
		{ID: "c1", Name: "Math", ClassTag: "year-1", Students: []RosterStudent{
			{ID: "s1", Name: "Ada"},
			{ID: "s2", Name: "Grace"},
		}},
		{ID: "c2", Name: "Physics", ClassTag: "year-1", Students: []RosterStudent{
			{ID: "s1", Name: "Ada"},
		}},
	}

	courses, students := BuildDemand(cfg, roster)
	require.Len(t, courses, 2)
	require.Len(t, students, 2)

	assert.Equal(t, 2, courses[0].ExpectedStudents)
	assert.Equal(t, 1, courses[1].ExpectedStudents)
	assert.Equal(t, []string{"c1", "c2"}, students[0].Courses)
}

func TestBuildDemandFloorsExpectedStudentsAtOne(t *testing.T) {
	cfg := &Config{}
	cfg.Normalize()

	courses, _ := BuildDemand(cfg, []RosterCourse{{ID: "c1", Name: "Seminar"}})
	require.Len(t, courses, 1)
	assert.Equal(t, 1, courses[0].ExpectedStudents)
	assert.Empty(t, courses[0].Students)
}

func TestBuildDemandDropsExcludedCoursesSilently(t *testing.T) {
	cfg := &Config{ExcludedCourses: []string{"Math"}}
	cfg.Normalize()

	roster := []RosterCourse{
		{ID: "c1", Name: "Math", Students: []RosterStudent{{ID: "s1"}}},
		{ID: "c2", Name: "Physics", Students: []RosterStudent{{ID: "s1"}}},
	}

	courses, students := BuildDemand(cfg, roster)
	require.Len(t, courses, 1)
	assert.Equal(t, "Physics", courses[0].Name)
	require.Len(t, students, 1)
	assert.Equal(t, []string{"c2"}, students[0].Courses)
}

func TestEffectiveDurationOverride(t *testing.T) {
	cfg := &Config{DurationOverrides: map[string]int{"Math": 120}}
	cfg.Normalize()

	assert.Equal(t, 120, cfg.EffectiveDuration("Math"))
	assert.Equal(t, DefaultDuration, cfg.EffectiveDuration("Physics"))
}
