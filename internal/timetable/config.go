package timetable

import (
	"time"
)

const (
	// DefaultDuration is the fallback exam length in minutes.
	DefaultDuration = 75
	// DefaultGap is the fallback waiting period between two exams of one
	// student, in minutes.
	DefaultGap = 15
	// DefaultSlotsPerDay is used when no explicit daily time window is
	// configured.
	DefaultSlotsPerDay = 3
	// DefaultMaxRoomGroup bounds how many rooms may be pooled for a single
	// exam. Subset enumeration is polynomial only while this stays small.
	DefaultMaxRoomGroup = 3
)

// Config holds the immutable parameters of one scheduling run.
type Config struct {
	StartDate time.Time
	EndDate   time.Time

	// ExcludedWeekdays holds weekday names to skip. Matching is
	// case-insensitive and by substring, both English and Turkish names are
	// understood.
	ExcludedWeekdays []string

	// DayStart/DayEnd define the daily exam window in minutes from midnight.
	// When DayEnd is zero the fixed slots-per-day mode is used instead.
	DayStart int
	DayEnd   int

	// SlotsPerDay applies in fixed mode only.
	SlotsPerDay int

	DefaultDuration   int
	DurationOverrides map[string]int

	// Gap is the minimum waiting period between two exams of one student,
	// in minutes.
	Gap int

	// CheckConflicts enables the per-student gap rule.
	CheckConflicts bool

	// AllowSharedSlots permits exams of different class years in one slot.
	AllowSharedSlots bool

	ExcludedCourses []string

	MaxRoomGroup int
}

// Normalize fills defaults and swaps a reversed date range. The swap is a
// documented normalization rather than a validation error.
func (c *Config) Normalize() {
	if c.EndDate.Before(c.StartDate) {
		c.StartDate, c.EndDate = c.EndDate, c.StartDate
	}
	if c.DefaultDuration <= 0 {
		c.DefaultDuration = DefaultDuration
	}
	if c.Gap < 0 {
		c.Gap = DefaultGap
	}
	if c.SlotsPerDay <= 0 {
		c.SlotsPerDay = DefaultSlotsPerDay
	}
	if c.MaxRoomGroup <= 0 {
		c.MaxRoomGroup = DefaultMaxRoomGroup
	}
}

// EffectiveDuration returns the per-course override when present, otherwise
// the default duration.
func (c *Config) EffectiveDuration(courseName string) int {
	if d, ok := c.DurationOverrides[courseName]; ok && d > 0 {
		return d
	}
	if c.DefaultDuration > 0 {
		return c.DefaultDuration
	}
	return DefaultDuration
}

// IsExcluded reports whether the course name was removed from the run.
func (c *Config) IsExcluded(courseName string) bool {
	for _, name := range c.ExcludedCourses {
		if name == courseName {
			return true
		}
	}
	return false
}

// RemainingCourses filters the provided course names down to the schedulable
// set.
func (c *Config) RemainingCourses(names []string) []string {
	remaining := make([]string, 0, len(names))
	for _, name := range names {
		if !c.IsExcluded(name) {
			remaining = append(remaining, name)
		}
	}
	return remaining
}
