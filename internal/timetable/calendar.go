package timetable

import (
	"fmt"
	"strings"
	"time"
)

// Slot is one schedulable (day, time window) unit. The full slot sequence of
// a run is fixed before placement begins and never mutated.
type Slot struct {
	Day         string `json:"day"`
	Index       int    `json:"slotIndex"`
	InDay       int    `json:"slotInDay"`
	StartMinute int    `json:"startMinute"`
	EndMinute   int    `json:"endMinute"`
}

// StartClock formats the slot start as HH:MM.
func (s Slot) StartClock() string { return clock(s.StartMinute) }

// EndClock formats the slot end as HH:MM.
func (s Slot) EndClock() string { return clock(s.EndMinute) }

func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// weekdayNames maps time.Weekday to the localized names accepted in the
// excluded-days configuration. English and Turkish are both understood.
var weekdayNames = map[time.Weekday][]string{
	time.Monday:    {"monday", "pazartesi"},
	time.Tuesday:   {"tuesday", "salı", "sali"},
	time.Wednesday: {"wednesday", "çarşamba", "carsamba"},
	time.Thursday:  {"thursday", "perşembe", "persembe"},
	time.Friday:    {"friday", "cuma"},
	time.Saturday:  {"saturday", "cumartesi"},
	time.Sunday:    {"sunday", "pazar"},
}

func weekdayExcluded(day time.Weekday, excluded []string) bool {
	for _, raw := range excluded {
		needle := strings.ToLower(strings.TrimSpace(raw))
		if needle == "" {
			continue
		}
		for _, name := range weekdayNames[day] {
			if strings.Contains(needle, name) || strings.Contains(name, needle) {
				return true
			}
		}
	}
	return false
}

// BuildDays walks the configured date range and returns the schedulable ISO
// dates in order, skipping excluded weekdays.
func BuildDays(cfg *Config) []string {
	var days []string
	for cur := cfg.StartDate; !cur.After(cfg.EndDate); cur = cur.AddDate(0, 0, 1) {
		if weekdayExcluded(cur.Weekday(), cfg.ExcludedWeekdays) {
			continue
		}
		days = append(days, cur.Format("2006-01-02"))
	}
	return days
}

// fixedSlotStarts are the implicit start minutes of the classic three-session
// exam day (morning, midday, afternoon).
var fixedSlotStarts = []int{9 * 60, 11 * 60, 14 * 60}

// BuildSlots expands the date range into the flat, globally indexed slot
// sequence. Two layout modes exist: fixed slots per day with implicit start
// times, and explicit slicing of the configured daily window into chunks of
// default duration plus gap. An empty result is a fatal configuration error.
func BuildSlots(cfg *Config) ([]Slot, error) {
	days := BuildDays(cfg)
	if len(days) == 0 {
		return nil, fmt.Errorf("no available days in range %s - %s",
			cfg.StartDate.Format("2006-01-02"), cfg.EndDate.Format("2006-01-02"))
	}

	var slots []Slot
	if cfg.DayEnd > cfg.DayStart {
		chunk := cfg.DefaultDuration + cfg.Gap
		for _, day := range days {
			inDay := 0
			for start := cfg.DayStart; start+cfg.DefaultDuration <= cfg.DayEnd; start += chunk {
				slots = append(slots, Slot{
					Day:         day,
					Index:       len(slots),
					InDay:       inDay,
					StartMinute: start,
					EndMinute:   start + cfg.DefaultDuration,
				})
				inDay++
			}
		}
	} else {
		for _, day := range days {
			for i := 0; i < cfg.SlotsPerDay; i++ {
				start := slotStart(cfg, i)
				slots = append(slots, Slot{
					Day:         day,
					Index:       len(slots),
					InDay:       i,
					StartMinute: start,
					EndMinute:   start + cfg.DefaultDuration,
				})
			}
		}
	}

	if len(slots) == 0 {
		return nil, fmt.Errorf("daily window %s - %s cannot fit a %d minute exam",
			clock(cfg.DayStart), clock(cfg.DayEnd), cfg.DefaultDuration)
	}
	return slots, nil
}

func slotStart(cfg *Config, inDay int) int {
	if inDay < len(fixedSlotStarts) && cfg.SlotsPerDay <= len(fixedSlotStarts) {
		return fixedSlotStarts[inDay]
	}
	// more sessions than the classic layout: stride from 09:00
	return 9*60 + inDay*(cfg.DefaultDuration+cfg.Gap)
}
