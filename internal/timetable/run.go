package timetable

import (
	"math/rand"

	"github.com/noah-isme/exam-planner-api/pkg/errors"
)

// RunInput is the full snapshot one scheduling run consumes. Seed, when set,
// shuffles the course order before the engine's stable sort so that ties are
// broken differently between runs; placement itself stays deterministic for a
// given order.
type RunInput struct {
	Config Config
	Roster []RosterCourse
	Rooms  []Room
	Seed   *int64
}

// Run executes one complete scheduling pass: demand, calendar, placement,
// seating. It returns a typed error only for fatal configuration problems;
// everything recoverable lands in the result's warnings and unplaced list.
func Run(in RunInput) (*Result, error) {
	cfg := in.Config
	cfg.Normalize()

	courses, _ := BuildDemand(&cfg, in.Roster)
	if len(courses) == 0 {
		return nil, errors.Clone(errors.ErrInfeasible, "no courses to schedule")
	}
	if len(in.Rooms) == 0 {
		return nil, errors.Clone(errors.ErrInfeasible, "no rooms available")
	}

	slots, err := BuildSlots(&cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInfeasible.Code, errors.ErrInfeasible.Status, err.Error())
	}
	days := BuildDays(&cfg)

	if in.Seed != nil {
		rng := rand.New(rand.NewSource(*in.Seed))
		rng.Shuffle(len(courses), func(i, j int) {
			courses[i], courses[j] = courses[j], courses[i]
		})
	}

	engine := NewEngine(&cfg, slots, in.Rooms)
	assignments, unplaced, warnings := engine.Place(courses)

	for _, a := range assignments {
		warnings = append(warnings, BuildSeating(a)...)
	}

	return buildResult(assignments, unplaced, warnings, len(days), len(slots)), nil
}
