package timetable

import "sort"

// Room is one physical exam room with its desk layout. DeskStructure is the
// repeating pattern width in desk columns before a corridor lane.
type Room struct {
	ID             string `json:"roomId"`
	Name           string `json:"name"`
	Capacity       int    `json:"capacity"`
	DesksPerRow    int    `json:"desksPerRow"`
	DesksPerColumn int    `json:"desksPerColumn"`
	DeskStructure  int    `json:"deskStructure"`
}

// HasLayout reports whether the room carries a usable desk layout.
func (r Room) HasLayout() bool {
	return r.DesksPerRow > 0 && r.DesksPerColumn > 0
}

// seatColumns classifies each of the desksPerRow desk columns as seat-bearing
// (true) or corridor lane (false) according to the desk structure. The same
// classification drives both capacity and seating grids so the two never
// disagree.
func seatColumns(desksPerRow, deskStructure int) []bool {
	cols := make([]bool, desksPerRow)
	for c := 0; c < desksPerRow; c++ {
		switch deskStructure {
		case 2, 4:
			cols[c] = c%2 == 0
		case 3:
			cols[c] = c%3 != 2
		default:
			cols[c] = true
		}
	}
	return cols
}

// SeatBearingWidth returns how many desk columns of one row hold seats.
func (r Room) SeatBearingWidth() int {
	width := 0
	for _, seat := range seatColumns(r.DesksPerRow, r.DeskStructure) {
		if seat {
			width++
		}
	}
	return width
}

// EffectiveCapacity is the capacity used for placement decisions. The layout
// is the source of truth when present; otherwise the declared capacity is
// trusted.
func (r Room) EffectiveCapacity() int {
	if r.HasLayout() {
		return r.SeatBearingWidth() * r.DesksPerColumn
	}
	return r.Capacity
}

// Combination is an ordered, deduplicated group of rooms pooled for one exam.
type Combination []Room

// TotalCapacity sums the effective capacities of the combination.
func (c Combination) TotalCapacity() int {
	total := 0
	for _, room := range c {
		total += room.EffectiveCapacity()
	}
	return total
}

// IDs returns the room identifiers in combination order.
func (c Combination) IDs() []string {
	ids := make([]string, len(c))
	for i, room := range c {
		ids[i] = room.ID
	}
	return ids
}

// Combinations enumerates room groupings of size 1..maxGroup whose summed
// capacity covers the required headcount, cheapest first: smallest group,
// then smallest surplus. The enumerator is pure and stateless; capacities are
// re-derived on every call so layout edits are always reflected.
func Combinations(rooms []Room, need, maxGroup int) []Combination {
	if maxGroup <= 0 {
		maxGroup = DefaultMaxRoomGroup
	}
	if maxGroup > len(rooms) {
		maxGroup = len(rooms)
	}

	ordered := make([]Room, len(rooms))
	copy(ordered, rooms)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].EffectiveCapacity() == ordered[j].EffectiveCapacity() {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].EffectiveCapacity() < ordered[j].EffectiveCapacity()
	})

	var result []Combination
	combo := make([]Room, 0, maxGroup)
	var walk func(start, capacity int)
	walk = func(start, capacity int) {
		if len(combo) > 0 && capacity >= need {
			group := make(Combination, len(combo))
			copy(group, combo)
			result = append(result, group)
			// any superset only adds surplus
			return
		}
		if len(combo) == maxGroup {
			return
		}
		for i := start; i < len(ordered); i++ {
			combo = append(combo, ordered[i])
			walk(i+1, capacity+ordered[i].EffectiveCapacity())
			combo = combo[:len(combo)-1]
		}
	}
	walk(0, 0)

	sort.SliceStable(result, func(i, j int) bool {
		if len(result[i]) != len(result[j]) {
			return len(result[i]) < len(result[j])
		}
		si := result[i].TotalCapacity() - need
		sj := result[j].TotalCapacity() - need
		if si != sj {
			return si < sj
		}
		return joinIDs(result[i]) < joinIDs(result[j])
	})
	return result
}

// BestAvailable returns the largest-capacity grouping of up to maxGroup rooms.
// It backs the knowing capacity violation: when no combination can cover a
// headcount, the best one is used anyway and a shortfall warning is recorded.
func BestAvailable(rooms []Room, maxGroup int) Combination {
	if len(rooms) == 0 {
		return nil
	}
	if maxGroup <= 0 {
		maxGroup = DefaultMaxRoomGroup
	}
	ordered := make([]Room, len(rooms))
	copy(ordered, rooms)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].EffectiveCapacity() == ordered[j].EffectiveCapacity() {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].EffectiveCapacity() > ordered[j].EffectiveCapacity()
	})
	if maxGroup > len(ordered) {
		maxGroup = len(ordered)
	}
	group := make(Combination, maxGroup)
	copy(group, ordered[:maxGroup])
	return group
}

func joinIDs(c Combination) string {
	s := ""
	for _, room := range c {
		s += room.ID + ","
	}
	return s
}
