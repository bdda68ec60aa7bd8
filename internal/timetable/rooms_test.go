package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveCapacityFromLayout(t *testing.T) {
	tests := []struct {
		name string
		room Room
		want int
	}{
		{"solid rows", Room{DesksPerRow: 6, DesksPerColumn: 5, DeskStructure: 1}, 30},
		{"pairs", Room{DesksPerRow: 6, DesksPerColumn: 5, DeskStructure: 2}, 15},
		{"pairs odd width", Room{DesksPerRow: 7, DesksPerColumn: 5, DeskStructure: 2}, 20},
		{"triples", Room{DesksPerRow: 7, DesksPerColumn: 10, DeskStructure: 3}, 50},
		{"quads", Room{DesksPerRow: 8, DesksPerColumn: 4, DeskStructure: 4}, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.room.EffectiveCapacity())
		})
	}
}

func TestEffectiveCapacityFallsBackToDeclared(t *testing.T) {
	room := Room{Capacity: 42}
	assert.Equal(t, 42, room.EffectiveCapacity())
}

func TestLayoutOverridesDeclaredCapacity(t *testing.T) {
	room := Room{Capacity: 99, DesksPerRow: 4, DesksPerColumn: 5, DeskStructure: 1}
	assert.Equal(t, 20, room.EffectiveCapacity())
}

func TestCombinationsPrefersFewerRoomsThenSmallestSurplus(t *testing.T) {
	rooms := []Room{
		{ID: "small", Capacity: 20},
		{ID: "mid", Capacity: 35},
		{ID: "big", Capacity: 60},
	}

	combos := Combinations(rooms, 30, 3)
	require.NotEmpty(t, combos)
	// mid alone (surplus 5) beats big alone (surplus 30) and any pair
	assert.Equal(t, []string{"mid"}, combos[0].IDs())
	assert.Equal(t, []string{"big"}, combos[1].IDs())
}

func TestCombinationsPoolsRoomsWhenNoneFitsAlone(t *testing.T) {
	rooms := []Room{
		{ID: "a", Capacity: 30},
		{ID: "b", Capacity: 30},
	}

	combos := Combinations(rooms, 50, 3)
	require.Len(t, combos, 1)
	assert.ElementsMatch(t, []string{"a", "b"}, combos[0].IDs())
	assert.Equal(t, 60, combos[0].TotalCapacity())
}

func TestCombinationsRespectsGroupBound(t *testing.T) {
	rooms := []Room{
		{ID: "a", Capacity: 10},
		{ID: "b", Capacity: 10},
		{ID: "c", Capacity: 10},
		{ID: "d", Capacity: 10},
	}

	assert.Empty(t, Combinations(rooms, 35, 3))
	assert.NotEmpty(t, Combinations(rooms, 35, 4))
}

func TestBestAvailableTakesLargestRooms(t *testing.T) {
	rooms := []Room{
		{ID: "small", Capacity: 10},
		{ID: "mid", Capacity: 20},
		{ID: "big", Capacity: 30},
	}

	best := BestAvailable(rooms, 2)
	assert.ElementsMatch(t, []string{"big", "mid"}, best.IDs())
	assert.Equal(t, 50, best.TotalCapacity())
}

func TestBestAvailableEmptyInventory(t *testing.T) {
	assert.Nil(t, BestAvailable(nil, 3))
}
