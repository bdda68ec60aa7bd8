package timetable

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/exam-planner-api/pkg/errors"
)

// SeatCell is one desk position. Exactly one of three states: a seat
// (occupied or vacant), a deliberately unfilled position, or a corridor lane.
type SeatCell struct {
	Kind      string `json:"-"`
	StudentID string `json:"-"`
}

const (
	CellSeat     = "seat"
	CellEmpty    = "empty"
	CellCorridor = "corridor"
)

// MarshalJSON emits `{"studentId": "..."}` for an occupied seat and the bare
// strings "empty" and "corridor" otherwise. A vacant seat serializes as
// "empty" too so the wire shape stays a three-variant union.
func (c SeatCell) MarshalJSON() ([]byte, error) {
	switch {
	case c.Kind == CellCorridor:
		return json.Marshal(CellCorridor)
	case c.Kind == CellSeat && c.StudentID != "":
		return json.Marshal(struct {
			StudentID string `json:"studentId"`
		}{c.StudentID})
	default:
		return json.Marshal(CellEmpty)
	}
}

func (c *SeatCell) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		switch tag {
		case CellCorridor:
			*c = SeatCell{Kind: CellCorridor}
		case CellEmpty:
			*c = SeatCell{Kind: CellEmpty}
		default:
			return errors.Clone(errors.ErrValidation, fmt.Sprintf("unknown seat cell tag %q", tag))
		}
		return nil
	}
	var occupied struct {
		StudentID string `json:"studentId"`
	}
	if err := json.Unmarshal(data, &occupied); err != nil {
		return errors.Wrap(err, errors.ErrValidation.Code, errors.ErrValidation.Status, "malformed seat cell")
	}
	*c = SeatCell{Kind: CellSeat, StudentID: occupied.StudentID}
	return nil
}

// SeatGrid is the full desk layout of one room for one exam. Cells are
// addressed [row][column]; serialization flattens them under "row,col" keys
// with 1-based coordinates.
type SeatGrid struct {
	RoomID string
	Rows   int
	Cols   int
	Cells  [][]SeatCell
}

type seatGridWire struct {
	RoomID string                     `json:"roomId"`
	Rows   int                        `json:"rows"`
	Cols   int                        `json:"cols"`
	Cells  map[string]json.RawMessage `json:"cells"`
}

func (g *SeatGrid) MarshalJSON() ([]byte, error) {
	wire := seatGridWire{
		RoomID: g.RoomID,
		Rows:   g.Rows,
		Cols:   g.Cols,
		Cells:  make(map[string]json.RawMessage, g.Rows*g.Cols),
	}
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			raw, err := json.Marshal(g.Cells[r][c])
			if err != nil {
				return nil, err
			}
			wire.Cells[fmt.Sprintf("%d,%d", r+1, c+1)] = raw
		}
	}
	return json.Marshal(wire)
}

func (g *SeatGrid) UnmarshalJSON(data []byte) error {
	var wire seatGridWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return errors.Wrap(err, errors.ErrValidation.Code, errors.ErrValidation.Status, "malformed seat grid")
	}
	g.RoomID = wire.RoomID
	g.Rows = wire.Rows
	g.Cols = wire.Cols
	g.Cells = make([][]SeatCell, g.Rows)
	for r := range g.Cells {
		g.Cells[r] = make([]SeatCell, g.Cols)
	}
	for key, raw := range wire.Cells {
		parts := strings.SplitN(key, ",", 2)
		if len(parts) != 2 {
			return errors.Clone(errors.ErrValidation, fmt.Sprintf("malformed cell key %q", key))
		}
		row, err := strconv.Atoi(parts[0])
		if err != nil {
			return errors.Wrap(err, errors.ErrValidation.Code, errors.ErrValidation.Status, "malformed cell key")
		}
		col, err := strconv.Atoi(parts[1])
		if err != nil {
			return errors.Wrap(err, errors.ErrValidation.Code, errors.ErrValidation.Status, "malformed cell key")
		}
		if row < 1 || row > g.Rows || col < 1 || col > g.Cols {
			return errors.Clone(errors.ErrValidation, fmt.Sprintf("cell %q outside %dx%d grid", key, g.Rows, g.Cols))
		}
		var cell SeatCell
		if err := json.Unmarshal(raw, &cell); err != nil {
			return err
		}
		g.Cells[row-1][col-1] = cell
	}
	return nil
}

// SeatCount returns the number of seat-bearing cells in the grid.
func (g *SeatGrid) SeatCount() int {
	n := 0
	for _, row := range g.Cells {
		for _, cell := range row {
			if cell.Kind != CellCorridor {
				n++
			}
		}
	}
	return n
}

// Students lists the seated student IDs in column-major order, matching how
// the grid was filled.
func (g *SeatGrid) Students() []string {
	var out []string
	for c := 0; c < g.Cols; c++ {
		for r := 0; r < g.Rows; r++ {
			if g.Cells[r][c].StudentID != "" {
				out = append(out, g.Cells[r][c].StudentID)
			}
		}
	}
	return out
}

// NewGrid builds an unoccupied seat grid for the room. Callers rebuilding a
// persisted plan place students into Cells afterwards.
func NewGrid(room Room) *SeatGrid {
	return newSeatGrid(room)
}

// newSeatGrid lays out the room's desk pattern: the same column
// classification used for capacity, replicated across all rows. Rooms with no
// layout fall back to a single row of declared-capacity seats.
func newSeatGrid(room Room) *SeatGrid {
	rows, cols := room.DesksPerColumn, room.DesksPerRow
	if !room.HasLayout() {
		rows, cols = 1, room.Capacity
	}
	colKinds := seatColumns(cols, room.DeskStructure)
	if !room.HasLayout() {
		colKinds = make([]bool, cols)
		for i := range colKinds {
			colKinds[i] = true
		}
	}
	grid := &SeatGrid{RoomID: room.ID, Rows: rows, Cols: cols}
	grid.Cells = make([][]SeatCell, rows)
	for r := 0; r < rows; r++ {
		grid.Cells[r] = make([]SeatCell, cols)
		for c := 0; c < cols; c++ {
			if colKinds[c] {
				grid.Cells[r][c] = SeatCell{Kind: CellEmpty}
			} else {
				grid.Cells[r][c] = SeatCell{Kind: CellCorridor}
			}
		}
	}
	return grid
}

// fill seats students column-major, all rows of a seat-bearing column before
// the next column, and returns how many were taken.
func (g *SeatGrid) fill(students []string) int {
	i := 0
	for c := 0; c < g.Cols && i < len(students); c++ {
		for r := 0; r < g.Rows && i < len(students); r++ {
			if g.Cells[r][c].Kind == CellCorridor {
				break
			}
			g.Cells[r][c] = SeatCell{Kind: CellSeat, StudentID: students[i]}
			i++
		}
	}
	return i
}

// BuildSeating splits an assignment's students across its room combination
// in order, each room absorbing up to its own seat capacity. Students beyond
// the combination's total seats are dropped with a shortfall warning.
func BuildSeating(a *Assignment) []string {
	var warnings []string
	students := make([]string, len(a.students))
	copy(students, a.students)
	sort.Strings(students)

	a.Seating = make(map[string]*SeatGrid, len(a.Rooms))
	remaining := students
	for _, room := range a.Rooms {
		grid := newSeatGrid(room)
		taken := grid.fill(remaining)
		remaining = remaining[taken:]
		a.Seating[room.ID] = grid
	}
	if len(remaining) > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"'%s': %d students have no seat in rooms %s",
			a.CourseName, len(remaining), strings.Join(a.Rooms.IDs(), ", ")))
	}
	return warnings
}
