package models

import "github.com/noah-isme/exam-planner-api/internal/timetable"

// Classroom is the persisted room inventory record. Desk layout columns are
// nullable because legacy rows predate layout-based capacity.
type Classroom struct {
	ID             string `db:"classroom_id" json:"classroom_id"`
	Name           string `db:"classroom_name" json:"classroom_name"`
	DepartmentName string `db:"department_name" json:"department_name"`
	Capacity       int    `db:"capacity" json:"capacity"`
	DesksPerRow    *int   `db:"desks_per_row" json:"desks_per_row,omitempty"`
	DesksPerColumn *int   `db:"desk_per_column" json:"desk_per_column,omitempty"`
	DeskStructure  *int   `db:"desk_structure" json:"desk_structure,omitempty"`
}

// ToRoom converts the inventory record into the scheduler's room shape.
func (c Classroom) ToRoom() timetable.Room {
	room := timetable.Room{
		ID:       c.ID,
		Name:     c.Name,
		Capacity: c.Capacity,
	}
	if c.DesksPerRow != nil {
		room.DesksPerRow = *c.DesksPerRow
	}
	if c.DesksPerColumn != nil {
		room.DesksPerColumn = *c.DesksPerColumn
	}
	if c.DeskStructure != nil {
		room.DeskStructure = *c.DeskStructure
	}
	return room
}
