package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-planner-api/internal/dto"
	"github.com/noah-isme/exam-planner-api/internal/models"
	"github.com/noah-isme/exam-planner-api/internal/repository"
	"github.com/noah-isme/exam-planner-api/internal/timetable"
	appErrors "github.com/noah-isme/exam-planner-api/pkg/errors"
)

type fakeScheduleStore struct {
	saved       *models.ExamSchedule
	savedBlocks []repository.SavedBlock
	schedules   []models.ExamSchedule
	blocks      map[string][]models.ExamBlock
	rooms       map[string][]models.ExamBlockRoom
	seats       map[string][]models.ExamSeat
}

func (f *fakeScheduleStore) Save(_ context.Context, schedule *models.ExamSchedule, blocks []repository.SavedBlock) error {
	schedule.ID = "sched-1"
	f.saved = schedule
	f.savedBlocks = blocks
	return nil
}

func (f *fakeScheduleStore) List(_ context.Context, _ repository.ListFilter) ([]models.ExamSchedule, int, error) {
	return f.schedules, len(f.schedules), nil
}

func (f *fakeScheduleStore) FindByID(_ context.Context, id string) (*models.ExamSchedule, error) {
	for i := range f.schedules {
		if f.schedules[i].ID == id {
			return &f.schedules[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "exam schedule not found")
}

func (f *fakeScheduleStore) Blocks(_ context.Context, scheduleID string) ([]models.ExamBlock, error) {
	return f.blocks[scheduleID], nil
}

func (f *fakeScheduleStore) BlockRooms(_ context.Context, blockID string) ([]models.ExamBlockRoom, error) {
	return f.rooms[blockID], nil
}

func (f *fakeScheduleStore) BlockSeats(_ context.Context, blockID string) ([]models.ExamSeat, error) {
	return f.seats[blockID], nil
}

func (f *fakeScheduleStore) Delete(_ context.Context, _ string) error { return nil }

type fakeClassrooms struct {
	rooms []models.Classroom
}

func (f *fakeClassrooms) ListByDepartment(_ context.Context, _ string) ([]models.Classroom, error) {
	return f.rooms, nil
}

func (f *fakeClassrooms) FindByID(_ context.Context, id string) (*models.Classroom, error) {
	for i := range f.rooms {
		if f.rooms[i].ID == id {
			return &f.rooms[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
}

type fakeCache struct {
	items map[string][]byte
	sets  int
	hits  int
}

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := f.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	f.hits++
	return json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if f.items == nil {
		f.items = map[string][]byte{}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.items[key] = raw
	f.sets++
	return nil
}

func generateRequest() dto.GenerateTimetableRequest {
	return dto.GenerateTimetableRequest{
		DepartmentName: "Computer Engineering",
		ExamType:       "Midterm",
		StartDate:      "2026-10-05",
		EndDate:        "2026-10-09",
		Roster: []dto.RosterCourseRequest{
			{CourseID: "c1", Name: "Algorithms", ClassYear: "year-2", Students: []dto.RosterStudentRequest{
				{StudentNumber: "s1"}, {StudentNumber: "s2"},
			}},
			{CourseID: "c2", Name: "Databases", ClassYear: "year-3", Students: []dto.RosterStudentRequest{
				{StudentNumber: "s2"}, {StudentNumber: "s3"},
			}},
		},
		Rooms: []dto.RoomRequest{
			{RoomID: "r1", Name: "Hall A", DesksPerRow: 4, DesksPerColumn: 3, DeskStructure: 2},
		},
	}
}

func newTimetableServiceFixture(store *fakeScheduleStore, cache *fakeCache) *TimetableService {
	var c resultCache
	if cache != nil {
		c = cache
	}
	return NewTimetableService(nil, &fakeClassrooms{}, store, c, nil, nil, nil, TimetableConfig{})
}

func TestTimetableServiceGenerateReturnsProposal(t *testing.T) {
	service := newTimetableServiceFixture(&fakeScheduleStore{}, nil)

	resp, err := service.Generate(context.Background(), generateRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ProposalID)
	require.NotNil(t, resp.Result)
	assert.Equal(t, timetable.StatusSuccess, resp.Result.Status)
	assert.Len(t, resp.Result.Schedule, 2)
}

func TestTimetableServiceGenerateRejectsInvalidPayload(t *testing.T) {
	service := newTimetableServiceFixture(&fakeScheduleStore{}, nil)

	_, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{
		ExamType:  "Midterm",
		StartDate: "2026-10-05",
		EndDate:   "2026-10-09",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceGenerateCachesResult(t *testing.T) {
	cache := &fakeCache{}
	service := newTimetableServiceFixture(&fakeScheduleStore{}, cache)

	req := generateRequest()
	_, err := service.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	_, err = service.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 1, cache.hits)
}

func TestTimetableServiceSeededRequestsBypassCache(t *testing.T) {
	cache := &fakeCache{}
	service := newTimetableServiceFixture(&fakeScheduleStore{}, cache)

	seed := int64(42)
	req := generateRequest()
	req.Seed = &seed

	_, err := service.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, cache.sets)
}

func TestTimetableServiceSavePersistsProposal(t *testing.T) {
	store := &fakeScheduleStore{}
	service := newTimetableServiceFixture(store, nil)

	generated, err := service.Generate(context.Background(), generateRequest())
	require.NoError(t, err)

	saved, err := service.Save(context.Background(), dto.SaveTimetableRequest{
		ProposalID: generated.ProposalID,
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "sched-1", saved.ScheduleID)
	assert.Equal(t, 2, saved.Blocks)

	require.NotNil(t, store.saved)
	assert.Equal(t, "Computer Engineering", store.saved.DepartmentName)
	assert.Equal(t, "admin-1", store.saved.CreatedBy)
	require.Len(t, store.savedBlocks, 2)

	for _, block := range store.savedBlocks {
		assert.NotEmpty(t, block.Rooms)
		assert.NotEmpty(t, block.Students)
		for _, seat := range block.Seats {
			assert.GreaterOrEqual(t, seat.RowNumber, 1)
			assert.GreaterOrEqual(t, seat.ColumnNumber, 1)
		}
	}

	// a proposal can be saved once
	_, err = service.Save(context.Background(), dto.SaveTimetableRequest{
		ProposalID: generated.ProposalID,
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceSaveUnknownProposal(t *testing.T) {
	service := newTimetableServiceFixture(&fakeScheduleStore{}, nil)

	_, err := service.Save(context.Background(), dto.SaveTimetableRequest{ProposalID: "ghost"}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceDetailRebuildsSeating(t *testing.T) {
	desksPerRow, desksPerColumn, structure := 4, 3, 2
	store := &fakeScheduleStore{
		schedules: []models.ExamSchedule{{
			ID:             "sched-1",
			DepartmentName: "CE",
			ExamType:       "Final",
			StartDate:      time.Now(),
			EndDate:        time.Now(),
			Status:         "success",
			CreatedAt:      time.Now(),
		}},
		blocks: map[string][]models.ExamBlock{
			"sched-1": {{
				ID:           "block-1",
				ScheduleID:   "sched-1",
				CourseID:     "c1",
				CourseName:   "Algorithms",
				ExamDate:     "2026-10-05",
				StartTime:    "09:00",
				EndTime:      "10:15",
				Duration:     75,
				StudentCount: 2,
			}},
		},
		rooms: map[string][]models.ExamBlockRoom{
			"block-1": {{BlockID: "block-1", ClassroomID: "r1"}},
		},
		seats: map[string][]models.ExamSeat{
			"block-1": {
				{BlockID: "block-1", ClassroomID: "r1", StudentNumber: "s1", RowNumber: 1, ColumnNumber: 1},
				{BlockID: "block-1", ClassroomID: "r1", StudentNumber: "s2", RowNumber: 2, ColumnNumber: 1},
			},
		},
	}
	rooms := &fakeClassrooms{rooms: []models.Classroom{{
		ID:             "r1",
		Name:           "Hall A",
		Capacity:       12,
		DesksPerRow:    &desksPerRow,
		DesksPerColumn: &desksPerColumn,
		DeskStructure:  &structure,
	}}}
	service := NewTimetableService(nil, rooms, store, nil, nil, nil, nil, TimetableConfig{})

	detail, err := service.Detail(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Len(t, detail.Schedule, 1)

	grid := detail.Schedule[0].SeatingPlan["r1"]
	require.NotNil(t, grid)
	assert.Equal(t, "s1", grid.Cells[0][0].StudentID)
	assert.Equal(t, "s2", grid.Cells[1][0].StudentID)
	assert.Equal(t, timetable.CellCorridor, grid.Cells[0][1].Kind)
	assert.Equal(t, timetable.CellEmpty, grid.Cells[2][0].Kind)
}
