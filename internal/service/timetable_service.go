package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-planner-api/internal/dto"
	"github.com/noah-isme/exam-planner-api/internal/models"
	"github.com/noah-isme/exam-planner-api/internal/repository"
	"github.com/noah-isme/exam-planner-api/internal/timetable"
	appErrors "github.com/noah-isme/exam-planner-api/pkg/errors"
)

type rosterLoader interface {
	LoadRoster(ctx context.Context, departmentName string) ([]timetable.RosterCourse, error)
	InstructorByCourse(ctx context.Context, departmentName string) (map[string]*string, error)
}

type classroomReader interface {
	ListByDepartment(ctx context.Context, departmentName string) ([]models.Classroom, error)
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
}

type scheduleStore interface {
	Save(ctx context.Context, schedule *models.ExamSchedule, blocks []repository.SavedBlock) error
	List(ctx context.Context, filter repository.ListFilter) ([]models.ExamSchedule, int, error)
	FindByID(ctx context.Context, id string) (*models.ExamSchedule, error)
	Blocks(ctx context.Context, scheduleID string) ([]models.ExamBlock, error)
	BlockRooms(ctx context.Context, blockID string) ([]models.ExamBlockRoom, error)
	BlockSeats(ctx context.Context, blockID string) ([]models.ExamSeat, error)
	Delete(ctx context.Context, id string) error
}

type resultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type plannerMetrics interface {
	RecordCacheLookup(hit bool)
	ObservePlannerRun(status string, unplaced int, duration time.Duration)
}

// TimetableConfig governs planner service behaviour.
type TimetableConfig struct {
	ProposalTTL  time.Duration
	CacheTTL     time.Duration
	MaxRoomGroup int
}

// TimetableService orchestrates timetable generation, proposal retention,
// persistence, and retrieval.
type TimetableService struct {
	roster    rosterLoader
	rooms     classroomReader
	schedules scheduleStore
	cache     resultCache
	metrics   plannerMetrics
	validator *validator.Validate
	logger    *zap.Logger
	store     *proposalStore
	cfg       TimetableConfig
}

// NewTimetableService wires planner dependencies.
func NewTimetableService(
	roster rosterLoader,
	rooms classroomReader,
	schedules scheduleStore,
	cache resultCache,
	metrics plannerMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &TimetableService{
		roster:    roster,
		rooms:     rooms,
		schedules: schedules,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		store:     newProposalStore(cfg.ProposalTTL),
		cfg:       cfg,
	}
}

// Generate builds a timetable proposal and retains it for saving.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}

	cfg, err := buildPlannerConfig(req, s.cfg.MaxRoomGroup)
	if err != nil {
		return nil, err
	}

	roster, err := s.resolveRoster(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no courses found for this department")
	}

	rooms, err := s.resolveRooms(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no rooms found for this department")
	}

	result, err := s.runCached(ctx, req, timetable.RunInput{
		Config: cfg,
		Roster: roster,
		Rooms:  rooms,
		Seed:   req.Seed,
	})
	if err != nil {
		return nil, err
	}

	proposal := timetableProposal{
		ProposalID:     uuid.NewString(),
		DepartmentName: req.DepartmentName,
		ExamType:       req.ExamType,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Result:         result,
		RequestedAt:    time.Now(),
	}
	s.store.Save(proposal)

	s.logger.Info("timetable generated",
		zap.String("proposalId", proposal.ProposalID),
		zap.String("department", req.DepartmentName),
		zap.String("status", result.Status),
		zap.Int("placed", result.Statistics.PlacedCourses),
		zap.Int("unplaced", result.Statistics.UnplacedCourses))

	return &dto.GenerateTimetableResponse{
		ProposalID: proposal.ProposalID,
		Result:     result,
	}, nil
}

// runCached consults the result cache before running the engine. Seeded
// requests bypass the cache entirely since they are meant to differ.
func (s *TimetableService) runCached(ctx context.Context, req dto.GenerateTimetableRequest, in timetable.RunInput) (*timetable.Result, error) {
	var key string
	if s.cache != nil && req.Seed == nil {
		key = plannerCacheKey(req)
		var cached timetable.Result
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheLookup(true)
			}
			return &cached, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheLookup(false)
		}
	}

	started := time.Now()
	result, err := timetable.Run(in)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObservePlannerRun(result.Status, result.Statistics.UnplacedCourses, time.Since(started))
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, result, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("planner cache write failed", zap.Error(err))
		}
	}
	return result, nil
}

// Save persists a retained proposal inside one transaction.
func (s *TimetableService) Save(ctx context.Context, req dto.SaveTimetableRequest, userID string) (*dto.SaveTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save payload")
	}

	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}

	instructors := map[string]*string{}
	if s.roster != nil {
		if m, err := s.roster.InstructorByCourse(ctx, proposal.DepartmentName); err == nil {
			instructors = m
		} else {
			s.logger.Warn("instructor lookup failed", zap.Error(err))
		}
	}

	startDate, _ := time.Parse("2006-01-02", proposal.StartDate)
	endDate, _ := time.Parse("2006-01-02", proposal.EndDate)
	schedule := &models.ExamSchedule{
		DepartmentName: proposal.DepartmentName,
		ExamType:       proposal.ExamType,
		StartDate:      startDate,
		EndDate:        endDate,
		Status:         proposal.Result.Status,
		CreatedBy:      userID,
	}

	blocks := make([]repository.SavedBlock, 0, len(proposal.Result.Schedule))
	for _, a := range proposal.Result.Schedule {
		blocks = append(blocks, buildSavedBlock(a, instructors[a.CourseID]))
	}

	if err := s.schedules.Save(ctx, schedule, blocks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable")
	}
	s.store.Delete(req.ProposalID)

	s.logger.Info("timetable saved",
		zap.String("scheduleId", schedule.ID),
		zap.Int("blocks", len(blocks)))

	return &dto.SaveTimetableResponse{ScheduleID: schedule.ID, Blocks: len(blocks)}, nil
}

// List returns saved schedule summaries with pagination metadata.
func (s *TimetableService) List(ctx context.Context, query dto.ScheduleListQuery) ([]dto.ScheduleSummary, *models.Pagination, error) {
	filter := repository.ListFilter{
		DepartmentName: query.DepartmentName,
		ExamType:       query.ExamType,
		Page:           query.Page,
		PageSize:       query.PageSize,
	}
	schedules, total, err := s.schedules.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}

	summaries := make([]dto.ScheduleSummary, 0, len(schedules))
	for _, schedule := range schedules {
		summaries = append(summaries, scheduleSummary(schedule))
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return summaries, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Detail reassembles one saved schedule with its seating plans.
func (s *TimetableService) Detail(ctx context.Context, scheduleID string) (*dto.ScheduleDetailResponse, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	blocks, err := s.schedules.Blocks(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule blocks")
	}

	detail := &dto.ScheduleDetailResponse{
		ScheduleSummary: scheduleSummary(*schedule),
		Schedule:        make([]dto.ScheduleBlockResponse, 0, len(blocks)),
	}
	detail.Blocks = len(blocks)

	for _, block := range blocks {
		rooms, err := s.schedules.BlockRooms(ctx, block.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load block rooms")
		}
		seats, err := s.schedules.BlockSeats(ctx, block.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load block seating")
		}

		roomIDs := make([]string, 0, len(rooms))
		for _, room := range rooms {
			roomIDs = append(roomIDs, room.ClassroomID)
		}

		seating, err := s.rebuildSeating(ctx, seats)
		if err != nil {
			return nil, err
		}

		detail.Schedule = append(detail.Schedule, dto.ScheduleBlockResponse{
			CourseID:     block.CourseID,
			CourseName:   block.CourseName,
			ClassYear:    block.ClassYear,
			ExamDate:     block.ExamDate,
			StartTime:    block.StartTime,
			EndTime:      block.EndTime,
			Duration:     block.Duration,
			Instructor:   block.Instructor,
			StudentCount: block.StudentCount,
			Rooms:        roomIDs,
			SeatingPlan:  seating,
		})
	}
	return detail, nil
}

// Delete removes a saved schedule.
func (s *TimetableService) Delete(ctx context.Context, scheduleID string) error {
	return s.schedules.Delete(ctx, scheduleID)
}

// rebuildSeating reconstructs per-room seat grids from persisted occupied
// positions, re-deriving empty and corridor cells from the room layout.
func (s *TimetableService) rebuildSeating(ctx context.Context, seats []models.ExamSeat) (map[string]*timetable.SeatGrid, error) {
	if len(seats) == 0 {
		return nil, nil
	}
	grids := make(map[string]*timetable.SeatGrid)
	for _, seat := range seats {
		grid, ok := grids[seat.ClassroomID]
		if !ok {
			room, err := s.rooms.FindByID(ctx, seat.ClassroomID)
			if err != nil {
				return nil, err
			}
			grid = timetable.NewGrid(room.ToRoom())
			grids[seat.ClassroomID] = grid
		}
		r, c := seat.RowNumber-1, seat.ColumnNumber-1
		if r < 0 || r >= grid.Rows || c < 0 || c >= grid.Cols {
			s.logger.Warn("persisted seat outside room grid",
				zap.String("classroom", seat.ClassroomID),
				zap.Int("row", seat.RowNumber),
				zap.Int("col", seat.ColumnNumber))
			continue
		}
		grid.Cells[r][c] = timetable.SeatCell{Kind: timetable.CellSeat, StudentID: seat.StudentNumber}
	}
	return grids, nil
}

func (s *TimetableService) resolveRoster(ctx context.Context, req dto.GenerateTimetableRequest) ([]timetable.RosterCourse, error) {
	if len(req.Roster) > 0 {
		roster := make([]timetable.RosterCourse, 0, len(req.Roster))
		for _, course := range req.Roster {
			students := make([]timetable.RosterStudent, 0, len(course.Students))
			for _, student := range course.Students {
				students = append(students, timetable.RosterStudent{ID: student.StudentNumber, Name: student.FullName})
			}
			roster = append(roster, timetable.RosterCourse{
				ID:       course.CourseID,
				Name:     course.Name,
				ClassTag: course.ClassYear,
				Students: students,
			})
		}
		return roster, nil
	}
	if s.roster == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "roster must be supplied inline")
	}
	roster, err := s.roster.LoadRoster(ctx, req.DepartmentName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}

func (s *TimetableService) resolveRooms(ctx context.Context, req dto.GenerateTimetableRequest) ([]timetable.Room, error) {
	if len(req.Rooms) > 0 {
		rooms := make([]timetable.Room, 0, len(req.Rooms))
		for _, room := range req.Rooms {
			rooms = append(rooms, timetable.Room{
				ID:             room.RoomID,
				Name:           room.Name,
				Capacity:       room.Capacity,
				DesksPerRow:    room.DesksPerRow,
				DesksPerColumn: room.DesksPerColumn,
				DeskStructure:  room.DeskStructure,
			})
		}
		return rooms, nil
	}
	if s.rooms == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "rooms must be supplied inline")
	}
	classrooms, err := s.rooms.ListByDepartment(ctx, req.DepartmentName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	rooms := make([]timetable.Room, 0, len(classrooms))
	for _, classroom := range classrooms {
		rooms = append(rooms, classroom.ToRoom())
	}
	return rooms, nil
}

func buildPlannerConfig(req dto.GenerateTimetableRequest, maxRoomGroup int) (timetable.Config, error) {
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return timetable.Config{}, appErrors.Clone(appErrors.ErrValidation, "startDate must be YYYY-MM-DD")
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return timetable.Config{}, appErrors.Clone(appErrors.ErrValidation, "endDate must be YYYY-MM-DD")
	}

	dayStart, err := parseClock(req.DayStart)
	if err != nil {
		return timetable.Config{}, appErrors.Clone(appErrors.ErrValidation, "dayStart must be HH:MM")
	}
	dayEnd, err := parseClock(req.DayEnd)
	if err != nil {
		return timetable.Config{}, appErrors.Clone(appErrors.ErrValidation, "dayEnd must be HH:MM")
	}

	checkConflicts := true
	if req.CheckConflicts != nil {
		checkConflicts = *req.CheckConflicts
	}
	if req.MaxRoomGroup > 0 {
		maxRoomGroup = req.MaxRoomGroup
	}

	cfg := timetable.Config{
		StartDate:         startDate,
		EndDate:           endDate,
		ExcludedWeekdays:  req.ExcludedWeekdays,
		DayStart:          dayStart,
		DayEnd:            dayEnd,
		SlotsPerDay:       req.SlotsPerDay,
		DefaultDuration:   req.DefaultDuration,
		DurationOverrides: req.DurationOverride,
		Gap:               req.Gap,
		CheckConflicts:    checkConflicts,
		AllowSharedSlots:  req.AllowSharedSlots,
		ExcludedCourses:   req.ExcludedCourses,
		MaxRoomGroup:      maxRoomGroup,
	}
	return cfg, nil
}

func parseClock(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed clock %q", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock %q out of range", value)
	}
	return h*60 + m, nil
}

func buildSavedBlock(a *timetable.Assignment, instructor *string) repository.SavedBlock {
	saved := repository.SavedBlock{
		Block: models.ExamBlock{
			CourseID:     a.CourseID,
			CourseName:   a.CourseName,
			ClassYear:    a.ClassTag,
			ExamDate:     a.Day,
			StartTime:    a.StartTime,
			EndTime:      a.EndTime,
			Duration:     a.Duration,
			Instructor:   instructor,
			StudentCount: a.ExpectedStudents,
		},
	}
	for _, roomID := range a.Rooms.IDs() {
		saved.Rooms = append(saved.Rooms, models.ExamBlockRoom{ClassroomID: roomID})
	}
	seen := map[string]bool{}
	for roomID, grid := range a.Seating {
		for c := 0; c < grid.Cols; c++ {
			for r := 0; r < grid.Rows; r++ {
				cell := grid.Cells[r][c]
				if cell.StudentID == "" {
					continue
				}
				saved.Seats = append(saved.Seats, models.ExamSeat{
					ClassroomID:   roomID,
					StudentNumber: cell.StudentID,
					RowNumber:     r + 1,
					ColumnNumber:  c + 1,
				})
				if !seen[cell.StudentID] {
					seen[cell.StudentID] = true
					saved.Students = append(saved.Students, models.ExamBlockStudent{StudentNumber: cell.StudentID})
				}
			}
		}
	}
	return saved
}

func scheduleSummary(schedule models.ExamSchedule) dto.ScheduleSummary {
	return dto.ScheduleSummary{
		ID:             schedule.ID,
		DepartmentName: schedule.DepartmentName,
		ExamType:       schedule.ExamType,
		StartDate:      schedule.StartDate.Format("2006-01-02"),
		EndDate:        schedule.EndDate.Format("2006-01-02"),
		Status:         schedule.Status,
		CreatedAt:      schedule.CreatedAt.Format(time.RFC3339),
	}
}

// plannerCacheKey fingerprints the full request so identical inputs share one
// cached result.
func plannerCacheKey(req dto.GenerateTimetableRequest) string {
	payload, _ := json.Marshal(req)
	sum := sha256.Sum256(payload)
	return "planner:result:" + hex.EncodeToString(sum[:])
}

type timetableProposal struct {
	ProposalID     string
	DepartmentName string
	ExamType       string
	StartDate      string
	EndDate        string
	Result         *timetable.Result
	RequestedAt    time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]timetableProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]timetableProposal),
	}
}

func (s *proposalStore) Save(proposal timetableProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (timetableProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return timetableProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return timetableProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
