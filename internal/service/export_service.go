package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-planner-api/internal/dto"
	"github.com/noah-isme/exam-planner-api/internal/models"
	"github.com/noah-isme/exam-planner-api/internal/timetable"
	appErrors "github.com/noah-isme/exam-planner-api/pkg/errors"
	"github.com/noah-isme/exam-planner-api/pkg/export"
	"github.com/noah-isme/exam-planner-api/pkg/jobs"
	"github.com/noah-isme/exam-planner-api/pkg/storage"
)

type scheduleDetailProvider interface {
	Detail(ctx context.Context, scheduleID string) (*dto.ScheduleDetailResponse, error)
}

type exportQueue interface {
	Enqueue(job jobs.Job) error
}

type exportMetrics interface {
	ObserveExport(format, outcome string)
}

// ExportService renders saved schedules to CSV or PDF in the background and
// hands out signed download URLs.
type ExportService struct {
	schedules scheduleDetailProvider
	queue     exportQueue
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	metrics   exportMetrics
	logger    *zap.Logger

	mu   sync.RWMutex
	jobs map[string]*models.ExportJob
}

// NewExportService wires export dependencies.
func NewExportService(
	schedules scheduleDetailProvider,
	queue exportQueue,
	store *storage.LocalStorage,
	signer *storage.SignedURLSigner,
	metrics exportMetrics,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		schedules: schedules,
		queue:     queue,
		store:     store,
		signer:    signer,
		metrics:   metrics,
		logger:    logger,
		jobs:      make(map[string]*models.ExportJob),
	}
}

// Enqueue registers an export job and schedules the rendering work.
func (s *ExportService) Enqueue(ctx context.Context, scheduleID string, format models.ExportFormat, userID string) (*dto.ExportJobResponse, error) {
	if format != models.ExportFormatCSV && format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	// fail fast before queueing work for a schedule that does not exist
	if _, err := s.schedules.Detail(ctx, scheduleID); err != nil {
		return nil, err
	}

	job := &models.ExportJob{
		ID:         uuid.NewString(),
		ScheduleID: scheduleID,
		Format:     format,
		Status:     models.ExportStatusQueued,
		CreatedBy:  userID,
		CreatedAt:  time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{
		ID:      job.ID,
		Type:    "timetable-export",
		Payload: job.ID,
	}); err != nil {
		s.setFailed(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export")
	}

	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status}, nil
}

// Status returns the job state, with a signed URL once the file is ready.
func (s *ExportService) Status(jobID string) (*dto.ExportStatusResponse, error) {
	s.mu.RLock()
	job, ok := s.jobs[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}

	resp := &dto.ExportStatusResponse{
		ID:     job.ID,
		Status: job.Status,
		Error:  job.ErrorMessage,
	}
	if job.Status == models.ExportStatusFinished && job.FileName != "" && s.signer != nil {
		token, _, err := s.signer.Generate(job.ID, job.FileName)
		if err == nil {
			url := "/api/v1/exports/download?token=" + token
			resp.ResultURL = &url
		}
	}
	return resp, nil
}

// Open validates a signed token and opens the exported file for download.
func (s *ExportService) Open(token string) (*os.File, string, error) {
	if s.signer == nil || s.store == nil {
		return nil, "", appErrors.Clone(appErrors.ErrPreconditionFailed, "exports are disabled")
	}
	jobID, fileName, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}
	s.mu.RLock()
	_, ok := s.jobs[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	handle, err := s.store.Open(fileName)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}
	return handle, fileName, nil
}

// Handle is the queue worker entrypoint.
func (s *ExportService) Handle(ctx context.Context, job jobs.Job) error {
	jobID, _ := job.Payload.(string)
	s.mu.RLock()
	record, ok := s.jobs[jobID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("export job %s not tracked", jobID)
	}

	s.setStatus(jobID, models.ExportStatusProcessing)

	detail, err := s.schedules.Detail(ctx, record.ScheduleID)
	if err != nil {
		s.setFailed(jobID, err)
		s.observe(record.Format, "failed")
		return err
	}

	var payload []byte
	var fileName string
	switch record.Format {
	case models.ExportFormatCSV:
		payload, err = renderScheduleCSV(detail)
		fileName = fmt.Sprintf("%s-%s.csv", record.ScheduleID, jobID)
	case models.ExportFormatPDF:
		payload, err = renderSeatingPDF(detail)
		fileName = fmt.Sprintf("%s-%s.pdf", record.ScheduleID, jobID)
	default:
		err = fmt.Errorf("unsupported export format %q", record.Format)
	}
	if err != nil {
		s.setFailed(jobID, err)
		s.observe(record.Format, "failed")
		return err
	}

	if _, err := s.store.Save(fileName, payload); err != nil {
		s.setFailed(jobID, err)
		s.observe(record.Format, "failed")
		return err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	record.Status = models.ExportStatusFinished
	record.FileName = fileName
	record.FinishedAt = &now
	s.mu.Unlock()
	s.observe(record.Format, "finished")

	s.logger.Info("export finished",
		zap.String("jobId", jobID),
		zap.String("file", fileName))
	return nil
}

// CleanupOlderThan drops finished job records and files past the retention
// window.
func (s *ExportService) CleanupOlderThan(age time.Duration) {
	cutoff := time.Now().UTC().Add(-age)
	s.mu.Lock()
	for id, job := range s.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
	s.mu.Unlock()
	if s.store != nil {
		if removed, err := s.store.CleanupOlderThan(age); err != nil {
			s.logger.Warn("export cleanup failed", zap.Error(err))
		} else if len(removed) > 0 {
			s.logger.Info("export files removed", zap.Int("count", len(removed)))
		}
	}
}

func (s *ExportService) observe(format models.ExportFormat, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveExport(string(format), outcome)
	}
}

func (s *ExportService) setStatus(jobID string, status models.ExportStatus) {
	s.mu.Lock()
	if job, ok := s.jobs[jobID]; ok {
		job.Status = status
	}
	s.mu.Unlock()
}

func (s *ExportService) setFailed(jobID string, cause error) {
	msg := cause.Error()
	now := time.Now().UTC()
	s.mu.Lock()
	if job, ok := s.jobs[jobID]; ok {
		job.Status = models.ExportStatusFailed
		job.ErrorMessage = &msg
		job.FinishedAt = &now
	}
	s.mu.Unlock()
}

func renderScheduleCSV(detail *dto.ScheduleDetailResponse) ([]byte, error) {
	dataset := export.Dataset{
		Headers: []string{"course_id", "course_name", "class_year", "exam_date", "start_time", "end_time", "duration", "rooms", "students"},
	}
	for _, block := range detail.Schedule {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"course_id":   block.CourseID,
			"course_name": block.CourseName,
			"class_year":  block.ClassYear,
			"exam_date":   block.ExamDate,
			"start_time":  block.StartTime,
			"end_time":    block.EndTime,
			"duration":    fmt.Sprintf("%d", block.Duration),
			"rooms":       strings.Join(block.Rooms, " "),
			"students":    fmt.Sprintf("%d", block.StudentCount),
		})
	}

	exporter := export.NewCSVExporter()
	exporter.ExcelCompatible = true
	return exporter.Render(dataset)
}

func renderSeatingPDF(detail *dto.ScheduleDetailResponse) ([]byte, error) {
	var grids []export.RoomGrid
	for _, block := range detail.Schedule {
		roomIDs := make([]string, 0, len(block.SeatingPlan))
		for roomID := range block.SeatingPlan {
			roomIDs = append(roomIDs, roomID)
		}
		sort.Strings(roomIDs)
		for _, roomID := range roomIDs {
			grid := block.SeatingPlan[roomID]
			cells := make([][]string, grid.Rows)
			for r := 0; r < grid.Rows; r++ {
				cells[r] = make([]string, grid.Cols)
				for c := 0; c < grid.Cols; c++ {
					switch cell := grid.Cells[r][c]; {
					case cell.Kind == timetable.CellCorridor:
						cells[r][c] = "|"
					case cell.StudentID != "":
						cells[r][c] = cell.StudentID
					default:
						cells[r][c] = ""
					}
				}
			}
			grids = append(grids, export.RoomGrid{
				Room:  fmt.Sprintf("%s / %s %s", block.CourseName, block.ExamDate, roomID),
				Cells: cells,
			})
		}
	}

	title := fmt.Sprintf("%s %s seating plan", detail.DepartmentName, detail.ExamType)
	return export.NewPDFExporter().RenderSeating(title, grids)
}
