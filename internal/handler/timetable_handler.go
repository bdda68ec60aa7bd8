package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-planner-api/internal/dto"
	"github.com/noah-isme/exam-planner-api/internal/middleware"
	"github.com/noah-isme/exam-planner-api/internal/models"
	"github.com/noah-isme/exam-planner-api/internal/service"
	appErrors "github.com/noah-isme/exam-planner-api/pkg/errors"
	"github.com/noah-isme/exam-planner-api/pkg/response"
)

type timetablePlanner interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	Save(ctx context.Context, req dto.SaveTimetableRequest, userID string) (*dto.SaveTimetableResponse, error)
	List(ctx context.Context, query dto.ScheduleListQuery) ([]dto.ScheduleSummary, *models.Pagination, error)
	Detail(ctx context.Context, id string) (*dto.ScheduleDetailResponse, error)
	Delete(ctx context.Context, id string) error
}

// TimetableHandler exposes timetable generation and schedule endpoints.
type TimetableHandler struct {
	timetables timetablePlanner
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(timetables *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{timetables: timetables}
}

// Generate godoc
// @Summary Generate an exam timetable proposal
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation parameters"
// @Success 200 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed request body"))
		return
	}
	resp, err := h.timetables.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Save godoc
// @Summary Persist a generated proposal
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.SaveTimetableRequest true "Proposal reference"
// @Success 201 {object} response.Envelope
// @Router /timetables [post]
func (h *TimetableHandler) Save(c *gin.Context) {
	var req dto.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed request body"))
		return
	}
	userID := ""
	if claims, ok := middleware.CurrentUser(c); ok {
		userID = claims.UserID
	}
	resp, err := h.timetables.Save(c.Request.Context(), req, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, resp, nil)
}

// List godoc
// @Summary List saved schedules
// @Tags Timetables
// @Produce json
// @Param departmentName query string false "Department filter"
// @Param examType query string false "Exam type filter"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *TimetableHandler) List(c *gin.Context) {
	query := dto.ScheduleListQuery{
		DepartmentName: c.Query("departmentName"),
		ExamType:       c.Query("examType"),
	}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	summaries, pagination, err := h.timetables.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, pagination)
}

// Detail godoc
// @Summary Load one saved schedule with seating plans
// @Tags Timetables
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *TimetableHandler) Detail(c *gin.Context) {
	detail, err := h.timetables.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Delete a saved schedule
// @Tags Timetables
// @Param id path string true "Schedule ID"
// @Success 204 {object} nil
// @Router /schedules/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.timetables.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
