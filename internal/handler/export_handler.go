package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-planner-api/internal/dto"
	"github.com/noah-isme/exam-planner-api/internal/middleware"
	"github.com/noah-isme/exam-planner-api/internal/models"
	"github.com/noah-isme/exam-planner-api/internal/service"
	appErrors "github.com/noah-isme/exam-planner-api/pkg/errors"
	"github.com/noah-isme/exam-planner-api/pkg/response"
)

type scheduleExporter interface {
	Enqueue(ctx context.Context, scheduleID string, format models.ExportFormat, userID string) (*dto.ExportJobResponse, error)
	Status(jobID string) (*dto.ExportStatusResponse, error)
	Open(token string) (*os.File, string, error)
}

// ExportHandler exposes asynchronous schedule export endpoints.
type ExportHandler struct {
	exports scheduleExporter
}

// NewExportHandler constructs handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Enqueue godoc
// @Summary Queue a CSV or PDF export of a saved schedule
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.ExportRequest true "Export options"
// @Success 202 {object} response.Envelope
// @Router /schedules/{id}/exports [post]
func (h *ExportHandler) Enqueue(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed request body"))
		return
	}
	userID := ""
	if claims, ok := middleware.CurrentUser(c); ok {
		userID = claims.UserID
	}
	job, err := h.exports.Enqueue(c.Request.Context(), c.Param("id"), req.Format, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Status godoc
// @Summary Poll an export job
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	status, err := h.exports.Status(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download an exported file with a signed token
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token required"))
		return
	}
	file, name, err := h.exports.Open(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	contentType := "application/octet-stream"
	switch {
	case strings.HasSuffix(name, ".csv"):
		contentType = "text/csv"
	case strings.HasSuffix(name, ".pdf"):
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("Content-Type", contentType)
	http.ServeContent(c.Writer, c.Request, name, statModTime(file), file)
}

func statModTime(file *os.File) time.Time {
	if info, err := file.Stat(); err == nil {
		return info.ModTime()
	}
	return time.Time{}
}
