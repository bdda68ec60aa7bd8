package models

import "time"

// ExportFormat enumerates the timetable export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus captures the lifecycle of a background export.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob tracks one asynchronous timetable export.
type ExportJob struct {
	ID           string       `json:"id"`
	ScheduleID   string       `json:"schedule_id"`
	Format       ExportFormat `json:"format"`
	Status       ExportStatus `json:"status"`
	FileName     string       `json:"file_name,omitempty"`
	ResultURL    *string      `json:"result_url,omitempty"`
	CreatedBy    string       `json:"created_by"`
	CreatedAt    time.Time    `json:"created_at"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
}
