package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-planner-api/internal/dto"
	internalmiddleware "github.com/noah-isme/exam-planner-api/internal/middleware"
	"github.com/noah-isme/exam-planner-api/internal/models"
	"github.com/noah-isme/exam-planner-api/internal/timetable"
	appErrors "github.com/noah-isme/exam-planner-api/pkg/errors"
)

type timetablePlannerMock struct {
	generateReq dto.GenerateTimetableRequest
	saveReq     dto.SaveTimetableRequest
	saveUser    string
	listQuery   dto.ScheduleListQuery
	detailID    string
	deleteID    string

	generateErr error
	saveErr     error
	detailErr   error
}

func (m *timetablePlannerMock) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	m.generateReq = req
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return &dto.GenerateTimetableResponse{
		ProposalID: "proposal-1",
		Result:     &timetable.Result{Status: timetable.StatusSuccess},
	}, nil
}

func (m *timetablePlannerMock) Save(ctx context.Context, req dto.SaveTimetableRequest, userID string) (*dto.SaveTimetableResponse, error) {
	m.saveReq = req
	m.saveUser = userID
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	return &dto.SaveTimetableResponse{ScheduleID: "sched-1", Blocks: 2}, nil
}

func (m *timetablePlannerMock) List(ctx context.Context, query dto.ScheduleListQuery) ([]dto.ScheduleSummary, *models.Pagination, error) {
	m.listQuery = query
	return []dto.ScheduleSummary{{ID: "sched-1"}}, &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: 1}, nil
}

func (m *timetablePlannerMock) Detail(ctx context.Context, id string) (*dto.ScheduleDetailResponse, error) {
	m.detailID = id
	if m.detailErr != nil {
		return nil, m.detailErr
	}
	return &dto.ScheduleDetailResponse{}, nil
}

func (m *timetablePlannerMock) Delete(ctx context.Context, id string) error {
	m.deleteID = id
	return nil
}

func validGeneratePayload() []byte {
	return []byte(`{
		"departmentName": "Computer Engineering",
		"examType": "Midterm",
		"startDate": "2026-10-05",
		"endDate": "2026-10-09",
		"roster": [{"courseId": "alg", "name": "Algorithms", "classYear": "2", "students": [{"studentNum": "s1"}, {"studentNum": "s2"}]}],
		"rooms": [{"roomId": "r1", "name": "A101", "capacity": 40}]
	}`)
}

func TestTimetableGenerateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetablePlannerMock{}
	h := &TimetableHandler{timetables: mockSvc}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader(validGeneratePayload()))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Computer Engineering", mockSvc.generateReq.DepartmentName)
	require.Equal(t, "Midterm", mockSvc.generateReq.ExamType)
	require.Contains(t, w.Body.String(), "proposal-1")
}

func TestTimetableGenerateMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &TimetableHandler{timetables: &timetablePlannerMock{}}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader([]byte(`{"departmentName":`)))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableGenerateInfeasible(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetablePlannerMock{generateErr: appErrors.Clone(appErrors.ErrInfeasible, "no courses to schedule")}
	h := &TimetableHandler{timetables: mockSvc}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader(validGeneratePayload()))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Generate(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), "no courses to schedule")
}

func TestTimetableSaveForwardsUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetablePlannerMock{}
	h := &TimetableHandler{timetables: mockSvc}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/timetables", bytes.NewReader([]byte(`{"proposalId":"proposal-1"}`)))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "user-9", Role: models.RoleStaff})

	h.Save(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "proposal-1", mockSvc.saveReq.ProposalID)
	require.Equal(t, "user-9", mockSvc.saveUser)
}

func TestTimetableSaveExpiredProposal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetablePlannerMock{saveErr: appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")}
	h := &TimetableHandler{timetables: mockSvc}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/timetables", bytes.NewReader([]byte(`{"proposalId":"gone"}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Save(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduleListQueryDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetablePlannerMock{}
	h := &TimetableHandler{timetables: mockSvc}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/schedules?departmentName=CE&page=2&pageSize=5", nil)

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "CE", mockSvc.listQuery.DepartmentName)
	require.Equal(t, 2, mockSvc.listQuery.Page)
	require.Equal(t, 5, mockSvc.listQuery.PageSize)
	require.Contains(t, w.Body.String(), "pagination")
}

func TestScheduleDetailNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetablePlannerMock{detailErr: appErrors.Clone(appErrors.ErrNotFound, "exam schedule not found")}
	h := &TimetableHandler{timetables: mockSvc}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/schedules/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.Detail(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "missing", mockSvc.detailID)
}

func TestScheduleDeleteRequiresAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetablePlannerMock{}
	h := &TimetableHandler{timetables: mockSvc}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleStaff})
		c.Next()
	})
	router.DELETE("/schedules/:id", internalmiddleware.RequireRoles(models.RoleAdmin), h.Delete)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/schedules/sched-1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	require.Empty(t, mockSvc.deleteID)
}

func TestScheduleDeleteAsAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetablePlannerMock{}
	h := &TimetableHandler{timetables: mockSvc}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
		c.Next()
	})
	router.DELETE("/schedules/:id", internalmiddleware.RequireRoles(models.RoleAdmin), h.Delete)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/schedules/sched-1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "sched-1", mockSvc.deleteID)
}
