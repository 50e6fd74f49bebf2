package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/capstone-portal-api/internal/dto"
	"github.com/noah-isme/capstone-portal-api/internal/handler"
	"github.com/noah-isme/capstone-portal-api/internal/service"
)

type mockDashboardService struct {
	response dto.GroupDashboardResponse
	err      error
}

func (m *mockDashboardService) Get(_ context.Context, groupID uint) (dto.GroupDashboardResponse, error) {
	if m.err != nil {
		return dto.GroupDashboardResponse{}, m.err
	}
	m.response.GroupID = groupID
	return m.response, nil
}

func (m *mockDashboardService) Invalidate(context.Context, uint) {}

type mockAnnouncementService struct {
	lastCourse   uint
	lastPage     int
	lastPageSize int
	created      dto.AnnouncementCreateRequest
	response     dto.AnnouncementListResponse
	err          error
}

func (m *mockAnnouncementService) ListActive(_ context.Context, courseID uint, page, pageSize int) (dto.AnnouncementListResponse, error) {
	m.lastCourse = courseID
	m.lastPage = page
	m.lastPageSize = pageSize
	if m.err != nil {
		return dto.AnnouncementListResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockAnnouncementService) Create(_ context.Context, courseID uint, payload dto.AnnouncementCreateRequest) (dto.AnnouncementResponse, error) {
	m.lastCourse = courseID
	m.created = payload
	if m.err != nil {
		return dto.AnnouncementResponse{}, m.err
	}
	return dto.AnnouncementResponse{ID: 1, CourseID: courseID, Title: payload.Title}, nil
}

type mockAssignmentService struct {
	lastCourse uint
	created    dto.AssignmentCreateRequest
	err        error
}

func (m *mockAssignmentService) ListByCourse(_ context.Context, courseID uint) ([]dto.AssignmentResponse, error) {
	m.lastCourse = courseID
	return []dto.AssignmentResponse{{ID: 1, CourseID: courseID, Title: "Proposal"}}, m.err
}

func (m *mockAssignmentService) Get(_ context.Context, id uint) (dto.AssignmentResponse, error) {
	if m.err != nil {
		return dto.AssignmentResponse{}, m.err
	}
	return dto.AssignmentResponse{ID: id, Title: "Proposal"}, nil
}

func (m *mockAssignmentService) Create(_ context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	m.created = payload
	if m.err != nil {
		return dto.AssignmentResponse{}, m.err
	}
	return dto.AssignmentResponse{ID: 3, CourseID: payload.CourseID, Title: payload.Title}, nil
}

func TestGroupDashboardHandler_CacheHeader(t *testing.T) {
	svc := &mockDashboardService{response: dto.GroupDashboardResponse{GroupNumber: "7", CacheHit: true}}
	app := fiber.New()
	handler.NewGroupDashboardHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/groups"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/groups/7/dashboard", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "true", resp.Header.Get("X-Cache-Hit"))

	var response struct {
		Data dto.GroupDashboardResponse `json:"data"`
		Meta map[string]bool            `json:"meta"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, uint(7), response.Data.GroupID)
	require.True(t, response.Meta["cache_hit"])
}

func TestGroupDashboardHandler_NotFound(t *testing.T) {
	svc := &mockDashboardService{err: service.ErrGroupNotFound}
	app := fiber.New()
	handler.NewGroupDashboardHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/groups"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/groups/99/dashboard", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAnnouncementHandler_ListSuccess(t *testing.T) {
	svc := &mockAnnouncementService{response: dto.AnnouncementListResponse{
		Items:      []dto.AnnouncementResponse{{ID: 1, CourseID: 3, Title: "Defense schedule", StartsAt: time.Now()}},
		Pagination: dto.PaginationMeta{Page: 1, PageSize: 20, TotalItems: 1, TotalPages: 1},
	}}
	app := fiber.New()
	handler.NewAnnouncementHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/courses"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/courses/3/announcements", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "false", resp.Header.Get("X-Cache-Hit"))

	var body struct {
		Success bool                         `json:"success"`
		Data    dto.AnnouncementListResponse `json:"data"`
		Message string                       `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "announcements retrieved", body.Message)
	require.Len(t, body.Data.Items, 1)
	require.Equal(t, uint(3), svc.lastCourse)
	require.Equal(t, 1, svc.lastPage)
	require.Equal(t, 20, svc.lastPageSize)
}

func TestAnnouncementHandler_InvalidPage(t *testing.T) {
	svc := &mockAnnouncementService{}
	app := fiber.New()
	handler.NewAnnouncementHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/courses"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/courses/3/announcements?page=oops", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAnnouncementHandler_CreateRequiresStaff(t *testing.T) {
	svc := &mockAnnouncementService{}
	payload := `{"title":"Defense week","body":"Slots are open"}`

	app := fiber.New()
	handler.NewAnnouncementHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/courses", withIdentity(5, "student", "")))
	req := httptest.NewRequest(http.MethodPost, "/api/courses/3/announcements", strings.NewReader(payload))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	app = fiber.New()
	handler.NewAnnouncementHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/courses", withIdentity(5, "staff", "")))
	req = httptest.NewRequest(http.MethodPost, "/api/courses/3/announcements", strings.NewReader(payload))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "Defense week", svc.created.Title)
	require.Equal(t, uint(5), svc.created.AuthorID)
}

func TestAnnouncementHandler_CreateWindowError(t *testing.T) {
	svc := &mockAnnouncementService{err: service.ErrInvalidAnnouncementWindow}
	app := fiber.New()
	handler.NewAnnouncementHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/courses", withIdentity(5, "admin", "")))

	req := httptest.NewRequest(http.MethodPost, "/api/courses/3/announcements", strings.NewReader(`{"title":"Defense week","body":"Slots"}`))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func newAssignmentApp(svc *mockAssignmentService, role string) *fiber.App {
	app := fiber.New()
	api := app.Group("/api", withIdentity(1, role, ""))
	h := handler.NewAssignmentHandler(svc, zerolog.New(io.Discard))
	h.Register(api.Group("/assignments"))
	h.RegisterCourseRoutes(api.Group("/courses"))
	return app
}

func TestAssignmentHandler_ListByCourse(t *testing.T) {
	svc := &mockAssignmentService{}
	app := newAssignmentApp(svc, "student")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/courses/3/assignments", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(3), svc.lastCourse)
}

func TestAssignmentHandler_GetNotFound(t *testing.T) {
	app := newAssignmentApp(&mockAssignmentService{err: service.ErrAssignmentNotFound}, "student")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/assignments/8", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAssignmentHandler_Create(t *testing.T) {
	payload := `{"course_id":3,"title":"Final report","due_date":"2030-06-01T00:00:00Z","deliverables":[{"name":"Report","allowed_file_types":[{"type":"PDF","mime":"application/pdf"}]}]}`

	svc := &mockAssignmentService{}
	req := httptest.NewRequest(http.MethodPost, "/api/assignments", strings.NewReader(payload))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := newAssignmentApp(svc, "student").Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/assignments", strings.NewReader(payload))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err = newAssignmentApp(svc, "staff").Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(3), svc.created.CourseID)
	require.Len(t, svc.created.Deliverables, 1)
	require.Equal(t, "application/pdf", svc.created.Deliverables[0].AllowedFileTypes[0].MIME)
}

func TestAssignmentHandler_CreateDuplicateDeliverable(t *testing.T) {
	svc := &mockAssignmentService{err: service.ErrDuplicateDeliverable}
	req := httptest.NewRequest(http.MethodPost, "/api/assignments", strings.NewReader(`{"course_id":3}`))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := newAssignmentApp(svc, "admin").Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
