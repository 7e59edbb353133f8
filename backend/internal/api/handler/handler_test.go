package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"plantao/backend/internal/dto"
	"plantao/backend/internal/service"
	"plantao/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock PostingService ──

type mockPostingService struct {
	posting    *dto.PostingResponse
	list       []dto.PostingResponse
	total      int64
	app        *dto.ApplicationResponse
	apps       []dto.ApplicationResponse
	confirm    *dto.ConfirmResult
	err        error
	views      int
	lastCaller string
	lastReply  *dto.ReplyWebhookRequest
}

func (m *mockPostingService) Create(_ context.Context, _ *dto.CreatePostingRequest, callerID string) (*dto.PostingResponse, error) {
	m.lastCaller = callerID
	return m.posting, m.err
}
func (m *mockPostingService) Publish(_ context.Context, _, _ string) (*dto.PostingResponse, error) {
	return m.posting, m.err
}
func (m *mockPostingService) Get(_ context.Context, _ string) (*dto.PostingResponse, error) {
	return m.posting, m.err
}
func (m *mockPostingService) List(_ context.Context, _ *dto.ListPostingsQuery, _ string) ([]dto.PostingResponse, int64, error) {
	return m.list, m.total, m.err
}
func (m *mockPostingService) Apply(_ context.Context, _, professionalID string, _ *dto.ApplyRequest) (*dto.ApplicationResponse, error) {
	m.lastCaller = professionalID
	return m.app, m.err
}
func (m *mockPostingService) Withdraw(_ context.Context, _, _ string) error { return m.err }
func (m *mockPostingService) ListApplications(_ context.Context, _, _ string) ([]dto.ApplicationResponse, error) {
	return m.apps, m.err
}
func (m *mockPostingService) ListMyApplications(_ context.Context, _ string) ([]dto.ApplicationResponse, error) {
	return m.apps, m.err
}
func (m *mockPostingService) Choose(_ context.Context, _, _, _ string) (*dto.PostingResponse, error) {
	return m.posting, m.err
}
func (m *mockPostingService) Confirm(_ context.Context, _ string, _ *dto.ConfirmRequest) (*dto.ConfirmResult, error) {
	return m.confirm, m.err
}
func (m *mockPostingService) ConfirmByReply(_ context.Context, req *dto.ReplyWebhookRequest) (*dto.ConfirmResult, error) {
	m.lastReply = req
	return m.confirm, m.err
}
func (m *mockPostingService) Cancel(_ context.Context, _, _, _ string) (*dto.PostingResponse, error) {
	return m.posting, m.err
}
func (m *mockPostingService) RecordView(_ context.Context, _ string) { m.views++ }

// ── Mock AvailabilityService ──

type mockAvailabilityService struct {
	status *dto.AvailabilityStatusResponse
	err    error
}

func (m *mockAvailabilityService) Activate(_ context.Context, _ string) (*dto.AvailabilityStatusResponse, error) {
	return m.status, m.err
}
func (m *mockAvailabilityService) Deactivate(_ context.Context, _ string, _ *dto.DeactivateRequest) (*dto.AvailabilityStatusResponse, error) {
	return m.status, m.err
}
func (m *mockAvailabilityService) GetStatus(_ context.Context, _ string) (*dto.AvailabilityStatusResponse, error) {
	return m.status, m.err
}

// ── Mock AttendanceService ──

type mockAttendanceService struct {
	result *dto.AttendanceResult
	err    error
}

func (m *mockAttendanceService) ValidateAttendance(_ context.Context, _ string, _ *dto.ValidateAttendanceRequest, _ string) (*dto.AttendanceResult, error) {
	return m.result, m.err
}
func (m *mockAttendanceService) JustifyAttendance(_ context.Context, _, _ string) error { return m.err }

// ── Mock CalendarService ──

type mockCalendarService struct {
	blocks   []dto.BlockResponse
	feed     string
	imported string
	err      error
}

func (m *mockCalendarService) ListBlocks(_ context.Context, _ string) ([]dto.BlockResponse, error) {
	return m.blocks, m.err
}
func (m *mockCalendarService) AddManualBlock(_ context.Context, _ string, _ *dto.CreateBlockRequest) (*dto.BlockResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &m.blocks[0], nil
}
func (m *mockCalendarService) DeactivateBlock(_ context.Context, _, _ string) error { return m.err }
func (m *mockCalendarService) ExportBlocks(_ context.Context, _ string) (string, error) {
	return m.feed, m.err
}
func (m *mockCalendarService) ImportBlocks(_ context.Context, _ string, r io.Reader) (*dto.ImportBlocksResponse, error) {
	b, _ := io.ReadAll(r)
	m.imported = string(b)
	return &dto.ImportBlocksResponse{Imported: 1}, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportAttendance(_ context.Context, _, _, _, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

// newRouter returns an engine whose requests carry an authenticated caller.
func newRouter(userID string) *gin.Engine {
	r := gin.New()
	if userID != "" {
		r.Use(func(c *gin.Context) {
			c.Set("user_id", userID)
			c.Set("role", "professional")
			c.Next()
		})
	}
	return r
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func doJSON(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// ═══════════════════════════════════════════════════════════
// Error mapping
// ═══════════════════════════════════════════════════════════

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   int
	}{
		{fmt.Errorf("%w: valor da diária obrigatório", service.ErrValidation), http.StatusBadRequest, codeValidation},
		{service.ErrMismatch, http.StatusBadRequest, codeMismatch},
		{service.ErrPostingNotFound, http.StatusNotFound, codePostingNotFound},
		{service.ErrApplicationNotFound, http.StatusNotFound, codeApplicationNotFound},
		{service.ErrProfessionalNotFound, http.StatusNotFound, codeProfessionalMissing},
		{service.ErrClinicNotFound, http.StatusNotFound, codeClinicNotFound},
		{service.ErrAttendanceNotFound, http.StatusNotFound, codeAttendanceNotFound},
		{service.ErrBlockNotFound, http.StatusNotFound, codeBlockNotFound},
		{service.ErrExportNoRecords, http.StatusNotFound, codeNoRecords},
		{service.ErrNotPostingOwner, http.StatusForbidden, codeNotPostingOwner},
		{service.ErrNotClinicOwner, http.StatusForbidden, codeNotClinicOwner},
		{service.ErrSuspended, http.StatusForbidden, codeSuspended},
		{service.ErrLockedOut, http.StatusLocked, codeLockedOut},
		{service.ErrDuplicateApplication, http.StatusConflict, codeDuplicate},
		{service.ErrScheduleConflict, http.StatusConflict, codeScheduleConflict},
		{service.ErrConcurrentUpdate, http.StatusConflict, codeConcurrentUpdate},
		{service.ErrPostingExpired, http.StatusGone, codePostingExpired},
		{service.ErrAttendanceAlreadyValidated, http.StatusConflict, codeAlreadyValidated},
		{fmt.Errorf("%w: vaga CONFIRMED", service.ErrInvalidState), http.StatusConflict, codeInvalidState},
		{service.ErrInvalidCode, http.StatusBadRequest, codeInvalidCode},
		{service.ErrCodeExpired, http.StatusGone, codeCodeExpired},
		{service.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited},
		{errors.New("db down"), http.StatusInternalServerError, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			handleServiceError(c, tt.err)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if resp := parseResponse(w); resp.Code != tt.code {
				t.Errorf("code = %d, want %d", resp.Code, tt.code)
			}
		})
	}
}

func TestHandleServiceError_LockoutCarriesDetails(t *testing.T) {
	until := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	handleServiceError(c, fmt.Errorf("ativar: %w", &service.LockoutError{Until: until, SupportContact: "suporte@plantao.com.br"}))

	if w.Code != http.StatusLocked {
		t.Fatalf("status = %d, want 423", w.Code)
	}
	var resp struct {
		Code int                `json:"code"`
		Data dto.LockoutDetails `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != codeLockedOut || resp.Data.LockedUntil != "2026-03-11T09:00:00Z" || resp.Data.SupportContact != "suporte@plantao.com.br" {
		t.Errorf("resp = %+v", resp)
	}
}

// ═══════════════════════════════════════════════════════════
// PostingHandler
// ═══════════════════════════════════════════════════════════

func TestPostingHandler_Create(t *testing.T) {
	mock := &mockPostingService{posting: &dto.PostingResponse{ID: "p1", Status: "DRAFT"}}
	h := NewPostingHandler(mock, "")
	r := newRouter("clinic-owner")
	r.POST("/postings", h.CreatePosting)

	w := doJSON(r, http.MethodPost, "/postings", jsonBody(map[string]interface{}{
		"creator_type":       "CLINIC",
		"clinic_id":          "clinic-1",
		"compensation_model": "DAILY_RATE",
		"schedule_mode":      "IMMEDIATE",
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	if mock.lastCaller != "clinic-owner" {
		t.Errorf("caller = %q", mock.lastCaller)
	}
}

func TestPostingHandler_Create_BadJSON(t *testing.T) {
	h := NewPostingHandler(&mockPostingService{}, "")
	r := newRouter("u1")
	r.POST("/postings", h.CreatePosting)

	if w := doJSON(r, http.MethodPost, "/postings", strings.NewReader("{")); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPostingHandler_Create_Unauthenticated(t *testing.T) {
	h := NewPostingHandler(&mockPostingService{}, "")
	r := newRouter("")
	r.POST("/postings", h.CreatePosting)

	if w := doJSON(r, http.MethodPost, "/postings", jsonBody(map[string]string{})); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestPostingHandler_GetCountsView(t *testing.T) {
	mock := &mockPostingService{posting: &dto.PostingResponse{ID: "p1"}}
	h := NewPostingHandler(mock, "")
	r := newRouter("u1")
	r.GET("/postings/:id", h.GetPosting)

	if w := doJSON(r, http.MethodGet, "/postings/p1", nil); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if mock.views != 1 {
		t.Errorf("views = %d, want 1", mock.views)
	}

	mock.err = service.ErrPostingNotFound
	if w := doJSON(r, http.MethodGet, "/postings/p1", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if mock.views != 1 {
		t.Error("a missing posting must not count a view")
	}
}

func TestPostingHandler_List(t *testing.T) {
	mock := &mockPostingService{list: []dto.PostingResponse{{ID: "p1"}, {ID: "p2"}}, total: 42}
	h := NewPostingHandler(mock, "")
	r := newRouter("u1")
	r.GET("/postings", h.ListPostings)

	w := doJSON(r, http.MethodGet, "/postings?page=2&page_size=10&status=OPEN", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Data response.PageData `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.Pagination.Page != 2 || resp.Data.Pagination.TotalPages != 5 {
		t.Errorf("pagination = %+v", resp.Data.Pagination)
	}
}

func TestPostingHandler_ChooseRequiresApplication(t *testing.T) {
	h := NewPostingHandler(&mockPostingService{}, "")
	r := newRouter("u1")
	r.POST("/postings/:id/choose", h.ChooseCandidate)

	if w := doJSON(r, http.MethodPost, "/postings/p1/choose", jsonBody(map[string]string{})); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPostingHandler_ChooseStateError(t *testing.T) {
	mock := &mockPostingService{err: fmt.Errorf("%w: vaga CONFIRMED", service.ErrInvalidState)}
	h := NewPostingHandler(mock, "")
	r := newRouter("u1")
	r.POST("/postings/:id/choose", h.ChooseCandidate)

	w := doJSON(r, http.MethodPost, "/postings/p1/choose", jsonBody(dto.ChooseCandidateRequest{ApplicationID: "a1"}))
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestPostingHandler_Confirm(t *testing.T) {
	mock := &mockPostingService{confirm: &dto.ConfirmResult{PostingID: "p1", Status: "CONFIRMED", Outcome: "APPROVED"}}
	h := NewPostingHandler(mock, "")
	// public route: no caller in context
	r := newRouter("")
	r.POST("/public/postings/:id/confirm", h.ConfirmSubstitution)

	approved := true
	w := doJSON(r, http.MethodPost, "/public/postings/p1/confirm", jsonBody(dto.ConfirmRequest{Code: "123456", Approved: &approved}))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	for _, code := range []string{"12345", "12a456", ""} {
		w = doJSON(r, http.MethodPost, "/public/postings/p1/confirm", jsonBody(dto.ConfirmRequest{Code: code, Approved: &approved}))
		if w.Code != http.StatusBadRequest {
			t.Errorf("code %q status = %d, want 400", code, w.Code)
		}
	}

	// approved is mandatory
	w = doJSON(r, http.MethodPost, "/public/postings/p1/confirm", jsonBody(map[string]string{"code": "123456"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing answer status = %d, want 400", w.Code)
	}
}

func TestPostingHandler_ConfirmWrongCode(t *testing.T) {
	h := NewPostingHandler(&mockPostingService{err: service.ErrInvalidCode}, "")
	r := newRouter("")
	r.POST("/public/postings/:id/confirm", h.ConfirmSubstitution)

	approved := false
	w := doJSON(r, http.MethodPost, "/public/postings/p1/confirm", jsonBody(dto.ConfirmRequest{Code: "999999", Approved: &approved}))
	if w.Code != http.StatusBadRequest || parseResponse(w).Code != codeInvalidCode {
		t.Errorf("status = %d, code %d", w.Code, parseResponse(w).Code)
	}
}

func TestPostingHandler_ReplyWebhook(t *testing.T) {
	mock := &mockPostingService{confirm: &dto.ConfirmResult{PostingID: "p1", Status: "CONFIRMED"}}
	h := NewPostingHandler(mock, "s3cr3t")
	r := newRouter("")
	r.POST("/webhook", h.ReplyWebhook)

	body := dto.ReplyWebhookRequest{From: "+5511988887777", Text: "APROVAR 123456"}

	// missing secret
	if w := doJSON(r, http.MethodPost, "/webhook", jsonBody(body)); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", jsonBody(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(WebhookSecretHeader, "s3cr3t")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	if mock.lastReply == nil || mock.lastReply.Text != "APROVAR 123456" {
		t.Errorf("reply = %+v", mock.lastReply)
	}
}

func TestPostingHandler_ReplyWebhookDisabled(t *testing.T) {
	h := NewPostingHandler(&mockPostingService{}, "")
	r := newRouter("")
	r.POST("/webhook", h.ReplyWebhook)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", jsonBody(dto.ReplyWebhookRequest{From: "x", Text: "y"}))
	req.Header.Set(WebhookSecretHeader, "")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ApplicationHandler
// ═══════════════════════════════════════════════════════════

func TestApplicationHandler_ApplyWithoutBody(t *testing.T) {
	mock := &mockPostingService{app: &dto.ApplicationResponse{ID: "a1", Status: "PENDING"}}
	h := NewApplicationHandler(mock)
	r := newRouter("pro-a")
	r.POST("/postings/:id/applications", h.Apply)

	w := doJSON(r, http.MethodPost, "/postings/p1/applications", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	if mock.lastCaller != "pro-a" {
		t.Errorf("professional = %q", mock.lastCaller)
	}
}

func TestApplicationHandler_ApplyErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{service.ErrDuplicateApplication, http.StatusConflict},
		{service.ErrScheduleConflict, http.StatusConflict},
		{service.ErrSuspended, http.StatusForbidden},
		{service.ErrPostingExpired, http.StatusGone},
	}
	for _, tt := range tests {
		h := NewApplicationHandler(&mockPostingService{err: tt.err})
		r := newRouter("pro-a")
		r.POST("/postings/:id/applications", h.Apply)

		w := doJSON(r, http.MethodPost, "/postings/p1/applications", jsonBody(dto.ApplyRequest{Message: "disponível"}))
		if w.Code != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, w.Code, tt.status)
		}
	}
}

func TestApplicationHandler_Withdraw(t *testing.T) {
	h := NewApplicationHandler(&mockPostingService{err: service.ErrMismatch})
	r := newRouter("pro-b")
	r.DELETE("/applications/:id", h.Withdraw)

	if w := doJSON(r, http.MethodDelete, "/applications/a1", nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AttendanceHandler
// ═══════════════════════════════════════════════════════════

func TestAttendanceHandler_Validate(t *testing.T) {
	mock := &mockAttendanceService{result: &dto.AttendanceResult{PostingID: "p1", Penalty: dto.PenaltyWarning}}
	h := NewAttendanceHandler(mock)
	r := newRouter("clinic-owner")
	r.POST("/postings/:id/attendance", h.ValidateAttendance)

	// attended is required
	if w := doJSON(r, http.MethodPost, "/postings/p1/attendance", jsonBody(map[string]string{})); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	w := doJSON(r, http.MethodPost, "/postings/p1/attendance", jsonBody(map[string]interface{}{"attended": false}))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	mock.err = service.ErrAttendanceAlreadyValidated
	w = doJSON(r, http.MethodPost, "/postings/p1/attendance", jsonBody(map[string]interface{}{"attended": true}))
	if w.Code != http.StatusConflict {
		t.Errorf("second validation status = %d, want 409", w.Code)
	}
}

func TestAttendanceHandler_Justify(t *testing.T) {
	mock := &mockAttendanceService{}
	h := NewAttendanceHandler(mock)
	r := newRouter("moderator-1")
	r.POST("/attendance/:id/justify", h.JustifyAttendance)

	if w := doJSON(r, http.MethodPost, "/attendance/r1/justify", nil); w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	mock.err = service.ErrAttendanceNotFound
	if w := doJSON(r, http.MethodPost, "/attendance/r1/justify", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing record status = %d, want 404", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AvailabilityHandler
// ═══════════════════════════════════════════════════════════

func TestAvailabilityHandler_ActivateLocked(t *testing.T) {
	until := time.Now().Add(24 * time.Hour)
	h := NewAvailabilityHandler(&mockAvailabilityService{err: &service.LockoutError{Until: until, SupportContact: "suporte"}})
	r := newRouter("pro-a")
	r.POST("/availability/activate", h.Activate)

	w := doJSON(r, http.MethodPost, "/availability/activate", nil)
	if w.Code != http.StatusLocked {
		t.Fatalf("status = %d, want 423", w.Code)
	}
	if !strings.Contains(w.Body.String(), "support_contact") {
		t.Errorf("body = %s", w.Body)
	}
}

func TestAvailabilityHandler_DeactivateNeedsJustification(t *testing.T) {
	h := NewAvailabilityHandler(&mockAvailabilityService{status: &dto.AvailabilityStatusResponse{}})
	r := newRouter("pro-a")
	r.POST("/availability/deactivate", h.Deactivate)

	if w := doJSON(r, http.MethodPost, "/availability/deactivate", jsonBody(map[string]string{})); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	w := doJSON(r, http.MethodPost, "/availability/deactivate", jsonBody(dto.DeactivateRequest{Justification: "fim do expediente"}))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAvailabilityHandler_RateLimited(t *testing.T) {
	h := NewAvailabilityHandler(&mockAvailabilityService{err: service.ErrRateLimited})
	r := newRouter("pro-a")
	r.POST("/availability/activate", h.Activate)

	if w := doJSON(r, http.MethodPost, "/availability/activate", nil); w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// CalendarHandler
// ═══════════════════════════════════════════════════════════

func TestCalendarHandler_ExportFeed(t *testing.T) {
	h := NewCalendarHandler(&mockCalendarService{feed: "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"})
	r := newRouter("pro-a")
	r.GET("/calendar/feed.ics", h.ExportFeed)

	w := doJSON(r, http.MethodGet, "/calendar/feed.ics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "BEGIN:VCALENDAR") {
		t.Errorf("body = %q", w.Body)
	}
}

func TestCalendarHandler_ImportFeed(t *testing.T) {
	mock := &mockCalendarService{}
	h := NewCalendarHandler(mock)
	r := newRouter("pro-a")
	r.POST("/calendar/import", h.ImportFeed)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "agenda.ics")
	part.Write([]byte("BEGIN:VCALENDAR"))
	mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/calendar/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	if mock.imported != "BEGIN:VCALENDAR" {
		t.Errorf("imported = %q", mock.imported)
	}

	// no file
	if w := doJSON(r, http.MethodPost, "/calendar/import", nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCalendarHandler_AddBlockValidation(t *testing.T) {
	h := NewCalendarHandler(&mockCalendarService{blocks: []dto.BlockResponse{{ID: "b1"}}})
	r := newRouter("pro-a")
	r.POST("/calendar/blocks", h.AddBlock)

	w := doJSON(r, http.MethodPost, "/calendar/blocks", jsonBody(dto.CreateBlockRequest{StartDate: "16/03/2026", EndDate: "2026-03-16"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	w = doJSON(r, http.MethodPost, "/calendar/blocks", jsonBody(dto.CreateBlockRequest{StartDate: "2026-03-16", EndDate: "2026-03-16"}))
	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportAttendance(t *testing.T) {
	mock := &mockExportService{
		buf:      bytes.NewBufferString("PK-fake-xlsx"),
		filename: "presencas_clinic-1_2026-03-01_2026-04-01.xlsx",
	}
	h := NewExportHandler(mock)
	r := newRouter("clinic-owner")
	r.GET("/clinics/:id/attendance/export", h.ExportAttendance)

	w := doJSON(r, http.MethodGet, "/clinics/clinic-1/attendance/export?from=2026-03-01&to=2026-04-01", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "presencas_clinic-1") {
		t.Errorf("disposition = %q", cd)
	}
}

func TestExportHandler_Errors(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportNoRecords})
	r := newRouter("clinic-owner")
	r.GET("/clinics/:id/attendance/export", h.ExportAttendance)

	if w := doJSON(r, http.MethodGet, "/clinics/clinic-1/attendance/export?from=01/03/2026&to=2026-04-01", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/clinics/clinic-1/attendance/export?from=2026-05-01&to=2026-06-01", nil); w.Code != http.StatusNotFound {
		t.Errorf("empty status = %d, want 404", w.Code)
	}
}
