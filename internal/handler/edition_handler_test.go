package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gituserindia/eptest-sub000/internal/common"
	"github.com/gituserindia/eptest-sub000/internal/domain"
	"github.com/gituserindia/eptest-sub000/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEditionService struct {
	mock.Mock
}

func (m *mockEditionService) Create(ctx context.Context, actor domain.ActorContext, input domain.EditionInput, file *multipart.FileHeader) (int64, error) {
	args := m.Called(actor, input, file)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockEditionService) Edit(ctx context.Context, actor domain.ActorContext, id int64, input domain.EditionInput, file *multipart.FileHeader) error {
	return m.Called(actor, id, input, file).Error(0)
}

func (m *mockEditionService) Delete(ctx context.Context, actor domain.ActorContext, id int64) error {
	return m.Called(actor, id).Error(0)
}

func (m *mockEditionService) Get(ctx context.Context, id int64, includePrivate bool) (*domain.Edition, error) {
	args := m.Called(id, includePrivate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Edition), args.Error(1)
}

func (m *mockEditionService) ListPublished(ctx context.Context, filter domain.EditionFilter) ([]domain.Edition, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Edition), args.Error(1)
}

type fixedPolicy struct{}

func (fixedPolicy) Policy(_ context.Context) domain.IngestPolicy {
	return domain.IngestPolicy{MaxUploadBytes: 1024}
}

var editorActor = domain.ActorContext{UserID: 9, Role: domain.RoleEditor}

func newRouter(svc EditionService, actor *domain.ActorContext) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewEditionHandler(svc, fixedPolicy{})
	r := gin.New()
	admin := r.Group("/api/admin/editions", func(c *gin.Context) {
		if actor != nil {
			middleware.SetActor(c, *actor)
		}
		c.Next()
	})
	admin.POST("", h.Create)
	admin.POST("/:id", h.Edit)
	admin.DELETE("/:id", h.Delete)
	admin.GET("/:id", h.GetAdmin)
	r.GET("/api/editions", h.List)
	r.GET("/api/editions/:id", h.GetPublic)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, pdf []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if pdf != nil {
		part, err := w.CreateFormFile("pdf_file", "edition.pdf")
		require.NoError(t, err)
		_, err = part.Write(pdf)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) common.EditionResult {
	t.Helper()
	var res common.EditionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

var morningFields = map[string]string{
	"title":            "Morning Edition",
	"publication_date": "2024-03-01",
	"category_id":      "3",
}

func TestCreate_Success(t *testing.T) {
	svc := new(mockEditionService)
	want := domain.EditionInput{Title: "Morning Edition", PublicationDate: "2024-03-01", CategoryID: 3}
	svc.On("Create", editorActor, want, mock.MatchedBy(func(f *multipart.FileHeader) bool {
		return f != nil && f.Filename == "edition.pdf" && f.Size == 4
	})).Return(int64(5), nil)

	body, ct := multipartBody(t, morningFields, []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/api/admin/editions", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	newRouter(svc, &editorActor).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	res := decodeResult(t, w)
	assert.True(t, res.Success)
	require.NotNil(t, res.EditionID)
	assert.Equal(t, int64(5), *res.EditionID)
	svc.AssertExpectations(t)
}

func TestCreate_StageFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"conversion", common.NewStageError(common.StageConversion, "PDF conversion failed", assert.AnError), http.StatusInternalServerError, "PDF conversion failed"},
		{"storage", common.NewStageError(common.StageStorage, "Failed to create directory", assert.AnError), http.StatusInternalServerError, "Failed to create directory"},
		{"validation", common.NewValidationError("Only PDF files are allowed"), http.StatusBadRequest, "Only PDF files are allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockEditionService)
			svc.On("Create", editorActor, mock.Anything, mock.Anything).Return(int64(0), tt.err)

			body, ct := multipartBody(t, morningFields, []byte("%PDF"))
			req := httptest.NewRequest(http.MethodPost, "/api/admin/editions", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			newRouter(svc, &editorActor).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			res := decodeResult(t, w)
			assert.False(t, res.Success)
			assert.Equal(t, tt.msg, res.Message)
			assert.Nil(t, res.EditionID)
			assert.NotContains(t, w.Body.String(), assert.AnError.Error())
		})
	}
}

func TestCreate_InvalidCategory(t *testing.T) {
	svc := new(mockEditionService)
	fields := map[string]string{"title": "A", "publication_date": "2024-03-01", "category_id": "three"}

	body, ct := multipartBody(t, fields, []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/api/admin/editions", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	newRouter(svc, &editorActor).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_BodyOverLimit(t *testing.T) {
	svc := new(mockEditionService)

	body, ct := multipartBody(t, morningFields, bytes.Repeat([]byte("x"), 1024+(1<<20)+10))
	req := httptest.NewRequest(http.MethodPost, "/api/admin/editions", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	newRouter(svc, &editorActor).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_Unauthenticated(t *testing.T) {
	svc := new(mockEditionService)
	body, ct := multipartBody(t, morningFields, []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/api/admin/editions", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	newRouter(svc, nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEdit_WithoutFile(t *testing.T) {
	svc := new(mockEditionService)
	want := domain.EditionInput{Title: "Morning Edition", PublicationDate: "2024-03-01", CategoryID: 3, Status: "published"}
	svc.On("Edit", editorActor, int64(12), want, (*multipart.FileHeader)(nil)).Return(nil)

	fields := map[string]string{"edition_id": "12", "status": "published", "current_pdf_path": "/uploads/editions/x.pdf"}
	for k, v := range morningFields {
		fields[k] = v
	}
	body, ct := multipartBody(t, fields, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/editions/12", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	newRouter(svc, &editorActor).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	res := decodeResult(t, w)
	assert.True(t, res.Success)
	assert.Equal(t, int64(12), *res.EditionID)
	svc.AssertExpectations(t)
}

func TestEdit_MismatchedEditionID(t *testing.T) {
	svc := new(mockEditionService)
	fields := map[string]string{"edition_id": "13"}
	for k, v := range morningFields {
		fields[k] = v
	}
	body, ct := multipartBody(t, fields, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/editions/12", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	newRouter(svc, &editorActor).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Edit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDelete_NotFound(t *testing.T) {
	svc := new(mockEditionService)
	svc.On("Delete", editorActor, int64(4)).
		Return(common.NewStageError(common.StageNotFound, "Edition not found", common.ErrEditionNotFound))

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/editions/4", nil)
	w := httptest.NewRecorder()
	newRouter(svc, &editorActor).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	res := decodeResult(t, w)
	assert.False(t, res.Success)
	assert.Equal(t, "Edition not found", res.Message)
}

func TestDelete_InvalidID(t *testing.T) {
	svc := new(mockEditionService)
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/editions/abc", nil)
	w := httptest.NewRecorder()
	newRouter(svc, &editorActor).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGet_AdminAndPublic(t *testing.T) {
	svc := new(mockEditionService)
	date, _ := domain.ParseDate("2024-03-01")
	edition := &domain.Edition{ID: 8, Title: "Morning Edition", PublicationDate: date, Status: domain.EditionStatusPrivate, PageCount: 3}
	svc.On("Get", int64(8), true).Return(edition, nil)
	svc.On("Get", int64(8), false).
		Return(nil, common.NewStageError(common.StageNotFound, "Edition not found", common.ErrEditionNotFound))
	r := newRouter(svc, &editorActor)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/editions/8", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"publication_date":"2024-03-01"`)
	assert.Contains(t, w.Body.String(), `"page_count":3`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/editions/8", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestList_DateFilterIsLocalMidnight(t *testing.T) {
	prev := time.Local
	time.Local = time.FixedZone("UTC-5", -5*60*60)
	t.Cleanup(func() { time.Local = prev })

	svc := new(mockEditionService)
	svc.On("ListPublished", mock.MatchedBy(func(f domain.EditionFilter) bool {
		if f.Date == nil {
			return false
		}
		_, offset := f.Date.Zone()
		return offset == -5*60*60 && f.Date.Format("2006-01-02 15:04") == "2024-03-01 00:00"
	})).Return([]domain.Edition{}, nil)

	w := httptest.NewRecorder()
	newRouter(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/editions?date=2024-03-01", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestList_Filters(t *testing.T) {
	svc := new(mockEditionService)
	date, _ := domain.ParseDate("2024-03-01")
	svc.On("ListPublished", domain.EditionFilter{Date: &date, CategoryID: 3}).
		Return([]domain.Edition{{ID: 1, Title: "A", PublicationDate: date, Status: domain.EditionStatusPublished}}, nil)

	w := httptest.NewRecorder()
	newRouter(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/editions?date=2024-03-01&category_id=3", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Success bool                     `json:"success"`
		Data    []domain.EditionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Success)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "2024-03-01", res.Data[0].PublicationDate)
	svc.AssertExpectations(t)
}

func TestList_BadDate(t *testing.T) {
	svc := new(mockEditionService)
	w := httptest.NewRecorder()
	newRouter(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/editions?date=March", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "ListPublished", mock.Anything)
}
