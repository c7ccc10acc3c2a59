package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gituserindia/eptest-sub000/internal/common"
	"github.com/gituserindia/eptest-sub000/internal/domain"
	"github.com/gituserindia/eptest-sub000/internal/middleware"
	"github.com/gituserindia/eptest-sub000/internal/service"
	"github.com/gituserindia/eptest-sub000/pkg/ginutil"
)

// 폼 필드 외 multipart 오버헤드 여유분
const formOverhead = 1 << 20

// EditionService is the ingestion use case consumed by the handler
type EditionService interface {
	Create(ctx context.Context, actor domain.ActorContext, input domain.EditionInput, file *multipart.FileHeader) (int64, error)
	Edit(ctx context.Context, actor domain.ActorContext, id int64, input domain.EditionInput, file *multipart.FileHeader) error
	Delete(ctx context.Context, actor domain.ActorContext, id int64) error
	Get(ctx context.Context, id int64, includePrivate bool) (*domain.Edition, error)
	ListPublished(ctx context.Context, filter domain.EditionFilter) ([]domain.Edition, error)
}

// EditionHandler handles edition upload and browse HTTP requests
type EditionHandler struct {
	service EditionService
	policy  service.PolicySource
}

// NewEditionHandler creates a new EditionHandler
func NewEditionHandler(svc EditionService, policy service.PolicySource) *EditionHandler {
	return &EditionHandler{service: svc, policy: policy}
}

// Create handles POST /api/admin/editions
func (h *EditionHandler) Create(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		common.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	h.limitBody(c)
	file, err := formFile(c)
	if err != nil {
		common.EditionFailure(c, err)
		return
	}
	input, err := editionInput(c)
	if err != nil {
		common.EditionFailure(c, err)
		return
	}

	id, err := h.service.Create(c.Request.Context(), actor, input, file)
	if err != nil {
		common.EditionFailure(c, err)
		return
	}
	common.EditionSuccess(c, "Edition uploaded successfully", id)
}

// Edit handles POST /api/admin/editions/:id
func (h *EditionHandler) Edit(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		common.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := ginutil.ParamID(c, "id")
	if err != nil {
		common.EditionFailure(c, common.NewValidationError("Invalid edition id"))
		return
	}

	h.limitBody(c)
	file, err := formFile(c)
	if err != nil {
		common.EditionFailure(c, err)
		return
	}
	// edition_id 폼 값은 경로와 일치해야 함
	formID, err := ginutil.PostFormInt64(c, "edition_id")
	if err != nil || (formID != 0 && formID != id) {
		common.EditionFailure(c, common.NewValidationError("Edition id does not match"))
		return
	}
	input, err := editionInput(c)
	if err != nil {
		common.EditionFailure(c, err)
		return
	}

	if err := h.service.Edit(c.Request.Context(), actor, id, input, file); err != nil {
		common.EditionFailure(c, err)
		return
	}
	common.EditionSuccess(c, "Edition updated successfully", id)
}

// Delete handles DELETE /api/admin/editions/:id
func (h *EditionHandler) Delete(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		common.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := ginutil.ParamID(c, "id")
	if err != nil {
		common.EditionFailure(c, common.NewValidationError("Invalid edition id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		common.EditionFailure(c, err)
		return
	}
	common.EditionSuccess(c, "Edition deleted successfully", id)
}

// GetAdmin handles GET /api/admin/editions/:id (private editions included)
func (h *EditionHandler) GetAdmin(c *gin.Context) {
	h.get(c, true)
}

// GetPublic handles GET /api/editions/:id
func (h *EditionHandler) GetPublic(c *gin.Context) {
	h.get(c, false)
}

func (h *EditionHandler) get(c *gin.Context, includePrivate bool) {
	id, err := ginutil.ParamID(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid edition id")
		return
	}

	edition, err := h.service.Get(c.Request.Context(), id, includePrivate)
	if err != nil {
		common.ErrorResponse(c, common.StatusForStage(common.StageOf(err)), common.ReasonOf(err))
		return
	}
	common.SuccessResponse(c, edition.ToResponse())
}

// List handles GET /api/editions?date=YYYY-MM-DD&category_id=N
func (h *EditionHandler) List(c *gin.Context) {
	var filter domain.EditionFilter

	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		d, err := domain.ParseDate(raw)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		filter.Date = &d
	}

	categoryID, err := ginutil.QueryInt64(c, "category_id")
	if err != nil || categoryID < 0 {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid category_id")
		return
	}
	filter.CategoryID = categoryID
	filter.Limit = ginutil.QueryInt(c, "limit", 0)

	editions, err := h.service.ListPublished(c.Request.Context(), filter)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, common.ReasonOf(err))
		return
	}

	items := make([]domain.EditionResponse, 0, len(editions))
	for i := range editions {
		items = append(items, editions[i].ToResponse())
	}
	common.SuccessResponse(c, items)
}

// limitBody caps the request body at the upload limit plus form overhead
func (h *EditionHandler) limitBody(c *gin.Context) {
	if h.policy == nil {
		return
	}
	limit := h.policy.Policy(c.Request.Context()).MaxUploadBytes + formOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
}

// formFile returns the optional pdf_file part; a missing part yields nil
func formFile(c *gin.Context) (*multipart.FileHeader, error) {
	file, err := c.FormFile("pdf_file")
	if err == nil {
		return file, nil
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, nil
	case errors.As(err, &tooLarge):
		return nil, common.NewValidationError("File exceeds the maximum upload size")
	}
	return nil, common.NewValidationError("Invalid upload request")
}

func editionInput(c *gin.Context) (domain.EditionInput, error) {
	categoryID, err := ginutil.PostFormInt64(c, "category_id")
	if err != nil {
		return domain.EditionInput{}, common.NewValidationError("Invalid category")
	}
	return domain.EditionInput{
		Title:           c.PostForm("title"),
		PublicationDate: c.PostForm("publication_date"),
		CategoryID:      categoryID,
		Description:     c.PostForm("description"),
		Status:          c.PostForm("status"),
		StatusReason:    c.PostForm("status_reason"),
	}, nil
}
