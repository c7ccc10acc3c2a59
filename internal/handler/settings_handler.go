package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gituserindia/eptest-sub000/internal/common"
	"github.com/gituserindia/eptest-sub000/internal/domain"
	"github.com/gituserindia/eptest-sub000/internal/settings"
)

// SettingsService reads and updates the ingest policy overrides
type SettingsService interface {
	Policy(ctx context.Context) domain.IngestPolicy
	Defaults() domain.IngestPolicy
	Update(ctx context.Context, values map[string]string) error
}

// SettingsHandler handles /api/admin/settings
type SettingsHandler struct {
	service SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(svc SettingsService) *SettingsHandler {
	return &SettingsHandler{service: svc}
}

type settingsView struct {
	Effective domain.IngestPolicy `json:"effective"`
	Defaults  domain.IngestPolicy `json:"defaults"`
}

// Get handles GET /api/admin/settings
func (h *SettingsHandler) Get(c *gin.Context) {
	common.SuccessResponse(c, settingsView{
		Effective: h.service.Policy(c.Request.Context()),
		Defaults:  h.service.Defaults(),
	})
}

// Update handles PUT /api/admin/settings with a body like {"raster_density": 300}
func (h *SettingsHandler) Update(c *gin.Context) {
	var body map[string]json.Number
	if err := c.ShouldBindJSON(&body); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Settings must be a JSON object of numbers")
		return
	}
	values := make(map[string]string, len(body))
	for k, v := range body {
		values[k] = v.String()
	}

	ctx := c.Request.Context()
	if err := h.service.Update(ctx, values); err != nil {
		if errors.Is(err, settings.ErrReadOnly) {
			common.ErrorResponse(c, http.StatusServiceUnavailable, "Settings storage is not configured")
			return
		}
		common.ErrorResponse(c, common.StatusForStage(common.StageOf(err)), common.ReasonOf(err))
		return
	}
	common.SuccessResponse(c, settingsView{
		Effective: h.service.Policy(ctx),
		Defaults:  h.service.Defaults(),
	})
}
