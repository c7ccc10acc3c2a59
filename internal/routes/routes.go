package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/gituserindia/eptest-sub000/internal/handler"
	"github.com/gituserindia/eptest-sub000/internal/middleware"
	"github.com/gituserindia/eptest-sub000/pkg/jwt"
)

// Setup configures all API routes
func Setup(router *gin.Engine, editionHandler *handler.EditionHandler, settingsHandler *handler.SettingsHandler, jwtManager *jwt.Manager) {
	api := router.Group("/api")

	// Public browse (no auth required; a staff token only tags the request log)
	editions := api.Group("/editions", middleware.OptionalJWTAuth(jwtManager))
	editions.GET("", editionHandler.List)
	editions.GET("/:id", editionHandler.GetPublic)

	// Admin panel (staff token required)
	admin := api.Group("/admin/editions", middleware.JWTAuth(jwtManager))
	admin.GET("/:id", middleware.RequireRole(middleware.StaffRoles...), editionHandler.GetAdmin)
	admin.POST("", middleware.RequireRole(middleware.EditorRoles...), editionHandler.Create)
	admin.POST("/:id", middleware.RequireRole(middleware.EditorRoles...), editionHandler.Edit)
	admin.DELETE("/:id", middleware.RequireRole(middleware.AdminRoles...), editionHandler.Delete)

	// 업로드/변환 정책 (관리자 전용)
	policy := api.Group("/admin/settings", middleware.JWTAuth(jwtManager), middleware.RequireRole(middleware.AdminRoles...))
	policy.GET("", settingsHandler.Get)
	policy.PUT("", settingsHandler.Update)
}
