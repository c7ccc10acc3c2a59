package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gituserindia/eptest-sub000/internal/common"
	"github.com/gituserindia/eptest-sub000/internal/domain"
)

// Role groups used by the admin routes
var (
	EditorRoles = []domain.Role{domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleEditor}
	AdminRoles  = []domain.Role{domain.RoleSuperAdmin, domain.RoleAdmin}
	StaffRoles  = []domain.Role{domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleEditor, domain.RoleViewer}
)

// RequireRole checks that the authenticated actor holds one of roles
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			common.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}
		if !actor.Is(roles...) {
			common.ErrorResponse(c, http.StatusForbidden, "Insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
