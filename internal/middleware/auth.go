package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gituserindia/eptest-sub000/internal/common"
	"github.com/gituserindia/eptest-sub000/internal/domain"
	"github.com/gituserindia/eptest-sub000/pkg/jwt"
)

const actorKey = "actor"

// JWTAuth JWT authentication middleware; stores the ActorContext for handlers
func JWTAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Extract Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.ErrorResponse(c, http.StatusUnauthorized, "Missing authorization header")
			c.Abort()
			return
		}

		// 2. Parse Bearer token
		tokenString, ok := bearerToken(authHeader)
		if !ok {
			common.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		// 3. Verify token
		actor, err := actorFromToken(jwtManager, tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.ErrorResponse(c, http.StatusUnauthorized, "Token expired")
			} else {
				common.ErrorResponse(c, http.StatusUnauthorized, "Invalid token")
			}
			c.Abort()
			return
		}

		// 4. Store actor in context
		c.Set(actorKey, actor)
		c.Next()
	}
}

// OptionalJWTAuth sets the actor when a valid bearer token is present and never rejects
func OptionalJWTAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if actor, err := actorFromToken(jwtManager, tokenString); err == nil {
				c.Set(actorKey, actor)
			}
		}
		c.Next()
	}
}

// GetActor returns the authenticated actor, if any
func GetActor(c *gin.Context) (domain.ActorContext, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return domain.ActorContext{}, false
	}
	actor, ok := v.(domain.ActorContext)
	return actor, ok
}

// SetActor stores actor on the context, mainly for tests
func SetActor(c *gin.Context, actor domain.ActorContext) {
	c.Set(actorKey, actor)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func actorFromToken(m *jwt.Manager, tokenString string) (domain.ActorContext, error) {
	claims, err := m.VerifyToken(tokenString)
	if err != nil {
		return domain.ActorContext{}, err
	}
	role, ok := domain.ParseRole(claims.Role)
	if !ok || claims.UserID <= 0 {
		return domain.ActorContext{}, jwt.ErrInvalidToken
	}
	return domain.ActorContext{UserID: claims.UserID, Role: role}, nil
}
