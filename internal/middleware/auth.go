package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"homecare-app-server/internal/access"
	"homecare-app-server/internal/models"
	"homecare-app-server/internal/utils"
)

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

// AuthMiddleware rejects requests without a valid bearer access token and puts
// the caller's id and role on the context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "Authorization header required")
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			utils.Unauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := utils.ValidateToken(parts[1], secret)
		if err != nil {
			utils.Unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserRole, claims.Role)
		c.Next()
	}
}

// RoleAuthMiddleware creates a middleware for role-based authorization.
// It should be used *after* AuthMiddleware.
func RoleAuthMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRoleFromContext(c)
		if !ok {
			utils.Unauthorized(c, "Authentication required")
			return
		}
		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}
		utils.Forbidden(c, "You do not have permission to access this resource.")
	}
}

// GetUserIDFromContext returns the authenticated user id.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	id, ok := c.Get(ctxUserID)
	if !ok {
		return "", false
	}
	s, ok := id.(string)
	return s, ok && s != ""
}

// GetUserRoleFromContext returns the authenticated user's role.
func GetUserRoleFromContext(c *gin.Context) (models.Role, bool) {
	v, ok := c.Get(ctxUserRole)
	if !ok {
		return "", false
	}
	role, ok := v.(models.Role)
	return role, ok
}

// GetPrincipal returns the caller as an access.Principal.
func GetPrincipal(c *gin.Context) (access.Principal, bool) {
	id, ok := GetUserIDFromContext(c)
	if !ok {
		return access.Principal{}, false
	}
	role, ok := GetUserRoleFromContext(c)
	if !ok {
		return access.Principal{}, false
	}
	return access.Principal{ID: id, Role: role}, true
}

// SetPrincipal stores p on the context. Tests use it to skip token handling.
func SetPrincipal(c *gin.Context, p access.Principal) {
	c.Set(ctxUserID, p.ID)
	c.Set(ctxUserRole, p.Role)
}
