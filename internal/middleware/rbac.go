package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-distributor/internal/response"
	"github.com/stemsi/exstem-distributor/internal/service"
)

// RequireRole lets the request through only when the token was issued for
// role. It must run after RequireJWT.
func RequireRole(role service.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if claims.Role != role {
			response.AbortFail(c, http.StatusForbidden, roleDeniedCode(role))
			return
		}

		c.Next()
	}
}

func roleDeniedCode(role service.Role) response.ErrCode {
	switch role {
	case service.RoleTeacher:
		return response.ErrTeacherAccessOnly
	case service.RoleStudent:
		return response.ErrStudentAccessOnly
	default:
		return response.ErrForbidden
	}
}
