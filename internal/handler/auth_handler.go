package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-distributor/internal/middleware"
	"github.com/stemsi/exstem-distributor/internal/response"
)

// AuthHandler exposes the identity carried by the caller's token.
type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Me godoc
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	body := gin.H{
		"email": claims.Email,
		"role":  claims.Role,
	}
	if claims.ExpiresAt != nil {
		body["expires_at"] = claims.ExpiresAt.Time
	}
	response.Success(c, http.StatusOK, body)
}
