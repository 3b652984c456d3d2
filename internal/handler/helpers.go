package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/seekmark/seekmark/internal/pkg/errors"
	"github.com/seekmark/seekmark/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get("user_id")
	userID, _ := value.(string)
	return userID
}

// RequireUser reads the caller identity from the X-User-ID header. Requests
// without one are rejected before any handler runs.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			response.Error(c, http.StatusUnauthorized, "missing X-User-ID header")
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err))
	switch {
	case appErr.IsNotFound(err):
		response.Error(c, http.StatusNotFound, "not found")
	case appErr.IsInvalid(err):
		response.Error(c, http.StatusBadRequest, "invalid request")
	default:
		response.Error(c, http.StatusInternalServerError, "internal error")
	}
}
