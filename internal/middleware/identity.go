package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey    = "user_id"
	ContextRequestIDKey = "request_id"

	HeaderUserID    = "X-User-Id"
	HeaderRequestID = "X-Request-Id"
)

// UserIdentity copies the caller identity set by the authenticating gateway
// into the request context. Requests without it stay anonymous.
func UserIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := strings.TrimSpace(c.GetHeader(HeaderUserID)); uid != "" {
			c.Set(ContextUserIDKey, uid)
		}
		c.Next()
	}
}
