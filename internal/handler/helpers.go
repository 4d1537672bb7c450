package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insuregenie/internal/middleware"
	"github.com/xxxsen/insuregenie/internal/pkg/errcode"
	appErr "github.com/xxxsen/insuregenie/internal/pkg/errors"
	"github.com/xxxsen/insuregenie/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserIDKey)
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case appErr.IsArtifactMissing(err), errors.Is(err, appErr.ErrEmptyIndex):
		response.Error(c, errcode.ErrModelUnavailable, "model unavailable")
	case errors.Is(err, appErr.ErrUnavailable):
		response.Error(c, errcode.ErrEmbedUnavailable, "embedding service unavailable")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
