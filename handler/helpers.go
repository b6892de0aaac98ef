// Package handler 暴露推荐核心的 HTTP 接口（gin）。
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rushteam/schemekit/core"
)

// HeaderUserID 由上游认证层写入。
const HeaderUserID = "X-User-ID"

// userIDFromHeader 读取调用方 user id；缺失或非法时返回 0。
func userIDFromHeader(c *gin.Context) int64 {
	raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func errorJSON(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": code, "error": message})
}

// handleError 把领域错误映射为 HTTP 状态码。
func handleError(c *gin.Context, logger *zap.Logger, err error) {
	de := core.GetDomainError(err)
	switch {
	case core.IsInvalidInput(err):
		errorJSON(c, http.StatusBadRequest, de.Code, err.Error())
	case core.IsNotFound(err):
		errorJSON(c, http.StatusNotFound, de.Code, err.Error())
	case core.IsUnavailable(err):
		errorJSON(c, http.StatusServiceUnavailable, de.Code, err.Error())
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		errorJSON(c, http.StatusInternalServerError, core.ErrorCodeInternalError, "internal error")
	}
}
