package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/filter"
	"github.com/rushteam/schemekit/logging"
	"github.com/rushteam/schemekit/pkg/conv"
	"github.com/rushteam/schemekit/service"
)

type HybridHandler struct {
	hybrid *service.HybridService
	logger *zap.Logger
}

func NewHybridHandler(hybrid *service.HybridService, logger *zap.Logger) *HybridHandler {
	return &HybridHandler{hybrid: hybrid, logger: logging.OrNop(logger)}
}

// hybridRequest 把宽松的请求体转换为 service.HybridRequest。
//
//	{
//	  "home_state_id": 20, "user_profile": {"community": "sc"}, "feedback": "...",
//	  "state_ids": [...], "tag": "...", ...            // filter.Spec 字段
//	  "ordering": "-title", "top_n": 5, "page": 1, "limit": 10
//	}
func hybridRequest(userID int64, body map[string]any) service.HybridRequest {
	req := service.HybridRequest{
		UserID:   userID,
		StateID:  conv.ConfigGetInt64(body, "home_state_id", 0),
		Feedback: conv.ConfigGet(body, "feedback", ""),
		Spec:     filter.ParseSpec(body),
		Ordering: conv.ConfigGet(body, "ordering", ""),
		TopN:     int(conv.ConfigGetInt64(body, "top_n", 0)),
		Page:     int(conv.ConfigGetInt64(body, "page", 1)),
		Limit:    int(conv.ConfigGetInt64(body, "limit", 0)),
	}
	// 兼容旧字段 profile
	for _, key := range []string{"user_profile", "profile"} {
		if profile, ok := body[key].(map[string]any); ok {
			req.Attributes = conv.MapToString(profile)
			break
		}
	}
	return req
}

// Recommend 处理 POST /recommendations/hybrid。
func (h *HybridHandler) Recommend(c *gin.Context) {
	body := map[string]any{}
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		errorJSON(c, http.StatusBadRequest, core.ErrorCodeInvalidInput, "invalid request body")
		return
	}
	page, err := h.hybrid.Recommend(c.Request.Context(), hybridRequest(userIDFromHeader(c), body))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
