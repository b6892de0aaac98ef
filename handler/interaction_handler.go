package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/logging"
	"github.com/rushteam/schemekit/service"
)

type InteractionHandler struct {
	interactions *service.InteractionService
	logger       *zap.Logger
}

func NewInteractionHandler(interactions *service.InteractionService, logger *zap.Logger) *InteractionHandler {
	return &InteractionHandler{interactions: interactions, logger: logging.OrNop(logger)}
}

type interactionRequest struct {
	SchemeID  int64  `json:"scheme_id"`
	EventKind string `json:"event_kind"`
}

// Record 处理 POST /interactions。
func (h *InteractionHandler) Record(c *gin.Context) {
	userID := userIDFromHeader(c)
	if userID == 0 {
		errorJSON(c, http.StatusUnauthorized, core.ErrorCodeInvalidInput, "missing "+HeaderUserID)
		return
	}
	var req interactionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SchemeID <= 0 {
		errorJSON(c, http.StatusBadRequest, core.ErrorCodeInvalidInput, "invalid request body")
		return
	}
	row, err := h.interactions.Record(c.Request.Context(), userID, req.SchemeID, req.EventKind)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// History 处理 GET /interactions，返回调用方的全部交互。
func (h *InteractionHandler) History(c *gin.Context) {
	rows, err := h.interactions.History(c.Request.Context(), userIDFromHeader(c))
	if err != nil {
		if core.IsInvalidInput(err) {
			errorJSON(c, http.StatusUnauthorized, core.ErrorCodeInvalidInput, "missing "+HeaderUserID)
			return
		}
		handleError(c, h.logger, err)
		return
	}
	if rows == nil {
		rows = []core.Interaction{}
	}
	c.JSON(http.StatusOK, gin.H{"results": rows})
}
