package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/logging"
	"github.com/rushteam/schemekit/recall"
	"github.com/rushteam/schemekit/service"
)

type SchemeHandler struct {
	recommender *service.SchemeRecommender
	catalog     recall.IndexProvider
	logger      *zap.Logger
}

func NewSchemeHandler(recommender *service.SchemeRecommender, catalog recall.IndexProvider, logger *zap.Logger) *SchemeHandler {
	return &SchemeHandler{recommender: recommender, catalog: catalog, logger: logging.OrNop(logger)}
}

type similarResponse struct {
	Scheme             *core.Scheme             `json:"scheme"`
	RecommendedSchemes []service.Recommendation `json:"recommended_schemes"`
}

// Similar 处理 GET /schemes/:id/recommendations?top_n=10。
// scheme 不在 catalog 中返回 404；不在矩阵中或矩阵不可用时返回空列表。
func (h *SchemeHandler) Similar(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, core.ErrorCodeInvalidInput, "invalid scheme id")
		return
	}
	topN := 0
	if raw := c.Query("top_n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errorJSON(c, http.StatusBadRequest, core.ErrorCodeInvalidInput, "invalid top_n")
			return
		}
		topN = n
	}

	scheme, err := h.catalog.Index().Get(id)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	recs, err := h.recommender.Recommend(c.Request.Context(), id, topN)
	if err != nil && !core.IsNotFound(err) {
		handleError(c, h.logger, err)
		return
	}
	if recs == nil {
		recs = []service.Recommendation{}
	}
	c.JSON(http.StatusOK, similarResponse{Scheme: scheme, RecommendedSchemes: recs})
}
