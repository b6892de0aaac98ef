package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rushteam/schemekit/logging"
)

// HealthFunc 返回健康检查附带的状态信息。
type HealthFunc func() gin.H

type RouterDeps struct {
	Schemes      *SchemeHandler
	Hybrid       *HybridHandler
	Interactions *InteractionHandler
	Health       HealthFunc
	Logger       *zap.Logger
}

// NewRouter 创建 gin 引擎并注册全部路由。
func NewRouter(deps RouterDeps) *gin.Engine {
	logger := logging.OrNop(deps.Logger)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if deps.Health != nil {
			for k, v := range deps.Health() {
				body[k] = v
			}
		}
		c.JSON(http.StatusOK, body)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	RegisterRoutes(api, deps)
	return r
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/schemes/:id/recommendations", deps.Schemes.Similar)
	api.POST("/recommendations/hybrid", deps.Hybrid.Recommend)
	api.POST("/interactions", deps.Interactions.Record)
	api.GET("/interactions", deps.Interactions.History)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
