package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paperdex/paperdex/internal/middleware"
)

type RouterDeps struct {
	Ingest *IngestHandler
	Answer *AnswerHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/generate", deps.Answer.Generate)

	rebuild := api.Group("")
	rebuild.Use(middleware.RateLimit(30 * time.Second))
	rebuild.POST("/ingest/rebuild", deps.Ingest.Rebuild)
}
