package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/paperdex/paperdex/internal/pkg/errcode"
	"github.com/paperdex/paperdex/internal/pkg/response"
	"github.com/paperdex/paperdex/internal/service"
)

type AnswerHandler struct {
	factory *service.Factory
}

func NewAnswerHandler(factory *service.Factory) *AnswerHandler {
	return &AnswerHandler{factory: factory}
}

func (h *AnswerHandler) Generate(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		response.Error(c, errcode.ErrInvalid, "query required")
		return
	}
	topK := queryInt(c, "top_k", 0)
	maxTokens := queryInt(c, "max_tokens", 0)
	temperature := queryFloat(c, "temperature", 0)

	svcs, err := h.factory.Get(c.Query("embedding_provider"), c.Query("llm_provider"))
	if err != nil {
		handleError(c, err)
		return
	}

	result, err := svcs.Answer.Answer(c.Request.Context(), query, topK, maxTokens, temperature)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func queryFloat(c *gin.Context, name string, fallback float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
