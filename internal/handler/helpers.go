package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/paperdex/paperdex/internal/ai"
	"github.com/paperdex/paperdex/internal/pkg/errcode"
	appErr "github.com/paperdex/paperdex/internal/pkg/errors"
	"github.com/paperdex/paperdex/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	var provErr *ai.ProviderError
	switch {
	case errors.Is(err, appErr.ErrUnsupportedProvider):
		response.Error(c, errcode.ErrUnsupportedProvider, err.Error())
	case errors.Is(err, appErr.ErrConfiguration), errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case appErr.IsDimensionMismatch(err):
		response.Error(c, errcode.ErrDimensionMismatch, err.Error())
	case errors.Is(err, appErr.ErrCredential):
		response.Error(c, errcode.ErrCredentialFailed, err.Error())
	case errors.Is(err, appErr.ErrRetrieval):
		response.Error(c, errcode.ErrRetrievalFailed, err.Error())
	case appErr.IsNotFound(err):
		response.Error(c, errcode.ErrNotFound, err.Error())
	case errors.As(err, &provErr):
		if provErr.Op == "embed" {
			response.Error(c, errcode.ErrEmbeddingFailed, err.Error())
			return
		}
		response.Error(c, errcode.ErrGenerationFailed, err.Error())
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
