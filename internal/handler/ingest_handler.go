package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/paperdex/paperdex/internal/config"
	"github.com/paperdex/paperdex/internal/pkg/errcode"
	"github.com/paperdex/paperdex/internal/pkg/response"
	"github.com/paperdex/paperdex/internal/service"
	"github.com/paperdex/paperdex/internal/source"
)

type IngestHandler struct {
	factory *service.Factory
	loader  source.Loader
	cfg     config.IngestConfig
}

func NewIngestHandler(factory *service.Factory, loader source.Loader, cfg config.IngestConfig) *IngestHandler {
	return &IngestHandler{factory: factory, loader: loader, cfg: cfg}
}

// Rebuild drops and re-provisions the vector store from the configured
// source, then chunks and embeds every document in it. Expensive; the
// route is rate limited.
func (h *IngestHandler) Rebuild(c *gin.Context) {
	chunkSize := queryInt(c, "chunk_size", h.cfg.ChunkSize)
	overlap := queryInt(c, "overlap", h.cfg.Overlap)

	loader := h.loader
	if dir := c.Query("source_dir"); dir != "" {
		var err error
		loader, err = source.NewLocalLoader(dir)
		if err != nil {
			response.Error(c, errcode.ErrInvalid, err.Error())
			return
		}
	}

	svcs, err := h.factory.Get(c.Query("embedding_provider"), "")
	if err != nil {
		handleError(c, err)
		return
	}

	docs, err := loader.Load(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	if len(docs) == 0 {
		response.Error(c, errcode.ErrNotFound, "no source documents found")
		return
	}

	result, err := svcs.Ingest.Ingest(c.Request.Context(), docs, chunkSize, overlap)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
