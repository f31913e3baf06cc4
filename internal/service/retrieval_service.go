package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/paperdex/paperdex/internal/model"
	appErr "github.com/paperdex/paperdex/internal/pkg/errors"
)

// NeighborSearcher is the slice of storage the retrieval engine needs.
type NeighborSearcher interface {
	CurrentDimension(ctx context.Context) (int, error)
	NearestNeighbors(ctx context.Context, embedding []float32, k int) ([]*model.RetrievedDocument, error)
}

// QueryEmbedder embeds one live query with the currently configured
// provider.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedProviderName() string
}

type RetrievalService struct {
	store    NeighborSearcher
	embedder QueryEmbedder
}

func NewRetrievalService(store NeighborSearcher, embedder QueryEmbedder) *RetrievalService {
	return &RetrievalService{store: store, embedder: embedder}
}

// Retrieve embeds query and returns up to topK stored passages ordered by
// ascending cosine distance. A query vector whose width differs from the
// provisioned column fails loudly instead of silently ranking garbage.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, topK int) ([]*model.RetrievedDocument, error) {
	if topK < 0 {
		return nil, fmt.Errorf("top_k must not be negative: %w", appErr.ErrInvalid)
	}
	if topK == 0 {
		return nil, nil
	}
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	dim, err := s.store.CurrentDimension(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrRetrieval, err)
	}
	if dim == 0 {
		// Nothing provisioned yet, so nothing to rank.
		return nil, nil
	}
	if dim != len(embedding) {
		return nil, fmt.Errorf("%w: index is %d-dimensional but provider %q produced %d values; re-ingest the corpus",
			appErr.ErrDimensionMismatch, dim, s.embedder.EmbedProviderName(), len(embedding))
	}
	docs, err := s.store.NearestNeighbors(ctx, embedding, topK)
	if err != nil {
		if appErr.IsDimensionMismatch(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", appErr.ErrRetrieval, err)
	}
	logutil.GetLogger(ctx).Debug("retrieved passages",
		zap.Int("top_k", topK),
		zap.Int("returned", len(docs)),
	)
	return docs, nil
}
