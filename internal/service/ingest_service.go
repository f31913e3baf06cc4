package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/paperdex/paperdex/internal/ai"
	"github.com/paperdex/paperdex/internal/model"
	appErr "github.com/paperdex/paperdex/internal/pkg/errors"
)

// PassageStore is the slice of storage the ingestion pipeline needs:
// provision a vector column of a given width and bulk-write rows into it.
type PassageStore interface {
	CurrentDimension(ctx context.Context) (int, error)
	Provision(ctx context.Context, dim int) error
	BulkInsert(ctx context.Context, rows []*model.StoredPassage) (int64, error)
}

// Embedder is the slice of the ai dispatch layer used during ingestion.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	DetectDimension(ctx context.Context) (int, error)
	EmbedProviderName() string
}

type IngestService struct {
	store    PassageStore
	embedder Embedder
}

type IngestResult struct {
	RowsInserted int64 `json:"rows_inserted"`
	Dimension    int   `json:"dimension"`
	Documents    int   `json:"documents"`
	Skipped      int   `json:"skipped"`
}

func NewIngestService(store PassageStore, embedder Embedder) *IngestService {
	return &IngestService{store: store, embedder: embedder}
}

// Ingest rebuilds the passage table from docs. The table is provisioned for
// the configured provider's detected dimension before the first write, so a
// provider swap can never leave stale-width vectors behind. Failures are
// tolerated at document granularity: a bad document is logged and skipped,
// the batch keeps going.
func (s *IngestService) Ingest(ctx context.Context, docs []*model.SourceDocument, chunkSize, overlap int) (*IngestResult, error) {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("chunk_size %d / overlap %d: %w", chunkSize, overlap, appErr.ErrConfiguration)
	}
	logger := logutil.GetLogger(ctx).With(
		zap.String("provider", s.embedder.EmbedProviderName()),
		zap.Int("chunk_size", chunkSize),
		zap.Int("overlap", overlap),
	)

	dim, err := s.embedder.DetectDimension(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect embedding dimension: %w", err)
	}
	current, err := s.store.CurrentDimension(ctx)
	if err != nil {
		return nil, fmt.Errorf("read current dimension: %w", err)
	}
	if current != 0 && current != dim {
		logger.Warn("embedding dimension changed, all stored passages will be replaced",
			zap.Int("old", current),
			zap.Int("new", dim),
		)
	}
	// Rebuild is drop-and-recreate every run; content is re-derived from
	// the source corpus, so nothing is lost that cannot be regenerated.
	if err := s.store.Provision(ctx, dim); err != nil {
		return nil, err
	}

	var rows []*model.StoredPassage
	kept, skipped := 0, 0
	for _, doc := range docs {
		docRows, err := s.processDocument(ctx, doc, chunkSize, overlap)
		if err != nil {
			if appErr.IsConfiguration(err) {
				return nil, err
			}
			logger.Warn("skipping document", zap.String("title", doc.Title), zap.Error(err))
			skipped++
			continue
		}
		if len(docRows) == 0 {
			logger.Warn("skipping document with empty summary", zap.String("title", doc.Title))
			skipped++
			continue
		}
		rows = append(rows, docRows...)
		kept++
	}

	inserted, err := s.store.BulkInsert(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("bulk insert passages: %w", err)
	}
	logger.Info("ingestion finished",
		zap.Int("documents", kept),
		zap.Int("skipped", skipped),
		zap.Int64("rows", inserted),
		zap.Int("dimension", dim),
	)
	return &IngestResult{
		RowsInserted: inserted,
		Dimension:    dim,
		Documents:    kept,
		Skipped:      skipped,
	}, nil
}

func (s *IngestService) processDocument(ctx context.Context, doc *model.SourceDocument, chunkSize, overlap int) ([]*model.StoredPassage, error) {
	if doc.Summary == "" {
		return nil, nil
	}
	chunks, err := ai.Chunk(doc.Summary, chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("%d chunks but %d embeddings", len(chunks), len(embeddings))
	}
	rows := make([]*model.StoredPassage, 0, len(chunks))
	for i, chunk := range chunks {
		rows = append(rows, &model.StoredPassage{
			Title:     doc.Title,
			Summary:   doc.Summary,
			Chunk:     chunk,
			Embedding: embeddings[i],
		})
	}
	return rows, nil
}
