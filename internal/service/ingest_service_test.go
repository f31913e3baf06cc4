package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paperdex/paperdex/internal/model"
	appErr "github.com/paperdex/paperdex/internal/pkg/errors"
)

type fakeStore struct {
	dim        int
	provisions []int
	rows       []*model.StoredPassage
}

func (f *fakeStore) CurrentDimension(ctx context.Context) (int, error) {
	return f.dim, nil
}

func (f *fakeStore) Provision(ctx context.Context, dim int) error {
	f.provisions = append(f.provisions, dim)
	f.dim = dim
	f.rows = nil
	return nil
}

func (f *fakeStore) BulkInsert(ctx context.Context, rows []*model.StoredPassage) (int64, error) {
	f.rows = append(f.rows, rows...)
	return int64(len(rows)), nil
}

type fakeIngestEmbedder struct {
	dim      int
	batchErr map[string]error
}

func (f *fakeIngestEmbedder) Name() string              { return "fake" }
func (f *fakeIngestEmbedder) EmbedProviderName() string { return "fake" }

func (f *fakeIngestEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, f.dim), nil
}

func (f *fakeIngestEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for _, text := range texts {
		if err := f.batchErr[text]; err != nil {
			return nil, err
		}
	}
	vecs := make([][]float32, 0, len(texts))
	for range texts {
		vecs = append(vecs, make([]float32, f.dim))
	}
	return vecs, nil
}

func (f *fakeIngestEmbedder) DetectDimension(ctx context.Context) (int, error) {
	return f.dim, nil
}

func words(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("w%d", i)
	}
	return out
}

func TestIngestEndToEnd(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestService(store, &fakeIngestEmbedder{dim: 1536})

	docs := []*model.SourceDocument{
		{Title: "A", Summary: words(600)},
		{Title: "B", Summary: ""},
	}
	result, err := svc.Ingest(context.Background(), docs, 512, 50)
	require.NoError(t, err)

	// 600 words at chunk 512 / overlap 50 windows into 2 chunks; the
	// empty-summary document contributes nothing.
	require.Equal(t, int64(2), result.RowsInserted)
	require.Equal(t, 1536, result.Dimension)
	require.Equal(t, 1, result.Documents)
	require.Equal(t, 1, result.Skipped)

	require.Equal(t, []int{1536}, store.provisions)
	require.Len(t, store.rows, 2)
	for _, row := range store.rows {
		require.Equal(t, "A", row.Title)
		require.Len(t, row.Embedding, 1536)
		require.NotEmpty(t, row.Chunk)
	}
}

func TestIngestProvisionsOnDimensionChange(t *testing.T) {
	store := &fakeStore{dim: 768}
	svc := NewIngestService(store, &fakeIngestEmbedder{dim: 1536})

	result, err := svc.Ingest(context.Background(), []*model.SourceDocument{
		{Title: "A", Summary: "short summary text"},
	}, 512, 50)
	require.NoError(t, err)
	require.Equal(t, 1536, result.Dimension)
	require.Equal(t, []int{1536}, store.provisions)
}

func TestIngestSkipsFailingDocument(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeIngestEmbedder{
		dim:      8,
		batchErr: map[string]error{"bad doc body": fmt.Errorf("backend refused")},
	}
	svc := NewIngestService(store, embedder)

	docs := []*model.SourceDocument{
		{Title: "good", Summary: "good doc body"},
		{Title: "bad", Summary: "bad doc body"},
	}
	result, err := svc.Ingest(context.Background(), docs, 512, 50)
	require.NoError(t, err)
	require.Equal(t, int64(1), result.RowsInserted)
	require.Equal(t, 1, result.Documents)
	require.Equal(t, 1, result.Skipped)
}

func TestIngestRejectsBadChunkParams(t *testing.T) {
	svc := NewIngestService(&fakeStore{}, &fakeIngestEmbedder{dim: 8})
	for _, tc := range []struct{ chunkSize, overlap int }{
		{0, 0},
		{-1, 0},
		{512, -1},
		{50, 50},
		{50, 512},
	} {
		_, err := svc.Ingest(context.Background(), nil, tc.chunkSize, tc.overlap)
		require.Error(t, err, "chunk_size=%d overlap=%d", tc.chunkSize, tc.overlap)
		require.True(t, errors.Is(err, appErr.ErrConfiguration))
	}
}

func TestIngestEmptyCorpus(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestService(store, &fakeIngestEmbedder{dim: 8})

	result, err := svc.Ingest(context.Background(), nil, 512, 50)
	require.NoError(t, err)
	require.Equal(t, int64(0), result.RowsInserted)
	require.Equal(t, 8, result.Dimension)
	// the table is still provisioned so retrieval sees a real dimension
	require.Equal(t, []int{8}, store.provisions)
}
