package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paperdex/paperdex/internal/config"
	"github.com/paperdex/paperdex/internal/model"
	appErr "github.com/paperdex/paperdex/internal/pkg/errors"
)

type fullFakeStore struct {
	fakeStore
}

func (f *fullFakeStore) NearestNeighbors(ctx context.Context, embedding []float32, k int) ([]*model.RetrievedDocument, error) {
	return nil, nil
}

func newTestFactory() *Factory {
	return NewFactory(
		config.AIConfig{
			EmbedProvider: "ollama",
			GenProvider:   "ollama",
			Providers: map[string]map[string]interface{}{
				"ollama": {"base_url": "http://localhost:11434"},
			},
			Timeout: 30,
		},
		config.AnswerConfig{TopK: 5, MaxTokens: 200, Temperature: 0.7},
		&fullFakeStore{},
		nil,
	)
}

func TestFactoryMemoizesServiceGraph(t *testing.T) {
	factory := newTestFactory()

	first, err := factory.Get("", "")
	require.NoError(t, err)
	second, err := factory.Get("ollama", "ollama")
	require.NoError(t, err)
	// default and explicit names resolve to the same cached graph
	require.Same(t, first, second)
}

func TestFactoryBuildsPerProviderGraphs(t *testing.T) {
	factory := newTestFactory()

	defaults, err := factory.Get("", "")
	require.NoError(t, err)
	override, err := factory.Get("huggingface", "")
	require.NoError(t, err)
	require.NotSame(t, defaults, override)
}

func TestFactoryUnknownProvider(t *testing.T) {
	factory := newTestFactory()
	_, err := factory.Get("no-such-backend", "")
	require.True(t, errors.Is(err, appErr.ErrUnsupportedProvider))
}
