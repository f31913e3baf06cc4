package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/paperdex/paperdex/internal/ai"
	"github.com/paperdex/paperdex/internal/model"
	appErr "github.com/paperdex/paperdex/internal/pkg/errors"
)

type fakeRetriever struct {
	docs    []*model.RetrievedDocument
	err     error
	queries []string
	topKs   []int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, topK int) ([]*model.RetrievedDocument, error) {
	f.queries = append(f.queries, query)
	f.topKs = append(f.topKs, topK)
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

type fakeCompleter struct {
	responses map[string]string
	expandErr error
	prompts   []string
	opts      []ai.GenOptions
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, opts ai.GenOptions) (*model.GenerationResult, error) {
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)
	if opts.HardFail && f.expandErr != nil {
		return nil, f.expandErr
	}
	for needle, response := range f.responses {
		if strings.Contains(prompt, needle) {
			return &model.GenerationResult{Response: response}, nil
		}
	}
	return &model.GenerationResult{Response: "default answer"}, nil
}

func newAnswerConfig() AnswerConfig {
	return AnswerConfig{
		DefaultTopK:        5,
		DefaultMaxTokens:   200,
		DefaultTemperature: 0.7,
		CacheTTL:           time.Minute,
	}
}

func TestAnswerAssemblesContextIntoPrompt(t *testing.T) {
	retriever := &fakeRetriever{docs: []*model.RetrievedDocument{
		{ID: 1, Chunk: "first passage"},
		{ID: 2, Chunk: "second passage"},
	}}
	completer := &fakeCompleter{}
	svc := NewAnswerService(retriever, completer, newAnswerConfig())

	result, err := svc.Answer(context.Background(), "what is attention", 2, 100, 0.5)
	require.NoError(t, err)
	require.Equal(t, "default answer", result.Response)
	require.Len(t, result.ContextUsed, 2)

	require.Len(t, completer.prompts, 1)
	prompt := completer.prompts[0]
	require.Contains(t, prompt, "first passage\nsecond passage")
	require.Contains(t, prompt, "what is attention")
	require.Equal(t, 100, completer.opts[0].MaxTokens)
	require.Equal(t, 0.5, completer.opts[0].Temperature)
	require.False(t, completer.opts[0].HardFail)
}

func TestAnswerAppliesDefaults(t *testing.T) {
	retriever := &fakeRetriever{}
	completer := &fakeCompleter{}
	svc := NewAnswerService(retriever, completer, newAnswerConfig())

	_, err := svc.Answer(context.Background(), "q", 0, 0, 0)
	require.NoError(t, err)
	require.Equal(t, []int{5}, retriever.topKs)
	require.Equal(t, 200, completer.opts[0].MaxTokens)
	require.Equal(t, 0.7, completer.opts[0].Temperature)
}

func TestAnswerEmptyQuery(t *testing.T) {
	svc := NewAnswerService(&fakeRetriever{}, &fakeCompleter{}, newAnswerConfig())
	_, err := svc.Answer(context.Background(), "   ", 5, 100, 0.5)
	require.True(t, errors.Is(err, appErr.ErrInvalid))
}

func TestAnswerQueryExpansion(t *testing.T) {
	retriever := &fakeRetriever{}
	completer := &fakeCompleter{responses: map[string]string{
		"Expand the following query": `attention "self-attention" transformers`,
	}}
	cfg := newAnswerConfig()
	cfg.ExpandQuery = true
	svc := NewAnswerService(retriever, completer, cfg)

	_, err := svc.Answer(context.Background(), "attention", 3, 100, 0.5)
	require.NoError(t, err)

	// retrieval ran against the expanded query with quotes stripped; the
	// answer prompt still carries the user's original words
	require.Equal(t, []string{"attention self-attention transformers"}, retriever.queries)
	require.Contains(t, completer.prompts[1], "Question: attention")
}

func TestAnswerQueryExpansionFallsBack(t *testing.T) {
	retriever := &fakeRetriever{}
	completer := &fakeCompleter{expandErr: fmt.Errorf("backend down")}
	cfg := newAnswerConfig()
	cfg.ExpandQuery = true
	svc := NewAnswerService(retriever, completer, cfg)

	_, err := svc.Answer(context.Background(), "attention", 3, 100, 0.5)
	require.NoError(t, err)
	require.Equal(t, []string{"attention"}, retriever.queries)
}

func TestAnswerRetrievalErrorPropagates(t *testing.T) {
	retriever := &fakeRetriever{err: fmt.Errorf("%w: boom", appErr.ErrRetrieval)}
	svc := NewAnswerService(retriever, &fakeCompleter{}, newAnswerConfig())

	_, err := svc.Answer(context.Background(), "q", 5, 100, 0.5)
	require.True(t, errors.Is(err, appErr.ErrRetrieval))
}

func TestAnswerCachesByParameters(t *testing.T) {
	retriever := &fakeRetriever{}
	completer := &fakeCompleter{}
	svc := NewAnswerService(retriever, completer, newAnswerConfig())

	_, err := svc.Answer(context.Background(), "q", 5, 100, 0.5)
	require.NoError(t, err)
	_, err = svc.Answer(context.Background(), "q", 5, 100, 0.5)
	require.NoError(t, err)
	// second call is served from cache
	require.Len(t, retriever.queries, 1)

	_, err = svc.Answer(context.Background(), "q", 3, 100, 0.5)
	require.NoError(t, err)
	require.Len(t, retriever.queries, 2)
}
