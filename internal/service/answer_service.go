package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/paperdex/paperdex/internal/ai"
	"github.com/paperdex/paperdex/internal/model"
	appErr "github.com/paperdex/paperdex/internal/pkg/errors"
)

const answerPrompt = `You are a helpful AI assistant. Use the following context to answer the user's question.
Context: %s
Question: %s
Answer:`

const expandPrompt = `Expand the following query, specifically add relevant synonyms for key topics and phrases.
Your goal is to increase the chances of a relevant retrieval from the knowledge base.

Query: %s`

// Retriever is the retrieval engine as the answer flow sees it.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]*model.RetrievedDocument, error)
}

// Completer is the generation dispatch layer as the answer flow sees it.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts ai.GenOptions) (*model.GenerationResult, error)
}

type AnswerConfig struct {
	DefaultTopK        int
	DefaultMaxTokens   int
	DefaultTemperature float64
	TopP               float64
	ExpandQuery        bool
	CacheTTL           time.Duration
}

type AnswerService struct {
	retriever Retriever
	completer Completer
	cfg       AnswerConfig
	cache     *expirable.LRU[string, string]
}

type AnswerResult struct {
	Response        string                     `json:"response"`
	TokensPerSecond *float64                   `json:"response_tokens_per_second,omitempty"`
	ContextUsed     []*model.RetrievedDocument `json:"context_used"`
}

func NewAnswerService(retriever Retriever, completer Completer, cfg AnswerConfig) *AnswerService {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &AnswerService{
		retriever: retriever,
		completer: completer,
		cfg:       cfg,
		cache:     expirable.NewLRU[string, string](4096, nil, ttl),
	}
}

// Answer runs the full RAG flow: (optionally expanded) retrieval, context
// assembly, one generation call. Generation failures surface inside the
// response text rather than as errors, so the caller always gets something
// visible back.
func (s *AnswerService) Answer(ctx context.Context, query string, topK, maxTokens int, temperature float64) (*AnswerResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required: %w", appErr.ErrInvalid)
	}
	if topK <= 0 {
		topK = s.cfg.DefaultTopK
	}
	if maxTokens <= 0 {
		maxTokens = s.cfg.DefaultMaxTokens
	}
	if temperature <= 0 {
		temperature = s.cfg.DefaultTemperature
	}

	cacheKey := s.cacheKey(query, topK, maxTokens, temperature)
	if cached, ok := s.cache.Get(cacheKey); ok {
		var result AnswerResult
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return &result, nil
		}
	}

	logger := logutil.GetLogger(ctx).With(zap.String("query", query), zap.Int("top_k", topK))

	retrievalQuery := query
	if s.cfg.ExpandQuery {
		retrievalQuery = s.expandQuery(ctx, query)
	}
	docs, err := s.retriever.Retrieve(ctx, retrievalQuery, topK)
	if err != nil {
		return nil, err
	}
	logger.Debug("context retrieved", zap.Int("passages", len(docs)))

	contextParts := make([]string, 0, len(docs))
	for _, doc := range docs {
		contextParts = append(contextParts, doc.Chunk)
	}
	prompt := fmt.Sprintf(answerPrompt, strings.Join(contextParts, "\n"), query)

	gen, err := s.completer.Complete(ctx, prompt, ai.GenOptions{
		Temperature: temperature,
		TopP:        s.cfg.TopP,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, err
	}
	result := &AnswerResult{
		Response:        gen.Response,
		TokensPerSecond: gen.TokensPerSecond,
		ContextUsed:     docs,
	}
	if data, err := json.Marshal(result); err == nil {
		s.cache.Add(cacheKey, string(data))
	}
	return result, nil
}

// expandQuery asks the generator for a synonym-enriched version of query.
// Any failure falls back to the raw query; expansion is an optimization,
// never a dependency.
func (s *AnswerService) expandQuery(ctx context.Context, query string) string {
	gen, err := s.completer.Complete(ctx, fmt.Sprintf(expandPrompt, query), ai.GenOptions{
		Temperature: s.cfg.DefaultTemperature,
		MaxTokens:   s.cfg.DefaultMaxTokens,
		HardFail:    true,
	})
	if err != nil || gen == nil || strings.TrimSpace(gen.Response) == "" {
		logutil.GetLogger(ctx).Warn("query expansion failed, using raw query", zap.Error(err))
		return query
	}
	return strings.ReplaceAll(gen.Response, `"`, "")
}

func (s *AnswerService) cacheKey(query string, topK, maxTokens int, temperature float64) string {
	hash := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%d|%f", query, topK, maxTokens, temperature))
	return hex.EncodeToString(hash[:])
}
