package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/paperdex/paperdex/internal/model"
)

type geminiConfig struct {
	APIKey     string `json:"api_key"`
	Model      string `json:"model"`
	EmbedModel string `json:"embed_model"`
}

// geminiClient memoizes the SDK handle so every call reuses one connection
// pool instead of re-dialing per request.
type geminiClient struct {
	apiKey string

	once   sync.Once
	client *genai.Client
	err    error
}

func (g *geminiClient) get(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		g.client, g.err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return g.client, g.err
}

type geminiProvider struct {
	handle *geminiClient
	model  string
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) Generate(ctx context.Context, prompt string, opts GenOptions) (*model.GenerationResult, error) {
	if p.handle.apiKey == "" {
		return nil, generateErr(p.Name(), ErrUnavailable)
	}
	client, err := p.handle.get(ctx)
	if err != nil {
		return nil, generateErr(p.Name(), err)
	}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(opts.Temperature)),
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	if opts.TopP > 0 {
		config.TopP = genai.Ptr(float32(opts.TopP))
	}
	resp, err := client.Models.GenerateContent(
		ctx,
		p.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		config,
	)
	if err != nil {
		return nil, generateErr(p.Name(), err)
	}
	return &model.GenerationResult{Response: strings.TrimSpace(resp.Text())}, nil
}

type geminiEmbedProvider struct {
	handle *geminiClient
	model  string
}

func (p *geminiEmbedProvider) Name() string {
	return "gemini"
}

func (p *geminiEmbedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (p *geminiEmbedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if p.handle.apiKey == "" {
		return nil, embedErr(p.Name(), ErrUnavailable)
	}
	if len(texts) == 0 {
		return nil, nil
	}
	client, err := p.handle.get(ctx)
	if err != nil {
		return nil, embedErr(p.Name(), err)
	}
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, &genai.Content{Parts: []*genai.Part{{Text: text}}})
	}
	resp, err := client.Models.EmbedContent(ctx, p.model, contents, nil)
	if err != nil {
		return nil, embedErr(p.Name(), err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, embedErr(p.Name(), fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)))
	}
	vecs := make([][]float32, 0, len(texts))
	for _, emb := range resp.Embeddings {
		vecs = append(vecs, emb.Values)
	}
	return vecs, nil
}

func createGeminiFactory(args ProviderArgs) (IGenProvider, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args.Data, cfg); err != nil {
		return nil, err
	}
	return &geminiProvider{
		handle: &geminiClient{apiKey: strings.TrimSpace(cfg.APIKey)},
		model:  strings.TrimSpace(cfg.Model),
	}, nil
}

func createGeminiEmbedFactory(args ProviderArgs) (IEmbedProvider, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args.Data, cfg); err != nil {
		return nil, err
	}
	return &geminiEmbedProvider{
		handle: &geminiClient{apiKey: strings.TrimSpace(cfg.APIKey)},
		model:  strings.TrimSpace(cfg.EmbedModel),
	}, nil
}

func init() {
	Register("gemini", createGeminiFactory)
	RegisterEmbed("gemini", createGeminiEmbedFactory)
}
