package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/paperdex/paperdex/internal/model"
)

const defaultOllamaBaseURL = "http://localhost:11434"

type ollamaConfig struct {
	BaseURL    string `json:"base_url"`
	Model      string `json:"model"`
	EmbedModel string `json:"embed_model"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaGenerateResponse struct {
	Response     string `json:"response"`
	EvalCount    int    `json:"eval_count"`
	EvalDuration int64  `json:"eval_duration"`
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type ollamaProvider struct {
	baseURL string
	model   string
}

func (p *ollamaProvider) Name() string {
	return "ollama"
}

func (p *ollamaProvider) Generate(ctx context.Context, prompt string, opts GenOptions) (*model.GenerationResult, error) {
	endpoint := strings.TrimRight(p.baseURL, "/") + "/api/generate"
	reqBody := ollamaGenerateRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: opts.Temperature,
			TopP:        opts.TopP,
			NumPredict:  opts.MaxTokens,
		},
	}
	var out ollamaGenerateResponse
	if err := postJSON(ctx, endpoint, nil, reqBody, &out); err != nil {
		return nil, generateErr(p.Name(), err)
	}
	result := &model.GenerationResult{
		Response: strings.TrimSpace(out.Response),
	}
	// eval_duration is reported in nanoseconds
	if out.EvalCount > 0 && out.EvalDuration > 0 {
		tps := float64(out.EvalCount) / (float64(out.EvalDuration) / 1e9)
		result.TokensPerSecond = &tps
	}
	return result, nil
}

type ollamaEmbedProvider struct {
	baseURL string
	model   string
}

func (p *ollamaEmbedProvider) Name() string {
	return "ollama"
}

func (p *ollamaEmbedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	endpoint := strings.TrimRight(p.baseURL, "/") + "/api/embeddings"
	reqBody := ollamaEmbedRequest{
		Model:  p.model,
		Prompt: text,
	}
	var out ollamaEmbedResponse
	if err := postJSON(ctx, endpoint, nil, reqBody, &out); err != nil {
		return nil, embedErr(p.Name(), err)
	}
	if len(out.Embedding) == 0 {
		return nil, embedErr(p.Name(), fmt.Errorf("response has no embedding"))
	}
	return out.Embedding, nil
}

func createOllamaFactory(args ProviderArgs) (IGenProvider, error) {
	cfg := &ollamaConfig{}
	if err := decodeConfig(args.Data, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &ollamaProvider{
		baseURL: baseURL,
		model:   strings.TrimSpace(cfg.Model),
	}, nil
}

func createOllamaEmbedFactory(args ProviderArgs) (IEmbedProvider, error) {
	cfg := &ollamaConfig{}
	if err := decodeConfig(args.Data, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &ollamaEmbedProvider{
		baseURL: baseURL,
		model:   strings.TrimSpace(cfg.EmbedModel),
	}, nil
}

func init() {
	Register("ollama", createOllamaFactory)
	RegisterEmbed("ollama", createOllamaEmbedFactory)
}
