package ai

import (
	"context"
	"fmt"
	"strings"
)

const defaultCohereBaseURL = "https://api.cohere.ai"

type cohereConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

type cohereEmbedRequest struct {
	Texts []string `json:"texts"`
	Model string   `json:"model,omitempty"`
}

type cohereEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type cohereEmbedProvider struct {
	apiKey  string
	baseURL string
	model   string
}

func (p *cohereEmbedProvider) Name() string {
	return "cohere"
}

func (p *cohereEmbedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch relies on the API returning embeddings in input order.
func (p *cohereEmbedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if p.apiKey == "" {
		return nil, embedErr(p.Name(), ErrUnavailable)
	}
	if len(texts) == 0 {
		return nil, nil
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/v1/embed"
	reqBody := cohereEmbedRequest{
		Texts: texts,
		Model: p.model,
	}
	var out cohereEmbedResponse
	if err := postJSON(ctx, endpoint, bearerHeader(p.apiKey), reqBody, &out); err != nil {
		return nil, embedErr(p.Name(), err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, embedErr(p.Name(), fmt.Errorf("expected %d embeddings, got %d", len(texts), len(out.Embeddings)))
	}
	return out.Embeddings, nil
}

func createCohereEmbedFactory(args ProviderArgs) (IEmbedProvider, error) {
	cfg := &cohereConfig{}
	if err := decodeConfig(args.Data, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultCohereBaseURL
	}
	return &cohereEmbedProvider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		model:   strings.TrimSpace(cfg.Model),
	}, nil
}

func init() {
	RegisterEmbed("cohere", createCohereEmbedFactory)
}
