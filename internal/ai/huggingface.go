package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const defaultHuggingFaceBaseURL = "https://api-inference.huggingface.co"

type huggingfaceConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

type huggingfaceEmbedProvider struct {
	apiKey  string
	baseURL string
	model   string
}

func (p *huggingfaceEmbedProvider) Name() string {
	return "huggingface"
}

func (p *huggingfaceEmbedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.apiKey == "" {
		return nil, embedErr(p.Name(), ErrUnavailable)
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/pipeline/feature-extraction/" + p.model
	reqBody := map[string]string{"inputs": text}
	// The inference API answers either a flat vector or a one-element
	// batch of vectors depending on the model pipeline.
	var raw json.RawMessage
	if err := postJSON(ctx, endpoint, bearerHeader(p.apiKey), reqBody, &raw); err != nil {
		return nil, embedErr(p.Name(), err)
	}
	var flat []float32
	if err := json.Unmarshal(raw, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}
	var nested [][]float32
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return nested[0], nil
	}
	return nil, embedErr(p.Name(), fmt.Errorf("response has no embedding"))
}

func createHuggingFaceEmbedFactory(args ProviderArgs) (IEmbedProvider, error) {
	cfg := &huggingfaceConfig{}
	if err := decodeConfig(args.Data, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultHuggingFaceBaseURL
	}
	return &huggingfaceEmbedProvider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		model:   strings.TrimSpace(cfg.Model),
	}, nil
}

func init() {
	RegisterEmbed("huggingface", createHuggingFaceEmbedFactory)
}
