package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/paperdex/paperdex/internal/model"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

type openrouterConfig struct {
	APIKey      string `json:"api_key"`
	BaseURL     string `json:"base_url"`
	Model       string `json:"model"`
	HTTPReferer string `json:"http_referer"`
	XTitle      string `json:"x_title"`
}

type openrouterProvider struct {
	apiKey      string
	baseURL     string
	model       string
	httpReferer string
	xTitle      string
}

func (p *openrouterProvider) Name() string {
	return "openrouter"
}

func (p *openrouterProvider) Generate(ctx context.Context, prompt string, opts GenOptions) (*model.GenerationResult, error) {
	if p.apiKey == "" {
		return nil, generateErr(p.Name(), ErrUnavailable)
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/chat/completions"
	// OpenRouter speaks the OpenAI chat wire format.
	reqBody := openAIChatRequest{
		Model:       p.model,
		Messages:    []openAIChatMsg{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		MaxTokens:   opts.MaxTokens,
		Stream:      false,
	}
	headers := bearerHeader(p.apiKey)
	if p.httpReferer != "" {
		headers["HTTP-Referer"] = p.httpReferer
	}
	if p.xTitle != "" {
		headers["X-Title"] = p.xTitle
	}
	start := time.Now()
	var out openAIChatResponse
	if err := postJSON(ctx, endpoint, headers, reqBody, &out); err != nil {
		return nil, generateErr(p.Name(), err)
	}
	if len(out.Choices) == 0 {
		return nil, generateErr(p.Name(), fmt.Errorf("response has no choices"))
	}
	result := &model.GenerationResult{
		Response: strings.TrimSpace(out.Choices[0].Message.Content),
	}
	if out.Usage.CompletionTokens > 0 {
		result.TokensPerSecond = tokensPerSecond(out.Usage.CompletionTokens, time.Since(start))
	}
	return result, nil
}

func createOpenRouterFactory(args ProviderArgs) (IGenProvider, error) {
	cfg := &openrouterConfig{}
	if err := decodeConfig(args.Data, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	return &openrouterProvider{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		baseURL:     baseURL,
		model:       strings.TrimSpace(cfg.Model),
		httpReferer: strings.TrimSpace(cfg.HTTPReferer),
		xTitle:      strings.TrimSpace(cfg.XTitle),
	}, nil
}

func init() {
	Register("openrouter", createOpenRouterFactory)
}
