package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/paperdex/paperdex/internal/model"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type openAIConfig struct {
	APIKey     string `json:"api_key"`
	BaseURL    string `json:"base_url"`
	Model      string `json:"model"`
	EmbedModel string `json:"embed_model"`
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIChatMsg `json:"messages"`
	Temperature float64         `json:"temperature"`
	TopP        float64         `json:"top_p,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream"`
}

type openAIChatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type openAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type openAIProvider struct {
	apiKey  string
	baseURL string
	model   string
}

func (p *openAIProvider) Name() string {
	return "openai"
}

func (p *openAIProvider) Generate(ctx context.Context, prompt string, opts GenOptions) (*model.GenerationResult, error) {
	if p.apiKey == "" {
		return nil, generateErr(p.Name(), ErrUnavailable)
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/chat/completions"
	reqBody := openAIChatRequest{
		Model:       p.model,
		Messages:    []openAIChatMsg{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		MaxTokens:   opts.MaxTokens,
		Stream:      false,
	}
	start := time.Now()
	var out openAIChatResponse
	if err := postJSON(ctx, endpoint, bearerHeader(p.apiKey), reqBody, &out); err != nil {
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

type openAIEmbedProvider struct {
	apiKey  string
	baseURL string
	model   string
}

func (p *openAIEmbedProvider) Name() string {
	return "openai"
}

func (p *openAIEmbedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch sends all inputs in one request. The API tags each vector with
// the index of its input, so the response is re-ordered before returning.
func (p *openAIEmbedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if p.apiKey == "" {
		return nil, embedErr(p.Name(), ErrUnavailable)
	}
	if len(texts) == 0 {
		return nil, nil
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/embeddings"
	reqBody := openAIEmbedRequest{
		Model: p.model,
		Input: texts,
	}
	var out openAIEmbedResponse
	if err := postJSON(ctx, endpoint, bearerHeader(p.apiKey), reqBody, &out); err != nil {
		return nil, embedErr(p.Name(), err)
	}
	if len(out.Data) != len(texts) {
		return nil, embedErr(p.Name(), fmt.Errorf("expected %d embeddings, got %d", len(texts), len(out.Data)))
	}
	vecs := make([][]float32, len(texts))
	for _, item := range out.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, embedErr(p.Name(), fmt.Errorf("embedding index %d out of range", item.Index))
		}
		vecs[item.Index] = item.Embedding
	}
	for i, v := range vecs {
		if v == nil {
			return nil, embedErr(p.Name(), fmt.Errorf("missing embedding for input %d", i))
		}
	}
	return vecs, nil
}

func createOpenAIFactory(args ProviderArgs) (IGenProvider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args.Data, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &openAIProvider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		model:   strings.TrimSpace(cfg.Model),
	}, nil
}

func createOpenAIEmbedFactory(args ProviderArgs) (IEmbedProvider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args.Data, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &openAIEmbedProvider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		model:   strings.TrimSpace(cfg.EmbedModel),
	}, nil
}

func init() {
	Register("openai", createOpenAIFactory)
	RegisterEmbed("openai", createOpenAIEmbedFactory)
}

func bearerHeader(apiKey string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + apiKey}
}

func postJSON(ctx context.Context, endpoint string, headers map[string]string, in interface{}, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func tokensPerSecond(completionTokens int, elapsed time.Duration) *float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return nil
	}
	tps := float64(completionTokens) / secs
	return &tps
}
