package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/paperdex/paperdex/internal/model"
	appErr "github.com/paperdex/paperdex/internal/pkg/errors"
)

type bedrockConfig struct {
	Region       string `json:"region"`
	ModelID      string `json:"model_id"`
	EmbedModelID string `json:"embed_model_id"`
}

// bedrockClient builds the runtime client once and reuses it. Credentials
// come from the shared STS cache, so the handle stays valid across
// credential refreshes.
type bedrockClient struct {
	region string
	creds  aws.CredentialsProvider

	once   sync.Once
	client *bedrockruntime.Client
}

func (b *bedrockClient) get() *bedrockruntime.Client {
	b.once.Do(func() {
		b.client = bedrockruntime.New(bedrockruntime.Options{
			Region:      b.region,
			Credentials: b.creds,
		})
	})
	return b.client
}

func (b *bedrockClient) invoke(ctx context.Context, modelID string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := b.get().InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Body:        payload,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(resp.Body, out)
}

type bedrockTitanEmbedRequest struct {
	InputText string `json:"inputText"`
}

type bedrockTitanEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type bedrockClaudeRequest struct {
	Prompt            string  `json:"prompt"`
	MaxTokensToSample int     `json:"max_tokens_to_sample"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p,omitempty"`
}

type bedrockClaudeResponse struct {
	Completion string `json:"completion"`
}

type bedrockProvider struct {
	handle  *bedrockClient
	modelID string
}

func (p *bedrockProvider) Name() string {
	return "bedrock"
}

func (p *bedrockProvider) Generate(ctx context.Context, prompt string, opts GenOptions) (*model.GenerationResult, error) {
	reqBody := bedrockClaudeRequest{
		Prompt:            prompt,
		MaxTokensToSample: opts.MaxTokens,
		Temperature:       opts.Temperature,
		TopP:              opts.TopP,
	}
	var out bedrockClaudeResponse
	if err := p.handle.invoke(ctx, p.modelID, reqBody, &out); err != nil {
		return nil, generateErr(p.Name(), err)
	}
	return &model.GenerationResult{Response: strings.TrimSpace(out.Completion)}, nil
}

type bedrockEmbedProvider struct {
	handle  *bedrockClient
	modelID string
}

func (p *bedrockEmbedProvider) Name() string {
	return "bedrock"
}

func (p *bedrockEmbedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	var out bedrockTitanEmbedResponse
	if err := p.handle.invoke(ctx, p.modelID, bedrockTitanEmbedRequest{InputText: text}, &out); err != nil {
		return nil, embedErr(p.Name(), err)
	}
	if len(out.Embedding) == 0 {
		return nil, embedErr(p.Name(), fmt.Errorf("response has no embedding"))
	}
	return out.Embedding, nil
}

func newBedrockClient(args ProviderArgs, cfg *bedrockConfig) (*bedrockClient, error) {
	if args.Credentials == nil {
		return nil, fmt.Errorf("bedrock requires a credential source: %w", appErr.ErrConfiguration)
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("bedrock region is required: %w", appErr.ErrConfiguration)
	}
	return &bedrockClient{region: cfg.Region, creds: args.Credentials}, nil
}

func createBedrockFactory(args ProviderArgs) (IGenProvider, error) {
	cfg := &bedrockConfig{}
	if err := decodeConfig(args.Data, cfg); err != nil {
		return nil, err
	}
	handle, err := newBedrockClient(args, cfg)
	if err != nil {
		return nil, err
	}
	return &bedrockProvider{
		handle:  handle,
		modelID: strings.TrimSpace(cfg.ModelID),
	}, nil
}

func createBedrockEmbedFactory(args ProviderArgs) (IEmbedProvider, error) {
	cfg := &bedrockConfig{}
	if err := decodeConfig(args.Data, cfg); err != nil {
		return nil, err
	}
	handle, err := newBedrockClient(args, cfg)
	if err != nil {
		return nil, err
	}
	return &bedrockEmbedProvider{
		handle:  handle,
		modelID: strings.TrimSpace(cfg.EmbedModelID),
	}, nil
}

func init() {
	Register("bedrock", createBedrockFactory)
	RegisterEmbed("bedrock", createBedrockEmbedFactory)
}
