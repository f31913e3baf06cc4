package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/paperdex/paperdex/internal/model"
	appErr "github.com/paperdex/paperdex/internal/pkg/errors"
)

// GenOptions is the normalized request shape every generation backend
// accepts, whatever its own field names look like on the wire.
type GenOptions struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
	// HardFail makes the dispatcher return provider errors instead of
	// degrading them into an error-flavored response string.
	HardFail bool
}

type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
}

// IBatchEmbedder is implemented by providers whose API accepts several
// inputs per call. Output order must match input order.
type IBatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type IGenProvider interface {
	Name() string
	Generate(ctx context.Context, prompt string, opts GenOptions) (*model.GenerationResult, error)
}

// ProviderArgs is what every factory receives: the raw provider config
// block plus process-wide collaborators a cloud backend may need.
type ProviderArgs struct {
	Data        interface{}
	Credentials aws.CredentialsProvider
}

type EmbedFactory func(args ProviderArgs) (IEmbedProvider, error)
type GenFactory func(args ProviderArgs) (IGenProvider, error)

var (
	registryMu    sync.RWMutex
	embedRegistry = map[string]EmbedFactory{}
	genRegistry   = map[string]GenFactory{}
)

func RegisterEmbed(name string, factory EmbedFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	embedRegistry[key] = factory
	registryMu.Unlock()
}

func Register(name string, factory GenFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	genRegistry[key] = factory
	registryMu.Unlock()
}

func NewEmbedProvider(name string, args ProviderArgs) (IEmbedProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("embedding provider is required: %w", appErr.ErrConfiguration)
	}
	registryMu.RLock()
	factory := embedRegistry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("embedding provider %q: %w", name, appErr.ErrUnsupportedProvider)
	}
	return factory(args)
}

func NewGenProvider(name string, args ProviderArgs) (IGenProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("generation provider is required: %w", appErr.ErrConfiguration)
	}
	registryMu.RLock()
	factory := genRegistry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("generation provider %q: %w", name, appErr.ErrUnsupportedProvider)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required: %w", appErr.ErrConfiguration)
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
