package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/paperdex/paperdex/internal/model"
)

// probeText is the fixed input used to discover a provider's vector width.
const probeText = "test"

type ManagerConfig struct {
	// Timeout bounds every outbound provider call, in seconds.
	Timeout int
}

// Manager is the dispatch layer over one embedding provider and one
// generation provider. It owns no retry policy; callers decide that.
type Manager struct {
	embedder  IEmbedProvider
	generator IGenProvider
	cfg       ManagerConfig
}

func NewManager(embedder IEmbedProvider, generator IGenProvider, cfg ManagerConfig) *Manager {
	return &Manager{
		embedder:  embedder,
		generator: generator,
		cfg:       cfg,
	}
}

func (m *Manager) EmbedProviderName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.Name()
}

func (m *Manager) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	ctx, cancel := m.callContext(ctx)
	defer cancel()
	return m.embedder.Embed(ctx, text)
}

// EmbedBatch embeds texts in input order. Providers that accept batched
// input get one call; the rest are called once per text.
func (m *Manager) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	if len(texts) == 0 {
		return nil, nil
	}
	ctx, cancel := m.callContext(ctx)
	defer cancel()
	if batcher, ok := m.embedder.(IBatchEmbedder); ok {
		return batcher.EmbedBatch(ctx, texts)
	}
	vecs := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := m.embedder.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs = append(vecs, vec)
	}
	return vecs, nil
}

// DetectDimension embeds a fixed probe string and reports the width of the
// vector the configured provider produces.
func (m *Manager) DetectDimension(ctx context.Context) (int, error) {
	vec, err := m.Embed(ctx, probeText)
	if err != nil {
		return 0, err
	}
	return len(vec), nil
}

// Complete runs one generation call. Provider failures degrade into a
// visible error response instead of an error return, so retrieval callers
// keep working when the backend misbehaves; opts.HardFail disables that.
func (m *Manager) Complete(ctx context.Context, prompt string, opts GenOptions) (*model.GenerationResult, error) {
	if m.generator == nil {
		return nil, fmt.Errorf("generator not configured")
	}
	callCtx, cancel := m.callContext(ctx)
	defer cancel()
	result, err := m.generator.Generate(callCtx, prompt, opts)
	if err != nil {
		if opts.HardFail {
			return nil, err
		}
		logutil.GetLogger(ctx).Warn("generation degraded to error response",
			zap.String("provider", m.generator.Name()),
			zap.Error(err),
		)
		return &model.GenerationResult{
			Response: fmt.Sprintf("[generation failed via %s: %v]", m.generator.Name(), err),
		}, nil
	}
	return result, nil
}

func (m *Manager) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
	}
	return ctx, func() {}
}
