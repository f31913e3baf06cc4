package service

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/paperdex/paperdex/internal/ai"
	"github.com/paperdex/paperdex/internal/config"
)

// Store is the full storage capability the services consume together.
type Store interface {
	PassageStore
	NeighborSearcher
}

// Factory builds the service graph for one (embed provider, gen provider)
// pair and memoizes it, so per-request provider overrides reuse client
// handles instead of re-dialing every call.
type Factory struct {
	aiCfg     config.AIConfig
	answerCfg AnswerConfig
	store     Store
	creds     aws.CredentialsProvider

	mu    sync.Mutex
	cache map[string]*Services
}

type Services struct {
	Manager   *ai.Manager
	Ingest    *IngestService
	Retrieval *RetrievalService
	Answer    *AnswerService
}

func NewFactory(aiCfg config.AIConfig, answerCfg config.AnswerConfig, store Store, creds aws.CredentialsProvider) *Factory {
	return &Factory{
		aiCfg: aiCfg,
		answerCfg: AnswerConfig{
			DefaultTopK:        answerCfg.TopK,
			DefaultMaxTokens:   answerCfg.MaxTokens,
			DefaultTemperature: answerCfg.Temperature,
			TopP:               answerCfg.TopP,
			ExpandQuery:        answerCfg.ExpandQuery,
			CacheTTL:           time.Duration(answerCfg.CacheTTLMinutes) * time.Minute,
		},
		store: store,
		creds: creds,
		cache: make(map[string]*Services),
	}
}

// Get returns the services for the given providers; empty names fall back
// to the configured defaults.
func (f *Factory) Get(embedProvider, genProvider string) (*Services, error) {
	embedProvider = strings.ToLower(strings.TrimSpace(embedProvider))
	genProvider = strings.ToLower(strings.TrimSpace(genProvider))
	if embedProvider == "" {
		embedProvider = strings.ToLower(f.aiCfg.EmbedProvider)
	}
	if genProvider == "" {
		genProvider = strings.ToLower(f.aiCfg.GenProvider)
	}
	key := embedProvider + "|" + genProvider

	f.mu.Lock()
	defer f.mu.Unlock()
	if svc, ok := f.cache[key]; ok {
		return svc, nil
	}
	embedder, err := ai.NewEmbedProvider(embedProvider, f.providerArgs(embedProvider))
	if err != nil {
		return nil, fmt.Errorf("init embedding provider: %w", err)
	}
	generator, err := ai.NewGenProvider(genProvider, f.providerArgs(genProvider))
	if err != nil {
		return nil, fmt.Errorf("init generation provider: %w", err)
	}
	manager := ai.NewManager(embedder, generator, ai.ManagerConfig{Timeout: f.aiCfg.Timeout})
	retrieval := NewRetrievalService(f.store, manager)
	svc := &Services{
		Manager:   manager,
		Ingest:    NewIngestService(f.store, manager),
		Retrieval: retrieval,
		Answer:    NewAnswerService(retrieval, manager, f.answerCfg),
	}
	f.cache[key] = svc
	return svc, nil
}

func (f *Factory) providerArgs(name string) ai.ProviderArgs {
	var data interface{}
	if block, ok := f.aiCfg.Providers[name]; ok {
		data = block
	} else {
		// Providers that need no settings still get a decodable block.
		data = map[string]interface{}{}
	}
	return ai.ProviderArgs{Data: data, Credentials: f.creds}
}
