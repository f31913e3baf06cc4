package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/paperdex/paperdex/internal/pkg/errors"
)

func TestNewEmbedProviderUnknownName(t *testing.T) {
	_, err := NewEmbedProvider("no-such-backend", ProviderArgs{})
	require.Error(t, err)
	require.True(t, errors.Is(err, appErr.ErrUnsupportedProvider))
}

func TestNewGenProviderUnknownName(t *testing.T) {
	_, err := NewGenProvider("no-such-backend", ProviderArgs{})
	require.Error(t, err)
	require.True(t, errors.Is(err, appErr.ErrUnsupportedProvider))
}

func TestNewProviderEmptyName(t *testing.T) {
	_, err := NewEmbedProvider("", ProviderArgs{})
	require.True(t, errors.Is(err, appErr.ErrConfiguration))

	_, err = NewGenProvider("  ", ProviderArgs{})
	require.True(t, errors.Is(err, appErr.ErrConfiguration))
}

func TestNewProviderNameIsCaseInsensitive(t *testing.T) {
	lower, err := NewGenProvider("ollama", ProviderArgs{Data: map[string]interface{}{}})
	require.NoError(t, err)
	upper, err := NewGenProvider("OLLAMA", ProviderArgs{Data: map[string]interface{}{}})
	require.NoError(t, err)
	require.Equal(t, lower.Name(), upper.Name())
}

func TestBuiltinProvidersRegistered(t *testing.T) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, name := range []string{"openai", "ollama", "gemini", "huggingface", "cohere", "bedrock"} {
		require.Contains(t, embedRegistry, name)
	}
	for _, name := range []string{"openai", "ollama", "gemini", "openrouter", "bedrock"} {
		require.Contains(t, genRegistry, name)
	}
}
