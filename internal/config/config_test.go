package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"database": {"host": "localhost"},
		"ai": {"embed_provider": "openai", "gen_provider": "ollama"}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 60, cfg.AI.Timeout)
	require.Equal(t, "local", cfg.Source.Type)
	require.Equal(t, 512, cfg.Ingest.ChunkSize)
	require.Equal(t, 50, cfg.Ingest.Overlap)
	require.Equal(t, 5, cfg.Answer.TopK)
	require.Equal(t, 200, cfg.Answer.MaxTokens)
	require.Equal(t, 0.7, cfg.Answer.Temperature)
	require.Equal(t, int32(3600), cfg.AWS.SessionDuration)
}

func TestLoadRequiresProviders(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"database": {"host": "localhost"},
		"ai": {"gen_provider": "ollama"}
	}`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "embed_provider")
}

func TestLoadRejectsOverlapNotSmallerThanChunkSize(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"database": {"host": "localhost"},
		"ai": {"embed_provider": "openai", "gen_provider": "ollama"},
		"ingest": {"chunk_size": 100, "overlap": 100}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
