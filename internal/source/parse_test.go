package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paperdex/paperdex/internal/config"
)

func TestParseJSONArray(t *testing.T) {
	data := []byte(`[
		{"title": "Attention Is All You Need", "summary": "We propose the Transformer."},
		{"title": "BERT", "summary": "Deep bidirectional representations."}
	]`)
	docs, err := parseFile("papers.json", data)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "Attention Is All You Need", docs[0].Title)
	require.Equal(t, "Deep bidirectional representations.", docs[1].Summary)
}

func TestParseJSONSingleObject(t *testing.T) {
	data := []byte(`{"title": "GPT", "summary": "Generative pre-training."}`)
	docs, err := parseFile("paper.json", data)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "GPT", docs[0].Title)
}

func TestParseJSONGarbage(t *testing.T) {
	_, err := parseFile("bad.json", []byte(`{not json`))
	require.Error(t, err)
}

func TestParseMarkdownHeadingBecomesTitle(t *testing.T) {
	data := []byte("# Attention Is All You Need\n\nWe propose the Transformer, a model architecture.\n\nIt relies entirely on attention.\n")
	docs, err := parseFile("attention.md", data)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "Attention Is All You Need", docs[0].Title)
	require.Contains(t, docs[0].Summary, "We propose the Transformer")
	require.Contains(t, docs[0].Summary, "relies entirely on attention")
}

func TestParseMarkdownFilenameFallback(t *testing.T) {
	data := []byte("No heading here, just body text.\n")
	docs, err := parseFile("resnet.md", data)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "resnet", docs[0].Title)
}

func TestParseMarkdownEmptyBody(t *testing.T) {
	docs, err := parseFile("empty.md", []byte("# Only A Title\n"))
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestParseUnknownExtensionIgnored(t *testing.T) {
	docs, err := parseFile("notes.txt", []byte("whatever"))
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestLocalLoaderSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.json"), []byte(`{"title": "A", "summary": "s"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{broken`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte(`nope`), 0o644))

	loader, err := NewLocalLoader(dir)
	require.NoError(t, err)

	docs, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "A", docs[0].Title)
}

func TestLocalLoaderRequiresDir(t *testing.T) {
	_, err := NewLocalLoader("")
	require.Error(t, err)
}

func TestRegistryBuildsConfiguredLoader(t *testing.T) {
	dir := t.TempDir()
	loader, err := New(config.SourceConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": dir},
	})
	require.NoError(t, err)
	require.NotNil(t, loader)
}

func TestRegistryUnknownLoaderType(t *testing.T) {
	_, err := New(config.SourceConfig{Type: "ftp"})
	require.Error(t, err)
}
