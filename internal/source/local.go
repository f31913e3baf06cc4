package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/paperdex/paperdex/internal/model"
	appErr "github.com/paperdex/paperdex/internal/pkg/errors"
)

type localConfig struct {
	Dir string `json:"dir"`
}

type localLoader struct {
	dir string
}

func init() {
	Register("local", createLocalLoader)
}

func createLocalLoader(args interface{}) (Loader, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("source dir is required: %w", appErr.ErrConfiguration)
	}
	return &localLoader{dir: cfg.Dir}, nil
}

// NewLocalLoader builds a loader for dir directly, bypassing the registry.
// The ingest handler uses this for per-request directory overrides.
func NewLocalLoader(dir string) (Loader, error) {
	if dir == "" {
		return nil, fmt.Errorf("source dir is required: %w", appErr.ErrConfiguration)
	}
	return &localLoader{dir: dir}, nil
}

func (l *localLoader) Load(ctx context.Context) ([]*model.SourceDocument, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("dir", l.dir))
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}
	var docs []*model.SourceDocument
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skip unreadable file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		parsed, err := parseFile(entry.Name(), data)
		if err != nil {
			logger.Warn("skip unparsable file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		docs = append(docs, parsed...)
	}
	logger.Info("corpus loaded", zap.Int("documents", len(docs)))
	return docs, nil
}
