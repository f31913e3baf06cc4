package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/paperdex/paperdex/internal/config"
	"github.com/paperdex/paperdex/internal/service"
	"github.com/paperdex/paperdex/internal/source"
)

// IngestRefreshJob periodically rebuilds the vector index from the
// configured document source, picking up papers added since the last run.
type IngestRefreshJob struct {
	factory *service.Factory
	loader  source.Loader
	cfg     config.IngestConfig
}

func NewIngestRefreshJob(factory *service.Factory, loader source.Loader, cfg config.IngestConfig) *IngestRefreshJob {
	return &IngestRefreshJob{factory: factory, loader: loader, cfg: cfg}
}

func (j *IngestRefreshJob) Name() string {
	return "ingest_refresh"
}

func (j *IngestRefreshJob) Run(ctx context.Context) error {
	svcs, err := j.factory.Get("", "")
	if err != nil {
		return err
	}
	docs, err := j.loader.Load(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		logutil.GetLogger(ctx).Info("ingest refresh: no source documents, skipping rebuild")
		return nil
	}
	result, err := svcs.Ingest.Ingest(ctx, docs, j.cfg.ChunkSize, j.cfg.Overlap)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("ingest refresh complete",
		zap.Int64("rows_inserted", result.RowsInserted),
		zap.Int("dimension", result.Dimension),
		zap.Int("documents", result.Documents),
		zap.Int("skipped", result.Skipped),
	)
	return nil
}
