package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/paperdex/paperdex/internal/model"
	"github.com/paperdex/paperdex/internal/pkg/dbutil"
	appErr "github.com/paperdex/paperdex/internal/pkg/errors"
)

const passageTable = "papers"

// PassageRepo owns the papers table: its vector-typed schema, bulk writes
// during ingestion, and nearest-neighbor reads during retrieval.
type PassageRepo struct {
	db *sql.DB
}

func NewPassageRepo(db *sql.DB) *PassageRepo {
	return &PassageRepo{db: db}
}

// CurrentDimension reads the declared width of the embedding column from
// the catalog. Returns 0 when the table has not been provisioned yet.
// pgvector stores the dimension directly in atttypmod.
func (r *PassageRepo) CurrentDimension(ctx context.Context) (int, error) {
	const query = `
		SELECT a.atttypmod
		FROM pg_attribute a
		WHERE a.attrelid = to_regclass($1) AND a.attname = 'embedding'
	`
	row := r.db.QueryRowContext(ctx, query, passageTable)
	var dim int
	if err := row.Scan(&dim); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	if dim < 0 {
		return 0, nil
	}
	return dim, nil
}

// Provision drops and recreates the papers table with an embedding column
// of exactly dim. Destructive on purpose: rows are re-derived from source
// documents on the next ingestion, never hand-entered.
func (r *PassageRepo) Provision(ctx context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("vector dimension must be positive, got %d: %w", dim, appErr.ErrConfiguration)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, passageTable),
		fmt.Sprintf(`CREATE TABLE %s (
			id SERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			summary TEXT NOT NULL,
			chunk TEXT NOT NULL,
			embedding vector(%d)
		)`, passageTable, dim),
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("provision %s: %w", passageTable, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("provisioned passage table",
		zap.String("table", passageTable),
		zap.Int("dimension", dim),
	)
	return nil
}

// BulkInsert writes all rows in one transaction. A row whose embedding
// width differs from the column width is rejected by the database; that
// error is surfaced as a dimension mismatch, not swallowed.
func (r *PassageRepo) BulkInsert(ctx context.Context, rows []*model.StoredPassage) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	data := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		data = append(data, map[string]interface{}{
			"title":     row.Title,
			"summary":   row.Summary,
			"chunk":     row.Chunk,
			"embedding": pgvector.NewVector(row.Embedding),
		})
	}
	sqlStr, args, err := builder.BuildInsert(passageTable, data)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if isDimensionError(err) {
			return 0, fmt.Errorf("%w: %v", appErr.ErrDimensionMismatch, err)
		}
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// NearestNeighbors ranks rows by cosine distance to the query vector,
// closest first. Ties fall back to the engine's natural row order.
func (r *PassageRepo) NearestNeighbors(ctx context.Context, embedding []float32, k int) ([]*model.RetrievedDocument, error) {
	if k <= 0 {
		return nil, nil
	}
	const query = `
		SELECT id, title, chunk, embedding <=> $1 AS similarity
		FROM papers
		ORDER BY similarity ASC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(embedding), k)
	if err != nil {
		if dbutil.IsUndefinedTable(err) {
			return nil, nil
		}
		if isDimensionError(err) {
			return nil, fmt.Errorf("%w: %v", appErr.ErrDimensionMismatch, err)
		}
		return nil, err
	}
	defer rows.Close()
	var docs []*model.RetrievedDocument
	for rows.Next() {
		var doc model.RetrievedDocument
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Chunk, &doc.Score); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// isDimensionError matches pgvector's complaint about mismatched vector
// widths (raised as a data exception by the extension).
func isDimensionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "different vector dimensions") ||
		(strings.Contains(msg, "expected") && strings.Contains(msg, "dimensions"))
}
