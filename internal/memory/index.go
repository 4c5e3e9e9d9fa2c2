// Package memory implements the pgvector-backed document index queried by
// the scholar branch.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/osint-cli/internal/config"
	"github.com/sells-group/osint-cli/internal/db"
	"github.com/sells-group/osint-cli/pkg/embed"
)

// EmptyNotice is returned by Query when no documents have been ingested.
const EmptyNotice = "Memory is empty. Please upload documents first."

// Index stores document chunks with embeddings and retrieves the most
// similar chunks for a query.
type Index struct {
	pool         db.Pool
	embedder     embed.Client
	dimensions   int
	topK         int
	chunkSize    int
	chunkOverlap int
}

// NewPool creates a pgx pool with pgvector types registered on each
// connection.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "memory: parse pool config")
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "memory: create pool")
	}
	return pool, nil
}

// NewIndex creates an Index over the given pool and embedder.
func NewIndex(pool db.Pool, embedder embed.Client, cfg config.MemoryConfig, dimensions int) *Index {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 3
	}
	return &Index{
		pool:         pool,
		embedder:     embedder,
		dimensions:   dimensions,
		topK:         topK,
		chunkSize:    cfg.ChunkSize,
		chunkOverlap: cfg.ChunkOverlap,
	}
}

// Migrate creates the vector extension and chunk table.
func (ix *Index) Migrate(ctx context.Context) error {
	if _, err := ix.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return eris.Wrap(err, "memory: create vector extension")
	}

	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS memory_chunks (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	content    TEXT NOT NULL,
	embedding  vector(%d) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, ix.dimensions)
	if _, err := ix.pool.Exec(ctx, ddl); err != nil {
		return eris.Wrap(err, "memory: create chunk table")
	}
	return nil
}

// Ingest chunks a document, embeds each chunk, and stores them. Returns the
// number of chunks written.
func (ix *Index) Ingest(ctx context.Context, source, text string) (int, error) {
	chunks := chunkText(text, ix.chunkSize, ix.chunkOverlap)
	if len(chunks) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	for _, chunk := range chunks {
		vec, err := ix.embedder.Embed(ctx, chunk)
		if err != nil {
			return 0, eris.Wrap(err, "memory: embed chunk")
		}
		if _, err := ix.pool.Exec(ctx,
			`INSERT INTO memory_chunks (id, source, content, embedding, created_at) VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), source, chunk, pgvector.NewVector(vec), now,
		); err != nil {
			return 0, eris.Wrap(err, "memory: insert chunk")
		}
	}

	zap.L().Info("document ingested",
		zap.String("source", source),
		zap.Int("chunks", len(chunks)),
	)
	return len(chunks), nil
}

// Query embeds the query and returns the most similar chunk contents by
// cosine distance. When the index holds no documents it returns a single
// notice string so downstream synthesis has an explicit signal.
func (ix *Index) Query(ctx context.Context, query string) ([]string, error) {
	vec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "memory: embed query")
	}

	rows, err := ix.pool.Query(ctx,
		`SELECT content FROM memory_chunks ORDER BY embedding <=> $1 LIMIT $2`,
		pgvector.NewVector(vec), ix.topK,
	)
	if err != nil {
		return nil, eris.Wrap(err, "memory: similarity query")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, eris.Wrap(err, "memory: scan chunk")
		}
		out = append(out, content)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "memory: iterate chunks")
	}

	if len(out) == 0 {
		return []string{EmptyNotice}, nil
	}
	return out, nil
}
