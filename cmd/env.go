package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/osint-cli/internal/extract"
	"github.com/sells-group/osint-cli/internal/memory"
	"github.com/sells-group/osint-cli/internal/store"
	"github.com/sells-group/osint-cli/internal/workflow"
	anthropicpkg "github.com/sells-group/osint-cli/pkg/anthropic"
	"github.com/sells-group/osint-cli/pkg/embed"
	"github.com/sells-group/osint-cli/pkg/search"
)

// appEnv holds the initialized store, clients, and engine shared by the
// run/serve/ingest commands.
type appEnv struct {
	Store      store.Store
	Memory     *memory.Index // nil when the vector index is unavailable
	Engine     *workflow.Engine
	memoryPool *pgxpool.Pool
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.memoryPool != nil {
		e.memoryPool.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// noMemory stands in for the document index when no vector database is
// configured. Queries report an empty archive so synthesis proceeds on
// search results alone.
type noMemory struct{}

func (noMemory) Query(context.Context, string) ([]string, error) {
	return []string{memory.EmptyNotice}, nil
}

// initEnv sets up the store, all provider clients, the document index,
// and the workflow engine. Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (OSINT_ANTHROPIC_KEY)")
	}

	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	invoker := extract.NewInvoker(anthropicClient, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)

	searchClient := search.NewClient(cfg.Search.Key,
		search.WithBaseURL(cfg.Search.BaseURL),
		search.WithMaxResults(cfg.Search.MaxResults),
		search.WithRateLimit(cfg.Search.RequestsPerSec),
		search.WithTimeout(time.Duration(cfg.Search.TimeoutSecs)*time.Second),
		search.WithRetries(cfg.Search.Retries),
	)

	env := &appEnv{Store: st}

	// The vector index shares the postgres instance. SQLite deployments
	// run without document memory.
	var mem workflow.MemoryIndex = noMemory{}
	if cfg.Store.Driver == "postgres" || cfg.Store.Driver == "" {
		pool, err := memory.NewPool(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			zap.L().Warn("memory pool init failed, document memory disabled", zap.Error(err))
		} else {
			embedder := embed.NewClient(cfg.Embed.BaseURL, cfg.Embed.Model)
			idx := memory.NewIndex(pool, embedder, cfg.Memory, cfg.Embed.Dimensions)
			if err := idx.Migrate(ctx); err != nil {
				zap.L().Warn("memory migrate failed, document memory disabled", zap.Error(err))
				pool.Close()
			} else {
				env.Memory = idx
				env.memoryPool = pool
				mem = idx
			}
		}
	}

	env.Engine = workflow.NewEngine(invoker, searchClient, mem, st,
		time.Duration(cfg.Workflow.BranchTimeoutSecs)*time.Second)

	return env, nil
}
