// Package store persists briefings and their deduplicated named records.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/osint-cli/internal/config"
	"github.com/sells-group/osint-cli/internal/model"
)

// Store defines the persistence interface for the briefing workflow.
type Store interface {
	// SaveBriefing persists a draft atomically: the briefing row, the
	// deduplicated location and entity rows, and the join rows linking
	// them. Returns the stored briefing with resolved records.
	SaveBriefing(ctx context.Context, draft *model.BriefingDraft) (*model.Briefing, error)

	// ListBriefings returns the most recent briefings with their linked
	// locations and entities, newest first.
	ListBriefings(ctx context.Context, limit int) ([]model.Briefing, error)

	// ListEntityMentions returns all entities with the number of
	// briefings each appears in, most mentioned first.
	ListEntityMentions(ctx context.Context) ([]model.EntityMention, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New creates a Store for the configured driver.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres", "":
		return NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{
			MaxConns: cfg.MaxConns,
			MinConns: cfg.MinConns,
		})
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
