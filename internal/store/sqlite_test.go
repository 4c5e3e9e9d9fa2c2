package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/osint-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleDraft(topic string) *model.BriefingDraft {
	return &model.BriefingDraft{
		Topic:     topic,
		Content:   "Analysis for " + topic,
		ScoutData: "scout notes",
		Locations: []any{"New Delhi", map[string]any{"name": "Indian Ocean"}},
		Entities: map[model.EntityCategory][]string{
			model.EntityPerson:       {"A. Doval"},
			model.EntityOrganization: {"DRDO"},
			model.EntityCountry:      {"India"},
		},
	}
}

func TestSQLiteStore_SaveAndList(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	saved, err := s.SaveBriefing(ctx, sampleDraft("Naval Exercises"))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Len(t, saved.Locations, 2)
	assert.Len(t, saved.Entities, 3)

	got, err := s.ListBriefings(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Naval Exercises", got[0].Topic)
	assert.Equal(t, "scout notes", got[0].ScoutData)
	assert.Len(t, got[0].Locations, 2)
	assert.Len(t, got[0].Entities, 3)
}

func TestSQLiteStore_ReusesExistingNames(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	first, err := s.SaveBriefing(ctx, sampleDraft("First"))
	require.NoError(t, err)

	second, err := s.SaveBriefing(ctx, sampleDraft("Second"))
	require.NoError(t, err)

	// Same names resolve to the same rows across briefings.
	require.Len(t, second.Locations, 2)
	assert.Equal(t, first.Locations[0].ID, second.Locations[0].ID)
	require.Len(t, second.Entities, 3)
	assert.Equal(t, first.Entities[0].ID, second.Entities[0].ID)

	mentions, err := s.ListEntityMentions(ctx)
	require.NoError(t, err)
	require.Len(t, mentions, 3)
	for _, m := range mentions {
		assert.Equal(t, 2, m.Mentions)
	}
}

func TestSQLiteStore_ConcurrentSaves(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.SaveBriefing(ctx, sampleDraft("Concurrent"))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	mentions, err := s.ListEntityMentions(ctx)
	require.NoError(t, err)
	// Shared names collapse to single rows regardless of writer count.
	require.Len(t, mentions, 3)
	for _, m := range mentions {
		assert.Equal(t, 8, m.Mentions)
	}
}

func TestSQLiteStore_ListBriefings_Order(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.SaveBriefing(ctx, &model.BriefingDraft{Topic: "Older", Content: "c"})
	require.NoError(t, err)
	_, err = s.SaveBriefing(ctx, &model.BriefingDraft{Topic: "Newer", Content: "c"})
	require.NoError(t, err)

	got, err := s.ListBriefings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestSQLiteStore_EmptyDraftLists(t *testing.T) {
	s := newTestSQLiteStore(t)

	saved, err := s.SaveBriefing(context.Background(), &model.BriefingDraft{
		Topic:   "Bare",
		Content: "No names at all.",
	})

	require.NoError(t, err)
	assert.Empty(t, saved.Locations)
	assert.Empty(t, saved.Entities)
}

func TestSQLiteStore_InsertOrFetchRow_ConflictReturnsWinnerRow(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	winnerCreated := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entities (id, name, category, created_at) VALUES (?, ?, ?, ?)`,
		"ent-winner", "India", "Country", winnerCreated)
	require.NoError(t, err)

	tx, err := s.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	var (
		id        = "ent-loser"
		cat       string
		createdAt time.Time
	)
	err = s.insertOrFetchRow(ctx, tx,
		`INSERT INTO entities (id, name, category, created_at) VALUES (?, ?, ?, ?)`,
		[]any{id, "India", "Organization", time.Now().UTC()},
		`SELECT id, category, created_at FROM entities WHERE name = ?`, "India",
		&id, &cat, &createdAt,
	)
	require.NoError(t, err)

	// The winner's row comes back whole: its id, its category, and its
	// original timestamp.
	assert.Equal(t, "ent-winner", id)
	assert.Equal(t, "Country", cat)
	assert.Equal(t, winnerCreated, createdAt.UTC())

	// The savepoint rollback left the transaction usable.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO locations (id, name, created_at) VALUES (?, ?, ?)`,
		"loc-1", "Mumbai", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
}
