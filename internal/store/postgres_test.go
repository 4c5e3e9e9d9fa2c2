package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/osint-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_SaveBriefing_NewNames(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO briefings`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	// Bulk read finds nothing, so both locations go through insert-or-fetch.
	mock.ExpectQuery(`SELECT id, name, created_at FROM locations`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO locations`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("loc-1", now))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO locations`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("loc-2", now))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT id, name, created_at, category FROM entities`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at", "category"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO entities`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "category", "created_at"}).
			AddRow("ent-1", "Organization", now))
	mock.ExpectCommit()

	mock.ExpectCopyFrom(pgx.Identifier{"briefing_locations"}, []string{"briefing_id", "location_id", "created_at"}).
		WillReturnResult(2)
	mock.ExpectCopyFrom(pgx.Identifier{"briefing_entities"}, []string{"briefing_id", "entity_id", "created_at"}).
		WillReturnResult(1)
	mock.ExpectCommit()

	got, err := s.SaveBriefing(context.Background(), &model.BriefingDraft{
		Topic:     "Naval Exercises",
		Content:   "Full analysis.",
		Locations: []any{"New Delhi", "Indian Ocean"},
		Entities: map[model.EntityCategory][]string{
			model.EntityOrganization: {"DRDO"},
		},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	require.Len(t, got.Locations, 2)
	assert.Equal(t, "loc-1", got.Locations[0].ID)
	assert.Equal(t, "New Delhi", got.Locations[0].Name)
	require.Len(t, got.Entities, 1)
	assert.Equal(t, "ent-1", got.Entities[0].ID)
	assert.Equal(t, model.EntityOrganization, got.Entities[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveBriefing_ExistingNamesSkipInsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO briefings`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectQuery(`SELECT id, name, created_at FROM locations`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at"}).
			AddRow("loc-9", "New Delhi", now))

	mock.ExpectQuery(`SELECT id, name, created_at, category FROM entities`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at", "category"}).
			AddRow("ent-9", "DRDO", now, "Organization"))

	mock.ExpectCopyFrom(pgx.Identifier{"briefing_locations"}, []string{"briefing_id", "location_id", "created_at"}).
		WillReturnResult(1)
	mock.ExpectCopyFrom(pgx.Identifier{"briefing_entities"}, []string{"briefing_id", "entity_id", "created_at"}).
		WillReturnResult(1)
	mock.ExpectCommit()

	got, err := s.SaveBriefing(context.Background(), &model.BriefingDraft{
		Topic:     "Repeat Topic",
		Content:   "Repeat content.",
		Locations: []any{"New Delhi"},
		Entities: map[model.EntityCategory][]string{
			model.EntityOrganization: {"DRDO"},
		},
	})

	require.NoError(t, err)
	// Existing records are reused, never re-inserted.
	require.Len(t, got.Locations, 1)
	assert.Equal(t, "loc-9", got.Locations[0].ID)
	require.Len(t, got.Entities, 1)
	assert.Equal(t, "ent-9", got.Entities[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveBriefing_UniqueRaceFetchesWinner(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// The winner's row predates this save; the returned record must carry
	// the winner's original timestamp, not ours.
	winnerCreated := time.Now().UTC().Add(-48 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO briefings`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	// A concurrent writer inserts the same location between the bulk read
	// and our insert. The savepoint rolls back and the winner is fetched.
	mock.ExpectQuery(`SELECT id, name, created_at FROM locations`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO locations`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()
	mock.ExpectQuery(`SELECT id, created_at FROM locations WHERE name`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).
			AddRow("loc-winner", winnerCreated))

	mock.ExpectCopyFrom(pgx.Identifier{"briefing_locations"}, []string{"briefing_id", "location_id", "created_at"}).
		WillReturnResult(1)
	mock.ExpectCommit()

	got, err := s.SaveBriefing(context.Background(), &model.BriefingDraft{
		Topic:     "Race Topic",
		Content:   "Race content.",
		Locations: []any{"Mumbai"},
	})

	require.NoError(t, err)
	require.Len(t, got.Locations, 1)
	assert.Equal(t, "loc-winner", got.Locations[0].ID)
	assert.Equal(t, winnerCreated, got.Locations[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveBriefing_UniqueRaceKeepsWinnerCategory(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	winnerCreated := time.Now().UTC().Add(-24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO briefings`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectQuery(`SELECT id, name, created_at, category FROM entities`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at", "category"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO entities`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()
	// The concurrent writer classified the name differently; the stored
	// category wins over the one we extracted.
	mock.ExpectQuery(`SELECT id, category, created_at FROM entities WHERE name`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "category", "created_at"}).
			AddRow("ent-winner", "Country", winnerCreated))

	mock.ExpectCopyFrom(pgx.Identifier{"briefing_entities"}, []string{"briefing_id", "entity_id", "created_at"}).
		WillReturnResult(1)
	mock.ExpectCommit()

	got, err := s.SaveBriefing(context.Background(), &model.BriefingDraft{
		Topic:   "Race Topic",
		Content: "Race content.",
		Entities: map[model.EntityCategory][]string{
			model.EntityOrganization: {"India"},
		},
	})

	require.NoError(t, err)
	require.Len(t, got.Entities, 1)
	assert.Equal(t, "ent-winner", got.Entities[0].ID)
	assert.Equal(t, model.EntityCountry, got.Entities[0].Category)
	assert.Equal(t, winnerCreated, got.Entities[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveBriefing_InsertErrorAborts(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO briefings`).
		WillReturnError(&pgconn.PgError{Code: "53300"})
	mock.ExpectRollback()

	_, err := s.SaveBriefing(context.Background(), &model.BriefingDraft{
		Topic:   "Doomed",
		Content: "Doomed.",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert briefing")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveBriefing_CrossCategoryDedup(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO briefings`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	// "India" appears as both organization and country; only one row is
	// written and the earlier category wins.
	mock.ExpectQuery(`SELECT id, name, created_at, category FROM entities`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at", "category"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO entities`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "category", "created_at"}).
			AddRow("ent-india", "Organization", time.Now().UTC()))
	mock.ExpectCommit()

	mock.ExpectCopyFrom(pgx.Identifier{"briefing_entities"}, []string{"briefing_id", "entity_id", "created_at"}).
		WillReturnResult(1)
	mock.ExpectCommit()

	got, err := s.SaveBriefing(context.Background(), &model.BriefingDraft{
		Topic:   "Dedup",
		Content: "Dedup.",
		Entities: map[model.EntityCategory][]string{
			model.EntityOrganization: {"India"},
			model.EntityCountry:      {"India"},
		},
	})

	require.NoError(t, err)
	require.Len(t, got.Entities, 1)
	assert.Equal(t, model.EntityOrganization, got.Entities[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListBriefings(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, topic, content, scout_data, scholar_data, created_at FROM briefings`).
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "topic", "content", "scout_data", "scholar_data", "created_at"}).
			AddRow("b-1", "Topic A", "Content A", ptr("scout"), ptr("scholar"), now).
			AddRow("b-2", "Topic B", "Content B", nil, nil, now.Add(-time.Hour)))

	mock.ExpectQuery(`FROM briefing_locations bl JOIN locations l`).
		WillReturnRows(pgxmock.NewRows([]string{"briefing_id", "id", "name", "created_at"}).
			AddRow("b-1", "loc-1", "New Delhi", now))

	mock.ExpectQuery(`FROM briefing_entities be JOIN entities e`).
		WillReturnRows(pgxmock.NewRows([]string{"briefing_id", "id", "name", "category", "created_at"}).
			AddRow("b-2", "ent-1", "DRDO", "Organization", now))

	got, err := s.ListBriefings(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "scout", got[0].ScoutData)
	assert.Empty(t, got[1].ScoutData)
	require.Len(t, got[0].Locations, 1)
	assert.Equal(t, "New Delhi", got[0].Locations[0].Name)
	require.Len(t, got[1].Entities, 1)
	assert.Equal(t, model.EntityOrganization, got[1].Entities[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListBriefings_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, topic, content, scout_data, scholar_data, created_at FROM briefings`).
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "topic", "content", "scout_data", "scholar_data", "created_at"}))

	got, err := s.ListBriefings(context.Background(), 0)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListEntityMentions(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`COUNT\(be.briefing_id\) AS mentions`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "category", "mentions"}).
			AddRow("ent-1", "DRDO", "Organization", 4).
			AddRow("ent-2", "India", "Country", 2))

	got, err := s.ListEntityMentions(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "DRDO", got[0].Name)
	assert.Equal(t, 4, got[0].Mentions)
	assert.Equal(t, model.EntityCountry, got[1].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func ptr(s string) *string { return &s }
