package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/osint-cli/internal/model"
)

// SQLiteStore implements Store on an embedded SQLite database. Useful for
// local development and field deployments without a postgres server.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) a SQLite database at the given path.
// Use ":memory:" for an in-memory database.
func NewSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "osint.db"
	}
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}

	// SQLite handles one writer at a time; serialize access through a
	// single connection so concurrent SaveBriefing calls queue instead
	// of failing with SQLITE_BUSY.
	database.SetMaxOpenConns(1)

	if _, err := database.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		database.Close()
		return nil, eris.Wrap(err, "sqlite: enable foreign keys")
	}

	return &SQLiteStore{db: database}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS briefings (
	id           TEXT PRIMARY KEY,
	topic        TEXT NOT NULL,
	content      TEXT NOT NULL,
	scout_data   TEXT,
	scholar_data TEXT,
	created_at   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS locations (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS entities (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	category   TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS briefing_locations (
	briefing_id TEXT NOT NULL REFERENCES briefings(id),
	location_id TEXT NOT NULL REFERENCES locations(id),
	created_at  TIMESTAMP NOT NULL,
	PRIMARY KEY (briefing_id, location_id)
);

CREATE TABLE IF NOT EXISTS briefing_entities (
	briefing_id TEXT NOT NULL REFERENCES briefings(id),
	entity_id   TEXT NOT NULL REFERENCES entities(id),
	created_at  TIMESTAMP NOT NULL,
	PRIMARY KEY (briefing_id, entity_id)
);

CREATE INDEX IF NOT EXISTS idx_briefings_created_at ON briefings (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_briefing_entities_entity ON briefing_entities (entity_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveBriefing(ctx context.Context, draft *model.BriefingDraft) (*model.Briefing, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin save briefing")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	briefing := &model.Briefing{
		ID:          uuid.NewString(),
		Topic:       draft.Topic,
		Content:     draft.Content,
		ScoutData:   draft.ScoutData,
		ScholarData: draft.ScholarData,
		CreatedAt:   now,
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO briefings (id, topic, content, scout_data, scholar_data, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		briefing.ID, briefing.Topic, briefing.Content, briefing.ScoutData, briefing.ScholarData, now,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert briefing")
	}

	locations, err := s.upsertNames(ctx, tx, "locations", CoerceNames(draft.Locations), nil, now)
	if err != nil {
		return nil, err
	}
	briefing.Locations = locations

	var entityNames []string
	category := make(map[string]model.EntityCategory)
	for _, cat := range entityCategoryOrder {
		for _, name := range dedupeNames(draft.Entities[cat]) {
			if _, ok := category[name]; ok {
				continue
			}
			category[name] = cat
			entityNames = append(entityNames, name)
		}
	}
	entities, err := s.upsertNames(ctx, tx, "entities", entityNames, category, now)
	if err != nil {
		return nil, err
	}
	briefing.Entities = entities

	for _, rec := range locations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO briefing_locations (briefing_id, location_id, created_at) VALUES (?, ?, ?)`,
			briefing.ID, rec.ID, now,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: link location")
		}
	}
	for _, rec := range entities {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO briefing_entities (briefing_id, entity_id, created_at) VALUES (?, ?, ?)`,
			briefing.ID, rec.ID, now,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: link entity")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit save briefing")
	}

	return briefing, nil
}

// upsertNames resolves names to rows in the given table, inserting missing
// ones inside explicit savepoints so a unique-constraint race leaves the
// enclosing transaction usable. category is nil for the locations table.
func (s *SQLiteStore) upsertNames(ctx context.Context, tx *sql.Tx, table string, names []string, category map[string]model.EntityCategory, now time.Time) ([]model.NamedRecord, error) {
	if len(names) == 0 {
		return nil, nil
	}

	existing, err := s.fetchByName(ctx, tx, table, names, category != nil)
	if err != nil {
		return nil, err
	}

	out := make([]model.NamedRecord, 0, len(names))
	for _, name := range names {
		if rec, ok := existing[name]; ok {
			out = append(out, rec)
			continue
		}

		rec := model.NamedRecord{ID: uuid.NewString(), Name: name, CreatedAt: now}
		var insertErr error
		if category != nil {
			rec.Category = category[name]
			var cat string
			insertErr = s.insertOrFetchRow(ctx, tx,
				`INSERT INTO entities (id, name, category, created_at) VALUES (?, ?, ?, ?)`,
				[]any{rec.ID, name, string(rec.Category), now},
				`SELECT id, category, created_at FROM entities WHERE name = ?`, name,
				&rec.ID, &cat, &rec.CreatedAt,
			)
			if cat != "" {
				rec.Category = model.EntityCategory(cat)
			}
		} else {
			insertErr = s.insertOrFetchRow(ctx, tx,
				`INSERT INTO locations (id, name, created_at) VALUES (?, ?, ?)`,
				[]any{rec.ID, name, now},
				`SELECT id, created_at FROM locations WHERE name = ?`, name,
				&rec.ID, &rec.CreatedAt,
			)
		}
		if insertErr != nil {
			return nil, insertErr
		}
		out = append(out, rec)
	}
	return out, nil
}

// insertOrFetchRow inserts a named row inside an explicit SAVEPOINT. On a
// unique-constraint violation it rolls back to the savepoint and fetches
// the winner's row into dest; dest is untouched when the insert succeeds.
func (s *SQLiteStore) insertOrFetchRow(ctx context.Context, tx *sql.Tx, insertSQL string, insertArgs []any, fetchSQL, name string, dest ...any) error {
	if _, err := tx.ExecContext(ctx, `SAVEPOINT upsert_name`); err != nil {
		return eris.Wrap(err, "sqlite: begin savepoint")
	}

	_, err := tx.ExecContext(ctx, insertSQL, insertArgs...)
	if err == nil {
		if _, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT upsert_name`); err != nil {
			return eris.Wrap(err, "sqlite: release savepoint")
		}
		return nil
	}

	if _, rbErr := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT upsert_name`); rbErr != nil {
		return eris.Wrap(rbErr, "sqlite: rollback savepoint")
	}
	if _, rlErr := tx.ExecContext(ctx, `RELEASE SAVEPOINT upsert_name`); rlErr != nil {
		return eris.Wrap(rlErr, "sqlite: release savepoint")
	}

	if !strings.Contains(err.Error(), "UNIQUE constraint") {
		return eris.Wrap(err, "sqlite: insert name")
	}

	if err := tx.QueryRowContext(ctx, fetchSQL, name).Scan(dest...); err != nil {
		return eris.Wrap(err, "sqlite: fetch after conflict")
	}
	return nil
}

func (s *SQLiteStore) fetchByName(ctx context.Context, tx *sql.Tx, table string, names []string, withCategory bool) (map[string]model.NamedRecord, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}

	columns := "id, name, created_at"
	if withCategory {
		columns = "id, name, created_at, category"
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT `+columns+` FROM `+table+` WHERE name IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: bulk read names")
	}
	defer rows.Close()

	out := make(map[string]model.NamedRecord, len(names))
	for rows.Next() {
		var rec model.NamedRecord
		if withCategory {
			var cat string
			if err := rows.Scan(&rec.ID, &rec.Name, &rec.CreatedAt, &cat); err != nil {
				return nil, eris.Wrap(err, "sqlite: scan name row")
			}
			rec.Category = model.EntityCategory(cat)
		} else {
			if err := rows.Scan(&rec.ID, &rec.Name, &rec.CreatedAt); err != nil {
				return nil, eris.Wrap(err, "sqlite: scan name row")
			}
		}
		out[rec.Name] = rec
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListBriefings(ctx context.Context, limit int) ([]model.Briefing, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, content, scout_data, scholar_data, created_at FROM briefings ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list briefings")
	}
	defer rows.Close()

	var briefings []model.Briefing
	for rows.Next() {
		var b model.Briefing
		var scout, scholar sql.NullString
		if err := rows.Scan(&b.ID, &b.Topic, &b.Content, &scout, &scholar, &b.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan briefing")
		}
		b.ScoutData = scout.String
		b.ScholarData = scholar.String
		briefings = append(briefings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate briefings")
	}

	for i := range briefings {
		if err := s.loadLinks(ctx, &briefings[i]); err != nil {
			return nil, err
		}
	}
	return briefings, nil
}

func (s *SQLiteStore) loadLinks(ctx context.Context, b *model.Briefing) error {
	locRows, err := s.db.QueryContext(ctx,
		`SELECT l.id, l.name, l.created_at
		 FROM briefing_locations bl JOIN locations l ON l.id = bl.location_id
		 WHERE bl.briefing_id = ?`, b.ID)
	if err != nil {
		return eris.Wrap(err, "sqlite: list briefing locations")
	}
	defer locRows.Close()
	for locRows.Next() {
		var rec model.NamedRecord
		if err := locRows.Scan(&rec.ID, &rec.Name, &rec.CreatedAt); err != nil {
			return eris.Wrap(err, "sqlite: scan briefing location")
		}
		b.Locations = append(b.Locations, rec)
	}
	if err := locRows.Err(); err != nil {
		return eris.Wrap(err, "sqlite: iterate briefing locations")
	}

	entRows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.name, e.category, e.created_at
		 FROM briefing_entities be JOIN entities e ON e.id = be.entity_id
		 WHERE be.briefing_id = ?`, b.ID)
	if err != nil {
		return eris.Wrap(err, "sqlite: list briefing entities")
	}
	defer entRows.Close()
	for entRows.Next() {
		var rec model.NamedRecord
		var cat string
		if err := entRows.Scan(&rec.ID, &rec.Name, &cat, &rec.CreatedAt); err != nil {
			return eris.Wrap(err, "sqlite: scan briefing entity")
		}
		rec.Category = model.EntityCategory(cat)
		b.Entities = append(b.Entities, rec)
	}
	return entRows.Err()
}

func (s *SQLiteStore) ListEntityMentions(ctx context.Context) ([]model.EntityMention, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.name, e.category, COUNT(be.briefing_id) AS mentions
		 FROM entities e JOIN briefing_entities be ON be.entity_id = e.id
		 GROUP BY e.id, e.name, e.category
		 ORDER BY mentions DESC, e.name ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list entity mentions")
	}
	defer rows.Close()

	var out []model.EntityMention
	for rows.Next() {
		var m model.EntityMention
		var cat string
		if err := rows.Scan(&m.ID, &m.Name, &cat, &m.Mentions); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan entity mention")
		}
		m.Category = model.EntityCategory(cat)
		out = append(out, m)
	}
	return out, rows.Err()
}
