package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/osint-cli/internal/db"
	"github.com/sells-group/osint-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for use by subsystems that
// need direct query access (e.g., the document index).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS briefings (
	id           TEXT PRIMARY KEY,
	topic        TEXT NOT NULL,
	content      TEXT NOT NULL,
	scout_data   TEXT,
	scholar_data TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS locations (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS entities (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	category   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS briefing_locations (
	briefing_id TEXT NOT NULL REFERENCES briefings(id),
	location_id TEXT NOT NULL REFERENCES locations(id),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (briefing_id, location_id)
);

CREATE TABLE IF NOT EXISTS briefing_entities (
	briefing_id TEXT NOT NULL REFERENCES briefings(id),
	entity_id   TEXT NOT NULL REFERENCES entities(id),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (briefing_id, entity_id)
);

CREATE INDEX IF NOT EXISTS idx_briefings_created_at ON briefings (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_briefing_entities_entity ON briefing_entities (entity_id);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// entityCategoryOrder fixes the iteration order so dedup across categories
// is deterministic: the first category a name appears in wins.
var entityCategoryOrder = []model.EntityCategory{
	model.EntityPerson,
	model.EntityOrganization,
	model.EntityCountry,
}

func (s *PostgresStore) SaveBriefing(ctx context.Context, draft *model.BriefingDraft) (*model.Briefing, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin save briefing")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	briefing := &model.Briefing{
		ID:          uuid.NewString(),
		Topic:       draft.Topic,
		Content:     draft.Content,
		ScoutData:   draft.ScoutData,
		ScholarData: draft.ScholarData,
		CreatedAt:   now,
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO briefings (id, topic, content, scout_data, scholar_data, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		briefing.ID, briefing.Topic, briefing.Content, briefing.ScoutData, briefing.ScholarData, now,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: insert briefing")
	}

	locations, err := upsertLocations(ctx, tx, CoerceNames(draft.Locations), now)
	if err != nil {
		return nil, err
	}
	briefing.Locations = locations

	entities, err := upsertEntities(ctx, tx, draft.Entities, now)
	if err != nil {
		return nil, err
	}
	briefing.Entities = entities

	if err := linkRecords(ctx, tx, "briefing_locations", "location_id", briefing.ID, locations, now); err != nil {
		return nil, err
	}
	if err := linkRecords(ctx, tx, "briefing_entities", "entity_id", briefing.ID, entities, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit save briefing")
	}

	return briefing, nil
}

// upsertLocations resolves location names to rows, inserting missing ones.
func upsertLocations(ctx context.Context, tx pgx.Tx, names []string, now time.Time) ([]model.NamedRecord, error) {
	if len(names) == 0 {
		return nil, nil
	}

	existing, err := fetchByName(ctx, tx,
		`SELECT id, name, created_at FROM locations WHERE name = ANY($1)`, names, "")
	if err != nil {
		return nil, err
	}

	out := make([]model.NamedRecord, 0, len(names))
	for _, name := range names {
		if rec, ok := existing[name]; ok {
			out = append(out, rec)
			continue
		}
		rec := model.NamedRecord{Name: name}
		err := insertOrFetch(ctx, tx,
			`INSERT INTO locations (id, name, created_at) VALUES ($1, $2, $3) RETURNING id, created_at`,
			[]any{uuid.NewString(), name, now},
			`SELECT id, created_at FROM locations WHERE name = $1`,
			[]any{name},
			&rec.ID, &rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// upsertEntities resolves entity names to rows, inserting missing ones.
// Names are deduplicated across categories; the first category wins.
func upsertEntities(ctx context.Context, tx pgx.Tx, byCategory map[model.EntityCategory][]string, now time.Time) ([]model.NamedRecord, error) {
	var names []string
	category := make(map[string]model.EntityCategory)
	for _, cat := range entityCategoryOrder {
		for _, name := range dedupeNames(byCategory[cat]) {
			if _, ok := category[name]; ok {
				continue
			}
			category[name] = cat
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, nil
	}

	existing, err := fetchByName(ctx, tx,
		`SELECT id, name, created_at, category FROM entities WHERE name = ANY($1)`, names, "category")
	if err != nil {
		return nil, err
	}

	out := make([]model.NamedRecord, 0, len(names))
	for _, name := range names {
		if rec, ok := existing[name]; ok {
			out = append(out, rec)
			continue
		}
		rec := model.NamedRecord{Name: name}
		var cat string
		err := insertOrFetch(ctx, tx,
			`INSERT INTO entities (id, name, category, created_at) VALUES ($1, $2, $3, $4) RETURNING id, category, created_at`,
			[]any{uuid.NewString(), name, string(category[name]), now},
			`SELECT id, category, created_at FROM entities WHERE name = $1`,
			[]any{name},
			&rec.ID, &cat, &rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		rec.Category = model.EntityCategory(cat)
		out = append(out, rec)
	}
	return out, nil
}

// fetchByName bulk-reads existing rows keyed by name. withCategory selects
// the extra category column when set.
func fetchByName(ctx context.Context, tx pgx.Tx, sql string, names []string, withCategory string) (map[string]model.NamedRecord, error) {
	rows, err := tx.Query(ctx, sql, names)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: bulk read names")
	}
	defer rows.Close()

	out := make(map[string]model.NamedRecord, len(names))
	for rows.Next() {
		var rec model.NamedRecord
		if withCategory != "" {
			var cat string
			if err := rows.Scan(&rec.ID, &rec.Name, &rec.CreatedAt, &cat); err != nil {
				return nil, eris.Wrap(err, "postgres: scan name row")
			}
			rec.Category = model.EntityCategory(cat)
		} else {
			if err := rows.Scan(&rec.ID, &rec.Name, &rec.CreatedAt); err != nil {
				return nil, eris.Wrap(err, "postgres: scan name row")
			}
		}
		out[rec.Name] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate name rows")
	}
	return out, nil
}

// insertOrFetch inserts a named row inside a savepoint, scanning the
// RETURNING columns into dest. When a concurrent writer already inserted
// the same name, the savepoint is rolled back and the winner's row is
// fetched into dest instead, leaving the enclosing transaction usable.
func insertOrFetch(ctx context.Context, tx pgx.Tx, insertSQL string, insertArgs []any, fetchSQL string, fetchArgs []any, dest ...any) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin savepoint")
	}

	err = sp.QueryRow(ctx, insertSQL, insertArgs...).Scan(dest...)
	if err == nil {
		if err := sp.Commit(ctx); err != nil {
			return eris.Wrap(err, "postgres: release savepoint")
		}
		return nil
	}

	_ = sp.Rollback(ctx)
	if !isUniqueViolation(err) {
		return eris.Wrap(err, "postgres: insert name")
	}

	if err := tx.QueryRow(ctx, fetchSQL, fetchArgs...).Scan(dest...); err != nil {
		return eris.Wrap(err, "postgres: fetch after conflict")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// linkRecords bulk-inserts join rows via the COPY protocol.
func linkRecords(ctx context.Context, tx pgx.Tx, table, idColumn, briefingID string, records []model.NamedRecord, now time.Time) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]any, len(records))
	for i, rec := range records {
		rows[i] = []any{briefingID, rec.ID, now}
	}
	if _, err := db.CopyFrom(ctx, tx, table, []string{"briefing_id", idColumn, "created_at"}, rows); err != nil {
		return err
	}
	return nil
}

func (s *PostgresStore) ListBriefings(ctx context.Context, limit int) ([]model.Briefing, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, topic, content, scout_data, scholar_data, created_at FROM briefings ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list briefings")
	}
	defer rows.Close()

	var briefings []model.Briefing
	index := make(map[string]int)
	var ids []string
	for rows.Next() {
		var b model.Briefing
		var scout, scholar *string
		if err := rows.Scan(&b.ID, &b.Topic, &b.Content, &scout, &scholar, &b.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan briefing")
		}
		if scout != nil {
			b.ScoutData = *scout
		}
		if scholar != nil {
			b.ScholarData = *scholar
		}
		index[b.ID] = len(briefings)
		ids = append(ids, b.ID)
		briefings = append(briefings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate briefings")
	}
	if len(briefings) == 0 {
		return briefings, nil
	}

	if err := s.attachLinks(ctx, ids, index, briefings); err != nil {
		return nil, err
	}
	return briefings, nil
}

// attachLinks loads linked locations and entities for the given briefings.
func (s *PostgresStore) attachLinks(ctx context.Context, ids []string, index map[string]int, briefings []model.Briefing) error {
	locRows, err := s.pool.Query(ctx,
		`SELECT bl.briefing_id, l.id, l.name, l.created_at
		 FROM briefing_locations bl JOIN locations l ON l.id = bl.location_id
		 WHERE bl.briefing_id = ANY($1)`,
		ids,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: list briefing locations")
	}
	defer locRows.Close()
	for locRows.Next() {
		var briefingID string
		var rec model.NamedRecord
		if err := locRows.Scan(&briefingID, &rec.ID, &rec.Name, &rec.CreatedAt); err != nil {
			return eris.Wrap(err, "postgres: scan briefing location")
		}
		i := index[briefingID]
		briefings[i].Locations = append(briefings[i].Locations, rec)
	}
	if err := locRows.Err(); err != nil {
		return eris.Wrap(err, "postgres: iterate briefing locations")
	}

	entRows, err := s.pool.Query(ctx,
		`SELECT be.briefing_id, e.id, e.name, e.category, e.created_at
		 FROM briefing_entities be JOIN entities e ON e.id = be.entity_id
		 WHERE be.briefing_id = ANY($1)`,
		ids,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: list briefing entities")
	}
	defer entRows.Close()
	for entRows.Next() {
		var briefingID, cat string
		var rec model.NamedRecord
		if err := entRows.Scan(&briefingID, &rec.ID, &rec.Name, &cat, &rec.CreatedAt); err != nil {
			return eris.Wrap(err, "postgres: scan briefing entity")
		}
		rec.Category = model.EntityCategory(cat)
		i := index[briefingID]
		briefings[i].Entities = append(briefings[i].Entities, rec)
	}
	if err := entRows.Err(); err != nil {
		return eris.Wrap(err, "postgres: iterate briefing entities")
	}
	return nil
}

func (s *PostgresStore) ListEntityMentions(ctx context.Context) ([]model.EntityMention, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT e.id, e.name, e.category, COUNT(be.briefing_id) AS mentions
		 FROM entities e JOIN briefing_entities be ON be.entity_id = e.id
		 GROUP BY e.id, e.name, e.category
		 ORDER BY mentions DESC, e.name ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list entity mentions")
	}
	defer rows.Close()

	var out []model.EntityMention
	for rows.Next() {
		var m model.EntityMention
		var cat string
		if err := rows.Scan(&m.ID, &m.Name, &cat, &m.Mentions); err != nil {
			return nil, eris.Wrap(err, "postgres: scan entity mention")
		}
		m.Category = model.EntityCategory(cat)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate entity mentions")
	}
	return out, nil
}
