package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mwort/grass/internal/model"
	"github.com/mwort/grass/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens a connection, ensures the catalog schema and returns a Store.
func New(dsn string) (store.Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB constructs a native Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Datasets() store.Datasets { return &datasets{db: s.db} }
func (s *pgStore) Maps() store.Maps         { return &maps{db: s.db} }
func (s *pgStore) Registry() store.Registry { return &registry{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Bootstrap verifies that Postgres is reachable and the catalog schema exists.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil
	}
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	return EnsureSchema(db)
}

// EnsureSchema creates the catalog tables if they do not exist. Junction
// (register) tables are created lazily by the registry.
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS datasets (
            id TEXT PRIMARY KEY,
            mapset TEXT NOT NULL,
            kind TEXT NOT NULL,
            temporal_type TEXT NOT NULL,
            semantic_type TEXT,
            title TEXT,
            description TEXT,
            granularity TEXT,
            map_register TEXT,
            start_time TIMESTAMPTZ,
            end_time TIMESTAMPTZ,
            start_offset BIGINT,
            end_offset BIGINT,
            timezone TEXT,
            map_count INTEGER NOT NULL DEFAULT 0,
            map_time TEXT,
            creation_time TIMESTAMPTZ NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_datasets_mapset ON datasets(mapset)`,
		`CREATE TABLE IF NOT EXISTS maps (
            id TEXT PRIMARY KEY,
            mapset TEXT NOT NULL,
            kind TEXT NOT NULL,
            temporal_type TEXT NOT NULL,
            dataset_register TEXT,
            start_time TIMESTAMPTZ,
            end_time TIMESTAMPTZ,
            start_offset BIGINT,
            end_offset BIGINT,
            timezone TEXT,
            creation_time TIMESTAMPTZ NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_maps_mapset_kind ON maps(mapset, kind)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// --- Datasets ---

type datasets struct{ db *sql.DB }

func (s *datasets) Create(ctx context.Context, d *model.Dataset) (*model.Dataset, error) {
	if !d.Kind.Valid() {
		return nil, fmt.Errorf("unknown dataset kind %q: %w", d.Kind, model.ErrValidation)
	}
	if !d.TemporalType.Valid() {
		return nil, fmt.Errorf("unknown temporal type %q: %w", d.TemporalType, model.ErrValidation)
	}
	var created time.Time
	row := s.db.QueryRowContext(ctx, `
        INSERT INTO datasets
            (id, mapset, kind, temporal_type, semantic_type, title, description, granularity, timezone, map_count, creation_time)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,0,now())
        RETURNING creation_time
    `, d.ID, d.Mapset, d.Kind, d.TemporalType, nullStr(d.SemanticType), d.Title, d.Description, d.Granularity, d.TimeZone)
	if err := row.Scan(&created); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("dataset %q already exists: %w", d.ID, model.ErrConflict)
		}
		return nil, err
	}
	out := *d
	out.MapCount = 0
	out.CreationTime = created.UTC()
	return &out, nil
}

const datasetCols = `id, mapset, kind, temporal_type, semantic_type, title, description, granularity,
        map_register, start_time, end_time, start_offset, end_offset, timezone, map_count, map_time, creation_time`

func (s *datasets) Get(ctx context.Context, mapset, id string) (*model.Dataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+datasetCols+` FROM datasets WHERE mapset = $1 AND id = $2`, mapset, id)
	d, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dataset %q: %w", id, model.ErrNotFound)
	}
	return d, err
}

func (s *datasets) List(ctx context.Context, mapset string) ([]*model.Dataset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+datasetCols+` FROM datasets WHERE mapset = $1 ORDER BY id`, mapset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Dataset
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *datasets) Delete(ctx context.Context, mapset, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE mapset = $1 AND id = $2`, mapset, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("dataset %q: %w", id, model.ErrNotFound)
	}
	return nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanDataset(row rowScanner) (*model.Dataset, error) {
	var d model.Dataset
	var semantic, mapTime sql.NullString
	var start, end sql.NullTime
	if err := row.Scan(&d.ID, &d.Mapset, &d.Kind, &d.TemporalType, &semantic,
		&d.Title, &d.Description, &d.Granularity, &d.MapRegister,
		&start, &end, &d.StartOffset, &d.EndOffset, &d.TimeZone,
		&d.MapCount, &mapTime, &d.CreationTime); err != nil {
		return nil, err
	}
	d.SemanticType = semantic.String
	d.Start = timePtr(start)
	d.End = timePtr(end)
	if mapTime.Valid {
		mt := model.MapTime(mapTime.String)
		d.MapTime = &mt
	}
	d.CreationTime = d.CreationTime.UTC()
	return &d, nil
}

// --- Maps ---

type maps struct{ db *sql.DB }

func (s *maps) Create(ctx context.Context, m *model.Map) (*model.Map, error) {
	if !m.TemporalType.Valid() {
		return nil, fmt.Errorf("unknown temporal type %q: %w", m.TemporalType, model.ErrValidation)
	}
	var created time.Time
	row := s.db.QueryRowContext(ctx, `
        INSERT INTO maps
            (id, mapset, kind, temporal_type, start_time, end_time, start_offset, end_offset, timezone, creation_time)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now())
        RETURNING creation_time
    `, m.ID, m.Mapset, m.Kind, m.TemporalType,
		utcOrNil(m.Start), utcOrNil(m.End), m.StartOffset, m.EndOffset, m.TimeZone)
	if err := row.Scan(&created); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("map %q already exists: %w", m.ID, model.ErrConflict)
		}
		return nil, err
	}
	out := *m
	out.CreationTime = created.UTC()
	return &out, nil
}

const mapCols = `id, mapset, kind, temporal_type, dataset_register,
        start_time, end_time, start_offset, end_offset, timezone, creation_time`

func (s *maps) Get(ctx context.Context, mapset, id string) (*model.Map, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+mapCols+` FROM maps WHERE mapset = $1 AND id = $2`, mapset, id)
	m, err := scanMap(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("map %q: %w", id, model.ErrNotFound)
	}
	return m, err
}

func (s *maps) List(ctx context.Context, mapset string, kind model.MapKind) ([]*model.Map, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+mapCols+` FROM maps WHERE mapset = $1 AND kind = $2 ORDER BY id`, mapset, kind)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Map
	for rows.Next() {
		m, err := scanMap(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *maps) Delete(ctx context.Context, mapset, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM maps WHERE mapset = $1 AND id = $2`, mapset, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("map %q: %w", id, model.ErrNotFound)
	}
	return nil
}

func scanMap(row rowScanner) (*model.Map, error) {
	var m model.Map
	var start, end sql.NullTime
	if err := row.Scan(&m.ID, &m.Mapset, &m.Kind, &m.TemporalType, &m.DatasetRegister,
		&start, &end, &m.StartOffset, &m.EndOffset, &m.TimeZone, &m.CreationTime); err != nil {
		return nil, err
	}
	m.Start = timePtr(start)
	m.End = timePtr(end)
	m.CreationTime = m.CreationTime.UTC()
	return &m, nil
}

// --- helpers ---

func utcOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
