package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mwort/grass/internal/model"
	"github.com/mwort/grass/internal/store"
)

// New opens (or creates) a SQLite temporal database file and ensures the schema.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB wires a store onto an existing connection (used by the factory and
// by tests).
func NewWithDB(db *sql.DB) store.Store { return &sqlStore{db: db} }

type sqlStore struct{ db *sql.DB }

func (s *sqlStore) Datasets() store.Datasets { return &datasets{db: s.db} }
func (s *sqlStore) Maps() store.Maps         { return &maps{db: s.db} }
func (s *sqlStore) Registry() store.Registry { return &registry{db: s.db} }

// HealthPing implements health.HealthPinger for the SQLite-backed store.
func (s *sqlStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the catalog tables if they do not exist. Junction
// (register) tables are not part of the static schema; the registry creates
// them lazily per dataset and per map.
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
            start_time TIMESTAMP,
            end_time TIMESTAMP,
            start_offset INTEGER,
            end_offset INTEGER,
            timezone TEXT,
            map_count INTEGER NOT NULL DEFAULT 0,
            map_time TEXT,
            creation_time TIMESTAMP NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_datasets_mapset ON datasets(mapset);`,
		`CREATE TABLE IF NOT EXISTS maps (
            id TEXT PRIMARY KEY,
            mapset TEXT NOT NULL,
            kind TEXT NOT NULL,
            temporal_type TEXT NOT NULL,
            dataset_register TEXT,
            start_time TIMESTAMP,
            end_time TIMESTAMP,
            start_offset INTEGER,
            end_offset INTEGER,
            timezone TEXT,
            creation_time TIMESTAMP NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_maps_mapset_kind ON maps(mapset, kind);`,
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
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `INSERT INTO datasets
        (id, mapset, kind, temporal_type, semantic_type, title, description, granularity, timezone, map_count, creation_time)
        VALUES (?,?,?,?,?,?,?,?,?,0,?)`,
		d.ID, d.Mapset, d.Kind, d.TemporalType, d.SemanticType, d.Title, d.Description, d.Granularity, d.TimeZone, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("dataset %q already exists: %w", d.ID, model.ErrConflict)
		}
		return nil, err
	}
	out := *d
	out.MapCount = 0
	out.CreationTime = now
	return &out, nil
}

const datasetCols = `id, mapset, kind, temporal_type, semantic_type, title, description, granularity,
        map_register, start_time, end_time, start_offset, end_offset, timezone, map_count, map_time, creation_time`

func (s *datasets) Get(ctx context.Context, mapset, id string) (*model.Dataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+datasetCols+` FROM datasets WHERE mapset = ? AND id = ?`, mapset, id)
	d, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dataset %q: %w", id, model.ErrNotFound)
	}
	return d, err
}

func (s *datasets) List(ctx context.Context, mapset string) ([]*model.Dataset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+datasetCols+` FROM datasets WHERE mapset = ? ORDER BY id`, mapset)
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
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE mapset = ? AND id = ?`, mapset, id)
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
	return &d, nil
}

// --- Maps ---

type maps struct{ db *sql.DB }

func (s *maps) Create(ctx context.Context, m *model.Map) (*model.Map, error) {
	if !m.TemporalType.Valid() {
		return nil, fmt.Errorf("unknown temporal type %q: %w", m.TemporalType, model.ErrValidation)
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `INSERT INTO maps
        (id, mapset, kind, temporal_type, start_time, end_time, start_offset, end_offset, timezone, creation_time)
        VALUES (?,?,?,?,?,?,?,?,?,?)`,
		m.ID, m.Mapset, m.Kind, m.TemporalType,
		utcOrNil(m.Start), utcOrNil(m.End), m.StartOffset, m.EndOffset, m.TimeZone, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("map %q already exists: %w", m.ID, model.ErrConflict)
		}
		return nil, err
	}
	out := *m
	out.CreationTime = now
	return &out, nil
}

const mapCols = `id, mapset, kind, temporal_type, dataset_register,
        start_time, end_time, start_offset, end_offset, timezone, creation_time`

func (s *maps) Get(ctx context.Context, mapset, id string) (*model.Map, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+mapCols+` FROM maps WHERE mapset = ? AND id = ?`, mapset, id)
	m, err := scanMap(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("map %q: %w", id, model.ErrNotFound)
	}
	return m, err
}

func (s *maps) List(ctx context.Context, mapset string, kind model.MapKind) ([]*model.Map, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+mapCols+` FROM maps WHERE mapset = ? AND kind = ? ORDER BY id`, mapset, kind)
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
	res, err := s.db.ExecContext(ctx, `DELETE FROM maps WHERE mapset = ? AND id = ?`, mapset, id)
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
	return &m, nil
}

// --- helpers ---

func utcOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// sqliteTimeLayouts covers the text forms the driver hands back for TIMESTAMP
// columns and for aggregate expressions, where column type affinity is lost.
var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339Nano,
}

func parseSQLiteTime(s string) (time.Time, error) {
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable sqlite timestamp %q", s)
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// isUniqueViolation matches the text form modernc.org/sqlite uses for
// SQLITE_CONSTRAINT_UNIQUE / _PRIMARYKEY errors.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
