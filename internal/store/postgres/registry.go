package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mwort/grass/internal/model"
	"github.com/mwort/grass/internal/store"
)

// registry implements the membership ledger on Postgres. Mutations run in one
// transaction so the dataset-side and map-side junction tables stay paired.
type registry struct{ db *sql.DB }

const pgTimestampType = "TIMESTAMPTZ"

func (r *registry) Register(ctx context.Context, d *model.Dataset, m *model.Map) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	mapReg, newMapReg, err := ensureMapRegister(ctx, tx, d, m)
	if err != nil {
		return false, err
	}
	dsReg, newDsReg, err := ensureDatasetRegister(ctx, tx, d)
	if err != nil {
		return false, err
	}

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM `+dsReg+` WHERE id = $1`, m.ID).Scan(&one)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO `+mapReg+` (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, d.ID); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO `+dsReg+` (id) VALUES ($1)`, m.ID); err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	if newMapReg {
		m.DatasetRegister = &mapReg
	}
	if newDsReg {
		d.MapRegister = &dsReg
	}
	return true, nil
}

func ensureMapRegister(ctx context.Context, tx *sql.Tx, d *model.Dataset, m *model.Map) (string, bool, error) {
	if m.DatasetRegister != nil {
		if err := store.ValidateIdent(*m.DatasetRegister); err != nil {
			return "", false, err
		}
		return *m.DatasetRegister, false, nil
	}
	name, err := store.MapRegisterName(d.Kind)
	if err != nil {
		return "", false, err
	}
	ddl, err := store.RegisterTableDDL(name, m.TemporalType, pgTimestampType)
	if err != nil {
		return "", false, err
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return "", false, fmt.Errorf("create map register table %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE maps SET dataset_register = $1 WHERE id = $2`, name, m.ID); err != nil {
		return "", false, err
	}
	return name, true, nil
}

func ensureDatasetRegister(ctx context.Context, tx *sql.Tx, d *model.Dataset) (string, bool, error) {
	if d.MapRegister != nil {
		if err := store.ValidateIdent(*d.MapRegister); err != nil {
			return "", false, err
		}
		return *d.MapRegister, false, nil
	}
	name, err := store.DatasetRegisterName(d)
	if err != nil {
		return "", false, err
	}
	ddl, err := store.RegisterTableDDL(name, d.TemporalType, pgTimestampType)
	if err != nil {
		return "", false, err
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return "", false, fmt.Errorf("create dataset register table %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE datasets SET map_register = $1 WHERE id = $2`, name, d.ID); err != nil {
		return "", false, err
	}
	return name, true, nil
}

func (r *registry) Unregister(ctx context.Context, d *model.Dataset, m *model.Map) (bool, error) {
	if m.DatasetRegister == nil {
		return false, nil
	}
	mapReg := *m.DatasetRegister
	if err := store.ValidateIdent(mapReg); err != nil {
		return false, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM `+mapReg+` WHERE id = $1`, d.ID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+mapReg+` WHERE id = $1`, d.ID); err != nil {
		return false, err
	}
	if d.MapRegister != nil {
		dsReg := *d.MapRegister
		if err := store.ValidateIdent(dsReg); err != nil {
			return false, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+dsReg+` WHERE id = $1`, m.ID); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *registry) IsRegistered(ctx context.Context, d *model.Dataset, mapID string) (bool, error) {
	if d.MapRegister == nil {
		return false, nil
	}
	reg := *d.MapRegister
	if err := store.ValidateIdent(reg); err != nil {
		return false, err
	}
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM `+reg+` WHERE id = $1`, mapID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *registry) MemberIDs(ctx context.Context, d *model.Dataset) ([]string, error) {
	if d.MapRegister == nil {
		return nil, nil
	}
	reg := *d.MapRegister
	if err := store.ValidateIdent(reg); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM `+reg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *registry) DatasetIDs(ctx context.Context, m *model.Map) ([]string, error) {
	if m.DatasetRegister == nil {
		return nil, nil
	}
	reg := *m.DatasetRegister
	if err := store.ValidateIdent(reg); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM `+reg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *registry) Members(ctx context.Context, d *model.Dataset, req model.ListMembersRequest) ([]*model.Map, error) {
	if d.MapRegister == nil {
		return nil, nil
	}
	reg := *d.MapRegister
	if err := store.ValidateIdent(reg); err != nil {
		return nil, err
	}
	order, err := store.OrderClause(d.TemporalType, req.Order)
	if err != nil {
		return nil, err
	}
	startCol, _ := store.TimeColumns(d.TemporalType)

	query := `SELECT ` + mapCols + ` FROM maps WHERE id IN (SELECT id FROM ` + reg + `)`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if d.TemporalType == model.TemporalAbsolute {
		if req.After != nil {
			query += ` AND ` + startCol + ` > ` + arg(req.After.UTC())
		}
		if req.Before != nil {
			query += ` AND ` + startCol + ` < ` + arg(req.Before.UTC())
		}
	} else {
		if req.AfterOffset != nil {
			query += ` AND ` + startCol + ` > ` + arg(*req.AfterOffset)
		}
		if req.BeforeOffset != nil {
			query += ` AND ` + startCol + ` < ` + arg(*req.BeforeOffset)
		}
	}
	query += ` ORDER BY ` + order
	if req.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, req.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
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

func (r *registry) Refresh(ctx context.Context, d *model.Dataset) error {
	if d.MapRegister == nil {
		return nil
	}
	reg := *d.MapRegister
	if err := store.ValidateIdent(reg); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if d.TemporalType == model.TemporalRelative {
		err = refreshRelative(ctx, tx, d, reg)
	} else {
		err = refreshAbsolute(ctx, tx, d, reg)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

func refreshAbsolute(ctx context.Context, tx *sql.Tx, d *model.Dataset, reg string) error {
	var minS, maxS, maxE sql.NullTime
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT MIN(start_time), MAX(start_time), MAX(end_time), COUNT(id)
         FROM maps WHERE id IN (SELECT id FROM `+reg+`)`).Scan(&minS, &maxS, &maxE, &count)
	if err != nil {
		return err
	}
	if count == 0 {
		return clearExtent(ctx, tx, d)
	}
	if !minS.Valid || !maxS.Valid {
		return fmt.Errorf("register %s holds members without start times", reg)
	}

	maxEnd := timePtr(maxE)
	maxStart := maxS.Time.UTC()

	cls := model.Classify(nanosPtr(maxEnd), maxStart.UnixNano())
	end := maxStart
	if cls == model.MapTimeInterval {
		end = *maxEnd
	}

	minStart := minS.Time.UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE datasets SET start_time = $1, end_time = $2, map_time = $3, map_count = $4 WHERE id = $5`,
		minStart, end, cls, count, d.ID); err != nil {
		return err
	}
	d.Start = &minStart
	d.End = &end
	d.MapTime = &cls
	d.MapCount = count
	return nil
}

func refreshRelative(ctx context.Context, tx *sql.Tx, d *model.Dataset, reg string) error {
	var minS, maxS, maxE sql.NullInt64
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT MIN(start_offset), MAX(start_offset), MAX(end_offset), COUNT(id)
         FROM maps WHERE id IN (SELECT id FROM `+reg+`)`).Scan(&minS, &maxS, &maxE, &count)
	if err != nil {
		return err
	}
	if count == 0 {
		return clearExtent(ctx, tx, d)
	}
	if !minS.Valid || !maxS.Valid {
		return fmt.Errorf("register %s holds members without start offsets", reg)
	}

	cls := model.Classify(int64Ptr(maxE), maxS.Int64)
	end := maxS.Int64
	if cls == model.MapTimeInterval {
		end = maxE.Int64
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE datasets SET start_offset = $1, end_offset = $2, map_time = $3, map_count = $4 WHERE id = $5`,
		minS.Int64, end, cls, count, d.ID); err != nil {
		return err
	}
	d.StartOffset = &minS.Int64
	d.EndOffset = &end
	d.MapTime = &cls
	d.MapCount = count
	return nil
}

func clearExtent(ctx context.Context, tx *sql.Tx, d *model.Dataset) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE datasets SET start_time = NULL, end_time = NULL,
         start_offset = NULL, end_offset = NULL, map_time = NULL, map_count = 0
         WHERE id = $1`, d.ID); err != nil {
		return err
	}
	d.Start, d.End = nil, nil
	d.StartOffset, d.EndOffset = nil, nil
	d.MapTime = nil
	d.MapCount = 0
	return nil
}

func (r *registry) DropRegister(ctx context.Context, d *model.Dataset) error {
	if d.MapRegister == nil {
		return nil
	}
	reg := *d.MapRegister
	if err := store.ValidateIdent(reg); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+reg); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE datasets SET map_register = NULL WHERE id = $1`, d.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	d.MapRegister = nil
	return nil
}

func nanosPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	n := t.UnixNano()
	return &n
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return &n.Int64
}
