package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwort/grass/internal/model"
	"github.com/mwort/grass/internal/store"
	"github.com/mwort/grass/internal/store/sqlite"
	"github.com/mwort/grass/internal/temporal"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "temporal.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	return s
}

func day(t *testing.T, s string) *time.Time {
	t.Helper()
	v, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	v = v.UTC()
	return &v
}

func seedDataset(t *testing.T, svc *DatasetService, id string) *model.Dataset {
	t.Helper()
	d, err := svc.Create(context.Background(), &model.Dataset{
		ID: id, Mapset: "climate", Kind: model.KindSTRDS, TemporalType: model.TemporalAbsolute,
	})
	if err != nil {
		t.Fatalf("create dataset: %v", err)
	}
	return d
}

func seedMap(t *testing.T, svc *MapService, id string, start, end *time.Time) *model.Map {
	t.Helper()
	m, err := svc.Create(context.Background(), &model.Map{
		ID: id, Mapset: "climate", Kind: model.KindRaster,
		TemporalType: model.TemporalAbsolute, Start: start, End: end,
	})
	if err != nil {
		t.Fatalf("create map: %v", err)
	}
	return m
}

func TestRegisterMap_UpdatesExtent(t *testing.T) {
	st := newTestStore(t)
	ds := NewDatasetService(st)
	ms := NewMapService(st)
	ctx := context.Background()

	seedDataset(t, ds, "tempmean")
	seedMap(t, ms, "m_2020_01", day(t, "2020-01-01"), day(t, "2020-02-01"))
	seedMap(t, ms, "m_2020_02", day(t, "2020-02-01"), day(t, "2020-03-01"))

	d, err := ds.RegisterMap(ctx, "climate", "tempmean", "m_2020_01")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if d.MapCount != 1 {
		t.Fatalf("map count after first register: %d", d.MapCount)
	}

	d, err = ds.RegisterMap(ctx, "climate", "tempmean", "m_2020_02")
	if err != nil {
		t.Fatalf("register second: %v", err)
	}
	if d.MapCount != 2 {
		t.Fatalf("map count: %d", d.MapCount)
	}
	if d.Start == nil || !d.Start.Equal(*day(t, "2020-01-01")) {
		t.Fatalf("start: %v", d.Start)
	}
	if d.End == nil || !d.End.Equal(*day(t, "2020-03-01")) {
		t.Fatalf("end: %v", d.End)
	}
	if d.MapTime == nil || *d.MapTime != model.MapTimeInterval {
		t.Fatalf("map time: %v", d.MapTime)
	}

	// Registering the same map again is tolerated and changes nothing.
	d, err = ds.RegisterMap(ctx, "climate", "tempmean", "m_2020_01")
	if err != nil {
		t.Fatalf("duplicate register: %v", err)
	}
	if d.MapCount != 2 {
		t.Fatalf("map count after duplicate: %d", d.MapCount)
	}
}

func TestRegisterMap_PointMapsClassifyPoint(t *testing.T) {
	st := newTestStore(t)
	ds := NewDatasetService(st)
	ms := NewMapService(st)
	ctx := context.Background()

	seedDataset(t, ds, "snapshots")
	seedMap(t, ms, "s_2020_01", day(t, "2020-01-01"), nil)
	seedMap(t, ms, "s_2020_02", day(t, "2020-02-01"), nil)

	// Each registration triggers its own refresh; the intermediate pass must
	// not leak its derived end into the next one.
	if _, err := ds.RegisterMap(ctx, "climate", "snapshots", "s_2020_01"); err != nil {
		t.Fatalf("register first: %v", err)
	}
	d, err := ds.RegisterMap(ctx, "climate", "snapshots", "s_2020_02")
	if err != nil {
		t.Fatalf("register second: %v", err)
	}
	if d.MapTime == nil || *d.MapTime != model.MapTimePoint {
		t.Fatalf("classification = %v, want point", d.MapTime)
	}
	if d.End == nil || !d.End.Equal(*day(t, "2020-02-01")) {
		t.Fatalf("end: %v", d.End)
	}

	// An explicit refresh over unchanged membership keeps the classification.
	for i := 0; i < 2; i++ {
		d, err = ds.Refresh(ctx, "climate", "snapshots")
		if err != nil {
			t.Fatalf("refresh %d: %v", i+1, err)
		}
		if d.MapTime == nil || *d.MapTime != model.MapTimePoint {
			t.Fatalf("refresh %d: classification = %v, want point", i+1, d.MapTime)
		}
		if d.End == nil || !d.End.Equal(*day(t, "2020-02-01")) {
			t.Fatalf("refresh %d: end %v", i+1, d.End)
		}
	}
}

func TestRegisterMap_Preconditions(t *testing.T) {
	st := newTestStore(t)
	ds := NewDatasetService(st)
	ms := NewMapService(st)
	ctx := context.Background()

	seedDataset(t, ds, "tempmean")

	// No time stamp at all.
	if _, err := ms.Create(ctx, &model.Map{
		ID: "timeless", Mapset: "climate", Kind: model.KindRaster, TemporalType: model.TemporalAbsolute,
	}); err != nil {
		t.Fatalf("create timeless map: %v", err)
	}
	if _, err := ds.RegisterMap(ctx, "climate", "tempmean", "timeless"); !store.IsValidation(err) {
		t.Fatalf("timeless map: want validation error, got %v", err)
	}

	// Relative map into an absolute dataset.
	off := int64(0)
	if _, err := ms.Create(ctx, &model.Map{
		ID: "sim_day_0", Mapset: "climate", Kind: model.KindRaster,
		TemporalType: model.TemporalRelative, StartOffset: &off,
	}); err != nil {
		t.Fatalf("create relative map: %v", err)
	}
	if _, err := ds.RegisterMap(ctx, "climate", "tempmean", "sim_day_0"); !store.IsValidation(err) {
		t.Fatalf("temporal type mismatch: want validation error, got %v", err)
	}

	// Vector map into a raster dataset.
	if _, err := ms.Create(ctx, &model.Map{
		ID: "roads", Mapset: "climate", Kind: model.KindVector,
		TemporalType: model.TemporalAbsolute, Start: day(t, "2020-01-01"),
	}); err != nil {
		t.Fatalf("create vector map: %v", err)
	}
	if _, err := ds.RegisterMap(ctx, "climate", "tempmean", "roads"); !store.IsValidation(err) {
		t.Fatalf("kind mismatch: want validation error, got %v", err)
	}

	// Unknown records surface as not found, not as registration failures.
	if _, err := ds.RegisterMap(ctx, "climate", "nope", "roads"); !store.IsNotFound(err) {
		t.Fatalf("unknown dataset: want not found, got %v", err)
	}
	if _, err := ds.RegisterMap(ctx, "climate", "tempmean", "nope"); !store.IsNotFound(err) {
		t.Fatalf("unknown map: want not found, got %v", err)
	}
}

func TestUnregisterMap(t *testing.T) {
	st := newTestStore(t)
	ds := NewDatasetService(st)
	ms := NewMapService(st)
	ctx := context.Background()

	seedDataset(t, ds, "tempmean")
	seedMap(t, ms, "m_2020_01", day(t, "2020-01-01"), day(t, "2020-02-01"))
	seedMap(t, ms, "m_2020_02", day(t, "2020-02-01"), day(t, "2020-03-01"))
	if _, err := ds.RegisterMap(ctx, "climate", "tempmean", "m_2020_01"); err != nil {
		t.Fatal(err)
	}
	if _, err := ds.RegisterMap(ctx, "climate", "tempmean", "m_2020_02"); err != nil {
		t.Fatal(err)
	}

	d, err := ds.UnregisterMap(ctx, "climate", "tempmean", "m_2020_01")
	if err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if d.MapCount != 1 {
		t.Fatalf("map count: %d", d.MapCount)
	}
	if d.Start == nil || !d.Start.Equal(*day(t, "2020-02-01")) {
		t.Fatalf("start after shrink: %v", d.Start)
	}

	// A map that was never registered is tolerated.
	seedMap(t, ms, "stranger", day(t, "2020-06-01"), nil)
	d, err = ds.UnregisterMap(ctx, "climate", "tempmean", "stranger")
	if err != nil {
		t.Fatalf("unregister stranger: %v", err)
	}
	if d.MapCount != 1 {
		t.Fatalf("map count after stranger: %d", d.MapCount)
	}
}

func TestRelationMatrix(t *testing.T) {
	st := newTestStore(t)
	ds := NewDatasetService(st)
	ms := NewMapService(st)
	ctx := context.Background()

	seedDataset(t, ds, "tempmean")
	seedMap(t, ms, "jan", day(t, "2020-01-01"), day(t, "2020-02-01"))
	seedMap(t, ms, "feb", day(t, "2020-02-01"), day(t, "2020-03-01"))
	seedMap(t, ms, "apr", day(t, "2020-04-01"), day(t, "2020-05-01"))
	for _, id := range []string{"feb", "apr", "jan"} {
		if _, err := ds.RegisterMap(ctx, "climate", "tempmean", id); err != nil {
			t.Fatal(err)
		}
	}

	matrix, err := ds.RelationMatrix(ctx, "climate", "tempmean")
	if err != nil {
		t.Fatalf("relation matrix: %v", err)
	}
	wantIDs := []string{"jan", "feb", "apr"}
	if len(matrix.IDs) != 3 {
		t.Fatalf("ids: %v", matrix.IDs)
	}
	for i, id := range wantIDs {
		if matrix.IDs[i] != id {
			t.Fatalf("ids not start-ordered: %v", matrix.IDs)
		}
	}
	for i := range matrix.Relations {
		if matrix.Relations[i][i] != temporal.RelationEqual {
			t.Fatalf("diagonal [%d]: %v", i, matrix.Relations[i][i])
		}
	}
	if matrix.Relations[0][1] != temporal.RelationMeets {
		t.Fatalf("jan vs feb: %v", matrix.Relations[0][1])
	}
	if matrix.Relations[1][0] != temporal.RelationMet {
		t.Fatalf("feb vs jan: %v", matrix.Relations[1][0])
	}
	if matrix.Relations[0][2] != temporal.RelationBefore {
		t.Fatalf("jan vs apr: %v", matrix.Relations[0][2])
	}
	if matrix.Relations[2][0] != temporal.RelationAfter {
		t.Fatalf("apr vs jan: %v", matrix.Relations[2][0])
	}
}

func TestDatasetDelete_Teardown(t *testing.T) {
	st := newTestStore(t)
	ds := NewDatasetService(st)
	ms := NewMapService(st)
	ctx := context.Background()

	seedDataset(t, ds, "tempmean")
	seedMap(t, ms, "m_2020_01", day(t, "2020-01-01"), day(t, "2020-02-01"))
	if _, err := ds.RegisterMap(ctx, "climate", "tempmean", "m_2020_01"); err != nil {
		t.Fatal(err)
	}

	// A registered map cannot be deleted out from under the dataset.
	if err := ms.Delete(ctx, "climate", "m_2020_01"); !store.IsConflict(err) {
		t.Fatalf("delete registered map: want conflict, got %v", err)
	}

	if err := ds.Delete(ctx, "climate", "tempmean"); err != nil {
		t.Fatalf("delete dataset: %v", err)
	}
	if _, err := ds.Get(ctx, "climate", "tempmean"); !store.IsNotFound(err) {
		t.Fatalf("dataset still present: %v", err)
	}

	// The member map survives and is free again.
	if ids, err := ms.Datasets(ctx, "climate", "m_2020_01"); err != nil || len(ids) != 0 {
		t.Fatalf("map still referenced: %v err=%v", ids, err)
	}
	if err := ms.Delete(ctx, "climate", "m_2020_01"); err != nil {
		t.Fatalf("delete map after teardown: %v", err)
	}
}
