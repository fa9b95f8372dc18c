package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/mwort/grass/internal/model"
	"github.com/mwort/grass/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// makeStore must return a clean, isolated store per call.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("DatasetCRUD", func(t *testing.T) { testDatasetCRUD(t, makeStore(t)) })
	t.Run("MapCRUD", func(t *testing.T) { testMapCRUD(t, makeStore(t)) })
	t.Run("RegisterLifecycle", func(t *testing.T) { testRegisterLifecycle(t, makeStore(t)) })
	t.Run("RefreshIntervals", func(t *testing.T) { testRefreshIntervals(t, makeStore(t)) })
	t.Run("RefreshPoints", func(t *testing.T) { testRefreshPoints(t, makeStore(t)) })
	t.Run("RefreshMixed", func(t *testing.T) { testRefreshMixed(t, makeStore(t)) })
	t.Run("RefreshEndEqualsMaxStart", func(t *testing.T) { testRefreshEndEqualsMaxStart(t, makeStore(t)) })
	t.Run("RefreshIdempotent", func(t *testing.T) { testRefreshIdempotent(t, makeStore(t)) })
	t.Run("Members", func(t *testing.T) { testMembers(t, makeStore(t)) })
	t.Run("RelativeMode", func(t *testing.T) { testRelativeMode(t, makeStore(t)) })
	t.Run("Teardown", func(t *testing.T) { testTeardown(t, makeStore(t)) })
}

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v.UTC()
}

func tsp(t *testing.T, s string) *time.Time {
	v := ts(t, s)
	return &v
}

func i64(v int64) *int64 { return &v }

func mkDataset(t *testing.T, s store.Store, id string, tt model.TemporalType) *model.Dataset {
	t.Helper()
	d, err := s.Datasets().Create(context.Background(), &model.Dataset{
		ID: id, Mapset: "climate", Kind: model.KindSTRDS, TemporalType: tt,
	})
	if err != nil {
		t.Fatalf("create dataset %s: %v", id, err)
	}
	return d
}

func mkMap(t *testing.T, s store.Store, id string, start, end *time.Time) *model.Map {
	t.Helper()
	m, err := s.Maps().Create(context.Background(), &model.Map{
		ID: id, Mapset: "climate", Kind: model.KindRaster,
		TemporalType: model.TemporalAbsolute, Start: start, End: end,
	})
	if err != nil {
		t.Fatalf("create map %s: %v", id, err)
	}
	return m
}

func register(t *testing.T, s store.Store, d *model.Dataset, m *model.Map) {
	t.Helper()
	ok, err := s.Registry().Register(context.Background(), d, m)
	if err != nil {
		t.Fatalf("register %s into %s: %v", m.ID, d.ID, err)
	}
	if !ok {
		t.Fatalf("register %s into %s: reported already registered", m.ID, d.ID)
	}
}

func testDatasetCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()

	d := mkDataset(t, s, "tempmean", model.TemporalAbsolute)
	if d.MapCount != 0 || d.MapRegister != nil || d.CreationTime.IsZero() {
		t.Fatalf("fresh dataset not empty: %+v", d)
	}

	got, err := s.Datasets().Get(ctx, "climate", "tempmean")
	if err != nil || got.Kind != model.KindSTRDS || got.TemporalType != model.TemporalAbsolute {
		t.Fatalf("get: got=%+v err=%v", got, err)
	}

	if _, err := s.Datasets().Create(ctx, &model.Dataset{
		ID: "tempmean", Mapset: "climate", Kind: model.KindSTRDS, TemporalType: model.TemporalAbsolute,
	}); !store.IsConflict(err) {
		t.Fatalf("duplicate create: want conflict, got %v", err)
	}

	if _, err := s.Datasets().Create(ctx, &model.Dataset{
		ID: "bad", Mapset: "climate", Kind: "timecube", TemporalType: model.TemporalAbsolute,
	}); !store.IsValidation(err) {
		t.Fatalf("invalid kind: want validation error, got %v", err)
	}

	lst, err := s.Datasets().List(ctx, "climate")
	if err != nil || len(lst) != 1 {
		t.Fatalf("list: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Datasets().List(ctx, "other"); err != nil || len(lst) != 0 {
		t.Fatalf("list other mapset: n=%d err=%v", len(lst), err)
	}

	if err := s.Datasets().Delete(ctx, "climate", "tempmean"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Datasets().Get(ctx, "climate", "tempmean"); !store.IsNotFound(err) {
		t.Fatalf("get after delete: want not found, got %v", err)
	}
	if err := s.Datasets().Delete(ctx, "climate", "tempmean"); !store.IsNotFound(err) {
		t.Fatalf("double delete: want not found, got %v", err)
	}
}

func testMapCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()

	m := mkMap(t, s, "tempmean_2020_01", tsp(t, "2020-01-01"), tsp(t, "2020-02-01"))
	if m.DatasetRegister != nil {
		t.Fatalf("fresh map has register table: %+v", m)
	}

	got, err := s.Maps().Get(ctx, "climate", "tempmean_2020_01")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Start == nil || !got.Start.Equal(ts(t, "2020-01-01")) {
		t.Fatalf("start round-trip: %v", got.Start)
	}
	if got.End == nil || !got.End.Equal(ts(t, "2020-02-01")) {
		t.Fatalf("end round-trip: %v", got.End)
	}

	if _, err := s.Maps().Create(ctx, &model.Map{
		ID: "tempmean_2020_01", Mapset: "climate", Kind: model.KindRaster, TemporalType: model.TemporalAbsolute,
	}); !store.IsConflict(err) {
		t.Fatalf("duplicate create: want conflict, got %v", err)
	}

	lst, err := s.Maps().List(ctx, "climate", model.KindRaster)
	if err != nil || len(lst) != 1 {
		t.Fatalf("list: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Maps().List(ctx, "climate", model.KindVector); err != nil || len(lst) != 0 {
		t.Fatalf("list vector: n=%d err=%v", len(lst), err)
	}

	if err := s.Maps().Delete(ctx, "climate", "tempmean_2020_01"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Maps().Get(ctx, "climate", "tempmean_2020_01"); !store.IsNotFound(err) {
		t.Fatalf("get after delete: want not found, got %v", err)
	}
}

func testRegisterLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	d := mkDataset(t, s, "tempmean", model.TemporalAbsolute)
	m := mkMap(t, s, "tempmean_2020_01", tsp(t, "2020-01-01"), tsp(t, "2020-02-01"))

	register(t, s, d, m)
	if d.MapRegister == nil || m.DatasetRegister == nil {
		t.Fatalf("register did not record table names: d=%v m=%v", d.MapRegister, m.DatasetRegister)
	}

	// Table names survive a reload.
	d2, err := s.Datasets().Get(ctx, "climate", "tempmean")
	if err != nil || d2.MapRegister == nil || *d2.MapRegister != *d.MapRegister {
		t.Fatalf("dataset register name not persisted: %v err=%v", d2.MapRegister, err)
	}
	m2, err := s.Maps().Get(ctx, "climate", "tempmean_2020_01")
	if err != nil || m2.DatasetRegister == nil || *m2.DatasetRegister != *m.DatasetRegister {
		t.Fatalf("map register name not persisted: %v err=%v", m2.DatasetRegister, err)
	}

	// Registering the same pair again is a no-op.
	ok, err := s.Registry().Register(ctx, d, m)
	if err != nil || ok {
		t.Fatalf("duplicate register: ok=%v err=%v", ok, err)
	}

	if ok, err := s.Registry().IsRegistered(ctx, d, m.ID); err != nil || !ok {
		t.Fatalf("IsRegistered: ok=%v err=%v", ok, err)
	}
	if ok, err := s.Registry().IsRegistered(ctx, d, "nope"); err != nil || ok {
		t.Fatalf("IsRegistered unknown map: ok=%v err=%v", ok, err)
	}

	ids, err := s.Registry().MemberIDs(ctx, d)
	if err != nil || len(ids) != 1 || ids[0] != m.ID {
		t.Fatalf("MemberIDs: %v err=%v", ids, err)
	}
	dsIDs, err := s.Registry().DatasetIDs(ctx, m)
	if err != nil || len(dsIDs) != 1 || dsIDs[0] != d.ID {
		t.Fatalf("DatasetIDs: %v err=%v", dsIDs, err)
	}

	// Unregistering a map that was never registered reports false.
	other := mkMap(t, s, "precip_2020_01", tsp(t, "2020-01-01"), nil)
	if ok, err := s.Registry().Unregister(ctx, d, other); err != nil || ok {
		t.Fatalf("unregister unknown: ok=%v err=%v", ok, err)
	}

	if ok, err := s.Registry().Unregister(ctx, d, m); err != nil || !ok {
		t.Fatalf("unregister: ok=%v err=%v", ok, err)
	}
	if ok, err := s.Registry().Unregister(ctx, d, m); err != nil || ok {
		t.Fatalf("double unregister: ok=%v err=%v", ok, err)
	}
	if ok, err := s.Registry().IsRegistered(ctx, d, m.ID); err != nil || ok {
		t.Fatalf("IsRegistered after unregister: ok=%v err=%v", ok, err)
	}
	if dsIDs, err := s.Registry().DatasetIDs(ctx, m); err != nil || len(dsIDs) != 0 {
		t.Fatalf("DatasetIDs after unregister: %v err=%v", dsIDs, err)
	}
}

func testRefreshIntervals(t *testing.T, s store.Store) {
	ctx := context.Background()
	d := mkDataset(t, s, "tempmean", model.TemporalAbsolute)
	m1 := mkMap(t, s, "m_2020_01", tsp(t, "2020-01-01"), tsp(t, "2020-02-01"))
	m2 := mkMap(t, s, "m_2020_02", tsp(t, "2020-02-01"), tsp(t, "2020-03-01"))
	register(t, s, d, m1)
	register(t, s, d, m2)

	if err := s.Registry().Refresh(ctx, d); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if d.MapCount != 2 {
		t.Fatalf("map count: %d", d.MapCount)
	}
	if d.Start == nil || !d.Start.Equal(ts(t, "2020-01-01")) {
		t.Fatalf("start: %v", d.Start)
	}
	if d.End == nil || !d.End.Equal(ts(t, "2020-03-01")) {
		t.Fatalf("end: %v", d.End)
	}
	if d.MapTime == nil || *d.MapTime != model.MapTimeInterval {
		t.Fatalf("map time: %v", d.MapTime)
	}

	// The refreshed extent is persisted, not just set on the handle.
	got, err := s.Datasets().Get(ctx, "climate", "tempmean")
	if err != nil || got.MapCount != 2 || got.MapTime == nil || *got.MapTime != model.MapTimeInterval {
		t.Fatalf("persisted refresh: %+v err=%v", got, err)
	}
	if got.Start == nil || !got.Start.Equal(ts(t, "2020-01-01")) || got.End == nil || !got.End.Equal(ts(t, "2020-03-01")) {
		t.Fatalf("persisted extent: start=%v end=%v", got.Start, got.End)
	}
}

func testRefreshPoints(t *testing.T, s store.Store) {
	ctx := context.Background()
	d := mkDataset(t, s, "snapshots", model.TemporalAbsolute)
	register(t, s, d, mkMap(t, s, "s_2020_01", tsp(t, "2020-01-01"), nil))
	register(t, s, d, mkMap(t, s, "s_2020_02", tsp(t, "2020-02-01"), nil))

	if err := s.Registry().Refresh(ctx, d); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if d.MapTime == nil || *d.MapTime != model.MapTimePoint {
		t.Fatalf("map time: %v", d.MapTime)
	}
	// With no interval anywhere, the displayed end is the latest member start.
	if d.End == nil || !d.End.Equal(ts(t, "2020-02-01")) {
		t.Fatalf("end: %v", d.End)
	}
	if d.Start == nil || !d.Start.Equal(ts(t, "2020-01-01")) {
		t.Fatalf("start: %v", d.Start)
	}
}

func testRefreshMixed(t *testing.T, s store.Store) {
	ctx := context.Background()
	d := mkDataset(t, s, "mixedbag", model.TemporalAbsolute)
	register(t, s, d, mkMap(t, s, "x_2020_01", tsp(t, "2020-01-01"), tsp(t, "2020-01-15")))
	if err := s.Registry().Refresh(ctx, d); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if d.MapTime == nil || *d.MapTime != model.MapTimeInterval {
		t.Fatalf("first classification: %v", d.MapTime)
	}

	// A later instant pushes the latest start past the latest member end and
	// the dataset degrades to mixed.
	register(t, s, d, mkMap(t, s, "x_2020_02", tsp(t, "2020-02-01"), nil))
	if err := s.Registry().Refresh(ctx, d); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if d.MapTime == nil || *d.MapTime != model.MapTimeMixed {
		t.Fatalf("classification: %v", d.MapTime)
	}
	if d.End == nil || !d.End.Equal(ts(t, "2020-02-01")) {
		t.Fatalf("end replaced by max start: %v", d.End)
	}
}

func testRefreshEndEqualsMaxStart(t *testing.T, s store.Store) {
	ctx := context.Background()
	d := mkDataset(t, s, "edgecase", model.TemporalAbsolute)
	register(t, s, d, mkMap(t, s, "e_2020_01", tsp(t, "2020-01-01"), tsp(t, "2020-02-01")))
	register(t, s, d, mkMap(t, s, "e_2020_02", tsp(t, "2020-02-01"), nil))

	if err := s.Registry().Refresh(ctx, d); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	// End exactly equal to the latest start still counts as covering it.
	if d.MapTime == nil || *d.MapTime != model.MapTimeInterval {
		t.Fatalf("classification: %v", d.MapTime)
	}
	if d.End == nil || !d.End.Equal(ts(t, "2020-02-01")) {
		t.Fatalf("end: %v", d.End)
	}
}

func testRefreshIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()
	d := mkDataset(t, s, "stable", model.TemporalAbsolute)
	register(t, s, d, mkMap(t, s, "p_2020_01", tsp(t, "2020-01-01"), nil))
	register(t, s, d, mkMap(t, s, "p_2020_02", tsp(t, "2020-02-01"), nil))

	// Refreshing repeatedly over unchanged membership must not reclassify:
	// the derived end written by one pass is not an input to the next.
	for i := 0; i < 3; i++ {
		if err := s.Registry().Refresh(ctx, d); err != nil {
			t.Fatalf("refresh %d: %v", i+1, err)
		}
		if d.MapTime == nil || *d.MapTime != model.MapTimePoint {
			t.Fatalf("refresh %d: classification %v, want point", i+1, d.MapTime)
		}
		if d.End == nil || !d.End.Equal(ts(t, "2020-02-01")) {
			t.Fatalf("refresh %d: end %v", i+1, d.End)
		}
	}

	// The persisted record agrees with the handle after every pass.
	got, err := s.Datasets().Get(ctx, "climate", "stable")
	if err != nil || got.MapTime == nil || *got.MapTime != model.MapTimePoint {
		t.Fatalf("persisted classification: %+v err=%v", got, err)
	}

	// Same stability for interval datasets.
	di := mkDataset(t, s, "stableiv", model.TemporalAbsolute)
	register(t, s, di, mkMap(t, s, "iv_2020_01", tsp(t, "2020-01-01"), tsp(t, "2020-02-01")))
	for i := 0; i < 2; i++ {
		if err := s.Registry().Refresh(ctx, di); err != nil {
			t.Fatalf("interval refresh %d: %v", i+1, err)
		}
		if di.MapTime == nil || *di.MapTime != model.MapTimeInterval {
			t.Fatalf("interval refresh %d: classification %v", i+1, di.MapTime)
		}
		if di.End == nil || !di.End.Equal(ts(t, "2020-02-01")) {
			t.Fatalf("interval refresh %d: end %v", i+1, di.End)
		}
	}
}

func testMembers(t *testing.T, s store.Store) {
	ctx := context.Background()
	d := mkDataset(t, s, "tempmean", model.TemporalAbsolute)
	register(t, s, d, mkMap(t, s, "m_2020_03", tsp(t, "2020-03-01"), tsp(t, "2020-04-01")))
	register(t, s, d, mkMap(t, s, "m_2020_01", tsp(t, "2020-01-01"), tsp(t, "2020-02-01")))
	register(t, s, d, mkMap(t, s, "m_2020_02", tsp(t, "2020-02-01"), tsp(t, "2020-03-01")))

	members, err := s.Registry().Members(ctx, d, model.ListMembersRequest{})
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 3 || members[0].ID != "m_2020_01" || members[2].ID != "m_2020_03" {
		t.Fatalf("default order: %v", memberIDs(members))
	}

	members, err = s.Registry().Members(ctx, d, model.ListMembersRequest{Order: model.OrderStartDesc, Limit: 2})
	if err != nil || len(members) != 2 || members[0].ID != "m_2020_03" {
		t.Fatalf("desc+limit: %v err=%v", memberIDs(members), err)
	}

	members, err = s.Registry().Members(ctx, d, model.ListMembersRequest{
		After:  tsp(t, "2020-01-15"),
		Before: tsp(t, "2020-02-15"),
	})
	if err != nil || len(members) != 1 || members[0].ID != "m_2020_02" {
		t.Fatalf("window filter: %v err=%v", memberIDs(members), err)
	}

	if _, err := s.Registry().Members(ctx, d, model.ListMembersRequest{Order: "sideways"}); !store.IsValidation(err) {
		t.Fatalf("bad order: want validation error, got %v", err)
	}
}

func testRelativeMode(t *testing.T, s store.Store) {
	ctx := context.Background()
	d := mkDataset(t, s, "sim", model.TemporalRelative)

	mk := func(id string, start int64, end *int64) *model.Map {
		m, err := s.Maps().Create(ctx, &model.Map{
			ID: id, Mapset: "climate", Kind: model.KindRaster,
			TemporalType: model.TemporalRelative, StartOffset: i64(start), EndOffset: end,
		})
		if err != nil {
			t.Fatalf("create map %s: %v", id, err)
		}
		return m
	}
	register(t, s, d, mk("sim_day_0", 0, i64(10)))
	register(t, s, d, mk("sim_day_10", 10, i64(20)))

	if err := s.Registry().Refresh(ctx, d); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if d.StartOffset == nil || *d.StartOffset != 0 || d.EndOffset == nil || *d.EndOffset != 20 {
		t.Fatalf("extent: start=%v end=%v", d.StartOffset, d.EndOffset)
	}
	if d.MapTime == nil || *d.MapTime != model.MapTimeInterval {
		t.Fatalf("map time: %v", d.MapTime)
	}
	// Absolute columns stay untouched in relative mode.
	if d.Start != nil || d.End != nil {
		t.Fatalf("absolute columns set on relative dataset: %v %v", d.Start, d.End)
	}

	members, err := s.Registry().Members(ctx, d, model.ListMembersRequest{AfterOffset: i64(5)})
	if err != nil || len(members) != 1 || members[0].ID != "sim_day_10" {
		t.Fatalf("offset filter: %v err=%v", memberIDs(members), err)
	}
}

func testTeardown(t *testing.T, s store.Store) {
	ctx := context.Background()
	d := mkDataset(t, s, "tempmean", model.TemporalAbsolute)
	m1 := mkMap(t, s, "m_2020_01", tsp(t, "2020-01-01"), tsp(t, "2020-02-01"))
	m2 := mkMap(t, s, "m_2020_02", tsp(t, "2020-02-01"), tsp(t, "2020-03-01"))
	register(t, s, d, m1)
	register(t, s, d, m2)
	if err := s.Registry().Refresh(ctx, d); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	for _, m := range []*model.Map{m1, m2} {
		if ok, err := s.Registry().Unregister(ctx, d, m); err != nil || !ok {
			t.Fatalf("unregister %s: ok=%v err=%v", m.ID, ok, err)
		}
	}
	if err := s.Registry().Refresh(ctx, d); err != nil {
		t.Fatalf("refresh after unregister: %v", err)
	}
	if d.MapCount != 0 || d.Start != nil || d.End != nil || d.MapTime != nil {
		t.Fatalf("extent not cleared: %+v", d)
	}

	if err := s.Registry().DropRegister(ctx, d); err != nil {
		t.Fatalf("drop register: %v", err)
	}
	if d.MapRegister != nil {
		t.Fatalf("register name not cleared")
	}
	got, err := s.Datasets().Get(ctx, "climate", "tempmean")
	if err != nil || got.MapRegister != nil {
		t.Fatalf("register name still persisted: %v err=%v", got.MapRegister, err)
	}

	// With the table gone the ledger reads as empty, not as an error.
	if ok, err := s.Registry().IsRegistered(ctx, got, m1.ID); err != nil || ok {
		t.Fatalf("IsRegistered after drop: ok=%v err=%v", ok, err)
	}
	if ids, err := s.Registry().MemberIDs(ctx, got); err != nil || len(ids) != 0 {
		t.Fatalf("MemberIDs after drop: %v err=%v", ids, err)
	}

	// Maps survive teardown; only the membership is gone.
	if _, err := s.Maps().Get(ctx, "climate", "m_2020_01"); err != nil {
		t.Fatalf("map lost in teardown: %v", err)
	}

	if err := s.Datasets().Delete(ctx, "climate", "tempmean"); err != nil {
		t.Fatalf("delete dataset: %v", err)
	}
}

func memberIDs(members []*model.Map) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	return ids
}
