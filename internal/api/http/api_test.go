package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mwort/grass/internal/model"
	"github.com/mwort/grass/internal/store/sqlite"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "temporal.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	srv := httptest.NewServer(NewRouter(st, NewHealthHandler(nil)))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, wantStatus int, out any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d", method, url, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func TestAPI_DatasetLifecycle(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/mapsets/climate"

	var d model.Dataset
	doJSON(t, http.MethodPost, base+"/datasets", map[string]any{
		"id": "tempmean", "kind": "strds", "temporalType": "absolute",
	}, http.StatusCreated, &d)
	if d.ID != "tempmean" || d.Mapset != "climate" {
		t.Fatalf("created dataset: %+v", d)
	}

	for i, m := range []map[string]any{
		{"id": "m_jan", "kind": "raster", "temporalType": "absolute",
			"startTime": "2020-01-01T00:00:00Z", "endTime": "2020-02-01T00:00:00Z"},
		{"id": "m_feb", "kind": "raster", "temporalType": "absolute",
			"startTime": "2020-02-01T00:00:00Z", "endTime": "2020-03-01T00:00:00Z"},
	} {
		doJSON(t, http.MethodPost, base+"/maps", m, http.StatusCreated, nil)
		doJSON(t, http.MethodPut, fmt.Sprintf("%s/datasets/tempmean/maps/%s", base, m["id"]), nil, http.StatusOK, &d)
		if d.MapCount != i+1 {
			t.Fatalf("map count after register %d: %d", i+1, d.MapCount)
		}
	}
	if d.MapTime == nil || *d.MapTime != model.MapTimeInterval {
		t.Fatalf("map time: %v", d.MapTime)
	}

	var members struct {
		Maps  []model.Map `json:"maps"`
		Count int         `json:"count"`
	}
	doJSON(t, http.MethodGet, base+"/datasets/tempmean/maps?order=start_desc&limit=1", nil, http.StatusOK, &members)
	if members.Count != 1 || members.Maps[0].ID != "m_feb" {
		t.Fatalf("members: %+v", members)
	}

	var matrix model.RelationMatrix
	doJSON(t, http.MethodGet, base+"/datasets/tempmean/relations", nil, http.StatusOK, &matrix)
	if len(matrix.IDs) != 2 || matrix.IDs[0] != "m_jan" {
		t.Fatalf("matrix ids: %v", matrix.IDs)
	}
	if matrix.Relations[0][1] != "meets" || matrix.Relations[1][0] != "met" {
		t.Fatalf("matrix relations: %v", matrix.Relations)
	}

	// Still registered: the map cannot be deleted.
	doJSON(t, http.MethodDelete, base+"/maps/m_jan", nil, http.StatusConflict, nil)

	doJSON(t, http.MethodDelete, base+"/datasets/tempmean/maps/m_jan", nil, http.StatusOK, &d)
	if d.MapCount != 1 {
		t.Fatalf("map count after unregister: %d", d.MapCount)
	}

	doJSON(t, http.MethodDelete, base+"/datasets/tempmean", nil, http.StatusNoContent, nil)
	doJSON(t, http.MethodGet, base+"/datasets/tempmean", nil, http.StatusNotFound, nil)

	// Teardown released the remaining member.
	doJSON(t, http.MethodDelete, base+"/maps/m_feb", nil, http.StatusNoContent, nil)
}

func TestAPI_Validation(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/mapsets/climate"

	doJSON(t, http.MethodPost, base+"/datasets", map[string]any{
		"id": "bad name", "kind": "strds", "temporalType": "absolute",
	}, http.StatusBadRequest, nil)

	doJSON(t, http.MethodPost, base+"/datasets", map[string]any{
		"id": "tempmean", "kind": "timecube", "temporalType": "absolute",
	}, http.StatusBadRequest, nil)

	doJSON(t, http.MethodPost, base+"/datasets", map[string]any{
		"id": "tempmean", "kind": "strds", "temporalType": "absolute",
	}, http.StatusCreated, nil)
	doJSON(t, http.MethodPost, base+"/datasets", map[string]any{
		"id": "tempmean", "kind": "strds", "temporalType": "absolute",
	}, http.StatusConflict, nil)

	// A time-less map is rejected at registration, not creation.
	doJSON(t, http.MethodPost, base+"/maps", map[string]any{
		"id": "timeless", "kind": "raster", "temporalType": "absolute",
	}, http.StatusCreated, nil)
	doJSON(t, http.MethodPut, base+"/datasets/tempmean/maps/timeless", nil, http.StatusBadRequest, nil)

	doJSON(t, http.MethodGet, base+"/datasets/tempmean/maps?order=sideways", nil, http.StatusBadRequest, nil)
	doJSON(t, http.MethodGet, base+"/datasets/tempmean/maps?after=notatime", nil, http.StatusBadRequest, nil)
}

func TestAPI_Health(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v0/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status: %d", resp.StatusCode)
	}
}
