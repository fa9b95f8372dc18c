package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mwort/grass/internal/api/respond"
	"github.com/mwort/grass/internal/api/validate"
	"github.com/mwort/grass/internal/model"
	"github.com/mwort/grass/internal/services"
)

// MapHandler provides HTTP transport for map record operations.
type MapHandler struct {
	maps *services.MapService
}

func NewMapHandler(svc *services.MapService) *MapHandler {
	return &MapHandler{maps: svc}
}

// CreateMap POST /api/mapsets/{mapset}/maps
func (h *MapHandler) CreateMap(w http.ResponseWriter, r *http.Request) {
	mapset := mux.Vars(r)["mapset"]

	var req struct {
		ID           string  `json:"id"`
		Kind         string  `json:"kind"`
		TemporalType string  `json:"temporalType"`
		StartTime    *string `json:"startTime,omitempty"`
		EndTime      *string `json:"endTime,omitempty"`
		StartOffset  *int64  `json:"startOffset,omitempty"`
		EndOffset    *int64  `json:"endOffset,omitempty"`
		TimeZone     *string `json:"timeZone,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Name("id", req.ID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Name("mapset", mapset); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	m := &model.Map{
		ID:           req.ID,
		Mapset:       mapset,
		Kind:         model.MapKind(req.Kind),
		TemporalType: model.TemporalType(req.TemporalType),
		StartOffset:  req.StartOffset,
		EndOffset:    req.EndOffset,
		TimeZone:     req.TimeZone,
	}
	var parseErr error
	if m.Start, parseErr = parseTimeParam(strOrEmpty(req.StartTime), parseErr); parseErr == nil {
		m.End, parseErr = parseTimeParam(strOrEmpty(req.EndTime), parseErr)
	}
	if parseErr != nil {
		respond.WriteBadRequest(w, parseErr.Error())
		return
	}

	created, err := h.maps.Create(r.Context(), m)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, created)
}

// ListMaps GET /api/mapsets/{mapset}/maps?kind=raster
func (h *MapHandler) ListMaps(w http.ResponseWriter, r *http.Request) {
	mapset := mux.Vars(r)["mapset"]
	kind := model.MapKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = model.KindRaster
	}
	lst, err := h.maps.List(r.Context(), mapset, kind)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"maps": lst, "count": len(lst)})
}

// GetMap GET /api/mapsets/{mapset}/maps/{mapId}
func (h *MapHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	m, err := h.maps.Get(r.Context(), vars["mapset"], vars["mapId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, m)
}

// ListMapDatasets GET /api/mapsets/{mapset}/maps/{mapId}/datasets
func (h *MapHandler) ListMapDatasets(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ids, err := h.maps.Datasets(r.Context(), vars["mapset"], vars["mapId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"datasets": ids, "count": len(ids)})
}

// DeleteMap DELETE /api/mapsets/{mapset}/maps/{mapId}
//
// Refused with 409 while the map is still registered in any dataset.
func (h *MapHandler) DeleteMap(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.maps.Delete(r.Context(), vars["mapset"], vars["mapId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
