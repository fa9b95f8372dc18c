package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/mwort/grass/internal/api/respond"
	"github.com/mwort/grass/internal/api/validate"
	"github.com/mwort/grass/internal/model"
	"github.com/mwort/grass/internal/services"
	"github.com/mwort/grass/internal/store"
)

// DatasetHandler provides HTTP transport for space-time dataset operations.
type DatasetHandler struct {
	datasets *services.DatasetService
}

func NewDatasetHandler(svc *services.DatasetService) *DatasetHandler {
	return &DatasetHandler{datasets: svc}
}

// writeServiceError maps domain errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case store.IsValidation(err):
		respond.WriteBadRequest(w, err.Error())
	case store.IsNotFound(err):
		respond.WriteNotFound(w, err.Error())
	case store.IsConflict(err):
		respond.WriteError(w, http.StatusConflict, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}

// CreateDataset POST /api/mapsets/{mapset}/datasets
func (h *DatasetHandler) CreateDataset(w http.ResponseWriter, r *http.Request) {
	mapset := mux.Vars(r)["mapset"]

	var req struct {
		ID           string  `json:"id"`
		Kind         string  `json:"kind"`
		TemporalType string  `json:"temporalType"`
		SemanticType string  `json:"semanticType,omitempty"`
		Title        *string `json:"title,omitempty"`
		Description  *string `json:"description,omitempty"`
		Granularity  *string `json:"granularity,omitempty"`
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

	d, err := h.datasets.Create(r.Context(), &model.Dataset{
		ID:           req.ID,
		Mapset:       mapset,
		Kind:         model.DatasetKind(req.Kind),
		TemporalType: model.TemporalType(req.TemporalType),
		SemanticType: req.SemanticType,
		Title:        req.Title,
		Description:  req.Description,
		Granularity:  req.Granularity,
		TimeZone:     req.TimeZone,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, d)
}

// ListDatasets GET /api/mapsets/{mapset}/datasets
func (h *DatasetHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	mapset := mux.Vars(r)["mapset"]
	lst, err := h.datasets.List(r.Context(), mapset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"datasets": lst, "count": len(lst)})
}

// GetDataset GET /api/mapsets/{mapset}/datasets/{datasetId}
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	d, err := h.datasets.Get(r.Context(), vars["mapset"], vars["datasetId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, d)
}

// DeleteDataset DELETE /api/mapsets/{mapset}/datasets/{datasetId}
//
// Tears down the whole dataset: members are unregistered, the register table
// dropped and the record removed. Member maps are untouched.
func (h *DatasetHandler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.datasets.Delete(r.Context(), vars["mapset"], vars["datasetId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RefreshDataset POST /api/mapsets/{mapset}/datasets/{datasetId}/refresh
func (h *DatasetHandler) RefreshDataset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	d, err := h.datasets.Refresh(r.Context(), vars["mapset"], vars["datasetId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, d)
}

// RegisterMap PUT /api/mapsets/{mapset}/datasets/{datasetId}/maps/{mapId}
func (h *DatasetHandler) RegisterMap(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	d, err := h.datasets.RegisterMap(r.Context(), vars["mapset"], vars["datasetId"], vars["mapId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, d)
}

// UnregisterMap DELETE /api/mapsets/{mapset}/datasets/{datasetId}/maps/{mapId}
func (h *DatasetHandler) UnregisterMap(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	d, err := h.datasets.UnregisterMap(r.Context(), vars["mapset"], vars["datasetId"], vars["mapId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, d)
}

// ListMembers GET /api/mapsets/{mapset}/datasets/{datasetId}/maps
//
// Query parameters: order (start|start_desc|end|end_desc), limit,
// after/before (RFC 3339, absolute datasets), afterOffset/beforeOffset
// (integers, relative datasets).
func (h *DatasetHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	req := model.ListMembersRequest{
		Mapset:    vars["mapset"],
		DatasetID: vars["datasetId"],
		Order:     model.MemberOrder(r.URL.Query().Get("order")),
	}
	if !req.Order.Valid() {
		respond.WriteBadRequest(w, "unknown order "+string(req.Order))
		return
	}
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respond.WriteBadRequest(w, "invalid limit")
			return
		}
		req.Limit = n
	}
	var parseErr error
	req.After, parseErr = parseTimeParam(q.Get("after"), parseErr)
	req.Before, parseErr = parseTimeParam(q.Get("before"), parseErr)
	req.AfterOffset, parseErr = parseOffsetParam(q.Get("afterOffset"), parseErr)
	req.BeforeOffset, parseErr = parseOffsetParam(q.Get("beforeOffset"), parseErr)
	if parseErr != nil {
		respond.WriteBadRequest(w, parseErr.Error())
		return
	}

	members, err := h.datasets.ListMembers(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"maps": members, "count": len(members)})
}

// RelationMatrix GET /api/mapsets/{mapset}/datasets/{datasetId}/relations
func (h *DatasetHandler) RelationMatrix(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	matrix, err := h.datasets.RelationMatrix(r.Context(), vars["mapset"], vars["datasetId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, matrix)
}

func parseTimeParam(v string, prev error) (*time.Time, error) {
	if prev != nil || v == "" {
		return nil, prev
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func parseOffsetParam(v string, prev error) (*int64, error) {
	if prev != nil || v == "" {
		return nil, prev
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
