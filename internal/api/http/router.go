package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mwort/grass/internal/api/recovery"
	"github.com/mwort/grass/internal/services"
	"github.com/mwort/grass/internal/store"
)

// NewRouter builds the full API router over a store.
func NewRouter(st store.Store, health *HealthHandler) *mux.Router {
	datasets := NewDatasetHandler(services.NewDatasetService(st))
	maps := NewMapHandler(services.NewMapService(st))

	r := mux.NewRouter()
	r.Use(recovery.Middleware)

	if health != nil {
		r.HandleFunc("/v0/health", health.Health).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/mapsets/{mapset}").Subrouter()

	api.HandleFunc("/datasets", datasets.CreateDataset).Methods(http.MethodPost)
	api.HandleFunc("/datasets", datasets.ListDatasets).Methods(http.MethodGet)
	api.HandleFunc("/datasets/{datasetId}", datasets.GetDataset).Methods(http.MethodGet)
	api.HandleFunc("/datasets/{datasetId}", datasets.DeleteDataset).Methods(http.MethodDelete)
	api.HandleFunc("/datasets/{datasetId}/refresh", datasets.RefreshDataset).Methods(http.MethodPost)
	api.HandleFunc("/datasets/{datasetId}/relations", datasets.RelationMatrix).Methods(http.MethodGet)
	api.HandleFunc("/datasets/{datasetId}/maps", datasets.ListMembers).Methods(http.MethodGet)
	api.HandleFunc("/datasets/{datasetId}/maps/{mapId}", datasets.RegisterMap).Methods(http.MethodPut)
	api.HandleFunc("/datasets/{datasetId}/maps/{mapId}", datasets.UnregisterMap).Methods(http.MethodDelete)

	api.HandleFunc("/maps", maps.CreateMap).Methods(http.MethodPost)
	api.HandleFunc("/maps", maps.ListMaps).Methods(http.MethodGet)
	api.HandleFunc("/maps/{mapId}", maps.GetMap).Methods(http.MethodGet)
	api.HandleFunc("/maps/{mapId}", maps.DeleteMap).Methods(http.MethodDelete)
	api.HandleFunc("/maps/{mapId}/datasets", maps.ListMapDatasets).Methods(http.MethodGet)

	return r
}
