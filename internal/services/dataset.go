package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mwort/grass/internal/model"
	"github.com/mwort/grass/internal/store"
	"github.com/mwort/grass/internal/temporal"
)

// DatasetService carries the dataset-level operations: catalog CRUD, the
// register/unregister lifecycle, extent refresh and the temporal relation
// matrix. Membership bookkeeping itself lives in store.Registry.
type DatasetService struct {
	store store.Store
}

func NewDatasetService(s store.Store) *DatasetService {
	return &DatasetService{store: s}
}

func (s *DatasetService) Create(ctx context.Context, d *model.Dataset) (*model.Dataset, error) {
	return s.store.Datasets().Create(ctx, d)
}

func (s *DatasetService) Get(ctx context.Context, mapset, id string) (*model.Dataset, error) {
	return s.store.Datasets().Get(ctx, mapset, id)
}

func (s *DatasetService) List(ctx context.Context, mapset string) ([]*model.Dataset, error) {
	return s.store.Datasets().List(ctx, mapset)
}

// RegisterMap adds a map to the dataset's ledger after checking that the map
// is registrable at all. Re-registering an already registered map is not an
// error; it logs a warning and leaves the ledger untouched.
func (s *DatasetService) RegisterMap(ctx context.Context, mapset, datasetID, mapID string) (*model.Dataset, error) {
	d, err := s.store.Datasets().Get(ctx, mapset, datasetID)
	if err != nil {
		return nil, err
	}
	m, err := s.store.Maps().Get(ctx, mapset, mapID)
	if err != nil {
		return nil, err
	}
	if err := checkRegistrable(d, m); err != nil {
		return nil, err
	}

	ok, err := s.store.Registry().Register(ctx, d, m)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Warn().
			Str("dataset", d.ID).
			Str("map", m.ID).
			Str("mapset", mapset).
			Msg("map already registered in dataset")
		return d, nil
	}
	if err := s.store.Registry().Refresh(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// checkRegistrable enforces the hard preconditions of registration.
func checkRegistrable(d *model.Dataset, m *model.Map) error {
	if !m.HasValidTime() {
		return fmt.Errorf("map %q has no valid time stamp: %w", m.ID, model.ErrValidation)
	}
	if m.TemporalType != d.TemporalType {
		return fmt.Errorf("map %q is %s, dataset %q is %s: %w",
			m.ID, m.TemporalType, d.ID, d.TemporalType, model.ErrValidation)
	}
	if m.Kind != d.Kind.MapKind() {
		return fmt.Errorf("map %q is %s, dataset %q registers %s maps: %w",
			m.ID, m.Kind, d.ID, d.Kind.MapKind(), model.ErrValidation)
	}
	if m.Mapset != d.Mapset {
		return fmt.Errorf("map %q lives in mapset %q, dataset %q in %q: %w",
			m.ID, m.Mapset, d.ID, d.Mapset, model.ErrValidation)
	}
	return nil
}

// UnregisterMap removes a map from the dataset's ledger. Unregistering a map
// that was never registered logs a warning and reports the current state.
func (s *DatasetService) UnregisterMap(ctx context.Context, mapset, datasetID, mapID string) (*model.Dataset, error) {
	d, err := s.store.Datasets().Get(ctx, mapset, datasetID)
	if err != nil {
		return nil, err
	}
	m, err := s.store.Maps().Get(ctx, mapset, mapID)
	if err != nil {
		return nil, err
	}
	ok, err := s.store.Registry().Unregister(ctx, d, m)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Warn().
			Str("dataset", d.ID).
			Str("map", m.ID).
			Str("mapset", mapset).
			Msg("map was not registered in dataset")
		return d, nil
	}
	if err := s.store.Registry().Refresh(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Refresh recomputes the dataset's temporal extent, member count and
// classification from its current membership.
func (s *DatasetService) Refresh(ctx context.Context, mapset, id string) (*model.Dataset, error) {
	d, err := s.store.Datasets().Get(ctx, mapset, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Registry().Refresh(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// ListMembers returns the registered maps with temporal filters applied.
func (s *DatasetService) ListMembers(ctx context.Context, req model.ListMembersRequest) ([]*model.Map, error) {
	d, err := s.store.Datasets().Get(ctx, req.Mapset, req.DatasetID)
	if err != nil {
		return nil, err
	}
	return s.store.Registry().Members(ctx, d, req)
}

// RelationMatrix computes the pairwise temporal relation of every member to
// every other member, ordered by start time.
func (s *DatasetService) RelationMatrix(ctx context.Context, mapset, id string) (*model.RelationMatrix, error) {
	d, err := s.store.Datasets().Get(ctx, mapset, id)
	if err != nil {
		return nil, err
	}
	members, err := s.store.Registry().Members(ctx, d, model.ListMembersRequest{Order: model.OrderStartAsc})
	if err != nil {
		return nil, err
	}

	out := &model.RelationMatrix{
		IDs:       make([]string, len(members)),
		Relations: make([][]temporal.Relation, len(members)),
	}
	extents := make([]temporal.Extent, len(members))
	for i, m := range members {
		out.IDs[i] = m.ID
		extents[i] = m.Extent()
	}
	for i := range members {
		out.Relations[i] = make([]temporal.Relation, len(members))
		for j := range members {
			out.Relations[i][j] = temporal.Compare(extents[i], extents[j])
		}
	}
	return out, nil
}

// Delete tears a dataset down: every member is unregistered, the register
// table is dropped and the record removed. Member maps themselves survive.
func (s *DatasetService) Delete(ctx context.Context, mapset, id string) error {
	d, err := s.store.Datasets().Get(ctx, mapset, id)
	if err != nil {
		return err
	}

	ids, err := s.store.Registry().MemberIDs(ctx, d)
	if err != nil {
		return err
	}
	for _, mapID := range ids {
		m, err := s.store.Maps().Get(ctx, mapset, mapID)
		if err != nil {
			return err
		}
		if _, err := s.store.Registry().Unregister(ctx, d, m); err != nil {
			return err
		}
	}
	if err := s.store.Registry().DropRegister(ctx, d); err != nil {
		return err
	}
	if err := s.store.Datasets().Delete(ctx, mapset, id); err != nil {
		return err
	}
	d.Reset()
	return nil
}
